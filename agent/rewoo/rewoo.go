// Package rewoo implements the ReWOO orchestration strategy: a single
// planning pass, parallel evidence collection over a dependency graph,
// and a final solving pass. See https://arxiv.org/abs/2305.18323
package rewoo

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/sweetpotato0/reagent/agent"
	"github.com/sweetpotato0/reagent/citation"
	"github.com/sweetpotato0/reagent/config"
	"github.com/sweetpotato0/reagent/llm"
	"github.com/sweetpotato0/reagent/middleware"
	"github.com/sweetpotato0/reagent/pkg/logging"
	"github.com/sweetpotato0/reagent/pkg/telemetry"
	"github.com/sweetpotato0/reagent/prompt"
	"github.com/sweetpotato0/reagent/runner"
	"github.com/sweetpotato0/reagent/tokenizer"
	"github.com/sweetpotato0/reagent/tool"
)

// DefaultMaxContextLength caps each resolved evidence, in tokens.
const DefaultMaxContextLength = 3000

// DefaultCitationTimeout bounds how long a run waits for the citation
// extractor before giving up on it.
const DefaultCitationTimeout = 5 * time.Second

// Agent is a plan/work/solve agent. The planner emits the whole plan up
// front, workers resolve evidences level by level, and the solver condenses
// the collected evidence into the final answer.
type Agent struct {
	planner           *planner
	solver            *solver
	tools             *tool.Registry
	maxContextLength  int
	workerConcurrency int
	trimmer           *tokenizer.Trimmer
	citer             citation.Extractor
	citationTimeout   time.Duration
	chain             *middleware.Chain
	logger            *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithSolverLLM routes the solving pass to a different model than the
// planner, typically a cheaper one.
func WithSolverLLM(client llm.Client) Option {
	return func(a *Agent) { a.solver.model = client }
}

// WithPlannerTemplate overrides the default planner template.
func WithPlannerTemplate(t *prompt.Template) Option {
	return func(a *Agent) { a.planner.template = t }
}

// WithSolverTemplate overrides the default solver template.
func WithSolverTemplate(t *prompt.Template) Option {
	return func(a *Agent) { a.solver.template = t }
}

// WithPlannerExamples switches the planner to its few-shot template.
func WithPlannerExamples(examples ...string) Option {
	return func(a *Agent) { a.planner.examples = examples }
}

// WithSolverExamples switches the solver to its few-shot template.
func WithSolverExamples(examples ...string) Option {
	return func(a *Agent) { a.solver.examples = examples }
}

// WithOutputLang sets the answer language injected into the solver prompt.
func WithOutputLang(lang string) Option {
	return func(a *Agent) { a.solver.outputLang = lang }
}

// WithMaxContextLength sets the per-evidence token budget.
func WithMaxContextLength(n int) Option {
	return func(a *Agent) { a.maxContextLength = n }
}

// WithTokenizer sets the tokenizer backing the evidence trimmer.
func WithTokenizer(tok tokenizer.Tokenizer) Option {
	return func(a *Agent) { a.trimmer = tokenizer.NewTrimmer(tok, a.maxContextLength) }
}

// WithWorkerConcurrency bounds how many evidences of one level run at once.
func WithWorkerConcurrency(limit int) Option {
	return func(a *Agent) { a.workerConcurrency = limit }
}

// WithCitation enables best-effort citation extraction over the worker log.
// A zero timeout falls back to DefaultCitationTimeout.
func WithCitation(ex citation.Extractor, timeout time.Duration) Option {
	return func(a *Agent) {
		a.citer = ex
		if timeout > 0 {
			a.citationTimeout = timeout
		}
	}
}

// WithMiddlewares sets the middleware chain runs are threaded through.
func WithMiddlewares(middlewares ...middleware.Middleware) Option {
	return func(a *Agent) { a.chain = middleware.NewChain(middlewares...) }
}

// New creates a ReWOO agent over the given LLM client and tool registry. The
// same client serves planning and solving unless WithSolverLLM is set.
func New(client llm.Client, tools *tool.Registry, opts ...Option) (*Agent, error) {
	a := &Agent{
		planner:           &planner{model: client, tools: tools},
		solver:            &solver{model: client, outputLang: "English"},
		tools:             tools,
		maxContextLength:  DefaultMaxContextLength,
		workerConcurrency: runner.DefaultConcurrency,
		citationTimeout:   DefaultCitationTimeout,
		chain:             middleware.NewChain(),
		logger:            logging.WithComponent("rewoo"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.trimmer == nil {
		a.trimmer = tokenizer.NewTrimmer(tokenizer.NewSimpleTokenizer(), a.maxContextLength)
	}

	if client == nil {
		return nil, fmt.Errorf("rewoo: llm client is required")
	}
	if tools == nil {
		return nil, fmt.Errorf("rewoo: tool registry is required")
	}
	if err := config.NewValidator().
		RequirePositive("max_context_length", a.maxContextLength).
		RequirePositive("worker_concurrency", a.workerConcurrency).
		Err(); err != nil {
		return nil, err
	}
	return a, nil
}

// plan calls the planner once and parses its completion into the plan map,
// the evidence map, and the scheduled dependency levels. A cyclic plan fails
// here, before any tool runs.
func (a *Agent) plan(ctx context.Context, instruction string) (_ *llm.Completion, _ *planMap, _ map[string]string, _ [][]string, err error) {
	ctx, span := otel.Tracer("reagent/agent/rewoo").Start(ctx, "rewoo.plan")
	defer func() { telemetry.End(span, err) }()

	completion, err := a.planner.run(ctx, instruction)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("rewoo: planner failed: %w", err)
	}
	a.logger.Debug("planner response", "text", completion.Text)

	pm := parsePlanMap(completion.Text)
	evidences, g := parseEvidences(completion.Text)
	levels, err := g.Levels()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return completion, pm, evidences, levels, nil
}

// Run executes the agent synchronously with the given instruction.
func (a *Agent) Run(ctx context.Context, instruction string) (*agent.Output, error) {
	mwCtx := middleware.NewContext(ctx, instruction)
	err := a.chain.Execute(mwCtx, func(mwCtx *middleware.Context) error {
		out, err := a.run(mwCtx.Context(), instruction)
		mwCtx.Output = out
		mwCtx.Error = err
		return err
	})
	if err != nil {
		return nil, err
	}
	return mwCtx.Output, nil
}

func (a *Agent) run(ctx context.Context, instruction string) (out *agent.Output, err error) {
	ctx, span := otel.Tracer("reagent/agent/rewoo").Start(ctx, "rewoo.run")
	defer func() { telemetry.End(span, err) }()

	a.logger.Info("running rewoo agent", "instruction", instruction)

	plannerOut, pm, evidences, levels, err := a.plan(ctx, instruction)
	if err != nil {
		return nil, err
	}
	a.logger.Info("plan scheduled", "plans", len(pm.order), "evidences", len(evidences), "levels", len(levels))

	resolved, err := a.executeLevels(ctx, evidences, levels)
	if err != nil {
		return nil, err
	}
	workerLog := buildWorkerLog(pm, resolved)

	solverOut, err := a.solver.run(ctx, instruction, workerLog)
	if err != nil {
		return nil, fmt.Errorf("rewoo: solver failed: %w", err)
	}

	var qa *citation.QuestionAnswer
	if a.citer != nil {
		qa = citation.ExtractWithTimeout(ctx, a.citer, a.citationTimeout, workerLog, instruction)
	}

	return &agent.Output{
		Text:        solverOut.Text,
		AgentType:   agent.TypeRewoo,
		Status:      agent.StatusFinished,
		TotalTokens: plannerOut.TotalTokens + solverOut.TotalTokens,
		TotalCost:   plannerOut.TotalCost + solverOut.TotalCost,
		Citation:    qa,
		Metadata: map[string]any{
			"citation":   qa,
			"worker_log": workerLog,
		},
	}, nil
}

// failedOutput is the terminal event paired with a stream error, carrying
// whatever usage accrued before the failure.
func failedOutput(err error, tokens int, cost float64) *agent.Output {
	return &agent.Output{
		AgentType:   agent.TypeRewoo,
		Status:      agent.StatusFailed,
		Error:       err.Error(),
		TotalTokens: tokens,
		TotalCost:   cost,
	}
}

// Stream executes the agent, yielding a thinking event for the plan, one per
// completed plan with its resolved evidences, the solver tokens as they
// arrive, and a terminal finished event carrying usage and the worker log.
func (a *Agent) Stream(ctx context.Context, instruction string) iter.Seq2[*agent.Output, error] {
	return func(yield func(*agent.Output, error) bool) {
		ctx, span := otel.Tracer("reagent/agent/rewoo").Start(ctx, "rewoo.stream")
		var streamErr error
		defer func() { telemetry.End(span, streamErr) }()

		a.logger.Info("streaming rewoo agent", "instruction", instruction)

		plannerOut, pm, evidences, levels, err := a.plan(ctx, instruction)
		if err != nil {
			streamErr = err
			yield(failedOutput(err, 0, 0), err)
			return
		}
		if !yield(&agent.Output{
			AgentType: agent.TypeRewoo,
			Status:    agent.StatusThinking,
			Metadata:  map[string]any{"planner_log": plannerOut.Text},
		}, nil) {
			return
		}

		resolved, err := a.executeLevels(ctx, evidences, levels)
		if err != nil {
			streamErr = err
			yield(failedOutput(err, plannerOut.TotalTokens, plannerOut.TotalCost), err)
			return
		}

		workerLog := ""
		for _, plan := range pm.order {
			progress := plan + ": " + pm.descriptions[plan] + "\n"
			for _, e := range pm.evidences[plan] {
				value, ok := resolved[e]
				if !ok {
					value = "No evidence found"
				}
				progress += "#Action: " + evidences[e] + "\n"
				progress += e + ": " + value + "\n"
			}
			workerLog += progress
			if !yield(&agent.Output{
				AgentType: agent.TypeRewoo,
				Status:    agent.StatusThinking,
				Metadata:  map[string]any{"current_progress": progress},
			}, nil) {
				return
			}
		}

		totalTokens := plannerOut.TotalTokens
		totalCost := plannerOut.TotalCost
		for chunk, err := range a.solver.stream(ctx, instruction, workerLog) {
			if err != nil {
				streamErr = fmt.Errorf("rewoo: solver failed: %w", err)
				yield(failedOutput(streamErr, totalTokens, totalCost), streamErr)
				return
			}
			totalTokens += chunk.TotalTokens
			totalCost += chunk.TotalCost
			if !yield(&agent.Output{
				Text:      chunk.Text,
				AgentType: agent.TypeRewoo,
				Status:    agent.StatusThinking,
			}, nil) {
				return
			}
		}

		var qa *citation.QuestionAnswer
		if a.citer != nil {
			qa = citation.ExtractWithTimeout(ctx, a.citer, a.citationTimeout, workerLog, instruction)
		}

		yield(&agent.Output{
			AgentType:   agent.TypeRewoo,
			Status:      agent.StatusFinished,
			TotalTokens: totalTokens,
			TotalCost:   totalCost,
			Citation:    qa,
			Metadata: map[string]any{
				"citation":   qa,
				"worker_log": workerLog,
			},
		}, nil)
	}
}
