// Package react implements the ReAct orchestration strategy: an iterative
// think/act/observe loop with a textual scratchpad and a bounded iteration
// count. See https://arxiv.org/pdf/2210.03629.pdf
package react

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/sweetpotato0/reagent/agent"
	"github.com/sweetpotato0/reagent/config"
	"github.com/sweetpotato0/reagent/llm"
	"github.com/sweetpotato0/reagent/message"
	"github.com/sweetpotato0/reagent/middleware"
	"github.com/sweetpotato0/reagent/pkg/logging"
	"github.com/sweetpotato0/reagent/pkg/telemetry"
	"github.com/sweetpotato0/reagent/prompt"
	"github.com/sweetpotato0/reagent/tokenizer"
	"github.com/sweetpotato0/reagent/tool"
)

const (
	// DefaultMaxIterations bounds the think/act/observe loop.
	DefaultMaxIterations = 5
	// DefaultMaxContextLength caps each tool output, in tokens.
	DefaultMaxContextLength = 3000
)

// Agent is a sequential ReAct agent. Each Run (or Stream) owns a fresh
// scratchpad; no state carries over between calls.
type Agent struct {
	llm              llm.Client
	tools            *tool.Registry
	promptTemplate   *prompt.Template
	outputLang       string
	maxIterations    int
	strictDecode     bool
	maxContextLength int
	trimmer          *tokenizer.Trimmer
	chain            *middleware.Chain
	logger           *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxIterations sets the iteration budget.
func WithMaxIterations(n int) Option {
	return func(a *Agent) { a.maxIterations = n }
}

// WithStrictDecode makes unparseable completions fail the run instead of
// being treated as the final answer.
func WithStrictDecode(strict bool) Option {
	return func(a *Agent) { a.strictDecode = strict }
}

// WithMaxContextLength sets the per-observation token budget.
func WithMaxContextLength(n int) Option {
	return func(a *Agent) { a.maxContextLength = n }
}

// WithTokenizer sets the tokenizer backing the observation trimmer.
func WithTokenizer(tok tokenizer.Tokenizer) Option {
	return func(a *Agent) { a.trimmer = tokenizer.NewTrimmer(tok, a.maxContextLength) }
}

// WithPromptTemplate overrides the default ReAct template.
func WithPromptTemplate(t *prompt.Template) Option {
	return func(a *Agent) { a.promptTemplate = t }
}

// WithOutputLang sets the answer language injected into the prompt.
func WithOutputLang(lang string) Option {
	return func(a *Agent) { a.outputLang = lang }
}

// WithMiddlewares sets the middleware chain runs are threaded through.
func WithMiddlewares(middlewares ...middleware.Middleware) Option {
	return func(a *Agent) { a.chain = middleware.NewChain(middlewares...) }
}

// New creates a ReAct agent over the given LLM client and tool registry.
func New(client llm.Client, tools *tool.Registry, opts ...Option) (*Agent, error) {
	a := &Agent{
		llm:              client,
		tools:            tools,
		promptTemplate:   zeroShotPrompt,
		outputLang:       "English",
		maxIterations:    DefaultMaxIterations,
		maxContextLength: DefaultMaxContextLength,
		chain:            middleware.NewChain(),
		logger:           logging.WithComponent("react"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.trimmer == nil {
		a.trimmer = tokenizer.NewTrimmer(tokenizer.NewSimpleTokenizer(), a.maxContextLength)
	}

	if client == nil {
		return nil, fmt.Errorf("react: llm client is required")
	}
	if tools == nil {
		return nil, fmt.Errorf("react: tool registry is required")
	}
	if err := config.NewValidator().
		RequirePositive("max_iterations", a.maxIterations).
		RequirePositive("max_context_length", a.maxContextLength).
		Err(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Agent) composePrompt(instruction string, steps []agent.Step) (string, error) {
	toolDescription, err := a.tools.Describe()
	if err != nil {
		return "", err
	}
	names := make([]string, 0, a.tools.Len())
	for _, t := range a.tools.List() {
		names = append(names, t.Name())
	}
	return a.promptTemplate.Render(map[string]any{
		"instruction":      instruction,
		"agent_scratchpad": buildScratchpad(steps),
		"tool_description": toolDescription,
		"tool_names":       strings.Join(names, ", "),
		"lang":             a.outputLang,
	})
}

// buildScratchpad replays prior actions and observations so the model can
// continue its thought process.
func buildScratchpad(steps []agent.Step) string {
	var b strings.Builder
	for _, step := range steps {
		if step.Action == nil {
			continue
		}
		b.WriteString(step.Action.Log)
		b.WriteString("\nObservation: " + step.Observation + "\nThought:")
	}
	return b.String()
}

// step performs one loop iteration: compose prompt, call the LLM, parse, and
// either dispatch the tool or finish.
func (a *Agent) step(ctx context.Context, instruction string, steps []agent.Step) (agent.Step, *llm.Completion, error) {
	promptText, err := a.composePrompt(instruction, steps)
	if err != nil {
		return agent.Step{}, nil, err
	}
	a.logger.Debug("composed prompt", "prompt", promptText)

	completion, err := a.llm.Call(ctx, []*message.Message{message.User(promptText)}, llm.WithStop("Observation:"))
	if err != nil {
		return agent.Step{}, nil, fmt.Errorf("react: llm call failed: %w", err)
	}
	a.logger.Debug("llm response", "text", completion.Text)

	action, finish, err := parseOutput(completion.Text, a.strictDecode)
	if err != nil {
		return agent.Step{}, completion, err
	}
	if finish != nil {
		return agent.Step{Finish: finish}, completion, nil
	}

	// Tool lookup failure is fatal here: unlike ReWOO there is no later
	// synthesis stage that could recover from missing evidence.
	t, err := a.tools.Get(action.Tool)
	if err != nil {
		return agent.Step{}, completion, err
	}
	a.logger.Info("dispatching tool", "tool", action.Tool, "input", action.ToolInput)
	result, err := t.Invoke(ctx, action.ToolInput)
	if err != nil {
		return agent.Step{}, completion, fmt.Errorf("react: tool %s failed: %w", action.Tool, err)
	}
	observation := a.trimmer.TrimTo(result, a.maxContextLength)
	return agent.Step{Action: action, Observation: observation}, completion, nil
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
	ctx, span := otel.Tracer("reagent/agent/react").Start(ctx, "react.run")
	defer func() { telemetry.End(span, err) }()

	a.logger.Info("running react agent", "instruction", instruction)

	// Fresh scratchpad per run.
	steps := make([]agent.Step, 0, a.maxIterations)
	status := agent.StatusStopped
	totalTokens := 0
	totalCost := 0.0
	responseText := ""

	for i := 1; i <= a.maxIterations; i++ {
		step, completion, stepErr := a.step(ctx, instruction, steps)
		if completion != nil {
			totalTokens += completion.TotalTokens
			totalCost += completion.TotalCost
			responseText = completion.Text
		}
		if stepErr != nil {
			return nil, stepErr
		}
		steps = append(steps, step)
		if step.Finish != nil {
			a.logger.Info("finished", "iterations", i)
			status = agent.StatusFinished
			break
		}
	}

	return &agent.Output{
		Text:              responseText,
		AgentType:         agent.TypeReact,
		Status:            status,
		TotalTokens:       totalTokens,
		TotalCost:         totalCost,
		IntermediateSteps: steps,
	}, nil
}

// Stream executes the agent, yielding a thinking event per iteration and a
// terminal finished/stopped event. Every event carries only the latest step;
// callers reconstruct the trace by accumulating the stream.
func (a *Agent) Stream(ctx context.Context, instruction string) iter.Seq2[*agent.Output, error] {
	return func(yield func(*agent.Output, error) bool) {
		ctx, span := otel.Tracer("reagent/agent/react").Start(ctx, "react.stream")
		var streamErr error
		defer func() { telemetry.End(span, streamErr) }()

		a.logger.Info("streaming react agent", "instruction", instruction)

		steps := make([]agent.Step, 0, a.maxIterations)
		totalTokens := 0
		totalCost := 0.0

		for i := 1; i <= a.maxIterations; i++ {
			step, completion, stepErr := a.step(ctx, instruction, steps)
			if completion != nil {
				totalTokens += completion.TotalTokens
				totalCost += completion.TotalCost
			}
			if stepErr != nil {
				streamErr = stepErr
				yield(&agent.Output{
					AgentType:   agent.TypeReact,
					Status:      agent.StatusFailed,
					Error:       stepErr.Error(),
					TotalTokens: totalTokens,
					TotalCost:   totalCost,
				}, stepErr)
				return
			}
			steps = append(steps, step)

			if step.Finish != nil {
				yield(&agent.Output{
					Text:              step.Finish.Output,
					AgentType:         agent.TypeReact,
					Status:            agent.StatusFinished,
					TotalTokens:       totalTokens,
					TotalCost:         totalCost,
					IntermediateSteps: []agent.Step{step},
				}, nil)
				return
			}

			if !yield(&agent.Output{
				AgentType:         agent.TypeReact,
				Status:            agent.StatusThinking,
				IntermediateSteps: []agent.Step{step},
			}, nil) {
				return
			}
		}

		last := []agent.Step{}
		if len(steps) > 0 {
			last = steps[len(steps)-1:]
		}
		yield(&agent.Output{
			AgentType:         agent.TypeReact,
			Status:            agent.StatusStopped,
			TotalTokens:       totalTokens,
			TotalCost:         totalCost,
			IntermediateSteps: last,
		}, nil)
	}
}
