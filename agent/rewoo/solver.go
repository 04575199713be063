package rewoo

import (
	"context"
	"iter"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/sweetpotato0/reagent/errors"
	"github.com/sweetpotato0/reagent/llm"
	"github.com/sweetpotato0/reagent/message"
	"github.com/sweetpotato0/reagent/pkg/telemetry"
	"github.com/sweetpotato0/reagent/prompt"
)

// solver condenses the worker log into a final answer.
type solver struct {
	model      llm.Client
	template   *prompt.Template // optional override
	examples   []string
	outputLang string
}

func (s *solver) composePrompt(instruction, planEvidence string) (string, error) {
	fewshot := strings.Join(s.examples, "\n\n")
	data := map[string]any{
		"plan_evidence": planEvidence,
		"task":          instruction,
		"lang":          s.outputLang,
	}

	template := s.template
	if template == nil {
		if fewshot != "" {
			template = fewShotSolverPrompt
		} else {
			template = zeroShotSolverPrompt
		}
	}
	if template.Has("fewshot") {
		data["fewshot"] = fewshot
	}
	return template.Render(data)
}

func (s *solver) run(ctx context.Context, instruction, planEvidence string) (_ *llm.Completion, err error) {
	ctx, span := otel.Tracer("reagent/agent/rewoo").Start(ctx, "rewoo.solve")
	defer func() { telemetry.End(span, err) }()

	rendered, err := s.composePrompt(instruction, planEvidence)
	if err != nil {
		return nil, err
	}
	return llm.Prompt(ctx, s.model, rendered)
}

// stream yields solver completions chunk by chunk. When the underlying model
// does not stream, the full completion is yielded as a single chunk.
func (s *solver) stream(ctx context.Context, instruction, planEvidence string) iter.Seq2[*llm.Completion, error] {
	return func(yield func(*llm.Completion, error) bool) {
		ctx, span := otel.Tracer("reagent/agent/rewoo").Start(ctx, "rewoo.solve")
		defer span.End()

		rendered, err := s.composePrompt(instruction, planEvidence)
		if err != nil {
			yield(nil, err)
			return
		}
		msgs := []*message.Message{message.User(rendered)}

		if sc, ok := s.model.(llm.StreamClient); ok {
			unsupported := false
			for chunk, err := range sc.Stream(ctx, msgs) {
				if err != nil {
					if errors.Is(err, errors.ErrStreamingUnsupported) {
						unsupported = true
						break
					}
					yield(nil, err)
					return
				}
				if !yield(chunk, nil) {
					return
				}
			}
			if !unsupported {
				return
			}
		}

		completion, err := s.model.Call(ctx, msgs)
		if err != nil {
			yield(nil, err)
			return
		}
		yield(completion, nil)
	}
}
