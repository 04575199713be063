package rewoo

import (
	"context"
	"strings"

	"github.com/sweetpotato0/reagent/llm"
	"github.com/sweetpotato0/reagent/prompt"
	"github.com/sweetpotato0/reagent/tool"
)

// planner produces the full step-by-step plan in a single completion.
type planner struct {
	model    llm.Client
	tools    *tool.Registry
	template *prompt.Template // optional override
	examples []string
}

func (p *planner) composePrompt(instruction string) (string, error) {
	toolDescription, err := p.tools.Describe()
	if err != nil {
		return "", err
	}
	fewshot := strings.Join(p.examples, "\n\n")
	data := map[string]any{
		"tool_description": toolDescription,
		"task":             instruction,
	}

	template := p.template
	if template == nil {
		if fewshot != "" {
			template = fewShotPlannerPrompt
		} else {
			template = zeroShotPlannerPrompt
		}
	}
	if template.Has("fewshot") {
		data["fewshot"] = fewshot
	}
	return template.Render(data)
}

func (p *planner) run(ctx context.Context, instruction string) (*llm.Completion, error) {
	rendered, err := p.composePrompt(instruction)
	if err != nil {
		return nil, err
	}
	return llm.Prompt(ctx, p.model, rendered)
}
