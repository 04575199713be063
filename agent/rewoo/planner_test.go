package rewoo

import (
	"context"
	"strings"
	"testing"
)

func TestPlannerComposePromptZeroShot(t *testing.T) {
	p := &planner{
		model: &routedLLM{},
		tools: newRewooRegistry(t, &recordingTool{
			name:        "Search",
			description: "finds things",
			fn:          func(string) (string, error) { return "", nil },
		}),
	}
	got, err := p.composePrompt("the task")
	if err != nil {
		t.Fatalf("composePrompt failed: %v", err)
	}
	if !strings.Contains(got, "Search[input]: finds things") {
		t.Errorf("Prompt missing tool description:\n%s", got)
	}
	if !strings.Contains(got, "the task") {
		t.Errorf("Prompt missing task:\n%s", got)
	}
	if strings.Contains(got, "##Example##") {
		t.Errorf("Zero-shot prompt must not include an example section:\n%s", got)
	}
}

func TestPlannerComposePromptFewShot(t *testing.T) {
	p := &planner{
		model: &routedLLM{},
		tools: newRewooRegistry(t, &recordingTool{
			name:        "Search",
			description: "finds things",
			fn:          func(string) (string, error) { return "", nil },
		}),
		examples: []string{"#Plan1: example plan\n#E1: Search[x]"},
	}
	got, err := p.composePrompt("the task")
	if err != nil {
		t.Fatalf("composePrompt failed: %v", err)
	}
	if !strings.Contains(got, "##Example##") || !strings.Contains(got, "example plan") {
		t.Errorf("Few-shot prompt missing example:\n%s", got)
	}
}

func TestSolverComposePrompt(t *testing.T) {
	s := &solver{model: &routedLLM{}, outputLang: "French"}
	got, err := s.composePrompt("the task", "#Plan1: p\n#E1: evidence")
	if err != nil {
		t.Fatalf("composePrompt failed: %v", err)
	}
	if !strings.Contains(got, "Give answer in French.") {
		t.Errorf("Prompt missing output language:\n%s", got)
	}
	if !strings.Contains(got, "#E1: evidence") {
		t.Errorf("Prompt missing worker log:\n%s", got)
	}
}

func TestPlannerRun(t *testing.T) {
	model := &routedLLM{plan: "#Plan1: p\n#E1: Search[x]"}
	p := &planner{
		model: model,
		tools: newRewooRegistry(t, &recordingTool{
			name:        "Search",
			description: "finds things",
			fn:          func(string) (string, error) { return "", nil },
		}),
	}
	completion, err := p.run(context.Background(), "task")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if completion.Text != model.plan {
		t.Errorf("Unexpected planner completion %q", completion.Text)
	}
}
