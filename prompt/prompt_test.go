package prompt

import (
	"strings"
	"testing"
)

func TestTemplateRender(t *testing.T) {
	tpl, err := New("greet", "Hello {{.name}}, you are {{.role}}.")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	got, err := tpl.Render(map[string]any{"name": "Ada", "role": "engineer"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "Hello Ada, you are engineer." {
		t.Errorf("Unexpected render %q", got)
	}
}

func TestTemplateRenderMissingKey(t *testing.T) {
	tpl := MustNew("partial", "value: {{.missing}}")
	got, err := tpl.Render(map[string]any{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(got, "missing") {
		t.Errorf("Missing key should render as zero value, got %q", got)
	}
}

func TestTemplateHas(t *testing.T) {
	tpl := MustNew("has", "{{.fewshot}} and {{.task}}")
	if !tpl.Has("fewshot") || !tpl.Has("task") {
		t.Error("Has should report declared placeholders")
	}
	if tpl.Has("lang") {
		t.Error("Has should not report undeclared placeholders")
	}
}

func TestManager(t *testing.T) {
	m := NewManager()
	if err := m.RegisterString("greet", "hi {{.name}}"); err != nil {
		t.Fatalf("RegisterString failed: %v", err)
	}
	got, err := m.Render("greet", map[string]any{"name": "Bob"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "hi Bob" {
		t.Errorf("Unexpected render %q", got)
	}
	if _, err := m.Get("unknown"); err == nil {
		t.Error("Expected error for unknown template")
	}
}

func TestBuilder(t *testing.T) {
	got := NewBuilder().
		AddSection("Tools", "Search[input]: finds things").
		Add("Begin now.").
		Build()
	if !strings.Contains(got, "##Tools##") {
		t.Errorf("Expected section header, got %q", got)
	}
	if !strings.HasSuffix(strings.TrimSpace(got), "Begin now.") {
		t.Errorf("Expected trailing line, got %q", got)
	}
}
