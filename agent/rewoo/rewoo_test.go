package rewoo

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"testing"

	"github.com/sweetpotato0/reagent/agent"
	"github.com/sweetpotato0/reagent/errors"
	"github.com/sweetpotato0/reagent/llm"
	"github.com/sweetpotato0/reagent/message"
	"github.com/sweetpotato0/reagent/tokenizer"
	"github.com/sweetpotato0/reagent/tool"
)

// routedLLM answers planner and solver prompts differently based on prompt
// content.
type routedLLM struct {
	plan   string
	answer string
	calls  int
}

func (r *routedLLM) Call(_ context.Context, msgs []*message.Message, _ ...llm.CallOption) (*llm.Completion, error) {
	r.calls++
	prompt := msgs[len(msgs)-1].Content
	if strings.Contains(prompt, "##Available Tools##") {
		return &llm.Completion{Text: r.plan, TotalTokens: 10}, nil
	}
	return &llm.Completion{Text: r.answer, TotalTokens: 5}, nil
}

type recordingTool struct {
	name        string
	description string
	inputs      []string
	fn          func(input string) (string, error)
}

func (t *recordingTool) Name() string        { return t.name }
func (t *recordingTool) Description() string { return t.description }

func (t *recordingTool) Invoke(_ context.Context, input string) (string, error) {
	t.inputs = append(t.inputs, input)
	return t.fn(input)
}

func newRewooRegistry(t *testing.T, tools ...tool.Tool) *tool.Registry {
	t.Helper()
	registry, err := tool.NewRegistry(tools...)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return registry
}

const chainedPlan = `#Plan1: Find the number
#E1: Search[the number]
#Plan2: Add one
#E2: Calculator[#E1 + 1]`

func TestRunPlanWorkSolve(t *testing.T) {
	search := &recordingTool{
		name:        "Search",
		description: "finds things",
		fn:          func(string) (string, error) { return "5", nil },
	}
	calc := &recordingTool{
		name:        "Calculator",
		description: "computes things",
		fn:          func(input string) (string, error) { return "result of " + input, nil },
	}
	model := &routedLLM{plan: chainedPlan, answer: "The answer is 6."}

	ag, err := New(model, newRewooRegistry(t, search, calc))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := ag.Run(context.Background(), "what is the number plus one?")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Status != agent.StatusFinished {
		t.Errorf("Expected finished, got %s", out.Status)
	}
	if out.Text != "The answer is 6." {
		t.Errorf("Unexpected answer %q", out.Text)
	}
	if out.TotalTokens != 15 {
		t.Errorf("Expected summed tokens 15, got %d", out.TotalTokens)
	}

	// The dependent tool call saw the substituted value.
	if len(calc.inputs) != 1 || calc.inputs[0] != "5 + 1" {
		t.Errorf("Expected substituted input '5 + 1', got %v", calc.inputs)
	}

	workerLog, ok := out.Metadata["worker_log"].(string)
	if !ok {
		t.Fatal("Expected worker_log metadata")
	}
	want := "#Plan1: Find the number\n#E1: 5\n#Plan2: Add one\n#E2: result of 5 + 1\n"
	if workerLog != want {
		t.Errorf("Unexpected worker log:\n%q\nwant:\n%q", workerLog, want)
	}
}

func TestRunToolFailureDegrades(t *testing.T) {
	search := &recordingTool{
		name:        "Search",
		description: "finds things",
		fn:          func(string) (string, error) { return "", fmt.Errorf("network down") },
	}
	calc := &recordingTool{
		name:        "Calculator",
		description: "computes things",
		fn:          func(input string) (string, error) { return "calc(" + input + ")", nil },
	}
	model := &routedLLM{plan: chainedPlan, answer: "unsure"}

	ag, err := New(model, newRewooRegistry(t, search, calc))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := ag.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Tool failure must not fail the run: %v", err)
	}
	workerLog := out.Metadata["worker_log"].(string)
	if !strings.Contains(workerLog, "#E1: No evidence found.") {
		t.Errorf("Expected degraded evidence in worker log:\n%s", workerLog)
	}
	// The dependent call still ran, with the fallback substituted in.
	if len(calc.inputs) != 1 || calc.inputs[0] != "No evidence found. + 1" {
		t.Errorf("Unexpected dependent input %v", calc.inputs)
	}
}

func TestRunEvidenceTrimmedToContextLength(t *testing.T) {
	search := &recordingTool{
		name:        "Search",
		description: "finds things",
		fn:          func(string) (string, error) { return "alpha beta gamma delta", nil },
	}
	calc := &recordingTool{
		name:        "Calculator",
		description: "computes things",
		fn:          func(input string) (string, error) { return "calc(" + input + ")", nil },
	}
	model := &routedLLM{plan: chainedPlan, answer: "done"}
	tok := tokenizer.NewSimpleTokenizer()

	// WithMaxContextLength after WithTokenizer must still bound the evidence.
	ag, err := New(model, newRewooRegistry(t, search, calc),
		WithTokenizer(tok),
		WithMaxContextLength(2),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := ag.Run(context.Background(), "q"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(calc.inputs) != 1 {
		t.Fatalf("Expected one dependent call, got %v", calc.inputs)
	}
	trimmed := strings.TrimSuffix(calc.inputs[0], " + 1")
	if trimmed == "alpha beta gamma delta" {
		t.Fatal("Evidence was not trimmed to the configured budget")
	}
	if !strings.HasPrefix("alpha beta gamma delta", trimmed) {
		t.Errorf("Trimmed evidence %q is not a prefix of the tool output", trimmed)
	}
	if got := len(tok.Encode(trimmed)); got > 2 {
		t.Errorf("Trimmed evidence counts %d tokens, budget is 2", got)
	}
}

func TestRunUnknownToolDegrades(t *testing.T) {
	model := &routedLLM{
		plan:   "#Plan1: try\n#E1: Nonexistent[x]",
		answer: "done",
	}
	ag, err := New(model, newRewooRegistry(t, &recordingTool{
		name:        "Search",
		description: "finds things",
		fn:          func(string) (string, error) { return "ok", nil },
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := ag.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Unknown tool must not fail the run: %v", err)
	}
	if !strings.Contains(out.Metadata["worker_log"].(string), "No evidence found.") {
		t.Errorf("Expected fallback evidence, got %q", out.Metadata["worker_log"])
	}
}

func TestRunCircularPlanFailsBeforeTools(t *testing.T) {
	search := &recordingTool{
		name:        "Search",
		description: "finds things",
		fn:          func(string) (string, error) { return "x", nil },
	}
	model := &routedLLM{
		plan: `#Plan1: a
#E1: Search[#E1]`,
		answer: "never",
	}
	ag, err := New(model, newRewooRegistry(t, search))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = ag.Run(context.Background(), "q")
	if !errors.Is(err, errors.ErrCircularDependency) {
		t.Fatalf("Expected ErrCircularDependency, got %v", err)
	}
	if len(search.inputs) != 0 {
		t.Errorf("No tool may run on a cyclic plan, got %v", search.inputs)
	}
}

func TestStreamFailedTerminalEvent(t *testing.T) {
	model := &routedLLM{
		plan: `#Plan1: a
#E1: Search[#E1]`,
		answer: "never",
	}
	ag, err := New(model, newRewooRegistry(t, &recordingTool{
		name:        "Search",
		description: "finds things",
		fn:          func(string) (string, error) { return "x", nil },
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var last *agent.Output
	var lastErr error
	for out, err := range ag.Stream(context.Background(), "q") {
		last = out
		lastErr = err
	}
	if !errors.Is(lastErr, errors.ErrCircularDependency) {
		t.Fatalf("Expected ErrCircularDependency, got %v", lastErr)
	}
	if last == nil || last.Status != agent.StatusFailed {
		t.Fatalf("Expected terminal failed event, got %+v", last)
	}
	if !strings.Contains(last.Error, "Circular dependency detected") {
		t.Errorf("Failed event should carry the error text, got %q", last.Error)
	}
}

func TestRunLiteralEvidence(t *testing.T) {
	model := &routedLLM{
		plan:   "#Plan1: constant\n#E1: just a literal value",
		answer: "done",
	}
	ag, err := New(model, newRewooRegistry(t, &recordingTool{
		name:        "Search",
		description: "finds things",
		fn:          func(string) (string, error) { return "x", nil },
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	out, err := ag.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.Metadata["worker_log"].(string), "#E1: just a literal value") {
		t.Errorf("Expected literal evidence kept, got %q", out.Metadata["worker_log"])
	}
}

func TestStreamEvents(t *testing.T) {
	search := &recordingTool{
		name:        "Search",
		description: "finds things",
		fn:          func(string) (string, error) { return "5", nil },
	}
	model := &routedLLM{
		plan:   "#Plan1: Find the number\n#E1: Search[the number]",
		answer: "The answer is 5.",
	}
	ag, err := New(model, newRewooRegistry(t, search))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var outputs []*agent.Output
	for out, err := range ag.Stream(context.Background(), "q") {
		if err != nil {
			t.Fatalf("Stream failed: %v", err)
		}
		outputs = append(outputs, out)
	}
	if len(outputs) != 4 {
		t.Fatalf("Expected plan, progress, solver and terminal events, got %d", len(outputs))
	}
	if outputs[0].Metadata["planner_log"] != model.plan {
		t.Errorf("First event should carry the planner text")
	}
	progress, _ := outputs[1].Metadata["current_progress"].(string)
	if !strings.Contains(progress, "#Action: Search[the number]") || !strings.Contains(progress, "#E1: 5") {
		t.Errorf("Unexpected progress event %q", progress)
	}
	if outputs[2].Text != "The answer is 5." {
		t.Errorf("Expected solver text, got %q", outputs[2].Text)
	}
	last := outputs[len(outputs)-1]
	if last.Status != agent.StatusFinished {
		t.Errorf("Expected terminal finished, got %s", last.Status)
	}
	if _, ok := last.Metadata["worker_log"]; !ok {
		t.Errorf("Terminal event should carry the worker log")
	}
}

// streamingLLM implements llm.StreamClient yielding the solver answer in
// chunks.
type streamingLLM struct {
	routedLLM
	chunks []string
}

func (s *streamingLLM) Stream(ctx context.Context, msgs []*message.Message, opts ...llm.CallOption) iter.Seq2[*llm.Completion, error] {
	return func(yield func(*llm.Completion, error) bool) {
		prompt := msgs[len(msgs)-1].Content
		if strings.Contains(prompt, "##Available Tools##") {
			c, _ := s.routedLLM.Call(ctx, msgs, opts...)
			yield(c, nil)
			return
		}
		for _, chunk := range s.chunks {
			if !yield(&llm.Completion{Text: chunk}, nil) {
				return
			}
		}
		yield(&llm.Completion{TotalTokens: 5}, nil)
	}
}

func TestStreamSolverChunks(t *testing.T) {
	model := &streamingLLM{
		routedLLM: routedLLM{plan: "#Plan1: c\n#E1: literal"},
		chunks:    []string{"The ", "answer."},
	}
	ag, err := New(model, newRewooRegistry(t, &recordingTool{
		name:        "Search",
		description: "finds things",
		fn:          func(string) (string, error) { return "x", nil },
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var text strings.Builder
	var last *agent.Output
	for out, err := range ag.Stream(context.Background(), "q") {
		if err != nil {
			t.Fatalf("Stream failed: %v", err)
		}
		if out.Status == agent.StatusThinking {
			text.WriteString(out.Text)
		}
		last = out
	}
	if text.String() != "The answer." {
		t.Errorf("Expected accumulated solver chunks, got %q", text.String())
	}
	if last.Status != agent.StatusFinished {
		t.Errorf("Expected terminal finished, got %s", last.Status)
	}
}

func TestSolverFallbackWithoutStreaming(t *testing.T) {
	s := &solver{model: &routedLLM{answer: "full answer"}, outputLang: "English"}
	var texts []string
	for chunk, err := range s.stream(context.Background(), "q", "log") {
		if err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		texts = append(texts, chunk.Text)
	}
	if len(texts) != 1 || texts[0] != "full answer" {
		t.Errorf("Expected single full completion, got %v", texts)
	}
}

// unsupportedStreamLLM advertises streaming but rejects it at call time.
type unsupportedStreamLLM struct {
	routedLLM
}

func (u *unsupportedStreamLLM) Stream(context.Context, []*message.Message, ...llm.CallOption) iter.Seq2[*llm.Completion, error] {
	return func(yield func(*llm.Completion, error) bool) {
		yield(nil, errors.ErrStreamingUnsupported)
	}
}

func TestSolverFallbackWhenStreamingUnsupported(t *testing.T) {
	s := &solver{model: &unsupportedStreamLLM{routedLLM{answer: "fallback answer"}}, outputLang: "English"}
	var texts []string
	for chunk, err := range s.stream(context.Background(), "q", "log") {
		if err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		texts = append(texts, chunk.Text)
	}
	if len(texts) != 1 || texts[0] != "fallback answer" {
		t.Errorf("Expected fallback to Call, got %v", texts)
	}
}
