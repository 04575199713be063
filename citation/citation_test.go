package citation

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestSpans(t *testing.T) {
	fact := &FactWithEvidence{
		Fact:           "Paris is the capital.",
		SubstringQuote: []string{"Paris", "capital"},
	}
	spans := fact.Spans("Paris is the capital of France. Paris is large.")
	if len(spans) != 3 {
		t.Fatalf("Expected 3 spans, got %v", spans)
	}
	if spans[0] != [2]int{0, 5} {
		t.Errorf("Unexpected first span %v", spans[0])
	}
}

func TestSpansMissingQuote(t *testing.T) {
	fact := &FactWithEvidence{SubstringQuote: []string{"absent"}}
	if spans := fact.Spans("nothing relevant here"); len(spans) != 0 {
		t.Errorf("Expected no spans, got %v", spans)
	}
}

func TestDecodePlainJSON(t *testing.T) {
	qa, err := decode(`{"question":"q","answer":[{"fact":"f","substring_quote":["s"]}]}`)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if qa.Question != "q" || len(qa.Answer) != 1 {
		t.Errorf("Unexpected decode %+v", qa)
	}
}

func TestDecodeFencedJSON(t *testing.T) {
	qa, err := decode("```json\n{\"question\":\"q\",\"answer\":[]}\n```")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if qa.Question != "q" {
		t.Errorf("Unexpected decode %+v", qa)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := decode("not json at all"); err == nil {
		t.Fatal("Expected decode error")
	}
}

type stubExtractor struct {
	qa    *QuestionAnswer
	err   error
	delay time.Duration
}

func (s *stubExtractor) Extract(ctx context.Context, _, _ string) (*QuestionAnswer, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.qa, s.err
}

func TestExtractWithTimeoutSuccess(t *testing.T) {
	ex := &stubExtractor{qa: &QuestionAnswer{Question: "q"}}
	qa := ExtractWithTimeout(context.Background(), ex, time.Second, "ctx", "q")
	if qa == nil || qa.Question != "q" {
		t.Errorf("Expected extraction result, got %+v", qa)
	}
}

func TestExtractWithTimeoutError(t *testing.T) {
	ex := &stubExtractor{err: fmt.Errorf("llm down")}
	if qa := ExtractWithTimeout(context.Background(), ex, time.Second, "ctx", "q"); qa != nil {
		t.Errorf("Expected nil on extraction error, got %+v", qa)
	}
}

func TestExtractWithTimeoutExpires(t *testing.T) {
	ex := &stubExtractor{qa: &QuestionAnswer{}, delay: time.Second}
	start := time.Now()
	qa := ExtractWithTimeout(context.Background(), ex, 20*time.Millisecond, "ctx", "q")
	if qa != nil {
		t.Errorf("Expected nil on timeout, got %+v", qa)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Timeout did not bound the wait")
	}
}

func TestExtractWithTimeoutNilExtractor(t *testing.T) {
	if qa := ExtractWithTimeout(context.Background(), nil, time.Second, "ctx", "q"); qa != nil {
		t.Errorf("Expected nil for nil extractor, got %+v", qa)
	}
}
