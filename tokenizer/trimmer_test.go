package tokenizer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTrimFits(t *testing.T) {
	tr := NewTrimmer(NewSimpleTokenizer(), 10)
	text := "short text"
	if got := tr.Trim(text); got != text {
		t.Errorf("Text within budget must be unchanged, got %q", got)
	}
}

func TestTrimEmpty(t *testing.T) {
	tr := NewTrimmer(nil, 10)
	// Empty input short-circuits before the tokenizer is touched, so a nil
	// tokenizer must not panic here.
	if got := tr.Trim(""); got != "" {
		t.Errorf("Expected empty output, got %q", got)
	}
}

func TestTrimZeroBudget(t *testing.T) {
	tr := NewTrimmer(NewSimpleTokenizer(), 10)
	if got := tr.TrimTo("some text", 0); got != "" {
		t.Errorf("Zero budget must produce empty output, got %q", got)
	}
}

func TestTrimOverBudget(t *testing.T) {
	tok := NewSimpleTokenizer()
	tr := NewTrimmer(tok, 3)
	text := "one two three four five"

	got := tr.Trim(text)
	if !strings.HasPrefix(text, got) {
		t.Errorf("Output must be a prefix of the input, got %q", got)
	}
	if n := len(tok.Encode(got)); n > 3 {
		t.Errorf("Trimmed output has %d tokens, budget is 3", n)
	}
	if got == "" {
		t.Error("Expected a non-empty prefix")
	}
}

func TestTrimBoundary(t *testing.T) {
	tok := NewSimpleTokenizer()
	tr := NewTrimmer(tok, 4)
	text := "a b c d"
	if got := tr.Trim(text); got != text {
		t.Errorf("Exactly-at-budget text must be unchanged, got %q", got)
	}
	if got := tr.TrimTo(text, 3); len(tok.Encode(got)) > 3 {
		t.Errorf("One-over-budget text not trimmed: %q", got)
	}
}

func TestTrimMultibyte(t *testing.T) {
	tok := NewSimpleTokenizer()
	tr := NewTrimmer(tok, 2)
	text := "你好世界"

	got := tr.Trim(text)
	if !strings.HasPrefix(text, got) {
		t.Errorf("Output must be a prefix, got %q", got)
	}
	if n := len(tok.Encode(got)); n > 2 {
		t.Errorf("Trimmed output has %d tokens, budget is 2", n)
	}
	// Never cut in the middle of a rune.
	if !utf8.ValidString(got) {
		t.Errorf("Rune boundary violated in %q", got)
	}
}
