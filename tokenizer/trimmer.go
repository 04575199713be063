package tokenizer

// Trimmer bounds text to a token budget. The result is always a prefix of the
// input whose tokenized length does not exceed the budget; for a fixed
// tokenizer the output is deterministic.
type Trimmer struct {
	tok       Tokenizer
	maxTokens int
}

// NewTrimmer creates a trimmer with the given tokenizer and default budget.
func NewTrimmer(tok Tokenizer, maxTokens int) *Trimmer {
	return &Trimmer{tok: tok, maxTokens: maxTokens}
}

// MaxTokens returns the default budget.
func (t *Trimmer) MaxTokens() int { return t.maxTokens }

// Trim bounds text to the trimmer's default budget.
func (t *Trimmer) Trim(text string) string {
	return t.TrimTo(text, t.maxTokens)
}

// TrimTo bounds text to maxTokens tokens. Empty input is returned as is
// without invoking the tokenizer.
func (t *Trimmer) TrimTo(text string, maxTokens int) string {
	if text == "" {
		return text
	}
	if maxTokens <= 0 {
		return ""
	}
	if len(t.tok.Encode(text)) <= maxTokens {
		return text
	}

	// Binary search the longest rune prefix that still fits the budget. Token
	// counts are not strictly monotonic at sub-token boundaries, so the final
	// loop shrinks until the invariant holds.
	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if len(t.tok.Encode(string(runes[:mid]))) <= maxTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	for lo > 0 && len(t.tok.Encode(string(runes[:lo]))) > maxTokens {
		lo--
	}
	return string(runes[:lo])
}
