package tokenizer

import (
	"strings"
	"sync"
	"unicode"
)

// Tokenizer is the contract the trimmer consumes. Only length measurement is
// required, so implementations just expose encoding.
type Tokenizer interface {
	Encode(text string) []int
}

var _ Tokenizer = (*SimpleTokenizer)(nil)

// SimpleTokenizer is a dependency-free tokenizer useful for tests and as a
// fallback when no model-specific encoding is configured.
type SimpleTokenizer struct {
	mu     sync.Mutex
	vocab  map[string]int
	nextID int
}

// NewSimpleTokenizer creates new tokenizer with empty vocab.
func NewSimpleTokenizer() *SimpleTokenizer {
	return &SimpleTokenizer{
		vocab:  make(map[string]int),
		nextID: 1, // reserve 0 for padding if needed
	}
}

func (t *SimpleTokenizer) addToken(tok string) int {
	if id, ok := t.vocab[tok]; ok {
		return id
	}
	id := t.nextID
	t.vocab[tok] = id
	t.nextID++
	return id
}

// Tokenization rules:
// - English letters → continuous word
// - Numbers → continuous number
// - Chinese characters → single rune
// - Punctuation → standalone token
func splitTokens(s string) []string {
	var toks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			toks = append(toks, buf.String())
			buf.Reset()
		}
	}

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()

		case unicode.Is(unicode.Han, r):
			flush()
			toks = append(toks, string(r))

		case unicode.IsLetter(r) || unicode.IsDigit(r):
			buf.WriteRune(r)

		default:
			flush()
			toks = append(toks, string(r))
		}
	}

	flush()
	return toks
}

// Encode maps the text to token ids, growing the vocab as needed.
func (t *SimpleTokenizer) Encode(text string) []int {
	toks := splitTokens(text)
	ids := make([]int, 0, len(toks))
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tok := range toks {
		ids = append(ids, t.addToken(tok))
	}
	return ids
}
