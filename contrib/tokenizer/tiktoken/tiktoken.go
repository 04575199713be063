package tiktoken

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer wraps a tiktoken encoding behind the core tokenizer contract.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New resolves a tiktoken encoding by model name, falling back to treating the
// argument as an encoding name (e.g. "cl100k_base").
func New(name string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		// try by encoding name
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, err
		}
	}
	return &Tokenizer{enc: enc}, nil
}

func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *Tokenizer) CountTokens(text string) int {
	return len(t.Encode(text))
}

// Decode reverses Encode; mainly useful for debugging trim boundaries.
func (t *Tokenizer) Decode(ids []int) string {
	return t.enc.Decode(ids)
}
