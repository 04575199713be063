package llm

import (
	"context"
	"iter"

	"github.com/sweetpotato0/reagent/message"
)

// Completion is a single LLM generation result. For streaming clients each
// yielded Completion carries one chunk of text; token and cost accounting is
// only meaningful on the final (or sole) completion.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	TotalCost        float64
}

// CallOption customises a single Call invocation.
type CallOption func(*CallOptions)

// CallOptions collects per-call settings.
type CallOptions struct {
	Stop []string
}

// WithStop sets stop sequences for the generation.
func WithStop(stop ...string) CallOption {
	return func(o *CallOptions) {
		o.Stop = append(o.Stop, stop...)
	}
}

// ApplyCallOptions folds a list of options into a CallOptions value.
func ApplyCallOptions(opts []CallOption) CallOptions {
	var o CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Client is the synchronous LLM contract the orchestration layer consumes.
type Client interface {
	Call(ctx context.Context, msgs []*message.Message, opts ...CallOption) (*Completion, error)
}

// StreamClient is implemented by providers that can stream completions.
// Clients that do not implement it are handled by falling back to Call.
type StreamClient interface {
	Client
	Stream(ctx context.Context, msgs []*message.Message, opts ...CallOption) iter.Seq2[*Completion, error]
}

// Prompt performs a single-turn call with one user message.
func Prompt(ctx context.Context, c Client, prompt string, opts ...CallOption) (*Completion, error) {
	return c.Call(ctx, []*message.Message{message.User(prompt)}, opts...)
}
