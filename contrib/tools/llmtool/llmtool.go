// Package llmtool wraps an LLM client as a tool, letting an agent delegate
// subproblems to a model instead of an external system.
package llmtool

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/reagent/llm"
)

// Tool answers instructions with a plain LLM call.
type Tool struct {
	model llm.Client
	name  string
}

// New creates an LLM tool over the given client.
func New(model llm.Client) *Tool {
	return &Tool{model: model, name: "LLM"}
}

func (t *Tool) Name() string { return t.name }

func (t *Tool) Description() string {
	return "A pretrained LLM like yourself. Useful when you need to act with " +
		"general world knowledge and common sense. Prioritize it when you are " +
		"confident in solving the problem yourself. Input can be any instruction."
}

// Invoke forwards the instruction to the model and returns its completion.
func (t *Tool) Invoke(ctx context.Context, input string) (string, error) {
	completion, err := llm.Prompt(ctx, t.model, input)
	if err != nil {
		return "", fmt.Errorf("llmtool: %w", err)
	}
	return completion.Text, nil
}
