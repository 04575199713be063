package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common orchestration failures.
var (
	// ErrCircularDependency indicates a cycle in the evidence dependency graph.
	ErrCircularDependency = errors.New("Circular dependency detected")

	// ErrInvalidOutput indicates an LLM completion that could not be parsed.
	ErrInvalidOutput = errors.New("invalid LLM output")

	// ErrStreamingUnsupported is returned by LLM clients that only implement
	// the synchronous call contract. Callers fall back to a single call.
	ErrStreamingUnsupported = errors.New("streaming not supported")

	// ErrRateLimitExceeded indicates a middleware rejected the run.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// ParseError reports an LLM completion that does not match the structure the
// agent expected. Raw carries the full completion text so a failed run can be
// reproduced from the error alone.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse LLM output: %s: %q", e.Reason, e.Raw)
}

func (e *ParseError) Unwrap() error { return ErrInvalidOutput }

// ToolNotFoundError reports a referenced tool with no registered implementation.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found", e.Name)
}

// Is re-exports errors.Is so callers don't need two imports.
func Is(err, target error) bool { return errors.Is(err, target) }

// As re-exports errors.As.
func As(err error, target any) bool { return errors.As(err, target) }

// New re-exports errors.New.
func New(text string) error { return errors.New(text) }
