// Package middleware implements an interception chain around agent runs.
// Middlewares can inspect or reject the instruction before execution and
// observe the output afterwards.
package middleware

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/sweetpotato0/reagent/agent"
	"github.com/sweetpotato0/reagent/errors"
)

// Context represents the middleware execution context for one run.
type Context struct {
	// Input is the user instruction.
	Input string

	// Output is the agent output, populated after the final handler ran.
	Output *agent.Output

	// Error from execution.
	Error error

	// Metadata for passing data between middlewares.
	Metadata map[string]any

	context context.Context
}

// NewContext creates a new middleware context.
func NewContext(ctx context.Context, input string) *Context {
	return &Context{
		Input:    input,
		Metadata: make(map[string]any),
		context:  ctx,
	}
}

// Context returns the underlying context.Context.
func (c *Context) Context() context.Context {
	return c.context
}

// Middleware intercepts agent runs. Returning an error stops the chain.
type Middleware interface {
	// Name returns the name of the middleware for logging and debugging.
	Name() string

	// Execute runs the middleware logic, calling next to continue the chain.
	Execute(ctx *Context, next Handler) error
}

// Handler is the function called to pass control to the next middleware.
type Handler func(*Context) error

// Chain represents a sequence of middleware to be executed.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain.
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// Add appends a middleware to the chain.
func (c *Chain) Add(m Middleware) *Chain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// List returns the middlewares in execution order.
func (c *Chain) List() []Middleware {
	return append([]Middleware(nil), c.middlewares...)
}

// Execute runs all middlewares in the chain around the final handler.
func (c *Chain) Execute(ctx *Context, finalHandler Handler) error {
	return c.execute(ctx, 0, finalHandler)
}

func (c *Chain) execute(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		return finalHandler(ctx)
	}
	next := func(ctx *Context) error {
		return c.execute(ctx, index+1, finalHandler)
	}
	return c.middlewares[index].Execute(ctx, next)
}

// RequestLogger logs incoming instructions.
type RequestLogger struct {
	logger *slog.Logger
}

// NewRequestLogger creates a request logging middleware.
func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	return &RequestLogger{logger: logger}
}

func (m *RequestLogger) Name() string { return "RequestLogger" }

func (m *RequestLogger) Execute(ctx *Context, next Handler) error {
	if m.logger != nil {
		m.logger.Info("agent run started", "input", ctx.Input)
	}
	return next(ctx)
}

// ResponseLogger logs run outcomes.
type ResponseLogger struct {
	logger *slog.Logger
}

// NewResponseLogger creates a response logging middleware.
func NewResponseLogger(logger *slog.Logger) *ResponseLogger {
	return &ResponseLogger{logger: logger}
}

func (m *ResponseLogger) Name() string { return "ResponseLogger" }

func (m *ResponseLogger) Execute(ctx *Context, next Handler) error {
	err := next(ctx)
	if m.logger == nil {
		return err
	}
	switch {
	case ctx.Output != nil:
		m.logger.Info("agent run completed", "status", ctx.Output.Status, "steps", len(ctx.Output.IntermediateSteps))
	case err != nil:
		m.logger.Error("agent run failed", "error", err)
	}
	return err
}

// InputValidator validates the instruction before the agent runs.
type InputValidator struct {
	validator func(string) error
}

// NewInputValidator creates an input validation middleware.
func NewInputValidator(validator func(string) error) *InputValidator {
	return &InputValidator{validator: validator}
}

func (m *InputValidator) Name() string { return "InputValidator" }

func (m *InputValidator) Execute(ctx *Context, next Handler) error {
	if m.validator != nil {
		if err := m.validator(ctx.Input); err != nil {
			return err
		}
	}
	return next(ctx)
}

// RateLimiter rejects runs past a fixed budget. Safe for concurrent use.
type RateLimiter struct {
	maxRequests int64
	counter     atomic.Int64
}

// NewRateLimiter creates a rate limiting middleware.
func NewRateLimiter(maxRequests int) *RateLimiter {
	return &RateLimiter{maxRequests: int64(maxRequests)}
}

func (m *RateLimiter) Name() string { return "RateLimiter" }

func (m *RateLimiter) Execute(ctx *Context, next Handler) error {
	if m.counter.Add(1) > m.maxRequests {
		return errors.ErrRateLimitExceeded
	}
	return next(ctx)
}

// Reset resets the rate limiter counter.
func (m *RateLimiter) Reset() {
	m.counter.Store(0)
}
