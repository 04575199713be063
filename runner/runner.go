// Package runner provides the concurrency primitives agents execute on: a
// bounded parallel-map-with-barrier pool and helpers for running several
// agents at once.
package runner

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sweetpotato0/reagent/agent"
)

// DefaultConcurrency bounds pool fan-out when no limit is configured.
const DefaultConcurrency = 10

// Pool is a bounded worker pool. Map submits a batch of tasks and waits for
// all of them before returning, which gives callers a hard synchronization
// barrier between batches.
type Pool struct {
	limit int
}

// NewPool creates a pool with the given concurrency limit.
func NewPool(limit int) *Pool {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Pool{limit: limit}
}

// Map runs fn for every index in [0, n) with bounded concurrency and blocks
// until every task completed. The first task error (if any) is returned after
// the barrier; remaining tasks still run to completion unless they observe
// ctx cancellation themselves.
func (p *Pool) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g := new(errgroup.Group)
	g.SetLimit(p.limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return fn(ctx, i)
		})
	}
	return g.Wait()
}

// Task represents one agent invocation.
type Task struct {
	ID          string
	Agent       agent.Agent
	Instruction string
}

// Result represents the outcome of a task execution.
type Result struct {
	TaskID string
	Output *agent.Output
	Err    error
}

// Parallel executes the tasks concurrently on a bounded pool and returns the
// results in task order.
func Parallel(ctx context.Context, limit int, tasks []*Task) []*Result {
	pool := NewPool(limit)
	results := make([]*Result, len(tasks))
	_ = pool.Map(ctx, len(tasks), func(ctx context.Context, i int) error {
		t := tasks[i]
		defer func() {
			if r := recover(); r != nil {
				results[i] = &Result{TaskID: t.ID, Err: fmt.Errorf("panic in task %s: %v", t.ID, r)}
			}
		}()
		out, err := t.Agent.Run(ctx, t.Instruction)
		results[i] = &Result{TaskID: t.ID, Output: out, Err: err}
		return nil
	})
	return results
}

// Sequential executes tasks in order, feeding each task's answer text as the
// next task's instruction when the task has none of its own.
func Sequential(ctx context.Context, tasks []*Task) (*Result, error) {
	var last *Result
	for _, t := range tasks {
		instruction := t.Instruction
		if instruction == "" && last != nil && last.Output != nil {
			instruction = last.Output.Text
		}
		out, err := t.Agent.Run(ctx, instruction)
		last = &Result{TaskID: t.ID, Output: out, Err: err}
		if err != nil {
			return last, err
		}
	}
	if last == nil {
		return nil, fmt.Errorf("no tasks to run")
	}
	return last, nil
}
