// Package agent defines the shared data model produced and consumed by the
// orchestration strategies under agent/react and agent/rewoo.
package agent

import (
	"context"
	"iter"

	"github.com/sweetpotato0/reagent/citation"
)

// Type enumerates the orchestration strategies.
type Type string

const (
	TypeReact Type = "react"
	TypeRewoo Type = "rewoo"
)

// Status is the state an agent reports after (or during) a run.
type Status string

const (
	// StatusThinking is emitted on intermediate streaming events.
	StatusThinking Status = "thinking"
	// StatusFinished means a final answer was produced.
	StatusFinished Status = "finished"
	// StatusStopped means the iteration budget ran out before a final answer.
	StatusStopped Status = "stopped"
	// StatusFailed means the run aborted on an unrecoverable error.
	StatusFailed Status = "failed"
)

// Action is a single tool invocation decided by the model. Log carries the
// full completion the action was parsed from, replayed into the scratchpad.
type Action struct {
	Tool      string
	ToolInput string
	Log       string
}

// Finish marks the end of a run with the model's final answer.
type Finish struct {
	Output string
	Log    string
}

// Step pairs one decision (action or finish, never both) with the observation
// produced by executing it.
type Step struct {
	Action      *Action
	Finish      *Finish
	Observation string
}

// Output is the value an agent returns to the caller, or yields per event
// when streaming. It is constructed fresh per call and never mutated after
// being returned.
type Output struct {
	Text              string
	AgentType         Type
	Status            Status
	Error             string
	TotalTokens       int
	TotalCost         float64
	IntermediateSteps []Step
	Citation          *citation.QuestionAnswer
	Metadata          map[string]any
}

// Agent is the contract both strategies expose.
type Agent interface {
	// Run executes the agent synchronously with the given instruction.
	Run(ctx context.Context, instruction string) (*Output, error)
	// Stream executes the agent, yielding an Output per event. The final
	// event carries a terminal status.
	Stream(ctx context.Context, instruction string) iter.Seq2[*Output, error]
}
