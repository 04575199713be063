// Package session records agent runs so conversations can be inspected and
// replayed later.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sweetpotato0/reagent/agent"
	"github.com/sweetpotato0/reagent/pkg/logging"
)

// ErrNotFound is returned when a record does not exist in the store.
var ErrNotFound = errors.New("session record not found")

// Record is one persisted agent run.
type Record struct {
	ID          string         `json:"id" bson:"_id"`
	AgentType   agent.Type     `json:"agent_type" bson:"agent_type"`
	Instruction string         `json:"instruction" bson:"instruction"`
	Answer      string         `json:"answer" bson:"answer"`
	Status      agent.Status   `json:"status" bson:"status"`
	TotalTokens int            `json:"total_tokens" bson:"total_tokens"`
	TotalCost   float64        `json:"total_cost" bson:"total_cost"`
	Metadata    map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	Duration    time.Duration  `json:"duration" bson:"duration"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// Store persists run records.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Manager wraps an agent and records every run into a store.
type Manager struct {
	agent  agent.Agent
	store  Store
	logger *slog.Logger
}

// NewManager creates a recording wrapper around an agent.
func NewManager(a agent.Agent, store Store) *Manager {
	return &Manager{
		agent:  a,
		store:  store,
		logger: logging.WithComponent("session"),
	}
}

// Run executes the agent and persists the outcome. A storage failure is
// logged but does not discard the answer.
func (m *Manager) Run(ctx context.Context, instruction string) (*agent.Output, error) {
	start := time.Now()
	out, err := m.agent.Run(ctx, instruction)
	if err != nil {
		return nil, err
	}

	record := &Record{
		ID:          uuid.NewString(),
		AgentType:   out.AgentType,
		Instruction: instruction,
		Answer:      out.Text,
		Status:      out.Status,
		TotalTokens: out.TotalTokens,
		TotalCost:   out.TotalCost,
		Metadata:    out.Metadata,
		CreatedAt:   start,
		Duration:    time.Since(start),
	}
	if err := m.store.Save(ctx, record); err != nil {
		m.logger.Warn("failed to record run", "id", record.ID, "error", err)
	}
	return out, nil
}

// Get loads one recorded run.
func (m *Manager) Get(ctx context.Context, id string) (*Record, error) {
	return m.store.Load(ctx, id)
}

// List returns the IDs of all recorded runs.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}
