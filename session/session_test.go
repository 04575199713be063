package session_test

import (
	"context"
	"fmt"
	"iter"
	"testing"

	"github.com/sweetpotato0/reagent/agent"
	"github.com/sweetpotato0/reagent/session"
	"github.com/sweetpotato0/reagent/session/store"
)

type fixedAgent struct {
	out *agent.Output
	err error
}

func (a *fixedAgent) Run(context.Context, string) (*agent.Output, error) {
	return a.out, a.err
}

func (a *fixedAgent) Stream(ctx context.Context, instruction string) iter.Seq2[*agent.Output, error] {
	return func(yield func(*agent.Output, error) bool) {
		yield(a.Run(ctx, instruction))
	}
}

func TestManagerRecordsRun(t *testing.T) {
	ag := &fixedAgent{out: &agent.Output{
		Text:        "Paris",
		AgentType:   agent.TypeRewoo,
		Status:      agent.StatusFinished,
		TotalTokens: 12,
	}}
	st := store.NewInMemoryStore()
	manager := session.NewManager(ag, st)

	out, err := manager.Run(context.Background(), "capital of France?")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Text != "Paris" {
		t.Errorf("Unexpected answer %q", out.Text)
	}

	ids, err := manager.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("Expected 1 recorded run, got %d", len(ids))
	}

	record, err := manager.Get(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Instruction != "capital of France?" || record.Answer != "Paris" {
		t.Errorf("Unexpected record %+v", record)
	}
	if record.AgentType != agent.TypeRewoo || record.Status != agent.StatusFinished {
		t.Errorf("Record missing run attributes: %+v", record)
	}
	if record.TotalTokens != 12 {
		t.Errorf("Expected token usage recorded, got %d", record.TotalTokens)
	}
}

func TestManagerAgentErrorNotRecorded(t *testing.T) {
	ag := &fixedAgent{err: fmt.Errorf("agent failed")}
	st := store.NewInMemoryStore()
	manager := session.NewManager(ag, st)

	if _, err := manager.Run(context.Background(), "q"); err == nil {
		t.Fatal("Expected agent error")
	}
	ids, _ := manager.List(context.Background())
	if len(ids) != 0 {
		t.Errorf("Failed runs must not be recorded, got %v", ids)
	}
}

func TestRecordClone(t *testing.T) {
	record := &session.Record{
		ID:       "r1",
		Metadata: map[string]any{"k": "v"},
	}
	clone := record.Clone()
	clone.Metadata["k"] = "changed"
	if record.Metadata["k"] != "v" {
		t.Error("Clone must not share metadata with the original")
	}
}
