package tool

import (
	"context"
	"strings"
	"testing"

	"github.com/sweetpotato0/reagent/errors"
)

func testTool(name, description string) *Func {
	return &Func{
		ToolName:        name,
		ToolDescription: description,
		Fn: func(_ context.Context, input string) (string, error) {
			return input, nil
		},
	}
}

func TestRegistryGet(t *testing.T) {
	registry, err := NewRegistry(testTool("Search", "finds things"))
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	tool, err := registry.Get("Search")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tool.Name() != "Search" {
		t.Errorf("Unexpected tool %q", tool.Name())
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	_, err = registry.Get("Nope")
	if err == nil {
		t.Fatal("Expected error for unknown tool")
	}
	var notFound *errors.ToolNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected ToolNotFoundError, got %v", err)
	}
}

func TestRegistryRejectsUnnamed(t *testing.T) {
	_, err := NewRegistry(testTool("", "has no name"))
	if err == nil {
		t.Fatal("Expected error for unnamed tool")
	}
}

func TestRegistryUpsert(t *testing.T) {
	registry, err := NewRegistry(testTool("Search", "old"))
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if err := registry.Upsert(testTool("Search", "new")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	tool, err := registry.Get("Search")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tool.Description() != "new" {
		t.Errorf("Expected replacement, got %q", tool.Description())
	}
	if registry.Len() != 1 {
		t.Errorf("Expected 1 tool, got %d", registry.Len())
	}
}

func TestRegistryListSorted(t *testing.T) {
	registry, err := NewRegistry(
		testTool("Zebra", "z"),
		testTool("Apple", "a"),
	)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	tools := registry.List()
	if tools[0].Name() != "Apple" || tools[1].Name() != "Zebra" {
		t.Errorf("Expected sorted listing, got %v", []string{tools[0].Name(), tools[1].Name()})
	}
}

func TestRegistryDescribe(t *testing.T) {
	registry, err := NewRegistry(
		testTool("Calculator", "computes arithmetic"),
		testTool("Search", "finds things"),
	)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	description, err := registry.Describe()
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(description, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %q", description)
	}
	if lines[0] != "Calculator[input]: computes arithmetic" {
		t.Errorf("Unexpected description line %q", lines[0])
	}
}

func TestFuncWithoutHandler(t *testing.T) {
	f := &Func{ToolName: "Broken", ToolDescription: "no handler"}
	if _, err := f.Invoke(context.Background(), "x"); err == nil {
		t.Fatal("Expected error for tool without handler")
	}
}
