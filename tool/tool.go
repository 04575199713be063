package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sweetpotato0/reagent/errors"
)

// Tool is the adapter interface agents dispatch through. Implementations keep
// a stable identity by name; Invoke may fail.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, input string) (string, error)
}

// Func adapts a plain function into a Tool.
type Func struct {
	ToolName        string
	ToolDescription string
	Fn              func(ctx context.Context, input string) (string, error)
}

func (f *Func) Name() string        { return f.ToolName }
func (f *Func) Description() string { return f.ToolDescription }

func (f *Func) Invoke(ctx context.Context, input string) (string, error) {
	if f.Fn == nil {
		return "", fmt.Errorf("tool %s has no handler", f.ToolName)
	}
	return f.Fn(ctx, input)
}

// Registry manages a collection of tools. It is passed into agents at
// construction time so concurrent agents can hold different tool sets.
// All operations are thread-safe using RWMutex protection.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a new tool registry.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) error {
	if t == nil || t.Name() == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %s already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Upsert adds or replaces a tool definition in the registry.
func (r *Registry) Upsert(t Tool) error {
	if t == nil || t.Name() == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tools == nil {
		r.tools = make(map[string]Tool)
	}
	r.tools[t.Name()] = t
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, &errors.ToolNotFoundError{Name: name}
	}
	return t, nil
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Describe composes the worker prompt block from the registered tools,
// one line per tool:
//
//	toolname1[input]: tool1 description
//	toolname2[input]: tool2 description
func (r *Registry) Describe() (string, error) {
	var b strings.Builder
	for _, t := range r.List() {
		if t.Name() == "" || t.Description() == "" {
			return "", fmt.Errorf("worker must have a name and description")
		}
		fmt.Fprintf(&b, "%s[input]: %s\n", t.Name(), t.Description())
	}
	return b.String(), nil
}
