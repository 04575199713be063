package prompt

import (
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// Template represents a prompt template with named placeholders.
type Template struct {
	Name     string
	Content  string
	template *template.Template
}

// New creates a new prompt template. The content uses text/template syntax;
// missing keys render as empty strings rather than failing.
func New(name, content string) (*Template, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Template{
		Name:     name,
		Content:  content,
		template: tmpl,
	}, nil
}

// MustNew is like New but panics on parse failure. Intended for package-level
// default templates whose content is fixed at compile time.
func MustNew(name, content string) *Template {
	tmpl, err := New(name, content)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Render renders the template with given variables.
func (t *Template) Render(vars map[string]any) (string, error) {
	var buf strings.Builder
	if err := t.template.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// Has reports whether the template content references the given placeholder.
// Used to decide whether optional sections (e.g. few-shot examples) apply.
func (t *Template) Has(placeholder string) bool {
	return strings.Contains(t.Content, "{{."+placeholder+"}}")
}

// Manager manages prompt templates.
// All operations are thread-safe using RWMutex protection.
type Manager struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewManager creates a new prompt manager.
func NewManager() *Manager {
	return &Manager{
		templates: make(map[string]*Template),
	}
}

// Register adds a template to the manager.
func (m *Manager) Register(tmpl *Template) error {
	if tmpl.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.templates[tmpl.Name]; exists {
		return fmt.Errorf("template %s already registered", tmpl.Name)
	}
	m.templates[tmpl.Name] = tmpl
	return nil
}

// RegisterString registers a template from string content.
func (m *Manager) RegisterString(name, content string) error {
	tmpl, err := New(name, content)
	if err != nil {
		return err
	}
	return m.Register(tmpl)
}

// Get retrieves a template by name.
func (m *Manager) Get(name string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tmpl, ok := m.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %s not found", name)
	}
	return tmpl, nil
}

// Render renders a template by name with given variables.
func (m *Manager) Render(name string, vars map[string]any) (string, error) {
	tmpl, err := m.Get(name)
	if err != nil {
		return "", err
	}
	return tmpl.Render(vars)
}

// Builder helps build composite prompts.
type Builder struct {
	parts []string
}

// NewBuilder creates a new prompt builder.
func NewBuilder() *Builder {
	return &Builder{parts: make([]string, 0)}
}

// Add adds a part to the prompt.
func (b *Builder) Add(part string) *Builder {
	b.parts = append(b.parts, part)
	return b
}

// AddFormat adds a formatted part to the prompt.
func (b *Builder) AddFormat(format string, args ...any) *Builder {
	b.parts = append(b.parts, fmt.Sprintf(format, args...))
	return b
}

// AddSection adds a section with title and content.
func (b *Builder) AddSection(title, content string) *Builder {
	b.parts = append(b.parts, fmt.Sprintf("##%s##\n%s\n", title, content))
	return b
}

// Build returns the final prompt string.
func (b *Builder) Build() string {
	return strings.Join(b.parts, "")
}
