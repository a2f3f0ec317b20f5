// Package prompt assembles system instructions from named templates and
// titled sections.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
)

// Template represents a prompt template with variables
type Template struct {
	Name     string
	Content  string
	template *template.Template
}

// NewTemplate parses content as a text/template. Missing keys are errors.
func NewTemplate(name, content string) (*Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return &Template{
		Name:     name,
		Content:  content,
		template: tmpl,
	}, nil
}

// Render renders the template with data
func (t *Template) Render(data any) (string, error) {
	var buf strings.Builder
	if err := t.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", t.Name, err)
	}
	return buf.String(), nil
}

// Manager is a concurrency-safe registry of templates.
type Manager struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewManager creates a new prompt manager
func NewManager() *Manager {
	return &Manager{
		templates: make(map[string]*Template),
	}
}

// RegisterString parses content and registers it under name. Names are
// unique.
func (m *Manager) RegisterString(name, content string) error {
	if name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	tmpl, err := NewTemplate(name, content)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.templates[name]; exists {
		return fmt.Errorf("template %s already registered", name)
	}
	m.templates[name] = tmpl
	return nil
}

// MustRegisterString is RegisterString for package-level template sets;
// it panics on a parse error or duplicate name.
func (m *Manager) MustRegisterString(name, content string) *Manager {
	if err := m.RegisterString(name, content); err != nil {
		panic(err)
	}
	return m
}

// Get retrieves a template by name
func (m *Manager) Get(name string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tmpl, ok := m.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %s not found", name)
	}
	return tmpl, nil
}

// Render renders a template by name
func (m *Manager) Render(name string, data any) (string, error) {
	tmpl, err := m.Get(name)
	if err != nil {
		return "", err
	}
	return tmpl.Render(data)
}

// List returns all registered template names in sorted order
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builder helps build complex prompts
type Builder struct {
	parts []string
}

// NewBuilder creates a new prompt builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Add adds a part to the prompt
func (b *Builder) Add(part string) *Builder {
	b.parts = append(b.parts, part)
	return b
}

// AddSection adds a titled section. Blank content is skipped.
func (b *Builder) AddSection(title, content string) *Builder {
	if strings.TrimSpace(content) == "" {
		return b
	}
	b.parts = append(b.parts, fmt.Sprintf("## %s\n%s\n\n", title, strings.TrimRight(content, "\n")))
	return b
}

// AddList adds a titled bullet list. An empty list is skipped.
func (b *Builder) AddList(title string, items []string) *Builder {
	if len(items) == 0 {
		return b
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return b.AddSection(title, strings.Join(lines, "\n"))
}

// AddJSON adds a titled section holding v as indented JSON.
func (b *Builder) AddJSON(title string, v any) *Builder {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return b.AddSection(title, fmt.Sprintf("%v", v))
	}
	return b.AddSection(title, string(data))
}

// Build returns the final prompt string
func (b *Builder) Build() string {
	return strings.TrimRight(strings.Join(b.parts, ""), "\n")
}
