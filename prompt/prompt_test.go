package prompt

import (
	"strings"
	"testing"
)

func TestTemplateRender(t *testing.T) {
	tmpl, err := NewTemplate("greet", "Intent: {{.Intent}}")
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}
	out, err := tmpl.Render(map[string]string{"Intent": "legal_process"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "Intent: legal_process" {
		t.Fatalf("Render = %q", out)
	}
	if _, err := tmpl.Render(map[string]string{}); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestManagerRegisterAndRender(t *testing.T) {
	m := NewManager()
	m.MustRegisterString("b", "B{{.}}").MustRegisterString("a", "A{{.}}")

	if err := m.RegisterString("a", "dup"); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if got, err := m.Render("a", 1); err != nil || got != "A1" {
		t.Fatalf("Render = %q, %v", got, err)
	}
	if _, err := m.Render("missing", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
	if names := m.List(); len(names) != 2 || names[0] != "a" {
		t.Fatalf("List = %v", names)
	}
}

func TestBuilderSections(t *testing.T) {
	out := NewBuilder().
		AddSection("Rules", "ask only when needed").
		AddSection("Empty", "  ").
		AddList("Required", []string{"act", "harm"}).
		AddList("None", nil).
		AddJSON("Payload", map[string]int{"rounds": 2}).
		Build()

	if strings.Contains(out, "## Empty") || strings.Contains(out, "## None") {
		t.Fatalf("blank sections rendered:\n%s", out)
	}
	for _, want := range []string{"## Rules\nask only when needed", "- act\n- harm", `"rounds": 2`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.HasSuffix(out, "\n") {
		t.Error("Build should trim trailing newlines")
	}
}
