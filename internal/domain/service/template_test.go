package service

import (
	"strings"
	"testing"

	"github.com/agentdeck/agentdeck/pkg/errors"
)

func TestRender_SubstitutesAllPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "single variable",
			template: "Summarize {doc}",
			vars:     map[string]string{"doc": "report.pdf"},
			want:     "Summarize report.pdf",
		},
		{
			name:     "repeated variable",
			template: "{name} meets {name}",
			vars:     map[string]string{"name": "Ada"},
			want:     "Ada meets Ada",
		},
		{
			name:     "multiple variables",
			template: "Translate {text} into {lang}",
			vars:     map[string]string{"text": "hello", "lang": "French"},
			want:     "Translate hello into French",
		},
		{
			name:     "no placeholders",
			template: "static prompt",
			vars:     nil,
			want:     "static prompt",
		},
		{
			name:     "extra mapping keys ignored",
			template: "Summarize {doc}",
			vars:     map[string]string{"doc": "a.txt", "unused": "x"},
			want:     "Summarize a.txt",
		},
		{
			name:     "braces without a variable name untouched",
			template: "json example: {} and {not a var}",
			vars:     map[string]string{},
			want:     "json example: {} and {not a var}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.template, tt.vars)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_IsDeterministic(t *testing.T) {
	vars := map[string]string{"a": "1", "b": "2", "c": "3"}
	template := "{a}-{b}-{c}-{a}"

	first, err := Render(template, vars)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Render(template, vars)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if again != first {
			t.Fatalf("Render() not deterministic: %q vs %q", again, first)
		}
	}
	for key := range vars {
		if strings.Contains(first, "{"+key+"}") {
			t.Errorf("rendered output still contains placeholder {%s}", key)
		}
	}
}

func TestRender_MissingVariable(t *testing.T) {
	_, err := Render("Summarize {doc}", map[string]string{})
	if err == nil {
		t.Fatal("expected error for missing variable")
	}
	if !errors.IsMissingVariable(err) {
		t.Fatalf("expected MISSING_VARIABLE error, got %v", err)
	}
	if !strings.Contains(err.Error(), "doc") {
		t.Errorf("error should name the missing variable: %v", err)
	}
}

func TestRender_MissingVariableWithNilMap(t *testing.T) {
	_, err := Render("{x}", nil)
	if !errors.IsMissingVariable(err) {
		t.Fatalf("expected MISSING_VARIABLE error, got %v", err)
	}
}

func TestTemplateVariables(t *testing.T) {
	got := TemplateVariables("compare {a} with {b}, then {a} again")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("TemplateVariables() = %v, want [a b]", got)
	}
	if vars := TemplateVariables("nothing here"); len(vars) != 0 {
		t.Errorf("TemplateVariables() = %v, want empty", vars)
	}
}
