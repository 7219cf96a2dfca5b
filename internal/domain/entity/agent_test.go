package entity

import (
	"testing"
	"time"
)

func TestNewAgentDefaults(t *testing.T) {
	agent, err := NewAgent("id-1", "summarizer", "", "Summarize {doc}", "", 0, -1)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	if agent.Model() != DefaultModel {
		t.Errorf("model = %q, want default %q", agent.Model(), DefaultModel)
	}
	if agent.MaxTokens() != DefaultMaxTokens {
		t.Errorf("max tokens = %d, want default %d", agent.MaxTokens(), DefaultMaxTokens)
	}
	if agent.Temperature() != DefaultTemperature {
		t.Errorf("temperature = %v, want default %v", agent.Temperature(), DefaultTemperature)
	}
}

func TestNewAgentValidation(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		agent    string
		template string
		wantErr  error
	}{
		{"empty id", "", "a", "t", ErrInvalidAgentID},
		{"blank name", "id", "   ", "t", ErrInvalidAgentName},
		{"blank template", "id", "a", " \t ", ErrEmptyPromptTemplate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAgent(tt.id, tt.agent, "", tt.template, "", 0, -1)
			if err != tt.wantErr {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAgentApplyPartialUpdate(t *testing.T) {
	agent, err := NewAgent("id-1", "summarizer", "old", "Summarize {doc}", "claude-sonnet-4-5", 1000, 0.5)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	before := agent.UpdatedAt()
	time.Sleep(time.Millisecond)

	newName := "translator"
	newTokens := 2000
	if err := agent.Apply(AgentUpdate{Name: &newName, MaxTokens: &newTokens}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if agent.Name() != "translator" {
		t.Errorf("name = %q", agent.Name())
	}
	if agent.MaxTokens() != 2000 {
		t.Errorf("max tokens = %d", agent.MaxTokens())
	}
	// Untouched fields survive.
	if agent.Description() != "old" || agent.PromptTemplate() != "Summarize {doc}" {
		t.Error("unset fields should be unchanged")
	}
	if !agent.UpdatedAt().After(before) {
		t.Error("updated_at should advance")
	}
}

func TestAgentApplyRejectsBlankValues(t *testing.T) {
	agent, err := NewAgent("id-1", "summarizer", "", "Summarize {doc}", "", 0, -1)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}

	blank := "  "
	if err := agent.Apply(AgentUpdate{Name: &blank}); err != ErrInvalidAgentName {
		t.Errorf("blank name err = %v", err)
	}
	if err := agent.Apply(AgentUpdate{PromptTemplate: &blank}); err != ErrEmptyPromptTemplate {
		t.Errorf("blank template err = %v", err)
	}
}
