package entity

import (
	"strings"
	"time"
)

// Default generation parameters applied when an agent is created without
// explicit values.
const (
	DefaultModel       = "claude-sonnet-4-5"
	DefaultMaxTokens   = 5000
	DefaultTemperature = 1.0
)

// Agent is a named, reusable pairing of a prompt template with a target
// model and generation parameters. The template may contain {name}-style
// placeholders substituted at execution time.
type Agent struct {
	id             string
	name           string
	description    string
	promptTemplate string
	model          string
	maxTokens      int
	temperature    float64
	createdAt      time.Time
	updatedAt      time.Time
}

// NewAgent creates an agent, applying defaults for unset generation
// parameters.
func NewAgent(id, name, description, promptTemplate, model string, maxTokens int, temperature float64) (*Agent, error) {
	if id == "" {
		return nil, ErrInvalidAgentID
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidAgentName
	}
	if strings.TrimSpace(promptTemplate) == "" {
		return nil, ErrEmptyPromptTemplate
	}
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if temperature < 0 {
		temperature = DefaultTemperature
	}

	now := time.Now().UTC()
	return &Agent{
		id:             id,
		name:           name,
		description:    description,
		promptTemplate: promptTemplate,
		model:          model,
		maxTokens:      maxTokens,
		temperature:    temperature,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructAgent rebuilds an agent from the persistence layer without
// re-validating or touching timestamps.
func ReconstructAgent(id, name, description, promptTemplate, model string, maxTokens int, temperature float64, createdAt, updatedAt time.Time) *Agent {
	return &Agent{
		id:             id,
		name:           name,
		description:    description,
		promptTemplate: promptTemplate,
		model:          model,
		maxTokens:      maxTokens,
		temperature:    temperature,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (a *Agent) ID() string             { return a.id }
func (a *Agent) Name() string           { return a.name }
func (a *Agent) Description() string    { return a.description }
func (a *Agent) PromptTemplate() string { return a.promptTemplate }
func (a *Agent) Model() string          { return a.model }
func (a *Agent) MaxTokens() int         { return a.maxTokens }
func (a *Agent) Temperature() float64   { return a.temperature }
func (a *Agent) CreatedAt() time.Time   { return a.createdAt }
func (a *Agent) UpdatedAt() time.Time   { return a.updatedAt }

// AgentUpdate carries a partial update; nil fields are left unchanged.
type AgentUpdate struct {
	Name           *string
	Description    *string
	PromptTemplate *string
	Model          *string
	MaxTokens      *int
	Temperature    *float64
}

// Apply mutates the agent with the non-nil fields of the update.
func (a *Agent) Apply(u AgentUpdate) error {
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return ErrInvalidAgentName
		}
		a.name = *u.Name
	}
	if u.Description != nil {
		a.description = *u.Description
	}
	if u.PromptTemplate != nil {
		if strings.TrimSpace(*u.PromptTemplate) == "" {
			return ErrEmptyPromptTemplate
		}
		a.promptTemplate = *u.PromptTemplate
	}
	if u.Model != nil && *u.Model != "" {
		a.model = *u.Model
	}
	if u.MaxTokens != nil && *u.MaxTokens > 0 {
		a.maxTokens = *u.MaxTokens
	}
	if u.Temperature != nil && *u.Temperature >= 0 {
		a.temperature = *u.Temperature
	}
	a.updatedAt = time.Now().UTC()
	return nil
}
