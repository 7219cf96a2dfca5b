package entity

import "time"

// ExecutionStatus is the terminal status of an execution attempt.
type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
)

// Usage reports token consumption for one invocation.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Execution is one append-only log entry per execute command, written after
// the external call resolves. Agent id and name are denormalized so history
// survives agent edits and deletion. Records are created once and never
// updated.
type Execution struct {
	ID           string
	AgentID      string
	AgentName    string
	Prompt       string // fully rendered prompt as sent
	Model        string
	Output       string // empty on failure
	Usage        Usage
	Temperature  float64
	DurationSecs float64
	Status       ExecutionStatus
	ErrorMessage string
	SkillIDs     []string // vendor skill ids active for this run
	CreatedAt    time.Time
}

// NewSuccessExecution builds a success record for a resolved invocation.
func NewSuccessExecution(id string, agent *Agent, prompt, model, output string, usage Usage, durationSecs float64, skillIDs []string) *Execution {
	return &Execution{
		ID:           id,
		AgentID:      agent.ID(),
		AgentName:    agent.Name(),
		Prompt:       prompt,
		Model:        model,
		Output:       output,
		Usage:        usage,
		Temperature:  agent.Temperature(),
		DurationSecs: durationSecs,
		Status:       ExecutionSuccess,
		SkillIDs:     skillIDs,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewAdHocSuccessExecution builds a success record for a one-off prompt
// executed without a saved agent. Agent identity fields stay empty.
func NewAdHocSuccessExecution(id, prompt, model, output string, usage Usage, temperature, durationSecs float64) *Execution {
	return &Execution{
		ID:           id,
		Prompt:       prompt,
		Model:        model,
		Output:       output,
		Usage:        usage,
		Temperature:  temperature,
		DurationSecs: durationSecs,
		Status:       ExecutionSuccess,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewAdHocFailedExecution is the failure counterpart of an agent-less run.
func NewAdHocFailedExecution(id, prompt, model string, temperature, durationSecs float64, errMessage string) *Execution {
	return &Execution{
		ID:           id,
		Prompt:       prompt,
		Model:        model,
		Temperature:  temperature,
		DurationSecs: durationSecs,
		Status:       ExecutionFailed,
		ErrorMessage: errMessage,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewFailedExecution builds a failure record so history is complete even
// for failed invocations.
func NewFailedExecution(id string, agent *Agent, prompt string, durationSecs float64, skillIDs []string, errMessage string) *Execution {
	return &Execution{
		ID:           id,
		AgentID:      agent.ID(),
		AgentName:    agent.Name(),
		Prompt:       prompt,
		Model:        agent.Model(),
		Temperature:  agent.Temperature(),
		DurationSecs: durationSecs,
		Status:       ExecutionFailed,
		ErrorMessage: errMessage,
		SkillIDs:     skillIDs,
		CreatedAt:    time.Now().UTC(),
	}
}
