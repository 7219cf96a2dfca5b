package models

import "time"

// ExecutionModel is the executions table row. Append-only: rows are
// inserted once and never updated. Agent name is denormalized so history
// survives agent edits and deletion.
type ExecutionModel struct {
	ID           string `gorm:"primaryKey;size:64"`
	AgentID      string `gorm:"index;size:64"`
	AgentName    string `gorm:"size:100"`
	Prompt       string `gorm:"type:text;not null"`
	Model        string `gorm:"size:128;not null"`
	Output       string `gorm:"type:text"`
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Temperature  float64
	DurationSecs float64
	Status       string `gorm:"size:16;not null"`
	ErrorMessage string `gorm:"type:text"`
	SkillIDs     string `gorm:"type:text"` // JSON encoded list of vendor skill ids
	CreatedAt    time.Time `gorm:"index"`
}

func (ExecutionModel) TableName() string {
	return "executions"
}
