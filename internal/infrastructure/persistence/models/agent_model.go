package models

import "time"

// AgentModel is the agents table row.
type AgentModel struct {
	ID             string `gorm:"primaryKey;size:64"`
	Name           string `gorm:"uniqueIndex;size:100;not null"`
	Description    string `gorm:"type:text"`
	PromptTemplate string `gorm:"type:text;not null"`
	Model          string `gorm:"size:128"`
	MaxTokens      int
	Temperature    float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (AgentModel) TableName() string {
	return "agents"
}
