package models

import "time"

// SkillModel is the skills table row.
type SkillModel struct {
	ID          string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"uniqueIndex;size:100;not null"`
	Description string `gorm:"type:text"`
	Kind        string `gorm:"size:16;not null"` // custom | prebuilt
	VendorID    string `gorm:"index;size:128"`
	SourcePath  string `gorm:"size:255"` // custom skills only
	Status      string `gorm:"size:16;not null"`
	UploadError string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (SkillModel) TableName() string {
	return "skills"
}

// AgentSkillModel is the agent↔skill join row. The composite unique index
// guarantees a given pair is attached at most once; the autoincrement id
// doubles as attachment order.
type AgentSkillModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	AgentID   string `gorm:"size:64;not null;uniqueIndex:idx_agent_skill"`
	SkillID   string `gorm:"size:64;not null;uniqueIndex:idx_agent_skill"`
	CreatedAt time.Time
}

func (AgentSkillModel) TableName() string {
	return "agent_skills"
}
