package entity

import "errors"

var (
	ErrInvalidAgentID      = errors.New("invalid agent id")
	ErrInvalidAgentName    = errors.New("invalid agent name")
	ErrEmptyPromptTemplate = errors.New("prompt template must not be empty")
	ErrInvalidSkillID      = errors.New("invalid skill id")
	ErrInvalidSkillName    = errors.New("invalid skill name")
)
