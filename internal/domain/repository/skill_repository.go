package repository

import (
	"context"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
)

// SkillRepository persists skill records and the agent↔skill association.
// A given (agent, skill) pair is attached at most once.
type SkillRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Skill, error)
	FindByName(ctx context.Context, name string) (*entity.Skill, error)
	FindByVendorID(ctx context.Context, vendorID string) (*entity.Skill, error)
	FindAll(ctx context.Context) ([]*entity.Skill, error)
	Save(ctx context.Context, skill *entity.Skill) error
	Delete(ctx context.Context, id string) error

	// FindByAgent returns the agent's skills in attachment order.
	FindByAgent(ctx context.Context, agentID string) ([]*entity.Skill, error)
	Attach(ctx context.Context, agentID, skillID string) error
	Detach(ctx context.Context, agentID, skillID string) error
	// AttachedAgentCount reports how many agents reference the skill.
	AttachedAgentCount(ctx context.Context, skillID string) (int, error)
}
