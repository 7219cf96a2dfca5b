package repository

import (
	"context"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
)

// AgentRepository persists agent definitions.
type AgentRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Agent, error)
	FindByName(ctx context.Context, name string) (*entity.Agent, error)
	FindAll(ctx context.Context, offset, limit int) ([]*entity.Agent, error)
	Save(ctx context.Context, agent *entity.Agent) error
	Delete(ctx context.Context, id string) error
}
