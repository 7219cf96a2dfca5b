package repository

import (
	"context"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
)

// ExecutionRepository is the append-only execution log. Records are inserted
// exactly once and never updated.
type ExecutionRepository interface {
	Save(ctx context.Context, execution *entity.Execution) error
	FindByID(ctx context.Context, id string) (*entity.Execution, error)
	// FindAll returns executions newest first, optionally filtered by agent.
	FindAll(ctx context.Context, agentID string, offset, limit int) ([]*entity.Execution, error)
}
