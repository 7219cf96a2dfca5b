package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/domain/repository"
	domainErrors "github.com/agentdeck/agentdeck/pkg/errors"
)

// MemoryExecutionRepository is a mutex-guarded in-memory execution log.
type MemoryExecutionRepository struct {
	mu         sync.RWMutex
	executions []*entity.Execution
}

func NewMemoryExecutionRepository() repository.ExecutionRepository {
	return &MemoryExecutionRepository{}
}

func (r *MemoryExecutionRepository) Save(_ context.Context, execution *entity.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executions = append(r.executions, execution)
	return nil
}

func (r *MemoryExecutionRepository) FindByID(_ context.Context, id string) (*entity.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, execution := range r.executions {
		if execution.ID == id {
			return execution, nil
		}
	}
	return nil, domainErrors.NewNotFoundError("execution not found")
}

func (r *MemoryExecutionRepository) FindAll(_ context.Context, agentID string, offset, limit int) ([]*entity.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*entity.Execution, 0, len(r.executions))
	for _, execution := range r.executions {
		if agentID == "" || execution.AgentID == agentID {
			matched = append(matched, execution)
		}
	}
	// Newest first; insertion order breaks timestamp ties.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return []*entity.Execution{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}
