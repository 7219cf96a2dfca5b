package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/domain/repository"
	domainErrors "github.com/agentdeck/agentdeck/pkg/errors"
)

// MemoryAgentRepository is a mutex-guarded in-memory agent store, used in
// tests and for ephemeral deployments.
type MemoryAgentRepository struct {
	mu     sync.RWMutex
	agents map[string]*entity.Agent
}

func NewMemoryAgentRepository() repository.AgentRepository {
	return &MemoryAgentRepository{agents: make(map[string]*entity.Agent)}
}

func (r *MemoryAgentRepository) FindByID(_ context.Context, id string) (*entity.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, domainErrors.NewNotFoundError("agent not found")
	}
	return agent, nil
}

func (r *MemoryAgentRepository) FindByName(_ context.Context, name string) (*entity.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, agent := range r.agents {
		if agent.Name() == name {
			return agent, nil
		}
	}
	return nil, domainErrors.NewNotFoundError("agent not found")
}

func (r *MemoryAgentRepository) FindAll(_ context.Context, offset, limit int) ([]*entity.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*entity.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		all = append(all, agent)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt().Before(all[j].CreatedAt())
	})

	if offset >= len(all) {
		return []*entity.Agent{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryAgentRepository) Save(_ context.Context, agent *entity.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.ID()] = agent
	return nil
}

func (r *MemoryAgentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[id]; !ok {
		return domainErrors.NewNotFoundError("agent not found")
	}
	delete(r.agents, id)
	return nil
}
