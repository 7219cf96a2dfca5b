package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/domain/repository"
	domainErrors "github.com/agentdeck/agentdeck/pkg/errors"
)

type attachment struct {
	agentID string
	skillID string
	seq     uint64
}

// MemorySkillRepository is a mutex-guarded in-memory skill store with the
// same attachment semantics as the gorm implementation.
type MemorySkillRepository struct {
	mu          sync.RWMutex
	skills      map[string]*entity.Skill
	attachments []attachment
	nextSeq     uint64
}

func NewMemorySkillRepository() repository.SkillRepository {
	return &MemorySkillRepository{skills: make(map[string]*entity.Skill)}
}

func (r *MemorySkillRepository) FindByID(_ context.Context, id string) (*entity.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	skill, ok := r.skills[id]
	if !ok {
		return nil, domainErrors.NewNotFoundError("skill not found")
	}
	return skill, nil
}

func (r *MemorySkillRepository) FindByName(_ context.Context, name string) (*entity.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, skill := range r.skills {
		if skill.Name() == name {
			return skill, nil
		}
	}
	return nil, domainErrors.NewNotFoundError("skill not found")
}

func (r *MemorySkillRepository) FindByVendorID(_ context.Context, vendorID string) (*entity.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, skill := range r.skills {
		if skill.VendorID() == vendorID {
			return skill, nil
		}
	}
	return nil, domainErrors.NewNotFoundError("skill not found")
}

func (r *MemorySkillRepository) FindAll(_ context.Context) ([]*entity.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*entity.Skill, 0, len(r.skills))
	for _, skill := range r.skills {
		all = append(all, skill)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt().Before(all[j].CreatedAt())
	})
	return all, nil
}

func (r *MemorySkillRepository) Save(_ context.Context, skill *entity.Skill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.skills {
		if id != skill.ID() && existing.Name() == skill.Name() {
			return domainErrors.NewAlreadyExistsError("skill name already in use")
		}
	}
	r.skills[skill.ID()] = skill
	return nil
}

func (r *MemorySkillRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.skills[id]; !ok {
		return domainErrors.NewNotFoundError("skill not found")
	}
	delete(r.skills, id)
	return nil
}

func (r *MemorySkillRepository) FindByAgent(_ context.Context, agentID string) ([]*entity.Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := make([]attachment, 0)
	for _, link := range r.attachments {
		if link.agentID == agentID {
			links = append(links, link)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].seq < links[j].seq })

	skills := make([]*entity.Skill, 0, len(links))
	for _, link := range links {
		if skill, ok := r.skills[link.skillID]; ok {
			skills = append(skills, skill)
		}
	}
	return skills, nil
}

func (r *MemorySkillRepository) Attach(_ context.Context, agentID, skillID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, link := range r.attachments {
		if link.agentID == agentID && link.skillID == skillID {
			return domainErrors.NewAlreadyExistsError("skill already attached to agent")
		}
	}
	r.nextSeq++
	r.attachments = append(r.attachments, attachment{agentID: agentID, skillID: skillID, seq: r.nextSeq})
	return nil
}

func (r *MemorySkillRepository) Detach(_ context.Context, agentID, skillID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, link := range r.attachments {
		if link.agentID == agentID && link.skillID == skillID {
			r.attachments = append(r.attachments[:i], r.attachments[i+1:]...)
			return nil
		}
	}
	return domainErrors.NewNotFoundError("skill not attached to agent")
}

func (r *MemorySkillRepository) AttachedAgentCount(_ context.Context, skillID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, link := range r.attachments {
		if link.skillID == skillID {
			count++
		}
	}
	return count, nil
}
