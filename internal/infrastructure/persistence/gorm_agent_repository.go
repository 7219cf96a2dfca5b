package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/domain/repository"
	"github.com/agentdeck/agentdeck/internal/infrastructure/persistence/models"
	domainErrors "github.com/agentdeck/agentdeck/pkg/errors"
)

// GormAgentRepository is the gorm-backed agent store.
type GormAgentRepository struct {
	db *gorm.DB
}

func NewGormAgentRepository(db *gorm.DB) repository.AgentRepository {
	return &GormAgentRepository{db: db}
}

func (r *GormAgentRepository) FindByID(ctx context.Context, id string) (*entity.Agent, error) {
	var model models.AgentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("agent not found")
		}
		return nil, domainErrors.NewInternalError("failed to find agent: " + err.Error())
	}
	return agentToEntity(&model), nil
}

func (r *GormAgentRepository) FindByName(ctx context.Context, name string) (*entity.Agent, error) {
	var model models.AgentModel
	if err := r.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("agent not found")
		}
		return nil, domainErrors.NewInternalError("failed to find agent: " + err.Error())
	}
	return agentToEntity(&model), nil
}

func (r *GormAgentRepository) FindAll(ctx context.Context, offset, limit int) ([]*entity.Agent, error) {
	var modelList []models.AgentModel
	q := r.db.WithContext(ctx).Order("created_at")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&modelList).Error; err != nil {
		return nil, domainErrors.NewInternalError("failed to list agents: " + err.Error())
	}

	agents := make([]*entity.Agent, 0, len(modelList))
	for i := range modelList {
		agents = append(agents, agentToEntity(&modelList[i]))
	}
	return agents, nil
}

func (r *GormAgentRepository) Save(ctx context.Context, agent *entity.Agent) error {
	if err := r.db.WithContext(ctx).Save(agentToModel(agent)).Error; err != nil {
		return domainErrors.NewInternalError("failed to save agent: " + err.Error())
	}
	return nil
}

func (r *GormAgentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.AgentModel{}, "id = ?", id)
	if result.Error != nil {
		return domainErrors.NewInternalError("failed to delete agent: " + result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return domainErrors.NewNotFoundError("agent not found")
	}
	// Attachments referencing the deleted agent are dropped with it.
	if err := r.db.WithContext(ctx).Delete(&models.AgentSkillModel{}, "agent_id = ?", id).Error; err != nil {
		return domainErrors.NewInternalError("failed to delete agent skill links: " + err.Error())
	}
	return nil
}

// --- Mapping ---

func agentToModel(agent *entity.Agent) *models.AgentModel {
	return &models.AgentModel{
		ID:             agent.ID(),
		Name:           agent.Name(),
		Description:    agent.Description(),
		PromptTemplate: agent.PromptTemplate(),
		Model:          agent.Model(),
		MaxTokens:      agent.MaxTokens(),
		Temperature:    agent.Temperature(),
		CreatedAt:      agent.CreatedAt(),
		UpdatedAt:      agent.UpdatedAt(),
	}
}

func agentToEntity(model *models.AgentModel) *entity.Agent {
	return entity.ReconstructAgent(
		model.ID,
		model.Name,
		model.Description,
		model.PromptTemplate,
		model.Model,
		model.MaxTokens,
		model.Temperature,
		model.CreatedAt,
		model.UpdatedAt,
	)
}
