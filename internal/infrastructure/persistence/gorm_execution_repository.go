package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/domain/repository"
	"github.com/agentdeck/agentdeck/internal/infrastructure/persistence/models"
	domainErrors "github.com/agentdeck/agentdeck/pkg/errors"
)

// GormExecutionRepository is the gorm-backed execution history store.
type GormExecutionRepository struct {
	db *gorm.DB
}

func NewGormExecutionRepository(db *gorm.DB) repository.ExecutionRepository {
	return &GormExecutionRepository{db: db}
}

func (r *GormExecutionRepository) Save(ctx context.Context, execution *entity.Execution) error {
	model, err := executionToModel(execution)
	if err != nil {
		return domainErrors.NewInternalError("failed to encode execution: " + err.Error())
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domainErrors.NewInternalError("failed to save execution: " + err.Error())
	}
	return nil
}

func (r *GormExecutionRepository) FindByID(ctx context.Context, id string) (*entity.Execution, error) {
	var model models.ExecutionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("execution not found")
		}
		return nil, domainErrors.NewInternalError("failed to find execution: " + err.Error())
	}
	return executionToEntity(&model), nil
}

// FindAll returns executions newest first, optionally filtered by agent.
func (r *GormExecutionRepository) FindAll(ctx context.Context, agentID string, offset, limit int) ([]*entity.Execution, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if agentID != "" {
		q = q.Where("agent_id = ?", agentID)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var modelList []models.ExecutionModel
	if err := q.Find(&modelList).Error; err != nil {
		return nil, domainErrors.NewInternalError("failed to list executions: " + err.Error())
	}
	executions := make([]*entity.Execution, 0, len(modelList))
	for i := range modelList {
		executions = append(executions, executionToEntity(&modelList[i]))
	}
	return executions, nil
}

// --- Mapping ---

func executionToModel(e *entity.Execution) (*models.ExecutionModel, error) {
	skillIDs := "[]"
	if len(e.SkillIDs) > 0 {
		encoded, err := json.Marshal(e.SkillIDs)
		if err != nil {
			return nil, err
		}
		skillIDs = string(encoded)
	}
	return &models.ExecutionModel{
		ID:           e.ID,
		AgentID:      e.AgentID,
		AgentName:    e.AgentName,
		Prompt:       e.Prompt,
		Model:        e.Model,
		Output:       e.Output,
		InputTokens:  e.Usage.InputTokens,
		OutputTokens: e.Usage.OutputTokens,
		TotalTokens:  e.Usage.TotalTokens,
		Temperature:  e.Temperature,
		DurationSecs: e.DurationSecs,
		Status:       string(e.Status),
		ErrorMessage: e.ErrorMessage,
		SkillIDs:     skillIDs,
		CreatedAt:    e.CreatedAt,
	}, nil
}

func executionToEntity(model *models.ExecutionModel) *entity.Execution {
	var skillIDs []string
	if model.SkillIDs != "" {
		// Rows written by this repository always hold valid JSON.
		_ = json.Unmarshal([]byte(model.SkillIDs), &skillIDs)
	}
	return &entity.Execution{
		ID:        model.ID,
		AgentID:   model.AgentID,
		AgentName: model.AgentName,
		Prompt:    model.Prompt,
		Model:     model.Model,
		Output:    model.Output,
		Usage: entity.Usage{
			InputTokens:  model.InputTokens,
			OutputTokens: model.OutputTokens,
			TotalTokens:  model.TotalTokens,
		},
		Temperature:  model.Temperature,
		DurationSecs: model.DurationSecs,
		Status:       entity.ExecutionStatus(model.Status),
		ErrorMessage: model.ErrorMessage,
		SkillIDs:     skillIDs,
		CreatedAt:    model.CreatedAt,
	}
}
