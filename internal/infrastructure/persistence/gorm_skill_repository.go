package persistence

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/domain/repository"
	"github.com/agentdeck/agentdeck/internal/infrastructure/persistence/models"
	domainErrors "github.com/agentdeck/agentdeck/pkg/errors"
)

// GormSkillRepository is the gorm-backed skill store, including the
// agent-skill attachment table.
type GormSkillRepository struct {
	db *gorm.DB
}

func NewGormSkillRepository(db *gorm.DB) repository.SkillRepository {
	return &GormSkillRepository{db: db}
}

func (r *GormSkillRepository) FindByID(ctx context.Context, id string) (*entity.Skill, error) {
	var model models.SkillModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("skill not found")
		}
		return nil, domainErrors.NewInternalError("failed to find skill: " + err.Error())
	}
	return skillToEntity(&model), nil
}

func (r *GormSkillRepository) FindByName(ctx context.Context, name string) (*entity.Skill, error) {
	var model models.SkillModel
	if err := r.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("skill not found")
		}
		return nil, domainErrors.NewInternalError("failed to find skill: " + err.Error())
	}
	return skillToEntity(&model), nil
}

func (r *GormSkillRepository) FindByVendorID(ctx context.Context, vendorID string) (*entity.Skill, error) {
	var model models.SkillModel
	if err := r.db.WithContext(ctx).First(&model, "vendor_id = ?", vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("skill not found")
		}
		return nil, domainErrors.NewInternalError("failed to find skill: " + err.Error())
	}
	return skillToEntity(&model), nil
}

func (r *GormSkillRepository) FindAll(ctx context.Context) ([]*entity.Skill, error) {
	var modelList []models.SkillModel
	if err := r.db.WithContext(ctx).Order("created_at").Find(&modelList).Error; err != nil {
		return nil, domainErrors.NewInternalError("failed to list skills: " + err.Error())
	}
	skills := make([]*entity.Skill, 0, len(modelList))
	for i := range modelList {
		skills = append(skills, skillToEntity(&modelList[i]))
	}
	return skills, nil
}

func (r *GormSkillRepository) Save(ctx context.Context, skill *entity.Skill) error {
	if err := r.db.WithContext(ctx).Save(skillToModel(skill)).Error; err != nil {
		if isUniqueViolation(err) {
			return domainErrors.NewAlreadyExistsError("skill name already in use")
		}
		return domainErrors.NewInternalError("failed to save skill: " + err.Error())
	}
	return nil
}

func (r *GormSkillRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.SkillModel{}, "id = ?", id)
	if result.Error != nil {
		return domainErrors.NewInternalError("failed to delete skill: " + result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return domainErrors.NewNotFoundError("skill not found")
	}
	return nil
}

// FindByAgent returns the agent's skills in attachment order.
func (r *GormSkillRepository) FindByAgent(ctx context.Context, agentID string) ([]*entity.Skill, error) {
	var modelList []models.SkillModel
	err := r.db.WithContext(ctx).
		Joins("JOIN agent_skills ON agent_skills.skill_id = skills.id").
		Where("agent_skills.agent_id = ?", agentID).
		Order("agent_skills.id").
		Find(&modelList).Error
	if err != nil {
		return nil, domainErrors.NewInternalError("failed to list agent skills: " + err.Error())
	}
	skills := make([]*entity.Skill, 0, len(modelList))
	for i := range modelList {
		skills = append(skills, skillToEntity(&modelList[i]))
	}
	return skills, nil
}

func (r *GormSkillRepository) Attach(ctx context.Context, agentID, skillID string) error {
	link := models.AgentSkillModel{AgentID: agentID, SkillID: skillID}
	if err := r.db.WithContext(ctx).Create(&link).Error; err != nil {
		if isUniqueViolation(err) {
			return domainErrors.NewAlreadyExistsError("skill already attached to agent")
		}
		return domainErrors.NewInternalError("failed to attach skill: " + err.Error())
	}
	return nil
}

func (r *GormSkillRepository) Detach(ctx context.Context, agentID, skillID string) error {
	result := r.db.WithContext(ctx).
		Delete(&models.AgentSkillModel{}, "agent_id = ? AND skill_id = ?", agentID, skillID)
	if result.Error != nil {
		return domainErrors.NewInternalError("failed to detach skill: " + result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return domainErrors.NewNotFoundError("skill not attached to agent")
	}
	return nil
}

func (r *GormSkillRepository) AttachedAgentCount(ctx context.Context, skillID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AgentSkillModel{}).
		Where("skill_id = ?", skillID).
		Count(&count).Error
	if err != nil {
		return 0, domainErrors.NewInternalError("failed to count attachments: " + err.Error())
	}
	return int(count), nil
}

// isUniqueViolation matches both sqlite and postgres duplicate-key errors.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// --- Mapping ---

func skillToModel(skill *entity.Skill) *models.SkillModel {
	return &models.SkillModel{
		ID:          skill.ID(),
		Name:        skill.Name(),
		Description: skill.Description(),
		Kind:        string(skill.Kind()),
		VendorID:    skill.VendorID(),
		SourcePath:  skill.SourcePath(),
		Status:      string(skill.Status()),
		UploadError: skill.UploadError(),
		CreatedAt:   skill.CreatedAt(),
	}
}

func skillToEntity(model *models.SkillModel) *entity.Skill {
	return entity.ReconstructSkill(
		model.ID,
		model.Name,
		model.Description,
		entity.SkillKind(model.Kind),
		model.VendorID,
		model.SourcePath,
		entity.UploadStatus(model.Status),
		model.UploadError,
		model.CreatedAt,
	)
}
