package skills

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/domain/repository"
	"github.com/agentdeck/agentdeck/internal/infrastructure/llm/anthropic"
	domainErrors "github.com/agentdeck/agentdeck/pkg/errors"
)

// prebuiltCatalog lists the vendor-hosted skills that can be registered
// without an upload. The key doubles as the vendor skill id.
var prebuiltCatalog = map[string]string{
	"pptx": "Create and edit PowerPoint presentations",
	"xlsx": "Create and edit Excel spreadsheets",
	"docx": "Create and edit Word documents",
	"pdf":  "Fill and process PDF forms",
}

// VendorClient is the slice of the model API used by the skill registry.
// *anthropic.Client satisfies it.
type VendorClient interface {
	UploadSkill(ctx context.Context, displayTitle, dir string) (string, error)
	ListSkills(ctx context.Context) ([]anthropic.VendorSkill, error)
}

// Service manages the skill registry: prebuilt registration, custom bundle
// ingestion, and agent attachment.
type Service struct {
	skills repository.SkillRepository
	agents repository.AgentRepository
	vendor VendorClient
	logger *zap.Logger
}

func NewService(skills repository.SkillRepository, agents repository.AgentRepository, vendor VendorClient, logger *zap.Logger) *Service {
	return &Service{
		skills: skills,
		agents: agents,
		vendor: vendor,
		logger: logger,
	}
}

// RegisterPrebuilt registers one of the vendor-hosted skills by name.
// Prebuilt skills are immediately usable.
func (s *Service) RegisterPrebuilt(ctx context.Context, name string) (*entity.Skill, error) {
	description, ok := prebuiltCatalog[name]
	if !ok {
		return nil, domainErrors.NewInvalidInputError(fmt.Sprintf("unknown prebuilt skill: %s", name))
	}
	if _, err := s.skills.FindByName(ctx, name); err == nil {
		return nil, domainErrors.NewAlreadyExistsError(fmt.Sprintf("skill %q is already registered", name))
	} else if !domainErrors.IsNotFound(err) {
		return nil, err
	}

	skill, err := entity.NewPrebuiltSkill(uuid.NewString(), name, description, name)
	if err != nil {
		return nil, domainErrors.NewInvalidInputError(err.Error())
	}
	if err := s.skills.Save(ctx, skill); err != nil {
		return nil, err
	}

	s.logger.Info("Prebuilt skill registered",
		zap.String("skill_id", skill.ID()),
		zap.String("name", name),
	)
	return skill, nil
}

// IngestCustom registers a custom skill bundle from dir and uploads it to
// the vendor. The skill record is persisted before the upload so a failed
// upload leaves a visible failed entry instead of silently vanishing.
func (s *Service) IngestCustom(ctx context.Context, dir string) (*entity.Skill, error) {
	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, domainErrors.NewInvalidInputError(err.Error())
	}
	if _, err := s.skills.FindByName(ctx, manifest.Name); err == nil {
		return nil, domainErrors.NewAlreadyExistsError(fmt.Sprintf("skill %q is already registered", manifest.Name))
	} else if !domainErrors.IsNotFound(err) {
		return nil, err
	}

	skill, err := entity.NewCustomSkill(uuid.NewString(), manifest.Name, manifest.Description, dir)
	if err != nil {
		return nil, domainErrors.NewInvalidInputError(err.Error())
	}
	if err := s.skills.Save(ctx, skill); err != nil {
		return nil, err
	}

	vendorID, uploadErr := s.vendor.UploadSkill(ctx, manifest.Name, dir)
	if uploadErr != nil {
		skill.MarkFailed(uploadErr.Error())
		if err := s.skills.Save(ctx, skill); err != nil {
			return nil, err
		}
		s.logger.Warn("Skill upload failed",
			zap.String("skill_id", skill.ID()),
			zap.String("name", manifest.Name),
			zap.Error(uploadErr),
		)
		return skill, nil
	}

	skill.MarkUploaded(vendorID)
	if err := s.skills.Save(ctx, skill); err != nil {
		return nil, err
	}

	s.logger.Info("Custom skill uploaded",
		zap.String("skill_id", skill.ID()),
		zap.String("name", manifest.Name),
		zap.String("vendor_id", vendorID),
	)
	return skill, nil
}

// RetryUpload re-attempts the vendor upload of a failed custom skill.
func (s *Service) RetryUpload(ctx context.Context, skillID string) (*entity.Skill, error) {
	skill, err := s.skills.FindByID(ctx, skillID)
	if err != nil {
		return nil, err
	}
	if skill.Kind() != entity.SkillKindCustom {
		return nil, domainErrors.NewInvalidInputError("only custom skills are uploaded")
	}
	if skill.IsReady() {
		return skill, nil
	}

	vendorID, uploadErr := s.vendor.UploadSkill(ctx, skill.Name(), skill.SourcePath())
	if uploadErr != nil {
		skill.MarkFailed(uploadErr.Error())
		if err := s.skills.Save(ctx, skill); err != nil {
			return nil, err
		}
		return skill, nil
	}

	skill.MarkUploaded(vendorID)
	if err := s.skills.Save(ctx, skill); err != nil {
		return nil, err
	}
	return skill, nil
}

// Get returns one skill by id.
func (s *Service) Get(ctx context.Context, skillID string) (*entity.Skill, error) {
	return s.skills.FindByID(ctx, skillID)
}

// List returns all registered skills.
func (s *Service) List(ctx context.Context) ([]*entity.Skill, error) {
	return s.skills.FindAll(ctx)
}

// ListByAgent returns an agent's skills in attachment order.
func (s *Service) ListByAgent(ctx context.Context, agentID string) ([]*entity.Skill, error) {
	if _, err := s.agents.FindByID(ctx, agentID); err != nil {
		return nil, err
	}
	return s.skills.FindByAgent(ctx, agentID)
}

// Attach links a ready skill to an agent. Attaching an already attached
// pair fails with ALREADY_EXISTS.
func (s *Service) Attach(ctx context.Context, agentID, skillID string) error {
	if _, err := s.agents.FindByID(ctx, agentID); err != nil {
		return err
	}
	skill, err := s.skills.FindByID(ctx, skillID)
	if err != nil {
		return err
	}
	if !skill.IsReady() {
		return domainErrors.NewInvalidInputError(fmt.Sprintf("skill %q is not ready: status %s", skill.Name(), skill.Status()))
	}
	return s.skills.Attach(ctx, agentID, skillID)
}

// Detach removes the agent-skill link.
func (s *Service) Detach(ctx context.Context, agentID, skillID string) error {
	if _, err := s.agents.FindByID(ctx, agentID); err != nil {
		return err
	}
	if _, err := s.skills.FindByID(ctx, skillID); err != nil {
		return err
	}
	return s.skills.Detach(ctx, agentID, skillID)
}

// Delete removes a skill from the registry. Skills still attached to an
// agent are protected.
func (s *Service) Delete(ctx context.Context, skillID string) error {
	if _, err := s.skills.FindByID(ctx, skillID); err != nil {
		return err
	}
	count, err := s.skills.AttachedAgentCount(ctx, skillID)
	if err != nil {
		return err
	}
	if count > 0 {
		return domainErrors.NewInvalidInputError(fmt.Sprintf("skill is attached to %d agent(s); detach it first", count))
	}
	return s.skills.Delete(ctx, skillID)
}

// VendorCatalog lists the skills known to the vendor account, for
// reconciling the local registry against what the API actually hosts.
func (s *Service) VendorCatalog(ctx context.Context) ([]anthropic.VendorSkill, error) {
	return s.vendor.ListSkills(ctx)
}
