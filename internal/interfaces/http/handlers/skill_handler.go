package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/skills"
	apperrors "github.com/agentdeck/agentdeck/pkg/errors"
)

// SkillHandler serves the skill registry and agent attachment endpoints.
type SkillHandler struct {
	service *skills.Service
	logger  *zap.Logger
}

func NewSkillHandler(service *skills.Service, logger *zap.Logger) *SkillHandler {
	return &SkillHandler{
		service: service,
		logger:  logger.With(zap.String("handler", "skill")),
	}
}

// RegisterSkillRequest is the JSON body for POST /api/v1/skills. Exactly one
// of the two source fields is set: prebuilt names a vendor-hosted skill,
// bundle_dir points at a local custom bundle.
type RegisterSkillRequest struct {
	Prebuilt  string `json:"prebuilt"`
	BundleDir string `json:"bundle_dir"`
}

// SkillResponse is the wire shape for a single skill.
type SkillResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	VendorID    string    `json:"vendor_id,omitempty"`
	Status      string    `json:"status"`
	UploadError string    `json:"upload_error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func skillResponse(skill *entity.Skill) SkillResponse {
	return SkillResponse{
		ID:          skill.ID(),
		Name:        skill.Name(),
		Description: skill.Description(),
		Kind:        string(skill.Kind()),
		VendorID:    skill.VendorID(),
		Status:      string(skill.Status()),
		UploadError: skill.UploadError(),
		CreatedAt:   skill.CreatedAt(),
	}
}

// Register handles POST /api/v1/skills.
func (h *SkillHandler) Register(c *gin.Context) {
	var req RegisterSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	switch {
	case req.Prebuilt != "" && req.BundleDir != "":
		respondError(c, apperrors.NewInvalidInputError("specify either prebuilt or bundle_dir, not both"))
	case req.Prebuilt != "":
		skill, err := h.service.RegisterPrebuilt(ctx, req.Prebuilt)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, skillResponse(skill))
	case req.BundleDir != "":
		skill, err := h.service.IngestCustom(ctx, req.BundleDir)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, skillResponse(skill))
	default:
		respondError(c, apperrors.NewInvalidInputError("specify prebuilt or bundle_dir"))
	}
}

// List handles GET /api/v1/skills.
func (h *SkillHandler) List(c *gin.Context) {
	all, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]SkillResponse, 0, len(all))
	for _, skill := range all {
		out = append(out, skillResponse(skill))
	}
	c.JSON(http.StatusOK, gin.H{"skills": out, "count": len(out)})
}

// Get handles GET /api/v1/skills/:id.
func (h *SkillHandler) Get(c *gin.Context) {
	skill, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, skillResponse(skill))
}

// Delete handles DELETE /api/v1/skills/:id.
func (h *SkillHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// RetryUpload handles POST /api/v1/skills/:id/retry.
func (h *SkillHandler) RetryUpload(c *gin.Context) {
	skill, err := h.service.RetryUpload(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, skillResponse(skill))
}

// VendorCatalog handles GET /api/v1/skills/catalog.
func (h *SkillHandler) VendorCatalog(c *gin.Context) {
	catalog, err := h.service.VendorCatalog(c.Request.Context())
	if err != nil {
		respondError(c, apperrors.NewInvocationFailedError("failed to list vendor skills", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": catalog, "count": len(catalog)})
}

// ListByAgent handles GET /api/v1/agents/:id/skills.
func (h *SkillHandler) ListByAgent(c *gin.Context) {
	attached, err := h.service.ListByAgent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]SkillResponse, 0, len(attached))
	for _, skill := range attached {
		out = append(out, skillResponse(skill))
	}
	c.JSON(http.StatusOK, gin.H{"skills": out, "count": len(out)})
}

// AttachSkillsRequest is the JSON body for POST /api/v1/agents/:id/skills.
type AttachSkillsRequest struct {
	SkillIDs []string `json:"skill_ids" binding:"required"`
}

// Attach handles POST /api/v1/agents/:id/skills. Already-attached pairs
// are skipped, so the request is idempotent.
func (h *SkillHandler) Attach(c *gin.Context) {
	var req AttachSkillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agentID := c.Param("id")
	ctx := c.Request.Context()
	attached := 0
	for _, skillID := range req.SkillIDs {
		err := h.service.Attach(ctx, agentID, skillID)
		if apperrors.IsAlreadyExists(err) {
			continue
		}
		if err != nil {
			respondError(c, err)
			return
		}
		attached++
	}

	h.logger.Info("Skills attached",
		zap.String("agent_id", agentID),
		zap.Int("attached", attached),
		zap.Int("requested", len(req.SkillIDs)),
	)
	c.JSON(http.StatusOK, gin.H{"attached": attached})
}

// Detach handles DELETE /api/v1/agents/:id/skills/:skillID.
func (h *SkillHandler) Detach(c *gin.Context) {
	agentID, skillID := c.Param("id"), c.Param("skillID")
	if err := h.service.Detach(c.Request.Context(), agentID, skillID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detached": true})
}
