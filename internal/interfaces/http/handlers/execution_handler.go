package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/domain/repository"
)

// ExecutionHandler serves the read-only execution history.
type ExecutionHandler struct {
	executions repository.ExecutionRepository
	logger     *zap.Logger
}

func NewExecutionHandler(executions repository.ExecutionRepository, logger *zap.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		executions: executions,
		logger:     logger.With(zap.String("handler", "execution")),
	}
}

// ExecutionResponse is the wire shape for one history record.
type ExecutionResponse struct {
	ID           string       `json:"id"`
	AgentID      string       `json:"agent_id"`
	AgentName    string       `json:"agent_name"`
	Prompt       string       `json:"prompt"`
	Model        string       `json:"model"`
	Output       string       `json:"output"`
	Usage        entity.Usage `json:"usage"`
	Temperature  float64      `json:"temperature"`
	DurationSecs float64      `json:"duration_secs"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	SkillIDs     []string     `json:"skill_ids"`
	CreatedAt    time.Time    `json:"created_at"`
}

func executionResponse(e *entity.Execution) ExecutionResponse {
	skillIDs := e.SkillIDs
	if skillIDs == nil {
		skillIDs = []string{}
	}
	return ExecutionResponse{
		ID:           e.ID,
		AgentID:      e.AgentID,
		AgentName:    e.AgentName,
		Prompt:       e.Prompt,
		Model:        e.Model,
		Output:       e.Output,
		Usage:        e.Usage,
		Temperature:  e.Temperature,
		DurationSecs: e.DurationSecs,
		Status:       string(e.Status),
		ErrorMessage: e.ErrorMessage,
		SkillIDs:     skillIDs,
		CreatedAt:    e.CreatedAt,
	}
}

// List handles GET /api/v1/executions, newest first. The agent_id query
// parameter narrows the history to one agent.
func (h *ExecutionHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	executions, err := h.executions.FindAll(c.Request.Context(), c.Query("agent_id"), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]ExecutionResponse, 0, len(executions))
	for _, execution := range executions {
		out = append(out, executionResponse(execution))
	}
	c.JSON(http.StatusOK, gin.H{"executions": out, "count": len(out)})
}

// Get handles GET /api/v1/executions/:id.
func (h *ExecutionHandler) Get(c *gin.Context) {
	execution, err := h.executions.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, executionResponse(execution))
}
