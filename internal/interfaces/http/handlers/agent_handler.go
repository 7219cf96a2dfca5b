package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/domain/repository"
	"github.com/agentdeck/agentdeck/internal/domain/service"
	"github.com/agentdeck/agentdeck/internal/infrastructure/llm"
	apperrors "github.com/agentdeck/agentdeck/pkg/errors"
)

// AgentHandler serves agent CRUD plus the blocking REST execute endpoint.
type AgentHandler struct {
	agents     repository.AgentRepository
	skills     repository.SkillRepository
	executions repository.ExecutionRepository
	invoker    llm.Invoker
	logger     *zap.Logger
}

func NewAgentHandler(agents repository.AgentRepository, skills repository.SkillRepository, executions repository.ExecutionRepository, invoker llm.Invoker, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		agents:     agents,
		skills:     skills,
		executions: executions,
		invoker:    invoker,
		logger:     logger.With(zap.String("handler", "agent")),
	}
}

// CreateAgentRequest is the JSON body for POST /api/v1/agents. Temperature
// is a pointer so an explicit 0 is distinguishable from an omitted field.
type CreateAgentRequest struct {
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	PromptTemplate string   `json:"prompt_template" binding:"required"`
	Model          string   `json:"model"`
	MaxTokens      int      `json:"max_tokens"`
	Temperature    *float64 `json:"temperature"`
}

// UpdateAgentRequest is the JSON body for PUT /api/v1/agents/:id. Omitted
// fields are left unchanged.
type UpdateAgentRequest struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	PromptTemplate *string  `json:"prompt_template"`
	Model          *string  `json:"model"`
	MaxTokens      *int     `json:"max_tokens"`
	Temperature    *float64 `json:"temperature"`
}

// AgentResponse is the wire shape for a single agent.
type AgentResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	PromptTemplate string    `json:"prompt_template"`
	Variables      []string  `json:"variables"`
	Model          string    `json:"model"`
	MaxTokens      int       `json:"max_tokens"`
	Temperature    float64   `json:"temperature"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func agentResponse(agent *entity.Agent) AgentResponse {
	return AgentResponse{
		ID:             agent.ID(),
		Name:           agent.Name(),
		Description:    agent.Description(),
		PromptTemplate: agent.PromptTemplate(),
		Variables:      service.TemplateVariables(agent.PromptTemplate()),
		Model:          agent.Model(),
		MaxTokens:      agent.MaxTokens(),
		Temperature:    agent.Temperature(),
		CreatedAt:      agent.CreatedAt(),
		UpdatedAt:      agent.UpdatedAt(),
	}
}

// Create handles POST /api/v1/agents.
func (h *AgentHandler) Create(c *gin.Context) {
	var req CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.agents.FindByName(c.Request.Context(), req.Name); err == nil {
		respondError(c, apperrors.NewAlreadyExistsError("agent name already in use"))
		return
	} else if !apperrors.IsNotFound(err) {
		respondError(c, err)
		return
	}

	temperature := -1.0 // omitted means "use the default"
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	agent, err := entity.NewAgent(uuid.NewString(), req.Name, req.Description, req.PromptTemplate, req.Model, req.MaxTokens, temperature)
	if err != nil {
		respondError(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if err := h.agents.Save(c.Request.Context(), agent); err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("Agent created", zap.String("agent_id", agent.ID()), zap.String("name", agent.Name()))
	c.JSON(http.StatusCreated, agentResponse(agent))
}

// List handles GET /api/v1/agents.
func (h *AgentHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	agents, err := h.agents.FindAll(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]AgentResponse, 0, len(agents))
	for _, agent := range agents {
		out = append(out, agentResponse(agent))
	}
	c.JSON(http.StatusOK, gin.H{"agents": out, "count": len(out)})
}

// Get handles GET /api/v1/agents/:id.
func (h *AgentHandler) Get(c *gin.Context) {
	agent, err := h.agents.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agentResponse(agent))
}

// Update handles PUT /api/v1/agents/:id.
func (h *AgentHandler) Update(c *gin.Context) {
	var req UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	agent, err := h.agents.FindByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Name != nil && *req.Name != agent.Name() {
		if _, err := h.agents.FindByName(ctx, *req.Name); err == nil {
			respondError(c, apperrors.NewAlreadyExistsError("agent name already in use"))
			return
		} else if !apperrors.IsNotFound(err) {
			respondError(c, err)
			return
		}
	}

	update := entity.AgentUpdate{
		Name:           req.Name,
		Description:    req.Description,
		PromptTemplate: req.PromptTemplate,
		Model:          req.Model,
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
	}
	if err := agent.Apply(update); err != nil {
		respondError(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if err := h.agents.Save(ctx, agent); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agentResponse(agent))
}

// Delete handles DELETE /api/v1/agents/:id. Execution history is retained.
func (h *AgentHandler) Delete(c *gin.Context) {
	if err := h.agents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ExecuteRequest is the JSON body for POST /api/v1/agents/:id/execute.
type ExecuteRequest struct {
	Variables map[string]string `json:"variables"`
}

// ExecuteResponse is the blocking execution result.
type ExecuteResponse struct {
	ExecutionID  string       `json:"execution_id"`
	Output       string       `json:"output"`
	Model        string       `json:"model"`
	Usage        entity.Usage `json:"usage"`
	DurationSecs float64      `json:"duration_secs"`
}

// Execute handles POST /api/v1/agents/:id/execute: one render → invoke →
// persist cycle over plain HTTP, for clients that don't hold a WebSocket.
func (h *AgentHandler) Execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Variables == nil {
		req.Variables = map[string]string{}
	}

	ctx := c.Request.Context()
	agent, err := h.agents.FindByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	attached, err := h.skills.FindByAgent(ctx, agent.ID())
	if err != nil {
		respondError(c, err)
		return
	}
	var skillRefs []entity.SkillRef
	var skillIDs []string
	for _, skill := range attached {
		if !skill.IsReady() {
			continue
		}
		skillRefs = append(skillRefs, skill.Ref())
		skillIDs = append(skillIDs, skill.VendorID())
	}

	prompt, err := service.Render(agent.PromptTemplate(), req.Variables)
	if err != nil {
		// Nothing is invoked or recorded for an unrenderable template.
		respondError(c, err)
		return
	}

	start := time.Now()
	result, err := h.invoker.Invoke(ctx, llm.Request{
		Prompt:      prompt,
		Model:       agent.Model(),
		MaxTokens:   agent.MaxTokens(),
		Temperature: agent.Temperature(),
		Skills:      skillRefs,
	})
	duration := time.Since(start).Seconds()

	if err != nil {
		failed := entity.NewFailedExecution(uuid.NewString(), agent, prompt, duration, skillIDs, apperrors.Message(err))
		if saveErr := h.executions.Save(ctx, failed); saveErr != nil {
			h.logger.Error("Failed to persist failed execution", zap.Error(saveErr))
		}
		respondError(c, err)
		return
	}

	execution := entity.NewSuccessExecution(uuid.NewString(), agent, prompt, result.Model, result.Output, result.Usage, duration, skillIDs)
	if err := h.executions.Save(ctx, execution); err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("Execution completed",
		zap.String("execution_id", execution.ID),
		zap.String("agent_id", agent.ID()),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)
	c.JSON(http.StatusOK, ExecuteResponse{
		ExecutionID:  execution.ID,
		Output:       result.Output,
		Model:        result.Model,
		Usage:        result.Usage,
		DurationSecs: duration,
	})
}

// AdHocExecuteRequest is the JSON body for POST /api/v1/execute: a raw
// prompt run once without a saved agent.
type AdHocExecuteRequest struct {
	Prompt      string   `json:"prompt" binding:"required"`
	Model       string   `json:"model"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
}

// ExecuteAdHoc handles POST /api/v1/execute. The prompt goes to the model
// as-is; the record is persisted with empty agent identity.
func (h *AgentHandler) ExecuteAdHoc(c *gin.Context) {
	var req AdHocExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Model == "" {
		req.Model = entity.DefaultModel
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = entity.DefaultMaxTokens
	}
	temperature := entity.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	ctx := c.Request.Context()
	start := time.Now()
	result, err := h.invoker.Invoke(ctx, llm.Request{
		Prompt:      req.Prompt,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
	})
	duration := time.Since(start).Seconds()

	if err != nil {
		failed := entity.NewAdHocFailedExecution(uuid.NewString(), req.Prompt, req.Model, temperature, duration, apperrors.Message(err))
		if saveErr := h.executions.Save(ctx, failed); saveErr != nil {
			h.logger.Error("Failed to persist failed execution", zap.Error(saveErr))
		}
		respondError(c, err)
		return
	}

	execution := entity.NewAdHocSuccessExecution(uuid.NewString(), req.Prompt, result.Model, result.Output, result.Usage, temperature, duration)
	if err := h.executions.Save(ctx, execution); err != nil {
		respondError(c, err)
		return
	}

	h.logger.Info("Ad-hoc execution completed",
		zap.String("execution_id", execution.ID),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)
	c.JSON(http.StatusOK, ExecuteResponse{
		ExecutionID:  execution.ID,
		Output:       result.Output,
		Model:        result.Model,
		Usage:        result.Usage,
		DurationSecs: duration,
	})
}
