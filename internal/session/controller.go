package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/domain/repository"
	"github.com/agentdeck/agentdeck/internal/domain/service"
	"github.com/agentdeck/agentdeck/internal/infrastructure/llm"
	apperrors "github.com/agentdeck/agentdeck/pkg/errors"
)

const (
	maxCommandSize = 512 * 1024
	writeTimeout   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins once the frontend host is fixed
	},
}

// Controller owns execution sessions: one long-lived bidirectional
// connection per client, processing execute commands one at a time.
type Controller struct {
	agents     repository.AgentRepository
	skills     repository.SkillRepository
	executions repository.ExecutionRepository
	invoker    llm.Invoker
	logger     *zap.Logger
}

// NewController wires the session controller with its collaborators. The
// persistence handles are process-scoped; nothing session-local is stored
// on the controller itself.
func NewController(agents repository.AgentRepository, skills repository.SkillRepository, executions repository.ExecutionRepository, invoker llm.Invoker, logger *zap.Logger) *Controller {
	return &Controller{
		agents:     agents,
		skills:     skills,
		executions: executions,
		invoker:    invoker,
		logger:     logger.With(zap.String("component", "session")),
	}
}

// ServeWS upgrades the request and runs one execution session to
// completion. Returns when the client disconnects or the agent cannot be
// resolved.
func (c *Controller) ServeWS(w http.ResponseWriter, r *http.Request, agentID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxCommandSize)

	s := &session{
		conn:       conn,
		controller: c,
		logger:     c.logger.With(zap.String("agent_id", agentID)),
	}
	s.run(r.Context(), agentID)
}

// session is the per-connection state machine. All protocol messages are
// written from the command-processing goroutine, so delivery order to the
// client always equals production order from the invoker.
type session struct {
	conn       *websocket.Conn
	controller *Controller
	logger     *zap.Logger

	agent     *entity.Agent
	skillRefs []entity.SkillRef
	skillIDs  []string
}

func (s *session) run(ctx context.Context, agentID string) {
	agent, err := s.controller.agents.FindByID(ctx, agentID)
	if err != nil {
		// AgentNotFound is fatal to the session: one error message, then close.
		s.send(errorMessage{Type: "error", Error: apperrors.Message(err)})
		s.logger.Info("Session rejected", zap.Error(err))
		return
	}
	s.agent = agent

	skills, err := s.controller.skills.FindByAgent(ctx, agentID)
	if err != nil {
		s.send(errorMessage{Type: "error", Error: apperrors.Message(err)})
		return
	}
	for _, skill := range skills {
		if !skill.IsReady() {
			continue
		}
		s.skillRefs = append(s.skillRefs, skill.Ref())
		s.skillIDs = append(s.skillIDs, skill.VendorID())
	}

	if err := s.send(connectedMessage{Type: "connected", AgentID: agent.ID(), AgentName: agent.Name()}); err != nil {
		return
	}
	s.logger.Info("Session opened",
		zap.String("agent_name", agent.Name()),
		zap.Int("skills", len(s.skillRefs)),
	)

	// Command loop: exactly one command is processed to completion before
	// the next read. Commands arriving mid-cycle wait in the socket buffer.
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("WebSocket read error", zap.Error(err))
			}
			s.logger.Info("Session closed")
			return
		}

		cmd, err := ParseCommand(raw)
		if err != nil {
			// Malformed commands are recoverable: report and keep listening.
			if s.send(errorMessage{Type: "error", Error: apperrors.Message(err)}) != nil {
				return
			}
			continue
		}

		if err := s.execute(ctx, cmd); err != nil {
			// Only transport failures propagate here; the session is over.
			s.logger.Info("Session closed mid-command", zap.Error(err))
			return
		}
	}
}

// execute drives one command through render → invoke → persist. A non-nil
// return means the client is gone; every application error is reported on
// the wire and leaves the session in command-accepting state.
func (s *session) execute(ctx context.Context, cmd *Command) error {
	if err := s.send(statusMessage{Type: "status", Message: "Starting execution for agent '" + s.agent.Name() + "'"}); err != nil {
		return err
	}

	prompt, err := service.Render(s.agent.PromptTemplate(), cmd.Variables)
	if err != nil {
		// No invocation and no execution record for an unrenderable template.
		return s.send(errorMessage{Type: "error", Error: apperrors.Message(err)})
	}

	req := llm.Request{
		Prompt:      prompt,
		Model:       s.agent.Model(),
		MaxTokens:   s.agent.MaxTokens(),
		Temperature: s.agent.Temperature(),
		Skills:      s.skillRefs,
	}

	start := time.Now()
	if cmd.Stream {
		return s.executeStreaming(ctx, req, newEventFilter(cmd.StreamEvents), prompt, start)
	}
	return s.executeBlocking(ctx, req, prompt, start)
}

func (s *session) executeBlocking(ctx context.Context, req llm.Request, prompt string, start time.Time) error {
	result, err := s.controller.invoker.Invoke(ctx, req)
	duration := time.Since(start).Seconds()
	if err != nil {
		return s.recordFailure(ctx, prompt, duration, err)
	}
	return s.recordSuccess(ctx, prompt, result.Output, result.Model, result.Usage, duration)
}

func (s *session) executeStreaming(ctx context.Context, req llm.Request, filter eventFilter, prompt string, start time.Time) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := s.controller.invoker.InvokeStream(streamCtx, req)
	if err != nil {
		return s.recordFailure(ctx, prompt, time.Since(start).Seconds(), err)
	}

	var output strings.Builder
	var usage entity.Usage
	var stopReason string
	var streamErr error
	var clientGone error

	for event := range events {
		if clientGone != nil {
			continue // drain so the producer goroutine can finish
		}
		switch {
		case event.Err != nil:
			streamErr = event.Err

		case event.Kind == llm.EventMessageStart:
			clientGone = s.send(streamStartMessage{Type: "stream_start", Model: event.Model})

		case event.Kind == llm.EventContentDelta:
			// Text deltas always make up the recorded output, forwarded or not.
			if event.DeltaKind == llm.DeltaText {
				output.WriteString(event.Delta)
			}
			if filter.allows(event.DeltaKind) {
				clientGone = s.send(contentDeltaMessage{
					Type:      "content_delta",
					DeltaType: string(event.DeltaKind),
					Delta:     event.Delta,
					Index:     event.Index,
				})
			}

		case event.Kind == llm.EventMessageStop:
			usage = event.Usage
			stopReason = event.StopReason
			clientGone = s.send(streamEndMessage{Type: "stream_end", Usage: usage, StopReason: stopReason})
		}

		if clientGone != nil {
			cancel()
		}
	}

	duration := time.Since(start).Seconds()
	if clientGone != nil {
		// Disconnect mid-stream abandons the command without a record.
		return clientGone
	}
	if streamErr != nil {
		return s.recordFailure(ctx, prompt, duration, streamErr)
	}
	return s.recordSuccess(ctx, prompt, output.String(), req.Model, usage, duration)
}

func (s *session) recordSuccess(ctx context.Context, prompt, output, model string, usage entity.Usage, duration float64) error {
	execution := entity.NewSuccessExecution(uuid.NewString(), s.agent, prompt, model, output, usage, duration, s.skillIDs)
	if err := s.controller.executions.Save(ctx, execution); err != nil {
		s.logger.Error("Failed to persist execution", zap.Error(err))
		return s.send(errorMessage{Type: "error", Error: "execution completed but could not be recorded"})
	}

	s.logger.Info("Execution completed",
		zap.String("execution_id", execution.ID),
		zap.Int("total_tokens", usage.TotalTokens),
		zap.Float64("duration_secs", duration),
	)
	return s.send(resultMessage{
		Type:        "result",
		ExecutionID: execution.ID,
		Output:      output,
		Usage:       usage,
		Model:       model,
	})
}

func (s *session) recordFailure(ctx context.Context, prompt string, duration float64, cause error) error {
	execution := entity.NewFailedExecution(uuid.NewString(), s.agent, prompt, duration, s.skillIDs, apperrors.Message(cause))
	if err := s.controller.executions.Save(ctx, execution); err != nil {
		s.logger.Error("Failed to persist failed execution", zap.Error(err))
	}

	s.logger.Warn("Execution failed",
		zap.String("execution_id", execution.ID),
		zap.Error(cause),
	)
	return s.send(errorMessage{Type: "error", Error: apperrors.Message(cause)})
}

func (s *session) send(msg interface{}) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(msg)
}
