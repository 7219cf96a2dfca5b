package session

import (
	"encoding/json"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/infrastructure/llm"
	apperrors "github.com/agentdeck/agentdeck/pkg/errors"
)

// Client → server command.
type Command struct {
	Type         string            `json:"type"`
	Variables    map[string]string `json:"variables,omitempty"`
	Stream       bool              `json:"stream,omitempty"`
	StreamEvents []string          `json:"stream_events,omitempty"`
}

// Stream event filter values accepted in Command.StreamEvents.
const (
	FilterText     = "text"
	FilterThinking = "thinking"
	FilterToolUse  = "tool_use"
	FilterAll      = "all"
)

// ParseCommand validates a raw client frame into an execute command.
// Defaults: empty variables, no streaming, text deltas only.
func ParseCommand(raw []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, apperrors.NewInvalidInputError("malformed command: invalid JSON")
	}
	if cmd.Type != "execute" {
		return nil, apperrors.NewInvalidInputError("malformed command: unknown type " + quote(cmd.Type))
	}
	if cmd.Variables == nil {
		cmd.Variables = map[string]string{}
	}
	if len(cmd.StreamEvents) == 0 {
		cmd.StreamEvents = []string{FilterText}
	}
	for _, ev := range cmd.StreamEvents {
		switch ev {
		case FilterText, FilterThinking, FilterToolUse, FilterAll:
		default:
			return nil, apperrors.NewInvalidInputError("malformed command: unknown stream event " + quote(ev))
		}
	}
	return &cmd, nil
}

// eventFilter reports which delta kinds are forwarded to the client.
type eventFilter map[llm.DeltaKind]bool

func newEventFilter(requested []string) eventFilter {
	filter := make(eventFilter)
	for _, ev := range requested {
		switch ev {
		case FilterAll:
			filter[llm.DeltaText] = true
			filter[llm.DeltaThinking] = true
			filter[llm.DeltaInputJSON] = true
		case FilterText:
			filter[llm.DeltaText] = true
		case FilterThinking:
			filter[llm.DeltaThinking] = true
		case FilterToolUse:
			filter[llm.DeltaInputJSON] = true
		}
	}
	return filter
}

func (f eventFilter) allows(kind llm.DeltaKind) bool {
	return f[kind]
}

// --- Server → client messages. Type discriminates. ---

type connectedMessage struct {
	Type      string `json:"type"`
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
}

type statusMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type streamStartMessage struct {
	Type  string `json:"type"`
	Model string `json:"model"`
}

type contentDeltaMessage struct {
	Type      string `json:"type"`
	DeltaType string `json:"delta_type"`
	Delta     string `json:"delta"`
	Index     int    `json:"index"`
}

type streamEndMessage struct {
	Type       string       `json:"type"`
	Usage      entity.Usage `json:"usage"`
	StopReason string       `json:"stop_reason"`
}

type resultMessage struct {
	Type        string       `json:"type"`
	ExecutionID string       `json:"execution_id"`
	Output      string       `json:"output"`
	Usage       entity.Usage `json:"usage"`
	Model       string       `json:"model"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
