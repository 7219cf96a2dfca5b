package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
	"github.com/agentdeck/agentdeck/internal/infrastructure/llm"
	apperrors "github.com/agentdeck/agentdeck/pkg/errors"
)

// parseSSEStream reads Anthropic's event-based SSE format and forwards each
// delta as a typed llm.StreamEvent the moment it is parsed. Arrival order is
// preserved exactly; nothing is buffered or coalesced.
//
// Anthropic SSE events:
//   - message_start         → initial message metadata (model id)
//   - content_block_start   → new content block
//   - content_block_delta   → incremental update (text/thinking/input_json)
//   - content_block_stop    → current block finished
//   - message_delta         → stop_reason + final usage
//   - message_stop          → stream complete
func parseSSEStream(ctx context.Context, reader io.Reader, events chan<- llm.StreamEvent, logger *zap.Logger) {
	idleTimeout := 60 * time.Second
	tReader := &timedReader{r: reader, timeout: idleTimeout}

	scanner := bufio.NewScanner(tReader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var currentEventType string
	var stopReason string
	var usage Usage
	started := false

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			events <- llm.StreamEvent{Err: apperrors.NewInvocationFailedError("stream cancelled", ctx.Err())}
			return
		default:
		}

		line := scanner.Text()

		// Anthropic SSE: "event: <type>" followed by "data: <json>"
		if strings.HasPrefix(line, "event: ") {
			currentEventType = strings.TrimPrefix(line, "event: ")
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		switch currentEventType {
		case "message_start":
			var evt StreamEvent
			if err := json.Unmarshal([]byte(data), &evt); err != nil {
				logger.Debug("Skip unparseable message_start", zap.Error(err))
				continue
			}
			if evt.Message != nil {
				usage.InputTokens = evt.Message.Usage.InputTokens
				usage.OutputTokens = evt.Message.Usage.OutputTokens
				started = true
				events <- llm.StreamEvent{Kind: llm.EventMessageStart, Model: evt.Message.Model}
			}

		case "content_block_delta":
			var evt StreamEvent
			if err := json.Unmarshal([]byte(data), &evt); err != nil {
				logger.Debug("Skip unparseable content_block_delta", zap.Error(err))
				continue
			}
			if evt.Delta == nil {
				continue
			}
			switch evt.Delta.Type {
			case "text_delta":
				if evt.Delta.Text != "" {
					events <- llm.StreamEvent{
						Kind:      llm.EventContentDelta,
						DeltaKind: llm.DeltaText,
						Delta:     evt.Delta.Text,
						Index:     evt.Index,
					}
				}
			case "thinking_delta":
				if evt.Delta.Thinking != "" {
					events <- llm.StreamEvent{
						Kind:      llm.EventContentDelta,
						DeltaKind: llm.DeltaThinking,
						Delta:     evt.Delta.Thinking,
						Index:     evt.Index,
					}
				}
			case "input_json_delta":
				if evt.Delta.PartialJSON != "" {
					events <- llm.StreamEvent{
						Kind:      llm.EventContentDelta,
						DeltaKind: llm.DeltaInputJSON,
						Delta:     evt.Delta.PartialJSON,
						Index:     evt.Index,
					}
				}
			}

		case "message_delta":
			var evt StreamEvent
			if err := json.Unmarshal([]byte(data), &evt); err != nil {
				logger.Debug("Skip unparseable message_delta", zap.Error(err))
				continue
			}
			if evt.Delta != nil && evt.Delta.StopReason != "" {
				stopReason = evt.Delta.StopReason
			}
			if evt.Usage != nil {
				if evt.Usage.InputTokens > 0 {
					usage.InputTokens = evt.Usage.InputTokens
				}
				if evt.Usage.OutputTokens > 0 {
					usage.OutputTokens = evt.Usage.OutputTokens
				}
			}

		case "message_stop":
			events <- llm.StreamEvent{
				Kind:       llm.EventMessageStop,
				StopReason: stopReason,
				Usage: entity.Usage{
					InputTokens:  usage.InputTokens,
					OutputTokens: usage.OutputTokens,
					TotalTokens:  usage.Total(),
				},
			}
			return

		case "ping":
			// Heartbeat — ignore

		default:
			logger.Debug("Unknown Anthropic SSE event type", zap.String("type", currentEventType))
		}

		currentEventType = "" // reset after processing
	}

	if err := scanner.Err(); err != nil {
		if isIdleTimeoutErr(err) {
			logger.Warn("SSE stream idle timeout — Anthropic API stalled",
				zap.Duration("idle_timeout", idleTimeout))
			events <- llm.StreamEvent{Err: apperrors.NewInvocationFailedError(
				fmt.Sprintf("SSE stream stalled: no data for %v", idleTimeout), nil)}
			return
		}
		events <- llm.StreamEvent{Err: apperrors.NewInvocationFailedError("SSE scan error", err)}
		return
	}

	// EOF without message_stop: the server ended the stream early.
	if started {
		events <- llm.StreamEvent{Err: apperrors.NewInvocationFailedError("SSE stream ended before message_stop", nil)}
	} else {
		events <- llm.StreamEvent{Err: apperrors.NewInvocationFailedError("SSE stream produced no events", nil)}
	}
}

// --- SSE idle timeout support ---

var errIdleTimeout = fmt.Errorf("SSE read idle timeout")

type timedReader struct {
	r       io.Reader
	timeout time.Duration
}

func (t *timedReader) Read(p []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := t.r.Read(p)
		ch <- result{n, err}
	}()
	select {
	case res := <-ch:
		return res.n, res.err
	case <-time.After(t.timeout):
		return 0, errIdleTimeout
	}
}

func isIdleTimeoutErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "SSE read idle timeout")
}
