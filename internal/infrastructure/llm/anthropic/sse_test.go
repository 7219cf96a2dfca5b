package anthropic

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/agentdeck/agentdeck/internal/infrastructure/llm"
	apperrors "github.com/agentdeck/agentdeck/pkg/errors"
)

const sampleStream = `event: message_start
data: {"type":"message_start","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":12,"output_tokens":0}}}

event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"thinking"}}

event: content_block_delta
data: {"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"considering"}}

event: content_block_delta
data: {"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"Hello"}}

event: ping
data: {"type":"ping"}

event: content_block_delta
data: {"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":" world"}}

event: content_block_delta
data: {"type":"content_block_delta","index":2,"delta":{"type":"input_json_delta","partial_json":"{\"doc\":"}}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":9}}

event: message_stop
data: {"type":"message_stop"}

`

func collectEvents(t *testing.T, body string) []llm.StreamEvent {
	t.Helper()
	events := make(chan llm.StreamEvent)
	go func() {
		defer close(events)
		parseSSEStream(context.Background(), strings.NewReader(body), events, zap.NewNop())
	}()

	var got []llm.StreamEvent
	for evt := range events {
		got = append(got, evt)
	}
	return got
}

func TestParseSSEStream_EventOrderPreserved(t *testing.T) {
	got := collectEvents(t, sampleStream)

	if len(got) != 6 {
		t.Fatalf("expected 6 events, got %d: %+v", len(got), got)
	}

	if got[0].Kind != llm.EventMessageStart || got[0].Model != "claude-sonnet-4-5" {
		t.Errorf("event 0: want message_start with model, got %+v", got[0])
	}

	wantDeltas := []struct {
		kind  llm.DeltaKind
		delta string
		index int
	}{
		{llm.DeltaThinking, "considering", 0},
		{llm.DeltaText, "Hello", 1},
		{llm.DeltaText, " world", 1},
		{llm.DeltaInputJSON, `{"doc":`, 2},
	}
	for i, want := range wantDeltas {
		evt := got[i+1]
		if evt.Kind != llm.EventContentDelta {
			t.Fatalf("event %d: want content_block_delta, got %v", i+1, evt.Kind)
		}
		if evt.DeltaKind != want.kind || evt.Delta != want.delta || evt.Index != want.index {
			t.Errorf("event %d = %+v, want %+v", i+1, evt, want)
		}
	}

	stop := got[5]
	if stop.Kind != llm.EventMessageStop {
		t.Fatalf("last event: want message_stop, got %+v", stop)
	}
	if stop.StopReason != "end_turn" {
		t.Errorf("stop_reason = %q, want end_turn", stop.StopReason)
	}
	if stop.Usage.InputTokens != 12 || stop.Usage.OutputTokens != 9 || stop.Usage.TotalTokens != 21 {
		t.Errorf("usage = %+v, want 12/9/21", stop.Usage)
	}
}

func TestParseSSEStream_TruncatedStreamSurfacesError(t *testing.T) {
	truncated := strings.Split(sampleStream, "event: message_delta")[0]
	got := collectEvents(t, truncated)

	if len(got) == 0 {
		t.Fatal("expected events from truncated stream")
	}
	last := got[len(got)-1]
	if last.Err == nil {
		t.Fatalf("expected terminal error event, got %+v", last)
	}
	if !apperrors.IsInvocationFailed(last.Err) {
		t.Errorf("expected INVOCATION_FAILED, got %v", last.Err)
	}
}

func TestParseSSEStream_EmptyBody(t *testing.T) {
	got := collectEvents(t, "")
	if len(got) != 1 || got[0].Err == nil {
		t.Fatalf("expected single error event for empty body, got %+v", got)
	}
}
