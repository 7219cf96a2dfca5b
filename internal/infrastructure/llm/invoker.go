package llm

import (
	"context"

	"github.com/agentdeck/agentdeck/internal/domain/entity"
)

// Invoker bridges an internal execute request to the external
// generative-model API. Implementations perform no retries; failures
// surface as INVOCATION_FAILED application errors and disposition is the
// caller's decision.
type Invoker interface {
	// Invoke issues one blocking request and returns the complete result.
	Invoke(ctx context.Context, req Request) (*Result, error)

	// InvokeStream issues a streaming request. The returned channel yields
	// typed events in exact arrival order — never reordered, batched, or
	// coalesced — and is closed after the terminal event. The sequence is
	// finite, not restartable, and must be consumed exactly once.
	//
	// An error return means the stream never started. A failure after the
	// stream started is delivered as a final event with Err set.
	InvokeStream(ctx context.Context, req Request) (<-chan StreamEvent, error)
}

// Request is one rendered prompt bound to model parameters and the skill
// references active for the run.
type Request struct {
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
	Skills      []entity.SkillRef // ordered; vendor id + kind only
}

// Result is the outcome of a blocking invocation.
type Result struct {
	Output     string
	StopReason string
	Model      string
	Usage      entity.Usage
	SkillIDs   []string // vendor ids of the skills supplied for the run
}

// StreamEventKind discriminates streaming events.
type StreamEventKind string

const (
	EventMessageStart StreamEventKind = "message_start"
	EventContentDelta StreamEventKind = "content_block_delta"
	EventMessageStop  StreamEventKind = "message_stop"
)

// DeltaKind is the sub-kind of a content_block_delta event.
type DeltaKind string

const (
	DeltaText      DeltaKind = "text_delta"
	DeltaThinking  DeltaKind = "thinking_delta"
	DeltaInputJSON DeltaKind = "input_json_delta"
)

// StreamEvent is one unit of a streamed model response.
type StreamEvent struct {
	Kind StreamEventKind

	// EventMessageStart
	Model string

	// EventContentDelta
	DeltaKind DeltaKind
	Delta     string
	Index     int

	// EventMessageStop
	StopReason string
	Usage      entity.Usage

	// Err terminates the stream early; no further events follow.
	Err error
}
