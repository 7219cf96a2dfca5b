package anthropic

// --- Anthropic Messages API Types ---
// Reference: https://docs.anthropic.com/en/api/messages
//
// Messages use content blocks ([]ContentBlock) rather than flat string
// content; the system prompt is a separate top-level field; agent skills
// ride along as container skill references under a beta flag.

// Request is the Anthropic Messages API request format.
type Request struct {
	Model       string     `json:"model"`
	MaxTokens   int        `json:"max_tokens"`
	System      string     `json:"system,omitempty"`
	Messages    []Message  `json:"messages"`
	Temperature float64    `json:"temperature,omitempty"`
	Stream      bool       `json:"stream,omitempty"`
	Container   *Container `json:"container,omitempty"`
}

// Message represents a conversation message.
type Message struct {
	Role    string         `json:"role"` // "user" | "assistant"
	Content []ContentBlock `json:"content"`
}

// ContentBlock is a polymorphic content element.
type ContentBlock struct {
	Type string `json:"type"` // "text" | "tool_use" | "thinking"

	// For type "text"
	Text string `json:"text,omitempty"`

	// For type "tool_use"
	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`

	// For type "thinking"
	Thinking string `json:"thinking,omitempty"`
}

// Container requests an execution container with skills loaded.
type Container struct {
	Skills []SkillSpec `json:"skills,omitempty"`
}

// SkillSpec references a skill by vendor id. Type is "custom" for uploaded
// skills and "anthropic" for the prebuilt catalog.
type SkillSpec struct {
	Type    string `json:"type"`
	SkillID string `json:"skill_id"`
}

// Response is the Messages API response.
type Response struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"` // "message"
	Role       string         `json:"role"` // "assistant"
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"` // "end_turn" | "tool_use" | "max_tokens"
	Usage      Usage          `json:"usage"`
}

// Usage reports token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns total token count.
func (u *Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// --- Streaming Types ---
// Anthropic uses event-based SSE with typed events.

// StreamEvent represents a typed SSE event from the streaming API.
type StreamEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index,omitempty"`

	// For content_block_start
	ContentBlock *ContentBlock `json:"content_block,omitempty"`

	// For content_block_delta and message_delta
	Delta *DeltaBlock `json:"delta,omitempty"`

	// For message_delta
	Usage *Usage `json:"usage,omitempty"`

	// For message_start
	Message *Response `json:"message,omitempty"`
}

// DeltaBlock represents incremental content in a stream.
type DeltaBlock struct {
	Type        string `json:"type"` // "text_delta" | "input_json_delta" | "thinking_delta"
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	Thinking    string `json:"thinking,omitempty"`

	// For message_delta events
	StopReason string `json:"stop_reason,omitempty"`
}

// --- Skills API Types ---

// VendorSkill is one entry from the vendor skill catalog.
type VendorSkill struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	DisplayTitle string `json:"display_title"`
}

type skillListResponse struct {
	Data []VendorSkill `json:"data"`
}

type skillCreateResponse struct {
	ID           string `json:"id"`
	DisplayTitle string `json:"display_title"`
}
