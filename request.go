package llmprovider

// GenerateRequest contains the parameters for an LLM generation request.
type GenerateRequest struct {
	// Messages contains the conversation history.
	Messages []ChatMessage

	// Model is the model identifier (e.g., "moonshotai/kimi-k2-thinking").
	Model string

	// Params contains request parameters. Provider adapters extract what
	// they support from this unified struct.
	Params *RequestParams
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage is one turn of the conversation: a role and an ordered list of
// parts. Messages are treated as immutable once constructed; decoders only
// read them, chiefly to replay reasoning state from a prior assistant turn.
type ChatMessage struct {
	// Role is one of the Role* constants.
	Role string

	// Parts is the ordered content of the message.
	Parts []MessagePart

	// Cache is an optional provider cache directive for the whole message.
	Cache *CacheControl
}

// MessagePart type constants
const (
	MessagePartText       = "text"
	MessagePartFile       = "file"
	MessagePartToolCall   = "tool-call"
	MessagePartToolResult = "tool-result"
	MessagePartReasoning  = "reasoning"
)

// MessagePart is one part of a chat message. Type selects the payload
// fields, mirroring ContentPart on the response side.
type MessagePart struct {
	// Type is one of the MessagePart* constants.
	Type string

	// Text is the content for text parts and the display form for
	// reasoning parts.
	Text string

	// File is the payload for file parts.
	File *File

	// ToolCallID, ToolName, ToolArguments describe tool-call parts;
	// ToolCallID and ToolResult describe tool-result parts.
	ToolCallID    string
	ToolName      string
	ToolArguments string
	ToolResult    string

	// ReasoningDetails carries the structured details of a reasoning part,
	// replayed verbatim on the wire.
	ReasoningDetails []ReasoningDetail

	// Cache is an optional per-part cache directive.
	Cache *CacheControl
}

// CacheControl marks a message or part for provider-side prompt caching.
type CacheControl struct {
	// Type is the cache strategy, normally "ephemeral".
	Type string
}

// RequestParams represents request parameters shared across providers.
// All scalar fields are optional pointers to distinguish "not set" from
// "set to zero value".
type RequestParams struct {
	// MaxTokens sets the maximum number of tokens to generate.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature controls randomness.
	Temperature *float64 `json:"temperature,omitempty"`

	// TopP (nucleus sampling) - cumulative probability cutoff (0.0-1.0).
	TopP *float64 `json:"top_p,omitempty"`

	// TopK limits sampling to top K tokens.
	TopK *int `json:"top_k,omitempty"`

	// Stop sequences - generation stops if any of these are generated.
	Stop []string `json:"stop,omitempty"`

	// Seed for deterministic sampling (if supported by provider).
	Seed *int `json:"seed,omitempty"`

	// Tools available for the model to use.
	Tools []Tool `json:"tools,omitempty"`

	// ToolChoice controls whether/which tools to use.
	// Can be "auto", "none", "required", or a specific-function object.
	ToolChoice interface{} `json:"tool_choice,omitempty"`

	// IncludeRawChunks asks the stream decoder to emit every vendor chunk
	// verbatim as a raw event before its decoded events.
	IncludeRawChunks bool `json:"-"`

	// IncludeUsage asks the vendor to attach usage accounting to the
	// stream's terminal chunk.
	IncludeUsage bool `json:"-"`
}

// GetMaxTokens returns max_tokens with default fallback
func (rp *RequestParams) GetMaxTokens(defaultValue int) int {
	if rp.MaxTokens != nil {
		return *rp.MaxTokens
	}
	return defaultValue
}

// Tool represents a function the model can call
type Tool struct {
	Type     string       `json:"type"` // "function"
	Function ToolFunction `json:"function"`
}

// ToolFunction defines a callable function
type ToolFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  interface{} `json:"parameters,omitempty"` // JSON schema for parameters
}

// ReasoningDetailsFromMessage collects the reasoning details of an assistant
// message's reasoning parts, in order. This is the replay path: feeding a
// completed turn's accumulated details back produces the identical wire
// objects on the next request.
func ReasoningDetailsFromMessage(msg ChatMessage) []ReasoningDetail {
	var details []ReasoningDetail
	for _, part := range msg.Parts {
		if part.Type == MessagePartReasoning {
			details = append(details, part.ReasoningDetails...)
		}
	}
	return details
}
