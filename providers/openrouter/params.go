package openrouter

import (
	"encoding/json"
	"strconv"

	llmprovider "github.com/mkessy/lattice-llm-go"
)

// Wire schema for the chat-completion dialect. Request structs marshal what
// we send; response structs model what comes back, after dialect
// canonicalization (see dialect.go).

// ChatCompletionRequest is the request body for /chat/completions.
type ChatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []Message           `json:"messages"`
	MaxTokens   *int                `json:"max_tokens,omitempty"`
	Temperature *float64            `json:"temperature,omitempty"`
	TopP        *float64            `json:"top_p,omitempty"`
	TopK        *int                `json:"top_k,omitempty"`
	Stop        []string            `json:"stop,omitempty"`
	Seed        *int                `json:"seed,omitempty"`
	Tools       []llmprovider.Tool  `json:"tools,omitempty"`
	ToolChoice  interface{}         `json:"tool_choice,omitempty"`
	Stream      bool                `json:"stream,omitempty"`
	StreamOpts  *StreamOptions      `json:"stream_options,omitempty"`
	Usage       *UsageRequestConfig `json:"usage,omitempty"`
}

// StreamOptions asks the vendor to attach usage accounting to the final
// stream chunk.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// UsageRequestConfig opts in to cost accounting in the usage object.
type UsageRequestConfig struct {
	Include bool `json:"include"`
}

// Message is one conversation turn on the wire.
type Message struct {
	Role             string                       `json:"role"`
	Content          interface{}                  `json:"content,omitempty"`
	Reasoning        *string                      `json:"reasoning,omitempty"`
	ReasoningDetails llmprovider.ReasoningDetails `json:"reasoning_details,omitempty"`
	ToolCalls        []ToolCall                   `json:"tool_calls,omitempty"`
	ToolCallID       string                       `json:"tool_call_id,omitempty"`
}

// TextPart and ImagePart are entries of a multi-part message content array.
type TextPart struct {
	Type string `json:"type"` // "text"
	Text string `json:"text"`
}

type ImagePart struct {
	Type     string   `json:"type"` // "image_url"
	ImageURL ImageURL `json:"image_url"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// ToolCall is a function invocation, on both the request (history replay)
// and response sides. Index is present only in stream deltas.
type ToolCall struct {
	Index    *int         `json:"index,omitempty"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"` // "function"
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Annotation is a content annotation attached to a response message. Only
// url_citation annotations have a modeled payload; every annotation keeps
// its verbatim bytes so unmodeled kinds (file provenance and future ones)
// survive untouched.
type Annotation struct {
	Type        string
	URLCitation *URLCitation
	Raw         json.RawMessage
}

func (a *Annotation) UnmarshalJSON(b []byte) error {
	a.Raw = append(a.Raw[:0], b...)
	var probe struct {
		Type        string       `json:"type"`
		URLCitation *URLCitation `json:"url_citation"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	a.Type = probe.Type
	a.URLCitation = probe.URLCitation
	return nil
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	type wire struct {
		Type        string       `json:"type"`
		URLCitation *URLCitation `json:"url_citation,omitempty"`
	}
	return json.Marshal(wire{Type: a.Type, URLCitation: a.URLCitation})
}

// URLCitation is the payload of a url_citation annotation.
type URLCitation struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Content    string `json:"content,omitempty"`
	StartIndex int    `json:"start_index,omitempty"`
	EndIndex   int    `json:"end_index,omitempty"`
}

// ErrorPayload is the vendor's error object, returned with an HTTP error
// status or embedded in a 200 body. Code arrives as a number or a string
// depending on the gateway, so it is kept raw.
type ErrorPayload struct {
	Message string          `json:"message"`
	Code    json.RawMessage `json:"code,omitempty"`
}

// Int returns the numeric error code, or 0 when absent or non-numeric.
func (e *ErrorPayload) Int() int {
	if len(e.Code) == 0 {
		return 0
	}
	s := string(e.Code)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// ChatCompletionResponse is the batch (non-stream) response body.
type ChatCompletionResponse struct {
	ID       string          `json:"id"`
	Model    string          `json:"model"`
	Provider string          `json:"provider,omitempty"`
	Choices  []Choice        `json:"choices"`
	Usage    json.RawMessage `json:"usage,omitempty"`
	Error    *ErrorPayload   `json:"error,omitempty"`
}

// Choice is one completion alternative; the decoders read only the first.
type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason *string         `json:"finish_reason"`
}

// ResponseMessage is the assistant message of a batch choice.
type ResponseMessage struct {
	Role             string                       `json:"role"`
	Content          *string                      `json:"content"`
	Reasoning        *string                      `json:"reasoning,omitempty"`
	ReasoningDetails llmprovider.ReasoningDetails `json:"reasoning_details,omitempty"`
	ToolCalls        []ToolCall                   `json:"tool_calls,omitempty"`
	Annotations      []Annotation                 `json:"annotations,omitempty"`
	Images           []ImagePart                  `json:"images,omitempty"`
}

// ChatCompletionChunk is one SSE data frame of a streamed response.
type ChatCompletionChunk struct {
	ID       string          `json:"id"`
	Model    string          `json:"model"`
	Provider string          `json:"provider,omitempty"`
	Choices  []ChunkChoice   `json:"choices"`
	Usage    json.RawMessage `json:"usage,omitempty"`
	Error    *ErrorPayload   `json:"error,omitempty"`
}

// ChunkChoice is one choice slot of a stream chunk.
type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Delta is the incremental message payload of a stream chunk.
type Delta struct {
	Role             string                       `json:"role,omitempty"`
	Content          *string                      `json:"content,omitempty"`
	Reasoning        *string                      `json:"reasoning,omitempty"`
	ReasoningDetails llmprovider.ReasoningDetails `json:"reasoning_details,omitempty"`
	ToolCalls        []ToolCall                   `json:"tool_calls,omitempty"`
	Annotations      []Annotation                 `json:"annotations,omitempty"`
	Images           []ImagePart                  `json:"images,omitempty"`
}
