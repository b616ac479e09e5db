package llmprovider

import "encoding/json"

// StreamPartType discriminates the events of a normalized response stream.
type StreamPartType string

const (
	// StreamPartResponseMetadata reports the response id / model as soon as
	// they are observed.
	StreamPartResponseMetadata StreamPartType = "response-metadata"

	StreamPartTextStart StreamPartType = "text-start"
	StreamPartTextDelta StreamPartType = "text-delta"
	StreamPartTextEnd   StreamPartType = "text-end"

	StreamPartReasoningStart StreamPartType = "reasoning-start"
	StreamPartReasoningDelta StreamPartType = "reasoning-delta"
	StreamPartReasoningEnd   StreamPartType = "reasoning-end"

	StreamPartToolInputStart StreamPartType = "tool-input-start"
	StreamPartToolInputDelta StreamPartType = "tool-input-delta"
	StreamPartToolInputEnd   StreamPartType = "tool-input-end"

	// StreamPartToolCall carries one complete tool invocation. Emitted
	// exactly once per tool-call id.
	StreamPartToolCall StreamPartType = "tool-call"

	// StreamPartSource is an immediately-emitted URL citation.
	StreamPartSource StreamPartType = "source"

	// StreamPartFile is an inline file (images are never buffered).
	StreamPartFile StreamPartType = "file"

	// StreamPartError reports a per-chunk failure without aborting the
	// stream.
	StreamPartError StreamPartType = "error"

	// StreamPartRaw is the unmodified vendor chunk, emitted first for each
	// chunk when the caller requested raw passthrough.
	StreamPartRaw StreamPartType = "raw"

	// StreamPartFinish is the terminal event: exactly one per completed
	// stream, always last. An abandoned stream emits none.
	StreamPartFinish StreamPartType = "finish"
)

// StreamPart is a single event of the normalized stream. Type selects the
// payload fields. Span events (text, reasoning, tool-input) share an ID that
// brackets start, deltas, and end; tool spans use the vendor tool-call id,
// text and reasoning spans a synthetic one.
type StreamPart struct {
	// Type indicates the kind of event.
	Type StreamPartType

	// ID is the span or tool-call identifier.
	ID string

	// Delta is the content fragment for *-delta events.
	Delta string

	// ResponseID and Model are set on response-metadata events.
	ResponseID string
	Model      string

	// ToolName is set on tool-input-start and tool-call events.
	ToolName string

	// ToolArguments is the complete JSON argument string of a tool-call
	// event.
	ToolArguments string

	// Source is the citation of a source event.
	Source *Source

	// File is the decoded inline file of a file event.
	File *File

	// Err is the failure reported by an error event.
	Err error

	// Raw is the verbatim vendor chunk of a raw event.
	Raw json.RawMessage

	// FinishReason and Usage are set on the terminal finish event.
	FinishReason FinishReason
	Usage        *Usage

	// ProviderMetadata is set on finish, on reasoning-end, and on the tool-call
	// event that claims the turn's reasoning details.
	ProviderMetadata *ProviderMetadata
}

// IsTerminal returns true for the finish event.
func (p StreamPart) IsTerminal() bool {
	return p.Type == StreamPartFinish
}

// IsSpanStart returns true for events that open a span.
func (p StreamPart) IsSpanStart() bool {
	switch p.Type {
	case StreamPartTextStart, StreamPartReasoningStart, StreamPartToolInputStart:
		return true
	default:
		return false
	}
}

// IsSpanEnd returns true for events that close a span.
func (p StreamPart) IsSpanEnd() bool {
	switch p.Type {
	case StreamPartTextEnd, StreamPartReasoningEnd, StreamPartToolInputEnd:
		return true
	default:
		return false
	}
}
