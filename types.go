package llmprovider

import "encoding/json"

// ContentPart type constants
const (
	ContentPartText      = "text"
	ContentPartReasoning = "reasoning"
	ContentPartToolCall  = "tool-call"
	ContentPartFile      = "file"
	ContentPartSource    = "source"
)

// ContentPart is one entry of a decoded response's ordered content array.
// The Type field selects which of the payload fields are meaningful:
//   - text: Text
//   - reasoning: Text (display form; the structured details travel in
//     ProviderMetadata)
//   - tool-call: ToolCallID, ToolName, ToolArguments
//   - file: File
//   - source: Source
type ContentPart struct {
	// Type indicates the kind of content part.
	Type string

	// Text is the content for text and reasoning parts.
	Text string

	// ToolCallID identifies the tool call (tool-call parts).
	ToolCallID string

	// ToolName is the function name (tool-call parts).
	ToolName string

	// ToolArguments is the complete JSON argument string (tool-call parts).
	ToolArguments string

	// File is the decoded inline file (file parts).
	File *File

	// Source is the cited source (source parts).
	Source *Source

	// ProviderMetadata carries part-scoped provider data. For tool-call
	// parts, the first tool call of a turn carries the turn's reasoning
	// details here so they are not duplicated across parallel calls.
	ProviderMetadata *ProviderMetadata
}

// IsToolCall returns true for tool-call parts.
func (p ContentPart) IsToolCall() bool {
	return p.Type == ContentPartToolCall
}

// IsText returns true for text parts.
func (p ContentPart) IsText() bool {
	return p.Type == ContentPartText
}

// IsReasoning returns true for reasoning parts.
func (p ContentPart) IsReasoning() bool {
	return p.Type == ContentPartReasoning
}

// File is an inline file emitted by the model, decoded from its data URL.
type File struct {
	// MediaType is the MIME type, e.g. "image/png".
	MediaType string

	// Data is the decoded payload.
	Data []byte
}

// Source is a citation pointing at an external resource, derived from a
// URL annotation.
type Source struct {
	// ID is a synthetic identifier unique within the response.
	ID string

	// URL is the cited resource.
	URL string

	// Title is the resource title, when reported.
	Title string
}

// ProviderMetadata is the out-of-band result envelope attached alongside the
// primary content: per-response on the batch path, on the terminal finish
// event (and on reasoning-end / first tool-call parts) on the stream path.
// Both decode paths produce the identical shape.
type ProviderMetadata struct {
	// Provider is the provider id that served the turn.
	Provider string

	// ModelID is the concrete model that answered, when known.
	ModelID string

	// Usage is present only when the response carried a usage object.
	Usage *Usage

	// ReasoningDetails is present only when non-empty. Order is emission
	// order and must be replayed verbatim on the next turn.
	ReasoningDetails []ReasoningDetail

	// FileAnnotations holds raw file-provenance annotations, present only
	// when non-empty. These are side-data, never renderable content.
	FileAnnotations []json.RawMessage
}

// NewProviderMetadata assembles the metadata envelope both decode paths
// converge on. Usage is attached only when present, the two arrays only when
// non-empty.
func NewProviderMetadata(provider, modelID string, usage *Usage, details []ReasoningDetail, fileAnnotations []json.RawMessage) *ProviderMetadata {
	meta := &ProviderMetadata{
		Provider: provider,
		ModelID:  modelID,
	}
	if usage != nil {
		meta.Usage = usage
	}
	if len(details) > 0 {
		meta.ReasoningDetails = details
	}
	if len(fileAnnotations) > 0 {
		meta.FileAnnotations = fileAnnotations
	}
	return meta
}
