package openrouter

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	llmprovider "github.com/mkessy/lattice-llm-go"
)

// StreamDecoder turns a sequence of chat-completion SSE chunks into the
// normalized event stream. It is a push decoder: the transport feeds chunks
// via ProcessChunk and calls Flush exactly once after the vendor signals
// completion. An abandoned stream (context cancelled mid-flight) simply
// never calls Flush, so no finish event is fabricated.
//
// The decoder is not safe for concurrent use; one instance serves one
// stream.
type StreamDecoder struct {
	dialect *Dialect
	emitRaw bool

	responseID      string
	model           string
	provider        string
	metadataEmitted bool

	seq int

	reasoningID      string
	reasoningStarted bool
	reasoningClosed  bool
	reasoningClaimed bool
	reasoningDetails []llmprovider.ReasoningDetail

	textID      string
	textStarted bool

	toolCalls map[int]*toolCallState
	toolOrder []int

	fileAnnotations []json.RawMessage

	usage      *llmprovider.Usage
	finish     llmprovider.FinishReason
	finishSeen bool
}

// toolCallState accumulates one tool-call slot across deltas.
type toolCallState struct {
	id   string
	name string
	args string
	sent bool
}

// Chunk is one parsed SSE data frame. On a malformed frame Value is nil and
// Err carries the protocol error; Raw is always the verbatim frame.
type Chunk struct {
	Raw   json.RawMessage
	Value *ChatCompletionChunk
	Err   error
}

// NewStreamDecoder builds a decoder for one stream. When emitRaw is set,
// every frame is surfaced as a raw event before its decoded events.
func NewStreamDecoder(d *Dialect, emitRaw bool) *StreamDecoder {
	return &StreamDecoder{
		dialect:   d,
		emitRaw:   emitRaw,
		toolCalls: make(map[int]*toolCallState),
	}
}

// ParseChunk canonicalizes and decodes one SSE data payload. Failures are
// reported inside the returned Chunk rather than as a hard error, because a
// single corrupt frame must not abort the stream.
func (s *StreamDecoder) ParseChunk(data []byte) Chunk {
	raw := append(json.RawMessage(nil), data...)

	canonical, err := s.dialect.canonicalize(data, streamPath)
	if err != nil {
		return Chunk{Raw: raw, Err: &llmprovider.ProtocolError{
			Provider: s.dialect.ProviderID,
			Reason:   fmt.Sprintf("chunk canonicalization failed: %v", err),
		}}
	}

	var chunk ChatCompletionChunk
	if err := json.Unmarshal(canonical, &chunk); err != nil {
		return Chunk{Raw: raw, Err: &llmprovider.ProtocolError{
			Provider: s.dialect.ProviderID,
			Reason:   fmt.Sprintf("malformed chunk: %v", err),
		}}
	}
	return Chunk{Raw: raw, Value: &chunk}
}

// ProcessChunk folds one chunk into the decoder state, emitting the events
// it produces in order. A chunk-level failure becomes an inline error event
// and marks the turn as errored; decoding continues with the next chunk so
// content already delivered is not discarded.
func (s *StreamDecoder) ProcessChunk(c Chunk, emit func(llmprovider.StreamPart)) {
	if s.emitRaw && len(c.Raw) > 0 {
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartRaw, Raw: c.Raw})
	}

	if c.Err != nil {
		s.recordError()
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartError, Err: c.Err})
		return
	}
	chunk := c.Value

	// The gateway names the upstream backend it routed to; the last report
	// wins, like usage.
	if chunk.Provider != "" {
		s.provider = chunk.Provider
	}

	if chunk.Error != nil {
		s.recordError()
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartError, Err: &llmprovider.UpstreamError{
			Provider: s.dialect.ProviderID,
			Code:     chunk.Error.Int(),
			Message:  chunk.Error.Message,
		}})
		return
	}

	if !s.metadataEmitted && (chunk.ID != "" || chunk.Model != "") {
		s.responseID = chunk.ID
		s.model = chunk.Model
		s.metadataEmitted = true
		emit(llmprovider.StreamPart{
			Type:       llmprovider.StreamPartResponseMetadata,
			ResponseID: chunk.ID,
			Model:      chunk.Model,
		})
	}

	// Usage may repeat across chunks; the last report wins.
	if len(chunk.Usage) > 0 {
		if usage := normalizeUsage(chunk.Usage); usage != nil {
			s.usage = usage
		}
	}

	if len(chunk.Choices) == 0 {
		return
	}
	choice := chunk.Choices[0]

	if choice.FinishReason != nil && *choice.FinishReason != "" {
		s.finish = mapFinishReason(*choice.FinishReason)
		s.finishSeen = true
	}

	s.processDelta(choice.Delta, emit)
}

func (s *StreamDecoder) processDelta(delta Delta, emit func(llmprovider.StreamPart)) {
	if len(delta.ReasoningDetails) > 0 {
		for _, detail := range delta.ReasoningDetails {
			s.addReasoning(detail, emit)
		}
	} else if delta.Reasoning != nil && *delta.Reasoning != "" {
		s.addReasoning(&llmprovider.ReasoningText{Text: *delta.Reasoning}, emit)
	}

	if delta.Content != nil && *delta.Content != "" {
		s.closeReasoning(emit)
		if !s.textStarted {
			s.textID = s.newID("text")
			s.textStarted = true
			emit(llmprovider.StreamPart{Type: llmprovider.StreamPartTextStart, ID: s.textID})
		}
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartTextDelta, ID: s.textID, Delta: *delta.Content})
	}

	for _, ann := range delta.Annotations {
		switch ann.Type {
		case "url_citation":
			if ann.URLCitation == nil {
				continue
			}
			sourceID := s.newID("source")
			emit(llmprovider.StreamPart{
				Type: llmprovider.StreamPartSource,
				ID:   sourceID,
				Source: &llmprovider.Source{
					ID:    sourceID,
					URL:   ann.URLCitation.URL,
					Title: ann.URLCitation.Title,
				},
			})
		case "file":
			s.fileAnnotations = append(s.fileAnnotations, ann.Raw)
		}
	}

	for _, tc := range delta.ToolCalls {
		s.processToolCall(tc, emit)
	}

	for _, img := range delta.Images {
		file, err := decodeDataURL(img.ImageURL.URL)
		if err != nil {
			emit(llmprovider.StreamPart{Type: llmprovider.StreamPartError, Err: &llmprovider.ProtocolError{
				Provider: s.dialect.ProviderID,
				Reason:   fmt.Sprintf("bad image data URL: %v", err),
			}})
			continue
		}
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartFile, ID: s.newID("file"), File: file})
	}
}

// addReasoning accumulates one reasoning detail and, while the reasoning
// span is still open, surfaces its display text as a delta. Details arriving
// after text has closed the span are accumulated silently so they still make
// the final metadata, but the span is never reopened.
func (s *StreamDecoder) addReasoning(detail llmprovider.ReasoningDetail, emit func(llmprovider.StreamPart)) {
	if detail == nil {
		return
	}
	s.reasoningDetails = llmprovider.MergeReasoningDetail(s.reasoningDetails, detail)

	if s.reasoningClosed {
		return
	}
	if !s.reasoningStarted {
		s.reasoningID = s.newID("reasoning")
		s.reasoningStarted = true
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartReasoningStart, ID: s.reasoningID})
	}
	if text := detail.DisplayText(); text != "" {
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartReasoningDelta, ID: s.reasoningID, Delta: text})
	}
}

// closeReasoning ends an open reasoning span, attaching a snapshot of the
// details accumulated so far.
func (s *StreamDecoder) closeReasoning(emit func(llmprovider.StreamPart)) {
	if !s.reasoningStarted || s.reasoningClosed {
		return
	}
	s.reasoningClosed = true
	emit(llmprovider.StreamPart{
		Type:             llmprovider.StreamPartReasoningEnd,
		ID:               s.reasoningID,
		ProviderMetadata: s.reasoningMetadata(),
	})
}

func (s *StreamDecoder) processToolCall(tc ToolCall, emit func(llmprovider.StreamPart)) {
	index := 0
	if tc.Index != nil {
		index = *tc.Index
	}

	state, ok := s.toolCalls[index]
	if !ok {
		// A new slot must identify itself completely.
		if tc.ID == "" || tc.Type != "function" || tc.Function.Name == "" {
			emit(llmprovider.StreamPart{Type: llmprovider.StreamPartError, Err: &llmprovider.ProtocolError{
				Provider: s.dialect.ProviderID,
				Reason:   fmt.Sprintf("tool call delta at index %d missing id, type, or name", index),
			}})
			return
		}
		state = &toolCallState{id: tc.ID, name: tc.Function.Name}
		s.toolCalls[index] = state
		s.toolOrder = append(s.toolOrder, index)

		emit(llmprovider.StreamPart{
			Type:     llmprovider.StreamPartToolInputStart,
			ID:       state.id,
			ToolName: state.name,
		})

		// Some models send the whole argument object in the first delta.
		if args := tc.Function.Arguments; args != "" {
			state.args = args
			emit(llmprovider.StreamPart{Type: llmprovider.StreamPartToolInputDelta, ID: state.id, Delta: args})
			if gjson.Valid(args) {
				s.finishToolCall(state, emit)
			}
		}
		return
	}

	if state.sent {
		return
	}
	if args := tc.Function.Arguments; args != "" {
		state.args += args
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartToolInputDelta, ID: state.id, Delta: args})
	}
	if state.args != "" && gjson.Valid(state.args) {
		s.finishToolCall(state, emit)
	}
}

// finishToolCall closes a tool span and emits the complete call. The first
// call of the turn claims the accumulated reasoning details in its part
// metadata.
func (s *StreamDecoder) finishToolCall(state *toolCallState, emit func(llmprovider.StreamPart)) {
	state.sent = true
	emit(llmprovider.StreamPart{Type: llmprovider.StreamPartToolInputEnd, ID: state.id})

	part := llmprovider.StreamPart{
		Type:          llmprovider.StreamPartToolCall,
		ID:            state.id,
		ToolName:      state.name,
		ToolArguments: state.args,
	}
	if !s.reasoningClaimed && len(s.reasoningDetails) > 0 {
		part.ProviderMetadata = s.reasoningMetadata()
		s.reasoningClaimed = true
	}
	emit(part)
}

// Flush completes the stream: it applies the finish-reason override,
// force-closes whatever the vendor left open, and emits the single terminal
// finish event. Call it once, only after the vendor signalled completion.
func (s *StreamDecoder) Flush(emit func(llmprovider.StreamPart)) {
	finish := s.finish
	if !s.finishSeen {
		finish = llmprovider.FinishReason{Unified: llmprovider.FinishOther}
	}
	finish = overrideFinishReason(finish, s.reasoningDetails, len(s.toolCalls) > 0)

	// When the turn ended in tool calls, slots whose arguments never became
	// complete JSON are emitted anyway so the host sees every call the model
	// attempted.
	if finish.Unified == llmprovider.FinishToolCalls {
		for _, index := range s.toolOrder {
			state := s.toolCalls[index]
			if state.sent {
				continue
			}
			// Every live slot already opened its span at creation; only
			// the arguments can still be incomplete here.
			if state.args == "" || !gjson.Valid(state.args) {
				state.args = "{}"
			}
			s.finishToolCall(state, emit)
		}
	}

	s.closeReasoning(emit)

	if s.textStarted {
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartTextEnd, ID: s.textID})
	}

	emit(llmprovider.StreamPart{
		Type:         llmprovider.StreamPartFinish,
		FinishReason: finish,
		Usage:        s.usage,
		ProviderMetadata: llmprovider.NewProviderMetadata(
			s.providerName(), s.model, s.usage, s.reasoningDetails, s.fileAnnotations),
	})
}

// providerName is the upstream provider the wire named, falling back to the
// dialect's own id when the stream never carried one.
func (s *StreamDecoder) providerName() string {
	if s.provider != "" {
		return s.provider
	}
	return s.dialect.ProviderID
}

// recordError marks the turn as errored unless the vendor already named a
// real finish reason.
func (s *StreamDecoder) recordError() {
	if !s.finishSeen {
		s.finish = llmprovider.FinishReason{Unified: llmprovider.FinishError}
		s.finishSeen = true
	}
}

// reasoningMetadata snapshots the details accumulated so far.
func (s *StreamDecoder) reasoningMetadata() *llmprovider.ProviderMetadata {
	details := make([]llmprovider.ReasoningDetail, len(s.reasoningDetails))
	copy(details, s.reasoningDetails)
	return llmprovider.NewProviderMetadata(s.providerName(), s.model, nil, details, nil)
}

func (s *StreamDecoder) newID(prefix string) string {
	id := fmt.Sprintf("%s-%d", prefix, s.seq)
	s.seq++
	return id
}
