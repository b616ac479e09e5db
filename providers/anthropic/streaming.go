package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	llmprovider "github.com/mkessy/lattice-llm-go"
)

// Stream produces the normalized event stream from Claude.
//
// Anthropic's events already bracket content blocks, so the mapping is
// mostly mechanical: content_block_start/delta/stop become the library's
// span events, thinking blocks feed the reasoning span, and tool_use blocks
// feed a tool span that closes with a complete tool-call event. Stop reason
// and usage are taken from the accumulated message, not from individual
// delta events.
func (p *Provider) Stream(ctx context.Context, req *llmprovider.GenerateRequest) (<-chan llmprovider.StreamPart, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &llmprovider.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by Anthropic (must start with 'claude-')",
			Err:      llmprovider.ErrInvalidModel,
		}
	}

	apiParams, err := buildMessageParams(req)
	if err != nil {
		return nil, err
	}

	partChan := make(chan llmprovider.StreamPart, 10) // Buffered to prevent blocking

	go func() {
		defer close(partChan)

		stream := p.client.Messages.NewStreaming(ctx, apiParams)
		state := newStreamState()

		cancelled := false
		emit := func(part llmprovider.StreamPart) {
			if cancelled {
				return
			}
			select {
			case partChan <- part:
			case <-ctx.Done():
				cancelled = true
			}
		}

		message := anthropic.Message{}
		for stream.Next() {
			event := stream.Current()

			if err := message.Accumulate(event); err != nil {
				emit(llmprovider.StreamPart{Type: llmprovider.StreamPartError, Err: fmt.Errorf("failed to accumulate message: %w", err)})
				return
			}

			state.processEvent(event, emit)
			if cancelled {
				return
			}
		}

		if err := stream.Err(); err != nil {
			emit(llmprovider.StreamPart{Type: llmprovider.StreamPartError, Err: fmt.Errorf("anthropic streaming error: %w", err)})
			return
		}
		if cancelled {
			return
		}

		state.flush(&message, emit)
	}()

	return partChan, nil
}

// blockSpan tracks one in-flight content block.
type blockSpan struct {
	kind   string // "text", "thinking", "tool_use"
	id     string
	name   string
	args   string
	detail *llmprovider.ReasoningText
}

// streamState folds Anthropic events into library stream parts.
type streamState struct {
	blocks           map[int64]*blockSpan
	details          []llmprovider.ReasoningDetail
	reasoningClaimed bool
	hasToolCalls     bool
	model            string
}

func newStreamState() *streamState {
	return &streamState{blocks: make(map[int64]*blockSpan)}
}

func (s *streamState) processEvent(event anthropic.MessageStreamEventUnion, emit func(llmprovider.StreamPart)) {
	switch e := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		s.model = string(e.Message.Model)
		emit(llmprovider.StreamPart{
			Type:       llmprovider.StreamPartResponseMetadata,
			ResponseID: e.Message.ID,
			Model:      s.model,
		})

	case anthropic.ContentBlockStartEvent:
		span := &blockSpan{kind: string(e.ContentBlock.Type)}

		switch e.ContentBlock.Type {
		case "text":
			span.id = fmt.Sprintf("text-%d", e.Index)
			emit(llmprovider.StreamPart{Type: llmprovider.StreamPartTextStart, ID: span.id})

		case "thinking":
			span.id = fmt.Sprintf("reasoning-%d", e.Index)
			span.detail = &llmprovider.ReasoningText{}
			s.details = append(s.details, span.detail)
			emit(llmprovider.StreamPart{Type: llmprovider.StreamPartReasoningStart, ID: span.id})

		case "redacted_thinking":
			// Silent block: the payload lands in the details, the host sees
			// only the redaction placeholder at flush time.
			s.details = append(s.details, &llmprovider.ReasoningEncrypted{Data: e.ContentBlock.Data})

		case "tool_use":
			s.hasToolCalls = true
			span.id = e.ContentBlock.ID
			span.name = e.ContentBlock.Name
			emit(llmprovider.StreamPart{
				Type:     llmprovider.StreamPartToolInputStart,
				ID:       span.id,
				ToolName: span.name,
			})
		}

		s.blocks[e.Index] = span

	case anthropic.ContentBlockDeltaEvent:
		span := s.blocks[e.Index]
		if span == nil {
			return
		}

		switch e.Delta.Type {
		case "text_delta":
			emit(llmprovider.StreamPart{Type: llmprovider.StreamPartTextDelta, ID: span.id, Delta: e.Delta.Text})

		case "thinking_delta":
			if span.detail != nil {
				span.detail.Text += e.Delta.Thinking
			}
			emit(llmprovider.StreamPart{Type: llmprovider.StreamPartReasoningDelta, ID: span.id, Delta: e.Delta.Thinking})

		case "signature_delta":
			if span.detail != nil {
				span.detail.Signature += e.Delta.Signature
			}

		case "input_json_delta":
			span.args += e.Delta.PartialJSON
			if e.Delta.PartialJSON != "" {
				emit(llmprovider.StreamPart{Type: llmprovider.StreamPartToolInputDelta, ID: span.id, Delta: e.Delta.PartialJSON})
			}
		}

	case anthropic.ContentBlockStopEvent:
		span := s.blocks[e.Index]
		if span == nil {
			return
		}
		delete(s.blocks, e.Index)

		switch span.kind {
		case "text":
			emit(llmprovider.StreamPart{Type: llmprovider.StreamPartTextEnd, ID: span.id})

		case "thinking":
			details := make([]llmprovider.ReasoningDetail, len(s.details))
			copy(details, s.details)
			emit(llmprovider.StreamPart{
				Type: llmprovider.StreamPartReasoningEnd,
				ID:   span.id,
				ProviderMetadata: llmprovider.NewProviderMetadata(
					llmprovider.ProviderAnthropic.String(), s.model, nil, details, nil),
			})

		case "tool_use":
			emit(llmprovider.StreamPart{Type: llmprovider.StreamPartToolInputEnd, ID: span.id})
			args := span.args
			if args == "" {
				args = "{}"
			}
			part := llmprovider.StreamPart{
				Type:          llmprovider.StreamPartToolCall,
				ID:            span.id,
				ToolName:      span.name,
				ToolArguments: args,
			}
			if !s.reasoningClaimed && len(s.details) > 0 {
				details := make([]llmprovider.ReasoningDetail, len(s.details))
				copy(details, s.details)
				part.ProviderMetadata = llmprovider.NewProviderMetadata(
					llmprovider.ProviderAnthropic.String(), s.model, nil, details, nil)
				s.reasoningClaimed = true
			}
			emit(part)
		}
	}
}

// flush emits the terminal finish event from the accumulated message.
func (s *streamState) flush(message *anthropic.Message, emit func(llmprovider.StreamPart)) {
	usage := convertUsage(message.Usage)
	finish := mapStopReason(string(message.StopReason))
	if s.hasToolCalls && finish.Unified != llmprovider.FinishToolCalls && llmprovider.HasEncryptedReasoning(s.details) {
		finish = llmprovider.NewFinishReason(llmprovider.FinishToolCalls, finish.Raw)
	}

	emit(llmprovider.StreamPart{
		Type:         llmprovider.StreamPartFinish,
		FinishReason: finish,
		Usage:        usage,
		ProviderMetadata: llmprovider.NewProviderMetadata(
			llmprovider.ProviderAnthropic.String(), string(message.Model), usage, s.details, nil),
	})
}
