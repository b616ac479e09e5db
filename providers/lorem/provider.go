package lorem

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	llmprovider "github.com/mkessy/lattice-llm-go"
)

// Provider is a mock LLM provider that generates lorem ipsum text.
// Used for testing and development without requiring real API keys.
//
// Model names select behavior:
//   - "lorem-fast" / "lorem-medium" / "lorem-slow": streaming speed
//   - "lorem-cutoff": simulates hitting the token limit (finish length)
//   - "lorem-reasoning": emits a reasoning span before the text
//   - any model with tools in the request: emits one mock tool call
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() llmprovider.ProviderID {
	return llmprovider.ProviderLorem
}

// SupportsModel returns true if the model name starts with "lorem-".
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// getStreamDelay returns the delay between words based on the model name.
func getStreamDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 500 * time.Millisecond // 2 words/second
	}
	if strings.Contains(model, "fast") {
		return 33 * time.Millisecond // 30 words/second
	}
	return 100 * time.Millisecond // default: 10 words/second
}

// isCutoffModel returns true if the model should simulate a token-limit stop.
func isCutoffModel(model string) bool {
	return strings.Contains(model, "cutoff") || strings.Contains(model, "small")
}

// isReasoningModel returns true if the model should emit a reasoning span.
func isReasoningModel(model string) bool {
	return strings.Contains(model, "reasoning") || strings.Contains(model, "thinking")
}

// Generate produces a complete mock response after a short simulated delay.
func (p *Provider) Generate(ctx context.Context, req *llmprovider.GenerateRequest) (*llmprovider.Response, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &llmprovider.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by Lorem provider (must start with 'lorem-')",
			Err:      llmprovider.ErrInvalidModel,
		}
	}

	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var content []llmprovider.ContentPart
	var details []llmprovider.ReasoningDetail

	if isReasoningModel(req.Model) {
		thought := p.generateTextWords(15)
		details = append(details, &llmprovider.ReasoningText{Text: thought})
		content = append(content, llmprovider.ContentPart{
			Type: llmprovider.ContentPartReasoning,
			Text: thought,
		})
	}

	text := p.generateTextWords(40)
	content = append(content, llmprovider.ContentPart{
		Type: llmprovider.ContentPartText,
		Text: text,
	})

	finishRaw := "stop"
	unified := llmprovider.FinishStop
	if isCutoffModel(req.Model) {
		finishRaw = "length"
		unified = llmprovider.FinishLength
	}

	usage := p.mockUsage(req, text)
	return &llmprovider.Response{
		Content:      content,
		FinishReason: llmprovider.FinishReason{Unified: unified, Raw: finishRaw},
		Usage:        *usage,
		ProviderMetadata: llmprovider.NewProviderMetadata(
			p.Name().String(), req.Model, usage, details, nil),
	}, nil
}

// Stream produces a mock event stream following the same bracketing rules as
// the real providers: response-metadata first, span events in order, exactly
// one finish event.
func (p *Provider) Stream(ctx context.Context, req *llmprovider.GenerateRequest) (<-chan llmprovider.StreamPart, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &llmprovider.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by Lorem provider (must start with 'lorem-')",
			Err:      llmprovider.ErrInvalidModel,
		}
	}

	partChan := make(chan llmprovider.StreamPart, 10)

	go func() {
		defer close(partChan)
		p.streamParts(ctx, req, partChan)
	}()

	return partChan, nil
}

func (p *Provider) streamParts(ctx context.Context, req *llmprovider.GenerateRequest, partChan chan<- llmprovider.StreamPart) {
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

	delay := getStreamDelay(req.Model)
	seq := 0
	newID := func(prefix string) string {
		id := fmt.Sprintf("%s-%d", prefix, seq)
		seq++
		return id
	}

	emit(llmprovider.StreamPart{
		Type:       llmprovider.StreamPartResponseMetadata,
		ResponseID: fmt.Sprintf("lorem-%d", time.Now().UnixNano()),
		Model:      req.Model,
	})

	var details []llmprovider.ReasoningDetail

	if isReasoningModel(req.Model) && !cancelled {
		id := newID("reasoning")
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartReasoningStart, ID: id})

		var thought strings.Builder
		for _, word := range strings.Fields(p.generateTextWords(10)) {
			if cancelled {
				return
			}
			fragment := word + " "
			thought.WriteString(fragment)
			emit(llmprovider.StreamPart{Type: llmprovider.StreamPartReasoningDelta, ID: id, Delta: fragment})
			time.Sleep(delay)
		}

		details = append(details, &llmprovider.ReasoningText{Text: thought.String()})
		emit(llmprovider.StreamPart{
			Type: llmprovider.StreamPartReasoningEnd,
			ID:   id,
			ProviderMetadata: llmprovider.NewProviderMetadata(
				p.Name().String(), req.Model, nil, details, nil),
		})
	}

	text, cutoff := p.streamText(req, newID, emit, &cancelled, delay)
	if cancelled {
		return
	}

	if len(reqTools(req)) > 0 {
		p.streamToolCall(req, newID, emit, &cancelled, delay, details)
		if cancelled {
			return
		}
	}

	finishRaw := "stop"
	unified := llmprovider.FinishStop
	switch {
	case cutoff:
		finishRaw = "length"
		unified = llmprovider.FinishLength
	case len(reqTools(req)) > 0:
		finishRaw = "tool_calls"
		unified = llmprovider.FinishToolCalls
	}

	usage := p.mockUsage(req, text)
	emit(llmprovider.StreamPart{
		Type:         llmprovider.StreamPartFinish,
		FinishReason: llmprovider.FinishReason{Unified: unified, Raw: finishRaw},
		Usage:        usage,
		ProviderMetadata: llmprovider.NewProviderMetadata(
			p.Name().String(), req.Model, usage, details, nil),
	})
}

// streamText emits one text span word by word. Cutoff models stop partway
// through to simulate a token-limit stop.
func (p *Provider) streamText(req *llmprovider.GenerateRequest, newID func(string) string, emit func(llmprovider.StreamPart), cancelled *bool, delay time.Duration) (string, bool) {
	targetWords := 30
	limit := targetWords
	cutoffModel := isCutoffModel(req.Model)
	if cutoffModel {
		limit = targetWords * 2 / 3
	}

	id := newID("text")
	emit(llmprovider.StreamPart{Type: llmprovider.StreamPartTextStart, ID: id})

	var sent strings.Builder
	cutoff := false
	for i, word := range strings.Fields(p.generateTextWords(targetWords)) {
		if *cancelled {
			return sent.String(), false
		}
		if cutoffModel && i >= limit {
			cutoff = true
			break
		}
		fragment := word + " "
		sent.WriteString(fragment)
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartTextDelta, ID: id, Delta: fragment})
		time.Sleep(delay)
	}

	emit(llmprovider.StreamPart{Type: llmprovider.StreamPartTextEnd, ID: id})
	return sent.String(), cutoff
}

// streamToolCall emits one complete mock tool span for the first requested
// tool, streaming the argument JSON in fragments.
func (p *Provider) streamToolCall(req *llmprovider.GenerateRequest, newID func(string) string, emit func(llmprovider.StreamPart), cancelled *bool, delay time.Duration, details []llmprovider.ReasoningDetail) {
	tool := reqTools(req)[0]
	input := map[string]interface{}{
		"query": "lorem ipsum dolor sit amet",
	}
	args, err := json.Marshal(input)
	if err != nil {
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartError, Err: fmt.Errorf("failed to marshal tool input: %w", err)})
		return
	}

	id := fmt.Sprintf("toolu_%s_%s", tool.Function.Name, newID("call"))
	emit(llmprovider.StreamPart{Type: llmprovider.StreamPartToolInputStart, ID: id, ToolName: tool.Function.Name})

	// Stream the JSON in small fragments, like a real vendor does.
	const fragmentSize = 8
	for start := 0; start < len(args); start += fragmentSize {
		if *cancelled {
			return
		}
		end := start + fragmentSize
		if end > len(args) {
			end = len(args)
		}
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartToolInputDelta, ID: id, Delta: string(args[start:end])})
		time.Sleep(delay / 4)
	}

	emit(llmprovider.StreamPart{Type: llmprovider.StreamPartToolInputEnd, ID: id})

	part := llmprovider.StreamPart{
		Type:          llmprovider.StreamPartToolCall,
		ID:            id,
		ToolName:      tool.Function.Name,
		ToolArguments: string(args),
	}
	if len(details) > 0 {
		part.ProviderMetadata = llmprovider.NewProviderMetadata(
			p.Name().String(), req.Model, nil, details, nil)
	}
	emit(part)
}

func reqTools(req *llmprovider.GenerateRequest) []llmprovider.Tool {
	if req.Params == nil {
		return nil
	}
	return req.Params.Tools
}

// mockUsage fabricates plausible token accounting. Cost stays nil: even the
// mock never invents money.
func (p *Provider) mockUsage(req *llmprovider.GenerateRequest, text string) *llmprovider.Usage {
	prompt := p.estimateTokens(req.Messages)
	completion := len(strings.Fields(text))
	return &llmprovider.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// generateTextWords generates lorem ipsum text with approximately
// targetWords words.
func (p *Provider) generateTextWords(targetWords int) string {
	var sb strings.Builder
	wordCount := 0

	for wordCount < targetWords {
		sentence := p.generator.Sentence(5, 15)
		sb.WriteString(sentence)
		sb.WriteString(" ")
		wordCount += len(strings.Fields(sentence))
	}

	return strings.TrimSpace(sb.String())
}

// estimateTokens estimates the token count for a list of messages using
// word count as a rough approximation.
func (p *Provider) estimateTokens(messages []llmprovider.ChatMessage) int {
	totalWords := 0
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if part.Type == llmprovider.MessagePartText {
				totalWords += len(strings.Fields(part.Text))
			}
		}
	}
	return totalWords
}
