package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	llmprovider "github.com/mkessy/lattice-llm-go"
)

// Provider implements the llmprovider.Provider interface for Anthropic
// (Claude) models. Claude's native thinking and redacted-thinking blocks map
// onto the library's reasoning details, so hosts see the same shapes from
// both providers.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, llmprovider.ErrInvalidAPIKey
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() llmprovider.ProviderID {
	return llmprovider.ProviderAnthropic
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// Generate produces a complete decoded response from Claude.
func (p *Provider) Generate(ctx context.Context, req *llmprovider.GenerateRequest) (*llmprovider.Response, error) {
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

	message, err := p.client.Messages.New(ctx, apiParams)
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	return convertMessage(message)
}

// convertMessage converts a complete Anthropic message into the library
// response shape. Thinking blocks become reasoning parts and details;
// redacted thinking becomes an encrypted detail rendered as the redaction
// placeholder.
func convertMessage(message *anthropic.Message) (*llmprovider.Response, error) {
	if len(message.Content) == 0 {
		return nil, &llmprovider.NoContentError{Provider: llmprovider.ProviderAnthropic.String()}
	}

	var content []llmprovider.ContentPart
	var details []llmprovider.ReasoningDetail
	sourceSeq := 0
	hasToolCalls := false

	for _, block := range message.Content {
		switch block.Type {
		case "text":
			content = append(content, llmprovider.ContentPart{
				Type: llmprovider.ContentPartText,
				Text: block.Text,
			})
			for _, cite := range block.Citations {
				if cite.URL == "" {
					continue
				}
				content = append(content, llmprovider.ContentPart{
					Type: llmprovider.ContentPartSource,
					Source: &llmprovider.Source{
						ID:    fmt.Sprintf("source-%d", sourceSeq),
						URL:   cite.URL,
						Title: cite.Title,
					},
				})
				sourceSeq++
			}

		case "thinking":
			detail := &llmprovider.ReasoningText{
				Text:      block.Thinking,
				Signature: block.Signature,
			}
			details = append(details, detail)
			content = append(content, llmprovider.ContentPart{
				Type: llmprovider.ContentPartReasoning,
				Text: detail.DisplayText(),
			})

		case "redacted_thinking":
			detail := &llmprovider.ReasoningEncrypted{Data: block.Data}
			details = append(details, detail)
			content = append(content, llmprovider.ContentPart{
				Type: llmprovider.ContentPartReasoning,
				Text: detail.DisplayText(),
			})

		case "tool_use":
			hasToolCalls = true
			part := llmprovider.ContentPart{
				Type:          llmprovider.ContentPartToolCall,
				ToolCallID:    block.ID,
				ToolName:      block.Name,
				ToolArguments: string(block.Input),
			}
			content = append(content, part)
		}
	}

	usage := convertUsage(message.Usage)
	finish := mapStopReason(string(message.StopReason))
	if hasToolCalls && finish.Unified != llmprovider.FinishToolCalls && llmprovider.HasEncryptedReasoning(details) {
		finish = llmprovider.NewFinishReason(llmprovider.FinishToolCalls, finish.Raw)
	}

	result := &llmprovider.Response{
		Content:      content,
		FinishReason: finish,
		ProviderMetadata: llmprovider.NewProviderMetadata(
			llmprovider.ProviderAnthropic.String(), string(message.Model), usage, details, nil),
	}
	if usage != nil {
		result.Usage = *usage
	}
	return result, nil
}

// mapStopReason classifies Anthropic's stop_reason string.
func mapStopReason(raw string) llmprovider.FinishReason {
	var unified llmprovider.FinishReasonKind
	switch raw {
	case "end_turn", "stop_sequence":
		unified = llmprovider.FinishStop
	case "max_tokens":
		unified = llmprovider.FinishLength
	case "tool_use":
		unified = llmprovider.FinishToolCalls
	case "refusal":
		unified = llmprovider.FinishContentFilter
	default:
		unified = llmprovider.FinishOther
	}
	return llmprovider.FinishReason{Unified: unified, Raw: raw}
}

// convertUsage maps Anthropic token accounting onto the library record.
// Anthropic never reports cost, so the monetary fields stay nil ("unknown"),
// never 0.
func convertUsage(u anthropic.Usage) *llmprovider.Usage {
	usage := &llmprovider.Usage{
		PromptTokens:     int(u.InputTokens),
		CompletionTokens: int(u.OutputTokens),
		TotalTokens:      int(u.InputTokens + u.OutputTokens),
	}
	if u.CacheReadInputTokens > 0 {
		cached := int(u.CacheReadInputTokens)
		usage.CachedPromptTokens = &cached
	}
	return usage
}
