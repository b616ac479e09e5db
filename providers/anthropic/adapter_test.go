package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	llmprovider "github.com/mkessy/lattice-llm-go"
)

func TestConvertToAnthropicMessages_SystemHoisted(t *testing.T) {
	messages := []llmprovider.ChatMessage{
		{
			Role:  llmprovider.RoleSystem,
			Parts: []llmprovider.MessagePart{{Type: llmprovider.MessagePartText, Text: "be brief"}},
		},
		{
			Role:  llmprovider.RoleUser,
			Parts: []llmprovider.MessagePart{{Type: llmprovider.MessagePartText, Text: "hi"}},
		},
	}

	result, system, err := convertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages() error = %v", err)
	}
	if system != "be brief" {
		t.Errorf("system = %q", system)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
}

func TestConvertToAnthropicMessages_ReasoningReplay(t *testing.T) {
	messages := []llmprovider.ChatMessage{
		{
			Role: llmprovider.RoleAssistant,
			Parts: []llmprovider.MessagePart{
				{
					Type: llmprovider.MessagePartReasoning,
					ReasoningDetails: []llmprovider.ReasoningDetail{
						&llmprovider.ReasoningText{Text: "thought", Signature: "sig-1"},
						&llmprovider.ReasoningText{Text: "unsigned thought"},
						&llmprovider.ReasoningEncrypted{Data: "opaque"},
					},
				},
				{Type: llmprovider.MessagePartText, Text: "answer"},
			},
		},
	}

	result, _, err := convertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages() error = %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}

	// Signed thinking, redacted thinking, and the text block survive; the
	// unsigned thought is dropped because it cannot be verified on replay.
	if got := len(result[0].Content); got != 3 {
		t.Errorf("expected 3 blocks, got %d", got)
	}
}

func TestConvertToAnthropicMessages_ToolRoundTrip(t *testing.T) {
	messages := []llmprovider.ChatMessage{
		{
			Role: llmprovider.RoleAssistant,
			Parts: []llmprovider.MessagePart{
				{
					Type:          llmprovider.MessagePartToolCall,
					ToolCallID:    "toolu_123",
					ToolName:      "lookup",
					ToolArguments: `{"q":"paris"}`,
				},
			},
		},
		{
			Role: llmprovider.RoleTool,
			Parts: []llmprovider.MessagePart{
				{
					Type:       llmprovider.MessagePartToolResult,
					ToolCallID: "toolu_123",
					ToolResult: "sunny",
				},
			},
		},
	}

	result, _, err := convertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages() error = %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(result))
	}
	if result[1].Role != "user" {
		t.Errorf("tool results must ride in a user turn, got role %s", result[1].Role)
	}
}

func TestMapStopReason(t *testing.T) {
	tests := []struct {
		raw  string
		want llmprovider.FinishReasonKind
	}{
		{"end_turn", llmprovider.FinishStop},
		{"stop_sequence", llmprovider.FinishStop},
		{"max_tokens", llmprovider.FinishLength},
		{"tool_use", llmprovider.FinishToolCalls},
		{"refusal", llmprovider.FinishContentFilter},
		{"pause_turn", llmprovider.FinishOther},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := mapStopReason(tt.raw)
			if got.Unified != tt.want {
				t.Errorf("mapStopReason(%q) = %s, expected %s", tt.raw, got.Unified, tt.want)
			}
			if got.Raw != tt.raw {
				t.Errorf("raw string not preserved: %q", got.Raw)
			}
		})
	}
}

func TestConvertUsage(t *testing.T) {
	usage := convertUsage(anthropic.Usage{
		InputTokens:          10,
		OutputTokens:         5,
		CacheReadInputTokens: 3,
	})

	if usage.PromptTokens != 10 || usage.CompletionTokens != 5 || usage.TotalTokens != 15 {
		t.Errorf("tokens = %d/%d/%d", usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
	}
	if usage.CachedPromptTokens == nil || *usage.CachedPromptTokens != 3 {
		t.Errorf("cached = %v", usage.CachedPromptTokens)
	}
	// Anthropic reports no cost; the monetary fields must stay unknown.
	if usage.Cost != nil || usage.CostDetails != nil {
		t.Errorf("cost fields must be nil, got %v / %v", usage.Cost, usage.CostDetails)
	}
}

func TestConvertMessage(t *testing.T) {
	message := &anthropic.Message{
		Model:      "claude-sonnet-4-5",
		StopReason: "end_turn",
		Content: []anthropic.ContentBlockUnion{
			{Type: "thinking", Thinking: "working it out", Signature: "sig-abc"},
			{Type: "text", Text: "the answer"},
		},
		Usage: anthropic.Usage{InputTokens: 4, OutputTokens: 6},
	}

	result, err := convertMessage(message)
	if err != nil {
		t.Fatalf("convertMessage() error = %v", err)
	}

	if len(result.Content) != 2 {
		t.Fatalf("parts = %#v", result.Content)
	}
	if result.Content[0].Type != llmprovider.ContentPartReasoning || result.Content[0].Text != "working it out" {
		t.Errorf("reasoning part = %#v", result.Content[0])
	}
	if result.Content[1].Type != llmprovider.ContentPartText {
		t.Errorf("text part = %#v", result.Content[1])
	}

	details := result.ProviderMetadata.ReasoningDetails
	if len(details) != 1 {
		t.Fatalf("details = %#v", details)
	}
	if rt, ok := details[0].(*llmprovider.ReasoningText); !ok || rt.Signature != "sig-abc" {
		t.Errorf("detail = %#v, signature must survive", details[0])
	}

	if result.FinishReason.Unified != llmprovider.FinishStop {
		t.Errorf("finish = %s", result.FinishReason.Unified)
	}
	if result.Usage.TotalTokens != 10 {
		t.Errorf("TotalTokens = %d", result.Usage.TotalTokens)
	}
}

func TestConvertMessage_RedactedThinking(t *testing.T) {
	message := &anthropic.Message{
		Model:      "claude-sonnet-4-5",
		StopReason: "end_turn",
		Content: []anthropic.ContentBlockUnion{
			{Type: "redacted_thinking", Data: "opaque-bytes"},
			{Type: "tool_use", ID: "toolu_1", Name: "f", Input: []byte(`{}`)},
		},
	}

	result, err := convertMessage(message)
	if err != nil {
		t.Fatalf("convertMessage() error = %v", err)
	}

	if result.Content[0].Text != llmprovider.RedactedReasoningText {
		t.Errorf("redacted display = %q", result.Content[0].Text)
	}

	// Encrypted reasoning plus tool calls reclassifies a reported end_turn.
	if result.FinishReason.Unified != llmprovider.FinishToolCalls {
		t.Errorf("finish = %s, expected tool-calls override", result.FinishReason.Unified)
	}
	if result.FinishReason.Raw != "end_turn" {
		t.Errorf("raw = %q", result.FinishReason.Raw)
	}
}
