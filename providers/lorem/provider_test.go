package lorem

import (
	"context"
	"errors"
	"testing"
	"time"

	llmprovider "github.com/mkessy/lattice-llm-go"
)

func TestProvider_Name(t *testing.T) {
	provider := NewProvider()
	if provider.Name() != "lorem" {
		t.Errorf("expected provider name 'lorem', got '%s'", provider.Name())
	}
}

func TestProvider_SupportsModel(t *testing.T) {
	provider := NewProvider()

	tests := []struct {
		model    string
		expected bool
	}{
		{"lorem-fast", true},
		{"lorem-slow", true},
		{"lorem-cutoff", true},
		{"lorem-reasoning", true},
		{"claude-3", false},
		{"gpt-4", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			result := provider.SupportsModel(tt.model)
			if result != tt.expected {
				t.Errorf("SupportsModel(%q) = %v, want %v", tt.model, result, tt.expected)
			}
		})
	}
}

func TestProvider_UnsupportedModel(t *testing.T) {
	provider := NewProvider()

	_, err := provider.Stream(context.Background(), &llmprovider.GenerateRequest{Model: "gpt-4"})
	if !errors.Is(err, llmprovider.ErrInvalidModel) {
		t.Errorf("expected ErrInvalidModel, got %v", err)
	}
}

func collectParts(t *testing.T, req *llmprovider.GenerateRequest) []llmprovider.StreamPart {
	t.Helper()
	provider := NewProvider()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	partChan, err := provider.Stream(ctx, req)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	var parts []llmprovider.StreamPart
	for part := range partChan {
		parts = append(parts, part)
	}
	return parts
}

func TestProvider_Stream_Bracketing(t *testing.T) {
	parts := collectParts(t, &llmprovider.GenerateRequest{Model: "lorem-fast"})

	if len(parts) == 0 {
		t.Fatal("no parts emitted")
	}
	if parts[0].Type != llmprovider.StreamPartResponseMetadata {
		t.Errorf("first part = %s, expected response-metadata", parts[0].Type)
	}

	last := parts[len(parts)-1]
	if last.Type != llmprovider.StreamPartFinish {
		t.Fatalf("last part = %s, expected finish", last.Type)
	}
	if last.FinishReason.Unified != llmprovider.FinishStop {
		t.Errorf("finish = %s", last.FinishReason.Unified)
	}
	if last.Usage == nil || last.Usage.CompletionTokens == 0 {
		t.Errorf("usage = %#v", last.Usage)
	}

	// Every span that opens must close, in order.
	open := ""
	finishes := 0
	for _, p := range parts {
		switch {
		case p.IsSpanStart():
			if open != "" {
				t.Fatalf("span %s opened while %s still open", p.ID, open)
			}
			open = p.ID
		case p.IsSpanEnd():
			if p.ID != open {
				t.Fatalf("span %s closed while %s open", p.ID, open)
			}
			open = ""
		case p.IsTerminal():
			finishes++
		}
	}
	if open != "" {
		t.Errorf("span %s never closed", open)
	}
	if finishes != 1 {
		t.Errorf("finish emitted %d times", finishes)
	}
}

func TestProvider_Stream_Cutoff(t *testing.T) {
	parts := collectParts(t, &llmprovider.GenerateRequest{Model: "lorem-fast-cutoff"})

	last := parts[len(parts)-1]
	if last.FinishReason.Unified != llmprovider.FinishLength {
		t.Errorf("finish = %s, expected length", last.FinishReason.Unified)
	}
}

func TestProvider_Stream_Reasoning(t *testing.T) {
	parts := collectParts(t, &llmprovider.GenerateRequest{Model: "lorem-fast-reasoning"})

	var sawStart, sawEnd bool
	var reasoningText string
	for _, p := range parts {
		switch p.Type {
		case llmprovider.StreamPartReasoningStart:
			sawStart = true
		case llmprovider.StreamPartReasoningDelta:
			reasoningText += p.Delta
		case llmprovider.StreamPartReasoningEnd:
			sawEnd = true
			if p.ProviderMetadata == nil || len(p.ProviderMetadata.ReasoningDetails) == 0 {
				t.Errorf("reasoning-end must carry the accumulated details")
			}
		case llmprovider.StreamPartTextStart:
			if !sawEnd {
				t.Errorf("text started before the reasoning span closed")
			}
		}
	}
	if !sawStart || !sawEnd {
		t.Fatalf("reasoning span incomplete: start=%v end=%v", sawStart, sawEnd)
	}
	if reasoningText == "" {
		t.Errorf("no reasoning deltas")
	}

	last := parts[len(parts)-1]
	if len(last.ProviderMetadata.ReasoningDetails) == 0 {
		t.Errorf("finish metadata missing reasoning details")
	}
}

func TestProvider_Stream_ToolCall(t *testing.T) {
	req := &llmprovider.GenerateRequest{
		Model: "lorem-fast",
		Params: &llmprovider.RequestParams{
			Tools: []llmprovider.Tool{
				{Type: "function", Function: llmprovider.ToolFunction{Name: "search"}},
			},
		},
	}
	parts := collectParts(t, req)

	var deltas string
	var call *llmprovider.StreamPart
	for i := range parts {
		switch parts[i].Type {
		case llmprovider.StreamPartToolInputDelta:
			deltas += parts[i].Delta
		case llmprovider.StreamPartToolCall:
			call = &parts[i]
		}
	}
	if call == nil {
		t.Fatal("no tool-call part")
	}
	if call.ToolName != "search" {
		t.Errorf("tool name = %s", call.ToolName)
	}
	if deltas != call.ToolArguments {
		t.Errorf("deltas %q do not concatenate to arguments %q", deltas, call.ToolArguments)
	}

	last := parts[len(parts)-1]
	if last.FinishReason.Unified != llmprovider.FinishToolCalls {
		t.Errorf("finish = %s, expected tool-calls", last.FinishReason.Unified)
	}
}

func TestProvider_Generate(t *testing.T) {
	provider := NewProvider()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := provider.Generate(ctx, &llmprovider.GenerateRequest{
		Model: "lorem-fast",
		Messages: []llmprovider.ChatMessage{
			{Role: llmprovider.RoleUser, Parts: []llmprovider.MessagePart{{Type: llmprovider.MessagePartText, Text: "Hello, test!"}}},
		},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Text() == "" {
		t.Error("empty response text")
	}
	if resp.FinishReason.Unified != llmprovider.FinishStop {
		t.Errorf("finish = %s", resp.FinishReason.Unified)
	}
	if resp.Usage.PromptTokens == 0 {
		t.Errorf("prompt tokens = %d", resp.Usage.PromptTokens)
	}
}

func TestProvider_Generate_Cancelled(t *testing.T) {
	provider := NewProvider()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Generate(ctx, &llmprovider.GenerateRequest{Model: "lorem-fast"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
