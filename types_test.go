package llmprovider

import (
	"encoding/json"
	"testing"
)

// TestNewProviderMetadata tests that empty collections are not attached
func TestNewProviderMetadata(t *testing.T) {
	t.Run("empty inputs omitted", func(t *testing.T) {
		meta := NewProviderMetadata("openrouter", "some/model", nil, nil, nil)
		if meta.Provider != "openrouter" || meta.ModelID != "some/model" {
			t.Errorf("unexpected identity fields: %#v", meta)
		}
		if meta.Usage != nil {
			t.Errorf("expected nil usage")
		}
		if meta.ReasoningDetails != nil {
			t.Errorf("expected nil reasoning details")
		}
		if meta.FileAnnotations != nil {
			t.Errorf("expected nil file annotations")
		}
	})

	t.Run("populated inputs attached", func(t *testing.T) {
		usage := &Usage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7}
		details := []ReasoningDetail{&ReasoningText{Text: "t"}}
		annotations := []json.RawMessage{json.RawMessage(`{"type":"file"}`)}

		meta := NewProviderMetadata("openrouter", "m", usage, details, annotations)
		if meta.Usage != usage {
			t.Errorf("usage not attached")
		}
		if len(meta.ReasoningDetails) != 1 {
			t.Errorf("reasoning details not attached")
		}
		if len(meta.FileAnnotations) != 1 {
			t.Errorf("file annotations not attached")
		}
	})
}

// TestContentPartPredicates tests the part-kind helpers
func TestContentPartPredicates(t *testing.T) {
	tests := []struct {
		name       string
		part       ContentPart
		isText     bool
		isTool     bool
		isReason   bool
	}{
		{"text", ContentPart{Type: ContentPartText, Text: "hi"}, true, false, false},
		{"tool call", ContentPart{Type: ContentPartToolCall, ToolCallID: "1"}, false, true, false},
		{"reasoning", ContentPart{Type: ContentPartReasoning, Text: "hm"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.part.IsText() != tt.isText {
				t.Errorf("IsText() = %v", tt.part.IsText())
			}
			if tt.part.IsToolCall() != tt.isTool {
				t.Errorf("IsToolCall() = %v", tt.part.IsToolCall())
			}
			if tt.part.IsReasoning() != tt.isReason {
				t.Errorf("IsReasoning() = %v", tt.part.IsReasoning())
			}
		})
	}
}

// TestResponseHelpers tests the response content accessors
func TestResponseHelpers(t *testing.T) {
	resp := &Response{
		Content: []ContentPart{
			{Type: ContentPartReasoning, Text: "thinking"},
			{Type: ContentPartText, Text: "hello "},
			{Type: ContentPartText, Text: "world"},
			{Type: ContentPartToolCall, ToolCallID: "call_1", ToolName: "lookup"},
		},
	}

	if got := resp.Text(); got != "hello world" {
		t.Errorf("Text() = '%s'", got)
	}

	calls := resp.ToolCalls()
	if len(calls) != 1 || calls[0].ToolName != "lookup" {
		t.Errorf("ToolCalls() = %#v", calls)
	}
}

// TestStreamPartPredicates tests terminal and span classification
func TestStreamPartPredicates(t *testing.T) {
	if !(StreamPart{Type: StreamPartFinish}).IsTerminal() {
		t.Errorf("finish should be terminal")
	}
	if (StreamPart{Type: StreamPartTextDelta}).IsTerminal() {
		t.Errorf("text delta should not be terminal")
	}
	if !(StreamPart{Type: StreamPartReasoningStart}).IsSpanStart() {
		t.Errorf("reasoning-start should open a span")
	}
	if !(StreamPart{Type: StreamPartToolInputEnd}).IsSpanEnd() {
		t.Errorf("tool-input-end should close a span")
	}
}
