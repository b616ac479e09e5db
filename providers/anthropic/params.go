package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	llmprovider "github.com/mkessy/lattice-llm-go"
)

// buildMessageParams constructs Anthropic API parameters from a
// GenerateRequest. Shared between Generate and Stream.
func buildMessageParams(req *llmprovider.GenerateRequest) (anthropic.MessageNewParams, error) {
	messages, system, err := convertToAnthropicMessages(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, fmt.Errorf("failed to convert messages: %w", err)
	}

	params := req.Params
	if params == nil {
		params = &llmprovider.RequestParams{}
	}

	apiParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(params.GetMaxTokens(4096)),
	}

	if system != "" {
		apiParams.System = []anthropic.TextBlockParam{
			{Type: "text", Text: system},
		}
	}
	if params.Temperature != nil {
		apiParams.Temperature = anthropic.Float(*params.Temperature)
	}
	if params.TopP != nil {
		apiParams.TopP = anthropic.Float(*params.TopP)
	}
	if params.TopK != nil {
		apiParams.TopK = anthropic.Int(int64(*params.TopK))
	}
	if len(params.Stop) > 0 {
		apiParams.StopSequences = params.Stop
	}

	return apiParams, nil
}

// convertToAnthropicMessages converts library messages to Anthropic SDK
// format. System messages are hoisted out into the dedicated system prompt.
// Assistant reasoning parts replay as thinking blocks so multi-turn tool
// loops keep their verified thinking state.
func convertToAnthropicMessages(messages []llmprovider.ChatMessage) ([]anthropic.MessageParam, string, error) {
	var system strings.Builder
	result := make([]anthropic.MessageParam, 0, len(messages))

	for i, msg := range messages {
		switch msg.Role {
		case llmprovider.RoleSystem:
			for _, part := range msg.Parts {
				if part.Type == llmprovider.MessagePartText {
					system.WriteString(part.Text)
				}
			}

		case llmprovider.RoleUser, llmprovider.RoleTool:
			blocks, err := convertUserParts(msg.Parts)
			if err != nil {
				return nil, "", fmt.Errorf("message %d: %w", i, err)
			}
			if len(blocks) == 0 {
				continue
			}
			result = append(result, anthropic.NewUserMessage(blocks...))

		case llmprovider.RoleAssistant:
			blocks, err := convertAssistantParts(msg.Parts)
			if err != nil {
				return nil, "", fmt.Errorf("message %d: %w", i, err)
			}
			if len(blocks) == 0 {
				continue
			}
			result = append(result, anthropic.NewAssistantMessage(blocks...))

		default:
			return nil, "", fmt.Errorf("message %d: unsupported role '%s'", i, msg.Role)
		}
	}

	return result, system.String(), nil
}

func convertUserParts(parts []llmprovider.MessagePart) ([]anthropic.ContentBlockParamUnion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case llmprovider.MessagePartText:
			blocks = append(blocks, anthropic.NewTextBlock(part.Text))
		case llmprovider.MessagePartToolResult:
			if part.ToolCallID == "" {
				return nil, fmt.Errorf("tool result missing tool call id")
			}
			blocks = append(blocks, anthropic.NewToolResultBlock(part.ToolCallID, part.ToolResult, false))
		}
	}
	return blocks, nil
}

func convertAssistantParts(parts []llmprovider.MessagePart) ([]anthropic.ContentBlockParamUnion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case llmprovider.MessagePartText:
			blocks = append(blocks, anthropic.NewTextBlock(part.Text))

		case llmprovider.MessagePartReasoning:
			for _, detail := range part.ReasoningDetails {
				switch d := detail.(type) {
				case *llmprovider.ReasoningText:
					// Unsigned thinking cannot be replayed verifiably; drop it.
					if d.Signature == "" {
						continue
					}
					blocks = append(blocks, anthropic.NewThinkingBlock(d.Signature, d.Text))
				case *llmprovider.ReasoningEncrypted:
					blocks = append(blocks, anthropic.NewRedactedThinkingBlock(d.Data))
				}
			}

		case llmprovider.MessagePartToolCall:
			if part.ToolCallID == "" || part.ToolName == "" {
				return nil, fmt.Errorf("tool call missing id or name")
			}
			args := part.ToolArguments
			if args == "" {
				args = "{}"
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(part.ToolCallID, json.RawMessage(args), part.ToolName))
		}
	}
	return blocks, nil
}
