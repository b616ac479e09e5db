package openrouter

import (
	"strings"

	llmprovider "github.com/mkessy/lattice-llm-go"
)

// buildChatCompletionRequest converts a library request into the wire
// request body. Streaming flags are set by the caller.
func buildChatCompletionRequest(req *llmprovider.GenerateRequest) (*ChatCompletionRequest, error) {
	out := &ChatCompletionRequest{
		Model:    req.Model,
		Messages: convertMessages(req.Messages),
	}

	if req.Params != nil {
		out.MaxTokens = req.Params.MaxTokens
		out.Temperature = req.Params.Temperature
		out.TopP = req.Params.TopP
		out.TopK = req.Params.TopK
		out.Stop = req.Params.Stop
		out.Seed = req.Params.Seed
		out.Tools = req.Params.Tools
		out.ToolChoice = req.Params.ToolChoice
		if req.Params.IncludeUsage {
			out.Usage = &UsageRequestConfig{Include: true}
		}
	}

	return out, nil
}

// convertMessages flattens library messages onto the wire. Assistant turns
// replay their reasoning details verbatim so thinking state survives
// multi-turn tool loops; tool results become dedicated role-"tool" messages.
func convertMessages(messages []llmprovider.ChatMessage) []Message {
	var out []Message

	for _, msg := range messages {
		switch msg.Role {
		case llmprovider.RoleSystem, llmprovider.RoleUser:
			out = append(out, Message{
				Role:    msg.Role,
				Content: joinTextParts(msg.Parts),
			})

		case llmprovider.RoleAssistant:
			wire := Message{Role: llmprovider.RoleAssistant}

			if text := joinTextParts(msg.Parts); text != "" {
				wire.Content = text
			}

			if details := llmprovider.ReasoningDetailsFromMessage(msg); len(details) > 0 {
				wire.ReasoningDetails = details
			}

			for _, part := range msg.Parts {
				if part.Type == llmprovider.MessagePartToolCall {
					wire.ToolCalls = append(wire.ToolCalls, ToolCall{
						ID:   part.ToolCallID,
						Type: "function",
						Function: FunctionCall{
							Name:      part.ToolName,
							Arguments: part.ToolArguments,
						},
					})
				}
			}

			out = append(out, wire)

			// Tool results of the same logical turn follow as separate
			// role-"tool" messages.
			for _, part := range msg.Parts {
				if part.Type == llmprovider.MessagePartToolResult {
					out = append(out, Message{
						Role:       llmprovider.RoleTool,
						Content:    part.ToolResult,
						ToolCallID: part.ToolCallID,
					})
				}
			}

		case llmprovider.RoleTool:
			for _, part := range msg.Parts {
				if part.Type == llmprovider.MessagePartToolResult {
					out = append(out, Message{
						Role:       llmprovider.RoleTool,
						Content:    part.ToolResult,
						ToolCallID: part.ToolCallID,
					})
				}
			}
		}
	}

	return out
}

// joinTextParts concatenates the text parts of a message.
func joinTextParts(parts []llmprovider.MessagePart) string {
	var sb strings.Builder
	for _, part := range parts {
		if part.Type == llmprovider.MessagePartText {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
