package openrouter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	llmprovider "github.com/mkessy/lattice-llm-go"
)

// DecodeResponse converts one complete (non-streamed) chat-completion body
// into the canonical response. The body must already be in canonical field
// spelling; Provider.Generate canonicalizes before calling this.
//
// Content ordering is fixed regardless of wire layout: reasoning parts
// first, then text, then tool calls, then files, then sources. The first
// tool call of a turn carries the turn's reasoning details in its part
// metadata so parallel calls do not duplicate them.
func DecodeResponse(d *Dialect, resp *ChatCompletionResponse) (*llmprovider.Response, error) {
	providerID := d.ProviderID
	// Metadata names the upstream backend the gateway routed to, when the
	// response says so.
	metaProvider := providerID
	if resp.Provider != "" {
		metaProvider = resp.Provider
	}

	if resp.Error != nil {
		return nil, &llmprovider.UpstreamError{
			Provider: providerID,
			Code:     resp.Error.Int(),
			Message:  resp.Error.Message,
		}
	}
	if len(resp.Choices) == 0 {
		return nil, &llmprovider.NoContentError{Provider: providerID}
	}

	choice := resp.Choices[0]
	msg := choice.Message

	details := collectReasoningDetails(msg.Reasoning, msg.ReasoningDetails)

	var content []llmprovider.ContentPart

	for _, detail := range details {
		content = append(content, llmprovider.ContentPart{
			Type: llmprovider.ContentPartReasoning,
			Text: detail.DisplayText(),
		})
	}

	if msg.Content != nil && *msg.Content != "" {
		content = append(content, llmprovider.ContentPart{
			Type: llmprovider.ContentPartText,
			Text: *msg.Content,
		})
	}

	for i, tc := range msg.ToolCalls {
		part := llmprovider.ContentPart{
			Type:          llmprovider.ContentPartToolCall,
			ToolCallID:    tc.ID,
			ToolName:      tc.Function.Name,
			ToolArguments: tc.Function.Arguments,
		}
		// Reasoning details ride on the first call only.
		if i == 0 && len(details) > 0 {
			part.ProviderMetadata = llmprovider.NewProviderMetadata(metaProvider, resp.Model, nil, details, nil)
		}
		content = append(content, part)
	}

	for _, img := range msg.Images {
		file, err := decodeDataURL(img.ImageURL.URL)
		if err != nil {
			return nil, &llmprovider.ProtocolError{
				Provider: providerID,
				Reason:   fmt.Sprintf("bad image data URL: %v", err),
			}
		}
		content = append(content, llmprovider.ContentPart{
			Type: llmprovider.ContentPartFile,
			File: file,
		})
	}

	var fileAnnotations []json.RawMessage
	sourceSeq := 0
	for _, ann := range msg.Annotations {
		switch ann.Type {
		case "url_citation":
			if ann.URLCitation == nil {
				continue
			}
			content = append(content, llmprovider.ContentPart{
				Type: llmprovider.ContentPartSource,
				Source: &llmprovider.Source{
					ID:    fmt.Sprintf("source-%d", sourceSeq),
					URL:   ann.URLCitation.URL,
					Title: ann.URLCitation.Title,
				},
			})
			sourceSeq++
		case "file":
			fileAnnotations = append(fileAnnotations, ann.Raw)
		}
	}

	var finishRaw string
	if choice.FinishReason != nil {
		finishRaw = *choice.FinishReason
	}
	finish := overrideFinishReason(mapFinishReason(finishRaw), details, len(msg.ToolCalls) > 0)

	usage := normalizeUsage(resp.Usage)

	result := &llmprovider.Response{
		Content:          content,
		FinishReason:     finish,
		ProviderMetadata: llmprovider.NewProviderMetadata(metaProvider, resp.Model, usage, details, fileAnnotations),
	}
	if usage != nil {
		result.Usage = *usage
	}
	return result, nil
}

// collectReasoningDetails prefers the structured details array; when only
// the legacy plain-text reasoning field is present it is wrapped as a single
// text detail so downstream code handles one shape.
func collectReasoningDetails(legacy *string, details llmprovider.ReasoningDetails) []llmprovider.ReasoningDetail {
	if len(details) > 0 {
		return details
	}
	if legacy != nil && *legacy != "" {
		return []llmprovider.ReasoningDetail{&llmprovider.ReasoningText{Text: *legacy}}
	}
	return nil
}

// decodeDataURL parses "data:<mediatype>;base64,<payload>" into a File.
func decodeDataURL(url string) (*llmprovider.File, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("missing payload separator")
	}
	mediaType := strings.TrimSuffix(meta, ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return &llmprovider.File{MediaType: mediaType, Data: data}, nil
}
