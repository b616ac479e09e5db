package llmprovider

// Response is a completely decoded (non-streaming) generation turn.
type Response struct {
	// Content is the ordered content array: reasoning parts first, then the
	// text part, tool-call parts, inline files, and sources.
	Content []ContentPart

	// FinishReason is why generation stopped, after any override rules.
	FinishReason FinishReason

	// Usage is the normalized accounting for the turn. Zero-valued when the
	// response carried no usage object; ProviderMetadata.Usage is nil in
	// that case.
	Usage Usage

	// ProviderMetadata is the result envelope (provider, model, usage,
	// reasoning details, file annotations).
	ProviderMetadata *ProviderMetadata
}

// ToolCalls returns the tool-call parts of the content array, in order.
func (r *Response) ToolCalls() []ContentPart {
	var calls []ContentPart
	for _, part := range r.Content {
		if part.IsToolCall() {
			calls = append(calls, part)
		}
	}
	return calls
}

// Text returns the concatenated text parts of the content array.
func (r *Response) Text() string {
	var text string
	for _, part := range r.Content {
		if part.IsText() {
			text += part.Text
		}
	}
	return text
}
