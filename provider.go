package llmprovider

import (
	"context"
)

// ProviderID represents a unique provider identifier.
// Using a typed constant prevents typos and provides compile-time safety.
type ProviderID string

// Known provider identifiers
const (
	// ProviderOpenRouter is OpenRouter's unified chat-completion API
	ProviderOpenRouter ProviderID = "openrouter"

	// ProviderCompat covers OpenAI-compatible gateways speaking the
	// chat-completion dialect with camelCase reasoning fields
	ProviderCompat ProviderID = "compat"

	// ProviderAnthropic is Anthropic's Claude API
	ProviderAnthropic ProviderID = "anthropic"

	// ProviderLorem is the mock Lorem provider for testing
	ProviderLorem ProviderID = "lorem"
)

// String returns the string representation of the provider ID
func (p ProviderID) String() string {
	return string(p)
}

// IsValid returns true if the provider ID is a known provider
func (p ProviderID) IsValid() bool {
	switch p {
	case ProviderOpenRouter, ProviderCompat, ProviderAnthropic, ProviderLorem:
		return true
	default:
		return false
	}
}

// Provider defines the interface that all LLM providers must implement.
//
// Types used by this interface:
//   - GenerateRequest, ChatMessage: defined in request.go
//   - Response: defined in response.go
//   - StreamPart: defined in streaming.go
type Provider interface {
	// Generate produces a complete decoded response (blocking).
	Generate(ctx context.Context, req *GenerateRequest) (*Response, error)

	// Stream produces a normalized event stream. The channel is closed when
	// the stream completes; a completed stream ends with exactly one finish
	// event, a cancelled one may close without it.
	//
	// Usage:
	//   parts, err := provider.Stream(ctx, req)
	//   if err != nil { return err }
	//   for part := range parts {
	//     switch part.Type { ... }
	//   }
	Stream(ctx context.Context, req *GenerateRequest) (<-chan StreamPart, error)

	// Name returns the provider identifier.
	Name() ProviderID

	// SupportsModel returns true if the provider supports the given model.
	SupportsModel(model string) bool
}
