package openrouter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	llmprovider "github.com/mkessy/lattice-llm-go"
)

// Provider implements the llmprovider.Provider interface for OpenRouter's
// unified chat-completion API, and for any OpenAI-compatible gateway via a
// non-default dialect (see dialect.go).
//
// Common Issues:
// - 404 errors: Verify model name at https://openrouter.ai/models
// - Tool calling: Not all models support function calling - check OpenRouter docs
type Provider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	dialect    *Dialect
}

// NewProvider creates a provider speaking the canonical OpenRouter dialect.
func NewProvider(apiKey string) (*Provider, error) {
	return NewProviderWithDialect(apiKey, "openrouter")
}

// NewProviderWithDialect creates a provider speaking the named dialect.
func NewProviderWithDialect(apiKey, dialectName string) (*Provider, error) {
	if apiKey == "" {
		return nil, llmprovider.ErrInvalidAPIKey
	}

	dialect, err := GetDialect(dialectName)
	if err != nil {
		return nil, err
	}

	return &Provider{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    dialect.BaseURL,
		dialect:    dialect,
	}, nil
}

// SetBaseURL points the provider at a different endpoint, for gateways that
// share a dialect but not a host.
func (p *Provider) SetBaseURL(baseURL string) {
	p.baseURL = strings.TrimSuffix(baseURL, "/")
}

// Name returns the provider identifier.
func (p *Provider) Name() llmprovider.ProviderID {
	return llmprovider.ProviderID(p.dialect.ProviderID)
}

// SupportsModel returns true if this provider supports the given model.
// OpenRouter uses "provider/model" format (e.g., "moonshotai/kimi-k2-thinking").
func (p *Provider) SupportsModel(model string) bool {
	return strings.Contains(model, "/")
}

// Generate produces a complete decoded response (non-streaming).
func (p *Provider) Generate(ctx context.Context, req *llmprovider.GenerateRequest) (*llmprovider.Response, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &llmprovider.ModelError{
			Model:    req.Model,
			Provider: p.dialect.ProviderID,
			Reason:   "model not supported (must be in 'provider/model' format)",
			Err:      llmprovider.ErrInvalidModel,
		}
	}

	wireReq, err := buildChatCompletionRequest(req)
	if err != nil {
		return nil, err
	}
	wireReq.Stream = false

	httpReq, err := p.buildHTTPRequest(ctx, wireReq)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s HTTP request failed: %w", p.dialect.ProviderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp, req.Model)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	canonical, err := p.dialect.canonicalize(body, batchPath)
	if err != nil {
		return nil, &llmprovider.ProtocolError{
			Provider: p.dialect.ProviderID,
			Reason:   fmt.Sprintf("response canonicalization failed: %v", err),
		}
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(canonical, &chatResp); err != nil {
		return nil, &llmprovider.ProtocolError{
			Provider: p.dialect.ProviderID,
			Reason:   fmt.Sprintf("malformed response body: %v", err),
		}
	}

	return DecodeResponse(p.dialect, &chatResp)
}

// Stream produces the normalized event stream for a request.
func (p *Provider) Stream(ctx context.Context, req *llmprovider.GenerateRequest) (<-chan llmprovider.StreamPart, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &llmprovider.ModelError{
			Model:    req.Model,
			Provider: p.dialect.ProviderID,
			Reason:   "model not supported (must be in 'provider/model' format)",
			Err:      llmprovider.ErrInvalidModel,
		}
	}

	wireReq, err := buildChatCompletionRequest(req)
	if err != nil {
		return nil, err
	}
	wireReq.Stream = true
	if req.Params != nil && req.Params.IncludeUsage {
		wireReq.StreamOpts = &StreamOptions{IncludeUsage: true}
	}

	httpReq, err := p.buildHTTPRequest(ctx, wireReq)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s HTTP request failed: %w", p.dialect.ProviderID, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, p.handleErrorResponse(resp, req.Model)
	}

	includeRaw := req.Params != nil && req.Params.IncludeRawChunks

	partChan := make(chan llmprovider.StreamPart, 10) // Buffered to prevent blocking

	go func() {
		defer close(partChan)
		defer resp.Body.Close()

		p.streamParts(ctx, resp.Body, includeRaw, partChan)
	}()

	return partChan, nil
}

// streamParts reads SSE frames and drives the stream decoder. A cancelled
// context abandons the stream without a finish event; a vendor [DONE] (or a
// clean EOF) flushes the decoder so exactly one finish event closes the
// stream.
func (p *Provider) streamParts(ctx context.Context, body io.ReadCloser, includeRaw bool, partChan chan<- llmprovider.StreamPart) {
	decoder := NewStreamDecoder(p.dialect, includeRaw)

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

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if cancelled {
			return
		}

		line := scanner.Text()

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}

		// Check for termination
		if data == "[DONE]" {
			break
		}

		decoder.ProcessChunk(decoder.ParseChunk([]byte(data)), emit)
	}

	if cancelled {
		return
	}
	if err := scanner.Err(); err != nil {
		emit(llmprovider.StreamPart{Type: llmprovider.StreamPartError, Err: fmt.Errorf("error reading stream: %w", err)})
	}

	decoder.Flush(emit)
}

// buildHTTPRequest creates an HTTP request for the chat-completion endpoint.
func (p *Provider) buildHTTPRequest(ctx context.Context, req *ChatCompletionRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	return httpReq, nil
}

// handleErrorResponse maps an HTTP error status to a library error.
func (p *Provider) handleErrorResponse(resp *http.Response, model string) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error ErrorPayload `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		// Fallback to plain text error
		return fmt.Errorf("%s error (HTTP %d): %s", p.dialect.ProviderID, resp.StatusCode, string(body))
	}

	switch resp.StatusCode {
	case 401:
		return llmprovider.ErrInvalidAPIKey
	case 429:
		return &llmprovider.UpstreamError{
			Provider:   p.dialect.ProviderID,
			StatusCode: resp.StatusCode,
			Code:       errResp.Error.Int(),
			Message:    errResp.Error.Message,
			Retryable:  true,
			Err:        llmprovider.ErrRateLimited,
		}
	case 402:
		return &llmprovider.UpstreamError{
			Provider:   p.dialect.ProviderID,
			StatusCode: resp.StatusCode,
			Code:       errResp.Error.Int(),
			Message:    "insufficient credits: " + errResp.Error.Message,
			Retryable:  false,
			Err:        llmprovider.ErrProviderUnavailable,
		}
	case 408:
		return &llmprovider.UpstreamError{
			Provider:   p.dialect.ProviderID,
			StatusCode: resp.StatusCode,
			Code:       errResp.Error.Int(),
			Message:    errResp.Error.Message,
			Retryable:  true,
			Err:        llmprovider.ErrTimeout,
		}
	case 404:
		return &llmprovider.ModelError{
			Model:    model,
			Provider: p.dialect.ProviderID,
			Reason:   errResp.Error.Message,
			Err:      llmprovider.ErrInvalidModel,
		}
	default:
		return &llmprovider.UpstreamError{
			Provider:   p.dialect.ProviderID,
			StatusCode: resp.StatusCode,
			Code:       errResp.Error.Int(),
			Message:    errResp.Error.Message,
			Retryable:  resp.StatusCode >= 500,
			Err:        llmprovider.ErrProviderUnavailable,
		}
	}
}
