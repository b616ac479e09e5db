package llmprovider

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrInvalidModel indicates the requested model is not supported by the provider.
	ErrInvalidModel = errors.New("llmprovider: invalid or unsupported model")

	// ErrInvalidAPIKey indicates the API key is missing, malformed, or unauthorized.
	ErrInvalidAPIKey = errors.New("llmprovider: invalid API key")

	// ErrRateLimited indicates the provider's rate limit has been exceeded.
	ErrRateLimited = errors.New("llmprovider: rate limit exceeded")

	// ErrProviderUnavailable indicates the provider service is down or unreachable.
	ErrProviderUnavailable = errors.New("llmprovider: provider unavailable")

	// ErrTimeout indicates the provider did not answer in time.
	ErrTimeout = errors.New("llmprovider: request timed out")
)

// ProtocolError indicates the provider sent a payload that violates its own
// wire protocol: an unparseable chunk, or a new tool call missing required
// sub-fields. Batch decoding aborts on it; stream decoding reports it as an
// inline error event and continues with the next chunk, so one corrupt chunk
// does not discard content already delivered.
type ProtocolError struct {
	Provider string // provider id
	Reason   string // what was malformed
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("provider '%s' protocol error: %s", e.Provider, e.Reason)
}

// UpstreamError is an explicit error object returned by the vendor, whether
// it arrived with an HTTP error status or embedded in a 200 body. The vendor
// message and numeric code are preserved.
type UpstreamError struct {
	Provider   string
	StatusCode int // HTTP status, 0 when the error arrived in a 200 body
	Code       int // vendor error code, 0 when absent
	Message    string
	Retryable  bool
	Err        error // wrapped sentinel (ErrRateLimited, ErrProviderUnavailable, ...)
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider '%s' error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider '%s' error: %s", e.Provider, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NoContentError indicates an otherwise well-formed response carried zero
// choices.
type NoContentError struct {
	Provider string
}

func (e *NoContentError) Error() string {
	return fmt.Sprintf("provider '%s': no content generated", e.Provider)
}

// ModelError represents an error related to model validation or availability.
type ModelError struct {
	Model    string // The model that was requested
	Provider string // The provider name
	Reason   string // Human-readable explanation
	Err      error  // Wrapped error (usually ErrInvalidModel)
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model '%s' for provider '%s': %s (%v)", e.Model, e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("model '%s' for provider '%s': %s", e.Model, e.Provider, e.Reason)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error is potentially retryable.
// Returns true for rate limits and temporary unavailability. Retrying is the
// transport caller's decision; the decoders never retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Retryable
	}

	if errors.Is(err, ErrRateLimited) {
		return true
	}

	if errors.Is(err, ErrProviderUnavailable) {
		return true
	}

	return false
}

// IsAuthError checks if an error is related to authentication.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidAPIKey) {
		return true
	}

	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		// HTTP 401/403 indicate auth issues
		return upstreamErr.StatusCode == 401 || upstreamErr.StatusCode == 403
	}

	return false
}
