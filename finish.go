package llmprovider

// FinishReasonKind is the vendor-independent classification of why a
// generation turn ended.
type FinishReasonKind string

const (
	FinishStop          FinishReasonKind = "stop"
	FinishLength        FinishReasonKind = "length"
	FinishContentFilter FinishReasonKind = "content-filter"
	FinishToolCalls     FinishReasonKind = "tool-calls"
	FinishError         FinishReasonKind = "error"
	FinishOther         FinishReasonKind = "other"
)

// FinishReason pairs the unified classification with the vendor's original
// string, which is retained for diagnostics and passthrough.
type FinishReason struct {
	Unified FinishReasonKind
	Raw     string
}

// NewFinishReason synthesizes a reason with an explicit unified value and an
// optional original raw string. Used when a decoder overrides what the
// vendor reported (for example the encrypted-reasoning tool-call override).
func NewFinishReason(unified FinishReasonKind, raw string) FinishReason {
	return FinishReason{Unified: unified, Raw: raw}
}
