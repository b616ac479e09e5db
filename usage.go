package llmprovider

import "encoding/json"

// Usage is the canonical token/cost accounting record for one generation
// turn.
//
// Token counts default to 0 when the server omits them: an undercount is
// non-destructive. Monetary fields follow a stricter policy, because a
// silent $0 is worse than a visible corruption:
//   - a nil Cost/CostDetails means the server never claimed the value
//     existed ("unknown");
//   - a NaN inside a present field means the server claimed it existed but
//     the value was missing or unparseable.
//
// 0 is never synthesized for money.
type Usage struct {
	// PromptTokens is the number of input tokens billed.
	PromptTokens int

	// CompletionTokens is the number of output tokens billed.
	CompletionTokens int

	// TotalTokens is the server-reported total, or PromptTokens +
	// CompletionTokens when the server omits it.
	TotalTokens int

	// CachedPromptTokens is the cached subset of the prompt, when reported.
	CachedPromptTokens *int

	// ReasoningTokens is the reasoning subset of the completion, when
	// reported.
	ReasoningTokens *int

	// Cost is the total charge for the turn, when the server reports one.
	Cost *float64

	// CostDetails breaks the cost down, when the server reports it.
	CostDetails *CostDetails

	// Raw is the server's original usage object, kept verbatim for
	// diagnostics alongside the normalized fields.
	Raw json.RawMessage
}

// CostDetails is the cost breakdown sub-object.
type CostDetails struct {
	// UpstreamInferenceCost is what the upstream provider charged. NaN when
	// the parent object was present but this field was absent or not a
	// number.
	UpstreamInferenceCost float64
}
