package openrouter

import (
	llmprovider "github.com/mkessy/lattice-llm-go"
)

// mapFinishReason classifies the vendor's finish_reason string. The original
// spelling is always retained alongside the classification.
func mapFinishReason(raw string) llmprovider.FinishReason {
	var unified llmprovider.FinishReasonKind
	switch raw {
	case "stop":
		unified = llmprovider.FinishStop
	case "length":
		unified = llmprovider.FinishLength
	case "content_filter":
		unified = llmprovider.FinishContentFilter
	case "function_call", "tool_calls":
		unified = llmprovider.FinishToolCalls
	default:
		unified = llmprovider.FinishOther
	}
	return llmprovider.FinishReason{Unified: unified, Raw: raw}
}

// overrideFinishReason applies the encrypted-reasoning correction: some
// models report "stop" even though they emitted tool calls, whenever their
// reasoning came back encrypted. If tool calls were actually produced, the
// reported reason disagrees, and an encrypted reasoning payload is present,
// the turn is reclassified as tool-calls so agent loops keep running. The
// vendor's raw string survives untouched.
func overrideFinishReason(reason llmprovider.FinishReason, details []llmprovider.ReasoningDetail, hasToolCalls bool) llmprovider.FinishReason {
	if !hasToolCalls {
		return reason
	}
	if reason.Unified == llmprovider.FinishToolCalls {
		return reason
	}
	if !llmprovider.HasEncryptedReasoning(details) {
		return reason
	}
	return llmprovider.NewFinishReason(llmprovider.FinishToolCalls, reason.Raw)
}
