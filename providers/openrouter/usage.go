package openrouter

import (
	"encoding/json"
	"math"

	"github.com/tidwall/gjson"

	llmprovider "github.com/mkessy/lattice-llm-go"
)

// normalizeUsage converts the vendor's usage object into the canonical
// accounting record. A nil or empty raw object yields nil: absence of
// accounting is not zero usage.
//
// Token counts default to 0 when absent or mistyped. Monetary fields never
// do: a cost field that is present but not a number becomes NaN, and an
// absent one stays nil, so a billing gap is never read as "free".
func normalizeUsage(raw json.RawMessage) *llmprovider.Usage {
	if len(raw) == 0 {
		return nil
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return nil
	}

	usage := &llmprovider.Usage{
		PromptTokens:     tokenCount(obj.Get("prompt_tokens")),
		CompletionTokens: tokenCount(obj.Get("completion_tokens")),
		Raw:              append(json.RawMessage(nil), raw...),
	}

	if total := obj.Get("total_tokens"); total.Type == gjson.Number {
		usage.TotalTokens = int(total.Int())
	} else {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	if cached := obj.Get("prompt_tokens_details.cached_tokens"); cached.Type == gjson.Number {
		n := int(cached.Int())
		usage.CachedPromptTokens = &n
	}
	if reasoning := obj.Get("completion_tokens_details.reasoning_tokens"); reasoning.Type == gjson.Number {
		n := int(reasoning.Int())
		usage.ReasoningTokens = &n
	}

	if cost := obj.Get("cost"); cost.Exists() {
		v := moneyValue(cost)
		usage.Cost = &v
	}
	if details := obj.Get("cost_details"); details.IsObject() {
		usage.CostDetails = &llmprovider.CostDetails{
			UpstreamInferenceCost: moneyValue(details.Get("upstream_inference_cost")),
		}
	}

	return usage
}

// tokenCount reads a token counter, treating absent or mistyped values as 0.
func tokenCount(v gjson.Result) int {
	if v.Type != gjson.Number {
		return 0
	}
	return int(v.Int())
}

// moneyValue reads a monetary field that the server claimed exists. Anything
// that is not a JSON number becomes NaN, never 0.
func moneyValue(v gjson.Result) float64 {
	if v.Type != gjson.Number {
		return math.NaN()
	}
	return v.Float()
}
