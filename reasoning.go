package llmprovider

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Wire type tags for reasoning details. These match the chat-completion
// dialects' reasoning_details entries and must survive a round trip
// unchanged: reasoning-capable models reject or silently degrade when a
// replayed detail differs from what they emitted.
const (
	reasoningTypeText      = "reasoning.text"
	reasoningTypeSummary   = "reasoning.summary"
	reasoningTypeEncrypted = "reasoning.encrypted"
)

// RedactedReasoningText is the placeholder rendered in place of encrypted
// reasoning payloads. Encrypted data is never surfaced as display text.
const RedactedReasoningText = "[REDACTED]"

// ReasoningDetail is a single entry of a model's intermediate "thinking"
// output. It is a closed union: the only implementations are ReasoningText,
// ReasoningSummary, and ReasoningEncrypted. Detail ordering within a turn
// reflects emission order and is preserved verbatim when replayed into a
// subsequent request.
type ReasoningDetail interface {
	// DisplayText returns the human-renderable form of this detail.
	// Encrypted details return RedactedReasoningText.
	DisplayText() string

	reasoningDetail() // sealed
}

// ReasoningText is plain thinking text, optionally carrying a cryptographic
// signature and a format hint.
type ReasoningText struct {
	Text      string
	Signature string
	Format    string

	// Raw holds the original wire object when this detail was decoded from a
	// response. It is replayed verbatim on marshal so that vendor-specific
	// extra fields (id, index, ...) survive the round trip. Synthesized or
	// merged details have no Raw and are rebuilt from the typed fields.
	Raw json.RawMessage
}

// ReasoningSummary is a model-provided summary of reasoning that happened
// out of band.
type ReasoningSummary struct {
	Summary string
	Raw     json.RawMessage
}

// ReasoningEncrypted is an opaque encrypted reasoning payload. It can only
// be replayed, never rendered.
type ReasoningEncrypted struct {
	Data string
	Raw  json.RawMessage
}

func (*ReasoningText) reasoningDetail()      {}
func (*ReasoningSummary) reasoningDetail()   {}
func (*ReasoningEncrypted) reasoningDetail() {}

func (d *ReasoningText) DisplayText() string    { return d.Text }
func (d *ReasoningSummary) DisplayText() string { return d.Summary }
func (*ReasoningEncrypted) DisplayText() string { return RedactedReasoningText }

// MarshalJSON emits the preserved wire object when present, otherwise
// rebuilds the canonical shape from the typed fields.
func (d *ReasoningText) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	out := map[string]any{
		"type": reasoningTypeText,
		"text": d.Text,
	}
	if d.Signature != "" {
		out["signature"] = d.Signature
	}
	if d.Format != "" {
		out["format"] = d.Format
	}
	return json.Marshal(out)
}

func (d *ReasoningSummary) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	return json.Marshal(map[string]any{
		"type":    reasoningTypeSummary,
		"summary": d.Summary,
	})
}

func (d *ReasoningEncrypted) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	return json.Marshal(map[string]any{
		"type": reasoningTypeEncrypted,
		"data": d.Data,
	})
}

// UnmarshalReasoningDetail decodes a single wire reasoning_details entry.
// Unknown type tags return (nil, nil) so callers can skip entries that a
// newer dialect added without failing the whole response.
func UnmarshalReasoningDetail(raw json.RawMessage) (ReasoningDetail, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("llmprovider: malformed reasoning detail: %s", string(raw))
	}

	preserved := append(json.RawMessage(nil), raw...)
	switch gjson.GetBytes(raw, "type").String() {
	case reasoningTypeText:
		return &ReasoningText{
			Text:      gjson.GetBytes(raw, "text").String(),
			Signature: gjson.GetBytes(raw, "signature").String(),
			Format:    gjson.GetBytes(raw, "format").String(),
			Raw:       preserved,
		}, nil
	case reasoningTypeSummary:
		return &ReasoningSummary{
			Summary: gjson.GetBytes(raw, "summary").String(),
			Raw:     preserved,
		}, nil
	case reasoningTypeEncrypted:
		return &ReasoningEncrypted{
			Data: gjson.GetBytes(raw, "data").String(),
			Raw:  preserved,
		}, nil
	default:
		return nil, nil
	}
}

// ReasoningDetails is a wire-codable ordered list of reasoning details.
type ReasoningDetails []ReasoningDetail

func (ds *ReasoningDetails) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}

	out := make(ReasoningDetails, 0, len(raws))
	for _, raw := range raws {
		d, err := UnmarshalReasoningDetail(raw)
		if err != nil {
			return err
		}
		if d == nil {
			continue // unknown variant, dropped
		}
		out = append(out, d)
	}
	*ds = out
	return nil
}

func (ds ReasoningDetails) MarshalJSON() ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(ds))
	for _, d := range ds {
		raw, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return json.Marshal(raws)
}

// MergeReasoningDetail appends incoming to details, merging it into the last
// entry when both are text-kind: the texts concatenate and the first
// non-empty signature/format wins. Merged entries are synthesized, so their
// preserved Raw is dropped and they re-marshal from the typed fields.
func MergeReasoningDetail(details []ReasoningDetail, incoming ReasoningDetail) []ReasoningDetail {
	if incoming == nil {
		return details
	}

	in, ok := incoming.(*ReasoningText)
	if ok && len(details) > 0 {
		if last, ok := details[len(details)-1].(*ReasoningText); ok {
			details[len(details)-1] = &ReasoningText{
				Text:      last.Text + in.Text,
				Signature: firstNonEmpty(last.Signature, in.Signature),
				Format:    firstNonEmpty(last.Format, in.Format),
			}
			return details
		}
	}
	return append(details, incoming)
}

// HasEncryptedReasoning reports whether any detail is an encrypted variant
// with a non-empty payload.
func HasEncryptedReasoning(details []ReasoningDetail) bool {
	for _, d := range details {
		if enc, ok := d.(*ReasoningEncrypted); ok && enc.Data != "" {
			return true
		}
	}
	return false
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
