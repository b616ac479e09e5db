package openrouter

import (
	"testing"
)

// TestGetDialect_Embedded tests that the embedded table loads both dialects
func TestGetDialect_Embedded(t *testing.T) {
	tests := []struct {
		name           string
		providerID     string
		reasoningField string
	}{
		{"openrouter", "openrouter", "reasoning"},
		{"compat", "compat", "reasoningText"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := GetDialect(tt.name)
			if err != nil {
				t.Fatalf("GetDialect(%s) error = %v", tt.name, err)
			}
			if d.ProviderID != tt.providerID {
				t.Errorf("ProviderID = %s, expected %s", d.ProviderID, tt.providerID)
			}
			if d.ReasoningField != tt.reasoningField {
				t.Errorf("ReasoningField = %s, expected %s", d.ReasoningField, tt.reasoningField)
			}
		})
	}
}

// TestGetDialect_Unknown tests the miss path
func TestGetDialect_Unknown(t *testing.T) {
	if _, err := GetDialect("nonexistent"); err == nil {
		t.Errorf("expected error for unknown dialect")
	}
}

// TestRegisterDialect tests programmatic registration
func TestRegisterDialect(t *testing.T) {
	err := RegisterDialect(&Dialect{
		Name:           "custom-gateway",
		ProviderID:     "compat",
		ReasoningField: "reasoningText",
	})
	if err != nil {
		t.Fatalf("RegisterDialect error = %v", err)
	}

	d, err := GetDialect("custom-gateway")
	if err != nil {
		t.Fatalf("GetDialect error = %v", err)
	}
	if d.ReasoningField != "reasoningText" {
		t.Errorf("ReasoningField = %s", d.ReasoningField)
	}

	if err := RegisterDialect(&Dialect{}); err == nil {
		t.Errorf("expected error for unnamed dialect")
	}
}

// TestCanonicalize tests field-spelling normalization per dialect
func TestCanonicalize(t *testing.T) {
	compat, err := GetDialect("compat")
	if err != nil {
		t.Fatalf("GetDialect error = %v", err)
	}
	canonical, err := GetDialect("openrouter")
	if err != nil {
		t.Fatalf("GetDialect error = %v", err)
	}

	camel := &Dialect{
		Name:                  "camel",
		ProviderID:            "compat",
		ReasoningField:        "reasoningText",
		ReasoningDetailsField: "reasoningDetails",
	}
	detailsOnly := &Dialect{
		Name:                  "details-only",
		ProviderID:            "compat",
		ReasoningField:        "reasoning",
		ReasoningDetailsField: "thinking_details",
	}

	tests := []struct {
		name    string
		dialect *Dialect
		path    choicePath
		in      string
		want    string
	}{
		{
			name:    "compat renames delta field",
			dialect: compat,
			path:    streamPath,
			in:      `{"choices":[{"delta":{"reasoningText":"thinking"}}]}`,
			want:    `{"choices":[{"delta":{"reasoning":"thinking"}}]}`,
		},
		{
			name:    "compat renames message field",
			dialect: compat,
			path:    batchPath,
			in:      `{"choices":[{"message":{"reasoningText":"thinking","content":"hi"}}]}`,
			want:    `{"choices":[{"message":{"content":"hi","reasoning":"thinking"}}]}`,
		},
		{
			name:    "compat leaves absent field alone",
			dialect: compat,
			path:    streamPath,
			in:      `{"choices":[{"delta":{"content":"hi"}}]}`,
			want:    `{"choices":[{"delta":{"content":"hi"}}]}`,
		},
		{
			name:    "canonical dialect is a no-op",
			dialect: canonical,
			path:    streamPath,
			in:      `{"choices":[{"delta":{"reasoning":"thinking"}}]}`,
			want:    `{"choices":[{"delta":{"reasoning":"thinking"}}]}`,
		},
		{
			name:    "no choices array is a no-op",
			dialect: compat,
			path:    streamPath,
			in:      `{"error":{"message":"boom"}}`,
			want:    `{"error":{"message":"boom"}}`,
		},
		{
			name:    "both reasoning fields renamed",
			dialect: camel,
			path:    streamPath,
			in:      `{"choices":[{"delta":{"reasoningText":"t","reasoningDetails":[{"type":"reasoning.text","text":"t"}]}}]}`,
			want:    `{"choices":[{"delta":{"reasoning":"t","reasoning_details":[{"type":"reasoning.text","text":"t"}]}}]}`,
		},
		{
			name:    "details field renamed when reasoning field is canonical",
			dialect: detailsOnly,
			path:    batchPath,
			in:      `{"choices":[{"message":{"thinking_details":[{"type":"reasoning.encrypted","data":"AAA"}],"content":"hi"}}]}`,
			want:    `{"choices":[{"message":{"content":"hi","reasoning_details":[{"type":"reasoning.encrypted","data":"AAA"}]}}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.dialect.canonicalize([]byte(tt.in), tt.path)
			if err != nil {
				t.Fatalf("canonicalize error = %v", err)
			}
			if string(out) != tt.want {
				t.Errorf("canonicalize =\n %s\nexpected\n %s", out, tt.want)
			}
		})
	}
}
