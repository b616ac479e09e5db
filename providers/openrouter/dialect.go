package openrouter

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"
)

//go:embed config/dialects.yaml
var dialectsYAML []byte

// Dialect Philosophy:
//
// Several gateways speak the same chat-completion shape but spell the
// reasoning fields differently. Rather than forking the decoders per
// vendor, a dialect names the spelling and a canonicalization step rewrites
// incoming bodies to the canonical field names before the shared decoders
// run. Everything downstream of canonicalize sees exactly one schema.
//
// The embedded table covers the known dialects. Library users can override
// or extend it by:
//  1. Calling LoadDialectsFromFile() with custom YAML
//  2. Calling RegisterDialect() programmatically

// Dialect describes one spelling of the chat-completion wire format.
type Dialect struct {
	Name                  string `yaml:"-"`
	ProviderID            string `yaml:"provider_id"`
	BaseURL               string `yaml:"base_url"`
	ReasoningField        string `yaml:"reasoning_field"`
	ReasoningDetailsField string `yaml:"reasoning_details_field"`
}

// dialectConfig is the embedded YAML document shape.
type dialectConfig struct {
	Version     string              `yaml:"version"`
	LastUpdated string              `yaml:"last_updated"`
	Dialects    map[string]*Dialect `yaml:"dialects"`
}

// DialectRegistry manages the known dialects.
type DialectRegistry struct {
	dialects map[string]*Dialect
	mu       sync.RWMutex
}

var (
	dialectRegistry     *DialectRegistry
	dialectRegistryOnce sync.Once
)

// GetDialectRegistry returns the global dialect registry (singleton).
func GetDialectRegistry() *DialectRegistry {
	dialectRegistryOnce.Do(func() {
		dialectRegistry = &DialectRegistry{
			dialects: make(map[string]*Dialect),
		}
		if err := dialectRegistry.loadEmbedded(); err != nil {
			// Log but don't panic - GetDialect will report the miss.
			fmt.Printf("Warning: failed to load embedded dialects: %v\n", err)
		}
	})
	return dialectRegistry
}

func (r *DialectRegistry) loadEmbedded() error {
	var cfg dialectConfig
	if err := yaml.Unmarshal(dialectsYAML, &cfg); err != nil {
		return fmt.Errorf("failed to unmarshal dialect config: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, d := range cfg.Dialects {
		d.Name = name
		r.dialects[name] = d
	}
	return nil
}

// Get returns the named dialect.
func (r *DialectRegistry) Get(name string) (*Dialect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dialects[name]
	if !ok {
		return nil, fmt.Errorf("no dialect registered under name: %s", name)
	}
	return d, nil
}

// Register adds or replaces a dialect programmatically.
func (r *DialectRegistry) Register(d *Dialect) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("dialect must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialects[d.Name] = d
	return nil
}

// LoadDialectsFromFile merges dialects from a custom YAML file into the
// global registry, overriding embedded entries with the same name.
func LoadDialectsFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read dialect file: %w", err)
	}

	var cfg dialectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to unmarshal dialect file: %w", err)
	}

	r := GetDialectRegistry()
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, d := range cfg.Dialects {
		d.Name = name
		r.dialects[name] = d
	}
	return nil
}

// GetDialect returns the named dialect from the global registry.
func GetDialect(name string) (*Dialect, error) {
	return GetDialectRegistry().Get(name)
}

// RegisterDialect adds a dialect to the global registry.
func RegisterDialect(d *Dialect) error {
	return GetDialectRegistry().Register(d)
}

// choicePath distinguishes where a choice's message lives in the body.
type choicePath string

const (
	batchPath  choicePath = "message" // choices[i].message
	streamPath choicePath = "delta"   // choices[i].delta
)

// fieldRename maps one dialect field spelling to its canonical name.
type fieldRename struct {
	from, to string
}

// renames lists the per-choice field rewrites this dialect needs. Empty for
// dialects already in canonical spelling.
func (d *Dialect) renames() []fieldRename {
	var r []fieldRename
	if d.ReasoningField != "" && d.ReasoningField != "reasoning" {
		r = append(r, fieldRename{d.ReasoningField, "reasoning"})
	}
	if d.ReasoningDetailsField != "" && d.ReasoningDetailsField != "reasoning_details" {
		r = append(r, fieldRename{d.ReasoningDetailsField, "reasoning_details"})
	}
	return r
}

// canonicalize rewrites a response body into the canonical field spelling.
// For the canonical dialect this is a no-op returning the input slice
// unchanged, so the hot path allocates nothing.
func (d *Dialect) canonicalize(body []byte, path choicePath) ([]byte, error) {
	renames := d.renames()
	if len(renames) == 0 {
		return body, nil
	}

	out := body
	choices := gjson.GetBytes(body, "choices")
	if !choices.IsArray() {
		return body, nil
	}

	var err error
	n := int(choices.Get("#").Int())
	for i := 0; i < n; i++ {
		base := "choices." + strconv.Itoa(i) + "." + string(path) + "."
		for _, rn := range renames {
			field := base + rn.from
			val := gjson.GetBytes(out, field)
			if !val.Exists() {
				continue
			}
			out, err = sjson.SetRawBytes(out, base+rn.to, []byte(val.Raw))
			if err != nil {
				return nil, fmt.Errorf("failed to canonicalize %s: %w", field, err)
			}
			out, err = sjson.DeleteBytes(out, field)
			if err != nil {
				return nil, fmt.Errorf("failed to canonicalize %s: %w", field, err)
			}
		}
	}
	return out, nil
}
