// Package pipeline contains the multi-provider orchestration core:
// pipeline configuration, the per-request event stream, and the
// orchestrator state machine that classifies, fans out, and synthesizes.
package pipeline

import (
	"fmt"
	"strings"

	aierrors "github.com/mmichie/ensemble/pkg/ensemble/errors"
	"github.com/mmichie/ensemble/pkg/ensemble/intent"
)

// ModelRef names a concrete model together with the provider tag that
// serves it. The explicit tag replaces any name-prefix dispatch.
type ModelRef struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// String implements fmt.Stringer
func (m ModelRef) String() string {
	return m.Provider + "/" + m.Model
}

// Config is one named pipeline configuration: the two base models run
// in parallel and the synthesizer merges their drafts. Read-only at
// request time.
type Config struct {
	Name        string   `json:"name"`
	BaseA       ModelRef `json:"base_a"`
	BaseB       ModelRef `json:"base_b"`
	Synthesizer ModelRef `json:"synthesizer"`

	// Temperature applied to the base and synthesis calls; zero means
	// provider default.
	Temperature float64 `json:"temperature,omitempty"`
}

// Validate checks the configuration is fully specified
func (c Config) Validate() error {
	var problems []string

	if c.Name == "" {
		problems = append(problems, "name is required")
	}
	for _, ref := range []struct {
		label string
		ref   ModelRef
	}{
		{"base_a", c.BaseA},
		{"base_b", c.BaseB},
		{"synthesizer", c.Synthesizer},
	} {
		if ref.ref.Provider == "" {
			problems = append(problems, ref.label+" provider is required")
		}
		if ref.ref.Model == "" {
			problems = append(problems, ref.label+" model is required")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Registry maps intents to pipeline configurations. It is built once at
// startup and immutable afterwards.
type Registry struct {
	entries map[intent.Intent]Config
}

// NewRegistry creates a registry from validated entries
func NewRegistry(entries map[intent.Intent]Config) (*Registry, error) {
	if len(entries) == 0 {
		return nil, aierrors.New("pipeline", "new_registry",
			fmt.Errorf("at least one pipeline configuration is required"))
	}

	copied := make(map[intent.Intent]Config, len(entries))
	for it, cfg := range entries {
		if err := cfg.Validate(); err != nil {
			return nil, aierrors.New("pipeline", "new_registry",
				fmt.Errorf("pipeline for intent %s: %w", it, err))
		}
		copied[it] = cfg
	}

	return &Registry{entries: copied}, nil
}

// Lookup resolves the configuration for an intent. A missing entry is a
// programming-invariant violation and fails loudly.
func (r *Registry) Lookup(it intent.Intent) (Config, error) {
	cfg, ok := r.entries[it]
	if !ok {
		return Config{}, aierrors.New("pipeline", "lookup",
			fmt.Errorf("%w: %s", aierrors.ErrPipelineNotRegistered, it))
	}
	return cfg, nil
}

// DefaultRegistry returns the reference configuration: one pipeline per
// intent, both fanning out to OpenAI and Gemini base models.
func DefaultRegistry() *Registry {
	registry, err := NewRegistry(map[intent.Intent]Config{
		intent.Factual: {
			Name:        "Factual Analysis Pipeline",
			BaseA:       ModelRef{Provider: "openai", Model: "gpt-4o"},
			BaseB:       ModelRef{Provider: "gemini", Model: "gemini-1.5-pro"},
			Synthesizer: ModelRef{Provider: "openai", Model: "gpt-4o"},
			Temperature: 0.3,
		},
		intent.Creative: {
			Name:        "Creative Writing Pipeline",
			BaseA:       ModelRef{Provider: "openai", Model: "gpt-4o"},
			BaseB:       ModelRef{Provider: "gemini", Model: "gemini-1.5-pro"},
			Synthesizer: ModelRef{Provider: "openai", Model: "gpt-4o"},
			Temperature: 0.9,
		},
	})
	if err != nil {
		// The reference configuration is statically correct
		panic(err)
	}
	return registry
}
