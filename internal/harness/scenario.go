package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/encore/internal/pipeline"
)

// Scenario defines a conformance test scenario.
//
// A scenario declares a pipeline of scripted hooks, runs it through the
// real runner under a recording session, and asserts on the resulting
// trace, result, and captured manifest.
type Scenario struct {
	// Name uniquely identifies this scenario (also the golden file name).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RngSeed seeds the scenario's recording session.
	// Defaults to 1 for deterministic golden comparison.
	RngSeed int64 `yaml:"rng_seed,omitempty"`

	// Hooks declares the pipeline in declaration order.
	Hooks []HookStep `yaml:"hooks"`

	// Assertions validate the run outcome.
	// Supported types: order, errors, success, aborts
	Assertions []Assertion `yaml:"assertions"`
}

// HookStep scripts one hook's behavior.
type HookStep struct {
	// ID uniquely identifies the hook within the scenario.
	ID string `yaml:"id"`

	// Phase is the canonical phase name (preflight, before, execute,
	// after, emit, finalize).
	Phase string `yaml:"phase"`

	// Outcome is "ok" (default) or "fail".
	Outcome string `yaml:"outcome,omitempty"`

	// Message is the error text when Outcome is "fail".
	Message string `yaml:"message,omitempty"`

	// Draws is the number of random floats the hook consumes from the
	// session's RNG.
	Draws int `yaml:"draws,omitempty"`

	// Effect optionally records one external interaction.
	Effect *EffectStep `yaml:"effect,omitempty"`
}

// EffectStep scripts a recorded effect interaction.
type EffectStep struct {
	Type   string         `yaml:"type"`
	Intent map[string]any `yaml:"intent"`
	Result map[string]any `yaml:"result"`
}

// Assertion validates one aspect of a finished run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "order": executed hooks appear exactly in Hooks order
	// - "errors": the result captured exactly Count error entries
	// - "success": the result's success flag equals Value
	// - "aborts": the run returns a fail-fast error from hook Hook
	Type string `yaml:"type"`

	// Hooks is the expected execution order (used by order).
	Hooks []string `yaml:"hooks,omitempty"`

	// Count is the expected error entry count (used by errors).
	Count int `yaml:"count,omitempty"`

	// Value is the expected success flag (used by success).
	Value bool `yaml:"value,omitempty"`

	// Hook is the hook expected to abort the run (used by aborts).
	Hook string `yaml:"hook,omitempty"`
}

// Assertion type constants.
const (
	AssertOrder   = "order"
	AssertErrors  = "errors"
	AssertSuccess = "success"
	AssertAborts  = "aborts"
)

// Hook outcome constants.
const (
	OutcomeOK   = "ok"
	OutcomeFail = "fail"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected to catch typos early.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks required fields and normalizes defaults.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Hooks) == 0 {
		return fmt.Errorf("hooks list is required and must be non-empty")
	}
	if s.RngSeed == 0 {
		s.RngSeed = 1
	}

	for i, h := range s.Hooks {
		if h.ID == "" {
			return fmt.Errorf("hooks[%d]: id is required", i)
		}
		if _, err := pipeline.ParsePhase(h.Phase); err != nil {
			return fmt.Errorf("hooks[%d]: %w", i, err)
		}
		switch h.Outcome {
		case "", OutcomeOK, OutcomeFail:
		default:
			return fmt.Errorf("hooks[%d]: unknown outcome %q", i, h.Outcome)
		}
		if h.Outcome == OutcomeFail && h.Message == "" {
			return fmt.Errorf("hooks[%d]: message is required when outcome is fail", i)
		}
		if h.Draws < 0 {
			return fmt.Errorf("hooks[%d]: draws must be non-negative", i)
		}
		if h.Effect != nil && h.Effect.Type == "" {
			return fmt.Errorf("hooks[%d]: effect type is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertOrder:
		if len(a.Hooks) == 0 {
			return fmt.Errorf("assertions[%d]: hooks list is required for order", index)
		}
	case AssertErrors:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for errors", index)
		}
	case AssertSuccess:
		// Value defaults to false; nothing further to validate.
	case AssertAborts:
		if a.Hook == "" {
			return fmt.Errorf("assertions[%d]: hook is required for aborts", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
