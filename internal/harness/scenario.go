package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/synth"
)

// Scenario defines a conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source describes how the store is built.
	Source Source `yaml:"source"`

	// Assertions are evaluated against the archived and reloaded store.
	Assertions []Assertion `yaml:"assertions"`

	// Golden enables CSV export comparison in RunWithGolden.
	Golden bool `yaml:"golden,omitempty"`
}

// Source holds exactly one store source.
type Source struct {
	Synthetic *synth.Config  `yaml:"synthetic,omitempty"`
	Literal   *LiteralSource `yaml:"literal,omitempty"`

	// File is a draw file. Relative paths are resolved against the scenario
	// file's directory by LoadScenario.
	File string `yaml:"file,omitempty"`
}

// LiteralSource lists scalar variables draw by draw.
type LiteralSource struct {
	Adapt     int               `yaml:"num_adaptive"`
	Variables []LiteralVariable `yaml:"variables"`
}

// LiteralVariable is one scalar variable as [chain][draw].
type LiteralVariable struct {
	Name   string      `yaml:"name"`
	Args   []any       `yaml:"args,omitempty"`
	Chains [][]float64 `yaml:"chains"`
}

// Assertion validates the loaded store or its summary.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Variable is a display-form variable, e.g. theta(3).
	Variable string `yaml:"variable,omitempty"`

	// Chain restricts the assertion to one chain view (shape, value_at,
	// get_error) or is the chain to restrict to (chain_error).
	Chain *int `yaml:"chain,omitempty"`

	// Element is the flat event index (rhat_*, ess_above).
	Element int `yaml:"element,omitempty"`

	Shape []int   `yaml:"shape,omitempty"`
	Index []int   `yaml:"index,omitempty"`
	Value float64 `yaml:"value,omitempty"`
	Count int     `yaml:"count,omitempty"`

	// Code is the expected sample error code, e.g. KEY_NOT_FOUND.
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertKeyPresent  = "key_present"
	AssertKeyCount    = "key_count"
	AssertShape       = "shape"
	AssertValueAt     = "value_at"
	AssertGetError    = "get_error"
	AssertChainError  = "chain_error"
	AssertChainSlices = "chain_slices"
	AssertRHatBelow   = "rhat_below"
	AssertRHatAbove   = "rhat_above"
	AssertESSAbove    = "ess_above"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if f := scenario.Source.File; f != "" && !filepath.IsAbs(f) {
		scenario.Source.File = filepath.Join(filepath.Dir(path), f)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	sources := 0
	if s.Source.Synthetic != nil {
		sources++
	}
	if s.Source.Literal != nil {
		sources++
	}
	if s.Source.File != "" {
		sources++
		if _, err := os.Stat(s.Source.File); os.IsNotExist(err) {
			return fmt.Errorf("draw file not found: %s", s.Source.File)
		}
	}
	if sources != 1 {
		return fmt.Errorf("source must set exactly one of synthetic, literal, file (got %d)", sources)
	}
	if lit := s.Source.Literal; lit != nil {
		if len(lit.Variables) == 0 {
			return fmt.Errorf("source.literal: variables list is required and must be non-empty")
		}
		for i, v := range lit.Variables {
			if v.Name == "" {
				return fmt.Errorf("source.literal.variables[%d]: name is required", i)
			}
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needsVariable := func() error {
		if a.Variable == "" {
			return fmt.Errorf("assertions[%d]: variable is required for %s", index, a.Type)
		}
		if _, err := ir.ParseRef(a.Variable); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		return nil
	}

	switch a.Type {
	case AssertKeyPresent, AssertRHatBelow, AssertRHatAbove, AssertESSAbove:
		return needsVariable()
	case AssertKeyCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for key_count", index)
		}
	case AssertShape:
		return needsVariable()
	case AssertValueAt:
		if len(a.Index) == 0 {
			return fmt.Errorf("assertions[%d]: index is required for value_at", index)
		}
		return needsVariable()
	case AssertGetError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for get_error", index)
		}
		return needsVariable()
	case AssertChainError:
		if a.Chain == nil {
			return fmt.Errorf("assertions[%d]: chain is required for chain_error", index)
		}
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for chain_error", index)
		}
	case AssertChainSlices:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
