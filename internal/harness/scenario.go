package harness

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cqrsgen/internal/config"
)

// DefaultModule is the module path of scenarios that do not set one.
const DefaultModule = "example.com/app"

// Scenario defines a conformance test scenario: an in-memory project and
// the expected outcome of generating it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Module is the Go module path of the project.
	Module string `yaml:"module,omitempty"`

	// Lifecycle is the path of the file asserting the Lifecycle type.
	Lifecycle string `yaml:"lifecycle"`

	// Models lists the model file paths, in generation order.
	Models []string `yaml:"models"`

	// Files holds the project sources keyed by slash separated path.
	Files map[string]string `yaml:"files"`

	// Strict turns near misses into errors.
	Strict bool `yaml:"strict,omitempty"`

	// Discovery selects the tagged type lookups (name or directive).
	Discovery string `yaml:"discovery,omitempty"`

	// Expect describes the outcome.
	Expect Expectation `yaml:"expect"`
}

// Expectation is the expected outcome of a scenario. A scenario expects
// either an error (ErrorCode) or a generated file.
type Expectation struct {
	ErrorCode     string              `yaml:"error_code,omitempty"`
	ErrorContains []string            `yaml:"error_contains,omitempty"`
	Golden        bool                `yaml:"golden,omitempty"`
	Compiles      bool                `yaml:"compiles,omitempty"`
	Contains      []string            `yaml:"contains,omitempty"`
	NotContains   []string            `yaml:"not_contains,omitempty"`
	Queries       map[string][]string `yaml:"queries,omitempty"`
	Commands      map[string][]string `yaml:"commands,omitempty"`
	Effects       []string            `yaml:"effects,omitempty"`
	NearMisses    []string            `yaml:"near_misses,omitempty"`
}

// OutputPath returns the path of the generated file: next to the lifecycle
// file, as the generate command writes it.
func (s *Scenario) OutputPath() string {
	return path.Join(path.Dir(s.Lifecycle), config.DefaultOutputName)
}

// ModulePath returns the scenario's module path, DefaultModule if unset.
func (s *Scenario) ModulePath() string {
	if s.Module == "" {
		return DefaultModule
	}
	return s.Module
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Unknown fields are rejected so that typos like "expects:" fail loudly.
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

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	names := make(map[string]string, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if prev, ok := names[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q is also used by %s", p, s.Name, prev)
		}
		names[s.Name] = p
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Lifecycle == "" {
		return fmt.Errorf("lifecycle is required")
	}
	if len(s.Files) == 0 {
		return fmt.Errorf("files map is required and must be non-empty")
	}

	for _, p := range append([]string{s.Lifecycle}, s.Models...) {
		if path.Ext(p) != ".go" {
			return fmt.Errorf("%s: not a .go file", p)
		}
	}
	for p := range s.Files {
		if p != path.Clean(p) || strings.HasPrefix(p, "/") {
			return fmt.Errorf("files: %q must be a clean relative path", p)
		}
	}

	switch s.Discovery {
	case "", "name", "directive":
	default:
		return fmt.Errorf("discovery must be \"name\" or \"directive\", got %q", s.Discovery)
	}

	return validateExpectation(&s.Expect)
}

// validateExpectation rejects expectations that mix the error and success
// outcomes or expect nothing at all.
func validateExpectation(e *Expectation) error {
	success := e.Golden || e.Compiles || len(e.Contains) > 0 || len(e.NotContains) > 0 ||
		len(e.Queries) > 0 || len(e.Commands) > 0 || len(e.Effects) > 0 || len(e.NearMisses) > 0

	if e.ErrorCode == "" {
		if len(e.ErrorContains) > 0 {
			return fmt.Errorf("expect: error_contains requires error_code")
		}
		if !success {
			return fmt.Errorf("expect: at least one expectation is required")
		}
		return nil
	}
	if success {
		return fmt.Errorf("expect: error_code cannot be combined with expectations on the generated file")
	}
	return nil
}
