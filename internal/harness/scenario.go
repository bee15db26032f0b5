package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/engine"
	"github.com/roach88/variantforge/internal/layout"
)

// Scenario defines a generation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is the inline document the requests run against.
	Document *document.File `yaml:"document,omitempty"`

	// DocumentPath points at a document file instead. Relative paths are
	// resolved against the scenario file.
	DocumentPath string `yaml:"document_path,omitempty"`

	// Grid overrides layout.DefaultGrid.
	Grid *GridSpec `yaml:"grid,omitempty"`

	// Cursor seeds the persisted cursor before the first request.
	Cursor *layout.Cursor `yaml:"cursor,omitempty"`

	// MaxCombinations caps a request's instance count. Zero disables it.
	MaxCombinations int `yaml:"max_combinations,omitempty"`

	// Requests are issued in order, each to completion.
	Requests []RequestStep `yaml:"requests"`

	// Assertions validate the final document and store.
	Assertions []Assertion `yaml:"assertions"`
}

// GridSpec is the YAML form of layout.Grid.
type GridSpec struct {
	Padding  float64 `yaml:"padding"`
	RowWidth float64 `yaml:"row_width"`
}

// Layout returns the layout constants for the scenario.
func (s *Scenario) Layout() layout.Grid {
	if s.Grid == nil {
		return layout.DefaultGrid
	}
	return layout.Grid{Padding: s.Grid.Padding, RowWidth: s.Grid.RowWidth}
}

// RequestStep is one generation request.
type RequestStep struct {
	Component string `yaml:"component"`
	Text      int    `yaml:"text,omitempty"`

	// Expect is checked against the step outcome when present.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Request converts the step into an engine request.
func (r RequestStep) Request() engine.Request {
	return engine.Request{ComponentID: document.NodeID(r.Component), TextSamples: r.Text}
}

// ExpectClause specifies the expected outcome of a request.
type ExpectClause struct {
	// Code is the expected terminal error code. Empty means the request
	// completes.
	Code string `yaml:"code,omitempty"`

	// Placed and Failed are checked when non-nil.
	Placed *int `yaml:"placed,omitempty"`
	Failed *int `yaml:"failed,omitempty"`
}

// Assertion validates the final document or store.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is used by placed_count, failure_count, run_status and
	// live_instances.
	Count int `yaml:"count,omitempty"`

	// Code filters failure_count.
	Code string `yaml:"code,omitempty"`

	// Name, X, Y and Properties are used by placement. Properties is a
	// subset match.
	Name       string            `yaml:"name,omitempty"`
	X          float64           `yaml:"x,omitempty"`
	Y          float64           `yaml:"y,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`

	// Status is used by run_status.
	Status string `yaml:"status,omitempty"`
}

// Assertion type constants.
const (
	AssertPlacedCount   = "placed_count"
	AssertFailureCount  = "failure_count"
	AssertPlacement     = "placement"
	AssertCursor        = "cursor"
	AssertRunStatus     = "run_status"
	AssertLiveInstances = "live_instances"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.DocumentPath != "" && !filepath.IsAbs(scenario.DocumentPath) {
		scenario.DocumentPath = filepath.Join(filepath.Dir(path), scenario.DocumentPath)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	scenarios := make([]*Scenario, 0, len(matches))
	for _, path := range matches {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
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

	switch {
	case s.Document == nil && s.DocumentPath == "":
		return fmt.Errorf("document or document_path is required")
	case s.Document != nil && s.DocumentPath != "":
		return fmt.Errorf("document and document_path are mutually exclusive")
	}

	if s.DocumentPath != "" {
		if _, err := os.Stat(s.DocumentPath); os.IsNotExist(err) {
			return fmt.Errorf("document file not found: %s", s.DocumentPath)
		}
	}

	if s.MaxCombinations < 0 {
		return fmt.Errorf("max_combinations must be non-negative")
	}

	if len(s.Requests) == 0 {
		return fmt.Errorf("requests list is required and must be non-empty")
	}

	for i, r := range s.Requests {
		if r.Component == "" {
			return fmt.Errorf("requests[%d]: component is required", i)
		}
		if r.Text < 0 {
			return fmt.Errorf("requests[%d]: text must be non-negative", i)
		}
		if r.Expect != nil && r.Expect.Code != "" && r.Expect.Placed != nil {
			return fmt.Errorf("requests[%d].expect: placed cannot be combined with an error code", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
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

	switch a.Type {
	case AssertPlacedCount, AssertFailureCount, AssertLiveInstances:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertPlacement:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for placement", index)
		}
	case AssertCursor:
	case AssertRunStatus:
		if a.Status == "" {
			return fmt.Errorf("assertions[%d]: status is required for run_status", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
