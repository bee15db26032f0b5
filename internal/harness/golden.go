package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/layout"
)

// Snapshot is the golden form of a scenario execution: what each request
// did and where every instance ended up.
type Snapshot struct {
	Scenario   string               `json:"scenario"`
	Page       string               `json:"page"`
	Steps      []StepResult         `json:"steps"`
	Placements []document.Placement `json:"placements"`
	Cursor     layout.Cursor        `json:"cursor"`
}

// NewSnapshot builds the snapshot of result for the named scenario.
func NewSnapshot(name string, result *Result) Snapshot {
	placements := result.Export.Placements
	if placements == nil {
		placements = []document.Placement{}
	}
	return Snapshot{
		Scenario:   name,
		Page:       result.Export.Page,
		Steps:      result.Steps,
		Placements: placements,
		Cursor:     result.Cursor,
	}
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
// Map keys are sorted, so output is stable across runs.
func (s Snapshot) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass and Errors.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the named golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
