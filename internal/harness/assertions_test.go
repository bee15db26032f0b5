package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/layout"
	"github.com/roach88/variantforge/internal/store"
)

func sampleResult() *Result {
	r := NewResult()
	r.AddStep(StepResult{Component: "1:1", Placed: 2, Failures: []FailureRecord{
		{Index: 1, NestedIndex: -1, Code: "COMBINATION_REJECTED"},
	}})
	r.AddStep(StepResult{Component: "2:1", Placed: 1, Failures: []FailureRecord{
		{Index: 0, Nested: "icon", NestedIndex: 1, Code: "NESTED_REJECTED"},
	}})
	r.Export = document.Export{Page: "P", Placements: []document.Placement{
		{Name: "P / A_1", X: 0, Y: 0, Properties: map[string]string{"Size": "S", "On": "true"}},
		{Name: "P / A_2", X: 10, Y: 0, Properties: map[string]string{"Size": "L", "On": "true"}},
		{Name: "P / A_1", X: 20, Y: 0, Properties: map[string]string{"Size": "S", "On": "false"}},
	}}
	r.Cursor = layout.Cursor{X: 30, Y: 0}
	r.Runs = []store.Run{{ID: "run-2", Status: store.RunCompleted}, {ID: "run-1", Status: store.RunAborted}}
	r.Live = 3
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertPlacedCount, Count: 3},
		{Type: AssertFailureCount, Count: 2},
		{Type: AssertFailureCount, Code: "NESTED_REJECTED", Count: 1},
		{Type: AssertFailureCount, Code: "PLACEMENT_FAILED", Count: 0},
		{Type: AssertPlacement, Name: "P / A_2", X: 10, Properties: map[string]string{"Size": "L"}},
		{Type: AssertPlacement, Name: "P / A_1", X: 20, Properties: map[string]string{"On": "false"}},
		{Type: AssertCursor, X: 30},
		{Type: AssertRunStatus, Status: store.RunAborted, Count: 1},
		{Type: AssertLiveInstances, Count: 3},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		contains  []string
	}{
		{
			name:      "placed count",
			assertion: Assertion{Type: AssertPlacedCount, Count: 1},
			contains:  []string{"Expected: 1 placed instances", "Actual: 3 placed instances", "[3] P / A_1 at (20, 0)"},
		},
		{
			name:      "failure count by code",
			assertion: Assertion{Type: AssertFailureCount, Code: "COMBINATION_REJECTED", Count: 2},
			contains:  []string{"Expected: 2 COMBINATION_REJECTED failures", "Actual: 1 COMBINATION_REJECTED failures"},
		},
		{
			name:      "placement position",
			assertion: Assertion{Type: AssertPlacement, Name: "P / A_2", X: 99},
			contains:  []string{"Expected: P / A_2 at (99, 0)", "Actual: P / A_2 at (10, 0)"},
		},
		{
			name:      "placement properties",
			assertion: Assertion{Type: AssertPlacement, Name: "P / A_2", X: 10, Properties: map[string]string{"Size": "S"}},
			contains:  []string{"Expected: P / A_2 with properties {Size=S}", "Actual: properties {On=true, Size=L}"},
		},
		{
			name:      "placement missing",
			assertion: Assertion{Type: AssertPlacement, Name: "P / B_1"},
			contains:  []string{"Expected: instance named P / B_1", "Actual: not placed", "Placed instances:"},
		},
		{
			name:      "cursor",
			assertion: Assertion{Type: AssertCursor, X: 0, Y: 60},
			contains:  []string{"Expected: cursor at (0, 60)", "Actual: cursor at (30, 0)"},
		},
		{
			name:      "run status",
			assertion: Assertion{Type: AssertRunStatus, Status: store.RunCompleted, Count: 2},
			contains:  []string{"Expected: 2 completed runs", "Actual: 1 completed runs"},
		},
		{
			name:      "live instances",
			assertion: Assertion{Type: AssertLiveInstances, Count: 0},
			contains:  []string{"Expected: 0 live instances", "Actual: 3 live instances"},
		},
		{
			name:      "unknown type",
			assertion: Assertion{Type: "trace_order"},
			contains:  []string{`assertion[0]: unknown assertion type "trace_order"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			for _, want := range tt.contains {
				assert.Contains(t, errs[0], want)
			}
		})
	}
}

func TestMatchProperties(t *testing.T) {
	actual := map[string]string{"Size": "S", "On": "true"}

	assert.True(t, matchProperties(actual, nil))
	assert.True(t, matchProperties(actual, map[string]string{"On": "true"}))
	assert.False(t, matchProperties(actual, map[string]string{"On": "false"}))
	assert.False(t, matchProperties(nil, map[string]string{"On": "true"}))
}
