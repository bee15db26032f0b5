package harness

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/variantforge/internal/document"
)

// AssertionError is returned when an assertion fails.
// It includes the placed instances to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Placed   []document.Placement
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Placed) > 0 {
		fmt.Fprintf(&buf, "\nPlaced instances:\n")
		for i, p := range e.Placed {
			fmt.Fprintf(&buf, "  [%d] %s at (%g, %g) %v\n", i+1, p.Name, p.X, p.Y, p.Properties)
		}
	}

	return buf.String()
}

func assertPlacedCount(result *Result, a Assertion) error {
	if got := len(result.Export.Placements); got != a.Count {
		return &AssertionError{
			Type:     AssertPlacedCount,
			Expected: fmt.Sprintf("%d placed instances", a.Count),
			Actual:   fmt.Sprintf("%d placed instances", got),
			Placed:   result.Export.Placements,
		}
	}
	return nil
}

// assertFailureCount counts failures across every step. An empty code
// counts all of them.
func assertFailureCount(result *Result, a Assertion) error {
	count := 0
	for _, f := range result.Failures() {
		if a.Code == "" || f.Code == a.Code {
			count++
		}
	}
	if count != a.Count {
		what := "failures"
		if a.Code != "" {
			what = a.Code + " failures"
		}
		return &AssertionError{
			Type:     AssertFailureCount,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
		}
	}
	return nil
}

// assertPlacement checks that an instance with the given name sits at x/y
// with a subset of the given properties. Names restart with every request,
// so any instance with the name may satisfy it.
func assertPlacement(result *Result, a Assertion) error {
	var mismatch error
	for _, p := range result.Export.Placements {
		if p.Name != a.Name {
			continue
		}
		switch {
		case p.X != a.X || p.Y != a.Y:
			mismatch = &AssertionError{
				Type:     AssertPlacement,
				Expected: fmt.Sprintf("%s at (%g, %g)", a.Name, a.X, a.Y),
				Actual:   fmt.Sprintf("%s at (%g, %g)", p.Name, p.X, p.Y),
			}
		case !matchProperties(p.Properties, a.Properties):
			mismatch = &AssertionError{
				Type:     AssertPlacement,
				Expected: fmt.Sprintf("%s with properties %s", a.Name, formatProperties(a.Properties)),
				Actual:   fmt.Sprintf("properties %s", formatProperties(p.Properties)),
			}
		default:
			return nil
		}
	}
	if mismatch != nil {
		return mismatch
	}
	return &AssertionError{
		Type:     AssertPlacement,
		Expected: fmt.Sprintf("instance named %s", a.Name),
		Actual:   "not placed",
		Placed:   result.Export.Placements,
	}
}

func assertCursor(result *Result, a Assertion) error {
	if result.Cursor.X != a.X || result.Cursor.Y != a.Y {
		return &AssertionError{
			Type:     AssertCursor,
			Expected: fmt.Sprintf("cursor at (%g, %g)", a.X, a.Y),
			Actual:   fmt.Sprintf("cursor at (%g, %g)", result.Cursor.X, result.Cursor.Y),
		}
	}
	return nil
}

func assertRunStatus(result *Result, a Assertion) error {
	count := 0
	for _, r := range result.Runs {
		if r.Status == a.Status {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertRunStatus,
			Expected: fmt.Sprintf("%d %s runs", a.Count, a.Status),
			Actual:   fmt.Sprintf("%d %s runs", count, a.Status),
		}
	}
	return nil
}

func assertLiveInstances(result *Result, a Assertion) error {
	if result.Live != a.Count {
		return &AssertionError{
			Type:     AssertLiveInstances,
			Expected: fmt.Sprintf("%d live instances", a.Count),
			Actual:   fmt.Sprintf("%d live instances", result.Live),
		}
	}
	return nil
}

// matchProperties reports whether actual contains every key of expected
// with the same value.
func matchProperties(actual, expected map[string]string) bool {
	for k, v := range expected {
		if got, ok := actual[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// formatProperties renders properties with sorted keys for stable messages.
func formatProperties(props map[string]string) string {
	keys := slices.Sorted(maps.Keys(props))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + props[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertPlacedCount:
			err = assertPlacedCount(result, assertion)
		case AssertFailureCount:
			err = assertFailureCount(result, assertion)
		case AssertPlacement:
			err = assertPlacement(result, assertion)
		case AssertCursor:
			err = assertCursor(result, assertion)
		case AssertRunStatus:
			err = assertRunStatus(result, assertion)
		case AssertLiveInstances:
			err = assertLiveInstances(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
