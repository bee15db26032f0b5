package harness

import (
	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/layout"
	"github.com/roach88/variantforge/internal/store"
)

// StepResult is the outcome of one request.
type StepResult struct {
	Component string `yaml:"component" json:"component"`
	// Code is empty when the request completed.
	Code     string          `yaml:"code,omitempty" json:"code,omitempty"`
	Notice   string          `yaml:"notice,omitempty" json:"notice,omitempty"`
	RunID    string          `yaml:"run,omitempty" json:"run,omitempty"`
	Placed   int             `yaml:"placed" json:"placed"`
	FastPath bool            `yaml:"fast_path" json:"fast_path"`
	Failures []FailureRecord `yaml:"failures,omitempty" json:"failures,omitempty"`
}

// FailureRecord is a discarded combination in a step.
type FailureRecord struct {
	Index       int    `yaml:"index" json:"index"`
	Nested      string `yaml:"nested,omitempty" json:"nested,omitempty"`
	NestedIndex int    `yaml:"nested_index" json:"nested_index"`
	Code        string `yaml:"code" json:"code"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Steps  []StepResult    `json:"steps"`
	Export document.Export `json:"export"`
	Cursor layout.Cursor   `json:"cursor"`
	Runs   []store.Run     `json:"runs,omitempty"`
	Live   int             `json:"live_instances"`
	Errors []string        `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a request outcome.
func (r *Result) AddStep(s StepResult) {
	r.Steps = append(r.Steps, s)
}

// Failures returns every failure across steps.
func (r *Result) Failures() []FailureRecord {
	var out []FailureRecord
	for _, s := range r.Steps {
		out = append(out, s.Failures...)
	}
	return out
}
