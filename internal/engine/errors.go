package engine

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/variantforge/internal/document"
)

// GenerationError is an error raised while serving a generation request.
//
// Terminal codes abandon the whole request. Recoverable codes discard one
// combination or one nested clone and the run continues.
type GenerationError struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// ComponentID identifies the component set being generated.
	ComponentID document.NodeID

	// Index is the top-level combination index, or -1 when not applicable.
	Index int

	// Nested is the exposed instance ID for nested failures.
	Nested string

	cause error
}

// Code categorizes generation errors.
type Code string

const (
	// CodeComponentNotFound indicates the requested component set is gone.
	CodeComponentNotFound Code = "COMPONENT_NOT_FOUND"

	// CodeNoTemplate indicates the component set has no child to instantiate.
	CodeNoTemplate Code = "NO_TEMPLATE"

	// CodeSchemaUnreadable indicates the property definitions could not be read.
	CodeSchemaUnreadable Code = "SCHEMA_UNREADABLE"

	// CodeTooManyCombinations indicates the configured combination guard tripped.
	CodeTooManyCombinations Code = "TOO_MANY_COMBINATIONS"

	// CodePersistenceFailed indicates the cursor or run log could not be
	// read or written.
	CodePersistenceFailed Code = "PERSISTENCE_FAILED"

	// CodeCombinationRejected indicates a top-level combination was rejected.
	CodeCombinationRejected Code = "COMBINATION_REJECTED"

	// CodeNestedRejected indicates a nested combination was rejected.
	CodeNestedRejected Code = "NESTED_REJECTED"

	// CodePlacementFailed indicates a clone could not be created, named or placed.
	CodePlacementFailed Code = "PLACEMENT_FAILED"
)

// Terminal reports whether the code abandons the whole request.
func (c Code) Terminal() bool {
	switch c {
	case CodeCombinationRejected, CodeNestedRejected, CodePlacementFailed:
		return false
	}
	return true
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.ComponentID != "" {
		fmt.Fprintf(&b, " (component=%s", e.ComponentID)
		if e.Index >= 0 {
			fmt.Fprintf(&b, ", index=%d", e.Index)
		}
		if e.Nested != "" {
			fmt.Fprintf(&b, ", nested=%s", e.Nested)
		}
		b.WriteString(")")
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

// Unwrap returns the underlying host or store error.
func (e *GenerationError) Unwrap() error {
	return e.cause
}

// IsTerminal reports whether err carries a terminal GenerationError.
func IsTerminal(err error) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code.Terminal()
	}
	return false
}

// IsRecoverable reports whether err carries a recoverable GenerationError.
func IsRecoverable(err error) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return !ge.Code.Terminal()
	}
	return false
}

// CodeOf returns the code of the GenerationError in err's chain, or "".
func CodeOf(err error) Code {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// Reason returns the underlying cause of a GenerationError, or err's
// message when there is none.
func Reason(err error) string {
	var ge *GenerationError
	if errors.As(err, &ge) {
		if ge.cause != nil {
			return ge.cause.Error()
		}
		return ge.Message
	}
	return err.Error()
}

// UserNotice renders the failure notice shown for a terminal error: the
// message followed by any hints attached to the chain.
func UserNotice(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var ge *GenerationError
	if errors.As(err, &ge) {
		msg = ge.Message
	}
	if hints := errors.FlattenHints(err); hints != "" {
		msg += " (" + strings.ReplaceAll(hints, "\n--\n", "; ") + ")"
	}
	return msg
}

// NewComponentNotFoundError creates a terminal error for a missing component.
func NewComponentNotFoundError(id document.NodeID, cause error) error {
	return errors.WithHint(&GenerationError{
		Code:        CodeComponentNotFound,
		Message:     fmt.Sprintf("component %s no longer exists", id),
		ComponentID: id,
		Index:       -1,
		cause:       cause,
	}, "refresh the component list and try again")
}

// NewNoTemplateError creates a terminal error for a component set without
// children.
func NewNoTemplateError(comp *document.Component) error {
	return errors.WithHint(&GenerationError{
		Code:        CodeNoTemplate,
		Message:     fmt.Sprintf("component %q has no variant to instantiate", comp.Name),
		ComponentID: comp.ID,
		Index:       -1,
	}, "add at least one variant to the component set")
}

// NewSchemaUnreadableError creates a terminal error for unreadable property
// definitions.
func NewSchemaUnreadableError(comp *document.Component, cause error) error {
	return &GenerationError{
		Code:        CodeSchemaUnreadable,
		Message:     fmt.Sprintf("cannot read properties of %q", comp.Name),
		ComponentID: comp.ID,
		Index:       -1,
		cause:       cause,
	}
}

// NewTooManyCombinationsError creates a terminal error for the combination guard.
func NewTooManyCombinationsError(comp *document.Component, count, limit int) error {
	return errors.WithHint(&GenerationError{
		Code:        CodeTooManyCombinations,
		Message:     fmt.Sprintf("%q expands to %d instances, limit is %d", comp.Name, count, limit),
		ComponentID: comp.ID,
		Index:       -1,
	}, "lower the text sample count or raise generation.max_combinations")
}

// NewPersistenceError creates a terminal error for cursor or run-log I/O.
func NewPersistenceError(id document.NodeID, op string, cause error) error {
	return &GenerationError{
		Code:        CodePersistenceFailed,
		Message:     op,
		ComponentID: id,
		Index:       -1,
		cause:       cause,
	}
}

// NewCombinationRejectedError creates a recoverable error for combination i.
func NewCombinationRejectedError(id document.NodeID, i int, cause error) error {
	return &GenerationError{
		Code:        CodeCombinationRejected,
		Message:     "combination rejected",
		ComponentID: id,
		Index:       i,
		cause:       cause,
	}
}

// NewNestedRejectedError creates a recoverable error for a nested combination
// of combination i.
func NewNestedRejectedError(id document.NodeID, i int, nested string, cause error) error {
	return &GenerationError{
		Code:        CodeNestedRejected,
		Message:     "nested combination rejected",
		ComponentID: id,
		Index:       i,
		Nested:      nested,
		cause:       cause,
	}
}

// NewPlacementError creates a recoverable error for a clone that could not
// be placed.
func NewPlacementError(id document.NodeID, i int, cause error) error {
	return &GenerationError{
		Code:        CodePlacementFailed,
		Message:     "placement failed",
		ComponentID: id,
		Index:       i,
		cause:       cause,
	}
}
