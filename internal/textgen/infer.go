// Package textgen synthesizes placeholder values for free-text properties.
//
// Samples imitate the shape of a property's default value: its inferred
// primitive type, its word count and its average word length. No attempt is
// made at semantic realism.
package textgen

import "regexp"

// TextType is the primitive type inferred from a default value.
type TextType int

const (
	// String is any value that is neither a number nor a boolean.
	String TextType = iota
	// Number is a value made only of decimal digits.
	Number
	// Boolean is exactly "true" or "false".
	Boolean
)

func (t TextType) String() string {
	switch t {
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	default:
		return "string"
	}
}

var (
	digitsPattern  = regexp.MustCompile(`^[0-9]+$`)
	booleanPattern = regexp.MustCompile(`^(true|false)$`)
)

// InferType classifies a default value. Rules are checked in order: digits
// only is Number, "true" or "false" is Boolean, anything else is String.
func InferType(defaultValue string) TextType {
	switch {
	case digitsPattern.MatchString(defaultValue):
		return Number
	case booleanPattern.MatchString(defaultValue):
		return Boolean
	default:
		return String
	}
}
