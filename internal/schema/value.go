package schema

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Value is a sealed interface for concrete property values.
// Only BoolValue and TextValue implement it.
type Value interface {
	propertyValue()
	String() string
}

// BoolValue is the value of a BOOLEAN property.
type BoolValue bool

func (BoolValue) propertyValue() {}

func (b BoolValue) String() string { return strconv.FormatBool(bool(b)) }

// TextValue is the value of a VARIANT or TEXT property.
type TextValue string

func (TextValue) propertyValue() {}

func (t TextValue) String() string { return string(t) }

// Assignment binds a value to a property name.
type Assignment struct {
	Name  string
	Value Value
}

// Combination is an ordered, immutable assignment of values to properties.
// The zero value is the empty combination.
type Combination struct {
	entries []Assignment
}

// NewCombination builds a combination from assignments in order.
// A later assignment to the same name replaces the earlier value in place.
func NewCombination(assignments ...Assignment) Combination {
	c := Combination{}
	for _, a := range assignments {
		c = c.With(a.Name, a.Value)
	}
	return c
}

// With returns a new combination with name bound to v. The receiver is not
// modified.
func (c Combination) With(name string, v Value) Combination {
	out := make([]Assignment, len(c.entries), len(c.entries)+1)
	copy(out, c.entries)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = v
			return Combination{entries: out}
		}
	}
	return Combination{entries: append(out, Assignment{Name: name, Value: v})}
}

// Get returns the value bound to name.
func (c Combination) Get(name string) (Value, bool) {
	for _, a := range c.entries {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Len returns the number of assignments.
func (c Combination) Len() int { return len(c.entries) }

// Assignments returns the assignments in order.
func (c Combination) Assignments() []Assignment {
	out := make([]Assignment, len(c.entries))
	copy(out, c.entries)
	return out
}

// Names returns the assigned property names in order.
func (c Combination) Names() []string {
	out := make([]string, len(c.entries))
	for i, a := range c.entries {
		out[i] = a.Name
	}
	return out
}

// String renders the combination as "Name=value, Name=value".
func (c Combination) String() string {
	parts := make([]string, len(c.entries))
	for i, a := range c.entries {
		parts[i] = a.Name + "=" + a.Value.String()
	}
	return strings.Join(parts, ", ")
}

// Key returns a string identifying the non-text shape of the combination:
// property names paired with value kinds and values. Two combinations with
// equal keys assign the same values to the same names in the same order.
func (c Combination) Key() string {
	var b strings.Builder
	for i, a := range c.entries {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.Quote(a.Name))
		b.WriteByte('=')
		switch v := a.Value.(type) {
		case BoolValue:
			b.WriteString(v.String())
		case TextValue:
			b.WriteString(strconv.Quote(string(v)))
		default:
			b.WriteString("null")
		}
	}
	return b.String()
}

// MarshalJSON encodes the combination as a JSON object whose key order
// follows the assignment order.
func (c Combination) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range c.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		var v []byte
		switch val := a.Value.(type) {
		case BoolValue:
			v, err = json.Marshal(bool(val))
		case TextValue:
			v, err = json.Marshal(string(val))
		default:
			v = []byte("null")
		}
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
