package schema

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// PropertyKind identifies how a property's values are enumerated.
type PropertyKind string

const (
	// KindBoolean properties take exactly the values true and false.
	KindBoolean PropertyKind = "BOOLEAN"

	// KindVariant properties take one of a fixed, ordered set of options.
	KindVariant PropertyKind = "VARIANT"

	// KindText properties take free-form text. Their values are synthesized
	// from the shape of the default value.
	KindText PropertyKind = "TEXT"
)

var (
	// ErrUnsupportedKind is returned when a property kind outside the closed
	// set is encountered.
	ErrUnsupportedKind = errors.New("unsupported property kind")

	// ErrDuplicateProperty is returned when a schema names a property twice.
	ErrDuplicateProperty = errors.New("duplicate property name")

	// ErrEmptyName is returned when a property has no name.
	ErrEmptyName = errors.New("empty property name")

	// ErrUnknownProperty is returned by Check for a name the schema lacks.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrInvalidValue is returned by Check and Accepts for a value of the
	// wrong kind or outside the option list.
	ErrInvalidValue = errors.New("invalid property value")
)

// ParseKind converts a host kind string into a PropertyKind.
// Matching is case-insensitive.
func ParseKind(s string) (PropertyKind, error) {
	switch PropertyKind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindBoolean:
		return KindBoolean, nil
	case KindVariant:
		return KindVariant, nil
	case KindText:
		return KindText, nil
	}
	return "", errors.Wrapf(ErrUnsupportedKind, "kind %q", s)
}

// PropertyDefinition describes one entry of a property schema.
// VariantOptions is only meaningful for KindVariant and DefaultValue only for
// KindText.
type PropertyDefinition struct {
	Kind           PropertyKind
	VariantOptions []string
	DefaultValue   string
}

// Boolean returns a boolean property definition.
func Boolean() PropertyDefinition {
	return PropertyDefinition{Kind: KindBoolean}
}

// Variant returns a variant property definition with the given options.
// The options slice is copied.
func Variant(options ...string) PropertyDefinition {
	opts := make([]string, len(options))
	copy(opts, options)
	return PropertyDefinition{Kind: KindVariant, VariantOptions: opts}
}

// Text returns a free-text property definition with the given default value.
func Text(defaultValue string) PropertyDefinition {
	return PropertyDefinition{Kind: KindText, DefaultValue: defaultValue}
}

// HasOption reports whether opt is one of the variant options.
func (d PropertyDefinition) HasOption(opt string) bool {
	for _, o := range d.VariantOptions {
		if o == opt {
			return true
		}
	}
	return false
}

// Property is a named definition.
type Property struct {
	Name       string
	Definition PropertyDefinition
}

// DisplayName returns the property name without the host-assigned "#id"
// suffix that boolean and text properties carry (e.g. "Label#12:0").
func (p Property) DisplayName() string {
	if i := strings.LastIndexByte(p.Name, '#'); i > 0 {
		return p.Name[:i]
	}
	return p.Name
}

// P is a shorthand for constructing a Property.
func P(name string, def PropertyDefinition) Property {
	return Property{Name: name, Definition: def}
}

// Schema is an ordered set of uniquely named properties.
// The zero value is an empty schema. Schemas are read-only once built.
type Schema struct {
	props []Property
	index map[string]int
}

// NewSchema builds a schema from properties in declaration order.
func NewSchema(props ...Property) (Schema, error) {
	s := Schema{
		props: make([]Property, 0, len(props)),
		index: make(map[string]int, len(props)),
	}
	for _, p := range props {
		if p.Name == "" {
			return Schema{}, ErrEmptyName
		}
		if _, dup := s.index[p.Name]; dup {
			return Schema{}, errors.Wrapf(ErrDuplicateProperty, "property %q", p.Name)
		}
		switch p.Definition.Kind {
		case KindBoolean, KindText:
		case KindVariant:
			p.Definition = Variant(p.Definition.VariantOptions...)
		default:
			return Schema{}, errors.Wrapf(ErrUnsupportedKind, "property %q has kind %q", p.Name, p.Definition.Kind)
		}
		s.index[p.Name] = len(s.props)
		s.props = append(s.props, p)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Intended for tests and
// static tables.
func MustSchema(props ...Property) Schema {
	s, err := NewSchema(props...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of properties.
func (s Schema) Len() int { return len(s.props) }

// IsEmpty reports whether the schema has no properties.
func (s Schema) IsEmpty() bool { return len(s.props) == 0 }

// Properties returns the properties in declaration order.
func (s Schema) Properties() []Property {
	out := make([]Property, len(s.props))
	copy(out, s.props)
	return out
}

// Lookup returns the definition for name.
func (s Schema) Lookup(name string) (PropertyDefinition, bool) {
	i, ok := s.index[name]
	if !ok {
		return PropertyDefinition{}, false
	}
	return s.props[i].Definition, true
}

// CountKind returns how many properties have the given kind.
func (s Schema) CountKind(kind PropertyKind) int {
	n := 0
	for _, p := range s.props {
		if p.Definition.Kind == kind {
			n++
		}
	}
	return n
}

// Check validates that every assignment in c names a property of s and
// carries a value the property accepts.
func (s Schema) Check(c Combination) error {
	for _, a := range c.entries {
		def, ok := s.Lookup(a.Name)
		if !ok {
			return errors.Wrapf(ErrUnknownProperty, "%q", a.Name)
		}
		if err := def.Accepts(a.Value); err != nil {
			return errors.Wrapf(err, "property %q", a.Name)
		}
	}
	return nil
}

// Accepts reports whether v is a legal value for the definition.
func (d PropertyDefinition) Accepts(v Value) error {
	switch d.Kind {
	case KindBoolean:
		if _, ok := v.(BoolValue); !ok {
			return errors.Wrapf(ErrInvalidValue, "expected boolean, got %s", v)
		}
	case KindVariant:
		t, ok := v.(TextValue)
		if !ok {
			return errors.Wrapf(ErrInvalidValue, "expected variant option, got %s", v)
		}
		if !d.HasOption(string(t)) {
			return errors.Wrapf(ErrInvalidValue, "%q is not a variant option", string(t))
		}
	case KindText:
		if _, ok := v.(TextValue); !ok {
			return errors.Wrapf(ErrInvalidValue, "expected text, got %s", v)
		}
	default:
		return errors.Wrapf(ErrUnsupportedKind, "kind %q", d.Kind)
	}
	return nil
}
