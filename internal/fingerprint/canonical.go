package fingerprint

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/variantforge/internal/schema"
)

// MarshalCanonical encodes v as canonical JSON. Supported values are
// string, bool, int, map[string]any and []any. Floats and nil are rejected.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		encodeString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range sortedKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, k)
			buf.WriteByte(':')
			if err := encode(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// encodeString writes s NFC-normalized. Only the quote, the backslash and
// control characters are escaped; <, >, & and U+2028/U+2029 are literal.
func encodeString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"
	buf.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hex[r>>4])
			buf.WriteByte(hex[r&0xf])
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

// sortedKeys orders keys by UTF-16 code units. Keys are compared after
// NFC normalization, matching how they are written.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return slices.Compare(
			utf16.Encode([]rune(norm.NFC.String(a))),
			utf16.Encode([]rune(norm.NFC.String(b))))
	})
	return keys
}

// combinationObject converts c into the generic form MarshalCanonical
// accepts.
func combinationObject(c schema.Combination) (map[string]any, error) {
	obj := make(map[string]any, c.Len())
	for _, a := range c.Assignments() {
		switch v := a.Value.(type) {
		case schema.BoolValue:
			obj[a.Name] = bool(v)
		case schema.TextValue:
			obj[a.Name] = string(v)
		default:
			return nil, fmt.Errorf("property %q: unsupported value %T", a.Name, a.Value)
		}
	}
	return obj, nil
}

// CanonicalCombination encodes c as canonical JSON.
func CanonicalCombination(c schema.Combination) ([]byte, error) {
	obj, err := combinationObject(c)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(obj)
}
