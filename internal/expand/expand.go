// Package expand turns property schemas into ordered sequences of
// combinations.
//
// Expansion is a left-to-right cross product over the schema's properties in
// declaration order, so the first property varies slowest. Properties that
// contribute no values (an empty option list, or TEXT when no samples are
// requested) are skipped instead of collapsing the result to nothing.
//
// There is no internal cap on the output size; callers guard against
// combinatorial blow-up with Count before expanding.
package expand

import (
	"math"

	"github.com/roach88/variantforge/internal/schema"
	"github.com/roach88/variantforge/internal/textgen"
)

// Sampler produces synthetic values for TEXT properties.
type Sampler interface {
	Samples(defaultValue string, count int) []string
}

// Arity returns how many values a property contributes to the cross product.
// Zero means the property is skipped.
func Arity(def schema.PropertyDefinition, textSamples int) int {
	switch def.Kind {
	case schema.KindBoolean:
		return 2
	case schema.KindVariant:
		return len(def.VariantOptions)
	case schema.KindText:
		if textSamples > 0 {
			return textSamples
		}
	}
	return 0
}

// Count returns the number of combinations Expand would produce, without
// sampling any text. The result saturates at math.MaxInt.
func Count(s schema.Schema, textSamples int) int {
	n := 1
	for _, p := range s.Properties() {
		if a := Arity(p.Definition, textSamples); a > 0 {
			n = MulSat(n, a)
		}
	}
	return n
}

// MulSat returns a*b for non-negative operands, or math.MaxInt if the
// product does not fit.
func MulSat(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}

// AddSat returns a+b for non-negative operands, or math.MaxInt if the sum
// does not fit.
func AddSat(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// Expand returns every combination of values for s. TEXT properties receive
// textSamples synthetic values each, drawn from sampler; a fresh batch is
// drawn for every partial combination they extend. A nil sampler uses a
// time-seeded textgen.Generator.
//
// The result always holds at least the empty combination.
func Expand(s schema.Schema, textSamples int, sampler Sampler) []schema.Combination {
	if sampler == nil {
		sampler = textgen.NewGenerator(0)
	}

	combos := []schema.Combination{{}}
	for _, p := range s.Properties() {
		if Arity(p.Definition, textSamples) == 0 {
			continue
		}
		next := make([]schema.Combination, 0, len(combos)*Arity(p.Definition, textSamples))
		for _, c := range combos {
			for _, v := range values(p.Definition, textSamples, sampler) {
				next = append(next, c.With(p.Name, v))
			}
		}
		if len(next) == 0 {
			continue
		}
		combos = next
	}
	return combos
}

// values lists the values a property takes, in declaration order.
func values(def schema.PropertyDefinition, textSamples int, sampler Sampler) []schema.Value {
	switch def.Kind {
	case schema.KindBoolean:
		return []schema.Value{schema.BoolValue(true), schema.BoolValue(false)}
	case schema.KindVariant:
		out := make([]schema.Value, len(def.VariantOptions))
		for i, opt := range def.VariantOptions {
			out[i] = schema.TextValue(opt)
		}
		return out
	case schema.KindText:
		samples := sampler.Samples(def.DefaultValue, textSamples)
		out := make([]schema.Value, len(samples))
		for i, s := range samples {
			out[i] = schema.TextValue(s)
		}
		return out
	}
	return nil
}
