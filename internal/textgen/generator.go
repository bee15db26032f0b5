package textgen

import (
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	consonants = "bcdfghjklmnprstvwz"
	vowels     = "aeiou"
	digits     = "0123456789"
)

// Shape describes the word structure of a default value.
type Shape struct {
	NumWords          int
	AverageWordLength int
}

// Length is the character count a Number sample has.
func (s Shape) Length() int { return s.NumWords * s.AverageWordLength }

// ShapeOf measures a default value. Words are split on single spaces, so an
// empty string counts as one empty word. The average length is the rune
// length divided by the word count, rounded.
func ShapeOf(defaultValue string) Shape {
	words := len(strings.Split(defaultValue, " "))
	avg := int(math.Round(float64(utf8.RuneCountInString(defaultValue)) / float64(words)))
	return Shape{NumWords: words, AverageWordLength: avg}
}

// Generator produces synthetic text samples.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed. A zero seed selects a
// time-based seed.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Samples infers the type and shape of defaultValue and returns count
// samples of that shape.
func (g *Generator) Samples(defaultValue string, count int) []string {
	return g.Generate(InferType(defaultValue), count, ShapeOf(defaultValue))
}

// Generate returns count samples of the given type and shape. Duplicates are
// possible.
func (g *Generator) Generate(t TextType, count int, shape Shape) []string {
	if count <= 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, count)
	for i := range out {
		switch t {
		case Number:
			out[i] = g.number(shape.Length())
		case Boolean:
			out[i] = g.boolean()
		default:
			out[i] = g.sentence(shape)
		}
	}
	return out
}

func (g *Generator) number(length int) string {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		if i == 0 && length > 1 {
			b.WriteByte(digits[1+g.rng.IntN(9)])
			continue
		}
		b.WriteByte(digits[g.rng.IntN(len(digits))])
	}
	return b.String()
}

func (g *Generator) boolean() string {
	if g.rng.IntN(2) == 0 {
		return "false"
	}
	return "true"
}

func (g *Generator) sentence(shape Shape) string {
	words := make([]string, shape.NumWords)
	for i := range words {
		words[i] = g.word(shape.AverageWordLength)
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// word builds a pronounceable token by alternating consonants and vowels,
// starting from a random position in the cycle.
func (g *Generator) word(length int) string {
	var b strings.Builder
	b.Grow(length)
	vowel := g.rng.IntN(2) == 0
	for i := 0; i < length; i++ {
		if vowel {
			b.WriteByte(vowels[g.rng.IntN(len(vowels))])
		} else {
			b.WriteByte(consonants[g.rng.IntN(len(consonants))])
		}
		vowel = !vowel
	}
	return b.String()
}
