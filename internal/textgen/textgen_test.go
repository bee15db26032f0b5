package textgen

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferType(t *testing.T) {
	tests := []struct {
		in   string
		want TextType
	}{
		{"42", Number},
		{"0007", Number},
		{"true", Boolean},
		{"false", Boolean},
		{"True", String},
		{"4.2", String},
		{"-1", String},
		{"", String},
		{"Hello world", String},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, InferType(tt.in))
		})
	}
}

func TestShapeOf(t *testing.T) {
	assert.Equal(t, Shape{NumWords: 2, AverageWordLength: 6}, ShapeOf("Submit order"))
	assert.Equal(t, Shape{NumWords: 3, AverageWordLength: 4}, ShapeOf("Submit  form"))
	assert.Equal(t, Shape{NumWords: 1, AverageWordLength: 4}, ShapeOf("1234"))
	assert.Equal(t, Shape{NumWords: 1, AverageWordLength: 0}, ShapeOf(""))
	// 11 runes over 2 words rounds 5.5 up.
	assert.Equal(t, Shape{NumWords: 2, AverageWordLength: 6}, ShapeOf("Hello world"))
}

func TestGenerate_Number(t *testing.T) {
	g := NewGenerator(1)
	samples := g.Generate(Number, 5, Shape{NumWords: 1, AverageWordLength: 4})

	require.Len(t, samples, 5)
	for _, s := range samples {
		assert.Regexp(t, regexp.MustCompile(`^[1-9][0-9]{3}$`), s)
	}
}

func TestGenerate_Boolean(t *testing.T) {
	g := NewGenerator(2)
	samples := g.Generate(Boolean, 20, Shape{NumWords: 1, AverageWordLength: 4})

	require.Len(t, samples, 20)
	for _, s := range samples {
		assert.Contains(t, []string{"true", "false"}, s)
	}
}

func TestGenerate_String(t *testing.T) {
	g := NewGenerator(3)
	samples := g.Generate(String, 4, Shape{NumWords: 3, AverageWordLength: 5})

	require.Len(t, samples, 4)
	for _, s := range samples {
		words := strings.Split(s, " ")
		require.Len(t, words, 3, "sample %q", s)
		for _, w := range words {
			assert.Len(t, w, 5)
			assert.Regexp(t, regexp.MustCompile(`^[a-z]+$`), w)
		}
	}
}

func TestGenerate_ZeroCount(t *testing.T) {
	assert.Empty(t, NewGenerator(1).Generate(String, 0, Shape{NumWords: 1, AverageWordLength: 3}))
}

func TestSamples_FollowDefaultShape(t *testing.T) {
	g := NewGenerator(4)

	for _, s := range g.Samples("1500", 3) {
		assert.Regexp(t, `^[0-9]{4}$`, s)
	}
	for _, s := range g.Samples("false", 3) {
		assert.Contains(t, []string{"true", "false"}, s)
	}
	for _, s := range g.Samples("Add to cart", 3) {
		assert.Len(t, strings.Split(s, " "), 3)
	}
}

func TestNewGenerator_SeedIsReproducible(t *testing.T) {
	a := NewGenerator(99).Samples("Hello there", 5)
	b := NewGenerator(99).Samples("Hello there", 5)
	assert.Equal(t, a, b)
}
