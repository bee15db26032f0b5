package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance_WrapsAtRowWidth(t *testing.T) {
	g := Grid{Padding: 10, RowWidth: 300}

	var positions []Cursor
	c := Cursor{}
	for i := 0; i < 4; i++ {
		positions = append(positions, c)
		c = g.Advance(c, 100, 50)
	}

	assert.Equal(t, []Cursor{{0, 0}, {110, 0}, {220, 0}, {0, 60}}, positions)
	assert.Equal(t, Cursor{X: 110, Y: 60}, c)
}

func TestAdvance_IsRasterMonotonic(t *testing.T) {
	g := Grid{Padding: 7, RowWidth: 250}
	c := Cursor{}
	for i := 0; i < 50; i++ {
		next := g.Advance(c, 60, 30)
		require.True(t, c.Before(next), "step %d: %v then %v", i, c, next)
		c = next
	}
}

func TestAdvance_NoRowWidthNeverWraps(t *testing.T) {
	g := Grid{Padding: 5}
	c := g.Advance(g.Advance(Cursor{}, 10, 10), 10, 10)
	assert.Equal(t, Cursor{X: 30, Y: 0}, c)
}

func TestCursorStringsRoundTrip(t *testing.T) {
	x, y := Cursor{X: 110, Y: 60.5}.Strings()
	assert.Equal(t, "110", x)
	assert.Equal(t, "60.5", y)

	c, err := Parse(x, y)
	require.NoError(t, err)
	assert.Equal(t, Cursor{X: 110, Y: 60.5}, c)
}

func TestParse(t *testing.T) {
	c, err := Parse("", "")
	require.NoError(t, err)
	assert.Equal(t, Cursor{}, c)

	_, err = Parse("abc", "0")
	assert.Error(t, err)
	_, err = Parse("0", "1e")
	assert.Error(t, err)
}
