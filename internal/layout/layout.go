// Package layout implements the raster placement cursor.
//
// Instances are packed left to right. When the cursor's x reaches the row
// width it returns to zero and y moves down by one row. The cursor is
// persisted as two decimal strings so successive runs keep packing below
// earlier output instead of overlapping it.
package layout

import (
	"strconv"

	"github.com/cockroachdb/errors"
)

// Cursor is the position at which the next instance is placed.
type Cursor struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Grid holds the layout constants.
type Grid struct {
	// Padding separates neighbouring instances horizontally and vertically.
	Padding float64
	// RowWidth is the x at which a row wraps. Zero or less never wraps.
	RowWidth float64
}

// DefaultGrid is used when no layout is configured.
var DefaultGrid = Grid{Padding: 40, RowWidth: 4000}

// Advance returns the cursor after placing an item of the given width and
// height at c.
func (g Grid) Advance(c Cursor, width, height float64) Cursor {
	c.X += width + g.Padding
	if g.RowWidth > 0 && c.X >= g.RowWidth {
		c.X = 0
		c.Y += height + g.Padding
	}
	return c
}

// Before reports whether c precedes other in raster order.
func (c Cursor) Before(other Cursor) bool {
	if c.Y != other.Y {
		return c.Y < other.Y
	}
	return c.X < other.X
}

// Strings renders the coordinates in their persisted form.
func (c Cursor) Strings() (x, y string) {
	return formatCoord(c.X), formatCoord(c.Y)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Parse reads a cursor from its persisted form. Empty strings read as zero.
func Parse(x, y string) (Cursor, error) {
	var c Cursor
	var err error
	if c.X, err = parseCoord(x); err != nil {
		return Cursor{}, errors.Wrap(err, "cursor x")
	}
	if c.Y, err = parseCoord(y); err != nil {
		return Cursor{}, errors.Wrap(err, "cursor y")
	}
	return c, nil
}

func parseCoord(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
