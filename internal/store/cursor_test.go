package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/variantforge/internal/layout"
)

func TestLoadCursor_MissingIsOrigin(t *testing.T) {
	s := createTestStore(t)

	c, err := s.LoadCursor(context.Background(), "Playground")
	require.NoError(t, err)
	assert.Equal(t, layout.Cursor{}, c)
}

func TestSaveCursor_Upserts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCursor(ctx, "Playground", layout.Cursor{X: 110, Y: 0}))
	require.NoError(t, s.SaveCursor(ctx, "Playground", layout.Cursor{X: 0, Y: 60}))

	c, err := s.LoadCursor(ctx, "Playground")
	require.NoError(t, err)
	assert.Equal(t, layout.Cursor{X: 0, Y: 60}, c)

	var x, y string
	require.NoError(t, s.db.QueryRow(`SELECT x, y FROM cursors WHERE surface = 'Playground'`).Scan(&x, &y))
	assert.Equal(t, "0", x)
	assert.Equal(t, "60", y)
}

func TestSaveCursor_SurfacesAreIndependent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCursor(ctx, "A", layout.Cursor{X: 1, Y: 2}))
	require.NoError(t, s.SaveCursor(ctx, "B", layout.Cursor{X: 3, Y: 4}))

	all, err := s.ListCursors(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Surface)
	assert.Equal(t, layout.Cursor{X: 3, Y: 4}, all[1].Cursor)
}

func TestLoadCursor_Malformed(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.db.Exec(`INSERT INTO cursors (surface, x, y, updated_at) VALUES ('P', 'abc', '0', 'now')`)
	require.NoError(t, err)

	_, err = s.LoadCursor(ctx, "P")
	assert.Error(t, err)
}

func TestResetCursor(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCursor(ctx, "Playground", layout.Cursor{X: 220, Y: 60}))
	require.NoError(t, s.ResetCursor(ctx, "Playground"))

	c, err := s.LoadCursor(ctx, "Playground")
	require.NoError(t, err)
	assert.Equal(t, layout.Cursor{}, c)

	// Resetting an unknown surface is a no-op.
	assert.NoError(t, s.ResetCursor(ctx, "Other"))
}
