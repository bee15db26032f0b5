package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/variantforge/internal/layout"
)

// LoadCursor returns the persisted cursor for a surface. A surface that has
// never been written reads as the origin.
func (s *Store) LoadCursor(ctx context.Context, surface string) (layout.Cursor, error) {
	var x, y string
	err := s.db.QueryRowContext(ctx,
		`SELECT x, y FROM cursors WHERE surface = ?`, surface,
	).Scan(&x, &y)
	if errors.Is(err, sql.ErrNoRows) {
		return layout.Cursor{}, nil
	}
	if err != nil {
		return layout.Cursor{}, fmt.Errorf("load cursor: %w", err)
	}

	c, err := layout.Parse(x, y)
	if err != nil {
		return layout.Cursor{}, fmt.Errorf("load cursor for %q: %w", surface, err)
	}
	return c, nil
}

// SaveCursor upserts the cursor for a surface.
func (s *Store) SaveCursor(ctx context.Context, surface string, c layout.Cursor) error {
	x, y := c.Strings()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cursors (surface, x, y, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(surface) DO UPDATE SET
			x = excluded.x,
			y = excluded.y,
			updated_at = excluded.updated_at
	`, surface, x, y, s.timestamp())
	if err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

// ResetCursor deletes the cursor for a surface so the next run starts at the
// origin.
func (s *Store) ResetCursor(ctx context.Context, surface string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cursors WHERE surface = ?`, surface); err != nil {
		return fmt.Errorf("reset cursor: %w", err)
	}
	return nil
}

// SurfaceCursor is a persisted cursor with its surface.
type SurfaceCursor struct {
	Surface   string        `json:"surface"`
	Cursor    layout.Cursor `json:"cursor"`
	UpdatedAt string        `json:"updated_at"`
}

// ListCursors returns every persisted cursor ordered by surface.
func (s *Store) ListCursors(ctx context.Context) ([]SurfaceCursor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT surface, x, y, updated_at FROM cursors ORDER BY surface ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cursors: %w", err)
	}
	defer rows.Close()

	var out []SurfaceCursor
	for rows.Next() {
		var sc SurfaceCursor
		var x, y string
		if err := rows.Scan(&sc.Surface, &x, &y, &sc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cursor: %w", err)
		}
		if sc.Cursor, err = layout.Parse(x, y); err != nil {
			return nil, fmt.Errorf("cursor for %q: %w", sc.Surface, err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
