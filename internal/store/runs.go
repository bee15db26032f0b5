package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Run status values.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunAborted   = "aborted"
)

// Run is one generation request as recorded in the log.
type Run struct {
	ID            string `json:"id"`
	Surface       string `json:"surface"`
	ComponentID   string `json:"component_id"`
	ComponentName string `json:"component_name"`
	TextSamples   int    `json:"text_samples"`
	Combinations  int    `json:"combinations"`
	Status        string `json:"status"`
	Placed        int    `json:"placed"`
	Failed        int    `json:"failed"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at,omitempty"`
}

// Placement records one placed instance.
type Placement struct {
	RunID       string `json:"run_id"`
	Seq         int    `json:"seq"`
	InstanceID  string `json:"instance_id"`
	Name        string `json:"name"`
	X           string `json:"x"`
	Y           string `json:"y"`
	Combination string `json:"combination"` // JSON object
	// Key is the content-addressed key of the placed combination.
	Key string `json:"key"`
}

// Failure records one rejected combination. NestedIndex is -1 for a
// top-level rejection.
type Failure struct {
	RunID            string `json:"run_id"`
	CombinationIndex int    `json:"combination_index"`
	NestedID         string `json:"nested_id,omitempty"`
	NestedIndex      int    `json:"nested_index"`
	Code             string `json:"code"`
	Reason           string `json:"reason"`
	Combination      string `json:"combination"`
}

// BeginRun inserts a run in the running state. StartedAt and Status are set
// by the store.
func (s *Store) BeginRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, surface, component_id, component_name, text_samples, combinations, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Surface, r.ComponentID, r.ComponentName, r.TextSamples, r.Combinations, RunRunning, s.timestamp())
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordPlacement appends a placement to a run.
func (s *Store) RecordPlacement(ctx context.Context, p Placement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO placements (run_id, seq, instance_id, name, x, y, combination, combination_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.RunID, p.Seq, p.InstanceID, p.Name, p.X, p.Y, p.Combination, p.Key)
	if err != nil {
		return fmt.Errorf("record placement: %w", err)
	}
	return nil
}

// RecordFailure appends a failure to a run.
func (s *Store) RecordFailure(ctx context.Context, f Failure) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_failures
		(run_id, combination_index, nested_id, nested_index, code, reason, combination)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.RunID, f.CombinationIndex, f.NestedID, f.NestedIndex, f.Code, f.Reason, f.Combination)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// FinishRun sets the final status and counts of a run.
func (s *Store) FinishRun(ctx context.Context, runID, status string, placed, failed int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, placed = ?, failed = ?, finished_at = ?
		WHERE id = ?
	`, status, placed, failed, s.timestamp(), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: run %q not found", runID)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, surface, component_id, component_name, text_samples, combinations,
		       status, placed, failed, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &r.Surface, &r.ComponentID, &r.ComponentName, &r.TextSamples,
			&r.Combinations, &r.Status, &r.Placed, &r.Failed, &r.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.FinishedAt = finished.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunPlacements returns a run's placements in placement order.
func (s *Store) RunPlacements(ctx context.Context, runID string) ([]Placement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, instance_id, name, x, y, combination, combination_key
		FROM placements WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("run placements: %w", err)
	}
	return scanPlacements(rows)
}

// PlacementsByKey returns every placement whose combination key starts
// with prefix, oldest run first. An empty prefix matches nothing.
func (s *Store) PlacementsByKey(ctx context.Context, prefix string) ([]Placement, error) {
	if prefix == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.run_id, p.seq, p.instance_id, p.name, p.x, p.y, p.combination, p.combination_key
		FROM placements p JOIN runs r ON r.id = p.run_id
		WHERE substr(p.combination_key, 1, length(?1)) = ?1
		ORDER BY r.started_at ASC, p.run_id ASC, p.seq ASC
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("placements by key: %w", err)
	}
	return scanPlacements(rows)
}

func scanPlacements(rows *sql.Rows) ([]Placement, error) {
	defer rows.Close()

	var out []Placement
	for rows.Next() {
		var p Placement
		if err := rows.Scan(&p.RunID, &p.Seq, &p.InstanceID, &p.Name, &p.X, &p.Y,
			&p.Combination, &p.Key); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RunFailures returns a run's failures in the order they occurred.
func (s *Store) RunFailures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, combination_index, nested_id, nested_index, code, reason, combination
		FROM run_failures WHERE run_id = ?
		ORDER BY rowid ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("run failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.RunID, &f.CombinationIndex, &f.NestedID, &f.NestedIndex,
			&f.Code, &f.Reason, &f.Combination); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
