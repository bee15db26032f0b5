package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/expand"
	"github.com/roach88/variantforge/internal/layout"
	"github.com/roach88/variantforge/internal/logger"
	"github.com/roach88/variantforge/internal/schema"
)

// Placement describes one placed clone.
type Placement struct {
	// Seq is the clone's position in the run, starting at 0.
	Seq         int
	Instance    document.NodeID
	Name        string
	Index       int
	Combination schema.Combination
	// Nested is the exposed instance overridden on this clone, if any.
	Nested            string
	NestedCombination schema.Combination
	// At is where the clone was placed; Next is the cursor after it.
	At   layout.Cursor
	Next layout.Cursor
}

// PlacementSink receives every successful placement before the next one is
// attempted. An error from the sink aborts materialization.
type PlacementSink interface {
	Placed(ctx context.Context, p Placement) error
}

// Failure is a discarded combination or nested clone.
type Failure struct {
	Index       int
	Combination schema.Combination
	// Nested and NestedIndex identify a nested combination; NestedIndex is
	// -1 for top-level failures.
	Nested      string
	NestedIndex int
	Err         error
}

// Input is one materialization job.
type Input struct {
	Component    *document.Component
	Combinations []schema.Combination
	Nested       expand.NestedSet
	Cursor       layout.Cursor
	Sink         PlacementSink
}

// Outcome reports what a materialization placed.
type Outcome struct {
	Placed   int
	Failures []Failure
	// Cursor is the cursor after the last successful placement.
	Cursor layout.Cursor
	// FastPath is set when property application skipped the pre-check.
	FastPath bool
}

// Materializer turns combinations into placed instances through a host.
//
// Each top-level combination gets its own working instance. The working
// instance is mutated, cloned once per nested combination (or once when there
// is nothing nested), and removed; it is never placed itself.
type Materializer struct {
	host document.Host
	grid layout.Grid
	log  *zap.Logger
}

// NewMaterializer creates a materializer.
func NewMaterializer(host document.Host, grid layout.Grid, log *zap.Logger) *Materializer {
	return &Materializer{host: host, grid: grid, log: logger.OrNop(log)}
}

// Materialize places every combination in in.Combinations, in order.
//
// Rejected combinations, rejected nested combinations and failed placements
// are recorded in Outcome.Failures and do not stop the run or move the
// cursor. The returned error is non-nil only when the sink fails; the
// Outcome still reflects everything placed before that.
func (m *Materializer) Materialize(ctx context.Context, in Input) (Outcome, error) {
	comp := in.Component
	out := Outcome{Cursor: in.Cursor}

	template, ok := comp.Template()
	if !ok {
		return out, NewNoTemplateError(comp)
	}

	var s schema.Schema
	if len(in.Combinations) == len(comp.Children) {
		// The schema degenerated to a plain variant enumeration; the host
		// still rejects invalid assignments below.
		out.FastPath = true
	} else {
		var err error
		if s, err = comp.Schema(); err != nil {
			return out, NewSchemaUnreadableError(comp, err)
		}
	}

	r := &run{m: m, in: in, out: &out, template: template}
	for i, c := range in.Combinations {
		if err := r.combination(ctx, i, c, s); err != nil {
			return out, err
		}
	}
	return out, nil
}

// run carries the per-call state of Materialize.
type run struct {
	m        *Materializer
	in       Input
	out      *Outcome
	template document.NodeID
	seq      int
}

func (r *run) fail(f Failure) {
	r.out.Failures = append(r.out.Failures, f)
	fields := []zap.Field{
		zap.String(logger.FieldComponent, string(r.in.Component.ID)),
		zap.Int(logger.FieldIndex, f.Index),
		zap.Stringer(logger.FieldCombination, f.Combination),
		zap.Error(f.Err),
	}
	if f.Nested != "" {
		fields = append(fields, zap.String(logger.FieldNested, f.Nested), zap.Int(logger.FieldNestedIndex, f.NestedIndex))
	}
	r.m.log.Warn("combination discarded", fields...)
}

// combination materializes combination i. Only sink errors are returned.
func (r *run) combination(ctx context.Context, i int, c schema.Combination, s schema.Schema) error {
	host := r.m.host
	id := r.in.Component.ID

	work, cerr := host.CreateInstance(ctx, r.template)
	if cerr != nil {
		r.fail(Failure{Index: i, Combination: c, NestedIndex: -1, Err: NewPlacementError(id, i, cerr)})
		return nil
	}
	defer func() {
		if rmErr := host.Remove(ctx, work); rmErr != nil {
			r.m.log.Warn("remove working instance",
				zap.String(logger.FieldInstance, string(work)), zap.Error(rmErr))
		}
	}()

	if !r.out.FastPath {
		if verr := s.Check(c); verr != nil {
			r.fail(Failure{Index: i, Combination: c, NestedIndex: -1, Err: NewCombinationRejectedError(id, i, verr)})
			return nil
		}
	}
	if serr := host.SetProperties(ctx, work, c); serr != nil {
		r.fail(Failure{Index: i, Combination: c, NestedIndex: -1, Err: NewCombinationRejectedError(id, i, serr)})
		return nil
	}

	if len(r.in.Nested) == 0 {
		return r.clone(ctx, work, Placement{Index: i, Combination: c})
	}

	for _, entry := range r.in.Nested {
		if len(entry.Combinations) == 0 {
			if err := r.clone(ctx, work, Placement{Index: i, Combination: c}); err != nil {
				return err
			}
			continue
		}
		for j, nc := range entry.Combinations {
			p := Placement{Index: i, Combination: c, Nested: entry.Instance.ID, NestedCombination: nc}
			if err := r.nestedClone(ctx, work, p, j); err != nil {
				return err
			}
		}
	}
	return nil
}

// nestedClone clones work, applies the nested combination and places the
// clone. A rejected nested combination abandons only this clone.
func (r *run) nestedClone(ctx context.Context, work document.NodeID, p Placement, j int) error {
	host := r.m.host
	id := r.in.Component.ID

	clone, err := host.Clone(ctx, work)
	if err != nil {
		r.fail(Failure{Index: p.Index, Combination: p.Combination, Nested: p.Nested, NestedIndex: j,
			Err: NewPlacementError(id, p.Index, err)})
		return nil
	}
	if err := host.SetNestedProperties(ctx, clone, p.Nested, p.NestedCombination); err != nil {
		r.discard(ctx, clone)
		r.fail(Failure{Index: p.Index, Combination: p.Combination, Nested: p.Nested, NestedIndex: j,
			Err: NewNestedRejectedError(id, p.Index, p.Nested, err)})
		return nil
	}
	return r.place(ctx, clone, p, j)
}

// clone clones work without a nested override and places it.
func (r *run) clone(ctx context.Context, work document.NodeID, p Placement) error {
	clone, err := r.m.host.Clone(ctx, work)
	if err != nil {
		r.fail(Failure{Index: p.Index, Combination: p.Combination, NestedIndex: -1,
			Err: NewPlacementError(r.in.Component.ID, p.Index, err)})
		return nil
	}
	return r.place(ctx, clone, p, -1)
}

// place names the clone, positions it at the cursor, advances the cursor and
// hands the placement to the sink.
func (r *run) place(ctx context.Context, clone document.NodeID, p Placement, nestedIndex int) error {
	host := r.m.host
	comp := r.in.Component

	name := fmt.Sprintf("%s_%d", comp.Path, r.seq+1)
	at := r.out.Cursor

	err := host.Rename(ctx, clone, name)
	if err == nil {
		err = host.Place(ctx, clone, at.X, at.Y)
	}
	if err != nil {
		r.discard(ctx, clone)
		r.fail(Failure{Index: p.Index, Combination: p.Combination, Nested: p.Nested, NestedIndex: nestedIndex,
			Err: NewPlacementError(comp.ID, p.Index, err)})
		return nil
	}

	p.Seq = r.seq
	p.Instance = clone
	p.Name = name
	p.At = at
	p.Next = r.m.grid.Advance(at, comp.Size.Width, comp.Size.Height)

	r.seq++
	r.out.Placed++
	r.out.Cursor = p.Next

	r.m.log.Debug("placed",
		zap.String(logger.FieldInstance, name),
		zap.Float64(logger.FieldX, at.X), zap.Float64(logger.FieldY, at.Y))

	if r.in.Sink != nil {
		if err := r.in.Sink.Placed(ctx, p); err != nil {
			return NewPersistenceError(comp.ID, "save placement", err)
		}
	}
	return nil
}

func (r *run) discard(ctx context.Context, clone document.NodeID) {
	if err := r.m.host.Remove(ctx, clone); err != nil {
		r.m.log.Warn("remove discarded clone",
			zap.String(logger.FieldInstance, string(clone)), zap.Error(err))
	}
}
