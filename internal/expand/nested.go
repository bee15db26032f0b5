package expand

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/schema"
)

// NestedEntry pairs an exposed instance with the combinations of its own
// schema. Combinations is empty when the exposed instance has no properties,
// meaning no nested override is needed.
type NestedEntry struct {
	Instance     document.ExposedInstance
	Combinations []schema.Combination
}

// NestedSet is the ordered result of nested expansion, one entry per distinct
// exposed instance in first-seen order.
type NestedSet []NestedEntry

// Clones returns how many clones one top-level combination fans out into:
// one per nested combination, and one for each exposed instance without
// combinations. An empty set yields a single clone.
func (n NestedSet) Clones() int {
	if len(n) == 0 {
		return 1
	}
	total := 0
	for _, e := range n {
		total = AddSat(total, max(1, len(e.Combinations)))
	}
	return total
}

// NestedSummary reports nested counts for discovery.
type NestedSummary struct {
	Instances    int
	Combinations int
}

// Nested enumerates the exposed instances of every first-level child of comp
// and expands each non-empty schema. Every child is instantiated once to
// read its exposed instances and removed again before the next child is
// visited; instances are removed even when enumeration fails.
func Nested(ctx context.Context, host document.Host, comp *document.Component, textSamples int, sampler Sampler) (NestedSet, error) {
	var set NestedSet
	err := visitExposed(ctx, host, comp, func(ex document.ExposedInstance) {
		entry := NestedEntry{Instance: ex}
		if !ex.Properties.IsEmpty() {
			entry.Combinations = Expand(ex.Properties, textSamples, sampler)
		}
		set = append(set, entry)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// NestedCount computes nested counts without sampling. Exposed instances of
// remote components are skipped: their schemas are not introspected when
// only counting.
func NestedCount(ctx context.Context, host document.Host, comp *document.Component, textSamples int) (NestedSummary, error) {
	var sum NestedSummary
	err := visitExposed(ctx, host, comp, func(ex document.ExposedInstance) {
		if ex.Remote {
			return
		}
		sum.Instances++
		if !ex.Properties.IsEmpty() {
			sum.Combinations = AddSat(sum.Combinations, Count(ex.Properties, textSamples))
		}
	})
	return sum, err
}

// visitExposed calls fn once per distinct exposed instance ID across the
// children of comp.
func visitExposed(ctx context.Context, host document.Host, comp *document.Component, fn func(document.ExposedInstance)) error {
	seen := make(map[string]bool)
	for _, child := range comp.Children {
		exposed, err := readExposed(ctx, host, child)
		if err != nil {
			return errors.Wrapf(err, "read exposed instances of %q", child)
		}
		for _, ex := range exposed {
			if seen[ex.ID] {
				continue
			}
			seen[ex.ID] = true
			fn(ex)
		}
	}
	return nil
}

// readExposed creates a throwaway instance of child, lists its exposed
// instances and removes it.
func readExposed(ctx context.Context, host document.Host, child document.NodeID) (exposed []document.ExposedInstance, err error) {
	inst, err := host.CreateInstance(ctx, child)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := host.Remove(ctx, inst); rmErr != nil && err == nil {
			err = rmErr
		}
	}()
	return host.ExposedInstances(ctx, inst)
}
