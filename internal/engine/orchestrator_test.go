package engine

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/layout"
	"github.com/roach88/variantforge/internal/store"
	"github.com/roach88/variantforge/internal/testutil"
)

func newTestOrchestrator(t *testing.T, host document.Host, opts ...Option) (*Orchestrator, *MemoryCursors, *recordingNotifier) {
	t.Helper()
	cursors := NewMemoryCursors()
	n := &recordingNotifier{}
	opts = append([]Option{WithGrid(scenarioGrid), WithNotifier(n), WithSampler(&testutil.CountingSampler{})}, opts...)
	return NewOrchestrator(host, cursors, opts...), cursors, n
}

func TestGenerate_Scenario(t *testing.T) {
	host := scenarioHost(t)
	o, cursors, n := newTestOrchestrator(t, host)
	ctx := context.Background()

	res, err := o.Generate(ctx, Request{ComponentID: "b1"})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Combinations)
	assert.Equal(t, 4, res.Placed)
	assert.Equal(t, []layout.Cursor{{X: 0, Y: 0}, {X: 110, Y: 0}, {X: 220, Y: 0}, {X: 0, Y: 60}}, positions(host))

	// The cursor was persisted after every placement.
	assert.Equal(t, 4, cursors.Saves())
	c, _ := cursors.LoadCursor(ctx, "Scenario")
	assert.Equal(t, layout.Cursor{X: 110, Y: 60}, c)

	assert.Equal(t, []document.NodeID{"b1"}, n.done)
	assert.Empty(t, n.notices)
}

func TestGenerate_FailureIsolationSignalsDoneOnce(t *testing.T) {
	host := scenarioHost(t)
	o, cursors, n := newTestOrchestrator(t, host)
	ctx := context.Background()

	// Toggle expands to Info, Mixed, Warn; Mixed has no variant child.
	res, err := o.Generate(ctx, Request{ComponentID: "t1"})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Combinations)
	assert.Equal(t, 2, res.Placed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)

	assert.Equal(t, []layout.Cursor{{X: 0, Y: 0}, {X: 110, Y: 0}}, positions(host))
	assert.Equal(t, 2, cursors.Saves())
	assert.Equal(t, []document.NodeID{"t1"}, n.done)
}

func TestGenerate_SuccessiveRunsDoNotOverlap(t *testing.T) {
	host := scenarioHost(t)
	o, _, _ := newTestOrchestrator(t, host)
	ctx := context.Background()

	_, err := o.Generate(ctx, Request{ComponentID: "b1"})
	require.NoError(t, err)
	_, err = o.Generate(ctx, Request{ComponentID: "p1"})
	require.NoError(t, err)

	got := positions(host)
	require.Len(t, got, 6)
	assert.Equal(t, layout.Cursor{X: 110, Y: 60}, got[4])
	assert.Equal(t, layout.Cursor{X: 220, Y: 60}, got[5])

	placed := host.Placements()
	assert.Equal(t, "Scenario / Chip_1", placed[4].Name, "suffix restarts per run")
}

func TestGenerate_TerminalErrors(t *testing.T) {
	tests := []struct {
		name string
		id   document.NodeID
		opts []Option
		code Code
	}{
		{"missing component", "zz", nil, CodeComponentNotFound},
		{"no template", "e1", nil, CodeNoTemplate},
		{"unreadable schema", "x1", nil, CodeSchemaUnreadable},
		{"combination guard", "b1", []Option{WithMaxCombinations(3)}, CodeTooManyCombinations},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := scenarioHost(t)
			o, cursors, n := newTestOrchestrator(t, host, tt.opts...)

			res, err := o.Generate(context.Background(), Request{ComponentID: tt.id})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, IsTerminal(err))
			assert.Equal(t, tt.code, CodeOf(err))

			assert.Empty(t, n.done, "no completion signal for a terminal error")
			require.Len(t, n.notices, 1)
			assert.NotEmpty(t, n.notices[0])

			assert.Empty(t, host.Placements(), "no partial materialization")
			assert.Zero(t, cursors.Saves())
			assert.Zero(t, host.LiveInstances())
		})
	}
}

func TestGenerate_NestedGuardCountsClones(t *testing.T) {
	host := scenarioHost(t)
	// Card: 2 combinations, 3 clones each.
	o, _, n := newTestOrchestrator(t, host, WithMaxCombinations(5))

	_, err := o.Generate(context.Background(), Request{ComponentID: "c1"})
	require.Error(t, err)
	assert.Equal(t, CodeTooManyCombinations, CodeOf(err))
	assert.Contains(t, n.notices[0], "expands to 6 instances")
	assert.Zero(t, host.LiveInstances(), "throwaway instances removed")
}

func TestGenerate_GuardHoldsWhenCountOverflows(t *testing.T) {
	props := make([]document.PropertySpec, 64)
	for i := range props {
		props[i] = document.PropertySpec{Name: fmt.Sprintf("Flag%02d", i), Type: "BOOLEAN"}
	}
	host, err := document.NewMemory(&document.File{
		Page: "Scenario",
		Components: []document.ComponentSpec{{
			ID: "f1", Name: "Flags",
			Properties: props,
			Variants:   []document.VariantSpec{{ID: "f1/default", Width: 10, Height: 10}},
		}},
	})
	require.NoError(t, err)

	o, cursors, n := newTestOrchestrator(t, host, WithMaxCombinations(1000))

	_, err = o.Generate(context.Background(), Request{ComponentID: "f1"})
	require.Error(t, err)
	assert.Equal(t, CodeTooManyCombinations, CodeOf(err))
	assert.Contains(t, n.notices[0], fmt.Sprintf("expands to %d instances", math.MaxInt))
	assert.Empty(t, host.Placements())
	assert.Zero(t, cursors.Saves())
}

func TestGenerate_MaterializationIgnoresCancellation(t *testing.T) {
	host := scenarioHost(t)
	o, _, n := newTestOrchestrator(t, host)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The memory host ignores ctx, so the whole request runs; the
	// materializer itself never observes cancellation.
	res, err := o.Generate(ctx, Request{ComponentID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Placed)
	assert.Len(t, n.done, 1)
}

func TestGenerate_WithStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "vf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	host := scenarioHost(t)
	n := &recordingNotifier{}
	o := NewOrchestrator(host, st,
		WithGrid(scenarioGrid),
		WithNotifier(n),
		WithRunRecorder(st),
		WithRunIDGenerator(NewFixedGenerator("run-1", "run-2")),
	)
	ctx := context.Background()

	res, err := o.Generate(ctx, Request{ComponentID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", res.RunID)

	_, err = o.Generate(ctx, Request{ComponentID: "t1"})
	require.NoError(t, err)

	c, err := st.LoadCursor(ctx, "Scenario")
	require.NoError(t, err)
	// Button ends at (110,60); Toggle places two more from there.
	assert.Equal(t, layout.Cursor{X: 0, Y: 120}, c)

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	byID := map[string]store.Run{}
	for _, r := range runs {
		byID[r.ID] = r
	}
	assert.Equal(t, store.RunCompleted, byID["run-1"].Status)
	assert.Equal(t, 4, byID["run-1"].Placed)
	assert.Equal(t, 2, byID["run-2"].Placed)
	assert.Equal(t, 1, byID["run-2"].Failed)

	placements, err := st.RunPlacements(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, placements, 4)
	assert.Equal(t, "Scenario / Button_4", placements[3].Name)
	assert.Equal(t, "0", placements[3].X)
	assert.Equal(t, "60", placements[3].Y)
	assert.Equal(t, `{"Size":"Large","Disabled":false}`, placements[3].Combination)
	assert.Len(t, placements[3].Key, 64)
	assert.NotEqual(t, placements[2].Key, placements[3].Key)

	failures, err := st.RunFailures(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, string(CodeCombinationRejected), failures[0].Code)
	assert.Equal(t, `{"Tone":"Mixed"}`, failures[0].Combination)
	assert.Equal(t, -1, failures[0].NestedIndex)

	assert.Equal(t, []document.NodeID{"b1", "t1"}, n.done)
}
