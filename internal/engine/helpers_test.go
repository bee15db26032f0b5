package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/layout"
	"github.com/roach88/variantforge/internal/schema"
	"github.com/roach88/variantforge/internal/testutil"
)

// scenarioGrid matches the documented layout example: padding 10, rows wrap
// at 300.
var scenarioGrid = layout.Grid{Padding: 10, RowWidth: 300}

func variant(id, prop, value string, w, h float64, exposed ...document.ExposedSpec) document.VariantSpec {
	return document.VariantSpec{
		ID:      id,
		Values:  map[string]string{prop: value},
		Width:   w,
		Height:  h,
		Exposed: exposed,
	}
}

func scenarioFile() *document.File {
	filled := []document.PropertySpec{{Name: "Filled", Type: "BOOLEAN"}}
	return &document.File{
		Page: "Scenario",
		Components: []document.ComponentSpec{
			{
				ID: "b1", Name: "Button",
				Properties: []document.PropertySpec{
					{Name: "Size", Type: "VARIANT", Options: []string{"Small", "Large"}},
					{Name: "Disabled", Type: "BOOLEAN"},
				},
				Variants: []document.VariantSpec{
					variant("b1/small", "Size", "Small", 100, 50),
					variant("b1/large", "Size", "Large", 100, 50),
				},
			},
			{
				// Mixed is a declared option without a variant child, so the
				// host rejects it.
				ID: "t1", Name: "Toggle",
				Properties: []document.PropertySpec{
					{Name: "Tone", Type: "VARIANT", Options: []string{"Info", "Mixed", "Warn"}},
				},
				Variants: []document.VariantSpec{
					variant("t1/info", "Tone", "Info", 100, 50),
					variant("t1/warn", "Tone", "Warn", 100, 50),
				},
			},
			{
				ID: "p1", Name: "Chip",
				Properties: []document.PropertySpec{
					{Name: "Size", Type: "VARIANT", Options: []string{"S", "L"}},
				},
				Variants: []document.VariantSpec{
					variant("p1/s", "Size", "S", 100, 50),
					variant("p1/l", "Size", "L", 100, 50),
				},
			},
			{
				ID: "c1", Name: "Card",
				Properties: []document.PropertySpec{
					{Name: "Density", Type: "VARIANT", Options: []string{"Compact", "Cozy"}},
				},
				Variants: []document.VariantSpec{
					variant("c1/compact", "Density", "Compact", 50, 20,
						document.ExposedSpec{ID: "icon", Name: "Icon", Properties: filled},
						document.ExposedSpec{ID: "divider", Name: "Divider"},
					),
					variant("c1/cozy", "Density", "Cozy", 50, 20,
						document.ExposedSpec{ID: "divider", Name: "Divider"},
					),
				},
			},
			{ID: "e1", Name: "Empty"},
			{
				ID: "x1", Name: "Picker",
				Properties: []document.PropertySpec{{Name: "Glyph", Type: "INSTANCE_SWAP"}},
				Variants:   []document.VariantSpec{{ID: "x1/0"}},
			},
		},
	}
}

func scenarioHost(t *testing.T) *document.Memory {
	t.Helper()
	m, err := document.NewMemory(scenarioFile(), document.WithIDGenerator(testutil.NewDeterministicIDs("n").Next))
	require.NoError(t, err)
	return m
}

func component(t *testing.T, h document.Host, id document.NodeID) *document.Component {
	t.Helper()
	c, err := h.Component(context.Background(), id)
	require.NoError(t, err)
	return c
}

func combo(pairs ...any) schema.Combination {
	var c schema.Combination
	for i := 0; i+1 < len(pairs); i += 2 {
		name := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case bool:
			c = c.With(name, schema.BoolValue(v))
		case string:
			c = c.With(name, schema.TextValue(v))
		}
	}
	return c
}

func positions(m *document.Memory) []layout.Cursor {
	var out []layout.Cursor
	for _, p := range m.Placements() {
		out = append(out, layout.Cursor{X: p.X, Y: p.Y})
	}
	return out
}

// recordingNotifier captures Done and Notice signals.
type recordingNotifier struct {
	mu      sync.Mutex
	done    []document.NodeID
	notices []string
}

func (n *recordingNotifier) Done(id document.NodeID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.done = append(n.done, id)
}

func (n *recordingNotifier) Notice(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, msg)
}

// recordingSink collects placements and can be told to fail.
type recordingSink struct {
	placed []Placement
	failAt int // fail on this placement number (1-based); 0 never fails
}

func (s *recordingSink) Placed(_ context.Context, p Placement) error {
	s.placed = append(s.placed, p)
	if s.failAt > 0 && len(s.placed) == s.failAt {
		return errors.New("disk full")
	}
	return nil
}

// faultyHost wraps a Memory host and injects failures.
type faultyHost struct {
	*document.Memory
	rejectProps func(schema.Combination) bool
	failPlace   func(x, y float64) bool
}

func (h *faultyHost) SetProperties(ctx context.Context, id document.NodeID, c schema.Combination) error {
	if h.rejectProps != nil && h.rejectProps(c) {
		return errors.Wrap(document.ErrRejected, "injected")
	}
	return h.Memory.SetProperties(ctx, id, c)
}

func (h *faultyHost) Place(ctx context.Context, id document.NodeID, x, y float64) error {
	if h.failPlace != nil && h.failPlace(x, y) {
		return errors.New("injected place failure")
	}
	return h.Memory.Place(ctx, id, x, y)
}
