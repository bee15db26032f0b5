package engine

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/expand"
	"github.com/roach88/variantforge/internal/fingerprint"
	"github.com/roach88/variantforge/internal/layout"
	"github.com/roach88/variantforge/internal/logger"
	"github.com/roach88/variantforge/internal/schema"
	"github.com/roach88/variantforge/internal/store"
)

// Request is one generation request: a component set and the number of
// synthetic samples per TEXT property.
type Request struct {
	ComponentID document.NodeID `json:"nodeId"`
	TextSamples int             `json:"textDummy"`
}

// Result summarizes a completed request.
type Result struct {
	RunID        string
	ComponentID  document.NodeID
	Combinations int
	Placed       int
	Failures     []Failure
	Cursor       layout.Cursor
	FastPath     bool
}

// Notifier receives the user-facing outcome of each request. Exactly one of
// Done or Notice is called per request.
type Notifier interface {
	Done(componentID document.NodeID)
	Notice(message string)
}

// CursorStore loads and persists the placement cursor per surface.
type CursorStore interface {
	LoadCursor(ctx context.Context, surface string) (layout.Cursor, error)
	SaveCursor(ctx context.Context, surface string, c layout.Cursor) error
}

// RunRecorder persists the run log. *store.Store implements it.
type RunRecorder interface {
	BeginRun(ctx context.Context, r store.Run) error
	RecordPlacement(ctx context.Context, p store.Placement) error
	RecordFailure(ctx context.Context, f store.Failure) error
	FinishRun(ctx context.Context, runID, status string, placed, failed int) error
}

// Orchestrator drives a request end to end: expansion, nested expansion,
// materialization, persistence and the completion signal.
//
// Requests must be issued one at a time; Runner enforces this for callers
// that receive requests concurrently.
type Orchestrator struct {
	host            document.Host
	cursors         CursorStore
	grid            layout.Grid
	sampler         expand.Sampler
	notifier        Notifier
	recorder        RunRecorder
	maxCombinations int
	runIDs          RunIDGenerator
	log             *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithGrid sets the layout constants. Default: layout.DefaultGrid.
func WithGrid(g layout.Grid) Option {
	return func(o *Orchestrator) { o.grid = g }
}

// WithSampler sets the TEXT sampler. Default: a time-seeded generator.
func WithSampler(s expand.Sampler) Option {
	return func(o *Orchestrator) { o.sampler = s }
}

// WithNotifier sets the receiver of Done and Notice signals.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithRunRecorder enables the run log.
func WithRunRecorder(r RunRecorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithMaxCombinations caps the number of instances one request may produce.
// Zero disables the cap.
func WithMaxCombinations(n int) Option {
	return func(o *Orchestrator) { o.maxCombinations = n }
}

// WithRunIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(o *Orchestrator) { o.runIDs = g }
}

// WithLogger sets the logger. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = logger.OrNop(l) }
}

// NewOrchestrator creates an Orchestrator over host, persisting cursors in
// cursors.
func NewOrchestrator(host document.Host, cursors CursorStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		host:    host,
		cursors: cursors,
		grid:    layout.DefaultGrid,
		runIDs:  UUIDv7Generator{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate serves one request. A nil error means the request completed and
// Done was signalled, whatever the number of discarded combinations. A
// terminal error means nothing more will be attempted for the request and a
// Notice was emitted instead.
//
// ctx is handed to the host and cursor store for the lookups that precede
// materialization; whether they observe cancellation is up to them.
// Materialization runs under context.WithoutCancel and always completes.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Result, error) {
	res, err := o.generate(ctx, req)
	if err != nil {
		o.log.Error("generation aborted",
			zap.String(logger.FieldComponent, string(req.ComponentID)),
			zap.String(logger.FieldCode, string(CodeOf(err))),
			zap.Error(err))
		if o.notifier != nil {
			o.notifier.Notice(UserNotice(err))
		}
		return nil, err
	}
	if o.notifier != nil {
		o.notifier.Done(req.ComponentID)
	}
	return res, nil
}

func (o *Orchestrator) generate(ctx context.Context, req Request) (*Result, error) {
	comp, err := o.host.Component(ctx, req.ComponentID)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return nil, NewComponentNotFoundError(req.ComponentID, err)
		}
		return nil, errors.Wrapf(err, "look up component %s", req.ComponentID)
	}
	if _, ok := comp.Template(); !ok {
		return nil, NewNoTemplateError(comp)
	}
	s, err := comp.Schema()
	if err != nil {
		return nil, NewSchemaUnreadableError(comp, err)
	}

	if o.maxCombinations > 0 {
		if n := expand.Count(s, req.TextSamples); n > o.maxCombinations {
			return nil, NewTooManyCombinationsError(comp, n, o.maxCombinations)
		}
	}
	combos := expand.Expand(s, req.TextSamples, o.sampler)

	nested, err := expand.Nested(ctx, o.host, comp, req.TextSamples, o.sampler)
	if err != nil {
		return nil, NewSchemaUnreadableError(comp, err)
	}
	if o.maxCombinations > 0 {
		if n := expand.MulSat(len(combos), nested.Clones()); n > o.maxCombinations {
			return nil, NewTooManyCombinationsError(comp, n, o.maxCombinations)
		}
	}

	surface := o.host.Surface()
	cursor, err := o.cursors.LoadCursor(ctx, surface)
	if err != nil {
		return nil, NewPersistenceError(comp.ID, "load cursor", err)
	}

	runID := o.runIDs.Generate()
	log := o.log.With(
		zap.String(logger.FieldRun, runID),
		zap.String(logger.FieldComponent, string(comp.ID)),
	)
	log.Info("generating",
		zap.String(logger.FieldSurface, surface),
		zap.Int(logger.FieldCount, len(combos)),
		zap.Int(logger.FieldNested, len(nested)))

	// Materialization is not cancellable.
	mctx := context.WithoutCancel(ctx)

	if o.recorder != nil {
		err := o.recorder.BeginRun(mctx, store.Run{
			ID:            runID,
			Surface:       surface,
			ComponentID:   string(comp.ID),
			ComponentName: comp.Name,
			TextSamples:   req.TextSamples,
			Combinations:  len(combos),
		})
		if err != nil {
			return nil, NewPersistenceError(comp.ID, "begin run", err)
		}
	}

	sink := &persistSink{o: o, surface: surface, runID: runID, component: string(comp.ID)}
	m := NewMaterializer(o.host, o.grid, log)
	out, err := m.Materialize(mctx, Input{
		Component:    comp,
		Combinations: combos,
		Nested:       nested,
		Cursor:       cursor,
		Sink:         sink,
	})
	if err != nil {
		o.finish(mctx, log, runID, store.RunAborted, out)
		return nil, err
	}
	if err := o.finish(mctx, log, runID, store.RunCompleted, out); err != nil {
		return nil, NewPersistenceError(comp.ID, "finish run", err)
	}

	log.Info("generation complete",
		zap.Int(logger.FieldPlaced, out.Placed),
		zap.Int(logger.FieldFailed, len(out.Failures)),
		zap.Bool("fast_path", out.FastPath))

	return &Result{
		RunID:        runID,
		ComponentID:  comp.ID,
		Combinations: len(combos),
		Placed:       out.Placed,
		Failures:     out.Failures,
		Cursor:       out.Cursor,
		FastPath:     out.FastPath,
	}, nil
}

// finish records failures and closes the run.
func (o *Orchestrator) finish(ctx context.Context, log *zap.Logger, runID, status string, out Outcome) error {
	if o.recorder == nil {
		return nil
	}
	for _, f := range out.Failures {
		rf := store.Failure{
			RunID:            runID,
			CombinationIndex: f.Index,
			NestedID:         f.Nested,
			NestedIndex:      f.NestedIndex,
			Code:             string(CodeOf(f.Err)),
			Reason:           Reason(f.Err),
			Combination:      combinationJSON(f.Combination),
		}
		if err := o.recorder.RecordFailure(ctx, rf); err != nil {
			log.Error("record failure", zap.Error(err))
			return err
		}
	}
	if err := o.recorder.FinishRun(ctx, runID, status, out.Placed, len(out.Failures)); err != nil {
		log.Error("finish run", zap.Error(err))
		return err
	}
	return nil
}

// persistSink saves the cursor and, when enabled, the placement after every
// successful placement.
type persistSink struct {
	o         *Orchestrator
	surface   string
	runID     string
	component string
}

func (s *persistSink) Placed(ctx context.Context, p Placement) error {
	if err := s.o.cursors.SaveCursor(ctx, s.surface, p.Next); err != nil {
		return errors.Wrap(err, "save cursor")
	}
	if s.o.recorder == nil {
		return nil
	}
	key, err := fingerprint.Placement(s.component, p.Combination, p.Nested, p.NestedCombination)
	if err != nil {
		return errors.Wrap(err, "placement key")
	}
	x, y := p.At.Strings()
	return s.o.recorder.RecordPlacement(ctx, store.Placement{
		RunID:       s.runID,
		Seq:         p.Seq,
		InstanceID:  string(p.Instance),
		Name:        p.Name,
		X:           x,
		Y:           y,
		Combination: combinationJSON(p.Combination),
		Key:         key,
	})
}

func combinationJSON(c schema.Combination) string {
	b, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// MemoryCursors is an in-memory CursorStore.
type MemoryCursors struct {
	mu      sync.Mutex
	cursors map[string]layout.Cursor
	saves   int
}

// NewMemoryCursors creates an empty cursor store.
func NewMemoryCursors() *MemoryCursors {
	return &MemoryCursors{cursors: make(map[string]layout.Cursor)}
}

func (m *MemoryCursors) LoadCursor(_ context.Context, surface string) (layout.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursors[surface], nil
}

func (m *MemoryCursors) SaveCursor(_ context.Context, surface string, c layout.Cursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[surface] = c
	m.saves++
	return nil
}

// Saves returns how many times SaveCursor was called.
func (m *MemoryCursors) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
