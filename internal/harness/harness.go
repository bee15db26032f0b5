package harness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/engine"
	"github.com/roach88/variantforge/internal/store"
	"github.com/roach88/variantforge/internal/testutil"
)

// epoch is the first timestamp handed to the store; every later call
// advances one second.
var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// Harness holds the per-scenario fixtures.
type Harness struct {
	store   *store.Store
	host    *document.Memory
	orch    *engine.Orchestrator
	signals *signals
	logger  *zap.Logger
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger sets the logger handed to the orchestrator. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database and document.
// Execution flow:
//  1. Load the document into a Memory host with sequential instance IDs
//  2. Seed the cursor, if the scenario sets one
//  3. Issue every request to completion, checking expect clauses
//  4. Snapshot the document, cursor and run log
//  5. Evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{logger: zap.NewNop(), signals: &signals{}}
	for _, opt := range opts {
		opt(h)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	st.SetClock(stepClock())
	h.store = st

	doc := scenario.Document
	if doc == nil {
		doc, err = document.LoadFile(scenario.DocumentPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load document: %w", err)
		}
	}
	ids := testutil.NewDeterministicIDs("inst")
	h.host, err = document.NewMemory(doc, document.WithIDGenerator(ids.Next))
	if err != nil {
		return nil, fmt.Errorf("failed to build document: %w", err)
	}

	ctx := context.Background()
	if scenario.Cursor != nil {
		if err := st.SaveCursor(ctx, h.host.Surface(), *scenario.Cursor); err != nil {
			return nil, fmt.Errorf("failed to seed cursor: %w", err)
		}
	}

	runIDs := make([]string, len(scenario.Requests))
	for i := range runIDs {
		runIDs[i] = fmt.Sprintf("run-%d", i+1)
	}
	h.orch = engine.NewOrchestrator(h.host, st,
		engine.WithGrid(scenario.Layout()),
		engine.WithSampler(&testutil.CountingSampler{}),
		engine.WithNotifier(h.signals),
		engine.WithRunRecorder(st),
		engine.WithMaxCombinations(scenario.MaxCombinations),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(runIDs...)),
		engine.WithLogger(h.logger),
	)

	result := NewResult()
	for i, step := range scenario.Requests {
		sr := h.execute(ctx, step)
		result.AddStep(sr)
		for _, msg := range checkExpect(i, step.Expect, sr) {
			result.AddError(msg)
		}
	}

	result.Export = h.host.Export()
	result.Live = h.host.LiveInstances()
	if result.Cursor, err = st.LoadCursor(ctx, h.host.Surface()); err != nil {
		return nil, fmt.Errorf("failed to read cursor: %w", err)
	}
	if result.Runs, err = st.ListRuns(ctx, 0); err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// execute issues one request and records its outcome.
func (h *Harness) execute(ctx context.Context, step RequestStep) StepResult {
	sr := StepResult{Component: step.Component}

	res, err := h.orch.Generate(ctx, step.Request())
	if err != nil {
		sr.Code = string(engine.CodeOf(err))
		if sr.Code == "" {
			sr.Code = "ERROR"
		}
		sr.Notice = h.signals.lastNotice()
		return sr
	}

	sr.RunID = res.RunID
	sr.Placed = res.Placed
	sr.FastPath = res.FastPath
	for _, f := range res.Failures {
		sr.Failures = append(sr.Failures, FailureRecord{
			Index:       f.Index,
			Nested:      f.Nested,
			NestedIndex: f.NestedIndex,
			Code:        string(engine.CodeOf(f.Err)),
		})
	}
	return sr
}

// checkExpect compares a step outcome against its expect clause.
func checkExpect(index int, expect *ExpectClause, sr StepResult) []string {
	var errs []string
	if expect == nil {
		if sr.Code != "" {
			errs = append(errs, fmt.Sprintf("requests[%d]: unexpected %s: %s", index, sr.Code, sr.Notice))
		}
		return errs
	}

	if sr.Code != expect.Code {
		want, got := expect.Code, sr.Code
		if want == "" {
			want = "completion"
		}
		if got == "" {
			got = "completion"
		}
		errs = append(errs, fmt.Sprintf("requests[%d]: expected %s, got %s", index, want, got))
	}
	if expect.Placed != nil && sr.Placed != *expect.Placed {
		errs = append(errs, fmt.Sprintf("requests[%d]: expected %d placed, got %d", index, *expect.Placed, sr.Placed))
	}
	if expect.Failed != nil && len(sr.Failures) != *expect.Failed {
		errs = append(errs, fmt.Sprintf("requests[%d]: expected %d failed, got %d", index, *expect.Failed, len(sr.Failures)))
	}
	return errs
}

// stepClock returns a clock that starts at epoch and advances one second
// per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	next := epoch
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}

// signals records notifier output.
type signals struct {
	mu      sync.Mutex
	done    []document.NodeID
	notices []string
}

func (s *signals) Done(id document.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = append(s.done, id)
}

func (s *signals) Notice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, msg)
}

func (s *signals) lastNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.notices) == 0 {
		return ""
	}
	return s.notices[len(s.notices)-1]
}
