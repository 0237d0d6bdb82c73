package progress

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"roombook/logging"
)

var reference = time.Date(2025, time.May, 2, 10, 0, 0, 0, time.UTC)

func TestEase(t *testing.T) {
	if Ease(0) != 0 {
		t.Fatalf("ease(0) = %v", Ease(0))
	}
	if math.Abs(Ease(1)-1) > 1e-9 {
		t.Fatalf("ease(1) = %v", Ease(1))
	}
	if math.Abs(Ease(0.5)-0.5) > 1e-9 {
		t.Fatalf("ease(0.5) = %v", Ease(0.5))
	}
}

func TestAnimation_RunsToCompletion(t *testing.T) {
	anim := NewAnimation(SyncStages)
	now := reference
	snap := anim.Start(now)
	if snap.Phase != Running || snap.Progress != 0 || snap.Message != SyncStages[0].Label {
		t.Fatalf("unexpected start snapshot: %+v", snap)
	}

	prev := 0.0
	messages := map[string]bool{}
	for i := 0; i < 10000 && !anim.Done(); i++ {
		now = now.Add(50 * time.Millisecond)
		snap = anim.Tick(now)
		if snap.Progress < prev {
			t.Fatalf("progress went backwards: %v -> %v", prev, snap.Progress)
		}
		if snap.Progress > 100 {
			t.Fatalf("progress above 100: %v", snap.Progress)
		}
		prev = snap.Progress
		messages[snap.Message] = true
	}

	if !anim.Done() || snap.Phase != Completed {
		t.Fatalf("animation did not complete: %+v", snap)
	}
	if snap.Progress != 100 {
		t.Fatalf("expected 100, got %v", snap.Progress)
	}
	if len(messages) != len(SyncStages) {
		t.Fatalf("expected every stage label to show, saw %d", len(messages))
	}
	if after := anim.Tick(now.Add(time.Hour)); after != snap {
		t.Fatalf("ticks after completion must not change state: %+v", after)
	}
}

func TestAnimation_InterpolatesWithinStage(t *testing.T) {
	anim := NewAnimation([]Stage{
		{Label: "one", Target: 40, Duration: time.Second},
		{Label: "two", Target: 100, Duration: time.Second},
	})
	anim.Start(reference)

	snap := anim.Tick(reference.Add(500 * time.Millisecond))
	if math.Abs(snap.Progress-20) > 1e-9 {
		t.Fatalf("halfway through stage one should be 20, got %v", snap.Progress)
	}

	snap = anim.Tick(reference.Add(time.Second))
	if snap.Progress != 40 || snap.Stage != 1 || snap.Message != "two" {
		t.Fatalf("expected to enter stage two at 40, got %+v", snap)
	}

	stageTwoStart := reference.Add(time.Second)
	snap = anim.Tick(stageTwoStart.Add(250 * time.Millisecond))
	want := 40 + 60*Ease(0.25)
	if math.Abs(snap.Progress-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, snap.Progress)
	}
}

func TestAnimation_SanitizesStages(t *testing.T) {
	anim := NewAnimation([]Stage{
		{Label: "a", Target: 60},
		{Label: "b", Target: 30},
		{Label: "c", Target: 250},
	})
	anim.Start(reference)
	prev := 0.0
	for !anim.Done() {
		snap := anim.Tick(reference)
		if snap.Progress < prev {
			t.Fatalf("progress went backwards with bad targets")
		}
		prev = snap.Progress
	}
	if prev != 100 {
		t.Fatalf("expected 100, got %v", prev)
	}

	empty := NewAnimation(nil)
	if snap := empty.Start(reference); snap.Phase != Completed || snap.Progress != 100 {
		t.Fatalf("no stages should complete immediately, got %+v", snap)
	}
}

func TestLocalGuard(t *testing.T) {
	g := &LocalGuard{}
	ctx := context.Background()

	ok, _ := g.TryAcquire(ctx)
	if !ok {
		t.Fatalf("first acquire should succeed")
	}
	ok, _ = g.TryAcquire(ctx)
	if ok {
		t.Fatalf("second acquire should be refused")
	}
	_ = g.Release(ctx)
	if g.Busy() {
		t.Fatalf("guard should be free after release")
	}
	ok, _ = g.TryAcquire(ctx)
	if !ok {
		t.Fatalf("acquire after release should succeed")
	}
}

var fastStages = []Stage{
	{Label: "first", Target: 50, Duration: 20 * time.Millisecond},
	{Label: "second", Target: 100, Duration: 20 * time.Millisecond},
}

type recorder struct {
	mu      sync.Mutex
	snaps   []Snapshot
	results []error
}

func (r *recorder) update(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) result(err error) {
	r.mu.Lock()
	r.results = append(r.results, err)
	r.mu.Unlock()
}

func TestOperation_FailureDoesNotStopProgress(t *testing.T) {
	guard := &LocalGuard{}
	op := &Operation{Guard: guard, Stages: fastStages, Interval: 5 * time.Millisecond}
	rec := &recorder{}
	backendErr := errors.New("backend exploded")

	err := op.Run(context.Background(), func(context.Context) error {
		return backendErr
	}, rec.update, rec.result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := rec.snaps[len(rec.snaps)-1]
	if last.Phase != Completed || last.Progress != 100 {
		t.Fatalf("expected completed at 100, got %+v", last)
	}
	prev := 0.0
	for _, s := range rec.snaps {
		if s.Progress < prev {
			t.Fatalf("progress went backwards")
		}
		prev = s.Progress
	}
	if len(rec.results) != 1 || !errors.Is(rec.results[0], backendErr) {
		t.Fatalf("expected the backend error to be reported once, got %v", rec.results)
	}
	if guard.Busy() {
		t.Fatalf("guard should be released")
	}
}

func TestOperation_WaitsForSlowBackend(t *testing.T) {
	guard := &LocalGuard{}
	op := &Operation{Guard: guard, Stages: fastStages, Interval: 5 * time.Millisecond}
	rec := &recorder{}

	err := op.Run(context.Background(), func(context.Context) error {
		deadline := time.Now().Add(5 * time.Second)
		for guard.Busy() {
			if time.Now().After(deadline) {
				return errors.New("guard was not released when the display completed")
			}
			time.Sleep(time.Millisecond)
		}
		return nil
	}, rec.update, rec.result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.results) != 1 || rec.results[0] != nil {
		t.Fatalf("expected one nil result, got %v", rec.results)
	}
	last := rec.snaps[len(rec.snaps)-1]
	if last.Progress != 100 {
		t.Fatalf("expected the display to finish first, got %+v", last)
	}
}

func TestOperation_RefusesConcurrentRun(t *testing.T) {
	guard := &LocalGuard{}
	_, _ = guard.TryAcquire(context.Background())

	op := &Operation{Guard: guard, Stages: fastStages}
	called := false
	err := op.Run(context.Background(), func(context.Context) error {
		called = true
		return nil
	}, nil, nil)
	if !errors.Is(err, ErrInProgress) {
		t.Fatalf("expected ErrInProgress, got %v", err)
	}
	if called {
		t.Fatalf("backend call must not start when refused")
	}
	if !guard.Busy() {
		t.Fatalf("refused run must not release someone else's guard")
	}
}

func TestOperation_CancelReleasesGuard(t *testing.T) {
	guard := &LocalGuard{}
	op := &Operation{Guard: guard, Stages: []Stage{{Label: "slow", Target: 100, Duration: time.Hour}}, Interval: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := op.Run(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if guard.Busy() {
		t.Fatalf("guard should be released on cancel")
	}
}

func TestOperation_LogsThroughContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.ContextWithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	op := &Operation{Guard: &LocalGuard{}, Stages: fastStages, Interval: 5 * time.Millisecond}

	err := op.Run(ctx, func(context.Context) error {
		return errors.New("backend exploded")
	}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "backend call failed") {
		t.Fatalf("expected the failure on the context logger, got %q", buf.String())
	}
}
