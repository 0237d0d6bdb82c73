package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"roombook/logging"
)

const DefaultInterval = 50 * time.Millisecond

// Operation runs a backend call next to a staged progress display.
//
// The display follows its own schedule and always reaches 100; the call's
// outcome is handed to onResult whenever it arrives and never stops or
// rewinds the display. The guard is held from start until the display
// completes, or until ctx is cancelled.
type Operation struct {
	Guard    Guard
	Stages   []Stage
	Interval time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

func (o *Operation) Run(ctx context.Context, call func(context.Context) error, onUpdate func(Snapshot), onResult func(error)) error {
	guard := o.Guard
	if guard == nil {
		guard = ProcessGuard()
	}
	now := o.Now
	if now == nil {
		now = time.Now
	}
	interval := o.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := o.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	if onUpdate == nil {
		onUpdate = func(Snapshot) {}
	}
	if onResult == nil {
		onResult = func(error) {}
	}

	acquired, err := guard.TryAcquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		logger.Warn("operation refused", "reason", ErrInProgress.Error())
		return ErrInProgress
	}

	var releaseOnce sync.Once
	release := func() {
		releaseOnce.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := guard.Release(releaseCtx); err != nil {
				logger.Warn("release guard failed", "error", err)
			}
		})
	}
	defer release()

	results := make(chan error, 1)
	go func() {
		results <- call(ctx)
	}()

	anim := NewAnimation(o.Stages)
	onUpdate(anim.Start(now()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pending := results
	for !anim.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-pending:
			pending = nil
			if err != nil {
				logger.Warn("backend call failed", "error", err)
			}
			onResult(err)
		case <-ticker.C:
			onUpdate(anim.Tick(now()))
		}
	}
	ticker.Stop()
	release()

	if pending == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-pending:
		if err != nil {
			logger.Warn("backend call failed", "error", err)
		}
		onResult(err)
		return nil
	}
}
