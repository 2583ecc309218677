package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/npratt/okline/internal/model"
)

// DefaultSaveDebounce is how long AutoSaver waits after the last change
// before writing.
const DefaultSaveDebounce = 800 * time.Millisecond

// AutoSaver coalesces a burst of snapshot changes into one save. Each
// Notify restarts the debounce timer; when it fires the most recent
// snapshot is written.
type AutoSaver struct {
	store  Store
	clock  clock.Clock
	delay  time.Duration
	logger *slog.Logger

	// saveMu orders writes: a snapshot is claimed and written under it, so
	// a newer snapshot is never overwritten by an older one.
	saveMu sync.Mutex

	mu      sync.Mutex
	pending *model.Snapshot
	timer   *clock.Timer
	gen     uint64
	lastErr error
	closed  bool
	onSaved func(*model.Snapshot, error)
}

// AutoSaverOption configures an AutoSaver.
type AutoSaverOption func(*AutoSaver)

// WithSaverClock sets the clock driving the debounce timer.
func WithSaverClock(c clock.Clock) AutoSaverOption {
	return func(a *AutoSaver) { a.clock = c }
}

// WithSaverLogger sets the logger for save failures.
func WithSaverLogger(l *slog.Logger) AutoSaverOption {
	return func(a *AutoSaver) { a.logger = l }
}

// WithOnSaved registers a callback run after every save attempt.
func WithOnSaved(fn func(*model.Snapshot, error)) AutoSaverOption {
	return func(a *AutoSaver) { a.onSaved = fn }
}

// NewAutoSaver returns an AutoSaver writing to store. A non-positive delay
// uses DefaultSaveDebounce.
func NewAutoSaver(store Store, delay time.Duration, opts ...AutoSaverOption) *AutoSaver {
	if delay <= 0 {
		delay = DefaultSaveDebounce
	}
	a := &AutoSaver{
		store:  store,
		clock:  clock.New(),
		delay:  delay,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Notify records snap as the latest state and restarts the timer. It has
// the signature of a graph.Board change hook.
func (a *AutoSaver) Notify(snap *model.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending = snap
	if a.timer != nil {
		a.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.timer = a.clock.AfterFunc(a.delay, func() { a.fire(gen) })
}

// Pending reports whether a change is waiting to be written.
func (a *AutoSaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Err returns the error of the most recent save, if it failed.
func (a *AutoSaver) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// fire runs when timer gen expires. A timer superseded by a later Notify
// leaves the pending snapshot to its successor.
func (a *AutoSaver) fire(gen uint64) {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	if snap := a.take(gen); snap != nil {
		_ = a.save(context.Background(), snap)
	}
}

// take claims the pending snapshot for timer gen; gen 0 claims it
// unconditionally and stops the timer.
func (a *AutoSaver) take(gen uint64) *model.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != 0 && gen != a.gen {
		return nil
	}
	if gen == 0 && a.timer != nil {
		a.timer.Stop()
	}
	snap := a.pending
	a.pending = nil
	a.timer = nil
	return snap
}

func (a *AutoSaver) save(ctx context.Context, snap *model.Snapshot) error {
	err := a.store.Save(ctx, snap)
	if err != nil {
		a.logger.Error("autosave failed", "error", err)
	} else {
		a.logger.Debug("autosave complete", "last_modified", snap.Metadata.LastModified)
	}
	a.mu.Lock()
	a.lastErr = err
	cb := a.onSaved
	a.mu.Unlock()
	if cb != nil {
		cb(snap, err)
	}
	return err
}

// Flush writes any pending snapshot now, after waiting for a save the timer
// may already have started.
func (a *AutoSaver) Flush(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	snap := a.take(0)
	if snap == nil {
		return nil
	}
	return a.save(ctx, snap)
}

// Close flushes and stops accepting changes.
func (a *AutoSaver) Close(ctx context.Context) error {
	err := a.Flush(ctx)
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return err
}
