// Package watch reloads the data file when another process changes it.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/storage"
)

const (
	// defaultDebounce is the time to wait for rapid file changes to settle.
	defaultDebounce = 100 * time.Millisecond

	// warningInterval is the minimum time between logged warnings.
	warningInterval = 5 * time.Second
)

// Source reads the data file without side effects on it.
type Source interface {
	Peek(ctx context.Context) (*model.Snapshot, error)
}

// Watcher monitors the data file and delivers snapshots written by someone
// else on Updates.
type Watcher struct {
	source   Source
	path     string
	logger   *slog.Logger
	debounce time.Duration
	hold     func() bool
	updates  chan *model.Snapshot

	running atomic.Bool
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc

	mu          sync.Mutex
	seen        time.Time
	lastWarning time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long writes must settle before the file is read.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithHold skips reloads while fn reports true, for example while local
// changes are waiting to be saved over the file anyway.
func WithHold(fn func() bool) Option {
	return func(w *Watcher) { w.hold = fn }
}

// New creates a Watcher for the file at path, read through source. A
// storage.FileStore is a Source.
func New(source Source, path string, opts ...Option) *Watcher {
	w := &Watcher{
		source:   source,
		path:     path,
		logger:   slog.New(slog.DiscardHandler),
		debounce: defaultDebounce,
		hold:     func() bool { return false },
		updates:  make(chan *model.Snapshot, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "watch")
	return w
}

// Updates delivers externally written snapshots. Only the latest unread
// snapshot is kept.
func (w *Watcher) Updates() <-chan *model.Snapshot {
	return w.updates
}

// Seen records the lastModified stamp of a snapshot this process wrote, so
// the write is not reported back as an external change.
func (w *Watcher) Seen(lastModified time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if lastModified.After(w.seen) {
		w.seen = lastModified
	}
}

// Start begins watching in a background goroutine. Returns immediately;
// use Stop to terminate.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running.Load() {
		return fmt.Errorf("watcher already running")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	// Watch the parent directory: saves replace the file by renaming.
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		_ = fsWatcher.Close()
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.running.Store(true)

	go w.runLoop(fsWatcher)

	w.logger.Info("started watching data file", "path", w.path)
	return nil
}

// Stop terminates the watcher and waits for its goroutine.
func (w *Watcher) Stop() error {
	if !w.running.Load() {
		return nil
	}
	w.cancel()
	<-w.done
	return nil
}

// Running returns whether the watcher is currently active.
func (w *Watcher) Running() bool {
	return w.running.Load()
}

func (w *Watcher) runLoop(fsWatcher *fsnotify.Watcher) {
	defer func() {
		_ = fsWatcher.Close()
		w.running.Store(false)
		close(w.done)
	}()

	var debounceTimer *time.Timer
	var debounceMu sync.Mutex

	triggerReload := func() {
		debounceMu.Lock()
		defer debounceMu.Unlock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(w.debounce, w.reload)
	}

	targetFile := filepath.Base(w.path)

	for {
		select {
		case <-w.ctx.Done():
			debounceMu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceMu.Unlock()
			return

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != targetFile {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				triggerReload()
			}

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.warn("file watcher error", err)
		}
	}
}

// reload reads the file and delivers it unless it is one of ours.
func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}
	if w.hold() {
		w.logger.Debug("reload held, local changes pending")
		return
	}
	// A file caught mid-write fails to parse; the write that completes it
	// triggers another reload.
	snap, err := w.source.Peek(w.ctx)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist), errors.Is(err, context.Canceled):
		return
	case errors.Is(err, storage.ErrCorrupt):
		w.logger.Debug("data file not readable yet", "error", err)
		return
	default:
		w.warn("reload failed", err)
		return
	}

	w.mu.Lock()
	if !snap.Metadata.LastModified.After(w.seen) {
		w.mu.Unlock()
		return
	}
	w.seen = snap.Metadata.LastModified
	w.mu.Unlock()

	// Replace any unread snapshot with the newer one.
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- snap:
		w.logger.Debug("external change loaded", "last_modified", snap.Metadata.LastModified)
	default:
	}
}

// warn logs at most one warning per warningInterval.
func (w *Watcher) warn(msg string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if now.Sub(w.lastWarning) < warningInterval {
		return
	}
	w.lastWarning = now
	w.logger.Warn(msg, "error", err)
}
