// Package watch triggers a handler for snapshot files written into a
// directory. Rapid successive writes to one file are collapsed into a single
// call once the file has been quiet for the debounce window.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"tirep/internal/snapshot"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	sweepInterval   = 100 * time.Millisecond
)

// Handler is called with the path of a settled snapshot file.
type Handler func(ctx context.Context, path string) error

// Stats counts watcher activity.
type Stats struct {
	Events   int
	Handled  int
	Errors   int
	LastPath string
}

type Watcher struct {
	dir      string
	debounce time.Duration
	handle   Handler
	log      *zap.Logger

	mu      sync.Mutex
	pending map[string]time.Time
	stats   Stats
	ready   chan struct{}
}

func New(dir string, debounce time.Duration, handle Handler, log *zap.Logger) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("watch dir required")
	}
	if handle == nil {
		return nil, errors.New("watch handler required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handle:   handle,
		log:      log.With(zap.String("dir", dir)),
		pending:  map[string]time.Time{},
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once the directory is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Run watches until ctx is done. It returns nil on cancellation and an error
// only when watching cannot start or fsnotify shuts down underneath it.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create watch dir: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching for snapshots")
	close(w.ready)

	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("fsnotify event channel closed")
			}
			w.record(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("fsnotify error channel closed")
			}
			w.log.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case now := <-sweep.C:
			for _, path := range w.settled(now) {
				w.process(ctx, path)
			}
		}
	}
}

func (w *Watcher) record(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if !snapshot.IsSnapshotFile(ev.Name) {
		return
	}
	w.log.Debug("snapshot file changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
	w.mu.Lock()
	w.stats.Events++
	w.pending[ev.Name] = time.Now()
	w.mu.Unlock()
}

// settled removes and returns paths quiet for at least the debounce window.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	return out
}

func (w *Watcher) process(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			w.log.Debug("snapshot file gone before processing", zap.String("path", path))
			return
		}
	}
	err := w.handle(ctx, path)
	w.mu.Lock()
	w.stats.LastPath = path
	if err != nil {
		w.stats.Errors++
	} else {
		w.stats.Handled++
	}
	w.mu.Unlock()
	if err != nil {
		w.log.Error("snapshot handler failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.log.Info("snapshot handled", zap.String("path", path))
}
