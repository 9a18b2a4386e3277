// Package watch regenerates diagrams when schema files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syssam/schemaviz/compiler/load"
	"github.com/syssam/schemaviz/internal/metrics"
)

// DefaultDebounce is the quiet period after the last change before
// OnChange runs.
const DefaultDebounce = 500 * time.Millisecond

// OnChange is called once per burst of changes. runID identifies the run
// in logs.
type OnChange func(ctx context.Context, runID string) error

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce delay. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithIgnore skips events for the given files, typically the outputs
// written by the change handler. Paths are compared in absolute form.
func WithIgnore(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				w.ignore[abs] = struct{}{}
			}
		}
	}
}

// WithMetrics counts events on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(w *Watcher) { w.metrics = c }
}

// Watcher watches schema directories recursively.
type Watcher struct {
	onChange OnChange
	debounce time.Duration
	logger   *zap.Logger
	metrics  *metrics.Collector
	ignore   map[string]struct{}
	fs       *fsnotify.Watcher
}

// New starts watching dirs and their subdirectories. Missing directories
// are logged and skipped; it fails if nothing can be watched.
func New(dirs []string, onChange OnChange, opts ...Option) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("watch: nil change handler")
	}
	w := &Watcher{
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		ignore:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fs = fsw
	for _, dir := range dirs {
		if err := w.add(dir); err != nil {
			w.logger.Warn("failed to watch directory", zap.String("dir", dir), zap.Error(err))
		}
	}
	if len(fsw.WatchList()) == 0 {
		fsw.Close()
		return nil, fmt.Errorf("watch: none of %v can be watched", dirs)
	}
	return w, nil
}

// add watches root and every directory below it.
func (w *Watcher) add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return err
		}
		w.logger.Debug("watching directory", zap.String("dir", path))
		return nil
	})
}

// Run handles events until ctx is done or Close is called. OnChange runs
// on the Run goroutine, so runs never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.metrics != nil {
				w.metrics.WatchEvents.WithLabelValues(event.Op.String()).Inc()
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.add(event.Name); err != nil {
						w.logger.Warn("failed to watch directory", zap.String("dir", event.Name), zap.Error(err))
					}
				}
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("schema changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()),
			)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", zap.Error(err))
		case <-fire:
			runID := uuid.NewString()
			start := time.Now()
			if err := w.onChange(ctx, runID); err != nil {
				w.logger.Error("regeneration failed", zap.String("run", runID), zap.Error(err))
				continue
			}
			w.logger.Info("regenerated",
				zap.String("run", runID),
				zap.Duration("took", time.Since(start)),
			)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) relevant(e fsnotify.Event) bool {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) && !e.Has(fsnotify.Remove) && !e.Has(fsnotify.Rename) {
		return false
	}
	if load.FormatOf(e.Name) == load.Unknown {
		return false
	}
	if abs, err := filepath.Abs(e.Name); err == nil {
		if _, ok := w.ignore[abs]; ok {
			return false
		}
	}
	return true
}
