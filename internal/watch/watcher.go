// Package watch turns tags-file regeneration into reindex calls.
//
// Tag generators usually write a temporary file and rename it over the old
// one, so the watcher observes each tags file's parent directory and matches
// events by path. Bursts of events for the same file are debounced into a
// single call.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 300 * time.Millisecond

// Handler is called once per debounced change with the key the tags file
// was registered under.
type Handler func(ctx context.Context, key string) error

// Watcher watches tags files through fsnotify.
type Watcher struct {
	fsw      *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	targets map[string]string    // tags file path → key
	dirs    map[string]int       // watched dir → number of targets in it
	pending map[string]time.Time // key → last change
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for handler failures and watcher errors.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher that calls handler for changed tags files.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		handler:  handler,
		debounce: DefaultDebounce,
		logger:   slog.New(slog.DiscardHandler),
		targets:  make(map[string]string),
		dirs:     make(map[string]int),
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add registers tagsPath under key. The file itself need not exist yet, but
// its directory must.
func (w *Watcher) Add(key, tagsPath string) error {
	abs, err := filepath.Abs(tagsPath)
	if err != nil {
		return fmt.Errorf("watch: %s: %w", tagsPath, err)
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.targets[abs]; ok {
		w.targets[abs] = key
		return nil
	}
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.targets[abs] = key
	return nil
}

// Remove stops watching tagsPath.
func (w *Watcher) Remove(tagsPath string) error {
	abs, err := filepath.Abs(tagsPath)
	if err != nil {
		return fmt.Errorf("watch: %s: %w", tagsPath, err)
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	key, ok := w.targets[abs]
	if !ok {
		return nil
	}
	delete(w.targets, abs)
	delete(w.pending, key)
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return nil
	}
	delete(w.dirs, dir)
	if err := w.fsw.Remove(dir); err != nil {
		return fmt.Errorf("watch: remove %s: %w", dir, err)
	}
	return nil
}

// Run processes events until ctx is done, then closes the watcher.
// Handlers run on Run's goroutine, one at a time.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	tick := w.debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.record(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case now := <-ticker.C:
			for _, key := range w.due(now) {
				w.logger.Debug("tags file changed", "key", key)
				if err := w.handler(ctx, key); err != nil {
					w.logger.Warn("reindex after change failed", "key", key, "error", err)
				}
			}
		}
	}
}

// Close releases the underlying watcher without waiting for Run.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) record(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if key, ok := w.targets[abs]; ok {
		w.pending[key] = time.Now()
	}
}

// due removes and returns the keys that have been quiet for the debounce period.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var keys []string
	for key, changed := range w.pending {
		if now.Sub(changed) >= w.debounce {
			keys = append(keys, key)
			delete(w.pending, key)
		}
	}
	return keys
}
