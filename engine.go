package companion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/t-k-/ctags-companion/internal/cache"
	"github.com/t-k-/ctags-companion/internal/index"
	"github.com/t-k-/ctags-companion/internal/store"
)

// Opener opens a tags file for reading.
type Opener func(path string) (io.ReadCloser, error)

// Engine owns the per-scope indexes: it builds them from tags files on
// demand, deduplicates concurrent builds, and optionally persists them.
type Engine struct {
	cache  *cache.Cache
	store  *store.Store // nil without WithStore
	dbPath string
	open   Opener
	logger *slog.Logger

	mu     sync.RWMutex
	scopes map[string]Scope // root → latest registration
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore persists built indexes to a SQLite database at dbPath and
// restores them when the tags file has not changed since.
func WithStore(dbPath string) Option {
	return func(e *Engine) {
		e.dbPath = dbPath
	}
}

// WithOpener replaces the function used to open tags files.
func WithOpener(open Opener) Option {
	return func(e *Engine) {
		if open != nil {
			e.open = open
		}
	}
}

// WithLogger sets the Engine's logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine with no scopes indexed.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		open:   openFile,
		logger: slog.New(slog.DiscardHandler),
		scopes: make(map[string]Scope),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.dbPath != "" {
		s, err := store.NewStore(e.dbPath)
		if err != nil {
			return nil, fmt.Errorf("companion: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("companion: migrate: %w", err)
		}
		e.store = s
	}

	e.cache = cache.New(e.load)
	return e, nil
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Query returns a new QueryBuilder over the Engine's indexes.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{engine: e}
}

// Index returns the scope's index, building it if the scope has never been
// indexed. Concurrent callers for the same scope share one build. A scope
// whose index is already published is served without touching the
// registration.
func (e *Engine) Index(ctx context.Context, scope Scope) (*Pair, error) {
	key, err := scope.key()
	if err != nil {
		return nil, err
	}
	if p := e.cache.Peek(key); p != nil {
		return p, nil
	}
	if _, err := e.register(scope); err != nil {
		return nil, err
	}
	return e.cache.Get(ctx, key)
}

// Reindex rebuilds the scope's index from its tags file, ignoring any
// persisted snapshot, and replaces the previous index wholesale. On failure
// the previous index stays in place.
func (e *Engine) Reindex(ctx context.Context, scope Scope) (*Pair, error) {
	key, err := e.register(scope)
	if err != nil {
		return nil, err
	}
	return e.cache.Rebuild(ctx, key)
}

// Forget drops the scope's in-memory index. Persisted snapshots are kept.
func (e *Engine) Forget(scope Scope) {
	key, err := scope.key()
	if err != nil {
		return
	}
	e.cache.Forget(key)

	e.mu.Lock()
	delete(e.scopes, key)
	e.mu.Unlock()
}

// Indexed returns the scopes that currently have an index in memory,
// ordered by root.
func (e *Engine) Indexed() []Scope {
	keys := e.cache.Keys()

	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Scope, 0, len(keys))
	for _, k := range keys {
		if s, ok := e.scopes[k]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Snapshots lists the persisted indexes. It returns nil without a store.
func (e *Engine) Snapshots() ([]SnapshotInfo, error) {
	if e.store == nil {
		return nil, nil
	}
	infos, err := e.store.Snapshots()
	if err != nil {
		return nil, fmt.Errorf("companion: %w", err)
	}
	return infos, nil
}

// register records scope under its key so the loader can find it. A later
// registration of the same root replaces the earlier one.
func (e *Engine) register(scope Scope) (string, error) {
	key, err := scope.key()
	if err != nil {
		return "", err
	}
	scope.Root = key
	if scope.Name == "" {
		scope.Name = key
	}

	e.mu.Lock()
	e.scopes[key] = scope
	e.mu.Unlock()
	return key, nil
}

func (e *Engine) lookup(key string) (Scope, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.scopes[key]
	return s, ok
}

// load is the cache's Loader: it restores a fresh snapshot when allowed,
// otherwise parses the tags file and persists the result.
func (e *Engine) load(_ context.Context, key string, force bool) (*index.Pair, error) {
	scope, ok := e.lookup(key)
	if !ok {
		return nil, fmt.Errorf("companion: unknown scope %s", key)
	}
	path := scope.TagsPath()
	start := time.Now()

	var info fs.FileInfo
	if e.store != nil {
		fi, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, scope.notFound(path)
		case err == nil:
			info = fi
		}
		if info != nil && !force {
			if p := e.restore(scope, info); p != nil {
				e.logger.Info("restored index",
					"scope", scope.Name, "definitions", p.Len(), "duration", time.Since(start))
				return p, nil
			}
		}
	}

	e.logger.Info("reindexing scope", "scope", scope.Name, "tags", path)
	rc, err := e.open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, scope.notFound(path)
		}
		return nil, fmt.Errorf("companion: open tags for %s: %w", scope.Name, err)
	}
	defer rc.Close()

	b := index.NewBuilder(
		index.WithFilter(scope.Filter),
		index.WithLogger(e.logger.With("scope", scope.Name)),
	)
	p, err := b.Build(rc)
	if err != nil {
		return nil, fmt.Errorf("companion: index %s: %w", scope.Name, err)
	}

	st := p.Stats()
	e.logger.Info("indexed scope",
		"scope", scope.Name,
		"definitions", st.Definitions,
		"skipped", st.Skipped,
		"filtered", st.Filtered,
		"duration", time.Since(start))

	if info != nil {
		e.save(scope, path, info, p)
	}
	return p, nil
}

func (e *Engine) restore(scope Scope, info fs.FileInfo) *index.Pair {
	snap, err := e.store.LoadSnapshot(scope.Root)
	if err != nil {
		e.logger.Warn("loading snapshot failed", "scope", scope.Name, "error", err)
		return nil
	}
	if !snap.Fresh(info.Size(), info.ModTime(), scope.Filter.Fingerprint()) {
		return nil
	}
	return index.FromDefinitions(snap.Definitions)
}

func (e *Engine) save(scope Scope, path string, info fs.FileInfo, p *index.Pair) {
	snap := &store.Snapshot{
		Root:        scope.Root,
		Name:        scope.Name,
		TagsPath:    path,
		TagsSize:    info.Size(),
		TagsModTime: info.ModTime(),
		Filter:      scope.Filter.Fingerprint(),
		Skipped:     p.Stats().Skipped,
		Definitions: p.All(),
	}
	if err := e.store.SaveSnapshot(snap); err != nil {
		e.logger.Warn("saving snapshot failed", "scope", scope.Name, "error", err)
	}
}
