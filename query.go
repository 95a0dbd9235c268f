package companion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/t-k-/ctags-companion/internal/index"
)

// searchConcurrency bounds how many scopes SearchWorkspace indexes at once.
const searchConcurrency = 8

// QueryBuilder answers symbol queries over an Engine's indexes. Every
// operation indexes the scopes it touches on first use.
type QueryBuilder struct {
	engine *Engine
}

// DefinitionsFor returns every definition of symbol in scope, in tags-file
// order. The match is exact and case-sensitive; an unknown symbol yields an
// empty result.
func (q *QueryBuilder) DefinitionsFor(ctx context.Context, scope Scope, symbol string) ([]Definition, error) {
	p, err := q.engine.Index(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("definitions for %q: %w", symbol, err)
	}
	return p.Definitions(symbol), nil
}

// SymbolsInDocument returns the definitions declared in the document at
// path, in tags-file order. path is matched exactly against the tags file's
// paths; an absolute path under the scope root is converted to its relative
// slash form first. Unknown documents yield an empty result.
func (q *QueryBuilder) SymbolsInDocument(ctx context.Context, scope Scope, path string) ([]Definition, error) {
	p, err := q.engine.Index(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("symbols in %s: %w", path, err)
	}

	doc := path
	if filepath.IsAbs(path) {
		key, err := scope.key()
		if err != nil {
			return nil, err
		}
		scope.Root = key
		rel, ok := scope.Rel(path)
		if !ok {
			return nil, nil
		}
		doc = rel
	}

	defs, ok := p.Document(doc)
	if !ok {
		return nil, nil
	}
	return defs, nil
}

// SearchWorkspace returns the definitions of every symbol whose name
// contains query, ignoring case, across scopes. Results follow the order of
// scopes, then each scope's symbol first-appearance order, then tags-file
// order. An empty query returns nothing without indexing. Scopes that cannot
// be indexed are left out; their errors are joined into the returned error
// alongside the results from the other scopes.
func (q *QueryBuilder) SearchWorkspace(ctx context.Context, scopes []Scope, query string) ([]SearchResult, error) {
	if query == "" {
		return nil, nil
	}

	pairs := make([]*index.Pair, len(scopes))
	errs := make([]error, len(scopes))

	g := new(errgroup.Group)
	g.SetLimit(searchConcurrency)
	for i, s := range scopes {
		g.Go(func() error {
			p, err := q.engine.Index(ctx, s)
			if err != nil {
				errs[i] = fmt.Errorf("search %s: %w", s.Name, err)
				return nil
			}
			pairs[i] = p
			return nil
		})
	}
	g.Wait()

	needle := strings.ToLower(query)
	var results []SearchResult
	for i, p := range pairs {
		if p == nil {
			continue
		}
		scope := scopes[i]
		p.Match(
			func(symbol string) bool {
				return strings.Contains(strings.ToLower(symbol), needle)
			},
			func(_ string, defs []Definition) {
				for _, d := range defs {
					results = append(results, SearchResult{Scope: scope, Definition: d})
				}
			},
		)
	}
	return results, errors.Join(errs...)
}

// ScopeForPath returns the scope whose root contains the absolute path.
// When roots nest, the deepest one wins.
func (q *QueryBuilder) ScopeForPath(scopes []Scope, path string) (Scope, bool) {
	var (
		best    Scope
		bestLen = -1
	)
	for _, s := range scopes {
		key, err := s.key()
		if err != nil {
			continue
		}
		root := s
		root.Root = key
		if _, ok := root.Rel(path); !ok {
			continue
		}
		if len(key) > bestLen {
			best, bestLen = s, len(key)
		}
	}
	return best, bestLen >= 0
}
