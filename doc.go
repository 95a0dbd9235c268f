// Package companion indexes universal-ctags tags files and answers symbol
// queries against them: where a symbol is defined, what a document
// declares, and which symbols across a workspace match a substring.
//
// # Scopes
//
// A [Scope] is one workspace root with its tags file. Scopes are identified
// by their absolute root; [LoadScope] builds one from the root's
// .ctags-companion.toml, compiling its document filter and kind aliases.
//
// # Usage
//
//	e, err := companion.New(companion.WithStore(".ctags-companion/index.db"))
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	scope, err := companion.LoadScope(ctx, "path/to/project")
//
//	q := e.Query()
//	defs, err := q.DefinitionsFor(ctx, scope, "Widget")
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] provides:
//
//   - [QueryBuilder.DefinitionsFor]: exact symbol lookup in one scope.
//   - [QueryBuilder.SymbolsInDocument]: the definitions a document declares.
//   - [QueryBuilder.SearchWorkspace]: case-insensitive substring search over
//     every given scope.
//   - [QueryBuilder.ScopeForPath]: the scope an absolute path belongs to.
//
// # Indexing
//
// A scope is indexed on first use and then served from memory. Concurrent
// requests for an unindexed scope share one build. [Engine.Reindex] replaces
// a scope's index wholesale; until it finishes, queries keep seeing the
// previous index, and if it fails the previous index stays in place. With
// [WithStore], built indexes are also persisted to SQLite and restored on
// the next run when the tags file is unchanged.
//
// Lines of the tags file that cannot be parsed are skipped and counted in
// the index [Stats]; they never fail a build.
package companion
