package main

import (
	"time"

	companion "github.com/t-k-/ctags-companion"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIDefinition is a JSON-friendly definition. File is absolute and Line is
// 0-based.
type CLIDefinition struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Category  string  `json:"category"`
	Container *string `json:"container,omitempty"`
	File      string  `json:"file"`
	Line      int     `json:"line"`
	Scope     string  `json:"scope,omitempty"`
}

// CLIIndexResult summarizes one scope's build.
type CLIIndexResult struct {
	Scope       string `json:"scope"`
	Root        string `json:"root"`
	TagsFile    string `json:"tags_file"`
	Definitions int    `json:"definitions"`
	Documents   int    `json:"documents"`
	Skipped     int    `json:"skipped"`
	Filtered    int    `json:"filtered"`
	DurationMS  int64  `json:"duration_ms"`
}

// CLISnapshot describes one persisted index.
type CLISnapshot struct {
	Scope       string    `json:"scope"`
	Root        string    `json:"root"`
	TagsFile    string    `json:"tags_file"`
	TagsSize    int64     `json:"tags_size"`
	Definitions int       `json:"definitions"`
	Skipped     int       `json:"skipped"`
	Filtered    bool      `json:"filtered"`
	IndexedAt   time.Time `json:"indexed_at"`
}

func definitionToCLI(scope companion.Scope, def companion.Definition, withScope bool) CLIDefinition {
	sym := scope.Symbol(def)
	d := CLIDefinition{
		Name:      sym.Name,
		Kind:      sym.Kind,
		Category:  sym.Category.String(),
		Container: sym.Container,
		File:      sym.File,
		Line:      sym.Line,
	}
	if withScope {
		d.Scope = scope.Name
	}
	return d
}

func indexResultToCLI(scope companion.Scope, p *companion.Pair, d time.Duration) CLIIndexResult {
	st := p.Stats()
	return CLIIndexResult{
		Scope:       scope.Name,
		Root:        scope.Root,
		TagsFile:    scope.TagsPath(),
		Definitions: st.Definitions,
		Documents:   len(p.Documents()),
		Skipped:     st.Skipped,
		Filtered:    st.Filtered,
		DurationMS:  d.Milliseconds(),
	}
}

func snapshotToCLI(info companion.SnapshotInfo) CLISnapshot {
	return CLISnapshot{
		Scope:       info.Name,
		Root:        info.Root,
		TagsFile:    info.TagsPath,
		TagsSize:    info.TagsSize,
		Definitions: info.Definitions,
		Skipped:     info.Skipped,
		Filtered:    info.Filter != "",
		IndexedAt:   info.IndexedAt,
	}
}
