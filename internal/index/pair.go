// Package index builds the symbol and document indexes of one scope from a
// tags file.
package index

import (
	"maps"
	"slices"

	"github.com/t-k-/ctags-companion/internal/tags"
)

// Pair is the immutable {SymbolIndex, DocumentIndex} snapshot for one scope.
// It is never mutated after construction; accessors return copies.
type Pair struct {
	symbols     map[string][]tags.Definition
	symbolOrder []string // first-appearance order
	docs        map[string][]tags.Definition
	docOrder    []string // first-appearance order
	defs        []tags.Definition
	stats       Stats
}

func newPair() *Pair {
	return &Pair{
		symbols: make(map[string][]tags.Definition),
		docs:    make(map[string][]tags.Definition),
	}
}

// add appends def to both indexes. Only used before the pair is published.
func (p *Pair) add(def tags.Definition) {
	def = cloneDef(def)
	if _, ok := p.symbols[def.Symbol]; !ok {
		p.symbolOrder = append(p.symbolOrder, def.Symbol)
	}
	p.symbols[def.Symbol] = append(p.symbols[def.Symbol], def)

	if _, ok := p.docs[def.File]; !ok {
		p.docOrder = append(p.docOrder, def.File)
	}
	p.docs[def.File] = append(p.docs[def.File], def)

	p.defs = append(p.defs, def)
}

// FromDefinitions rebuilds a Pair from definitions in tags-file order.
// The result equals the Pair originally built from those definitions.
func FromDefinitions(defs []tags.Definition) *Pair {
	p := newPair()
	for _, d := range defs {
		p.add(d)
	}
	p.stats.Definitions = len(defs)
	return p
}

// Definitions returns the definitions recorded for symbol, in tags-file order.
func (p *Pair) Definitions(symbol string) []tags.Definition {
	return cloneDefs(p.symbols[symbol])
}

// Document returns the definitions declared in file, in tags-file order.
// The boolean is false when the file has no tags at all.
func (p *Pair) Document(file string) ([]tags.Definition, bool) {
	defs, ok := p.docs[file]
	return cloneDefs(defs), ok
}

// Symbols returns every symbol name in first-appearance order.
func (p *Pair) Symbols() []string {
	return slices.Clone(p.symbolOrder)
}

// Documents returns every document path in first-appearance order.
func (p *Pair) Documents() []string {
	return slices.Clone(p.docOrder)
}

// All returns every definition in tags-file order.
func (p *Pair) All() []tags.Definition {
	return cloneDefs(p.defs)
}

// Len returns the number of definitions in the pair.
func (p *Pair) Len() int {
	return len(p.defs)
}

// Stats returns the statistics of the build that produced the pair.
func (p *Pair) Stats() Stats {
	s := p.stats
	s.SkippedByReason = maps.Clone(s.SkippedByReason)
	s.Diagnostics = slices.Clone(s.Diagnostics)
	return s
}

// Match calls fn for every symbol in first-appearance order whose name
// satisfies pred, passing a copy of the symbol's definitions.
func (p *Pair) Match(pred func(symbol string) bool, fn func(symbol string, defs []tags.Definition)) {
	for _, s := range p.symbolOrder {
		if pred(s) {
			fn(s, cloneDefs(p.symbols[s]))
		}
	}
}

// cloneDef copies def including the Container string it points to.
func cloneDef(def tags.Definition) tags.Definition {
	if def.Container != nil {
		c := *def.Container
		def.Container = &c
	}
	return def
}

func cloneDefs(defs []tags.Definition) []tags.Definition {
	if defs == nil {
		return nil
	}
	out := make([]tags.Definition, len(defs))
	for i, d := range defs {
		out[i] = cloneDef(d)
	}
	return out
}
