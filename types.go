package companion

import (
	"github.com/t-k-/ctags-companion/internal/filter"
	"github.com/t-k-/ctags-companion/internal/index"
	"github.com/t-k-/ctags-companion/internal/store"
	"github.com/t-k-/ctags-companion/internal/tags"
)

// Public type aliases for internal types used in the Engine and QueryBuilder
// API. External consumers use these names; no conversion is needed.

type Definition = tags.Definition
type Category = tags.Category
type Classifier = tags.Classifier
type Filter = filter.Filter
type Pair = index.Pair
type Stats = index.Stats
type SnapshotInfo = store.SnapshotInfo

const (
	CategoryUnknown  = tags.CategoryUnknown
	CategoryClass    = tags.CategoryClass
	CategoryFunction = tags.CategoryFunction
	CategoryMethod   = tags.CategoryMethod
	CategoryVariable = tags.CategoryVariable
)

// NewClassifier returns a Classifier with the built-in kinds plus aliases.
func NewClassifier(aliases map[string]Category) *Classifier {
	return tags.NewClassifier(aliases)
}

// NewFilter compiles a document filter from gitignore-style patterns and
// language names.
func NewFilter(include, exclude, languages []string) (*Filter, error) {
	return filter.New(include, exclude, languages)
}

// SearchResult is one workspace search hit.
type SearchResult struct {
	Scope      Scope
	Definition Definition
}

// Symbol is a definition resolved for display: its category is classified
// and its file is absolute.
type Symbol struct {
	Name      string
	Kind      string
	Category  Category
	Container *string
	File      string
	Line      int // zero-based
}
