package tags

import (
	"fmt"
	"maps"
	"strings"
)

// Category is the generic symbol category a tag kind maps to.
type Category int

const (
	// CategoryUnknown is returned for kinds outside the known vocabulary.
	// Definitions with an unknown category are still indexed and returned.
	CategoryUnknown Category = iota
	CategoryClass
	CategoryFunction
	CategoryMethod
	CategoryVariable
)

var categoryNames = map[Category]string{
	CategoryUnknown:  "unknown",
	CategoryClass:    "class",
	CategoryFunction: "function",
	CategoryMethod:   "method",
	CategoryVariable: "variable",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// ParseCategory returns the Category named by s (case-insensitive).
func ParseCategory(s string) (Category, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return CategoryUnknown, fmt.Errorf("tags: unknown category %q", s)
}

// builtinKinds is the default kind vocabulary.
var builtinKinds = map[string]Category{
	"class":    CategoryClass,
	"function": CategoryFunction,
	"member":   CategoryMethod,
	"variable": CategoryVariable,
}

// Classifier maps tag kind strings to categories. The zero value and a nil
// *Classifier both use the built-in vocabulary.
type Classifier struct {
	kinds map[string]Category
}

// NewClassifier returns a Classifier with the built-in kinds plus aliases.
// Aliases override built-ins with the same kind string.
func NewClassifier(aliases map[string]Category) *Classifier {
	kinds := maps.Clone(builtinKinds)
	maps.Copy(kinds, aliases)
	return &Classifier{kinds: kinds}
}

// Classify returns the category for kind, or CategoryUnknown.
func (c *Classifier) Classify(kind string) Category {
	kinds := builtinKinds
	if c != nil && c.kinds != nil {
		kinds = c.kinds
	}
	return kinds[kind]
}

// Kinds returns a copy of the classifier's kind table.
func (c *Classifier) Kinds() map[string]Category {
	if c == nil || c.kinds == nil {
		return maps.Clone(builtinKinds)
	}
	return maps.Clone(c.kinds)
}

// Classify maps kind using the built-in vocabulary.
func Classify(kind string) Category {
	return builtinKinds[kind]
}
