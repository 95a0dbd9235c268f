// Package filter decides which tagged documents belong in an index.
package filter

import (
	"crypto/sha256"
	"fmt"
	"path"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Filter selects documents by gitignore-style include/exclude patterns and
// by language. A nil *Filter allows everything.
type Filter struct {
	include   *ignore.GitIgnore // nil means include all
	exclude   *ignore.GitIgnore // nil means exclude none
	languages map[string]bool   // nil means all languages

	fingerprint string
}

// New compiles a Filter. Empty pattern lists and an empty language list
// impose no restriction. Unknown language names are an error.
func New(include, exclude, languages []string) (*Filter, error) {
	f := &Filter{}
	incl, excl := patternLines(include), patternLines(exclude)
	if len(incl) > 0 {
		f.include = ignore.CompileIgnoreLines(incl...)
	}
	if len(excl) > 0 {
		f.exclude = ignore.CompileIgnoreLines(excl...)
	}
	if len(languages) > 0 {
		f.languages = make(map[string]bool, len(languages))
		for _, l := range languages {
			l = strings.TrimSpace(l)
			if !IsLanguage(l) {
				return nil, fmt.Errorf("filter: unsupported language %q", l)
			}
			f.languages[l] = true
		}
	}
	f.fingerprint = fingerprint(incl, excl, f.languages)
	return f, nil
}

// Fingerprint identifies the filter's effective settings. Filters that
// select the same documents by the same rules share a fingerprint; a nil
// Filter has the empty fingerprint.
func (f *Filter) Fingerprint() string {
	if f == nil {
		return ""
	}
	return f.fingerprint
}

func fingerprint(include, exclude []string, languages map[string]bool) string {
	if len(include) == 0 && len(exclude) == 0 && len(languages) == 0 {
		return ""
	}
	langs := make([]string, 0, len(languages))
	for l := range languages {
		langs = append(langs, l)
	}
	sort.Strings(langs)

	h := sha256.New()
	fmt.Fprintf(h, "include:%s\n", strings.Join(include, "\x00"))
	fmt.Fprintf(h, "exclude:%s\n", strings.Join(exclude, "\x00"))
	fmt.Fprintf(h, "languages:%s\n", strings.Join(langs, ","))
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// Allow reports whether the document at file (relative to the scope root)
// should be indexed.
func (f *Filter) Allow(file string) bool {
	if f == nil {
		return true
	}
	rel := path.Clean(strings.ReplaceAll(file, "\\", "/"))
	rel = strings.TrimPrefix(rel, "./")

	if f.exclude != nil && f.exclude.MatchesPath(rel) {
		return false
	}
	if f.include != nil && !f.include.MatchesPath(rel) {
		return false
	}
	if f.languages != nil {
		lang, ok := LanguageForFile(rel)
		if !ok || !f.languages[lang] {
			return false
		}
	}
	return true
}

// patternLines drops blank lines and comments.
func patternLines(patterns []string) []string {
	var lines []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		lines = append(lines, p)
	}
	return lines
}
