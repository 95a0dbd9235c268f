// Package tags parses lines of a universal-ctags tags file into Definitions
// and classifies tag kinds into generic symbol categories.
package tags

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Definition is one recorded symbol occurrence from a tags file.
type Definition struct {
	Symbol string
	File   string // relative to the scope root
	Line   int    // 0-based
	Kind   string
	// Container is the enclosing class name from a class: field, nil when
	// the tag carried none.
	Container *string
}

// Per-line skip reasons. ParseLine returns exactly one of these (possibly
// wrapped) for every line that does not yield a Definition.
var (
	ErrHeader      = errors.New("tags: header line")
	ErrBlank       = errors.New("tags: blank line")
	ErrMalformed   = errors.New("tags: malformed line")
	ErrMissingLine = errors.New("tags: missing line field")
	ErrBadLine     = errors.New("tags: invalid line number")
	ErrMissingKind = errors.New("tags: missing kind field")
)

const (
	lineField  = "line:"
	kindField  = "kind:"
	classField = "class:"
)

// ParseLine converts one raw tags-file line into a Definition. Lines that
// cannot be represented return an error from the Err* set above; such errors
// are never fatal to a build.
//
// Only fields after the symbol and file are scanned for extension fields.
// When a prefix repeats, the first occurrence is used.
func ParseLine(line string) (Definition, error) {
	line = strings.TrimSuffix(line, "\r")
	if strings.HasPrefix(line, "!") {
		return Definition{}, ErrHeader
	}
	if strings.TrimSpace(line) == "" {
		return Definition{}, ErrBlank
	}

	fields := strings.Split(line, "\t")
	if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
		return Definition{}, ErrMalformed
	}

	var lineText, kind, container string
	var hasLine, hasKind, hasContainer bool
	for _, f := range fields[2:] {
		switch {
		case !hasLine && strings.HasPrefix(f, lineField):
			lineText, hasLine = f[len(lineField):], true
		case !hasKind && strings.HasPrefix(f, kindField):
			kind, hasKind = f[len(kindField):], true
		case !hasContainer && strings.HasPrefix(f, classField):
			container, hasContainer = f[len(classField):], true
		}
	}

	if !hasLine {
		return Definition{}, ErrMissingLine
	}
	// line: is a bare decimal; Atoi alone would accept a sign.
	if lineText == "" || lineText[0] < '0' || lineText[0] > '9' {
		return Definition{}, fmt.Errorf("%w: %q", ErrBadLine, lineText)
	}
	n, err := strconv.Atoi(lineText)
	if err != nil || n < 1 {
		return Definition{}, fmt.Errorf("%w: %q", ErrBadLine, lineText)
	}
	if !hasKind {
		return Definition{}, ErrMissingKind
	}

	def := Definition{
		Symbol: fields[0],
		File:   fields[1],
		Line:   n - 1,
		Kind:   kind,
	}
	if hasContainer {
		def.Container = &container
	}
	return def, nil
}

// IsSkip reports whether err is a per-line skip returned by ParseLine.
func IsSkip(err error) bool {
	return errors.Is(err, ErrHeader) ||
		errors.Is(err, ErrBlank) ||
		errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrMissingLine) ||
		errors.Is(err, ErrBadLine) ||
		errors.Is(err, ErrMissingKind)
}

// Reason returns a short stable label for a skip error, used as a
// diagnostics key. Unknown errors map to "other".
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrHeader):
		return "header"
	case errors.Is(err, ErrBlank):
		return "blank"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrMissingLine):
		return "missing_line"
	case errors.Is(err, ErrBadLine):
		return "bad_line"
	case errors.Is(err, ErrMissingKind):
		return "missing_kind"
	default:
		return "other"
	}
}
