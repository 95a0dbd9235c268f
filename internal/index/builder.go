package index

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/t-k-/ctags-companion/internal/filter"
	"github.com/t-k-/ctags-companion/internal/tags"
)

// MaxDiagnostics caps the per-line diagnostics kept in Stats.
const MaxDiagnostics = 100

// Stats describes one build.
type Stats struct {
	Lines       int // physical lines read
	Headers     int
	Blank       int
	Definitions int
	Skipped     int // unparsable lines (headers and blanks excluded)
	Filtered    int // parsed but rejected by the document filter

	SkippedByReason map[string]int
	Diagnostics     []Diagnostic // first MaxDiagnostics skipped lines
}

// Diagnostic records why a line was skipped.
type Diagnostic struct {
	Line   int // 1-based physical line number
	Reason string
	Err    error
}

// Builder turns a tags stream into a Pair.
type Builder struct {
	filter *filter.Filter
	logger *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithFilter restricts the indexed documents. nil allows all.
func WithFilter(f *filter.Filter) Option {
	return func(b *Builder) {
		b.filter = f
	}
}

// WithLogger sets the logger used for per-line debug output.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build reads the whole tags stream in one pass and returns the completed
// Pair. Bad lines are skipped and counted; a read error fails the build and
// no Pair is returned.
func (b *Builder) Build(r io.Reader) (*Pair, error) {
	p := newPair()
	st := &p.stats

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("index: read tags: %w", readErr)
		}
		if line != "" {
			st.Lines++
			b.consume(p, st, strings.TrimSuffix(line, "\n"))
		}
		if readErr != nil {
			break
		}
	}
	st.Definitions = len(p.defs)
	return p, nil
}

func (b *Builder) consume(p *Pair, st *Stats, line string) {
	def, err := tags.ParseLine(line)
	switch {
	case err == nil:
	case errors.Is(err, tags.ErrHeader):
		st.Headers++
		return
	case errors.Is(err, tags.ErrBlank):
		st.Blank++
		return
	default:
		st.Skipped++
		reason := tags.Reason(err)
		if st.SkippedByReason == nil {
			st.SkippedByReason = make(map[string]int)
		}
		st.SkippedByReason[reason]++
		if len(st.Diagnostics) < MaxDiagnostics {
			st.Diagnostics = append(st.Diagnostics, Diagnostic{Line: st.Lines, Reason: reason, Err: err})
		}
		b.logger.Debug("skipping tag line", "line", st.Lines, "reason", reason, "error", err)
		return
	}

	if !b.filter.Allow(def.File) {
		st.Filtered++
		return
	}
	p.add(def)
}
