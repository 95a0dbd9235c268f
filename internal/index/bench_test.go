package index

import (
	"fmt"
	"strings"
	"testing"

	"github.com/t-k-/ctags-companion/internal/filter"
	"github.com/t-k-/ctags-companion/internal/tags"
)

func generateTags(n int) string {
	var sb strings.Builder
	sb.WriteString("!_TAG_FILE_FORMAT\t2\t/extended format/\n")
	for i := range n {
		switch {
		case i%100 == 99:
			fmt.Fprintf(&sb, "broken%d\tsrc/f%d.go\t/^broken$/;\"\tline:%d\n", i, i/40, i)
		case i%10 == 0:
			fmt.Fprintf(&sb, "Type%d\tsrc/f%d.go\t/^type Type%d struct {$/;\"\tkind:class\tline:%d\n", i, i/40, i, i%40+1)
		default:
			fmt.Fprintf(&sb, "Run%d\tsrc/f%d.go\t/^func (t *Type%d) Run%d() {$/;\"\tkind:member\tline:%d\tclass:Type%d\n",
				i%500, i/40, i/10*10, i%500, i%40+1, i/10*10)
		}
	}
	return sb.String()
}

func BenchmarkBuild(b *testing.B) {
	src := generateTags(100_000)
	b.SetBytes(int64(len(src)))

	b.ResetTimer()
	for b.Loop() {
		if _, err := NewBuilder().Build(strings.NewReader(src)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBuild_Filtered(b *testing.B) {
	src := generateTags(100_000)
	f, err := filter.New([]string{"src/f1*.go"}, nil, []string{"go"})
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(src)))

	b.ResetTimer()
	for b.Loop() {
		if _, err := NewBuilder(WithFilter(f)).Build(strings.NewReader(src)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFromDefinitions(b *testing.B) {
	p, err := NewBuilder().Build(strings.NewReader(generateTags(100_000)))
	if err != nil {
		b.Fatal(err)
	}
	defs := p.All()

	b.ResetTimer()
	for b.Loop() {
		FromDefinitions(defs)
	}
}

func BenchmarkMatch(b *testing.B) {
	p, err := NewBuilder().Build(strings.NewReader(generateTags(100_000)))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for b.Loop() {
		n := 0
		p.Match(
			func(symbol string) bool { return strings.Contains(strings.ToLower(symbol), "run4") },
			func(_ string, defs []tags.Definition) { n += len(defs) },
		)
		if n == 0 {
			b.Fatal("no matches")
		}
	}
}
