package store

import (
	"crypto/sha256"
	"fmt"

	"github.com/t-k-/ctags-companion/internal/tags"
)

// ComputeChecksum computes a deterministic hash over definitions in order.
// An absent container hashes differently from an empty one.
func ComputeChecksum(defs []tags.Definition) string {
	h := sha256.New()
	for _, d := range defs {
		fmt.Fprintf(h, "%s\t%s\t%d\t%s\t", d.Symbol, d.File, d.Line, d.Kind)
		if d.Container == nil {
			h.Write([]byte{0})
		} else {
			fmt.Fprintf(h, "=%s", *d.Container)
		}
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
