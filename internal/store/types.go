package store

import (
	"time"

	"github.com/t-k-/ctags-companion/internal/tags"
)

// Snapshot is a persisted index of one scope. TagsSize and TagsModTime
// describe the tags file the definitions were read from; Filter is the
// fingerprint of the document filter applied while reading it.
type Snapshot struct {
	Root        string
	Name        string
	TagsPath    string
	TagsSize    int64
	TagsModTime time.Time
	Filter      string
	Skipped     int
	IndexedAt   time.Time
	Definitions []tags.Definition
}

// Fresh reports whether the snapshot was built from a tags file of the given
// size and modification time under the given filter fingerprint.
func (s *Snapshot) Fresh(size int64, modTime time.Time, filter string) bool {
	return s != nil && s.TagsSize == size && s.TagsModTime.Equal(modTime) && s.Filter == filter
}

// SnapshotInfo summarizes a stored snapshot.
type SnapshotInfo struct {
	Root        string
	Name        string
	TagsPath    string
	TagsSize    int64
	TagsModTime time.Time
	Filter      string
	Skipped     int
	Definitions int
	IndexedAt   time.Time
}
