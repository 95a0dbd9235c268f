package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/t-k-/ctags-companion/internal/tags"
)

// ErrCorruptSnapshot is returned when a stored snapshot no longer matches
// the checksum recorded when it was saved.
var ErrCorruptSnapshot = errors.New("store: corrupt snapshot")

// Store is the SQLite data access layer for index snapshots.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the snapshot tables. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS scopes (
  id              INTEGER PRIMARY KEY,
  root            TEXT NOT NULL UNIQUE,
  name            TEXT NOT NULL,
  tags_path       TEXT NOT NULL,
  tags_size       INTEGER NOT NULL,
  tags_mtime      INTEGER NOT NULL,
  filter_print    TEXT NOT NULL DEFAULT '',
  skipped         INTEGER NOT NULL DEFAULT 0,
  definitions     INTEGER NOT NULL DEFAULT 0,
  checksum        TEXT NOT NULL,
  indexed_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS definitions (
  scope_id        INTEGER NOT NULL REFERENCES scopes(id) ON DELETE CASCADE,
  ordinal         INTEGER NOT NULL,
  symbol          TEXT NOT NULL,
  file            TEXT NOT NULL,
  line            INTEGER NOT NULL,
  kind            TEXT NOT NULL,
  container       TEXT,
  PRIMARY KEY (scope_id, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_definitions_symbol ON definitions(scope_id, symbol);
`

// SaveSnapshot replaces the stored snapshot for snap.Root in a single
// transaction. Definitions keep their order.
func (s *Store) SaveSnapshot(snap *Snapshot) error {
	if snap.Root == "" {
		return errors.New("save snapshot: empty root")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	indexedAt := snap.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now()
	}

	var scopeID int64
	err = tx.QueryRow(`
		INSERT INTO scopes (root, name, tags_path, tags_size, tags_mtime, filter_print, skipped, definitions, checksum, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(root) DO UPDATE SET
		  name = excluded.name,
		  tags_path = excluded.tags_path,
		  tags_size = excluded.tags_size,
		  tags_mtime = excluded.tags_mtime,
		  filter_print = excluded.filter_print,
		  skipped = excluded.skipped,
		  definitions = excluded.definitions,
		  checksum = excluded.checksum,
		  indexed_at = excluded.indexed_at
		RETURNING id`,
		snap.Root, snap.Name, snap.TagsPath, snap.TagsSize, snap.TagsModTime.UnixNano(), snap.Filter,
		snap.Skipped, len(snap.Definitions), ComputeChecksum(snap.Definitions), indexedAt.UnixNano(),
	).Scan(&scopeID)
	if err != nil {
		return fmt.Errorf("save snapshot: upsert scope %s: %w", snap.Root, err)
	}

	if _, err := tx.Exec("DELETE FROM definitions WHERE scope_id = ?", scopeID); err != nil {
		return fmt.Errorf("save snapshot: clear definitions: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO definitions (scope_id, ordinal, symbol, file, line, kind, container)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save snapshot: prepare: %w", err)
	}
	defer stmt.Close()

	for i, d := range snap.Definitions {
		if _, err := stmt.Exec(scopeID, i, d.Symbol, d.File, d.Line, d.Kind, nullString(d.Container)); err != nil {
			return fmt.Errorf("save snapshot: definition %q: %w", d.Symbol, err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot returns the stored snapshot for root, or nil when there is none.
func (s *Store) LoadSnapshot(root string) (*Snapshot, error) {
	var (
		snap         Snapshot
		scopeID      int64
		count        int
		checksum     string
		mtime, stamp int64
	)
	err := s.db.QueryRow(`
		SELECT id, root, name, tags_path, tags_size, tags_mtime, filter_print, skipped, definitions, checksum, indexed_at
		FROM scopes WHERE root = ?`, root,
	).Scan(&scopeID, &snap.Root, &snap.Name, &snap.TagsPath, &snap.TagsSize, &mtime, &snap.Filter,
		&snap.Skipped, &count, &checksum, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", root, err)
	}
	snap.TagsModTime = time.Unix(0, mtime)
	snap.IndexedAt = time.Unix(0, stamp)

	rows, err := s.db.Query(`
		SELECT symbol, file, line, kind, container
		FROM definitions WHERE scope_id = ? ORDER BY ordinal`, scopeID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: query definitions: %w", root, err)
	}
	defer rows.Close()

	snap.Definitions = make([]tags.Definition, 0, count)
	for rows.Next() {
		var (
			d         tags.Definition
			container sql.NullString
		)
		if err := rows.Scan(&d.Symbol, &d.File, &d.Line, &d.Kind, &container); err != nil {
			return nil, fmt.Errorf("load snapshot %s: scan definition: %w", root, err)
		}
		d.Container = stringPtr(container)
		snap.Definitions = append(snap.Definitions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", root, err)
	}

	if len(snap.Definitions) != count || ComputeChecksum(snap.Definitions) != checksum {
		return nil, fmt.Errorf("%w: %s", ErrCorruptSnapshot, root)
	}
	return &snap, nil
}

// Snapshots lists every stored snapshot without its definitions, ordered by root.
func (s *Store) Snapshots() ([]SnapshotInfo, error) {
	rows, err := s.db.Query(`
		SELECT root, name, tags_path, tags_size, tags_mtime, filter_print, skipped, definitions, indexed_at
		FROM scopes ORDER BY root`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var (
			info         SnapshotInfo
			mtime, stamp int64
		)
		if err := rows.Scan(&info.Root, &info.Name, &info.TagsPath, &info.TagsSize, &mtime, &info.Filter,
			&info.Skipped, &info.Definitions, &stamp); err != nil {
			return nil, fmt.Errorf("list snapshots: scan: %w", err)
		}
		info.TagsModTime = time.Unix(0, mtime)
		info.IndexedAt = time.Unix(0, stamp)
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes the snapshot for root. Deleting a missing snapshot
// is not an error.
func (s *Store) DeleteSnapshot(root string) error {
	if _, err := s.db.Exec("DELETE FROM scopes WHERE root = ?", root); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", root, err)
	}
	return nil
}
