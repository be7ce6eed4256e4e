package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
)

// DatabaseFile is the name of the database inside the data directory.
const DatabaseFile = "index.db"

// Store is a SQLite-backed driven.IndexStore.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.IndexStore = (*Store)(nil)

// NewStore opens or creates the database in dataDir.
// If dataDir is empty, defaults to ~/.mailqa.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".mailqa")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrationFS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ReplaceSession stores info and entries in one transaction, replacing
// whatever the session held before.
func (s *Store) ReplaceSession(ctx context.Context, info domain.SessionInfo, entries []domain.IndexEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE session = ?", info.Name); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (name, index_id, model, dimensions, units, built_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			index_id = excluded.index_id,
			model = excluded.model,
			dimensions = excluded.dimensions,
			units = excluded.units,
			built_at = excluded.built_at
	`, info.Name, info.IndexID, info.Model, info.Dimensions, len(entries), info.BuiltAt.UnixNano())
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (session, position, unit_id, content, metadata, vector)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		metadataJSON, err := json.Marshal(e.Unit.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, info.Name, i, e.Unit.ID, e.Unit.Content,
			string(metadataJSON), float32SliceToBytes(e.Vector)); err != nil {
			return fmt.Errorf("saving entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadSession returns a stored session and its entries in insertion order.
func (s *Store) LoadSession(ctx context.Context, name string) (domain.SessionInfo, []domain.IndexEntry, error) {
	info, err := scanSession(s.db.QueryRowContext(ctx, `
		SELECT name, index_id, model, dimensions, units, built_at
		FROM sessions WHERE name = ?
	`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SessionInfo{}, nil, fmt.Errorf("session %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return domain.SessionInfo{}, nil, fmt.Errorf("querying session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT unit_id, content, metadata, vector
		FROM entries WHERE session = ?
		ORDER BY position
	`, name)
	if err != nil {
		return domain.SessionInfo{}, nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.IndexEntry, 0, info.Units)
	for rows.Next() {
		var e domain.IndexEntry
		var metadataJSON string
		var vector []byte
		if err := rows.Scan(&e.Unit.ID, &e.Unit.Content, &metadataJSON, &vector); err != nil {
			return domain.SessionInfo{}, nil, fmt.Errorf("scanning entry: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &e.Unit.Metadata); err != nil {
			return domain.SessionInfo{}, nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
		e.Vector = bytesToFloat32Slice(vector)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return domain.SessionInfo{}, nil, fmt.Errorf("iterating entries: %w", err)
	}
	info.Units = len(entries)
	return info, entries, nil
}

// DeleteSession removes a session and its entries.
func (s *Store) DeleteSession(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE name = ?", name); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// ListSessions returns stored sessions ordered by name.
func (s *Store) ListSessions(ctx context.Context) ([]domain.SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, index_id, model, dimensions, units, built_at
		FROM sessions ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionInfo
	for rows.Next() {
		info, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (domain.SessionInfo, error) {
	var info domain.SessionInfo
	var builtAt int64
	if err := row.Scan(&info.Name, &info.IndexID, &info.Model, &info.Dimensions, &info.Units, &builtAt); err != nil {
		return domain.SessionInfo{}, err
	}
	info.BuiltAt = time.Unix(0, builtAt).UTC()
	return info, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
