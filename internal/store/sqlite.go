package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/recallai/recall/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite allows one writer at a time. A single pooled connection queues
	// concurrent transactions instead of surfacing SQLITE_BUSY; the
	// busy_timeout pragma covers other processes sharing the file.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id         TEXT NOT NULL,
		owner      TEXT NOT NULL,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		tags       TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (owner, id)
	);
	CREATE INDEX IF NOT EXISTS idx_memories_owner_created ON memories(owner, created_at DESC);

	CREATE TABLE IF NOT EXISTS chunks (
		id        TEXT PRIMARY KEY,
		owner     TEXT NOT NULL,
		memory_id TEXT NOT NULL,
		seq       INTEGER NOT NULL,
		text      TEXT NOT NULL,
		vector    BLOB,
		FOREIGN KEY (owner, memory_id) REFERENCES memories(owner, id)
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_owner ON chunks(owner);
	CREATE INDEX IF NOT EXISTS idx_chunks_memory ON chunks(owner, memory_id);

	CREATE TABLE IF NOT EXISTS owner_stats (
		owner          TEXT PRIMARY KEY,
		total_memories INTEGER NOT NULL DEFAULT 0,
		storage_bytes  INTEGER NOT NULL DEFAULT 0,
		last_upload_at TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put persists the memory and all its chunks in one transaction, so a crash
// mid-write can never leave orphan chunks, and recomputes the owner's stats
// before committing.
func (s *SQLiteStore) Put(ctx context.Context, owner string, mem *model.Memory, chunks []model.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", model.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	var tagsJSON *string
	if len(mem.Tags) > 0 {
		b, _ := json.Marshal(mem.Tags)
		v := string(b)
		tagsJSON = &v
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memories (id, owner, title, content, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		mem.ID, owner, mem.Title, mem.Content, tagsJSON,
		mem.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		// The (owner, id) primary key is the duplicate check. Letting the
		// constraint decide leaves no window for a racing insert of the
		// same id to slip between a pre-check and the write.
		if isConstraintViolation(err) {
			return fmt.Errorf("memory %s: %w", mem.ID, model.ErrConflict)
		}
		return fmt.Errorf("%w: insert memory: %v", model.ErrStoreUnavailable, err)
	}

	for _, c := range chunks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chunks (id, owner, memory_id, seq, text, vector)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, owner, mem.ID, c.Seq, c.Text, encodeVector(c.Vector))
		if err != nil {
			return fmt.Errorf("%w: insert chunk: %v", model.ErrStoreUnavailable, err)
		}
	}

	if err := recomputeStats(ctx, tx, owner, mem.CreatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, owner, id string) (*model.Memory, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT m.id, m.owner, m.title, m.content, m.tags, m.created_at,
		       (SELECT COUNT(*) FROM chunks c WHERE c.owner = m.owner AND c.memory_id = m.id)
		FROM memories m WHERE m.owner = ? AND m.id = ?`, owner, id)

	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("memory %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return &m, nil
}

// List returns the owner's memories newest first. Equal timestamps fall back
// to insertion order, newest insertion first, via rowid.
func (s *SQLiteStore) List(ctx context.Context, owner string) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.owner, m.title, m.content, m.tags, m.created_at,
		       (SELECT COUNT(*) FROM chunks c WHERE c.owner = m.owner AND c.memory_id = m.id)
		FROM memories m WHERE m.owner = ?
		ORDER BY m.created_at DESC, m.rowid DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return collectMemories(rows)
}

// CandidateChunks returns the owner's full chunk set in memory insertion
// order, then chunk order. Nothing here is scored; that is the ranker's job.
func (s *SQLiteStore) CandidateChunks(ctx context.Context, owner string) ([]model.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.memory_id, c.owner, c.seq, c.text, c.vector, m.title
		FROM chunks c
		JOIN memories m ON m.owner = c.owner AND m.id = c.memory_id
		WHERE c.owner = ?
		ORDER BY m.rowid, c.seq`, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var chunks []model.Chunk
	for rows.Next() {
		var c model.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.MemoryID, &c.Owner, &c.Seq, &c.Text, &blob, &c.Title); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
		}
		c.Vector = decodeVector(blob)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Remove deletes the memory and its chunks in one transaction, recomputing
// the owner's stats before committing. Chunks go first so the parent row
// never outlives them mid-transaction.
func (s *SQLiteStore) Remove(ctx context.Context, owner, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", model.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM memories WHERE owner = ? AND id = ?`, owner, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("memory %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE owner = ? AND memory_id = ?`, owner, id); err != nil {
		return fmt.Errorf("%w: delete chunks: %v", model.ErrStoreUnavailable, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM memories WHERE owner = ? AND id = ?`, owner, id); err != nil {
		return fmt.Errorf("%w: delete memory: %v", model.ErrStoreUnavailable, err)
	}

	if err := recomputeStats(ctx, tx, owner, time.Time{}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// RemoveAll wipes every row for the owner. The stats row is deleted rather
// than decremented, so accumulated drift cannot survive a full wipe.
func (s *SQLiteStore) RemoveAll(ctx context.Context, owner string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", model.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM chunks WHERE owner = ?`,
		`DELETE FROM memories WHERE owner = ?`,
		`DELETE FROM owner_stats WHERE owner = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, owner); err != nil {
			return fmt.Errorf("%w: wipe: %v", model.ErrStoreUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isConstraintViolation reports whether err carries any SQLITE_CONSTRAINT
// primary result code, masking off the extended-code bits.
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (model.Memory, error) {
	var m model.Memory
	var tagsJSON sql.NullString
	var createdAt string

	err := row.Scan(&m.ID, &m.Owner, &m.Title, &m.Content, &tagsJSON, &createdAt, &m.ChunkCount)
	if err != nil {
		return m, err
	}

	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &m.Tags)
	}
	return m, nil
}

func collectMemories(rows *sql.Rows) ([]model.Memory, error) {
	var memories []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}
