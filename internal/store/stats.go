package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/recallai/recall/internal/model"
)

// Stats returns the owner's usage counters. An owner with nothing stored
// gets the zero value.
func (s *SQLiteStore) Stats(ctx context.Context, owner string) (*model.Stats, error) {
	st := &model.Stats{Owner: owner}

	var last sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT total_memories, storage_bytes, last_upload_at FROM owner_stats WHERE owner = ?`,
		owner).Scan(&st.TotalMemories, &st.StorageBytes, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	if last.Valid {
		t, err := time.Parse(time.RFC3339Nano, last.String)
		if err == nil {
			st.LastUploadAt = &t
		}
	}
	return st, nil
}

// recomputeStats derives the owner's counters from the live rows inside the
// caller's transaction, rather than incrementing stored values. Two writers
// racing on the same owner serialize on SQLite's writer lock, and each
// commits counters computed against what it actually wrote. A zero upload
// time leaves last_upload_at untouched (deletes do not move it).
func recomputeStats(ctx context.Context, tx *sql.Tx, owner string, upload time.Time) error {
	var total int
	var bytes int64
	// LENGTH on a BLOB cast counts bytes; on TEXT it would count characters.
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(CAST(content AS BLOB))), 0)
		FROM memories WHERE owner = ?`, owner).Scan(&total, &bytes)
	if err != nil {
		return fmt.Errorf("%w: recompute stats: %v", model.ErrStoreUnavailable, err)
	}

	if upload.IsZero() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO owner_stats (owner, total_memories, storage_bytes)
			VALUES (?, ?, ?)
			ON CONFLICT(owner) DO UPDATE SET
				total_memories = excluded.total_memories,
				storage_bytes  = excluded.storage_bytes`,
			owner, total, bytes)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO owner_stats (owner, total_memories, storage_bytes, last_upload_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(owner) DO UPDATE SET
				total_memories = excluded.total_memories,
				storage_bytes  = excluded.storage_bytes,
				last_upload_at = excluded.last_upload_at`,
			owner, total, bytes, upload.UTC().Format(time.RFC3339Nano))
	}
	if err != nil {
		return fmt.Errorf("%w: write stats: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}
