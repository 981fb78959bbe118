package store

import (
	"context"
	"fmt"

	"github.com/recallai/recall/internal/model"
)

// ExportAll returns every memory for the owner in creation order, for data
// portability. Chunks and vectors are not exported; an import re-derives
// them from content.
func (s *SQLiteStore) ExportAll(ctx context.Context, owner string) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.owner, m.title, m.content, m.tags, m.created_at,
		       (SELECT COUNT(*) FROM chunks c WHERE c.owner = m.owner AND c.memory_id = m.id)
		FROM memories m WHERE m.owner = ?
		ORDER BY m.created_at, m.rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return collectMemories(rows)
}
