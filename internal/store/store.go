// Package store provides owner-scoped persistence for memories and chunks.
//
// Every operation is parameterized by an owner, and rows belonging to a
// different owner are invisible to it. This package is the only place that
// isolation is enforced; callers above it never filter by owner themselves.
package store

import (
	"context"

	"github.com/recallai/recall/internal/model"
)

// Store defines the persistence surface consumed by the engine.
type Store interface {
	// Put persists a memory and all its chunks as one unit and brings the
	// owner's stats up to date in the same transaction. Returns
	// model.ErrConflict when the id already exists for that owner.
	Put(ctx context.Context, owner string, mem *model.Memory, chunks []model.Chunk) error

	// Get retrieves one memory. Returns model.ErrNotFound when the id does
	// not exist for that owner, including when it exists under another.
	Get(ctx context.Context, owner, id string) (*model.Memory, error)

	// List returns the owner's memories newest first, ties broken by
	// insertion order.
	List(ctx context.Context, owner string) ([]model.Memory, error)

	// CandidateChunks returns every chunk for the owner, with the parent
	// title joined in, for the ranker to score.
	CandidateChunks(ctx context.Context, owner string) ([]model.Chunk, error)

	// Remove deletes a memory and all its chunks as one unit and brings the
	// owner's stats up to date in the same transaction.
	Remove(ctx context.Context, owner, id string) error

	// RemoveAll deletes every memory and chunk for the owner and resets the
	// owner's stats to the zero value.
	RemoveAll(ctx context.Context, owner string) error

	// Stats returns the owner's usage counters. Owners with no uploads get
	// the zero value, not an error.
	Stats(ctx context.Context, owner string) (*model.Stats, error)

	// ExportAll returns every memory for the owner in creation order.
	ExportAll(ctx context.Context, owner string) ([]model.Memory, error)

	// Close closes the store.
	Close() error
}
