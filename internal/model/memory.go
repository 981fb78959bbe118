// Package model defines the core memory data types.
package model

import "time"

// Memory represents one unit of user-submitted text plus its metadata.
// Content is immutable once stored; re-ingesting means delete and create.
type Memory struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ChunkCount int       `json:"chunks,omitempty"`
}

// Chunk is a retrieval-sized slice of a memory's content.
// Title carries the parent memory's title so keyword scoring does not need
// a second lookup.
type Chunk struct {
	ID       string    `json:"id"`
	MemoryID string    `json:"memory_id"`
	Owner    string    `json:"owner"`
	Seq      int       `json:"seq"`
	Text     string    `json:"text"`
	Title    string    `json:"title,omitempty"`
	Vector   []float32 `json:"-"`
}

// Stats summarizes one owner's stored memories. TotalMemories and
// StorageBytes are always derived from the live rows, never incremented.
type Stats struct {
	Owner         string     `json:"owner"`
	TotalMemories int        `json:"total_memories"`
	LastUploadAt  *time.Time `json:"last_upload_at,omitempty"`
	StorageBytes  int64      `json:"storage_bytes"`
}
