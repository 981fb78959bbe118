// Package engine implements the memory lifecycle and retrieval operations
// exposed to collaborators (upload surface, dashboards, generation layer).
//
// The owner on every call is an already-authenticated identity; the engine
// treats it as an opaque partition key and never makes trust decisions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/recallai/recall/internal/chunker"
	"github.com/recallai/recall/internal/embedding"
	"github.com/recallai/recall/internal/model"
	"github.com/recallai/recall/internal/ranker"
	"github.com/recallai/recall/internal/store"
)

const (
	// DefaultTopK is the result count for Query when none is given.
	DefaultTopK = ranker.DefaultK

	// DefaultEmbedTimeout bounds a single embedding call. Matches the HTTP
	// providers' own client timeout.
	DefaultEmbedTimeout = 30 * time.Second

	// titleMaxRunes is how much of the content becomes the derived title.
	titleMaxRunes = 50
)

// Options configures an Engine.
type Options struct {
	Chunker      chunker.Options
	Embedder     embedding.Embedder // nil selects keyword ranking
	EmbedTimeout time.Duration
}

// Engine wires the chunker, embedder, store, and ranker together.
type Engine struct {
	store        store.Store
	embedder     embedding.Embedder
	chunkOpts    chunker.Options
	embedTimeout time.Duration
}

// New creates an engine over the given store.
func New(st store.Store, opts Options) *Engine {
	if opts.Chunker.TargetSize <= 0 {
		opts.Chunker = chunker.DefaultOptions()
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = DefaultEmbedTimeout
	}
	return &Engine{
		store:        st,
		embedder:     opts.Embedder,
		chunkOpts:    opts.Chunker,
		embedTimeout: opts.EmbedTimeout,
	}
}

// QueryResult is what the generation collaborator receives as grounding
// context. Results never contain chunks outside the queried owner.
type QueryResult struct {
	Results         []ranker.Result `json:"results"`
	MemoriesTouched int             `json:"memories_touched"`
}

// Ingest stores content for the owner: derive a title when absent, chunk,
// embed, and persist memory plus chunks as one unit. Nothing is persisted
// when chunking or embedding fails.
func (e *Engine) Ingest(ctx context.Context, owner, title, content string, tags []string) (*model.Memory, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("content is required: %w", model.ErrInvalidInput)
	}
	cleanTags, err := normalizeTags(tags)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = deriveTitle(content)
	}

	mem := &model.Memory{
		ID:        ulid.Make().String(),
		Owner:     owner,
		Title:     title,
		Content:   content,
		Tags:      cleanTags,
		CreatedAt: time.Now().UTC(),
	}

	pieces := chunker.Split(content, e.chunkOpts)
	chunks := make([]model.Chunk, 0, len(pieces))
	for _, p := range pieces {
		c := model.Chunk{
			ID:       uuid.NewString(),
			MemoryID: mem.ID,
			Owner:    owner,
			Seq:      p.Index,
			Text:     p.Text,
			Title:    mem.Title,
		}
		if e.embedder != nil {
			vec, err := e.embed(ctx, p.Text)
			if err != nil {
				return nil, err
			}
			c.Vector = vec
		}
		chunks = append(chunks, c)
	}

	if err := e.store.Put(ctx, owner, mem, chunks); err != nil {
		return nil, err
	}
	mem.ChunkCount = len(chunks)
	return mem, nil
}

// Get returns one memory, or model.ErrNotFound.
func (e *Engine) Get(ctx context.Context, owner, id string) (*model.Memory, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	return e.store.Get(ctx, owner, id)
}

// List returns the owner's memories, newest first.
func (e *Engine) List(ctx context.Context, owner string) ([]model.Memory, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	return e.store.List(ctx, owner)
}

// Delete removes one memory and its chunks. An id belonging to another
// owner reports model.ErrNotFound, same as a missing one.
func (e *Engine) Delete(ctx context.Context, owner, id string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	return e.store.Remove(ctx, owner, id)
}

// DeleteAll wipes everything the owner has stored and resets their stats.
func (e *Engine) DeleteAll(ctx context.Context, owner string) error {
	if err := requireOwner(owner); err != nil {
		return err
	}
	return e.store.RemoveAll(ctx, owner)
}

// Query ranks the owner's chunks against the question and returns the top
// k with verbatim snippets. Vector scoring is used when an embedder is
// configured, weighted keyword scoring otherwise.
func (e *Engine) Query(ctx context.Context, owner, question string, k int) (*QueryResult, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = DefaultTopK
	}

	q := ranker.Query{Text: question}
	var scorer ranker.Scorer = ranker.KeywordScorer{}
	if e.embedder != nil {
		vec, err := e.embed(ctx, question)
		if err != nil {
			return nil, err
		}
		q.Vector = vec
		scorer = ranker.VectorScorer{}
	}

	candidates, err := e.store.CandidateChunks(ctx, owner)
	if err != nil {
		return nil, err
	}

	results := ranker.Rank(q, candidates, k, scorer)

	touched := make(map[string]struct{}, len(results))
	for _, r := range results {
		touched[r.Chunk.MemoryID] = struct{}{}
	}
	return &QueryResult{Results: results, MemoriesTouched: len(touched)}, nil
}

// Stats returns the owner's usage counters.
func (e *Engine) Stats(ctx context.Context, owner string) (*model.Stats, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	return e.store.Stats(ctx, owner)
}

// Export returns the owner's memories in creation order for data
// portability.
func (e *Engine) Export(ctx context.Context, owner string) ([]model.Memory, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	return e.store.ExportAll(ctx, owner)
}

// Import re-ingests exported memories through the normal path, so chunks,
// vectors, and stats are rebuilt rather than trusted from the file. New ids
// are assigned. Returns how many were imported before any failure.
func (e *Engine) Import(ctx context.Context, owner string, memories []model.Memory) (int, error) {
	imported := 0
	for _, m := range memories {
		if _, err := e.Ingest(ctx, owner, m.Title, m.Content, m.Tags); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// embed runs one embedding call under the configured timeout. A deadline
// hit is reported as model.ErrDependencyTimeout so the caller's whole
// operation fails before anything is persisted.
func (e *Engine) embed(ctx context.Context, text string) (embedding.Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, e.embedTimeout)
	defer cancel()

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("embed: %w", model.ErrDependencyTimeout)
		}
		return nil, fmt.Errorf("embed: %w", err)
	}
	return vec, nil
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return fmt.Errorf("owner is required: %w", model.ErrInvalidInput)
	}
	return nil
}

func normalizeTags(tags []string) ([]string, error) {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, fmt.Errorf("empty tag: %w", model.ErrInvalidInput)
		}
		out = append(out, t)
	}
	return out, nil
}

func deriveTitle(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= titleMaxRunes {
		return string(runes)
	}
	return string(runes[:titleMaxRunes]) + "..."
}
