// Package ranker orders candidate chunks by relevance to a query.
//
// Scoring is a strategy behind the Scorer interface so the ordering and
// tie-break logic stays independent of where scores come from. Given the
// same query, candidates, and scorer, Rank always returns identical results.
package ranker

import (
	"sort"
	"strings"

	"github.com/recallai/recall/internal/embedding"
	"github.com/recallai/recall/internal/model"
)

// DefaultK is the result count when the caller does not specify one.
const DefaultK = 5

// Keyword mode weights.
const (
	titleMatchWeight = 10 // whole query found in the parent title
	chunkMatchWeight = 5  // whole query found in the chunk text
	wordMatchWeight  = 1  // each query word (>2 chars) found in the chunk
)

// Query carries the question text and, in vector mode, its embedding.
// The embedding is computed once per question, not per candidate.
type Query struct {
	Text   string
	Vector embedding.Vector
}

// Scorer assigns a relevance score to one chunk. Implementations must be
// pure: the same query and chunk always yield the same score.
type Scorer interface {
	Score(q Query, c model.Chunk) float64
}

// VectorScorer scores by cosine similarity between the query vector and the
// chunk vector.
type VectorScorer struct{}

func (VectorScorer) Score(q Query, c model.Chunk) float64 {
	return embedding.CosineSimilarity(q.Vector, c.Vector)
}

// KeywordScorer is the fallback when no embedding provider is configured.
// Matching is case-insensitive substring containment.
type KeywordScorer struct{}

func (KeywordScorer) Score(q Query, c model.Chunk) float64 {
	query := strings.ToLower(strings.TrimSpace(q.Text))
	if query == "" {
		return 0
	}
	text := strings.ToLower(c.Text)

	var score float64
	if strings.Contains(strings.ToLower(c.Title), query) {
		score += titleMatchWeight
	}
	if strings.Contains(text, query) {
		score += chunkMatchWeight
	}
	for _, w := range strings.Fields(query) {
		if len([]rune(w)) <= 2 {
			continue
		}
		if strings.Contains(text, w) {
			score += wordMatchWeight
		}
	}
	return score
}

// Result pairs a chunk with its score and a verbatim snippet.
type Result struct {
	Chunk   model.Chunk `json:"chunk"`
	Score   float64     `json:"score"`
	Snippet string      `json:"snippet"`
}

// Rank scores every candidate, drops non-matches, and returns at most k
// results ordered by score descending. Ties prefer earlier chunks (seq
// ascending), then lower memory id, so the ordering never depends on input
// order or anything non-deterministic.
func Rank(q Query, candidates []model.Chunk, k int, scorer Scorer) []Result {
	if k <= 0 {
		k = DefaultK
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		score := scorer.Score(q, c)
		if score <= 0 {
			// a zero-relevance chunk must never surface as a source
			continue
		}
		results = append(results, Result{Chunk: c, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.Seq != results[j].Chunk.Seq {
			return results[i].Chunk.Seq < results[j].Chunk.Seq
		}
		return results[i].Chunk.MemoryID < results[j].Chunk.MemoryID
	})

	if len(results) > k {
		results = results[:k]
	}

	for i := range results {
		results[i].Snippet = Snippet(results[i].Chunk.Text, q.Text, DefaultSnippetOptions())
	}
	return results
}
