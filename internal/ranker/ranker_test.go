package ranker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallai/recall/internal/embedding"
	"github.com/recallai/recall/internal/model"
)

func TestKeywordScorer_Weights(t *testing.T) {
	q := Query{Text: "project deadline"}

	tests := []struct {
		name  string
		chunk model.Chunk
		want  float64
	}{
		{
			name:  "no match",
			chunk: model.Chunk{Text: "grocery list: eggs, milk", Title: "shopping"},
			want:  0,
		},
		{
			name:  "single word",
			chunk: model.Chunk{Text: "the project is going well", Title: "status"},
			want:  1,
		},
		{
			name:  "both words",
			chunk: model.Chunk{Text: "the project has a deadline next week", Title: "status"},
			want:  2,
		},
		{
			name:  "full query in chunk",
			chunk: model.Chunk{Text: "about the project deadline for Q4", Title: "status"},
			want:  5 + 2,
		},
		{
			name:  "full query in title",
			chunk: model.Chunk{Text: "nothing relevant here", Title: "Project Deadline notes"},
			want:  10,
		},
		{
			name:  "title and chunk and words",
			chunk: model.Chunk{Text: "the PROJECT DEADLINE moved", Title: "project deadline"},
			want:  10 + 5 + 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeywordScorer{}.Score(q, tt.chunk))
		})
	}
}

func TestKeywordScorer_ShortWordsIgnored(t *testing.T) {
	// "on" and "X" are too short to count as individual words
	q := Query{Text: "on X"}
	c := model.Chunk{Text: "meeting on topic X today", Title: "meeting"}
	// full query "on x" appears as substring? no ("on topic x"), words skipped
	assert.Equal(t, 0.0, KeywordScorer{}.Score(q, c))
}

func TestKeywordScorer_EmptyQuery(t *testing.T) {
	c := model.Chunk{Text: "anything", Title: "anything"}
	assert.Equal(t, 0.0, KeywordScorer{}.Score(Query{Text: "  "}, c))
}

func TestVectorScorer(t *testing.T) {
	q := Query{Text: "q", Vector: embedding.Vector{1, 0, 0}}

	same := model.Chunk{Vector: []float32{1, 0, 0}}
	orthogonal := model.Chunk{Vector: []float32{0, 1, 0}}

	assert.InDelta(t, 1.0, VectorScorer{}.Score(q, same), 0.001)
	assert.InDelta(t, 0.0, VectorScorer{}.Score(q, orthogonal), 0.001)
}

func TestRank_OrdersByScoreThenSeqThenMemory(t *testing.T) {
	q := Query{Text: "q", Vector: embedding.Vector{1, 0}}
	candidates := []model.Chunk{
		{MemoryID: "m2", Seq: 1, Text: "b", Vector: []float32{1, 1}},
		{MemoryID: "m2", Seq: 0, Text: "a", Vector: []float32{1, 0}},
		{MemoryID: "m1", Seq: 0, Text: "c", Vector: []float32{1, 0}},
	}

	results := Rank(q, candidates, 5, VectorScorer{})
	require.Len(t, results, 3)

	// the two perfect matches tie: seq 0 for both, so memory id breaks it
	assert.Equal(t, "m1", results[0].Chunk.MemoryID)
	assert.Equal(t, "m2", results[1].Chunk.MemoryID)
	assert.Equal(t, 1, results[2].Chunk.Seq)
}

func TestRank_DropsZeroScores(t *testing.T) {
	q := Query{Text: "mars"}
	candidates := []model.Chunk{
		{MemoryID: "m1", Text: "a trip to mars", Title: "travel"},
		{MemoryID: "m2", Text: "completely unrelated", Title: "other"},
	}

	results := Rank(q, candidates, 5, KeywordScorer{})
	require.Len(t, results, 1)
	assert.Equal(t, "m1", results[0].Chunk.MemoryID)
}

func TestRank_RespectsK(t *testing.T) {
	q := Query{Text: "word"}
	var candidates []model.Chunk
	for i := 0; i < 10; i++ {
		candidates = append(candidates, model.Chunk{
			MemoryID: string(rune('a' + i)),
			Text:     "this chunk contains the word",
		})
	}

	results := Rank(q, candidates, 3, KeywordScorer{})
	assert.Len(t, results, 3)

	// k <= 0 falls back to the default
	results = Rank(q, candidates, 0, KeywordScorer{})
	assert.Len(t, results, DefaultK)
}

func TestRank_DeterministicAcrossInputOrder(t *testing.T) {
	q := Query{Text: "topic"}
	candidates := []model.Chunk{
		{MemoryID: "m1", Seq: 0, Text: "topic one"},
		{MemoryID: "m2", Seq: 0, Text: "topic two"},
		{MemoryID: "m3", Seq: 1, Text: "topic three"},
	}
	reversed := []model.Chunk{candidates[2], candidates[1], candidates[0]}

	a := Rank(q, candidates, 5, KeywordScorer{})
	b := Rank(q, reversed, 5, KeywordScorer{})
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Chunk.ID, b[i].Chunk.ID)
		assert.Equal(t, a[i].Score, b[i].Score)
		assert.Equal(t, a[i].Snippet, b[i].Snippet)
	}
}

func TestSnippet_WindowAroundMatch(t *testing.T) {
	padding := strings.Repeat("x", 300)
	text := padding + " Project X launch " + padding
	got := Snippet(text, "Project X", DefaultSnippetOptions())

	assert.True(t, strings.HasPrefix(got, "..."))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Contains(t, got, "Project X")
	// 50 before + match + 150 after + two markers
	assert.LessOrEqual(t, len(got), 50+len("Project X")+150+6)
}

func TestSnippet_MatchAtStart(t *testing.T) {
	text := "Project X kicked off. " + strings.Repeat("y", 300)
	got := Snippet(text, "Project X", DefaultSnippetOptions())

	assert.True(t, strings.HasPrefix(got, "Project X"))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestSnippet_CaseInsensitiveMatch(t *testing.T) {
	text := "We discussed PROJECT x at the meeting."
	got := Snippet(text, "project X", DefaultSnippetOptions())
	assert.Contains(t, got, "PROJECT x")
}

func TestSnippet_NoMatchFallsBackToHead(t *testing.T) {
	text := strings.Repeat("a", 500)
	got := Snippet(text, "missing", DefaultSnippetOptions())
	assert.Equal(t, strings.Repeat("a", 200)+"...", got)

	short := "short text"
	assert.Equal(t, short, Snippet(short, "missing", DefaultSnippetOptions()))
}

func TestSnippet_IsVerbatimSubstring(t *testing.T) {
	text := "Meeting with Sarah about Project X on 10/12. Deadline pushed to Q4."
	got := Snippet(text, "Project X", DefaultSnippetOptions())
	trimmed := strings.TrimSuffix(strings.TrimPrefix(got, "..."), "...")
	assert.Contains(t, text, trimmed)
}

func TestSnippet_CaseMappingWidensBytes(t *testing.T) {
	// U+023A lowercases to U+2C65, which is one byte wider in UTF-8, so
	// byte offsets into the lowered text do not index the original.
	text := strings.Repeat("Ⱥ", 20) + "zzz"
	got := Snippet(text, "zzz", DefaultSnippetOptions())
	assert.Equal(t, text, got)
}

func TestSnippet_CaseMappingShrinksBytes(t *testing.T) {
	// U+212A (Kelvin sign) lowercases to plain "k", two bytes narrower.
	text := strings.Repeat("K", 10) + " warp core breach " + strings.Repeat("z", 300)
	got := Snippet(text, "warp core", DefaultSnippetOptions())
	assert.Contains(t, got, "warp core breach")
}
