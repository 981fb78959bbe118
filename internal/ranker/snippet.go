package ranker

import (
	"strings"
	"unicode/utf8"
)

// SnippetOptions sets the evidence window sizes, in runes. These are
// presentation heuristics, not tuned values, so they stay configurable.
type SnippetOptions struct {
	Before   int // kept before the match
	After    int // kept after the match
	Fallback int // leading runes when the query is absent
}

// DefaultSnippetOptions returns the default window sizes.
func DefaultSnippetOptions() SnippetOptions {
	return SnippetOptions{Before: 50, After: 150, Fallback: 200}
}

// Snippet extracts a verbatim excerpt of text around the first occurrence
// of query, with "..." markers on truncated edges. When the query does not
// occur, the leading runes of the text are returned instead. The result is
// always a substring of the input plus markers, never a paraphrase.
func Snippet(text, query string, opts SnippetOptions) string {
	runes := []rune(text)

	at := -1
	q := strings.TrimSpace(query)
	if q != "" {
		// ToLower maps rune for rune, so rune offsets agree between the
		// lowered text and the original even where byte widths differ.
		lowered := strings.ToLower(text)
		if i := strings.Index(lowered, strings.ToLower(q)); i >= 0 {
			at = utf8.RuneCountInString(lowered[:i])
		}
	}

	if at < 0 {
		if len(runes) <= opts.Fallback {
			return text
		}
		return string(runes[:opts.Fallback]) + "..."
	}

	start := at - opts.Before
	end := at + len([]rune(q)) + opts.After

	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	} else {
		start = 0
	}
	if end < len(runes) {
		suffix = "..."
	} else {
		end = len(runes)
	}

	return prefix + string(runes[start:end]) + suffix
}
