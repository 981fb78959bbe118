// Package chunker splits raw text into overlapping segments for retrieval.
package chunker

import "strings"

const (
	DefaultTargetSize = 500
	DefaultOverlap    = 0.15
)

// Options configures splitting behavior.
type Options struct {
	TargetSize int     // target segment length in runes
	Overlap    float64 // fraction of TargetSize carried into the next segment
}

// DefaultOptions returns default splitting options.
func DefaultOptions() Options {
	return Options{
		TargetSize: DefaultTargetSize,
		Overlap:    DefaultOverlap,
	}
}

// Piece is one segment of the input, ordered by Index.
type Piece struct {
	Text  string
	Index int
}

// Split cuts text into overlapping pieces of roughly TargetSize runes.
// Each cut prefers a paragraph or sentence boundary in the tail of the
// window before falling back to a hard cut, and the next piece starts
// Overlap*TargetSize runes before the previous cut so context survives the
// seam. Text shorter than TargetSize yields exactly one piece. Identical
// input and options always produce identical output.
func Split(text string, opts Options) []Piece {
	if opts.TargetSize <= 0 {
		opts.TargetSize = DefaultTargetSize
	}
	if opts.Overlap < 0 || opts.Overlap >= 1 {
		opts.Overlap = DefaultOverlap
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= opts.TargetSize {
		return []Piece{{Text: string(runes), Index: 0}}
	}

	overlap := int(float64(opts.TargetSize) * opts.Overlap)

	var pieces []Piece
	start := 0
	for start < len(runes) {
		end := start + opts.TargetSize
		if end >= len(runes) {
			pieces = append(pieces, Piece{Text: string(runes[start:]), Index: len(pieces)})
			break
		}

		cut := boundary(runes, start, end)
		pieces = append(pieces, Piece{Text: string(runes[start:cut]), Index: len(pieces)})

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return pieces
}

// boundary searches backward from end for a break point, checking paragraph
// breaks first, then sentence enders, then a plain line break. The cut is
// never moved more than 40% back into the window; past that a hard cut
// severs less context than an early one.
func boundary(runes []rune, start, end int) int {
	earliest := end - (end-start)*2/5
	window := string(runes[earliest:end])

	for _, sep := range []string{"\n\n", ". ", "! ", "? ", "\n"} {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return earliest + len([]rune(window[:i+len(sep)]))
		}
	}
	return end
}
