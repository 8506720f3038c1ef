package service

import "unicode"

const (
	// DefaultChunkSize is the window size for course content chunking.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is carried between consecutive chunks for
	// retrieval continuity.
	DefaultChunkOverlap = 200
)

// Chunk splits text into bounded, overlapping segments. Each window
// prefers to end at a paragraph break, then a sentence break, then a
// word break, but only when the boundary falls in the second half of
// the window; otherwise it cuts at the raw size limit. Chunks are exact
// substrings of the input: concatenating them with overlaps collapsed
// reconstructs the input.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := boundaryCut(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))

		// Next window starts overlap runes back, but must stay ahead
		// of cut-size so every chunk ends past the previous one.
		next := cut - overlap
		if min := cut - size + 1; next < min {
			next = min
		}
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

// boundaryCut returns the cut position for the window [start, end),
// snapping to the best natural boundary in the second half of the
// window, or end when none exists there.
func boundaryCut(runes []rune, start, end int) int {
	half := start + (end-start)/2

	// Paragraph break: cut just after a blank line.
	for i := end; i > half; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}

	// Sentence break: terminal punctuation followed by whitespace.
	for i := end; i > half; i-- {
		if i < 2 {
			break
		}
		if unicode.IsSpace(runes[i-1]) {
			switch runes[i-2] {
			case '.', '!', '?':
				return i
			}
		}
	}

	// Word break.
	for i := end; i > half; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}

	return end
}
