package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_ShortTextReturnsSingleChunk(t *testing.T) {
	text := "a short paragraph"
	chunks := Chunk(text, 1000, 200)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunk_ExactSizeReturnsSingleChunk(t *testing.T) {
	text := strings.Repeat("A", 1000)
	chunks := Chunk(text, 1000, 200)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunk_UniformTextProducesOverlappingWindows(t *testing.T) {
	text := strings.Repeat("A", 2500)
	chunks := Chunk(text, 1000, 200)

	require.Len(t, chunks, 3)
	assert.Equal(t, 1000, len(chunks[0]))
	assert.Equal(t, 1000, len(chunks[1]))
	assert.Equal(t, 900, len(chunks[2]))

	// Consecutive chunks share a non-empty overlap region.
	assert.Equal(t, chunks[0][800:], chunks[1][:200])
	assert.Equal(t, chunks[1][800:], chunks[2][:200])
}

func TestChunk_EveryChunkWithinSize(t *testing.T) {
	text := strings.Repeat("some words to split across windows. ", 200)
	chunks := Chunk(text, 1000, 200)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 1000, "chunk %d exceeds size", i)
		assert.NotEmpty(t, chunk)
	}
}

func TestChunk_ReconstructsInputWithOverlapsCollapsed(t *testing.T) {
	// Unique tokens make the suffix/prefix overlap between consecutive
	// chunks unambiguous.
	texts := []string{
		buildUniqueText(300, false),
		buildUniqueText(500, true),
	}

	for _, text := range texts {
		chunks := Chunk(text, 1000, 200)
		require.NotEmpty(t, chunks)

		rebuilt := chunks[0]
		for i := 1; i < len(chunks); i++ {
			overlap := overlapLen(rebuilt, chunks[i])
			rebuilt += chunks[i][overlap:]
		}
		assert.Equal(t, text, rebuilt)
	}
}

func buildUniqueText(tokens int, punctuated bool) string {
	var sb strings.Builder
	for i := 0; i < tokens; i++ {
		fmt.Fprintf(&sb, "token%04d ", i)
		if punctuated && i%13 == 12 {
			sb.WriteString(". ")
		}
		if punctuated && i%37 == 36 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// overlapLen returns the length of the longest suffix of prev that is a
// prefix of next.
func overlapLen(prev, next string) int {
	max := len(next)
	if len(prev) < max {
		max = len(prev)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(prev, next[:n]) {
			return n
		}
	}
	return 0
}

func TestChunk_PrefersSentenceBoundaryInSecondHalf(t *testing.T) {
	// A sentence boundary sits at position 700, inside the second half
	// of the first window.
	text := strings.Repeat("a", 698) + ". " + strings.Repeat("b", 800)
	chunks := Chunk(text, 1000, 200)

	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], ". "))
	assert.Equal(t, 700, len(chunks[0]))
}

func TestChunk_IgnoresBoundaryInFirstHalf(t *testing.T) {
	// The only boundary is at position 300, in the first half, so the
	// cut falls at the raw size limit.
	text := strings.Repeat("a", 298) + ". " + strings.Repeat("b", 1200)
	chunks := Chunk(text, 1000, 200)

	require.Greater(t, len(chunks), 1)
	assert.Equal(t, 1000, len(chunks[0]))
}

func TestChunk_TerminatesWhenOverlapExceedsChunkLength(t *testing.T) {
	text := strings.Repeat("A", 5000)
	chunks := Chunk(text, 100, 100)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
	}
}

func TestChunk_PrefersParagraphBoundary(t *testing.T) {
	text := strings.Repeat("a", 600) + "\n\n" + strings.Repeat("b", 398) + ". " + strings.Repeat("c", 600)
	chunks := Chunk(text, 1000, 200)

	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"))
}
