package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlancehq/parlance/core"
)

func segmentFixtures() []core.Segment {
	return []core.Segment{
		{Speaker: "Alice", TimestampStart: "00:00:01", TimestampEnd: "00:00:05", Text: "Good morning everyone."},
		{Speaker: "Bob", TimestampStart: "00:00:05", TimestampEnd: "00:00:12", Text: "Morning. Let's get started."},
		{Speaker: "Alice", TimestampStart: "00:00:12", TimestampEnd: "00:00:12", Text: "We will ship on Friday."},
	}
}

func TestChunkMergesWithinBudget(t *testing.T) {
	chunker := NewChunker()
	chunks := chunker.Chunk("doc-1", "badger://artraw/doc-1/a.txt", segmentFixtures())

	require.Len(t, chunks, 1)
	chunk := chunks[0]
	assert.Equal(t, "chunk-0000", chunk.ChunkID)
	assert.Equal(t, "doc-1", chunk.DocumentID)
	assert.Equal(t, "00:00:01", chunk.TimestampStart)
	assert.Equal(t, "00:00:12", chunk.TimestampEnd)
	assert.Equal(t, []string{"Alice", "Bob"}, chunk.Speakers)
	assert.Equal(t, "Alice, Bob", chunk.Speaker)
	assert.Contains(t, chunk.Text, "[00:00:05] Bob: Morning. Let's get started.")
}

func TestChunkBoundaryAtUtterance(t *testing.T) {
	// Budget small enough that each utterance lands in its own chunk
	chunker := NewChunker(WithMaxChunkChars(40))
	chunks := chunker.Chunk("doc-1", "", segmentFixtures())

	require.Len(t, chunks, 3)
	assert.Equal(t, "chunk-0000", chunks[0].ChunkID)
	assert.Equal(t, "chunk-0001", chunks[1].ChunkID)
	assert.Equal(t, "chunk-0002", chunks[2].ChunkID)
	assert.Equal(t, "Bob", chunks[1].Speaker)
	assert.Equal(t, "00:00:05", chunks[1].TimestampStart)
	assert.Equal(t, "00:00:12", chunks[1].TimestampEnd)
}

func TestChunkNeverSplitsOversizeUtterance(t *testing.T) {
	long := core.Segment{
		Speaker:        "Alice",
		TimestampStart: "00:00:01",
		TimestampEnd:   "00:00:01",
		Text:           strings.Repeat("word ", 100),
	}
	chunker := NewChunker(WithMaxChunkChars(40))
	chunks := chunker.Chunk("doc-1", "", []core.Segment{long})

	// The utterance overshoots the budget but stays whole
	require.Len(t, chunks, 1)
	assert.Greater(t, len(chunks[0].Text), 40)
}

func TestChunkIDsDeterministic(t *testing.T) {
	chunker := NewChunker(WithMaxChunkChars(40))
	first := chunker.Chunk("doc-1", "", segmentFixtures())
	second := chunker.Chunk("doc-1", "", segmentFixtures())

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ChunkID, second[i].ChunkID)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestChunkSnippetTruncated(t *testing.T) {
	long := core.Segment{Speaker: "Alice", TimestampStart: "00:00:01", Text: strings.Repeat("x", 500)}
	chunks := NewChunker().Chunk("doc-1", "", []core.Segment{long})

	require.Len(t, chunks, 1)
	assert.Len(t, []rune(chunks[0].Snippet), 160)
}

func TestChunkEmptySegments(t *testing.T) {
	chunks := NewChunker().Chunk("doc-1", "", nil)
	assert.Empty(t, chunks)
}
