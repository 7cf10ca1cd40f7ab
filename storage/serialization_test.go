package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlancehq/parlance/core"
)

func TestDocumentRecordRoundTrip(t *testing.T) {
	record := &core.DocumentRecord{
		DocumentID:      core.NewDocumentID(),
		TitleNormalized: "team sync 2024-03-15",
		Date:            "2024-03-15",
		Participants:    []string{"Alice", "Bob"},
		RawLocation:     "badger://artraw/abc/team_sync.txt",
		DerivedPrefix:   "badger://artder/abc/",
		ContentHash:     core.HashContent([]byte("hello")),
		SchemaVersion:   core.SchemaVersion,
		Status:          core.StatusPending,
		SubmittedAt:     time.Now().UTC().Truncate(time.Second),
	}

	data, err := MarshalDocumentRecord(record)
	require.NoError(t, err)

	got, err := UnmarshalDocumentRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestVectorEntryRoundTripPreservesVector(t *testing.T) {
	entry := &core.VectorEntry{
		ChunkID:    "chunk-0002",
		DocumentID: "doc-1",
		Vector:     []float32{0.25, -0.5, 0.125},
		Snippet:    "We will ship on Friday.",
		Speaker:    "Alice",
	}

	data, err := MarshalVectorEntry(entry)
	require.NoError(t, err)

	got, err := UnmarshalVectorEntry(data)
	require.NoError(t, err)
	assert.Equal(t, entry.Vector, got.Vector)
	assert.Equal(t, entry.ChunkID, got.ChunkID)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := UnmarshalChunk([]byte("{not json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
