package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlancehq/parlance/ai/mock"
	"github.com/parlancehq/parlance/core"
	"github.com/parlancehq/parlance/storage"
	"github.com/parlancehq/parlance/storage/badger"
)

const sampleTranscript = "[00:00:01] Alice: Good morning everyone.\n" +
	"[00:00:05] Bob: Morning. Let's get started.\n" +
	"[00:00:12] Alice: We will ship on Friday.\n"

func newTestWorker(t *testing.T, embedder *mock.MockEmbedder) (*Worker, *badger.Repositories) {
	t.Helper()
	repos, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	gateway := NewEmbeddingGateway(embedder, WithBaseDelay(time.Millisecond))
	worker := NewWorker(repos.Documents, repos.Chunks, repos.Vectors, repos.Artifacts, gateway)
	return worker, repos
}

func storePending(t *testing.T, repos *badger.Repositories, filename string, raw []byte) *core.DocumentRecord {
	t.Helper()
	ctx := context.Background()
	documentID := core.NewDocumentID()
	location, err := repos.Artifacts.PutRaw(ctx, documentID, filename, raw)
	require.NoError(t, err)

	record := &core.DocumentRecord{
		DocumentID:      documentID,
		TitleNormalized: core.NormalizeTitle(filename),
		RawLocation:     location,
		DerivedPrefix:   repos.Artifacts.DerivedPrefix(documentID),
		ContentHash:     core.HashContent(raw),
		SchemaVersion:   core.SchemaVersion,
		Status:          core.StatusPending,
		SubmittedAt:     time.Now().UTC(),
	}
	require.NoError(t, repos.Documents.CreateDocument(ctx, record))
	return record
}

func TestWorkerIngestsDocument(t *testing.T) {
	worker, repos := newTestWorker(t, mock.NewMockEmbedder())
	record := storePending(t, repos, "sync_2024-03-15.txt", []byte(sampleTranscript))

	ctx := context.Background()
	require.NoError(t, worker.Run(ctx, record.DocumentID))

	updated, err := repos.Documents.GetDocument(ctx, record.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusReady, updated.Status)
	assert.Equal(t, "2024-03-15", updated.Date)
	assert.Equal(t, []string{"Alice", "Bob"}, updated.Participants)
	assert.NotEmpty(t, updated.IngestedAt)
	assert.Empty(t, updated.ErrorMessage)

	chunks, err := repos.Chunks.GetChunks(ctx, record.DocumentID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	matches, err := repos.Vectors.SearchVectors(ctx, mock.DeterministicVector(chunks[0].Text, 384), 5, []string{record.DocumentID})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, chunks[0].ChunkID, matches[0].Entry.ChunkID)

	names, err := repos.Artifacts.ListDerived(ctx, record.DocumentID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		ArtifactNormalizedTranscript,
		ArtifactChunkMap,
		ArtifactIngestionReport,
	}, names)

	reportJSON, err := repos.Artifacts.GetDerived(ctx, record.DocumentID, ArtifactIngestionReport)
	require.NoError(t, err)
	report, err := storage.UnmarshalIngestionReport(reportJSON)
	require.NoError(t, err)
	assert.Equal(t, core.StatusReady, report.Status)
	assert.Equal(t, 3, report.SegmentsParsed)
	assert.Equal(t, len(chunks), report.ChunksCreated)
	assert.Equal(t, len(chunks), report.VectorsIndexed)
}

func TestWorkerFailsOnEmptyTranscript(t *testing.T) {
	worker, repos := newTestWorker(t, mock.NewMockEmbedder())
	record := storePending(t, repos, "empty.txt", []byte("   \n\n  "))

	ctx := context.Background()
	err := worker.Run(ctx, record.DocumentID)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyTranscript)

	updated, err := repos.Documents.GetDocument(ctx, record.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, updated.Status)
	assert.Contains(t, updated.ErrorMessage, "no readable transcript text")

	// FAILED is terminal
	err = repos.Documents.UpdateStatus(ctx, record.DocumentID, core.StatusReady, nil)
	assert.ErrorIs(t, err, core.ErrIllegalTransition)
}

func TestWorkerRollsBackOnEmbeddingFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}
	worker, repos := newTestWorker(t, embedder)
	record := storePending(t, repos, "sync.txt", []byte(sampleTranscript))

	ctx := context.Background()
	err := worker.Run(ctx, record.DocumentID)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExternalService)

	updated, err := repos.Documents.GetDocument(ctx, record.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, updated.Status)
	assert.Contains(t, updated.ErrorMessage, "embedding provider")

	// No partially-visible index state survives the failure
	matches, err := repos.Vectors.SearchVectors(ctx, mock.DeterministicVector("anything", 384), 5, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)

	chunks, err := repos.Chunks.GetChunks(ctx, record.DocumentID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestWorkerFallbackTranscriptStillIngests(t *testing.T) {
	worker, repos := newTestWorker(t, mock.NewMockEmbedder())
	raw := "The team discussed the release timeline.\n\nNo blockers were raised."
	record := storePending(t, repos, "notes.md", []byte(raw))

	ctx := context.Background()
	require.NoError(t, worker.Run(ctx, record.DocumentID))

	updated, err := repos.Documents.GetDocument(ctx, record.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusReady, updated.Status)
	assert.Empty(t, updated.Participants)

	reportJSON, err := repos.Artifacts.GetDerived(ctx, record.DocumentID, ArtifactIngestionReport)
	require.NoError(t, err)
	report, err := storage.UnmarshalIngestionReport(reportJSON)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Warnings)
}
