package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/parlancehq/parlance/core"
	"github.com/parlancehq/parlance/storage"
)

func TestRawArtifactRoundTrip(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	content := []byte("[00:00:01] Alice: Hello everyone.\n")

	location, err := repos.Artifacts.PutRaw(ctx, "doc-1", "standup.txt", content)
	if err != nil {
		t.Fatalf("Failed to put raw artifact: %v", err)
	}
	if location == "" {
		t.Fatal("Expected non-empty location")
	}

	got, err := repos.Artifacts.GetRaw(ctx, location)
	if err != nil {
		t.Fatalf("Failed to get raw artifact: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("Raw content mismatch")
	}

	if _, err := repos.Artifacts.GetRaw(ctx, "file:///tmp/whatever"); !errors.Is(err, storage.ErrInvalidLocation) {
		t.Fatalf("Expected ErrInvalidLocation, got %v", err)
	}
}

func TestDerivedArtifacts(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	if err := repos.Artifacts.PutDerived(ctx, "doc-1", "normalized_transcript.json", []byte(`{}`)); err != nil {
		t.Fatalf("Failed to put derived artifact: %v", err)
	}
	if err := repos.Artifacts.PutDerived(ctx, "doc-1", "chunk_map.json", []byte(`[]`)); err != nil {
		t.Fatalf("Failed to put derived artifact: %v", err)
	}
	// Overwrite is allowed
	if err := repos.Artifacts.PutDerived(ctx, "doc-1", "chunk_map.json", []byte(`[1]`)); err != nil {
		t.Fatalf("Failed to overwrite derived artifact: %v", err)
	}

	got, err := repos.Artifacts.GetDerived(ctx, "doc-1", "chunk_map.json")
	if err != nil {
		t.Fatalf("Failed to get derived artifact: %v", err)
	}
	if string(got) != "[1]" {
		t.Fatalf("Expected overwritten content, got %s", got)
	}

	names, err := repos.Artifacts.ListDerived(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Failed to list derived artifacts: %v", err)
	}
	if len(names) != 2 || names[0] != "chunk_map.json" || names[1] != "normalized_transcript.json" {
		t.Fatalf("Unexpected derived listing: %v", names)
	}

	if _, err := repos.Artifacts.GetDerived(ctx, "doc-1", "missing.json"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	prefix := repos.Artifacts.DerivedPrefix("doc-1")
	if prefix == "" {
		t.Fatal("Expected non-empty derived prefix")
	}
}

func chunkFixtures(documentID string, n int) []*core.Chunk {
	chunks := make([]*core.Chunk, n)
	for i := range chunks {
		chunks[i] = &core.Chunk{
			ChunkID:    fmt.Sprintf("chunk-%04d", i),
			DocumentID: documentID,
			Speaker:    "Alice",
			Text:       fmt.Sprintf("Utterance %d.", i),
			Snippet:    fmt.Sprintf("Utterance %d.", i),
		}
	}
	return chunks
}

func TestChunkRepositoryReplaceAndDelete(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	first := chunkFixtures("doc-1", 3)
	if err := repos.Chunks.PutChunks(ctx, "doc-1", first); err != nil {
		t.Fatalf("Failed to put chunks: %v", err)
	}

	// A shorter replacement set must fully supersede the old one
	second := chunkFixtures("doc-1", 2)
	if err := repos.Chunks.PutChunks(ctx, "doc-1", second); err != nil {
		t.Fatalf("Failed to replace chunks: %v", err)
	}

	got, err := repos.Chunks.GetChunks(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 chunks after replacement, got %d", len(got))
	}
	if got[0].ChunkID != "chunk-0000" || got[1].ChunkID != "chunk-0001" {
		t.Fatalf("Expected position order, got %s, %s", got[0].ChunkID, got[1].ChunkID)
	}

	one, err := repos.Chunks.GetChunk(ctx, "doc-1", "chunk-0001")
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if one.ChunkID != "chunk-0001" {
		t.Fatalf("Expected chunk-0001, got %s", one.ChunkID)
	}

	if err := repos.Chunks.DeleteChunks(ctx, "doc-1"); err != nil {
		t.Fatalf("Failed to delete chunks: %v", err)
	}
	empty, err := repos.Chunks.GetChunks(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("Expected no chunks after delete, got %d", len(empty))
	}
}
