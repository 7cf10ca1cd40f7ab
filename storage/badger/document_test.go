package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parlancehq/parlance/core"
	"github.com/parlancehq/parlance/storage"
)

func newPendingRecord(title, date string, participants []string) *core.DocumentRecord {
	return &core.DocumentRecord{
		DocumentID:      core.NewDocumentID(),
		TitleNormalized: title,
		Date:            date,
		Participants:    participants,
		ContentHash:     core.HashContent([]byte(title + date)),
		SchemaVersion:   core.SchemaVersion,
		Status:          core.StatusPending,
		SubmittedAt:     time.Now().UTC(),
	}
}

func TestDocumentRecordBasics(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	record := newPendingRecord("weekly sync", "2024-03-15", []string{"Alice", "Bob"})

	if err := repos.Documents.CreateDocument(ctx, record); err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}

	// Duplicate creation must be rejected
	if err := repos.Documents.CreateDocument(ctx, record); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	retrieved, err := repos.Documents.GetDocument(ctx, record.DocumentID)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.TitleNormalized != "weekly sync" {
		t.Fatalf("Expected 'weekly sync', got '%s'", retrieved.TitleNormalized)
	}
	if retrieved.Status != core.StatusPending {
		t.Fatalf("Expected PENDING, got %s", retrieved.Status)
	}

	if _, err := repos.Documents.GetDocument(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestFindByContentHash(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	record := newPendingRecord("standup", "2024-04-01", nil)

	if err := repos.Documents.CreateDocument(ctx, record); err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}

	found, err := repos.Documents.FindByContentHash(ctx, record.ContentHash)
	if err != nil {
		t.Fatalf("Failed to find by content hash: %v", err)
	}
	if found.DocumentID != record.DocumentID {
		t.Fatalf("Expected %s, got %s", record.DocumentID, found.DocumentID)
	}

	if _, err := repos.Documents.FindByContentHash(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	record := newPendingRecord("retro", "", nil)
	if err := repos.Documents.CreateDocument(ctx, record); err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}

	// PENDING -> READY with accompanying field updates applied atomically
	err = repos.Documents.UpdateStatus(ctx, record.DocumentID, core.StatusReady, func(r *core.DocumentRecord) {
		r.Date = "2024-05-02"
		r.Participants = []string{"Carol"}
		r.IngestedAt = time.Now().UTC().Format(time.RFC3339)
	})
	if err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}

	updated, err := repos.Documents.GetDocument(ctx, record.DocumentID)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if updated.Status != core.StatusReady {
		t.Fatalf("Expected READY, got %s", updated.Status)
	}
	if updated.Date != "2024-05-02" {
		t.Fatalf("Expected date applied with status, got '%s'", updated.Date)
	}
	if updated.IngestedAt == "" {
		t.Fatal("Expected ingested_at to be set")
	}

	// Terminal states are immutable
	err = repos.Documents.UpdateStatus(ctx, record.DocumentID, core.StatusFailed, nil)
	if !errors.Is(err, core.ErrIllegalTransition) {
		t.Fatalf("Expected ErrIllegalTransition, got %v", err)
	}

	err = repos.Documents.UpdateStatus(ctx, "missing", core.StatusReady, nil)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListDocumentsFilters(t *testing.T) {
	repos, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	a := newPendingRecord("weekly sync", "2024-03-15", []string{"Alice", "Bob"})
	b := newPendingRecord("design review", "2024-03-15", []string{"Carol"})
	c := newPendingRecord("weekly retro", "2024-03-22", []string{"alice"})
	for _, rec := range []*core.DocumentRecord{a, b, c} {
		if err := repos.Documents.CreateDocument(ctx, rec); err != nil {
			t.Fatalf("Failed to create document: %v", err)
		}
	}

	all, err := repos.Documents.ListDocuments(ctx, storage.DocumentFilter{})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(all))
	}

	byDate, err := repos.Documents.ListDocuments(ctx, storage.DocumentFilter{Date: "2024-03-15"})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(byDate) != 2 {
		t.Fatalf("Expected 2 documents for date filter, got %d", len(byDate))
	}

	byTitle, err := repos.Documents.ListDocuments(ctx, storage.DocumentFilter{TitleSubstring: "WEEKLY"})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(byTitle) != 2 {
		t.Fatalf("Expected case-insensitive title match to find 2, got %d", len(byTitle))
	}

	// Participant match is case-insensitive exact
	byParticipant, err := repos.Documents.ListDocuments(ctx, storage.DocumentFilter{Participant: "Alice"})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(byParticipant) != 2 {
		t.Fatalf("Expected 2 documents for participant filter, got %d", len(byParticipant))
	}

	// Conjunction of criteria
	both, err := repos.Documents.ListDocuments(ctx, storage.DocumentFilter{Date: "2024-03-15", Participant: "Alice"})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(both) != 1 || both[0].DocumentID != a.DocumentID {
		t.Fatalf("Expected only the weekly sync record, got %d results", len(both))
	}

	none, err := repos.Documents.ListDocuments(ctx, storage.DocumentFilter{Participant: "Zara"})
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("Expected no matches, got %d", len(none))
	}
}
