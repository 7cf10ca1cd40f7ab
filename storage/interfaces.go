package storage

import (
	"context"

	"github.com/parlancehq/parlance/core"
)

// DocumentFilter selects document records by metadata. Zero-value fields are
// ignored; a zero-value filter matches every record.
type DocumentFilter struct {
	// Date matches records whose date equals this ISO 8601 date exactly.
	Date string
	// TitleSubstring matches records whose normalized title contains this
	// substring (case-insensitive).
	TitleSubstring string
	// Participant matches records listing this participant
	// (case-insensitive exact name).
	Participant string
	// Status, when non-empty, restricts results to records in this state.
	Status core.Status
}

// Empty reports whether the filter has no criteria at all.
func (f DocumentFilter) Empty() bool {
	return f.Date == "" && f.TitleSubstring == "" && f.Participant == "" && f.Status == ""
}

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing document records.
type DocumentRepository interface {
	Repository

	// CreateDocument stores a new document record and its content-hash index
	// entry in one transaction.
	// Returns ErrDuplicateKey if a record with the same ID already exists.
	CreateDocument(ctx context.Context, record *core.DocumentRecord) error

	// GetDocument retrieves a single document record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetDocument(ctx context.Context, documentID string) (*core.DocumentRecord, error)

	// FindByContentHash retrieves the document record whose content hash
	// matches. Returns ErrNotFound if no record carries the hash.
	FindByContentHash(ctx context.Context, contentHash string) (*core.DocumentRecord, error)

	// UpdateStatus transitions a document to a new state and applies any
	// accompanying field updates atomically: mutate (which may be nil) runs
	// against the stored record inside the same transaction that flips the
	// status, so readers never observe a half-updated record.
	// Returns ErrNotFound if the record doesn't exist and
	// core.ErrIllegalTransition if the current state admits no transition
	// to next.
	UpdateStatus(ctx context.Context, documentID string, next core.Status, mutate func(*core.DocumentRecord)) error

	// ListDocuments retrieves document records matching the filter, ordered by
	// submission time descending. A zero-value filter returns every record.
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]*core.DocumentRecord, error)
}

// ChunkRepository provides operations for managing chunk records.
// A document's chunk set is always written and removed as a whole.
type ChunkRepository interface {
	Repository

	// PutChunks stores a document's full chunk set in one transaction,
	// replacing any previous set for the same document.
	PutChunks(ctx context.Context, documentID string, chunks []*core.Chunk) error

	// GetChunks retrieves all chunks for a document, ordered by chunk ID.
	// Returns an empty slice (not an error) when the document has no chunks.
	GetChunks(ctx context.Context, documentID string) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, documentID, chunkID string) (*core.Chunk, error)

	// DeleteChunks removes every chunk belonging to a document.
	// Removing a document with no chunks is not an error.
	DeleteChunks(ctx context.Context, documentID string) error
}

// VectorRepository provides vector index operations.
type VectorRepository interface {
	Repository

	// UpsertVectors inserts or replaces entries keyed by (document ID,
	// chunk ID). Re-upserting the same entries is a no-op, which is what
	// makes ingestion retries safe.
	UpsertVectors(ctx context.Context, entries []*core.VectorEntry) error

	// SearchVectors returns the top-scoring entries by cosine similarity
	// against the query vector. When documentIDs is non-empty, only entries
	// belonging to those documents are considered; when empty, the whole
	// index is searched. Results are ordered by score descending with
	// deterministic tie-breaking.
	SearchVectors(ctx context.Context, vector []float32, limit int, documentIDs []string) ([]*core.VectorMatch, error)

	// DeleteVectors removes every entry belonging to a document.
	// Used for rollback; deleting an absent document is not an error.
	DeleteVectors(ctx context.Context, documentID string) error
}

// ArtifactRepository stores raw transcript bytes and derived artifacts.
type ArtifactRepository interface {
	Repository

	// PutRaw stores the original uploaded bytes and returns an opaque
	// location string to record on the document.
	PutRaw(ctx context.Context, documentID, filename string, content []byte) (string, error)

	// GetRaw retrieves raw bytes by the location string PutRaw returned.
	// Returns ErrInvalidLocation for malformed locations and ErrNotFound
	// when nothing is stored there.
	GetRaw(ctx context.Context, location string) ([]byte, error)

	// PutDerived stores a named derived artifact under the document's
	// derived prefix, overwriting any previous version.
	PutDerived(ctx context.Context, documentID, name string, content []byte) error

	// GetDerived retrieves a derived artifact by name.
	// Returns ErrNotFound if the artifact doesn't exist.
	GetDerived(ctx context.Context, documentID, name string) ([]byte, error)

	// ListDerived returns the names of a document's derived artifacts,
	// in lexicographic order.
	ListDerived(ctx context.Context, documentID string) ([]string, error)

	// DerivedPrefix returns the prefix under which a document's derived
	// artifacts live, suitable for recording on the document record.
	DerivedPrefix(documentID string) string
}
