package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// SchemaVersion is the current shape version written into new document records.
const SchemaVersion = 1

// Status tracks a document through the ingestion state machine.
// Valid transitions are PENDING→READY and PENDING→FAILED; READY and FAILED
// are terminal.
type Status string

const (
	// StatusPending means the document was accepted and is awaiting or
	// undergoing ingestion.
	StatusPending Status = "PENDING"
	// StatusReady means ingestion completed and the document is queryable.
	StatusReady Status = "READY"
	// StatusFailed means ingestion terminated with an error; the document is
	// never queryable and requires a fresh submission.
	StatusFailed Status = "FAILED"
)

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// CanTransition reports whether the transition s→next is legal.
func (s Status) CanTransition(next Status) bool {
	return s == StatusPending && next.Terminal()
}

// NewDocumentID returns a fresh opaque document identifier.
func NewDocumentID() string {
	return uuid.NewString()
}

// HashContent returns the BLAKE2b-256 hex digest of raw transcript bytes.
// Identical content always produces identical hashes, which is what makes
// re-submission detection possible.
func HashContent(raw []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentRecord is the durable per-document metadata record.
// Only UpdateStatus mutates it after creation; everything else is written
// once at submission or during finalization.
type DocumentRecord struct {
	DocumentID      string    `json:"document_id"`
	TitleNormalized string    `json:"title_normalized"`
	Date            string    `json:"date"` // ISO 8601 date (YYYY-MM-DD), may be empty until the worker completes
	Participants    []string  `json:"participants,omitempty"`
	RawLocation     string    `json:"raw_location"`
	DerivedPrefix   string    `json:"derived_prefix"`
	ContentHash     string    `json:"content_hash"`
	SchemaVersion   int       `json:"schema_version"`
	Status          Status    `json:"status"`
	IngestedAt      string    `json:"ingested_at,omitempty"` // ISO 8601 timestamp, set on READY
	ErrorMessage    string    `json:"error_message,omitempty"` // set on FAILED
	SubmittedAt     time.Time `json:"submitted_at"`
}

// Segment is a single speaker utterance extracted from a raw transcript.
type Segment struct {
	Speaker        string `json:"speaker"`
	TimestampStart string `json:"timestamp_start"`
	TimestampEnd   string `json:"timestamp_end"`
	Text           string `json:"text"`
}

// Chunk is a retrieval unit spanning one or more contiguous segments.
// The whole chunk set for a document is written in one bulk operation after
// embedding and indexing succeed, never piecemeal.
type Chunk struct {
	ChunkID        string   `json:"chunk_id"`
	DocumentID     string   `json:"document_id"`
	TimestampStart string   `json:"timestamp_start"`
	TimestampEnd   string   `json:"timestamp_end"`
	Speaker        string   `json:"speaker"` // single speaker, or comma-joined set for merged chunks
	Speakers       []string `json:"speakers,omitempty"`
	Text           string   `json:"text"`
	Snippet        string   `json:"snippet"`
	RawLocation    string   `json:"raw_location"`
}

// VectorEntry pairs a chunk's embedding with the attributes the index can
// filter on and the payload returned for display.
type VectorEntry struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Vector     []float32 `json:"vector"`
	Snippet    string    `json:"snippet"`
	Speaker    string    `json:"speaker"`
}

// VectorMatch is a scored search hit from the vector index.
type VectorMatch struct {
	Entry *VectorEntry `json:"entry"`
	Score float32      `json:"score"`
}

// Citation references a specific chunk backing part of an answer.
type Citation struct {
	ChunkID        string `json:"chunk_id"`
	DocumentID     string `json:"document_id"`
	Speaker        string `json:"speaker"`
	TimestampStart string `json:"timestamp_start"`
	TimestampEnd   string `json:"timestamp_end"`
	Snippet        string `json:"snippet"`
}

// Answer is the result of a grounded query.
type Answer struct {
	Text             string     `json:"text"`
	Citations        []Citation `json:"citations"`
	RetrievedContext []string   `json:"retrieved_context,omitempty"`
	DocumentIDs      []string   `json:"document_ids,omitempty"`
	LatencyMS        float64    `json:"latency_ms"`
}

// IngestionReport summarizes a completed or failed worker run.
// Persisted as a derived artifact next to the chunk map.
type IngestionReport struct {
	DocumentID       string   `json:"document_id"`
	Status           Status   `json:"status"`
	SegmentsParsed   int      `json:"segments_parsed"`
	ChunksCreated    int      `json:"chunks_created"`
	VectorsIndexed   int      `json:"vectors_indexed"`
	DerivedArtifacts []string `json:"derived_artifacts,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
	ErrorMessage     string   `json:"error_message,omitempty"`
	StartedAt        string   `json:"started_at"`
	CompletedAt      string   `json:"completed_at"`
	DurationMS       float64  `json:"duration_ms"`
}

// NormalizedTranscript is the canonical parsed form persisted as a derived
// artifact and used for chunking.
type NormalizedTranscript struct {
	DocumentID   string    `json:"document_id"`
	Title        string    `json:"title"`
	Date         string    `json:"date"`
	Participants []string  `json:"participants,omitempty"`
	Segments     []Segment `json:"segments"`
	ContentHash  string    `json:"content_hash"`
}
