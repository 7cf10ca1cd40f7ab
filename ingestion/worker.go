// Copyright 2025 Parlance Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"

	"github.com/parlancehq/parlance/core"
	"github.com/parlancehq/parlance/storage"
	"github.com/parlancehq/parlance/transcript"
)

// Derived artifact names written under a document's derived prefix.
const (
	ArtifactNormalizedTranscript = "normalized_transcript.json"
	ArtifactChunkMap             = "chunk_map.json"
	ArtifactIngestionReport      = "ingestion_report.json"
)

// Worker runs the ingestion pipeline for one submitted document: parse,
// chunk, embed, index, persist derived artifacts, finalize status.
//
// Status is what gates query visibility, so the worker's one hard rule is
// that a document never becomes READY with a partial artifact set. On any
// failure it rolls back index entries written so far and finalizes FAILED
// with a human-actionable message.
type Worker struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	vectors   storage.VectorRepository
	artifacts storage.ArtifactRepository
	gateway   *EmbeddingGateway
	chunker   *transcript.Chunker
	logger    *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithChunker overrides the default chunker.
func WithChunker(c *transcript.Chunker) WorkerOption {
	return func(w *Worker) {
		if c != nil {
			w.chunker = c
		}
	}
}

// WithWorkerLogger sets a custom logger. Default is slog.Default().
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorker creates an ingestion worker over the repository set.
func NewWorker(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	vectors storage.VectorRepository,
	artifacts storage.ArtifactRepository,
	gateway *EmbeddingGateway,
	opts ...WorkerOption,
) *Worker {
	w := &Worker{
		documents: documents,
		chunks:    chunks,
		vectors:   vectors,
		artifacts: artifacts,
		gateway:   gateway,
		chunker:   transcript.NewChunker(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run ingests one PENDING document end to end. The returned error reports
// what went wrong to the caller (typically a pool goroutine that only logs
// it); the durable outcome is always recorded on the document record.
func (w *Worker) Run(ctx context.Context, documentID string) error {
	started := time.Now().UTC()
	log := w.logger.With("documentID", documentID)

	record, err := w.documents.GetDocument(ctx, documentID)
	if err != nil {
		log.Error("ingestion aborted, document record unavailable", "error", err)
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	report := &core.IngestionReport{
		DocumentID: documentID,
		StartedAt:  started.Format(time.RFC3339),
	}

	runErr := w.ingest(ctx, record, report)

	completed := time.Now().UTC()
	report.CompletedAt = completed.Format(time.RFC3339)
	report.DurationMS = float64(completed.Sub(started)) / float64(time.Millisecond)

	if runErr != nil {
		w.fail(ctx, record, report, runErr)
		log.Error("ingestion failed", "error", runErr, "durationMS", report.DurationMS)
		return runErr
	}

	log.Info("ingestion completed",
		"segments", report.SegmentsParsed,
		"chunks", report.ChunksCreated,
		"durationMS", report.DurationMS)
	return nil
}

func (w *Worker) ingest(ctx context.Context, record *core.DocumentRecord, report *core.IngestionReport) error {
	raw, err := w.artifacts.GetRaw(ctx, record.RawLocation)
	if err != nil {
		return fmt.Errorf("read stored transcript: %w", err)
	}

	segments, err := transcript.ParseSegments(string(raw))
	if err != nil {
		return fmt.Errorf("parse transcript: %w", err)
	}
	report.SegmentsParsed = len(segments)

	date := transcript.ExtractDate(record.TitleNormalized, string(raw))
	participants := transcript.Participants(segments)
	if len(participants) == 0 {
		report.Warnings = append(report.Warnings,
			"no speaker labels recognized; fallback segmentation was used")
	}
	if date == "" {
		report.Warnings = append(report.Warnings,
			"no meeting date found in filename or transcript header")
	}

	chunks := w.chunker.Chunk(record.DocumentID, record.RawLocation, segments)
	report.ChunksCreated = len(chunks)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := w.gateway.EmbedAll(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	entries := make([]*core.VectorEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = &core.VectorEntry{
			ChunkID:    c.ChunkID,
			DocumentID: c.DocumentID,
			Vector:     vectors[i],
			Snippet:    c.Snippet,
			Speaker:    c.Speaker,
		}
	}
	if err := w.vectors.UpsertVectors(ctx, entries); err != nil {
		return fmt.Errorf("index vectors: %w", err)
	}
	report.VectorsIndexed = len(entries)

	// The chunk map becomes visible only after embedding and indexing
	// succeeded; its existence implies a complete index for the document.
	if err := w.chunks.PutChunks(ctx, record.DocumentID, chunks); err != nil {
		return fmt.Errorf("persist chunk map: %w", err)
	}

	normalized := &core.NormalizedTranscript{
		DocumentID:   record.DocumentID,
		Title:        record.TitleNormalized,
		Date:         date,
		Participants: participants,
		Segments:     segments,
		ContentHash:  record.ContentHash,
	}
	if err := w.putArtifacts(ctx, record.DocumentID, normalized, chunks, report); err != nil {
		return err
	}

	// Flipping to READY is the last step; everything above is invisible to
	// queries until this succeeds.
	err = w.documents.UpdateStatus(ctx, record.DocumentID, core.StatusReady, func(r *core.DocumentRecord) {
		r.Date = date
		r.Participants = participants
		r.IngestedAt = time.Now().UTC().Format(time.RFC3339)
	})
	if err != nil {
		return fmt.Errorf("finalize status: %w", err)
	}
	report.Status = core.StatusReady
	return nil
}

func (w *Worker) putArtifacts(ctx context.Context, documentID string, normalized *core.NormalizedTranscript, chunks []*core.Chunk, report *core.IngestionReport) error {
	normalizedJSON, err := storage.MarshalNormalizedTranscript(normalized)
	if err != nil {
		return fmt.Errorf("serialize normalized transcript: %w", err)
	}
	if err := w.artifacts.PutDerived(ctx, documentID, ArtifactNormalizedTranscript, normalizedJSON); err != nil {
		return fmt.Errorf("persist normalized transcript: %w", err)
	}

	chunkMapJSON, err := sonic.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("serialize chunk map: %w", err)
	}
	if err := w.artifacts.PutDerived(ctx, documentID, ArtifactChunkMap, chunkMapJSON); err != nil {
		return fmt.Errorf("persist chunk map artifact: %w", err)
	}

	report.DerivedArtifacts = []string{
		ArtifactNormalizedTranscript,
		ArtifactChunkMap,
		ArtifactIngestionReport,
	}
	report.Status = core.StatusReady
	reportJSON, err := storage.MarshalIngestionReport(report)
	if err != nil {
		return fmt.Errorf("serialize ingestion report: %w", err)
	}
	if err := w.artifacts.PutDerived(ctx, documentID, ArtifactIngestionReport, reportJSON); err != nil {
		return fmt.Errorf("persist ingestion report: %w", err)
	}
	return nil
}

// fail rolls back anything this run wrote to the index and chunk map, then
// finalizes the record as FAILED. Rollback errors are logged, not returned:
// FAILED status alone already keeps the document out of query scope.
func (w *Worker) fail(ctx context.Context, record *core.DocumentRecord, report *core.IngestionReport, runErr error) {
	log := w.logger.With("documentID", record.DocumentID)

	if err := w.vectors.DeleteVectors(ctx, record.DocumentID); err != nil {
		log.Error("rollback of vector entries failed", "error", err)
	}
	if err := w.chunks.DeleteChunks(ctx, record.DocumentID); err != nil {
		log.Error("rollback of chunk map failed", "error", err)
	}

	message := humanizeError(runErr)
	report.Status = core.StatusFailed
	report.ErrorMessage = message
	if reportJSON, err := storage.MarshalIngestionReport(report); err == nil {
		if err := w.artifacts.PutDerived(ctx, record.DocumentID, ArtifactIngestionReport, reportJSON); err != nil {
			log.Error("failed to persist ingestion report", "error", err)
		}
	}

	err := w.documents.UpdateStatus(ctx, record.DocumentID, core.StatusFailed, func(r *core.DocumentRecord) {
		r.ErrorMessage = message
	})
	if err != nil && !errors.Is(err, core.ErrIllegalTransition) {
		log.Error("failed to finalize FAILED status", "error", err)
	}
}

// humanizeError turns a pipeline error into the message stored on the
// document record, phrased so the submitter knows what to do about it.
func humanizeError(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyTranscript):
		return "The uploaded file contains no readable transcript text. Check that it is a plain-text transcript and re-submit."
	case errors.Is(err, core.ErrExternalService):
		return "The embedding provider was unreachable after several attempts. Re-submit once the provider is available."
	default:
		return fmt.Sprintf("Ingestion failed: %v. Re-submit the document after addressing the problem.", err)
	}
}
