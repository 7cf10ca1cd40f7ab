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
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/parlancehq/parlance/core"
	"github.com/parlancehq/parlance/storage"
)

// Coordinator is the request-time ingestion entrypoint. Submit validates and
// persists what it must synchronously, then hands the heavy pipeline to a
// worker pool and returns the document ID immediately.
type Coordinator struct {
	documents storage.DocumentRepository
	artifacts storage.ArtifactRepository
	worker    *Worker
	pool      *ants.Pool
	logger    *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator) error

// WithPoolSize sets the worker pool size for concurrent ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) CoordinatorOption {
	return func(c *Coordinator) error {
		if size < 1 {
			size = 1
		}
		if c.pool != nil {
			c.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithCoordinatorLogger sets a custom logger. Default is slog.Default().
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// NewCoordinator creates an ingestion coordinator.
func NewCoordinator(
	documents storage.DocumentRepository,
	artifacts storage.ArtifactRepository,
	worker *Worker,
	opts ...CoordinatorOption,
) (*Coordinator, error) {
	c := &Coordinator{
		documents: documents,
		artifacts: artifacts,
		worker:    worker,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			if c.pool != nil {
				c.pool.Release()
			}
			return nil, err
		}
	}
	if c.pool == nil {
		size := max(runtime.NumCPU()/2, 1)
		pool, err := ants.NewPool(size)
		if err != nil {
			return nil, err
		}
		c.pool = pool
	}
	return c, nil
}

// Submit accepts a raw transcript for ingestion and returns its document ID.
//
// Re-submitting content that already produced a READY document returns the
// existing ID without re-ingesting. A FAILED document never blocks
// re-submission of the same content: the fresh submission gets a new ID and
// a full pipeline run.
func (c *Coordinator) Submit(ctx context.Context, raw []byte, filename string) (string, error) {
	sanitized, err := core.SanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	if err := core.ValidateFileExtension(sanitized); err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", fmt.Errorf("transcript content is empty: %w", core.ErrValidation)
	}

	contentHash := core.HashContent(raw)
	existing, err := c.documents.FindByContentHash(ctx, contentHash)
	if err == nil && existing.Status == core.StatusReady {
		c.logger.Info("re-submission of ingested content, returning existing document",
			"documentID", existing.DocumentID)
		return existing.DocumentID, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("content hash lookup: %w", err)
	}

	documentID := core.NewDocumentID()
	rawLocation, err := c.artifacts.PutRaw(ctx, documentID, sanitized, raw)
	if err != nil {
		return "", fmt.Errorf("persist raw transcript: %w", err)
	}

	record := &core.DocumentRecord{
		DocumentID:      documentID,
		TitleNormalized: core.NormalizeTitle(sanitized),
		RawLocation:     rawLocation,
		DerivedPrefix:   c.artifacts.DerivedPrefix(documentID),
		ContentHash:     contentHash,
		SchemaVersion:   core.SchemaVersion,
		Status:          core.StatusPending,
		SubmittedAt:     time.Now().UTC(),
	}
	if err := c.documents.CreateDocument(ctx, record); err != nil {
		return "", fmt.Errorf("create document record: %w", err)
	}

	// Fire and forget: the worker owns the outcome from here, recording it
	// on the document record. Submit's contract ends at dispatch.
	if err := c.pool.Submit(func() {
		if err := c.worker.Run(context.Background(), documentID); err != nil {
			c.logger.Error("ingestion run failed", "documentID", documentID, "error", err)
		}
	}); err != nil {
		return "", fmt.Errorf("dispatch ingestion: %w", err)
	}

	c.logger.Info("document submitted", "documentID", documentID, "filename", sanitized)
	return documentID, nil
}

// GetStatus returns the current document record.
func (c *Coordinator) GetStatus(ctx context.Context, documentID string) (*core.DocumentRecord, error) {
	return c.documents.GetDocument(ctx, documentID)
}

// ListDocuments returns document records matching the filter.
func (c *Coordinator) ListDocuments(ctx context.Context, filter storage.DocumentFilter) ([]*core.DocumentRecord, error) {
	return c.documents.ListDocuments(ctx, filter)
}

// Release releases the worker pool. The coordinator should not be used after
// calling Release; in-flight jobs run to completion.
func (c *Coordinator) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}
