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
	"fmt"
	"log/slog"
	"time"

	"github.com/parlancehq/parlance/ai"
	"github.com/parlancehq/parlance/core"
)

const (
	// DefaultBatchSize is the number of texts sent per provider call.
	DefaultBatchSize = 10
	// DefaultMaxAttempts bounds retries of a failing batch.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the first retry delay; it doubles per attempt.
	DefaultBaseDelay = time.Second
)

// EmbeddingGateway batches texts through an embedding provider with bounded
// retries. Exhausted retries surface as core.ErrExternalService so callers
// can abort without partial writes.
type EmbeddingGateway struct {
	embedder    ai.Embedder
	batchSize   int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// GatewayOption configures an EmbeddingGateway.
type GatewayOption func(*EmbeddingGateway)

// WithBatchSize sets the provider batch-size limit.
func WithBatchSize(n int) GatewayOption {
	return func(g *EmbeddingGateway) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithMaxAttempts sets the per-batch retry bound.
func WithMaxAttempts(n int) GatewayOption {
	return func(g *EmbeddingGateway) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the initial retry delay.
func WithBaseDelay(d time.Duration) GatewayOption {
	return func(g *EmbeddingGateway) {
		if d > 0 {
			g.baseDelay = d
		}
	}
}

// WithGatewayLogger sets a custom logger. Default is slog.Default().
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *EmbeddingGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewEmbeddingGateway creates a gateway over an embedding provider.
func NewEmbeddingGateway(embedder ai.Embedder, opts ...GatewayOption) *EmbeddingGateway {
	g := &EmbeddingGateway{
		embedder:    embedder,
		batchSize:   DefaultBatchSize,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EmbedAll returns one vector per input text, in input order. Texts are sent
// in provider-sized batches; each batch is retried with exponential backoff
// before the whole operation is abandoned.
func (g *EmbeddingGateway) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := min(start+g.batchSize, len(texts))
		batch := texts[start:end]

		batchVectors, err := g.embedBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			g.logger.Error("embedding batch failed after retries",
				"batchStart", start, "batchSize", len(batch), "error", err)
			return nil, fmt.Errorf("embedding provider failed after %d attempts: %w",
				g.maxAttempts, core.ErrExternalService)
		}
		if len(batchVectors) != len(batch) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts",
				ErrVectorCountMismatch, len(batchVectors), len(batch))
		}
		vectors = append(vectors, batchVectors...)
	}
	return vectors, nil
}

// embedBatch issues one provider call per attempt, backing off exponentially
// from baseDelay between attempts. The backoff sleep aborts on context
// cancellation, so a canceled worker run never sits out a full delay.
func (g *EmbeddingGateway) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		vectors, err := g.embedder.EmbedTexts(ctx, batch)
		if err == nil {
			if attempt > 1 {
				g.logger.Debug("embedding batch recovered", "attempt", attempt)
			}
			return vectors, nil
		}
		lastErr = err

		if attempt == g.maxAttempts {
			break
		}
		delay := g.baseDelay << (attempt - 1)
		g.logger.Debug("embedding batch failed, backing off",
			"attempt", attempt, "maxAttempts", g.maxAttempts, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

// EmbedOne embeds a single text. Used at query time, where one question
// becomes one vector.
func (g *EmbeddingGateway) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedAll(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, ErrEmptyBatch
	}
	return vectors[0], nil
}
