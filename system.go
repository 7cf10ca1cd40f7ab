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

package parlance

import (
	"log/slog"

	"github.com/parlancehq/parlance/ai"
	"github.com/parlancehq/parlance/ai/openai"
	"github.com/parlancehq/parlance/ingestion"
	"github.com/parlancehq/parlance/query"
	"github.com/parlancehq/parlance/storage"
	"github.com/parlancehq/parlance/storage/badger"
)

// System wires storage, AI providers, and the pipelines into one handle.
// The ingestion coordinator and the query service built from the same System
// share the backend and the embedding gateway, so everything a worker writes
// is immediately visible to queries once a document turns READY.
type System struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	vectors   storage.VectorRepository
	artifacts storage.ArtifactRepository
	provider  ai.Provider
	gateway   *ingestion.EmbeddingGateway
	logger    *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig overrides the default AI provider configuration.
func WithAIConfig(cfg *ai.Config) SystemOption {
	return func(o *systemOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing one
// from configuration. Useful for tests.
func WithProvider(provider ai.Provider) SystemOption {
	return func(o *systemOptions) {
		o.provider = provider
	}
}

// WithInMemory opens an in-memory backend instead of a data directory.
func WithInMemory() SystemOption {
	return func(o *systemOptions) {
		o.inMemory = true
	}
}

// NewSystem opens the storage backend at filePath and constructs the
// repository set and AI provider.
func NewSystem(filePath string, opts ...SystemOption) (*System, error) {
	options := &systemOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}
	repos := badger.NewRepositories(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &System{
		backend:   backend,
		documents: repos.Documents,
		chunks:    repos.Chunks,
		vectors:   repos.Vectors,
		artifacts: repos.Artifacts,
		provider:  provider,
		gateway:   ingestion.NewEmbeddingGateway(provider.Embedder()),
		logger:    slog.Default(),
	}, nil
}

// Close releases the AI provider and the storage backend.
func (s *System) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository returns the document metadata repository.
func (s *System) DocumentRepository() storage.DocumentRepository {
	return s.documents
}

// ArtifactRepository returns the raw and derived artifact repository.
func (s *System) ArtifactRepository() storage.ArtifactRepository {
	return s.artifacts
}

// NewCoordinator builds the ingestion entrypoint with its worker attached.
func (s *System) NewCoordinator(opts ...ingestion.CoordinatorOption) (*ingestion.Coordinator, error) {
	worker := ingestion.NewWorker(s.documents, s.chunks, s.vectors, s.artifacts, s.gateway)
	return ingestion.NewCoordinator(s.documents, s.artifacts, worker, opts...)
}

// NewQueryService builds the grounded query service.
func (s *System) NewQueryService(opts ...query.Option) (*query.Service, error) {
	return query.NewService(s.documents, s.chunks, s.vectors, s.gateway, s.provider.Completer(), opts...)
}
