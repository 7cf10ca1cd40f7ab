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

// Package storage provides the storage abstraction layer for parlance.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic, so different backends (BadgerDB,
// in-memory, etc.) can be used interchangeably.
//
// # Repositories
//
//   - DocumentRepository: durable per-document metadata records and the
//     content-hash index used for re-submission detection
//   - ChunkRepository: the authoritative chunk map for each document
//   - VectorRepository: the vector index with scoped similarity search
//   - ArtifactRepository: raw transcript bytes and derived artifacts
//
// # Constructor Return Type Pattern
//
// Public backend constructors return these interfaces rather than concrete
// types, which keeps consumers decoupled from BadgerDB specifics and lets
// tests substitute alternative implementations:
//
//	docs, err := badger.NewDocumentRepository(backend) // storage.DocumentRepository
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines; the ingestion worker pool and query
// service share a single set of repositories.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support. Pass context.Background() for operations without specific timeout
// requirements.
package storage
