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

// Package ingestion implements the asynchronous transcript ingestion
// pipeline.
//
// The Coordinator is the request-time entrypoint: it validates the upload,
// persists the raw artifact, creates the PENDING document record, and
// dispatches a Worker onto a pool before returning the document ID. The
// Worker then parses, chunks, embeds, indexes, persists derived artifacts,
// and finalizes the record as READY or FAILED.
//
// Visibility is gated by document status alone. Until the worker flips a
// record to READY, nothing it wrote is reachable from a query; on failure it
// rolls back index entries and records a human-actionable error message.
//
// The EmbeddingGateway wraps the embedding provider with batching and
// bounded exponential-backoff retries.
package ingestion
