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


// Package ai provides abstractions for the AI services used by parlance.
//
// This package defines interfaces for text embeddings and language-model
// completion. The core domain and pipeline logic depend on these
// abstractions, never on a concrete provider SDK, so providers are swapped
// by configuration rather than by code changes.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: generates vector embeddings from text
//   - Completer: generates text from trusted instructions plus untrusted input
//   - Provider: aggregates both services for convenient initialization
//
// The Completer contract keeps instructions and input in separate message
// roles. Retrieved transcript content rides in the input role, so a
// transcript that happens to contain instruction-like text cannot steer the
// model the way the system prompt can.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles with no external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// interface types to enforce abstraction. Mock constructors return concrete
// types so tests can inject behavior and assert on call counts.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedTexts(ctx, chunkTexts)
//	answer, err := provider.Completer().Complete(ctx, instructions, input)
package ai
