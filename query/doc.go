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

// Package query answers natural-language questions over ingested meeting
// transcripts with citation-grounded responses.
//
// A query runs through a fixed pipeline: input gate, metadata-first document
// filter, scoped vector retrieval, LLM synthesis, output grounding gate, and
// citation assembly against the chunk map. Two properties are non-negotiable:
//
//   - An answer is returned only when it cites retrieved chunks; anything
//     else degrades to a fixed insufficient-evidence response.
//   - Retrieved transcript content reaches the model exclusively as
//     untrusted input, so instructions embedded in a transcript are data,
//     never directives.
package query
