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

package query

import (
	"fmt"
	"regexp"
	"strings"
)

// InputRejectionAnswer is returned verbatim when the input gate rejects a
// question.
const InputRejectionAnswer = "I'm sorry, but I cannot process that query for safety or professional reasons."

// FallbackAnswer is the fixed insufficient-evidence response, returned
// whenever retrieval finds nothing or the output gate rejects an answer.
const FallbackAnswer = "I couldn't find any relevant sections in the transcripts to answer your question."

// injectionPatterns recognize attempts to redirect the assistant outside its
// domain. Matching is case-insensitive over the whole question.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bignore\b.{0,40}\b(instructions?|prompts?|rules|context)\b`),
	regexp.MustCompile(`(?i)\bdisregard\b.{0,40}\b(instructions?|prompts?|rules|above)\b`),
	regexp.MustCompile(`(?i)\bforget\b.{0,40}\b(instructions?|training|rules)\b`),
	regexp.MustCompile(`(?i)\bsystem\s+prompt\b`),
	regexp.MustCompile(`(?i)\bjailbreak\b`),
	regexp.MustCompile(`(?i)\byou\s+are\s+now\b`),
	regexp.MustCompile(`(?i)\bpretend\s+(to\s+be|you\s+are)\b`),
	regexp.MustCompile(`(?i)\bact\s+as\s+(if|a|an)\b`),
	regexp.MustCompile(`(?i)\bdeveloper\s+mode\b`),
	regexp.MustCompile(`(?i)\breveal\b.{0,40}\b(instructions?|prompts?)\b`),
	regexp.MustCompile(`(?i)\boverride\b.{0,40}\b(safety|guardrails?|restrictions?)\b`),
	regexp.MustCompile(`(?i)\bnew\s+instructions?\s*:`),
}

// citationPattern matches the citation markers the synthesis prompt asks the
// model to emit, e.g. [9b2f...-uuid/chunk-0003]. Chunk IDs are positional and
// repeat across documents, so a citation is only meaningful in its
// document-qualified form; a bare [chunk-0003] is not a citation.
var citationPattern = regexp.MustCompile(`\[([0-9a-f-]+/chunk-\d{4})\]`)

// ChunkRef identifies one chunk across all documents. Everything on the
// query path (prompt labels, the retrieval set, grounding, citations) keys
// chunks by this pair, never by the chunk ID alone.
type ChunkRef struct {
	DocumentID string
	ChunkID    string
}

// Key returns the document-qualified form used in prompt labels and
// citation markers.
func (r ChunkRef) Key() string {
	return r.DocumentID + "/" + r.ChunkID
}

func parseChunkRef(key string) ChunkRef {
	documentID, chunkID, _ := strings.Cut(key, "/")
	return ChunkRef{DocumentID: documentID, ChunkID: chunkID}
}

// Guardrail enforces the two mandatory query gates.
//
// The input gate runs before retrieval and is purely pattern-based: a
// rejected question must cost no provider call, and a misbehaving provider
// must not be able to fail the gate open. The output gate is structural:
// retrieved transcript content only ever reaches the model as untrusted
// input, and an answer survives only if it cites at least one chunk that was
// actually retrieved.
type Guardrail struct{}

// NewGuardrail creates a Guardrail.
func NewGuardrail() *Guardrail {
	return &Guardrail{}
}

// CheckInput rejects questions that attempt prompt injection or jailbreaks.
// Returns ErrUnsafeQuery on rejection.
func (g *Guardrail) CheckInput(question string) error {
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(question) {
			return fmt.Errorf("%q matched injection pattern: %w", question, ErrUnsafeQuery)
		}
	}
	return nil
}

// ExtractCitations returns the distinct chunk references cited in an answer,
// in order of first appearance.
func (g *Guardrail) ExtractCitations(answer string) []ChunkRef {
	seen := map[string]struct{}{}
	var refs []ChunkRef
	for _, m := range citationPattern.FindAllStringSubmatch(answer, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		refs = append(refs, parseChunkRef(m[1]))
	}
	return refs
}

// CheckGrounding validates an answer against the retrieval set, keyed by
// ChunkRef.Key. It returns the cited references that actually appear in the
// set, and whether the answer passes: at least one valid citation, and no
// citation pointing outside the retrieval set. A failing answer must be
// replaced with FallbackAnswer by the caller, never returned as-is.
func (g *Guardrail) CheckGrounding(answer string, retrieved map[string]struct{}) ([]ChunkRef, bool) {
	cited := g.ExtractCitations(answer)
	var valid []ChunkRef
	for _, ref := range cited {
		if _, ok := retrieved[ref.Key()]; !ok {
			return nil, false
		}
		valid = append(valid, ref)
	}
	if len(valid) == 0 {
		return nil, false
	}
	return valid, true
}
