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
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/parlancehq/parlance/ai"
	"github.com/parlancehq/parlance/core"
	"github.com/parlancehq/parlance/ingestion"
	"github.com/parlancehq/parlance/storage"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// Service answers questions over ingested transcripts: metadata-first
// filtering, scoped vector retrieval, grounded synthesis, citation assembly.
type Service struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	vectors   storage.VectorRepository
	gateway   *ingestion.EmbeddingGateway
	completer ai.Completer
	guardrail *Guardrail
	topK      int
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithTopK sets the retrieval depth. Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(s *Service) error {
		if k > 0 {
			s.topK = k
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// NewService creates a query service.
func NewService(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	vectors storage.VectorRepository,
	gateway *ingestion.EmbeddingGateway,
	completer ai.Completer,
	opts ...Option,
) (*Service, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if gateway == nil {
		return nil, ErrGatewayRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	s := &Service{
		documents: documents,
		chunks:    chunks,
		vectors:   vectors,
		gateway:   gateway,
		completer: completer,
		guardrail: NewGuardrail(),
		topK:      DefaultTopK,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Ask answers a question over documents matching the filter.
func (s *Service) Ask(ctx context.Context, question string, filter storage.DocumentFilter) (*core.Answer, error) {
	return s.AskWithMonitor(ctx, question, filter, nil)
}

// AskWithMonitor answers a question with pipeline observation hooks.
//
// The pipeline is metadata-first: filters resolve to a READY document set
// before anything touches a provider, and a filter that matches nothing
// fails the query outright rather than silently widening the search. Empty
// filters mean all READY documents.
func (s *Service) AskWithMonitor(ctx context.Context, question string, filter storage.DocumentFilter, monitor QueryMonitor) (*core.Answer, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	started := time.Now()
	monitor.Start(question)

	question, err := core.ValidateQuestion(question)
	if err != nil {
		return nil, err
	}
	if err := s.guardrail.CheckInput(question); err != nil {
		s.logger.Warn("input gate rejected question")
		return nil, err
	}

	// 1. Metadata-first filter
	hadFilters := !filter.Empty()
	filter.Status = core.StatusReady
	records, err := s.documents.ListDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("document filter: %w", err)
	}
	if hadFilters && len(records) == 0 {
		return nil, ErrNoMatchingDocuments
	}
	scope := make([]string, len(records))
	for i, r := range records {
		scope[i] = r.DocumentID
	}
	monitor.AfterDocumentFilter(scope)

	if len(scope) == 0 {
		// Nothing ingested yet. No retrieval possible, no provider call.
		return s.fallback(started, monitor), nil
	}

	// 2. Scoped retrieval
	embedding, err := s.gateway.EmbedOne(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	matches, err := s.vectors.SearchVectors(ctx, embedding, s.topK, scope)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	monitor.AfterRetrieval(matches)

	if len(matches) == 0 {
		return s.fallback(started, monitor), nil
	}

	// 3. Synthesis. Full chunk text gives the model more to work with than
	// the index snippet; a missing chunk record degrades to the snippet
	// rather than blocking the answer.
	passages := make([]Passage, len(matches))
	retrieved := make(map[string]struct{}, len(matches))
	for i, m := range matches {
		ref := ChunkRef{DocumentID: m.Entry.DocumentID, ChunkID: m.Entry.ChunkID}
		text := m.Entry.Snippet
		if chunk, err := s.chunks.GetChunk(ctx, ref.DocumentID, ref.ChunkID); err == nil {
			text = chunk.Text
		}
		passages[i] = Passage{Ref: ref, Text: text}
		retrieved[ref.Key()] = struct{}{}
	}

	answerText, err := s.completer.Complete(ctx, SynthesisInstructions, BuildInput(passages, question))
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", core.ErrExternalService)
	}
	monitor.AfterSynthesis(answerText)

	// 4. Grounding check
	citedRefs, ok := s.guardrail.CheckGrounding(answerText, retrieved)
	if !ok {
		s.logger.Warn("output gate rejected answer", "citations", len(citedRefs))
		monitor.GroundingRejected(answerText)
		return s.fallback(started, monitor), nil
	}

	// 5. Citation assembly
	answer := &core.Answer{
		Text:             answerText,
		Citations:        s.buildCitations(ctx, citedRefs, matches),
		RetrievedContext: contextTexts(passages),
		DocumentIDs:      documentIDs(matches),
		LatencyMS:        elapsedMS(started),
	}
	s.logger.Info("query completed",
		"chunksRetrieved", len(matches),
		"citations", len(answer.Citations),
		"latencyMS", answer.LatencyMS)
	monitor.Finish(answer)
	return answer, nil
}

// buildCitations resolves cited chunk references against the chunk map. A
// chunk record that went missing degrades that citation to index metadata.
// References are document-qualified, so a positional chunk ID shared by two
// in-scope documents can never attribute a citation to the wrong one.
func (s *Service) buildCitations(ctx context.Context, cited []ChunkRef, matches []*core.VectorMatch) []core.Citation {
	byRef := make(map[string]*core.VectorEntry, len(matches))
	for _, m := range matches {
		ref := ChunkRef{DocumentID: m.Entry.DocumentID, ChunkID: m.Entry.ChunkID}
		byRef[ref.Key()] = m.Entry
	}

	citations := make([]core.Citation, 0, len(cited))
	for _, ref := range cited {
		entry := byRef[ref.Key()]
		citation := core.Citation{
			ChunkID:    ref.ChunkID,
			DocumentID: ref.DocumentID,
			Speaker:    entry.Speaker,
			Snippet:    entry.Snippet,
		}
		if chunk, err := s.chunks.GetChunk(ctx, ref.DocumentID, ref.ChunkID); err == nil {
			citation.Speaker = chunk.Speaker
			citation.TimestampStart = chunk.TimestampStart
			citation.TimestampEnd = chunk.TimestampEnd
			citation.Snippet = chunk.Snippet
		} else {
			s.logger.Warn("chunk map lookup failed for citation",
				"documentID", ref.DocumentID, "chunkID", ref.ChunkID, "error", err)
		}
		citations = append(citations, citation)
	}
	return citations
}

func (s *Service) fallback(started time.Time, monitor QueryMonitor) *core.Answer {
	answer := &core.Answer{
		Text:             FallbackAnswer,
		Citations:        []core.Citation{},
		RetrievedContext: []string{},
		LatencyMS:        elapsedMS(started),
	}
	monitor.Finish(answer)
	return answer
}

func contextTexts(passages []Passage) []string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return texts
}

func documentIDs(matches []*core.VectorMatch) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, m := range matches {
		if _, ok := seen[m.Entry.DocumentID]; ok {
			continue
		}
		seen[m.Entry.DocumentID] = struct{}{}
		ids = append(ids, m.Entry.DocumentID)
	}
	slices.Sort(ids)
	return ids
}

func elapsedMS(started time.Time) float64 {
	return float64(time.Since(started)) / float64(time.Millisecond)
}
