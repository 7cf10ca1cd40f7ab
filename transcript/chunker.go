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

package transcript

import (
	"fmt"
	"strings"

	"github.com/parlancehq/parlance/core"
)

const (
	// DefaultMaxChunkChars is the character budget per chunk. A chunk may
	// overshoot it when a single utterance alone is longer: utterances are
	// never split across chunks.
	DefaultMaxChunkChars = 1000

	// snippetChars bounds the display snippet stored alongside each chunk.
	snippetChars = 160
)

// Chunker groups ordered segments into retrieval units.
type Chunker struct {
	maxChars int
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithMaxChunkChars overrides the per-chunk character budget.
func WithMaxChunkChars(n int) ChunkerOption {
	return func(c *Chunker) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// NewChunker creates a Chunker with the given options.
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{maxChars: DefaultMaxChunkChars}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk converts the ordered segment sequence into an ordered chunk sequence.
// Contiguous segments are merged until the character budget would be
// exceeded; the boundary always lands on an utterance boundary, so a single
// oversize utterance becomes its own (overshooting) chunk. Chunk IDs are
// derived from position, which makes a re-run over the same segments produce
// the same IDs.
func (c *Chunker) Chunk(documentID, rawLocation string, segments []core.Segment) []*core.Chunk {
	var chunks []*core.Chunk
	var group []core.Segment
	groupLen := 0

	flush := func() {
		if len(group) == 0 {
			return
		}
		chunks = append(chunks, c.buildChunk(documentID, rawLocation, len(chunks), group))
		group = nil
		groupLen = 0
	}

	for _, seg := range segments {
		lineLen := len(FormatSegment(seg)) + 1
		if len(group) > 0 && groupLen+lineLen > c.maxChars {
			flush()
		}
		group = append(group, seg)
		groupLen += lineLen
	}
	flush()
	return chunks
}

func (c *Chunker) buildChunk(documentID, rawLocation string, position int, group []core.Segment) *core.Chunk {
	lines := make([]string, len(group))
	var speakers []string
	seen := map[string]struct{}{}
	for i, seg := range group {
		lines[i] = FormatSegment(seg)
		if _, ok := seen[seg.Speaker]; !ok {
			seen[seg.Speaker] = struct{}{}
			speakers = append(speakers, seg.Speaker)
		}
	}
	text := strings.Join(lines, "\n")

	return &core.Chunk{
		ChunkID:        fmt.Sprintf("chunk-%04d", position),
		DocumentID:     documentID,
		TimestampStart: group[0].TimestampStart,
		TimestampEnd:   group[len(group)-1].TimestampEnd,
		Speaker:        strings.Join(speakers, ", "),
		Speakers:       speakers,
		Text:           text,
		Snippet:        makeSnippet(text),
		RawLocation:    rawLocation,
	}
}

// makeSnippet truncates chunk text to a display-sized prefix on a rune
// boundary.
func makeSnippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetChars {
		return text
	}
	return string(runes[:snippetChars])
}
