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
	"regexp"
	"slices"
	"strings"

	"github.com/parlancehq/parlance/core"
)

// UnknownSpeaker labels segments produced by the fallback heuristic when no
// speaker structure could be recognized.
const UnknownSpeaker = "Unknown"

// defaultTimestamp is assigned to segments whose line carried no timestamp.
const defaultTimestamp = "00:00:00"

// linePattern matches one transcript line of the form
//
//	[HH:MM:SS] Speaker Name: content
//
// The timestamp bracket is optional and [MM:SS] is accepted. The separator
// between speaker and content is flexible: ":", "-", "::" or "|" with
// surrounding whitespace.
var linePattern = regexp.MustCompile(
	`^(?:\[(\d{1,2}:?\d{1,2}:?\d{2})\]\s+)?([^:\-\s][^:\-]*?)\s*[:|\-]\s*(?::)?\s*(.+)$`,
)

// ParseSegments extracts an ordered segment sequence from raw transcript
// text. Lines matching the structured form become one segment each; when no
// line matches, the text falls back to paragraph-based segmentation under a
// synthetic "Unknown" speaker. Each segment's end timestamp is the start of
// the following segment (the last segment ends where it starts, since nothing
// in the input says otherwise).
//
// Parsing fails only when the input contains no extractable text at all, in
// which case the error wraps core.ErrEmptyTranscript.
func ParseSegments(raw string) ([]core.Segment, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("no extractable text content: %w", core.ErrEmptyTranscript)
	}

	var segments []core.Segment
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		speaker := strings.TrimSpace(m[2])
		text := strings.TrimSpace(m[3])
		if speaker == "" || text == "" {
			continue
		}
		segments = append(segments, core.Segment{
			Speaker:        speaker,
			TimestampStart: normalizeTimestamp(m[1]),
			Text:           text,
		})
	}

	if len(segments) == 0 {
		segments = fallbackSegments(raw)
	}

	for i := range segments {
		if i+1 < len(segments) {
			segments[i].TimestampEnd = segments[i+1].TimestampStart
		} else {
			segments[i].TimestampEnd = segments[i].TimestampStart
		}
	}
	return segments, nil
}

// fallbackSegments splits unstructured text into paragraph segments so that
// imperfectly formatted transcripts still ingest instead of failing.
func fallbackSegments(raw string) []core.Segment {
	var segments []core.Segment
	for _, para := range strings.Split(raw, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		segments = append(segments, core.Segment{
			Speaker:        UnknownSpeaker,
			TimestampStart: defaultTimestamp,
			Text:           strings.Join(strings.Fields(para), " "),
		})
	}
	return segments
}

// normalizeTimestamp pads a matched timestamp to HH:MM:SS form.
func normalizeTimestamp(ts string) string {
	if ts == "" {
		return defaultTimestamp
	}
	parts := strings.Split(ts, ":")
	for len(parts) < 3 {
		parts = append([]string{"00"}, parts...)
	}
	for i, p := range parts {
		if len(p) == 1 {
			parts[i] = "0" + p
		}
	}
	return strings.Join(parts, ":")
}

// Participants returns the sorted set of distinct speakers across segments.
// The synthetic fallback speaker is excluded: it names an absence of
// structure, not a person.
func Participants(segments []core.Segment) []string {
	seen := make(map[string]struct{}, len(segments))
	var names []string
	for _, s := range segments {
		if s.Speaker == UnknownSpeaker {
			continue
		}
		if _, ok := seen[s.Speaker]; ok {
			continue
		}
		seen[s.Speaker] = struct{}{}
		names = append(names, s.Speaker)
	}
	slices.Sort(names)
	return names
}

// FormatSegment renders a segment back to its canonical single-line form.
func FormatSegment(s core.Segment) string {
	return fmt.Sprintf("[%s] %s: %s", s.TimestampStart, s.Speaker, s.Text)
}
