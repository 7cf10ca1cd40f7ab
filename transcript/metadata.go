package transcript

import (
	"regexp"
	"strings"
)

var datePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

// maxDateScanLines bounds how far into the body the date heuristic looks.
// Meeting dates live in filenames or headers, not buried mid-discussion.
const maxDateScanLines = 5

// ExtractDate finds an ISO 8601 date for the document. The filename wins over
// the body; within the body only the leading lines are considered. Returns an
// empty string when nothing looks like a date.
func ExtractDate(filename, raw string) string {
	if m := datePattern.FindString(filename); m != "" {
		return m
	}
	lines := strings.Split(raw, "\n")
	if len(lines) > maxDateScanLines {
		lines = lines[:maxDateScanLines]
	}
	for _, line := range lines {
		if m := datePattern.FindString(line); m != "" {
			return m
		}
	}
	return ""
}
