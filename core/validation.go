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


package core

import (
	"fmt"
	"regexp"
	"strings"
)

// AllowedExtensions lists the upload file types accepted at submission.
// Audio and binary formats are rejected; transcription happens upstream.
var AllowedExtensions = []string{"txt", "md", "vtt"}

const maxFilenameLength = 255

var forbiddenFilenameChars = regexp.MustCompile(`[<>:"|?*]`)

// SanitizeFilename strips path separators and forbidden characters, and
// rejects traversal attempts and over-long names.
func SanitizeFilename(filename string) (string, error) {
	filename = strings.ReplaceAll(filename, "\\", "")
	filename = strings.ReplaceAll(filename, "/", "")
	filename = forbiddenFilenameChars.ReplaceAllString(filename, "")

	if filename == "" {
		return "", fmt.Errorf("%w: filename is empty", ErrValidation)
	}
	if strings.Contains(filename, "..") || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("%w: invalid filename format", ErrValidation)
	}
	if len(filename) > maxFilenameLength {
		return "", fmt.Errorf("%w: filename too long (max %d characters)", ErrValidation, maxFilenameLength)
	}
	return filename, nil
}

// ValidateFileExtension checks the filename against AllowedExtensions.
func ValidateFileExtension(filename string) error {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return fmt.Errorf("%w: file must have an extension", ErrValidation)
	}
	ext := strings.ToLower(filename[idx+1:])
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: file extension .%s not allowed (allowed: %s)",
		ErrValidation, ext, strings.Join(AllowedExtensions, ", "))
}

// NormalizeTitle derives a display title from an upload filename: the
// extension is dropped, underscores become spaces, and the result is
// lowercased.
func NormalizeTitle(filename string) string {
	title := filename
	if idx := strings.LastIndex(title, "."); idx > 0 {
		title = title[:idx]
	}
	title = strings.ReplaceAll(title, "_", " ")
	return strings.ToLower(strings.TrimSpace(title))
}

// ValidateQuestion checks that a query question is non-empty.
func ValidateQuestion(question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", ErrValidation)
	}
	return question, nil
}
