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

import "errors"

// Error taxonomy. Call sites wrap these with fmt.Errorf("...: %w", err) so
// callers can classify failures with errors.Is without depending on message
// text.
var (
	// ErrValidation indicates bad input shape or type; never retryable.
	ErrValidation = errors.New("validation error")

	// ErrIngestion indicates a worker-stage failure, terminal for the document.
	ErrIngestion = errors.New("ingestion error")

	// ErrQuery indicates no matching documents or empty retrieval scope.
	ErrQuery = errors.New("query error")

	// ErrExternalService indicates a provider timeout, throttle, or outage
	// after local retries were exhausted.
	ErrExternalService = errors.New("external service error")

	// ErrConfiguration indicates missing or invalid required settings.
	// Surfaced at construction, never per-request.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmptyTranscript indicates the submitted content held no extractable
	// text at all.
	ErrEmptyTranscript = errors.New("transcript contains no extractable text")

	// ErrIllegalTransition indicates an attempt to move a document out of a
	// terminal status or skip PENDING.
	ErrIllegalTransition = errors.New("illegal status transition")
)
