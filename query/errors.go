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
	"errors"
	"fmt"

	"github.com/parlancehq/parlance/core"
)

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrVectorRepositoryRequired is returned when a vector repository is not provided.
	ErrVectorRepositoryRequired = errors.New("vector repository required")

	// ErrGatewayRequired is returned when an embedding gateway is not provided.
	ErrGatewayRequired = errors.New("embedding gateway required")

	// ErrCompleterRequired is returned when a completion provider is not provided.
	ErrCompleterRequired = errors.New("completion provider required")

	// ErrUnsafeQuery rejects a question that attempts to redirect the system
	// outside its domain. Raised by the input gate before any retrieval or
	// provider call happens.
	ErrUnsafeQuery = fmt.Errorf("question rejected by input gate: %w", core.ErrValidation)

	// ErrNoMatchingDocuments is returned when the metadata filters match no
	// ingested documents. The query never reaches retrieval or synthesis.
	ErrNoMatchingDocuments = fmt.Errorf("no documents match the given filters: %w", core.ErrQuery)
)
