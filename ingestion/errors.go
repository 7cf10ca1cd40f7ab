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

package ingestion

import "errors"

var (
	// ErrEmptyBatch indicates that an embedding batch produced no vectors.
	ErrEmptyBatch = errors.New("embedding batch returned no vectors")

	// ErrVectorCountMismatch indicates the provider returned a different
	// number of vectors than texts submitted.
	ErrVectorCountMismatch = errors.New("vector count does not match text count")
)
