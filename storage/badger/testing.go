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

package badger

import "github.com/parlancehq/parlance/storage"

// Repositories bundles the four repositories sharing one backend.
type Repositories struct {
	Documents storage.DocumentRepository
	Chunks    storage.ChunkRepository
	Vectors   storage.VectorRepository
	Artifacts storage.ArtifactRepository
}

// NewRepositories creates the full repository set against a backend.
func NewRepositories(backend *Backend) *Repositories {
	return &Repositories{
		Documents: NewDocumentRepository(backend),
		Chunks:    NewChunkRepository(backend),
		Vectors:   NewVectorRepository(backend),
		Artifacts: NewArtifactRepository(backend),
	}
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must close the backend when done.
func NewMemoryRepositories() (*Repositories, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}
	return NewRepositories(backend), backend, nil
}
