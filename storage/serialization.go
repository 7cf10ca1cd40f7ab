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

package storage

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/parlancehq/parlance/core"
)

// MarshalDocumentRecord serializes a DocumentRecord to bytes.
func MarshalDocumentRecord(record *core.DocumentRecord) ([]byte, error) {
	data, err := sonic.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: document record: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalDocumentRecord deserializes a DocumentRecord from bytes.
func UnmarshalDocumentRecord(data []byte) (*core.DocumentRecord, error) {
	var record core.DocumentRecord
	if err := sonic.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: document record: %v", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) ([]byte, error) {
	data, err := sonic.Marshal(chunk)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	var chunk core.Chunk
	if err := sonic.Unmarshal(data, &chunk); err != nil {
		return nil, fmt.Errorf("%w: chunk: %v", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalVectorEntry serializes a VectorEntry to bytes.
func MarshalVectorEntry(entry *core.VectorEntry) ([]byte, error) {
	data, err := sonic.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: vector entry: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalVectorEntry deserializes a VectorEntry from bytes.
func UnmarshalVectorEntry(data []byte) (*core.VectorEntry, error) {
	var entry core.VectorEntry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: vector entry: %v", ErrSerializationFailed, err)
	}
	return &entry, nil
}

// MarshalNormalizedTranscript serializes a NormalizedTranscript to bytes.
func MarshalNormalizedTranscript(transcript *core.NormalizedTranscript) ([]byte, error) {
	data, err := sonic.Marshal(transcript)
	if err != nil {
		return nil, fmt.Errorf("%w: normalized transcript: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalNormalizedTranscript deserializes a NormalizedTranscript from bytes.
func UnmarshalNormalizedTranscript(data []byte) (*core.NormalizedTranscript, error) {
	var transcript core.NormalizedTranscript
	if err := sonic.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("%w: normalized transcript: %v", ErrSerializationFailed, err)
	}
	return &transcript, nil
}

// MarshalIngestionReport serializes an IngestionReport to bytes.
func MarshalIngestionReport(report *core.IngestionReport) ([]byte, error) {
	data, err := sonic.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("%w: ingestion report: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalIngestionReport deserializes an IngestionReport from bytes.
func UnmarshalIngestionReport(data []byte) (*core.IngestionReport, error) {
	var report core.IngestionReport
	if err := sonic.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: ingestion report: %v", ErrSerializationFailed, err)
	}
	return &report, nil
}
