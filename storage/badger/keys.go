package badger

import "fmt"

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	contentHashPrefix    = "dochash"
	chunkRecordPrefix    = "chkrec"
	vectorRecordPrefix   = "vecrec"
	rawArtifactPrefix    = "artraw"
	derivedPrefix        = "artder"
)

// makeDocumentKey generates a key for a document record by ID.
func makeDocumentKey(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentRecordPrefix, documentID))
}

// makeContentHashKey generates a key for the content-hash index.
// The value stored under it is the owning document's ID.
func makeContentHashKey(contentHash string) []byte {
	return []byte(fmt.Sprintf("%s:%s", contentHashPrefix, contentHash))
}

// makeChunkKey generates a key for a chunk record.
// Format: prefix:documentID:chunkID. Chunk IDs are zero-padded, so
// lexicographic key order matches chunk position order.
func makeChunkKey(documentID, chunkID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", chunkRecordPrefix, documentID, chunkID))
}

// makeChunkScanPrefix generates the iteration prefix covering every chunk
// belonging to a document.
func makeChunkScanPrefix(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkRecordPrefix, documentID))
}

// makeVectorKey generates a key for a vector index entry.
// Format: prefix:documentID:chunkID.
func makeVectorKey(documentID, chunkID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", vectorRecordPrefix, documentID, chunkID))
}

// makeVectorScanPrefix generates the iteration prefix covering every vector
// entry belonging to a document.
func makeVectorScanPrefix(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", vectorRecordPrefix, documentID))
}

// makeRawArtifactKey generates a key for raw transcript bytes.
func makeRawArtifactKey(documentID, filename string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", rawArtifactPrefix, documentID, filename))
}

// makeDerivedKey generates a key for a named derived artifact.
func makeDerivedKey(documentID, name string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", derivedPrefix, documentID, name))
}

// makeDerivedScanPrefix generates the iteration prefix covering every derived
// artifact belonging to a document.
func makeDerivedScanPrefix(documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", derivedPrefix, documentID))
}
