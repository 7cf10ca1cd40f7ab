package mock

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
)

// DefaultVectorDim is the dimensionality of generated mock embeddings.
const DefaultVectorDim = 384

// MockEmbedder is a test double for ai.Embedder. Behavior can be overridden
// per test via the function fields; the default produces deterministic unit
// vectors, so identical texts always embed identically and similarity
// rankings are stable across runs.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	callCount int
	lastTexts []string
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedText records the call and embeds one text.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount++
	m.lastTexts = []string{text}

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return DeterministicVector(text, DefaultVectorDim), nil
}

// EmbedTexts records the call and embeds a batch.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount++
	m.lastTexts = texts

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = DeterministicVector(text, DefaultVectorDim)
	}
	return vectors, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return m.callCount
}

// LastTexts returns the texts passed to the most recent call.
func (m *MockEmbedder) LastTexts() []string {
	return m.lastTexts
}

// Reset clears the call count, recorded texts, and custom functions.
func (m *MockEmbedder) Reset() {
	m.callCount = 0
	m.lastTexts = nil
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// DeterministicVector derives a unit vector of the given dimension from the
// text alone. Each component hashes the text together with its index, so two
// texts differing in one byte produce uncorrelated vectors while the same
// text always reproduces the same one.
func DeterministicVector(text string, dim int) []float32 {
	vector := make([]float32, dim)
	var idx [4]byte
	for i := range vector {
		h := fnv.New64a()
		h.Write([]byte(text))
		binary.LittleEndian.PutUint32(idx[:], uint32(i))
		h.Write(idx[:])
		// Map the hash onto [0, 1)
		vector[i] = float32(h.Sum64()%100000) / 100000.0
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}
	return vector
}
