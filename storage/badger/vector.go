package badger

import (
	"context"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/parlancehq/parlance/core"
	"github.com/parlancehq/parlance/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(backend *Backend) storage.VectorRepository {
	return &VectorRepository{backend: backend}
}

// Close implements storage.Repository.
func (r *VectorRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *VectorRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertVectors inserts or replaces entries keyed by (document ID, chunk ID).
func (r *VectorRepository) UpsertVectors(ctx context.Context, entries []*core.VectorEntry) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			value, err := storage.MarshalVectorEntry(entry)
			if err != nil {
				return err
			}
			if err := tx.Set(makeVectorKey(entry.DocumentID, entry.ChunkID), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// SearchVectors returns the top-scoring entries by cosine similarity against
// the query vector, optionally restricted to a set of documents.
//
// Keys sort lexicographically by (document ID, chunk ID), so iteration order
// is deterministic and equal scores always resolve the same way.
func (r *VectorRepository) SearchVectors(ctx context.Context, vector []float32, limit int, documentIDs []string) ([]*core.VectorMatch, error) {
	prefixes := [][]byte{[]byte(vectorRecordPrefix + ":")}
	if len(documentIDs) > 0 {
		sorted := slices.Clone(documentIDs)
		slices.Sort(sorted)
		prefixes = prefixes[:0]
		for _, id := range sorted {
			prefixes = append(prefixes, makeVectorScanPrefix(id))
		}
	}

	var matches []*core.VectorMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, prefix := range prefixes {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			iter := tx.NewIterator(opts)

			for iter.Rewind(); iter.Valid(); iter.Next() {
				var entry *core.VectorEntry
				err := iter.Item().Value(func(val []byte) error {
					var err error
					entry, err = storage.UnmarshalVectorEntry(val)
					return err
				})
				if err != nil {
					iter.Close()
					return err
				}
				if len(entry.Vector) == 0 {
					continue
				}
				matches = append(matches, &core.VectorMatch{
					Entry: entry,
					Score: cosineSimilarity(vector, entry.Vector),
				})
			}
			iter.Close()
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Stable sort preserves key order for equal scores.
	slices.SortStableFunc(matches, func(a, b *core.VectorMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// DeleteVectors removes every entry belonging to a document.
func (r *VectorRepository) DeleteVectors(ctx context.Context, documentID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteByPrefix(tx, makeVectorScanPrefix(documentID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Embeddings from different providers are not guaranteed unit-length, so the
// norms are divided out rather than assuming a plain dot product suffices.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
