package badger

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/parlancehq/parlance/core"
	"github.com/parlancehq/parlance/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) storage.DocumentRepository {
	return &DocumentRepository{backend: backend}
}

// Close implements storage.Repository. The backend owns the database handle,
// so there is nothing to release here.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// CreateDocument stores a new document record and its content-hash index
// entry in one transaction.
func (r *DocumentRepository) CreateDocument(ctx context.Context, record *core.DocumentRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(record.DocumentID)
		if _, err := tx.Get(key); err == nil {
			return storage.ErrDuplicateKey
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		value, err := storage.MarshalDocumentRecord(record)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		if record.ContentHash != "" {
			hashKey := makeContentHashKey(record.ContentHash)
			if err := tx.Set(hashKey, []byte(record.DocumentID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document record by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, documentID string) (*core.DocumentRecord, error) {
	var record *core.DocumentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = r.readDocument(tx, makeDocumentKey(documentID))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

// FindByContentHash retrieves the document record whose content hash matches.
func (r *DocumentRepository) FindByContentHash(ctx context.Context, contentHash string) (*core.DocumentRecord, error) {
	var record *core.DocumentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeContentHashKey(contentHash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var documentID string
		if err := item.Value(func(val []byte) error {
			documentID = string(val)
			return nil
		}); err != nil {
			return err
		}
		record, err = r.readDocument(tx, makeDocumentKey(documentID))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

// UpdateStatus transitions a document to a new state and applies any
// accompanying field updates atomically.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, documentID string, next core.Status, mutate func(*core.DocumentRecord)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(documentID)
		record, err := r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}
		if !record.Status.CanTransition(next) {
			return core.ErrIllegalTransition
		}
		record.Status = next
		if mutate != nil {
			mutate(record)
		}
		value, err := storage.MarshalDocumentRecord(record)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListDocuments retrieves document records matching the filter, ordered by
// submission time descending.
func (r *DocumentRepository) ListDocuments(ctx context.Context, filter storage.DocumentFilter) ([]*core.DocumentRecord, error) {
	var records []*core.DocumentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.DocumentRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalDocumentRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if matchesFilter(record, filter) {
				records = append(records, record)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Most recent first; document ID breaks ties so output order is stable.
	slices.SortFunc(records, func(a, b *core.DocumentRecord) int {
		if cmp := b.SubmittedAt.Compare(a.SubmittedAt); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.DocumentID, b.DocumentID)
	})
	return records, nil
}

func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.DocumentRecord, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record *core.DocumentRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalDocumentRecord(val)
		return err
	})
	return record, err
}

func matchesFilter(record *core.DocumentRecord, filter storage.DocumentFilter) bool {
	if filter.Date != "" && record.Date != filter.Date {
		return false
	}
	if filter.TitleSubstring != "" &&
		!strings.Contains(strings.ToLower(record.TitleNormalized), strings.ToLower(filter.TitleSubstring)) {
		return false
	}
	if filter.Participant != "" {
		found := false
		for _, p := range record.Participants {
			if strings.EqualFold(p, filter.Participant) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Status != "" && record.Status != filter.Status {
		return false
	}
	return true
}
