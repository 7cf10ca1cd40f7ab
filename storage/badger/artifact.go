package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/parlancehq/parlance/storage"
)

// locationScheme prefixes every artifact location this backend hands out.
const locationScheme = "badger://"

// ArtifactRepository implements storage.ArtifactRepository for BadgerDB.
// Raw uploads and derived artifacts live in the same database as the
// metadata, which keeps a single-node deployment to one data directory.
type ArtifactRepository struct {
	backend *Backend
}

var _ storage.ArtifactRepository = (*ArtifactRepository)(nil)

// NewArtifactRepository creates a new ArtifactRepository.
func NewArtifactRepository(backend *Backend) storage.ArtifactRepository {
	return &ArtifactRepository{backend: backend}
}

// Close implements storage.Repository.
func (r *ArtifactRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ArtifactRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutRaw stores the original uploaded bytes and returns the location string
// to record on the document.
func (r *ArtifactRepository) PutRaw(ctx context.Context, documentID, filename string, content []byte) (string, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeRawArtifactKey(documentID, filename), content); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s/%s/%s", locationScheme, rawArtifactPrefix, documentID, filename), nil
}

// GetRaw retrieves raw bytes by the location string PutRaw returned.
func (r *ArtifactRepository) GetRaw(ctx context.Context, location string) ([]byte, error) {
	documentID, filename, err := parseRawLocation(location)
	if err != nil {
		return nil, err
	}
	return r.get(makeRawArtifactKey(documentID, filename))
}

// PutDerived stores a named derived artifact, overwriting any previous
// version.
func (r *ArtifactRepository) PutDerived(ctx context.Context, documentID, name string, content []byte) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeDerivedKey(documentID, name), content); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetDerived retrieves a derived artifact by name.
func (r *ArtifactRepository) GetDerived(ctx context.Context, documentID, name string) ([]byte, error) {
	return r.get(makeDerivedKey(documentID, name))
}

// ListDerived returns the names of a document's derived artifacts.
// Prefix iteration yields keys in lexicographic order.
func (r *ArtifactRepository) ListDerived(ctx context.Context, documentID string) ([]string, error) {
	prefix := makeDerivedScanPrefix(documentID)
	names := []string{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			names = append(names, string(iter.Item().Key()[len(prefix):]))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return names, nil
}

// DerivedPrefix returns the location prefix under which a document's derived
// artifacts live.
func (r *ArtifactRepository) DerivedPrefix(documentID string) string {
	return fmt.Sprintf("%s%s/%s/", locationScheme, derivedPrefix, documentID)
}

func (r *ArtifactRepository) get(key []byte) ([]byte, error) {
	var content []byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		content, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return content, nil
}

// parseRawLocation splits "badger://artraw/<documentID>/<filename>" into its
// document ID and filename parts.
func parseRawLocation(location string) (documentID, filename string, err error) {
	rest, ok := strings.CutPrefix(location, locationScheme+rawArtifactPrefix+"/")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", storage.ErrInvalidLocation, location)
	}
	documentID, filename, ok = strings.Cut(rest, "/")
	if !ok || documentID == "" || filename == "" {
		return "", "", fmt.Errorf("%w: %q", storage.ErrInvalidLocation, location)
	}
	return documentID, filename, nil
}
