package document

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	solventerrors "github.com/matzehuels/solvent/pkg/errors"
)

// Store persists documents by id.
type Store interface {
	// Save writes or replaces a document.
	Save(ctx context.Context, doc *Document) error

	// Get returns a stored document by id.
	Get(ctx context.Context, id string) (*Document, error)

	// List returns the metadata of all stored documents, newest first.
	List(ctx context.Context) ([]Meta, error)

	// Close releases the store's resources.
	Close() error
}

// OpenStore returns a Store for a location string: a mongodb:// or
// mongodb+srv:// connection string selects MongoDB, anything else is
// treated as a directory path.
func OpenStore(ctx context.Context, location string) (Store, error) {
	if strings.HasPrefix(location, "mongodb://") || strings.HasPrefix(location, "mongodb+srv://") {
		return NewMongoStore(ctx, location)
	}
	return NewFileStore(location)
}

// FileStore keeps one JSON file per document in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to create store directory %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes a document to <dir>/<id>.json.
func (s *FileStore) Save(ctx context.Context, doc *Document) error {
	if err := validateID(doc.Metadata.ID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to encode document %s", doc.Metadata.ID)
	}

	// Write-then-rename so concurrent readers never see a partial document.
	path := s.path(doc.Metadata.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to write document %s", doc.Metadata.ID)
	}
	if err := os.Rename(tmp, path); err != nil {
		return solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to write document %s", doc.Metadata.ID)
	}
	return nil
}

// Get returns a stored document by id.
func (s *FileStore) Get(ctx context.Context, id string) (*Document, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, solventerrors.New(solventerrors.ErrCodeDocumentNotFound, "document %s not found", id)
		}
		return nil, solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to read document %s", id)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, solventerrors.Wrap(solventerrors.ErrCodeInvalidFormat, err, "failed to decode document %s", id)
	}
	return &doc, nil
}

// List scans the directory and returns document metadata, newest first.
// Entries that cannot be decoded are skipped.
func (s *FileStore) List(ctx context.Context) ([]Meta, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to list store directory %s", s.dir)
	}

	metas := make([]Meta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var probe struct {
			Metadata Meta `json:"metadata"`
		}
		if err := json.Unmarshal(data, &probe); err != nil || probe.Metadata.ID == "" {
			continue
		}
		metas = append(metas, probe.Metadata)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].Datetime.After(metas[j].Datetime)
	})
	return metas, nil
}

// Close is a no-op for file stores.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// validateID rejects ids that would escape the store directory.
func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return solventerrors.New(solventerrors.ErrCodeInvalidInput, "invalid document id %q", id)
	}
	return nil
}
