// Package document wraps resolver results in a persistable document.
//
// A Document pairs the results of one resolver run with the inputs that
// produced them (requirements, index URLs, Python version) and bookkeeping
// metadata (a uuid, timestamp, duration and the solver build version).
// Documents serialize as pretty-printed JSON and can be persisted through
// a Store:
//
//   - FileStore keeps one JSON file per document in a directory
//   - MongoStore keeps one record per document in a MongoDB collection
//
// # Usage
//
//	doc := document.New(results, document.Meta{
//	    PythonVersion: 3,
//	    IndexURLs:     indexURLs,
//	    Requirements:  requirements,
//	    Transitive:    true,
//	    Duration:      time.Since(started).Seconds(),
//	})
//	if err := doc.Write("solvent.json"); err != nil {
//	    return err
//	}
package document

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/solvent/pkg/buildinfo"
	solventerrors "github.com/matzehuels/solvent/pkg/errors"
	"github.com/matzehuels/solvent/pkg/solver"
)

// Meta identifies a document and records the inputs of the run.
type Meta struct {
	ID            string    `json:"document_id" bson:"document_id"`
	Datetime      time.Time `json:"datetime" bson:"datetime"`
	Duration      float64   `json:"duration" bson:"duration"`
	SolverVersion string    `json:"solver_version" bson:"solver_version"`
	PythonVersion int       `json:"python_version" bson:"python_version"`
	IndexURLs     []string  `json:"index_urls" bson:"index_urls"`
	Requirements  []string  `json:"requirements" bson:"requirements"`
	Transitive    bool      `json:"transitive" bson:"transitive"`
}

// Document is one persisted resolver run.
type Document struct {
	Metadata Meta                `json:"metadata"`
	Result   []solver.PassResult `json:"result"`
}

// New wraps results in a Document, stamping a fresh uuid, the current
// time and the solver build version for any Meta field left unset.
func New(result []solver.PassResult, meta Meta) *Document {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Datetime.IsZero() {
		meta.Datetime = time.Now().UTC()
	}
	if meta.SolverVersion == "" {
		meta.SolverVersion = buildinfo.Version
	}
	if meta.IndexURLs == nil {
		meta.IndexURLs = []string{}
	}
	if meta.Requirements == nil {
		meta.Requirements = []string{}
	}
	if result == nil {
		result = []solver.PassResult{}
	}
	return &Document{Metadata: meta, Result: result}
}

// WriteJSON encodes the document as indented JSON and writes it to w.
func (d *Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Write writes the document to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func (d *Document) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return d.WriteJSON(f)
}

// ReadJSON decodes a document from r.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, solventerrors.Wrap(solventerrors.ErrCodeInvalidFormat, err, "failed to decode document")
	}
	return &doc, nil
}

// Read reads a document from a JSON file at path.
func Read(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, solventerrors.Wrap(solventerrors.ErrCodeFileNotFound, err, "document file %s not found", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
