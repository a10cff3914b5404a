package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/solvent/pkg/document"
	solventerrors "github.com/matzehuels/solvent/pkg/errors"
	"github.com/matzehuels/solvent/pkg/solver"
)

// resolveRequest is the body of POST /api/v1/resolve.
type resolveRequest struct {
	Requirements    []string `json:"requirements"`
	IndexURLs       []string `json:"index_urls"`
	PythonVersion   int      `json:"python_version"`
	ExcludePackages []string `json:"exclude_packages"`

	// Transitive defaults to true when absent, so a pointer keeps the
	// omitted case apart from an explicit false.
	Transitive *bool `json:"transitive"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, solventerrors.ErrCodeInvalidFormat, "request body is not valid JSON")
		return
	}
	if len(req.Requirements) == 0 {
		writeError(w, http.StatusBadRequest, solventerrors.ErrCodeInvalidInput, "requirements must not be empty")
		return
	}
	if req.PythonVersion == 0 {
		req.PythonVersion = 3
	}
	if err := solventerrors.ValidatePythonVersion(req.PythonVersion); err != nil {
		writeCodeError(w, err)
		return
	}
	if len(req.IndexURLs) == 0 {
		req.IndexURLs = []string{solver.DefaultIndexURL}
	}
	for _, indexURL := range req.IndexURLs {
		if err := solventerrors.ValidateIndexURL(indexURL); err != nil {
			writeCodeError(w, err)
			return
		}
	}
	transitive := true
	if req.Transitive != nil {
		transitive = *req.Transitive
	}

	start := time.Now()
	result, err := s.resolve(r.Context(), solver.Options{
		Requirements:    req.Requirements,
		IndexURLs:       req.IndexURLs,
		PythonVersion:   req.PythonVersion,
		ExcludePackages: req.ExcludePackages,
		Transitive:      transitive,
		WorkDir:         s.workDir,
		Logger:          s.logger,
		Cache:           s.cache,
		CacheTTL:        s.cacheTTL,
	})
	if err != nil {
		s.logger.Error("resolution failed", "error", err)
		writeCodeError(w, err)
		return
	}

	doc := document.New(result, document.Meta{
		Duration:      time.Since(start).Seconds(),
		PythonVersion: req.PythonVersion,
		IndexURLs:     req.IndexURLs,
		Requirements:  req.Requirements,
		Transitive:    transitive,
	})
	if s.store != nil {
		if err := s.store.Save(r.Context(), doc); err != nil {
			s.logger.Warn("failed to persist document", "document_id", doc.Metadata.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, solventerrors.ErrCodeStore, "no document store configured")
		return
	}
	metas, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list documents", "error", err)
		writeCodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metas)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, solventerrors.ErrCodeStore, "no document store configured")
		return
	}
	id := chi.URLParam(r, "id")
	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		if !solventerrors.Is(err, solventerrors.ErrCodeDocumentNotFound) {
			s.logger.Error("failed to load document", "document_id", id, "error", err)
		}
		writeCodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
