// Package api exposes the resolver over HTTP.
//
// The server offers a small JSON API:
//
//	POST /api/v1/resolve        run a resolution synchronously
//	GET  /api/v1/documents      list stored documents
//	GET  /api/v1/documents/{id} fetch one stored document
//	GET  /healthz               liveness probe
//
// Resolution results are wrapped in a document and, when a store is
// configured, persisted before the response is written. Validation
// failures return a JSON payload carrying a machine-readable error code.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/solvent/pkg/cache"
	"github.com/matzehuels/solvent/pkg/document"
	solventerrors "github.com/matzehuels/solvent/pkg/errors"
	"github.com/matzehuels/solvent/pkg/solver"
)

// Options configures a Server.
type Options struct {
	// Logger receives request and resolution logging. Defaults to the
	// standard charm logger.
	Logger *log.Logger

	// Store persists resolution documents. Optional; without it the
	// document endpoints respond 503 and results are not persisted.
	Store document.Store

	// Cache backs index metadata lookups during resolution.
	Cache cache.Cache

	// CacheTTL bounds the age of cached index metadata.
	CacheTTL time.Duration

	// WorkDir hosts the resolver's virtualenvs.
	WorkDir string
}

type resolveFunc func(ctx context.Context, opts solver.Options) ([]solver.PassResult, error)

// Server handles the HTTP API.
type Server struct {
	logger   *log.Logger
	store    document.Store
	cache    cache.Cache
	cacheTTL time.Duration
	workDir  string
	resolve  resolveFunc
}

// New builds a Server from options.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		logger:   logger,
		store:    opts.Store,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		workDir:  opts.WorkDir,
		resolve:  solver.Resolve,
	}
}

// Router returns the server's HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/resolve", s.handleResolve)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{id}", s.handleGetDocument)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type errorResponse struct {
	Code    solventerrors.Code `json:"code"`
	Message string             `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code solventerrors.Code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// writeCodeError maps a structured error onto an HTTP status.
func writeCodeError(w http.ResponseWriter, err error) {
	code := solventerrors.GetCode(err)
	if code == "" {
		code = solventerrors.ErrCodeInternal
	}
	writeError(w, statusForCode(code), code, solventerrors.UserMessage(err))
}

func statusForCode(code solventerrors.Code) int {
	switch code {
	case solventerrors.ErrCodeInvalidInput,
		solventerrors.ErrCodeInvalidRequirement,
		solventerrors.ErrCodeInvalidPackage,
		solventerrors.ErrCodeInvalidPythonVersion,
		solventerrors.ErrCodeInvalidFormat,
		solventerrors.ErrCodeInvalidManifest,
		solventerrors.ErrCodeInvalidIndex:
		return http.StatusBadRequest
	case solventerrors.ErrCodeNotFound,
		solventerrors.ErrCodePackageNotFound,
		solventerrors.ErrCodeFileNotFound,
		solventerrors.ErrCodeDocumentNotFound:
		return http.StatusNotFound
	case solventerrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case solventerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
