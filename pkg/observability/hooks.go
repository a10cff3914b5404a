// Package observability distributes resolution, cache and HTTP events to
// pluggable hooks.
//
// The solver, the index client and the HTTP layer emit events through the
// package-level registry. Binaries decide what to do with them: the CLI
// drives its progress display, a service could export metrics. Libraries in
// this module never depend on a metrics backend directly.
//
// Hooks are registered once at startup:
//
//	observability.SetSolverHooks(&progressHooks{})
//
// and invoked from the libraries:
//
//	observability.Solver().OnProbeStart(ctx, name, version)
//	// install and inspect
//	observability.Solver().OnProbeComplete(ctx, name, version, time.Since(start), err)
//
// The default hooks discard every event.
package observability

import (
	"context"
	"sync"
	"time"
)

// SolverHooks receives events from resolution passes. One pass produces a
// start/complete pair, with a probe pair nested for every package version
// the pass inspects.
type SolverHooks interface {
	OnPassStart(ctx context.Context, indexURL string, requirements int)
	OnPassComplete(ctx context.Context, indexURL string, packages, errors int, duration time.Duration)
	OnProbeStart(ctx context.Context, name, version string)
	OnProbeComplete(ctx context.Context, name, version string, duration time.Duration, err error)
}

// NoopSolverHooks discards all solver events.
type NoopSolverHooks struct{}

func (NoopSolverHooks) OnPassStart(context.Context, string, int)                        {}
func (NoopSolverHooks) OnPassComplete(context.Context, string, int, int, time.Duration) {}
func (NoopSolverHooks) OnProbeStart(context.Context, string, string)                    {}
func (NoopSolverHooks) OnProbeComplete(context.Context, string, string, time.Duration, error) {
}

// CacheHooks receives cache traffic events, keyed by the kind of entry
// ("index" for package metadata).
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopCacheHooks discards all cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// HTTPHooks receives one OnRequest per outgoing request, followed by either
// OnResponse or OnError.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopHTTPHooks discards all HTTP events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

var (
	hooksMu     sync.RWMutex
	solverHooks SolverHooks = NoopSolverHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
)

// SetSolverHooks replaces the registered solver hooks. Nil is ignored.
func SetSolverHooks(h SolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		solverHooks = h
	}
}

// SetCacheHooks replaces the registered cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks replaces the registered HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Solver returns the registered solver hooks.
func Solver() SolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return solverHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores the no-op defaults. Tests use it to undo registrations.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	solverHooks = NoopSolverHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
