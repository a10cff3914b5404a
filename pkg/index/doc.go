// Package index provides clients for Python package indices.
//
// # Overview
//
// A [Source] represents one configured index. Its URL is the value handed to
// pip as --index-url (a PEP 503 simple URL such as https://pypi.org/simple);
// metadata lookups use the warehouse JSON API that lives next to the simple
// index on PyPI-compatible servers.
//
// # Usage
//
//	client := index.NewClient(backend, 24*time.Hour)
//	src := index.NewSource("https://pypi.org/simple", client)
//
//	versions, err := src.AllVersions(ctx, "flask")   // pep440-ascending
//	hashes, err := src.Hashes(ctx, "flask", "2.0.1") // sha256 digests
//
// # Endpoints
//
// For a simple URL ending in /simple, metadata is fetched from the sibling
// JSON API:
//
//	https://pypi.org/simple            → https://pypi.org/pypi/<name>/json
//	                                   → https://pypi.org/pypi/<name>/<version>/json
//
// Other index URLs fall back to <url>/<name>/json style paths, which
// matches devpi and similar mirrors.
//
// # Caching and retries
//
// All requests go through a shared [Client] that caches responses, retries
// transient failures with backoff, and rate-limits outbound traffic. 404
// responses map to [ErrNotFound] and are never retried.
package index
