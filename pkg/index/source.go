package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/solvent/pkg/pep440"
	"github.com/matzehuels/solvent/pkg/requirement"
)

// Source is one configured package index.
//
// The URL is handed to pip verbatim as --index-url during probing; metadata
// queries derive the JSON API location from it. Sources are stateless and
// safe for concurrent use, though the resolver itself runs sequentially.
type Source struct {
	url    string
	client *Client
}

// NewSource creates a Source for the given index URL. Trailing slashes are
// dropped so URL comparisons and derived endpoints stay canonical.
func NewSource(url string, client *Client) *Source {
	return &Source{
		url:    strings.TrimRight(strings.TrimSpace(url), "/"),
		client: client,
	}
}

// URL returns the canonical index URL, the value used with pip --index-url.
func (s *Source) URL() string { return s.url }

// AllVersions returns every release of the package that has at least one
// downloadable file, sorted ascending per PEP 440. Releases without files
// cannot be installed and are skipped.
//
// Returns ErrNotFound when the index does not know the package.
func (s *Source) AllVersions(ctx context.Context, name string) ([]string, error) {
	name = requirement.NormalizeName(name)

	var data packageResponse
	url := s.packageURL(name)
	err := s.client.Cached(ctx, url, false, &data, func() error {
		return s.client.Get(ctx, url, &data)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: package %s on %s", ErrNotFound, name, s.url)
		}
		return nil, err
	}

	versions := make([]string, 0, len(data.Releases))
	for version, files := range data.Releases {
		if len(files) == 0 {
			continue
		}
		versions = append(versions, version)
	}
	pep440.Sort(versions)
	return versions, nil
}

// Hashes returns the sha256 digests of the release files for an exact
// (name, version). Returns ErrNotFound when the index has no such release.
func (s *Source) Hashes(ctx context.Context, name, version string) ([]string, error) {
	name = requirement.NormalizeName(name)

	var data versionResponse
	url := s.versionURL(name, version)
	err := s.client.Cached(ctx, url, false, &data, func() error {
		return s.client.Get(ctx, url, &data)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: release %s==%s on %s", ErrNotFound, name, version, s.url)
		}
		return nil, err
	}

	hashes := make([]string, 0, len(data.URLs))
	for _, file := range data.URLs {
		if file.Digests.SHA256 != "" {
			hashes = append(hashes, file.Digests.SHA256)
		}
	}
	return hashes, nil
}

// packageURL returns the JSON metadata endpoint for a package. Warehouse
// serves the JSON API as a sibling of the simple index.
func (s *Source) packageURL(name string) string {
	if root, ok := strings.CutSuffix(s.url, "/simple"); ok {
		return fmt.Sprintf("%s/pypi/%s/json", root, name)
	}
	return fmt.Sprintf("%s/%s/json", s.url, name)
}

func (s *Source) versionURL(name, version string) string {
	if root, ok := strings.CutSuffix(s.url, "/simple"); ok {
		return fmt.Sprintf("%s/pypi/%s/%s/json", root, name, version)
	}
	return fmt.Sprintf("%s/%s/%s/json", s.url, name, version)
}

type releaseFile struct {
	Digests struct {
		SHA256 string `json:"sha256"`
	} `json:"digests"`
}

type packageResponse struct {
	Releases map[string][]releaseFile `json:"releases"`
}

type versionResponse struct {
	URLs []releaseFile `json:"urls"`
}
