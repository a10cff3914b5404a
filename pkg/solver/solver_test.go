package solver

import (
	"context"
	"testing"

	"github.com/matzehuels/solvent/pkg/cmdutil"
	solventerrors "github.com/matzehuels/solvent/pkg/errors"
	"github.com/matzehuels/solvent/pkg/pyenv"
)

// fakeEnv serves canned package metadata keyed by "name==version" and
// records every probe in order.
type fakeEnv struct {
	packages map[string]pyenv.PackageInfo
	baseline []pyenv.PackageInfo
	failWith map[string]error
	probed   []string
	closed   bool
}

func (f *fakeEnv) Snapshot(ctx context.Context) ([]pyenv.PackageInfo, error) {
	return f.baseline, nil
}

func (f *fakeEnv) Probe(ctx context.Context, name, version, indexURL string) (*pyenv.PackageInfo, error) {
	key := name + "==" + version
	f.probed = append(f.probed, key)

	if err, ok := f.failWith[key]; ok {
		return nil, err
	}
	info, ok := f.packages[key]
	if !ok {
		return nil, pyenv.ErrNotSitePackage
	}
	return &info, nil
}

func (f *fakeEnv) Close() error {
	f.closed = true
	return nil
}

// fakeEnvFactory hands out one fakeEnv per pass, all sharing the same
// canned metadata.
type fakeEnvFactory struct {
	packages map[string]pyenv.PackageInfo
	baseline []pyenv.PackageInfo
	failWith map[string]error
	envs     []*fakeEnv
}

func (f *fakeEnvFactory) new(ctx context.Context, opts pyenv.Options) (environment, error) {
	env := &fakeEnv{packages: f.packages, baseline: f.baseline, failWith: f.failWith}
	f.envs = append(f.envs, env)
	return env, nil
}

func newTestBuilder(t *testing.T, opts Options, factory *fakeEnvFactory) *builder {
	t.Helper()

	opts.Logger = discardLogger()
	b, err := newBuilder(opts)
	if err != nil {
		t.Fatalf("newBuilder() error = %v", err)
	}
	b.newEnv = factory.new
	return b
}

func requestsPackages() map[string]pyenv.PackageInfo {
	return map[string]pyenv.PackageInfo{
		"requests==2.28.1": {
			Key:     "requests",
			Name:    "requests",
			Version: "2.28.1",
			Dependencies: []pyenv.DependencyInfo{
				{Name: "certifi", Range: ">=2017.4.17"},
				{Name: "urllib3", Range: ""},
			},
		},
		"certifi==2022.6.15": {Key: "certifi", Name: "certifi", Version: "2022.6.15"},
		"urllib3==1.26.10":   {Key: "urllib3", Name: "urllib3", Version: "1.26.10"},
		"urllib3==1.26.11":   {Key: "urllib3", Name: "urllib3", Version: "1.26.11"},
	}
}

func requestsIndex() map[string]map[string][]string {
	return map[string]map[string][]string{
		"requests": {"2.28.1": {"aaaa1111"}},
		"certifi":  {"2022.6.15": {"bbbb2222"}},
		"urllib3":  {"1.26.10": nil, "1.26.11": {"cccc3333"}},
	}
}

func TestResolveValidatesPythonVersion(t *testing.T) {
	_, err := Resolve(context.Background(), Options{
		Requirements:  []string{"requests"},
		PythonVersion: 4,
	})
	if err == nil {
		t.Fatal("Resolve() expected error for python version 4")
	}
	if !solventerrors.Is(err, solventerrors.ErrCodeInvalidPythonVersion) {
		t.Errorf("Resolve() error code = %v, want %v",
			solventerrors.GetCode(err), solventerrors.ErrCodeInvalidPythonVersion)
	}
}

func TestResolveTransitivePass(t *testing.T) {
	server := newFakeIndex(t, requestsIndex())
	factory := &fakeEnvFactory{
		packages: requestsPackages(),
		baseline: []pyenv.PackageInfo{
			{Key: "pip", Name: "pip", Version: "22.1.2"},
			{Key: "setuptools", Name: "setuptools", Version: "62.6.0"},
		},
	}
	b := newTestBuilder(t, Options{
		Requirements:  []string{"requests==2.28.1"},
		IndexURLs:     []string{server.URL},
		PythonVersion: 3,
		Transitive:    true,
	}, factory)

	results, err := b.run(context.Background())
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("run() results = %d, want 1", len(results))
	}
	result := results[0]

	if len(result.Environment) != 2 {
		t.Errorf("environment entries = %d, want 2", len(result.Environment))
	}
	if len(result.Errors)+len(result.Unparsed)+len(result.Unresolved) != 0 {
		t.Errorf("unexpected failures: %+v %+v %+v", result.Errors, result.Unparsed, result.Unresolved)
	}

	// Tail-popped queue: requests first, then its discoveries newest
	// first. The unconstrained urllib3 range admits both available
	// versions.
	wantProbes := []string{"requests==2.28.1", "urllib3==1.26.11", "urllib3==1.26.10", "certifi==2022.6.15"}
	env := factory.envs[0]
	if len(env.probed) != len(wantProbes) {
		t.Fatalf("probed = %v, want %v", env.probed, wantProbes)
	}
	for i, want := range wantProbes {
		if env.probed[i] != want {
			t.Errorf("probed[%d] = %q, want %q", i, env.probed[i], want)
		}
	}
	if !env.closed {
		t.Error("environment not closed after pass")
	}

	if len(result.Tree) != 4 {
		t.Fatalf("tree entries = %d, want 4", len(result.Tree))
	}
	entry := result.Tree[0]
	if entry.Name != "requests" || entry.Version != "2.28.1" {
		t.Errorf("tree[0] = %s==%s, want requests==2.28.1", entry.Name, entry.Version)
	}
	if entry.IndexURL != server.URL {
		t.Errorf("tree[0].IndexURL = %q, want %q", entry.IndexURL, server.URL)
	}
	if len(entry.SHA256) != 1 || entry.SHA256[0] != "aaaa1111" {
		t.Errorf("tree[0].SHA256 = %v, want [aaaa1111]", entry.SHA256)
	}
	if len(entry.Dependencies) != 2 {
		t.Fatalf("tree[0] dependencies = %d, want 2", len(entry.Dependencies))
	}

	dep := entry.Dependencies[0]
	if dep.Name != "certifi" || dep.RequiredVersion != ">=2017.4.17" {
		t.Errorf("dependency = %+v, want certifi >=2017.4.17", dep)
	}
	if len(dep.ResolvedVersions) != 1 {
		t.Fatalf("resolved_versions entries = %d, want 1", len(dep.ResolvedVersions))
	}
	if rv := dep.ResolvedVersions[0]; rv.Index != server.URL || len(rv.Versions) != 1 || rv.Versions[0] != "2022.6.15" {
		t.Errorf("resolved_versions[0] = %+v, want index %q with [2022.6.15]", rv, server.URL)
	}

	// Unconstrained range resolves every available version.
	urllib := entry.Dependencies[1]
	if len(urllib.ResolvedVersions[0].Versions) != 2 {
		t.Errorf("urllib3 resolved versions = %v, want both available versions", urllib.ResolvedVersions[0].Versions)
	}
}

func TestResolveNonTransitive(t *testing.T) {
	server := newFakeIndex(t, requestsIndex())
	factory := &fakeEnvFactory{packages: requestsPackages()}
	b := newTestBuilder(t, Options{
		Requirements:  []string{"requests==2.28.1"},
		IndexURLs:     []string{server.URL},
		PythonVersion: 3,
		Transitive:    false,
	}, factory)

	results, err := b.run(context.Background())
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if probed := factory.envs[0].probed; len(probed) != 1 || probed[0] != "requests==2.28.1" {
		t.Errorf("probed = %v, want only the seed", probed)
	}
	if len(results[0].Tree) != 1 {
		t.Fatalf("tree entries = %d, want 1", len(results[0].Tree))
	}

	// Dependency ranges are still resolved even though nothing is enqueued.
	deps := results[0].Tree[0].Dependencies
	if len(deps) != 2 || len(deps[0].ResolvedVersions) != 1 {
		t.Errorf("dependencies = %+v, want resolved ranges without traversal", deps)
	}
}

func TestResolveRecordsParseAndResolutionFailures(t *testing.T) {
	server := newFakeIndex(t, requestsIndex())
	factory := &fakeEnvFactory{packages: requestsPackages()}
	b := newTestBuilder(t, Options{
		Requirements: []string{
			"git+https://github.com/psf/requests.git",
			"nonexistent==9.9",
		},
		IndexURLs:     []string{server.URL},
		PythonVersion: 3,
		Transitive:    true,
	}, factory)

	results, err := b.run(context.Background())
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	result := results[0]

	if len(result.Unparsed) != 1 {
		t.Fatalf("unparsed = %+v, want 1 entry", result.Unparsed)
	}
	if result.Unparsed[0].Requirement != "git+https://github.com/psf/requests.git" || result.Unparsed[0].Details == "" {
		t.Errorf("unparsed[0] = %+v, want original requirement with details", result.Unparsed[0])
	}

	if len(result.Unresolved) != 1 {
		t.Fatalf("unresolved = %+v, want 1 entry", result.Unresolved)
	}
	unresolved := result.Unresolved[0]
	if unresolved.Name != "nonexistent" || unresolved.VersionSpec != "==9.9" || unresolved.Index != server.URL {
		t.Errorf("unresolved[0] = %+v", unresolved)
	}

	if len(factory.envs[0].probed) != 0 {
		t.Errorf("probed = %v, want none", factory.envs[0].probed)
	}
	if result.Tree == nil || len(result.Tree) != 0 {
		t.Errorf("tree = %v, want empty non-nil slice", result.Tree)
	}
}

func TestResolveExclusionAppliesToSeedsOnly(t *testing.T) {
	server := newFakeIndex(t, requestsIndex())
	factory := &fakeEnvFactory{packages: requestsPackages()}
	b := newTestBuilder(t, Options{
		Requirements:    []string{"requests==2.28.1", "certifi==2022.6.15"},
		IndexURLs:       []string{server.URL},
		PythonVersion:   3,
		ExcludePackages: []string{"Certifi"},
		Transitive:      true,
	}, factory)

	results, err := b.run(context.Background())
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	probes := make(map[string]int)
	for _, p := range factory.envs[0].probed {
		probes[p]++
	}
	if probes["certifi==2022.6.15"] != 1 {
		t.Errorf("certifi probed %d times, want once via transitive discovery", probes["certifi==2022.6.15"])
	}
	if len(results[0].Unresolved) != 0 {
		t.Errorf("unresolved = %+v, want none for an excluded seed", results[0].Unresolved)
	}
}

func TestResolveProbeFailures(t *testing.T) {
	server := newFakeIndex(t, map[string]map[string][]string{
		"broken": {"1.0": nil},
		"ghost":  {"1.0": nil},
	})
	factory := &fakeEnvFactory{
		packages: map[string]pyenv.PackageInfo{},
		failWith: map[string]error{
			"broken==1.0": &cmdutil.CommandError{
				Command: "pip install",
				Message: "no matching distribution found",
				Result:  cmdutil.Result{ReturnCode: 1},
			},
		},
	}
	b := newTestBuilder(t, Options{
		Requirements:  []string{"broken==1.0", "ghost==1.0"},
		IndexURLs:     []string{server.URL},
		PythonVersion: 3,
		Transitive:    true,
	}, factory)

	results, err := b.run(context.Background())
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	result := results[0]

	if len(result.Errors) != 2 {
		t.Fatalf("errors = %+v, want 2 entries", result.Errors)
	}
	byName := make(map[string]ResolutionError)
	for _, e := range result.Errors {
		byName[e.Name] = e
	}

	broken := byName["broken"]
	if broken.Type != ErrorTypeCommand || broken.Index != server.URL || broken.Version != "1.0" {
		t.Errorf("broken error = %+v", broken)
	}
	if broken.Details["return_code"] != 1 {
		t.Errorf("broken details = %+v, want command details", broken.Details)
	}

	ghost := byName["ghost"]
	if ghost.Type != ErrorTypeNotSitePackage {
		t.Errorf("ghost error type = %q, want %q", ghost.Type, ErrorTypeNotSitePackage)
	}
	if ghost.Details["message"] == "" {
		t.Errorf("ghost details = %+v, want a message", ghost.Details)
	}

	if len(result.Tree) != 0 {
		t.Errorf("tree = %+v, want empty", result.Tree)
	}
}

func TestResolveCrossIndex(t *testing.T) {
	primary := newFakeIndex(t, map[string]map[string][]string{
		"pkg-a": {"1.0": {"aa"}},
		"pkg-b": {"1.0": {"bb"}},
	})
	secondary := newFakeIndex(t, map[string]map[string][]string{
		"pkg-b": {"1.0": {"bb"}, "2.0": {"bb2"}},
	})

	factory := &fakeEnvFactory{
		packages: map[string]pyenv.PackageInfo{
			"pkg-a==1.0": {
				Key:          "pkg-a",
				Name:         "pkg-a",
				Version:      "1.0",
				Dependencies: []pyenv.DependencyInfo{{Name: "pkg-b", Range: ""}},
			},
			"pkg-b==1.0": {Key: "pkg-b", Name: "pkg-b", Version: "1.0"},
			"pkg-b==2.0": {Key: "pkg-b", Name: "pkg-b", Version: "2.0"},
		},
	}
	b := newTestBuilder(t, Options{
		Requirements:  []string{"pkg-a==1.0"},
		IndexURLs:     []string{primary.URL, secondary.URL},
		PythonVersion: 3,
		Transitive:    true,
	}, factory)

	results, err := b.run(context.Background())
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want one per index", len(results))
	}
	if len(factory.envs) != 2 {
		t.Fatalf("environments created = %d, want one per pass", len(factory.envs))
	}
	for i, env := range factory.envs {
		if !env.closed {
			t.Errorf("environment %d not closed", i)
		}
	}

	// First pass: dependency ranges answered by every index in
	// configuration order, queue admission is the union of both.
	first := results[0]
	if len(first.Tree) == 0 {
		t.Fatal("first pass tree is empty")
	}
	dep := first.Tree[0].Dependencies[0]
	if len(dep.ResolvedVersions) != 2 {
		t.Fatalf("resolved_versions entries = %d, want 2", len(dep.ResolvedVersions))
	}
	if dep.ResolvedVersions[0].Index != primary.URL || dep.ResolvedVersions[1].Index != secondary.URL {
		t.Errorf("resolved_versions order = %q, %q, want configuration order",
			dep.ResolvedVersions[0].Index, dep.ResolvedVersions[1].Index)
	}

	probes := make(map[string]bool)
	for _, p := range factory.envs[0].probed {
		probes[p] = true
	}
	if !probes["pkg-b==1.0"] || !probes["pkg-b==2.0"] {
		t.Errorf("first pass probed = %v, want both pkg-b versions", factory.envs[0].probed)
	}

	// Second pass: pkg-a is unknown on the secondary index.
	second := results[1]
	if len(second.Unresolved) != 1 || second.Unresolved[0].Name != "pkg-a" {
		t.Errorf("second pass unresolved = %+v, want pkg-a", second.Unresolved)
	}
	if len(second.Tree) != 0 {
		t.Errorf("second pass tree = %+v, want empty", second.Tree)
	}
}
