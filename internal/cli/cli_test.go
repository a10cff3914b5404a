package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/solvent/pkg/solver"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	os.Unsetenv("XDG_CACHE_HOME")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", "solvent")
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join("/tmp/xdg-cache", "solvent")
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestIndexURLs(t *testing.T) {
	t.Setenv("SOLVENT_INDEX_URL", "")
	os.Unsetenv("SOLVENT_INDEX_URL")

	got := indexURLs(nil)
	if len(got) != 1 || got[0] != solver.DefaultIndexURL {
		t.Errorf("indexURLs(nil) = %v, want default index", got)
	}

	got = indexURLs([]string{"https://mirror.example/simple"})
	if len(got) != 1 || got[0] != "https://mirror.example/simple" {
		t.Errorf("flagged index should win, got %v", got)
	}
}

func TestIndexURLsEnvironment(t *testing.T) {
	t.Setenv("SOLVENT_INDEX_URL", "https://internal.example/simple")

	got := indexURLs(nil)
	if len(got) != 1 || got[0] != "https://internal.example/simple" {
		t.Errorf("indexURLs(nil) = %v, want environment index", got)
	}

	// Explicit flags still take precedence over the environment.
	got = indexURLs([]string{"https://mirror.example/simple"})
	if got[0] != "https://mirror.example/simple" {
		t.Errorf("flagged index should win over environment, got %v", got)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()

	want := []string{"resolve", "export", "documents", "serve", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0a1b2c3d-ffff-4444-aaaa-bbbbccccdddd"); got != "0a1b2c3d" {
		t.Errorf("shortID = %q, want first 8 characters", got)
	}
	if got := shortID("tiny"); got != "tiny" {
		t.Errorf("shortID should keep short ids intact, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("requests>=2.28, flask", 10); !strings.HasSuffix(got, "…") {
		t.Errorf("truncate should mark shortened strings, got %q", got)
	}
	if got := truncate("flask", 10); got != "flask" {
		t.Errorf("truncate should keep short strings intact, got %q", got)
	}
}
