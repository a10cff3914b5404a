package requirement

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRequirementsTxt(t *testing.T) {
	path := writeManifest(t, "requirements.txt", `# Test requirements
requests>=2.28.0
click==8.1.0

-r base.txt
--index-url https://private.example/simple
httpx  # http client

git+https://github.com/user/repo.git
`)

	got, err := LoadRequirementsTxt(path)
	if err != nil {
		t.Fatalf("LoadRequirementsTxt error: %v", err)
	}

	// Option lines are dropped; the git line stays for Parse to reject.
	want := []string{
		"requests>=2.28.0",
		"click==8.1.0",
		"httpx",
		"git+https://github.com/user/repo.git",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadRequirementsTxt = %v, want %v", got, want)
	}
}

func TestLoadRequirementsTxtContinuation(t *testing.T) {
	path := writeManifest(t, "requirements.txt", "requests>=2.0,\\\n    <3.0\n")

	got, err := LoadRequirementsTxt(path)
	if err != nil {
		t.Fatalf("LoadRequirementsTxt error: %v", err)
	}
	want := []string{"requests>=2.0,<3.0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadRequirementsTxt = %v, want %v", got, want)
	}
}

func TestLoadPipfile(t *testing.T) {
	path := writeManifest(t, "Pipfile", `[[source]]
url = "https://pypi.org/simple"
verify_ssl = true
name = "pypi"

[packages]
requests = "*"
flask = ">=1.0"
records = {version = ">=0.5.0", extras = ["pandas"]}
pinned = "2.1.0"
fromgit = {git = "https://github.com/user/repo.git"}

[dev-packages]
pytest = "*"
`)

	got, err := LoadPipfile(path)
	if err != nil {
		t.Fatalf("LoadPipfile error: %v", err)
	}

	want := []string{
		"flask>=1.0",
		"pinned==2.1.0",
		"records[pandas]>=0.5.0",
		"requests",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadPipfile = %v, want %v", got, want)
	}
}

func TestLoadPyprojectTOML(t *testing.T) {
	path := writeManifest(t, "pyproject.toml", `[project]
name = "demo"
dependencies = [
  "httpx>=0.24",
  "pydantic",
]

[tool.poetry.dependencies]
python = "^3.9"
requests = "2.28.1"
click = "*"
rich = {version = ">=13.0", extras = ["jupyter"]}
`)

	got, err := LoadPyprojectTOML(path)
	if err != nil {
		t.Fatalf("LoadPyprojectTOML error: %v", err)
	}

	want := []string{
		"httpx>=0.24",
		"pydantic",
		"click",
		"requests==2.28.1",
		"rich[jupyter]>=13.0",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadPyprojectTOML = %v, want %v", got, want)
	}
}

func TestLoadFileDispatch(t *testing.T) {
	tests := []struct {
		filename string
		content  string
		wantErr  bool
	}{
		{"requirements.txt", "requests\n", false},
		{"requirements-dev.txt", "pytest\n", false},
		{"Pipfile", "[packages]\nrequests = \"*\"\n", false},
		{"pyproject.toml", "[project]\ndependencies = [\"requests\"]\n", false},
		{"setup.py", "", true},
		{"package.json", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			path := writeManifest(t, tt.filename, tt.content)
			_, err := LoadFile(path)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadFile(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "requirements.txt")); err == nil {
		t.Error("LoadFile on missing file should fail")
	}
}
