package requirement

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadFile reads seed requirements from a manifest, dispatching on the file
// name: requirements*.txt, Pipfile, and pyproject.toml are supported. The
// returned strings are raw requirement expressions; callers parse them so
// malformed entries surface through the normal failure reporting instead of
// aborting the load.
func LoadFile(path string) ([]string, error) {
	switch name := filepath.Base(path); {
	case name == "Pipfile":
		return LoadPipfile(path)
	case name == "pyproject.toml":
		return LoadPyprojectTOML(path)
	case strings.HasSuffix(name, ".txt"):
		return LoadRequirementsTxt(path)
	default:
		return nil, fmt.Errorf("unsupported manifest %q", name)
	}
}

// LoadRequirementsTxt reads a pip requirements file. Blank lines, comments,
// and pip option lines (-r, --index-url, ...) are dropped. URL, VCS, and
// path references are kept; Parse rejects them later with a reason, which
// is more visible than silently losing them here.
func LoadRequirementsTxt(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var result []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = stripComment(line)
		if line == "" || line[0] == '-' {
			continue
		}
		// Line continuations are rare in practice; join conservatively.
		for strings.HasSuffix(line, "\\") && scanner.Scan() {
			line = strings.TrimSuffix(line, "\\") + strings.TrimSpace(scanner.Text())
		}
		result = append(result, line)
	}

	return result, scanner.Err()
}

type pipfile struct {
	Packages map[string]any `toml:"packages"`
	Dev      map[string]any `toml:"dev-packages"`
}

// LoadPipfile reads the [packages] table of a Pipfile. String values are
// specifier sets ("*" means any version); table values contribute their
// "version" and "extras" keys. Git and path tables have no version to
// resolve and are skipped.
func LoadPipfile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf pipfile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return nil, err
	}

	return pipfileRequirements(pf.Packages), nil
}

func pipfileRequirements(packages map[string]any) []string {
	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	// TOML tables are unordered; stable output makes runs reproducible.
	sort.Strings(names)

	var result []string
	for _, name := range names {
		switch v := packages[name].(type) {
		case string:
			result = append(result, name+specOrEmpty(v))
		case map[string]any:
			version, _ := v["version"].(string)
			if version == "" {
				continue
			}
			extras := extrasSuffix(v["extras"])
			result = append(result, name+extras+specOrEmpty(version))
		}
	}
	return result
}

type pyproject struct {
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// LoadPyprojectTOML reads PEP 621 project.dependencies plus poetry's
// tool.poetry.dependencies. The "python" entry names the interpreter, not a
// package, and is excluded. Poetry's caret and tilde operators are passed
// through verbatim; they are not PEP 440 and will be reported as unparsed.
func LoadPyprojectTOML(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pp pyproject
	if err := toml.Unmarshal(data, &pp); err != nil {
		return nil, err
	}

	result := append([]string(nil), pp.Project.Dependencies...)

	poetry := pp.Tool.Poetry.Dependencies
	names := make([]string, 0, len(poetry))
	for name := range poetry {
		if NormalizeName(name) == "python" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		switch v := poetry[name].(type) {
		case string:
			result = append(result, name+specOrEmpty(v))
		case map[string]any:
			version, _ := v["version"].(string)
			if version == "" {
				continue
			}
			extras := extrasSuffix(v["extras"])
			result = append(result, name+extras+specOrEmpty(version))
		}
	}

	return result, nil
}

// specOrEmpty maps manifest version strings to specifier sets: "*" means
// any version, a bare version means an exact pin, anything else is already
// a specifier set (or a poetry operator that Parse will reject).
func specOrEmpty(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == "*" {
		return ""
	}
	if v[0] >= '0' && v[0] <= '9' {
		return "==" + v
	}
	return v
}

func extrasSuffix(v any) string {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return ""
	}
	var extras []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			extras = append(extras, s)
		}
	}
	if len(extras) == 0 {
		return ""
	}
	return "[" + strings.Join(extras, ",") + "]"
}
