package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// unsafeSequences are substrings never allowed in package names. Names end
// up in filesystem paths and pip command lines, so anything that could
// change path or argument structure is rejected outright.
var unsafeSequences = []string{"..", "//", "\x00", "\\"}

// ValidatePackageName rejects names that could escape the paths they are
// embedded into. The PEP 508 shape is checked separately by
// ValidatePythonPackageName.
func ValidatePackageName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	case len(name) > 256:
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	case strings.ContainsFunc(name, unicode.IsControl):
		return New(ErrCodeInvalidPackage, "package name contains control characters")
	}

	for _, seq := range unsafeSequences {
		if strings.Contains(name, seq) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", seq)
		}
	}
	return nil
}

// pythonPackageNameRegex is the PEP 508 name rule: alphanumeric first and
// last character, dots, dashes and underscores in between.
var pythonPackageNameRegex = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidatePythonPackageName checks name against the PEP 508 name rule on
// top of ValidatePackageName.
func ValidatePythonPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if !pythonPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid Python package name: %q", name)
	}
	return nil
}

// ValidateURL accepts http and https URLs only.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}

// ValidateIndexURL is ValidateURL with the index-specific error code.
func ValidateIndexURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidIndex, "index URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidIndex, "index URL must use http or https scheme: %q", rawURL)
	}
	return nil
}

// ValidatePythonVersion accepts the interpreter major versions the resolver
// can drive, 2 and 3.
func ValidatePythonVersion(version int) error {
	if version != 2 && version != 3 {
		return New(ErrCodeInvalidPythonVersion, "python version must be 2 or 3, got %d", version)
	}
	return nil
}
