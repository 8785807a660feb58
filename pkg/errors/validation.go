package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateLabel checks that a vertex label is usable as a production target
// or embedding key. Labels are opaque, so only empty values and control
// characters are rejected.
func ValidateLabel(label string) error {
	if label == "" {
		return New(ErrCodeInvalidInput, "label cannot be empty")
	}
	for _, r := range label {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "label %q contains control characters", label)
		}
	}
	return nil
}

// graphNameRegex matches names accepted by the snapshot stores.
var graphNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateGraphName validates the name of a stored host graph.
// Names double as file names and Redis/Mongo keys, so they are restricted to
// a conservative character set:
//   - No empty names
//   - Maximum length of 128 characters
//   - Letters, digits, '.', '_' and '-' only, not starting with a separator
//   - No ".." sequences
func ValidateGraphName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "graph name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidName, "graph name too long (max 128 characters)")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "graph name cannot contain %q", "..")
	}
	if !graphNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid graph name: %q", name)
	}
	return nil
}

// ValidatePath validates a file path referenced from a rule file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
