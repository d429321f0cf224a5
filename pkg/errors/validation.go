package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxIDLength bounds node and edge ids. Fully qualified declaration names are
// long but never this long.
const maxIDLength = 1024

// ValidateNodeID validates a node id supplied by a caller.
//
// Declaration names may contain almost any printable character (including
// dots, primes and unicode symbols), so only structural problems are rejected:
//   - No empty ids
//   - No control characters
//   - No edge separator ("->"), which would make edge ids ambiguous
//   - Maximum length of 1024 characters
func ValidateNodeID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}

	if strings.Contains(id, "->") {
		return New(ErrCodeInvalidInput, "node id cannot contain %q", "->")
	}

	return nil
}

// ValidateEdgeID validates an edge id of the form "source->target".
func ValidateEdgeID(id string) error {
	source, target, ok := strings.Cut(id, "->")
	if !ok {
		return New(ErrCodeInvalidInput, "edge id %q must have the form source->target", id)
	}
	if err := ValidateNodeID(source); err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid edge source")
	}
	if err := ValidateNodeID(target); err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid edge target")
	}
	return nil
}

// ValidateProjectPath validates a project directory path.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Path must be absolute after cleaning
func ValidateProjectPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "project path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "project path contains invalid characters")
		}
	}

	if !filepath.IsAbs(filepath.Clean(path)) {
		return New(ErrCodeInvalidPath, "project path must be absolute: %q", path)
	}

	return nil
}
