package errors

import (
	"strings"
	"unicode"
)

// ValidateEOI validates an event-of-interest label. The label names a
// rule in the Kappa model and doubles as the working directory and
// storage key for everything derived from it, so it must be safe to
// embed in paths and identifiers.
//
// The validation rules are intentionally conservative:
//   - No empty labels
//   - No control characters
//   - No path traversal sequences (.., //, \)
//   - Maximum length of 256 characters
func ValidateEOI(label string) error {
	if label == "" {
		return New(ErrCodeInvalidInput, "event of interest cannot be empty")
	}

	if len(label) > 256 {
		return New(ErrCodeInvalidInput, "event of interest too long (max 256 characters)")
	}

	for _, r := range label {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "event of interest contains control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(label, pattern) {
			return New(ErrCodeInvalidInput, "event of interest contains invalid sequence: %q", pattern)
		}
	}

	return nil
}

// ValidateStoryFilename validates a story file name for safety.
// It ensures the name is a simple basename without path components.
func ValidateStoryFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidStory, "story filename cannot be empty")
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidStory, "story filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidStory, "story filename cannot be a hidden file")
	}

	return nil
}

// ValidatePath validates a file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
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

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
