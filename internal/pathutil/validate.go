// Package pathutil provides helpers for handling report and source paths.
package pathutil

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPath = errors.New("path is empty")
	ErrNullBytes = errors.New("path contains null bytes")
)

// ValidatePath cleans a report path and resolves symlinks.
// Paths that do not exist yet are returned cleaned.
func ValidatePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	cleaned := filepath.Clean(path)
	if strings.Contains(cleaned, "\x00") {
		return "", ErrNullBytes
	}

	realPath, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		return cleaned, nil
	}
	return realPath, nil
}

// ReplaceBackslashes trims a user supplied pattern and turns Windows
// separators into forward slashes so it can be used as a glob.
func ReplaceBackslashes(pattern string) string {
	if pattern == "" {
		return pattern
	}
	return strings.ReplaceAll(strings.TrimSpace(pattern), `\`, "/")
}

// TrimWorkspace strips the first occurrence of the workspace prefix from a
// file path. Both are compared with forward slashes.
func TrimWorkspace(file, workspace string) string {
	prefix := strings.ReplaceAll(workspace, `\`, "/")
	if prefix == "" || file == "" {
		return file
	}
	return strings.Replace(file, prefix, "", 1)
}
