// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
	ErrInvalidFileName        = errors.New("invalid file name")
)

// MaxFileNameLength bounds names accepted by ValidateFileName.
const MaxFileNameLength = 128

// tempPrefix names every temp file and directory this module creates.
const tempPrefix = "photocal-"

// WriteTempFile creates a temporary file with the given content and extension.
// Returns the file path and a cleanup function to remove the file.
func WriteTempFile(content, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}

	tmpFile, err := os.CreateTemp("", tempPrefix+"*."+extension)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}

	path = tmpFile.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, writeErr := tmpFile.WriteString(content); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", writeErr)
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", closeErr)
	}

	return path, cleanup, nil
}

// MakeTempDir creates a uniquely named directory under base (os.TempDir when
// empty). The returned remove function deletes the directory tree; it runs
// the removal at most once no matter how often it is called and reports the
// error of that single run.
func MakeTempDir(base string) (path string, remove func() error, err error) {
	dir, err := os.MkdirTemp(base, tempPrefix+"*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}

	var (
		once      sync.Once
		removeErr error
	)
	remove = func() error {
		once.Do(func() { removeErr = os.RemoveAll(dir) })
		return removeErr
	}
	return dir, remove, nil
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// ValidateFileName checks that name can be used verbatim as a single path
// element: non-empty, at most MaxFileNameLength bytes, no separators or NUL,
// and no leading dot (which also rules out "." and "..").
func ValidateFileName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidFileName)
	case len(name) > MaxFileNameLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidFileName, MaxFileNameLength)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists returns true if the path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
