package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemLoader loads assets from a directory on the filesystem and
// resolves document references relative to it.
// Implements AssetLoader interface.
type FilesystemLoader struct {
	basePath string
}

// NewFilesystemLoader creates a FilesystemLoader for the given base path.
// Returns ErrInvalidBasePath if the path is not a valid, readable directory.
func NewFilesystemLoader(basePath string) (*FilesystemLoader, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	// Resolve symlinks in base path so containment checks compare real paths
	// (os.TempDir is a symlink on macOS).
	realPath, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		absPath = realPath
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, absPath)
	}

	if _, err := os.ReadDir(absPath); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &FilesystemLoader{basePath: absPath}, nil
}

// BasePath returns the resolved absolute base directory.
func (f *FilesystemLoader) BasePath() string {
	return f.basePath
}

// LoadTemplate loads an HTML template from the filesystem.
// Looks for {basePath}/templates/{name}.html
func (f *FilesystemLoader) LoadTemplate(name string) (string, error) {
	content, err := f.readAsset("templates", name, ".html", ErrTemplateNotFound)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// LoadFont loads a TrueType font from the filesystem.
// Looks for {basePath}/fonts/{name}.ttf
func (f *FilesystemLoader) LoadFont(name string) ([]byte, error) {
	return f.readAsset("fonts", name, ".ttf", ErrFontNotFound)
}

func (f *FilesystemLoader) readAsset(dir, name, ext string, notFound error) ([]byte, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}

	filePath := filepath.Join(f.basePath, dir, name+ext)
	if err := f.verifyPathContainment(filePath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filePath) // #nosec G304 -- path validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", notFound, name)
		}
		return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return content, nil
}

// Resolve maps a relative document reference (slash separated, e.g.
// "jan" or "frames/gold.png") to the absolute path of a regular file under
// basePath. Returns ErrReferenceNotFound if no such file exists and
// ErrPathTraversal if the reference escapes basePath.
func (f *FilesystemLoader) Resolve(ref string) (string, error) {
	if ref == "" || strings.ContainsRune(ref, '\x00') {
		return "", fmt.Errorf("%w: %q", ErrReferenceNotFound, ref)
	}
	if filepath.IsAbs(ref) || strings.HasPrefix(ref, "/") {
		return "", fmt.Errorf("%w: absolute reference", ErrPathTraversal)
	}

	filePath := filepath.Join(f.basePath, filepath.FromSlash(ref))
	if err := f.verifyPathContainment(filePath); err != nil {
		return "", err
	}

	realPath := filePath
	if resolved, err := filepath.EvalSymlinks(filePath); err == nil {
		realPath = resolved
	}

	info, err := os.Stat(realPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrReferenceNotFound, ref)
		}
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %q is not a regular file", ErrReferenceNotFound, ref)
	}

	return realPath, nil
}

// verifyPathContainment ensures the resolved file path is within basePath.
// Resolves symlinks to prevent escape via symlink pointing outside basePath.
func (f *FilesystemLoader) verifyPathContainment(filePath string) error {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathTraversal)
	}

	// If EvalSymlinks fails (file doesn't exist yet) the prefix check still
	// runs on the cleaned path and the read fails later.
	realPath, err := filepath.EvalSymlinks(absFilePath)
	if err == nil {
		absFilePath = realPath
	}

	// Separator suffix prevents /base/path matching /base/pathevil.
	if !strings.HasPrefix(absFilePath, f.basePath+string(filepath.Separator)) {
		return fmt.Errorf("%w: path escapes base directory", ErrPathTraversal)
	}

	return nil
}

// Compile-time interface check.
var _ AssetLoader = (*FilesystemLoader)(nil)
