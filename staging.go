package photocal

import (
	"fmt"
	"path/filepath"

	"github.com/alnah/go-photocal/internal/fileutil"
)

// StagingDir is a private directory holding one request's uploads.
type StagingDir struct {
	path   string
	remove func() error
}

// NewStagingDir creates a uniquely named directory under base
// (the system temp dir when base is empty).
func NewStagingDir(base string) (*StagingDir, error) {
	path, remove, err := fileutil.MakeTempDir(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStagingDir, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &StagingDir{path: path, remove: remove}, nil
}

// Path returns the absolute directory path.
func (d *StagingDir) Path() string {
	return d.path
}

// Release deletes the directory and everything in it.
// Only the first call removes anything; later calls return the same error.
func (d *StagingDir) Release() error {
	return d.remove()
}
