package assets

import (
	"errors"
	"fmt"
)

// SearchPath resolves references against an ordered list of roots.
// The first root holding the file wins.
type SearchPath struct {
	roots []*FilesystemLoader
}

// NewSearchPath builds a SearchPath from directory paths, in priority order.
// Empty entries are ignored. Returns ErrInvalidBasePath if any directory is invalid.
func NewSearchPath(dirs ...string) (*SearchPath, error) {
	sp := &SearchPath{roots: make([]*FilesystemLoader, 0, len(dirs))}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		root, err := NewFilesystemLoader(dir)
		if err != nil {
			return nil, err
		}
		sp.roots = append(sp.roots, root)
	}
	return sp, nil
}

// Resolve returns the absolute path of the first root containing ref.
// Only ErrReferenceNotFound moves on to the next root; traversal and I/O
// errors stop the search.
func (s *SearchPath) Resolve(ref string) (string, error) {
	for _, root := range s.roots {
		p, err := root.Resolve(ref)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrReferenceNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %q", ErrReferenceNotFound, ref)
}

// Roots returns the resolved base paths in priority order.
func (s *SearchPath) Roots() []string {
	out := make([]string, len(s.roots))
	for i, r := range s.roots {
		out[i] = r.BasePath()
	}
	return out
}
