package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox restricts file access to a set of base directories. Paths are
// canonicalized (symlinks and ".." resolved) before the check, so a symlink
// pointing outside an allowed base is rejected.
type Sandbox struct {
	bases []string
}

// NewSandbox creates a sandbox over the given base directories.
func NewSandbox(bases []string) *Sandbox {
	sb := &Sandbox{}
	for _, base := range bases {
		if abs, err := filepath.Abs(base); err == nil {
			if resolved, err := filepath.EvalSymlinks(abs); err == nil {
				abs = resolved
			}
			sb.bases = append(sb.bases, abs)
		}
	}
	return sb
}

// Resolve canonicalizes path and verifies it is rooted under an allowed
// base. For paths that do not exist yet (writes), the nearest existing
// ancestor is resolved instead.
func (sb *Sandbox) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	resolved, err := canonicalize(abs)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path: %w", err)
	}

	for _, base := range sb.bases {
		if resolved == base || strings.HasPrefix(resolved, base+string(filepath.Separator)) {
			return resolved, nil
		}
	}

	return "", fmt.Errorf("access denied: %s is outside the allowed directories", path)
}

// canonicalize resolves symlinks for the deepest existing ancestor and
// rejoins the non-existing tail.
func canonicalize(abs string) (string, error) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	dir, base := filepath.Split(filepath.Clean(abs))
	dir = filepath.Clean(dir)
	if dir == abs {
		// Hit the root without finding an existing ancestor.
		return abs, nil
	}

	parent, err := canonicalize(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, base), nil
}
