package ftp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox resolves client-supplied paths against a session jail. Requests
// are anchored to the real filesystem: symlinks are followed before the
// containment check, so a link pointing outside the jail is rejected the
// same way a literal ../.. is. Syntactic stripping alone is not safe here.
type Sandbox struct {
	root string
}

// NewSandbox creates a sandbox for the given jail. root must already be
// absolute and canonical (symlinks resolved).
func NewSandbox(root string) *Sandbox {
	return &Sandbox{root: filepath.Clean(root)}
}

// Root returns the canonical jail directory.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve maps a client request to a canonical absolute path inside the
// jail. Requests starting with "/" are jail-relative; anything else is
// relative to currentDir. The trailing component may not exist (STOR and
// rename destinations); a missing intermediate component resolves to
// os.ErrNotExist, and any result outside the jail to ErrPathEscape.
func (s *Sandbox) Resolve(currentDir, request string) (string, error) {
	var candidate string
	if strings.HasPrefix(request, "/") {
		candidate = filepath.Join(s.root, request)
	} else {
		candidate = filepath.Join(currentDir, request)
	}

	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("resolving %q: %w", request, err)
		}

		// Tolerate a missing trailing component; everything up to the
		// parent must still resolve.
		parent := filepath.Dir(candidate)
		leaf := filepath.Base(candidate)
		resolvedParent, perr := filepath.EvalSymlinks(parent)
		if perr != nil {
			if os.IsNotExist(perr) {
				if !s.contains(candidate) {
					return "", fmt.Errorf("%q: %w", request, ErrPathEscape)
				}
				return "", fmt.Errorf("%q: %w", request, os.ErrNotExist)
			}
			return "", fmt.Errorf("resolving %q: %w", request, perr)
		}
		resolved = filepath.Join(resolvedParent, leaf)
	}

	if !s.contains(resolved) {
		return "", fmt.Errorf("%q: %w", request, ErrPathEscape)
	}

	return resolved, nil
}

// contains reports whether p equals the jail or is a descendant of it.
func (s *Sandbox) contains(p string) bool {
	return p == s.root || strings.HasPrefix(p, s.root+string(filepath.Separator))
}
