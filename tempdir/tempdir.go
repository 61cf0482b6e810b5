package tempdir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Scope is an entered temporary directory. Create with
// Enter and release with Close, typically deferred.
//
// A Scope is single-use and, like pushd.Scope, not safe
// for concurrent use: it mutates the process-wide
// working directory.
type Scope struct {
	// Dir is the created temporary directory, absolute
	// and with symlinks resolved.
	Dir string

	// OriginalDir is the working directory recorded at
	// entry. Close changes back to it before deleting
	// Dir.
	OriginalDir string

	closed bool
}

// Enter creates a uniquely-named directory under the
// platform temp root and changes into it. A creation
// failure (disk full, permissions) is returned before
// any state changes. If the change into the new
// directory fails, the directory is removed again.
func Enter() (*Scope, error) {
	const errCtx = "creating temp dir scope"

	dir, err := os.MkdirTemp("", "tempdir-*")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	// Temp roots are symlinked on some platforms:
	// resolve so Dir matches what Getwd reports inside
	// the scope.
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		_ = os.Remove(dir)

		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	original, err := os.Getwd()
	if err != nil {
		_ = os.Remove(resolved)

		return nil, fmt.Errorf(
			"%s: reading working directory: %w",
			errCtx, err,
		)
	}

	if err := os.Chdir(resolved); err != nil {
		_ = os.Remove(resolved)

		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &Scope{
		Dir:         resolved,
		OriginalDir: original,
	}, nil
}

// Close restores the working directory recorded at
// entry, then deletes the temporary directory and all
// of its contents. Both steps run even if one fails;
// their errors are joined and returned. Close cleans up
// exactly once: subsequent calls are no-ops returning
// nil.
func (s *Scope) Close() error {
	const errCtx = "closing temp dir scope"

	if s.closed {
		return nil
	}

	s.closed = true

	restoreErr := os.Chdir(s.OriginalDir)
	removeErr := forceRemoveAll(s.Dir)

	if err := errors.Join(restoreErr, removeErr); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// forceRemoveAll removes the tree rooted at path.
// Read-only directories block removal of their entries,
// so on failure the tree is re-permissioned with the
// owner write bit and removal is retried once.
func forceRemoveAll(path string) error {
	if err := os.RemoveAll(path); err == nil {
		return nil
	}

	_ = filepath.WalkDir(
		path,
		func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				// Unreadable entry: the parent may
				// become readable once its own mode
				// is fixed on the second pass of
				// RemoveAll below.
				return nil
			}

			if d.IsDir() {
				_ = os.Chmod(p, 0o700)
			} else {
				_ = os.Chmod(p, 0o600)
			}

			return nil
		},
	)

	return os.RemoveAll(path)
}
