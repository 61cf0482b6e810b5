package pushd

import (
	"fmt"
	"os"
	"path/filepath"
)

// Scope is an entered directory change. Create with
// Enter and release with Restore, typically deferred.
//
// A Scope is single-use. The working directory it
// manipulates is shared by the whole process: do not
// enter or restore scopes concurrently with other code
// that changes the working directory. Callers needing
// concurrency must serialize their own use; no internal
// locking is provided.
type Scope struct {
	// Dir is the directory that was entered, absolute
	// and with symlinks resolved.
	Dir string

	// OriginalDir is the working directory recorded at
	// entry. Restore changes back to it.
	OriginalDir string

	restored bool
}

// Enter records the current working directory and
// changes into dir. The target is resolved to an
// absolute path with symlinks evaluated before the
// change happens, so a failure leaves no state to
// restore. Test the cause with errors.Is against
// fs.ErrNotExist or fs.ErrPermission.
func Enter(dir string) (*Scope, error) {
	const errCtx = "entering directory"

	resolved, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	resolved, err = filepath.EvalSymlinks(resolved)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	original, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf(
			"%s: reading working directory: %w",
			errCtx, err,
		)
	}

	if err := os.Chdir(resolved); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &Scope{
		Dir:         resolved,
		OriginalDir: original,
	}, nil
}

// Restore changes the working directory back to
// OriginalDir. It restores exactly once: calls after a
// successful restore are no-ops returning nil, so a
// deferred Restore is safe next to an explicit one.
func (s *Scope) Restore() error {
	const errCtx = "restoring directory"

	if s.restored {
		return nil
	}

	if err := os.Chdir(s.OriginalDir); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	s.restored = true

	return nil
}
