package hasher

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// DefaultBufferSize is the read block size used when BufferSize is
// zero.
const DefaultBufferSize = 64 * 1024

var (
	// ErrNotFile is returned when a path expected to name a regular
	// file names something else, such as a directory.
	ErrNotFile = errors.New("not a regular file")

	// ErrNotDirectory is returned when a path expected to name a
	// directory names something else, such as a regular file.
	ErrNotDirectory = errors.New("not a directory")
)

// PathDigest pairs a slash-separated path, relative to a hashed root,
// with the hex digest of the file it names.
type PathDigest struct {
	Path   string `json:"path" yaml:"path"`
	Digest string `json:"digest" yaml:"digest"`
}

// Hasher computes hex-encoded content digests of files and directory
// trees. The zero value hashes with SHA256 in DefaultBufferSize blocks
// and is ready to use.
type Hasher struct {
	// Algorithm selects the digest function.
	Algorithm Algorithm

	// BufferSize is the read block size in bytes. Zero or negative
	// falls back to DefaultBufferSize.
	BufferSize int
}

// HashFile streams the regular file at path through the configured
// algorithm and returns its hex digest. Directories and other
// non-regular files are rejected with ErrNotFile.
func (h Hasher) HashFile(path string) (result string, retErr error) {
	const errCtx = "hashing file"

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s %q: %w", errCtx, path, ErrNotFile)
	}

	fi, err := os.Open(path) //nolint:gosec // path is caller-provided by design
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			result = ""
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	digest, err := h.sum(fi)
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", errCtx, path, err)
	}

	return digest, nil
}

// HashReader streams r through the configured algorithm until EOF and
// returns the hex digest of everything read.
func (h Hasher) HashReader(r io.Reader) (string, error) {
	const errCtx = "hashing stream"

	digest, err := h.sum(r)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return digest, nil
}

// sum reads r to EOF in BufferSize blocks and folds every block into a
// fresh hash state. Reading explicitly keeps the block size in force
// even for sources with their own copy fast path, such as *os.File.
func (h Hasher) sum(r io.Reader) (string, error) {
	ha, err := h.Algorithm.newHash()
	if err != nil {
		return "", err
	}

	size := h.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}

	buf := make([]byte, size)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			ha.Write(buf[:n])
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(ha.Sum(nil)), nil
}

// DirectoryDigests hashes every regular file under root and returns
// one PathDigest per file, sorted by path in byte order. Paths are
// relative to root and slash-separated on every platform. Symbolic
// links inside the tree are skipped; a root that is itself a symlink
// to a directory is followed.
func (h Hasher) DirectoryDigests(root string) ([]PathDigest, error) {
	const errCtx = "hashing directory"

	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s %q: %w", errCtx, root, ErrNotDirectory)
	}

	digests := []PathDigest{}

	err = filepath.WalkDir(
		resolved,
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(resolved, path)
			if err != nil {
				return err
			}

			digest, err := h.HashFile(path)
			if err != nil {
				return err
			}

			digests = append(digests, PathDigest{
				Path:   filepath.ToSlash(rel),
				Digest: digest,
			})

			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	sort.Slice(digests, func(i, j int) bool {
		return digests[i].Path < digests[j].Path
	})

	slog.Debug(
		"hashed directory tree",
		"root", root,
		"algorithm", h.Algorithm.String(),
		"files", len(digests),
	)

	return digests, nil
}

// HashDigests folds path and digest pairs into one aggregate hex
// digest. Pairs are folded in byte order of their paths regardless of
// input order, so the aggregate depends only on the set itself. An
// empty set yields the algorithm's digest of no input.
func (h Hasher) HashDigests(digests []PathDigest) (string, error) {
	const errCtx = "hashing digest list"

	ha, err := h.Algorithm.newHash()
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	sorted := make([]PathDigest, len(digests))
	copy(sorted, digests)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	// NUL split keeps records unambiguous: paths cannot contain NUL
	// and digests are hex.
	for _, pd := range sorted {
		fmt.Fprintf(ha, "%s\x00%s\n", pd.Path, pd.Digest)
	}

	return hex.EncodeToString(ha.Sum(nil)), nil
}

// HashDirectory returns one aggregate hex digest for the tree under
// root, folding the per-file digests of DirectoryDigests with
// HashDigests. Two trees with the same relative paths and file
// contents hash identically; an empty directory hashes to the
// algorithm's digest of no input.
func (h Hasher) HashDirectory(root string) (string, error) {
	digests, err := h.DirectoryDigests(root)
	if err != nil {
		return "", err
	}

	return h.HashDigests(digests)
}

// HashFile hashes the file at path with a zero-value Hasher.
func HashFile(path string) (string, error) {
	return Hasher{}.HashFile(path)
}

// HashDirectory hashes the tree under root with a zero-value Hasher.
func HashDirectory(root string) (string, error) {
	return Hasher{}.HashDirectory(root)
}
