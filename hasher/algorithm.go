package hasher

import (
	"crypto/sha1" //nolint:gosec // G505: offered for digest compatibility, not signing
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
)

// ErrUnknownAlgorithm is returned when an algorithm name or value is
// outside the supported set.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// Algorithm selects the digest function used by a Hasher. The zero
// value is SHA256.
type Algorithm int

const (
	// SHA256 is the default algorithm.
	SHA256 Algorithm = iota

	// SHA1 is kept for compatibility with digests produced by older
	// tooling. Do not use it where collision resistance matters.
	SHA1

	// SHA512 produces 128-character digests.
	SHA512

	// BLAKE3 is the fastest of the supported algorithms on large
	// inputs and produces 64-character digests like SHA256.
	BLAKE3
)

// String returns the canonical lower-case name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case SHA256:
		return "sha256"
	case SHA1:
		return "sha1"
	case SHA512:
		return "sha512"
	case BLAKE3:
		return "blake3"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// ParseAlgorithm maps an algorithm name to its Algorithm value. Names
// are matched case-insensitively and dashes are ignored, so "SHA-256"
// and "sha256" both parse.
func ParseAlgorithm(name string) (Algorithm, error) {
	const errCtx = "parsing algorithm"

	switch strings.ReplaceAll(strings.ToLower(name), "-", "") {
	case "sha256":
		return SHA256, nil
	case "sha1":
		return SHA1, nil
	case "sha512":
		return SHA512, nil
	case "blake3":
		return BLAKE3, nil
	default:
		return 0, fmt.Errorf("%s %q: %w", errCtx, name, ErrUnknownAlgorithm)
	}
}

// newHash returns a fresh hash state for the algorithm.
func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case SHA256:
		return sha256.New(), nil
	case SHA1:
		return sha1.New(), nil //nolint:gosec // G401: see the SHA1 constant
	case SHA512:
		return sha512.New(), nil
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("%s: %w", a, ErrUnknownAlgorithm)
	}
}
