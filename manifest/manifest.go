package manifest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/schubergphilis/commonutilslib/hasher"
)

var (
	// ErrUnknownFormat is returned when a format name or value is
	// outside the supported set.
	ErrUnknownFormat = errors.New("unknown manifest format")

	// ErrAlgorithmMismatch is returned by Verify when the hasher's
	// algorithm differs from the one the manifest was built with.
	ErrAlgorithmMismatch = errors.New("manifest algorithm mismatch")
)

// Format selects a manifest encoding. The zero value is JSON.
type Format int

const (
	// JSON encodes manifests as indented JSON.
	JSON Format = iota

	// YAML encodes manifests as a single YAML document.
	YAML
)

// String returns the canonical lower-case name of the format.
func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps a format name to its Format value. Names are
// matched case-insensitively; "yml" is accepted for YAML.
func ParseFormat(name string) (Format, error) {
	const errCtx = "parsing manifest format"

	switch strings.ToLower(name) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return 0, fmt.Errorf("%s %q: %w", errCtx, name, ErrUnknownFormat)
	}
}

// FormatForPath picks the Format matching the extension of path:
// .yaml and .yml mean YAML, everything else means JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Manifest is the recorded content state of a directory tree. It is
// deterministic for a given tree: files are sorted by path and no
// timestamps or host details are included.
type Manifest struct {
	// Algorithm is the name of the digest algorithm every digest in
	// the manifest was computed with.
	Algorithm string `json:"algorithm" yaml:"algorithm"`

	// Aggregate is the tree digest folded from Files.
	Aggregate string `json:"aggregate" yaml:"aggregate"`

	// Files holds one digest per regular file, sorted by path.
	Files []hasher.PathDigest `json:"files" yaml:"files"`
}

// Build hashes the tree under root with ha and returns its manifest.
func Build(ha hasher.Hasher, root string) (*Manifest, error) {
	const errCtx = "building manifest"

	digests, err := ha.DirectoryDigests(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	aggregate, err := ha.HashDigests(digests)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &Manifest{
		Algorithm: ha.Algorithm.String(),
		Aggregate: aggregate,
		Files:     digests,
	}, nil
}

// Write encodes m to w in the given format.
func Write(w io.Writer, m *Manifest, f Format) error {
	const errCtx = "writing manifest"

	var (
		data []byte
		err  error
	)

	switch f {
	case JSON:
		data, err = json.MarshalIndent(m, "", "  ")
	case YAML:
		data, err = yaml.Marshal(m)
	default:
		return fmt.Errorf("%s: %s: %w", errCtx, f, ErrUnknownFormat)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	// yaml.Marshal ends with a newline, MarshalIndent does not
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Read decodes a manifest from r in the given format.
func Read(r io.Reader, f Format) (*Manifest, error) {
	const errCtx = "reading manifest"

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var m Manifest

	switch f {
	case JSON:
		err = json.Unmarshal(data, &m)
	case YAML:
		err = yaml.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("%s: %s: %w", errCtx, f, ErrUnknownFormat)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &m, nil
}

// Changes lists the paths whose digests differ between two manifests.
type Changes struct {
	// Added holds paths present only in the newer manifest.
	Added []string

	// Removed holds paths present only in the older manifest.
	Removed []string

	// Modified holds paths present in both with different digests.
	Modified []string
}

// Empty reports whether the two manifests agreed on every path.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 &&
		len(c.Removed) == 0 &&
		len(c.Modified) == 0
}

// Diff compares two manifests path by path. Files only in current are
// Added, files only in old are Removed, files in both whose digests
// differ are Modified. Every list comes back sorted.
func Diff(old, current *Manifest) Changes {
	oldDigests := make(map[string]string, len(old.Files))
	for _, pd := range old.Files {
		oldDigests[pd.Path] = pd.Digest
	}

	var ch Changes

	seen := make(map[string]bool, len(current.Files))

	for _, pd := range current.Files {
		seen[pd.Path] = true

		oldDigest, ok := oldDigests[pd.Path]

		switch {
		case !ok:
			ch.Added = append(ch.Added, pd.Path)
		case oldDigest != pd.Digest:
			ch.Modified = append(ch.Modified, pd.Path)
		}
	}

	for _, pd := range old.Files {
		if !seen[pd.Path] {
			ch.Removed = append(ch.Removed, pd.Path)
		}
	}

	sort.Strings(ch.Added)
	sort.Strings(ch.Removed)
	sort.Strings(ch.Modified)

	return ch
}

// Verify rebuilds the manifest of the tree under root with ha and
// diffs the stored manifest against it. The hasher must use the
// algorithm recorded in m; anything else is an ErrAlgorithmMismatch.
func Verify(ha hasher.Hasher, root string, m *Manifest) (Changes, error) {
	const errCtx = "verifying manifest"

	if name := ha.Algorithm.String(); name != m.Algorithm {
		return Changes{}, fmt.Errorf(
			"%s: manifest built with %s, verifying with %s: %w",
			errCtx, m.Algorithm, name, ErrAlgorithmMismatch,
		)
	}

	current, err := Build(ha, root)
	if err != nil {
		return Changes{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return Diff(m, current), nil
}
