package manifest_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/schubergphilis/commonutilslib/hasher"
	"github.com/schubergphilis/commonutilslib/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates name under dir with the given content, creating
// intermediate directories as needed. name uses forward slashes.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	pa := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(pa), 0o750))
	require.NoError(t, os.WriteFile(pa, []byte(content), 0o600))

	return pa
}

// sampleTree builds a small two-file tree and returns its root.
func sampleTree(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello")
	writeFile(t, dir, "sub/b.txt", "world")

	return dir
}

func TestBuild_records_tree_state(t *testing.T) {
	t.Parallel()

	dir := sampleTree(t)

	m, err := manifest.Build(hasher.Hasher{}, dir)
	require.NoError(t, err)

	aggregate, err := hasher.HashDirectory(dir)
	require.NoError(t, err)

	assert.Equal(t, "sha256", m.Algorithm)
	assert.Equal(t, aggregate, m.Aggregate)

	require.Len(t, m.Files, 2)
	assert.Equal(t, "a.txt", m.Files[0].Path)
	assert.Equal(t, "sub/b.txt", m.Files[1].Path)
}

func TestBuild_empty_tree(t *testing.T) {
	t.Parallel()

	m, err := manifest.Build(hasher.Hasher{}, t.TempDir())
	require.NoError(t, err)

	want, err := hasher.Hasher{}.HashDigests(nil)
	require.NoError(t, err)

	assert.Empty(t, m.Files)
	assert.Equal(t, want, m.Aggregate)
}

func TestBuild_missing_root(t *testing.T) {
	t.Parallel()

	_, err := manifest.Build(
		hasher.Hasher{},
		filepath.Join(t.TempDir(), "absent"),
	)

	require.Error(t, err)
}

func TestWrite_and_Read_json_round_trip(t *testing.T) {
	t.Parallel()

	m, err := manifest.Build(hasher.Hasher{}, sampleTree(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, manifest.Write(&buf, m, manifest.JSON))

	got, err := manifest.Read(&buf, manifest.JSON)

	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestWrite_and_Read_yaml_round_trip(t *testing.T) {
	t.Parallel()

	m, err := manifest.Build(
		hasher.Hasher{Algorithm: hasher.BLAKE3},
		sampleTree(t),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, manifest.Write(&buf, m, manifest.YAML))

	got, err := manifest.Read(&buf, manifest.YAML)

	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestWrite_json_layout(t *testing.T) {
	t.Parallel()

	m, err := manifest.Build(hasher.Hasher{}, sampleTree(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, manifest.Write(&buf, m, manifest.JSON))

	out := buf.String()

	assert.Contains(t, out, "\"algorithm\": \"sha256\"")
	assert.Contains(t, out, "\"path\": \"a.txt\"")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestWrite_yaml_layout(t *testing.T) {
	t.Parallel()

	m, err := manifest.Build(hasher.Hasher{}, sampleTree(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, manifest.Write(&buf, m, manifest.YAML))

	out := buf.String()

	assert.Contains(t, out, "algorithm: sha256")
	assert.Contains(t, out, "- path: a.txt")
}

func TestWrite_unknown_format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := manifest.Write(&buf, &manifest.Manifest{}, manifest.Format(9))

	require.Error(t, err)
	assert.ErrorIs(t, err, manifest.ErrUnknownFormat)
}

func TestRead_malformed_input(t *testing.T) {
	t.Parallel()

	_, err := manifest.Read(strings.NewReader("{not json"), manifest.JSON)

	require.Error(t, err)
}

func TestParseFormat_recognized_names(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want manifest.Format
	}{
		{name: "json", want: manifest.JSON},
		{name: "JSON", want: manifest.JSON},
		{name: "yaml", want: manifest.YAML},
		{name: "yml", want: manifest.YAML},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := manifest.ParseFormat(tt.name)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat_unknown_name(t *testing.T) {
	t.Parallel()

	_, err := manifest.ParseFormat("toml")

	require.Error(t, err)
	assert.ErrorIs(t, err, manifest.ErrUnknownFormat)
}

func TestFormatForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want manifest.Format
	}{
		{path: "tree.json", want: manifest.JSON},
		{path: "tree.yaml", want: manifest.YAML},
		{path: "tree.yml", want: manifest.YAML},
		{path: "TREE.YAML", want: manifest.YAML},
		{path: "tree.txt", want: manifest.JSON},
		{path: "manifest", want: manifest.JSON},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, manifest.FormatForPath(tt.path))
		})
	}
}

func TestDiff_sorts_changes_into_buckets(t *testing.T) {
	t.Parallel()

	old := &manifest.Manifest{
		Algorithm: "sha256",
		Files: []hasher.PathDigest{
			{Path: "changed.txt", Digest: "cc"},
			{Path: "gone.txt", Digest: "bb"},
			{Path: "keep.txt", Digest: "aa"},
		},
	}

	current := &manifest.Manifest{
		Algorithm: "sha256",
		Files: []hasher.PathDigest{
			{Path: "changed.txt", Digest: "dd"},
			{Path: "keep.txt", Digest: "aa"},
			{Path: "new.txt", Digest: "ee"},
		},
	}

	ch := manifest.Diff(old, current)

	assert.Equal(t, []string{"new.txt"}, ch.Added)
	assert.Equal(t, []string{"gone.txt"}, ch.Removed)
	assert.Equal(t, []string{"changed.txt"}, ch.Modified)
	assert.False(t, ch.Empty())
}

func TestDiff_identical_manifests(t *testing.T) {
	t.Parallel()

	m, err := manifest.Build(hasher.Hasher{}, sampleTree(t))
	require.NoError(t, err)

	ch := manifest.Diff(m, m)

	assert.True(t, ch.Empty())
	assert.Empty(t, ch.Added)
	assert.Empty(t, ch.Removed)
	assert.Empty(t, ch.Modified)
}

func TestVerify_untouched_tree(t *testing.T) {
	t.Parallel()

	dir := sampleTree(t)

	m, err := manifest.Build(hasher.Hasher{}, dir)
	require.NoError(t, err)

	ch, err := manifest.Verify(hasher.Hasher{}, dir, m)

	require.NoError(t, err)
	assert.True(t, ch.Empty())
}

func TestVerify_reports_drift(t *testing.T) {
	t.Parallel()

	dir := sampleTree(t)

	m, err := manifest.Build(hasher.Hasher{}, dir)
	require.NoError(t, err)

	require.NoError(
		t,
		os.WriteFile(
			filepath.Join(dir, "a.txt"), []byte("HELLO"), 0o600,
		),
	)
	require.NoError(t, os.Remove(filepath.Join(dir, "sub", "b.txt")))
	writeFile(t, dir, "c.txt", "fresh")

	ch, err := manifest.Verify(hasher.Hasher{}, dir, m)

	require.NoError(t, err)
	assert.Equal(t, []string{"c.txt"}, ch.Added)
	assert.Equal(t, []string{"sub/b.txt"}, ch.Removed)
	assert.Equal(t, []string{"a.txt"}, ch.Modified)
}

func TestVerify_algorithm_mismatch(t *testing.T) {
	t.Parallel()

	dir := sampleTree(t)

	m, err := manifest.Build(hasher.Hasher{}, dir)
	require.NoError(t, err)

	_, err = manifest.Verify(
		hasher.Hasher{Algorithm: hasher.BLAKE3}, dir, m,
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, manifest.ErrAlgorithmMismatch)
}
