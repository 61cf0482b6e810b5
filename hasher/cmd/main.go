// Package main provides the treehash CLI that digests files,
// directory trees and stdin, writes tree manifests, and verifies
// trees against stored manifests.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/valyala/fasttemplate"

	"github.com/schubergphilis/commonutilslib/hasher"
	"github.com/schubergphilis/commonutilslib/manifest"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

func run() error {
	const errCtx = "treehash"

	var (
		algorithmName  string
		bufferSize     int
		list           bool
		lineFormat     string
		manifestFile   string
		manifestFormat string
		verifyFile     string
	)

	flag.StringVar(
		&algorithmName, "algorithm", "sha256",
		"digest algorithm: sha1, sha256, sha512 or blake3"+
			" (-verify uses the manifest's algorithm instead)",
	)

	flag.IntVar(
		&bufferSize, "buffer-size", hasher.DefaultBufferSize,
		"read buffer size in bytes",
	)

	flag.BoolVar(
		&list, "list", false,
		"print one line per file instead of the aggregate"+
			" (directories only)",
	)

	flag.StringVar(
		&lineFormat, "format", "{digest}  {path}",
		"line template for -list; tags: {digest}, {path}, {algorithm}",
	)

	flag.StringVar(
		&manifestFile, "manifest", "",
		"write a manifest of the directory tree to this file",
	)

	flag.StringVar(
		&manifestFormat, "manifest-format", "",
		"manifest encoding: json or yaml (default: by file extension)",
	)

	flag.StringVar(
		&verifyFile, "verify", "",
		"verify the directory tree against this manifest file",
	)

	flag.Parse()

	if flag.NArg() != 1 {
		return fmt.Errorf(
			"%s: expected exactly one PATH argument, got %d",
			errCtx, flag.NArg(),
		)
	}

	path := flag.Arg(0)

	modeCount := 0

	if list {
		modeCount++
	}

	if manifestFile != "" {
		modeCount++
	}

	if verifyFile != "" {
		modeCount++
	}

	if modeCount > 1 {
		return fmt.Errorf(
			"%s: -list, -manifest and -verify are mutually exclusive",
			errCtx,
		)
	}

	algorithm, err := hasher.ParseAlgorithm(algorithmName)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	ha := hasher.Hasher{
		Algorithm:  algorithm,
		BufferSize: bufferSize,
	}

	if path == "-" {
		if modeCount > 0 {
			return fmt.Errorf(
				"%s: -list, -manifest and -verify"+
					" do not apply to stdin",
				errCtx,
			)
		}

		digest, err := ha.HashReader(os.Stdin)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		fmt.Println(digest)

		return nil
	}

	switch {
	case verifyFile != "":
		return verifyTree(path, verifyFile, manifestFormat, bufferSize)
	case manifestFile != "":
		return writeManifest(ha, path, manifestFile, manifestFormat)
	case list:
		return listTree(ha, path, lineFormat)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	var digest string

	if info.IsDir() {
		digest, err = ha.HashDirectory(path)
	} else {
		digest, err = ha.HashFile(path)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	fmt.Println(digest)

	return nil
}

// pickFormat resolves the manifest encoding from an explicit format
// name, falling back to the manifest file extension.
func pickFormat(file, formatName string) (manifest.Format, error) {
	if formatName == "" {
		return manifest.FormatForPath(file), nil
	}

	return manifest.ParseFormat(formatName)
}

// listTree prints one templated line per file under root.
func listTree(ha hasher.Hasher, root, lineFormat string) error {
	const errCtx = "listing tree digests"

	tpl, err := fasttemplate.NewTemplate(lineFormat, "{", "}")
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	digests, err := ha.DirectoryDigests(root)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, pd := range digests {
		fmt.Println(tpl.ExecuteString(map[string]any{
			"path":      pd.Path,
			"digest":    pd.Digest,
			"algorithm": ha.Algorithm.String(),
		}))
	}

	return nil
}

// writeManifest builds the manifest of the tree under root and writes
// it to outFile.
func writeManifest(
	ha hasher.Hasher,
	root, outFile, formatName string,
) error {
	const errCtx = "writing tree manifest"

	f, err := pickFormat(outFile, formatName)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	m, err := manifest.Build(ha, root)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	fo, err := os.Create(outFile) //nolint:gosec // path from CLI flag
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer fo.Close() //nolint:errcheck // best-effort close

	if err := manifest.Write(fo, m, f); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// verifyTree checks the tree under root against a stored manifest,
// printing one status line per drifted path. The hash algorithm comes
// from the manifest itself so any -algorithm flag value is irrelevant
// here.
func verifyTree(
	root, manifestFile, formatName string,
	bufferSize int,
) error {
	const errCtx = "verifying tree"

	f, err := pickFormat(manifestFile, formatName)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	fi, err := os.Open(manifestFile) //nolint:gosec // path from CLI flag
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer fi.Close() //nolint:errcheck // best-effort close

	m, err := manifest.Read(fi, f)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	algorithm, err := hasher.ParseAlgorithm(m.Algorithm)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	ha := hasher.Hasher{
		Algorithm:  algorithm,
		BufferSize: bufferSize,
	}

	changes, err := manifest.Verify(ha, root, m)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if changes.Empty() {
		fmt.Printf(
			"%s %s matches %s (%d files)\n",
			green("✔"), root, manifestFile, len(m.Files),
		)

		return nil
	}

	for _, pa := range changes.Added {
		fmt.Printf("%s %s\n", green("+"), pa)
	}

	for _, pa := range changes.Removed {
		fmt.Printf("%s %s\n", red("-"), pa)
	}

	for _, pa := range changes.Modified {
		fmt.Printf("%s %s\n", yellow("~"), pa)
	}

	return fmt.Errorf(
		"%s: %s differs from %s: %d added, %d removed, %d modified",
		errCtx, root, manifestFile,
		len(changes.Added), len(changes.Removed), len(changes.Modified),
	)
}

func main() {
	if err := run(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
