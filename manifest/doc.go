// Package manifest records and checks the content state of directory
// trees. A Manifest holds one digest per file plus the aggregate over
// all of them, encodes to JSON or YAML, and diffs against another
// manifest or against the tree on disk, reporting added, removed and
// modified paths.
package manifest
