// Package tempdir provides a scoped temporary directory. Enter creates a
// uniquely-named directory under the platform temp root and changes into it;
// Close restores the previous working directory first and then deletes the
// directory tree, adding the owner write bit to read-only entries that would
// otherwise block deletion.
//
// Close errors propagate to the caller rather than being swallowed; with a
// deferred Close the usual pattern is to log them. Like pushd, a scope
// manipulates the process-wide working directory and is not safe for
// concurrent use.
package tempdir
