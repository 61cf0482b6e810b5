// Package pushd temporarily changes the process working directory, bash
// pushd style. Enter records the current directory and changes into the
// target; Restore puts the original directory back. The working directory is
// process-wide mutable state, so scopes are not safe for concurrent use.
package pushd
