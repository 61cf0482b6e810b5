// Package hasher computes content digests for files and directory trees.
//
// A Hasher streams file contents through a configurable algorithm (SHA-256
// by default; SHA-1, SHA-512 and BLAKE3 are available) in fixed-size blocks,
// so large files never load into memory whole. Directory trees hash
// deterministically: every regular file below the root is hashed on its own,
// and the (relative path, file digest) pairs, sorted by path in byte order,
// are folded into one aggregate digest. Two trees with identical relative
// paths and file contents therefore produce identical digests no matter how
// the filesystem lists them.
//
// Symbolic links are skipped during traversal: neither followed nor hashed.
// Files modified while hashing yield best-effort snapshots; no locks are
// taken.
package hasher
