package cache

import "errors"

// ErrCacheMiss is returned by [GraphCache.LoadOrMiss] when no valid snapshot
// exists. A miss is an expected outcome, not a failure.
var ErrCacheMiss = errors.New("cache miss")

// MissReason explains why a snapshot could not be used.
type MissReason string

const (
	// MissNone indicates the snapshot is valid.
	MissNone MissReason = ""

	// MissNoArtifacts indicates no tracked build artifacts exist, so the
	// snapshot cannot be validated.
	MissNoArtifacts MissReason = "no_artifacts"

	// MissNoSnapshot indicates the snapshot file does not exist.
	MissNoSnapshot MissReason = "no_snapshot"

	// MissCorrupt indicates the snapshot file could not be read or parsed.
	MissCorrupt MissReason = "corrupt"

	// MissVersion indicates the snapshot was written by another format version.
	MissVersion MissReason = "version_mismatch"

	// MissHashChanged indicates the build artifacts changed since the snapshot.
	MissHashChanged MissReason = "hash_changed"
)
