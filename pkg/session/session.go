// Package session remembers which projects were opened and when.
//
// A [Session] is keyed by the project's absolute path and records the last
// time it was opened. The CLI lists them with "astrolabe recent" so a user can
// jump back into a project without retyping its path.
//
// # Storage
//
// [FileStore] keeps one JSON file per project under
// ~/.config/astrolabe/sessions/ (or $XDG_CONFIG_HOME/astrolabe/sessions/).
// The file name is the first 16 hex digits of the SHA-256 of the path, so
// paths never need escaping:
//
//	store, err := session.NewFileStore("")
//	if err != nil {
//	    return err
//	}
//	sess, err := store.Touch(ctx, "/home/me/proofs", "Proofs")
//
// Sessions are advisory. Losing one only drops it from the recent list.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/astrolabe/pkg/cache"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("not found")

// IDLength is the number of hex digits of the path hash used as session id.
const IDLength = 16

// Session records one project's open history.
type Session struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Project   string    `json:"project"`
	Opens     int       `json:"opens"`
	CreatedAt time.Time `json:"created_at"`
	OpenedAt  time.Time `json:"opened_at"`
}

// Exists reports whether the project directory is still present.
func (s *Session) Exists() bool {
	return dirExists(s.Path)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves the session of a project path.
	// Returns nil, nil if the session doesn't exist.
	Get(ctx context.Context, path string) (*Session, error)

	// Touch records an open of path now, creating the session if needed.
	Touch(ctx context.Context, path, project string) (*Session, error)

	// Delete removes the session of a project path.
	Delete(ctx context.Context, path string) error

	// List returns all sessions, most recently opened first.
	List(ctx context.Context) ([]Session, error)

	// Cleanup removes sessions whose project directory no longer exists.
	Cleanup(ctx context.Context) (int, error)
}

// ID returns the session id of a project path.
func ID(path string) string {
	return cache.Hash([]byte(path))[:IDLength]
}
