package session

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/astrolabe/pkg/fsutil"
)

// FileStore is a file-based session store for CLI applications.
// Sessions are stored as JSON files in a config directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	now     func() time.Time
}

// DefaultDir returns $XDG_CONFIG_HOME/astrolabe/sessions, falling back to
// ~/.config/astrolabe/sessions.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "astrolabe", "sessions"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "astrolabe", "sessions"), nil
}

// NewFileStore creates a new file-based session store.
// If baseDir is empty, defaults to [DefaultDir].
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir, now: time.Now}, nil
}

// WithClock replaces the store's clock. It is meant for tests.
func (s *FileStore) WithClock(now func() time.Time) *FileStore {
	s.now = now
	return s
}

func (s *FileStore) sessionPath(path string) string {
	return filepath.Join(s.baseDir, ID(path)+".json")
}

func (s *FileStore) read(file string) (*Session, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &sess, nil
}

func (s *FileStore) write(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.sessionPath(sess.Path), data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, path string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.sessionPath(path))
}

func (s *FileStore) Touch(ctx context.Context, path, project string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	sess, err := s.read(s.sessionPath(path))
	if err != nil || sess == nil {
		// An unreadable session is replaced rather than reported.
		sess = &Session{ID: ID(path), Path: path, CreatedAt: now}
	}
	if project != "" {
		sess.Project = project
	}
	sess.Opens++
	sess.OpenedAt = now
	if err := s.write(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *FileStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.sessionPath(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read session dir: %w", err)
	}
	var out []Session
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		sess, err := s.read(filepath.Join(s.baseDir, entry.Name()))
		if err != nil || sess == nil {
			continue
		}
		out = append(out, *sess)
	}
	slices.SortFunc(out, func(a, b Session) int {
		return cmp.Or(b.OpenedAt.Compare(a.OpenedAt), cmp.Compare(a.Path, b.Path))
	})
	return out, nil
}

func (s *FileStore) Cleanup(ctx context.Context) (int, error) {
	sessions, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, sess := range sessions {
		if sess.Exists() {
			continue
		}
		if err := os.Remove(s.sessionPath(sess.Path)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Path returns the base directory for session files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
