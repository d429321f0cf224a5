package storage

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/fsutil"
	"github.com/matzehuels/astrolabe/pkg/graph"
	"github.com/matzehuels/astrolabe/pkg/observability"
)

// File names under a project's data directory.
const (
	OverlayFile      = "meta.json"
	LegacyCanvasFile = "canvas.json"
)

// Migration outcomes reported by [Store.Migration].
const (
	MigrationNone     = "none"     // no legacy file
	MigrationSkipped  = "skipped"  // overlay holds canvas data or was migrated before
	MigrationFailed   = "failed"   // legacy file unreadable
	MigrationMigrated = "migrated" // legacy data copied and persisted
	MigrationUnsaved  = "unsaved"  // legacy data copied but the write failed
)

// Options configures a [Store].
type Options struct {
	// LegacyCanvasPath is the old standalone canvas file. Empty disables
	// migration.
	LegacyCanvasPath string

	// Logger defaults to log.Default().
	Logger *log.Logger

	// Now returns the current time, used for generated user node ids.
	// Defaults to time.Now.
	Now func() time.Time
}

// Store is the single mutable store of a project: a read-only structural
// skeleton joined at query time with a persisted overlay of node and edge
// meta, canvas state and user-authored nodes and edges.
//
// Every mutation is a full read-modify-write of the overlay file, replaced
// atomically and serialized by a per-store mutex. If the write fails the
// in-memory overlay is left unchanged, so memory always matches the last
// successful write.
type Store struct {
	mu sync.RWMutex

	path       string
	legacyPath string
	logger     *log.Logger
	now        func() time.Time

	skeleton  graph.Graph
	nodeIndex map[string]int
	edgeIndex map[string]int

	ov        *overlay
	migration string
	lastID    int64
}

// errNoChange aborts a mutation without writing.
var errNoChange = stderrors.New("no change")

// Open builds a store over skeleton with the overlay file at path.
//
// A missing overlay starts empty. An unreadable overlay is logged and
// replaced by an empty one; it is overwritten by the next mutation. If the
// overlay owns no canvas data and the legacy canvas file parses, its data is
// migrated and persisted immediately. The legacy file is left in place until
// [Store.CleanupOldCanvas].
func Open(skeleton graph.Graph, path string, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Store{
		path:       path,
		legacyPath: opts.LegacyCanvasPath,
		logger:     opts.Logger,
		now:        opts.Now,
		migration:  MigrationNone,
	}
	s.setSkeleton(skeleton)
	s.ov = s.read()
	s.migrateLegacy()
	return s
}

// Path returns the overlay file path.
func (s *Store) Path() string { return s.path }

// Migration returns the outcome of the legacy canvas migration attempted
// when the store was opened.
func (s *Store) Migration() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.migration
}

func (s *Store) setSkeleton(g graph.Graph) {
	s.skeleton = graph.Graph{Nodes: slices.Clone(g.Nodes), Edges: slices.Clone(g.Edges)}
	s.nodeIndex = make(map[string]int, len(g.Nodes))
	for i, n := range s.skeleton.Nodes {
		if _, dup := s.nodeIndex[n.ID]; !dup {
			s.nodeIndex[n.ID] = i
		}
	}
	s.edgeIndex = make(map[string]int, len(g.Edges))
	for i, e := range s.skeleton.Edges {
		if _, dup := s.edgeIndex[e.ID()]; !dup {
			s.edgeIndex[e.ID()] = i
		}
	}
}

// SetSkeleton replaces the structural skeleton after a reload. The overlay is
// kept as it is.
func (s *Store) SetSkeleton(g graph.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSkeleton(g)
}

// read loads the overlay file, degrading to an empty overlay.
func (s *Store) read() *overlay {
	ov := newOverlay()
	if err := fsutil.ReadJSON(s.path, ov); err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("overlay unreadable, using defaults", "path", s.path, "err", err)
			observability.Storage().OnOverlayCorrupt(s.path, errors.Wrap(errors.ErrCodeOverlayCorrupt, err, "read overlay"))
		}
		return newOverlay()
	}
	ov.normalize()
	if ov.Version == "" {
		ov.Version = OverlayVersion
	}
	return ov
}

// Reload re-reads the overlay file, discarding in-memory state. It is used
// after the file was changed by another process.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ov = s.read()
}

func (s *Store) migrateLegacy() {
	if s.legacyPath == "" {
		return
	}
	var legacy legacyCanvas
	if err := fsutil.ReadJSON(s.legacyPath, &legacy); err != nil {
		if os.IsNotExist(err) {
			return
		}
		s.migration = MigrationFailed
		s.logger.Warn("legacy canvas unreadable, migration skipped", "path", s.legacyPath,
			"err", errors.Wrap(errors.ErrCodeMigrationSkipped, err, "read legacy canvas"))
		observability.Storage().OnMigration(s.migration)
		return
	}
	if s.ov.LegacyMigrated || s.ov.hasCanvasData() {
		s.migration = MigrationSkipped
		s.logger.Debug("overlay already has canvas data, legacy canvas ignored",
			"path", s.legacyPath, "migrated_before", s.ov.LegacyMigrated)
		observability.Storage().OnMigration(s.migration)
		return
	}

	next := s.ov.clone()
	next.migrate(legacy)
	if err := s.write(next); err != nil {
		// Keep the migrated view for this session; the legacy file stays the
		// durable copy.
		s.ov = next
		s.migration = MigrationUnsaved
		s.logger.Warn("migrated legacy canvas but could not persist it", "err", err)
		observability.Storage().OnMigration(s.migration)
		return
	}
	s.ov = next
	s.migration = MigrationMigrated
	s.logger.Info("migrated legacy canvas", "visible", len(legacy.VisibleNodes), "positions", len(legacy.Positions))
	observability.Storage().OnMigration(s.migration)
}

func (s *Store) write(ov *overlay) error {
	if err := fsutil.WriteJSON(s.path, ov); err != nil {
		return errors.Wrap(errors.ErrCodeIOFailure, err, "write overlay %s", s.path)
	}
	return nil
}

// mutate applies fn to a copy of the overlay and persists it. The copy
// replaces the in-memory overlay only after a successful write.
func (s *Store) mutate(op string, fn func(ov *overlay) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	next := s.ov.clone()
	if err := fn(next); err != nil {
		if stderrors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	next.Version = OverlayVersion

	err := s.write(next)
	observability.Storage().OnMutation(op, time.Since(start), err)
	if err != nil {
		s.logger.Error("overlay write failed", "op", op, "err", err)
		return err
	}
	s.ov = next
	s.logger.Debug("overlay updated", "op", op)
	return nil
}

// CleanupOldCanvas deletes the legacy canvas file. It refuses while the
// overlay file on disk neither records a finished migration nor holds canvas
// data of its own, so legacy data is never removed before its migrated copy
// is durable. Calling it again after a
// successful cleanup is a no-op.
func (s *Store) CleanupOldCanvas() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.legacyPath == "" {
		return nil
	}
	if _, err := os.Stat(s.legacyPath); os.IsNotExist(err) {
		return nil
	}

	var onDisk overlay
	if err := fsutil.ReadJSON(s.path, &onDisk); err != nil || !(onDisk.LegacyMigrated || onDisk.hasCanvasData()) {
		return errors.New(errors.ErrCodeInvalidOperation,
			"canvas data is not persisted in %s; keeping %s", filepath.Base(s.path), filepath.Base(s.legacyPath))
	}
	if err := os.Remove(s.legacyPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeIOFailure, err, "remove legacy canvas")
	}
	s.logger.Info("removed legacy canvas", "path", s.legacyPath)
	return nil
}

// Clear wipes all overlay data: node and edge meta, canvas state and user
// nodes and edges. The legacy canvas file is not touched and will not be
// migrated again.
func (s *Store) Clear() error {
	return s.mutate("clear", func(ov *overlay) error {
		migrated := ov.LegacyMigrated
		*ov = *newOverlay()
		ov.LegacyMigrated = migrated
		return nil
	})
}
