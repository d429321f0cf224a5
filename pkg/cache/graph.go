package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/fsutil"
	"github.com/matzehuels/astrolabe/pkg/graph"
	"github.com/matzehuels/astrolabe/pkg/observability"
)

// Version is the snapshot format version. Snapshots written with another
// version are ignored.
const Version = "1.0"

// Default file layout under the project root.
const (
	DefaultDataDir = ".astrolabe"
	SnapshotFile   = "graph.json"
	LegacyConfig   = "config.json"
)

// Options configures a [GraphCache].
type Options struct {
	// DataDir is the per-project data directory relative to the project root.
	// Defaults to DefaultDataDir.
	DataDir string

	// ExcludedLibraries lists dependency library names whose artifacts are
	// never hashed. Defaults to DefaultExcludedLibraries.
	ExcludedLibraries []string

	// Logger receives debug output about misses and writes. Defaults to
	// log.Default().
	Logger *log.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.DataDir == "" {
		o.DataDir = DefaultDataDir
	}
	if o.ExcludedLibraries == nil {
		o.ExcludedLibraries = DefaultExcludedLibraries
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// GraphCache persists a snapshot of a project's structural graph in
// <root>/<DataDir>/graph.json, keyed by a hash of the project's build
// artifacts.
//
// Every read path degrades to "no data": a missing, unreadable or stale
// snapshot is a miss, never an error. Only writes return errors.
//
// GraphCache holds no in-memory state besides its configuration and is safe
// for concurrent reads. Concurrent writers to the same project must be
// serialized by the caller.
type GraphCache struct {
	root     string
	dir      string
	file     string
	excluded map[string]bool
	logger   *log.Logger
	now      func() time.Time
}

// New returns a cache for the project rooted at root.
func New(root string, opts Options) *GraphCache {
	opts.SetDefaults()
	excluded := make(map[string]bool, len(opts.ExcludedLibraries))
	for _, name := range opts.ExcludedLibraries {
		excluded[name] = true
	}
	dir := filepath.Join(root, opts.DataDir)
	return &GraphCache{
		root:     root,
		dir:      dir,
		file:     filepath.Join(dir, SnapshotFile),
		excluded: excluded,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// Path returns the snapshot file path.
func (c *GraphCache) Path() string { return c.file }

// Dir returns the project data directory.
func (c *GraphCache) Dir() string { return c.dir }

// ProjectName returns the library name used to locate the project's own
// build artifacts.
func (c *GraphCache) ProjectName() string { return ProjectName(c.root) }

// snapshot is the on-disk format of graph.json.
type snapshot struct {
	Version     string                `json:"version"`
	GeneratedAt string                `json:"generated_at"`
	Hash        string                `json:"hash"`
	Nodes       []graph.Node          `json:"nodes"`
	Edges       []graph.Edge          `json:"edges"`
	Positions   map[string]Position2D `json:"positions,omitempty"`
}

// EnsureDir creates the data directory. If a regular file occupies the data
// directory path (an old single-file config), its content is moved to
// <DataDir>/config.json first.
func (c *GraphCache) EnsureDir() error {
	info, err := os.Stat(c.dir)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		old, err := os.ReadFile(c.dir)
		if err != nil {
			return errors.Wrap(errors.ErrCodeIOFailure, err, "read legacy data file")
		}
		if err := os.Remove(c.dir); err != nil {
			return errors.Wrap(errors.ErrCodeIOFailure, err, "remove legacy data file")
		}
		if err := os.MkdirAll(c.dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeIOFailure, err, "create data dir")
		}
		if err := fsutil.WriteFileAtomic(filepath.Join(c.dir, LegacyConfig), old, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeIOFailure, err, "write migrated config")
		}
		c.logger.Info("migrated legacy data file", "to", filepath.Join(c.dir, LegacyConfig))
		return nil
	case os.IsNotExist(err):
		if err := os.MkdirAll(c.dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeIOFailure, err, "create data dir")
		}
		return nil
	default:
		return errors.Wrap(errors.ErrCodeIOFailure, err, "stat data dir")
	}
}

// ComputeHash hashes modification time and size of every build artifact
// belonging to the current project. Artifacts of excluded dependency
// libraries are ignored. It returns "" if no artifacts exist or the build
// directory cannot be read.
func (c *GraphCache) ComputeHash() string {
	hash, _ := c.computeHash()
	return hash
}

func (c *GraphCache) computeHash() (string, int) {
	start := time.Now()
	project := c.ProjectName()
	files, err := collectArtifacts(ArtifactDir(c.root), project, c.excluded)
	if err != nil {
		c.logger.Warn("cannot hash build artifacts", "project", project, "err", err)
		return "", 0
	}
	observability.Cache().OnHashComputed(c.root, len(files), time.Since(start))
	return hashArtifacts(files), len(files)
}

// Status describes the snapshot and why it is or is not usable.
type Status struct {
	Valid       bool       `json:"valid"`
	Reason      MissReason `json:"reason,omitempty"`
	Path        string     `json:"path"`
	Version     string     `json:"version,omitempty"`
	GeneratedAt string     `json:"generated_at,omitempty"`
	StoredHash  string     `json:"stored_hash,omitempty"`
	CurrentHash string     `json:"current_hash,omitempty"`
	Artifacts   int        `json:"artifacts"`
	Nodes       int        `json:"nodes"`
	Edges       int        `json:"edges"`
}

// Status inspects the snapshot without loading it into a graph.
func (c *GraphCache) Status() Status {
	s, _ := c.check()
	return s
}

func (c *GraphCache) check() (Status, *snapshot) {
	st := Status{Path: c.file}

	data, err := os.ReadFile(c.file)
	if err != nil {
		if os.IsNotExist(err) {
			st.Reason = MissNoSnapshot
		} else {
			c.logger.Debug("cannot read snapshot", "path", c.file, "err", err)
			st.Reason = MissCorrupt
		}
		return st, nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Debug("cannot parse snapshot", "path", c.file, "err", err)
		st.Reason = MissCorrupt
		return st, nil
	}
	st.Version = snap.Version
	st.GeneratedAt = snap.GeneratedAt
	st.StoredHash = snap.Hash
	st.Nodes = len(snap.Nodes)
	st.Edges = len(snap.Edges)

	if snap.Version != Version {
		st.Reason = MissVersion
		return st, &snap
	}

	st.CurrentHash, st.Artifacts = c.computeHash()
	switch {
	case st.CurrentHash == "":
		st.Reason = MissNoArtifacts
	case st.CurrentHash != snap.Hash:
		st.Reason = MissHashChanged
	default:
		st.Valid = true
	}
	return st, &snap
}

// IsValid reports whether a snapshot exists, has the current format version
// and was taken from the current build artifacts.
func (c *GraphCache) IsValid() bool {
	return c.Status().Valid
}

// Load returns the snapshot's nodes and edges if it is valid. Runtime-only
// node fields (proof status, content) are reset rather than restored.
func (c *GraphCache) Load() ([]graph.Node, []graph.Edge, bool) {
	g, st := c.LoadWithStatus()
	if !st.Valid {
		return nil, nil, false
	}
	return g.Nodes, g.Edges, true
}

// LoadWithStatus is Load that also reports the snapshot status, so callers
// can tell why a snapshot was not used without hashing the artifacts twice.
func (c *GraphCache) LoadWithStatus() (graph.Graph, Status) {
	st, snap := c.check()
	if !st.Valid {
		c.logger.Debug("graph cache miss", "reason", st.Reason, "path", c.file)
		observability.Cache().OnCacheMiss(c.root, string(st.Reason))
		return graph.Graph{}, st
	}

	nodes := snap.Nodes
	if nodes == nil {
		nodes = []graph.Node{}
	}
	for i := range nodes {
		nodes[i].ResetRuntime()
		if nodes[i].References == nil {
			nodes[i].References = []string{}
		}
	}
	edges := snap.Edges
	if edges == nil {
		edges = []graph.Edge{}
	}

	c.logger.Debug("graph cache hit", "nodes", len(nodes), "edges", len(edges))
	observability.Cache().OnCacheHit(c.root, len(nodes))
	return graph.Graph{Nodes: nodes, Edges: edges}, st
}

// LoadOrMiss is Load for callers that want an error value: it returns
// ErrCacheMiss when no valid snapshot exists.
func (c *GraphCache) LoadOrMiss() (graph.Graph, error) {
	nodes, edges, ok := c.Load()
	if !ok {
		return graph.Graph{}, ErrCacheMiss
	}
	return graph.Graph{Nodes: nodes, Edges: edges}, nil
}

// Save writes a snapshot of nodes and edges keyed by the current artifact
// hash. Proof status and content are not written. Positions stored by
// [GraphCache.UpdatePositions] are preserved.
func (c *GraphCache) Save(nodes []graph.Node, edges []graph.Edge) error {
	if err := c.EnsureDir(); err != nil {
		observability.Cache().OnCacheSave(c.root, 0, err)
		return err
	}

	snap := snapshot{
		Version:     Version,
		GeneratedAt: c.now().UTC().Format(time.RFC3339Nano),
		Hash:        c.ComputeHash(),
		Nodes:       make([]graph.Node, len(nodes)),
		Edges:       edges,
		Positions:   c.GetPositions(),
	}
	copy(snap.Nodes, nodes)
	for i := range snap.Nodes {
		snap.Nodes[i].Status = ""
		snap.Nodes[i].Content = ""
	}
	if snap.Edges == nil {
		snap.Edges = []graph.Edge{}
	}
	if len(snap.Positions) == 0 {
		snap.Positions = nil
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot")
	}
	if err := fsutil.WriteFileAtomic(c.file, data, 0o644); err != nil {
		observability.Cache().OnCacheSave(c.root, 0, err)
		return errors.Wrap(errors.ErrCodeIOFailure, err, "write snapshot %s", c.file)
	}

	observability.Cache().OnCacheSave(c.root, len(data), nil)
	c.logger.Debug("saved graph snapshot", "nodes", len(nodes), "edges", len(edges), "bytes", len(data))
	return nil
}

// Invalidate deletes the snapshot file. It is a no-op if the file is absent.
func (c *GraphCache) Invalidate() error {
	err := os.Remove(c.file)
	if err == nil {
		c.logger.Debug("graph cache invalidated", "path", c.file)
		return nil
	}
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(errors.ErrCodeIOFailure, err, "remove snapshot")
}

// String implements fmt.Stringer for log output.
func (s Status) String() string {
	if s.Valid {
		return fmt.Sprintf("valid (%d nodes, %d edges)", s.Nodes, s.Edges)
	}
	return fmt.Sprintf("miss: %s", s.Reason)
}
