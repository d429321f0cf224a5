package project

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/pipeline"
	"github.com/matzehuels/astrolabe/pkg/session"
)

// Handle is one loaded project held by a [Registry].
type Handle struct {
	// ID identifies this load in logs. A reopened project gets a new ID.
	ID string

	// Root is the cleaned absolute project path.
	Root string

	// OpenedAt is when the load finished.
	OpenedAt time.Time

	*pipeline.Result
}

// Options configures a [Registry].
type Options struct {
	// Load is the template for every load. Root is filled per call.
	Load pipeline.Options

	// Sessions records every successful open. Nil disables recording.
	Sessions session.Store

	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Registry maps project paths to loaded projects.
//
// At most one instance exists per path: concurrent Opens of the same path
// share a single load, and later Opens return the loaded instance until it is
// evicted. The registry is owned by whoever serves projects; nothing in this
// module keeps a global one.
type Registry struct {
	mu      sync.RWMutex
	flight  singleflight.Group
	handles map[string]*Handle

	runner   *pipeline.Runner
	template pipeline.Options
	sessions session.Store
	logger   *log.Logger
}

// NewRegistry creates an empty registry that loads projects with runner.
func NewRegistry(runner *pipeline.Runner, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(opts.Logger)
	}
	return &Registry{
		handles:  make(map[string]*Handle),
		runner:   runner,
		template: opts.Load,
		sessions: opts.Sessions,
		logger:   opts.Logger,
	}
}

// Clean resolves path to the absolute, cleaned key used by the registry.
func Clean(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.ErrCodeInvalidPath, "project path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %q", path)
	}
	if err := errors.ValidateProjectPath(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// Open returns the loaded project at path, loading it on first use.
func (r *Registry) Open(ctx context.Context, path string) (*Handle, error) {
	root, err := Clean(path)
	if err != nil {
		return nil, err
	}
	if h, ok := r.Get(root); ok {
		return h, nil
	}

	v, err, shared := r.flight.Do(root, func() (any, error) {
		if h, ok := r.Get(root); ok {
			return h, nil
		}
		if !dirExists(root) {
			return nil, errors.New(errors.ErrCodeNotFound, "project directory %q does not exist", root)
		}
		return r.load(ctx, root, r.template)
	})
	if err != nil {
		return nil, err
	}
	h := v.(*Handle)
	if shared {
		r.logger.Debug("joined in-flight load", "root", root, "handle", h.ID)
	}
	return h, nil
}

func (r *Registry) load(ctx context.Context, root string, opts pipeline.Options) (*Handle, error) {
	id := uuid.NewString()
	opts.Root = root
	opts.Logger = r.logger.With("handle", id[:8])

	res, err := r.runner.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	h := &Handle{ID: id, Root: root, OpenedAt: time.Now(), Result: res}

	r.mu.Lock()
	r.handles[root] = h
	r.mu.Unlock()

	if r.sessions != nil {
		if _, err := r.sessions.Touch(ctx, root, res.Project); err != nil {
			r.logger.Warn("cannot record session", "root", root, "err", err)
		}
	}
	return h, nil
}

// Refresh re-extracts the project at path while keeping its store.
//
// A loaded project is reanalyzed in place and its store re-reads the overlay
// file, picking up changes other processes made since the load. A project
// that is not loaded yet is loaded with the snapshot skipped. Concurrent
// refreshes of one path share a single run. The handle's Result must not be
// read while a refresh of it is running.
func (r *Registry) Refresh(ctx context.Context, path string) (*Handle, error) {
	root, err := Clean(path)
	if err != nil {
		return nil, err
	}
	v, err, _ := r.flight.Do("refresh:"+root, func() (any, error) {
		h, ok := r.Get(root)
		if !ok {
			if !dirExists(root) {
				return nil, errors.New(errors.ErrCodeNotFound, "project directory %q does not exist", root)
			}
			opts := r.template
			opts.Refresh = true
			return r.load(ctx, root, opts)
		}

		opts := r.template
		opts.Root = root
		opts.Logger = r.logger.With("handle", h.ID[:8])
		if err := r.runner.Reanalyze(ctx, h.Result, opts); err != nil {
			return nil, err
		}
		h.Store.Reload()
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// Get returns the loaded project at root without loading it.
func (r *Registry) Get(root string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[root]
	return h, ok
}

// Evict drops the project at path from the registry. It reports whether a
// project was loaded. The next Open reloads it from disk.
func (r *Registry) Evict(path string) bool {
	root, err := Clean(path)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[root]; !ok {
		return false
	}
	delete(r.handles, root)
	r.flight.Forget(root)
	r.logger.Debug("evicted project", "root", root)
	return true
}

// Paths returns the roots of all loaded projects, sorted.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handles))
	for root := range r.handles {
		out = append(out, root)
	}
	slices.Sort(out)
	return out
}

// Reset deletes the whole data directory of the project at path (snapshot,
// overlay and legacy canvas) and evicts it. The next Open extracts from
// scratch and starts with an empty overlay.
func (r *Registry) Reset(path string) error {
	root, err := Clean(path)
	if err != nil {
		return err
	}
	opts := r.template
	opts.SetDefaults()
	r.Evict(root)
	return Reset(root, opts.DataDir)
}

// Reset deletes root/dataDir. It is safe to call when the directory is
// absent.
func Reset(root, dataDir string) error {
	if err := pipeline.ValidateDataDir(dataDir); err != nil {
		return err
	}
	dir := filepath.Join(root, dataDir)
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrap(errors.ErrCodeIOFailure, err, "remove %s", dir)
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
