// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about load pipelines, graph cache use and overlay writes.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The Prometheus implementation lives in the [prom] subpackage and is
// registered by the CLI.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetCacheHooks(prom.NewCacheHooks(reg))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Cache().OnCacheMiss(project, "hash_changed")
//
// [prom]: github.com/matzehuels/astrolabe/pkg/observability/prom
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the project load pipeline.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, project string)
	OnLoadComplete(ctx context.Context, project string, nodes, edges int, cached bool, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the graph snapshot cache.
type CacheHooks interface {
	// OnCacheHit records a snapshot served from disk.
	OnCacheHit(project string, nodes int)

	// OnCacheMiss records why a snapshot could not be used.
	OnCacheMiss(project, reason string)

	// OnCacheSave records a snapshot write.
	OnCacheSave(project string, size int, err error)

	// OnHashComputed records one artifact hash computation.
	OnHashComputed(project string, files int, duration time.Duration)
}

// =============================================================================
// Storage Hooks
// =============================================================================

// StorageHooks receives events from the overlay store.
type StorageHooks interface {
	// OnMutation records one persisted overlay mutation.
	OnMutation(op string, duration time.Duration, err error)

	// OnOverlayCorrupt records an unreadable overlay file replaced by defaults.
	OnOverlayCorrupt(path string, err error)

	// OnMigration records the outcome of a legacy canvas migration attempt.
	OnMigration(outcome string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string) {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, int, bool, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(string, int)                    {}
func (NoopCacheHooks) OnCacheMiss(string, string)                {}
func (NoopCacheHooks) OnCacheSave(string, int, error)            {}
func (NoopCacheHooks) OnHashComputed(string, int, time.Duration) {}

// NoopStorageHooks is a no-op implementation of StorageHooks.
type NoopStorageHooks struct{}

func (NoopStorageHooks) OnMutation(string, time.Duration, error) {}
func (NoopStorageHooks) OnOverlayCorrupt(string, error)          {}
func (NoopStorageHooks) OnMigration(string)                      {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	storageHooks  StorageHooks  = NoopStorageHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetStorageHooks registers custom storage hooks.
// This should be called once at application startup before any store is opened.
func SetStorageHooks(h StorageHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storageHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Storage returns the registered storage hooks.
func Storage() StorageHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storageHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	storageHooks = NoopStorageHooks{}
}
