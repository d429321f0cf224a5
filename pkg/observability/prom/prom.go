// Package prom implements the observability hooks with Prometheus metrics.
//
// Metrics are registered on a caller-supplied registry so that tests and the
// CLI each get an isolated set:
//
//	reg := prometheus.NewRegistry()
//	prom.Register(reg)
//	// ... run
//	prometheus.WriteToTextfile(path, reg)
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/astrolabe/pkg/observability"
)

const namespace = "astrolabe"

// Register creates all hook implementations on reg and installs them in the
// global observability registry.
func Register(reg prometheus.Registerer) {
	observability.SetPipelineHooks(NewPipelineHooks(reg))
	observability.SetCacheHooks(NewCacheHooks(reg))
	observability.SetStorageHooks(NewStorageHooks(reg))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// =============================================================================
// Pipeline
// =============================================================================

// PipelineHooks records load counts and durations.
type PipelineHooks struct {
	loads    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	nodes    prometheus.Gauge
}

// NewPipelineHooks registers pipeline metrics on reg.
func NewPipelineHooks(reg prometheus.Registerer) *PipelineHooks {
	f := promauto.With(reg)
	return &PipelineHooks{
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Project loads by source and outcome",
		}, []string{"source", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent loading a project graph",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		nodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Node count of the most recently loaded graph",
		}),
	}
}

func (h *PipelineHooks) OnLoadStart(context.Context, string) {}

func (h *PipelineHooks) OnLoadComplete(_ context.Context, _ string, nodes, _ int, cached bool, d time.Duration, err error) {
	source := "extractor"
	if cached {
		source = "cache"
	}
	h.loads.WithLabelValues(source, outcome(err)).Inc()
	h.duration.WithLabelValues(source).Observe(d.Seconds())
	if err == nil {
		h.nodes.Set(float64(nodes))
	}
}

// =============================================================================
// Cache
// =============================================================================

// CacheHooks records graph cache hits, misses and writes.
type CacheHooks struct {
	hits      prometheus.Counter
	misses    *prometheus.CounterVec
	saves     *prometheus.CounterVec
	saveBytes prometheus.Histogram
	hashTime  prometheus.Histogram
	hashFiles prometheus.Histogram
}

// NewCacheHooks registers cache metrics on reg.
func NewCacheHooks(reg prometheus.Registerer) *CacheHooks {
	f := promauto.With(reg)
	return &CacheHooks{
		hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_cache_hits_total",
			Help:      "Snapshots served from disk",
		}),
		misses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_cache_misses_total",
			Help:      "Snapshot misses by reason",
		}, []string{"reason"}),
		saves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_cache_saves_total",
			Help:      "Snapshot writes by outcome",
		}, []string{"outcome"}),
		saveBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_cache_snapshot_bytes",
			Help:      "Size of written snapshots",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		hashTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_cache_hash_duration_seconds",
			Help:      "Time spent computing the artifact hash",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		hashFiles: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_cache_hash_file_count",
			Help:      "Number of artifacts included in the hash",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}),
	}
}

func (h *CacheHooks) OnCacheHit(string, int) { h.hits.Inc() }

func (h *CacheHooks) OnCacheMiss(_ string, reason string) {
	h.misses.WithLabelValues(reason).Inc()
}

func (h *CacheHooks) OnCacheSave(_ string, size int, err error) {
	h.saves.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		h.saveBytes.Observe(float64(size))
	}
}

func (h *CacheHooks) OnHashComputed(_ string, files int, d time.Duration) {
	h.hashTime.Observe(d.Seconds())
	h.hashFiles.Observe(float64(files))
}

// =============================================================================
// Storage
// =============================================================================

// StorageHooks records overlay mutations and read-path degradations.
type StorageHooks struct {
	mutations *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	corrupt   prometheus.Counter
	migration *prometheus.CounterVec
}

// NewStorageHooks registers storage metrics on reg.
func NewStorageHooks(reg prometheus.Registerer) *StorageHooks {
	f := promauto.With(reg)
	return &StorageHooks{
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_mutations_total",
			Help:      "Overlay mutations by operation and outcome",
		}, []string{"op", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overlay_write_duration_seconds",
			Help:      "Time spent persisting an overlay mutation",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"op"}),
		corrupt: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_corrupt_total",
			Help:      "Overlay files that failed to parse and were replaced by defaults",
		}),
		migration: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "canvas_migrations_total",
			Help:      "Legacy canvas migration attempts by outcome",
		}, []string{"outcome"}),
	}
}

func (h *StorageHooks) OnMutation(op string, d time.Duration, err error) {
	h.mutations.WithLabelValues(op, outcome(err)).Inc()
	h.duration.WithLabelValues(op).Observe(d.Seconds())
}

func (h *StorageHooks) OnOverlayCorrupt(string, error) { h.corrupt.Inc() }

func (h *StorageHooks) OnMigration(outcome string) {
	h.migration.WithLabelValues(outcome).Inc()
}

var (
	_ observability.PipelineHooks = (*PipelineHooks)(nil)
	_ observability.CacheHooks    = (*CacheHooks)(nil)
	_ observability.StorageHooks  = (*StorageHooks)(nil)
)
