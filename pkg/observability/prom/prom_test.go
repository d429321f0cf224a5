package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/astrolabe/pkg/observability"
)

func TestCacheHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewCacheHooks(reg)

	h.OnCacheHit("/p", 10)
	h.OnCacheHit("/p", 10)
	h.OnCacheMiss("/p", "hash_changed")
	h.OnCacheSave("/p", 2048, nil)
	h.OnCacheSave("/p", 0, errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(h.hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.misses.WithLabelValues("hash_changed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.saves.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.saves.WithLabelValues("error")))
}

func TestStorageHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewStorageHooks(reg)

	h.OnMutation("set_positions", time.Millisecond, nil)
	h.OnMutation("delete_edge", time.Millisecond, errors.New("structural"))
	h.OnOverlayCorrupt("/p/.astrolabe/meta.json", errors.New("bad json"))
	h.OnMigration("migrated")

	assert.Equal(t, 1.0, testutil.ToFloat64(h.mutations.WithLabelValues("set_positions", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.mutations.WithLabelValues("delete_edge", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.corrupt))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.migration.WithLabelValues("migrated")))
}

func TestPipelineHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewPipelineHooks(reg)

	h.OnLoadComplete(context.Background(), "/p", 42, 80, true, time.Second, nil)
	h.OnLoadComplete(context.Background(), "/p", 0, 0, false, time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(h.loads.WithLabelValues("cache", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.loads.WithLabelValues("extractor", "error")))
	assert.Equal(t, 42.0, testutil.ToFloat64(h.nodes))
}

func TestRegisterInstallsGlobalHooks(t *testing.T) {
	t.Cleanup(observability.Reset)
	reg := prometheus.NewRegistry()

	Register(reg)

	_, ok := observability.Cache().(*CacheHooks)
	require.True(t, ok, "Cache() should return prom hooks")
	_, ok = observability.Storage().(*StorageHooks)
	require.True(t, ok, "Storage() should return prom hooks")

	observability.Cache().OnCacheMiss("/p", "no_snapshot")
	n, err := testutil.GatherAndCount(reg, "astrolabe_graph_cache_misses_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
