package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/astrolabe/pkg/cache"
)

func TestCacheStatus(t *testing.T) {
	root := newDemoProject(t)

	before := decode[cache.Status](t, mustRun(t, root, "cache", "status", "--json"))
	assert.False(t, before.Valid)
	assert.Equal(t, cache.MissNoSnapshot, before.Reason)

	mustRun(t, root, "load")
	after := decode[cache.Status](t, mustRun(t, root, "cache", "status", "--json"))
	assert.True(t, after.Valid)
	assert.Equal(t, 3, after.Nodes)
	assert.Equal(t, 1, after.Artifacts)
	assert.Equal(t, after.StoredHash, after.CurrentHash)

	text := mustRun(t, root, "cache", "status")
	assert.Contains(t, text, "Snapshot is valid")
	assert.Contains(t, text, "Demo")
}

func TestCacheHash(t *testing.T) {
	root := newDemoProject(t)

	h := strings.TrimSpace(mustRun(t, root, "cache", "hash"))
	assert.Len(t, h, 64)
	assert.Equal(t, h, strings.TrimSpace(mustRun(t, root, "cache", "hash")), "hash is stable")

	artifact := filepath.Join(cache.ArtifactDir(root), "Demo", "Extra.ilean")
	require.NoError(t, os.WriteFile(artifact, []byte("{}"), 0o644))
	assert.NotEqual(t, h, strings.TrimSpace(mustRun(t, root, "cache", "hash")))
}

func TestCacheInvalidate(t *testing.T) {
	root := newDemoProject(t)
	mustRun(t, root, "load")
	snapshot := filepath.Join(root, cache.DefaultDataDir, cache.SnapshotFile)
	require.FileExists(t, snapshot)

	mustRun(t, root, "cache", "invalidate")
	assert.NoFileExists(t, snapshot)
	mustRun(t, root, "cache", "invalidate")

	out := mustRun(t, root, "load")
	assert.Contains(t, out, "snapshot miss: no_snapshot")
}

func TestCachePositions(t *testing.T) {
	root := newDemoProject(t)
	mustRun(t, root, "load")

	assert.JSONEq(t, `{}`, mustRun(t, root, "cache", "positions"))
	mustRun(t, root, "cache", "positions", "--set", "Demo.add=1,2")
	out := mustRun(t, root, "cache", "positions", "--set", "Demo.add_comm=3, 4")
	assert.JSONEq(t, `{"Demo.add":{"x":1,"y":2},"Demo.add_comm":{"x":3,"y":4}}`, out)

	status := decode[cache.Status](t, mustRun(t, root, "cache", "status", "--json"))
	assert.True(t, status.Valid, "positions do not invalidate the snapshot")

	_, err := run(t, root, "cache", "positions", "--set", "Demo.add")
	assert.Error(t, err)
}

func TestParsePosition2D(t *testing.T) {
	tests := []struct {
		in     string
		id     string
		want   cache.Position2D
		wantOK bool
	}{
		{"a=1,2", "a", cache.Position2D{X: 1, Y: 2}, true},
		{"Demo.x=-1.5, 0", "Demo.x", cache.Position2D{X: -1.5}, true},
		{"a", "", cache.Position2D{}, false},
		{"=1,2", "", cache.Position2D{}, false},
		{"a=1", "", cache.Position2D{}, false},
		{"a=x,2", "", cache.Position2D{}, false},
	}
	for _, tt := range tests {
		id, p, err := parsePosition2D(tt.in)
		if !tt.wantOK {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.id, id)
		assert.Equal(t, tt.want, p)
	}
}
