package storage

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/graph"
	"github.com/matzehuels/astrolabe/pkg/observability"
)

type recordingHooks struct {
	observability.NoopStorageHooks
	mu         sync.Mutex
	migrations []string
	mutations  []string
	corrupt    int
}

func (h *recordingHooks) OnMigration(outcome string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.migrations = append(h.migrations, outcome)
}

func (h *recordingHooks) OnMutation(op string, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, op)
}

func (h *recordingHooks) OnOverlayCorrupt(string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.corrupt++
}

func useHooks(t *testing.T) *recordingHooks {
	t.Helper()
	h := &recordingHooks{}
	observability.SetStorageHooks(h)
	t.Cleanup(observability.Reset)
	return h
}

func writeJSON(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestMigration_FullCanvas(t *testing.T) {
	hooks := useHooks(t)
	o, l := paths(t)
	writeJSON(t, l, `{
		"version": "1.1",
		"visible_nodes": ["Module.theorem1", "Module.theorem2"],
		"positions": {"Module.theorem1": {"x": 1, "y": 2, "z": 3}},
		"viewport": {"camera_position": [10, 20, 30], "zoom": 1.5, "selected_node_id": "Module.theorem2"}
	}`)

	s := openAt(t, o, l)

	assert.Equal(t, MigrationMigrated, s.Migration())
	c := s.Canvas()
	assert.Equal(t, []string{thm1, thm2}, c.VisibleNodes)
	assert.Equal(t, map[string]Position{thm1: {X: 1, Y: 2, Z: 3}}, c.Positions)
	assert.Equal(t, [3]float64{10, 20, 30}, c.Viewport.CameraPosition)
	assert.Equal(t, DefaultCameraTarget, c.Viewport.CameraTarget)
	assert.Equal(t, 1.5, c.Viewport.Zoom)
	assert.Equal(t, thm2, c.Viewport.SelectedNodeID)

	assert.True(t, exists(l), "legacy file is never deleted automatically")
	doc := readFile(t, o)
	assert.Equal(t, true, doc["nodes"].(map[string]any)[thm1].(map[string]any)["visible"])
	assert.Equal(t, OverlayVersion, doc["version"])
	assert.Equal(t, []string{MigrationMigrated}, hooks.migrations)

	require.NoError(t, s.CleanupOldCanvas())
	assert.False(t, exists(l))
	before := s.Canvas()
	require.NoError(t, s.CleanupOldCanvas())
	assert.Equal(t, before, s.Canvas())

	again := openAt(t, o, l)
	assert.Equal(t, MigrationNone, again.Migration())
	assert.Equal(t, before, again.Canvas())
}

func TestMigration_Partial(t *testing.T) {
	o, l := paths(t)
	writeJSON(t, l, `{"visible_nodes": ["Module.theorem1"]}`)

	s := openAt(t, o, l)
	c := s.Canvas()
	assert.Equal(t, []string{thm1}, c.VisibleNodes)
	assert.Empty(t, c.Positions)
	assert.Equal(t, DefaultViewport(), c.Viewport)
}

func TestMigration_EmptyLegacy(t *testing.T) {
	o, l := paths(t)
	writeJSON(t, l, `{"version": "1.1", "visible_nodes": [], "positions": {}, "viewport": {}}`)

	s := openAt(t, o, l)
	assert.Equal(t, MigrationMigrated, s.Migration())
	assert.Empty(t, s.Canvas().VisibleNodes)
	require.NoError(t, s.CleanupOldCanvas())
}

func TestMigration_OverlayWins(t *testing.T) {
	hooks := useHooks(t)
	o, l := paths(t)
	writeJSON(t, o, `{
		"nodes": {"Module.theorem1": {"visible": true}},
		"edges": {},
		"canvas": {
			"positions": {"Module.theorem1": {"x": 100, "y": 200, "z": 300}},
			"viewport": {"camera_position": [1, 1, 1]}
		}
	}`)
	writeJSON(t, l, `{
		"version": "1.1",
		"visible_nodes": ["Module.theorem2"],
		"positions": {"Module.theorem2": {"x": 0, "y": 0, "z": 0}},
		"viewport": {"camera_position": [0, 0, 0]}
	}`)

	s := openAt(t, o, l)

	assert.Equal(t, MigrationSkipped, s.Migration())
	c := s.Canvas()
	assert.Equal(t, []string{thm1}, c.VisibleNodes)
	assert.Equal(t, map[string]Position{thm1: {X: 100, Y: 200, Z: 300}}, c.Positions)
	assert.Equal(t, [3]float64{1, 1, 1}, c.Viewport.CameraPosition)
	assert.Equal(t, []string{MigrationSkipped}, hooks.migrations)
	assert.Empty(t, hooks.mutations, "a skipped migration writes nothing")

	require.NoError(t, s.CleanupOldCanvas(), "overlay already holds canvas data")
	assert.False(t, exists(l))
}

func TestMigration_PreservesExistingMeta(t *testing.T) {
	o, l := paths(t)
	writeJSON(t, o, `{
		"nodes": {"Module.theorem1": {"notes": "# Important theorem", "size": 2.0}},
		"edges": {"Module.theorem1->Module.theorem2": {"style": "dashed"}}
	}`)
	writeJSON(t, l, `{"version": "1.1", "visible_nodes": ["Module.theorem1"], "positions": {}, "viewport": {}}`)

	s := openAt(t, o, l)

	m := s.NodeMeta(thm1)
	assert.Equal(t, "# Important theorem", m.Notes)
	assert.Equal(t, 2.0, m.Size)
	assert.True(t, m.Visible)
	assert.Equal(t, "dashed", s.EdgeMeta("Module.theorem1->Module.theorem2").Style)
}

func TestMigration_CorruptLegacy(t *testing.T) {
	hooks := useHooks(t)
	o, l := paths(t)
	writeJSON(t, l, "{ invalid json }")

	s := openAt(t, o, l)

	assert.Equal(t, MigrationFailed, s.Migration())
	assert.Empty(t, s.Canvas().VisibleNodes)
	assert.Equal(t, []string{MigrationFailed}, hooks.migrations)

	err := s.CleanupOldCanvas()
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidOperation), "unmigrated legacy data must not be removed")
	assert.True(t, exists(l))
}

func TestMigration_NotRepeatedAfterClear(t *testing.T) {
	o, l := paths(t)
	writeJSON(t, l, `{"visible_nodes": ["Module.theorem1"]}`)

	s := openAt(t, o, l)
	require.Equal(t, []string{thm1}, s.Canvas().VisibleNodes)
	require.NoError(t, s.Clear())

	again := openAt(t, o, l)
	assert.Equal(t, MigrationSkipped, again.Migration())
	assert.Empty(t, again.Canvas().VisibleNodes)
}

func TestMigration_AfterMetaOnlyEdits(t *testing.T) {
	o, l := paths(t)

	s := openAt(t, o, l)
	require.Equal(t, MigrationNone, s.Migration())
	require.NoError(t, s.UpdateNodeMeta(thm1, NodePatch{Notes: Ptr("checked")}))
	require.NoError(t, s.UpdateEdgeMeta(graph.EdgeID(thm1, lemma), EdgePatch{Style: Ptr("dashed")}))
	assert.NotContains(t, readFile(t, o), "canvas", "meta edits store no canvas bucket")

	writeJSON(t, l, `{
		"visible_nodes": ["Module.theorem1", "Module.theorem2"],
		"positions": {"Module.theorem1": {"x": 4, "y": 5, "z": 6}}
	}`)

	again := openAt(t, o, l)
	assert.Equal(t, MigrationMigrated, again.Migration())
	c := again.Canvas()
	assert.Equal(t, []string{thm1, thm2}, c.VisibleNodes)
	assert.Equal(t, map[string]Position{thm1: {X: 4, Y: 5, Z: 6}}, c.Positions)
	assert.Equal(t, "checked", again.NodeMeta(thm1).Notes)
	require.NoError(t, again.CleanupOldCanvas())
	assert.False(t, exists(l))
}

func TestMigration_RetriedAfterRepairedLegacy(t *testing.T) {
	o, l := paths(t)
	writeJSON(t, l, "{ truncated")

	s := openAt(t, o, l)
	require.Equal(t, MigrationFailed, s.Migration())
	require.NoError(t, s.UpdateNodeMeta(thm2, NodePatch{Pinned: Ptr(true)}))

	writeJSON(t, l, `{"visible_nodes": ["Module.lemma1"]}`)
	again := openAt(t, o, l)
	assert.Equal(t, MigrationMigrated, again.Migration())
	assert.Equal(t, []string{lemma}, again.Canvas().VisibleNodes)
	assert.True(t, again.NodeMeta(thm2).Pinned)
}

func TestMigration_EmptyLegacyNotRepeated(t *testing.T) {
	o, l := paths(t)
	writeJSON(t, l, `{"visible_nodes": [], "positions": {}, "viewport": {}}`)

	s := openAt(t, o, l)
	require.Equal(t, MigrationMigrated, s.Migration())
	assert.Equal(t, true, readFile(t, o)["legacy_migrated"])

	again := openAt(t, o, l)
	assert.Equal(t, MigrationSkipped, again.Migration())
}

func TestCleanupOldCanvas_NoLegacy(t *testing.T) {
	s := newStore(t)
	assert.NoError(t, s.CleanupOldCanvas())
	assert.NoError(t, s.CleanupOldCanvas())
}

func TestOverlayCorruptHook(t *testing.T) {
	hooks := useHooks(t)
	o, l := paths(t)
	writeJSON(t, o, "[]")

	s := openAt(t, o, l)
	require.NoError(t, s.UpdatePositions(map[string]Position{thm1: {X: 1}}))

	assert.Equal(t, 1, hooks.corrupt)
	assert.Equal(t, []string{"update_positions"}, hooks.mutations)
}
