package cache

import (
	"encoding/json"
	"maps"
	"os"

	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/fsutil"
)

// Position2D is a node position stored alongside an old-style snapshot.
type Position2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GetPositions returns the positions stored in the snapshot file, or an empty
// map if there are none. The snapshot need not be valid.
func (c *GraphCache) GetPositions() map[string]Position2D {
	var raw struct {
		Positions map[string]Position2D `json:"positions"`
	}
	if err := fsutil.ReadJSON(c.file, &raw); err != nil {
		if !os.IsNotExist(err) {
			c.logger.Debug("cannot read snapshot positions", "path", c.file, "err", err)
		}
		return map[string]Position2D{}
	}
	if raw.Positions == nil {
		return map[string]Position2D{}
	}
	return raw.Positions
}

// UpdatePositions merges positions into the snapshot file's position map.
// Other snapshot keys are preserved. If no snapshot exists yet, a file
// holding only the positions is written; it will be treated as a miss until
// the next [GraphCache.Save].
func (c *GraphCache) UpdatePositions(positions map[string]Position2D) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}

	doc := map[string]json.RawMessage{}
	if err := fsutil.ReadJSON(c.file, &doc); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("snapshot unreadable, rewriting with positions only", "path", c.file, "err", err)
		doc = map[string]json.RawMessage{}
	}

	merged := c.GetPositions()
	maps.Copy(merged, positions)
	encoded, err := json.Marshal(merged)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode positions")
	}
	doc["positions"] = encoded

	if err := fsutil.WriteJSON(c.file, doc); err != nil {
		return errors.Wrap(errors.ErrCodeIOFailure, err, "write snapshot positions")
	}
	return nil
}
