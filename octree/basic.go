package octree

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	pc "go.viam.com/octreelib/pointcloud"
)

// BasicOctree is an octree of untagged points.
type BasicOctree struct {
	*tree[r3.Vector]
}

// NewBasicOctree creates an empty basic octree covering box.
func NewBasicOctree(cfg Config, box pc.Box, logger golog.Logger) (*BasicOctree, error) {
	t, err := newTree[r3.Vector](cfg, box, logger, basicTagging{})
	if err != nil {
		return nil, err
	}
	return &BasicOctree{tree: t}, nil
}

// InsertPoints routes points into the tree. Points outside of the tree's box, max faces excepted,
// are dropped.
func (octree *BasicOctree) InsertPoints(points pc.PointCloud) {
	octree.insert(points)
}

type basicTagging struct{}

func (basicTagging) position(p r3.Vector) r3.Vector {
	return p
}

func (basicTagging) untagged(points []r3.Vector) pc.PointCloud {
	return points
}

func (basicTagging) mapPoints(points []r3.Vector, fn Transform) []r3.Vector {
	return fn(points)
}
