// Package octree implements an octree representation of pointclouds. The tree covers a fixed cubic
// region and only splits a leaf into its eight octants when a subdivision criterion asks for it, so the
// shape of the tree is driven by the caller's policy rather than by a fixed capacity per node.
//
// Two variants are provided: a basic octree storing bare points, and a multi-pose octree whose points
// carry the pose (the scan or source) they came from so that a single tree can answer per-pose queries.
package octree

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	pc "go.viam.com/octreelib/pointcloud"
)

// Octree is a data structure that recursively partitions 3D space into octants. Points are kept at the
// leaves; internal nodes always have eight children.
type Octree interface {
	// Box returns the region covered by the tree. It never changes.
	Box() pc.Box
	// Subdivide splits every leaf on which any criterion holds, recursively.
	Subdivide(criteria ...Criterion)
	// Filter empties every leaf on which not all criteria hold and prunes subtrees left without points.
	Filter(criteria ...Criterion)
	// MapLeafPoints replaces the points of every non-empty leaf with fn applied to them.
	MapLeafPoints(fn Transform)
	PointsInBox(box pc.Box) pc.PointCloud
	Points() pc.PointCloud
	// LeafPoints returns a voxel for every non-empty leaf.
	LeafPoints() []*pc.Voxel
	// LeafNodePoints returns the points of every leaf, empty ones included.
	LeafNodePoints() []pc.PointCloud
	NPoints() int
	NLeaves() int
	NNodes() int
	// Validate checks the structure of the tree.
	Validate() error
}

// Config describes how an octree behaves.
type Config struct {
	// Debug validates the tree and logs its counts after every change.
	Debug bool `json:"debug"`
}

// Type selects the octree variant.
type Type string

const (
	// TypeBasic stores untagged points.
	TypeBasic Type = "basic"
	// TypeMultiPose stores points tagged with their pose.
	TypeMultiPose Type = "multi_pose"
)

// Validate returns an error for unknown types.
func (t Type) Validate() error {
	switch t {
	case TypeBasic, TypeMultiPose:
		return nil
	default:
		return errors.Errorf("unknown octree type %q", t)
	}
}

// New creates an empty octree of the given type covering box.
func New(typ Type, cfg Config, box pc.Box, logger golog.Logger) (Octree, error) {
	switch typ {
	case TypeBasic:
		return NewBasicOctree(cfg, box, logger)
	case TypeMultiPose:
		return NewMultiPoseOctree(cfg, box, logger)
	default:
		return nil, typ.Validate()
	}
}

// Insert adds points to an octree of any variant. Multi-pose octrees tag them with pose, basic ones
// ignore it.
func Insert(o Octree, pose int, points pc.PointCloud) error {
	switch t := o.(type) {
	case *BasicOctree:
		t.InsertPoints(points)
	case *MultiPoseOctree:
		t.InsertPosePoints(pose, points)
	default:
		return errors.Errorf("cannot insert points into octree of type %T", o)
	}
	return nil
}

// tree holds what both variants share: the configuration, the logger and the root node.
type tree[P any] struct {
	cfg    Config
	logger golog.Logger
	root   *node[P]
}

func newTree[P any](cfg Config, box pc.Box, logger golog.Logger, tags tagging[P]) (*tree[P], error) {
	if _, err := pc.NewBox(box.Corner, box.EdgeLength); err != nil {
		return nil, errors.Wrap(err, "cannot create octree")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &tree[P]{
		cfg:    cfg,
		logger: logger,
		root:   newLeafNode(tags, box),
	}, nil
}

// Box returns the region covered by the tree.
func (t *tree[P]) Box() pc.Box {
	return t.root.box
}

// insert adds the points accepted by the root box, max faces included, and drops the rest.
func (t *tree[P]) insert(points []P) {
	accepted := make([]P, 0, len(points))
	for _, p := range points {
		if t.root.box.ContainsClosed(t.root.tags.position(p)) {
			accepted = append(accepted, p)
		}
	}
	if dropped := len(points) - len(accepted); dropped > 0 {
		t.logger.Debugw("dropping points outside of the octree", "dropped", dropped, "box", t.root.box)
	}
	t.mutate("insert", func() { t.root.insertPoints(accepted) })
}

// Subdivide splits every leaf on which any criterion holds, recursively.
func (t *tree[P]) Subdivide(criteria ...Criterion) {
	t.mutate("subdivide", func() { t.root.subdivide(criteria) })
}

// Filter empties every leaf on which not all criteria hold and prunes subtrees left without points.
func (t *tree[P]) Filter(criteria ...Criterion) {
	t.mutate("filter", func() { t.root.filter(criteria) })
}

// MapLeafPoints replaces the points of every non-empty leaf with fn applied to them.
func (t *tree[P]) MapLeafPoints(fn Transform) {
	t.mutate("map leaf points", func() { t.root.mapLeafPoints(fn) })
}

// PointsInBox returns the points lying in box.
func (t *tree[P]) PointsInBox(box pc.Box) pc.PointCloud {
	return t.root.tags.untagged(t.root.pointsInBox(box))
}

// Points returns all points of the tree.
func (t *tree[P]) Points() pc.PointCloud {
	return t.root.tags.untagged(t.root.allPoints())
}

// LeafPoints returns a voxel for every non-empty leaf.
func (t *tree[P]) LeafPoints() []*pc.Voxel {
	var out []*pc.Voxel
	t.root.visitLeaves(func(leaf *node[P]) {
		if len(leaf.points) > 0 {
			out = append(out, pc.NewVoxel(leaf.box, leaf.tags.untagged(leaf.points).Copy()))
		}
	})
	return out
}

// LeafNodePoints returns the points of every leaf, empty ones included.
func (t *tree[P]) LeafNodePoints() []pc.PointCloud {
	var out []pc.PointCloud
	t.root.visitLeaves(func(leaf *node[P]) {
		out = append(out, leaf.tags.untagged(leaf.points).Copy())
	})
	return out
}

// NPoints returns the number of points stored.
func (t *tree[P]) NPoints() int {
	return t.root.nPoints()
}

// NLeaves returns the number of leaves, empty ones included.
func (t *tree[P]) NLeaves() int {
	return t.root.nLeaves()
}

// NNodes returns the number of nodes.
func (t *tree[P]) NNodes() int {
	return t.root.nNodes()
}

// Validate checks the structure of the tree.
func (t *tree[P]) Validate() error {
	return t.root.validate()
}

func (t *tree[P]) mutate(op string, fn func()) {
	if !t.cfg.Debug {
		fn()
		return
	}
	points, leaves, nodes := t.NPoints(), t.NLeaves(), t.NNodes()
	fn()
	t.logger.Debugw(op,
		"points", points, "leaves", leaves, "nodes", nodes,
		"points_after", t.NPoints(), "leaves_after", t.NLeaves(), "nodes_after", t.NNodes())
	if err := t.Validate(); err != nil {
		t.logger.Errorw("octree is invalid", "op", op, "error", err)
	}
}
