package octree

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	pc "go.viam.com/octreelib/pointcloud"
)

// MultiPoseOctree is an octree whose points remember the pose they were observed from. All poses share
// one tree: routing, subdivision and filtering look at the union of the points, while the per-pose
// queries only count what a given pose contributed.
type MultiPoseOctree struct {
	*tree[pc.PosePoint]
}

// NewMultiPoseOctree creates an empty multi-pose octree covering box.
func NewMultiPoseOctree(cfg Config, box pc.Box, logger golog.Logger) (*MultiPoseOctree, error) {
	t, err := newTree[pc.PosePoint](cfg, box, logger, poseTagging{})
	if err != nil {
		return nil, err
	}
	return &MultiPoseOctree{tree: t}, nil
}

// InsertPoints routes tagged points into the tree. Points outside of the tree's box, max faces
// excepted, are dropped.
func (octree *MultiPoseOctree) InsertPoints(points pc.PosePointCloud) {
	octree.insert(points)
}

// InsertPosePoints tags points with pose and inserts them.
func (octree *MultiPoseOctree) InsertPosePoints(pose int, points pc.PointCloud) {
	octree.insert(points.WithPose(pose))
}

// PosePoints returns all points with their tags.
func (octree *MultiPoseOctree) PosePoints() pc.PosePointCloud {
	return octree.root.allPoints()
}

// Poses returns the poses that still have points in the tree, in ascending order.
func (octree *MultiPoseOctree) Poses() []int {
	return octree.PosePoints().Poses()
}

// PointsForPose returns the points of pose.
func (octree *MultiPoseOctree) PointsForPose(pose int) pc.PointCloud {
	return octree.PosePoints().ForPose(pose).WithoutPoses()
}

// NPointsForPose returns the number of points of pose.
func (octree *MultiPoseOctree) NPointsForPose(pose int) int {
	total := 0
	octree.root.visitLeaves(func(leaf *node[pc.PosePoint]) {
		total += pc.PosePointCloud(leaf.points).CountPose(pose)
	})
	return total
}

// NLeavesForPose returns the number of leaves holding at least one point of pose.
func (octree *MultiPoseOctree) NLeavesForPose(pose int) int {
	total := 0
	octree.root.visitLeaves(func(leaf *node[pc.PosePoint]) {
		if pc.PosePointCloud(leaf.points).HasPose(pose) {
			total++
		}
	})
	return total
}

// NNodesForPose returns the number of nodes of the tree pose would have on its own: the leaves holding
// the pose together with every internal node above them.
func (octree *MultiPoseOctree) NNodesForPose(pose int) int {
	return nNodesForPose(octree.root, pose)
}

func nNodesForPose(n *node[pc.PosePoint], pose int) int {
	if n.isLeaf() {
		if pc.PosePointCloud(n.points).HasPose(pose) {
			return 1
		}
		return 0
	}
	total := 0
	for _, child := range n.children {
		total += nNodesForPose(child, pose)
	}
	if total == 0 {
		return 0
	}
	return total + 1
}

// LeafPointsForPose returns a voxel for every leaf holding points of pose, with only those points in it.
func (octree *MultiPoseOctree) LeafPointsForPose(pose int) []*pc.Voxel {
	var out []*pc.Voxel
	octree.root.visitLeaves(func(leaf *node[pc.PosePoint]) {
		points := pc.PosePointCloud(leaf.points).ForPose(pose)
		if len(points) > 0 {
			out = append(out, pc.NewVoxel(leaf.box, points.WithoutPoses()))
		}
	})
	return out
}

type poseTagging struct{}

func (poseTagging) position(p pc.PosePoint) r3.Vector {
	return p.P
}

func (poseTagging) untagged(points []pc.PosePoint) pc.PointCloud {
	return pc.PosePointCloud(points).WithoutPoses()
}

// mapPoints applies fn to each pose's points separately, poses in ascending order, and tags the
// results back.
func (poseTagging) mapPoints(points []pc.PosePoint, fn Transform) []pc.PosePoint {
	cloud := pc.PosePointCloud(points)
	grouped := cloud.GroupByPose()
	var out pc.PosePointCloud
	for _, pose := range cloud.Poses() {
		out = append(out, fn(grouped[pose]).WithPose(pose)...)
	}
	return out
}
