package octree

import (
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	pc "go.viam.com/octreelib/pointcloud"
)

func createMultiPoseOctree(t *testing.T) *MultiPoseOctree {
	t.Helper()
	octree, err := NewMultiPoseOctree(Config{Debug: true}, testBox, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	octree.InsertPosePoints(0, testPoints0)
	octree.InsertPosePoints(1, testPoints1)
	return octree
}

func TestMultiPoseOctreeInsert(t *testing.T) {
	octree := createMultiPoseOctree(t)

	test.That(t, octree.NPoints(), test.ShouldEqual, 10)
	test.That(t, octree.Poses(), test.ShouldResemble, []int{0, 1})
	test.That(t, octree.NPointsForPose(0), test.ShouldEqual, 5)
	test.That(t, octree.NPointsForPose(1), test.ShouldEqual, 5)
	test.That(t, octree.NPointsForPose(2), test.ShouldEqual, 0)
	test.That(t, octree.PointsForPose(1), test.ShouldResemble, testPoints1)
	test.That(t, octree.Points(), test.ShouldResemble, testPoints0.Extend(testPoints1))

	// everything sits in the root
	test.That(t, octree.NLeavesForPose(0), test.ShouldEqual, 1)
	test.That(t, octree.NNodesForPose(0), test.ShouldEqual, 1)
	test.That(t, octree.NLeavesForPose(2), test.ShouldEqual, 0)
	test.That(t, octree.NNodesForPose(2), test.ShouldEqual, 0)

	t.Run("tagged points can be inserted directly", func(t *testing.T) {
		o, err := NewMultiPoseOctree(Config{}, testBox, golog.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		o.InsertPoints(pc.PosePointCloud{
			pc.NewPosePoint(1, 1, 1, 3),
			pc.NewPosePoint(2, 2, 2, 4),
			pc.NewPosePoint(30, 2, 2, 4),
		})
		test.That(t, o.Poses(), test.ShouldResemble, []int{3, 4})
		test.That(t, o.PosePoints(), test.ShouldResemble, pc.PosePointCloud{
			pc.NewPosePoint(1, 1, 1, 3),
			pc.NewPosePoint(2, 2, 2, 4),
		})
	})
}

func TestMultiPoseOctreeSubdivide(t *testing.T) {
	octree := createMultiPoseOctree(t)
	octree.Subdivide(MoreThan(2))

	// subdivision looks at the union of both poses
	test.That(t, octree.NPoints(), test.ShouldEqual, 10)
	test.That(t, octree.NLeaves(), test.ShouldEqual, 29)
	test.That(t, octree.NNodes(), test.ShouldEqual, 33)
	test.That(t, octree.Validate(), test.ShouldBeNil)
	validateNode(t, octree.root, testBox)

	test.That(t, octree.NPointsForPose(0), test.ShouldEqual, 5)
	test.That(t, octree.NPointsForPose(1), test.ShouldEqual, 5)
	test.That(t, octree.NLeavesForPose(0), test.ShouldEqual, 4)
	test.That(t, octree.NLeavesForPose(1), test.ShouldEqual, 5)
	test.That(t, octree.NNodesForPose(0), test.ShouldEqual, 8)
	test.That(t, octree.NNodesForPose(1), test.ShouldEqual, 9)

	test.That(t, octree.PointsForPose(1), test.ShouldResemble, pc.PointCloud{
		pc.NewVector(1, 0, 1),
		pc.NewVector(0, 2, 3),
		pc.NewVector(4, 0, 2),
		pc.NewVector(9, 3, 8),
		pc.NewVector(5, 9, 9),
	})

	leaves := octree.LeafPointsForPose(1)
	test.That(t, len(leaves), test.ShouldEqual, 5)
	test.That(t, leaves[0].Box, test.ShouldResemble, pc.Box{Corner: pc.NewVector(0, 0, 0), EdgeLength: 1.25})
	test.That(t, leaves[0].Points, test.ShouldResemble, pc.PointCloud{pc.NewVector(1, 0, 1)})

	all := octree.LeafPoints()
	test.That(t, len(all), test.ShouldEqual, 7)
	test.That(t, all[0].Points, test.ShouldResemble, pc.PointCloud{pc.NewVector(0, 0, 1), pc.NewVector(1, 0, 1)})
}

func TestMultiPoseOctreeMapLeafPoints(t *testing.T) {
	t.Run("transforms never mix poses", func(t *testing.T) {
		octree := createMultiPoseOctree(t)
		octree.MapLeafPoints(FirstPoint())

		test.That(t, octree.PosePoints(), test.ShouldResemble, pc.PosePointCloud{
			pc.NewPosePoint(0, 0, 1, 0),
			pc.NewPosePoint(1, 0, 1, 1),
		})
	})

	t.Run("each pose keeps one point per leaf it occupies", func(t *testing.T) {
		octree := createMultiPoseOctree(t)
		octree.Subdivide(MoreThan(2))
		octree.MapLeafPoints(FirstPoint())

		for _, pose := range []int{0, 1} {
			test.That(t, octree.NPointsForPose(pose), test.ShouldEqual, octree.NLeavesForPose(pose))
		}
		test.That(t, octree.NPoints(), test.ShouldEqual, 9)
	})

	t.Run("poses are mapped in ascending order", func(t *testing.T) {
		o, err := NewMultiPoseOctree(Config{}, testBox, golog.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		o.InsertPosePoints(5, pc.PointCloud{pc.NewVector(1, 1, 1)})
		o.InsertPosePoints(2, pc.PointCloud{pc.NewVector(2, 2, 2), pc.NewVector(3, 3, 3)})
		o.MapLeafPoints(Centroid())
		test.That(t, o.PosePoints(), test.ShouldResemble, pc.PosePointCloud{
			pc.NewPosePoint(2.5, 2.5, 2.5, 2),
			pc.NewPosePoint(1, 1, 1, 5),
		})
	})
}

func TestMultiPoseOctreeFilter(t *testing.T) {
	octree := createMultiPoseOctree(t)
	octree.Subdivide(MoreThan(2))
	octree.Filter(MoreThan(1))

	test.That(t, octree.NPoints(), test.ShouldEqual, 6)
	test.That(t, octree.NPointsForPose(0), test.ShouldEqual, 4)
	test.That(t, octree.NPointsForPose(1), test.ShouldEqual, 2)
	test.That(t, octree.NLeaves(), test.ShouldEqual, 29)
	test.That(t, octree.Poses(), test.ShouldResemble, []int{0, 1})

	octree.Filter(func(points pc.PointCloud) bool { return len(points) > 0 && points[0].Z > 5 })
	test.That(t, octree.Poses(), test.ShouldResemble, []int{0})
	test.That(t, octree.NNodesForPose(1), test.ShouldEqual, 0)
	test.That(t, octree.NNodesForPose(0), test.ShouldEqual, 3)
	test.That(t, octree.NNodes(), test.ShouldEqual, 17)

	query := pc.Box{Corner: pc.NewVector(5, 5, 5), EdgeLength: 5}
	test.That(t, octree.PointsInBox(query), test.ShouldResemble, pc.PointCloud{pc.NewVector(9, 9, 8), pc.NewVector(9, 9, 9)})
}
