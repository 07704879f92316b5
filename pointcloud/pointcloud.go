// Package pointcloud defines the point, point cloud and box primitives the octree is built
// from, along with reading and writing clouds to PCD and LAS files.
//
// Clouds are plain ordered slices. Insertion order carries no meaning for an untagged cloud,
// while a pose-tagged cloud can be split back into the clouds of each pose.
package pointcloud

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64

	size int
}

// NewMetaData returns meta data with an empty extent.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge widens the extent to include v.
func (meta *MetaData) Merge(v r3.Vector) {
	meta.size++

	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}
}

// Empty reports whether no point was merged yet.
func (meta MetaData) Empty() bool {
	return meta.size == 0
}

// Min returns the minimum corner of the extent.
func (meta MetaData) Min() r3.Vector {
	return r3.Vector{X: meta.MinX, Y: meta.MinY, Z: meta.MinZ}
}

// Max returns the maximum corner of the extent.
func (meta MetaData) Max() r3.Vector {
	return r3.Vector{X: meta.MaxX, Y: meta.MaxY, Z: meta.MaxZ}
}

// PointCloud is an ordered sequence of untagged points.
type PointCloud []r3.Vector

// Size returns the number of points in the cloud.
func (cloud PointCloud) Size() int {
	return len(cloud)
}

// Copy returns a copy of the cloud that shares no storage with it.
func (cloud PointCloud) Copy() PointCloud {
	if cloud == nil {
		return nil
	}
	out := make(PointCloud, len(cloud))
	copy(out, cloud)
	return out
}

// Extend returns the concatenation of the cloud and others.
func (cloud PointCloud) Extend(others ...PointCloud) PointCloud {
	out := cloud
	for _, o := range others {
		out = append(out, o...)
	}
	return out
}

// Filter returns the subsequence of points for which keep returns true.
func (cloud PointCloud) Filter(keep func(p r3.Vector) bool) PointCloud {
	return lo.Filter(cloud, func(p r3.Vector, _ int) bool { return keep(p) })
}

// MetaData computes the extent of the cloud.
func (cloud PointCloud) MetaData() MetaData {
	meta := NewMetaData()
	for _, p := range cloud {
		meta.Merge(p)
	}
	return meta
}

// Centroid returns the mean of all points, or the zero vector for an empty cloud.
func (cloud PointCloud) Centroid() r3.Vector {
	if len(cloud) == 0 {
		return r3.Vector{}
	}
	var sum r3.Vector
	for _, p := range cloud {
		sum = sum.Add(p)
	}
	return sum.Mul(1. / float64(len(cloud)))
}

// WithPose tags every point of the cloud with pose.
func (cloud PointCloud) WithPose(pose int) PosePointCloud {
	return lo.Map(cloud, func(p r3.Vector, _ int) PosePoint {
		return PosePoint{P: p, Pose: pose}
	})
}

// PosePointCloud is an ordered sequence of pose-tagged points.
type PosePointCloud []PosePoint

// Size returns the number of points in the cloud.
func (cloud PosePointCloud) Size() int {
	return len(cloud)
}

// Copy returns a copy of the cloud that shares no storage with it.
func (cloud PosePointCloud) Copy() PosePointCloud {
	if cloud == nil {
		return nil
	}
	out := make(PosePointCloud, len(cloud))
	copy(out, cloud)
	return out
}

// ForPose returns the points tagged with pose.
func (cloud PosePointCloud) ForPose(pose int) PosePointCloud {
	return lo.Filter(cloud, func(p PosePoint, _ int) bool { return p.Pose == pose })
}

// HasPose reports whether any point is tagged with pose.
func (cloud PosePointCloud) HasPose(pose int) bool {
	return lo.ContainsBy(cloud, func(p PosePoint) bool { return p.Pose == pose })
}

// CountPose returns the number of points tagged with pose.
func (cloud PosePointCloud) CountPose(pose int) int {
	return lo.CountBy(cloud, func(p PosePoint) bool { return p.Pose == pose })
}

// WithoutPoses drops the tags and returns the bare points in order.
func (cloud PosePointCloud) WithoutPoses() PointCloud {
	return lo.Map(cloud, func(p PosePoint, _ int) r3.Vector { return p.P })
}

// Poses returns the distinct pose tags in ascending order.
func (cloud PosePointCloud) Poses() []int {
	poses := lo.Uniq(lo.Map(cloud, func(p PosePoint, _ int) int { return p.Pose }))
	sort.Ints(poses)
	return poses
}

// GroupByPose splits the cloud into one untagged cloud per pose, each keeping the relative
// order of its points.
func (cloud PosePointCloud) GroupByPose() map[int]PointCloud {
	grouped := lo.GroupBy(cloud, func(p PosePoint) int { return p.Pose })
	out := make(map[int]PointCloud, len(grouped))
	for pose, points := range grouped {
		out[pose] = PosePointCloud(points).WithoutPoses()
	}
	return out
}
