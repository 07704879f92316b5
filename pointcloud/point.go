package pointcloud

import (
	"github.com/golang/geo/r3"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// Vectors is a series of three-dimensional vectors.
type Vectors []r3.Vector

// Len returns the number of vectors.
func (vs Vectors) Len() int {
	return len(vs)
}

// Swap swaps two vectors positionally.
func (vs Vectors) Swap(i, j int) {
	vs[i], vs[j] = vs[j], vs[i]
}

// Less returns which vector is less than the other based on
// r3.Vector.Cmp.
func (vs Vectors) Less(i, j int) bool {
	cmp := vs[i].Cmp(vs[j])
	if cmp == 0 {
		return false
	}
	return cmp < 0
}

// PosePoint is a point tagged with the pose it was observed from. The tag travels with the
// point but plays no part in where the point is stored.
type PosePoint struct {
	P    r3.Vector
	Pose int
}

// NewPosePoint returns a point at (x, y, z) tagged with pose.
func NewPosePoint(x, y, z float64, pose int) PosePoint {
	return PosePoint{P: NewVector(x, y, z), Pose: pose}
}
