package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

/* In this file are functions to create a Voxel and to place points on a regular voxel grid.
A voxel represents a value on a regular grid in three-dimensional space. As with pixels in a
2D bitmap, voxels themselves do not typically have their position (i.e. coordinates)
explicitly encoded with their values.
More information and comparisons with pixels here:
- https://en.wikipedia.org/wiki/Voxel
*/

// VoxelCoords stores Voxel coordinates in VoxelGrid axes.
type VoxelCoords struct {
	I, J, K int64
}

// IsEqual tests if two VoxelCoords are the same.
func (c VoxelCoords) IsEqual(c2 VoxelCoords) bool {
	return c.I == c2.I && c.J == c2.J && c.K == c2.K
}

// GetVoxelCoordinates computes the coordinates of the grid voxel of size voxelSize, anchored
// at origin, that holds pt. Voxels are half-open, so a point on a shared face belongs to the
// voxel above it.
func GetVoxelCoordinates(pt, origin r3.Vector, voxelSize float64) VoxelCoords {
	d := pt.Sub(origin)
	return VoxelCoords{
		I: int64(math.Floor(d.X / voxelSize)),
		J: int64(math.Floor(d.Y / voxelSize)),
		K: int64(math.Floor(d.Z / voxelSize)),
	}
}

// VoxelBox returns the cube covered by the grid voxel at coords.
func VoxelBox(coords VoxelCoords, origin r3.Vector, voxelSize float64) Box {
	return Box{
		Corner: origin.Add(r3.Vector{
			X: float64(coords.I) * voxelSize,
			Y: float64(coords.J) * voxelSize,
			Z: float64(coords.K) * voxelSize,
		}),
		EdgeLength: voxelSize,
	}
}

// Voxel is a cube together with the points stored in it.
type Voxel struct {
	Box
	Points PointCloud
}

// NewVoxel creates a pointer to a Voxel for box holding points.
func NewVoxel(box Box, points PointCloud) *Voxel {
	return &Voxel{Box: box, Points: points}
}

// Size returns the number of points in the voxel.
func (v *Voxel) Size() int {
	return len(v.Points)
}
