package pointcloud

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Box is an axis aligned cube given by its minimum corner and the length of its edges.
//
// Containment is half-open: a point is inside when min <= p < max on every axis, so the
// eight octants of a box never share a point.
type Box struct {
	Corner     r3.Vector
	EdgeLength float64
}

// NewBox returns the cube at corner with the given edge length. The edge length must be
// positive and finite.
func NewBox(corner r3.Vector, edgeLength float64) (Box, error) {
	if !(edgeLength > 0) || math.IsInf(edgeLength, 1) {
		return Box{}, errors.Errorf("invalid edge length (%.2f) for box", edgeLength)
	}
	return Box{Corner: corner, EdgeLength: edgeLength}, nil
}

// Min returns the minimum corner.
func (b Box) Min() r3.Vector {
	return b.Corner
}

// Max returns the maximum corner.
func (b Box) Max() r3.Vector {
	return b.Corner.Add(r3.Vector{X: b.EdgeLength, Y: b.EdgeLength, Z: b.EdgeLength})
}

// Center returns the center of the cube.
func (b Box) Center() r3.Vector {
	half := b.EdgeLength / 2.
	return b.Corner.Add(r3.Vector{X: half, Y: half, Z: half})
}

// Contains reports whether p lies in the box, min faces inclusive and max faces exclusive.
func (b Box) Contains(p r3.Vector) bool {
	mn, mx := b.Min(), b.Max()
	return p.X >= mn.X && p.X < mx.X &&
		p.Y >= mn.Y && p.Y < mx.Y &&
		p.Z >= mn.Z && p.Z < mx.Z
}

// ContainsClosed reports whether p lies in the box with all faces inclusive.
func (b Box) ContainsClosed(p r3.Vector) bool {
	mn, mx := b.Min(), b.Max()
	return p.X >= mn.X && p.X <= mx.X &&
		p.Y >= mn.Y && p.Y <= mx.Y &&
		p.Z >= mn.Z && p.Z <= mx.Z
}

// Octant returns the index of the octant p falls in, with each coordinate compared to the
// center: index = 4*ix + 2*iy + iz where i is 1 for the upper half of that axis.
func (b Box) Octant(p r3.Vector) int {
	c := b.Center()
	idx := 0
	if p.X >= c.X {
		idx += 4
	}
	if p.Y >= c.Y {
		idx += 2
	}
	if p.Z >= c.Z {
		idx++
	}
	return idx
}

// Octants bisects the box into its eight children, ordered as in Octant.
func (b Box) Octants() [8]Box {
	half := b.EdgeLength / 2.
	var out [8]Box
	for i := range out {
		offset := r3.Vector{}
		if i&4 != 0 {
			offset.X = half
		}
		if i&2 != 0 {
			offset.Y = half
		}
		if i&1 != 0 {
			offset.Z = half
		}
		out[i] = Box{Corner: b.Corner.Add(offset), EdgeLength: half}
	}
	return out
}

// Vertices returns the eight corners of the cube, ordered as in Octants.
func (b Box) Vertices() [8]r3.Vector {
	var out [8]r3.Vector
	for i, o := range b.Octants() {
		out[i] = o.Corner.Sub(b.Corner).Mul(2).Add(b.Corner)
	}
	return out
}

// String returns a human readable string that represents this box.
func (b Box) String() string {
	return fmt.Sprintf("box with corner at %v and edge length of %v", b.Corner, b.EdgeLength)
}
