package octree

import (
	"github.com/golang/geo/r3"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	pc "go.viam.com/octreelib/pointcloud"
)

// Criterion is a predicate over the points of one leaf. Subdivide splits a leaf when any of its
// criteria holds, and Filter keeps a leaf's points only when all of them hold. Criteria must not
// modify the cloud they are given.
type Criterion func(points pc.PointCloud) bool

// Transform replaces the points of one leaf. It receives a copy and may return a cloud of any
// size, including an empty one.
type Transform func(points pc.PointCloud) pc.PointCloud

// MoreThan holds for leaves with more than n points.
func MoreThan(n int) Criterion {
	return func(points pc.PointCloud) bool {
		return len(points) > n
	}
}

// MoreThanDistinct holds for leaves with more than n distinct points. Unlike MoreThan it stops
// holding once a leaf is down to repeated copies of the same points, which never separate.
func MoreThanDistinct(n int) Criterion {
	return func(points pc.PointCloud) bool {
		return len(lo.Uniq(points)) > n
	}
}

// AtLeast holds for leaves with at least n points.
func AtLeast(n int) Criterion {
	return func(points pc.PointCloud) bool {
		return len(points) >= n
	}
}

// Planar holds for leaves whose points lie within tolerance of a plane, measured as the smallest
// eigenvalue of the points' covariance. Fewer than three points are always planar.
func Planar(tolerance float64) Criterion {
	return func(points pc.PointCloud) bool {
		return smallestVariance(points) <= tolerance
	}
}

// NonPlanar is the negation of Planar.
func NonPlanar(tolerance float64) Criterion {
	planar := Planar(tolerance)
	return func(points pc.PointCloud) bool {
		return !planar(points)
	}
}

// smallestVariance returns the variance of the points along their flattest direction.
func smallestVariance(points pc.PointCloud) float64 {
	if len(points) < 3 {
		return 0
	}
	data := mat.NewDense(len(points), 3, nil)
	for i, p := range points {
		data.SetRow(i, []float64{p.X, p.Y, p.Z})
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(&cov, false); !ok {
		return 0
	}
	// eigenvalues come back in ascending order
	return eig.Values(nil)[0]
}

// Centroid replaces a leaf's points by their mean.
func Centroid() Transform {
	return func(points pc.PointCloud) pc.PointCloud {
		if len(points) == 0 {
			return pc.PointCloud{}
		}
		return pc.PointCloud{points.Centroid()}
	}
}

// FirstPoint keeps only the first point of a leaf.
func FirstPoint() Transform {
	return func(points pc.PointCloud) pc.PointCloud {
		if len(points) == 0 {
			return pc.PointCloud{}
		}
		return points[:1]
	}
}

// Translate moves every point of a leaf by offset. Points are not rerouted afterwards, so they may
// end up outside the box of the leaf holding them.
func Translate(offset r3.Vector) Transform {
	return func(points pc.PointCloud) pc.PointCloud {
		out := make(pc.PointCloud, len(points))
		for i, p := range points {
			out[i] = p.Add(offset)
		}
		return out
	}
}
