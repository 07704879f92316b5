package pointcloud

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewBox(t *testing.T) {
	for _, edge := range []float64{0, -1, math.Inf(1), math.NaN()} {
		_, err := NewBox(r3.Vector{}, edge)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "invalid edge length")
	}

	b, err := NewBox(NewVector(-1, 2, 3), 4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Min(), test.ShouldResemble, NewVector(-1, 2, 3))
	test.That(t, b.Max(), test.ShouldResemble, NewVector(3, 6, 7))
	test.That(t, b.Center(), test.ShouldResemble, NewVector(1, 4, 5))
	test.That(t, b.String(), test.ShouldContainSubstring, "edge length of 4")
}

func TestBoxContains(t *testing.T) {
	b := Box{Corner: NewVector(0, 0, 0), EdgeLength: 10}

	test.That(t, b.Contains(NewVector(0, 0, 0)), test.ShouldBeTrue)
	test.That(t, b.Contains(NewVector(9.999, 5, 0)), test.ShouldBeTrue)
	test.That(t, b.Contains(NewVector(10, 5, 5)), test.ShouldBeFalse)
	test.That(t, b.Contains(NewVector(5, 10, 5)), test.ShouldBeFalse)
	test.That(t, b.Contains(NewVector(5, 5, 10)), test.ShouldBeFalse)
	test.That(t, b.Contains(NewVector(-0.001, 5, 5)), test.ShouldBeFalse)

	test.That(t, b.ContainsClosed(NewVector(10, 10, 10)), test.ShouldBeTrue)
	test.That(t, b.ContainsClosed(NewVector(0, 0, 0)), test.ShouldBeTrue)
	test.That(t, b.ContainsClosed(NewVector(10.001, 10, 10)), test.ShouldBeFalse)
}

func TestBoxOctants(t *testing.T) {
	b := Box{Corner: NewVector(0, 0, 0), EdgeLength: 10}
	octants := b.Octants()

	test.That(t, octants[0], test.ShouldResemble, Box{Corner: NewVector(0, 0, 0), EdgeLength: 5})
	test.That(t, octants[1], test.ShouldResemble, Box{Corner: NewVector(0, 0, 5), EdgeLength: 5})
	test.That(t, octants[2], test.ShouldResemble, Box{Corner: NewVector(0, 5, 0), EdgeLength: 5})
	test.That(t, octants[4], test.ShouldResemble, Box{Corner: NewVector(5, 0, 0), EdgeLength: 5})
	test.That(t, octants[7], test.ShouldResemble, Box{Corner: NewVector(5, 5, 5), EdgeLength: 5})

	t.Run("every point of the box lands in exactly one octant", func(t *testing.T) {
		for x := 0.; x < 10; x += 1.25 {
			for y := 0.; y < 10; y += 1.25 {
				for z := 0.; z < 10; z += 1.25 {
					p := NewVector(x, y, z)
					hits := 0
					for i, o := range octants {
						if o.Contains(p) {
							hits++
							test.That(t, b.Octant(p), test.ShouldEqual, i)
						}
					}
					test.That(t, hits, test.ShouldEqual, 1)
				}
			}
		}
	})

	t.Run("points on the center planes go to the upper half", func(t *testing.T) {
		test.That(t, b.Octant(NewVector(5, 5, 5)), test.ShouldEqual, 7)
		test.That(t, b.Octant(NewVector(4.9, 5, 4.9)), test.ShouldEqual, 2)
		test.That(t, b.Octant(NewVector(10, 10, 10)), test.ShouldEqual, 7)
	})
}

func TestBoxVertices(t *testing.T) {
	b := Box{Corner: NewVector(1, 1, 1), EdgeLength: 2}
	v := b.Vertices()
	test.That(t, v[0], test.ShouldResemble, NewVector(1, 1, 1))
	test.That(t, v[1], test.ShouldResemble, NewVector(1, 1, 3))
	test.That(t, v[6], test.ShouldResemble, NewVector(3, 3, 1))
	test.That(t, v[7], test.ShouldResemble, NewVector(3, 3, 3))
}
