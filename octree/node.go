package octree

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	pc "go.viam.com/octreelib/pointcloud"
)

// Each node in the octree is either an internal node which links to eight children, an empty leaf node
// with no points, or a filled leaf node which holds the points that fell into its box.
const (
	InternalNode = NodeType(iota)
	LeafNodeEmpty
	LeafNodeFilled
)

// NodeType represents the possible types of nodes in an octree.
type NodeType uint8

// String returns the name of the node type.
func (n NodeType) String() string {
	switch n {
	case InternalNode:
		return "InternalNode"
	case LeafNodeEmpty:
		return "LeafNodeEmpty"
	case LeafNodeFilled:
		return "LeafNodeFilled"
	}
	return ""
}

// tagging tells the shared node code how to read the points it stores. Routing only ever looks at
// the position, while criteria and transforms work on the untagged view.
type tagging[P any] interface {
	position(p P) r3.Vector
	untagged(points []P) pc.PointCloud
	mapPoints(points []P, fn Transform) []P
}

// node is a cube of space that either holds points (leaf) or exactly eight children (internal).
type node[P any] struct {
	tags     tagging[P]
	box      pc.Box
	points   []P
	children []*node[P]
}

func newLeafNode[P any](tags tagging[P], box pc.Box) *node[P] {
	return &node[P]{tags: tags, box: box}
}

func (n *node[P]) isLeaf() bool {
	return len(n.children) == 0
}

func (n *node[P]) nodeType() NodeType {
	switch {
	case !n.isLeaf():
		return InternalNode
	case len(n.points) == 0:
		return LeafNodeEmpty
	default:
		return LeafNodeFilled
	}
}

// insertPoints appends points to a leaf as is. An internal node hands each point to the child whose
// octant it falls in. Containment is checked once, by the tree, against the root box.
func (n *node[P]) insertPoints(points []P) {
	if len(points) == 0 {
		return
	}
	if n.isLeaf() {
		n.points = append(n.points, points...)
		return
	}

	var routed [8][]P
	for _, p := range points {
		idx := n.box.Octant(n.tags.position(p))
		routed[idx] = append(routed[idx], p)
	}
	for i, child := range n.children {
		child.insertPoints(routed[i])
	}
}

// splitIntoOctants turns a leaf into an internal node and routes its points into the new children.
func (n *node[P]) splitIntoOctants() error {
	if !n.isLeaf() {
		return errors.New("error attempted to split internal node")
	}
	n.split()
	return nil
}

// split must only be called on a leaf.
func (n *node[P]) split() {
	octants := n.box.Octants()
	n.children = make([]*node[P], 0, len(octants))
	for _, box := range octants {
		n.children = append(n.children, newLeafNode(n.tags, box))
	}
	points := n.points
	n.points = nil
	n.insertPoints(points)
}

// subdivide splits every leaf on which any criterion holds and keeps going in the new children.
// Internal nodes are left as they are.
func (n *node[P]) subdivide(criteria []Criterion) {
	if !n.isLeaf() || !anyHolds(criteria, n.tags.untagged(n.points)) {
		return
	}
	n.split()
	for _, child := range n.children {
		child.subdivide(criteria)
	}
}

// filter empties every leaf on which some criterion fails, then collapses internal nodes whose
// children hold no points left.
func (n *node[P]) filter(criteria []Criterion) {
	if n.isLeaf() {
		if !allHold(criteria, n.tags.untagged(n.points)) {
			n.points = nil
		}
		return
	}
	empty := true
	for _, child := range n.children {
		child.filter(criteria)
		if child.nPoints() > 0 {
			empty = false
		}
	}
	if empty {
		n.children = nil
		n.points = nil
	}
}

func (n *node[P]) mapLeafPoints(fn Transform) {
	if !n.isLeaf() {
		for _, child := range n.children {
			child.mapLeafPoints(fn)
		}
		return
	}
	if len(n.points) == 0 {
		return
	}
	in := make([]P, len(n.points))
	copy(in, n.points)
	n.points = n.tags.mapPoints(in, fn)
}

// pointsInBox returns the stored points lying in box, with box max faces excluded.
func (n *node[P]) pointsInBox(box pc.Box) []P {
	var out []P
	n.visitLeaves(func(leaf *node[P]) {
		for _, p := range leaf.points {
			if box.Contains(n.tags.position(p)) {
				out = append(out, p)
			}
		}
	})
	return out
}

func (n *node[P]) allPoints() []P {
	var out []P
	n.visitLeaves(func(leaf *node[P]) {
		out = append(out, leaf.points...)
	})
	return out
}

// visitLeaves calls fn on every leaf, children in octant order.
func (n *node[P]) visitLeaves(fn func(leaf *node[P])) {
	if n.isLeaf() {
		fn(n)
		return
	}
	for _, child := range n.children {
		child.visitLeaves(fn)
	}
}

func (n *node[P]) nPoints() int {
	if n.isLeaf() {
		return len(n.points)
	}
	total := 0
	for _, child := range n.children {
		total += child.nPoints()
	}
	return total
}

func (n *node[P]) nLeaves() int {
	if n.isLeaf() {
		return 1
	}
	total := 0
	for _, child := range n.children {
		total += child.nLeaves()
	}
	return total
}

func (n *node[P]) nNodes() int {
	if n.isLeaf() {
		return 1
	}
	total := 1
	for _, child := range n.children {
		total += child.nNodes()
	}
	return total
}

// validate checks the shape of the subtree: zero or eight children, no points kept on internal
// nodes, and children laid out on the octants of their parent.
func (n *node[P]) validate() error {
	if n.isLeaf() {
		return nil
	}
	var err error
	if len(n.children) != 8 {
		err = multierr.Append(err, errors.Errorf("internal node (%v) has %d children", n.box, len(n.children)))
	}
	if len(n.points) != 0 {
		err = multierr.Append(err, errors.Errorf("internal node (%v) holds %d points", n.box, len(n.points)))
	}
	octants := n.box.Octants()
	for i, child := range n.children {
		if i < len(octants) && child.box != octants[i] {
			err = multierr.Append(err, errors.Errorf("child %d of node (%v) is misplaced (%v)", i, n.box, child.box))
		}
		err = multierr.Append(err, child.validate())
	}
	return err
}

func anyHolds(criteria []Criterion, points pc.PointCloud) bool {
	for _, c := range criteria {
		if c(points) {
			return true
		}
	}
	return false
}

func allHold(criteria []Criterion, points pc.PointCloud) bool {
	for _, c := range criteria {
		if !c(points) {
			return false
		}
	}
	return true
}
