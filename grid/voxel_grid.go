package grid

import (
	"fmt"
	"sort"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"go.viam.com/octreelib/octree"
	pc "go.viam.com/octreelib/pointcloud"
)

// VoxelGrid tiles space into cubes of the minimum voxel size, anchored at the configured corner. Every
// cell a pose reaches gets octrees of the configured type: a basic grid keeps one octree per pose and
// cell, a multi-pose grid shares one octree per cell between all poses.
type VoxelGrid struct {
	cfg    Config
	logger golog.Logger
	// cells each pose inserted points into, in insertion order
	poses map[int][]pc.VoxelCoords
	cells map[pc.VoxelCoords]*voxelCell
}

// NewVoxelGrid returns an empty voxel grid.
func NewVoxelGrid(cfg Config, logger golog.Logger) (*VoxelGrid, error) {
	cfg.Sizing = SizingMinVoxel
	if err := cfg.Validate("voxel_grid"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &VoxelGrid{
		cfg:    cfg,
		logger: logger,
		poses:  map[int][]pc.VoxelCoords{},
		cells:  map[pc.VoxelCoords]*voxelCell{},
	}, nil
}

// InsertPoints distributes the points of pose into the cells of the grid. A pose can only be inserted
// once.
func (vg *VoxelGrid) InsertPoints(pose int, points pc.PointCloud) error {
	if _, ok := vg.poses[pose]; ok {
		return errors.Errorf("cannot insert points to existing pose %d", pose)
	}

	distributed := lo.GroupBy(points, func(p r3.Vector) pc.VoxelCoords {
		return pc.GetVoxelCoordinates(p, vg.cfg.Corner, vg.cfg.MinVoxelSize)
	})
	coords := sortedCoords(lo.Keys(distributed))

	for _, c := range coords {
		if _, ok := vg.cells[c]; !ok {
			cell, err := newVoxelCell(vg.cfg, pc.VoxelBox(c, vg.cfg.Corner, vg.cfg.MinVoxelSize), vg.logger)
			if err != nil {
				return err
			}
			vg.cells[c] = cell
		}
	}
	for _, c := range coords {
		if err := vg.cells[c].insert(vg.cfg, pose, distributed[c], vg.logger); err != nil {
			return err
		}
	}
	vg.poses[pose] = coords
	vg.debugf("inserted %d points for pose %d into %d cells", len(points), pose, len(coords))
	return nil
}

// Poses returns the inserted poses in ascending order.
func (vg *VoxelGrid) Poses() []int {
	poses := lo.Keys(vg.poses)
	sort.Ints(poses)
	return poses
}

// Points returns the points of pose.
func (vg *VoxelGrid) Points(pose int) pc.PointCloud {
	var out pc.PointCloud
	for _, c := range vg.poses[pose] {
		out = append(out, vg.cells[c].points(pose)...)
	}
	return out
}

// LeafPoints returns a voxel for every leaf holding points of pose, with only those points in it.
func (vg *VoxelGrid) LeafPoints(pose int) []*pc.Voxel {
	var out []*pc.Voxel
	for _, c := range vg.poses[pose] {
		out = append(out, vg.cells[c].leafPoints(pose)...)
	}
	return out
}

// NPoints returns the number of points of pose.
func (vg *VoxelGrid) NPoints(pose int) int {
	return vg.sum(pose, (*voxelCell).nPoints)
}

// NLeaves returns the number of leaves storing pose. In a basic grid these are all leaves of the pose's
// octrees, in a multi-pose grid only the leaves holding points of the pose.
func (vg *VoxelGrid) NLeaves(pose int) int {
	return vg.sum(pose, (*voxelCell).nLeaves)
}

// NNodes returns the number of nodes storing pose, either themselves or through their children.
func (vg *VoxelGrid) NNodes(pose int) int {
	return vg.sum(pose, (*voxelCell).nNodes)
}

func (vg *VoxelGrid) sum(pose int, count func(*voxelCell, int) int) int {
	total := 0
	for _, c := range vg.poses[pose] {
		total += count(vg.cells[c], pose)
	}
	return total
}

// Subdivide subdivides the octrees of every cell.
func (vg *VoxelGrid) Subdivide(criteria ...octree.Criterion) {
	vg.eachOctree(func(o octree.Octree) { o.Subdivide(criteria...) })
	vg.debugf("subdivided")
}

// Filter filters the octrees of every cell.
func (vg *VoxelGrid) Filter(criteria ...octree.Criterion) {
	vg.eachOctree(func(o octree.Octree) { o.Filter(criteria...) })
	vg.debugf("filtered")
}

// MapLeafPoints transforms the leaves of the octrees of every cell.
func (vg *VoxelGrid) MapLeafPoints(fn octree.Transform) {
	vg.eachOctree(func(o octree.Octree) { o.MapLeafPoints(fn) })
	vg.debugf("mapped leaf points")
}

func (vg *VoxelGrid) eachOctree(fn func(o octree.Octree)) {
	for _, c := range sortedCoords(lo.Keys(vg.cells)) {
		for _, o := range vg.cells[c].octrees() {
			fn(o)
		}
	}
}

// String prints out a table of the cells, points, leaves and nodes of every pose.
func (vg *VoxelGrid) String() string {
	return countsTable("Pose", vg.Poses(), func(pose int) []interface{} {
		return []interface{}{len(vg.poses[pose]), vg.NPoints(pose), vg.NLeaves(pose), vg.NNodes(pose)}
	}, "Cells", "Points", "Leaves", "Nodes")
}

func (vg *VoxelGrid) debugf(template string, args ...interface{}) {
	if !vg.cfg.Debug {
		return
	}
	vg.logger.Debugf("%s\n%s", fmt.Sprintf(template, args...), vg.String())
}

func sortedCoords(coords []pc.VoxelCoords) []pc.VoxelCoords {
	sort.Slice(coords, func(i, j int) bool {
		a, b := coords[i], coords[j]
		if a.I != b.I {
			return a.I < b.I
		}
		if a.J != b.J {
			return a.J < b.J
		}
		return a.K < b.K
	})
	return coords
}

// voxelCell holds the octrees of one cell of a VoxelGrid. Exactly one of shared and byPose is used,
// depending on the octree type.
type voxelCell struct {
	box    pc.Box
	shared *octree.MultiPoseOctree
	byPose map[int]*octree.BasicOctree
}

func newVoxelCell(cfg Config, box pc.Box, logger golog.Logger) (*voxelCell, error) {
	cell := &voxelCell{box: box}
	switch cfg.OctreeType {
	case octree.TypeMultiPose:
		shared, err := octree.NewMultiPoseOctree(cfg.Octree, box, logger)
		if err != nil {
			return nil, err
		}
		cell.shared = shared
	case octree.TypeBasic:
		cell.byPose = map[int]*octree.BasicOctree{}
	default:
		return nil, cfg.OctreeType.Validate()
	}
	return cell, nil
}

func (c *voxelCell) insert(cfg Config, pose int, points pc.PointCloud, logger golog.Logger) error {
	if c.shared != nil {
		c.shared.InsertPosePoints(pose, points)
		return nil
	}
	o, err := octree.NewBasicOctree(cfg.Octree, c.box, logger)
	if err != nil {
		return err
	}
	o.InsertPoints(points)
	c.byPose[pose] = o
	return nil
}

func (c *voxelCell) octrees() []octree.Octree {
	if c.shared != nil {
		return []octree.Octree{c.shared}
	}
	poses := lo.Keys(c.byPose)
	sort.Ints(poses)
	out := make([]octree.Octree, 0, len(poses))
	for _, pose := range poses {
		out = append(out, c.byPose[pose])
	}
	return out
}

func (c *voxelCell) points(pose int) pc.PointCloud {
	if c.shared != nil {
		return c.shared.PointsForPose(pose)
	}
	if o, ok := c.byPose[pose]; ok {
		return o.Points()
	}
	return nil
}

func (c *voxelCell) leafPoints(pose int) []*pc.Voxel {
	if c.shared != nil {
		return c.shared.LeafPointsForPose(pose)
	}
	if o, ok := c.byPose[pose]; ok {
		return o.LeafPoints()
	}
	return nil
}

func (c *voxelCell) nPoints(pose int) int {
	if c.shared != nil {
		return c.shared.NPointsForPose(pose)
	}
	if o, ok := c.byPose[pose]; ok {
		return o.NPoints()
	}
	return 0
}

func (c *voxelCell) nLeaves(pose int) int {
	if c.shared != nil {
		return c.shared.NLeavesForPose(pose)
	}
	if o, ok := c.byPose[pose]; ok {
		return o.NLeaves()
	}
	return 0
}

func (c *voxelCell) nNodes(pose int) int {
	if c.shared != nil {
		return c.shared.NNodesForPose(pose)
	}
	if o, ok := c.byPose[pose]; ok {
		return o.NNodes()
	}
	return 0
}
