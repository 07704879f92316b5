package grid

import (
	"fmt"
	"sort"

	"github.com/edaniels/golog"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"go.viam.com/octreelib/octree"
	pc "go.viam.com/octreelib/pointcloud"
)

// Grid keeps one octree per key. Octrees are created the first time points arrive for their key.
type Grid struct {
	cfg     Config
	logger  golog.Logger
	octrees map[int]octree.Octree
}

// New returns an empty grid.
func New(cfg Config, logger golog.Logger) (*Grid, error) {
	if err := cfg.Validate("grid"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Grid{
		cfg:     cfg,
		logger:  logger,
		octrees: map[int]octree.Octree{},
	}, nil
}

// InsertPoints adds points to the octree of key, creating it first when key is new. Points outside of
// that octree's region are dropped.
func (g *Grid) InsertPoints(key int, points pc.PointCloud) error {
	o, ok := g.octrees[key]
	if !ok {
		if len(points) == 0 && g.cfg.sizing() == SizingMinVoxel {
			return nil
		}
		box, err := g.cfg.octreeBox(points)
		if err != nil {
			return errors.Wrapf(err, "cannot create octree for key %d", key)
		}
		o, err = octree.New(g.cfg.OctreeType, g.cfg.Octree, box, g.logger)
		if err != nil {
			return err
		}
		g.logger.Debugw("created octree", "key", key, "box", box)
		g.octrees[key] = o
	}
	if err := octree.Insert(o, key, points); err != nil {
		return err
	}
	g.debugf("inserted %d points for key %d", len(points), key)
	return nil
}

// Octree returns the octree of key.
func (g *Grid) Octree(key int) (octree.Octree, bool) {
	o, ok := g.octrees[key]
	return o, ok
}

// Keys returns the keys holding an octree in ascending order.
func (g *Grid) Keys() []int {
	keys := lo.Keys(g.octrees)
	sort.Ints(keys)
	return keys
}

// Points returns the points of key.
func (g *Grid) Points(key int) pc.PointCloud {
	if o, ok := g.octrees[key]; ok {
		return o.Points()
	}
	return nil
}

// LeafPoints returns a voxel for every non-empty leaf of the octree of key.
func (g *Grid) LeafPoints(key int) []*pc.Voxel {
	if o, ok := g.octrees[key]; ok {
		return o.LeafPoints()
	}
	return nil
}

// NPoints returns the number of points of key.
func (g *Grid) NPoints(key int) int {
	if o, ok := g.octrees[key]; ok {
		return o.NPoints()
	}
	return 0
}

// NLeaves returns the number of leaves of the octree of key.
func (g *Grid) NLeaves(key int) int {
	if o, ok := g.octrees[key]; ok {
		return o.NLeaves()
	}
	return 0
}

// NNodes returns the number of nodes of the octree of key.
func (g *Grid) NNodes(key int) int {
	if o, ok := g.octrees[key]; ok {
		return o.NNodes()
	}
	return 0
}

// Subdivide subdivides every octree.
func (g *Grid) Subdivide(criteria ...octree.Criterion) {
	for _, key := range g.Keys() {
		g.octrees[key].Subdivide(criteria...)
	}
	g.debugf("subdivided")
}

// Filter filters every octree.
func (g *Grid) Filter(criteria ...octree.Criterion) {
	for _, key := range g.Keys() {
		g.octrees[key].Filter(criteria...)
	}
	g.debugf("filtered")
}

// MapLeafPoints transforms the leaves of every octree.
func (g *Grid) MapLeafPoints(fn octree.Transform) {
	for _, key := range g.Keys() {
		g.octrees[key].MapLeafPoints(fn)
	}
	g.debugf("mapped leaf points")
}

// A Merger combines the octrees of a grid.
type Merger interface {
	// Merge returns the octrees the grid keeps from now on. It may reuse the octrees it is given.
	Merge(octrees map[int]octree.Octree) (map[int]octree.Octree, error)
}

// Merge replaces the octrees of the grid with what merger makes of them. The grid is left unchanged if
// merger fails.
func (g *Grid) Merge(merger Merger) error {
	current := make(map[int]octree.Octree, len(g.octrees))
	for k, o := range g.octrees {
		current[k] = o
	}
	merged, err := merger.Merge(current)
	if err != nil {
		return err
	}
	if merged == nil {
		merged = map[int]octree.Octree{}
	}
	g.octrees = merged
	g.debugf("merged")
	return nil
}

// KeyMerger moves the points of the From keys into the octree of Into and drops the From octrees. Points
// keep their key as pose when Into keeps poses, and points outside of Into's region are lost.
type KeyMerger struct {
	Into int
	From []int
}

// Merge implements Merger.
func (m KeyMerger) Merge(octrees map[int]octree.Octree) (map[int]octree.Octree, error) {
	into, ok := octrees[m.Into]
	if !ok {
		return nil, errors.Errorf("cannot merge into missing key %d", m.Into)
	}
	for _, key := range m.From {
		if _, ok := octrees[key]; !ok {
			return nil, errors.Errorf("cannot merge missing key %d", key)
		}
	}
	for _, key := range lo.Uniq(m.From) {
		if key == m.Into {
			continue
		}
		if err := octree.Insert(into, key, octrees[key].Points()); err != nil {
			return nil, err
		}
		delete(octrees, key)
	}
	return octrees, nil
}

// String prints out a table of the points, leaves and nodes of every key.
func (g *Grid) String() string {
	return countsTable("Key", g.Keys(), func(key int) []interface{} {
		return []interface{}{g.NPoints(key), g.NLeaves(key), g.NNodes(key)}
	}, "Points", "Leaves", "Nodes")
}

func (g *Grid) debugf(template string, args ...interface{}) {
	if !g.cfg.Debug {
		return
	}
	g.logger.Debugf("%s\n%s", fmt.Sprintf(template, args...), g.String())
}

func countsTable(keyName string, keys []int, row func(key int) []interface{}, columns ...string) string {
	t := table.NewWriter()
	header := table.Row{keyName}
	for _, c := range columns {
		header = append(header, c)
	}
	t.AppendHeader(header)
	for _, key := range keys {
		t.AppendRow(append(table.Row{key}, row(key)...))
	}
	return t.Render()
}
