// Package main loads point cloud files into a grid of octrees and prints what the grid holds.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"go.viam.com/octreelib/grid"
	"go.viam.com/octreelib/octree"
	pc "go.viam.com/octreelib/pointcloud"
)

const (
	// Flags.
	flagDebug      = "debug"
	flagGrid       = "grid"
	flagType       = "type"
	flagEdgeLength = "edge-length"
	flagVoxelSize  = "voxel-size"
	flagMaxPoints  = "max-points"
	flagPlanar     = "planar-tolerance"
	flagMinPoints  = "min-points"
	flagCentroid   = "centroid"
	flagMerge      = "merge"

	gridKeyed = "keyed"
	gridVoxel = "voxel"
)

// pointGrid is what both grid kinds offer.
type pointGrid interface {
	InsertPoints(key int, points pc.PointCloud) error
	Subdivide(criteria ...octree.Criterion)
	Filter(criteria ...octree.Criterion)
	MapLeafPoints(fn octree.Transform)
	String() string
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var logger golog.Logger

	return &cli.App{
		Name:      "gridstat",
		Usage:     "load point clouds into a grid of octrees and print its statistics",
		ArgsUsage: "<file.pcd|file.las>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagGrid,
				Value: gridKeyed,
				Usage: "grid to load files into: keyed or voxel",
			},
			&cli.StringFlag{
				Name:  flagType,
				Value: string(octree.TypeBasic),
				Usage: "octree type: basic or multi_pose",
			},
			&cli.Float64Flag{
				Name:  flagEdgeLength,
				Usage: "edge length of every octree of a keyed grid, with its corner at the origin",
			},
			&cli.Float64Flag{
				Name:  flagVoxelSize,
				Usage: "minimum voxel size; sizes keyed octrees around their points and sets the cells of a voxel grid",
			},
			&cli.IntFlag{
				Name:  flagMaxPoints,
				Usage: "subdivide leaves holding more distinct points than this",
			},
			&cli.Float64Flag{
				Name:  flagPlanar,
				Usage: "subdivide leaves whose points are not planar within this tolerance",
			},
			&cli.IntFlag{
				Name:  flagMinPoints,
				Usage: "drop leaves holding fewer points than this",
			},
			&cli.BoolFlag{
				Name:  flagCentroid,
				Usage: "replace the points of every leaf with their centroid",
			},
			&cli.BoolFlag{
				Name:  flagMerge,
				Usage: "merge every file into the octree of the first one (keyed grid only)",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = golog.NewDebugLogger("gridstat")
			} else {
				logger = zap.NewNop().Sugar()
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return gridStatAction(c, logger)
		},
	}
}

func gridStatAction(c *cli.Context, logger golog.Logger) error {
	if c.NArg() == 0 {
		return errors.New("no point cloud files given")
	}

	cfg := grid.Config{
		OctreeType:   octree.Type(c.String(flagType)),
		Octree:       octree.Config{Debug: c.Bool(flagDebug)},
		Debug:        c.Bool(flagDebug),
		EdgeLength:   c.Float64(flagEdgeLength),
		MinVoxelSize: c.Float64(flagVoxelSize),
	}

	var (
		g     pointGrid
		keyed *grid.Grid
		err   error
	)
	switch c.String(flagGrid) {
	case gridKeyed:
		if cfg.MinVoxelSize > 0 {
			cfg.Sizing = grid.SizingMinVoxel
		}
		keyed, err = grid.New(cfg, logger)
		g = keyed
	case gridVoxel:
		g, err = grid.NewVoxelGrid(cfg, logger)
	default:
		return errors.Errorf("unknown grid %q", c.String(flagGrid))
	}
	if err != nil {
		return err
	}

	for i, fn := range c.Args().Slice() {
		cloud, err := pc.NewFromFile(fn, logger)
		if err != nil {
			return err
		}
		if err := g.InsertPoints(i, cloud); err != nil {
			return errors.Wrapf(err, "cannot insert points of %q", fn)
		}
	}

	if c.Bool(flagMerge) {
		if keyed == nil {
			return errors.Errorf("--%s needs a %s grid", flagMerge, gridKeyed)
		}
		if err := keyed.Merge(grid.KeyMerger{Into: 0, From: keyed.Keys()}); err != nil {
			return err
		}
	}

	var subdivide []octree.Criterion
	if n := c.Int(flagMaxPoints); n > 0 {
		// files often repeat points, and more than n copies of one point never split apart
		subdivide = append(subdivide, octree.MoreThanDistinct(n))
	}
	if tol := c.Float64(flagPlanar); tol > 0 {
		subdivide = append(subdivide, octree.NonPlanar(tol))
	}
	if len(subdivide) > 0 {
		g.Subdivide(subdivide...)
	}
	if n := c.Int(flagMinPoints); n > 0 {
		g.Filter(octree.AtLeast(n))
	}
	if c.Bool(flagCentroid) {
		g.MapLeafPoints(octree.Centroid())
	}

	fmt.Fprintln(c.App.Writer, g.String())
	return nil
}
