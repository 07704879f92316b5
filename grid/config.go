// Package grid keeps collections of octrees. A Grid holds one octree per key, typically a pose, while a
// VoxelGrid tiles space into fixed cells and keeps the octrees of every cell a pose touched.
package grid

import (
	"math"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/octreelib/octree"
	pc "go.viam.com/octreelib/pointcloud"
)

// Sizing decides the region covered by the octrees a Grid creates.
type Sizing string

const (
	// SizingStatic gives every octree the configured corner and edge length.
	SizingStatic Sizing = "static"
	// SizingMinVoxel fits every octree around the first points inserted for its key, with its corner on
	// a multiple of the minimum voxel size and its edge a power of two of that size.
	SizingMinVoxel Sizing = "min_voxel"
)

// maxSizingSteps bounds how many times a min_voxel octree may double to cover its first points.
const maxSizingSteps = 64

// A Config describes the configuration of a grid and the octrees it creates.
type Config struct {
	OctreeType   octree.Type   `json:"octree_type"`
	Octree       octree.Config `json:"octree"`
	Debug        bool          `json:"debug"`
	Sizing       Sizing        `json:"sizing"`
	Corner       r3.Vector     `json:"corner"`
	EdgeLength   float64       `json:"edge_length"`
	MinVoxelSize float64       `json:"min_voxel_size"`
}

// NewConfigFromAttributes decodes a config from a loosely typed attribute map, such as one read from JSON.
func NewConfigFromAttributes(attributes map[string]interface{}) (*Config, error) {
	var conf Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &conf})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var err error
	if cfg.OctreeType == "" {
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError(path, "octree_type"))
	} else if terr := cfg.OctreeType.Validate(); terr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError(path, terr))
	}

	switch cfg.sizing() {
	case SizingStatic:
		if cfg.EdgeLength == 0 {
			err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError(path, "edge_length"))
		} else if _, berr := pc.NewBox(cfg.Corner, cfg.EdgeLength); berr != nil {
			err = multierr.Append(err, utils.NewConfigValidationError(path, berr))
		}
	case SizingMinVoxel:
		err = multierr.Append(err, cfg.validateMinVoxelSize(path))
	default:
		err = multierr.Append(err, utils.NewConfigValidationError(path, errors.Errorf("unknown sizing %q", cfg.Sizing)))
	}
	return err
}

func (cfg *Config) validateMinVoxelSize(path string) error {
	if cfg.MinVoxelSize == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "min_voxel_size")
	}
	if _, err := pc.NewBox(cfg.Corner, cfg.MinVoxelSize); err != nil {
		return utils.NewConfigValidationError(path, errors.Wrap(err, "invalid min_voxel_size"))
	}
	return nil
}

// sizing defaults to static.
func (cfg *Config) sizing() Sizing {
	if cfg.Sizing == "" {
		return SizingStatic
	}
	return cfg.Sizing
}

// octreeBox returns the region of a new octree whose first points are points.
func (cfg *Config) octreeBox(points pc.PointCloud) (pc.Box, error) {
	if cfg.sizing() == SizingStatic {
		return pc.NewBox(cfg.Corner, cfg.EdgeLength)
	}
	if len(points) == 0 {
		return pc.Box{}, errors.New("cannot size an octree without points")
	}

	meta := points.MetaData()
	size := cfg.MinVoxelSize
	corner := r3.Vector{
		X: snapDown(meta.MinX, size),
		Y: snapDown(meta.MinY, size),
		Z: snapDown(meta.MinZ, size),
	}
	edge := size
	for i := 0; i < maxSizingSteps; i++ {
		if corner.X+edge >= meta.MaxX && corner.Y+edge >= meta.MaxY && corner.Z+edge >= meta.MaxZ {
			return pc.NewBox(corner, edge)
		}
		edge *= 2
	}
	return pc.Box{}, errors.Errorf("points spanning %v to %v are too far apart for voxel size %v", meta.Min(), meta.Max(), size)
}

func snapDown(v, size float64) float64 {
	return math.Floor(v/size) * size
}
