package segmentation

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/mockup/utils"
)

// DetectorConfig holds the tunables of the region detector. Luminance values are normalized to [0, 1].
type DetectorConfig struct {
	// LuminanceThreshold is the minimum luma of a white pixel.
	LuminanceThreshold float64 `json:"luminance_threshold"`
	// AlphaThreshold is the alpha a white pixel must strictly exceed.
	AlphaThreshold int `json:"alpha_threshold"`
	// MinAreaRatio is the minimum share of the whole image a region must cover.
	MinAreaRatio float64 `json:"min_area_ratio"`
	// MinRectangularity is the minimum ratio of region pixels to bounding box area.
	MinRectangularity float64 `json:"min_rectangularity"`
	// BezelWidth is the thickness in pixels of the band sampled outside each box edge.
	BezelWidth int `json:"bezel_width"`
	// DarkThreshold is the luma below which a bezel pixel counts as dark.
	DarkThreshold float64 `json:"dark_threshold"`
	// MinBezelScore is the minimum mean dark fraction over the four bands.
	MinBezelScore float64 `json:"min_bezel_score"`
	// EdgeDarkFraction is the dark fraction a single band must exceed to count as a bezel edge.
	EdgeDarkFraction float64 `json:"edge_dark_fraction"`
	// MinBezelEdges is the number of bands that must exceed EdgeDarkFraction.
	MinBezelEdges int `json:"min_bezel_edges"`
	// MaxRegions caps how many regions are kept, best score first.
	MaxRegions int `json:"max_regions"`
	// MinRegionSize is the minimum width and height of a region's bounding box.
	MinRegionSize int `json:"min_region_size"`
	// SeedSearchRadius bounds the search for a white pixel around a manual seed.
	SeedSearchRadius int `json:"seed_search_radius"`
}

// DefaultDetectorConfig returns the configuration tuned for device templates.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		LuminanceThreshold: 0.90,
		AlphaThreshold:     200,
		MinAreaRatio:       0.005,
		MinRectangularity:  0.35,
		BezelWidth:         10,
		DarkThreshold:      0.25,
		MinBezelScore:      0.20,
		EdgeDarkFraction:   0.15,
		MinBezelEdges:      2,
		MaxRegions:         3,
		MinRegionSize:      20,
		SeedSearchRadius:   15,
	}
}

// ConvertAttributes overlays the values present in am onto the config. Strings are accepted for
// numeric fields so environment-substituted values decode.
func (cfg *DetectorConfig) ConvertAttributes(am utils.AttributeMap) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return errors.Wrap(decoder.Decode(map[string]interface{}(am)), "invalid detection attributes")
}

// Validate returns every out of range field.
func (cfg DetectorConfig) Validate() error {
	var err error
	unit := func(name string, v float64) {
		if v < 0 || v > 1 {
			err = multierr.Append(err, errors.Errorf("%s must be in [0, 1], got %v", name, v))
		}
	}
	unit("luminance_threshold", cfg.LuminanceThreshold)
	unit("min_area_ratio", cfg.MinAreaRatio)
	unit("min_rectangularity", cfg.MinRectangularity)
	unit("dark_threshold", cfg.DarkThreshold)
	unit("min_bezel_score", cfg.MinBezelScore)
	unit("edge_dark_fraction", cfg.EdgeDarkFraction)
	if cfg.AlphaThreshold < 0 || cfg.AlphaThreshold > 255 {
		err = multierr.Append(err, errors.Errorf("alpha_threshold must be in [0, 255], got %d", cfg.AlphaThreshold))
	}
	if cfg.BezelWidth < 1 {
		err = multierr.Append(err, errors.Errorf("bezel_width must be positive, got %d", cfg.BezelWidth))
	}
	if cfg.MinBezelEdges < 0 || cfg.MinBezelEdges > 4 {
		err = multierr.Append(err, errors.Errorf("min_bezel_edges must be in [0, 4], got %d", cfg.MinBezelEdges))
	}
	if cfg.MaxRegions < 1 {
		err = multierr.Append(err, errors.Errorf("max_regions must be positive, got %d", cfg.MaxRegions))
	}
	if cfg.MinRegionSize < 1 {
		err = multierr.Append(err, errors.Errorf("min_region_size must be positive, got %d", cfg.MinRegionSize))
	}
	if cfg.SeedSearchRadius < 0 {
		err = multierr.Append(err, errors.Errorf("seed_search_radius must not be negative, got %d", cfg.SeedSearchRadius))
	}
	return err
}
