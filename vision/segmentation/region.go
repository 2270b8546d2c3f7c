package segmentation

import (
	"fmt"
	"image"

	"go.viam.com/mockup/rimage"
)

// Bezel band indexes into DetectedRegion.EdgeScores.
const (
	EdgeTop = iota
	EdgeRight
	EdgeBottom
	EdgeLeft
)

// DetectedRegion is one connected white area found in a frame. It is never mutated after creation.
type DetectedRegion struct {
	// Rect is the bounding box in image coordinates.
	Rect image.Rectangle
	// Mask marks the pixels of the region over Rect.
	Mask       *rimage.Mask
	PixelCount int
	// AreaRatio is PixelCount over the pixel count of the whole image.
	AreaRatio float64
	// Rectangularity is PixelCount over the bounding box area.
	Rectangularity float64
	// BezelScore is the mean dark fraction of the four bands around Rect.
	BezelScore float64
	// EdgeScores holds the dark fraction of each band, indexed by EdgeTop..EdgeLeft.
	EdgeScores [4]float64
	// Score ranks regions: BezelScore * AreaRatio * Rectangularity * 1000.
	Score float64
}

// Bounds returns the bounding box as x, y, width, height.
func (dr DetectedRegion) Bounds() (int, int, int, int) {
	return dr.Rect.Min.X, dr.Rect.Min.Y, dr.Rect.Dx(), dr.Rect.Dy()
}

func (dr DetectedRegion) String() string {
	x, y, w, h := dr.Bounds()
	return fmt.Sprintf("region (%d,%d %dx%d) pixels=%d score=%.3f", x, y, w, h, dr.PixelCount, dr.Score)
}

func score(bezel, areaRatio, rectangularity float64) float64 {
	return bezel * areaRatio * rectangularity * 1000
}
