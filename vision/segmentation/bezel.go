package segmentation

import (
	"image"

	"gonum.org/v1/gonum/stat"

	"go.viam.com/mockup/rimage"
)

// bezelBands returns the bands of width bw just outside each edge of r, clipped to bounds, in
// EdgeTop..EdgeLeft order. A band entirely outside bounds is empty.
func bezelBands(r, bounds image.Rectangle, bw int) [4]image.Rectangle {
	return [4]image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y-bw, r.Max.X, r.Min.Y).Intersect(bounds),
		image.Rect(r.Max.X, r.Min.Y, r.Max.X+bw, r.Max.Y).Intersect(bounds),
		image.Rect(r.Min.X, r.Max.Y, r.Max.X, r.Max.Y+bw).Intersect(bounds),
		image.Rect(r.Min.X-bw, r.Min.Y, r.Min.X, r.Max.Y).Intersect(bounds),
	}
}

// bezelScores measures how dark the surroundings of r are. The per-edge score is the fraction of
// band pixels darker than the threshold; an empty band scores 0. The mean of the four is returned
// alongside them.
func bezelScores(img *rimage.Image, r image.Rectangle, cfg DetectorConfig) (float64, [4]float64) {
	var scores [4]float64
	for i, band := range bezelBands(r, img.Bounds(), cfg.BezelWidth) {
		if band.Empty() {
			continue
		}
		dark := 0
		for y := band.Min.Y; y < band.Max.Y; y++ {
			for x := band.Min.X; x < band.Max.X; x++ {
				if rimage.IsDark(img.Get(x, y), cfg.DarkThreshold) {
					dark++
				}
			}
		}
		scores[i] = float64(dark) / float64(band.Dx()*band.Dy())
	}
	return stat.Mean(scores[:], nil), scores
}

// darkEdges counts the bands whose dark fraction exceeds the per-edge threshold.
func darkEdges(scores [4]float64, threshold float64) int {
	n := 0
	for _, s := range scores {
		if s > threshold {
			n++
		}
	}
	return n
}
