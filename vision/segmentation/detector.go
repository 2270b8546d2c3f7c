// Package segmentation finds blank white screen areas surrounded by a dark bezel in device frames.
package segmentation

import (
	"image"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/mockup/logging"
	"go.viam.com/mockup/rimage"
)

var (
	// ErrNoWhitePixelNearSeed is returned when no white pixel lies within the search radius of a seed.
	ErrNoWhitePixelNearSeed = errors.New("no white pixel near seed")
	// ErrRegionTooSmall is returned when the component grown from a seed is under the minimum size.
	ErrRegionTooSmall = errors.New("region too small")
)

// RegionDetector segments frames into candidate screen regions. It holds no per-frame state and
// may be shared.
type RegionDetector struct {
	cfg    DetectorConfig
	logger logging.Logger
}

// NewRegionDetector validates cfg and returns a detector using it.
func NewRegionDetector(cfg DetectorConfig, logger logging.Logger) (*RegionDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid detector config")
	}
	return &RegionDetector{cfg: cfg, logger: logger}, nil
}

// Config returns the configuration in use.
func (rd *RegionDetector) Config() DetectorConfig {
	return rd.cfg
}

// Detect finds every white component of img, filters out those that do not look like a screen
// inside a bezel, and returns the best MaxRegions of the rest. Every candidate is logged at debug
// level and reported in the result.
func (rd *RegionDetector) Detect(img *rimage.Image) (*DetectionResult, error) {
	total := img.Width() * img.Height()
	if total == 0 {
		return nil, errors.New("cannot detect regions in an empty image")
	}
	lab := newLabeler(img.Width(), img.Height(), whiteMask(img, rd.cfg))
	comps := lab.all()

	res := &DetectionResult{}
	type passing struct {
		report int
		comp   component
	}
	var pass []passing
	for _, c := range comps {
		if c.rect.Dx() < rd.cfg.MinRegionSize || c.rect.Dy() < rd.cfg.MinRegionSize {
			res.SkippedSmall++
			continue
		}
		rep := rd.evaluate(img, c, total)
		if rep.Reason == ReasonNone {
			pass = append(pass, passing{report: len(res.Candidates), comp: c})
		}
		res.Candidates = append(res.Candidates, rep)
	}

	sort.SliceStable(pass, func(i, j int) bool {
		return res.Candidates[pass[i].report].Score > res.Candidates[pass[j].report].Score
	})
	for rank, p := range pass {
		rep := &res.Candidates[p.report]
		if rank >= rd.cfg.MaxRegions {
			rep.Reason = ReasonRank
			continue
		}
		rep.Accepted = true
		res.Regions = append(res.Regions, regionFromReport(*rep, lab.mask(p.comp)))
	}

	for _, rep := range res.Candidates {
		rd.logger.Debugw("candidate", rep.logFields()...)
	}
	if res.SkippedSmall > 0 {
		rd.logger.Debugw("skipped small components", "count", res.SkippedSmall, "min_region_size", rd.cfg.MinRegionSize)
	}
	res.Manual = len(res.Regions) == 0
	accepted := lo.CountBy(res.Candidates, func(rep CandidateReport) bool { return rep.Accepted })
	rd.logger.Infow("detection complete", "components", len(comps), "candidates", len(res.Candidates), "regions", accepted)
	return res, nil
}

// evaluate runs the filters on c in order and reports the first one it fails.
func (rd *RegionDetector) evaluate(img *rimage.Image, c component, total int) CandidateReport {
	rep := CandidateReport{
		Rect:           c.rect,
		PixelCount:     c.pixels,
		AreaRatio:      float64(c.pixels) / float64(total),
		Rectangularity: float64(c.pixels) / float64(c.rect.Dx()*c.rect.Dy()),
	}
	switch {
	case rep.AreaRatio < rd.cfg.MinAreaRatio:
		rep.Reason = ReasonAreaRatio
		return rep
	case rep.Rectangularity < rd.cfg.MinRectangularity:
		rep.Reason = ReasonRectangularity
		return rep
	}

	rep.BezelScore, rep.EdgeScores = bezelScores(img, c.rect, rd.cfg)
	rep.Score = score(rep.BezelScore, rep.AreaRatio, rep.Rectangularity)
	switch {
	case rep.BezelScore < rd.cfg.MinBezelScore:
		rep.Reason = ReasonBezelScore
	case darkEdges(rep.EdgeScores, rd.cfg.EdgeDarkFraction) < rd.cfg.MinBezelEdges:
		rep.Reason = ReasonBezelEdges
	}
	return rep
}

// DetectFromSeed grows a single region from the white pixel nearest to seed, as picked by a user
// clicking on a screen the automatic pass missed. The region is scored but not filtered beyond the
// minimum size.
func (rd *RegionDetector) DetectFromSeed(img *rimage.Image, seed image.Point) (DetectedRegion, error) {
	white := whiteMask(img, rd.cfg)
	start, ok := nearestWhite(white, img.Width(), img.Height(), seed, rd.cfg.SeedSearchRadius)
	if !ok {
		return DetectedRegion{}, errors.Wrapf(ErrNoWhitePixelNearSeed, "seed %v radius %d", seed, rd.cfg.SeedSearchRadius)
	}

	lab := newLabeler(img.Width(), img.Height(), white)
	c := lab.grow(start.Y*img.Width() + start.X)
	if c.rect.Dx() < rd.cfg.MinRegionSize || c.rect.Dy() < rd.cfg.MinRegionSize {
		rd.logger.Debugw("seeded candidate", CandidateReport{Rect: c.rect, PixelCount: c.pixels, Reason: ReasonTooSmall}.logFields()...)
		return DetectedRegion{}, errors.Wrapf(ErrRegionTooSmall, "region %v from seed %v", c.rect, seed)
	}

	rep := CandidateReport{
		Rect:           c.rect,
		PixelCount:     c.pixels,
		AreaRatio:      float64(c.pixels) / float64(img.Width()*img.Height()),
		Rectangularity: float64(c.pixels) / float64(c.rect.Dx()*c.rect.Dy()),
		Accepted:       true,
	}
	rep.BezelScore, rep.EdgeScores = bezelScores(img, c.rect, rd.cfg)
	rep.Score = score(rep.BezelScore, rep.AreaRatio, rep.Rectangularity)
	rd.logger.Debugw("seeded candidate", rep.logFields()...)
	return regionFromReport(rep, lab.mask(c)), nil
}

// nearestWhite searches the square of the given radius around seed for the white pixel closest to
// it by Euclidean distance.
func nearestWhite(white []bool, width, height int, seed image.Point, radius int) (image.Point, bool) {
	best := image.Point{}
	bestDist := -1
	for y := max(seed.Y-radius, 0); y <= min(seed.Y+radius, height-1); y++ {
		for x := max(seed.X-radius, 0); x <= min(seed.X+radius, width-1); x++ {
			if !white[y*width+x] {
				continue
			}
			dx, dy := x-seed.X, y-seed.Y
			if d := dx*dx + dy*dy; bestDist < 0 || d < bestDist {
				best, bestDist = image.Point{X: x, Y: y}, d
			}
		}
	}
	return best, bestDist >= 0
}

func regionFromReport(rep CandidateReport, mask *rimage.Mask) DetectedRegion {
	return DetectedRegion{
		Rect:           rep.Rect,
		Mask:           mask,
		PixelCount:     rep.PixelCount,
		AreaRatio:      rep.AreaRatio,
		Rectangularity: rep.Rectangularity,
		BezelScore:     rep.BezelScore,
		EdgeScores:     rep.EdgeScores,
		Score:          rep.Score,
	}
}
