package segmentation

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/mockup/logging"
	"go.viam.com/mockup/rimage"
)

func newFrame(w, h int, bg color.NRGBA) *rimage.Image {
	img := rimage.NewImage(w, h)
	img.Fill(bg)
	return img
}

func fillRect(img *rimage.Image, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

func newTestDetector(t *testing.T) *RegionDetector {
	t.Helper()
	rd, err := NewRegionDetector(DefaultDetectorConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return rd
}

func TestDetectSingleScreen(t *testing.T) {
	img := newFrame(1000, 800, rimage.Black)
	fillRect(img, image.Rect(100, 100, 500, 700), rimage.White)

	res, err := newTestDetector(t).Detect(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Manual, test.ShouldBeFalse)
	test.That(t, res.Regions, test.ShouldHaveLength, 1)

	r := res.Regions[0]
	x, y, w, h := r.Bounds()
	test.That(t, []int{x, y, w, h}, test.ShouldResemble, []int{100, 100, 400, 600})
	test.That(t, r.PixelCount, test.ShouldEqual, 240000)
	test.That(t, r.Mask.Count(), test.ShouldEqual, 240000)
	test.That(t, r.Rectangularity, test.ShouldAlmostEqual, 1.0)
	test.That(t, r.AreaRatio, test.ShouldAlmostEqual, 0.3)
	test.That(t, r.BezelScore, test.ShouldAlmostEqual, 1.0)
	test.That(t, r.EdgeScores, test.ShouldResemble, [4]float64{1, 1, 1, 1})
	test.That(t, r.Score, test.ShouldAlmostEqual, 300.0)
}

func TestDetectNothing(t *testing.T) {
	res, err := newTestDetector(t).Detect(newFrame(200, 100, rimage.Black))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Manual, test.ShouldBeTrue)
	test.That(t, res.Regions, test.ShouldBeEmpty)
	test.That(t, res.Candidates, test.ShouldBeEmpty)

	_, err = newTestDetector(t).Detect(rimage.NewImage(0, 0))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDetectWhiteBackgroundRejected(t *testing.T) {
	img := newFrame(400, 300, rimage.White)
	fillRect(img, image.Rect(100, 100, 300, 200), rimage.Black)

	res, err := newTestDetector(t).Detect(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Manual, test.ShouldBeTrue)
	test.That(t, res.Candidates, test.ShouldHaveLength, 1)
	test.That(t, res.Candidates[0].Reason, test.ShouldEqual, ReasonBezelScore)
	test.That(t, res.Candidates[0].EdgeScores, test.ShouldResemble, [4]float64{})
}

func TestDetectKeepsTopThree(t *testing.T) {
	img := newFrame(1000, 800, rimage.Black)
	rects := []image.Rectangle{
		image.Rect(700, 50, 800, 150),
		image.Rect(50, 50, 250, 250),
		image.Rect(500, 50, 620, 170),
		image.Rect(300, 50, 450, 200),
	}
	for _, r := range rects {
		fillRect(img, r, rimage.White)
	}

	res, err := newTestDetector(t).Detect(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Regions, test.ShouldHaveLength, 3)
	test.That(t, res.Regions[0].Rect, test.ShouldResemble, rects[1])
	test.That(t, res.Regions[1].Rect, test.ShouldResemble, rects[3])
	test.That(t, res.Regions[2].Rect, test.ShouldResemble, rects[2])
	test.That(t, res.Regions[0].Score, test.ShouldBeGreaterThan, res.Regions[1].Score)

	test.That(t, res.Candidates, test.ShouldHaveLength, 4)
	for _, c := range res.Candidates {
		if c.Rect == rects[0] {
			test.That(t, c.Accepted, test.ShouldBeFalse)
			test.That(t, c.Reason, test.ShouldEqual, ReasonRank)
		} else {
			test.That(t, c.Accepted, test.ShouldBeTrue)
		}
	}
}

func TestDetectFilters(t *testing.T) {
	t.Run("rectangularity", func(t *testing.T) {
		img := newFrame(1000, 800, rimage.Black)
		fillRect(img, image.Rect(100, 100, 400, 130), rimage.White)
		fillRect(img, image.Rect(100, 130, 130, 400), rimage.White)
		res, err := newTestDetector(t).Detect(img)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Candidates, test.ShouldHaveLength, 1)
		test.That(t, res.Candidates[0].Reason, test.ShouldEqual, ReasonRectangularity)
	})

	t.Run("area ratio", func(t *testing.T) {
		img := newFrame(1000, 800, rimage.Black)
		fillRect(img, image.Rect(100, 100, 150, 150), rimage.White)
		res, err := newTestDetector(t).Detect(img)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Candidates, test.ShouldHaveLength, 1)
		test.That(t, res.Candidates[0].Reason, test.ShouldEqual, ReasonAreaRatio)
	})

	t.Run("single dark edge", func(t *testing.T) {
		img := newFrame(600, 600, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
		fillRect(img, image.Rect(200, 200, 400, 400), rimage.White)
		fillRect(img, image.Rect(200, 190, 400, 200), rimage.Black)
		res, err := newTestDetector(t).Detect(img)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Candidates, test.ShouldHaveLength, 1)
		c := res.Candidates[0]
		test.That(t, c.EdgeScores, test.ShouldResemble, [4]float64{1, 0, 0, 0})
		test.That(t, c.BezelScore, test.ShouldAlmostEqual, 0.25)
		test.That(t, c.Reason, test.ShouldEqual, ReasonBezelEdges)
		test.That(t, res.Manual, test.ShouldBeTrue)
	})

	t.Run("specks", func(t *testing.T) {
		img := newFrame(300, 300, rimage.Black)
		fillRect(img, image.Rect(10, 10, 15, 15), rimage.White)
		fillRect(img, image.Rect(50, 50, 60, 120), rimage.White)
		res, err := newTestDetector(t).Detect(img)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.SkippedSmall, test.ShouldEqual, 2)
		test.That(t, res.Candidates, test.ShouldBeEmpty)
	})

	t.Run("translucent white", func(t *testing.T) {
		img := newFrame(400, 400, rimage.Black)
		fillRect(img, image.Rect(100, 100, 300, 300), color.NRGBA{R: 255, G: 255, B: 255, A: 200})
		res, err := newTestDetector(t).Detect(img)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Manual, test.ShouldBeTrue)
		test.That(t, res.Candidates, test.ShouldBeEmpty)
	})
}

func TestDetectPartialScreen(t *testing.T) {
	img := newFrame(800, 600, rimage.Black)
	fillRect(img, image.Rect(0, 200, 300, 500), rimage.White)
	res, err := newTestDetector(t).Detect(img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Regions, test.ShouldHaveLength, 1)
	test.That(t, res.Regions[0].EdgeScores, test.ShouldResemble, [4]float64{1, 1, 1, 0})
	test.That(t, res.Regions[0].BezelScore, test.ShouldAlmostEqual, 0.75)
}

func TestDetectLogsCandidates(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	rd, err := NewRegionDetector(DefaultDetectorConfig(), logger)
	test.That(t, err, test.ShouldBeNil)

	img := newFrame(1000, 800, rimage.Black)
	fillRect(img, image.Rect(100, 100, 500, 700), rimage.White)
	fillRect(img, image.Rect(700, 100, 740, 110), rimage.White)
	_, err = rd.Detect(img)
	test.That(t, err, test.ShouldBeNil)

	entries := logs.FilterMessage("candidate").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	fields := entries[0].ContextMap()
	test.That(t, fields["accepted"], test.ShouldEqual, true)
	test.That(t, fields["pixels"], test.ShouldEqual, int64(240000))
	test.That(t, fields["reason"], test.ShouldEqual, "")
	test.That(t, fields["bounds"], test.ShouldEqual, image.Rect(100, 100, 500, 700).String())
	for _, key := range []string{"area_ratio", "rectangularity", "bezel_score", "edge_scores"} {
		_, ok := fields[key]
		test.That(t, ok, test.ShouldBeTrue)
	}
	test.That(t, logs.FilterMessage("skipped small components").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("detection complete").Len(), test.ShouldEqual, 1)
}

func TestDetectFromSeed(t *testing.T) {
	img := newFrame(1000, 800, rimage.Black)
	fillRect(img, image.Rect(100, 100, 500, 700), rimage.White)
	fillRect(img, image.Rect(700, 100, 710, 110), rimage.White)
	rd := newTestDetector(t)

	r, err := rd.DetectFromSeed(img, image.Pt(300, 400))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Rect, test.ShouldResemble, image.Rect(100, 100, 500, 700))
	test.That(t, r.Score, test.ShouldAlmostEqual, 300.0)

	// a click just outside the screen snaps to the nearest white pixel
	r, err = rd.DetectFromSeed(img, image.Pt(90, 300))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.PixelCount, test.ShouldEqual, 240000)

	_, err = rd.DetectFromSeed(img, image.Pt(50, 50))
	test.That(t, errors.Is(err, ErrNoWhitePixelNearSeed), test.ShouldBeTrue)

	_, err = rd.DetectFromSeed(img, image.Pt(-500, -500))
	test.That(t, errors.Is(err, ErrNoWhitePixelNearSeed), test.ShouldBeTrue)

	_, err = rd.DetectFromSeed(img, image.Pt(705, 105))
	test.That(t, errors.Is(err, ErrRegionTooSmall), test.ShouldBeTrue)
}

func TestNearestWhite(t *testing.T) {
	white := make([]bool, 10*10)
	white[2*10+8] = true
	white[6*10+5] = true
	p, ok := nearestWhite(white, 10, 10, image.Pt(5, 4), 3)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p, test.ShouldResemble, image.Pt(5, 6))

	_, ok = nearestWhite(white, 10, 10, image.Pt(0, 9), 2)
	test.That(t, ok, test.ShouldBeFalse)
}
