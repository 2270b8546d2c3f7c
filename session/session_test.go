package session

import (
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"go.viam.com/test"

	"go.viam.com/mockup/composite"
	"go.viam.com/mockup/logging"
	"go.viam.com/mockup/rimage"
	"go.viam.com/mockup/rimage/transform"
	"go.viam.com/mockup/vision/segmentation"
)

var red = color.NRGBA{R: 255, A: 255}

// twoScreens is a 1000x800 black frame with white screens at (100,100)-(500,700) and
// (600,200)-(900,500).
func twoScreens() *rimage.Image {
	img := rimage.NewImage(1000, 800)
	img.Fill(rimage.Black)
	for _, r := range []image.Rectangle{image.Rect(100, 100, 500, 700), image.Rect(600, 200, 900, 500)} {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.Set(x, y, rimage.White)
			}
		}
	}
	return img
}

func testOptions(t *testing.T, logger logging.Logger) Options {
	t.Helper()
	det, err := segmentation.NewRegionDetector(segmentation.DefaultDetectorConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	comp, err := composite.NewCompositor(composite.DefaultRenderConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	return Options{Detector: det, Compositor: comp}
}

func newTestSession(t *testing.T, opts ...func(*Options)) *Session {
	t.Helper()
	logger := logging.NewTestLogger(t)
	o := testOptions(t, logger)
	for _, f := range opts {
		f(&o)
	}
	s, err := New(twoScreens(), "iphone-frame.png", o, logger)
	test.That(t, err, test.ShouldBeNil)
	return s
}

func solidImage(w, h int, c color.NRGBA) *rimage.Image {
	img := rimage.NewImage(w, h)
	img.Fill(c)
	return img
}

func TestNewSession(t *testing.T) {
	logger := logging.NewTestLogger(t)
	opts := testOptions(t, logger)

	_, err := New(nil, "", opts, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(twoScreens(), "", Options{}, logger)
	test.That(t, err, test.ShouldNotBeNil)

	id := uuid.New()
	s, err := NewWithID(id, twoScreens(), "", opts, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.ID(), test.ShouldEqual, id)
	test.That(t, s.State(), test.ShouldEqual, StateIdle)
	test.That(t, s.Regions(), test.ShouldBeEmpty)
	test.That(t, s.Active(time.Now().Add(time.Hour)), test.ShouldBeTrue)
}

func TestCornerEditFlow(t *testing.T) {
	s := newTestSession(t)

	err := s.SelectRegion(1)
	test.That(t, err, test.ShouldBeError)
	test.That(t, err, test.ShouldWrap, ErrInvalidState)

	res, err := s.Detect()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Regions, test.ShouldHaveLength, 2)
	test.That(t, s.State(), test.ShouldEqual, StateRegionsDetected)

	entries := s.Regions()
	test.That(t, entries, test.ShouldHaveLength, 2)
	test.That(t, entries[0].ID, test.ShouldEqual, RegionID(1))
	test.That(t, entries[1].ID, test.ShouldEqual, RegionID(2))
	test.That(t, entries[0].Region.Rect, test.ShouldResemble, image.Rect(100, 100, 500, 700))
	detected := entries[0].Region.Corners

	test.That(t, s.BeginCornerEdit(), test.ShouldWrap, ErrInvalidState)
	test.That(t, s.SelectRegion(7), test.ShouldWrap, ErrUnknownRegion)
	test.That(t, s.SelectRegion(1), test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, StateRegionSelected)
	id, ok := s.Selected()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, id, test.ShouldEqual, RegionID(1))

	test.That(t, s.BeginCornerEdit(), test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, StateCornerEditing)
	editing, ok := s.EditingCorners()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, editing, test.ShouldResemble, detected)

	test.That(t, s.DragCorner(0, r2.Point{X: 90, Y: 90}), test.ShouldBeNil)
	test.That(t, s.DraggingCorner(), test.ShouldEqual, 0)
	test.That(t, s.DragCorner(4, r2.Point{}), test.ShouldNotBeNil)
	editing, _ = s.EditingCorners()
	test.That(t, editing[rimage.TopLeft], test.ShouldResemble, r2.Point{X: 90, Y: 90})

	// the region itself is untouched until confirm
	r, err := s.Region(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Corners, test.ShouldResemble, detected)
	test.That(t, r.Edited, test.ShouldBeFalse)

	test.That(t, s.ReleaseCorner(), test.ShouldBeNil)
	test.That(t, s.DraggingCorner(), test.ShouldEqual, -1)

	_, err = s.Detect()
	test.That(t, err, test.ShouldWrap, ErrInvalidState)

	test.That(t, s.ConfirmCornerEdit(), test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, StateRegionsDetected)
	_, ok = s.EditingCorners()
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = s.Selected()
	test.That(t, ok, test.ShouldBeFalse)

	r, err = s.Region(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Edited, test.ShouldBeTrue)
	test.That(t, r.Corners[rimage.TopLeft], test.ShouldResemble, r2.Point{X: 90, Y: 90})
	test.That(t, r.Rect.Min, test.ShouldResemble, image.Pt(90, 90))
	test.That(t, r.Mask.At(95, 95), test.ShouldBeTrue)
	test.That(t, r.OriginalCorners(), test.ShouldResemble, detected)

	test.That(t, s.ResetRegion(1), test.ShouldBeNil)
	r, err = s.Region(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Edited, test.ShouldBeFalse)
	test.That(t, r.Corners, test.ShouldResemble, detected)
	test.That(t, r.Rect, test.ShouldResemble, image.Rect(100, 100, 500, 700))
}

func TestCancelCornerEdit(t *testing.T) {
	s := newTestSession(t)
	test.That(t, s.CancelCornerEdit(), test.ShouldWrap, ErrInvalidState)

	err := s.ApplyAll(
		Detect{},
		SelectRegion{ID: 2},
		BeginCornerEdit{},
		DragCorner{Index: 2, Point: r2.Point{X: 950, Y: 550}},
		ReleaseCorner{},
		CancelCornerEdit{},
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, StateRegionsDetected)

	r, err := s.Region(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Edited, test.ShouldBeFalse)
	test.That(t, r.Rect, test.ShouldResemble, image.Rect(600, 200, 900, 500))
}

func TestConfirmSingularCorners(t *testing.T) {
	s := newTestSession(t)
	test.That(t, s.ApplyAll(Detect{}, SelectRegion{ID: 1}, BeginCornerEdit{}), test.ShouldBeNil)
	for i := range 4 {
		v := float64(100 * (i + 1))
		test.That(t, s.Apply(DragCorner{Index: i, Point: r2.Point{X: v, Y: v}}), test.ShouldBeNil)
	}

	err := s.ConfirmCornerEdit()
	test.That(t, err, test.ShouldWrap, transform.ErrSingular)
	test.That(t, s.State(), test.ShouldEqual, StateCornerEditing)

	r, err := s.Region(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Edited, test.ShouldBeFalse)

	test.That(t, s.CancelCornerEdit(), test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, StateRegionsDetected)
}

func TestConfirmNonConvexWarns(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	o := testOptions(t, logger)
	s, err := New(twoScreens(), "", o, logger)
	test.That(t, err, test.ShouldBeNil)

	err = s.ApplyAll(
		Detect{},
		SelectRegion{ID: 1},
		BeginCornerEdit{},
		DragCorner{Index: 2, Point: r2.Point{X: 300, Y: 300}},
		ConfirmCornerEdit{},
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("confirmed corners are not convex").Len(), test.ShouldEqual, 1)

	r, err := s.Region(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Corners.IsConvex(), test.ShouldBeFalse)
	test.That(t, r.Mask.At(490, 690), test.ShouldBeFalse)
}

func TestManualRegions(t *testing.T) {
	s := newTestSession(t)

	id, err := s.AddManualRegion(image.Pt(300, 400))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, id, test.ShouldEqual, RegionID(1))
	test.That(t, s.State(), test.ShouldEqual, StateRegionsDetected)

	_, err = s.AddManualRegion(image.Pt(250, 350))
	test.That(t, err, test.ShouldWrap, ErrDuplicateRegion)

	_, err = s.AddManualRegion(image.Pt(20, 20))
	test.That(t, err, test.ShouldWrap, segmentation.ErrNoWhitePixelNearSeed)

	id, err = s.AddManualRegion(image.Pt(750, 350))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, id, test.ShouldEqual, RegionID(2))

	test.That(t, s.RemoveRegion(1), test.ShouldBeNil)
	test.That(t, s.RemoveRegion(1), test.ShouldWrap, ErrUnknownRegion)
	id, err = s.AddManualRegion(image.Pt(300, 400))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, id, test.ShouldEqual, RegionID(3))

	ids := []RegionID{}
	for _, e := range s.Regions() {
		ids = append(ids, e.ID)
	}
	test.That(t, ids, test.ShouldResemble, []RegionID{2, 3})
}

func TestRemoveSelectedRegion(t *testing.T) {
	s := newTestSession(t)
	test.That(t, s.ApplyAll(Detect{}, SelectRegion{ID: 2}), test.ShouldBeNil)
	test.That(t, s.Apply(RemoveRegion{ID: 2}), test.ShouldBeNil)
	test.That(t, s.State(), test.ShouldEqual, StateRegionsDetected)
	_, ok := s.Selected()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, s.Regions(), test.ShouldHaveLength, 1)
}

func TestComposite(t *testing.T) {
	var changes atomic.Int32
	s := newTestSession(t, func(o *Options) {
		o.OnChange = func() { changes.Add(1) }
	})

	out, err := s.Composite()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Equal(s.Frame()), test.ShouldBeTrue)

	_, err = s.Detect()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, changes.Load(), test.ShouldEqual, int32(1))

	err = s.SetUserImage(5, solidImage(40, 60, red), composite.FitCover, image.Rectangle{})
	test.That(t, err, test.ShouldWrap, ErrUnknownRegion)
	test.That(t, s.SetUserImage(1, nil, composite.FitCover, image.Rectangle{}), test.ShouldNotBeNil)

	test.That(t, s.Apply(SetUserImage{ID: 1, Image: solidImage(40, 60, red), Fit: composite.FitCover}), test.ShouldBeNil)
	test.That(t, changes.Load(), test.ShouldEqual, int32(2))

	out, err = s.Composite()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Get(300, 400), test.ShouldResemble, red)
	test.That(t, out.Get(750, 350), test.ShouldResemble, rimage.White)
	test.That(t, out.Get(50, 50), test.ShouldResemble, rimage.Black)

	again, err := s.Composite()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again == out, test.ShouldBeTrue)

	// the preview follows the working corners
	test.That(t, s.ApplyAll(SelectRegion{ID: 1}, BeginCornerEdit{}), test.ShouldBeNil)
	test.That(t, s.DragCorner(1, r2.Point{X: 300, Y: 100}), test.ShouldBeNil)
	test.That(t, changes.Load(), test.ShouldEqual, int32(3))
	preview, err := s.Composite()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, preview == out, test.ShouldBeFalse)
	test.That(t, preview.Get(480, 110), test.ShouldResemble, rimage.White)

	// export renders committed corners
	exported, err := s.Export()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, exported.Get(480, 110), test.ShouldResemble, red)

	test.That(t, s.CancelCornerEdit(), test.ShouldBeNil)
	test.That(t, changes.Load(), test.ShouldEqual, int32(4))
	out, err = s.Composite()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Get(480, 110), test.ShouldResemble, red)

	test.That(t, s.Apply(ClearUserImage{ID: 1}), test.ShouldBeNil)
	test.That(t, s.Apply(ClearUserImage{ID: 1}), test.ShouldBeNil)
	test.That(t, changes.Load(), test.ShouldEqual, int32(5))
	out, err = s.Composite()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Equal(s.Frame()), test.ShouldBeTrue)
}

func TestCompositeFollowsDetectionThreshold(t *testing.T) {
	offWhite := color.NRGBA{R: 225, G: 225, B: 225, A: 255}
	frame := rimage.NewImage(1000, 800)
	frame.Fill(rimage.Black)
	for y := 100; y < 700; y++ {
		for x := 100; x < 500; x++ {
			frame.Set(x, y, offWhite)
		}
	}

	logger := logging.NewTestLogger(t)
	detCfg := segmentation.DefaultDetectorConfig()
	detCfg.LuminanceThreshold = 0.8
	det, err := segmentation.NewRegionDetector(detCfg, logger)
	test.That(t, err, test.ShouldBeNil)
	comp, err := composite.NewCompositor(composite.DefaultRenderConfig(), logger)
	test.That(t, err, test.ShouldBeNil)

	s, err := New(frame, "", Options{Detector: det, Compositor: comp}, logger)
	test.That(t, err, test.ShouldBeNil)
	res, err := s.Detect()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Regions, test.ShouldHaveLength, 1)

	test.That(t, s.SetUserImage(1, solidImage(300, 300, red), composite.FitCover, image.Rectangle{}), test.ShouldBeNil)
	for _, render := range []func() (*rimage.Image, error){s.Composite, s.Export} {
		out, err := render()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out.Get(300, 400), test.ShouldResemble, red)
		test.That(t, out.Get(50, 50), test.ShouldResemble, rimage.Black)
	}
}

func TestDetectDropsUserImages(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Detect()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.SetUserImage(1, solidImage(4, 4, red), composite.FitContain, image.Rectangle{}), test.ShouldBeNil)

	_, err = s.Detect()
	test.That(t, err, test.ShouldBeNil)
	out, err := s.Composite()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Equal(s.Frame()), test.ShouldBeTrue)
	test.That(t, s.Regions()[0].ID, test.ShouldEqual, RegionID(3))
}

func TestStateString(t *testing.T) {
	test.That(t, StateIdle.String(), test.ShouldEqual, "idle")
	test.That(t, StateCornerEditing.String(), test.ShouldEqual, "corner_editing")
	test.That(t, State(42).String(), test.ShouldEqual, "unknown")
}
