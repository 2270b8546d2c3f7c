package screen

import (
	"image"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/mockup/rimage"
)

func TestScreenRegionEdits(t *testing.T) {
	img := rimage.NewImage(1000, 800)
	img.Fill(rimage.Black)
	rect := image.Rect(100, 100, 500, 700)
	paintQuad(img, rimage.QuadFromRect(rect), rimage.White)

	sr := NewScreenRegion(detectOne(t, img), img.Bounds(), "iphone-frame.png")
	test.That(t, sr.Device, test.ShouldEqual, DevicePhone)
	test.That(t, sr.Corners, test.ShouldResemble, rimage.QuadFromRect(rect))
	test.That(t, sr.Orientation(), test.ShouldEqual, Portrait)
	test.That(t, sr.Edited, test.ShouldBeFalse)

	q := sr.Corners
	q[rimage.TopLeft] = r2.Point{X: 80, Y: 90}
	edited, err := sr.WithCorners(q)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, edited.Edited, test.ShouldBeTrue)
	test.That(t, edited.Corners, test.ShouldResemble, q)
	test.That(t, edited.Rect, test.ShouldResemble, image.Rect(80, 90, 500, 700))
	test.That(t, edited.PixelCount, test.ShouldEqual, edited.Mask.Count())
	test.That(t, edited.PixelCount, test.ShouldBeGreaterThan, sr.PixelCount)
	test.That(t, edited.Rotation, test.ShouldNotEqual, 0.0)
	test.That(t, edited.OriginalCorners(), test.ShouldResemble, sr.Corners)

	// the source value is untouched
	test.That(t, sr.Rect, test.ShouldResemble, rect)
	test.That(t, sr.Mask.Count(), test.ShouldEqual, 240000)

	reset := edited.Reset()
	test.That(t, reset.Corners, test.ShouldResemble, sr.Corners)
	test.That(t, reset.Rect, test.ShouldResemble, rect)
	test.That(t, reset.PixelCount, test.ShouldEqual, 240000)
	test.That(t, reset.Rotation, test.ShouldEqual, 0.0)
	test.That(t, reset.Edited, test.ShouldBeFalse)

	outside := rimage.Quad{{X: 2000, Y: 2000}, {X: 2100, Y: 2000}, {X: 2100, Y: 2100}, {X: 2000, Y: 2100}}
	_, err = sr.WithCorners(outside)
	test.That(t, err, test.ShouldNotBeNil)

	same, err := sr.WithCorners(sr.Corners)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, same.Edited, test.ShouldBeFalse)
}

func TestInferDeviceTypeFromName(t *testing.T) {
	for fn, want := range map[string]DeviceType{
		"iphone-15-pro.png":        DevicePhone,
		"/tmp/frames/iPad_Air.jpg": DeviceTablet,
		"MacBook Pro 14.png":       DeviceLaptop,
		"imac-24.png":              DeviceDesktop,
		"apple-watch-ultra.png":    DeviceWatch,
		"Galaxy Tab S9.png":        DeviceTablet,
		"pixel8.png":               DevicePhone,
		"stable.png":               DeviceUnknown,
		"":                         DeviceUnknown,
	} {
		test.That(t, deviceFromName(fn), test.ShouldEqual, want)
	}
}

func TestInferDeviceTypeFromShape(t *testing.T) {
	shape := func(w, h int) CornerResult {
		return axisAligned(image.Rect(0, 0, w, h), false)
	}
	test.That(t, InferDeviceType("frame.png", shape(101, 201)), test.ShouldEqual, DevicePhone)
	test.That(t, InferDeviceType("frame.png", shape(301, 401)), test.ShouldEqual, DeviceTablet)
	test.That(t, InferDeviceType("frame.png", shape(1601, 901)), test.ShouldEqual, DeviceDesktop)
	test.That(t, InferDeviceType("frame.png", shape(1441, 901)), test.ShouldEqual, DeviceLaptop)
	test.That(t, InferDeviceType("frame.png", shape(401, 301)), test.ShouldEqual, DeviceTablet)
	test.That(t, InferDeviceType("frame.png", shape(201, 201)), test.ShouldEqual, DeviceWatch)
	test.That(t, InferDeviceType("laptop.png", shape(101, 201)), test.ShouldEqual, DeviceLaptop)
	test.That(t, deviceFromShape(CornerResult{}), test.ShouldEqual, DeviceUnknown)
}
