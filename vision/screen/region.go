package screen

import (
	"image"

	"github.com/pkg/errors"

	"go.viam.com/mockup/rimage"
	"go.viam.com/mockup/vision/segmentation"
)

// ScreenRegion is a detected or manually picked screen with its outline. Values are immutable:
// edits return a new ScreenRegion.
type ScreenRegion struct {
	segmentation.DetectedRegion
	Corners  rimage.Quad
	Rotation float64
	Partial  bool
	Device   DeviceType
	// Frame is the bounds of the image the region was found in.
	Frame image.Rectangle
	// Edited is set once the corners differ from the detected ones.
	Edited bool

	original         segmentation.DetectedRegion
	originalCorners  rimage.Quad
	originalRotation float64
}

// NewScreenRegion extracts the outline of det and infers the device it belongs to. filenameHint is
// the name of the frame file, if any.
func NewScreenRegion(det segmentation.DetectedRegion, frame image.Rectangle, filenameHint string) ScreenRegion {
	cr := ExtractCorners(det.Mask, frame)
	return ScreenRegion{
		DetectedRegion:   det,
		Corners:          cr.Corners,
		Rotation:         cr.Rotation,
		Partial:          cr.Partial,
		Device:           InferDeviceType(filenameHint, cr),
		Frame:            frame,
		original:         det,
		originalCorners:  cr.Corners,
		originalRotation: cr.Rotation,
	}
}

// Orientation reports whether the upright screen is taller than wide.
func (sr ScreenRegion) Orientation() Orientation {
	return orientationOf(sr.Corners)
}

// OriginalCorners returns the corners as detected, before any edit.
func (sr ScreenRegion) OriginalCorners() rimage.Quad {
	return sr.originalCorners
}

// WithCorners returns a copy of the region outlined by q instead. The mask, bounding box, pixel
// count and rotation are recomputed from q; bezel scores are kept.
func (sr ScreenRegion) WithCorners(q rimage.Quad) (ScreenRegion, error) {
	rect := q.Bounds().Intersect(sr.Frame)
	if rect.Empty() {
		return ScreenRegion{}, errors.Errorf("corners %v fall outside the frame %v", q, sr.Frame)
	}
	mask := rimage.MaskFromPolygon(q.Points(), rect)
	count := mask.Count()
	if count == 0 {
		return ScreenRegion{}, errors.Errorf("corners %v enclose no pixels", q)
	}

	out := sr
	out.Rect = rect
	out.Mask = mask
	out.PixelCount = count
	out.AreaRatio = float64(count) / float64(sr.Frame.Dx()*sr.Frame.Dy())
	out.Rectangularity = float64(count) / float64(rect.Dx()*rect.Dy())
	out.Corners = q
	out.Rotation = OrientationFromCorners(q)
	out.Edited = q != sr.originalCorners
	return out, nil
}

// Reset returns the region as it was first detected.
func (sr ScreenRegion) Reset() ScreenRegion {
	out := sr
	out.DetectedRegion = sr.original
	out.Corners = sr.originalCorners
	out.Rotation = sr.originalRotation
	out.Edited = false
	return out
}
