// Package screen turns segmented white regions into oriented screen quadrilaterals.
package screen

import (
	"image"
	"math"
	"sort"

	"github.com/golang/geo/r2"

	"go.viam.com/mockup/rimage"
	"go.viam.com/mockup/utils"
)

const (
	// edgeMargin is how close to the frame border a bounding box may come before the region is
	// treated as cut off.
	edgeMargin = 3
	// maxHullInput caps the number of boundary points fed to the hull.
	maxHullInput = 500
)

// Orientation of an upright screen.
type Orientation string

// Orientations.
const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// CornerResult is the outline recovered from a region mask.
type CornerResult struct {
	// Corners are ordered clockwise starting top-left in the upright frame of the screen.
	Corners rimage.Quad
	// Rotation is the clockwise tilt of the screen in radians, in (-pi, pi].
	Rotation float64
	// Partial is set when the region touches the frame border and corners are the bounding box.
	Partial     bool
	Orientation Orientation
}

// ExtractCorners finds the quadrilateral outline of the region in mask. frame is the bounds of
// the image the mask was taken from.
func ExtractCorners(mask *rimage.Mask, frame image.Rectangle) CornerResult {
	rect := mask.Bounds()
	if touchesBorder(rect, frame) {
		return axisAligned(rect, true)
	}

	hull := rimage.ConvexHull(sampleBoundary(rimage.BoundaryPoints(mask)))
	if len(hull) < 4 {
		return axisAligned(rect, false)
	}

	mar := rimage.MinAreaRect(hull)
	rotation := mar.Angle
	if rotation > math.Pi/4 {
		rotation -= math.Pi / 2
	}
	if !topInUpperHalf(hull, mar.Center, rotation) {
		rotation += math.Pi
	}
	rotation = utils.NormalizeAngle(rotation)

	picked, ok := matchHullCorners(hull, mar.Corners)
	if !ok {
		picked = quadrantCorners(hull, rotation, mar.Corners)
	}
	corners := orderCorners(picked, rotation)
	return CornerResult{
		Corners:     corners,
		Rotation:    rotation,
		Orientation: orientationOf(corners),
	}
}

// OrientationFromCorners estimates the clockwise tilt of an ordered quad from the mean direction
// of its top and bottom edges and its left and right edges turned by a quarter.
func OrientationFromCorners(q rimage.Quad) float64 {
	quarter := func(p r2.Point) r2.Point { return r2.Point{X: p.Y, Y: -p.X} }
	d := q[rimage.TopRight].Sub(q[rimage.TopLeft]).
		Add(q[rimage.BottomRight].Sub(q[rimage.BottomLeft])).
		Add(quarter(q[rimage.BottomLeft].Sub(q[rimage.TopLeft]))).
		Add(quarter(q[rimage.BottomRight].Sub(q[rimage.TopRight])))
	if d.X == 0 && d.Y == 0 {
		return 0
	}
	return math.Atan2(d.Y, d.X)
}

func touchesBorder(rect, frame image.Rectangle) bool {
	return rect.Min.X-frame.Min.X <= edgeMargin ||
		rect.Min.Y-frame.Min.Y <= edgeMargin ||
		frame.Max.X-rect.Max.X <= edgeMargin ||
		frame.Max.Y-rect.Max.Y <= edgeMargin
}

func axisAligned(rect image.Rectangle, partial bool) CornerResult {
	q := rimage.QuadFromRect(rect)
	return CornerResult{Corners: q, Partial: partial, Orientation: orientationOf(q)}
}

func orientationOf(q rimage.Quad) Orientation {
	w, h := q.Size()
	if h > w {
		return Portrait
	}
	return Landscape
}

// sampleBoundary thins pts for the hull while keeping the extreme point in each of the 8 compass
// directions, so the true corners of axis-aligned and tilted rectangles survive.
func sampleBoundary(pts []r2.Point) []r2.Point {
	if len(pts) <= maxHullInput {
		return pts
	}
	dirs := []r2.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1}}
	extremes := make([]r2.Point, len(dirs))
	best := make([]float64, len(dirs))
	for i := range best {
		best[i] = math.Inf(-1)
	}
	for _, p := range pts {
		for i, d := range dirs {
			if v := p.Dot(d); v > best[i] {
				best[i] = v
				extremes[i] = p
			}
		}
	}
	return append(rimage.SubsamplePoints(pts, maxHullInput-len(dirs)), extremes...)
}

// topInUpperHalf reports whether the topmost hull point stays above center once the hull is
// turned back by rotation.
func topInUpperHalf(hull []r2.Point, center r2.Point, rotation float64) bool {
	top := hull[0]
	for _, p := range hull[1:] {
		if p.Y < top.Y {
			top = p
		}
	}
	return rimage.Rotate(top, center, -rotation).Y <= center.Y
}

// matchHullCorners picks, for every rectangle corner, the nearest hull point. It fails when two
// rectangle corners claim the same point.
func matchHullCorners(hull []r2.Point, rect rimage.Quad) ([4]r2.Point, bool) {
	var picked [4]r2.Point
	used := make(map[int]bool, 4)
	for i, c := range rect {
		nearest, dist := -1, math.Inf(1)
		for j, p := range hull {
			if d := p.Sub(c); d.Dot(d) < dist {
				nearest, dist = j, d.Dot(d)
			}
		}
		if used[nearest] {
			return picked, false
		}
		used[nearest] = true
		picked[i] = hull[nearest]
	}
	return picked, true
}

// quadrantCorners splits the hull into four quadrants around its centroid in the upright frame and
// picks the point furthest along each quadrant's diagonal. Rectangle corners fill empty quadrants.
func quadrantCorners(hull []r2.Point, rotation float64, rect rimage.Quad) [4]r2.Point {
	center := rimage.Centroid(hull)
	diagonals := [4]r2.Point{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}
	var picked [4]r2.Point
	var found [4]bool
	best := [4]float64{}
	for _, p := range hull {
		local := rimage.Rotate(p, center, -rotation).Sub(center)
		q := quadrantOf(local)
		if v := local.Dot(diagonals[q]); !found[q] || v > best[q] {
			picked[q], best[q], found[q] = p, v, true
		}
	}
	for q := range picked {
		if found[q] {
			continue
		}
		for _, c := range rect {
			if quadrantOf(rimage.Rotate(c, center, -rotation).Sub(center)) == q {
				picked[q] = c
				break
			}
		}
	}
	return picked
}

// quadrantOf maps an upright-frame offset to TopLeft..BottomLeft.
func quadrantOf(local r2.Point) int {
	switch {
	case local.X < 0 && local.Y < 0:
		return rimage.TopLeft
	case local.Y < 0:
		return rimage.TopRight
	case local.X >= 0:
		return rimage.BottomRight
	default:
		return rimage.BottomLeft
	}
}

// orderCorners sorts pts clockwise from top-left by their angle around the centroid in the
// upright frame.
func orderCorners(pts [4]r2.Point, rotation float64) rimage.Quad {
	center := rimage.Centroid(pts[:])
	type corner struct {
		p     r2.Point
		angle float64
	}
	cs := make([]corner, 0, 4)
	for _, p := range pts {
		local := rimage.Rotate(p, center, -rotation).Sub(center)
		cs = append(cs, corner{p: p, angle: math.Atan2(local.Y, local.X)})
	}
	// y points down, so ascending angle from -pi visits top-left, top-right, bottom-right, bottom-left.
	sort.Slice(cs, func(i, j int) bool { return cs[i].angle < cs[j].angle })
	var q rimage.Quad
	for i, c := range cs {
		q[i] = c.p
	}
	return q
}
