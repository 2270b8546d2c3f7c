package rimage

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
)

// BoundaryPoints returns, in image coordinates, every set pixel of m that has an unset
// 4-neighbor or sits on the border of the mask rectangle.
func BoundaryPoints(m *Mask) []r2.Point {
	r := m.Bounds()
	pts := make([]r2.Point, 0, 2*(r.Dx()+r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if !m.At(x, y) {
				continue
			}
			onBorder := x == r.Min.X || y == r.Min.Y || x == r.Max.X-1 || y == r.Max.Y-1
			if onBorder || !m.At(x-1, y) || !m.At(x+1, y) || !m.At(x, y-1) || !m.At(x, y+1) {
				pts = append(pts, r2.Point{X: float64(x), Y: float64(y)})
			}
		}
	}
	return pts
}

// SubsamplePoints keeps every k-th point so that at most maxPoints remain.
func SubsamplePoints(pts []r2.Point, maxPoints int) []r2.Point {
	if maxPoints <= 0 || len(pts) <= maxPoints {
		return pts
	}
	step := int(math.Ceil(float64(len(pts)) / float64(maxPoints)))
	out := make([]r2.Point, 0, maxPoints)
	for i := 0; i < len(pts); i += step {
		out = append(out, pts[i])
	}
	return out
}

// ConvexHull computes the convex hull of pts with a Graham scan: points are sorted by polar
// angle around the lowest (smallest y, then smallest x) point and a monotonic chain is kept
// using cross product turn tests. Collinear boundary points are dropped. The hull is
// returned clockwise on screen (image coordinates, y down).
func ConvexHull(pts []r2.Point) []r2.Point {
	uniq := dedupe(pts)
	if len(uniq) < 3 {
		return uniq
	}

	lowest := 0
	for i, p := range uniq {
		if p.Y < uniq[lowest].Y || (p.Y == uniq[lowest].Y && p.X < uniq[lowest].X) {
			lowest = i
		}
	}
	uniq[0], uniq[lowest] = uniq[lowest], uniq[0]
	pivot := uniq[0]

	rest := uniq[1:]
	sort.Slice(rest, func(i, j int) bool {
		c := Cross(pivot, rest[i], rest[j])
		if c != 0 {
			return c > 0
		}
		di, dj := rest[i].Sub(pivot), rest[j].Sub(pivot)
		return di.Dot(di) < dj.Dot(dj)
	})

	hull := make([]r2.Point, 0, len(uniq))
	hull = append(hull, pivot)
	for _, p := range rest {
		for len(hull) > 1 && Cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}

// RotatedRect is an oriented rectangle.
type RotatedRect struct {
	Center r2.Point
	// Width is measured along the Angle direction, Height perpendicular to it.
	Width, Height float64
	// Angle is the direction of the rectangle's first edge in [0, pi/2).
	Angle float64
	// Corners are ordered so that, for small angles, they read top-left, top-right,
	// bottom-right, bottom-left.
	Corners Quad
}

// Area of the rectangle.
func (r RotatedRect) Area() float64 {
	return r.Width * r.Height
}

// MinAreaRect finds the minimum-area rectangle enclosing hull by rotating calipers: every hull
// edge direction is tried, all points are projected onto it and its perpendicular, and the
// tightest extents win. hull should be convex; any point set works but is slower to reason about.
func MinAreaRect(hull []r2.Point) RotatedRect {
	switch len(hull) {
	case 0:
		return RotatedRect{}
	case 1:
		return RotatedRect{Center: hull[0], Corners: Quad{hull[0], hull[0], hull[0], hull[0]}}
	}

	best := RotatedRect{Width: math.Inf(1), Height: math.Inf(1)}
	bestArea := math.Inf(1)
	for i := range hull {
		edge := hull[(i+1)%len(hull)].Sub(hull[i])
		if edge.Dot(edge) == 0 {
			continue
		}
		angle := math.Mod(math.Atan2(edge.Y, edge.X), math.Pi/2)
		if angle < 0 {
			angle += math.Pi / 2
		}
		cand := boundingRectAt(hull, angle)
		if area := cand.Area(); area < bestArea-1e-9 {
			bestArea = area
			best = cand
		}
	}
	if math.IsInf(bestArea, 1) {
		return boundingRectAt(hull, 0)
	}
	return best
}

// boundingRectAt returns the rectangle aligned with angle that bounds pts.
func boundingRectAt(pts []r2.Point, angle float64) RotatedRect {
	s, c := math.Sincos(angle)
	u := r2.Point{X: c, Y: s}
	v := r2.Point{X: -s, Y: c}
	minU, maxU := math.Inf(1), math.Inf(-1)
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		pu, pv := p.Dot(u), p.Dot(v)
		minU, maxU = math.Min(minU, pu), math.Max(maxU, pu)
		minV, maxV = math.Min(minV, pv), math.Max(maxV, pv)
	}
	at := func(a, b float64) r2.Point { return u.Mul(a).Add(v.Mul(b)) }
	return RotatedRect{
		Center:  at((minU+maxU)/2, (minV+maxV)/2),
		Width:   maxU - minU,
		Height:  maxV - minV,
		Angle:   angle,
		Corners: Quad{at(minU, minV), at(maxU, minV), at(maxU, maxV), at(minU, maxV)},
	}
}

func dedupe(pts []r2.Point) []r2.Point {
	seen := make(map[r2.Point]struct{}, len(pts))
	out := make([]r2.Point, 0, len(pts))
	for _, p := range pts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
