package rimage

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
)

// Quad is a quadrilateral ordered top-left, top-right, bottom-right, bottom-left.
type Quad [4]r2.Point

// Corner indexes into a Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// QuadFromRect returns the axis-aligned quad through the outermost pixel coordinates of r,
// so a 400 pixel wide rectangle starting at x=100 spans x=100..499.
func QuadFromRect(r image.Rectangle) Quad {
	x0, y0 := float64(r.Min.X), float64(r.Min.Y)
	x1, y1 := float64(r.Max.X-1), float64(r.Max.Y-1)
	return Quad{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

// Points returns the corners as a slice.
func (q Quad) Points() []r2.Point {
	return []r2.Point{q[0], q[1], q[2], q[3]}
}

// Bounds returns the smallest pixel rectangle containing every corner.
func (q Quad) Bounds() image.Rectangle {
	return BoundingBox(q[:])
}

// Centroid returns the mean of the corners.
func (q Quad) Centroid() r2.Point {
	return Centroid(q[:])
}

// Area returns the unsigned shoelace area.
func (q Quad) Area() float64 {
	return math.Abs(signedArea(q[:]))
}

// Size returns the average width (top and bottom edges) and height (left and right edges).
func (q Quad) Size() (float64, float64) {
	w := (q[TopRight].Sub(q[TopLeft]).Norm() + q[BottomRight].Sub(q[BottomLeft]).Norm()) / 2
	h := (q[BottomLeft].Sub(q[TopLeft]).Norm() + q[BottomRight].Sub(q[TopRight]).Norm()) / 2
	return w, h
}

// Contains reports whether p lies inside the quad or on its boundary. The quad must be convex;
// all four edge cross products sharing a sign means inside.
func (q Quad) Contains(p r2.Point) bool {
	var pos, neg bool
	for i := range 4 {
		c := Cross(q[i], q[(i+1)%4], p)
		if c > 1e-9 {
			pos = true
		} else if c < -1e-9 {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}

// IsConvex reports whether the quad is convex and not self-intersecting.
func (q Quad) IsConvex() bool {
	var sign float64
	for i := range 4 {
		c := Cross(q[i], q[(i+1)%4], q[(i+2)%4])
		if math.Abs(c) < 1e-9 {
			continue
		}
		if sign == 0 {
			sign = math.Copysign(1, c)
		} else if math.Copysign(1, c) != sign {
			return false
		}
	}
	if sign == 0 {
		return false
	}
	// a bow-tie has consistent turns only if it winds twice, which shows up as a mismatched area.
	total := 0.0
	for i := range 4 {
		total += math.Abs(Cross(q.Centroid(), q[i], q[(i+1)%4])) / 2
	}
	return math.Abs(total-q.Area()) < 1e-6*math.Max(1, total)
}

// Translate shifts every corner by d.
func (q Quad) Translate(d r2.Point) Quad {
	for i := range q {
		q[i] = q[i].Add(d)
	}
	return q
}

// Cross returns the z component of (a-o) x (b-o). In image coordinates (y down) a positive
// value means o->a->b turns clockwise on screen.
func Cross(o, a, b r2.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// Centroid returns the mean of pts.
func Centroid(pts []r2.Point) r2.Point {
	if len(pts) == 0 {
		return r2.Point{}
	}
	var c r2.Point
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(pts)))
}

// Rotate rotates p by theta radians around center.
func Rotate(p, center r2.Point, theta float64) r2.Point {
	s, c := math.Sincos(theta)
	d := p.Sub(center)
	return r2.Point{X: center.X + d.X*c - d.Y*s, Y: center.Y + d.X*s + d.Y*c}
}

// BoundingBox returns the smallest pixel rectangle containing pts.
func BoundingBox(pts []r2.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
}

// PointInPolygon tests whether p is inside poly by ray casting. Points on an edge count as inside.
func PointInPolygon(p r2.Point, poly []r2.Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i := range n {
		a, b := poly[i], poly[(i+1)%n]
		if onSegment(p, a, b) {
			return true
		}
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// RectOverlapRatio returns the intersection area of a and b divided by the smaller of their areas.
func RectOverlapRatio(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	smaller := math.Min(float64(a.Dx()*a.Dy()), float64(b.Dx()*b.Dy()))
	if smaller <= 0 {
		return 0
	}
	return float64(inter.Dx()*inter.Dy()) / smaller
}

func onSegment(p, a, b r2.Point) bool {
	ab := b.Sub(a)
	l := ab.Norm()
	if l == 0 {
		return p.Sub(a).Norm() < 1e-9
	}
	if math.Abs(Cross(a, b, p))/l > 1e-9 {
		return false
	}
	t := p.Sub(a).Dot(ab) / (l * l)
	return t >= -1e-9 && t <= 1+1e-9
}

func signedArea(pts []r2.Point) float64 {
	a := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return a / 2
}
