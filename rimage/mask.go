package rimage

import (
	"image"

	"github.com/golang/geo/r2"
)

// Mask is a binary mask over a rectangle of image coordinates. Pixels are stored in local
// (rectangle-relative) coordinates but addressed in image coordinates.
type Mask struct {
	rect image.Rectangle
	bits []bool
}

// NewMask returns an empty mask covering rect.
func NewMask(rect image.Rectangle) *Mask {
	rect = rect.Canon()
	return &Mask{rect: rect, bits: make([]bool, rect.Dx()*rect.Dy())}
}

// Bounds returns the rectangle the mask covers, in image coordinates.
func (m *Mask) Bounds() image.Rectangle {
	return m.rect
}

// Width of the mask rectangle.
func (m *Mask) Width() int {
	return m.rect.Dx()
}

// Height of the mask rectangle.
func (m *Mask) Height() int {
	return m.rect.Dy()
}

// At returns whether the image pixel (x, y) is set. Pixels outside the rectangle are never set.
func (m *Mask) At(x, y int) bool {
	if !(image.Point{x, y}).In(m.rect) {
		return false
	}
	return m.bits[(y-m.rect.Min.Y)*m.rect.Dx()+(x-m.rect.Min.X)]
}

// Set marks the image pixel (x, y). Pixels outside the rectangle are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if !(image.Point{x, y}).In(m.rect) {
		return
	}
	m.bits[(y-m.rect.Min.Y)*m.rect.Dx()+(x-m.rect.Min.X)] = v
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	bits := make([]bool, len(m.bits))
	copy(bits, m.bits)
	return &Mask{rect: m.rect, bits: bits}
}

// MaskFromPolygon rasterizes poly over rect: a pixel is set when its integer coordinate lies
// inside the polygon or on its boundary.
func MaskFromPolygon(poly []r2.Point, rect image.Rectangle) *Mask {
	m := NewMask(rect)
	for y := m.rect.Min.Y; y < m.rect.Max.Y; y++ {
		for x := m.rect.Min.X; x < m.rect.Max.X; x++ {
			if PointInPolygon(r2.Point{X: float64(x), Y: float64(y)}, poly) {
				m.Set(x, y, true)
			}
		}
	}
	return m
}
