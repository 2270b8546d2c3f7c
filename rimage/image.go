// Package rimage defines the pixel buffer, mask and planar geometry primitives the
// detection and compositing pipeline is built on.
package rimage

import (
	"bytes"
	"image"
	"image/color"

	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
)

// Image is a width x height buffer of straight (non-premultiplied) RGBA bytes, row-major,
// four bytes per pixel. It is owned by a single request or session; copy it with Clone
// before handing it to another one.
type Image struct {
	width, height int
	pix           []uint8
}

// NewImage returns a fully transparent image.
func NewImage(width, height int) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Image{
		width:  width,
		height: height,
		pix:    make([]uint8, 4*width*height),
	}
}

// NewImageFromBytes wraps pix, which must hold exactly 4*width*height bytes. pix is not copied.
func NewImageFromBytes(width, height int, pix []uint8) (*Image, error) {
	if width < 0 || height < 0 {
		return nil, errors.Errorf("invalid image dimensions %dx%d", width, height)
	}
	if len(pix) != 4*width*height {
		return nil, errors.Errorf("expected %d bytes for a %dx%d image but got %d", 4*width*height, width, height, len(pix))
	}
	return &Image{width: width, height: height, pix: pix}, nil
}

// NewImageFromStdImage copies any image.Image into a new Image anchored at (0, 0).
func NewImageFromStdImage(img image.Image) *Image {
	if ri, ok := img.(*Image); ok {
		return ri.Clone()
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
	return &Image{width: b.Dx(), height: b.Dy(), pix: dst.Pix}
}

// ColorModel returns the non-premultiplied RGBA model.
func (i *Image) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds returns the image rectangle, always anchored at (0, 0).
func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.width, i.height)
}

// Width returns the width in pixels.
func (i *Image) Width() int {
	return i.width
}

// Height returns the height in pixels.
func (i *Image) Height() int {
	return i.height
}

// In returns whether (x, y) lies inside the image.
func (i *Image) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < i.width && y < i.height
}

// PixOffset returns the index of the first byte of pixel (x, y).
func (i *Image) PixOffset(x, y int) int {
	return 4 * (y*i.width + x)
}

// Pix exposes the backing bytes.
func (i *Image) Pix() []uint8 {
	return i.pix
}

// At implements image.Image. Out of range pixels are transparent.
func (i *Image) At(x, y int) color.Color {
	if !i.In(x, y) {
		return color.NRGBA{}
	}
	return i.Get(x, y)
}

// Get returns the pixel at (x, y). The caller must ensure it is in range.
func (i *Image) Get(x, y int) color.NRGBA {
	o := i.PixOffset(x, y)
	s := i.pix[o : o+4 : o+4]
	return color.NRGBA{R: s[0], G: s[1], B: s[2], A: s[3]}
}

// Set writes the pixel at (x, y). Out of range writes are ignored.
func (i *Image) Set(x, y int, c color.NRGBA) {
	if !i.In(x, y) {
		return
	}
	o := i.PixOffset(x, y)
	s := i.pix[o : o+4 : o+4]
	s[0], s[1], s[2], s[3] = c.R, c.G, c.B, c.A
}

// Fill sets every pixel to c.
func (i *Image) Fill(c color.NRGBA) {
	for o := 0; o < len(i.pix); o += 4 {
		i.pix[o], i.pix[o+1], i.pix[o+2], i.pix[o+3] = c.R, c.G, c.B, c.A
	}
}

// Clone returns a deep copy.
func (i *Image) Clone() *Image {
	pix := make([]uint8, len(i.pix))
	copy(pix, i.pix)
	return &Image{width: i.width, height: i.height, pix: pix}
}

// Equal reports whether both images have the same size and identical bytes.
func (i *Image) Equal(other *Image) bool {
	if other == nil {
		return false
	}
	return i.width == other.width && i.height == other.height && bytes.Equal(i.pix, other.pix)
}

// SubImage copies the part of i inside r into a new image anchored at (0, 0).
func (i *Image) SubImage(r image.Rectangle) *Image {
	r = r.Intersect(i.Bounds())
	out := NewImage(r.Dx(), r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copy(out.pix[out.PixOffset(0, y-r.Min.Y):out.PixOffset(0, y-r.Min.Y+1)], i.pix[i.PixOffset(r.Min.X, y):i.PixOffset(r.Max.X, y)])
	}
	return out
}

// ToNRGBA returns a standard library view sharing the same bytes.
func (i *Image) ToNRGBA() *image.NRGBA {
	return &image.NRGBA{Pix: i.pix, Stride: 4 * i.width, Rect: i.Bounds()}
}
