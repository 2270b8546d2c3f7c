package transform

import (
	"image/color"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/mockup/rimage"
)

// sampleTolerance absorbs rounding in the inverse mapping so quad corners land on the source corners.
const sampleTolerance = 1e-6

// WarpOptions tune the rasterizer.
type WarpOptions struct {
	// Supersample takes Supersample x Supersample sub-pixel samples per destination pixel.
	// Values below 2 sample once at the pixel coordinate. Only samples landing on the source are
	// averaged; a pixel with none stays black.
	Supersample int
}

// WarpIntoQuad paints the part of src inside srcQuad into dstQuad of dst with a perspective-correct
// inverse mapping. Every destination pixel inside dstQuad is first painted opaque black and then
// overwritten with a bilinear sample of src wherever the inverse mapping lands inside src, so
// letterboxed space stays black and no seam survives along the quad boundary. Pixels outside
// dstQuad are not touched.
func WarpIntoQuad(dst, src *rimage.Image, srcQuad, dstQuad rimage.Quad, opts WarpOptions) error {
	if src.Width() == 0 || src.Height() == 0 {
		return errors.New("cannot warp an empty image")
	}
	fwd, err := SolveHomography(srcQuad, dstQuad)
	if err != nil {
		return errors.Wrap(err, "cannot map source quad onto destination quad")
	}
	inv, err := fwd.Inverse()
	if err != nil {
		return errors.Wrap(err, "cannot invert source to destination mapping")
	}

	box := dstQuad.Bounds().Intersect(dst.Bounds())
	if box.Empty() {
		return nil
	}

	inside := make([]bool, box.Dx()*box.Dy())
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if dstQuad.Contains(r2.Point{X: float64(x), Y: float64(y)}) {
				inside[(y-box.Min.Y)*box.Dx()+(x-box.Min.X)] = true
				dst.Set(x, y, rimage.Black)
			}
		}
	}

	s := max(opts.Supersample, 1)
	offsets := []float64{0}
	if s > 1 {
		offsets = make([]float64, s)
		for i := range s {
			offsets[i] = (float64(i)+0.5)/float64(s) - 0.5
		}
	}

	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if !inside[(y-box.Min.Y)*box.Dx()+(x-box.Min.X)] {
				continue
			}
			var acc [3]float64
			hits := 0
			for _, oy := range offsets {
				for _, ox := range offsets {
					sp := inv.Apply(r2.Point{X: float64(x) + ox, Y: float64(y) + oy})
					c, ok := bilinearOverBlack(src, sp)
					if !ok {
						continue
					}
					hits++
					acc[0] += c[0]
					acc[1] += c[1]
					acc[2] += c[2]
				}
			}
			if hits == 0 {
				continue
			}
			n := float64(hits)
			dst.Set(x, y, color.NRGBA{R: toByte(acc[0] / n), G: toByte(acc[1] / n), B: toByte(acc[2] / n), A: 255})
		}
	}
	return nil
}

// bilinearOverBlack samples src at p by weighting the 4 neighboring pixels with their fractional
// offsets, then flattens the result over opaque black. It reports false when p lies outside src.
func bilinearOverBlack(src *rimage.Image, p r2.Point) ([3]float64, bool) {
	maxX, maxY := float64(src.Width()-1), float64(src.Height()-1)
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || p.X < -sampleTolerance || p.Y < -sampleTolerance ||
		p.X > maxX+sampleTolerance || p.Y > maxY+sampleTolerance {
		return [3]float64{}, false
	}
	p = r2.Point{X: math.Max(0, math.Min(maxX, p.X)), Y: math.Max(0, math.Min(maxY, p.Y))}
	x0, y0 := int(p.X), int(p.Y)
	x1, y1 := min(x0+1, src.Width()-1), min(y0+1, src.Height()-1)
	fx, fy := p.X-float64(x0), p.Y-float64(y0)

	var out [3]float64
	add := func(x, y int, w float64) {
		if w == 0 {
			return
		}
		c := src.Get(x, y)
		a := float64(c.A) / 255
		out[0] += w * a * float64(c.R)
		out[1] += w * a * float64(c.G)
		out[2] += w * a * float64(c.B)
	}
	add(x0, y0, (1-fx)*(1-fy))
	add(x1, y0, fx*(1-fy))
	add(x0, y1, (1-fx)*fy)
	add(x1, y1, fx*fy)
	return out, true
}

func toByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}
