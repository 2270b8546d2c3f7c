package segmentation

import (
	"image"

	"go.viam.com/mockup/rimage"
)

// whiteMask marks, in row-major order, every pixel of img that is white under cfg.
func whiteMask(img *rimage.Image, cfg DetectorConfig) []bool {
	w, h := img.Width(), img.Height()
	white := make([]bool, w*h)
	alpha := uint8(cfg.AlphaThreshold)
	for y := range h {
		for x := range w {
			white[y*w+x] = rimage.IsWhite(img.Get(x, y), cfg.LuminanceThreshold, alpha)
		}
	}
	return white
}

// component is one 4-connected set of white pixels. Its pixels carry label in the label plane.
type component struct {
	label  int32
	rect   image.Rectangle
	pixels int
}

// labeler grows 4-connected components over a white plane with an explicit queue so very large
// regions cannot overflow the stack.
type labeler struct {
	width, height int
	white         []bool
	labels        []int32
	queue         []int
	next          int32
}

func newLabeler(width, height int, white []bool) *labeler {
	return &labeler{
		width:  width,
		height: height,
		white:  white,
		labels: make([]int32, width*height),
	}
}

// all labels every component in scan order.
func (l *labeler) all() []component {
	var comps []component
	for idx, isWhite := range l.white {
		if isWhite && l.labels[idx] == 0 {
			comps = append(comps, l.grow(idx))
		}
	}
	return comps
}

// grow floods the component containing the white pixel at idx.
func (l *labeler) grow(idx int) component {
	l.next++
	label := l.next
	x0, y0 := idx%l.width, idx/l.width
	x1, y1 := x0, y0
	count := 0

	l.labels[idx] = label
	l.queue = append(l.queue[:0], idx)
	for head := 0; head < len(l.queue); head++ {
		cur := l.queue[head]
		x, y := cur%l.width, cur/l.width
		count++
		if x < x0 {
			x0 = x
		}
		if x > x1 {
			x1 = x
		}
		if y < y0 {
			y0 = y
		}
		if y > y1 {
			y1 = y
		}
		if y > 0 {
			l.visit(cur-l.width, label)
		}
		if y < l.height-1 {
			l.visit(cur+l.width, label)
		}
		if x > 0 {
			l.visit(cur-1, label)
		}
		if x < l.width-1 {
			l.visit(cur+1, label)
		}
	}
	return component{label: label, rect: image.Rect(x0, y0, x1+1, y1+1), pixels: count}
}

func (l *labeler) visit(idx int, label int32) {
	if l.white[idx] && l.labels[idx] == 0 {
		l.labels[idx] = label
		l.queue = append(l.queue, idx)
	}
}

// mask builds the binary mask of c from the label plane.
func (l *labeler) mask(c component) *rimage.Mask {
	m := rimage.NewMask(c.rect)
	for y := c.rect.Min.Y; y < c.rect.Max.Y; y++ {
		row := y * l.width
		for x := c.rect.Min.X; x < c.rect.Max.X; x++ {
			if l.labels[row+x] == c.label {
				m.Set(x, y, true)
			}
		}
	}
	return m
}
