package composite

import (
	"github.com/pkg/errors"

	"go.viam.com/mockup/rimage"
)

// FitMode decides how a user image is scaled into a screen.
type FitMode string

const (
	// FitCover fills the screen, cropping the image to the screen's aspect ratio.
	FitCover FitMode = "cover"
	// FitContain shows the whole image, letterboxing with black.
	FitContain FitMode = "contain"
)

// ParseFitMode parses a fit mode name. The empty string means cover.
func ParseFitMode(s string) (FitMode, error) {
	switch FitMode(s) {
	case "", FitCover:
		return FitCover, nil
	case FitContain:
		return FitContain, nil
	default:
		return "", errors.Errorf("unknown fit mode %q", s)
	}
}

// SourceQuad returns the area of a srcW x srcH image, in pixel coordinates, that is mapped onto dst.
// For cover it is the largest centered window with the aspect ratio of dst. For contain it is the
// smallest centered window with that aspect ratio enclosing the image, so it reaches past the image
// on two sides. Images less than 2 pixels wide or tall have no area between pixel centers and
// give a degenerate quad; Render widens them first.
func SourceQuad(srcW, srcH int, dst rimage.Quad, mode FitMode) rimage.Quad {
	w, h := float64(srcW-1), float64(srcH-1)
	full := rimage.Quad{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
	dw, dh := dst.Size()
	if w <= 0 || h <= 0 || dw <= 0 || dh <= 0 {
		return full
	}

	target := dw / dh
	aspect := w / h
	wider := aspect > target
	if mode == FitContain {
		wider = !wider
	}

	x0, y0, x1, y1 := 0.0, 0.0, w, h
	if wider {
		cw := h * target
		x0 = (w - cw) / 2
		x1 = x0 + cw
	} else {
		ch := w / target
		y0 = (h - ch) / 2
		y1 = y0 + ch
	}
	return rimage.Quad{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}
