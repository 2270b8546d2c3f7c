package screen

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"go.viam.com/mockup/rimage"
	"go.viam.com/mockup/utils"
)

// RegionColor returns a distinct, saturated color for region i out of n.
func RegionColor(i, n int) color.Color {
	if n < 1 {
		n = 1
	}
	hue := 360 * float64(i%n) / float64(n)
	return colorful.Hsv(hue, 0.85, 0.95).Clamped()
}

// Overlay draws every region's outline, corner handles and a label over a copy of frame. The
// region at index selected, if any, is drawn with a thicker outline.
func Overlay(frame *rimage.Image, regions []ScreenRegion, selected int) image.Image {
	dc := gg.NewContextForImage(frame.ToNRGBA())
	for i, r := range regions {
		c := RegionColor(i, len(regions))
		width := 2.0
		if i == selected {
			width = 4
		}
		rimage.DrawQuad(dc, r.Corners, c, width)
		for _, p := range r.Corners {
			rimage.DrawHandle(dc, p.X, p.Y, 5, c)
		}
		label := fmt.Sprintf("#%d %s %.1f°", i, r.Device, utils.RadToDeg(r.Rotation))
		if r.Partial {
			label += " partial"
		}
		tl := r.Corners[rimage.TopLeft]
		rimage.DrawString(dc, label, image.Pt(int(tl.X)+6, int(tl.Y)+6), c, 14)
	}
	return dc.Image()
}
