package rimage

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// DrawString writes a string to the given context at a particular point.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, 0)
}

// DrawQuad strokes the outline of q.
func DrawQuad(dc *gg.Context, q Quad, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.MoveTo(q[0].X, q[0].Y)
	for _, p := range q[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.Stroke()
}

// DrawHandle draws a filled circle with a dark rim, the way corner handles are shown.
func DrawHandle(dc *gg.Context, x, y, radius float64, c color.Color) {
	dc.DrawCircle(x, y, radius)
	dc.SetColor(c)
	dc.FillPreserve()
	dc.SetColor(color.Black)
	dc.SetLineWidth(1)
	dc.Stroke()
}
