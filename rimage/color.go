package rimage

import "image/color"

// Luminance returns the ITU-R BT.601 luma of c normalized to [0, 1]. Alpha is ignored.
func Luminance(c color.NRGBA) float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
}

// IsWhite reports whether c is opaque enough (alpha strictly above alphaThreshold) and at least
// as bright as luminanceThreshold.
func IsWhite(c color.NRGBA, luminanceThreshold float64, alphaThreshold uint8) bool {
	return c.A > alphaThreshold && Luminance(c) >= luminanceThreshold
}

// IsDark reports whether the luma of c is strictly below darkThreshold.
func IsDark(c color.NRGBA, darkThreshold float64) bool {
	return Luminance(c) < darkThreshold
}

// Common colors.
var (
	Black       = color.NRGBA{A: 255}
	White       = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	Transparent = color.NRGBA{}
)
