// Package utils contains small numeric and concurrency helpers shared by mockup packages.
package utils

import (
	"math"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// NormalizeAngle wraps an angle in radians into (-pi, pi].
func NormalizeAngle(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad <= -math.Pi {
		rad += 2 * math.Pi
	} else if rad > math.Pi {
		rad -= 2 * math.Pi
	}
	return rad
}

// AngleDiffRad returns the smallest absolute difference between two angles modulo period.
// Use a period of pi/2 to compare rectangle orientations.
func AngleDiffRad(a, b, period float64) float64 {
	d := math.Mod(math.Abs(a-b), period)
	if d > period/2 {
		d = period - d
	}
	return d
}
