// Package transform maps images between planar quadrilaterals.
package transform

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/mockup/rimage"
)

// singularTolerance is the smallest pivot or determinant magnitude treated as non-zero.
const singularTolerance = 1e-10

// ErrSingular is returned when a point correspondence does not determine a unique homography,
// typically because three or more corners are collinear or coincide.
var ErrSingular = errors.New("homography is singular")

// Homography is a 3x3 matrix (represented as a 2D array) used to transform one plane into another.
// Indices are [row][column] and the bottom-right entry is 1 for any solved homography.
type Homography [3][3]float64

// NewHomography creates a homography from a slice of 9 row-major values.
func NewHomography(vals []float64) (Homography, error) {
	if len(vals) != 9 {
		return Homography{}, errors.Errorf("input to NewHomography must have length of 9. Has length of %d", len(vals))
	}
	var h Homography
	for i, v := range vals {
		h[i/3][i%3] = v
	}
	return h, nil
}

// Identity returns the homography that maps every point onto itself.
func Identity() Homography {
	return Homography{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// At returns the value of the homography at the given row and column.
func (h Homography) At(row, col int) float64 {
	return h[row][col]
}

// Apply maps pt through the homography. A point sent to infinity comes back as (+Inf, +Inf).
func (h Homography) Apply(pt r2.Point) r2.Point {
	x := h[0][0]*pt.X + h[0][1]*pt.Y + h[0][2]
	y := h[1][0]*pt.X + h[1][1]*pt.Y + h[1][2]
	w := h[2][0]*pt.X + h[2][1]*pt.Y + h[2][2]
	if w == 0 {
		return r2.Point{X: math.Inf(1), Y: math.Inf(1)}
	}
	return r2.Point{X: x / w, Y: y / w}
}

// Inverse returns the inverse homography via the adjugate, rescaled so its bottom-right entry is 1
// whenever that entry is non-zero.
func (h Homography) Inverse() (Homography, error) {
	a, b, c := h[0][0], h[0][1], h[0][2]
	d, e, f := h[1][0], h[1][1], h[1][2]
	g, k, l := h[2][0], h[2][1], h[2][2]

	det := a*(e*l-f*k) - b*(d*l-f*g) + c*(d*k-e*g)
	if math.Abs(det) < singularTolerance {
		return Homography{}, ErrSingular
	}

	inv := Homography{
		{e*l - f*k, c*k - b*l, b*f - c*e},
		{f*g - d*l, a*l - c*g, c*d - a*f},
		{d*k - e*g, b*g - a*k, a*e - b*d},
	}
	scale := 1 / det
	if math.Abs(inv[2][2]) > singularTolerance {
		scale = 1 / inv[2][2]
	}
	for r := range 3 {
		for col := range 3 {
			inv[r][col] *= scale
		}
	}
	return inv, nil
}

// Mul returns the composition h*o, which applies o first.
func (h Homography) Mul(o Homography) Homography {
	var out Homography
	for r := range 3 {
		for c := range 3 {
			for k := range 3 {
				out[r][c] += h[r][k] * o[k][c]
			}
		}
	}
	return out
}

func (h Homography) String() string {
	return fmt.Sprintf("[%.6g %.6g %.6g; %.6g %.6g %.6g; %.6g %.6g %.6g]",
		h[0][0], h[0][1], h[0][2], h[1][0], h[1][1], h[1][2], h[2][0], h[2][1], h[2][2])
}

// SolveHomography computes the homography mapping src[i] onto dst[i] for all four corners.
// Each correspondence contributes two rows to an 8x8 linear system in the eight free entries,
// which is solved by Gaussian elimination with partial pivoting.
func SolveHomography(src, dst rimage.Quad) (Homography, error) {
	var a [8][9]float64
	for i := range 4 {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx, dx}
		a[2*i+1] = [9]float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy, dy}
	}

	sol, err := solveAugmented(a)
	if err != nil {
		return Homography{}, err
	}
	return Homography{
		{sol[0], sol[1], sol[2]},
		{sol[3], sol[4], sol[5]},
		{sol[6], sol[7], 1},
	}, nil
}

// solveAugmented solves the 8x8 system stored with its right hand side in the last column.
func solveAugmented(a [8][9]float64) ([8]float64, error) {
	for col := range 8 {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < singularTolerance {
			return [8]float64{}, ErrSingular
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < 8; r++ {
			factor := a[r][col] / a[col][col]
			if factor == 0 {
				continue
			}
			for c := col; c < 9; c++ {
				a[r][c] -= factor * a[col][c]
			}
		}
	}

	var x [8]float64
	for r := 7; r >= 0; r-- {
		sum := a[r][8]
		for c := r + 1; c < 8; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}
