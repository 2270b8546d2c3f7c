package cli

import (
	"image"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/mockup/rimage"
)

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, errors.Errorf("expected %d comma separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad number in %q", s)
		}
		out[i] = v
	}
	return out, nil
}

// parsePoint parses "X,Y" into a pixel position.
func parsePoint(s string) (image.Point, error) {
	v, err := parseFloats(s, 2)
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(int(v[0]), int(v[1])), nil
}

// parseRect parses "X0,Y0,X1,Y1".
func parseRect(s string) (image.Rectangle, error) {
	v, err := parseFloats(s, 4)
	if err != nil {
		return image.Rectangle{}, err
	}
	r := image.Rect(int(v[0]), int(v[1]), int(v[2]), int(v[3]))
	if r.Empty() {
		return image.Rectangle{}, errors.Errorf("crop %q is empty", s)
	}
	return r, nil
}

// parseQuad parses four "X,Y" points separated by semicolons.
func parseQuad(s string) (rimage.Quad, error) {
	parts := strings.Split(s, ";")
	if len(parts) != 4 {
		return rimage.Quad{}, errors.Errorf("expected 4 corners separated by ';', got %q", s)
	}
	var q rimage.Quad
	for i, p := range parts {
		v, err := parseFloats(p, 2)
		if err != nil {
			return rimage.Quad{}, errors.Wrapf(err, "corner %d", i)
		}
		q[i] = r2.Point{X: v[0], Y: v[1]}
	}
	return q, nil
}
