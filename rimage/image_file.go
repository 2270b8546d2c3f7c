package rimage

import (
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "github.com/lmittmann/ppm" // register ppm
	"github.com/pkg/errors"
	_ "github.com/xfmoulet/qoi" // register qoi
	_ "golang.org/x/image/webp" // register webp
)

// ReadImageFromFile decodes the file at path, honoring EXIF orientation.
func ReadImageFromFile(path string) (*Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read image %q", path)
	}
	return NewImageFromStdImage(img), nil
}

// DecodeImage decodes any registered format from r.
func DecodeImage(r io.Reader) (*Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "cannot decode image")
	}
	return NewImageFromStdImage(img), nil
}

// WriteImageToFile encodes img in the format implied by the extension of path.
func WriteImageToFile(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrapf(err, "cannot write image %q", path)
	}
	return nil
}

// EncodePNG writes img to w as png.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// IsImageFile returns whether the path has an extension of a format we can decode.
func IsImageFile(fn string) bool {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".ppm", ".pgm", ".qoi":
		return true
	}
	return false
}
