// Package composite warps user images into the screens of a device frame.
package composite

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/mockup/logging"
	"go.viam.com/mockup/rimage"
	"go.viam.com/mockup/rimage/transform"
)

// Quality selects rasterization fidelity.
type Quality string

const (
	// QualityPreview samples once per pixel, for interactive use.
	QualityPreview Quality = "preview"
	// QualityExport supersamples and prefilters large images, for final output.
	QualityExport Quality = "export"
)

// RenderConfig controls compositing.
type RenderConfig struct {
	Quality Quality `json:"quality"`
	// PreserveBezel restores every non-white frame pixel a warped image landed on.
	PreserveBezel bool `json:"preserve_bezel"`
	// ExportSupersample is the per-axis sample count in export quality.
	ExportSupersample int `json:"export_supersample"`
	// PrefilterRatio is how many times larger than the screen a user image must be, in both
	// dimensions, before export quality downscales it with Lanczos.
	PrefilterRatio float64 `json:"prefilter_ratio"`
	// LuminanceThreshold and AlphaThreshold define the white screen pixels images may cover. They
	// are not read from files: they must match the detector that found the screens, see
	// WithWhiteThresholds.
	LuminanceThreshold float64 `json:"-"`
	AlphaThreshold     int     `json:"-"`
}

// DefaultRenderConfig returns a preview config that preserves bezels.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Quality:            QualityPreview,
		PreserveBezel:      true,
		ExportSupersample:  3,
		PrefilterRatio:     2,
		LuminanceThreshold: 0.90,
		AlphaThreshold:     200,
	}
}

// Validate returns every invalid field.
func (cfg RenderConfig) Validate() error {
	var err error
	if cfg.Quality != QualityPreview && cfg.Quality != QualityExport {
		err = multierr.Append(err, errors.Errorf("quality must be %q or %q, got %q", QualityPreview, QualityExport, cfg.Quality))
	}
	if cfg.ExportSupersample < 1 || cfg.ExportSupersample > 8 {
		err = multierr.Append(err, errors.Errorf("export_supersample must be in [1, 8], got %d", cfg.ExportSupersample))
	}
	if cfg.PrefilterRatio < 1 {
		err = multierr.Append(err, errors.Errorf("prefilter_ratio must be at least 1, got %v", cfg.PrefilterRatio))
	}
	if cfg.LuminanceThreshold < 0 || cfg.LuminanceThreshold > 1 {
		err = multierr.Append(err, errors.Errorf("luminance_threshold must be in [0, 1], got %v", cfg.LuminanceThreshold))
	}
	if cfg.AlphaThreshold < 0 || cfg.AlphaThreshold > 255 {
		err = multierr.Append(err, errors.Errorf("alpha_threshold must be in [0, 255], got %d", cfg.AlphaThreshold))
	}
	return err
}

// Layer is one user image placed into one screen.
type Layer struct {
	// Corners is the destination quad in frame coordinates, ordered top-left first.
	Corners rimage.Quad
	Image   *rimage.Image
	Fit     FitMode
	// Crop, if not empty, is the part of Image to use.
	Crop image.Rectangle
}

// Compositor renders layers over frames. It holds no per-render state.
type Compositor struct {
	cfg    RenderConfig
	logger logging.Logger
}

// NewCompositor validates cfg and returns a compositor using it.
func NewCompositor(cfg RenderConfig, logger logging.Logger) (*Compositor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid render config")
	}
	return &Compositor{cfg: cfg, logger: logger}, nil
}

// Config returns the configuration in use.
func (c *Compositor) Config() RenderConfig {
	return c.cfg
}

// WithQuality returns a compositor identical to c but rendering at q.
func (c *Compositor) WithQuality(q Quality) *Compositor {
	cfg := c.cfg
	cfg.Quality = q
	return &Compositor{cfg: cfg, logger: c.logger}
}

// WithWhiteThresholds returns a compositor identical to c but treating frame pixels as white
// screen with the given thresholds, as a detector configured with them would.
func (c *Compositor) WithWhiteThresholds(luminance float64, alpha int) *Compositor {
	cfg := c.cfg
	cfg.LuminanceThreshold = luminance
	cfg.AlphaThreshold = alpha
	return &Compositor{cfg: cfg, logger: c.logger}
}

// Render returns a copy of frame with every layer warped into its screen. Pixels outside the
// layer quads are copied from frame byte for byte, and with PreserveBezel so is every non-white
// frame pixel inside them.
func (c *Compositor) Render(frame *rimage.Image, layers []Layer) (*rimage.Image, error) {
	out := frame.Clone()
	supersample := 1
	if c.cfg.Quality == QualityExport {
		supersample = c.cfg.ExportSupersample
	}

	for i, l := range layers {
		if l.Image == nil {
			continue
		}
		src, err := c.prepare(l)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		box := l.Corners.Bounds().Intersect(frame.Bounds())
		if box.Empty() {
			c.logger.Warnw("layer lies outside the frame", "layer", i, "corners", l.Corners)
			continue
		}

		warped := rimage.NewImage(box.Dx(), box.Dy())
		dst := l.Corners.Translate(r2.Point{X: -float64(box.Min.X), Y: -float64(box.Min.Y)})
		srcQuad := SourceQuad(src.Width(), src.Height(), l.Corners, l.Fit)
		if err := transform.WarpIntoQuad(warped, src, srcQuad, dst, transform.WarpOptions{Supersample: supersample}); err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		c.paste(out, frame, warped, box)
		c.logger.Debugw("rendered layer", "layer", i, "box", box.String(), "fit", string(l.Fit), "supersample", supersample)
	}
	return out, nil
}

// prepare applies the layer crop, widens images one pixel thin to two and, in export quality,
// applies the Lanczos prefilter.
func (c *Compositor) prepare(l Layer) (*rimage.Image, error) {
	src := l.Image
	if !l.Crop.Empty() {
		crop := l.Crop.Intersect(src.Bounds())
		if crop.Empty() {
			return nil, errors.Errorf("crop %v does not overlap the %dx%d image", l.Crop, src.Width(), src.Height())
		}
		if crop != src.Bounds() {
			src = rimage.NewImageFromStdImage(imaging.Crop(src.ToNRGBA(), crop))
		}
	}
	if src.Width() < 2 || src.Height() < 2 {
		// a single row or column has no extent to map between pixel centers
		w, h := max(src.Width(), 2), max(src.Height(), 2)
		src = rimage.NewImageFromStdImage(imaging.Resize(src.ToNRGBA(), w, h, imaging.NearestNeighbor))
	}
	if c.cfg.Quality != QualityExport {
		return src, nil
	}

	dw, dh := l.Corners.Size()
	if dw < 1 || dh < 1 {
		return src, nil
	}
	sw, sh := float64(src.Width()), float64(src.Height())
	if math.Min(sw/dw, sh/dh) <= c.cfg.PrefilterRatio {
		return src, nil
	}
	scale := c.cfg.PrefilterRatio * math.Max(dw/sw, dh/sh)
	w, h := int(math.Round(sw*scale)), int(math.Round(sh*scale))
	return rimage.NewImageFromStdImage(imaging.Resize(src.ToNRGBA(), w, h, imaging.Lanczos)), nil
}

// paste copies the painted pixels of warped, which covers box of out, into out.
func (c *Compositor) paste(out, frame, warped *rimage.Image, box image.Rectangle) {
	alpha := uint8(c.cfg.AlphaThreshold)
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			px := warped.Get(x-box.Min.X, y-box.Min.Y)
			if px.A == 0 {
				continue
			}
			if c.cfg.PreserveBezel && !rimage.IsWhite(frame.Get(x, y), c.cfg.LuminanceThreshold, alpha) {
				continue
			}
			out.Set(x, y, px)
		}
	}
}
