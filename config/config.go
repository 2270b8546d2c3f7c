// Package config defines the on-disk configuration of the mockup tools.
package config

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/mockup/composite"
	"go.viam.com/mockup/logging"
	"go.viam.com/mockup/utils"
	"go.viam.com/mockup/vision/segmentation"
)

// Config is the top level configuration. Detection is kept loosely typed so that keys are checked
// by the detector itself and defaults apply to anything left out.
type Config struct {
	Detection utils.AttributeMap     `json:"detection,omitempty"`
	Render    composite.RenderConfig `json:"render"`
	LogLevel  logging.Level          `json:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Render:   composite.DefaultRenderConfig(),
		LogLevel: logging.INFO,
	}
}

// DetectorConfig returns the default detector config with the detection attributes applied.
func (c *Config) DetectorConfig() (segmentation.DetectorConfig, error) {
	cfg := segmentation.DefaultDetectorConfig()
	if len(c.Detection) > 0 {
		if err := cfg.ConvertAttributes(c.Detection); err != nil {
			return segmentation.DetectorConfig{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return segmentation.DetectorConfig{}, errors.Wrap(err, "invalid detection config")
	}
	return cfg, nil
}

// RenderConfig returns the render section with the white thresholds of the effective detector
// config, so that compositing covers exactly the pixels detection treated as screen.
func (c *Config) RenderConfig() (composite.RenderConfig, error) {
	det, err := c.DetectorConfig()
	if err != nil {
		return composite.RenderConfig{}, err
	}
	cfg := c.Render
	cfg.LuminanceThreshold = det.LuminanceThreshold
	cfg.AlphaThreshold = det.AlphaThreshold
	return cfg, nil
}

// Validate checks every section and returns all problems found.
func (c *Config) Validate() error {
	var err error
	if _, dErr := c.DetectorConfig(); dErr != nil {
		err = multierr.Append(err, dErr)
	}
	if rErr := c.Render.Validate(); rErr != nil {
		err = multierr.Append(err, errors.Wrap(rErr, "invalid render config"))
	}
	return err
}
