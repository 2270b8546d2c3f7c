package config

import (
	"github.com/invopop/jsonschema"

	"go.viam.com/mockup/composite"
	"go.viam.com/mockup/vision/segmentation"
)

// Schemas are the JSON schemas of the typed config sections, keyed by section name.
func Schemas() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"detection": jsonschema.Reflect(&segmentation.DetectorConfig{}),
		"render":    jsonschema.Reflect(&composite.RenderConfig{}),
	}
}
