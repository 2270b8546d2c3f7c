// Package cli contains the mockup command line interface.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

// Flags.
const (
	flagConfig  = "config"
	flagDebug   = "debug"
	flagSeed    = "seed"
	flagOverlay = "overlay"
	flagJSON    = "json"
	flagImage   = "image"
	flagRegion  = "region"
	flagFit     = "fit"
	flagCrop    = "crop"
	flagCorners = "corners"
	flagQuality = "quality"
	flagOut     = "out"
)

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	seedFlag := &cli.StringSliceFlag{
		Name:  flagSeed,
		Usage: "add a screen grown from the white pixel nearest `X,Y`; may be repeated",
	}
	return &cli.App{
		Name:            "mockup",
		Usage:           "find the screens in device frames and put images into them",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "detect",
				Usage:     "list the screens found in a frame",
				ArgsUsage: "FRAME",
				Flags: []cli.Flag{
					seedFlag,
					&cli.StringFlag{
						Name:  flagOverlay,
						Usage: "write the frame with every screen outlined to `FILE`",
					},
					&cli.BoolFlag{
						Name:  flagJSON,
						Usage: "print the regions and the detection log as json",
					},
				},
				Action: DetectAction,
			},
			{
				Name:      "composite",
				Usage:     "warp an image into the screens of a frame",
				ArgsUsage: "FRAME",
				Flags: []cli.Flag{
					seedFlag,
					&cli.StringFlag{
						Name:     flagImage,
						Usage:    "image to place, read from `FILE`",
						Required: true,
					},
					&cli.IntFlag{
						Name:  flagRegion,
						Usage: "place the image only into screen `N` (1 is the best scoring); 0 fills every screen",
					},
					&cli.StringFlag{
						Name:  flagFit,
						Usage: "how the image is scaled into the screen: cover or contain",
						Value: "cover",
					},
					&cli.StringFlag{
						Name:  flagCrop,
						Usage: "use only the `X0,Y0,X1,Y1` part of the image",
					},
					&cli.StringFlag{
						Name:  flagCorners,
						Usage: "override the corners of the chosen screen with `X,Y;X,Y;X,Y;X,Y` starting top left, clockwise",
					},
					&cli.StringFlag{
						Name:  flagQuality,
						Usage: "preview or export; defaults to the configured quality",
					},
					&cli.StringFlag{
						Name:     flagOut,
						Usage:    "write the composite to `FILE`",
						Required: true,
					},
				},
				Action: CompositeAction,
			},
			{
				Name:   "schema",
				Usage:  "print the json schema of the configuration sections",
				Action: SchemaAction,
			},
		},
	}
}
