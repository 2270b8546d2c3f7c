package cli

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/mockup/composite"
	"go.viam.com/mockup/config"
	"go.viam.com/mockup/logging"
	"go.viam.com/mockup/rimage"
	"go.viam.com/mockup/session"
	"go.viam.com/mockup/utils"
	"go.viam.com/mockup/vision/screen"
	"go.viam.com/mockup/vision/segmentation"
)

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func warningf(w io.Writer, format string, a ...interface{}) {
	printf(w, color.New(color.FgYellow).Sprint("Warning: ")+format, a...)
}

// mockupEnv is what every command needs: the config, a logger and the engines built from them.
type mockupEnv struct {
	cfg        *config.Config
	logger     logging.Logger
	detector   *segmentation.RegionDetector
	compositor *composite.Compositor
}

func newEnv(c *cli.Context) (*mockupEnv, error) {
	bootLogger := logging.NewStderrLogger("mockup", logging.WARN)
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path, bootLogger); err != nil {
			return nil, err
		}
	}
	level := cfg.LogLevel
	if c.Bool(flagDebug) {
		level = logging.DEBUG
	}
	logger := logging.NewStderrLogger("mockup", level)

	detCfg, err := cfg.DetectorConfig()
	if err != nil {
		return nil, err
	}
	detector, err := segmentation.NewRegionDetector(detCfg, logger.Sublogger("detect"))
	if err != nil {
		return nil, err
	}
	renderCfg, err := cfg.RenderConfig()
	if err != nil {
		return nil, err
	}
	compositor, err := composite.NewCompositor(renderCfg, logger.Sublogger("composite"))
	if err != nil {
		return nil, err
	}
	return &mockupEnv{cfg: cfg, logger: logger, detector: detector, compositor: compositor}, nil
}

// open reads the frame named by the first argument and detects its screens, adding any seeded
// regions.
func (env *mockupEnv) open(c *cli.Context) (*session.Session, *segmentation.DetectionResult, error) {
	path := c.Args().First()
	if path == "" {
		return nil, nil, errors.New("a FRAME argument is required")
	}
	if !rimage.IsImageFile(path) {
		return nil, nil, errors.Errorf("%s is not in a supported image format", path)
	}
	frame, err := rimage.ReadImageFromFile(path)
	if err != nil {
		return nil, nil, err
	}
	s, err := session.New(frame, filepath.Base(path), session.Options{
		Detector:   env.detector,
		Compositor: env.compositor,
	}, env.logger)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.Detect()
	if err != nil {
		return nil, nil, err
	}
	for _, raw := range c.StringSlice(flagSeed) {
		seed, err := parsePoint(raw)
		if err != nil {
			return nil, nil, errors.Wrap(err, "bad --seed")
		}
		if _, err := s.AddManualRegion(seed); err != nil {
			if errors.Is(err, session.ErrDuplicateRegion) {
				warningf(c.App.ErrWriter, "seed %v is inside a screen that was already found", seed)
				continue
			}
			return nil, nil, err
		}
	}
	return s, res, nil
}

type regionJSON struct {
	Index       int                `json:"index"`
	Bounds      [4]int             `json:"bounds"`
	Corners     [4][2]float64      `json:"corners"`
	Rotation    float64            `json:"rotation_degrees"`
	Device      screen.DeviceType  `json:"device"`
	Orientation screen.Orientation `json:"orientation"`
	Partial     bool               `json:"partial"`
	Edited      bool               `json:"edited"`
	BezelScore  float64            `json:"bezel_score"`
	Score       float64            `json:"score"`
}

type detectJSON struct {
	Frame        string                         `json:"frame"`
	Manual       bool                           `json:"manual"`
	Regions      []regionJSON                   `json:"regions"`
	Candidates   []segmentation.CandidateReport `json:"candidates"`
	SkippedSmall int                            `json:"skipped_small"`
}

func toRegionJSON(i int, r screen.ScreenRegion) regionJSON {
	x, y, w, h := r.Bounds()
	out := regionJSON{
		Index:       i + 1,
		Bounds:      [4]int{x, y, w, h},
		Rotation:    utils.RadToDeg(r.Rotation),
		Device:      r.Device,
		Orientation: r.Orientation(),
		Partial:     r.Partial,
		Edited:      r.Edited,
		BezelScore:  r.BezelScore,
		Score:       r.Score,
	}
	for j, p := range r.Corners {
		out.Corners[j] = [2]float64{p.X, p.Y}
	}
	return out
}

func regionTable(regions []screen.ScreenRegion) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Bounds", "Corners", "Rotation", "Device", "Orientation", "Partial", "Score"})
	for i, r := range regions {
		x, y, w, h := r.Bounds()
		corners := ""
		for j, p := range r.Corners {
			if j > 0 {
				corners += " "
			}
			corners += fmt.Sprintf("(%.0f,%.0f)", p.X, p.Y)
		}
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%d,%d %dx%d", x, y, w, h),
			corners,
			fmt.Sprintf("%.1f°", utils.RadToDeg(r.Rotation)),
			r.Device,
			r.Orientation(),
			r.Partial,
			fmt.Sprintf("%.2f", r.Score),
		})
	}
	return t.Render()
}

func regionsOf(s *session.Session) []screen.ScreenRegion {
	entries := s.Regions()
	out := make([]screen.ScreenRegion, len(entries))
	for i, e := range entries {
		out[i] = e.Region
	}
	return out
}

// DetectAction is the corresponding Action for 'detect'.
func DetectAction(c *cli.Context) error {
	env, err := newEnv(c)
	if err != nil {
		return err
	}
	s, res, err := env.open(c)
	if err != nil {
		return err
	}
	regions := regionsOf(s)

	if path := c.String(flagOverlay); path != "" {
		if err := rimage.WriteImageToFile(path, screen.Overlay(s.Frame(), regions, -1)); err != nil {
			return err
		}
	}

	if c.Bool(flagJSON) {
		out := detectJSON{
			Frame:        c.Args().First(),
			Manual:       res.Manual,
			Regions:      make([]regionJSON, len(regions)),
			Candidates:   res.Candidates,
			SkippedSmall: res.SkippedSmall,
		}
		for i, r := range regions {
			out.Regions[i] = toRegionJSON(i, r)
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(regions) == 0 {
		printf(c.App.Writer, "No screens found in %s. Pass --%s X,Y to pick one by hand.", c.Args().First(), flagSeed)
		return nil
	}
	printf(c.App.Writer, "%s", regionTable(regions))
	return nil
}

// CompositeAction is the corresponding Action for 'composite'.
func CompositeAction(c *cli.Context) error {
	env, err := newEnv(c)
	if err != nil {
		return err
	}
	fit, err := composite.ParseFitMode(c.String(flagFit))
	if err != nil {
		return err
	}
	var crop image.Rectangle
	if raw := c.String(flagCrop); raw != "" {
		if crop, err = parseRect(raw); err != nil {
			return errors.Wrap(err, "bad --crop")
		}
	}
	quality := env.cfg.Render.Quality
	if raw := c.String(flagQuality); raw != "" {
		quality = composite.Quality(raw)
		if quality != composite.QualityPreview && quality != composite.QualityExport {
			return errors.Errorf("unknown quality %q", raw)
		}
	}
	// previews come from the session's compositor, exports always render at export quality
	env.compositor = env.compositor.WithQuality(composite.QualityPreview)
	userImage, err := rimage.ReadImageFromFile(c.String(flagImage))
	if err != nil {
		return err
	}

	s, _, err := env.open(c)
	if err != nil {
		return err
	}
	entries := s.Regions()
	if len(entries) == 0 {
		return errors.Errorf("no screens found in %s; pass --%s X,Y to pick one by hand", c.Args().First(), flagSeed)
	}

	targets := entries
	if n := c.Int(flagRegion); n != 0 {
		if n < 0 || n > len(entries) {
			return errors.Errorf("--%s %d out of range, the frame has %d screens", flagRegion, n, len(entries))
		}
		targets = entries[n-1 : n]
	}

	if raw := c.String(flagCorners); raw != "" {
		if c.Int(flagRegion) == 0 {
			return errors.Errorf("--%s needs a single screen chosen with --%s", flagCorners, flagRegion)
		}
		q, err := parseQuad(raw)
		if err != nil {
			return errors.Wrap(err, "bad --corners")
		}
		cmds := []session.Command{session.SelectRegion{ID: targets[0].ID}, session.BeginCornerEdit{}}
		for i, p := range q {
			cmds = append(cmds, session.DragCorner{Index: i, Point: p})
		}
		cmds = append(cmds, session.ReleaseCorner{}, session.ConfirmCornerEdit{})
		if err := s.ApplyAll(cmds...); err != nil {
			return errors.Wrap(err, "cannot use --corners")
		}
	}

	for _, e := range targets {
		if err := s.Apply(session.SetUserImage{ID: e.ID, Image: userImage, Fit: fit, Crop: crop}); err != nil {
			return err
		}
	}

	var out *rimage.Image
	if quality == composite.QualityExport {
		out, err = s.Export()
	} else {
		out, err = s.Composite()
	}
	if err != nil {
		return err
	}
	if err := rimage.WriteImageToFile(c.String(flagOut), out); err != nil {
		return err
	}
	printf(c.App.Writer, "Wrote %s (%d of %d screens filled, %s quality)", c.String(flagOut), len(targets), len(entries), quality)
	return nil
}

// SchemaAction is the corresponding Action for 'schema'.
func SchemaAction(c *cli.Context) error {
	md, err := json.MarshalIndent(config.Schemas(), "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", md)
	return nil
}
