// Package session holds the interactive region editing state for one frame.
package session

import (
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/mockup/composite"
	"go.viam.com/mockup/logging"
	"go.viam.com/mockup/rimage"
	"go.viam.com/mockup/rimage/transform"
	"go.viam.com/mockup/vision/screen"
	"go.viam.com/mockup/vision/segmentation"
)

// duplicateOverlap is the share of the smaller bounding box a manual region may overlap an
// existing one by.
const duplicateOverlap = 0.5

var unitSquare = rimage.Quad{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

// RegionID addresses a region within a session. IDs are never reused.
type RegionID int

// Entry is a region and its ID.
type Entry struct {
	ID     RegionID
	Region screen.ScreenRegion
}

type userImage struct {
	img  *rimage.Image
	fit  composite.FitMode
	crop image.Rectangle
}

// Options configure a Session.
type Options struct {
	Detector   *segmentation.RegionDetector
	Compositor *composite.Compositor
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// HeartbeatWindow is how long the session stays active without a heartbeat. Zero keeps it
	// active forever.
	HeartbeatWindow time.Duration
	// OnChange, if set, is called after any change that alters the composite. It is called without
	// the session lock held.
	OnChange func()
}

// A Session edits the screen regions of one frame. Regions are immutable values kept in an arena
// by ID; every edit replaces a slot. All methods are safe for concurrent use.
type Session struct {
	mu              sync.Mutex
	id              uuid.UUID
	clock           clock.Clock
	heartbeatWindow time.Duration
	deadline        time.Time
	logger          logging.Logger

	detector   *segmentation.RegionDetector
	compositor *composite.Compositor
	onChange   func()

	frame     *rimage.Image
	frameName string

	state    State
	regions  map[RegionID]screen.ScreenRegion
	order    []RegionID
	nextID   RegionID
	selected RegionID
	editing  rimage.Quad
	dragging int
	images   map[RegionID]userImage

	dirty  bool
	cached *rimage.Image
}

// New returns an idle session over frame. frameName is used as a device type hint.
func New(frame *rimage.Image, frameName string, opts Options, logger logging.Logger) (*Session, error) {
	return NewWithID(uuid.New(), frame, frameName, opts, logger)
}

// NewWithID returns an idle session with the given ID.
func NewWithID(id uuid.UUID, frame *rimage.Image, frameName string, opts Options, logger logging.Logger) (*Session, error) {
	if frame == nil || frame.Width() == 0 || frame.Height() == 0 {
		return nil, errors.New("session needs a non-empty frame")
	}
	if opts.Detector == nil || opts.Compositor == nil {
		return nil, errors.New("session needs a detector and a compositor")
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	// the bezel test while compositing must agree with what detection called white
	detCfg := opts.Detector.Config()
	s := &Session{
		id:              id,
		clock:           clk,
		heartbeatWindow: opts.HeartbeatWindow,
		logger:          logger.Sublogger(id.String()[:8]),
		detector:        opts.Detector,
		compositor:      opts.Compositor.WithWhiteThresholds(detCfg.LuminanceThreshold, detCfg.AlphaThreshold),
		onChange:        opts.OnChange,
		frame:           frame,
		frameName:       frameName,
		regions:         map[RegionID]screen.ScreenRegion{},
		nextID:          1,
		dragging:        -1,
		images:          map[RegionID]userImage{},
		dirty:           true,
	}
	s.Heartbeat()
	return s, nil
}

// ID returns the session's ID.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Heartbeat extends the session's deadline by its window.
func (s *Session) Heartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heartbeatWindow == 0 {
		return
	}
	s.deadline = s.clock.Now().Add(s.heartbeatWindow)
}

// Active reports whether the session is still alive at the given time.
func (s *Session) Active(at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heartbeatWindow == 0 {
		return true
	}
	return at.Before(s.deadline)
}

// HeartbeatWindow returns the session's heartbeat window.
func (s *Session) HeartbeatWindow() time.Duration {
	return s.heartbeatWindow
}

// Deadline returns when the session expires without another heartbeat.
func (s *Session) Deadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Frame returns the frame being edited. It must not be modified.
func (s *Session) Frame() *rimage.Image {
	return s.frame
}

// Regions returns every region in the order it was added.
func (s *Session) Regions() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.order, func(id RegionID, _ int) Entry {
		return Entry{ID: id, Region: s.regions[id]}
	})
}

// Region returns the region with the given ID.
func (s *Session) Region(id RegionID) (screen.ScreenRegion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regions[id]
	if !ok {
		return screen.ScreenRegion{}, errors.Wrapf(ErrUnknownRegion, "id %d", id)
	}
	return r, nil
}

// Selected returns the selected region, if any.
func (s *Session) Selected() (RegionID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != 0
}

// EditingCorners returns the working corners while a corner edit is in progress.
func (s *Session) EditingCorners() (rimage.Quad, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing, s.state == StateCornerEditing
}

// DraggingCorner returns the index of the corner being dragged, or -1.
func (s *Session) DraggingCorner() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragging
}

// Detect replaces every region with the screens found in the frame. User images are dropped with
// the regions they were placed in. Finding nothing is not an error: the result is flagged Manual
// and regions may be added by seed.
func (s *Session) Detect() (*segmentation.DetectionResult, error) {
	s.mu.Lock()
	if s.state == StateCornerEditing {
		s.mu.Unlock()
		return nil, invalidState("detect", s.state)
	}
	res, err := s.detector.Detect(s.frame)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.regions = map[RegionID]screen.ScreenRegion{}
	s.images = map[RegionID]userImage{}
	s.order = nil
	s.selected = 0
	for _, det := range res.Regions {
		s.insertLocked(screen.NewScreenRegion(det, s.frame.Bounds(), s.frameName))
	}
	s.state = StateRegionsDetected
	s.logger.Infow("regions detected", "count", len(res.Regions), "manual", res.Manual)
	s.unlockAndNotify()
	return res, nil
}

// AddManualRegion grows a region from seed and adds it. A region mostly overlapping an existing
// one is rejected with ErrDuplicateRegion.
func (s *Session) AddManualRegion(seed image.Point) (RegionID, error) {
	s.mu.Lock()
	if s.state == StateCornerEditing {
		s.mu.Unlock()
		return 0, invalidState("add a region", s.state)
	}
	det, err := s.detector.DetectFromSeed(s.frame, seed)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	for _, id := range s.order {
		if ratio := rimage.RectOverlapRatio(det.Rect, s.regions[id].Rect); ratio > duplicateOverlap {
			s.mu.Unlock()
			return 0, errors.Wrapf(ErrDuplicateRegion, "seed %v overlaps region %d by %.0f%%", seed, id, 100*ratio)
		}
	}
	id := s.insertLocked(screen.NewScreenRegion(det, s.frame.Bounds(), s.frameName))
	if s.state == StateIdle {
		s.state = StateRegionsDetected
	}
	s.logger.Infow("manual region added", "id", id, "seed", seed.String(), "bounds", det.Rect.String())
	s.unlockAndNotify()
	return id, nil
}

// SelectRegion highlights one region for editing.
func (s *Session) SelectRegion(id RegionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateRegionsDetected, StateRegionSelected:
	default:
		return invalidState("select a region", s.state)
	}
	if _, ok := s.regions[id]; !ok {
		return errors.Wrapf(ErrUnknownRegion, "id %d", id)
	}
	s.selected = id
	s.state = StateRegionSelected
	return nil
}

// Deselect clears the selection.
func (s *Session) Deselect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRegionSelected {
		return invalidState("deselect", s.state)
	}
	s.selected = 0
	s.state = StateRegionsDetected
	return nil
}

// BeginCornerEdit starts editing the selected region's corners on a working copy.
func (s *Session) BeginCornerEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRegionSelected {
		return invalidState("begin a corner edit", s.state)
	}
	s.editing = s.regions[s.selected].Corners
	s.dragging = -1
	s.state = StateCornerEditing
	return nil
}

// DragCorner moves working corner i to p. The region itself is unchanged until the edit is
// confirmed, but the preview composite follows the working corners.
func (s *Session) DragCorner(i int, p r2.Point) error {
	s.mu.Lock()
	if s.state != StateCornerEditing {
		s.mu.Unlock()
		return invalidState("drag a corner", s.state)
	}
	if i < 0 || i >= len(s.editing) {
		s.mu.Unlock()
		return errors.Errorf("corner index %d out of range [0, 3]", i)
	}
	s.editing[i] = p
	s.dragging = i
	s.unlockAndNotify()
	return nil
}

// ReleaseCorner ends a drag.
func (s *Session) ReleaseCorner() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCornerEditing {
		return invalidState("release a corner", s.state)
	}
	s.dragging = -1
	return nil
}

// ConfirmCornerEdit replaces the edited region with one outlined by the working corners. Corners
// that admit no homography are rejected with an error wrapping transform.ErrSingular and the edit
// stays open. Non-convex outlines are accepted with a warning.
func (s *Session) ConfirmCornerEdit() error {
	s.mu.Lock()
	if s.state != StateCornerEditing {
		s.mu.Unlock()
		return invalidState("confirm a corner edit", s.state)
	}
	if _, err := transform.SolveHomography(unitSquare, s.editing); err != nil {
		s.mu.Unlock()
		return errors.Wrapf(err, "corners %v", s.editing)
	}
	if !s.editing.IsConvex() {
		s.logger.Warnw("confirmed corners are not convex", "id", s.selected, "corners", s.editing)
	}
	updated, err := s.regions[s.selected].WithCorners(s.editing)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.regions[s.selected] = updated
	s.logger.Debugw("corner edit confirmed", "id", s.selected, "corners", updated.Corners, "rotation", updated.Rotation)
	s.endEditLocked()
	s.unlockAndNotify()
	return nil
}

// CancelCornerEdit discards the working corners.
func (s *Session) CancelCornerEdit() error {
	s.mu.Lock()
	if s.state != StateCornerEditing {
		s.mu.Unlock()
		return invalidState("cancel a corner edit", s.state)
	}
	changed := s.editing != s.regions[s.selected].Corners
	s.endEditLocked()
	if !changed {
		s.mu.Unlock()
		return nil
	}
	s.unlockAndNotify()
	return nil
}

// ResetRegion restores a region's detected outline.
func (s *Session) ResetRegion(id RegionID) error {
	s.mu.Lock()
	if s.state == StateCornerEditing {
		s.mu.Unlock()
		return invalidState("reset a region", s.state)
	}
	r, ok := s.regions[id]
	if !ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrUnknownRegion, "id %d", id)
	}
	if !r.Edited {
		s.mu.Unlock()
		return nil
	}
	s.regions[id] = r.Reset()
	s.unlockAndNotify()
	return nil
}

// RemoveRegion drops a region and its user image.
func (s *Session) RemoveRegion(id RegionID) error {
	s.mu.Lock()
	if s.state == StateCornerEditing {
		s.mu.Unlock()
		return invalidState("remove a region", s.state)
	}
	if _, ok := s.regions[id]; !ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrUnknownRegion, "id %d", id)
	}
	delete(s.regions, id)
	delete(s.images, id)
	s.order = lo.Without(s.order, id)
	if s.selected == id {
		s.selected = 0
		s.state = StateRegionsDetected
	}
	s.unlockAndNotify()
	return nil
}

// SetUserImage places img into a region. An empty crop uses the whole image.
func (s *Session) SetUserImage(id RegionID, img *rimage.Image, fit composite.FitMode, crop image.Rectangle) error {
	if img == nil {
		return errors.New("user image is nil")
	}
	s.mu.Lock()
	if _, ok := s.regions[id]; !ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrUnknownRegion, "id %d", id)
	}
	s.images[id] = userImage{img: img, fit: fit, crop: crop}
	s.unlockAndNotify()
	return nil
}

// ClearUserImage removes the user image from a region.
func (s *Session) ClearUserImage(id RegionID) error {
	s.mu.Lock()
	if _, ok := s.regions[id]; !ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrUnknownRegion, "id %d", id)
	}
	if _, ok := s.images[id]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.images, id)
	s.unlockAndNotify()
	return nil
}

// Composite returns the preview composite, rendering it only if something changed since the last
// call. While corners are being edited the selected region follows the working corners. The
// result must not be modified.
func (s *Session) Composite() (*rimage.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty && s.cached != nil {
		return s.cached, nil
	}
	out, err := s.compositor.Render(s.frame, s.layersLocked(true))
	if err != nil {
		return nil, err
	}
	s.cached = out
	s.dirty = false
	return out, nil
}

// Export renders the committed regions at export quality.
func (s *Session) Export() (*rimage.Image, error) {
	s.mu.Lock()
	layers := s.layersLocked(false)
	s.mu.Unlock()
	return s.compositor.WithQuality(composite.QualityExport).Render(s.frame, layers)
}

func (s *Session) layersLocked(preview bool) []composite.Layer {
	layers := make([]composite.Layer, 0, len(s.images))
	for _, id := range s.order {
		ui, ok := s.images[id]
		if !ok {
			continue
		}
		corners := s.regions[id].Corners
		if preview && s.state == StateCornerEditing && id == s.selected {
			corners = s.editing
		}
		layers = append(layers, composite.Layer{Corners: corners, Image: ui.img, Fit: ui.fit, Crop: ui.crop})
	}
	return layers
}

func (s *Session) insertLocked(r screen.ScreenRegion) RegionID {
	id := s.nextID
	s.nextID++
	s.regions[id] = r
	s.order = append(s.order, id)
	return id
}

func (s *Session) endEditLocked() {
	s.editing = rimage.Quad{}
	s.dragging = -1
	s.selected = 0
	s.state = StateRegionsDetected
}

// unlockAndNotify marks the composite stale, releases the lock and notifies the listener.
func (s *Session) unlockAndNotify() {
	s.dirty = true
	notify := s.onChange
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
}
