package session

import (
	"image"

	"github.com/golang/geo/r2"

	"go.viam.com/mockup/composite"
	"go.viam.com/mockup/rimage"
)

// A Command is one user action against a session. A host translates raw input events (clicks,
// pointer moves, key presses) into commands and applies them in order.
type Command interface {
	apply(s *Session) error
}

// Apply runs cmd against the session.
func (s *Session) Apply(cmd Command) error {
	return cmd.apply(s)
}

// ApplyAll runs cmds in order, stopping at the first error.
func (s *Session) ApplyAll(cmds ...Command) error {
	for _, cmd := range cmds {
		if err := cmd.apply(s); err != nil {
			return err
		}
	}
	return nil
}

type (
	// Detect runs detection over the frame.
	Detect struct{}
	// AddManualRegion grows a region from a clicked point.
	AddManualRegion struct{ Seed image.Point }
	// SelectRegion highlights a region.
	SelectRegion struct{ ID RegionID }
	// Deselect clears the selection.
	Deselect struct{}
	// BeginCornerEdit starts editing the selected region.
	BeginCornerEdit struct{}
	// DragCorner moves a working corner.
	DragCorner struct {
		Index int
		Point r2.Point
	}
	// ReleaseCorner ends a drag.
	ReleaseCorner struct{}
	// ConfirmCornerEdit commits the working corners.
	ConfirmCornerEdit struct{}
	// CancelCornerEdit discards the working corners.
	CancelCornerEdit struct{}
	// ResetRegion restores a region's detected outline.
	ResetRegion struct{ ID RegionID }
	// RemoveRegion drops a region.
	RemoveRegion struct{ ID RegionID }
	// SetUserImage places an image into a region.
	SetUserImage struct {
		ID    RegionID
		Image *rimage.Image
		Fit   composite.FitMode
		Crop  image.Rectangle
	}
	// ClearUserImage removes a region's image.
	ClearUserImage struct{ ID RegionID }
)

func (Detect) apply(s *Session) error {
	_, err := s.Detect()
	return err
}

func (c AddManualRegion) apply(s *Session) error {
	_, err := s.AddManualRegion(c.Seed)
	return err
}

func (c SelectRegion) apply(s *Session) error { return s.SelectRegion(c.ID) }
func (Deselect) apply(s *Session) error { return s.Deselect() }
func (BeginCornerEdit) apply(s *Session) error { return s.BeginCornerEdit() }
func (c DragCorner) apply(s *Session) error { return s.DragCorner(c.Index, c.Point) }
func (ReleaseCorner) apply(s *Session) error { return s.ReleaseCorner() }
func (ConfirmCornerEdit) apply(s *Session) error { return s.ConfirmCornerEdit() }
func (CancelCornerEdit) apply(s *Session) error { return s.CancelCornerEdit() }
func (c ResetRegion) apply(s *Session) error { return s.ResetRegion(c.ID) }
func (c RemoveRegion) apply(s *Session) error { return s.RemoveRegion(c.ID) }
func (c ClearUserImage) apply(s *Session) error { return s.ClearUserImage(c.ID) }

func (c SetUserImage) apply(s *Session) error {
	return s.SetUserImage(c.ID, c.Image, c.Fit, c.Crop)
}
