package viewer

import (
	"log/slog"

	"mprviewer/internal/models"
	"mprviewer/pkg/logging"
	"mprviewer/pkg/volume"
)

// VolumePlanes keeps the cut-planes of the volume view in step with the slice
// views. Only planes whose orientation is in a change-set are re-sliced.
type VolumePlanes struct {
	widget  PlaneWidget
	model   *volume.Model
	enabled [3]bool
	indices models.SliceIndices
	seen    bool
	logger  *slog.Logger
}

// NewVolumePlanes creates the volume-plane controller with every plane disabled
func NewVolumePlanes(model *volume.Model, widget PlaneWidget, logger *slog.Logger) *VolumePlanes {
	if logger == nil {
		logger = logging.Discard()
	}
	return &VolumePlanes{widget: widget, model: model, logger: logger}
}

// Attach subscribes the planes to the session's change-sets
func (v *VolumePlanes) Attach(s *Session) (detach func()) {
	v.indices = s.Synchronizer().Indices()
	v.seen = true
	return s.Subscribe(v)
}

// Enabled reports whether the plane for o is shown
func (v *VolumePlanes) Enabled(o models.Orientation) bool { return v.enabled[o] }

// Enable shows the plane for o and brings it up to date
func (v *VolumePlanes) Enable(o models.Orientation) error {
	v.enabled[o] = true
	if !v.seen {
		return nil
	}
	if err := v.reslice(o); err != nil {
		return err
	}
	v.widget.RequestRedraw()
	return nil
}

// Disable hides the plane for o. It is no longer re-sliced.
func (v *VolumePlanes) Disable(o models.Orientation) {
	v.enabled[o] = false
	v.widget.RequestRedraw()
}

// Toggle flips the plane for o and returns its new state
func (v *VolumePlanes) Toggle(o models.Orientation) (bool, error) {
	if v.enabled[o] {
		v.Disable(o)
		return false, nil
	}
	return true, v.Enable(o)
}

// EnableAll shows every plane
func (v *VolumePlanes) EnableAll() error {
	for _, o := range models.Orientations {
		v.enabled[o] = true
	}
	return v.ResliceAll()
}

// DisableAll hides every plane
func (v *VolumePlanes) DisableAll() {
	for _, o := range models.Orientations {
		v.enabled[o] = false
	}
	v.widget.RequestRedraw()
}

// ResliceAll re-slices every enabled plane
func (v *VolumePlanes) ResliceAll() error {
	if !v.seen {
		return nil
	}
	for _, o := range models.Orientations {
		if !v.enabled[o] {
			continue
		}
		if err := v.reslice(o); err != nil {
			return err
		}
	}
	v.widget.RequestRedraw()
	return nil
}

// OnChange implements Observer
func (v *VolumePlanes) OnChange(cs models.ChangeSet) {
	v.indices = cs.Indices
	v.seen = true

	resliced := 0
	for _, o := range cs.Changed {
		if !v.enabled[o] {
			continue
		}
		if err := v.reslice(o); err != nil {
			v.logger.Warn("plane reslice failed", "orientation", o.String(), "error", err)
			continue
		}
		resliced++
	}
	if resliced > 0 {
		v.widget.RequestRedraw()
	}
}

func (v *VolumePlanes) reslice(o models.Orientation) error {
	img, err := v.model.GetSlice(o, v.indices.For(o), 1)
	if err != nil {
		return err
	}
	return v.widget.Reslice(o, img)
}
