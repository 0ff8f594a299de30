// Package viewer binds the slice views and the volume view to the
// synchronization engine. A Session owns one binding per orientation and
// pushes every change-set to the rendering surfaces and to observers.
package viewer

import (
	"gonum.org/v1/gonum/spatial/r3"

	"mprviewer/internal/models"
	"mprviewer/pkg/mapper"
)

// Surface is the rendering collaborator of one slice view
type Surface interface {
	mapper.Picker

	// SetSliceImage replaces the displayed slice and its world display extent
	SetSliceImage(img *models.SliceImage, bounds r3.Box)

	// SetCursorGeometry moves the cross-hair indicator
	SetCursorGeometry(p r3.Vec)

	// RequestRedraw schedules a redraw of the view
	RequestRedraw()
}

// Zoomer is implemented by surfaces that support camera dolly
type Zoomer interface {
	Zoom(factor float64)
}

// Panner is implemented by surfaces that support camera pan
type Panner interface {
	Pan(dx, dy int)
}

// WindowSetter is implemented by surfaces that apply a display window
type WindowSetter interface {
	SetWindow(w models.Window)
}

// PlaneWidget is one of the cut-planes embedded in the volume view
type PlaneWidget interface {
	// Reslice replaces the texture of the plane for orientation o
	Reslice(o models.Orientation, img *models.SliceImage) error

	// RequestRedraw schedules a redraw of the volume view
	RequestRedraw()
}

// Observer receives every change-set after the slice views were updated
type Observer interface {
	OnChange(cs models.ChangeSet)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(cs models.ChangeSet)

// OnChange calls f(cs)
func (f ObserverFunc) OnChange(cs models.ChangeSet) { f(cs) }
