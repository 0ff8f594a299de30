package viewer

import (
	"mprviewer/internal/models"
	"mprviewer/pkg/crosshair"
)

// Capabilities selects which interactions a controller handles
type Capabilities struct {
	// Zoom enables dolly with the right button and pan with the middle button
	Zoom bool

	// CrossHair enables moving the shared cursor with the left button
	CrossHair bool
}

// Settings is the immutable display and interaction configuration handed to
// every controller at construction. It is passed by value.
type Settings struct {
	Window       models.Window
	Thickness    int
	Capabilities Capabilities
	ZoomStep     float64
	ScrollPolicy crosshair.ScrollPolicy

	// Planes lists the volume cut-planes enabled at start
	Planes []models.Orientation
}

// DefaultSettings returns the multi-view defaults: cross-hair and zoom on,
// CT soft-tissue window, single-slice slabs and legacy scrolling.
func DefaultSettings() Settings {
	return Settings{
		Window:       models.Window{Level: 40, Width: 350},
		Thickness:    1,
		Capabilities: Capabilities{Zoom: true, CrossHair: true},
		ZoomStep:     1.1,
		ScrollPolicy: crosshair.LegacyScroll,
	}
}
