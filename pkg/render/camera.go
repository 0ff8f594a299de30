// Package render provides headless rendering surfaces for the slice views and
// the volume view. They answer picks with a parallel projection, rasterize the
// current slice through the display window and write JPEG snapshots.
package render

import "mprviewer/internal/models"

// Camera describes how a slice view is laid out on screen.
// Screen x grows to the right and screen y grows upwards.
type Camera struct {
	// Right is the world axis shown left to right, RightSign its direction
	Right     int
	RightSign float64

	// Up is the world axis shown bottom to top, UpSign its direction
	Up     int
	UpSign float64

	// Labels are the anatomical directions at the left, right, top and bottom edges
	Labels [4]string
}

// AXIAL looks down -z with +y up. CORONAL and SAGITAL keep z pointing down
// the screen, matching the radiological layout of the slice files.
var cameras = [...]Camera{
	models.Axial:   {Right: models.AxisX, RightSign: 1, Up: models.AxisY, UpSign: 1, Labels: [4]string{"R", "L", "A", "P"}},
	models.Coronal: {Right: models.AxisX, RightSign: 1, Up: models.AxisZ, UpSign: -1, Labels: [4]string{"R", "L", "T", "B"}},
	models.Sagital: {Right: models.AxisY, RightSign: 1, Up: models.AxisZ, UpSign: -1, Labels: [4]string{"P", "A", "T", "B"}},
}

// CameraFor returns the camera of orientation o
func CameraFor(o models.Orientation) Camera {
	return cameras[o]
}
