package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"mprviewer/internal/models"
)

const (
	minZoom = 0.05
	maxZoom = 50.0
)

// Surface is a headless slice view.
// The slice is fitted into a Width x Height viewport and can be zoomed and panned.
type Surface struct {
	orientation models.Orientation
	camera      Camera
	width       int
	height      int

	image  *models.SliceImage
	bounds r3.Box
	cursor r3.Vec
	window models.Window

	zoom     float64
	panRight float64 // world offset of the view center along the camera's right axis
	panUp    float64 // world offset of the view center along the camera's up axis

	redraws int
}

// NewSurface creates a surface of width x height pixels for orientation o
func NewSurface(o models.Orientation, width, height int) *Surface {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Surface{
		orientation: o,
		camera:      CameraFor(o),
		width:       width,
		height:      height,
		zoom:        1,
		window:      models.Window{Level: 0.5, Width: 1},
	}
}

// Orientation returns the view orientation
func (s *Surface) Orientation() models.Orientation { return s.orientation }

// Size returns the viewport size in pixels
func (s *Surface) Size() (width, height int) { return s.width, s.height }

// Resize changes the viewport size, keeping zoom and pan
func (s *Surface) Resize(width, height int) {
	if width > 0 {
		s.width = width
	}
	if height > 0 {
		s.height = height
	}
}

// SliceImage returns the slice currently shown, or nil before the first update
func (s *Surface) SliceImage() *models.SliceImage { return s.image }

// Bounds returns the world display extent of the current slice
func (s *Surface) Bounds() r3.Box { return s.bounds }

// Cursor returns the cross-hair position
func (s *Surface) Cursor() r3.Vec { return s.cursor }

// Window returns the display window
func (s *Surface) Window() models.Window { return s.window }

// ZoomFactor returns the current zoom, 1 meaning the slice fits the viewport
func (s *Surface) ZoomFactor() float64 { return s.zoom }

// Redraws returns how many redraws were requested
func (s *Surface) Redraws() int { return s.redraws }

// Labels returns the anatomical edge labels (left, right, top, bottom)
func (s *Surface) Labels() [4]string { return s.camera.Labels }

// SliceText returns the slice number overlay text
func (s *Surface) SliceText() string {
	if s.image == nil {
		return ""
	}
	return fmt.Sprintf("%d", s.image.Index)
}

// WindowText returns the window overlay text
func (s *Surface) WindowText() string {
	return fmt.Sprintf("WL: %d WW: %d", int(math.Round(s.window.Level)), int(math.Round(s.window.Width)))
}

// SetSliceImage implements viewer.Surface
func (s *Surface) SetSliceImage(img *models.SliceImage, bounds r3.Box) {
	s.image = img
	s.bounds = bounds
}

// SetCursorGeometry implements viewer.Surface
func (s *Surface) SetCursorGeometry(p r3.Vec) { s.cursor = p }

// RequestRedraw implements viewer.Surface
func (s *Surface) RequestRedraw() { s.redraws++ }

// SetWindow implements viewer.WindowSetter
func (s *Surface) SetWindow(w models.Window) { s.window = w }

// Zoom implements viewer.Zoomer
func (s *Surface) Zoom(factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	s.zoom = math.Max(minZoom, math.Min(maxZoom, s.zoom*factor))
}

// Pan implements viewer.Panner. The image follows the pointer.
func (s *Surface) Pan(dx, dy int) {
	scale := s.scale()
	if scale <= 0 {
		return
	}
	s.panRight -= s.camera.RightSign * float64(dx) / scale
	s.panUp -= s.camera.UpSign * float64(dy) / scale
}

// ResetView restores zoom 1 with the slice centered
func (s *Surface) ResetView() {
	s.zoom = 1
	s.panRight, s.panUp = 0, 0
}

// PickToWorld implements viewer.Surface with a parallel projection onto the
// slice plane. Screen positions outside the slice still intersect the plane.
func (s *Surface) PickToWorld(screenX, screenY int) (r3.Vec, bool) {
	if s.image == nil {
		return r3.Vec{}, false
	}
	p, ok := s.screenToWorld(float64(screenX), float64(screenY))
	return p, ok
}

// WorldToScreen projects p into viewport coordinates
func (s *Surface) WorldToScreen(p r3.Vec) (x, y float64, ok bool) {
	scale := s.scale()
	if s.image == nil || scale <= 0 {
		return 0, 0, false
	}
	cr, cu := s.center()
	x = float64(s.width)/2 + s.camera.RightSign*(models.Component(p, s.camera.Right)-cr)*scale
	y = float64(s.height)/2 + s.camera.UpSign*(models.Component(p, s.camera.Up)-cu)*scale
	return x, y, true
}

// CursorScreen returns the integer pixel holding the cross-hair center
func (s *Surface) CursorScreen() (x, y int, ok bool) {
	fx, fy, ok := s.WorldToScreen(s.cursor)
	if !ok {
		return 0, 0, false
	}
	return int(math.Floor(fx)), int(math.Floor(fy)), true
}

// Sample returns the slice value under screen pixel (x, y).
// ok is false outside the slice.
func (s *Surface) Sample(x, y int) (float64, bool) {
	p, ok := s.screenToWorld(float64(x)+0.5, float64(y)+0.5)
	if !ok {
		return 0, false
	}
	return s.sampleAt(p)
}

// Render rasterizes the slice through the display window.
// Row 0 of the returned image is the top of the viewport.
func (s *Surface) Render() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.width, s.height))
	if s.image == nil {
		return img
	}
	for y := 0; y < s.height; y++ {
		row := s.height - 1 - y
		for x := 0; x < s.width; x++ {
			v, ok := s.Sample(x, y)
			if !ok {
				continue
			}
			img.SetGray(x, row, color.Gray{Y: uint8(math.Round(s.window.Normalize(v) * 255))})
		}
	}
	return img
}

// Snapshot renders the slice with the cross-hair drawn over it
func (s *Surface) Snapshot() *image.Gray {
	img := s.Render()
	cx, cy, ok := s.CursorScreen()
	if !ok {
		return img
	}
	row := s.height - 1 - cy
	white := color.Gray{Y: 255}
	if row >= 0 && row < s.height {
		for x := 0; x < s.width; x++ {
			img.SetGray(x, row, white)
		}
	}
	if cx >= 0 && cx < s.width {
		for y := 0; y < s.height; y++ {
			img.SetGray(cx, y, white)
		}
	}
	return img
}

// Profile returns the samples along the viewport row through the cross-hair,
// left to right, skipping pixels outside the slice.
func (s *Surface) Profile() []float64 {
	_, cy, ok := s.CursorScreen()
	if !ok {
		return nil
	}
	var out []float64
	for x := 0; x < s.width; x++ {
		if v, ok := s.Sample(x, cy); ok {
			out = append(out, v)
		}
	}
	return out
}

// scale returns viewport pixels per mm
func (s *Surface) scale() float64 {
	er := extent(s.bounds, s.camera.Right)
	eu := extent(s.bounds, s.camera.Up)
	fit := math.Min(float64(s.width)/er, float64(s.height)/eu)
	return fit * s.zoom
}

func (s *Surface) center() (right, up float64) {
	mid := func(axis int) float64 {
		return (models.Component(s.bounds.Min, axis) + models.Component(s.bounds.Max, axis)) / 2
	}
	return mid(s.camera.Right) + s.panRight, mid(s.camera.Up) + s.panUp
}

func (s *Surface) screenToWorld(x, y float64) (r3.Vec, bool) {
	scale := s.scale()
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return r3.Vec{}, false
	}
	cr, cu := s.center()
	p := s.bounds.Min
	p = models.WithComponent(p, s.camera.Right, cr+s.camera.RightSign*(x-float64(s.width)/2)/scale)
	p = models.WithComponent(p, s.camera.Up, cu+s.camera.UpSign*(y-float64(s.height)/2)/scale)
	return p, true
}

// sampleAt returns the nearest slice sample to world point p
func (s *Surface) sampleAt(p r3.Vec) (float64, bool) {
	axes := s.orientation.Axes()
	rows, cols := s.image.Data.Dims()
	c, ok := sampleIndex(p, s.bounds, axes.U, cols)
	if !ok {
		return 0, false
	}
	r, ok := sampleIndex(p, s.bounds, axes.V, rows)
	if !ok {
		return 0, false
	}
	return s.image.Data.At(r, c), true
}

func sampleIndex(p r3.Vec, b r3.Box, axis, n int) (int, bool) {
	lo := models.Component(b.Min, axis)
	hi := models.Component(b.Max, axis)
	v := models.Component(p, axis)
	if n == 1 {
		return 0, math.Abs(v-lo) <= 0.5
	}
	step := (hi - lo) / float64(n-1)
	i := int(math.Round((v - lo) / step))
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

// extent returns the size of b along axis, never less than one mm so a
// single-voxel axis still gets a usable scale
func extent(b r3.Box, axis int) float64 {
	return math.Max(models.Component(b.Max, axis)-models.Component(b.Min, axis), 1)
}
