package viewer

import (
	"fmt"
	"math"

	"mprviewer/internal/models"
	"mprviewer/pkg/crosshair"
)

// Button identifies a pointer button
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	}
	return fmt.Sprintf("Button(%d)", int(b))
}

// Controller turns pointer input on one view into synchronization rounds.
// A single type serves every view; behaviour is selected by Capabilities.
type Controller struct {
	orientation  models.Orientation
	session      *Session
	capabilities Capabilities
	zoomStep     float64
	pressed      [3]bool
	lastX, lastY int
}

func newController(o models.Orientation, session *Session, settings Settings) *Controller {
	return &Controller{
		orientation:  o,
		session:      session,
		capabilities: settings.Capabilities,
		zoomStep:     settings.ZoomStep,
	}
}

// Orientation returns the view the controller is bound to
func (c *Controller) Orientation() models.Orientation { return c.orientation }

// Capabilities returns the interactions the controller handles
func (c *Controller) Capabilities() Capabilities { return c.capabilities }

// Pressed reports whether button b is held down
func (c *Controller) Pressed(b Button) bool {
	if b < ButtonLeft || b > ButtonRight {
		return false
	}
	return c.pressed[b]
}

// Press handles a button press at screen position (x, y).
// With the cross-hair capability a left press moves the cursor there.
func (c *Controller) Press(b Button, x, y int) (models.ChangeSet, error) {
	if b < ButtonLeft || b > ButtonRight {
		return models.ChangeSet{}, fmt.Errorf("invalid button %d", int(b))
	}
	c.pressed[b] = true
	c.lastX, c.lastY = x, y
	if b == ButtonLeft && c.capabilities.CrossHair {
		return c.pick(x, y)
	}
	return models.ChangeSet{}, nil
}

// Move handles pointer motion. Dragging with the left button keeps moving the
// cursor; the right button zooms and the middle button pans.
func (c *Controller) Move(x, y int) (models.ChangeSet, error) {
	dx, dy := x-c.lastX, y-c.lastY
	c.lastX, c.lastY = x, y

	switch {
	case c.pressed[ButtonLeft] && c.capabilities.CrossHair:
		return c.pick(x, y)
	case c.pressed[ButtonRight] && c.capabilities.Zoom:
		c.zoom(dy)
	case c.pressed[ButtonMiddle] && c.capabilities.Zoom:
		c.pan(dx, dy)
	}
	return models.ChangeSet{}, nil
}

// Release handles a button release
func (c *Controller) Release(b Button) {
	if b < ButtonLeft || b > ButtonRight {
		return
	}
	c.pressed[b] = false
}

// Wheel handles one wheel step
func (c *Controller) Wheel(direction crosshair.ScrollDirection) (models.ChangeSet, error) {
	return c.session.Scroll(c.orientation, direction)
}

func (c *Controller) pick(x, y int) (models.ChangeSet, error) {
	cs, err := c.session.Pick(c.orientation, x, y)
	if IsDegenerate(err) {
		c.session.logger.Debug("pick ignored", "orientation", c.orientation.String(), "x", x, "y", y, "reason", err.Error())
		return models.ChangeSet{}, nil
	}
	return cs, err
}

func (c *Controller) zoom(dy int) {
	if dy == 0 {
		return
	}
	z, ok := c.session.bindings[c.orientation].Surface.(Zoomer)
	if !ok {
		return
	}
	// Moving up by 10 pixels zooms in by one step
	z.Zoom(math.Pow(c.zoomStep, float64(dy)/10))
	c.session.bindings[c.orientation].Surface.RequestRedraw()
}

func (c *Controller) pan(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	p, ok := c.session.bindings[c.orientation].Surface.(Panner)
	if !ok {
		return
	}
	p.Pan(dx, dy)
	c.session.bindings[c.orientation].Surface.RequestRedraw()
}
