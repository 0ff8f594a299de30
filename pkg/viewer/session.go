package viewer

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"mprviewer/internal/models"
	"mprviewer/pkg/crosshair"
	"mprviewer/pkg/logging"
	"mprviewer/pkg/mapper"
	"mprviewer/pkg/slicestate"
	"mprviewer/pkg/volume"
)

// Binding ties an orientation to its rendering surface and slice state.
// Bindings are created with the session and live as long as it does.
type Binding struct {
	Orientation models.Orientation
	Surface     Surface
	State       *slicestate.State
}

// Session runs the multi-planar view of one volume
type Session struct {
	model       *volume.Model
	sync        *crosshair.Synchronizer
	settings    Settings
	window      models.Window
	bindings    [3]*Binding
	controllers [3]*Controller
	notifier    Notifier
	logger      *slog.Logger
	applying    bool
}

// NewSession creates a session for model with one surface per orientation.
// If settings carry a zero window width, the window is derived from the
// volume intensity range.
func NewSession(model *volume.Model, surfaces map[models.Orientation]Surface, settings Settings, logger *slog.Logger) (*Session, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: no volume", volume.ErrLoadFailure)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if settings.Thickness < 1 {
		settings.Thickness = 1
	}
	if settings.ZoomStep <= 1 {
		settings.ZoomStep = DefaultSettings().ZoomStep
	}

	s := &Session{
		model:    model,
		sync:     crosshair.New(model, settings.ScrollPolicy),
		settings: settings,
		window:   settings.Window,
		logger:   logger,
	}
	lo, hi := model.IntensityRange()
	if s.window.Width <= 0 || s.window.Level+s.window.Width/2 < lo || s.window.Level-s.window.Width/2 > hi {
		derived := models.Window{Level: (lo + hi) / 2, Width: hi - lo}
		if s.window.Width > 0 {
			logger.Info("window outside intensity range, using derived window",
				"level", s.window.Level, "width", s.window.Width, "min", lo, "max", hi)
		}
		s.window = derived
	}

	for _, o := range models.Orientations {
		surface, ok := surfaces[o]
		if !ok || surface == nil {
			return nil, fmt.Errorf("missing rendering surface for %s view", o)
		}
		s.bindings[o] = &Binding{Orientation: o, Surface: surface, State: s.sync.State(o)}
		s.controllers[o] = newController(o, s, settings)
	}
	return s, nil
}

// Model returns the volume being viewed
func (s *Session) Model() *volume.Model { return s.model }

// Synchronizer returns the engine that owns slice and cursor state
func (s *Session) Synchronizer() *crosshair.Synchronizer { return s.sync }

// Settings returns the settings the session was created with
func (s *Session) Settings() Settings { return s.settings }

// Window returns the display window in effect
func (s *Session) Window() models.Window { return s.window }

// Binding returns the binding of orientation o
func (s *Session) Binding(o models.Orientation) *Binding { return s.bindings[o] }

// Controller returns the input controller of orientation o
func (s *Session) Controller(o models.Orientation) *Controller { return s.controllers[o] }

// Subscribe registers an observer for change-sets
func (s *Session) Subscribe(obs Observer) (unsubscribe func()) {
	return s.notifier.Subscribe(obs)
}

// Start pushes the window, the initial slices and the cursor to every view and
// announces all three orientations as changed so observers can initialise.
func (s *Session) Start() error {
	for _, b := range s.bindings {
		if ws, ok := b.Surface.(WindowSetter); ok {
			ws.SetWindow(s.window)
		}
	}
	cs := models.ChangeSet{
		Changed:   append([]models.Orientation(nil), models.Orientations[:]...),
		CrossHair: s.sync.CrossHair(),
		Indices:   s.sync.Indices(),
	}
	s.logger.Info("session started",
		"sagital", cs.Indices.Sagital(), "coronal", cs.Indices.Coronal(), "axial", cs.Indices.Axial(),
		"window_level", s.window.Level, "window_width", s.window.Width)
	return s.Apply(cs)
}

// Pick resolves the screen position (x, y) of view o and synchronizes every
// view to it. A pick that misses the plane returns an error wrapping
// mapper.ErrDegeneratePick and changes nothing.
func (s *Session) Pick(o models.Orientation, x, y int) (models.ChangeSet, error) {
	if !o.Valid() {
		return models.ChangeSet{}, fmt.Errorf("invalid orientation %d", int(o))
	}
	b := s.bindings[o]
	p, err := mapper.PickToWorld(x, y, o, b.Surface, b.State.DisplayBounds())
	if err != nil {
		return models.ChangeSet{}, err
	}
	return s.round(func() (models.ChangeSet, error) { return s.sync.OnPick(o, p) })
}

// PickWorld synchronizes every view to world point p as if it had been picked
// in view o
func (s *Session) PickWorld(o models.Orientation, p r3.Vec) (models.ChangeSet, error) {
	if !o.Valid() {
		return models.ChangeSet{}, fmt.Errorf("invalid orientation %d", int(o))
	}
	if !mapper.Finite(p) {
		return models.ChangeSet{}, fmt.Errorf("%w: non-finite point", mapper.ErrDegeneratePick)
	}
	return s.round(func() (models.ChangeSet, error) { return s.sync.OnPick(o, p) })
}

// Scroll moves view o one slice in direction
func (s *Session) Scroll(o models.Orientation, direction crosshair.ScrollDirection) (models.ChangeSet, error) {
	return s.round(func() (models.ChangeSet, error) { return s.sync.OnScroll(o, direction) })
}

// ScrollTo jumps view o to slice index
func (s *Session) ScrollTo(o models.Orientation, index int) (models.ChangeSet, error) {
	return s.round(func() (models.ChangeSet, error) { return s.sync.OnScrollTo(o, index) })
}

// Reset returns every view to its middle slice
func (s *Session) Reset() (models.ChangeSet, error) {
	return s.round(s.sync.Reset)
}

func (s *Session) round(fn func() (models.ChangeSet, error)) (models.ChangeSet, error) {
	if s.applying {
		return models.ChangeSet{}, crosshair.ErrReentrant
	}
	cs, err := fn()
	if err != nil {
		return models.ChangeSet{}, err
	}
	if err := s.Apply(cs); err != nil {
		return cs, err
	}
	return cs, nil
}

// Apply pushes a change-set to the views: new slices for the changed
// orientations only, the cursor on every view, a redraw of every view, then
// the change-set to every observer.
func (s *Session) Apply(cs models.ChangeSet) error {
	if s.applying {
		return crosshair.ErrReentrant
	}
	s.applying = true
	defer func() { s.applying = false }()

	// Fetch everything before touching a surface so a failure leaves the views as they were
	images := make(map[models.Orientation]*models.SliceImage, len(cs.Changed))
	for _, o := range cs.Changed {
		img, err := s.model.GetSlice(o, cs.Indices.For(o), s.settings.Thickness)
		if err != nil {
			return fmt.Errorf("failed to fetch %s slice: %w", o, err)
		}
		images[o] = img
	}

	for _, o := range cs.Changed {
		img := images[o]
		s.bindings[o].Surface.SetSliceImage(img, img.Bounds)
	}
	for _, b := range s.bindings {
		b.Surface.SetCursorGeometry(cs.CrossHair)
		b.Surface.RequestRedraw()
	}

	s.logger.Debug("change-set applied",
		"changed", orientationNames(cs.Changed),
		"x", cs.CrossHair.X, "y", cs.CrossHair.Y, "z", cs.CrossHair.Z)

	s.notifier.Publish(cs)
	return nil
}

// IsDegenerate reports whether err is an expected no-op pick
func IsDegenerate(err error) bool {
	return errors.Is(err, mapper.ErrDegeneratePick)
}

func orientationNames(list []models.Orientation) []string {
	names := make([]string, len(list))
	for i, o := range list {
		names[i] = o.String()
	}
	return names
}
