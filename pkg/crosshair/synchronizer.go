// Package crosshair keeps the three slice views and the shared 3D cursor in
// agreement. Every pick or scroll is processed as one synchronization round
// that either fully applies or changes nothing.
package crosshair

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"mprviewer/internal/models"
	"mprviewer/pkg/mapper"
	"mprviewer/pkg/slicestate"
)

// ErrReentrant is returned when a round is started while another is running
var ErrReentrant = errors.New("synchronization round already in progress")

// Geometry is the read-only volume information the synchronizer needs
type Geometry interface {
	slicestate.Geometry
	Spacing() r3.Vec
	Origin() r3.Vec
	Bounds() r3.Box
	Center() r3.Vec
}

// Synchronizer owns the per-orientation slice states and the cross-hair.
// It is not safe for concurrent use; rounds are expected to be dispatched
// from a single control goroutine.
type Synchronizer struct {
	geometry  Geometry
	states    [3]*slicestate.State
	crossHair r3.Vec
	policy    ScrollPolicy
	busy      bool
}

// New creates a synchronizer with every view on its middle slice and the
// cross-hair at the volume center projected onto those slices. A zero policy
// means LegacyScroll.
func New(geometry Geometry, policy ScrollPolicy) *Synchronizer {
	if policy == (ScrollPolicy{}) {
		policy = LegacyScroll
	}
	s := &Synchronizer{geometry: geometry, policy: policy}
	for _, o := range models.Orientations {
		s.states[o] = slicestate.New(o, geometry)
	}
	s.crossHair = s.projectAll(geometry.Center())
	return s
}

// State returns the slice state of orientation o
func (s *Synchronizer) State(o models.Orientation) *slicestate.State {
	return s.states[o]
}

// CrossHair returns the shared cursor position
func (s *Synchronizer) CrossHair() r3.Vec { return s.crossHair }

// Policy returns the scroll policy in use
func (s *Synchronizer) Policy() ScrollPolicy { return s.policy }

// Indices returns the stored slice index of every view
func (s *Synchronizer) Indices() models.SliceIndices {
	var idx models.SliceIndices
	for _, o := range models.Orientations {
		idx[o.Axes().Normal] = s.states[o].Index()
	}
	return idx
}

// DerivedIndices returns the slice indices implied by the cross-hair position
func (s *Synchronizer) DerivedIndices() models.SliceIndices {
	var idx models.SliceIndices
	for _, o := range models.Orientations {
		idx[o.Axes().Normal] = mapper.SliceIndexAt(o, s.crossHair,
			s.geometry.Origin(), s.geometry.Spacing(), s.states[o].MaxIndex())
	}
	return idx
}

// Consistent reports whether every stored index matches the cross-hair
func (s *Synchronizer) Consistent() bool {
	return s.Indices() == s.DerivedIndices()
}

// OnPick moves the cross-hair to worldPoint, picked in the view with
// orientation o, and moves the two other views onto the slices through it.
//
// The point's coordinate along o's normal axis is snapped to o's current
// plane, and in-plane coordinates are clamped to the volume bounds. On a
// mapping failure nothing changes and the error wraps mapper.ErrDegeneratePick.
func (s *Synchronizer) OnPick(o models.Orientation, worldPoint r3.Vec) (models.ChangeSet, error) {
	if err := s.enter(o); err != nil {
		return models.ChangeSet{}, err
	}
	defer s.leave()

	own := s.states[o]
	bounds := own.DisplayBounds()
	p := s.resolve(o, worldPoint, own.Index())

	px, py, err := mapper.WorldToVoxel(o, p, bounds, s.geometry.Spacing())
	if err != nil {
		return models.ChangeSet{}, err
	}
	target := mapper.VoxelToSliceIndices(o, px, py, own.Index())

	var changed []models.Orientation
	for _, other := range models.Orientations {
		if other == o {
			continue
		}
		st := s.states[other]
		before := st.Index()
		if st.SetIndex(target.For(other)) != before {
			changed = append(changed, other)
		}
	}
	s.crossHair = p

	return s.changeSet(changed), nil
}

// OnScroll moves the view with orientation o one slice in direction, as
// translated by the scroll policy. Scrolling past either end is a no-op.
// The cross-hair keeps its in-plane position and follows the new slice.
func (s *Synchronizer) OnScroll(o models.Orientation, direction ScrollDirection) (models.ChangeSet, error) {
	delta, err := s.policy.Delta(direction)
	if err != nil {
		return models.ChangeSet{}, err
	}
	if err := s.enter(o); err != nil {
		return models.ChangeSet{}, err
	}
	defer s.leave()

	return s.moveTo(o, s.states[o].Index()+delta), nil
}

// OnScrollTo jumps the view with orientation o to index, saturating at the ends
func (s *Synchronizer) OnScrollTo(o models.Orientation, index int) (models.ChangeSet, error) {
	if err := s.enter(o); err != nil {
		return models.ChangeSet{}, err
	}
	defer s.leave()

	return s.moveTo(o, index), nil
}

// Reset returns every view to its middle slice and the cross-hair to the
// volume center.
func (s *Synchronizer) Reset() (models.ChangeSet, error) {
	if s.busy {
		return models.ChangeSet{}, ErrReentrant
	}
	s.busy = true
	defer s.leave()

	var changed []models.Orientation
	for _, o := range models.Orientations {
		st := s.states[o]
		before := st.Index()
		if st.SetIndex(s.geometry.SliceCount(o)/2) != before {
			changed = append(changed, o)
		}
	}
	s.crossHair = s.projectAll(s.geometry.Center())
	return s.changeSet(changed), nil
}

func (s *Synchronizer) moveTo(o models.Orientation, index int) models.ChangeSet {
	st := s.states[o]
	before := st.Index()
	after := st.SetIndex(index)
	s.crossHair = mapper.ProjectOntoSlice(o, s.crossHair, after, s.geometry.Origin(), s.geometry.Spacing())

	var changed []models.Orientation
	if after != before {
		changed = append(changed, o)
	}
	return s.changeSet(changed)
}

// resolve snaps p onto the plane of slice index of view o and clamps its
// in-plane components to the volume.
func (s *Synchronizer) resolve(o models.Orientation, p r3.Vec, index int) r3.Vec {
	if !mapper.Finite(p) {
		return p
	}
	axes := o.Axes()
	vb := s.geometry.Bounds()
	for _, axis := range [...]int{axes.U, axes.V} {
		v := models.Component(p, axis)
		lo, hi := models.Component(vb.Min, axis), models.Component(vb.Max, axis)
		if v < lo {
			v = lo
		} else if v > hi {
			v = hi
		}
		p = models.WithComponent(p, axis, v)
	}
	return mapper.ProjectOntoSlice(o, p, index, s.geometry.Origin(), s.geometry.Spacing())
}

func (s *Synchronizer) projectAll(p r3.Vec) r3.Vec {
	for _, o := range models.Orientations {
		p = mapper.ProjectOntoSlice(o, p, s.states[o].Index(), s.geometry.Origin(), s.geometry.Spacing())
	}
	return p
}

func (s *Synchronizer) changeSet(changed []models.Orientation) models.ChangeSet {
	return models.ChangeSet{
		Changed:   sortCanonical(changed),
		CrossHair: s.crossHair,
		Indices:   s.Indices(),
	}
}

func (s *Synchronizer) enter(o models.Orientation) error {
	if !o.Valid() {
		return fmt.Errorf("invalid orientation %d", int(o))
	}
	if s.busy {
		return ErrReentrant
	}
	s.busy = true
	return nil
}

func (s *Synchronizer) leave() { s.busy = false }

func sortCanonical(in []models.Orientation) []models.Orientation {
	if len(in) < 2 {
		return in
	}
	out := make([]models.Orientation, 0, len(in))
	for _, o := range models.Orientations {
		for _, c := range in {
			if c == o {
				out = append(out, o)
				break
			}
		}
	}
	return out
}
