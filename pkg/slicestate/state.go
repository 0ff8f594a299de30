// Package slicestate tracks the current slice of one view.
package slicestate

import (
	"gonum.org/v1/gonum/spatial/r3"

	"mprviewer/internal/models"
)

// Geometry is what a SliceState needs to know about the volume
type Geometry interface {
	SliceCount(o models.Orientation) int
	SliceBounds(o models.Orientation, index int) r3.Box
}

// Change describes a stored index transition
type Change struct {
	Orientation models.Orientation
	Old, New    int
}

// State holds the current slice index of one orientation.
// The index always lies in [0, MaxIndex]; out-of-range requests saturate.
type State struct {
	orientation models.Orientation
	geometry    Geometry
	current     int
	maxIndex    int
	bounds      r3.Box
	listeners   []func(Change)
}

// New creates the state for orientation o positioned on the middle slice
func New(o models.Orientation, geometry Geometry) *State {
	s := &State{
		orientation: o,
		geometry:    geometry,
		maxIndex:    geometry.SliceCount(o) - 1,
	}
	s.current = s.clamp(geometry.SliceCount(o) / 2)
	s.bounds = geometry.SliceBounds(o, s.current)
	return s
}

// Orientation returns the view this state belongs to
func (s *State) Orientation() models.Orientation { return s.orientation }

// Index returns the current slice index
func (s *State) Index() int { return s.current }

// MaxIndex returns the last valid slice index
func (s *State) MaxIndex() int { return s.maxIndex }

// DisplayBounds returns the world bounds of the current slice
func (s *State) DisplayBounds() r3.Box { return s.bounds }

// SetIndex clamps requested to [0, MaxIndex], stores it and returns the stored
// value. Listeners are notified only when the stored value changes.
func (s *State) SetIndex(requested int) int {
	next := s.clamp(requested)
	if next == s.current {
		return next
	}
	old := s.current
	s.current = next
	s.bounds = s.geometry.SliceBounds(s.orientation, next)
	for _, fn := range s.listeners {
		fn(Change{Orientation: s.orientation, Old: old, New: next})
	}
	return next
}

// Advance moves the index by delta, saturating at both ends
func (s *State) Advance(delta int) int {
	return s.SetIndex(s.current + delta)
}

// Listen registers fn to be called after every change of the stored index
func (s *State) Listen(fn func(Change)) {
	s.listeners = append(s.listeners, fn)
}

func (s *State) clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > s.maxIndex {
		return s.maxIndex
	}
	return v
}
