package models

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Volume represents a loaded 3D scan
type Volume struct {
	// Data is the 3D volume data as a 1D array in row-major order (z, y, x)
	Data []float64

	// Width is the width of the volume in voxels (x axis)
	Width int

	// Height is the height of the volume in voxels (y axis)
	Height int

	// Depth is the depth of the volume in voxels (z axis, acquisition order)
	Depth int

	// Spacing is the physical size of each voxel in mm
	Spacing r3.Vec

	// Origin is the world position of voxel (0, 0, 0)
	Origin r3.Vec
}

// Dims returns the voxel counts along x, y and z
func (v *Volume) Dims() [3]int {
	return [3]int{v.Width, v.Height, v.Depth}
}

// Index returns the position of voxel (x, y, z) in Data
func (v *Volume) Index(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}

// Center returns the world-space center of the volume
func (v *Volume) Center() r3.Vec {
	return r3.Vec{
		X: v.Origin.X + float64(v.Width-1)*v.Spacing.X/2,
		Y: v.Origin.Y + float64(v.Height-1)*v.Spacing.Y/2,
		Z: v.Origin.Z + float64(v.Depth-1)*v.Spacing.Z/2,
	}
}

// SliceImage is a 2D scalar slab cut from the volume
type SliceImage struct {
	// Orientation is the view the slab was cut for
	Orientation Orientation

	// Index is the first slice of the slab along the orientation's normal axis
	Index int

	// Thickness is the number of slices averaged into the slab
	Thickness int

	// Data holds the samples: rows run along the V axis, columns along the U axis
	Data *mat.Dense

	// Bounds are the world-space display bounds of the slab.
	// They are collapsed to the slice plane along the normal axis.
	Bounds r3.Box
}

// SliceIndices holds one slice index per world axis.
// The index along x is the sagital slice, along y the coronal and along z the axial.
type SliceIndices [3]int

// Sagital returns the sagital slice index
func (s SliceIndices) Sagital() int { return s[AxisX] }

// Coronal returns the coronal slice index
func (s SliceIndices) Coronal() int { return s[AxisY] }

// Axial returns the axial slice index
func (s SliceIndices) Axial() int { return s[AxisZ] }

// For returns the index shown by the view with orientation o
func (s SliceIndices) For(o Orientation) int {
	return s[o.Axes().Normal]
}

// PickEvent is a pointer pick in one view. It is consumed immediately.
type PickEvent struct {
	Orientation Orientation
	ScreenX     int
	ScreenY     int
}

// ChangeSet is the outcome of one synchronization round
type ChangeSet struct {
	// Changed lists, in canonical order, the orientations whose slice index changed
	Changed []Orientation

	// CrossHair is the shared cursor position after the round
	CrossHair r3.Vec

	// Indices are the slice indices of all three views after the round
	Indices SliceIndices
}

// Has reports whether orientation o changed during the round
func (c ChangeSet) Has(o Orientation) bool {
	for _, changed := range c.Changed {
		if changed == o {
			return true
		}
	}
	return false
}

// Empty reports whether no slice changed
func (c ChangeSet) Empty() bool {
	return len(c.Changed) == 0
}

// Window maps sample intensities onto the display gray scale
type Window struct {
	// Level is the intensity shown as mid-gray
	Level float64

	// Width is the intensity range spread from black to white
	Width float64
}

// Normalize maps v into [0, 1] through the window
func (w Window) Normalize(v float64) float64 {
	if w.Width <= 0 {
		if v >= w.Level {
			return 1
		}
		return 0
	}
	t := (v-w.Level)/w.Width + 0.5
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
