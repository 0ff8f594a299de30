// Package mapper converts between screen picks, world coordinates and voxel
// slice indices. Every function is pure; the only state is the fixed axis
// assignment table in models.Orientation.Axes.
package mapper

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"mprviewer/internal/models"
)

// ErrDegeneratePick is returned when a pick ray misses the view plane or
// resolves to a non-finite coordinate. It is expected at the image border.
var ErrDegeneratePick = errors.New("degenerate pick")

// Picker is the part of a rendering surface used to resolve a screen position
type Picker interface {
	// PickToWorld intersects the view ray at (screenX, screenY) with the view plane.
	// ok is false when there is no intersection.
	PickToWorld(screenX, screenY int) (p r3.Vec, ok bool)
}

// PickToWorld resolves a screen position in the view with orientation o into a
// world point. If bounds has zero extent along a world axis, the result's
// coordinate on that axis is forced to the bound value so numerical noise of
// the intersection cannot move the point off the displayed plane. Only the
// first collapsed axis, checked in x, y, z order, is corrected.
func PickToWorld(screenX, screenY int, o models.Orientation, surface Picker, bounds r3.Box) (r3.Vec, error) {
	p, ok := surface.PickToWorld(screenX, screenY)
	if !ok {
		return r3.Vec{}, fmt.Errorf("%w: %s view at (%d, %d) has no intersection", ErrDegeneratePick, o, screenX, screenY)
	}

	for axis := models.AxisX; axis <= models.AxisZ; axis++ {
		lo := models.Component(bounds.Min, axis)
		if lo == models.Component(bounds.Max, axis) {
			p = models.WithComponent(p, axis, lo)
			break
		}
	}

	if !Finite(p) {
		return r3.Vec{}, fmt.Errorf("%w: %s view at (%d, %d) resolved to %v", ErrDegeneratePick, o, screenX, screenY, p)
	}
	return p, nil
}

// WorldToVoxel returns the pixel coordinates of world point p in the plane of
// the view with orientation o. The components used follow the axis table:
// AXIAL (x, y), CORONAL (x, z), SAGITAL (y, z).
//
// Rounding is to the nearest integer with ties away from zero, so 0.5 maps to
// 1 and -0.5 maps to -1.
func WorldToVoxel(o models.Orientation, p r3.Vec, bounds r3.Box, spacing r3.Vec) (px, py int, err error) {
	if !Finite(p) {
		return 0, 0, fmt.Errorf("%w: non-finite point %v", ErrDegeneratePick, p)
	}
	axes := o.Axes()
	px = toVoxel(p, bounds.Min, spacing, axes.U)
	py = toVoxel(p, bounds.Min, spacing, axes.V)
	return px, py, nil
}

func toVoxel(p, min, spacing r3.Vec, axis int) int {
	d := (models.Component(p, axis) - models.Component(min, axis)) / models.Component(spacing, axis)
	return int(scalar.Round(d, 0))
}

// VoxelToSliceIndices maps a pixel pick (px, py) in the view with orientation o,
// together with that view's own slice index, onto the three canonical indices:
//
//	orientation  sagital  coronal  axial
//	AXIAL        px       py       own
//	CORONAL      px       own      py
//	SAGITAL      own      px       py
func VoxelToSliceIndices(o models.Orientation, px, py, own int) models.SliceIndices {
	axes := o.Axes()
	var idx models.SliceIndices
	idx[axes.U] = px
	idx[axes.V] = py
	idx[axes.Normal] = own
	return idx
}

// PlanePosition returns the world coordinate, along o's normal axis, of slice index
func PlanePosition(o models.Orientation, index int, origin, spacing r3.Vec) float64 {
	n := o.Axes().Normal
	return models.Component(origin, n) + float64(index)*models.Component(spacing, n)
}

// SliceIndexAt returns the slice of view o that contains world point p,
// clamped to [0, maxIndex].
func SliceIndexAt(o models.Orientation, p, origin, spacing r3.Vec, maxIndex int) int {
	return Clamp(toVoxel(p, origin, spacing, o.Axes().Normal), 0, maxIndex)
}

// ProjectOntoSlice moves p onto the plane of slice index of view o, leaving the
// two in-plane components untouched.
func ProjectOntoSlice(o models.Orientation, p r3.Vec, index int, origin, spacing r3.Vec) r3.Vec {
	return models.WithComponent(p, o.Axes().Normal, PlanePosition(o, index, origin, spacing))
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Finite reports whether every component of p is a finite number
func Finite(p r3.Vec) bool {
	for _, c := range [...]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
