// Package volume owns the loaded voxel grid and cuts orthogonal slices from it.
package volume

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"mprviewer/internal/models"
)

// ErrOutOfRange is returned when a slice index lies outside the volume extent.
// Callers are expected to clamp before asking for a slice.
var ErrOutOfRange = errors.New("slice index out of range")

// Model is the read-only view of a loaded volume shared by every component
type Model struct {
	vol  *models.Volume
	dims [3]int
}

// New validates the volume and wraps it in a Model.
// The volume must not be modified afterwards.
func New(vol *models.Volume) (*Model, error) {
	if vol == nil {
		return nil, fmt.Errorf("%w: nil volume", ErrLoadFailure)
	}
	if vol.Width <= 0 || vol.Height <= 0 || vol.Depth <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%dx%d",
			ErrLoadFailure, vol.Width, vol.Height, vol.Depth)
	}
	if vol.Spacing.X <= 0 || vol.Spacing.Y <= 0 || vol.Spacing.Z <= 0 {
		return nil, fmt.Errorf("%w: spacing must be positive, got (%g, %g, %g)",
			ErrLoadFailure, vol.Spacing.X, vol.Spacing.Y, vol.Spacing.Z)
	}
	if want := vol.Width * vol.Height * vol.Depth; len(vol.Data) != want {
		return nil, fmt.Errorf("%w: data length %d does not match %dx%dx%d",
			ErrLoadFailure, len(vol.Data), vol.Width, vol.Height, vol.Depth)
	}
	return &Model{vol: vol, dims: vol.Dims()}, nil
}

// Volume returns the underlying volume. It must be treated as read-only.
func (m *Model) Volume() *models.Volume { return m.vol }

// Spacing returns the voxel spacing in mm
func (m *Model) Spacing() r3.Vec { return m.vol.Spacing }

// Origin returns the world position of voxel (0, 0, 0)
func (m *Model) Origin() r3.Vec { return m.vol.Origin }

// Center returns the world-space volume center
func (m *Model) Center() r3.Vec { return m.vol.Center() }

// SliceCount returns the number of slices along the axis orthogonal to the view
func (m *Model) SliceCount(o models.Orientation) int {
	return m.dims[o.Axes().Normal]
}

// MaxIndex returns the largest valid slice index for the view
func (m *Model) MaxIndex(o models.Orientation) int {
	return m.SliceCount(o) - 1
}

// Bounds returns the world-space bounds of the voxel centers
func (m *Model) Bounds() r3.Box {
	v := m.vol
	return r3.Box{
		Min: v.Origin,
		Max: r3.Vec{
			X: v.Origin.X + float64(v.Width-1)*v.Spacing.X,
			Y: v.Origin.Y + float64(v.Height-1)*v.Spacing.Y,
			Z: v.Origin.Z + float64(v.Depth-1)*v.Spacing.Z,
		},
	}
}

// SliceBounds returns the display bounds of slice index for the view.
// The box spans the full volume in-plane and is collapsed onto the slice plane
// along the normal axis. index is not range-checked.
func (m *Model) SliceBounds(o models.Orientation, index int) r3.Box {
	b := m.Bounds()
	n := o.Axes().Normal
	pos := models.Component(m.vol.Origin, n) + float64(index)*models.Component(m.vol.Spacing, n)
	b.Min = models.WithComponent(b.Min, n, pos)
	b.Max = models.WithComponent(b.Max, n, pos)
	return b
}

// GetSlice cuts a slab of thickness slices starting at index.
// A thickness below one is treated as one; a slab running past the last slice
// is truncated. The returned samples are the mean over the slab.
func (m *Model) GetSlice(o models.Orientation, index, thickness int) (*models.SliceImage, error) {
	count := m.SliceCount(o)
	if index < 0 || index >= count {
		return nil, fmt.Errorf("%w: %s index %d not in [0, %d]", ErrOutOfRange, o, index, count-1)
	}
	if thickness < 1 {
		thickness = 1
	}
	last := index + thickness
	if last > count {
		last = count
	}

	axes := o.Axes()
	cols := m.dims[axes.U]
	rows := m.dims[axes.V]

	slab := m.extract(axes, index, rows, cols)
	if n := last - index; n > 1 {
		for i := index + 1; i < last; i++ {
			slab.Add(slab, m.extract(axes, i, rows, cols))
		}
		slab.Scale(1/float64(n), slab)
	}

	return &models.SliceImage{
		Orientation: o,
		Index:       index,
		Thickness:   last - index,
		Data:        slab,
		Bounds:      m.SliceBounds(o, index),
	}, nil
}

// extract copies one plane of voxels into a rows x cols matrix
func (m *Model) extract(axes models.Axes, index, rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	var p [3]int
	p[axes.Normal] = index
	for r := 0; r < rows; r++ {
		p[axes.V] = r
		for c := 0; c < cols; c++ {
			p[axes.U] = c
			data[r*cols+c] = m.vol.Data[m.vol.Index(p[0], p[1], p[2])]
		}
	}
	return mat.NewDense(rows, cols, data)
}

// Value returns the sample at voxel (x, y, z)
func (m *Model) Value(x, y, z int) (float64, error) {
	if x < 0 || y < 0 || z < 0 || x >= m.vol.Width || y >= m.vol.Height || z >= m.vol.Depth {
		return 0, fmt.Errorf("%w: voxel (%d, %d, %d)", ErrOutOfRange, x, y, z)
	}
	return m.vol.Data[m.vol.Index(x, y, z)], nil
}

// IntensityRange returns the smallest and largest sample in the volume
func (m *Model) IntensityRange() (lo, hi float64) {
	return floats.Min(m.vol.Data), floats.Max(m.vol.Data)
}

// Stats returns the mean and standard deviation of all samples
func (m *Model) Stats() (mean, std float64) {
	return stat.MeanStdDev(m.vol.Data, nil)
}
