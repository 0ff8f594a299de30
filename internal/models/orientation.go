package models

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Orientation identifies one of the three orthogonal slice views
type Orientation int

const (
	Axial Orientation = iota
	Coronal
	Sagital
)

// Orientations lists every orientation in canonical display order
var Orientations = [...]Orientation{Axial, Coronal, Sagital}

// World axis identifiers, used to index r3.Vec components and SliceIndices
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// Axes describes how an orientation cuts the voxel grid.
// Normal is the axis the view scrolls along; U and V are the two in-plane axes
// in the order the view reports pixel coordinates (px along U, py along V).
type Axes struct {
	Normal int
	U, V   int
}

// axesTable is the single source of truth for per-orientation axis assignment.
var axesTable = [...]Axes{
	Axial:   {Normal: AxisZ, U: AxisX, V: AxisY},
	Coronal: {Normal: AxisY, U: AxisX, V: AxisZ},
	Sagital: {Normal: AxisX, U: AxisY, V: AxisZ},
}

var orientationNames = [...]string{
	Axial:   "AXIAL",
	Coronal: "CORONAL",
	Sagital: "SAGITAL",
}

// Valid reports whether o is one of the three known orientations
func (o Orientation) Valid() bool {
	return o >= Axial && o <= Sagital
}

// Axes returns the axis assignment of the orientation.
// It panics for an invalid orientation, which is a programming error.
func (o Orientation) Axes() Axes {
	return axesTable[o]
}

func (o Orientation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationNames[o]
}

// MarshalText implements encoding.TextMarshaler so orientations read well in YAML
func (o Orientation) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("invalid orientation %d", int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOrientation accepts the view name case-insensitively.
// "SAGITTAL" is accepted as an alias for the legacy "SAGITAL" spelling.
func ParseOrientation(name string) (Orientation, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "AXIAL", "Z":
		return Axial, nil
	case "CORONAL", "Y":
		return Coronal, nil
	case "SAGITAL", "SAGITTAL", "X":
		return Sagital, nil
	}
	return 0, fmt.Errorf("invalid orientation: %q (must be AXIAL, CORONAL or SAGITAL)", name)
}

// OrientationForNormal returns the orientation whose view scrolls along axis
func OrientationForNormal(axis int) Orientation {
	for _, o := range Orientations {
		if axesTable[o].Normal == axis {
			return o
		}
	}
	panic(fmt.Sprintf("no orientation for axis %d", axis))
}

// Component returns the axis-th component of v
func Component(v r3.Vec, axis int) float64 {
	switch axis {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	case AxisZ:
		return v.Z
	}
	panic(fmt.Sprintf("invalid axis %d", axis))
}

// WithComponent returns a copy of v with its axis-th component set to value
func WithComponent(v r3.Vec, axis int, value float64) r3.Vec {
	switch axis {
	case AxisX:
		v.X = value
	case AxisY:
		v.Y = value
	case AxisZ:
		v.Z = value
	default:
		panic(fmt.Sprintf("invalid axis %d", axis))
	}
	return v
}
