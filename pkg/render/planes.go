package render

import (
	"fmt"

	"mprviewer/internal/models"
)

// Planes is a headless volume view holding one cut-plane per orientation
type Planes struct {
	slices   [3]*models.SliceImage
	reslices [3]int
	redraws  int
}

// NewPlanes creates an empty volume view
func NewPlanes() *Planes {
	return &Planes{}
}

// Reslice implements viewer.PlaneWidget
func (p *Planes) Reslice(o models.Orientation, img *models.SliceImage) error {
	if !o.Valid() {
		return fmt.Errorf("invalid orientation %d", int(o))
	}
	if img == nil {
		return fmt.Errorf("no slice for %s plane", o)
	}
	p.slices[o] = img
	p.reslices[o]++
	return nil
}

// RequestRedraw implements viewer.PlaneWidget
func (p *Planes) RequestRedraw() { p.redraws++ }

// Slice returns the slice last cut for orientation o
func (p *Planes) Slice(o models.Orientation) *models.SliceImage { return p.slices[o] }

// Reslices returns how many times the plane for o was re-sliced
func (p *Planes) Reslices(o models.Orientation) int { return p.reslices[o] }

// Redraws returns how many redraws were requested
func (p *Planes) Redraws() int { return p.redraws }

// Summary describes the planes as "AXIAL 60 CORONAL 128 SAGITAL -" where "-"
// marks a plane never cut
func (p *Planes) Summary(enabled func(models.Orientation) bool) string {
	out := ""
	for i, o := range models.Orientations {
		if i > 0 {
			out += " "
		}
		switch {
		case enabled != nil && !enabled(o):
			out += o.String() + " off"
		case p.slices[o] == nil:
			out += o.String() + " -"
		default:
			out += fmt.Sprintf("%s %d", o, p.slices[o].Index)
		}
	}
	return out
}
