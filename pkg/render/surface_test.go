package render

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"mprviewer/internal/models"
	"mprviewer/pkg/volume"
)

func createTestModel(t *testing.T) *volume.Model {
	t.Helper()
	vol := &models.Volume{
		Data:    make([]float64, 20*16*10),
		Width:   20,
		Height:  16,
		Depth:   10,
		Spacing: r3.Vec{X: 1, Y: 1, Z: 2},
	}
	for z := 0; z < vol.Depth; z++ {
		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				vol.Data[vol.Index(x, y, z)] = float64(x + y + z)
			}
		}
	}
	m, err := volume.New(vol)
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}
	return m
}

// loadedSurface returns a 100x100 surface showing the middle slice of o
func loadedSurface(t *testing.T, o models.Orientation) *Surface {
	t.Helper()
	m := createTestModel(t)
	img, err := m.GetSlice(o, m.SliceCount(o)/2, 1)
	if err != nil {
		t.Fatalf("GetSlice failed: %v", err)
	}
	s := NewSurface(o, 100, 100)
	s.SetSliceImage(img, img.Bounds)
	s.SetWindow(models.Window{Level: 21.5, Width: 43})
	return s
}

func TestCameraLabels(t *testing.T) {
	tests := []struct {
		o      models.Orientation
		labels [4]string
	}{
		{models.Axial, [4]string{"R", "L", "A", "P"}},
		{models.Coronal, [4]string{"R", "L", "T", "B"}},
		{models.Sagital, [4]string{"P", "A", "T", "B"}},
	}
	for _, tt := range tests {
		if got := NewSurface(tt.o, 10, 10).Labels(); got != tt.labels {
			t.Errorf("%s: labels %v, want %v", tt.o, got, tt.labels)
		}
		cam := CameraFor(tt.o)
		if cam.Right == tt.o.Axes().Normal || cam.Up == tt.o.Axes().Normal {
			t.Errorf("%s: camera shows the normal axis", tt.o)
		}
	}
}

func TestPickToWorldWithoutImage(t *testing.T) {
	s := NewSurface(models.Axial, 50, 50)
	if _, ok := s.PickToWorld(10, 10); ok {
		t.Error("Expected a miss before the first slice")
	}
	if s.SliceText() != "" {
		t.Errorf("Expected empty slice text, got %q", s.SliceText())
	}
	if img := s.Render(); img.Bounds().Dx() != 50 || img.Bounds().Dy() != 50 {
		t.Errorf("Unexpected render size %v", img.Bounds())
	}
}

func TestPickToWorldRoundTrip(t *testing.T) {
	for _, o := range models.Orientations {
		s := loadedSurface(t, o)
		normal := o.Axes().Normal
		plane := models.Component(s.Bounds().Min, normal)

		center, ok := s.PickToWorld(50, 50)
		if !ok {
			t.Fatalf("%s: center pick missed", o)
		}
		mid := boxCenter(s.Bounds())
		if math.Abs(center.X-mid.X) > 1e-9 || math.Abs(center.Y-mid.Y) > 1e-9 || math.Abs(center.Z-mid.Z) > 1e-9 {
			t.Errorf("%s: center pick %v, want %v", o, center, mid)
		}

		for _, pt := range [][2]int{{0, 0}, {13, 87}, {99, 42}} {
			p, ok := s.PickToWorld(pt[0], pt[1])
			if !ok {
				t.Fatalf("%s: pick %v missed", o, pt)
			}
			if models.Component(p, normal) != plane {
				t.Errorf("%s: pick left the slice plane: %v", o, p)
			}
			x, y, ok := s.WorldToScreen(p)
			if !ok || math.Abs(x-float64(pt[0])) > 1e-9 || math.Abs(y-float64(pt[1])) > 1e-9 {
				t.Errorf("%s: round trip of %v gave (%f, %f)", o, pt, x, y)
			}
		}
	}
}

func TestZoomClamp(t *testing.T) {
	s := loadedSurface(t, models.Axial)
	s.Zoom(2)
	if s.ZoomFactor() != 2 {
		t.Errorf("Expected zoom 2, got %f", s.ZoomFactor())
	}
	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		s.Zoom(bad)
	}
	if s.ZoomFactor() != 2 {
		t.Errorf("Invalid factors changed zoom to %f", s.ZoomFactor())
	}
	s.Zoom(1000)
	if s.ZoomFactor() != maxZoom {
		t.Errorf("Expected zoom clamped to %f, got %f", maxZoom, s.ZoomFactor())
	}
	s.Zoom(1e-9)
	if s.ZoomFactor() != minZoom {
		t.Errorf("Expected zoom clamped to %f, got %f", minZoom, s.ZoomFactor())
	}

	// Zooming keeps the center fixed
	s.ResetView()
	before, _ := s.PickToWorld(50, 50)
	s.Zoom(3)
	after, _ := s.PickToWorld(50, 50)
	if before != after {
		t.Errorf("Zoom moved the center from %v to %v", before, after)
	}
}

func TestPanFollowsPointer(t *testing.T) {
	s := loadedSurface(t, models.Axial)
	p, _ := s.PickToWorld(40, 50)
	s.Pan(10, 0)
	q, _ := s.PickToWorld(50, 50)
	if math.Abs(p.X-q.X) > 1e-9 || math.Abs(p.Y-q.Y) > 1e-9 {
		t.Errorf("Point under the pointer moved: %v -> %v", p, q)
	}
	s.ResetView()
	if c, _ := s.PickToWorld(50, 50); c != boxCenter(s.Bounds()) {
		t.Errorf("ResetView did not recenter: %v", c)
	}
}

func TestSample(t *testing.T) {
	s := loadedSurface(t, models.Axial)
	// The center pixel covers voxel (10, 8) of axial slice 5
	v, ok := s.Sample(50, 50)
	if !ok || v != 23 {
		t.Errorf("Sample(50, 50) = %f, %v, want 23", v, ok)
	}
	// The slice is wider than tall so the bottom rows are empty
	if _, ok := s.Sample(50, 0); ok {
		t.Error("Expected no sample outside the slice")
	}
}

func TestRenderAndSnapshot(t *testing.T) {
	s := loadedSurface(t, models.Axial)
	s.SetCursorGeometry(boxCenter(s.Bounds()))

	img := s.Render()
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Fatalf("Unexpected render size %v", img.Bounds())
	}
	if img.GrayAt(50, 49).Y == 0 {
		t.Error("Expected a non-black center pixel")
	}
	if img.GrayAt(50, 99).Y != 0 || img.GrayAt(50, 0).Y != 0 {
		t.Error("Expected black outside the slice")
	}

	cx, cy, ok := s.CursorScreen()
	if !ok || cx != 50 || cy != 50 {
		t.Fatalf("CursorScreen = (%d, %d, %v), want (50, 50)", cx, cy, ok)
	}
	snap := s.Snapshot()
	if snap.GrayAt(0, 49).Y != 255 || snap.GrayAt(50, 0).Y != 255 {
		t.Error("Expected white cross-hair lines")
	}

	profile := s.Profile()
	if len(profile) != 100 {
		t.Errorf("Expected a full-width profile, got %d samples", len(profile))
	}
	for i := 1; i < len(profile); i++ {
		if profile[i] < profile[i-1] {
			t.Errorf("Profile should not decrease along +x: %v", profile)
			break
		}
	}
}

func TestOverlayText(t *testing.T) {
	s := loadedSurface(t, models.Coronal)
	if s.SliceText() != "8" {
		t.Errorf("SliceText = %q, want 8", s.SliceText())
	}
	if s.WindowText() != "WL: 22 WW: 43" {
		t.Errorf("WindowText = %q", s.WindowText())
	}
	s.RequestRedraw()
	s.RequestRedraw()
	if s.Redraws() != 2 {
		t.Errorf("Expected 2 redraws, got %d", s.Redraws())
	}
	s.Resize(0, 40)
	if w, h := s.Size(); w != 100 || h != 40 {
		t.Errorf("Size = (%d, %d), want (100, 40)", w, h)
	}
}

func boxCenter(b r3.Box) r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}
