package crosshair

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"mprviewer/internal/models"
	"mprviewer/pkg/mapper"
	"mprviewer/pkg/slicestate"
)

// testGeometry describes a voxel grid without holding any samples
type testGeometry struct {
	dims    [3]int
	spacing r3.Vec
	origin  r3.Vec
}

func (g testGeometry) SliceCount(o models.Orientation) int { return g.dims[o.Axes().Normal] }
func (g testGeometry) Spacing() r3.Vec                      { return g.spacing }
func (g testGeometry) Origin() r3.Vec                       { return g.origin }

func (g testGeometry) Bounds() r3.Box {
	max := g.origin
	for axis := models.AxisX; axis <= models.AxisZ; axis++ {
		max = models.WithComponent(max, axis,
			models.Component(g.origin, axis)+float64(g.dims[axis]-1)*models.Component(g.spacing, axis))
	}
	return r3.Box{Min: g.origin, Max: max}
}

func (g testGeometry) Center() r3.Vec {
	b := g.Bounds()
	return r3.Vec{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2, Z: (b.Min.Z + b.Max.Z) / 2}
}

func (g testGeometry) SliceBounds(o models.Orientation, index int) r3.Box {
	b := g.Bounds()
	n := o.Axes().Normal
	pos := mapper.PlanePosition(o, index, g.origin, g.spacing)
	b.Min = models.WithComponent(b.Min, n, pos)
	b.Max = models.WithComponent(b.Max, n, pos)
	return b
}

// scanGeometry is a 256x256x120 scan with 0.8 mm pixels and 1.5 mm slices
var scanGeometry = testGeometry{
	dims:    [3]int{256, 256, 120},
	spacing: r3.Vec{X: 0.8, Y: 0.8, Z: 1.5},
}

// TestNewCentersEveryView verifies the initial state is consistent
func TestNewCentersEveryView(t *testing.T) {
	s := New(scanGeometry, ScrollPolicy{})
	idx := s.Indices()
	if idx.Sagital() != 128 || idx.Coronal() != 128 || idx.Axial() != 60 {
		t.Errorf("Unexpected initial indices %v", idx)
	}
	if !s.Consistent() {
		t.Errorf("Initial state inconsistent: stored %v, derived %v", s.Indices(), s.DerivedIndices())
	}
	if s.Policy() != LegacyScroll {
		t.Errorf("Expected zero policy to mean legacy, got %+v", s.Policy())
	}
}

// TestOnPickAxial verifies an axial pick moves the coronal and sagital views
func TestOnPickAxial(t *testing.T) {
	s := New(scanGeometry, LegacyScroll)
	z := mapper.PlanePosition(models.Axial, s.State(models.Axial).Index(), scanGeometry.origin, scanGeometry.spacing)

	cs, err := s.OnPick(models.Axial, r3.Vec{X: 40, Y: 64, Z: z})
	if err != nil {
		t.Fatalf("OnPick failed: %v", err)
	}

	if got := s.State(models.Coronal).Index(); got != 80 {
		t.Errorf("Expected coronal index 80, got %d", got)
	}
	if got := s.State(models.Sagital).Index(); got != 50 {
		t.Errorf("Expected sagital index 50, got %d", got)
	}
	if got := s.State(models.Axial).Index(); got != 60 {
		t.Errorf("Expected axial index unchanged at 60, got %d", got)
	}

	if cs.Has(models.Axial) || !cs.Has(models.Coronal) || !cs.Has(models.Sagital) {
		t.Errorf("Unexpected changed list %v", cs.Changed)
	}
	if len(cs.Changed) != 2 || cs.Changed[0] != models.Coronal || cs.Changed[1] != models.Sagital {
		t.Errorf("Expected canonical order [CORONAL SAGITAL], got %v", cs.Changed)
	}
	if cs.CrossHair != (r3.Vec{X: 40, Y: 64, Z: z}) {
		t.Errorf("Expected cross-hair at the picked point, got %v", cs.CrossHair)
	}
	if !s.Consistent() {
		t.Errorf("State inconsistent after pick: stored %v, derived %v", s.Indices(), s.DerivedIndices())
	}
}

// TestOnPickIdempotent verifies a repeated pick changes nothing
func TestOnPickIdempotent(t *testing.T) {
	s := New(scanGeometry, LegacyScroll)
	p := r3.Vec{X: 17.3, Y: 101.9, Z: 0}

	if _, err := s.OnPick(models.Axial, p); err != nil {
		t.Fatalf("First pick failed: %v", err)
	}
	indices := s.Indices()
	cross := s.CrossHair()

	cs, err := s.OnPick(models.Axial, p)
	if err != nil {
		t.Fatalf("Second pick failed: %v", err)
	}
	if !cs.Empty() {
		t.Errorf("Second pick reported changes %v", cs.Changed)
	}
	if s.Indices() != indices || s.CrossHair() != cross {
		t.Error("Second pick modified the state")
	}
}

// TestOnPickSnapsToPlane verifies the normal coordinate follows the picked view
// and in-plane coordinates are clamped to the volume
func TestOnPickSnapsToPlane(t *testing.T) {
	s := New(scanGeometry, LegacyScroll)
	axial := s.State(models.Axial).Index()

	cs, err := s.OnPick(models.Axial, r3.Vec{X: -50, Y: 1000, Z: 3.3})
	if err != nil {
		t.Fatalf("OnPick failed: %v", err)
	}
	want := r3.Vec{X: 0, Y: 255 * 0.8, Z: float64(axial) * 1.5}
	if math.Abs(cs.CrossHair.X-want.X) > 1e-9 || math.Abs(cs.CrossHair.Y-want.Y) > 1e-9 || math.Abs(cs.CrossHair.Z-want.Z) > 1e-9 {
		t.Errorf("Expected cross-hair %v, got %v", want, cs.CrossHair)
	}
	if s.State(models.Sagital).Index() != 0 || s.State(models.Coronal).Index() != 255 {
		t.Errorf("Expected clamped indices, got %v", s.Indices())
	}
	if !s.Consistent() {
		t.Error("State inconsistent after clamped pick")
	}
}

// TestOnPickDegenerate verifies a non-finite point leaves the state untouched
func TestOnPickDegenerate(t *testing.T) {
	s := New(scanGeometry, LegacyScroll)
	before := s.Indices()
	cross := s.CrossHair()

	_, err := s.OnPick(models.Coronal, r3.Vec{X: math.NaN(), Y: 1, Z: 1})
	if !errors.Is(err, mapper.ErrDegeneratePick) {
		t.Fatalf("Expected ErrDegeneratePick, got %v", err)
	}
	if s.Indices() != before || s.CrossHair() != cross {
		t.Error("Degenerate pick modified the state")
	}

	// The guard is released after a failed round
	if _, err := s.OnPick(models.Coronal, r3.Vec{X: 1, Y: 1, Z: 1}); err != nil {
		t.Errorf("Pick after degenerate pick failed: %v", err)
	}
}

// TestLastWriterWins verifies two picks at the same coordinate in different
// views end at the second resolved point with every view consistent
func TestLastWriterWins(t *testing.T) {
	s := New(scanGeometry, LegacyScroll)
	p := r3.Vec{X: 30, Y: 40, Z: 50}

	if _, err := s.OnPick(models.Axial, p); err != nil {
		t.Fatalf("Axial pick failed: %v", err)
	}
	second, err := s.OnPick(models.Sagital, p)
	if err != nil {
		t.Fatalf("Sagital pick failed: %v", err)
	}

	// the sagital view stays on its slice, so x snaps to the current sagital plane
	wantX := mapper.PlanePosition(models.Sagital, s.State(models.Sagital).Index(), scanGeometry.origin, scanGeometry.spacing)
	want := r3.Vec{X: wantX, Y: 40, Z: 50}
	if s.CrossHair() != want || second.CrossHair != want {
		t.Errorf("Expected final cross-hair %v, got %v", want, s.CrossHair())
	}
	if !s.Consistent() {
		t.Errorf("State inconsistent: stored %v, derived %v", s.Indices(), s.DerivedIndices())
	}
}

// TestScrollSaturates verifies scrolling past the first slice stops at zero
func TestScrollSaturates(t *testing.T) {
	s := New(scanGeometry, LegacyScroll)
	max := s.State(models.Axial).MaxIndex()

	for i := 0; i < max+5; i++ {
		if _, err := s.OnScroll(models.Axial, ScrollForward); err != nil {
			t.Fatalf("Scroll %d failed: %v", i, err)
		}
	}
	if got := s.State(models.Axial).Index(); got != 0 {
		t.Errorf("Expected axial index 0, got %d", got)
	}

	cs, err := s.OnScroll(models.Axial, ScrollForward)
	if err != nil {
		t.Fatalf("Scroll at the end failed: %v", err)
	}
	if !cs.Empty() {
		t.Errorf("Scroll at the end reported changes %v", cs.Changed)
	}

	for i := 0; i < max+5; i++ {
		s.OnScroll(models.Axial, ScrollBackward)
	}
	if got := s.State(models.Axial).Index(); got != max {
		t.Errorf("Expected axial index %d, got %d", max, got)
	}
	if !s.Consistent() {
		t.Error("State inconsistent after scrolling")
	}
}

// TestScrollPolicies verifies the index delta of each policy
func TestScrollPolicies(t *testing.T) {
	legacy := New(scanGeometry, LegacyScroll)
	cs, err := legacy.OnScroll(models.Coronal, ScrollForward)
	if err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if got := legacy.State(models.Coronal).Index(); got != 127 {
		t.Errorf("Legacy forward: expected 127, got %d", got)
	}
	if len(cs.Changed) != 1 || cs.Changed[0] != models.Coronal {
		t.Errorf("Expected only CORONAL changed, got %v", cs.Changed)
	}
	if math.Abs(cs.CrossHair.Y-127*0.8) > 1e-9 {
		t.Errorf("Expected cross-hair to follow the coronal slice, got y=%f", cs.CrossHair.Y)
	}

	natural := New(scanGeometry, NaturalScroll)
	natural.OnScroll(models.Coronal, ScrollForward)
	if got := natural.State(models.Coronal).Index(); got != 129 {
		t.Errorf("Natural forward: expected 129, got %d", got)
	}

	if _, err := legacy.OnScroll(models.Coronal, ScrollDirection(0)); err == nil {
		t.Error("Expected error for an invalid direction")
	}
}

// TestScrollPolicyByName verifies policy lookup
func TestScrollPolicyByName(t *testing.T) {
	for name, want := range map[string]ScrollPolicy{"": LegacyScroll, "legacy": LegacyScroll, "Natural": NaturalScroll} {
		got, err := ScrollPolicyByName(name)
		if err != nil || got != want {
			t.Errorf("ScrollPolicyByName(%q) = %+v, %v", name, got, err)
		}
	}
	if _, err := ScrollPolicyByName("inverted"); err == nil {
		t.Error("Expected error for an unknown policy")
	}

	for in, want := range map[string]ScrollDirection{"forward": ScrollForward, "-1": ScrollBackward, "UP": ScrollForward} {
		got, err := ParseScrollDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseScrollDirection(%q) = %s, %v", in, got, err)
		}
	}
}

// TestOnScrollTo verifies jumps are clamped and the cross-hair follows
func TestOnScrollTo(t *testing.T) {
	s := New(scanGeometry, LegacyScroll)
	cs, err := s.OnScrollTo(models.Sagital, 400)
	if err != nil {
		t.Fatalf("OnScrollTo failed: %v", err)
	}
	if s.State(models.Sagital).Index() != 255 || !cs.Has(models.Sagital) {
		t.Errorf("Expected sagital at 255, got %d", s.State(models.Sagital).Index())
	}
	if !s.Consistent() {
		t.Error("State inconsistent after jump")
	}
}

// TestReentrantRound verifies a round started from inside another round fails
// without changing anything
func TestReentrantRound(t *testing.T) {
	s := New(scanGeometry, LegacyScroll)

	var nested error
	var nestedIndices models.SliceIndices
	s.State(models.Sagital).Listen(func(slicestate.Change) {
		before := s.Indices()
		_, nested = s.OnScroll(models.Axial, ScrollForward)
		nestedIndices = s.Indices()
		if nestedIndices != before {
			t.Error("Re-entrant call changed the indices")
		}
	})

	if _, err := s.OnPick(models.Axial, r3.Vec{X: 10, Y: 10}); err != nil {
		t.Fatalf("OnPick failed: %v", err)
	}
	if !errors.Is(nested, ErrReentrant) {
		t.Errorf("Expected ErrReentrant from nested call, got %v", nested)
	}
	if s.State(models.Axial).Index() != 60 {
		t.Errorf("Nested scroll was applied: axial index %d", s.State(models.Axial).Index())
	}
}

// TestReset verifies the views return to the middle slices
func TestReset(t *testing.T) {
	s := New(scanGeometry, LegacyScroll)
	initial := s.CrossHair()
	s.OnPick(models.Coronal, r3.Vec{X: 3, Y: 0, Z: 7})
	s.OnScroll(models.Coronal, ScrollBackward)

	cs, err := s.Reset()
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if s.Indices() != (models.SliceIndices{128, 128, 60}) {
		t.Errorf("Expected middle slices, got %v", s.Indices())
	}
	if s.CrossHair() != initial {
		t.Errorf("Expected cross-hair %v, got %v", initial, s.CrossHair())
	}
	if cs.Empty() {
		t.Error("Reset after moving should report changes")
	}
}

// TestConsistencyAfterRandomSequence verifies the stored indices always match
// the cross-hair for arbitrary interaction sequences
func TestConsistencyAfterRandomSequence(t *testing.T) {
	geometries := []testGeometry{
		scanGeometry,
		{dims: [3]int{17, 9, 31}, spacing: r3.Vec{X: 1.3, Y: 0.7, Z: 2.2}, origin: r3.Vec{X: -10, Y: 5, Z: 100}},
		{dims: [3]int{1, 12, 5}, spacing: r3.Vec{X: 1, Y: 1, Z: 1}},
	}

	rng := rand.New(rand.NewSource(42))
	for gi, g := range geometries {
		s := New(g, LegacyScroll)
		b := g.Bounds()
		for step := 0; step < 500; step++ {
			o := models.Orientations[rng.Intn(3)]
			switch rng.Intn(4) {
			case 0, 1:
				p := r3.Vec{
					X: b.Min.X - 5 + rng.Float64()*(b.Max.X-b.Min.X+10),
					Y: b.Min.Y - 5 + rng.Float64()*(b.Max.Y-b.Min.Y+10),
					Z: b.Min.Z - 5 + rng.Float64()*(b.Max.Z-b.Min.Z+10),
				}
				if _, err := s.OnPick(o, p); err != nil {
					t.Fatalf("geometry %d step %d: OnPick failed: %v", gi, step, err)
				}
			case 2:
				dir := ScrollForward
				if rng.Intn(2) == 0 {
					dir = ScrollBackward
				}
				if _, err := s.OnScroll(o, dir); err != nil {
					t.Fatalf("geometry %d step %d: OnScroll failed: %v", gi, step, err)
				}
			case 3:
				if _, err := s.OnScrollTo(o, rng.Intn(g.SliceCount(o)+20)-10); err != nil {
					t.Fatalf("geometry %d step %d: OnScrollTo failed: %v", gi, step, err)
				}
			}
			if !s.Consistent() {
				t.Fatalf("geometry %d step %d: stored %v, derived %v, cross-hair %v",
					gi, step, s.Indices(), s.DerivedIndices(), s.CrossHair())
			}
		}
	}
}
