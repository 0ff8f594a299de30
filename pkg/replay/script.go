// Package replay drives a viewer session from a YAML event script so that
// interaction sequences can be reproduced without a terminal.
package replay

import (
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"mprviewer/internal/models"
	"mprviewer/pkg/crosshair"
	"mprviewer/pkg/viewer"
)

// Event kinds
const (
	KindPick      = "pick"
	KindPickWorld = "pickWorld"
	KindScroll    = "scroll"
	KindScrollTo  = "scrollTo"
	KindReset     = "reset"
	KindSnapshot  = "snapshot"
)

// Event is one scripted interaction
type Event struct {
	Kind        string             `yaml:"kind"`
	Orientation models.Orientation `yaml:"orientation"`

	// X and Y are screen coordinates for pick events
	X int `yaml:"x"`
	Y int `yaml:"y"`

	// World is the point for pickWorld events
	World [3]float64 `yaml:"world"`

	// Direction is forward or backward for scroll events
	Direction string `yaml:"direction"`

	// Steps repeats a scroll event, default 1
	Steps int `yaml:"steps"`

	// Index is the target of scrollTo events
	Index int `yaml:"index"`
}

// Script is an ordered list of events
type Script struct {
	Events []Event `yaml:"events"`
}

// Load reads a script from a YAML file
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML script
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error parsing script: %w", err)
	}
	for i, e := range s.Events {
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return &s, nil
}

func (e Event) validate() error {
	switch e.Kind {
	case KindPick, KindPickWorld, KindScrollTo, KindReset, KindSnapshot:
	case KindScroll:
		if _, err := crosshair.ParseScrollDirection(e.Direction); err != nil {
			return err
		}
		if e.Steps < 0 {
			return fmt.Errorf("steps must not be negative, got %d", e.Steps)
		}
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return nil
}

// String describes the event in one line
func (e Event) String() string {
	switch e.Kind {
	case KindPick:
		return fmt.Sprintf("pick %s (%d, %d)", e.Orientation, e.X, e.Y)
	case KindPickWorld:
		return fmt.Sprintf("pick %s world (%g, %g, %g)", e.Orientation, e.World[0], e.World[1], e.World[2])
	case KindScroll:
		return fmt.Sprintf("scroll %s %s x%d", e.Orientation, strings.ToLower(e.Direction), max(e.Steps, 1))
	case KindScrollTo:
		return fmt.Sprintf("scrollTo %s %d", e.Orientation, e.Index)
	}
	return e.Kind
}

// Step is the outcome of one event
type Step struct {
	Number int
	Event  Event
	Change models.ChangeSet

	// Ignored is set for degenerate picks, which change nothing
	Ignored bool
}

// Snapshotter receives snapshot events
type Snapshotter func(step int) error

// Run applies the script to a started session and calls visit after each
// event. Degenerate picks are reported as ignored steps; any other error
// stops the replay.
func (s *Script) Run(session *viewer.Session, snapshot Snapshotter, visit func(Step)) error {
	for i, e := range s.Events {
		step := Step{Number: i + 1, Event: e}

		cs, err := apply(session, e)
		switch {
		case viewer.IsDegenerate(err):
			step.Ignored = true
		case err != nil:
			return fmt.Errorf("event %d (%s): %w", step.Number, e, err)
		}
		step.Change = cs

		if e.Kind == KindSnapshot && snapshot != nil {
			if err := snapshot(step.Number); err != nil {
				return fmt.Errorf("event %d (%s): %w", step.Number, e, err)
			}
		}
		if visit != nil {
			visit(step)
		}
	}
	return nil
}

func apply(session *viewer.Session, e Event) (models.ChangeSet, error) {
	switch e.Kind {
	case KindPick:
		return session.Pick(e.Orientation, e.X, e.Y)
	case KindPickWorld:
		return session.PickWorld(e.Orientation, r3.Vec{X: e.World[0], Y: e.World[1], Z: e.World[2]})
	case KindScroll:
		dir, err := crosshair.ParseScrollDirection(e.Direction)
		if err != nil {
			return models.ChangeSet{}, err
		}
		var last models.ChangeSet
		changed := map[models.Orientation]bool{}
		for n := 0; n < max(e.Steps, 1); n++ {
			cs, err := session.Scroll(e.Orientation, dir)
			if err != nil {
				return models.ChangeSet{}, err
			}
			for _, o := range cs.Changed {
				changed[o] = true
			}
			last = cs
		}
		last.Changed = nil
		for _, o := range models.Orientations {
			if changed[o] {
				last.Changed = append(last.Changed, o)
			}
		}
		return last, nil
	case KindScrollTo:
		return session.ScrollTo(e.Orientation, e.Index)
	case KindReset:
		return session.Reset()
	case KindSnapshot:
		sync := session.Synchronizer()
		return models.ChangeSet{CrossHair: sync.CrossHair(), Indices: sync.Indices()}, nil
	}
	return models.ChangeSet{}, fmt.Errorf("unknown event kind %q", e.Kind)
}

// FormatStep renders a step as a single line
func FormatStep(st Step) string {
	if st.Ignored {
		return fmt.Sprintf("%3d %-40s ignored (degenerate pick)", st.Number, st.Event)
	}
	changed := make([]string, len(st.Change.Changed))
	for i, o := range st.Change.Changed {
		changed[i] = o.String()
	}
	list := strings.Join(changed, ",")
	if list == "" {
		list = "-"
	}
	c := st.Change.CrossHair
	return fmt.Sprintf("%3d %-40s changed=%-22s cursor=(%.2f, %.2f, %.2f) sagital=%d coronal=%d axial=%d",
		st.Number, st.Event, list, c.X, c.Y, c.Z,
		st.Change.Indices.Sagital(), st.Change.Indices.Coronal(), st.Change.Indices.Axial())
}
