package crosshair

import (
	"fmt"
	"strings"
)

// ScrollDirection is the direction of a wheel step as reported by the input device
type ScrollDirection int

const (
	ScrollForward  ScrollDirection = 1
	ScrollBackward ScrollDirection = -1
)

func (d ScrollDirection) String() string {
	switch d {
	case ScrollForward:
		return "forward"
	case ScrollBackward:
		return "backward"
	}
	return fmt.Sprintf("ScrollDirection(%d)", int(d))
}

// ParseScrollDirection accepts "forward"/"backward" or the wheel sign "+1"/"-1"
func ParseScrollDirection(s string) (ScrollDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "fwd", "up", "+1", "1":
		return ScrollForward, nil
	case "backward", "back", "down", "-1":
		return ScrollBackward, nil
	}
	return 0, fmt.Errorf("invalid scroll direction: %q", s)
}

// ScrollPolicy translates a wheel direction into a slice index delta
type ScrollPolicy struct {
	Name     string
	Forward  int
	Backward int
}

// LegacyScroll decreases the slice index on a forward wheel step.
// This matches the established behaviour of the viewer and is the default.
var LegacyScroll = ScrollPolicy{Name: "legacy", Forward: -1, Backward: 1}

// NaturalScroll increases the slice index on a forward wheel step
var NaturalScroll = ScrollPolicy{Name: "natural", Forward: 1, Backward: -1}

// ScrollPolicyByName returns the named policy
func ScrollPolicyByName(name string) (ScrollPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", LegacyScroll.Name:
		return LegacyScroll, nil
	case NaturalScroll.Name:
		return NaturalScroll, nil
	}
	return ScrollPolicy{}, fmt.Errorf("unknown scroll policy: %q (must be legacy or natural)", name)
}

// Delta returns the index change for one wheel step in direction
func (p ScrollPolicy) Delta(direction ScrollDirection) (int, error) {
	switch direction {
	case ScrollForward:
		return p.Forward, nil
	case ScrollBackward:
		return p.Backward, nil
	}
	return 0, fmt.Errorf("invalid scroll direction %d", int(direction))
}
