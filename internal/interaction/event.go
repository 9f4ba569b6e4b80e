package interaction

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// Kind is the type of an input event.
type Kind string

const (
	KindPointerDown   Kind = "pointerdown"
	KindPointerMove   Kind = "pointermove"
	KindPointerUp     Kind = "pointerup"
	KindPointerCancel Kind = "pointercancel"
	KindWheel         Kind = "wheel"
	KindKeyDown       Kind = "keydown"
	KindDoubleClick   Kind = "dblclick"
)

// Button numbers follow the DOM MouseEvent.button convention.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

// Modifiers are the modifier keys held during a pointer event.
type Modifiers struct {
	Shift bool `json:"shift,omitempty" yaml:"shift,omitempty"`
	Alt   bool `json:"alt,omitempty" yaml:"alt,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty" yaml:"ctrl,omitempty"`
	Meta  bool `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Target is the surface an event was raised on.
type Target string

const (
	TargetGrid  Target = "grid"
	TargetXAxis Target = "x-axis"
	TargetYAxis Target = "y-axis"
)

// KeyEscape resets the view.
const KeyEscape = "Escape"

// Event is a pointer, wheel or key event. X and Y are relative to the
// container, padding included.
type Event struct {
	Kind      Kind      `json:"kind" yaml:"kind"`
	X         float64   `json:"x" yaml:"x"`
	Y         float64   `json:"y" yaml:"y"`
	Button    Button    `json:"button,omitempty" yaml:"button,omitempty"`
	Modifiers Modifiers `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	DeltaY    float64   `json:"deltaY,omitempty" yaml:"deltaY,omitempty"`
	Key       string    `json:"key,omitempty" yaml:"key,omitempty"`
	Target    Target    `json:"target,omitempty" yaml:"target,omitempty"`
}

func (e Event) target() Target {
	if e.Target == "" {
		return TargetGrid
	}
	return e.Target
}

func (e Event) finite() bool {
	return !math.IsNaN(e.X) && !math.IsInf(e.X, 0) && !math.IsNaN(e.Y) && !math.IsInf(e.Y, 0)
}

// ErrInvalidEvent is wrapped by Validate errors.
var ErrInvalidEvent = errors.New("invalid event")

// Validate rejects events the machine cannot interpret at all.
func (e Event) Validate() error {
	switch e.Kind {
	case KindPointerDown, KindPointerMove, KindPointerUp, KindPointerCancel,
		KindWheel, KindKeyDown, KindDoubleClick:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	switch e.target() {
	case TargetGrid, TargetXAxis, TargetYAxis:
	default:
		return fmt.Errorf("%w: unknown target %q", ErrInvalidEvent, e.Target)
	}
	return nil
}

// Trigger chooses which pointer-down starts a selection instead of a pan.
type Trigger string

const (
	TriggerShift     Trigger = "shift"     // shift + primary selects
	TriggerAlt       Trigger = "alt"       // alt + primary selects
	TriggerSecondary Trigger = "secondary" // secondary button selects
	TriggerPrimary   Trigger = "primary"   // primary selects, any other button pans
)

// ParseTrigger parses a trigger name, case-insensitively. Empty means shift.
func ParseTrigger(s string) (Trigger, error) {
	switch t := Trigger(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TriggerShift, nil
	case TriggerShift, TriggerAlt, TriggerSecondary, TriggerPrimary:
		return t, nil
	default:
		return "", fmt.Errorf("unknown selection trigger %q", s)
	}
}

func (t Trigger) selects(e Event) bool {
	switch t {
	case TriggerAlt:
		return e.Button == ButtonPrimary && e.Modifiers.Alt
	case TriggerSecondary:
		return e.Button == ButtonSecondary
	case TriggerPrimary:
		return e.Button == ButtonPrimary
	default:
		return e.Button == ButtonPrimary && e.Modifiers.Shift
	}
}

// Selection is a rectangle in data-pixel space. The client fields track the
// raw gesture in container pixels while Editing is set.
type Selection struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	ClientX      float64 `json:"clientX"`
	ClientY      float64 `json:"clientY"`
	ClientWidth  float64 `json:"clientWidth"`
	ClientHeight float64 `json:"clientHeight"`
	Editing      bool    `json:"editing"`
}

// Rect returns the data-pixel rectangle of the selection.
func (s Selection) Rect() r2.Rect {
	return r2.Rect{
		X: r1.Interval{Lo: s.X, Hi: s.X + s.Width},
		Y: r1.Interval{Lo: s.Y, Hi: s.Y + s.Height},
	}
}

// Valid reports whether the selection has a positive, finite area.
func (s Selection) Valid() bool {
	return s.Width > 0 && s.Height > 0 &&
		!math.IsInf(s.Width, 0) && !math.IsInf(s.Height, 0) &&
		!math.IsNaN(s.X) && !math.IsNaN(s.Y)
}

// PointerState is the cursor position in data-pixel space and normalized to
// the visible bounds.
type PointerState struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	NormX float64 `json:"normX"`
	NormY float64 `json:"normY"`
}
