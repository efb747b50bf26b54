// Package eventsynth maintains current/previous stylus state and emits
// the minimal sequence of enter/exit-proximity, click, drag, and
// move events that witness the difference, per spec.md §4.7. Grounded
// on original_source/daemon/SerialDaemon.h's StylusState struct
// (field-for-field) and the kSystemButton1..kSystemClickOrRelease
// click-kind enum in common/Constants.h.
package eventsynth

import "github.com/tabletmagic/daemon/decode"

// ClickKind is a system-level button-mapping target, per
// common/Constants.h's kSystemButton1..kSystemClickOrRelease.
type ClickKind int

const (
	ClickNone ClickKind = iota
	ClickSystemButton1
	ClickSystemButton2
	ClickSystemButton3
	ClickSystemButton4
	ClickSystemButton5
	ClickEraser
	ClickDoubleClick
	ClickSingleClick
	ClickControlClick
	ClickOrRelease
	clickKindCount
)

// StylusInput identifies one of the four physical stylus inputs, per
// spec.md §3's button-mapping array.
type StylusInput int

const (
	InputTip StylusInput = iota
	InputSide1
	InputSide2
	InputEraser
	stylusInputCount
)

// ButtonMapping names one ClickKind target per StylusInput.
type ButtonMapping [stylusInputCount]ClickKind

// DefaultButtonMapping mirrors the original daemon's power-on default:
// tip drives the left button, side1/side2 drive buttons 2/3, and the
// eraser input drives the system eraser.
func DefaultButtonMapping() ButtonMapping {
	return ButtonMapping{
		InputTip:    ClickSystemButton1,
		InputSide1:  ClickSystemButton2,
		InputSide2:  ClickSystemButton3,
		InputEraser: ClickEraser,
	}
}

// ProximityDescriptor identifies the transducer to the event sink, per
// spec.md §3. It is generated once per session from a hash of the
// device path and the tablet ID string, and its UniqueID is fixed for
// the life of the connection.
type ProximityDescriptor struct {
	Vendor     uint32
	Tablet     uint32
	Device     uint32
	UniqueID   uint64
	Capability uint32
	Entering   bool
}

// StylusState is the full decoded transducer state, per spec.md §3.
type StylusState struct {
	X, Y         int32
	OldX, OldY   int32
	MotionX, MotionY int32
	TiltX, TiltY int16

	RawPressure uint16
	Pressure    uint16

	Tip, Side1, Side2, Eraser bool
	ButtonMask                uint16

	OffTablet  bool
	PenNear    bool
	EraserFlag bool
	MenuButton uint8

	ToolType decode.ToolType
	ToolID   uint16
	Serial   uint64

	Rotation int16
	Wheel    int16
	Throttle int16

	Proximity ProximityDescriptor
}

func (s StylusState) inputs() [stylusInputCount]bool {
	return [stylusInputCount]bool{
		InputTip:    s.Tip,
		InputSide1:  s.Side1,
		InputSide2:  s.Side2,
		InputEraser: s.Eraser,
	}
}

// EventKind distinguishes the event records EventSink receives.
type EventKind int

const (
	ProximityEnter EventKind = iota
	ProximityExit
	ButtonDown
	ButtonUp
	Move
	Dragged
)

// PointerKind tells the sink whether the transducer reporting this
// event is the pen tip or the eraser end.
type PointerKind int

const (
	PointerPen PointerKind = iota
	PointerEraser
)

// Event is one synthesized record delivered to hostio.EventSink.
type Event struct {
	Kind       EventKind
	Pointer    PointerKind
	Button     ClickKind
	ClickCount int
	X, Y       int32
	Proximity  ProximityDescriptor
}

// Synth keeps current/previous StylusState and the per-ClickKind
// button_state array, and emits the fixed six-step event sequence from
// spec.md §4.7 on every decoded packet.
type Synth struct {
	Current  StylusState
	Previous StylusState

	ButtonMapping ButtonMapping

	buttonState    [clickKindCount]bool
	oldButtonState [clickKindCount]bool
	dragState      bool
}

// New returns a Synth with the default button mapping and both states
// set to off-tablet, no buttons, per spec.md §3's lifecycle rule.
func New() *Synth {
	return &Synth{
		ButtonMapping: DefaultButtonMapping(),
		Current:       StylusState{OffTablet: true},
		Previous:      StylusState{OffTablet: true},
	}
}

// Panic resets Current to "off-tablet, no buttons" without emitting
// events, per spec.md §4.8's panic control command and §7's
// reset-on-panic recovery.
func (s *Synth) Panic() {
	s.Current = StylusState{OffTablet: true}
	s.Previous = StylusState{OffTablet: true}
	s.buttonState = [clickKindCount]bool{}
	s.oldButtonState = [clickKindCount]bool{}
	s.dragState = false
}

// pointerKind reports which end of the stylus Current describes.
func (s *Synth) pointerKind() PointerKind {
	if s.Current.Eraser || s.Current.EraserFlag {
		return PointerEraser
	}
	return PointerPen
}

// recomputeButtonState looks up each of the four stylus inputs in the
// current ButtonMapping and ORs matching inputs into each ClickKind's
// state, so two stylus inputs mapped to the same system button OR
// together correctly.
func (s *Synth) recomputeButtonState() {
	s.oldButtonState = s.buttonState
	s.buttonState = [clickKindCount]bool{}
	in := s.Current.inputs()
	for i, kind := range s.ButtonMapping {
		if kind == ClickNone {
			continue
		}
		if in[i] {
			s.buttonState[kind] = true
		}
	}
}

// Update recomputes button_state from Current and emits events in the
// fixed §4.7 order, then advances Previous <- Current. It must be
// called once per decoded packet, after the decoder has populated
// Synth.Current.
func (s *Synth) Update() []Event {
	s.recomputeButtonState()

	var out []Event

	changed := false

	// Step 1: proximity transition.
	if s.Current.OffTablet != s.Previous.OffTablet {
		changed = true
		if s.Current.OffTablet {
			out = append(out, Event{Kind: ProximityExit, Pointer: s.pointerKind(), Proximity: s.Current.Proximity})
		} else {
			out = append(out, Event{Kind: ProximityEnter, Pointer: s.pointerKind(), Proximity: s.Current.Proximity})
		}
	}

	// Step 2: double-click edge.
	if s.buttonState[ClickDoubleClick] && !s.oldButtonState[ClickDoubleClick] {
		changed = true
		out = append(out,
			Event{Kind: ButtonDown, Button: ClickSystemButton1, ClickCount: 2, X: s.Current.X, Y: s.Current.Y},
			Event{Kind: ButtonUp, Button: ClickSystemButton1, ClickCount: 2, X: s.Current.X, Y: s.Current.Y},
			Event{Kind: ButtonDown, Button: ClickSystemButton1, ClickCount: 2, X: s.Current.X, Y: s.Current.Y},
			Event{Kind: ButtonUp, Button: ClickSystemButton1, ClickCount: 2, X: s.Current.X, Y: s.Current.Y},
		)
	}

	// Step 3: single-click edge.
	if s.buttonState[ClickSingleClick] && !s.oldButtonState[ClickSingleClick] {
		changed = true
		out = append(out,
			Event{Kind: ButtonDown, Button: ClickSystemButton1, X: s.Current.X, Y: s.Current.Y},
			Event{Kind: ButtonUp, Button: ClickSystemButton1, X: s.Current.X, Y: s.Current.Y},
		)
	}

	// Step 4: click-or-release toggles an internal drag state.
	if s.oldButtonState[ClickOrRelease] && !s.buttonState[ClickOrRelease] {
		changed = true
		s.dragState = !s.dragState
		if s.dragState {
			out = append(out, Event{Kind: ButtonDown, Button: ClickSystemButton1, X: s.Current.X, Y: s.Current.Y})
		} else {
			out = append(out, Event{Kind: ButtonUp, Button: ClickSystemButton1, X: s.Current.X, Y: s.Current.Y})
		}
	}

	// Step 5: simple button edges, in the fixed order button-1, button-2,
	// eraser, button-3, button-4, button-5.
	order := []ClickKind{
		ClickSystemButton1, ClickSystemButton2, ClickEraser,
		ClickSystemButton3, ClickSystemButton4, ClickSystemButton5,
	}
	for _, kind := range order {
		if s.buttonState[kind] != s.oldButtonState[kind] {
			changed = true
			kind := kind
			ev := Event{Button: kind, X: s.Current.X, Y: s.Current.Y}
			if s.buttonState[kind] {
				ev.Kind = ButtonDown
			} else {
				ev.Kind = ButtonUp
			}
			out = append(out, ev)
		}
	}

	// Step 6: position change, only if nothing else fired this update.
	if !changed && (s.Current.X != s.Previous.X || s.Current.Y != s.Previous.Y) {
		ev := Event{Kind: Move, X: s.Current.X, Y: s.Current.Y}
		for _, kind := range order {
			if s.buttonState[kind] {
				ev.Kind = Dragged
				ev.Button = kind
				break
			}
		}
		out = append(out, ev)
	}

	s.Previous = s.Current
	return out
}
