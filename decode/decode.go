// Package decode implements one pure decoder per wire dialect, each
// translating a framed packet (see package framer) into a StylusDelta.
// Bit masks are grounded on original_source/common/Constants.h's
// per-dialect #define blocks; where that header stops short of giving
// the exact combination arithmetic for a field (the source's
// ParsePacket-equivalent logic was not present in the reference
// material), the combination used here is this package's own
// interpretation, called out in DESIGN.md.
package decode

import (
	"github.com/tabletmagic/daemon/dialect"
	"github.com/tabletmagic/daemon/settings"
)

// ToolType identifies the transducer family a Wacom V/Graphire tool-ID
// packet describes.
type ToolType int

const (
	ToolNone ToolType = iota
	ToolPen
	ToolPencil
	ToolBrush
	ToolEraser
	ToolAirbrush
	ToolMouse2D
	ToolMouse4D
	ToolLens
)

// Context carries everything a decoder needs beyond the packet bytes
// themselves: the active settings (for mode-dependent field widths and
// scales) and small pieces of state that persist across packets
// (eraser latch, SD pressure hysteresis, ASCII relative-mode
// accumulation).
type Context struct {
	Settings *settings.Settings
	Dialect  dialect.Dialect

	// EraserLatched remembers that the ambiguous secondary-barrel bit
	// was interpreted as eraser at the most recent proximity-enter; it
	// persists until proximity is lost, per spec.md §4.4.
	EraserLatched bool
	WasInProx     bool

	// PrevSDPressureRaw is the previous raw pressure code seen
	// on an SD-series tablet, needed for the 0x22→0x00 hysteresis quirk.
	PrevSDPressureRaw byte
	HaveSDPressure    bool

	// RelX/RelY accumulate the running tablet point for Wacom II-S
	// ASCII relative-coordinate mode.
	RelX, RelY int32

	// LastToolType remembers the most recent Wacom V tool-identification
	// packet's tool type, needed to disambiguate later mouse-position
	// packets (2D vs 4D vs lens all share byte layout, differing only in
	// which stylus was announced).
	LastToolType ToolType

	// OldPressureEncoding selects the decoder's older signed-7-bit
	// pressure field (Wacom IV ROM base versions below 1.2) instead of
	// the composite encoding later ROMs use. It defaults to false; core
	// does not set it from the probed base version.
	OldPressureEncoding bool

	// MouseMode mirrors mapping.Mapper.MouseMode, the runtime
	// mouse-mode flag toggled by the "mmode" control command — not to
	// be confused with Settings.MMComm, the wire MU0/MU1 setup-word
	// bit. The Wacom II-S ASCII decoder's absolute-mode clamp is gated
	// on this, per spec.md §4.4/§4.6.
	MouseMode bool
}

// StylusDelta is everything one decoded packet can report. Not every
// field is populated by every dialect; the Has* flags say which are.
type StylusDelta struct {
	HasPosition bool
	X, Y        int32

	HasPressure bool
	Pressure    uint16

	HasTilt      bool
	TiltX, TiltY int16

	HasButtons               bool
	Tip, Side1, Side2, Eraser bool

	HasProximity bool
	Proximity    bool
	EraserFlag   bool

	HasToolInfo bool
	ToolType    ToolType
	ToolID      uint16
	Serial      uint64

	HasRotation bool
	Rotation    int16
	HasWheel    bool
	Wheel       int16
	HasThrottle bool
	Throttle    int16

	// IsQueryReply marks a TabletPC 11-byte query reply; MaxX/MaxY and
	// firmware fields are only meaningful when this is set.
	IsQueryReply               bool
	MaxX, MaxY                 int32
	FirmwareMajor, FirmwareMinor int
}

// Decoder is the pure-function contract every dialect decoder satisfies.
type Decoder func(data []byte, ctx *Context) (StylusDelta, error)

// For dispatches to the correct decoder for ctx.Dialect.
func For(d dialect.Dialect) Decoder {
	switch d {
	case dialect.WacomIISBinary:
		return WacomIISBinary
	case dialect.SD:
		return WacomIISBinarySD
	case dialect.WacomIISASCII:
		return WacomIISASCII
	case dialect.WacomIV13, dialect.WacomIV14:
		return WacomIV
	case dialect.WacomV:
		return WacomV
	case dialect.TabletPC:
		return TabletPC
	case dialect.Graphire:
		return Graphire
	case dialect.FujitsuP:
		return FujitsuP
	case dialect.CalComp:
		return CalComp
	default:
		return nil
	}
}

// updateEraserLatch applies the spec.md §4.4 rule shared by every
// dialect whose secondary-barrel bit is ambiguous between "second side
// button" and "eraser": the bit is read as eraser only at the instant
// proximity is (re)gained, and that reading is then latched until
// proximity is lost again.
func updateEraserLatch(ctx *Context, inProx bool, secondaryBarrelBit bool) bool {
	justEntered := inProx && !ctx.WasInProx
	if !inProx {
		ctx.EraserLatched = false
	} else if justEntered {
		ctx.EraserLatched = secondaryBarrelBit
	}
	ctx.WasInProx = inProx
	return ctx.EraserLatched
}

// scalePressure7 maps a 0..127 raw pressure reading to the 0..65535
// range used throughout StylusDelta, per the II-S binary formula in
// spec.md §4.4: (raw-34)*scale/60, clipped at zero.
func scalePressure7(raw int) uint16 {
	v := (raw - 34) * 65535 / 60
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}

func scaleN(raw, maxRaw int) uint16 {
	if raw < 0 {
		raw = 0
	}
	v := raw * 65535 / maxRaw
	if v > 65535 {
		v = 65535
	}
	return uint16(v)
}

func clipUint16(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}

// decodeSignedTilt7 reads a 6-bit magnitude plus a separate sign bit
// (the Wacom IV 1.4 tilt encoding, spec.md §4.4) and scales it to a
// 16-bit signed range.
func decodeSignedTilt7(b byte, magMask, signMask byte) int16 {
	mag := int32(b & magMask)
	if b&signMask != 0 {
		mag = -mag
	}
	return int16(mag * 32767 / int32(magMask))
}
