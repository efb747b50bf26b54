// Package settings implements the tablet's packed 32-bit setup word: the
// single configuration record that parameterizes the serial link, the
// framer, and every decoder.
//
// Field widths and bit offsets follow the Wacom "~*" setup-string layout as
// used by the original TabletMagic daemon (see DESIGN.md). Several field
// values are "synthetic" — they describe states a tablet is forced into
// (e.g. WacomV, TabletPC, 38400 baud) that do not fit the original vendor
// encoding; those are documented per-field below.
package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// CommandSet identifies the wire dialect a tablet speaks.
type CommandSet uint8

const (
	CommandSetBitpadII CommandSet = iota
	CommandSetMM1201
	CommandSetWacomIIS
	CommandSetWacomIV
	CommandSetWacomV  // synthetic: looks like BitpadII to the setup word
	CommandSetTabletPC // synthetic: looks like MM1201 to the setup word
)

// BaudRate is the negotiated line speed.
type BaudRate uint8

const (
	Baud2400 BaudRate = iota
	Baud4800
	Baud9600
	Baud19200
	Baud38400 // synthetic: looks like 2400 to the setup word
)

// Speed returns the bits-per-second value for the baud rate.
func (b BaudRate) Speed() int {
	switch b {
	case Baud2400:
		return 2400
	case Baud4800:
		return 4800
	case Baud9600:
		return 9600
	case Baud19200:
		return 19200
	case Baud38400:
		return 38400
	default:
		return 9600
	}
}

// Parity is the line parity mode.
type Parity uint8

const (
	ParityNone  Parity = iota
	ParityNone2        // duplicate "none" encoding, present in the original bitfield
	ParityOdd
	ParityEven
)

// DataBits is the word size: CommandSet kDataBits7/8.
type DataBits uint8

const (
	DataBits7 DataBits = iota
	DataBits8
)

// StopBits selects one or two stop bits.
type StopBits uint8

const (
	StopBits1 StopBits = iota
	StopBits2
)

// TransferMode controls how eagerly the tablet reports samples.
type TransferMode uint8

const (
	TransferSuppressed TransferMode = iota
	TransferPoint
	TransferSwitchStream
	TransferStream
)

// OutputFormat selects binary or ASCII packet encoding.
type OutputFormat uint8

const (
	OutputBinary OutputFormat = iota
	OutputASCII
)

// CoordSys selects absolute or relative coordinate reporting.
type CoordSys uint8

const (
	CoordAbsolute CoordSys = iota
	CoordRelative
)

// TransferRate is the reporting rate in packets per second.
type TransferRate uint8

const (
	Rate50pps TransferRate = iota
	Rate67pps
	Rate100pps
	RateMAX
	Rate200pps // synthetic
)

// Resolution is the tablet's native resolution in lines per inch.
type Resolution uint8

const (
	Res500lpi Resolution = iota
	Res508lpi
	Res1000lpi
	Res1270lpi
	Res2540lpi // synthetic
)

// LPI returns the lines-per-inch value of the resolution setting.
func (r Resolution) LPI() int {
	switch r {
	case Res500lpi:
		return 500
	case Res508lpi:
		return 508
	case Res1000lpi:
		return 1000
	case Res1270lpi:
		return 1270
	case Res2540lpi:
		return 2540
	default:
		return 1270
	}
}

// Origin selects which corner of the tablet is (0,0).
type Origin uint8

const (
	OriginUpperLeft Origin = iota
	OriginLowerLeft
)

// Terminator selects the line terminator used for ASCII/command replies.
type Terminator uint8

const (
	TerminatorCR Terminator = iota
	TerminatorLF
	TerminatorCRLF
	TerminatorCRLF2
)

// SeriesIndex identifies the detected tablet model family.
type SeriesIndex uint8

const (
	ModelUnknown SeriesIndex = iota
	ModelIntuos2
	ModelIntuos
	ModelGraphire3
	ModelGraphire2
	ModelGraphire
	ModelCintiq
	ModelCintiqPartner
	ModelArtZ
	ModelArtPad
	ModelPenPartner
	ModelSDSeries
	ModelTabletPC
	ModelFujitsuP
	ModelCalComp
	ModelPLSeries
	ModelUDSeries
)

// Settings is the decoded form of the 32-bit setup word, plus the four
// trailing integers and the derived coordinate scale.
type Settings struct {
	CommandSet   CommandSet
	BaudRate     BaudRate
	Parity       Parity
	DataBits     DataBits
	StopBits     StopBits
	CTS          bool
	DSR          bool
	TransferMode TransferMode
	OutputFormat OutputFormat
	CoordSys     CoordSys
	TransferRate TransferRate
	Resolution   Resolution
	Origin       Origin
	OORData      bool
	Terminator   Terminator
	PNP          bool
	Sensitivity  bool
	ReadHeight   bool
	MDM          bool
	Tilt         bool
	MMComm       bool
	Orientation  bool
	CursorData   bool
	RemoteMode   bool

	Increment int
	Interval  int
	XRez      int
	YRez      int

	XScale int32
	YScale int32
}

// Default returns the tablet-agnostic power-on default: 9600 baud, 8N1,
// Wacom II-S binary streaming.
func Default() *Settings {
	return &Settings{
		CommandSet:   CommandSetWacomIIS,
		BaudRate:     Baud9600,
		Parity:       ParityNone,
		DataBits:     DataBits8,
		StopBits:     StopBits1,
		TransferMode: TransferStream,
		OutputFormat: OutputBinary,
		CoordSys:     CoordAbsolute,
		TransferRate: RateMAX,
		Resolution:   Res1270lpi,
		Origin:       OriginUpperLeft,
		Terminator:   TerminatorCR,
		XScale:       15240,
		YScale:       15240,
	}
}

// PacketSize returns the number of bytes a single binary packet occupies
// for this settings configuration. It is a pure function of
// (command_set, output_format, tilt), per spec.
func (s *Settings) PacketSize() int {
	switch s.CommandSet {
	case CommandSetWacomV, CommandSetTabletPC:
		return 9
	case CommandSetWacomIV:
		if s.Tilt {
			return 9
		}
		return 7
	default:
		return 7
	}
}

// bit packs a single-bit boolean field.
func bit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Pack encodes the settings into the 32-bit setup word.
func (s *Settings) Pack() uint32 {
	var w uint32
	w |= uint32(s.CommandSet) << 30
	w |= uint32(s.BaudRate&0x3) << 28
	w |= uint32(s.Parity) << 26
	w |= uint32(s.DataBits) << 25
	w |= uint32(s.StopBits) << 24
	w |= bit(s.CTS) << 23
	w |= bit(s.DSR) << 22
	w |= uint32(s.TransferMode) << 20
	w |= uint32(s.OutputFormat) << 19
	w |= uint32(s.CoordSys) << 18
	w |= uint32(s.TransferRate&0x3) << 16
	w |= uint32(s.Resolution&0x3) << 14
	w |= uint32(s.Origin) << 13
	w |= bit(s.OORData) << 12
	w |= uint32(s.Terminator) << 10
	// bit 9 reserved
	w |= bit(s.PNP) << 8
	w |= bit(s.Sensitivity) << 7
	w |= bit(s.ReadHeight) << 6
	w |= bit(s.MDM) << 5
	w |= bit(s.Tilt) << 4
	w |= bit(s.MMComm) << 3
	w |= bit(s.Orientation) << 2
	w |= bit(s.CursorData) << 1
	w |= bit(s.RemoteMode)
	return w
}

// Unpack decodes the 32-bit setup word into s, ignoring reserved bit 9.
func (s *Settings) Unpack(w uint32) {
	s.CommandSet = CommandSet((w >> 30) & 0x3)
	s.BaudRate = BaudRate((w >> 28) & 0x3)
	s.Parity = Parity((w >> 26) & 0x3)
	s.DataBits = DataBits((w >> 25) & 0x1)
	s.StopBits = StopBits((w >> 24) & 0x1)
	s.CTS = (w>>23)&0x1 != 0
	s.DSR = (w>>22)&0x1 != 0
	s.TransferMode = TransferMode((w >> 20) & 0x3)
	s.OutputFormat = OutputFormat((w >> 19) & 0x1)
	s.CoordSys = CoordSys((w >> 18) & 0x1)
	s.TransferRate = TransferRate((w >> 16) & 0x3)
	s.Resolution = Resolution((w >> 14) & 0x3)
	s.Origin = Origin((w >> 13) & 0x1)
	s.OORData = (w>>12)&0x1 != 0
	s.Terminator = Terminator((w >> 10) & 0x3)
	s.PNP = (w>>8)&0x1 != 0
	s.Sensitivity = (w>>7)&0x1 != 0
	s.ReadHeight = (w>>6)&0x1 != 0
	s.MDM = (w>>5)&0x1 != 0
	s.Tilt = (w>>4)&0x1 != 0
	s.MMComm = (w>>3)&0x1 != 0
	s.Orientation = (w>>2)&0x1 != 0
	s.CursorData = (w>>1)&0x1 != 0
	s.RemoteMode = w&0x1 != 0
}

// ErrBadImport is returned when a setup string cannot be parsed.
type ErrBadImport struct {
	Input string
	Cause error
}

func (e *ErrBadImport) Error() string {
	return fmt.Sprintf("settings: bad setup string %q: %v", e.Input, e.Cause)
}

func (e *ErrBadImport) Unwrap() error { return e.Cause }

// Import parses a setup string of the form
// "<8 hex digits>,<inc>,<int>,<xrez>,<yrez>", optionally prefixed with
// "~R" or "~Wn". On failure the receiver is left unmodified.
func (s *Settings) Import(state string) error {
	body := strings.TrimSpace(state)
	body = strings.TrimPrefix(body, "~R")
	if strings.HasPrefix(body, "~W") && len(body) > 2 {
		body = body[3:]
	}
	parts := strings.Split(body, ",")
	if len(parts) != 5 {
		return &ErrBadImport{Input: state, Cause: fmt.Errorf("expected 5 comma-separated fields, got %d", len(parts))}
	}
	word, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 16, 32)
	if err != nil || len(strings.TrimSpace(parts[0])) != 8 {
		return &ErrBadImport{Input: state, Cause: fmt.Errorf("invalid hex word %q", parts[0])}
	}
	ints := make([]int, 4)
	for i, p := range parts[1:] {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return &ErrBadImport{Input: state, Cause: fmt.Errorf("invalid integer field %q", p)}
		}
		ints[i] = v
	}
	s.Unpack(uint32(word))
	s.Increment, s.Interval, s.XRez, s.YRez = ints[0], ints[1], ints[2], ints[3]
	return nil
}

// SettingsString renders the setup word back to its wire form. Round
// tripping Import then SettingsString reproduces the imported string
// up to hex-digit case.
func (s *Settings) SettingsString() string {
	return fmt.Sprintf("%08X,%03d,%02d,%d,%d", s.Pack(), s.Increment, s.Interval, s.XRez, s.YRez)
}

// --- Named presets for tablets that don't answer the settings query ---

// InitSD configures settings for an SD-series tablet: binary output,
// no increment/interval reporting. Pressure mode is not part of the
// setup word and is not set here.
func InitSD() *Settings {
	s := Default()
	s.CommandSet = CommandSetWacomIIS
	s.OutputFormat = OutputBinary
	s.Increment = 0
	s.Interval = 0
	s.XScale, s.YScale = 6096, 6096
	return s
}

// InitPL configures settings for a Cintiq PL-series tablet.
func InitPL() *Settings {
	s := Default()
	s.CommandSet = CommandSetWacomIV
	s.Tilt = false
	s.XScale, s.YScale = 15240, 11430
	return s
}

// InitPenPartner configures settings for a PenPartner (CT) tablet.
func InitPenPartner() *Settings {
	s := Default()
	s.CommandSet = CommandSetWacomIIS
	s.BaudRate = Baud9600
	s.XScale, s.YScale = 5103, 3711
	return s
}

// InitTabletPC configures settings for a TabletPC ISD-V4 digitizer.
// use38400 selects the higher synthetic baud rate some devices require.
func InitTabletPC(use38400 bool) *Settings {
	s := Default()
	s.CommandSet = CommandSetTabletPC
	if use38400 {
		s.BaudRate = Baud38400
	} else {
		s.BaudRate = Baud19200
	}
	s.Tilt = false
	s.XScale, s.YScale = 3000, 3000
	return s
}

// InitIntuos configures synthetic Wacom V settings for an Intuos-family
// tablet that was identified but does not answer ~R with a plain II-S/IV
// setup word.
func InitIntuos() *Settings {
	s := Default()
	s.CommandSet = CommandSetWacomV
	s.BaudRate = Baud19200
	s.Tilt = true
	s.XScale, s.YScale = 20320, 16240
	return s
}

// InitCalComp configures settings for a CalComp tablet.
func InitCalComp() *Settings {
	s := Default()
	s.CommandSet = CommandSetBitpadII
	s.BaudRate = Baud9600
	s.XScale, s.YScale = 12700, 12700
	return s
}

// StylusInputName names one of the four physical stylus inputs.
func StylusInputName(i int) string {
	names := []string{"Tip", "Button 1", "Button 2", "Eraser"}
	if i < 0 || i >= len(names) {
		return "Unknown"
	}
	return names[i]
}

// ButtonName names a system-level click-kind mapping target.
func ButtonName(i int) string {
	names := []string{
		"Disabled", "Left Button", "Right Button", "The Eraser",
		"Doubleclick", "Single Click", "Control Click", "Click-Hold",
		"Button 3", "Button 4", "Button 5",
	}
	if i < 0 || i >= len(names) {
		return "Unknown"
	}
	return names[i]
}

// Description renders a multi-line, human-readable dump of every field,
// column-aligned with rune-width awareness so non-ASCII model/ROM
// strings supplied by the caller still line up.
func (s *Settings) Description() string {
	rows := [][2]string{
		{"command_set", fmt.Sprintf("%d", s.CommandSet)},
		{"baud_rate", fmt.Sprintf("%d", s.BaudRate.Speed())},
		{"parity", fmt.Sprintf("%d", s.Parity)},
		{"data_bits", fmt.Sprintf("%d", 7+int(s.DataBits))},
		{"stop_bits", fmt.Sprintf("%d", 1+int(s.StopBits))},
		{"cts", fmt.Sprintf("%v", s.CTS)},
		{"dsr", fmt.Sprintf("%v", s.DSR)},
		{"transfer_mode", fmt.Sprintf("%d", s.TransferMode)},
		{"output_format", fmt.Sprintf("%d", s.OutputFormat)},
		{"coordsys", fmt.Sprintf("%d", s.CoordSys)},
		{"transfer_rate", fmt.Sprintf("%d", s.TransferRate)},
		{"resolution", fmt.Sprintf("%d lpi", s.Resolution.LPI())},
		{"origin", fmt.Sprintf("%d", s.Origin)},
		{"oor_data", fmt.Sprintf("%v", s.OORData)},
		{"terminator", fmt.Sprintf("%d", s.Terminator)},
		{"pnp", fmt.Sprintf("%v", s.PNP)},
		{"sensitivity", fmt.Sprintf("%v", s.Sensitivity)},
		{"read_height", fmt.Sprintf("%v", s.ReadHeight)},
		{"mdm", fmt.Sprintf("%v", s.MDM)},
		{"tilt", fmt.Sprintf("%v", s.Tilt)},
		{"mm_comm", fmt.Sprintf("%v", s.MMComm)},
		{"orientation", fmt.Sprintf("%v", s.Orientation)},
		{"cursor_data", fmt.Sprintf("%v", s.CursorData)},
		{"remote_mode", fmt.Sprintf("%v", s.RemoteMode)},
		{"increment", fmt.Sprintf("%d", s.Increment)},
		{"interval", fmt.Sprintf("%d", s.Interval)},
		{"xrez", fmt.Sprintf("%d", s.XRez)},
		{"yrez", fmt.Sprintf("%d", s.YRez)},
		{"xscale", fmt.Sprintf("%d", s.XScale)},
		{"yscale", fmt.Sprintf("%d", s.YScale)},
	}

	nameWidth := 0
	for _, r := range rows {
		if w := runewidth.StringWidth(r[0]); w > nameWidth {
			nameWidth = w
		}
	}

	var b strings.Builder
	for _, r := range rows {
		pad := nameWidth - runewidth.StringWidth(r[0])
		b.WriteString(r[0])
		b.WriteString(strings.Repeat(" ", pad+2))
		b.WriteString(r[1])
		b.WriteByte('\n')
	}
	return b.String()
}

// Bank identifies which of the three stored setup words (0 active, 1
// and 2 recalled Wacom-IV memory-bank presets) a Settings value belongs
// to.
type Bank int

const (
	BankActive Bank = iota
	BankMemory1
	BankMemory2
)

func (b Bank) String() string {
	switch b {
	case BankActive:
		return "active"
	case BankMemory1:
		return "memory1"
	case BankMemory2:
		return "memory2"
	default:
		return "unknown"
	}
}
