// Package framer turns a raw byte stream from a SerialLink into framed
// units a decoder can consume: binary packets, ASCII data packets, and
// command replies (spec.md §4.3). It is grounded on the accumulate-until-
// complete idiom in kylelemons-goat's term_frame.go buffering, adapted
// here to byte framing instead of terminal cell framing, and on the
// source's ProcessSerialStream/ProcessPacket narrative for the framing
// rules themselves.
package framer

import "github.com/tabletmagic/daemon/dialect"

// Kind tags the three categories of framed unit the wire can carry.
type Kind int

const (
	BinaryPacket Kind = iota
	AsciiDataPacket
	CommandReply
)

func (k Kind) String() string {
	switch k {
	case BinaryPacket:
		return "BinaryPacket"
	case AsciiDataPacket:
		return "AsciiDataPacket"
	case CommandReply:
		return "CommandReply"
	default:
		return "?"
	}
}

// Frame is one complete framed unit, with Data holding exactly the bytes
// of the unit (terminators stripped for line-oriented kinds).
type Frame struct {
	Kind Kind
	Data []byte
}

// Params is a plain snapshot computed once per tick from *settings.Settings
// and the active dialect hypothesis; the REDESIGN FLAGS call for the
// framer to be parameterized explicitly rather than reaching into mutable
// global settings, so mode changes only take effect at a clean tick
// boundary instead of mid-packet.
type Params struct {
	PacketSize int
	Dialect    dialect.Dialect
}

// Framer accumulates bytes across Feed calls and yields complete Frames.
// It is not safe for concurrent use; Core serializes all access from the
// single tick loop.
type Framer struct {
	inBinary  bool
	binBuf    []byte
	lineBuf   []byte
	commas    int
	lastWasCR bool
}

// New returns an empty Framer.
func New() *Framer {
	return &Framer{}
}

// Reset discards any partially-accumulated frame. Core calls this on
// every setup/reinit command so a dialect or packet-size change never
// has to recover from a mid-packet switch heuristically (an explicit
// fix for the ambiguity the source's interleaved-recovery heuristic left
// open).
func (f *Framer) Reset() {
	f.inBinary = false
	f.binBuf = f.binBuf[:0]
	f.lineBuf = f.lineBuf[:0]
	f.commas = 0
	f.lastWasCR = false
}

// Feed consumes data under the given Params and returns every Frame that
// completed as a result, in wire order.
func (f *Framer) Feed(data []byte, p Params) []Frame {
	var out []Frame
	if p.Dialect == dialect.FujitsuP {
		return f.feedFujitsuP(data, &out)
	}
	for _, b := range data {
		f.feedByte(b, p, &out)
	}
	return out
}

func (f *Framer) feedByte(b byte, p Params, out *[]Frame) {
	if b&0x80 != 0 {
		// A high-bit byte always opens a new binary packet. Anything
		// already buffered is completed if it happened to already match
		// the expected length, else discarded.
		if f.inBinary && len(f.binBuf) == p.PacketSize {
			*out = append(*out, Frame{Kind: BinaryPacket, Data: clone(f.binBuf)})
		}
		f.inBinary = true
		f.binBuf = f.binBuf[:0]
		f.binBuf = append(f.binBuf, b)
		f.lineBuf = f.lineBuf[:0]
		f.commas = 0
		if len(f.binBuf) == p.PacketSize {
			*out = append(*out, Frame{Kind: BinaryPacket, Data: clone(f.binBuf)})
			f.inBinary = false
			f.binBuf = f.binBuf[:0]
		}
		return
	}

	if f.inBinary {
		f.binBuf = append(f.binBuf, b)
		if len(f.binBuf) == p.PacketSize {
			*out = append(*out, Frame{Kind: BinaryPacket, Data: clone(f.binBuf)})
			f.inBinary = false
			f.binBuf = f.binBuf[:0]
		}
		return
	}

	// Not in a binary packet: ASCII line accumulation.
	f.feedByteLine(b, p, out)
}

func (f *Framer) feedByteLine(b byte, p Params, out *[]Frame) {
	if p.Dialect == dialect.SD && b == ',' {
		f.lineBuf = append(f.lineBuf, b)
		f.commas++
		if f.commas == 3 {
			*out = append(*out, classifyLine(clone(f.lineBuf)))
			f.lineBuf = f.lineBuf[:0]
			f.commas = 0
		}
		return
	}

	switch b {
	case '\n':
		b = '\r'
		fallthrough
	case '\r':
		if f.lastWasCR {
			// \r\n, \n\r, \r\r collapse to the terminator already handled.
			f.lastWasCR = false
			return
		}
		f.lastWasCR = true
		if len(f.lineBuf) == 0 {
			// A leading \r (e.g. the collapsed half of \r\n) is ignored.
			return
		}
		*out = append(*out, classifyLine(clone(f.lineBuf)))
		f.lineBuf = f.lineBuf[:0]
		f.commas = 0
		return
	default:
		f.lastWasCR = false
		f.lineBuf = append(f.lineBuf, b)
	}
}

// classifyLine distinguishes Wacom II-S ASCII data packets (#,!,* lines)
// from every other textual line, which is treated as a command reply —
// this also covers CalComp and SD-series replies, which carry no '~'
// prefix at all.
func classifyLine(line []byte) Frame {
	if len(line) >= 2 && (line[0] == '#' || line[0] == '!' || line[0] == '*') && line[1] == ',' {
		return Frame{Kind: AsciiDataPacket, Data: line}
	}
	return Frame{Kind: CommandReply, Data: line}
}

// feedFujitsuP implements the Fujitsu-P variant's unrelated framing:
// bytes > 130 open a packet, subsequent bytes are data, packets are
// exactly 5 bytes long.
func (f *Framer) feedFujitsuP(data []byte, out *[]Frame) []Frame {
	const size = 5
	for _, b := range data {
		if b > 130 {
			if len(f.binBuf) == size {
				*out = append(*out, Frame{Kind: BinaryPacket, Data: clone(f.binBuf)})
			}
			f.binBuf = f.binBuf[:0]
			f.binBuf = append(f.binBuf, b)
			if len(f.binBuf) == size {
				*out = append(*out, Frame{Kind: BinaryPacket, Data: clone(f.binBuf)})
				f.binBuf = f.binBuf[:0]
			}
			continue
		}
		if len(f.binBuf) == 0 {
			continue
		}
		f.binBuf = append(f.binBuf, b)
		if len(f.binBuf) == size {
			*out = append(*out, Frame{Kind: BinaryPacket, Data: clone(f.binBuf)})
			f.binBuf = f.binBuf[:0]
		}
	}
	return *out
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
