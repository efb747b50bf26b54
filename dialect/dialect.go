// Package dialect defines the tagged union of wire protocols this daemon
// understands, replacing the source's per-tablet virtual-dispatch
// switches with one exhaustively-matched enum (spec.md §9).
package dialect

// Dialect identifies which byte-level packet format is in use on the
// wire.
type Dialect int

const (
	Unknown Dialect = iota
	WacomIISASCII
	WacomIISBinary
	WacomIV13
	WacomIV14
	WacomV
	TabletPC
	Graphire
	FujitsuP
	CalComp
	SD
)

func (d Dialect) String() string {
	switch d {
	case WacomIISASCII:
		return "WacomIIS-ASCII"
	case WacomIISBinary:
		return "WacomIIS-Binary"
	case WacomIV13:
		return "WacomIV-1.3"
	case WacomIV14:
		return "WacomIV-1.4"
	case WacomV:
		return "WacomV"
	case TabletPC:
		return "TabletPC"
	case Graphire:
		return "Graphire"
	case FujitsuP:
		return "FujitsuP"
	case CalComp:
		return "CalComp"
	case SD:
		return "SD"
	default:
		return "Unknown"
	}
}

// IsBinary reports whether packets for this dialect are high-bit-framed
// binary, as opposed to ASCII comma-separated lines.
func (d Dialect) IsBinary() bool {
	return d != WacomIISASCII && d != Unknown
}
