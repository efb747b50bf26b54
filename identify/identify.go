// Package identify implements the port probe / identification state
// machine from spec.md §4.5: it tries (model hypothesis, baud) pairs
// against a serialio.Link until a tablet answers with a parseable ID
// string, decides the wire dialect, and drives the post-identification
// settings/scale/start handshake.
package identify

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tabletmagic/daemon/dialect"
	"github.com/tabletmagic/daemon/serialio"
	"github.com/tabletmagic/daemon/settings"
)

// ErrProbeTimeout is returned when every hypothesis in the sequence was
// tried without a parseable reply, per spec.md §7.
var ErrProbeTimeout = errors.New("identify: no tablet responded to any probe hypothesis")

const queryBudget = 100 * time.Millisecond

// prefixRow is one row of the fixed model-prefix table, grounded on
// original_source/common/Constants.h's kTabletModel* string constants
// and SerialDaemon.cpp's series_list[].
type prefixRow struct {
	prefix string
	name   string
	series settings.SeriesIndex
}

// table is ordered so that ties are broken by iterating in the order
// given here, but Lookup itself applies the longest-prefix rule
// explicitly so row order never matters for correctness.
var table = []prefixRow{
	{"XD", "Intuos 2", settings.ModelIntuos2},
	{"GD", "Intuos", settings.ModelIntuos},
	{"CTE", "Graphire 3", settings.ModelGraphire3},
	{"ETA", "Graphire 2", settings.ModelGraphire2},
	{"ET", "Graphire", settings.ModelGraphire},
	{"PL", "Cintiq", settings.ModelCintiq},
	{"PTU", "Cintiq Partner", settings.ModelCintiqPartner},
	{"UD", "ArtZ / ArtZ-II", settings.ModelArtZ},
	{"KT", "ArtPad", settings.ModelArtPad},
	{"CT", "PenPartner", settings.ModelPenPartner},
	{"SD", "SD Series", settings.ModelSDSeries},
	{"ISD", "TabletPC", settings.ModelTabletPC},
	{"Cal", "CalComp", settings.ModelCalComp},
}

// LookupPrefix finds the row matching rom as a prefix of the model
// code, resolving ambiguity (e.g. "CTE" vs "CT", "UD" vs "U") by
// longest-prefix-wins.
func LookupPrefix(model string) (prefixRow, bool) {
	best := prefixRow{}
	found := false
	for _, row := range table {
		if len(model) >= len(row.prefix) && model[:len(row.prefix)] == row.prefix {
			if !found || len(row.prefix) > len(best.prefix) {
				best = row
				found = true
			}
		}
	}
	return best, found
}

// Hint lets the caller bias the hypothesis sequence toward TabletPC
// without the core re-implementing OS-specific ACPI digitizer
// detection (spec.md §9's resolution of the "hackintosh" ambiguity).
type Hint struct {
	LikelyTabletPC bool
	Prefer38400    bool
	LastBaud       settings.BaudRate
}

// Result is everything the probe learned about the attached tablet.
type Result struct {
	Series       settings.SeriesIndex
	SeriesName   string
	Dialect      dialect.Dialect
	ROMString    string
	BaseVersion  string
	Settings     *settings.Settings
	XScale       int32
	YScale       int32
}

// hypothesis is one (command set shape, baud) pair to try.
type hypothesis struct {
	baud      settings.BaudRate
	tabletPC  bool
}

// sequence builds the ordered list of hypotheses to try, per spec.md
// §4.5: a "likely TabletPC" hint tries only the two TabletPC bauds,
// the preferred one first; otherwise
// the last-used baud is tried first, then the other of {9600, 19200}.
func sequence(h Hint) []hypothesis {
	if h.LikelyTabletPC {
		if h.Prefer38400 {
			return []hypothesis{{settings.Baud38400, true}, {settings.Baud19200, true}}
		}
		return []hypothesis{{settings.Baud19200, true}, {settings.Baud38400, true}}
	}
	last := h.LastBaud
	if last == 0 {
		last = settings.Baud9600
	}
	other := settings.Baud19200
	if last == settings.Baud19200 {
		other = settings.Baud9600
	}
	return []hypothesis{
		{last, false},
		{other, false},
		{settings.Baud9600, false}, // generic SD fallback
	}
}

// Identify runs the probe state machine to completion on link, trying
// each hypothesis in turn until a tablet answers, or returns
// ErrProbeTimeout.
func Identify(link *serialio.Link, h Hint) (*Result, error) {
	for _, hy := range sequence(h) {
		s := settings.Default()
		s.BaudRate = hy.baud
		if err := link.Apply(s); err != nil {
			continue
		}

		if hy.tabletPC {
			if res, ok := probeTabletPC(link); ok {
				return res, nil
			}
			continue
		}
		if res, ok := probeWacom(link); ok {
			return res, nil
		}
	}
	return nil, ErrProbeTimeout
}

// probeWacom sends "~#\r" and parses a "~#model Vbase" reply.
func probeWacom(link *serialio.Link) (*Result, bool) {
	link.Write([]byte("~#\r"))
	buf := make([]byte, 64)
	n, err := link.ReadLine(buf, int(queryBudget/time.Microsecond))
	if err != nil || n == 0 {
		return nil, false
	}
	line := bytes.TrimRight(buf[:n], "\r\n")
	if !bytes.HasPrefix(line, []byte("~#")) {
		return nil, false
	}
	model, base, ok := parseIDReply(string(line[2:]))
	if !ok {
		return nil, false
	}
	row, found := LookupPrefix(model)
	if !found {
		return nil, false
	}
	res := &Result{
		Series:      row.series,
		SeriesName:  row.name,
		ROMString:   model,
		BaseVersion: base,
	}
	res.Dialect, res.Settings = dialectFor(row.series, base)
	return res, true
}

// parseIDReply parses "model V1.2-7" (or similar) into model code and
// base version string.
func parseIDReply(s string) (model, base string, ok bool) {
	idx := bytes.IndexByte([]byte(s), 'V')
	if idx < 0 {
		return "", "", false
	}
	model = s[:idx]
	// strip any trailing comma-joined junk on the model code itself.
	if c := bytes.IndexByte([]byte(model), ','); c >= 0 {
		model = model[:c]
	}
	base = s[idx+1:]
	if model == "" {
		return "", "", false
	}
	return model, base, true
}

// probeTabletPC sends "*" and checks for an 11-byte query reply.
func probeTabletPC(link *serialio.Link) (*Result, bool) {
	link.Write([]byte("*"))
	buf := make([]byte, 11)
	n := 0
	deadline := time.Now().Add(queryBudget)
	for n < 11 && time.Now().Before(deadline) {
		remaining := time.Until(deadline)
		ready, err := link.Select(int(remaining / time.Microsecond))
		if err != nil || !ready {
			break
		}
		m, err := link.Read(buf[n:])
		if err != nil {
			break
		}
		n += m
	}
	if n != 11 || buf[0]&0x80 == 0 {
		return nil, false
	}
	s := settings.InitTabletPC(false)
	return &Result{
		Series:     settings.ModelTabletPC,
		SeriesName: "TabletPC",
		Dialect:    dialect.TabletPC,
		Settings:   s,
	}, true
}

// dialectFor maps a detected series and ROM base version to a wire
// dialect and a starting Settings value, applying the model-specific
// defaults spec.md §4.5 calls for (SD gets binary+INC=0, with no
// pressure-mode setting,
// PenPartner gets its hardcoded preset, Intuos gets synthetic Wacom V
// settings, …).
func dialectFor(series settings.SeriesIndex, base string) (dialect.Dialect, *settings.Settings) {
	switch series {
	case settings.ModelSDSeries:
		return dialect.SD, settings.InitSD()
	case settings.ModelPenPartner:
		return dialect.WacomIISBinary, settings.InitPenPartner()
	case settings.ModelCintiq, settings.ModelPLSeries:
		return dialect.WacomIV14, settings.InitPL()
	case settings.ModelIntuos, settings.ModelIntuos2:
		return dialect.WacomV, settings.InitIntuos()
	case settings.ModelGraphire, settings.ModelGraphire2, settings.ModelGraphire3:
		s := settings.Default()
		s.CommandSet = settings.CommandSetWacomIV
		s.Tilt = false
		return dialect.Graphire, s
	case settings.ModelCalComp:
		return dialect.CalComp, settings.InitCalComp()
	case settings.ModelArtZ, settings.ModelArtPad, settings.ModelUDSeries:
		if base >= "1.4" {
			s := settings.Default()
			s.CommandSet = settings.CommandSetWacomIV
			s.Tilt = true
			return dialect.WacomIV14, s
		}
		s := settings.Default()
		s.CommandSet = settings.CommandSetWacomIV
		return dialect.WacomIV13, s
	default:
		return dialect.WacomIISBinary, settings.Default()
	}
}

// CompleteHandshake runs the post-identification sequence in spec.md
// §4.5: request settings with "~R\r", ask for the coordinate range
// with "~C\r" to learn xscale/yscale, then start streaming.
func CompleteHandshake(link *serialio.Link, res *Result) error {
	if res.Dialect == dialect.TabletPC {
		if _, err := link.Write([]byte("1\r")); err != nil {
			return err
		}
		return nil
	}

	link.Write([]byte("~R\r"))
	buf := make([]byte, 64)
	n, _ := link.ReadLine(buf, int(queryBudget/time.Microsecond))
	if n > 0 {
		line := string(bytes.TrimRight(buf[:n], "\r\n"))
		if s := settings.Default(); s.Import(line) == nil {
			res.Settings = s
		}
	}

	link.Write([]byte("~C\r"))
	n, _ = link.ReadLine(buf, int(queryBudget/time.Microsecond))
	if n > 0 {
		x, y, ok := parseScaleReply(string(bytes.TrimRight(buf[:n], "\r\n")))
		if ok {
			res.XScale, res.YScale = x, y
			res.Settings.XScale, res.Settings.YScale = x, y
		}
	}

	_, err := link.Write([]byte("ST\r"))
	return err
}

// parseScaleReply parses a "~Cxxxx,yyyy" coordinate-range reply.
func parseScaleReply(s string) (int32, int32, bool) {
	s = trimPrefix(s, "~C")
	var x, y int
	if _, err := fmt.Sscanf(s, "%d,%d", &x, &y); err != nil {
		return 0, 0, false
	}
	return int32(x), int32(y), true
}

func trimPrefix(s, p string) string {
	if len(s) >= len(p) && s[:len(p)] == p {
		return s[len(p):]
	}
	return s
}

// SortedModelNames returns every known model name, sorted
// alphabetically.
func SortedModelNames() []string {
	names := make([]string, 0, len(table))
	for _, r := range table {
		names = append(names, r.name)
	}
	sort.Strings(names)
	return names
}
