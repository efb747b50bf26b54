package identify

import (
	"testing"

	"github.com/tabletmagic/daemon/dialect"
	"github.com/tabletmagic/daemon/serialio"
	"github.com/tabletmagic/daemon/settings"
)

func TestLookupPrefixLongestWins(t *testing.T) {
	row, ok := LookupPrefix("CTE-440-R")
	if !ok || row.name != "Graphire 3" {
		t.Fatalf("expected Graphire 3 for CTE prefix, got %+v ok=%v", row, ok)
	}
	row, ok = LookupPrefix("CT-0045-R")
	if !ok || row.name != "PenPartner" {
		t.Fatalf("expected PenPartner for CT prefix, got %+v ok=%v", row, ok)
	}
}

func TestLookupPrefixUnknown(t *testing.T) {
	if _, ok := LookupPrefix("ZZZ-0000"); ok {
		t.Fatal("expected no match for an unknown model prefix")
	}
}

func TestSequenceLikelyTabletPCTriesTabletPCBaudsFirst(t *testing.T) {
	seq := sequence(Hint{LikelyTabletPC: true, Prefer38400: true})
	if len(seq) != 2 || !seq[0].tabletPC || seq[0].baud != settings.Baud38400 {
		t.Fatalf("expected 38400 TabletPC hypothesis first, got %+v", seq)
	}
}

func TestSequenceDefaultTriesLastBaudFirst(t *testing.T) {
	seq := sequence(Hint{LastBaud: settings.Baud19200})
	if len(seq) != 3 || seq[0].baud != settings.Baud19200 || seq[0].tabletPC {
		t.Fatalf("expected last-used baud (19200) first, got %+v", seq)
	}
	if seq[len(seq)-1].baud != settings.Baud9600 {
		t.Fatalf("expected a generic 9600 fallback last, got %+v", seq)
	}
}

// TestIdentifySucceedsAgainstSimulatedWacomReply exercises a successful
// probe end to end over a real PTY pair: the "tablet" side answers the
// "~#\r" identification query with a Graphire reply, and Identify must
// resolve the series, dialect and settings from it.
func TestIdentifySucceedsAgainstSimulatedWacomReply(t *testing.T) {
	master, slave, err := serialio.OpenPTY()
	if err != nil {
		t.Skipf("pty unavailable in this sandbox: %v", err)
	}
	defer master.Close()
	defer slave.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 64)
		n, err := master.ReadLine(buf, 500000)
		if err != nil || n == 0 {
			return
		}
		master.Write([]byte("~#ET-0405-R,V1.1-5\r"))
	}()

	res, err := Identify(slave, Hint{})
	<-done
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if res.SeriesName != "Graphire" {
		t.Fatalf("expected Graphire series, got %+v", res)
	}
	if res.Dialect != dialect.Graphire {
		t.Fatalf("expected Graphire dialect, got %v", res.Dialect)
	}
}

func TestIdentifyTimesOutWithNoReply(t *testing.T) {
	master, slave, err := serialio.OpenPTY()
	if err != nil {
		t.Skipf("pty unavailable in this sandbox: %v", err)
	}
	defer master.Close()
	defer slave.Close()

	_, err = Identify(slave, Hint{})
	if err != ErrProbeTimeout {
		t.Fatalf("expected ErrProbeTimeout, got %v", err)
	}
}

func TestParseIDReply(t *testing.T) {
	model, base, ok := parseIDReply("GD-0608-R00,V1.2-7")
	if !ok || model != "GD-0608-R00" || base != "1.2-7" {
		t.Fatalf("got model=%q base=%q ok=%v", model, base, ok)
	}
}

func TestParseScaleReply(t *testing.T) {
	x, y, ok := parseScaleReply("~C5080,3520")
	if !ok || x != 5080 || y != 3520 {
		t.Fatalf("got x=%d y=%d ok=%v", x, y, ok)
	}
}
