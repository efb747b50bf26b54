package core

import (
	"testing"

	"github.com/tabletmagic/daemon/dialect"
	"github.com/tabletmagic/daemon/eventsynth"
	"github.com/tabletmagic/daemon/hostio"
)

// recordingSink collects every event posted to it, for assertions
// without a real OS event sink.
type recordingSink struct {
	events []eventsynth.Event
}

func (r *recordingSink) Post(ev eventsynth.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func newTestCore() (*Core, *recordingSink) {
	sink := &recordingSink{}
	c := New(sink, hostio.NewFileStore(""))
	c.dialect = dialect.WacomIISASCII
	c.Start()
	return c, sink
}

func TestFeedProximityEnterThenButtonDownWithoutMove(t *testing.T) {
	c, sink := newTestCore()

	c.Feed([]byte("#,100,100,0\r"))
	if len(sink.events) != 1 || sink.events[0].Kind != eventsynth.ProximityEnter {
		t.Fatalf("expected a single ProximityEnter after the first packet, got %+v", sink.events)
	}

	sink.events = nil
	c.Feed([]byte("#,100,100,1\r"))
	foundDown := false
	for _, ev := range sink.events {
		if ev.Kind == eventsynth.ButtonDown {
			foundDown = true
		}
		if ev.Kind == eventsynth.Move {
			t.Fatalf("expected no Move event alongside a button edge, got %+v", sink.events)
		}
	}
	if !foundDown {
		t.Fatalf("expected a ButtonDown when the tip presses, got %+v", sink.events)
	}
}

func TestFeedDisabledCoreEmitsNothing(t *testing.T) {
	sink := &recordingSink{}
	c := New(sink, hostio.NewFileStore(""))
	c.dialect = dialect.WacomIISASCII
	// Not started: events should not reach the sink even though the
	// differ still runs internally.
	c.Feed([]byte("#,50,50,1\r"))
	if len(sink.events) != 0 {
		t.Fatalf("expected no events while disabled, got %+v", sink.events)
	}
}

func TestFeedUnknownDialectPacketIsIgnored(t *testing.T) {
	c, sink := newTestCore()
	c.dialect = dialect.Unknown
	c.Feed([]byte("#,100,100,1\r"))
	if len(sink.events) != 0 {
		t.Fatalf("expected no events for an unrecognized dialect, got %+v", sink.events)
	}
}

func TestFeedSyncsDecodeContextMouseMode(t *testing.T) {
	c, _ := newTestCore()
	c.mapper.MouseMode = true
	c.mapper.Tablet.Width, c.mapper.Tablet.Height = 100, 100

	c.Feed([]byte("#,500,500,0\r"))
	if c.decodeCtx.MouseMode != true {
		t.Fatal("expected Feed to sync decodeCtx.MouseMode from the mapper before decoding")
	}
}

func TestPanicResetsMapperAndSynth(t *testing.T) {
	c, _ := newTestCore()
	c.Feed([]byte("#,100,100,1\r"))
	c.Panic()
	if !c.Synth.Current.OffTablet {
		t.Fatalf("expected Panic to leave the stylus off-tablet, got %+v", c.Synth.Current)
	}
}

func TestQuitStopsRunLoop(t *testing.T) {
	c, _ := newTestCore()
	if c.quit {
		t.Fatal("expected quit to start false")
	}
	c.Quit()
	if !c.quit {
		t.Fatal("expected Quit to set the quit flag")
	}
}

func TestSetupImportsIntoActiveBank(t *testing.T) {
	c, _ := newTestCore()
	before := c.Active().SettingsString()
	if err := c.Setup(before); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if c.Active().SettingsString() != before {
		t.Fatalf("round-tripping the active setup string should not change it: got %q want %q",
			c.Active().SettingsString(), before)
	}
}

func TestSetGeomParsesAllFields(t *testing.T) {
	c, _ := newTestCore()
	if err := c.SetGeom("0 0 1000 2000 0 0 1920 1080 1 2.5"); err != nil {
		t.Fatalf("SetGeom: %v", err)
	}
	if !c.mapper.MouseMode {
		t.Fatal("expected mouse mode to be enabled")
	}
	if c.mapper.Scaling != 2.5 {
		t.Fatalf("expected scaling 2.5, got %v", c.mapper.Scaling)
	}
	if c.mapper.Tablet.Width != 1000 || c.mapper.Screen.Width != 1920 {
		t.Fatalf("expected tablet/screen rects to be parsed, got tablet=%+v screen=%+v", c.mapper.Tablet, c.mapper.Screen)
	}
}

func TestSetGeomRejectsShortInput(t *testing.T) {
	c, _ := newTestCore()
	if err := c.SetGeom("0 0 0"); err == nil {
		t.Fatal("expected an error for too few geom fields")
	}
}

func TestCountersStartAtZero(t *testing.T) {
	c, _ := newTestCore()
	b, p := c.Counters()
	if b != 0 || p != 0 {
		t.Fatalf("expected zero counters before any tick, got bytes=%d packets=%d", b, p)
	}
}
