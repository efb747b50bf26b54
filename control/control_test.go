package control

import "testing"

// fakeHost is a minimal, in-memory control.Host used to test Plane's
// dispatch table without a real Core.
type fakeHost struct {
	info       string
	active     bool
	infoOK     bool
	model      string
	modelOK    bool
	scaleX     int32
	scaleY     int32
	geom       string
	port       string
	setupErr   error
	lastSetup  string
	mem1, mem2 string
	scaleCalls [][2]int
	geomCalls  []string
	mouseMode  bool
	mouseScale float64
	streaming  bool
	rawPacket  string
	rawOK      bool
	lastCmd    string
	lastReq    string
	reqReply   string
	reqErr     error
	setPort    string
	reinit     string
	started    bool
	stopped    bool
	tabletPC   bool
	panicked   bool
	quit       bool
}

func (f *fakeHost) Info(bank int) (string, bool, bool) { return f.info, f.active, f.infoOK }
func (f *fakeHost) Model() (string, bool)              { return f.model, f.modelOK }
func (f *fakeHost) Scale() (int32, int32)               { return f.scaleX, f.scaleY }
func (f *fakeHost) Geom() string                        { return f.geom }
func (f *fakeHost) Port() string                         { return f.port }
func (f *fakeHost) Setup(setup string) error {
	f.lastSetup = setup
	return f.setupErr
}
func (f *fakeHost) SetMem(bank int, setup string) error {
	if bank == 1 {
		f.mem1 = setup
	} else {
		f.mem2 = setup
	}
	return nil
}
func (f *fakeHost) SetScale(x, y int) error {
	f.scaleCalls = append(f.scaleCalls, [2]int{x, y})
	return nil
}
func (f *fakeHost) SetGeom(raw string) error {
	f.geomCalls = append(f.geomCalls, raw)
	return nil
}
func (f *fakeHost) SetMouseMode(mm bool, scale float64) error {
	f.mouseMode, f.mouseScale = mm, scale
	return nil
}
func (f *fakeHost) StreamOn()  { f.streaming = true }
func (f *fakeHost) StreamOff() { f.streaming = false }
func (f *fakeHost) StreamSnapshot() (string, bool) { return f.rawPacket, f.rawOK }
func (f *fakeHost) SendCommand(raw string) error {
	f.lastCmd = raw
	return nil
}
func (f *fakeHost) SendRequest(raw string) (string, error) {
	f.lastReq = raw
	return f.reqReply, f.reqErr
}
func (f *fakeHost) SetPort(name string) error {
	f.setPort = name
	return nil
}
func (f *fakeHost) Reinit(setup string) error {
	f.reinit = setup
	return nil
}
func (f *fakeHost) Start() { f.started = true }
func (f *fakeHost) Stop()  { f.stopped = true }
func (f *fakeHost) SetTabletPC(force bool) error {
	f.tabletPC = force
	return nil
}
func (f *fakeHost) Panic() { f.panicked = true }
func (f *fakeHost) Quit()  { f.quit = true }

func TestDispatchUnknownCommand(t *testing.T) {
	p := New(&fakeHost{})
	reply, err := p.Dispatch("bogus")
	if err != ErrParseCommand || reply != "[error]" {
		t.Fatalf("got reply=%q err=%v", reply, err)
	}
}

func TestDispatchEmptyLine(t *testing.T) {
	p := New(&fakeHost{})
	reply, err := p.Dispatch("")
	if err != ErrParseCommand || reply != "[error]" {
		t.Fatalf("got reply=%q err=%v", reply, err)
	}
}

func TestDispatchInfoQuery(t *testing.T) {
	host := &fakeHost{info: "abc123", active: true, infoOK: true}
	p := New(host)
	reply, err := p.Dispatch("?info")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "[info] 0 abc123 active" {
		t.Fatalf("got %q", reply)
	}
}

func TestDispatchSetupAppliesAndReplies(t *testing.T) {
	host := &fakeHost{}
	p := New(host)
	reply, err := p.Dispatch("setup deadbeef")
	if err != nil || reply != "[ok]" {
		t.Fatalf("reply=%q err=%v", reply, err)
	}
	if host.lastSetup != "deadbeef" {
		t.Fatalf("expected Setup to receive the raw argument, got %q", host.lastSetup)
	}
}

func TestDispatchScaleRequiresTwoArgs(t *testing.T) {
	p := New(&fakeHost{})
	if reply, err := p.Dispatch("scale 100"); err != ErrParseCommand || reply != "[error]" {
		t.Fatalf("got reply=%q err=%v", reply, err)
	}
}

func TestDispatchScaleAppliesBothValues(t *testing.T) {
	host := &fakeHost{}
	p := New(host)
	if reply, err := p.Dispatch("scale 5080 3520"); err != nil || reply != "[ok]" {
		t.Fatalf("reply=%q err=%v", reply, err)
	}
	if len(host.scaleCalls) != 1 || host.scaleCalls[0] != [2]int{5080, 3520} {
		t.Fatalf("got %+v", host.scaleCalls)
	}
}

func TestHelloNextBye(t *testing.T) {
	p := New(&fakeHost{})

	if reply, _ := p.Dispatch("next"); reply != "[ok]" {
		t.Fatalf("expected [ok] with no pending messages before hello, got %q", reply)
	}

	p.Dispatch("hello")
	p.Notify("[info] 0 active")
	p.Notify("[scale] 100 100")

	reply, _ := p.Dispatch("next")
	if reply != "[info] 0 active" {
		t.Fatalf("expected first queued message, got %q", reply)
	}
	reply, _ = p.Dispatch("next")
	if reply != "[scale] 100 100" {
		t.Fatalf("expected second queued message, got %q", reply)
	}
	reply, _ = p.Dispatch("next")
	if reply != "[ok]" {
		t.Fatalf("expected [ok] once the queue is drained, got %q", reply)
	}

	p.Dispatch("bye")
	p.Notify("[info] after bye")
	if len(p.queue) != 0 {
		t.Fatalf("expected Notify to be a no-op once the queue is disabled, got %v", p.queue)
	}
}

func TestDispatchStreamWithoutSnapshot(t *testing.T) {
	p := New(&fakeHost{rawOK: false})
	reply, _ := p.Dispatch("stream")
	if reply != "[noraw]" {
		t.Fatalf("got %q", reply)
	}
}

func TestDispatchStreamWithSnapshot(t *testing.T) {
	p := New(&fakeHost{rawOK: true, rawPacket: "AA BB"})
	reply, _ := p.Dispatch("stream")
	if reply != "[raw] AA BB" {
		t.Fatalf("got %q", reply)
	}
}

func TestDispatchPanicAndQuit(t *testing.T) {
	host := &fakeHost{}
	p := New(host)
	p.Dispatch("panic")
	p.Dispatch("quit")
	if !host.panicked || !host.quit {
		t.Fatalf("expected both Panic and Quit to be invoked, got %+v", host)
	}
}

func TestDispatchGeomJoinsRemainingArgs(t *testing.T) {
	host := &fakeHost{}
	p := New(host)
	p.Dispatch("geom 0 0 1000 1000 0 0 1920 1080 0")
	if len(host.geomCalls) != 1 || host.geomCalls[0] != "0 0 1000 1000 0 0 1920 1080 0" {
		t.Fatalf("got %+v", host.geomCalls)
	}
}
