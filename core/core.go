// Package core wires serialio → framer → decode → eventsynth →
// hostio.EventSink into the single-threaded, cooperatively-scheduled
// run loop described in spec.md §5: a 250 Hz tick drains the serial
// port, a 1 Hz tick updates throughput counters, and a single
// context.Context cancellation stands in for the source's module-level
// quit flag (spec.md §9's "pass a Core value by reference; no
// module-level state"). Grounded on
// original_source/daemon/SerialDaemon.cpp's "Startup Stages" comment
// block and RunEventLoop/TabletTimerCallback/StreamTimerCallback in
// SerialDaemon.h.
package core

import (
	"context"
	"hash/fnv"
	"log"
	"time"

	"github.com/tabletmagic/daemon/decode"
	"github.com/tabletmagic/daemon/dialect"
	"github.com/tabletmagic/daemon/eventsynth"
	"github.com/tabletmagic/daemon/framer"
	"github.com/tabletmagic/daemon/hostio"
	"github.com/tabletmagic/daemon/identify"
	"github.com/tabletmagic/daemon/mapping"
	"github.com/tabletmagic/daemon/serialio"
	"github.com/tabletmagic/daemon/settings"
)

const (
	tickRate    = 250 // Hz
	counterRate = 1   // Hz
)

// Core is the orchestrator: one value, passed by reference through the
// run loop, owning every stateful collaborator.
type Core struct {
	Link   *serialio.Link
	Framer *framer.Framer
	Synth  *eventsynth.Synth
	Sink   hostio.EventSink
	Prefs  hostio.PrefStore
	Plane  ControlDispatcher

	// banks[0] is active, [1] and [2] are the Wacom IV ArtZ memory
	// bank presets, per spec.md §3's "two optional memory-bank copies".
	banks [3]*settings.Settings

	dialect  dialect.Dialect
	decodeCtx *decode.Context

	mapper *mapping.Mapper

	identHint identify.Hint
	identRes  *identify.Result
	portName  string

	enabled    bool
	streamOn   bool
	lastPacket []byte

	lastRawX, lastRawY int32

	byteCounter, packetCounter     int
	bytesPerSecond, packetsPerSecond int

	log *log.Logger

	quit   bool
	logTag string
}

// ControlDispatcher is the subset of control.Plane's behavior Core
// needs to push asynchronous notifications; defined here (rather than
// importing package control) to keep core the single owner of the
// wiring and avoid control depending on core's concrete type.
type ControlDispatcher interface {
	Notify(msg string)
}

// New builds a Core ready to run once Open has identified a tablet. It
// starts with default settings in all three banks, a mapping of the
// whole tablet (XScale x YScale) onto a 1920x1080 screen rectangle at
// the origin, and events disabled until Start is called.
func New(sink hostio.EventSink, prefs hostio.PrefStore) *Core {
	c := &Core{
		Framer: framer.New(),
		Synth:  eventsynth.New(),
		Sink:   sink,
		Prefs:  prefs,
		log:    log.New(log.Writer(), "", log.LstdFlags),
	}
	for i := range c.banks {
		c.banks[i] = settings.Default()
	}
	c.decodeCtx = &decode.Context{Settings: c.banks[0]}
	c.mapper = mapping.New(
		mapping.Rect{Width: float64(c.banks[0].XScale), Height: float64(c.banks[0].YScale)},
		mapping.Rect{Width: 1920, Height: 1080},
	)
	return c
}

// Active returns the active (bank 0) settings.
func (c *Core) Active() *settings.Settings { return c.banks[0] }

// Open opens path, runs the identification probe with hint, and
// applies whatever settings/dialect the probe discovered.
func (c *Core) Open(path string, hint identify.Hint) error {
	link, err := serialio.Open(path)
	if err != nil {
		return err
	}
	c.Link = link
	c.portName = path
	c.identHint = hint

	res, err := identify.Identify(link, hint)
	if err != nil {
		c.log.Printf("[ERR ] identify: %v", err)
		return err
	}
	if err := identify.CompleteHandshake(link, res); err != nil {
		c.log.Printf("[ERR ] handshake: %v", err)
	}
	c.identRes = res
	c.banks[0] = res.Settings
	c.decodeCtx = &decode.Context{Settings: c.banks[0], Dialect: res.Dialect}
	c.dialect = res.Dialect
	c.mapper.Tablet = mapping.Rect{Width: float64(res.XScale), Height: float64(res.YScale)}
	c.Synth.Current.Proximity = c.newProximityDescriptor(res)
	c.log.Printf("[INIT] identified %s (%s) on %s", res.SeriesName, res.ROMString, path)
	return nil
}

// newProximityDescriptor derives a ProximityDescriptor whose UniqueID
// is fixed for the life of the connection, hashed from the device
// path and the tablet's ID string, per spec.md §3.
func (c *Core) newProximityDescriptor(res *identify.Result) eventsynth.ProximityDescriptor {
	h := fnv.New64a()
	h.Write([]byte(c.portName))
	h.Write([]byte(res.ROMString))
	return eventsynth.ProximityDescriptor{
		Vendor:   0x056A, // Wacom USB vendor ID, reused as a stable vendor tag
		Tablet:   uint32(res.Series),
		UniqueID: h.Sum64(),
	}
}

// Start enables event emission to Sink.
func (c *Core) Start() { c.enabled = true }

// Stop disables event emission to Sink without closing the link.
func (c *Core) Stop() { c.enabled = false }

// Run drains the serial port at tickRate and updates throughput
// counters at counterRate until ctx is canceled or Quit is called. It
// is the only blocking entry point: it waits on the two tickers, and
// each tick polls the link with a zero-timeout Link.Select.
func (c *Core) Run(ctx context.Context) error {
	tick := time.NewTicker(time.Second / tickRate)
	defer tick.Stop()
	counter := time.NewTicker(time.Second / counterRate)
	defer counter.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if c.quit {
				return nil
			}
			c.doTick()
		case <-counter.C:
			c.bytesPerSecond = c.byteCounter
			c.packetsPerSecond = c.packetCounter
			c.byteCounter, c.packetCounter = 0, 0
		}
	}
}

// doTick drains whatever is available on Link, without blocking past
// the current tick.
func (c *Core) doTick() {
	if c.Link == nil {
		return
	}
	ready, err := c.Link.Select(0)
	if err != nil {
		c.log.Printf("[ERR ] select: %v", err)
		return
	}
	if !ready {
		return
	}
	buf := make([]byte, 512)
	n, err := c.Link.Read(buf)
	if err != nil {
		c.log.Printf("[ERR ] read: %v", err)
		return
	}
	if n == 0 {
		return
	}
	c.byteCounter += n
	c.Feed(buf[:n])
}

// Feed processes raw bytes already read from the link (or, in tests,
// bytes supplied directly without a real serial device).
func (c *Core) Feed(data []byte) {
	c.decodeCtx.MouseMode = c.mapper.MouseMode
	params := framer.Params{PacketSize: c.banks[0].PacketSize(), Dialect: c.dialect}
	frames := c.Framer.Feed(data, params)
	for _, f := range frames {
		c.handleFrame(f)
	}
}

func (c *Core) handleFrame(f framer.Frame) {
	switch f.Kind {
	case framer.BinaryPacket, framer.AsciiDataPacket:
		c.lastPacket = f.Data
		c.packetCounter++
		decodeFn := decode.For(c.dialect)
		if decodeFn == nil {
			return
		}
		delta, err := decodeFn(f.Data, c.decodeCtx)
		if err != nil {
			c.log.Printf("[ERR ] decode: %v", err)
			return
		}
		if delta.IsQueryReply {
			c.mapper.Tablet = mapping.Rect{Width: float64(delta.MaxX), Height: float64(delta.MaxY)}
			return
		}
		c.applyDelta(delta)
	case framer.CommandReply:
		c.log.Printf("[INFO] reply: %s", string(f.Data))
	}
}

// applyDelta merges a decoded StylusDelta's populated fields into the
// synth's current StylusState, maps the resulting tablet position onto
// screen space, and runs the event differ.
func (c *Core) applyDelta(d decode.StylusDelta) {
	cur := &c.Synth.Current

	if d.HasPosition {
		cur.OldX, cur.OldY = cur.X, cur.Y
		rawMotionX := d.X - c.lastRawX
		rawMotionY := d.Y - c.lastRawY
		cur.MotionX, cur.MotionY = rawMotionX, rawMotionY

		res := c.mapper.Map(
			mapping.Point{X: float64(d.X), Y: float64(d.Y)},
			mapping.Point{X: float64(rawMotionX), Y: float64(rawMotionY)},
		)
		c.lastRawX, c.lastRawY = d.X, d.Y

		cur.X = int32(res.Screen.X)
		cur.Y = int32(res.Screen.Y)

		if c.mapper.MouseMode && !res.InBounds {
			cur.OffTablet = true
			cur.PenNear = false
			c.mapper.Reset()
		}
	}
	if d.HasPressure {
		cur.RawPressure = d.Pressure
		cur.Pressure = d.Pressure
	}
	if d.HasTilt {
		cur.TiltX, cur.TiltY = d.TiltX, d.TiltY
	}
	if d.HasButtons {
		cur.Tip, cur.Side1, cur.Side2, cur.Eraser = d.Tip, d.Side1, d.Side2, d.Eraser
		cur.EraserFlag = d.EraserFlag
	}
	if d.HasProximity {
		cur.PenNear = d.Proximity
		cur.OffTablet = !d.Proximity
		cur.Proximity.Entering = d.Proximity
		if !d.Proximity {
			c.mapper.Reset()
		}
	}
	if d.HasToolInfo {
		cur.ToolType, cur.ToolID, cur.Serial = d.ToolType, d.ToolID, d.Serial
	}
	if d.HasRotation {
		cur.Rotation = d.Rotation
	}
	if d.HasWheel {
		cur.Wheel = d.Wheel
	}
	if d.HasThrottle {
		cur.Throttle = d.Throttle
	}

	events := c.Synth.Update()
	if !c.enabled || c.Sink == nil {
		return
	}
	for _, ev := range events {
		if err := c.Sink.Post(ev); err != nil {
			c.log.Printf("[ERR ] post: %v", err)
		}
	}
}

// Panic resets stylus state to off-tablet with all buttons released,
// per spec.md §4.8's panic control command and §7's panic recovery.
func (c *Core) Panic() {
	c.Synth.Panic()
	c.mapper.Reset()
}

// Quit requests the run loop exit at the next tick boundary.
func (c *Core) Quit() { c.quit = true }

// Counters returns the most recent bytes/packets-per-second snapshot.
func (c *Core) Counters() (bytesPerSec, packetsPerSec int) {
	return c.bytesPerSecond, c.packetsPerSecond
}
