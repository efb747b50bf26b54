package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tabletmagic/daemon/control"
	"github.com/tabletmagic/daemon/decode"
	"github.com/tabletmagic/daemon/identify"
	"github.com/tabletmagic/daemon/mapping"
	"github.com/tabletmagic/daemon/settings"
)

// This file implements control.Host on *Core, so a control.Plane can
// dispatch spec.md §4.8's command table directly against the running
// Core. Kept separate from core.go so the run-loop/decode plumbing and
// the control-command surface can be read independently.

var _ control.Host = (*Core)(nil)

// Info returns the named bank's setup string and whether it is the
// active bank (bank 0).
func (c *Core) Info(bank int) (setup string, active bool, ok bool) {
	if bank < 0 || bank > 2 {
		return "", false, false
	}
	return c.banks[bank].SettingsString(), bank == 0, true
}

// Model returns the identified ROM string and base version, formatted
// as spec.md §4.8's "[model] rom-string Vbase (name)".
func (c *Core) Model() (string, bool) {
	if c.identRes == nil {
		return "", false
	}
	return fmt.Sprintf("%s V%s (%s)", c.identRes.ROMString, c.identRes.BaseVersion, c.identRes.SeriesName), true
}

// Scale returns the active bank's coordinate scale.
func (c *Core) Scale() (int32, int32) {
	return c.banks[0].XScale, c.banks[0].YScale
}

// Geom renders the active tablet/screen mapping and mouse-mode state.
func (c *Core) Geom() string {
	t, s := c.mapper.Tablet, c.mapper.Screen
	mm := 0
	if c.mapper.MouseMode {
		mm = 1
	}
	return fmt.Sprintf("T %g %g %g %g S %g %g %g %g M %d %g",
		t.OriginX, t.OriginY, t.Width, t.Height,
		s.OriginX, s.OriginY, s.Width, s.Height,
		mm, c.mapper.Scaling)
}

// Port returns the name of the currently open device.
func (c *Core) Port() string { return c.portName }

// Setup imports a setup word into the active bank and re-sends it to
// the tablet, draining the framer first so a mid-stream dialect or
// packet-size change never has to recover heuristically — the
// REDESIGN FLAG resolution in spec.md §9.
func (c *Core) Setup(setup string) error {
	s := settings.Default()
	if err := s.Import(setup); err != nil {
		return err
	}
	c.banks[0] = s
	c.decodeCtx.Settings = s
	c.Framer.Reset()
	if c.Link != nil {
		c.Link.Write([]byte("~*" + setup + "\r"))
	}
	if c.Plane != nil {
		c.Plane.Notify(fmt.Sprintf("[info] 0 %s active", s.SettingsString()))
	}
	return nil
}

// SetMem imports a setup word into memory bank 1 or 2 and sends it to
// the tablet as a "~Wn<setup>" command.
func (c *Core) SetMem(bank int, setup string) error {
	if bank != 1 && bank != 2 {
		return fmt.Errorf("core: invalid memory bank %d", bank)
	}
	s := settings.Default()
	if err := s.Import(setup); err != nil {
		return err
	}
	c.banks[bank] = s
	if c.Link != nil {
		c.Link.Write([]byte(fmt.Sprintf("~W%d%s\r", bank, setup)))
	}
	return nil
}

// SetScale updates the active bank's coordinate scale and adjusts the
// tablet mapping rectangle proportionally.
func (c *Core) SetScale(x, y int) error {
	oldX, oldY := c.banks[0].XScale, c.banks[0].YScale
	c.banks[0].XScale, c.banks[0].YScale = int32(x), int32(y)
	if oldX != 0 && oldY != 0 {
		c.mapper.Tablet.Width *= float64(x) / float64(oldX)
		c.mapper.Tablet.Height *= float64(y) / float64(oldY)
	} else {
		c.mapper.Tablet.Width, c.mapper.Tablet.Height = float64(x), float64(y)
	}
	if c.Plane != nil {
		c.Plane.Notify(fmt.Sprintf("[scale] %d %d", x, y))
	}
	return nil
}

// SetGeom parses "tx ty tw th sx sy sw sh mm [scale]" and applies it to
// the tablet/screen mapping and mouse mode, per spec.md §4.8's "geom"
// command.
func (c *Core) SetGeom(raw string) error {
	fields := strings.Fields(raw)
	if len(fields) < 9 {
		return fmt.Errorf("core: geom wants at least 9 fields, got %d", len(fields))
	}
	nums := make([]float64, 9)
	for i := 0; i < 9; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return fmt.Errorf("core: geom field %d: %w", i, err)
		}
		nums[i] = v
	}
	c.mapper.Tablet = mapping.Rect{OriginX: nums[0], OriginY: nums[1], Width: nums[2], Height: nums[3]}
	c.mapper.Screen = mapping.Rect{OriginX: nums[4], OriginY: nums[5], Width: nums[6], Height: nums[7]}
	c.mapper.MouseMode = nums[8] != 0
	if len(fields) >= 10 {
		scale, err := strconv.ParseFloat(fields[9], 64)
		if err == nil {
			c.mapper.Scaling = scale
		}
	}
	if c.Plane != nil {
		c.Plane.Notify("[geom] " + c.Geom())
	}
	return nil
}

// SetMouseMode sets mouse mode and scaling only, per spec.md §4.8's
// "mmode" command.
func (c *Core) SetMouseMode(mm bool, scale float64) error {
	c.mapper.MouseMode = mm
	c.mapper.Scaling = scale
	return nil
}

// StreamOn/StreamOff enable/disable raw-stream forwarding to the
// control plane's "stream" query.
func (c *Core) StreamOn()  { c.streamOn = true }
func (c *Core) StreamOff() { c.streamOn = false }

// StreamSnapshot returns the most recently decoded packet as text, if
// streaming is enabled and a packet has been seen.
func (c *Core) StreamSnapshot() (string, bool) {
	if !c.streamOn || c.lastPacket == nil {
		return "", false
	}
	return fmt.Sprintf("% X", c.lastPacket), true
}

// SendCommand writes raw bytes verbatim to the tablet.
func (c *Core) SendCommand(raw string) error {
	if c.Link == nil {
		return fmt.Errorf("core: no open link")
	}
	_, err := c.Link.Write([]byte(raw))
	return err
}

// SendRequest sends raw bytes and waits up to 100ms for a reply line.
func (c *Core) SendRequest(raw string) (string, error) {
	if c.Link == nil {
		return "", fmt.Errorf("core: no open link")
	}
	if _, err := c.Link.Write([]byte(raw)); err != nil {
		return "", err
	}
	buf := make([]byte, 128)
	n, err := c.Link.ReadLine(buf, int(100*time.Millisecond/time.Microsecond))
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// SetPort closes the current link (if any) and reopens on a different
// serial device, re-running the identification probe.
func (c *Core) SetPort(name string) error {
	if c.Link != nil {
		c.Link.Close()
	}
	return c.Open(name, c.identHint)
}

// Reinit imports a setup word, then reopens the serial line with the
// parameters it specifies — distinct from Setup, which keeps the
// existing line open and just re-sends the word.
func (c *Core) Reinit(setup string) error {
	s := settings.Default()
	if err := s.Import(setup); err != nil {
		return err
	}
	c.banks[0] = s
	c.decodeCtx.Settings = s
	c.Framer.Reset()
	if c.Link == nil {
		return nil
	}
	return c.Link.Apply(s)
}

// SetTabletPC forces (or un-forces) the TabletPC hypothesis and
// reprobes, per spec.md §4.8's "tabletpc" command and §9's resolution
// of the hackintosh/TabletPC-auto-detect ambiguity as a caller
// supplied hint.
func (c *Core) SetTabletPC(force bool) error {
	c.identHint.LikelyTabletPC = force
	if c.Link == nil {
		return nil
	}
	res, err := identify.Identify(c.Link, c.identHint)
	if err != nil {
		return err
	}
	if err := identify.CompleteHandshake(c.Link, res); err != nil {
		c.log.Printf("[ERR ] handshake: %v", err)
	}
	c.identRes = res
	c.banks[0] = res.Settings
	c.decodeCtx = &decode.Context{Settings: c.banks[0], Dialect: res.Dialect}
	c.dialect = res.Dialect
	c.Framer.Reset()
	return nil
}
