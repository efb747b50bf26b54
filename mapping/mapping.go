// Package mapping implements the tablet↔screen mapping engine from
// spec.md §4.6: absolute/relative/mouse-mode coordinate translation,
// active-area clamping, and proportional rescale on display
// reconfiguration. Grounded on original_source/daemon/SerialDaemon.h's
// tabletMapping/screenMapping CGRect fields and the
// SetScreenMapping/InitTabletBounds/UpdateTabletScale method shapes.
package mapping

import "math"

// Rect is an axis-aligned rectangle in either tablet-native or screen
// coordinates. Width/height are always positive per spec.md §3's
// invariant.
type Rect struct {
	OriginX, OriginY float64
	Width, Height    float64
}

// Point is a 2D coordinate.
type Point struct {
	X, Y float64
}

// Contains reports whether p falls within r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.OriginX && p.X <= r.OriginX+r.Width &&
		p.Y >= r.OriginY && p.Y <= r.OriginY+r.Height
}

// Clamp restricts p to r. Idempotent: Clamp(Clamp(p)) == Clamp(p).
func (r Rect) Clamp(p Point) Point {
	return Point{
		X: clampAxis(p.X, r.OriginX, r.OriginX+r.Width),
		Y: clampAxis(p.Y, r.OriginY, r.OriginY+r.Height),
	}
}

func clampAxis(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Mapper translates raw tablet coordinates (in [0,XScale)×[0,YScale)
// native space) into host screen coordinates, honoring absolute vs.
// mouse (relative-accumulation) mode.
type Mapper struct {
	Tablet Rect
	Screen Rect

	// MouseMode selects relative accumulation instead of absolute
	// clamp-and-scale, per spec.md §4.6.
	MouseMode bool
	// Scaling is the extra user-configurable multiplier mouse mode
	// applies on top of the tablet/screen size ratio.
	Scaling float64

	// screenPos is the accumulated screen position used only in mouse
	// mode; it persists across calls the way the source's scrPos field
	// does.
	screenPos Point
	primed    bool
}

// New returns a Mapper with a 1.0 scaling factor and no accumulated
// position.
func New(tablet, screen Rect) *Mapper {
	return &Mapper{Tablet: tablet, Screen: screen, Scaling: 1.0}
}

// Result is one mapped sample: the screen position, plus whether the
// raw tablet point was within the active tablet rectangle (used by
// core.Core.applyDelta to force out-of-proximity handling when a
// mouse-mode drag leaves the tablet's active area).
type Result struct {
	Screen    Point
	InBounds  bool
}

// Map translates one raw tablet sample. motion is the tablet-level
// delta (point − old_point) that mouse mode accumulates; it is ignored
// in absolute mode.
func (m *Mapper) Map(raw, motion Point) Result {
	inBounds := m.Tablet.Contains(raw)

	if !m.MouseMode {
		clamped := m.Tablet.Clamp(raw)
		sx := m.Screen.OriginX + (clamped.X-m.Tablet.OriginX)*(m.Screen.Width/m.Tablet.Width)
		sy := m.Screen.OriginY + (clamped.Y-m.Tablet.OriginY)*(m.Screen.Height/m.Tablet.Height)
		return Result{Screen: Point{sx, sy}, InBounds: inBounds}
	}

	if !m.primed {
		// First sample in mouse mode has no prior position to carry
		// forward from; seed it at the screen's center so the first
		// motion has a sane origin.
		m.screenPos = Point{
			X: m.Screen.OriginX + m.Screen.Width/2,
			Y: m.Screen.OriginY + m.Screen.Height/2,
		}
		m.primed = true
	}

	ratio := math.Min(m.Screen.Width/m.Tablet.Width, m.Screen.Height/m.Tablet.Height)
	factor := ratio * 2 * m.Scaling
	m.screenPos.X += motion.X * factor
	m.screenPos.Y += motion.Y * factor
	m.screenPos = m.Screen.Clamp(m.screenPos)

	return Result{Screen: m.screenPos, InBounds: inBounds}
}

// Reset drops the accumulated mouse-mode position, reseeding it on the
// next Map call. Used when proximity is lost so a later re-entry does
// not jump from a stale accumulated point.
func (m *Mapper) Reset() {
	m.primed = false
}

// Rescale adjusts Screen for a host display-bounds change, preserving
// each rectangle's *proportional* area within the new bounds: origin
// and size both scale by the axis ratio between old and new bounds, per
// spec.md §4.6.
func (m *Mapper) Rescale(oldScreen, newScreen Rect) {
	xRatio := 1.0
	if oldScreen.Width != 0 {
		xRatio = newScreen.Width / oldScreen.Width
	}
	yRatio := 1.0
	if oldScreen.Height != 0 {
		yRatio = newScreen.Height / oldScreen.Height
	}
	m.Screen.OriginX = newScreen.OriginX + (m.Screen.OriginX-oldScreen.OriginX)*xRatio
	m.Screen.OriginY = newScreen.OriginY + (m.Screen.OriginY-oldScreen.OriginY)*yRatio
	m.Screen.Width *= xRatio
	m.Screen.Height *= yRatio
}
