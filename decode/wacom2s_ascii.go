package decode

import (
	"strconv"
	"strings"

	"github.com/tabletmagic/daemon/settings"
)

// WacomIISASCII decodes one ASCII data line: "#,x,y,b" (button mode),
// "!,x,y,p" (pressure mode), or "*,..." (puck, ignored per spec.md
// §4.4 — not yet part of any tested tool type).
func WacomIISASCII(data []byte, ctx *Context) (StylusDelta, error) {
	fields := strings.Split(string(data), ",")
	if len(fields) < 4 {
		return StylusDelta{}, nil
	}
	marker := fields[0]
	if marker == "*" {
		return StylusDelta{}, nil
	}

	x, errX := strconv.Atoi(strings.TrimSpace(fields[1]))
	y, errY := strconv.Atoi(strings.TrimSpace(fields[2]))
	last, errL := strconv.Atoi(strings.TrimSpace(fields[3]))
	if errX != nil || errY != nil || errL != nil {
		return StylusDelta{}, nil
	}

	var d StylusDelta
	d.HasProximity = true
	d.Proximity = true
	d.HasButtons = true

	switch marker {
	case "#":
		d.Tip = last != 0
	case "!":
		d.HasPressure = true
		d.Pressure = scaleN(last, 255)
		d.Tip = last > 0
	default:
		return StylusDelta{}, nil
	}

	px, py := applyCoordSys(ctx, int32(x), int32(y))

	if ctx.MouseMode && ctx.Settings != nil {
		bound := ctx.Settings.XScale
		boundY := ctx.Settings.YScale
		if ctx.Settings.CoordSys == settings.CoordAbsolute && (px < 0 || px >= bound || py < 0 || py >= boundY) {
			d.HasPosition = false
			d.Proximity = false
			d.Tip, d.Side1, d.Side2, d.Eraser = false, false, false, false
			d.Pressure = 0
			return d, nil
		}
	}

	d.HasPosition = true
	d.X, d.Y = px, py
	return d, nil
}

// applyCoordSys accumulates relative-mode deltas into the running
// tablet point, flipping Y when origin is lower-left, or simply
// forwards absolute coordinates unchanged.
func applyCoordSys(ctx *Context, x, y int32) (int32, int32) {
	if ctx.Settings == nil || ctx.Settings.CoordSys == settings.CoordAbsolute {
		return x, y
	}
	dy := y
	if ctx.Settings.Origin == settings.OriginLowerLeft {
		dy = -y
	}
	ctx.RelX += x
	ctx.RelY += dy
	return ctx.RelX, ctx.RelY
}
