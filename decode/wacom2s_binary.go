package decode

// Wacom II-S Binary bit masks, grounded on
// original_source/common/Constants.h's "Wacom II-S" block.
const (
	iisProximity  = 0x40
	iisPressureOn = 0x10
	iisEngaged    = 0x60
	iisDisengaged = 0x20

	iisMask0X = 0x03
	iisMask1X = 0x7F
	iisMask2X = 0x7F

	iisMask3Y = 0x03
	iisMask4Y = 0x7F
	iisMask5Y = 0x7F

	iisEraserOrTip = 0x01
	iisButton1     = 0x02
	iisEraserOr2   = 0x04
	iisPressureLo  = 0x3F
	iisPressureHi  = 0x40
	iisButtonFlag  = 0x20
)

// WacomIISBinary decodes a 7-byte Wacom II-S binary packet.
func WacomIISBinary(data []byte, ctx *Context) (StylusDelta, error) {
	if len(data) != 7 {
		return StylusDelta{}, ErrShortPacket
	}
	b0, b1, b2, b3, b4, b5, b6 := data[0], data[1], data[2], data[3], data[4], data[5], data[6]

	var d StylusDelta
	d.HasPosition = true
	d.X = int32(b0&iisMask0X)<<14 | int32(b1&iisMask1X)<<7 | int32(b2&iisMask2X)
	d.Y = int32(b3&iisMask3Y)<<14 | int32(b4&iisMask4Y)<<7 | int32(b5&iisMask5Y)

	inProx := b0&iisProximity != 0
	offTablet := b0&iisEngaged == iisDisengaged
	d.HasProximity = true
	d.Proximity = inProx && !offTablet

	d.HasButtons = true
	secondaryBarrel := b6&iisEraserOr2 != 0
	d.Eraser = updateEraserLatch(ctx, d.Proximity, secondaryBarrel)
	d.EraserFlag = d.Eraser

	d.HasPressure = true
	if b0&iisPressureOn != 0 {
		raw := int(b6&iisPressureLo) | boolToInt(b6&iisPressureHi != 0)<<6
		d.Pressure = scalePressure7(raw)
		d.Tip = d.Pressure > 0
	} else if b6&iisButtonFlag != 0 {
		d.Tip = b6&iisEraserOrTip != 0 && !d.Eraser
		d.Side1 = b6&iisButton1 != 0
		if d.Tip || d.Side1 {
			d.Pressure = 65535
		}
	}

	return d, nil
}

// WacomIISBinarySD decodes the SD-series variant of the II-S binary
// packet, identical except for the pressure field: a discrete code
// (0x00, 0x23 or 0x22) with a documented hysteresis quirk (spec.md §4.4, flagged
// empirical in DESIGN.md).
func WacomIISBinarySD(data []byte, ctx *Context) (StylusDelta, error) {
	d, err := WacomIISBinary(data, ctx)
	if err != nil {
		return d, err
	}
	raw := data[6] & 0x7F
	switch raw {
	case 0x00:
		if ctx.HaveSDPressure && ctx.PrevSDPressureRaw == 0x22 {
			d.Pressure = 65535
		} else {
			d.Pressure = 0
		}
	case 0x23:
		d.Pressure = 32768
	case 0x22:
		d.Pressure = 49152
	}
	ctx.PrevSDPressureRaw = raw
	ctx.HaveSDPressure = true
	return d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
