package decode

// Wacom IV bit masks, grounded on Constants.h's "Wacom IV" block.
const (
	ivMask0Engagement  = 0x60
	ivDisengagedOrMenu = 0x20
	ivMask0ButtonFlag  = 0x08

	ivMask0X = 0x03
	ivMask1X = 0x7F
	ivMask2X = 0x7F

	ivMask3Buttons  = 0x78
	ivMask3Pressure0 = 0x04

	ivMask3Y = 0x03
	ivMask4Y = 0x7F
	ivMask5Y = 0x7F

	ivMask6PressureLo = 0x3F
	ivMask6PressureHi = 0x40

	ivMask7TiltX     = 0x3F
	ivMask7TiltXBase = 0x40
	ivMask8TiltY     = 0x3F
	ivMask8TiltYBase = 0x40
)

// WacomIV decodes Wacom IV base, 1.3 and 1.4 packets; 1.4 adds two
// trailing tilt bytes, so a 9-byte packet carries tilt and a 7-byte one
// does not.
func WacomIV(data []byte, ctx *Context) (StylusDelta, error) {
	if len(data) != 7 && len(data) != 9 {
		return StylusDelta{}, ErrShortPacket
	}
	b0, b1, b2, b3, b4, b5, b6 := data[0], data[1], data[2], data[3], data[4], data[5], data[6]

	var d StylusDelta
	d.HasPosition = true
	d.X = int32(b0&ivMask0X)<<14 | int32(b1&ivMask1X)<<7 | int32(b2&ivMask2X)
	d.Y = int32(b3&ivMask3Y)<<14 | int32(b4&ivMask4Y)<<7 | int32(b5&ivMask5Y)

	disengaged := b0&ivMask0Engagement == ivDisengagedOrMenu
	d.HasProximity = true
	d.Proximity = !disengaged

	d.HasButtons = true
	secondaryBarrel := b3&ivMask3Buttons&0x08 != 0
	d.Eraser = updateEraserLatch(ctx, d.Proximity, secondaryBarrel)
	d.EraserFlag = d.Eraser

	d.HasPressure = true
	pressureLo := int(b6 & ivMask6PressureLo)
	pressureHi := b6&ivMask6PressureHi != 0
	raw7 := pressureLo
	if pressureHi {
		raw7 |= 0x40
	}
	if ctx.OldPressureEncoding {
		// ROM base version < 1.2: a signed 7-bit value centered at 64.
		d.Pressure = clipUint16((raw7 - 64) * 1024)
	} else {
		// ROM base version >= 1.2: composite of b6's 7 bits and b3's
		// pressure-zero flag as an extra low-order bit.
		composite := raw7<<1 | boolToInt(b3&ivMask3Pressure0 != 0)
		d.Pressure = scaleN(composite, 255)
	}
	if b0&ivMask0ButtonFlag != 0 {
		d.Tip = true
	} else {
		d.Tip = d.Pressure > 0
	}
	d.Tip = d.Tip && !d.Eraser

	if len(data) == 9 {
		b7, b8 := data[7], data[8]
		d.HasTilt = true
		d.TiltX = decodeSignedTilt7(b7, ivMask7TiltX, ivMask7TiltXBase)
		d.TiltY = decodeSignedTilt7(b8, ivMask8TiltY, ivMask8TiltYBase)
	}

	return d, nil
}
