package decode

// CalComp bit masks, grounded on Constants.h's "CalComp" block. Framing
// is a 7-byte packet structurally similar to Wacom II-S binary but with
// a wider X field (b3 contributes two extra high bits) and a full-byte
// pressure field.
const (
	calProximity = 0x40
	calEngaged   = 0x60
	calDisengage = 0x20

	calMask0X = 0x03
	calMask1X = 0x7F
	calMask2X = 0x7F
	calMask3X = 0x18

	calMask3Y = 0x07
	calMask4Y = 0x7F
	calMask5Y = 0x7F

	calEraserOrTip = 0x01
	calButton1     = 0x02
	calButton2     = 0x04
	calEraserOr2   = 0x08
	calButtonFlag  = 0x20
)

// CalComp decodes a 7-byte CalComp packet.
func CalComp(data []byte, ctx *Context) (StylusDelta, error) {
	if len(data) != 7 {
		return StylusDelta{}, ErrShortPacket
	}
	b0, b1, b2, b3, b4, b5, b6 := data[0], data[1], data[2], data[3], data[4], data[5], data[6]

	var d StylusDelta
	d.HasPosition = true
	d.X = int32(b3&calMask3X)>>3<<16 | int32(b0&calMask0X)<<14 | int32(b1&calMask1X)<<7 | int32(b2&calMask2X)
	d.Y = int32(b3&calMask3Y)<<14 | int32(b4&calMask4Y)<<7 | int32(b5&calMask5Y)

	inProx := b0&calProximity != 0
	offTablet := b0&calEngaged == calDisengage
	d.HasProximity = true
	d.Proximity = inProx && !offTablet

	d.HasButtons = true
	secondaryBarrel := b6&calEraserOr2 != 0
	d.Eraser = updateEraserLatch(ctx, d.Proximity, secondaryBarrel)
	d.EraserFlag = d.Eraser

	d.HasPressure = true
	if b6&calButtonFlag != 0 {
		d.Tip = b6&calEraserOrTip != 0 && !d.Eraser
		d.Side1 = b6&calButton1 != 0
		d.Side2 = b6&calButton2 != 0
		if d.Tip || d.Side1 || d.Side2 {
			d.Pressure = 65535
		}
	} else {
		d.Pressure = scaleN(int(b6), 255)
		d.Tip = d.Pressure > 0
	}

	return d, nil
}
