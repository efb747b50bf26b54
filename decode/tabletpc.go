package decode

// TabletPC (ISD-V4) bit masks and position formula, taken verbatim from
// spec.md §4.4 (itself grounded on Constants.h's "TabletPC" block).
const (
	tpcQueryData  = 0x40
	tpcProximity  = 0x20
	tpcEraser     = 0x04
	tpcTouch      = 0x01
	tpcSwitch1    = 0x02
	tpcPressureHi = 0x01
	tpcPressureLo = 0x7F

	tpcQuery6MaxX = 0x60
	tpcQuery2MaxX = 0x7F
	tpcQuery1MaxX = 0x7F

	tpcQuery6MaxY = 0x18
	tpcQuery4MaxY = 0x7F
	tpcQuery3MaxY = 0x7F

	tpcDeadZone = 24
)

// TabletPC decodes either the normal 9-byte position packet or the
// 11-byte query reply, distinguishing by length. The framer completes
// every TabletPC packet at the single configured PacketSize (9) and
// does not frame an 11-byte query reply separately.
func TabletPC(data []byte, ctx *Context) (StylusDelta, error) {
	switch len(data) {
	case 9:
		return tabletPCPosition(data, ctx)
	case 11:
		return tabletPCQueryReply(data)
	default:
		return StylusDelta{}, ErrShortPacket
	}
}

func tabletPCPosition(data []byte, ctx *Context) (StylusDelta, error) {
	b0, b1, b2, b3, b4, b5, b6 := data[0], data[1], data[2], data[3], data[4], data[5], data[6]

	var d StylusDelta
	d.HasPosition = true
	d.X = int32(b6>>5)&3 | int32(b2)<<2 | int32(b1)<<9
	d.Y = int32(b6>>3)&3 | int32(b4)<<2 | int32(b3)<<9

	d.HasProximity = true
	d.Proximity = b0&tpcProximity != 0

	d.HasButtons = true
	d.Eraser = updateEraserLatch(ctx, d.Proximity, b0&tpcEraser != 0)
	d.EraserFlag = d.Eraser
	d.Tip = b0&tpcTouch != 0 && !d.Eraser
	d.Side1 = b0&tpcSwitch1 != 0

	raw := int(b6&tpcPressureHi)<<7 | int(b5&tpcPressureLo)
	if raw < tpcDeadZone {
		raw = 0
	}
	d.HasPressure = true
	d.Pressure = scaleN(raw, 255)
	return d, nil
}

func tabletPCQueryReply(data []byte) (StylusDelta, error) {
	b1, b2, b3, b4, b6, b9, b10 := data[1], data[2], data[3], data[4], data[6], data[9], data[10]

	var d StylusDelta
	d.IsQueryReply = true
	d.MaxX = int32(b6&tpcQuery6MaxX)>>5 | int32(b2&tpcQuery2MaxX)<<2 | int32(b1&tpcQuery1MaxX)<<9
	d.MaxY = int32(b6&tpcQuery6MaxY)>>3 | int32(b4&tpcQuery4MaxY)<<2 | int32(b3&tpcQuery3MaxY)<<9
	d.FirmwareMajor = int(b9 & 0x7F)
	d.FirmwareMinor = int(b10 & 0x7F)
	return d, nil
}
