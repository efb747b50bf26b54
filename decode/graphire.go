package decode

// Graphire uses a Wacom-IV-like 7-byte position frame plus a tool-type
// byte in b1 bits 5..6 and a 10-bit pressure field, per spec.md §4.4.
func Graphire(data []byte, ctx *Context) (StylusDelta, error) {
	if len(data) != 7 {
		return StylusDelta{}, ErrShortPacket
	}
	base, err := WacomIV(data, ctx)
	if err != nil {
		return base, err
	}

	b1, b5, b6 := data[1], data[5], data[6]

	toolBits := (b1 >> 5) & 0x03
	switch toolBits {
	case 0:
		base.ToolType = ToolPen
	case 1:
		base.ToolType = ToolEraser
	case 2:
		base.ToolType = ToolMouse2D
	default:
		base.ToolType = ToolPen
	}
	base.HasToolInfo = true

	raw := int(b5&0x07)<<7 | int(b6&0x7F)
	base.HasPressure = true
	base.Pressure = scaleN(raw, 1023)

	base.HasWheel = true
	base.Wheel = int16(int8(b6 & 0x0F))

	return base, nil
}
