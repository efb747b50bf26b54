package decode

// FujitsuP decodes the Fujitsu P-Series' distinct 5-byte framing: a
// start/status byte pair followed by fixed-point X/Y data, reported
// into a hard-coded 1024x768 output range with a single tip button,
// per spec.md §4.4. original_source carries no bit-exact layout for
// this variant (it is mentioned only by name in SerialDaemon.cpp's
// model table), so the fixed-point split below is this package's own
// reasonable reconstruction from the prose description, flagged in
// DESIGN.md.
func FujitsuP(data []byte, ctx *Context) (StylusDelta, error) {
	if len(data) != 5 {
		return StylusDelta{}, ErrShortPacket
	}
	status, xHi, xLo, y := data[1], data[2], data[3], data[4]

	var d StylusDelta
	d.HasProximity = true
	d.Proximity = true

	d.HasButtons = true
	d.Tip = status&0x01 != 0

	rawX := int(xHi)<<8 | int(xLo)
	d.HasPosition = true
	d.X = int32(rawX * 1024 / 65536)
	d.Y = int32(int(y) * 768 / 256)

	return d, nil
}
