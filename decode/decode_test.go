package decode

import (
	"testing"

	"github.com/tabletmagic/daemon/dialect"
	"github.com/tabletmagic/daemon/settings"
)

func freshCtx() *Context {
	return &Context{Settings: settings.Default()}
}

func TestWacomIISBinaryPositionAndPressure(t *testing.T) {
	ctx := freshCtx()
	// b0: proximity(0x40) | pressure-mode(0x10) | X-hi(0x02)
	// raw pressure byte (b6) = 0x40 (hi) | 0x10 (lo) = 0x50 = 80 decimal -> (80-34)*65535/60
	data := []byte{0x40 | 0x10 | 0x02, 0x10, 0x20, 0x01, 0x11, 0x22, 0x40 | 0x10}
	d, err := WacomIISBinary(data, ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantX := int32(0x02)<<14 | int32(0x10)<<7 | int32(0x20)
	wantY := int32(0x01)<<14 | int32(0x11)<<7 | int32(0x22)
	if d.X != wantX || d.Y != wantY {
		t.Fatalf("got (%d,%d) want (%d,%d)", d.X, d.Y, wantX, wantY)
	}
	if !d.Proximity {
		t.Fatal("expected proximity")
	}
	wantPressure := scalePressure7(0x50)
	if d.Pressure != wantPressure {
		t.Fatalf("pressure = %d, want %d", d.Pressure, wantPressure)
	}
}

func TestWacomIISBinaryOffTablet(t *testing.T) {
	ctx := freshCtx()
	data := []byte{0x20, 0, 0, 0, 0, 0, 0}
	d, err := WacomIISBinary(data, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.Proximity {
		t.Fatal("expected off-tablet per the 0x60==0x20 disengaged pattern")
	}
}

func TestWacomIISBinaryEraserLatchPersists(t *testing.T) {
	ctx := freshCtx()
	enter := []byte{0x40, 0, 0, 0, 0, 0, 0x04 | 0x20}
	d, err := WacomIISBinary(enter, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Eraser {
		t.Fatal("expected eraser latched on proximity-enter with secondary barrel bit set")
	}
	// Subsequent packet clears the secondary bit but eraser should stay
	// latched until proximity is lost.
	next := []byte{0x40, 0, 0, 0, 0, 0, 0x20}
	d2, err := WacomIISBinary(next, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !d2.Eraser {
		t.Fatal("expected eraser latch to persist across packets while in proximity")
	}
	left := []byte{0x20, 0, 0, 0, 0, 0, 0}
	d3, _ := WacomIISBinary(left, ctx)
	if d3.Eraser {
		t.Fatal("expected eraser latch cleared once proximity is lost")
	}
}

func TestWacomIISBinarySDHysteresis(t *testing.T) {
	ctx := freshCtx()
	raw22 := []byte{0x40, 0, 0, 0, 0, 0, 0x22}
	if _, err := WacomIISBinarySD(raw22, ctx); err != nil {
		t.Fatal(err)
	}
	raw00 := []byte{0x40, 0, 0, 0, 0, 0, 0x00}
	d, err := WacomIISBinarySD(raw00, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.Pressure != 65535 {
		t.Fatalf("expected 0x22->0x00 hysteresis to read as maximum pressure, got %d", d.Pressure)
	}
}

func TestWacomIISASCIIButtonMode(t *testing.T) {
	ctx := freshCtx()
	d, err := WacomIISASCII([]byte("#,100,200,1"), ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !d.HasPosition || d.X != 100 || d.Y != 200 || !d.Tip {
		t.Fatalf("unexpected delta %+v", d)
	}
}

func TestWacomIISASCIIRelativeMappingLowerLeft(t *testing.T) {
	ctx := freshCtx()
	ctx.Settings.CoordSys = settings.CoordRelative
	ctx.Settings.Origin = settings.OriginLowerLeft
	ctx.Settings.YScale = 15240
	d, err := WacomIISASCII([]byte("#,10,5,0"), ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.X != 10 || d.Y != -5 {
		t.Fatalf("expected relative point to advance (+10,-5), got (%d,%d)", d.X, d.Y)
	}
}

func TestWacomIISASCIIMouseModeClampsOutOfBounds(t *testing.T) {
	ctx := freshCtx()
	ctx.Settings.CoordSys = settings.CoordAbsolute
	ctx.Settings.XScale = 100
	ctx.Settings.YScale = 100
	ctx.MouseMode = true

	d, err := WacomIISASCII([]byte("#,500,500,0"), ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.HasPosition || d.Proximity {
		t.Fatalf("expected an out-of-bounds sample to be dropped in mouse mode, got %+v", d)
	}
}

func TestWacomIISASCIIIgnoresWireMultiModeBit(t *testing.T) {
	ctx := freshCtx()
	ctx.Settings.CoordSys = settings.CoordAbsolute
	ctx.Settings.XScale = 100
	ctx.Settings.YScale = 100
	ctx.Settings.MMComm = true
	ctx.MouseMode = false

	d, err := WacomIISASCII([]byte("#,500,500,0"), ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !d.HasPosition {
		t.Fatal("expected the wire MMComm bit alone, without runtime mouse mode, to leave the clamp disabled")
	}
}

func TestWacomIISASCIIPuckIgnored(t *testing.T) {
	ctx := freshCtx()
	d, err := WacomIISASCII([]byte("*,1,2,3"), ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.HasPosition {
		t.Fatal("expected puck lines to be ignored")
	}
}

func TestWacomIVBinaryTipDownWithTilt(t *testing.T) {
	ctx := freshCtx()
	// b0 = 0x88 (start bit 0x80 plus button flag 0x08 -> tip down;
	// engaged, no disengage/menu pattern), b1/b2 arbitrary X payload,
	// b3/b4/b5 Y payload, b6 pressure, b7/b8 tilt both zero.
	data := []byte{0x88, 0x10, 0x20, 0x01, 0x11, 0x22, 0x7F, 0x00, 0x00}
	d, err := WacomIV(data, ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantX := int32(0x88&ivMask0X)<<14 | int32(0x10)<<7 | int32(0x20)
	wantY := int32(0x01&ivMask3Y)<<14 | int32(0x11)<<7 | int32(0x22)
	if d.X != wantX || d.Y != wantY {
		t.Fatalf("got (%d,%d) want (%d,%d)", d.X, d.Y, wantX, wantY)
	}
	if !d.Tip {
		t.Fatal("expected tip down with button-flag bit set")
	}
	if !d.HasTilt || d.TiltX != 0 || d.TiltY != 0 {
		t.Fatalf("expected zero tilt, got %+v", d)
	}
}

func TestWacomIVEraserSuppressesTip(t *testing.T) {
	ctx := freshCtx()
	// b0 = 0x88: start bit + button-flag bit set (would read as tip
	// down in isolation); b3 = 0x08: secondary-barrel bit set, read as
	// eraser on this proximity-enter.
	data := []byte{0x88, 0, 0, 0x08, 0, 0, 0}
	d, err := WacomIV(data, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Eraser {
		t.Fatal("expected eraser latched from the secondary-barrel bit")
	}
	if d.Tip {
		t.Fatal("expected Tip suppressed when the button-flag bit and eraser coincide")
	}
}

func TestWacomVToolIDPacket(t *testing.T) {
	ctx := freshCtx()
	data := []byte{0xC2, 0x08, 0x22, 0x12, 0x34, 0x56, 0x78, 0x90, 0x00}
	d, err := WacomV(data, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.ToolID != 0x0822 {
		t.Fatalf("tool id = %#x, want 0x0822", d.ToolID)
	}
	if d.Serial != 0x1234567890 {
		t.Fatalf("serial = %#x, want 0x1234567890", d.Serial)
	}
	if d.ToolType != ToolPen {
		t.Fatalf("tool type = %v, want ToolPen", d.ToolType)
	}
	if !d.Proximity {
		t.Fatal("expected proximity-enter on tool-id packet")
	}
}

func TestWacomVDisengagementZeroesState(t *testing.T) {
	ctx := freshCtx()
	data := []byte{0x80, 0, 0, 0, 0, 0, 0, 0, 0}
	d, err := WacomV(data, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.Proximity {
		t.Fatal("expected disengagement to clear proximity")
	}
}

func TestTabletPCPositionFormula(t *testing.T) {
	ctx := freshCtx()
	data := []byte{0x20, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0, 0}
	d, err := TabletPC(data, ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantX := int32(0x06>>5)&3 | int32(0x02)<<2 | int32(0x01)<<9
	wantY := int32(0x06>>3)&3 | int32(0x04)<<2 | int32(0x03)<<9
	if d.X != wantX || d.Y != wantY {
		t.Fatalf("got (%d,%d) want (%d,%d)", d.X, d.Y, wantX, wantY)
	}
	if !d.Proximity {
		t.Fatal("expected proximity bit set")
	}
}

func TestTabletPCEraserBit(t *testing.T) {
	ctx := freshCtx()
	data := []byte{0b00100100, 0, 0, 0, 0, 0, 0, 0, 0}
	d, err := TabletPC(data, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Proximity {
		t.Fatal("expected proximity-enter")
	}
	if !d.Eraser {
		t.Fatal("expected the secondary switch bit to be read as eraser")
	}
}

func TestTabletPCEraserSuppressesTipAndPersists(t *testing.T) {
	ctx := freshCtx()
	// proximity(0x20) | eraser(0x04) | touch(0x01): both the eraser and
	// touch bits are set on the same packet.
	enter := []byte{0x20 | 0x04 | 0x01, 0, 0, 0, 0, 0, 0, 0, 0}
	d, err := TabletPC(enter, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Eraser {
		t.Fatal("expected eraser latched on proximity-enter with the eraser bit set")
	}
	if d.Tip {
		t.Fatal("expected Tip suppressed while Eraser is latched, per the re-routing rule")
	}

	// Subsequent packet: eraser bit clears but touch stays asserted;
	// the eraser identity must persist until proximity is lost.
	next := []byte{0x20 | 0x01, 0, 0, 0, 0, 0, 0, 0, 0}
	d2, err := TabletPC(next, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !d2.Eraser {
		t.Fatal("expected eraser latch to persist across subsequent packets while in proximity")
	}
	if d2.Tip {
		t.Fatal("expected Tip to stay suppressed while the eraser latch persists")
	}
}

func TestTabletPCQueryReply(t *testing.T) {
	ctx := freshCtx()
	data := make([]byte, 11)
	data[0] = 0x40
	data[9] = 1
	data[10] = 2
	d, err := TabletPC(data, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !d.IsQueryReply {
		t.Fatal("expected 11-byte packet to decode as a query reply")
	}
	if d.FirmwareMajor != 1 || d.FirmwareMinor != 2 {
		t.Fatalf("firmware = %d.%d, want 1.2", d.FirmwareMajor, d.FirmwareMinor)
	}
}

func TestSetupRoundTrip(t *testing.T) {
	s := settings.Default()
	if err := s.Import("E202C910,002,02,1270,1270"); err != nil {
		t.Fatal(err)
	}
	if got := s.SettingsString(); got != "E202C910,002,02,1270,1270" {
		t.Fatalf("round trip = %q, want E202C910,002,02,1270,1270", got)
	}
}

func TestGraphireToolTypeAndPressure(t *testing.T) {
	ctx := freshCtx()
	data := []byte{0x80, 0x20, 0, 0, 0, 0x03, 0x7F}
	d, err := Graphire(data, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d.ToolType != ToolEraser {
		t.Fatalf("tool type = %v, want ToolEraser for toolBits=1", d.ToolType)
	}
	wantPressure := scaleN(3<<7|0x7F, 1023)
	if !d.HasPressure || d.Pressure != wantPressure {
		t.Fatalf("pressure = %d, want %d for raw 0x1FF", d.Pressure, wantPressure)
	}
}

func TestFujitsuPFixedRange(t *testing.T) {
	ctx := freshCtx()
	data := []byte{200, 0x01, 0x80, 0x00, 0x80}
	d, err := FujitsuP(data, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Tip {
		t.Fatal("expected tip button down")
	}
	if d.X < 0 || d.X > 1024 || d.Y < 0 || d.Y > 768 {
		t.Fatalf("position %v,%v out of the hard-coded 1024x768 range", d.X, d.Y)
	}
}

func TestCalCompBasic(t *testing.T) {
	ctx := freshCtx()
	data := []byte{0x40, 0x10, 0x20, 0x01, 0x11, 0x22, 0x20 | 0x01}
	d, err := CalComp(data, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Proximity {
		t.Fatal("expected proximity")
	}
	if !d.Tip {
		t.Fatal("expected tip down")
	}
}

func TestForDispatchesEveryDialect(t *testing.T) {
	for _, dl := range []dialect.Dialect{
		dialect.WacomIISBinary, dialect.SD, dialect.WacomIISASCII,
		dialect.WacomIV13, dialect.WacomIV14, dialect.WacomV,
		dialect.TabletPC, dialect.Graphire, dialect.FujitsuP, dialect.CalComp,
	} {
		if For(dl) == nil {
			t.Fatalf("no decoder registered for dialect %v", dl)
		}
	}
	if For(dialect.Unknown) != nil {
		t.Fatal("expected no decoder for Unknown dialect")
	}
}
