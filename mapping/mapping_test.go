package mapping

import "testing"

func TestClampIdempotent(t *testing.T) {
	r := Rect{OriginX: 0, OriginY: 0, Width: 100, Height: 50}
	p := Point{X: 500, Y: -10}
	once := r.Clamp(p)
	twice := r.Clamp(once)
	if once != twice {
		t.Fatalf("clamp not idempotent: once=%+v twice=%+v", once, twice)
	}
}

func TestAbsoluteMappingMonotone(t *testing.T) {
	m := New(Rect{Width: 1000, Height: 1000}, Rect{Width: 1920, Height: 1080})
	prevX := -1.0
	for x := 0.0; x <= 1000; x += 100 {
		res := m.Map(Point{X: x, Y: 0}, Point{})
		if res.Screen.X < prevX {
			t.Fatalf("screen X not monotone at tablet x=%v: got %v after %v", x, res.Screen.X, prevX)
		}
		prevX = res.Screen.X
	}
}

func TestAbsoluteMappingClampsOutOfRange(t *testing.T) {
	m := New(Rect{Width: 1000, Height: 1000}, Rect{Width: 1920, Height: 1080})
	res := m.Map(Point{X: 5000, Y: 5000}, Point{})
	if res.Screen.X != 1920 || res.Screen.Y != 1080 {
		t.Fatalf("expected clamp to screen corner, got %+v", res.Screen)
	}
	if res.InBounds {
		t.Fatal("expected InBounds=false for an out-of-range tablet point")
	}
}

func TestMouseModeAccumulatesMotion(t *testing.T) {
	m := New(Rect{Width: 1000, Height: 1000}, Rect{Width: 1000, Height: 1000})
	m.MouseMode = true
	m.Scaling = 1.0
	start := m.Map(Point{X: 500, Y: 500}, Point{})
	next := m.Map(Point{X: 510, Y: 500}, Point{X: 10, Y: 0})
	if next.Screen.X <= start.Screen.X {
		t.Fatalf("expected screen X to advance with positive motion: start=%v next=%v", start.Screen.X, next.Screen.X)
	}
}

func TestRescalePreservesProportion(t *testing.T) {
	m := New(Rect{Width: 1000, Height: 1000}, Rect{OriginX: 0, OriginY: 0, Width: 1920, Height: 1080})
	old := m.Screen
	m.Rescale(old, Rect{Width: 3840, Height: 2160})
	if m.Screen.Width != 3840 || m.Screen.Height != 2160 {
		t.Fatalf("expected full-size rescale, got %+v", m.Screen)
	}
}
