package view

import (
	"math"
	"math/rand"
	"testing"
)

func TestClampScale(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1, 1},
		{0, MinScale},
		{-5, MinScale},
		{1e12, MaxScale},
		{math.Inf(1), MaxScale},
		{math.NaN(), 1},
	}
	for _, tt := range tests {
		if got := ClampScale(tt.in); got != tt.want {
			t.Errorf("ClampScale(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		v := View{
			XScale:  ClampScale(math.Pow(10, r.Float64()*8-3)),
			YScale:  ClampScale(math.Pow(10, r.Float64()*8-3)),
			XOffset: r.Float64()*2000 - 1000,
			YOffset: r.Float64()*2000 - 1000,
		}
		x, y := r.Float64()*800, r.Float64()*600
		dx, dy := v.ScreenToData(x, y)
		sx, sy := v.DataToScreen(dx, dy)
		if math.Abs(sx-x) > 1e-6 || math.Abs(sy-y) > 1e-6 {
			t.Fatalf("round trip %v: (%v,%v) -> (%v,%v)", v, x, y, sx, sy)
		}
	}
}

func TestApplyClampsAndDiffs(t *testing.T) {
	prev := Identity()
	next, changed := Apply(prev, View{XScale: 1e12, YScale: 0, XOffset: 3}, Policy{})
	if !changed {
		t.Fatal("expected change")
	}
	if next.XScale != MaxScale || next.YScale != MinScale || next.XOffset != 3 {
		t.Errorf("next = %+v", next)
	}

	if _, changed := Apply(prev, Identity(), Policy{}); changed {
		t.Error("identical view reported as changed")
	}
}

func TestApplyLocks(t *testing.T) {
	prev := View{XScale: 1, YScale: 1, XOffset: 10, YOffset: 20}

	t.Run("y scale locked reverts y axis", func(t *testing.T) {
		next, _ := Apply(prev, View{XScale: 2, YScale: 2, XOffset: 5, YOffset: 7}, Policy{YScaleLocked: true})
		want := View{XScale: 2, YScale: 1, XOffset: 5, YOffset: 20}
		if next != want {
			t.Errorf("next = %+v, want %+v", next, want)
		}
	})

	t.Run("y pan locked reverts offset only", func(t *testing.T) {
		next, changed := Apply(prev, View{XScale: 1, YScale: 1, XOffset: 10, YOffset: 99}, Policy{YPanLocked: true})
		if changed || next != prev {
			t.Errorf("next = %+v changed = %v", next, changed)
		}
	})

	t.Run("x scale bounds revert x axis", func(t *testing.T) {
		p := Policy{MinXScale: 0.5, MaxXScale: 4}
		next, _ := Apply(prev, View{XScale: 8, YScale: 1, XOffset: -50, YOffset: 20}, p)
		if next.XScale != 1 || next.XOffset != 10 {
			t.Errorf("next = %+v", next)
		}
		next, _ = Apply(prev, View{XScale: 0.1, YScale: 3, XOffset: -50, YOffset: 0}, p)
		if next.XScale != 1 || next.XOffset != 10 || next.YScale != 3 {
			t.Errorf("next = %+v", next)
		}
	})

	t.Run("out of bounds prev is pulled into range", func(t *testing.T) {
		bad := View{XScale: 10, YScale: 1}
		next, _ := Apply(bad, View{XScale: 20, YScale: 1}, Policy{MaxXScale: 4})
		if next.XScale != 4 {
			t.Errorf("XScale = %v, want 4", next.XScale)
		}
	})
}

func TestScaleAlwaysInBounds(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	v := Identity()
	for i := 0; i < 500; i++ {
		proposed := v.ZoomAt(r.Float64()*800, r.Float64()*400, math.Exp(r.NormFloat64()*10), math.Exp(r.NormFloat64()*10))
		v, _ = Apply(v, proposed, Policy{})
		if v.XScale < MinScale || v.XScale > MaxScale || v.YScale < MinScale || v.YScale > MaxScale {
			t.Fatalf("scale out of bounds: %+v", v)
		}
	}
}

func TestZoomAtKeepsCursorFixed(t *testing.T) {
	v := Identity()
	before, _ := v.ScreenToData(100, 100)
	z := v.ZoomAt(100, 100, 2, 2)
	if z.XScale != 2 {
		t.Fatalf("XScale = %v", z.XScale)
	}
	after, _ := z.ScreenToData(100, 100)
	if before != after {
		t.Errorf("data under cursor moved: %v -> %v", before, after)
	}
	sx, sy := z.DataToScreen(z.ScreenToData(100, 100))
	if sx != 100 || sy != 100 {
		t.Errorf("round trip = (%v,%v), want (100,100)", sx, sy)
	}
}

func TestZoomAtClampedFixpoint(t *testing.T) {
	v := View{XScale: MaxScale / 2, YScale: 1, XOffset: 37}
	bx, _ := v.ScreenToData(250, 0)
	z := v.ZoomAt(250, 0, 10, 1)
	if z.XScale != MaxScale {
		t.Fatalf("XScale = %v", z.XScale)
	}
	ax, _ := z.ScreenToData(250, 0)
	if math.Abs(ax-bx) > 1e-9 {
		t.Errorf("fixpoint drifted: %v -> %v", bx, ax)
	}
}

func TestExtent(t *testing.T) {
	v := View{XScale: 2, YScale: 4, XOffset: 10, YOffset: -8}
	e := v.Extent(100, 40)
	want := Extent{LeftX: -5, TopY: 2, RightX: 45, BottomY: 12, XScale: 2, YScale: 4}
	if e != want {
		t.Errorf("extent = %+v, want %+v", e, want)
	}
}
