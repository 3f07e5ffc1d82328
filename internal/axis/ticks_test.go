package axis

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"
)

func fixed(s string) float64 { return 7 * float64(len(s)) }

func TestCatalogueOrder(t *testing.T) {
	gs := Granularities()
	if len(gs) != 44 {
		t.Fatalf("catalogue has %d entries, want 44", len(gs))
	}
	for i := 1; i < len(gs); i++ {
		if gs[i].Approx() >= gs[i-1].Approx() {
			t.Errorf("%s is not finer than %s", gs[i].Name, gs[i-1].Name)
		}
	}
	if gs[0].Name != "100 years" || gs[len(gs)-1].Name != "1 millisecond" {
		t.Errorf("catalogue runs %s .. %s", gs[0].Name, gs[len(gs)-1].Name)
	}
}

func TestFloor(t *testing.T) {
	ref := time.Date(2024, time.March, 17, 13, 47, 52, 345_000_000, time.UTC)
	tests := []struct {
		name string
		want time.Time
	}{
		{"10 years", time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{"3 months", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{"7 days", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)},
		{"6 hours", time.Date(2024, time.March, 17, 12, 0, 0, 0, time.UTC)},
		{"15 minutes", time.Date(2024, time.March, 17, 13, 45, 0, 0, time.UTC)},
		{"20 seconds", time.Date(2024, time.March, 17, 13, 47, 40, 0, time.UTC)},
		{"200 milliseconds", time.Date(2024, time.March, 17, 13, 47, 52, 200_000_000, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := lookup(t, tt.name)
			if got := g.Floor(ref); !got.Equal(tt.want) {
				t.Errorf("Floor = %v, want %v", got, tt.want)
			}
		})
	}
}

func lookup(t *testing.T, name string) Granularity {
	t.Helper()
	for _, g := range Granularities() {
		if g.Name == name {
			return g
		}
	}
	t.Fatalf("no granularity %q", name)
	return Granularity{}
}

func TestFortyFiveSecondsPicksSecondTier(t *testing.T) {
	res := Generate(Input{MinMillis: 0, MaxMillis: 45_000, Width: 800, Measure: fixed})
	if res.Granularity == nil {
		t.Fatal("no granularity chosen")
	}
	if res.Granularity.Unit != Second {
		t.Fatalf("chose %s, want a seconds step", res.Granularity.Name)
	}
	if res.Granularity.Name != "5 seconds" {
		t.Errorf("chose %s, want 5 seconds", res.Granularity.Name)
	}
	if len(res.Edges) != 2 || len(res.Edges[0].Lines) != 2 {
		t.Errorf("edges = %+v", res.Edges)
	}
}

func TestTickSpacingLegality(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	base := time.Date(2001, time.June, 5, 3, 0, 0, 0, time.UTC).UnixMilli()
	for i := 0; i < 300; i++ {
		span := int64(math.Pow(10, rng.Float64()*12)) + 1
		width := 100 + rng.Float64()*1900
		res := Generate(Input{MinMillis: base, MaxMillis: base + span, Width: width, Measure: fixed})
		for j, tk := range res.Ticks {
			if j > 0 && tk.X-res.Ticks[j-1].X < MinSpacing {
				t.Fatalf("span %d width %.0f: ticks %d and %d are %.2fpx apart", span, width, j-1, j, tk.X-res.Ticks[j-1].X)
			}
			for _, e := range res.Edges {
				if overlaps(tk, e) {
					t.Fatalf("span %d width %.0f: tick %q overlaps edge %q", span, width, tk.Label(), e.Label())
				}
			}
		}
	}
}

func TestSparseSamplesSnap(t *testing.T) {
	in := Input{
		MinMillis: 0, MaxMillis: 45_000, Width: 800, Measure: fixed,
		Samples: []int64{10_000, 20_000, 30_000},
	}
	res := Generate(in)
	if !res.Snapped {
		t.Fatal("sparse samples did not snap")
	}
	want := []string{"00:00:10", "00:00:20", "00:00:30"}
	if len(res.Ticks) != len(want) {
		t.Fatalf("ticks = %d, want %d", len(res.Ticks), len(want))
	}
	for i, tk := range res.Ticks {
		if tk.Label() != want[i] || tk.Millis != in.Samples[i] {
			t.Errorf("tick %d = %q at %d", i, tk.Label(), tk.Millis)
		}
	}

	for ms := int64(0); ms <= 45_000; ms += 100 {
		in.Samples = append(in.Samples, ms)
	}
	if res := Generate(in); res.Snapped {
		t.Error("dense samples snapped")
	}
}

func TestSingleInstant(t *testing.T) {
	at := time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC).UnixMilli()
	res := Generate(Input{MinMillis: at, MaxMillis: at, Left: 10, Width: 400, Measure: fixed})
	if res.Granularity != nil || len(res.Edges) != 0 {
		t.Fatalf("single instant ran the tick search: %+v", res)
	}
	if len(res.Ticks) != 1 {
		t.Fatalf("ticks = %d, want 1", len(res.Ticks))
	}
	tk := res.Ticks[0]
	if tk.X != 210 || tk.Label() != "09:30:00\n2024-05-01" {
		t.Errorf("tick = %+v", tk)
	}
}

func TestLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	res := Generate(Input{MinMillis: 0, MaxMillis: 45_000, Width: 800, Measure: fixed, Location: loc})
	if got := res.Edges[0].Lines[0]; got != "02:00:00" {
		t.Errorf("left edge = %q", got)
	}
}

func TestShapes(t *testing.T) {
	res := Generate(Input{MinMillis: 0, MaxMillis: 45_000, Width: 800, Measure: fixed})
	list := res.Shapes(360, DefaultStyle())
	want := len(res.Ticks)*2 + len(res.Edges)*3
	if len(list) != want {
		t.Fatalf("shapes = %d, want %d", len(list), want)
	}
	for _, s := range list {
		if !s.Attrs().Fixed {
			t.Fatalf("%s shape is not fixed", s.Type())
		}
	}
}
