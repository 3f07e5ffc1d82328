package document

import (
	"fmt"
	"math"
	"time"

	"github.com/pgdash/canvaschart/internal/shape"
	"github.com/pgdash/canvaschart/internal/timeseries"
	"github.com/pgdash/canvaschart/internal/typeid"
)

// Sample kinds accepted by NewSample.
const (
	SampleTimeSeries = "timeseries"
	SampleDiagram    = "diagram"
)

// NewSample returns a sample document of the given kind.
func NewSample(kind string, now time.Time) (*Document, error) {
	switch kind {
	case SampleTimeSeries, "":
		return NewSampleTimeSeries(now), nil
	case SampleDiagram:
		return NewSampleDiagram(), nil
	}
	return nil, fmt.Errorf("%w: unknown sample %q", ErrInvalid, kind)
}

// NewSampleTimeSeries returns an hour of per-minute samples for two layers
// ending at now.
func NewSampleTimeSeries(now time.Time) *Document {
	end := now.UTC().Truncate(time.Minute)
	start := end.Add(-59 * time.Minute)

	cpu := make([]timeseries.RawSample, 0, 60)
	io := make([]timeseries.RawSample, 0, 60)
	for i := range 60 {
		ms := start.Add(time.Duration(i) * time.Minute).UnixMilli()
		f := float64(i)
		cpu = append(cpu, timeseries.RawSample{
			Date:  timeseries.DateMillis(ms),
			Value: math.Round(40 + 25*math.Sin(f/6) + 10*math.Sin(f/1.7)),
		})
		io = append(io, timeseries.RawSample{
			Date:  timeseries.DateMillis(ms),
			Value: math.Round(20 + 15*math.Cos(f/9)),
		})
	}

	return &Document{
		ID:         typeid.NewExportID(),
		Title:      "Database load",
		Width:      800,
		Height:     400,
		PixelRatio: 1,
		Background: "#ffffff",
		TimeSeries: &TimeSeries{
			Layers: []*timeseries.Layer{
				{Label: "cpu", Color: "#3b82f6", RawData: cpu, Cols: []string{"cpu"}},
				{Label: "io", Color: "#f97316", RawData: io, Cols: []string{"io"}},
			},
			Options: timeseries.Options{
				Style:     timeseries.StyleSmooth,
				LabelMode: timeseries.LabelsPeaks,
				Padding:   timeseries.Padding{Top: 20, Right: 20, Left: 20},
				Gradient:  true,
			},
		},
		Shapes: shape.List{
			&shape.Text{
				Common:       shape.Common{ID: typeid.NewShapeID(), Fixed: true},
				X:            20,
				Y:            4,
				Text:         "Database load",
				Font:         "bold 12px sans-serif",
				FillStyle:    "#333",
				TextBaseline: shape.BaselineTop,
			},
		},
	}
}

// NewSampleDiagram returns three linked plan nodes, the shape vocabulary
// used for query plan diagrams.
func NewSampleDiagram() *Document {
	scan, join, sort := typeid.NewShapeID(), typeid.NewShapeID(), typeid.NewShapeID()
	node := func(id string, x, y float64, title, detail string) *shape.Rectangle {
		return &shape.Rectangle{
			Common:       shape.Common{ID: id, Elevation: 2},
			X:            x,
			Y:            y,
			Width:        160,
			Height:       56,
			BorderRadius: 6,
			FillStyle:    "#ffffff",
			StrokeStyle:  "#94a3b8",
			LineWidth:    1,
			Children: shape.List{
				&shape.Text{X: 10, Y: 10, Text: title, Font: "bold 12px sans-serif", FillStyle: "#0f172a", TextBaseline: shape.BaselineTop},
				&shape.Text{X: 10, Y: 32, Text: detail, Font: "11px sans-serif", FillStyle: "#475569", TextBaseline: shape.BaselineTop},
			},
		}
	}
	return &Document{
		ID:         typeid.NewExportID(),
		Title:      "Query plan",
		Width:      640,
		Height:     320,
		PixelRatio: 1,
		Background: "#f8fafc",
		Shapes: shape.List{
			node(sort, 40, 40, "Sort", "cost 120.4"),
			node(join, 260, 40, "Hash Join", "rows 1,204"),
			node(scan, 460, 200, "Seq Scan", "on orders"),
			&shape.LinkLine{SourceID: sort, TargetID: join, StrokeStyle: "#64748b", LineWidth: 1.5},
			&shape.LinkLine{SourceID: join, TargetID: scan, StrokeStyle: "#64748b", LineWidth: 1.5, Variant: shape.VariantSmooth},
		},
	}
}
