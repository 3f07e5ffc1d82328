package axis

import (
	"github.com/pgdash/canvaschart/internal/geometry"
	"github.com/pgdash/canvaschart/internal/shape"
)

// Style controls how ticks are drawn.
type Style struct {
	Font       string
	Color      string
	TickColor  string
	LineHeight float64
	TickLength float64
}

// DefaultStyle matches the chart's 12px labels.
func DefaultStyle() Style {
	return Style{
		Font:       "12px sans-serif",
		Color:      "#555",
		TickColor:  "#ccc",
		LineHeight: 14,
		TickLength: 4,
	}
}

// Shapes renders the ticks as fixed shapes: a short mark at the axis line y
// and the label lines stacked below it.
func (r Result) Shapes(y float64, st Style) shape.List {
	var out shape.List
	for _, t := range r.All() {
		if st.TickLength > 0 {
			out = append(out, &shape.MultiLine{
				Common: shape.Common{Fixed: true},
				Points: []geometry.Point{
					{X: t.X, Y: y},
					{X: t.X, Y: y + st.TickLength},
				},
				StrokeStyle: st.TickColor,
				LineWidth:   1,
			})
		}
		for i, line := range t.Lines {
			out = append(out, &shape.Text{
				Common:       shape.Common{Fixed: true},
				X:            t.X,
				Y:            y + st.TickLength + 2 + float64(i)*st.LineHeight,
				Text:         line,
				Font:         st.Font,
				FillStyle:    st.Color,
				TextAlign:    t.Align,
				TextBaseline: shape.BaselineTop,
			})
		}
	}
	return out
}
