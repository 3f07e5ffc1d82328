package engine

import "github.com/pgdash/canvaschart/internal/geometry"

// PeakThresholdRatio places the gradient threshold at this fraction of the
// surface height, measured from the top.
const PeakThresholdRatio = 0.6

// Under-curve gradient alpha at the section top and the surface bottom.
const (
	gradientTopAlpha    = 0.35
	gradientBottomAlpha = 0
)

// PeakSections splits screen-space points into maximal runs of at least
// two consecutive points lying above thresholdY (screen y < thresholdY).
func PeakSections(points []geometry.Point, thresholdY float64) [][]geometry.Point {
	var sections [][]geometry.Point
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= 2 {
			sections = append(sections, points[start:end:end])
		}
		start = -1
	}
	for i, p := range points {
		if p.Y < thresholdY {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(points))
	return sections
}

// underCurvePath follows the section with the stroke's interpolation and
// closes it along the surface bottom.
func underCurvePath(section []geometry.Point, smooth bool, bottom float64) geometry.Path {
	p := geometry.CurvePath(section, smooth)
	last := section[len(section)-1]
	first := section[0]
	p.LineTo(last.X, bottom)
	p.LineTo(first.X, bottom)
	p.Close()
	return p
}
