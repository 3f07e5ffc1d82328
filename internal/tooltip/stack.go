// Package tooltip builds the hover overlay of a time chart: a guide line,
// per-series markers, a date label and stacked value labels.
package tooltip

import "time"

// Position selects how value labels are stacked.
type Position string

const (
	PositionAuto   Position = "auto"
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionMiddle Position = "middle"
	PositionHidden Position = "hidden"
)

// StackAuto keeps labels near their natural positions. ys must be sorted
// ascending (top of the screen first). Labels end at least h apart inside
// [yMin, yMax]; when that is impossible they are spread evenly over the
// range instead.
func StackAuto(ys []float64, h, yMin, yMax float64) []float64 {
	n := len(ys)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if float64(n-1)*h > yMax-yMin {
		return spread(n, yMin, yMax)
	}

	// Bottom to top: each label stays at least h above the one below it.
	for i := n - 1; i >= 0; i-- {
		y := clamp(ys[i], yMin, yMax)
		if i < n-1 {
			y = min(y, out[i+1]-h)
		}
		out[i] = y
	}
	// Top overflow is pushed back down through the gaps.
	if out[0] < yMin {
		out[0] = yMin
		for i := 1; i < n; i++ {
			out[i] = max(out[i], out[i-1]+h)
		}
	}
	return out
}

// StackFixed places n labels h apart from a base derived from pos.
func StackFixed(n int, h float64, pos Position, yMin, yMax float64) []float64 {
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	total := float64(n-1) * h
	if total > yMax-yMin {
		return spread(n, yMin, yMax)
	}
	var base float64
	switch pos {
	case PositionBottom:
		base = yMax - total
	case PositionMiddle:
		base = (yMin+yMax)/2 - total/2
	default:
		base = yMin
	}
	for i := range out {
		out[i] = base + float64(i)*h
	}
	return out
}

func spread(n int, yMin, yMax float64) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = yMin
		return out
	}
	step := (yMax - yMin) / float64(n-1)
	for i := range out {
		out[i] = yMin + float64(i)*step
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

// Date label layouts, finest first.
const (
	LayoutMillis = "2006-01-02 15:04:05.000"
	LayoutSecond = "2006-01-02 15:04:05"
	LayoutMinute = "2006-01-02 15:04"
	LayoutDay    = "Mon 02 Jan 2006"
	LayoutMonth  = "Jan 2006"
)

// DateFormatFor picks the date label layout for samples delta apart.
func DateFormatFor(delta time.Duration) string {
	switch {
	case delta < time.Second:
		return LayoutMillis
	case delta < time.Minute:
		return LayoutSecond
	case delta < 24*time.Hour:
		return LayoutMinute
	case delta < 30*24*time.Hour:
		return LayoutDay
	}
	return LayoutMonth
}
