// Package view holds the pan/zoom transform between data space and screen
// space.
package view

import "math"

// Scale bounds applied to both axes on every mutation.
const (
	MinScale = 1e-3
	MaxScale = 1e9
)

// View maps data coordinates to screen coordinates:
// screen = data*scale + offset, independently per axis.
type View struct {
	XScale  float64 `json:"xScale"`
	YScale  float64 `json:"yScale"`
	XOffset float64 `json:"xOffset"`
	YOffset float64 `json:"yOffset"`
}

// Identity returns the unzoomed, unpanned view.
func Identity() View {
	return View{XScale: 1, YScale: 1}
}

// Policy restricts which mutations a chart accepts. Zero values mean
// unrestricted.
type Policy struct {
	YScaleLocked bool    `json:"yScaleLocked,omitempty"`
	YPanLocked   bool    `json:"yPanLocked,omitempty"`
	MinXScale    float64 `json:"minXScale,omitempty"`
	MaxXScale    float64 `json:"maxXScale,omitempty"`
}

// ClampScale limits s to [MinScale, MaxScale]. NaN maps to 1.
func ClampScale(s float64) float64 {
	switch {
	case math.IsNaN(s):
		return 1
	case s < MinScale:
		return MinScale
	case s > MaxScale:
		return MaxScale
	}
	return s
}

// DataToScreen converts a data-space point to screen pixels.
func (v View) DataToScreen(x, y float64) (float64, float64) {
	return x*v.XScale + v.XOffset, y*v.YScale + v.YOffset
}

// ScreenToData converts screen pixels to a data-space point.
func (v View) ScreenToData(x, y float64) (float64, float64) {
	return (x - v.XOffset) / v.XScale, (y - v.YOffset) / v.YScale
}

// Apply validates a proposed view against the previous one. Scales are
// clamped. An axis that breaks a policy lock reverts scale and offset to
// the previous values instead of rejecting the whole update. changed
// reports whether the result differs from prev.
func Apply(prev, proposed View, p Policy) (next View, changed bool) {
	next = proposed
	next.XScale = ClampScale(next.XScale)
	next.YScale = ClampScale(next.YScale)
	if !finite(next.XOffset) {
		next.XScale, next.XOffset = prev.XScale, prev.XOffset
	}
	if !finite(next.YOffset) {
		next.YScale, next.YOffset = prev.YScale, prev.YOffset
	}

	if p.YScaleLocked && next.YScale != prev.YScale {
		next.YScale, next.YOffset = prev.YScale, prev.YOffset
	}
	if p.YPanLocked && next.YScale == prev.YScale && next.YOffset != prev.YOffset {
		next.YOffset = prev.YOffset
	}
	if violatesX(next.XScale, p) {
		next.XScale, next.XOffset = prev.XScale, prev.XOffset
		// prev may itself be out of bounds after a policy change.
		if p.MinXScale > 0 && next.XScale < p.MinXScale {
			next.XScale = ClampScale(p.MinXScale)
		}
		if p.MaxXScale > 0 && next.XScale > p.MaxXScale {
			next.XScale = ClampScale(p.MaxXScale)
		}
	}
	return next, next != prev
}

func violatesX(s float64, p Policy) bool {
	return (p.MinXScale > 0 && s < p.MinXScale) || (p.MaxXScale > 0 && s > p.MaxXScale)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Extent is the visible data-space rectangle for a surface size.
type Extent struct {
	LeftX   float64 `json:"leftX"`
	TopY    float64 `json:"topY"`
	RightX  float64 `json:"rightX"`
	BottomY float64 `json:"bottomY"`
	XScale  float64 `json:"xScale"`
	YScale  float64 `json:"yScale"`
}

// Extent derives the visible data-space rectangle for a width x height
// surface in logical pixels.
func (v View) Extent(width, height float64) Extent {
	left, top := v.ScreenToData(0, 0)
	right, bottom := v.ScreenToData(width, height)
	return Extent{
		LeftX:   left,
		TopY:    top,
		RightX:  right,
		BottomY: bottom,
		XScale:  v.XScale,
		YScale:  v.YScale,
	}
}

// ZoomAt scales the view by (fx, fy) keeping the screen point (cx, cy)
// fixed. The resulting scales are clamped and the offsets re-centred from
// the clamped scale so the fixpoint survives clamping.
func (v View) ZoomAt(cx, cy, fx, fy float64) View {
	xs := ClampScale(v.XScale * fx)
	ys := ClampScale(v.YScale * fy)
	ex := xs / v.XScale
	ey := ys / v.YScale
	return View{
		XScale:  xs,
		YScale:  ys,
		XOffset: cx - ex*(cx-v.XOffset),
		YOffset: cy - ey*(cy-v.YOffset),
	}
}

// Pan moves the view by a screen-space delta.
func (v View) Pan(dx, dy float64) View {
	v.XOffset += dx
	v.YOffset += dy
	return v
}
