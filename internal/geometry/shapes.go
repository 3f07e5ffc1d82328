package geometry

import "math"

// Magic number for bezier approximation of a circle/ellipse
// k = 4 * (sqrt(2) - 1) / 3 ≈ 0.5522847498
const kappa = 0.5522847498

// RectPath returns a closed axis-aligned rectangle.
func RectPath(x, y, w, h float64) Path {
	return Path{
		{Op: OpMove, Args: []float64{x, y}},
		{Op: OpLine, Args: []float64{x + w, y}},
		{Op: OpLine, Args: []float64{x + w, y + h}},
		{Op: OpLine, Args: []float64{x, y + h}},
		{Op: OpClose},
	}
}

// RoundRectPath returns a rectangle with corners rounded by r. The radius
// is clamped to half of the smaller side; r <= 0 yields a plain rectangle.
// Negative width or height is normalized first.
func RoundRectPath(x, y, w, h, r float64) Path {
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	if maxR := math.Min(w, h) / 2; r > maxR {
		r = maxR
	}
	if r <= 0 {
		return RectPath(x, y, w, h)
	}

	k := r * kappa
	var p Path
	p.MoveTo(x+r, y)
	p.LineTo(x+w-r, y)
	p.CubicTo(x+w-r+k, y, x+w, y+r-k, x+w, y+r)
	p.LineTo(x+w, y+h-r)
	p.CubicTo(x+w, y+h-r+k, x+w-r+k, y+h, x+w-r, y+h)
	p.LineTo(x+r, y+h)
	p.CubicTo(x+r-k, y+h, x, y+h-r+k, x, y+h-r)
	p.LineTo(x, y+r)
	p.CubicTo(x, y+r-k, x+r-k, y, x+r, y)
	p.Close()
	return p
}

// EllipsePath approximates an ellipse centered at (cx, cy) with four
// cubic Bezier curves.
func EllipsePath(cx, cy, rx, ry float64) Path {
	kx, ky := rx*kappa, ry*kappa
	return Path{
		{Op: OpMove, Args: []float64{cx + rx, cy}},
		{Op: OpCubic, Args: []float64{cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry}},
		{Op: OpCubic, Args: []float64{cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy}},
		{Op: OpCubic, Args: []float64{cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry}},
		{Op: OpCubic, Args: []float64{cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy}},
		{Op: OpClose},
	}
}

// PolygonPath closes the points into a polygon.
func PolygonPath(points []Point) Path {
	p := PolylinePath(points)
	if len(p) > 0 {
		p.Close()
	}
	return p
}
