package geometry

// newtonIterations bounds the inverse lookup in YAtX. Ten steps converge
// well below a hundredth of a pixel for chart-sized segments.
const newtonIterations = 10

// MonotoneXPath builds a smooth curve through the points by running a
// quadratic Bezier from each segment midpoint to the next, using the data
// point itself as the control point. The last two points are joined by a
// straight line. For points sorted by X the curve never backtracks
// horizontally.
func MonotoneXPath(points []Point) Path {
	n := len(points)
	if n == 0 {
		return nil
	}
	p := make(Path, 0, n+1)
	p.MoveTo(points[0].X, points[0].Y)
	if n == 1 {
		return p
	}
	for i := 1; i < n-1; i++ {
		mx := (points[i].X + points[i+1].X) / 2
		my := (points[i].Y + points[i+1].Y) / 2
		p.QuadTo(points[i].X, points[i].Y, mx, my)
	}
	p.LineTo(points[n-1].X, points[n-1].Y)
	return p
}

// CurvePath picks the interpolation used for both strokes and gradient
// fills so the two always agree.
func CurvePath(points []Point, smooth bool) Path {
	if smooth {
		return MonotoneXPath(points)
	}
	return PolylinePath(points)
}

// quadSegment is one quadratic piece of a MonotoneXPath curve.
type quadSegment struct {
	start, ctrl, end Point
}

func monotoneSegments(points []Point) []quadSegment {
	n := len(points)
	segs := make([]quadSegment, 0, n)
	start := points[0]
	for i := 1; i < n-1; i++ {
		end := Point{X: (points[i].X + points[i+1].X) / 2, Y: (points[i].Y + points[i+1].Y) / 2}
		segs = append(segs, quadSegment{start: start, ctrl: points[i], end: end})
		start = end
	}
	return segs
}

// YAtX returns the Y coordinate of the MonotoneXPath curve at x. The
// containing quadratic segment is located and its Bezier parameter solved
// with Newton's method; the terminal straight segment is interpolated
// linearly. X outside the curve's span clamps to the end points.
func YAtX(points []Point, x float64) float64 {
	n := len(points)
	switch {
	case n == 0:
		return 0
	case n == 1:
		return points[0].Y
	}
	if x <= points[0].X {
		return points[0].Y
	}
	if x >= points[n-1].X {
		return points[n-1].Y
	}

	for _, s := range monotoneSegments(points) {
		if x < s.start.X || x > s.end.X {
			continue
		}
		return s.yAt(x)
	}

	// Terminal line from the last midpoint (or the first point when there
	// are only two) to the final point.
	a := points[0]
	if n > 2 {
		a = Point{X: (points[n-2].X + points[n-1].X) / 2, Y: (points[n-2].Y + points[n-1].Y) / 2}
	}
	b := points[n-1]
	return lerpY(a, b, x)
}

func (s quadSegment) yAt(x float64) float64 {
	span := s.end.X - s.start.X
	if span == 0 {
		return s.end.Y
	}
	t := (x - s.start.X) / span
	for i := 0; i < newtonIterations; i++ {
		mt := 1 - t
		fx := mt*mt*s.start.X + 2*mt*t*s.ctrl.X + t*t*s.end.X - x
		dx := 2*mt*(s.ctrl.X-s.start.X) + 2*t*(s.end.X-s.ctrl.X)
		if dx == 0 {
			break
		}
		t -= fx / dx
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	mt := 1 - t
	return mt*mt*s.start.Y + 2*mt*t*s.ctrl.Y + t*t*s.end.Y
}

func lerpY(a, b Point, x float64) float64 {
	if b.X == a.X {
		return b.Y
	}
	return a.Y + (b.Y-a.Y)*(x-a.X)/(b.X-a.X)
}
