package geometry

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is a 2D point in whatever space the caller works in.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Op is a path verb. The letters match Canvas2D/SVG path commands so the
// wire format can be replayed by either backend without translation.
type Op byte

const (
	OpMove  Op = 'M'
	OpLine  Op = 'L'
	OpQuad  Op = 'Q'
	OpCubic Op = 'C'
	OpClose Op = 'Z'
)

// PathCommand represents a single path segment for rendering.
// Serialized as ["M", x, y], ["L", x, y], ["Q", cx, cy, x, y],
// ["C", x1, y1, x2, y2, x, y] or ["Z"].
type PathCommand struct {
	Op   Op
	Args []float64
}

// Path is an ordered list of path commands.
type Path []PathCommand

// MoveTo starts a new subpath.
func (p *Path) MoveTo(x, y float64) {
	*p = append(*p, PathCommand{Op: OpMove, Args: []float64{x, y}})
}

// LineTo adds a straight segment.
func (p *Path) LineTo(x, y float64) {
	*p = append(*p, PathCommand{Op: OpLine, Args: []float64{x, y}})
}

// QuadTo adds a quadratic Bezier segment.
func (p *Path) QuadTo(cx, cy, x, y float64) {
	*p = append(*p, PathCommand{Op: OpQuad, Args: []float64{cx, cy, x, y}})
}

// CubicTo adds a cubic Bezier segment.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	*p = append(*p, PathCommand{Op: OpCubic, Args: []float64{c1x, c1y, c2x, c2y, x, y}})
}

// Close closes the current subpath.
func (p *Path) Close() {
	*p = append(*p, PathCommand{Op: OpClose})
}

// Translate returns a copy of the path moved by (dx, dy).
func (p Path) Translate(dx, dy float64) Path {
	out := make(Path, len(p))
	for i, cmd := range p {
		args := make([]float64, len(cmd.Args))
		for j, v := range cmd.Args {
			if j%2 == 0 {
				args[j] = v + dx
			} else {
				args[j] = v + dy
			}
		}
		out[i] = PathCommand{Op: cmd.Op, Args: args}
	}
	return out
}

// Bounds returns the bounding box of all points and control points.
// ok is false for an empty path.
func (p Path) Bounds() (minX, minY, maxX, maxY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, cmd := range p {
		for j := 0; j+1 < len(cmd.Args); j += 2 {
			x, y := cmd.Args[j], cmd.Args[j+1]
			minX = math.Min(minX, x)
			maxX = math.Max(maxX, x)
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
			ok = true
		}
	}
	return minX, minY, maxX, maxY, ok
}

// MarshalJSON encodes the command in the Canvas2D-style array form.
func (c PathCommand) MarshalJSON() ([]byte, error) {
	arr := make([]interface{}, 0, len(c.Args)+1)
	arr = append(arr, string(rune(c.Op)))
	for _, v := range c.Args {
		arr = append(arr, v)
	}
	return json.Marshal(arr)
}

// UnmarshalJSON decodes the array form produced by MarshalJSON.
func (c *PathCommand) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) == 0 {
		return fmt.Errorf("geometry: empty path command")
	}
	var op string
	if err := json.Unmarshal(arr[0], &op); err != nil || len(op) != 1 {
		return fmt.Errorf("geometry: invalid path verb %s", arr[0])
	}
	c.Op = Op(op[0])
	c.Args = make([]float64, 0, len(arr)-1)
	for _, raw := range arr[1:] {
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		c.Args = append(c.Args, v)
	}
	return nil
}

// PolylineLength returns the summed length of the straight segments
// joining the points in order.
func PolylineLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += math.Hypot(points[i].X-points[i-1].X, points[i].Y-points[i-1].Y)
	}
	return total
}

// PolylinePath joins the points with straight segments.
func PolylinePath(points []Point) Path {
	if len(points) == 0 {
		return nil
	}
	p := make(Path, 0, len(points))
	p.MoveTo(points[0].X, points[0].Y)
	for _, pt := range points[1:] {
		p.LineTo(pt.X, pt.Y)
	}
	return p
}
