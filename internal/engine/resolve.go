package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/pgdash/canvaschart/internal/geometry"
	"github.com/pgdash/canvaschart/internal/shape"
	"github.com/pgdash/canvaschart/internal/view"
)

// ErrUnknownShape is returned when a shape outside the closed set reaches
// the resolver.
var ErrUnknownShape = errors.New("engine: unknown shape type")

// Link line geometry in screen pixels.
const (
	linkStub         = 12
	linkMinCurvature = 20
)

// Options configure a resolve pass.
type Options struct {
	// Width and Height are the logical surface size. Height anchors the
	// gradient threshold and the bottom of under-curve fills.
	Width, Height float64
	// Measure sizes text backgrounds. Nil uses a size-based estimate.
	Measure *MeasureCache
	Logger  *slog.Logger
}

type resolver struct {
	opts    Options
	log     *slog.Logger
	measure *MeasureCache
	out     []DrawCommand
}

// Resolve turns a shape list and a view into screen-space draw commands in
// painter's order. Shapes are never modified. Link lines whose endpoints
// are missing are skipped; an unknown shape is an error.
func Resolve(list shape.List, v view.View, opts Options) ([]DrawCommand, error) {
	r := &resolver{opts: opts, log: opts.Logger, measure: opts.Measure}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	if r.measure == nil {
		r.measure = NewMeasureCache(nil, 0)
	}
	if err := r.list(list, ViewMatrix(v), 1, false); err != nil {
		return nil, err
	}
	return r.out, nil
}

func (r *resolver) list(list shape.List, m Matrix2D, parentAlpha float64, nested bool) error {
	for _, s := range list {
		if err := r.shape(s, list, m, parentAlpha, nested); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) shape(s shape.Shape, siblings shape.List, m Matrix2D, parentAlpha float64, nested bool) error {
	if s == nil {
		return fmt.Errorf("%w: nil", ErrUnknownShape)
	}
	attrs := s.Attrs()
	alpha := attrs.Alpha() * parentAlpha
	// Children are always relative to their parent.
	if attrs.Fixed && !nested {
		m = Identity()
	}

	switch s := s.(type) {
	case *shape.Rectangle:
		return r.rectangle(s, m, alpha)
	case *shape.Circle:
		cx, cy := m.TransformPoint(s.X, s.Y)
		p := geometry.EllipsePath(cx, cy, s.R, s.R)
		r.shadow(attrs, p, s.FillStyle, s.StrokeStyle, s.LineWidth, alpha)
		r.emitPath(attrs.ID, p, s.FillStyle, s.StrokeStyle, s.LineWidth, nil, alpha)
	case *shape.Text:
		r.text(s, m, alpha)
	case *shape.MultiLine:
		r.multiLine(s, m, alpha)
	case *shape.Polygon:
		if len(s.Points) < 2 {
			return nil
		}
		p := geometry.PolygonPath(m.TransformPoints(s.Points))
		r.shadow(attrs, p, s.FillStyle, s.StrokeStyle, s.LineWidth, alpha)
		r.emitPath(attrs.ID, p, s.FillStyle, s.StrokeStyle, s.LineWidth, nil, alpha)
	case *shape.Image:
		box := m.TransformRect(Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height})
		r.shadow(attrs, geometry.RectPath(box.X, box.Y, box.Width, box.Height), "#000", "", 0, alpha)
		r.out = append(r.out, DrawCommand{
			Op:       OpImage,
			ObjectID: attrs.ID,
			ImageSrc: s.Src,
			X:        box.X,
			Y:        box.Y,
			Width:    box.Width,
			Height:   box.Height,
			Opacity:  alpha,
			Bounds:   box,
		})
	case *shape.LinkLine:
		r.linkLine(s, siblings, m, alpha)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownShape, s)
	}
	return nil
}

func (r *resolver) rectangle(s *shape.Rectangle, m Matrix2D, alpha float64) error {
	box := m.TransformRect(Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height})
	p := geometry.RoundRectPath(box.X, box.Y, box.Width, box.Height, s.BorderRadius)
	r.shadow(&s.Common, p, s.FillStyle, s.StrokeStyle, s.LineWidth, alpha)
	r.emitPath(s.ID, p, s.FillStyle, s.StrokeStyle, s.LineWidth, nil, alpha)
	if len(s.Children) == 0 {
		return nil
	}
	return r.list(s.Children, m.Multiply(Translate(s.X, s.Y)), alpha, true)
}

// shadow emits a copy of p offset downward by the elevation.
func (r *resolver) shadow(c *shape.Common, p geometry.Path, fill, stroke string, width, alpha float64) {
	if c.Elevation <= 0 || len(p) == 0 {
		return
	}
	col := Color{A: math.Min(0.3, 0.06*c.Elevation)}.String()
	cmd := DrawCommand{Op: OpPath, Path: p.Translate(0, c.Elevation), Opacity: alpha}
	if fill != "" {
		cmd.Fill = col
	}
	if stroke != "" || fill == "" {
		cmd.Stroke = col
		cmd.StrokeWidth = math.Max(width, 1)
	}
	cmd.Bounds = PathBounds(cmd.Path)
	r.out = append(r.out, cmd)
}

func (r *resolver) emitPath(id string, p geometry.Path, fill, stroke string, width float64, dash []float64, alpha float64) {
	if len(p) == 0 || alpha <= 0 {
		return
	}
	if stroke != "" && width <= 0 {
		width = 1
	}
	r.out = append(r.out, DrawCommand{
		Op:          OpPath,
		ObjectID:    id,
		Path:        p,
		Fill:        fill,
		Stroke:      stroke,
		StrokeWidth: width,
		LineDash:    dash,
		Opacity:     alpha,
		Bounds:      PathBounds(p).Inflate(width / 2),
	})
}

// textBox positions a text shape. x is the left edge, baseline the
// alphabetic baseline and box the ink rectangle.
func (r *resolver) textBox(s *shape.Text, m Matrix2D) (font Font, x, baseline float64, box Rect) {
	font = ParseFont(s.Font)
	ax, ay := m.TransformPoint(s.X, s.Y)
	w := r.measure.Width(s.Text, font, s.TextAlign)

	x = ax
	switch s.TextAlign {
	case shape.AlignCenter:
		x = ax - w/2
	case shape.AlignEnd:
		x = ax - w
	}

	size := font.Size
	switch s.TextBaseline {
	case shape.BaselineTop:
		baseline = ay + ascentRatio*size
	case shape.BaselineMiddle:
		baseline = ay + (ascentRatio-0.5)*size
	case shape.BaselineBottom:
		baseline = ay - descentRatio*size
	default:
		baseline = ay
	}
	box = Rect{X: x, Y: baseline - ascentRatio*size, Width: w, Height: size}
	return font, x, baseline, box
}

func (r *resolver) text(s *shape.Text, m Matrix2D, alpha float64) {
	if s.Text == "" || alpha <= 0 {
		return
	}
	font, x, baseline, box := r.textBox(s, m)
	if bg := s.Background; bg != nil {
		pad := bg.Padding
		bgBox := box.Inflate(pad)
		p := geometry.RoundRectPath(bgBox.X, bgBox.Y, bgBox.Width, bgBox.Height, bg.BorderRadius)
		r.shadow(&s.Common, p, bg.FillStyle, bg.StrokeStyle, bg.LineWidth, alpha)
		r.emitPath(s.ID, p, bg.FillStyle, bg.StrokeStyle, bg.LineWidth, nil, alpha)
	}
	fill := s.FillStyle
	if fill == "" {
		fill = "#000"
	}
	r.out = append(r.out, DrawCommand{
		Op:       OpText,
		ObjectID: s.ID,
		Text:     s.Text,
		Font:     &font,
		X:        x,
		Y:        baseline,
		Fill:     fill,
		Opacity:  alpha,
		Bounds:   box,
	})
}

func (r *resolver) multiLine(s *shape.MultiLine, m Matrix2D, alpha float64) {
	if len(s.Points) < 2 {
		return
	}
	pts := m.TransformPoints(s.Points)
	smooth := s.Variant == shape.VariantSmooth

	if s.WithGradient && r.opts.Height > 0 {
		r.gradients(s, pts, smooth, alpha)
	}
	stroke := s.StrokeStyle
	if stroke == "" {
		stroke = "#000"
	}
	r.emitPath(s.ID, geometry.CurvePath(pts, smooth), "", stroke, s.LineWidth, s.LineDash, alpha)
}

func (r *resolver) gradients(s *shape.MultiLine, pts []geometry.Point, smooth bool, alpha float64) {
	base, ok := ParseColor(s.StrokeStyle)
	if !ok {
		return
	}
	bottom := r.opts.Height
	for _, section := range PeakSections(pts, bottom*PeakThresholdRatio) {
		p := underCurvePath(section, smooth, bottom)
		top := math.Inf(1)
		for _, pt := range section {
			top = math.Min(top, pt.Y)
		}
		r.out = append(r.out, DrawCommand{
			Op:   OpPath,
			Path: p,
			FillGradient: &Gradient{
				X0: section[0].X, Y0: top,
				X1: section[0].X, Y1: bottom,
				Stops: []GradientStop{
					{Offset: 0, Color: base.WithAlpha(gradientTopAlpha).String()},
					{Offset: 1, Color: base.WithAlpha(gradientBottomAlpha).String()},
				},
			},
			Opacity: alpha,
			Bounds:  PathBounds(p),
		})
	}
}

// linkLine joins the facing sides of two sibling rectangles with a short
// stub out of each and a connector between the stubs.
func (r *resolver) linkLine(s *shape.LinkLine, siblings shape.List, m Matrix2D, alpha float64) {
	src, ok := shape.FindRectangle(siblings, s.SourceID)
	if !ok {
		r.log.Debug("link source missing", "id", s.ID, "source", s.SourceID)
		return
	}
	dst, ok := shape.FindRectangle(siblings, s.TargetID)
	if !ok {
		r.log.Debug("link target missing", "id", s.ID, "target", s.TargetID)
		return
	}

	sb := m.TransformRect(Rect{X: src.X, Y: src.Y, Width: src.Width, Height: src.Height})
	tb := m.TransformRect(Rect{X: dst.X, Y: dst.Y, Width: dst.Width, Height: dst.Height})
	sy := anchorY(sb, s.SourceYOffset, m[3])
	ty := anchorY(tb, s.TargetYOffset, m[3])

	scx, _ := sb.Center()
	tcx, _ := tb.Center()
	var sx, tx, dir float64
	if tcx >= scx {
		sx, tx, dir = sb.X+sb.Width, tb.X, 1
	} else {
		sx, tx, dir = sb.X, tb.X+tb.Width, -1
	}
	x1 := sx + dir*linkStub
	x2 := tx - dir*linkStub

	var p geometry.Path
	p.MoveTo(sx, sy)
	p.LineTo(x1, sy)
	if s.Variant == shape.VariantSmooth {
		c := math.Max(math.Abs(x2-x1)/2, linkMinCurvature)
		p.CubicTo(x1+dir*c, sy, x2-dir*c, ty, x2, ty)
	} else {
		mid := (x1 + x2) / 2
		p.LineTo(mid, sy)
		p.LineTo(mid, ty)
		p.LineTo(x2, ty)
	}
	p.LineTo(tx, ty)

	stroke := s.StrokeStyle
	if stroke == "" {
		stroke = "#888"
	}
	r.emitPath(s.ID, p, "", stroke, s.LineWidth, nil, alpha)
}

// anchorY places a link end offset from the rectangle top, or at its
// vertical centre when no offset is given.
func anchorY(b Rect, offset, yScale float64) float64 {
	if offset == 0 {
		_, cy := b.Center()
		return cy
	}
	return b.Y + offset*yScale
}
