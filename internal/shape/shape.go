// Package shape defines the closed set of drawable primitives shared by
// every renderer.
package shape

import (
	"encoding/json"
	"errors"

	"github.com/pgdash/canvaschart/internal/geometry"
)

// ErrUnknownType is returned when a shape carries a type outside the
// closed set below.
var ErrUnknownType = errors.New("shape: unknown type")

// Type is the discriminator written to the "type" JSON field.
type Type string

const (
	TypeRectangle Type = "rectangle"
	TypeCircle    Type = "circle"
	TypeText      Type = "text"
	TypeMultiLine Type = "multiline"
	TypePolygon   Type = "polygon"
	TypeImage     Type = "image"
	TypeLinkLine  Type = "linkline"
)

// Shape is implemented only by the types in this package.
type Shape interface {
	Type() Type
	Attrs() *Common
	clone() Shape
}

// Common holds the attributes every shape carries.
type Common struct {
	ID string `json:"id,omitempty"`
	// Opacity defaults to 1 when nil.
	Opacity *float64 `json:"opacity,omitempty"`
	// Elevation is the drop shadow intensity; 0 draws no shadow.
	Elevation float64 `json:"elevation,omitempty"`
	// Fixed shapes are positioned in screen pixels and ignore the view.
	Fixed bool `json:"fixed,omitempty"`
	// Data is caller payload, round-tripped and never interpreted.
	Data json.RawMessage `json:"data,omitempty"`
}

// Alpha returns the effective opacity.
func (c *Common) Alpha() float64 {
	if c.Opacity == nil {
		return 1
	}
	return *c.Opacity
}

// Attrs returns the shared attributes.
func (c *Common) Attrs() *Common { return c }

func (c Common) cloneCommon() Common {
	out := c
	if c.Opacity != nil {
		v := *c.Opacity
		out.Opacity = &v
	}
	if c.Data != nil {
		out.Data = append(json.RawMessage(nil), c.Data...)
	}
	return out
}

// Opacity returns a pointer suitable for Common.Opacity.
func Opacity(v float64) *float64 { return &v }

// Rectangle is an axis-aligned box. Children are positioned relative to
// its top-left corner and inherit its opacity multiplicatively.
type Rectangle struct {
	Common
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	BorderRadius float64 `json:"borderRadius,omitempty"`
	FillStyle    string  `json:"fillStyle,omitempty"`
	StrokeStyle  string  `json:"strokeStyle,omitempty"`
	LineWidth    float64 `json:"lineWidth,omitempty"`
	Children     List    `json:"children,omitempty"`
}

// Circle is a filled and/or stroked circle. The radius is in screen pixels.
type Circle struct {
	Common
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	R           float64 `json:"r"`
	FillStyle   string  `json:"fillStyle,omitempty"`
	StrokeStyle string  `json:"strokeStyle,omitempty"`
	LineWidth   float64 `json:"lineWidth,omitempty"`
}

// Align is the horizontal text anchor.
type Align string

const (
	AlignStart  Align = "start"
	AlignCenter Align = "center"
	AlignEnd    Align = "end"
)

// Baseline is the vertical text anchor.
type Baseline string

const (
	BaselineTop        Baseline = "top"
	BaselineMiddle     Baseline = "middle"
	BaselineBottom     Baseline = "bottom"
	BaselineAlphabetic Baseline = "alphabetic"
)

// TextBackground draws a rounded box behind a text shape.
type TextBackground struct {
	FillStyle    string  `json:"fillStyle,omitempty"`
	StrokeStyle  string  `json:"strokeStyle,omitempty"`
	LineWidth    float64 `json:"lineWidth,omitempty"`
	BorderRadius float64 `json:"borderRadius,omitempty"`
	Padding      float64 `json:"padding,omitempty"`
}

// Text is a single line of text.
type Text struct {
	Common
	X            float64         `json:"x"`
	Y            float64         `json:"y"`
	Text         string          `json:"text"`
	Font         string          `json:"font,omitempty"`
	FillStyle    string          `json:"fillStyle,omitempty"`
	TextAlign    Align           `json:"textAlign,omitempty"`
	TextBaseline Baseline        `json:"textBaseline,omitempty"`
	Background   *TextBackground `json:"background,omitempty"`
}

// VariantSmooth selects monotone-X spline interpolation.
const VariantSmooth = "smooth"

// MultiLine is an open polyline or spline.
type MultiLine struct {
	Common
	Points       []geometry.Point `json:"points"`
	StrokeStyle  string           `json:"strokeStyle,omitempty"`
	LineWidth    float64          `json:"lineWidth,omitempty"`
	Variant      string           `json:"variant,omitempty"`
	LineDash     []float64        `json:"lineDash,omitempty"`
	WithGradient bool             `json:"withGradient,omitempty"`
}

// Polygon is a closed polyline.
type Polygon struct {
	Common
	Points      []geometry.Point `json:"points"`
	FillStyle   string           `json:"fillStyle,omitempty"`
	StrokeStyle string           `json:"strokeStyle,omitempty"`
	LineWidth   float64          `json:"lineWidth,omitempty"`
}

// Image draws a bitmap identified by Src.
type Image struct {
	Common
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Src    string  `json:"src"`
}

// LinkLine connects two sibling rectangles found by ID.
type LinkLine struct {
	Common
	SourceID      string  `json:"sourceId"`
	TargetID      string  `json:"targetId"`
	SourceYOffset float64 `json:"sourceYOffset,omitempty"`
	TargetYOffset float64 `json:"targetYOffset,omitempty"`
	StrokeStyle   string  `json:"strokeStyle,omitempty"`
	LineWidth     float64 `json:"lineWidth,omitempty"`
	Variant       string  `json:"variant,omitempty"`
}

func (*Rectangle) Type() Type { return TypeRectangle }
func (*Circle) Type() Type    { return TypeCircle }
func (*Text) Type() Type      { return TypeText }
func (*MultiLine) Type() Type { return TypeMultiLine }
func (*Polygon) Type() Type   { return TypePolygon }
func (*Image) Type() Type     { return TypeImage }
func (*LinkLine) Type() Type  { return TypeLinkLine }

func (r *Rectangle) clone() Shape {
	out := *r
	out.Common = r.cloneCommon()
	out.Children = Clone(r.Children)
	return &out
}

func (c *Circle) clone() Shape {
	out := *c
	out.Common = c.cloneCommon()
	return &out
}

func (t *Text) clone() Shape {
	out := *t
	out.Common = t.cloneCommon()
	if t.Background != nil {
		bg := *t.Background
		out.Background = &bg
	}
	return &out
}

func (m *MultiLine) clone() Shape {
	out := *m
	out.Common = m.cloneCommon()
	out.Points = append([]geometry.Point(nil), m.Points...)
	out.LineDash = append([]float64(nil), m.LineDash...)
	return &out
}

func (p *Polygon) clone() Shape {
	out := *p
	out.Common = p.cloneCommon()
	out.Points = append([]geometry.Point(nil), p.Points...)
	return &out
}

func (i *Image) clone() Shape {
	out := *i
	out.Common = i.cloneCommon()
	return &out
}

func (l *LinkLine) clone() Shape {
	out := *l
	out.Common = l.cloneCommon()
	return &out
}

// List is an ordered shape list. Later shapes are drawn on top.
type List []Shape

// Clone deep-copies the list so callers can hand it to generators
// without the originals being touched.
func Clone(list List) List {
	if list == nil {
		return nil
	}
	out := make(List, len(list))
	for i, s := range list {
		if s != nil {
			out[i] = s.clone()
		}
	}
	return out
}

// FindRectangle returns the first top-level rectangle with the given ID.
func FindRectangle(list List, id string) (*Rectangle, bool) {
	for _, s := range list {
		if r, ok := s.(*Rectangle); ok && r.ID == id {
			return r, true
		}
	}
	return nil, false
}
