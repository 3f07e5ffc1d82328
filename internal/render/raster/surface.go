// Package raster draws resolved commands onto a gogpu/gg bitmap.
package raster

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"

	"github.com/gogpu/gg"

	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/geometry"
)

// ImageSource resolves image shape sources to bitmaps.
type ImageSource interface {
	Image(src string) (image.Image, bool)
}

// Surface is a device-pixel-ratio aware drawing surface. Coordinates in
// draw commands are logical pixels; the backing bitmap holds
// width*ratio x height*ratio physical pixels.
type Surface struct {
	dc     *gg.Context
	width  int
	height int
	ratio  float64
	device engine.Matrix2D

	fonts      *engine.FontMeasurer
	images     ImageSource
	background string
	log        *slog.Logger
}

// Option configures a Surface.
type Option func(*Surface)

// WithImages sets the source used for image commands.
func WithImages(src ImageSource) Option {
	return func(s *Surface) { s.images = src }
}

// WithBackground fills the surface with a CSS color before each frame.
// The default is transparent.
func WithBackground(css string) Option {
	return func(s *Surface) { s.background = css }
}

// WithLogger sets the logger used for skipped commands.
func WithLogger(l *slog.Logger) Option {
	return func(s *Surface) { s.log = l }
}

// New allocates a surface of width x height logical pixels.
func New(width, height int, ratio float64, fonts *engine.FontMeasurer, opts ...Option) *Surface {
	s := &Surface{fonts: fonts, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	s.setSize(width, height, ratio)
	s.dc = gg.NewContext(s.physical(width), s.physical(height))
	return s
}

func (s *Surface) setSize(width, height int, ratio float64) {
	if ratio <= 0 {
		ratio = 1
	}
	s.width, s.height, s.ratio = width, height, ratio
	s.device = engine.Scale(ratio, ratio)
}

func (s *Surface) physical(n int) int {
	return max(1, int(math.Round(float64(n)*s.ratio)))
}

// Resize reallocates the backing bitmap.
func (s *Surface) Resize(width, height int, ratio float64) error {
	s.setSize(width, height, ratio)
	if err := s.dc.Resize(s.physical(width), s.physical(height)); err != nil {
		return fmt.Errorf("resize surface: %w", err)
	}
	return nil
}

// Size returns the logical size and pixel ratio.
func (s *Surface) Size() (width, height int, ratio float64) {
	return s.width, s.height, s.ratio
}

// Draw clears the surface and replays the commands in order.
func (s *Surface) Draw(commands []engine.DrawCommand) error {
	s.dc.Clear()
	if c, ok := engine.ParseColor(s.background); ok {
		r, g, b, a := c.Float()
		s.dc.ClearWithColor(gg.RGBA{R: r, G: g, B: b, A: a})
	}
	for i := range commands {
		if err := s.draw(&commands[i]); err != nil {
			return fmt.Errorf("draw command %d (%s): %w", i, commands[i].Op, err)
		}
	}
	return nil
}

func (s *Surface) draw(cmd *engine.DrawCommand) error {
	switch cmd.Op {
	case engine.OpPath:
		return s.drawPath(cmd)
	case engine.OpText:
		s.drawText(cmd)
	case engine.OpImage:
		s.drawImage(cmd)
	default:
		return fmt.Errorf("unknown op %q", cmd.Op)
	}
	return nil
}

func (s *Surface) setPath(p geometry.Path) {
	s.dc.ClearPath()
	for _, c := range s.device.TransformPath(p) {
		a := c.Args
		switch c.Op {
		case geometry.OpMove:
			s.dc.MoveTo(a[0], a[1])
		case geometry.OpLine:
			s.dc.LineTo(a[0], a[1])
		case geometry.OpQuad:
			s.dc.QuadraticTo(a[0], a[1], a[2], a[3])
		case geometry.OpCubic:
			s.dc.CubicTo(a[0], a[1], a[2], a[3], a[4], a[5])
		case geometry.OpClose:
			s.dc.ClosePath()
		}
	}
}

func (s *Surface) drawPath(cmd *engine.DrawCommand) error {
	s.setPath(cmd.Path)
	defer s.dc.ClearPath()

	filled := false
	if cmd.FillGradient != nil {
		s.dc.SetFillBrush(s.gradient(cmd.FillGradient, cmd.Opacity))
		filled = true
	} else if s.setColor(cmd.Fill, cmd.Opacity) {
		filled = true
	}
	if filled {
		if err := s.dc.FillPreserve(); err != nil {
			return err
		}
	}

	if cmd.Stroke == "" || !s.setColor(cmd.Stroke, cmd.Opacity) {
		return nil
	}
	s.dc.SetLineWidth(cmd.StrokeWidth * s.ratio)
	if len(cmd.LineDash) > 0 {
		dash := make([]float64, len(cmd.LineDash))
		for i, d := range cmd.LineDash {
			dash[i] = d * s.ratio
		}
		s.dc.SetDash(dash...)
		defer s.dc.ClearDash()
	}
	return s.dc.StrokePreserve()
}

// setColor selects a solid brush, folding opacity into alpha. It returns
// false when the color is empty or unparseable.
func (s *Surface) setColor(css string, opacity float64) bool {
	c, ok := engine.ParseColor(css)
	if !ok {
		if css != "" {
			s.log.Debug("unsupported color", "color", css)
		}
		return false
	}
	r, g, b, a := c.Float()
	s.dc.SetRGBA(r, g, b, a*opacity)
	return true
}

func (s *Surface) gradient(g *engine.Gradient, opacity float64) gg.Brush {
	x0, y0 := s.device.TransformPoint(g.X0, g.Y0)
	x1, y1 := s.device.TransformPoint(g.X1, g.Y1)
	brush := gg.NewLinearGradientBrush(x0, y0, x1, y1)
	for _, stop := range g.Stops {
		c, ok := engine.ParseColor(stop.Color)
		if !ok {
			continue
		}
		r, gr, b, a := c.Float()
		brush.AddColorStop(stop.Offset, gg.RGBA{R: r, G: gr, B: b, A: a * opacity})
	}
	return brush
}

func (s *Surface) drawText(cmd *engine.DrawCommand) {
	if s.fonts == nil || cmd.Font == nil || !s.setColor(cmd.Fill, cmd.Opacity) {
		return
	}
	s.dc.SetFont(s.fonts.Face(*cmd.Font, s.ratio))
	x, y := s.device.TransformPoint(cmd.X, cmd.Y)
	s.dc.DrawString(cmd.Text, x, y)
}

func (s *Surface) drawImage(cmd *engine.DrawCommand) {
	if s.images == nil {
		return
	}
	img, ok := s.images.Image(cmd.ImageSrc)
	if !ok {
		s.log.Debug("image not found", "src", cmd.ImageSrc)
		return
	}
	x, y := s.device.TransformPoint(cmd.X, cmd.Y)
	s.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:         x,
		Y:         y,
		DstWidth:  cmd.Width * s.ratio,
		DstHeight: cmd.Height * s.ratio,
		Opacity:   cmd.Opacity,
	})
}

// Image returns the current frame.
func (s *Surface) Image() image.Image {
	return s.dc.Image()
}

// EncodePNG writes the current frame as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	return s.dc.EncodePNG(w)
}

// Close releases the backing bitmap.
func (s *Surface) Close() error {
	return s.dc.Close()
}
