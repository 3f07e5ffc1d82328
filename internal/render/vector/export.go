// Package vector writes resolved commands as an SVG document.
package vector

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/geometry"
)

// Options configure an export.
type Options struct {
	// Background fills the document before any command. Empty leaves it
	// transparent.
	Background string
	Title      string
}

// errWriter remembers the first write error so svgo, which ignores
// errors, can be checked once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// Export writes an SVG of width x height logical pixels replaying the
// commands in order.
func Export(w io.Writer, commands []engine.DrawCommand, width, height int, opts Options) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(width, height)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}

	gradientIDs := writeGradients(canvas, commands)

	if c, ok := engine.ParseColor(opts.Background); ok {
		canvas.Rect(0, 0, width, height, "fill:"+paint(c))
	}
	for i := range commands {
		cmd := &commands[i]
		switch cmd.Op {
		case engine.OpPath:
			writePath(canvas, cmd, gradientIDs[i])
		case engine.OpText:
			writeText(canvas, cmd)
		case engine.OpImage:
			writeImage(canvas, cmd)
		default:
			return fmt.Errorf("export command %d: unknown op %q", i, cmd.Op)
		}
	}
	canvas.End()
	return ew.err
}

// writeGradients emits a <defs> block with one userSpaceOnUse gradient per
// command that needs one, returning the ids by command index.
func writeGradients(canvas *svg.SVG, commands []engine.DrawCommand) map[int]string {
	ids := make(map[int]string)
	for i, cmd := range commands {
		if cmd.Op == engine.OpPath && cmd.FillGradient != nil {
			ids[i] = fmt.Sprintf("grad%d", len(ids))
		}
	}
	if len(ids) == 0 {
		return ids
	}
	canvas.Def()
	for i, cmd := range commands {
		id, ok := ids[i]
		if !ok {
			continue
		}
		g := cmd.FillGradient
		fmt.Fprintf(canvas.Writer, `<linearGradient id="%s" gradientUnits="userSpaceOnUse" x1="%s" y1="%s" x2="%s" y2="%s">`,
			id, num(g.X0), num(g.Y0), num(g.X1), num(g.Y1))
		for _, stop := range g.Stops {
			c, ok := engine.ParseColor(stop.Color)
			if !ok {
				continue
			}
			fmt.Fprintf(canvas.Writer, `<stop offset="%s" stop-color="%s" stop-opacity="%s"/>`,
				num(stop.Offset), c.WithAlpha(1).String(), num(c.A))
		}
		fmt.Fprintln(canvas.Writer, `</linearGradient>`)
	}
	canvas.DefEnd()
	return ids
}

func writePath(canvas *svg.SVG, cmd *engine.DrawCommand, gradientID string) {
	var style []string
	switch {
	case gradientID != "":
		style = append(style, "fill:url(#"+gradientID+")")
	case cmd.Fill != "":
		style = append(style, fillStyle("fill", cmd.Fill)...)
	default:
		style = append(style, "fill:none")
	}
	if cmd.Stroke != "" {
		style = append(style, fillStyle("stroke", cmd.Stroke)...)
		style = append(style, "stroke-width:"+num(cmd.StrokeWidth))
		if len(cmd.LineDash) > 0 {
			parts := make([]string, len(cmd.LineDash))
			for i, d := range cmd.LineDash {
				parts[i] = num(d)
			}
			style = append(style, "stroke-dasharray:"+strings.Join(parts, ","))
		}
	}
	if cmd.Opacity < 1 {
		style = append(style, "opacity:"+num(cmd.Opacity))
	}
	canvas.Path(PathData(cmd.Path), strings.Join(style, ";"))
}

func writeText(canvas *svg.SVG, cmd *engine.DrawCommand) {
	if cmd.Font == nil {
		return
	}
	style := []string{
		"font-family:" + cmd.Font.Family,
		"font-size:" + num(cmd.Font.Size) + "px",
	}
	if cmd.Font.Bold {
		style = append(style, "font-weight:bold")
	}
	style = append(style, fillStyle("fill", cmd.Fill)...)
	if cmd.Opacity < 1 {
		style = append(style, "opacity:"+num(cmd.Opacity))
	}
	// svgo takes integer coordinates; a translate keeps sub-pixel placement.
	canvas.Gtransform(fmt.Sprintf("translate(%s,%s)", num(cmd.X), num(cmd.Y)))
	canvas.Text(0, 0, cmd.Text, strings.Join(style, ";"))
	canvas.Gend()
}

func writeImage(canvas *svg.SVG, cmd *engine.DrawCommand) {
	canvas.Gtransform(fmt.Sprintf("translate(%s,%s)", num(cmd.X), num(cmd.Y)))
	var style []string
	if cmd.Opacity < 1 {
		style = append(style, "opacity:"+num(cmd.Opacity))
	}
	w := int(math.Round(cmd.Width))
	h := int(math.Round(cmd.Height))
	if len(style) > 0 {
		canvas.Image(0, 0, w, h, cmd.ImageSrc, strings.Join(style, ";"))
	} else {
		canvas.Image(0, 0, w, h, cmd.ImageSrc)
	}
	canvas.Gend()
}

// fillStyle splits a CSS color into an opaque color and a separate
// opacity property, which every SVG consumer understands.
func fillStyle(prop, css string) []string {
	c, ok := engine.ParseColor(css)
	if !ok {
		return []string{prop + ":none"}
	}
	out := []string{prop + ":" + paint(c)}
	if c.A < 1 {
		out = append(out, prop+"-opacity:"+num(c.A))
	}
	return out
}

func paint(c engine.Color) string {
	return c.WithAlpha(1).String()
}

// PathData renders a path as an SVG d attribute.
func PathData(p geometry.Path) string {
	var b strings.Builder
	for i, c := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(byte(c.Op))
		for _, v := range c.Args {
			b.WriteByte(' ')
			b.WriteString(num(v))
		}
	}
	return b.String()
}

// num formats with at most three decimals, well below a device pixel.
func num(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
