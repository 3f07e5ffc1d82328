// Package export renders chart documents to SVG or PNG, for the HTTP API
// and the command line.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/pgdash/canvaschart/internal/chart"
	"github.com/pgdash/canvaschart/internal/document"
	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/render/raster"
	"github.com/pgdash/canvaschart/internal/render/vector"
)

type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(s), ".")) {
	case FormatSVG, "":
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("invalid format %q: must be svg or png", s)
}

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Renderer turns documents into files. All fields are optional: without
// fonts text is measured by estimate and not drawn on PNGs, without images
// image shapes are skipped on PNGs, and without a loader documents that
// reference stored series are rejected.
type Renderer struct {
	Fonts  *engine.FontMeasurer
	Images raster.ImageSource
	Loader document.Loader
	Logger *slog.Logger
	// Defaults fill what uploaded documents leave out.
	Defaults document.Defaults
}

// Render writes doc in format f.
func (r *Renderer) Render(ctx context.Context, doc *document.Document, f Format, w io.Writer) error {
	log := r.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if err := doc.LoadSeries(ctx, r.Loader); err != nil {
		return err
	}

	opts := chart.Options{Logger: log}
	if r.Fonts != nil {
		opts.Measurer = r.Fonts
	}
	if f == FormatPNG {
		surfaceOpts := []raster.Option{raster.WithLogger(log)}
		if r.Images != nil {
			surfaceOpts = append(surfaceOpts, raster.WithImages(r.Images))
		}
		if doc.Background != "" {
			surfaceOpts = append(surfaceOpts, raster.WithBackground(doc.Background))
		}
		opts.Surface = raster.New(int(math.Round(doc.Width)), int(math.Round(doc.Height)), doc.PixelRatio, r.Fonts, surfaceOpts...)
	}

	c, err := doc.Mount(opts, nil)
	if err != nil {
		if opts.Surface != nil {
			opts.Surface.Close()
		}
		return err
	}
	defer c.Host.Close()

	if f == FormatPNG {
		if _, err := c.Host.Render(); err != nil {
			return err
		}
		return c.Host.WritePNG(w)
	}
	return c.Host.WriteSVG(w, vector.Options{Background: doc.Background, Title: doc.Title})
}
