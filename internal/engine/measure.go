package engine

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/pgdash/canvaschart/internal/shape"
)

// DefaultFontSize is used when a font string carries no pixel size.
const DefaultFontSize = 12

// Font is the subset of a CSS font shorthand the renderers honor.
type Font struct {
	Size   float64 `json:"size"`
	Bold   bool    `json:"bold,omitempty"`
	Family string  `json:"family,omitempty"`
}

// ParseFont reads a CSS font shorthand such as "bold 12px sans-serif".
func ParseFont(css string) Font {
	f := Font{Size: DefaultFontSize, Family: "sans-serif"}
	fields := strings.Fields(css)
	for i, tok := range fields {
		switch {
		case tok == "bold" || tok == "bolder":
			f.Bold = true
		case strings.HasSuffix(tok, "px"):
			if v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "px"), 64); err == nil && v > 0 {
				f.Size = v
			}
			if i+1 < len(fields) {
				f.Family = strings.Join(fields[i+1:], " ")
			}
			return f
		default:
			if w, err := strconv.Atoi(tok); err == nil && w >= 600 {
				f.Bold = true
			}
		}
	}
	return f
}

// String renders the font back to CSS shorthand.
func (f Font) String() string {
	weight := ""
	if f.Bold {
		weight = "bold "
	}
	family := f.Family
	if family == "" {
		family = "sans-serif"
	}
	return fmt.Sprintf("%s%spx %s", weight, strconv.FormatFloat(f.Size, 'f', -1, 64), family)
}

// Ascent and descent as fractions of the font size. Both backends place
// text from the same baseline, so these only need to be consistent.
const (
	ascentRatio  = 0.8
	descentRatio = 0.2
)

// TextMeasurer returns the advance width of s in logical pixels.
type TextMeasurer interface {
	MeasureText(s string, f Font) float64
}

// FixedWidth measures every rune as the same width.
type FixedWidth float64

func (w FixedWidth) MeasureText(s string, _ Font) float64 {
	return float64(utf8.RuneCountInString(s)) * float64(w)
}

// approxMeasurer estimates widths from the font size alone.
type approxMeasurer struct{}

func (approxMeasurer) MeasureText(s string, f Font) float64 {
	return float64(utf8.RuneCountInString(s)) * f.Size * 0.6
}

type measureKey struct {
	align  shape.Align
	length int
	font   Font
}

// DefaultMeasureCacheSize bounds a MeasureCache when no limit is given.
const DefaultMeasureCacheSize = 512

// MeasureCache memoizes text widths keyed by alignment, text length and
// font, not by the text itself. Two strings of equal length share an
// entry. The cache is dropped wholesale when it reaches its limit.
type MeasureCache struct {
	m     TextMeasurer
	limit int
	cache map[measureKey]float64
}

// NewMeasureCache wraps m. A nil m falls back to a size-based estimate.
func NewMeasureCache(m TextMeasurer, limit int) *MeasureCache {
	if m == nil {
		m = approxMeasurer{}
	}
	if limit <= 0 {
		limit = DefaultMeasureCacheSize
	}
	return &MeasureCache{m: m, limit: limit, cache: make(map[measureKey]float64)}
}

// Width returns the cached width for text of this length in this font.
func (c *MeasureCache) Width(s string, f Font, align shape.Align) float64 {
	key := measureKey{align: align, length: utf8.RuneCountInString(s), font: f}
	if w, ok := c.cache[key]; ok {
		return w
	}
	if len(c.cache) >= c.limit {
		c.cache = make(map[measureKey]float64)
	}
	w := c.m.MeasureText(s, f)
	c.cache[key] = w
	return w
}

// Len reports the number of cached entries.
func (c *MeasureCache) Len() int { return len(c.cache) }

// Reset drops every cached width.
func (c *MeasureCache) Reset() {
	c.cache = make(map[measureKey]float64)
}

type faceKey struct {
	size float64
	bold bool
}

// FontMeasurer measures text with the Go fonts through gogpu/gg/text. It
// also hands out faces to the raster backend so measurement and drawing
// use the same metrics.
type FontMeasurer struct {
	regular *text.FontSource
	bold    *text.FontSource

	mu    sync.Mutex
	faces map[faceKey]text.Face
}

// NewFontMeasurer loads the embedded Go Regular and Go Bold fonts.
func NewFontMeasurer() (*FontMeasurer, error) {
	regular, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load regular font: %w", err)
	}
	bold, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("load bold font: %w", err)
	}
	return &FontMeasurer{regular: regular, bold: bold, faces: make(map[faceKey]text.Face)}, nil
}

// Face returns a face for f scaled by ratio (the device pixel ratio).
func (m *FontMeasurer) Face(f Font, ratio float64) text.Face {
	key := faceKey{size: f.Size * ratio, bold: f.Bold}
	m.mu.Lock()
	defer m.mu.Unlock()
	if face, ok := m.faces[key]; ok {
		return face
	}
	src := m.regular
	if f.Bold {
		src = m.bold
	}
	face := src.Face(key.size)
	m.faces[key] = face
	return face
}

func (m *FontMeasurer) MeasureText(s string, f Font) float64 {
	w, _ := text.Measure(s, m.Face(f, 1))
	return w
}

// Close releases the font sources.
func (m *FontMeasurer) Close() error {
	m.mu.Lock()
	m.faces = make(map[faceKey]text.Face)
	m.mu.Unlock()
	if err := m.regular.Close(); err != nil {
		return err
	}
	return m.bold.Close()
}
