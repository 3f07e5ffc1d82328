package config

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/pgdash/canvaschart/internal/document"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	AuthSecret     string `envconfig:"AUTH_SECRET"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	AssetDir       string `envconfig:"ASSET_DIR" default:"./data/assets"`

	ChartWidth      float64       `envconfig:"CHART_WIDTH" default:"800"`
	ChartHeight     float64       `envconfig:"CHART_HEIGHT" default:"400"`
	ChartPixelRatio float64       `envconfig:"CHART_PIXEL_RATIO" default:"1"`
	FontSize        float64       `envconfig:"FONT_SIZE" default:"12"`
	ExtentDebounce  time.Duration `envconfig:"EXTENT_DEBOUNCE" default:"200ms"`
	ResizeSettle    time.Duration `envconfig:"RESIZE_SETTLE" default:"50ms"`
	MaxSamples      int           `envconfig:"MAX_SAMPLES" default:"10000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level maps LOG_LEVEL to a slog level. Unknown names mean info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginHosts returns the allowed origins without their scheme, the form
// websocket origin patterns use.
func (c *Config) OriginHosts() []string {
	origins := c.Origins()
	for i, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			origins[i] = host
		}
	}
	return origins
}

// Font is the CSS font shorthand for FONT_SIZE.
func (c *Config) Font() string {
	return strconv.FormatFloat(c.FontSize, 'f', -1, 64) + "px sans-serif"
}

// ChartDefaults fills what chart documents leave out.
func (c *Config) ChartDefaults() document.Defaults {
	return document.Defaults{
		Width:      c.ChartWidth,
		Height:     c.ChartHeight,
		PixelRatio: c.ChartPixelRatio,
		Font:       c.Font(),
		MaxSamples: c.MaxSamples,
	}
}
