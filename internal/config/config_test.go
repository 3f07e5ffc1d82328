package config

import (
	"log/slog"
	"os"
	"slices"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "AUTH_SECRET", "LOG_LEVEL", "CHART_WIDTH",
		"CHART_HEIGHT", "CHART_PIXEL_RATIO", "ASSET_DIR", "FONT_SIZE", "EXTENT_DEBOUNCE", "RESIZE_SETTLE", "MAX_SAMPLES"} {
		// Setenv registers the restore; the variable must be absent, not empty.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.ChartWidth != 800 || cfg.ChartHeight != 400 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.ExtentDebounce != 200*time.Millisecond || cfg.ResizeSettle != 50*time.Millisecond {
		t.Errorf("timings = %v, %v", cfg.ExtentDebounce, cfg.ResizeSettle)
	}
	if cfg.MaxSamples != 10000 {
		t.Errorf("MaxSamples = %d", cfg.MaxSamples)
	}
	if cfg.Font() != "12px sans-serif" {
		t.Errorf("Font = %q", cfg.Font())
	}
	if cfg.AssetDir != "./data/assets" {
		t.Errorf("AssetDir = %q", cfg.AssetDir)
	}
	def := cfg.ChartDefaults()
	if def.Width != 800 || def.Height != 400 || def.PixelRatio != 1 || def.Font != "12px sans-serif" || def.MaxSamples != 10000 {
		t.Errorf("ChartDefaults = %+v", def)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("EXTENT_DEBOUNCE", "1s")
	t.Setenv("FONT_SIZE", "10.5")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 || cfg.ExtentDebounce != time.Second {
		t.Errorf("got %+v", cfg)
	}
	if cfg.Font() != "10.5px sans-serif" {
		t.Errorf("Font = %q", cfg.Font())
	}
}

func TestLoadRejectsBadNumber(t *testing.T) {
	t.Setenv("PORT", "eighty")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		c := Config{LogLevel: tt.in}
		if got := c.Level(); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOrigins(t *testing.T) {
	c := Config{AllowedOrigins: " http://a , ,http://b"}
	if got := c.Origins(); !slices.Equal(got, []string{"http://a", "http://b"}) {
		t.Errorf("Origins = %v", got)
	}
	if got := c.OriginHosts(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("OriginHosts = %v", got)
	}
}
