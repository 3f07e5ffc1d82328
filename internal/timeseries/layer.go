// Package timeseries turns layers of {date, value} samples into chart
// shapes: it parses and caps the samples, derives scale domains, projects
// samples onto the plot area and picks a rendering mode per layer.
package timeseries

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
)

// DefaultMaxSamples caps each layer's sample count.
const DefaultMaxSamples = 10000

// dateLayouts are tried in order for string dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date is a sample timestamp given either as epoch milliseconds or as a
// string.
type Date struct {
	Millis int64
	Text   string
}

// DateMillis returns a numeric date.
func DateMillis(ms int64) Date { return Date{Millis: ms} }

// DateString returns a textual date.
func DateString(s string) Date { return Date{Text: s} }

// Parse returns the date in epoch milliseconds.
func (d Date) Parse() (int64, bool) {
	if d.Text == "" {
		return d.Millis, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, d.Text); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.Text != "" {
		return json.Marshal(d.Text)
	}
	return []byte(strconv.FormatInt(d.Millis, 10)), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*d = Date{}
		return json.Unmarshal(data, &d.Text)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("timeseries: date: %w", err)
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("timeseries: date %s: %w", n, err)
	}
	*d = Date{Millis: int64(f)}
	return nil
}

// RawSample is one caller-supplied data point.
type RawSample struct {
	Date  Date    `json:"date"`
	Value float64 `json:"value"`
}

// Range is an inclusive span of epoch milliseconds.
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Sample is a parsed data point. X and Y hold its projection onto the
// plot area for the unzoomed view; they are filled in by Prepare.
type Sample struct {
	Millis int64
	Value  float64
	X, Y   float64
}

// Layer is one series. The parsed, sorted samples are derived from
// RawData on first use and cached until SetData is called.
type Layer struct {
	Label        string      `json:"label"`
	Color        string      `json:"color"`
	RawData      []RawSample `json:"rawData"`
	FullExtent   *Range      `json:"fullExtent,omitempty"`
	Cols         []string    `json:"cols,omitempty"`
	GroupByValue string      `json:"groupByValue,omitempty"`

	parsed     []Sample
	minV, maxV float64
	ready      bool
}

// SetData replaces the raw samples and drops the derived cache.
func (l *Layer) SetData(raw []RawSample) {
	l.RawData = raw
	l.parsed = nil
	l.ready = false
}

// Samples returns the parsed samples sorted ascending by date. At most
// limit samples are kept, the first ones in input order; dropping any is
// logged as a warning. Samples with unparseable dates are skipped.
func (l *Layer) Samples(limit int, log *slog.Logger) []Sample {
	if l.ready {
		return l.parsed
	}
	if limit <= 0 {
		limit = DefaultMaxSamples
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	raw := l.RawData
	if len(raw) > limit {
		log.Warn("sample cap exceeded", "layer", l.Label, "count", len(raw), "cap", limit)
		raw = raw[:limit]
	}
	out := make([]Sample, 0, len(raw))
	for _, r := range raw {
		ms, ok := r.Date.Parse()
		if !ok {
			log.Debug("skipping sample with unparseable date", "layer", l.Label, "date", r.Date.Text)
			continue
		}
		out = append(out, Sample{Millis: ms, Value: r.Value})
	}
	// Stable keeps duplicate dates in input order.
	slices.SortStableFunc(out, func(a, b Sample) int { return cmp.Compare(a.Millis, b.Millis) })

	if len(out) > 0 {
		values := make([]float64, len(out))
		for i, s := range out {
			values[i] = s.Value
		}
		l.minV, l.maxV = floats.Min(values), floats.Max(values)
	}
	l.parsed = out
	l.ready = true
	return out
}

// Domain returns the cached value range. ok is false for an empty layer.
func (l *Layer) Domain() (lo, hi float64, ok bool) {
	if !l.ready || len(l.parsed) == 0 {
		return 0, 0, false
	}
	return l.minV, l.maxV, true
}
