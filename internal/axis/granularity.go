// Package axis chooses time-axis ticks for a visible date range.
package axis

import "time"

// Unit is the calendar field a granularity steps through.
type Unit int

const (
	Year Unit = iota
	Month
	Day
	Hour
	Minute
	Second
	Millisecond
)

// Granularity is one entry of the tick catalogue: a step of Step units and
// the label layout used at that resolution.
type Granularity struct {
	Name   string
	Unit   Unit
	Step   int
	Layout string
}

const (
	dayLength   = 24 * time.Hour
	monthLength = time.Duration(30.436875 * float64(dayLength))
	yearLength  = time.Duration(365.2425 * float64(dayLength))
)

var catalogue = []Granularity{
	{"100 years", Year, 100, "2006"},
	{"50 years", Year, 50, "2006"},
	{"20 years", Year, 20, "2006"},
	{"10 years", Year, 10, "2006"},
	{"5 years", Year, 5, "2006"},
	{"2 years", Year, 2, "2006"},
	{"1 year", Year, 1, "2006"},
	{"6 months", Month, 6, "Jan 2006"},
	{"3 months", Month, 3, "Jan 2006"},
	{"2 months", Month, 2, "Jan 2006"},
	{"1 month", Month, 1, "Jan 2006"},
	{"15 days", Day, 15, "Jan 02"},
	{"7 days", Day, 7, "Jan 02"},
	{"3 days", Day, 3, "Jan 02"},
	{"2 days", Day, 2, "Jan 02"},
	{"1 day", Day, 1, "Jan 02"},
	{"12 hours", Hour, 12, "15:04"},
	{"6 hours", Hour, 6, "15:04"},
	{"3 hours", Hour, 3, "15:04"},
	{"2 hours", Hour, 2, "15:04"},
	{"1 hour", Hour, 1, "15:04"},
	{"30 minutes", Minute, 30, "15:04"},
	{"20 minutes", Minute, 20, "15:04"},
	{"15 minutes", Minute, 15, "15:04"},
	{"10 minutes", Minute, 10, "15:04"},
	{"5 minutes", Minute, 5, "15:04"},
	{"2 minutes", Minute, 2, "15:04"},
	{"1 minute", Minute, 1, "15:04"},
	{"30 seconds", Second, 30, "15:04:05"},
	{"20 seconds", Second, 20, "15:04:05"},
	{"15 seconds", Second, 15, "15:04:05"},
	{"10 seconds", Second, 10, "15:04:05"},
	{"5 seconds", Second, 5, "15:04:05"},
	{"2 seconds", Second, 2, "15:04:05"},
	{"1 second", Second, 1, "15:04:05"},
	{"500 milliseconds", Millisecond, 500, "15:04:05.000"},
	{"200 milliseconds", Millisecond, 200, "15:04:05.000"},
	{"100 milliseconds", Millisecond, 100, "15:04:05.000"},
	{"50 milliseconds", Millisecond, 50, "15:04:05.000"},
	{"20 milliseconds", Millisecond, 20, "15:04:05.000"},
	{"10 milliseconds", Millisecond, 10, "15:04:05.000"},
	{"5 milliseconds", Millisecond, 5, "15:04:05.000"},
	{"2 milliseconds", Millisecond, 2, "15:04:05.000"},
	{"1 millisecond", Millisecond, 1, "15:04:05.000"},
}

// Granularities returns the catalogue from coarsest to finest.
func Granularities() []Granularity {
	out := make([]Granularity, len(catalogue))
	copy(out, catalogue)
	return out
}

// Approx is the nominal length of one step. Months and years use their
// mean Gregorian length.
func (g Granularity) Approx() time.Duration {
	n := time.Duration(g.Step)
	switch g.Unit {
	case Year:
		return n * yearLength
	case Month:
		return n * monthLength
	case Day:
		return n * dayLength
	case Hour:
		return n * time.Hour
	case Minute:
		return n * time.Minute
	case Second:
		return n * time.Second
	}
	return n * time.Millisecond
}

// Floor rounds t down to the grid origin of g in t's location.
func (g Granularity) Floor(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	loc := t.Location()
	switch g.Unit {
	case Year:
		return time.Date(floorTo(y, g.Step), time.January, 1, 0, 0, 0, 0, loc)
	case Month:
		return time.Date(y, time.Month(floorTo(int(mo)-1, g.Step)+1), 1, 0, 0, 0, 0, loc)
	case Day:
		return time.Date(y, mo, floorTo(d-1, g.Step)+1, 0, 0, 0, 0, loc)
	case Hour:
		return time.Date(y, mo, d, floorTo(h, g.Step), 0, 0, 0, loc)
	case Minute:
		return time.Date(y, mo, d, h, floorTo(mi, g.Step), 0, 0, loc)
	case Second:
		return time.Date(y, mo, d, h, mi, floorTo(s, g.Step), 0, loc)
	}
	ms := t.Nanosecond() / int(time.Millisecond)
	return time.Date(y, mo, d, h, mi, s, floorTo(ms, g.Step)*int(time.Millisecond), loc)
}

// Next advances t by one step.
func (g Granularity) Next(t time.Time) time.Time {
	switch g.Unit {
	case Year:
		return t.AddDate(g.Step, 0, 0)
	case Month:
		return t.AddDate(0, g.Step, 0)
	case Day:
		return t.AddDate(0, 0, g.Step)
	}
	return t.Add(g.Approx())
}

// Format renders t at this granularity.
func (g Granularity) Format(t time.Time) string {
	return t.Format(g.Layout)
}

func floorTo(v, step int) int {
	if step <= 1 {
		return v
	}
	if v < 0 {
		return -((-v + step - 1) / step) * step
	}
	return v / step * step
}
