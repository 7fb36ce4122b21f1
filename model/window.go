package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the ISO date format used everywhere in the engine
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses an ISO date
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DateWindow is an inclusive date span, or an explicit set of dates
// when Points is set (two-date comparisons).
type DateWindow struct {
	Start  time.Time
	End    time.Time
	Points []time.Time
}

// SingleDay returns a window covering one day
func SingleDay(d time.Time) DateWindow {
	d = Day(d)
	return DateWindow{Start: d, End: d}
}

// NewRange returns the inclusive window start..end
func NewRange(start, end time.Time) DateWindow {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		start, end = end, start
	}
	return DateWindow{Start: start, End: end}
}

// NewPoints returns a window over exactly the given dates
func NewPoints(dates []time.Time) DateWindow {
	points := make([]time.Time, len(dates))
	for i, d := range dates {
		points[i] = Day(d)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })
	return DateWindow{Start: points[0], End: points[len(points)-1], Points: points}
}

// IsSingleDay reports whether the window covers exactly one date
func (w DateWindow) IsSingleDay() bool {
	return len(w.Points) <= 1 && w.Start.Equal(w.End)
}

// Days is the number of calendar days from Start to End inclusive
func (w DateWindow) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Contains reports whether d falls in the window
func (w DateWindow) Contains(d time.Time) bool {
	d = Day(d)
	if len(w.Points) > 0 {
		for _, p := range w.Points {
			if p.Equal(d) {
				return true
			}
		}
		return false
	}
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w DateWindow) String() string {
	if len(w.Points) > 1 {
		parts := make([]string, len(w.Points))
		for i, p := range w.Points {
			parts[i] = p.Format(DateLayout)
		}
		return strings.Join(parts, ", ")
	}
	if w.Start.Equal(w.End) {
		return w.Start.Format(DateLayout)
	}
	return fmt.Sprintf("%s..%s", w.Start.Format(DateLayout), w.End.Format(DateLayout))
}

// SpanOf returns the window spanned by dates, nil when dates is empty
func SpanOf(dates []time.Time) *DateWindow {
	if len(dates) == 0 {
		return nil
	}
	start, end := Day(dates[0]), Day(dates[0])
	for _, d := range dates[1:] {
		d = Day(d)
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	return &DateWindow{Start: start, End: end}
}

type dateWindowJSON struct {
	Start  string   `json:"start"`
	End    string   `json:"end"`
	Points []string `json:"points,omitempty"`
}

// MarshalJSON renders dates as ISO strings
func (w DateWindow) MarshalJSON() ([]byte, error) {
	out := dateWindowJSON{
		Start: w.Start.Format(DateLayout),
		End:   w.End.Format(DateLayout),
	}
	for _, p := range w.Points {
		out.Points = append(out.Points, p.Format(DateLayout))
	}
	return json.Marshal(out)
}
