package model

import (
	"fmt"
	"time"
)

// Window is the visible time range [Start, End] of a chart.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow validates that start is strictly before end.
func NewWindow(start, end time.Time) (Window, error) {
	if !start.Before(end) {
		return Window{}, fmt.Errorf("window start %s must be before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Window{Start: start, End: end}, nil
}

// LastDays returns the window of the last n calendar days ending at now.
func LastDays(now time.Time, days int) Window {
	return Window{Start: now.AddDate(0, 0, -days), End: now}
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Shift moves both bounds by d.
func (w Window) Shift(d time.Duration) Window {
	return Window{Start: w.Start.Add(d), End: w.End.Add(d)}
}

// Equal compares both bounds as instants.
func (w Window) Equal(o Window) bool {
	return w.Start.Equal(o.Start) && w.End.Equal(o.End)
}

// Clamp limits the window to extent. If the result would be empty the extent itself is returned.
func (w Window) Clamp(extent Window) Window {
	out := w
	if out.Start.Before(extent.Start) {
		out.Start = extent.Start
	}
	if out.End.After(extent.End) {
		out.End = extent.End
	}
	if !out.Start.Before(out.End) {
		return extent
	}
	return out
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
