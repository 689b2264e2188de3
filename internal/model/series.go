package model

import "time"

// Sample is one CSV row: a timestamp and one value per numeric column.
type Sample struct {
	Time   time.Time
	Values []float64
}

// TimeSeries holds the samples of one measured quantity as loaded from a CSV resource.
// A series is never modified after loading; a reload produces a new TimeSeries.
type TimeSeries struct {
	Name     string
	Source   string
	Columns  []string // value column labels, header order
	Samples  []Sample
	LoadedAt time.Time
}

// Len returns the number of samples.
func (ts *TimeSeries) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.Samples)
}

// Times returns the sample timestamps in order.
func (ts *TimeSeries) Times() []time.Time {
	times := make([]time.Time, ts.Len())
	for i, s := range ts.Samples {
		times[i] = s.Time
	}
	return times
}

// Column returns a copy of the values of column i.
func (ts *TimeSeries) Column(i int) []float64 {
	vals := make([]float64, ts.Len())
	for j, s := range ts.Samples {
		vals[j] = s.Values[i]
	}
	return vals
}

// Extent returns the window spanned by the first and last sample.
// A single-sample series gets a one-hour window so it stays drawable.
func (ts *TimeSeries) Extent() (Window, bool) {
	if ts.Len() == 0 {
		return Window{}, false
	}
	first := ts.Samples[0].Time
	last := ts.Samples[len(ts.Samples)-1].Time
	if !last.After(first) {
		last = first.Add(time.Hour)
	}
	return Window{Start: first, End: last}, true
}
