package collector

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"AtlasStatus/internal/model"
)

// timeLayouts are tried in order for the date column. The upstream exporter writes
// "2016-07-01 12:00:00 UTC"; the others cover hand-made and ISO-8601 exports.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// ParseError reports a malformed CSV resource. Line is 1-based; 0 means the whole file.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line == 0:
		return fmt.Sprintf("csv: %v", e.Err)
	case e.Column != "":
		return fmt.Sprintf("csv line %d, column %q: %v", e.Line, e.Column, e.Err)
	default:
		return fmt.Sprintf("csv line %d: %v", e.Line, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	ErrMissingHeader = errors.New("missing header row")
	ErrNoValueColumn = errors.New("header needs a date column and at least one value column")
)

// ParseCSV reads a header row followed by rows of "date,value[,value...]".
// Every value must parse as a float and every date with one of the accepted layouts;
// the first violation aborts the parse. Rows are sorted by time on return.
func ParseCSV(r io.Reader, name string) (*model.TimeSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ParseError{Err: ErrMissingHeader}
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}
	if len(header) < 2 {
		return nil, &ParseError{Line: 1, Err: ErrNoValueColumn}
	}
	if _, err := ParseTime(header[0]); err == nil {
		// First row is data, not labels.
		return nil, &ParseError{Line: 1, Err: ErrMissingHeader}
	}
	columns := make([]string, len(header)-1)
	for i, h := range header[1:] {
		columns[i] = strings.TrimSpace(h)
	}

	ts := &model.TimeSeries{Name: name, Columns: columns}
	sorted := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Line: pe.Line, Err: pe.Err}
			}
			return nil, &ParseError{Err: err}
		}
		line, _ := cr.FieldPos(0)
		t, err := ParseTime(record[0])
		if err != nil {
			return nil, &ParseError{Line: line, Column: strings.TrimSpace(header[0]), Err: err}
		}
		values := make([]float64, len(columns))
		for i, cell := range record[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &ParseError{Line: line, Column: columns[i], Err: fmt.Errorf("non-numeric value %q", cell)}
			}
			values[i] = v
		}
		if n := len(ts.Samples); n > 0 && t.Before(ts.Samples[n-1].Time) {
			sorted = false
		}
		ts.Samples = append(ts.Samples, model.Sample{Time: t, Values: values})
	}
	if !sorted {
		sortSamples(ts.Samples)
	}
	return ts, nil
}

// ParseTime accepts every date layout the CSV exporters and form inputs use. Times without a
// zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}
