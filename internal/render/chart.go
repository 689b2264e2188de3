package render

import (
	"fmt"
	"html"
	"io"
	"time"

	"AtlasStatus/internal/calculator"
	"AtlasStatus/internal/model"
	"AtlasStatus/internal/viewer"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Outcome is the result of drawing one chart.
type Outcome string

const (
	OutcomeDrawn Outcome = "drawn"
	OutcomeBlank Outcome = "blank"
)

const (
	DefaultChartWidth  = 960
	DefaultChartHeight = 320
	DefaultRangeHeight = 90

	// fraction of the value range added above and below the lines
	valuePadding = 0.05
)

var (
	highlightColor = drawing.ColorFromHex("888888")
	selectionColor = drawing.ColorFromHex("3b6ea8")
)

// BlankSVG writes an empty canvas. Failed charts and empty windows render as this.
func BlankSVG(w io.Writer, width, height int) error {
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d"><rect width="%d" height="%d" fill="#ffffff"/></svg>`,
		width, height, width, height, width, height)
	return err
}

// ChartSVG draws the visible window of c: one line per value column, smoothed with the
// chart's roll period, the value axis labelled through the chart's formatter.
func ChartSVG(w io.Writer, c *viewer.ChartView, width, height int) (Outcome, error) {
	if c.State() != viewer.StateReady {
		return OutcomeBlank, BlankSVG(w, width, height)
	}
	times, cols := c.Visible()
	if len(times) == 0 {
		return OutcomeBlank, BlankSVG(w, width, height)
	}
	low, high, ok := c.ValueBounds()
	if !ok {
		return OutcomeBlank, BlankSVG(w, width, height)
	}
	low, high, err := calculator.PadRange(low, high, valuePadding)
	if err != nil {
		return OutcomeBlank, BlankSVG(w, width, height)
	}

	series := lineSeries(c.Columns(), times, cols)
	if at, ok := c.Highlight(); ok && c.VisibleWindow().Contains(at) {
		series = append(series, marker(fmt.Sprintf("%s %s", at.UTC().Format("2006-01-02 15:04"), highlightLabel(c)), at, low, high, highlightColor))
	}

	win := c.VisibleWindow()
	ch := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 12}},
		XAxis: chart.XAxis{
			ValueFormatter: timeFormatter(win),
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(win.Start), Max: chart.TimeToFloat64(win.End)},
		},
		YAxis: chart.YAxis{
			ValueFormatter: valueFormatter(c.Formatter()),
			Range:          &chart.ContinuousRange{Min: low, Max: high},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.SVG, w); err != nil {
		return OutcomeBlank, fmt.Errorf("render %s: %w", c.Name(), err)
	}
	return OutcomeDrawn, nil
}

// RangeSVG draws the range selector: the whole smoothed series with the visible window
// marked by two handles.
func RangeSVG(w io.Writer, c *viewer.ChartView, width, height int) (Outcome, error) {
	sel := c.RangeSelector()
	extent, ok := sel.Extent()
	if !ok {
		return OutcomeBlank, BlankSVG(w, width, height)
	}
	times, cols := sel.Overview()
	if len(times) == 0 {
		return OutcomeBlank, BlankSVG(w, width, height)
	}
	low, high, err := calculator.ValueRange(cols, 0, len(times))
	if err != nil {
		return OutcomeBlank, BlankSVG(w, width, height)
	}
	if low, high, err = calculator.PadRange(low, high, valuePadding); err != nil {
		return OutcomeBlank, BlankSVG(w, width, height)
	}

	series := lineSeries(c.Columns(), times, cols)
	win := sel.Selection()
	for _, t := range []time.Time{win.Start, win.End} {
		if extent.Contains(t) {
			series = append(series, marker("", t, low, high, selectionColor))
		}
	}

	ch := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 4, Left: 16, Right: 16, Bottom: 4}},
		XAxis: chart.XAxis{
			ValueFormatter: timeFormatter(extent),
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(extent.Start), Max: chart.TimeToFloat64(extent.End)},
		},
		YAxis: chart.YAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: low, Max: high},
		},
		Series: series,
	}
	if err := ch.Render(chart.SVG, w); err != nil {
		return OutcomeBlank, fmt.Errorf("render %s range: %w", c.Name(), err)
	}
	return OutcomeDrawn, nil
}

func lineSeries(names []string, times []time.Time, cols [][]float64) []chart.Series {
	out := make([]chart.Series, 0, len(cols)+2)
	for i, col := range cols {
		name := fmt.Sprintf("column %d", i+1)
		if i < len(names) {
			// go-chart writes series names into SVG text as-is
			name = html.EscapeString(names[i])
		}
		out = append(out, chart.TimeSeries{
			Name: name,
			Style: chart.Style{
				StrokeColor: chart.GetDefaultColor(i),
				StrokeWidth: 1.5,
			},
			XValues: times,
			YValues: col,
		})
	}
	return out
}

// marker is a vertical line at t spanning the value axis.
func marker(name string, t time.Time, low, high float64, color drawing.Color) chart.TimeSeries {
	return chart.TimeSeries{
		Name: html.EscapeString(name),
		Style: chart.Style{
			StrokeColor:     color,
			StrokeWidth:     1,
			StrokeDashArray: []float64{4, 3},
		},
		XValues: []time.Time{t, t},
		YValues: []float64{low, high},
	}
}

func highlightLabel(c *viewer.ChartView) string {
	vals, ok := c.HighlightedValues()
	if !ok {
		return ""
	}
	f := c.Formatter()
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += " / "
		}
		out += f.Format(v)
	}
	return out
}

func valueFormatter(f viewer.ValueFormatter) chart.ValueFormatter {
	return func(v interface{}) string {
		if n, ok := v.(float64); ok {
			return f.Format(n)
		}
		return ""
	}
}

// timeFormatter picks a tick layout to suit the window width.
func timeFormatter(w model.Window) chart.ValueFormatter {
	switch d := w.Duration(); {
	case d <= 2*24*time.Hour:
		return chart.TimeValueFormatterWithFormat("01-02 15:04")
	case d <= 400*24*time.Hour:
		return chart.TimeValueFormatterWithFormat("2006-01-02")
	}
	return chart.TimeValueFormatterWithFormat("2006-01")
}
