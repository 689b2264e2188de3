package viewer

import (
	"fmt"
	"time"

	"AtlasStatus/internal/model"
)

// RangeSelector is the full-extent overview under a chart. Selecting a span on it zooms the
// chart (and its group) to that span.
type RangeSelector struct {
	chart *ChartView
}

// RangeSelector returns the chart's range selector.
func (c *ChartView) RangeSelector() *RangeSelector {
	return &RangeSelector{chart: c}
}

// Extent is the span of all loaded samples.
func (r *RangeSelector) Extent() (model.Window, bool) {
	if r.chart.state != StateReady {
		return model.Window{}, false
	}
	return r.chart.series.Extent()
}

// Selection is the chart's visible window.
func (r *RangeSelector) Selection() model.Window {
	return r.chart.window
}

// Select moves the handles to [start, end], clamped to the data extent.
func (r *RangeSelector) Select(start, end time.Time) error {
	w, err := model.NewWindow(start, end)
	if err != nil {
		return err
	}
	extent, ok := r.Extent()
	if !ok {
		return fmt.Errorf("%s: %w", r.chart.Name(), ErrNotReady)
	}
	return r.chart.SetWindow(w.Clamp(extent))
}

// Overview returns every smoothed sample for drawing the miniature chart.
func (r *RangeSelector) Overview() ([]time.Time, [][]float64) {
	return r.chart.Displayed()
}
