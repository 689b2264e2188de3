package viewer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"AtlasStatus/internal/calculator"
	"AtlasStatus/internal/model"
)

// DefaultWindowDays is the width of the initial visible window, ending now.
const DefaultWindowDays = 60

// State is the lifecycle of a ChartView: Loading, then Ready or Failed.
type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Loader fetches and parses a series. collector.Collector implements it.
type Loader interface {
	Load(ctx context.Context, source string) (*model.TimeSeries, error)
}

// ChartConfig holds one chart's settings.
type ChartConfig struct {
	Name       string
	Title      string
	Source     string
	WindowDays int
	RollPeriod int
	Unit       Unit
}

type valueBounds struct {
	low, high float64
}

// ChartView renders one series. It is not safe for concurrent use; Dashboard serializes access.
type ChartView struct {
	cfg       ChartConfig
	state     State
	series    *model.TimeSeries
	loadErr   *DataLoadError
	formatter ValueFormatter

	window     model.Window
	rollPeriod int
	displayed  [][]float64 // rolling mean per column, same length as the series

	highlight    time.Time
	hasHighlight bool

	// set by a group synchronizing value ranges
	valueOverride *valueBounds
	group         *ChartGroup
}

// NewChartView creates a chart in the Loading state with the default window ending at now.
func NewChartView(cfg ChartConfig, now time.Time) (*ChartView, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("chart name is required")
	}
	if cfg.Source == "" {
		return nil, fmt.Errorf("chart %s: source is required", cfg.Name)
	}
	if cfg.WindowDays <= 0 {
		return nil, fmt.Errorf("chart %s: window days must be positive", cfg.Name)
	}
	if cfg.RollPeriod < 1 {
		return nil, fmt.Errorf("chart %s: %w", cfg.Name, ErrInvalidPeriod)
	}
	formatter, err := FormatterFor(cfg.Unit)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", cfg.Name, err)
	}
	if cfg.Title == "" {
		cfg.Title = cfg.Name
	}
	return &ChartView{
		cfg:        cfg,
		state:      StateLoading,
		formatter:  formatter,
		window:     model.LastDays(now, cfg.WindowDays),
		rollPeriod: cfg.RollPeriod,
	}, nil
}

// Initialize creates a chart and loads its series. On a load failure the returned chart is
// non-nil and Failed, and the error is a *DataLoadError; the caller renders it blank.
func Initialize(ctx context.Context, loader Loader, cfg ChartConfig, now time.Time) (*ChartView, error) {
	c, err := NewChartView(cfg, now)
	if err != nil {
		return nil, err
	}
	if err := c.Load(ctx, loader); err != nil {
		return c, err
	}
	return c, nil
}

// Load fetches the series. It is only valid in the Loading state.
func (c *ChartView) Load(ctx context.Context, loader Loader) error {
	if c.state != StateLoading {
		return fmt.Errorf("load %s: chart is %s", c.cfg.Name, c.state)
	}
	ts, err := loader.Load(ctx, c.cfg.Source)
	if err != nil {
		c.state = StateFailed
		c.loadErr = &DataLoadError{Chart: c.cfg.Name, Source: c.cfg.Source, Err: err}
		return c.loadErr
	}
	c.series = ts
	if err := c.recompute(); err != nil {
		c.series = nil
		c.state = StateFailed
		c.loadErr = &DataLoadError{Chart: c.cfg.Name, Source: c.cfg.Source, Err: err}
		return c.loadErr
	}
	c.state = StateReady
	return nil
}

func (c *ChartView) recompute() error {
	columns := make([][]float64, len(c.series.Columns))
	for i := range columns {
		columns[i] = c.series.Column(i)
	}
	displayed, err := calculator.RollingMeanColumns(columns, c.rollPeriod)
	if err != nil {
		return err
	}
	c.displayed = displayed
	return nil
}

func (c *ChartView) Name() string              { return c.cfg.Name }
func (c *ChartView) Title() string             { return c.cfg.Title }
func (c *ChartView) Source() string            { return c.cfg.Source }
func (c *ChartView) Unit() Unit                { return c.cfg.Unit }
func (c *ChartView) Formatter() ValueFormatter { return c.formatter }
func (c *ChartView) State() State              { return c.state }
func (c *ChartView) Series() *model.TimeSeries { return c.series }
func (c *ChartView) RollPeriod() int           { return c.rollPeriod }
func (c *ChartView) Group() *ChartGroup        { return c.group }

// Err returns the load error of a Failed chart, nil otherwise.
func (c *ChartView) Err() error {
	if c.loadErr == nil {
		return nil
	}
	return c.loadErr
}

// VisibleWindow returns the current time window.
func (c *ChartView) VisibleWindow() model.Window { return c.window }

// Columns returns the value column labels.
func (c *ChartView) Columns() []string {
	if c.series == nil {
		return nil
	}
	return append([]string(nil), c.series.Columns...)
}

// PointCount is the number of rendered points per line: every loaded sample.
func (c *ChartView) PointCount() int {
	if c.state != StateReady {
		return 0
	}
	return c.series.Len()
}

// Displayed returns all sample times and the smoothed values of every column.
func (c *ChartView) Displayed() ([]time.Time, [][]float64) {
	if c.state != StateReady {
		return nil, nil
	}
	return c.slice(0, c.series.Len())
}

// Visible returns the smoothed samples that fall inside the visible window.
func (c *ChartView) Visible() ([]time.Time, [][]float64) {
	if c.state != StateReady {
		return nil, nil
	}
	from, to := c.visibleRange()
	return c.slice(from, to)
}

func (c *ChartView) slice(from, to int) ([]time.Time, [][]float64) {
	times := make([]time.Time, 0, to-from)
	for _, s := range c.series.Samples[from:to] {
		times = append(times, s.Time)
	}
	cols := make([][]float64, len(c.displayed))
	for i, col := range c.displayed {
		cols[i] = append([]float64(nil), col[from:to]...)
	}
	return times, cols
}

// visibleRange returns the index range [from, to) of samples inside the window.
func (c *ChartView) visibleRange() (int, int) {
	samples := c.series.Samples
	from := sort.Search(len(samples), func(i int) bool { return !samples[i].Time.Before(c.window.Start) })
	to := sort.Search(len(samples), func(i int) bool { return samples[i].Time.After(c.window.End) })
	return from, to
}

// ValueBounds returns the value-axis range for the visible window: the group's shared range
// when value ranges are synchronized, otherwise the min and max of this chart's own smoothed
// values inside the window. ok is false when nothing is visible.
func (c *ChartView) ValueBounds() (low, high float64, ok bool) {
	if c.valueOverride != nil {
		return c.valueOverride.low, c.valueOverride.high, true
	}
	if c.state != StateReady {
		return 0, 0, false
	}
	from, to := c.visibleRange()
	low, high, err := calculator.ValueRange(c.displayed, from, to)
	if err != nil {
		return 0, 0, false
	}
	return low, high, true
}

// Highlight returns the highlighted sample time, if any.
func (c *ChartView) Highlight() (time.Time, bool) { return c.highlight, c.hasHighlight }

func (c *ChartView) requireReady() error {
	if c.state != StateReady {
		return fmt.Errorf("%s: %w (%s)", c.cfg.Name, ErrNotReady, c.state)
	}
	return nil
}

// SetWindow zooms to w. Grouped charts follow within this call.
func (c *ChartView) SetWindow(w model.Window) error {
	if err := c.requireReady(); err != nil {
		return err
	}
	if _, err := model.NewWindow(w.Start, w.End); err != nil {
		return fmt.Errorf("%s: %w", c.cfg.Name, err)
	}
	c.commitWindow(w)
	return nil
}

// Pan shifts the window by d; negative d moves back in time.
func (c *ChartView) Pan(d time.Duration) error {
	return c.SetWindow(c.window.Shift(d))
}

// ZoomBy scales the window around its centre. factor < 1 zooms in.
func (c *ChartView) ZoomBy(factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("%s: zoom factor must be positive", c.cfg.Name)
	}
	half := time.Duration(float64(c.window.Duration()) * factor / 2)
	if half <= 0 {
		return fmt.Errorf("%s: zoom factor too small", c.cfg.Name)
	}
	center := c.window.Start.Add(c.window.Duration() / 2)
	return c.SetWindow(model.Window{Start: center.Add(-half), End: center.Add(half)})
}

// ResetZoom shows the full extent of the data.
func (c *ChartView) ResetZoom() error {
	if err := c.requireReady(); err != nil {
		return err
	}
	extent, ok := c.series.Extent()
	if !ok {
		return fmt.Errorf("%s: no data to zoom to", c.cfg.Name)
	}
	c.commitWindow(extent)
	return nil
}

func (c *ChartView) commitWindow(w model.Window) {
	if c.group != nil {
		c.group.setWindow(c, w)
		return
	}
	c.window = w
	c.valueOverride = nil
}

// SetRollPeriod changes the smoothing window. The loaded series is left untouched.
func (c *ChartView) SetRollPeriod(period int) error {
	if period < 1 {
		return fmt.Errorf("%s: %w, got %d", c.cfg.Name, ErrInvalidPeriod, period)
	}
	if err := c.requireReady(); err != nil {
		return err
	}
	prev := c.rollPeriod
	c.rollPeriod = period
	if err := c.recompute(); err != nil {
		c.rollPeriod = prev
		return err
	}
	return nil
}

// SetHighlight selects the sample nearest to t.
func (c *ChartView) SetHighlight(t time.Time) error {
	if err := c.requireReady(); err != nil {
		return err
	}
	if c.group != nil {
		c.group.setHighlight(c, t)
		return nil
	}
	c.snapHighlight(t)
	return nil
}

// ClearHighlight removes the highlight.
func (c *ChartView) ClearHighlight() {
	if c.group != nil {
		c.group.clearHighlight(c)
		return
	}
	c.hasHighlight = false
}

func (c *ChartView) snapHighlight(t time.Time) {
	i, ok := c.nearest(t)
	if !ok {
		c.hasHighlight = false
		return
	}
	c.highlight = c.series.Samples[i].Time
	c.hasHighlight = true
}

// nearest returns the index of the sample closest to t.
func (c *ChartView) nearest(t time.Time) (int, bool) {
	if c.state != StateReady || c.series.Len() == 0 {
		return 0, false
	}
	samples := c.series.Samples
	i := sort.Search(len(samples), func(i int) bool { return !samples[i].Time.Before(t) })
	switch {
	case i == 0:
		return 0, true
	case i == len(samples):
		return i - 1, true
	case t.Sub(samples[i-1].Time) <= samples[i].Time.Sub(t):
		return i - 1, true
	}
	return i, true
}

// HighlightedValues returns the smoothed values at the highlighted sample.
func (c *ChartView) HighlightedValues() ([]float64, bool) {
	if !c.hasHighlight {
		return nil, false
	}
	i, ok := c.nearest(c.highlight)
	if !ok {
		return nil, false
	}
	vals := make([]float64, len(c.displayed))
	for j, col := range c.displayed {
		vals[j] = col[i]
	}
	return vals, true
}
