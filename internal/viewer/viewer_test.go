package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"AtlasStatus/internal/collector"
	"AtlasStatus/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	socCSV  = "date,value\n2016-01-01,80\n2016-01-02,82\n2016-01-03,79\n"
	tempCSV = "date,value\n2016-01-01,-20\n2016-01-02,-5\n2016-01-03,-12\n"
)

var now = time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC)

func day(d int) time.Time { return time.Date(2016, 1, d, 0, 0, 0, 0, time.UTC) }

func testLoader(bodies map[string]string) *collector.Collector {
	return collector.NewCollector(nil, &collector.MockFetcher{Bodies: bodies})
}

func socConfig() ChartConfig {
	return ChartConfig{Name: "soc", Title: "State of charge", Source: "soc.csv",
		WindowDays: DefaultWindowDays, RollPeriod: 6, Unit: UnitPercent}
}

func tempConfig() ChartConfig {
	return ChartConfig{Name: "temperature", Title: "Temperature", Source: "temperature.csv",
		WindowDays: DefaultWindowDays, RollPeriod: 24, Unit: UnitCelsius}
}

func readyPair(t *testing.T, opts SyncOptions) (*ChartView, *ChartView, *ChartGroup) {
	t.Helper()
	loader := testLoader(map[string]string{"soc.csv": socCSV, "temperature.csv": tempCSV})
	a, err := Initialize(context.Background(), loader, socConfig(), now)
	require.NoError(t, err)
	b, err := Initialize(context.Background(), loader, tempConfig(), now)
	require.NoError(t, err)
	g, err := Synchronize(opts, a, b)
	require.NoError(t, err)
	return a, b, g
}

func TestInitialize_DefaultsAndPointCount(t *testing.T) {
	c, err := Initialize(context.Background(), testLoader(map[string]string{"soc.csv": socCSV}), socConfig(), now)
	require.NoError(t, err)
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, 3, c.PointCount())
	assert.Equal(t, 6, c.RollPeriod())
	assert.True(t, c.VisibleWindow().Equal(model.Window{Start: now.AddDate(0, 0, -60), End: now}))
	assert.Equal(t, "80%", c.Formatter().Format(80))
	assert.NoError(t, c.Err())
}

func TestInitialize_PointCountMatchesRows(t *testing.T) {
	for _, n := range []int{1, 2, 17, 240} {
		var b strings.Builder
		b.WriteString("Datetime,Battery #1,Battery #2\n")
		start := time.Date(2016, 7, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, "%s,%d,%d\n", start.Add(time.Duration(i)*time.Hour).Format("2006-01-02 15:04:05 UTC"), 50+i%7, 60-i%5)
		}
		c, err := Initialize(context.Background(), testLoader(map[string]string{"soc.csv": b.String()}), socConfig(), now)
		require.NoError(t, err)
		assert.Equal(t, n, c.PointCount(), "n=%d", n)
		times, cols := c.Displayed()
		assert.Len(t, times, n)
		require.Len(t, cols, 2)
		assert.Len(t, cols[1], n)
	}
}

func TestInitialize_MalformedCSVFailsWithDataLoadError(t *testing.T) {
	loader := testLoader(map[string]string{"soc.csv": "date,value\n2016-01-01,80\n2016-01-02,oops\n"})
	c, err := Initialize(context.Background(), loader, socConfig(), now)
	require.Error(t, err)
	require.NotNil(t, c, "a failed chart is still returned so the page can render it blank")

	var dle *DataLoadError
	require.True(t, errors.As(err, &dle))
	assert.Equal(t, "soc", dle.Chart)
	assert.Equal(t, "soc.csv", dle.Source)
	var pe *collector.ParseError
	assert.True(t, errors.As(err, &pe))

	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, 0, c.PointCount())
	times, cols := c.Visible()
	assert.Empty(t, times)
	assert.Empty(t, cols)
	_, _, ok := c.ValueBounds()
	assert.False(t, ok)
	assert.ErrorIs(t, c.SetRollPeriod(3), ErrNotReady)
	assert.ErrorIs(t, c.Pan(time.Hour), ErrNotReady)
}

func TestInitialize_NonFiniteCellFailsLoad(t *testing.T) {
	body := "date,value\n2016-01-01,80\n2016-01-02,NaN\n2016-01-03,79\n2016-01-04,81\n2016-01-05,83\n2016-01-06,85\n"
	cfg := socConfig()
	cfg.RollPeriod = 2
	c, err := Initialize(context.Background(), testLoader(map[string]string{"soc.csv": body}), cfg, now)
	var dle *DataLoadError
	require.True(t, errors.As(err, &dle), "want *DataLoadError, got %v", err)
	assert.Equal(t, StateFailed, c.State())
}

func TestInitialize_UnreachableSource(t *testing.T) {
	c, err := Initialize(context.Background(), testLoader(nil), socConfig(), now)
	var dle *DataLoadError
	require.True(t, errors.As(err, &dle))
	assert.Equal(t, StateFailed, c.State())
}

func TestLoad_OnlyFromLoading(t *testing.T) {
	loader := testLoader(map[string]string{"soc.csv": socCSV})
	c, err := Initialize(context.Background(), loader, socConfig(), now)
	require.NoError(t, err)
	assert.Error(t, c.Load(context.Background(), loader))
	assert.Equal(t, StateReady, c.State())
}

func TestNewChartView_Validation(t *testing.T) {
	bad := []ChartConfig{
		{Source: "x", WindowDays: 1, RollPeriod: 1},
		{Name: "x", WindowDays: 1, RollPeriod: 1},
		{Name: "x", Source: "x", RollPeriod: 1},
		{Name: "x", Source: "x", WindowDays: 1},
		{Name: "x", Source: "x", WindowDays: 1, RollPeriod: 1, Unit: "kelvin"},
	}
	for i, cfg := range bad {
		_, err := NewChartView(cfg, now)
		assert.Error(t, err, "case %d", i)
	}
}

func TestSetRollPeriod_ExampleScenario(t *testing.T) {
	cfg := socConfig()
	cfg.RollPeriod = 1
	c, err := Initialize(context.Background(), testLoader(map[string]string{"soc.csv": socCSV}), cfg, now)
	require.NoError(t, err)

	_, cols := c.Displayed()
	assert.Equal(t, []float64{80, 82, 79}, cols[0])

	require.NoError(t, c.SetRollPeriod(2))
	_, cols = c.Displayed()
	assert.InDeltaSlice(t, []float64{80, 81, 80.5}, cols[0], 1e-9)

	// stored series untouched
	assert.Equal(t, []float64{80, 82, 79}, c.Series().Column(0))
}

func TestSetRollPeriod_OneShowsRawValues(t *testing.T) {
	var b strings.Builder
	b.WriteString("Datetime,Battery #1,Battery #2\n")
	for i := 0; i < 24*60; i++ {
		at := day(1).Add(time.Duration(i) * time.Hour)
		fmt.Fprintf(&b, "%s,%.1f,%.1f\n", at.Format("2006-01-02 15:04:05 UTC"), 70+float64((i*37)%300)/10, 1e16/float64(i+1))
	}
	cfg := socConfig()
	cfg.RollPeriod = 1
	c, err := Initialize(context.Background(), testLoader(map[string]string{"soc.csv": b.String()}), cfg, now)
	require.NoError(t, err)

	_, cols := c.Displayed()
	for col := range cols {
		raw := c.Series().Column(col)
		for i := range raw {
			if cols[col][i] != raw[i] {
				t.Fatalf("column %d index %d: displayed %v, raw %v", col, i, cols[col][i], raw[i])
			}
		}
	}
}

func TestSetRollPeriod_BoundaryPolicy(t *testing.T) {
	c, err := Initialize(context.Background(), testLoader(map[string]string{"soc.csv": socCSV}), socConfig(), now)
	require.NoError(t, err)
	raw := c.Series().Column(0)
	for p := 1; p <= 10; p++ {
		require.NoError(t, c.SetRollPeriod(p))
		_, cols := c.Displayed()
		for i := range raw {
			lo := i - p + 1
			if lo < 0 {
				lo = 0
			}
			sum := 0.0
			for _, v := range raw[lo : i+1] {
				sum += v
			}
			assert.InDelta(t, sum/float64(i-lo+1), cols[0][i], 1e-9, "p=%d i=%d", p, i)
		}
	}
}

func TestSetRollPeriod_RejectsNonPositive(t *testing.T) {
	c, err := Initialize(context.Background(), testLoader(map[string]string{"soc.csv": socCSV}), socConfig(), now)
	require.NoError(t, err)
	assert.ErrorIs(t, c.SetRollPeriod(0), ErrInvalidPeriod)
	assert.ErrorIs(t, c.SetRollPeriod(-4), ErrInvalidPeriod)
	assert.Equal(t, 6, c.RollPeriod())
}

func TestSynchronize_PanMirrorsWindow(t *testing.T) {
	soc, temp, g := readyPair(t, SyncOptions{Zoom: true, Range: false})

	w := model.Window{Start: day(1), End: day(2)}
	require.NoError(t, soc.SetWindow(w))
	assert.True(t, soc.VisibleWindow().Equal(w))
	assert.True(t, temp.VisibleWindow().Equal(w), "temperature window %v", temp.VisibleWindow())
	assert.True(t, g.Window().Equal(w))

	require.NoError(t, temp.Pan(12*time.Hour))
	shifted := w.Shift(12 * time.Hour)
	assert.True(t, soc.VisibleWindow().Equal(shifted))
	assert.True(t, temp.VisibleWindow().Equal(shifted))
}

func TestSynchronize_ValueAxesStayIndependent(t *testing.T) {
	soc, temp, _ := readyPair(t, SyncOptions{Zoom: true})
	require.NoError(t, soc.SetRollPeriod(1))
	require.NoError(t, temp.SetRollPeriod(1))

	require.NoError(t, soc.SetWindow(model.Window{Start: day(1), End: day(2)}))
	lo, hi, ok := soc.ValueBounds()
	require.True(t, ok)
	assert.Equal(t, 80.0, lo)
	assert.Equal(t, 82.0, hi)

	lo, hi, ok = temp.ValueBounds()
	require.True(t, ok)
	assert.Equal(t, -20.0, lo)
	assert.Equal(t, -5.0, hi)
}

func TestSynchronize_RangeSharesValueBounds(t *testing.T) {
	soc, temp, _ := readyPair(t, SyncOptions{Zoom: true, Range: true})
	require.NoError(t, soc.SetRollPeriod(1))

	require.NoError(t, soc.SetWindow(model.Window{Start: day(1), End: day(3)}))
	lo, hi, ok := temp.ValueBounds()
	require.True(t, ok)
	assert.Equal(t, 79.0, lo)
	assert.Equal(t, 82.0, hi)
}

func TestSynchronize_ZoomDisabledKeepsWindowsApart(t *testing.T) {
	soc, temp, _ := readyPair(t, SyncOptions{Selection: true})
	before := temp.VisibleWindow()
	require.NoError(t, soc.SetWindow(model.Window{Start: day(1), End: day(2)}))
	assert.True(t, temp.VisibleWindow().Equal(before))
}

func TestSynchronize_HighlightFollows(t *testing.T) {
	soc, temp, _ := readyPair(t, DefaultSyncOptions())
	require.NoError(t, soc.SetHighlight(day(2).Add(3*time.Hour)))

	at, ok := temp.Highlight()
	require.True(t, ok)
	assert.True(t, at.Equal(day(2)))
	vals, ok := temp.HighlightedValues()
	require.True(t, ok)
	assert.Len(t, vals, 1)

	temp.ClearHighlight()
	_, ok = soc.Highlight()
	assert.False(t, ok)
}

func TestSynchronize_Errors(t *testing.T) {
	soc, temp, _ := readyPair(t, DefaultSyncOptions())
	_, err := Synchronize(DefaultSyncOptions(), soc)
	assert.Error(t, err)
	_, err = Synchronize(DefaultSyncOptions(), soc, temp)
	assert.Error(t, err, "charts already grouped")

	lone, err := NewChartView(socConfig(), now)
	require.NoError(t, err)
	_, err = Synchronize(DefaultSyncOptions(), lone, lone)
	assert.Error(t, err)
}

func TestGroup_DetachUnlinks(t *testing.T) {
	soc, temp, g := readyPair(t, DefaultSyncOptions())
	g.Detach()
	before := temp.VisibleWindow()
	require.NoError(t, soc.SetWindow(model.Window{Start: day(1), End: day(2)}))
	assert.True(t, temp.VisibleWindow().Equal(before))
	assert.Nil(t, soc.Group())
}

func TestFailedMemberStillFollowsWindow(t *testing.T) {
	loader := testLoader(map[string]string{"soc.csv": socCSV})
	soc, err := Initialize(context.Background(), loader, socConfig(), now)
	require.NoError(t, err)
	temp, err := Initialize(context.Background(), loader, tempConfig(), now)
	require.Error(t, err)
	_, err = Synchronize(DefaultSyncOptions(), soc, temp)
	require.NoError(t, err)

	w := model.Window{Start: day(1), End: day(2)}
	require.NoError(t, soc.SetWindow(w))
	assert.True(t, temp.VisibleWindow().Equal(w))
}

func TestSetWindow_RejectsInvertedWindow(t *testing.T) {
	soc, _, _ := readyPair(t, DefaultSyncOptions())
	assert.Error(t, soc.SetWindow(model.Window{Start: day(2), End: day(1)}))
	assert.Error(t, soc.SetWindow(model.Window{Start: day(2), End: day(2)}))
}

func TestZoomAndReset(t *testing.T) {
	soc, temp, _ := readyPair(t, DefaultSyncOptions())
	require.NoError(t, soc.ResetZoom())
	assert.True(t, temp.VisibleWindow().Equal(model.Window{Start: day(1), End: day(3)}))

	require.NoError(t, soc.ZoomBy(0.5))
	assert.True(t, soc.VisibleWindow().Equal(model.Window{Start: day(1).Add(12 * time.Hour), End: day(2).Add(12 * time.Hour)}))
	assert.True(t, temp.VisibleWindow().Equal(soc.VisibleWindow()))
	assert.Error(t, soc.ZoomBy(0))
}

func TestVisible_FiltersToWindow(t *testing.T) {
	soc, _, _ := readyPair(t, DefaultSyncOptions())
	require.NoError(t, soc.SetWindow(model.Window{Start: day(2), End: day(3)}))
	times, cols := soc.Visible()
	assert.Len(t, times, 2)
	assert.Len(t, cols[0], 2)
	assert.Equal(t, 3, soc.PointCount())
}

func TestRangeSelector(t *testing.T) {
	soc, temp, _ := readyPair(t, DefaultSyncOptions())
	rs := soc.RangeSelector()
	extent, ok := rs.Extent()
	require.True(t, ok)
	assert.True(t, extent.Equal(model.Window{Start: day(1), End: day(3)}))

	require.NoError(t, rs.Select(day(1).AddDate(0, 0, -10), day(2)))
	want := model.Window{Start: day(1), End: day(2)}
	assert.True(t, rs.Selection().Equal(want))
	assert.True(t, temp.VisibleWindow().Equal(want))

	times, _ := rs.Overview()
	assert.Len(t, times, 3)
	assert.Error(t, rs.Select(day(3), day(1)))
}
