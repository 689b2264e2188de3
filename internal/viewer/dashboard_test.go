package viewer

import (
	"context"
	"sync"
	"testing"
	"time"

	"AtlasStatus/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu    sync.Mutex
	loads []model.LoadEvent
	views []model.ViewEvent
}

func (o *recordingObserver) OnLoad(evt model.LoadEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loads = append(o.loads, evt)
}

func (o *recordingObserver) OnView(evt model.ViewEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.views = append(o.views, evt)
}

func openPair(t *testing.T, bodies map[string]string, obs Observer) *Dashboard {
	t.Helper()
	d, err := Open(context.Background(), testLoader(bodies), []ChartConfig{socConfig(), tempConfig()}, Options{
		Sync:     DefaultSyncOptions(),
		Observer: obs,
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)
	return d
}

func TestOpen_LoadsAndLinks(t *testing.T) {
	obs := &recordingObserver{}
	d := openPair(t, map[string]string{"soc.csv": socCSV, "temperature.csv": tempCSV}, obs)

	assert.NotEmpty(t, d.ID())
	assert.Equal(t, now, d.OpenedAt())
	assert.Equal(t, []string{"soc", "temperature"}, d.Names())
	assert.Empty(t, d.Errors())

	require.Len(t, obs.loads, 2)
	assert.Equal(t, "ready", obs.loads[0].State)
	assert.Equal(t, 3, obs.loads[0].Points)
	assert.Equal(t, d.ID(), obs.loads[1].PageID)
}

func TestOpen_EachPageGetsOwnID(t *testing.T) {
	bodies := map[string]string{"soc.csv": socCSV, "temperature.csv": tempCSV}
	a := openPair(t, bodies, nil)
	b := openPair(t, bodies, nil)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestOpen_FailedChartIsReportedNotFatal(t *testing.T) {
	obs := &recordingObserver{}
	d := openPair(t, map[string]string{"soc.csv": socCSV, "temperature.csv": "date,value\n2016-01-01,warm\n"}, obs)

	errs := d.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "temperature")
	assert.Equal(t, "failed", obs.loads[1].State)
	assert.NotEmpty(t, obs.loads[1].Error)

	assert.ErrorIs(t, d.SetRollPeriod("temperature", 2), ErrNotReady)
	require.NoError(t, d.SetWindow("soc", model.Window{Start: day(1), End: day(2)}))
}

func TestOpen_DuplicateNames(t *testing.T) {
	_, err := Open(context.Background(), testLoader(nil), []ChartConfig{socConfig(), socConfig()}, Options{})
	assert.Error(t, err)
}

func TestDashboard_WindowChangeNotifiesBothCharts(t *testing.T) {
	obs := &recordingObserver{}
	d := openPair(t, map[string]string{"soc.csv": socCSV, "temperature.csv": tempCSV}, obs)

	w := model.Window{Start: day(1), End: day(2)}
	require.NoError(t, d.SetWindow("soc", w))

	require.Len(t, obs.views, 2)
	assert.Equal(t, "window", obs.views[0].Action)
	assert.Equal(t, "soc", obs.views[0].Chart)
	assert.Equal(t, "sync", obs.views[1].Action)
	assert.Equal(t, "temperature", obs.views[1].Chart)
	assert.True(t, obs.views[1].Window.Equal(w))

	d.Read(func(charts []*ChartView) {
		assert.True(t, charts[1].VisibleWindow().Equal(w))
	})
}

func TestDashboard_RollDoesNotTouchOtherChart(t *testing.T) {
	obs := &recordingObserver{}
	d := openPair(t, map[string]string{"soc.csv": socCSV, "temperature.csv": tempCSV}, obs)
	require.NoError(t, d.SetRollPeriod("soc", 2))
	require.Len(t, obs.views, 1)
	d.Read(func(charts []*ChartView) {
		assert.Equal(t, 2, charts[0].RollPeriod())
		assert.Equal(t, 24, charts[1].RollPeriod())
	})
}

func TestDashboard_UnknownChart(t *testing.T) {
	d := openPair(t, map[string]string{"soc.csv": socCSV, "temperature.csv": tempCSV}, nil)
	assert.ErrorIs(t, d.Pan("pressure", time.Hour), ErrUnknownChart)
}

func TestDashboard_ConcurrentInteractionsStayInSync(t *testing.T) {
	d := openPair(t, map[string]string{"soc.csv": socCSV, "temperature.csv": tempCSV}, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = d.Pan("soc", time.Duration(i)*time.Minute)
		}(i)
		go func(i int) {
			defer wg.Done()
			_ = d.Pan("temperature", -time.Duration(i)*time.Minute)
		}(i)
	}
	wg.Wait()
	d.Read(func(charts []*ChartView) {
		assert.True(t, charts[0].VisibleWindow().Equal(charts[1].VisibleWindow()))
	})
}

func TestDashboard_StateRoundTrip(t *testing.T) {
	bodies := map[string]string{"soc.csv": socCSV, "temperature.csv": tempCSV}
	d := openPair(t, bodies, nil)
	require.NoError(t, d.SetWindow("temperature", model.Window{Start: day(1), End: day(3)}))
	require.NoError(t, d.SetRollPeriod("soc", 3))
	st := d.State()
	assert.Equal(t, 3, st.RollPeriods["soc"])
	assert.Equal(t, 24, st.RollPeriods["temperature"])

	fresh := openPair(t, bodies, nil)
	st.RollPeriods["gone"] = 4
	require.NoError(t, fresh.Restore(st))
	fresh.Read(func(charts []*ChartView) {
		w := model.Window{Start: day(1), End: day(3)}
		assert.True(t, charts[0].VisibleWindow().Equal(w))
		assert.True(t, charts[1].VisibleWindow().Equal(w))
		assert.Equal(t, 3, charts[0].RollPeriod())
	})
}

func TestDashboard_ZoomSelectHighlight(t *testing.T) {
	d := openPair(t, map[string]string{"soc.csv": socCSV, "temperature.csv": tempCSV}, nil)
	require.NoError(t, d.SelectRange("soc", day(1), day(2)))
	require.NoError(t, d.Zoom("temperature", 2))
	require.NoError(t, d.ResetZoom("soc"))
	require.NoError(t, d.Highlight("temperature", day(3)))
	d.Read(func(charts []*ChartView) {
		at, ok := charts[0].Highlight()
		assert.True(t, ok)
		assert.True(t, at.Equal(day(3)))
	})
}
