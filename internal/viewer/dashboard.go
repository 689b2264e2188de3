package viewer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"AtlasStatus/internal/model"

	"github.com/google/uuid"
)

// Observer is told about load outcomes and view changes. Calls happen with the dashboard
// locked, so implementations must not call back into it.
type Observer interface {
	OnLoad(evt model.LoadEvent)
	OnView(evt model.ViewEvent)
}

// Options configure Open.
type Options struct {
	Sync     SyncOptions
	Observer Observer
	Now      func() time.Time
}

// Dashboard is one page load: its charts, their group and a lock that serializes every
// interaction, the way a browser's event loop would.
type Dashboard struct {
	mu       sync.Mutex
	id       string
	openedAt time.Time
	charts   []*ChartView
	byName   map[string]*ChartView
	group    *ChartGroup
	observer Observer
	now      func() time.Time
}

// Open creates and loads every chart, then links them. Load failures leave the chart Failed
// and are reported through Errors; only invalid configuration makes Open fail.
func Open(ctx context.Context, loader Loader, cfgs []ChartConfig, opts Options) (*Dashboard, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	d := &Dashboard{
		id:       uuid.New().String(),
		openedAt: now(),
		byName:   make(map[string]*ChartView, len(cfgs)),
		observer: opts.Observer,
		now:      now,
	}
	for _, cfg := range cfgs {
		if _, dup := d.byName[cfg.Name]; dup {
			return nil, fmt.Errorf("duplicate chart name %q", cfg.Name)
		}
		c, err := NewChartView(cfg, d.openedAt)
		if err != nil {
			return nil, err
		}
		d.charts = append(d.charts, c)
		d.byName[cfg.Name] = c
	}

	for _, c := range d.charts {
		err := c.Load(ctx, loader)
		evt := model.LoadEvent{
			PageID: d.id,
			Chart:  c.Name(),
			Source: c.Source(),
			State:  c.State().String(),
			Points: c.PointCount(),
			At:     now(),
		}
		if err != nil {
			evt.Error = err.Error()
			log.Printf("[WARN] chart %s left blank: %v", c.Name(), err)
		}
		if d.observer != nil {
			d.observer.OnLoad(evt)
		}
	}

	if len(d.charts) >= 2 {
		g, err := Synchronize(opts.Sync, d.charts...)
		if err != nil {
			return nil, fmt.Errorf("synchronize charts: %w", err)
		}
		d.group = g
	}
	return d, nil
}

// ID identifies this page load.
func (d *Dashboard) ID() string { return d.id }

// OpenedAt is when the page was loaded.
func (d *Dashboard) OpenedAt() time.Time { return d.openedAt }

// Names returns chart names in configuration order.
func (d *Dashboard) Names() []string {
	names := make([]string, len(d.charts))
	for i, c := range d.charts {
		names[i] = c.Name()
	}
	return names
}

// Read runs fn with the dashboard locked. fn must not keep the charts after returning.
func (d *Dashboard) Read(fn func(charts []*ChartView)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.charts)
}

// Errors returns the load error of every Failed chart.
func (d *Dashboard) Errors() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for _, c := range d.charts {
		if err := c.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// SetWindow zooms the named chart, and with it the group.
func (d *Dashboard) SetWindow(name string, w model.Window) error {
	return d.do(name, "window", func(c *ChartView) error { return c.SetWindow(w) })
}

// Pan shifts the named chart's window.
func (d *Dashboard) Pan(name string, delta time.Duration) error {
	return d.do(name, "pan", func(c *ChartView) error { return c.Pan(delta) })
}

// Zoom scales the named chart's window around its centre.
func (d *Dashboard) Zoom(name string, factor float64) error {
	return d.do(name, "zoom", func(c *ChartView) error { return c.ZoomBy(factor) })
}

// SelectRange moves the named chart's range selector handles.
func (d *Dashboard) SelectRange(name string, start, end time.Time) error {
	return d.do(name, "window", func(c *ChartView) error { return c.RangeSelector().Select(start, end) })
}

// ResetZoom shows the full data extent of the named chart.
func (d *Dashboard) ResetZoom(name string) error {
	return d.do(name, "reset", func(c *ChartView) error { return c.ResetZoom() })
}

// SetRollPeriod changes the named chart's smoothing.
func (d *Dashboard) SetRollPeriod(name string, period int) error {
	return d.do(name, "roll", func(c *ChartView) error { return c.SetRollPeriod(period) })
}

// Highlight selects the sample nearest to t on the named chart.
func (d *Dashboard) Highlight(name string, t time.Time) error {
	return d.do(name, "highlight", func(c *ChartView) error { return c.SetHighlight(t) })
}

func (d *Dashboard) do(name, action string, fn func(c *ChartView) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
	if err := fn(c); err != nil {
		return err
	}
	d.notify(action, c)
	return nil
}

func (d *Dashboard) notify(action string, trigger *ChartView) {
	if d.observer == nil {
		return
	}
	at := d.now()
	d.observer.OnView(viewEvent(d.id, action, trigger, at))
	if action == "roll" || d.group == nil {
		return
	}
	for _, m := range d.group.Members() {
		if m != trigger {
			d.observer.OnView(viewEvent(d.id, "sync", m, at))
		}
	}
}

func viewEvent(pageID, action string, c *ChartView, at time.Time) model.ViewEvent {
	return model.ViewEvent{
		PageID:     pageID,
		Chart:      c.Name(),
		Action:     action,
		Window:     c.VisibleWindow(),
		RollPeriod: c.RollPeriod(),
		At:         at,
	}
}

// State captures the shared window and roll periods for persistence.
func (d *Dashboard) State() model.ViewState {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := model.ViewState{RollPeriods: make(map[string]int, len(d.charts)), UpdatedAt: d.now()}
	if len(d.charts) > 0 {
		w := d.charts[0].VisibleWindow()
		st.WindowStart, st.WindowEnd = w.Start, w.End
	}
	for _, c := range d.charts {
		st.RollPeriods[c.Name()] = c.RollPeriod()
	}
	return st
}

// Restore applies a saved state to the Ready charts. Entries for unknown or blank charts are
// skipped; other failures are joined and returned after everything else was applied.
func (d *Dashboard) Restore(st model.ViewState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for name, p := range st.RollPeriods {
		c, ok := d.byName[name]
		if !ok || c.State() != StateReady {
			continue
		}
		if err := c.SetRollPeriod(p); err != nil {
			errs = append(errs, err)
		}
	}
	if st.WindowStart.Before(st.WindowEnd) {
		w := model.Window{Start: st.WindowStart, End: st.WindowEnd}
		for _, c := range d.charts {
			if c.State() != StateReady {
				continue
			}
			if err := c.SetWindow(w); err != nil {
				errs = append(errs, err)
			}
			if d.group != nil && d.group.Options().Zoom {
				break
			}
		}
	}
	return errors.Join(errs...)
}
