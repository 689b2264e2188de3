package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"AtlasStatus/internal/collector"
	"AtlasStatus/internal/config"
	"AtlasStatus/internal/metrics"
	"AtlasStatus/internal/model"
	"AtlasStatus/internal/recorder"
	"AtlasStatus/internal/render"
	"AtlasStatus/internal/session"
	"AtlasStatus/internal/viewer"
)

// Site owns the current page load: the dashboard, the status vars and everything needed to
// draw them. Reload replaces both with a fresh load.
type Site struct {
	cfg      *config.Config
	charts   []viewer.ChartConfig
	col      *collector.Collector
	renderer *render.Renderer
	metrics  *metrics.Metrics
	history  windowHistory
	observer viewer.Observer
	now      func() time.Time

	mu     sync.RWMutex
	dash   *viewer.Dashboard
	status model.StatusVars
}

// windowHistory is implemented by recorders that can look up past view changes.
type windowHistory interface {
	LastWindow(chart string) (model.Window, bool, error)
}

// New wires a site. rec and m may be nil.
func New(cfg *config.Config, col *collector.Collector, rec recorder.Recorder, m *metrics.Metrics) (*Site, error) {
	charts, err := cfg.ChartConfigs()
	if err != nil {
		return nil, err
	}
	renderer, err := render.New(cfg.Page.ChartWidth)
	if err != nil {
		return nil, err
	}
	obs := fanout{m}
	var history windowHistory
	if rec != nil {
		obs = append(obs, recording{rec: rec})
		history, _ = rec.(windowHistory)
	}
	return &Site{
		cfg:      cfg,
		charts:   charts,
		col:      col,
		renderer: renderer,
		metrics:  m,
		history:  history,
		observer: obs,
		now:      time.Now,
	}, nil
}

// SetClock replaces the wall clock. Tests use it to pin the default window.
func (s *Site) SetClock(now func() time.Time) { s.now = now }

// Reload opens a new dashboard, reads the status file and restores the saved view. Chart load
// failures do not fail the reload; they show up on the page.
func (s *Site) Reload(ctx context.Context) error {
	dash, err := viewer.Open(ctx, s.col, s.charts, viewer.Options{
		Sync:     s.cfg.SyncOptions(),
		Observer: s.observer,
		Now:      s.now,
	})
	if err != nil {
		return fmt.Errorf("open dashboard: %w", err)
	}

	status, err := s.col.LoadStatus(ctx, s.cfg.Page.StatusFile)
	if err != nil {
		log.Printf("[WARN] status vars unavailable: %v", err)
		status = &model.StatusVars{}
	}

	st := s.savedState()
	if st == nil {
		st = s.recordedState()
	}
	if st != nil {
		if err := dash.Restore(*st); err != nil {
			log.Printf("[WARN] restore view state: %v", err)
		}
	}

	s.mu.Lock()
	s.dash = dash
	s.status = *status
	s.mu.Unlock()
	log.Printf("[INFO] page %s loaded", dash.ID())
	return nil
}

func (s *Site) savedState() *model.ViewState {
	path := s.cfg.Server.StateFile
	if path == "" {
		return nil
	}
	st, err := session.LoadState(path)
	if err != nil {
		log.Printf("[WARN] load view state: %v", err)
		return nil
	}
	return st
}

// recordedState rebuilds the window from the recorder when no state file exists yet.
// Roll periods are not recorded there and keep their configured defaults.
func (s *Site) recordedState() *model.ViewState {
	if s.history == nil || len(s.charts) == 0 {
		return nil
	}
	w, ok, err := s.history.LastWindow(s.charts[0].Name)
	if err != nil {
		log.Printf("[WARN] last recorded window: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	return &model.ViewState{WindowStart: w.Start, WindowEnd: w.End}
}

// Dashboard returns the current page load, nil before the first Reload.
func (s *Site) Dashboard() *viewer.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dash
}

func (s *Site) current() (*viewer.Dashboard, model.StatusVars, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dash == nil {
		return nil, model.StatusVars{}, errors.New("no page loaded")
	}
	return s.dash, s.status, nil
}

// Page builds the page for the current load.
func (s *Site) Page(interactive bool) (*render.Page, error) {
	dash, status, err := s.current()
	if err != nil {
		return nil, err
	}
	p, err := s.renderer.Build(dash, status, render.Meta{
		Title:       s.cfg.Page.Title,
		Notice:      s.cfg.Page.Notice,
		GifURL:      s.cfg.Page.GifURL,
		Interactive: interactive,
	})
	if err != nil {
		for _, name := range dash.Names() {
			s.metrics.Render(name, "error")
		}
		return nil, err
	}
	for _, panel := range p.Panels {
		s.metrics.Render(panel.Name, string(panel.Outcome))
	}
	return p, nil
}

// WritePage renders the current page to w.
func (s *Site) WritePage(w io.Writer, interactive bool) error {
	p, err := s.Page(interactive)
	if err != nil {
		return err
	}
	return s.renderer.WritePage(w, p)
}

// ChartSVG draws the named chart, or its range selector when overview is set.
func (s *Site) ChartSVG(w io.Writer, name string, overview bool) error {
	dash, _, err := s.current()
	if err != nil {
		return err
	}
	found := false
	var outcome render.Outcome
	dash.Read(func(charts []*viewer.ChartView) {
		for _, c := range charts {
			if c.Name() != name {
				continue
			}
			found = true
			if overview {
				outcome, err = render.RangeSVG(w, c, s.renderer.Width, s.renderer.RangeHeight)
			} else {
				outcome, err = render.ChartSVG(w, c, s.renderer.Width, s.renderer.Height)
			}
			return
		}
	})
	if !found {
		return fmt.Errorf("%w: %s", viewer.ErrUnknownChart, name)
	}
	if err != nil {
		s.metrics.Render(name, "error")
		return err
	}
	s.metrics.Render(name, string(outcome))
	return nil
}

// SaveState persists the current view so a restart comes back to it.
func (s *Site) SaveState() error {
	dash, _, err := s.current()
	if err != nil {
		return err
	}
	return s.SaveDashboardState(dash)
}

// SaveDashboardState writes the view of d, which may no longer be the current page load.
func (s *Site) SaveDashboardState(d *viewer.Dashboard) error {
	path := s.cfg.Server.StateFile
	if path == "" {
		return nil
	}
	st := d.State()
	return session.SaveState(path, &st)
}

// RenderStatic performs a fresh page load and writes it to the output directory.
func (s *Site) RenderStatic(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}
	p, err := s.Page(false)
	if err != nil {
		return err
	}
	if err := s.renderer.RenderToDir(s.cfg.Output.Dir, p); err != nil {
		return err
	}
	log.Printf("[INFO] rendered %s/index.html (%d charts, %d errors)", s.cfg.Output.Dir, len(p.Panels), len(p.Errors))
	return nil
}

// SourceFor returns the configured CSV source of the named chart.
func (s *Site) SourceFor(name string) (string, bool) {
	for _, c := range s.charts {
		if c.Name == name {
			return c.Source, true
		}
	}
	return "", false
}

// Raw fetches a chart's CSV unparsed, for passthrough.
func (s *Site) Raw(ctx context.Context, name string) ([]byte, error) {
	src, ok := s.SourceFor(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", viewer.ErrUnknownChart, name)
	}
	return s.col.Raw(ctx, src)
}
