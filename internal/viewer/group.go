package viewer

import (
	"errors"
	"time"

	"AtlasStatus/internal/model"
)

// SyncOptions select what a ChartGroup mirrors between its members.
type SyncOptions struct {
	Zoom      bool // time window
	Selection bool // highlighted timestamp
	Range     bool // value axis bounds
}

// DefaultSyncOptions links windows and highlights; value axes scale independently.
func DefaultSyncOptions() SyncOptions {
	return SyncOptions{Zoom: true, Selection: true}
}

// ChartGroup keeps its members' visible windows identical. The group is the only writer of a
// member's window while the member is attached, and it updates every member in the same call.
type ChartGroup struct {
	members []*ChartView
	opts    SyncOptions
	window  model.Window
}

// Synchronize links charts. Members take the first chart's window.
func Synchronize(opts SyncOptions, charts ...*ChartView) (*ChartGroup, error) {
	if len(charts) < 2 {
		return nil, errors.New("synchronize needs at least two charts")
	}
	seen := make(map[*ChartView]bool, len(charts))
	for _, c := range charts {
		if c == nil {
			return nil, errors.New("synchronize: nil chart")
		}
		if seen[c] {
			return nil, errors.New("synchronize: chart " + c.Name() + " listed twice")
		}
		if c.group != nil {
			return nil, errors.New("synchronize: chart " + c.Name() + " already belongs to a group")
		}
		seen[c] = true
	}
	g := &ChartGroup{
		members: append([]*ChartView(nil), charts...),
		opts:    opts,
		window:  charts[0].window,
	}
	for _, c := range g.members {
		c.group = g
		if opts.Zoom {
			c.window = g.window
		}
	}
	return g, nil
}

// Members returns the charts in the group.
func (g *ChartGroup) Members() []*ChartView { return append([]*ChartView(nil), g.members...) }

// Options returns the synchronization options.
func (g *ChartGroup) Options() SyncOptions { return g.opts }

// Window returns the last window written to the group.
func (g *ChartGroup) Window() model.Window { return g.window }

// Detach unlinks all members. Their windows stay where they are.
func (g *ChartGroup) Detach() {
	for _, c := range g.members {
		c.group = nil
		c.valueOverride = nil
	}
	g.members = nil
}

func (g *ChartGroup) setWindow(src *ChartView, w model.Window) {
	src.window = w
	src.valueOverride = nil
	if !g.opts.Zoom {
		return
	}
	g.window = w
	var shared *valueBounds
	if g.opts.Range {
		if low, high, ok := src.ValueBounds(); ok {
			shared = &valueBounds{low: low, high: high}
		}
	}
	for _, m := range g.members {
		if m == src {
			continue
		}
		m.window = w
		m.valueOverride = shared
	}
}

func (g *ChartGroup) setHighlight(src *ChartView, t time.Time) {
	src.snapHighlight(t)
	if !g.opts.Selection {
		return
	}
	at, ok := src.Highlight()
	if !ok {
		return
	}
	for _, m := range g.members {
		if m != src {
			m.snapHighlight(at)
		}
	}
}

func (g *ChartGroup) clearHighlight(src *ChartView) {
	src.hasHighlight = false
	if !g.opts.Selection {
		return
	}
	for _, m := range g.members {
		m.hasHighlight = false
	}
}
