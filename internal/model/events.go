package model

import "time"

// LoadEvent describes the outcome of loading one chart's series.
type LoadEvent struct {
	PageID string
	Chart  string
	Source string
	State  string // "ready" or "failed"
	Points int
	Error  string
	At     time.Time
}

// ViewEvent describes a change to a chart's view: window, roll period or highlight.
type ViewEvent struct {
	PageID     string
	Chart      string
	Action     string // "window", "pan", "reset", "roll", "highlight", "sync"
	Window     Window
	RollPeriod int
	At         time.Time
}

// ViewState is the persisted view of a dashboard: the shared window and each chart's roll period.
type ViewState struct {
	WindowStart time.Time      `json:"window_start"`
	WindowEnd   time.Time      `json:"window_end"`
	RollPeriods map[string]int `json:"roll_periods"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
