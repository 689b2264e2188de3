package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"AtlasStatus/internal/viewer"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// ChartConfig is one chart's YAML record.
type ChartConfig struct {
	Title      string `yaml:"title"`
	Source     string `yaml:"source"`
	WindowDays int    `yaml:"window_days"`
	RollPeriod int    `yaml:"roll_period"`
	Unit       string `yaml:"unit"`
}

// Config holds all application configuration.
type Config struct {
	Charts struct {
		SoC         ChartConfig `yaml:"soc"`
		Temperature ChartConfig `yaml:"temperature"`
	} `yaml:"charts"`
	Sync struct {
		Zoom      *bool `yaml:"zoom"`
		Selection *bool `yaml:"selection"`
		Range     bool  `yaml:"range"`
	} `yaml:"sync"`
	Page struct {
		Title      string `yaml:"title"`
		Notice     string `yaml:"notice"`
		StatusFile string `yaml:"status_file"`
		GifURL     string `yaml:"gif_url"`
		ChartWidth int    `yaml:"chart_width"`
	} `yaml:"page"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
		StateFile  string `yaml:"state_file"`
	} `yaml:"server"`
	Schedule struct {
		RenderCron string `yaml:"render_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	DataDir      string        `yaml:"data_dir"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Proxy        string        `yaml:"proxy"`
}

// CronParser accepts the six-field (with seconds) expressions the scheduler runs, plus
// descriptors such as "@every 15m".
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ATLAS_SOC_URL"); v != "" {
		cfg.Charts.SoC.Source = v
	}
	if v := os.Getenv("ATLAS_TEMPERATURE_URL"); v != "" {
		cfg.Charts.Temperature.Source = v
	}
	if v := os.Getenv("ATLAS_STATUS_FILE"); v != "" {
		cfg.Page.StatusFile = v
	}
	if v := os.Getenv("ATLAS_NOTICE"); v != "" {
		cfg.Page.Notice = v
	}
	if v := os.Getenv("ATLAS_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("ATLAS_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("ATLAS_RENDER_CRON"); v != "" {
		cfg.Schedule.RenderCron = v
	}
	if v := os.Getenv("ATLAS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("ATLAS_WINDOW_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Charts.SoC.WindowDays = days
			cfg.Charts.Temperature.WindowDays = days
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	applyChartDefaults(&cfg.Charts.SoC, defaultSoC())
	applyChartDefaults(&cfg.Charts.Temperature, defaultTemperature())
	if cfg.Sync.Zoom == nil {
		on := true
		cfg.Sync.Zoom = &on
	}
	if cfg.Sync.Selection == nil {
		on := true
		cfg.Sync.Selection = &on
	}
	if cfg.Page.Title == "" {
		cfg.Page.Title = "ATLAS status"
	}
	if cfg.Page.ChartWidth == 0 {
		cfg.Page.ChartWidth = 960
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "public"
	}
	if cfg.Server.StateFile == "" {
		cfg.Server.StateFile = "data/view_state.json"
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 30 * time.Second
	}

	return cfg, nil
}

// defaultSoC and defaultTemperature build fresh records on every call so the two charts
// never share settings.
func defaultSoC() ChartConfig {
	return ChartConfig{
		Title:      "State of charge",
		Source:     "soc.csv",
		WindowDays: viewer.DefaultWindowDays,
		RollPeriod: 6,
		Unit:       string(viewer.UnitPercent),
	}
}

func defaultTemperature() ChartConfig {
	return ChartConfig{
		Title:      "Temperature",
		Source:     "temperature.csv",
		WindowDays: viewer.DefaultWindowDays,
		RollPeriod: 24,
		Unit:       string(viewer.UnitCelsius),
	}
}

func applyChartDefaults(c *ChartConfig, def ChartConfig) {
	if c.Title == "" {
		c.Title = def.Title
	}
	if c.Source == "" {
		c.Source = def.Source
	}
	if c.WindowDays == 0 {
		c.WindowDays = def.WindowDays
	}
	if c.RollPeriod == 0 {
		c.RollPeriod = def.RollPeriod
	}
	if c.Unit == "" {
		c.Unit = def.Unit
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	for name, ch := range map[string]ChartConfig{"soc": c.Charts.SoC, "temperature": c.Charts.Temperature} {
		if ch.RollPeriod < 1 {
			return fmt.Errorf("charts.%s.roll_period must be positive", name)
		}
		if ch.WindowDays < 1 {
			return fmt.Errorf("charts.%s.window_days must be positive", name)
		}
		if _, err := viewer.ParseUnit(ch.Unit); err != nil {
			return fmt.Errorf("charts.%s.unit: %w", name, err)
		}
	}
	if c.Page.ChartWidth < 200 {
		return fmt.Errorf("page.chart_width must be at least 200")
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must not be negative")
	}
	if c.Schedule.RenderCron != "" {
		if _, err := CronParser.Parse(c.Schedule.RenderCron); err != nil {
			return fmt.Errorf("schedule.render_cron: %w", err)
		}
	}
	return nil
}

// ChartConfigs returns the viewer settings for both charts, state-of-charge first.
func (c *Config) ChartConfigs() ([]viewer.ChartConfig, error) {
	out := make([]viewer.ChartConfig, 0, 2)
	for _, e := range []struct {
		name string
		cfg  ChartConfig
	}{{"soc", c.Charts.SoC}, {"temperature", c.Charts.Temperature}} {
		unit, err := viewer.ParseUnit(e.cfg.Unit)
		if err != nil {
			return nil, fmt.Errorf("charts.%s.unit: %w", e.name, err)
		}
		out = append(out, viewer.ChartConfig{
			Name:       e.name,
			Title:      e.cfg.Title,
			Source:     e.cfg.Source,
			WindowDays: e.cfg.WindowDays,
			RollPeriod: e.cfg.RollPeriod,
			Unit:       unit,
		})
	}
	return out, nil
}

// SyncOptions returns the chart synchronization settings.
func (c *Config) SyncOptions() viewer.SyncOptions {
	return viewer.SyncOptions{
		Zoom:      c.Sync.Zoom == nil || *c.Sync.Zoom,
		Selection: c.Sync.Selection == nil || *c.Sync.Selection,
		Range:     c.Sync.Range,
	}
}
