package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"AtlasStatus/internal/viewer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Charts.SoC.RollPeriod != 6 || cfg.Charts.Temperature.RollPeriod != 24 {
		t.Errorf("want roll periods 6/24, got %d/%d", cfg.Charts.SoC.RollPeriod, cfg.Charts.Temperature.RollPeriod)
	}
	if cfg.Charts.SoC.WindowDays != 60 {
		t.Errorf("want 60 day window, got %d", cfg.Charts.SoC.WindowDays)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("want 30s fetch timeout, got %v", cfg.FetchTimeout)
	}
	opts := cfg.SyncOptions()
	if !opts.Zoom || !opts.Selection || opts.Range {
		t.Errorf("unexpected sync defaults: %+v", opts)
	}
}

func TestLoad_ChartRecordsAreIndependent(t *testing.T) {
	path := writeConfig(t, `
charts:
  soc:
    source: https://atlas.example/soc.csv
    roll_period: 12
  temperature:
    unit: none
sync:
  zoom: false
  range: true
fetch_timeout: 5s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Charts.SoC.RollPeriod != 12 {
		t.Errorf("soc roll period: want 12, got %d", cfg.Charts.SoC.RollPeriod)
	}
	if cfg.Charts.Temperature.RollPeriod != 24 {
		t.Errorf("temperature must keep its own default, got %d", cfg.Charts.Temperature.RollPeriod)
	}
	if cfg.Charts.SoC.Unit != "percent" || cfg.Charts.Temperature.Unit != "none" {
		t.Errorf("units leaked between charts: %q / %q", cfg.Charts.SoC.Unit, cfg.Charts.Temperature.Unit)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("want 5s, got %v", cfg.FetchTimeout)
	}
	opts := cfg.SyncOptions()
	if opts.Zoom || !opts.Range || !opts.Selection {
		t.Errorf("unexpected sync options: %+v", opts)
	}

	charts, err := cfg.ChartConfigs()
	if err != nil {
		t.Fatal(err)
	}
	if charts[0].Name != "soc" || charts[0].Unit != viewer.UnitPercent || charts[0].Source != "https://atlas.example/soc.csv" {
		t.Errorf("unexpected soc chart: %+v", charts[0])
	}
	if charts[1].Name != "temperature" || charts[1].Unit != viewer.UnitNone {
		t.Errorf("unexpected temperature chart: %+v", charts[1])
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ATLAS_SOC_URL", "http://override/soc.csv")
	t.Setenv("ATLAS_WINDOW_DAYS", "14")
	t.Setenv("ATLAS_LISTEN_ADDR", ":9000")
	cfg, err := Load(writeConfig(t, "charts:\n  soc:\n    source: file.csv\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Charts.SoC.Source != "http://override/soc.csv" {
		t.Errorf("env override not applied: %s", cfg.Charts.SoC.Source)
	}
	if cfg.Charts.SoC.WindowDays != 14 || cfg.Charts.Temperature.WindowDays != 14 {
		t.Errorf("window override not applied: %d/%d", cfg.Charts.SoC.WindowDays, cfg.Charts.Temperature.WindowDays)
	}
	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("listen addr: %s", cfg.Server.ListenAddr)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "charts: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"negative roll": "charts:\n  soc:\n    roll_period: -1\n",
		"bad unit":      "charts:\n  temperature:\n    unit: kelvin\n",
		"bad cron":      "schedule:\n  render_cron: every now and then\n",
		"narrow chart":  "page:\n  chart_width: 50\n",
	}
	for name, body := range cases {
		cfg, err := Load(writeConfig(t, body))
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}

	cfg, _ := Load(writeConfig(t, "schedule:\n  render_cron: \"0 */15 * * * *\"\n"))
	if err := cfg.Validate(); err != nil {
		t.Errorf("six-field cron must validate: %v", err)
	}
}
