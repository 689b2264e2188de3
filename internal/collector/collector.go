package collector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"AtlasStatus/internal/model"

	"gopkg.in/yaml.v3"
)

// MockFetcher returns fixed bodies keyed by source, for development and testing.
type MockFetcher struct {
	Bodies map[string]string
	Err    error
	Calls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context, source string) (io.ReadCloser, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	body, ok := m.Bodies[source]
	if !ok {
		return nil, fmt.Errorf("mock: no body for %s", source)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

// Collector resolves a source to a fetcher and turns the body into a series.
// Sources starting with http:// or https:// go to Remote, everything else to Local.
type Collector struct {
	Remote Fetcher
	Local  Fetcher
	Now    func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(remote, local Fetcher) *Collector {
	return &Collector{Remote: remote, Local: local, Now: time.Now}
}

func (c *Collector) fetcherFor(source string) Fetcher {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return c.Remote
	}
	return c.Local
}

// Raw returns the unparsed body of source.
func (c *Collector) Raw(ctx context.Context, source string) ([]byte, error) {
	f := c.fetcherFor(source)
	if f == nil {
		return nil, fmt.Errorf("no fetcher for %s", source)
	}
	rc, err := f.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return data, nil
}

// Load fetches and parses the CSV at source.
func (c *Collector) Load(ctx context.Context, source string) (*model.TimeSeries, error) {
	data, err := c.Raw(ctx, source)
	if err != nil {
		return nil, err
	}
	ts, err := ParseCSV(bytes.NewReader(data), source)
	if err != nil {
		return nil, err
	}
	ts.Source = source
	ts.LoadedAt = c.Now()
	log.Printf("[INFO] loaded %d samples (%s) from %s", ts.Len(), strings.Join(ts.Columns, ", "), source)
	return ts, nil
}

// LoadStatus reads the upstream template variables from a YAML or JSON document.
// An empty source yields empty vars.
func (c *Collector) LoadStatus(ctx context.Context, source string) (*model.StatusVars, error) {
	vars := &model.StatusVars{}
	if source == "" {
		return vars, nil
	}
	data, err := c.Raw(ctx, source)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, vars); err != nil {
		return nil, fmt.Errorf("parse status %s: %w", source, err)
	}
	return vars, nil
}

func sortSamples(samples []model.Sample) {
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Time.Before(samples[j].Time) })
}
