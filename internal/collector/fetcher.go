package collector

import (
	"context"
	"io"
)

// Fetcher defines the interface for retrieving a raw CSV or status resource.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (io.ReadCloser, error)
	Name() string
}
