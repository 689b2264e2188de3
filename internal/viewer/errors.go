package viewer

import (
	"errors"
	"fmt"
)

// DataLoadError is returned when a chart's CSV resource cannot be fetched or parsed.
// The chart stays blank; nothing retries.
type DataLoadError struct {
	Chart  string
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %v", e.Chart, e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

var (
	ErrNotReady      = errors.New("chart is not ready")
	ErrUnknownChart  = errors.New("unknown chart")
	ErrInvalidPeriod = errors.New("roll period must be a positive integer")
)
