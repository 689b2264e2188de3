package recorder

import "AtlasStatus/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordLoad(_ *model.LoadEvent) error { return nil }
func (n *NoopRecorder) RecordView(_ *model.ViewEvent) error { return nil }
func (n *NoopRecorder) Close() error                        { return nil }
