package recorder

import "AtlasStatus/internal/model"

// Recorder persists chart load outcomes and view changes for later analysis.
type Recorder interface {
	RecordLoad(evt *model.LoadEvent) error
	RecordView(evt *model.ViewEvent) error
	Close() error
}
