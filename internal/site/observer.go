package site

import (
	"log"

	"AtlasStatus/internal/model"
	"AtlasStatus/internal/recorder"
	"AtlasStatus/internal/viewer"
)

// fanout passes every event to each observer in turn.
type fanout []viewer.Observer

func (f fanout) OnLoad(evt model.LoadEvent) {
	for _, o := range f {
		o.OnLoad(evt)
	}
}

func (f fanout) OnView(evt model.ViewEvent) {
	for _, o := range f {
		o.OnView(evt)
	}
}

// recording adapts a Recorder to viewer.Observer. Write failures are logged, never returned
// to the chart that triggered them.
type recording struct {
	rec recorder.Recorder
}

func (r recording) OnLoad(evt model.LoadEvent) {
	if err := r.rec.RecordLoad(&evt); err != nil {
		log.Printf("[ERROR] record load: %v", err)
	}
}

func (r recording) OnView(evt model.ViewEvent) {
	if err := r.rec.RecordView(&evt); err != nil {
		log.Printf("[ERROR] record view: %v", err)
	}
}
