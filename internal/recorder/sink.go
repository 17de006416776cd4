package recorder

import (
	"github.com/banshee-data/thermo.report/internal/poller"
)

// RunSink binds a DB to a single run and adapts it to poller.Sink.
type RunSink struct {
	db    *DB
	runID string
}

// NewRunSink registers a new run and returns a sink writing into it.
func NewRunSink(db *DB, prefix string) (*RunSink, error) {
	runID, err := db.BeginRun(prefix)
	if err != nil {
		return nil, err
	}
	return &RunSink{db: db, runID: runID}, nil
}

// RunID returns the run this sink writes to.
func (s *RunSink) RunID() string {
	return s.runID
}

// Record implements poller.Sink.
func (s *RunSink) Record(smp poller.Sample) error {
	return s.db.RecordReading(s.runID, smp.Cycle, smp.Elapsed.Seconds(), smp.Reading)
}

// Flush implements poller.Sink; every reading is already committed.
func (s *RunSink) Flush() error {
	return nil
}
