package eventlog

import "time"

// WithRunID wraps a logger so every event carries the process run ID
// and a timestamp, filled in only when the caller left them empty.
func WithRunID(inner Logger, runID string) Logger {
	return &stampedLogger{inner: inner, runID: runID}
}

type stampedLogger struct {
	inner Logger
	runID string
}

func (s *stampedLogger) Log(event Event) {
	if event.RunID == "" {
		event.RunID = s.runID
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.inner.Log(event)
}

var _ Logger = (*stampedLogger)(nil)
