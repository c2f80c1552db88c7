// Package eventlog records reconciliation events in a compact,
// replayable form.
//
// The daemon's console log is for humans; the event log is for
// answering "what did the manager actually do to the responder and the
// route table, and when" after the fact. Events are CBOR-framed so a
// long-running appliance can keep days of history cheaply.
package eventlog

// Logger receives reconciliation events. Pass NoopLogger to disable.
type Logger interface {
	// Log records one event. Implementations must be safe for
	// concurrent use and must never block reconciliation.
	Log(event Event)
}

// NoopLogger discards all events. Usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
