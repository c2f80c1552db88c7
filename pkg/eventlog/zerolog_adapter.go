package eventlog

import "github.com/rs/zerolog"

// ZerologAdapter mirrors events onto a zerolog logger at debug level,
// for development runs where a separate event file is overkill.
type ZerologAdapter struct {
	log zerolog.Logger
}

// NewZerologAdapter creates an adapter writing to the given logger.
func NewZerologAdapter(log zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{log: log.With().Str("component", "eventlog").Logger()}
}

// Log writes the event as one structured debug line.
func (a *ZerologAdapter) Log(event Event) {
	e := a.log.Debug().
		Str("category", event.Category.String()).
		Str("run_id", event.RunID)

	if event.InstanceName != "" {
		e = e.Str("instance", event.InstanceName)
	}
	if event.Prefix != "" {
		e = e.Str("prefix", event.Prefix)
	}
	if len(event.Addresses) > 0 {
		e = e.Strs("addresses", event.Addresses)
	}
	if event.Detail != "" {
		e = e.Str("detail", event.Detail)
	}
	if event.Error != "" {
		e = e.Str("error", event.Error)
	}
	e.Msg("event")
}

var _ Logger = (*ZerologAdapter)(nil)
