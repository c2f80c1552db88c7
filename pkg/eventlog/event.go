package eventlog

import "time"

// Event is one reconciliation action or observation.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID identifies the daemon process that produced the event.
	RunID string `cbor:"2,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"3,keyasint"`

	// InstanceName is the mDNS instance the event concerns, if any.
	InstanceName string `cbor:"4,keyasint,omitempty"`

	// Prefix is the route prefix the event concerns, if any.
	Prefix string `cbor:"5,keyasint,omitempty"`

	// Addresses are the IPv6 addresses involved, if any.
	Addresses []string `cbor:"6,keyasint,omitempty"`

	// Detail carries free-form context (association counts, host
	// names).
	Detail string `cbor:"7,keyasint,omitempty"`

	// Error is the failure text for CategoryError events.
	Error string `cbor:"8,keyasint,omitempty"`
}

// Category classifies a reconciliation event.
type Category uint8

const (
	// CategoryCycle marks the start of a reconciliation cycle.
	CategoryCycle Category = 0

	// CategoryAdvertise is a border-agent advertisement register or
	// replace.
	CategoryAdvertise Category = 1

	// CategoryWithdraw is an advertisement withdrawal.
	CategoryWithdraw Category = 2

	// CategoryRoute is a kernel route install.
	CategoryRoute Category = 3

	// CategoryFix is a corrected foreign announcement.
	CategoryFix Category = 4

	// CategoryError is a per-call failure the cycle recovered from.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCycle:
		return "CYCLE"
	case CategoryAdvertise:
		return "ADVERTISE"
	case CategoryWithdraw:
		return "WITHDRAW"
	case CategoryRoute:
		return "ROUTE"
	case CategoryFix:
		return "FIX"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
