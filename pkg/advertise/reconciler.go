package advertise

import (
	"context"
	"net/netip"

	"github.com/rs/zerolog"

	"github.com/otbr-tools/otbr-manager/pkg/mdns"
	"github.com/otbr-tools/otbr-manager/pkg/netif"
	"github.com/otbr-tools/otbr-manager/pkg/otctl"
)

// DatasetSampler provides the dataset snapshot the advertisement is
// derived from. otctl.ErrNoData means "unregister and wait".
type DatasetSampler interface {
	SampleDataset(ctx context.Context) (*otctl.DatasetProperties, error)
}

// Action is the outcome of one reconciliation pass.
type Action uint8

const (
	// ActionNone means the published state already matched.
	ActionNone Action = iota

	// ActionPublished means a record was newly registered.
	ActionPublished

	// ActionReplaced means the old record was withdrawn and a changed
	// one registered.
	ActionReplaced

	// ActionWithdrawn means the record was unregistered because the
	// dataset became unavailable or a publish attempt failed.
	ActionWithdrawn
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "NONE"
	case ActionPublished:
		return "PUBLISHED"
	case ActionReplaced:
		return "REPLACED"
	case ActionWithdrawn:
		return "WITHDRAWN"
	default:
		return "UNKNOWN"
	}
}

// Reconciler keeps the published _meshcop._udp advertisement matching
// the live dataset. Two states: Unpublished (current == nil) and
// Published. The record is replaced wholesale on change; the old
// registration is always withdrawn before the new one is made, so the
// same instance name is never registered twice by this process.
type Reconciler struct {
	sampler   DatasetSampler
	addrs     netif.AddrSource
	publisher mdns.Publisher
	log       zerolog.Logger

	iface    string
	hostName string
	port     int

	current *Record
}

// NewReconciler creates an advertisement reconciler. hostName must be
// ".local."-qualified; port is the fixed advertised port.
func NewReconciler(sampler DatasetSampler, addrs netif.AddrSource, publisher mdns.Publisher,
	iface, hostName string, port int, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		sampler:   sampler,
		addrs:     addrs,
		publisher: publisher,
		log:       log.With().Str("component", "advertise").Logger(),
		iface:     iface,
		hostName:  hostName,
		port:      port,
	}
}

// Current returns the currently published record, nil when
// unpublished.
func (r *Reconciler) Current() *Record {
	return r.current
}

// Reconcile runs one pass: sample, diff, converge. It never returns an
// error for routine data absence; the returned Action says what, if
// anything, changed on the responder.
func (r *Reconciler) Reconcile(ctx context.Context) Action {
	props, err := r.sampler.SampleDataset(ctx)
	if err != nil {
		if r.current == nil {
			return ActionNone
		}
		r.log.Warn().Msg("dataset lost or invalid, withdrawing advertisement")
		r.withdrawCurrent()
		return ActionWithdrawn
	}

	addrs, err := r.addrs.GlobalAddresses(r.iface)
	if err != nil {
		// Advertise without addresses rather than not at all; the
		// record still announces the agent's presence and properties.
		r.log.Warn().Err(err).Msg("cannot read interface addresses")
		addrs = nil
	}

	desired := BuildRecord(props, addrs, r.hostName, r.port)
	if desired.Equal(r.current) {
		return ActionNone
	}

	replacing := r.current != nil
	if replacing {
		r.withdrawCurrent()
	}

	if err := r.publisher.Publish(ctx, desired.serviceRecord()); err != nil {
		// Typically a name collision with another responder. The old
		// record is already gone, so we are Unpublished; the next
		// cycle rebuilds and retries.
		r.log.Warn().Err(err).Str("name", desired.FullName()).Msg("publish failed, retrying next cycle")
		if replacing {
			return ActionWithdrawn
		}
		return ActionNone
	}

	r.current = desired
	r.log.Info().
		Str("name", desired.FullName()).
		Strs("addresses", addrStrings(desired.Addresses)).
		Msg("advertisement registered")
	if replacing {
		return ActionReplaced
	}
	return ActionPublished
}

// Shutdown withdraws the current advertisement, if any. Safe to call
// on every exit path.
func (r *Reconciler) Shutdown() {
	if r.current != nil {
		r.log.Info().Str("name", r.current.FullName()).Msg("withdrawing advertisement on shutdown")
		r.withdrawCurrent()
	}
}

func (r *Reconciler) withdrawCurrent() {
	r.publisher.Withdraw(r.current.FullName())
	r.current = nil
}

func addrStrings(addrs []netip.Addr) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return out
}
