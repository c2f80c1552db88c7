// Package fixer repairs foreign mDNS announcements that were published
// without address records.
//
// Some Thread end devices advertise their Matter services with zero
// A/AAAA records, which leaves them undiscoverable even though the
// border router knows exactly how to reach them. The fixer watches the
// Matter service types, and when an announcement with no addresses
// names a host the mesh topology can verify (the host label is the
// device's extended MAC), it republishes the same record with the
// mesh-derived global addresses, cooperating with rather than
// replacing the original advertiser.
package fixer

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/otbr-tools/otbr-manager/pkg/eventlog"
	"github.com/otbr-tools/otbr-manager/pkg/mdns"
	"github.com/otbr-tools/otbr-manager/pkg/otctl"
)

// WatchedServiceTypes are the foreign service types observed for
// repair: Matter commissionable and Matter operational.
var WatchedServiceTypes = []string{"_matterc._udp", "_matter._tcp"}

// macHexLen is the length of an extended MAC address in hex form. A
// host label is only treated as a device identity at exactly this
// length.
const macHexLen = 16

// AssociationSampler rebuilds the link-layer association table from
// live mesh state.
type AssociationSampler interface {
	SampleAssociations(ctx context.Context) *otctl.AssociationTable
}

// Fixer observes foreign announcements and injects verified addresses.
//
// Two execution contexts touch it: the periodic driver refreshing the
// association table, and the browser callback firing on announcement
// events at arbitrary times. They share only the table pointer, which
// is swapped atomically, so the callback always sees a complete
// snapshot, never a half-built one.
type Fixer struct {
	sampler   AssociationSampler
	publisher mdns.Publisher
	browser   mdns.Browser
	events    eventlog.Logger
	log       zerolog.Logger

	associations atomic.Pointer[otctl.AssociationTable]
}

// New creates a fixer. Call RefreshAssociations before Start so the
// first announcement events already see topology data.
func New(sampler AssociationSampler, publisher mdns.Publisher, browser mdns.Browser,
	events eventlog.Logger, log zerolog.Logger) *Fixer {
	f := &Fixer{
		sampler:   sampler,
		publisher: publisher,
		browser:   browser,
		events:    events,
		log:       log.With().Str("component", "fixer").Logger(),
	}
	f.associations.Store(&otctl.AssociationTable{
		MacToRloc:   map[string]string{},
		RlocToAddrs: nil,
	})
	return f
}

// Start begins watching the foreign service types. The watch runs
// until ctx is cancelled.
func (f *Fixer) Start(ctx context.Context) error {
	return f.browser.Watch(ctx, WatchedServiceTypes, func(ann mdns.Announcement) {
		f.HandleAnnouncement(ctx, ann)
	})
}

// RefreshAssociations rebuilds the association table from live mesh
// state and swaps it in atomically. Run once per driver cycle.
func (f *Fixer) RefreshAssociations(ctx context.Context) {
	tbl := f.sampler.SampleAssociations(ctx)
	f.associations.Store(tbl)

	macs, groups := tbl.Size()
	f.log.Debug().Int("macs", macs).Int("rloc_groups", groups).Msg("association table refreshed")
}

// HandleAnnouncement inspects one add/update event. It publishes a
// corrected record only when the announcement has no addresses at all
// and the advertiser's identity resolves through the association
// table; anything unverifiable is left untouched.
func (f *Fixer) HandleAnnouncement(ctx context.Context, ann mdns.Announcement) {
	mac, ok := macFromHostName(ann.HostName)
	if !ok {
		return
	}

	candidates := f.associations.Load().Lookup(mac)
	if ann.HasAddresses || len(candidates) == 0 {
		return
	}

	corrected := &mdns.ServiceRecord{
		Instance:  ann.InstanceName,
		Service:   ann.ServiceType,
		HostName:  ann.HostName,
		Port:      ann.Port,
		Text:      ann.Text,
		Addresses: candidates,
	}

	if err := f.publisher.Publish(ctx, corrected); err != nil {
		f.log.Warn().Err(err).Str("name", corrected.FullName()).Msg("address injection failed")
		f.events.Log(eventlog.Event{
			Category:     eventlog.CategoryError,
			InstanceName: corrected.FullName(),
			Error:        err.Error(),
		})
		return
	}

	addrs := make([]string, 0, len(candidates))
	for _, a := range candidates {
		addrs = append(addrs, a.String())
	}
	f.log.Info().
		Str("name", corrected.FullName()).
		Str("mac", mac).
		Strs("addresses", addrs).
		Msg("injected verified addresses")
	f.events.Log(eventlog.Event{
		Category:     eventlog.CategoryFix,
		InstanceName: corrected.FullName(),
		Addresses:    addrs,
		Detail:       "mac " + mac,
	})
}

// Shutdown withdraws every correction this fixer published.
func (f *Fixer) Shutdown() {
	f.publisher.WithdrawAll()
}

// macFromHostName extracts a candidate extended MAC from an mDNS host
// name like "2E278F1D98E1714D.local.". The label is accepted only at
// the exact hex length of a MAC address; everything else is not an
// identity we can verify.
func macFromHostName(hostName string) (string, bool) {
	host := strings.ToLower(strings.Trim(hostName, "."))
	label, _, _ := strings.Cut(host, ".")
	if len(label) != macHexLen {
		return "", false
	}
	for _, r := range label {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return "", false
		}
	}
	return label, true
}
