// Package daemon drives the reconciliation loop: advertisement, route
// sync and association refresh run strictly sequentially on a fixed
// interval, while the discovery fixer's browser reacts to announcement
// events in between.
package daemon

import (
	"context"
	"fmt"
	"net/netip"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/otbr-tools/otbr-manager/pkg/advertise"
	"github.com/otbr-tools/otbr-manager/pkg/eventlog"
)

// Advertiser is the advertisement reconciler surface the driver needs.
type Advertiser interface {
	Reconcile(ctx context.Context) advertise.Action
	Current() *advertise.Record
	Shutdown()
}

// PrefixSampler provides the desired routable-prefix set.
type PrefixSampler interface {
	SampleRoutablePrefixes(ctx context.Context) ([]netip.Prefix, error)
}

// RouteSyncer converges the kernel table and reports what it added.
type RouteSyncer interface {
	Sync(ctx context.Context, desired []netip.Prefix) []netip.Prefix
}

// AnnouncementFixer is the discovery fixer surface the driver needs.
type AnnouncementFixer interface {
	Start(ctx context.Context) error
	RefreshAssociations(ctx context.Context)
	Shutdown()
}

// Manager owns the cycle loop and the shutdown sequence.
type Manager struct {
	advertiser Advertiser
	prefixes   PrefixSampler
	router     RouteSyncer
	fixer      AnnouncementFixer
	events     eventlog.Logger
	log        zerolog.Logger

	interval time.Duration
	cycles   uint64
}

// New wires the manager. interval is the cycle period.
func New(advertiser Advertiser, prefixes PrefixSampler, router RouteSyncer,
	fixer AnnouncementFixer, interval time.Duration,
	events eventlog.Logger, log zerolog.Logger) *Manager {
	return &Manager{
		advertiser: advertiser,
		prefixes:   prefixes,
		router:     router,
		fixer:      fixer,
		events:     events,
		log:        log.With().Str("component", "daemon").Logger(),
		interval:   interval,
	}
}

// Run starts the announcement watch, executes one cycle immediately so
// the fixer never sees events before topology data exists, then loops
// until ctx is cancelled. Whatever is registered with the responder is
// withdrawn on every exit path.
func (m *Manager) Run(ctx context.Context) error {
	defer m.shutdown()

	if err := m.fixer.Start(ctx); err != nil {
		return fmt.Errorf("daemon: start announcement watch: %w", err)
	}

	m.log.Info().Dur("interval", m.interval).Msg("reconciliation loop started")
	m.RunCycle(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("shutting down")
			return nil
		case <-ticker.C:
			m.RunCycle(ctx)
		}
	}
}

// RunCycle executes one reconciliation pass. Every step recovers from
// its own failures; nothing here aborts the cycle.
func (m *Manager) RunCycle(ctx context.Context) {
	m.cycles++
	m.events.Log(eventlog.Event{
		Category: eventlog.CategoryCycle,
		Detail:   strconv.FormatUint(m.cycles, 10),
	})

	m.reconcileAdvertisement(ctx)
	m.syncRoutes(ctx)
	m.fixer.RefreshAssociations(ctx)
}

func (m *Manager) reconcileAdvertisement(ctx context.Context) {
	previous := m.advertiser.Current()

	switch action := m.advertiser.Reconcile(ctx); action {
	case advertise.ActionPublished, advertise.ActionReplaced:
		current := m.advertiser.Current()
		m.events.Log(eventlog.Event{
			Category:     eventlog.CategoryAdvertise,
			InstanceName: current.FullName(),
			Addresses:    addrStrings(current.Addresses),
			Detail:       action.String(),
		})
	case advertise.ActionWithdrawn:
		event := eventlog.Event{Category: eventlog.CategoryWithdraw}
		if previous != nil {
			event.InstanceName = previous.FullName()
		}
		m.events.Log(event)
	}
}

func (m *Manager) syncRoutes(ctx context.Context) {
	desired, err := m.prefixes.SampleRoutablePrefixes(ctx)
	if err != nil {
		m.log.Debug().Err(err).Msg("no routable prefixes this cycle")
		return
	}
	for _, prefix := range m.router.Sync(ctx, desired) {
		m.events.Log(eventlog.Event{
			Category: eventlog.CategoryRoute,
			Prefix:   prefix.String(),
		})
	}
}

// shutdown withdraws the advertisement and all fixer corrections.
func (m *Manager) shutdown() {
	m.advertiser.Shutdown()
	m.fixer.Shutdown()
}

func addrStrings(addrs []netip.Addr) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return out
}
