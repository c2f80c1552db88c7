package mdns

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/rs/zerolog"
)

// Config selects the network interface and record TTL for both the
// publisher and the browser. An empty interface means all interfaces.
type Config struct {
	Interface string
	TTL       time.Duration
}

// ZeroconfPublisher implements Publisher on the zeroconf responder.
// One zeroconf server is held per published full instance name.
type ZeroconfPublisher struct {
	config Config
	log    zerolog.Logger

	mu      sync.Mutex
	servers map[string]*zeroconf.Server
}

// NewZeroconfPublisher creates a publisher.
func NewZeroconfPublisher(config Config, log zerolog.Logger) *ZeroconfPublisher {
	if config.TTL == 0 {
		config.TTL = DefaultTTL
	}
	return &ZeroconfPublisher{
		config:  config,
		log:     log.With().Str("component", "mdns").Logger(),
		servers: make(map[string]*zeroconf.Server),
	}
}

// interfaces returns the interfaces to advertise on, nil meaning all.
func (p *ZeroconfPublisher) interfaces() []net.Interface {
	if p.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(p.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Publish registers the record as a proxy service. If the same full
// name is already held, the old registration is shut down first, so a
// publish doubles as an update.
func (p *ZeroconfPublisher) Publish(_ context.Context, rec *ServiceRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := rec.FullName()
	if old, exists := p.servers[name]; exists {
		old.Shutdown()
		delete(p.servers, name)
	}

	ips := make([]string, 0, len(rec.Addresses))
	for _, addr := range rec.Addresses {
		ips = append(ips, addr.String())
	}

	opts := []zeroconf.ServerOption{zeroconf.TTL(uint32(p.config.TTL.Seconds()))}

	server, err := zeroconf.RegisterProxy(
		rec.Instance,
		rec.Service,
		Domain,
		rec.Port,
		hostForRegistration(rec.HostName),
		ips,
		rec.Text,
		p.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("%w: register %s: %w", ErrResponder, name, err)
	}

	p.servers[name] = server
	p.log.Debug().Str("name", name).Int("addresses", len(ips)).Msg("service registered")
	return nil
}

// Withdraw shuts down the registration for the full instance name.
// Withdrawing an unknown name is a no-op.
func (p *ZeroconfPublisher) Withdraw(fullName string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if server, exists := p.servers[fullName]; exists {
		server.Shutdown()
		delete(p.servers, fullName)
		p.log.Debug().Str("name", fullName).Msg("service withdrawn")
	}
}

// WithdrawAll shuts down every held registration.
func (p *ZeroconfPublisher) WithdrawAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for name, server := range p.servers {
		server.Shutdown()
		delete(p.servers, name)
	}
}

// Published returns how many registrations are currently held.
func (p *ZeroconfPublisher) Published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.servers)
}

// ZeroconfBrowser implements Browser on the zeroconf client.
type ZeroconfBrowser struct {
	config Config
	log    zerolog.Logger
}

// NewZeroconfBrowser creates a browser.
func NewZeroconfBrowser(config Config, log zerolog.Logger) *ZeroconfBrowser {
	return &ZeroconfBrowser{
		config: config,
		log:    log.With().Str("component", "mdns").Logger(),
	}
}

// Watch browses each service type until ctx is cancelled, invoking fn
// for every add or update event. Removal events are drained and
// dropped: a record the fixer corrected is allowed to go stale until a
// later event supersedes it.
func (b *ZeroconfBrowser) Watch(ctx context.Context, serviceTypes []string, fn func(Announcement)) error {
	for _, serviceType := range serviceTypes {
		entries := make(chan *zeroconf.ServiceEntry)
		removed := make(chan *zeroconf.ServiceEntry)

		go func(serviceType string) {
			for {
				select {
				case entry, ok := <-entries:
					if !ok {
						return
					}
					fn(entryToAnnouncement(serviceType, entry))
				case <-removed:
				case <-ctx.Done():
					return
				}
			}
		}(serviceType)

		go func(serviceType string) {
			if err := zeroconf.Browse(ctx, serviceType, Domain, entries, removed, b.clientOptions()...); err != nil {
				b.log.Warn().Err(err).Str("service", serviceType).Msg("browse stopped")
			}
		}(serviceType)
	}
	return nil
}

func (b *ZeroconfBrowser) clientOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if b.config.Interface != "" {
		if iface, err := net.InterfaceByName(b.config.Interface); err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

// entryToAnnouncement converts a zeroconf entry. Only IPv6 addresses
// are carried over, but IPv4 records still count as "has addresses".
func entryToAnnouncement(serviceType string, entry *zeroconf.ServiceEntry) Announcement {
	var addrs []netip.Addr
	for _, ip := range entry.AddrIPv6 {
		if addr, ok := netip.AddrFromSlice(ip); ok {
			addrs = append(addrs, addr.Unmap())
		}
	}

	return Announcement{
		ServiceType:  serviceType,
		InstanceName: entry.Instance,
		HostName:     entry.HostName,
		Port:         entry.Port,
		Text:         entry.Text,
		Addresses:    addrs,
		HasAddresses: len(entry.AddrIPv4)+len(entry.AddrIPv6) > 0,
	}
}

var (
	_ Publisher = (*ZeroconfPublisher)(nil)
	_ Browser   = (*ZeroconfBrowser)(nil)
)
