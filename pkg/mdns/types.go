// Package mdns wraps the zeroconf responder behind small publish and
// browse interfaces.
//
// Registration goes through proxy records so the advertised host name
// and address set are chosen by the caller instead of derived from the
// local machine; this is what lets the manager advertise the mesh
// interface's global addresses, and the discovery fixer republish a
// foreign record under the original advertiser's host name.
package mdns

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// Domain is the mDNS domain everything here operates in.
const Domain = "local"

// DefaultTTL is the DNS record TTL used when none is configured.
const DefaultTTL = 120 * time.Second

// ErrResponder indicates the underlying responder could not be set up.
var ErrResponder = errors.New("mdns: responder unavailable")

// ServiceRecord is one service advertisement: identity, reachability
// and TXT payload. Records are value snapshots; publishing a changed
// record means building a new one, never mutating a published one.
type ServiceRecord struct {
	// Instance is the bare instance name, e.g. "MyMesh".
	Instance string

	// Service is the service type, e.g. "_meshcop._udp".
	Service string

	// HostName is the advertised host, normalized to end in ".local.".
	HostName string

	// Port is the advertised port.
	Port int

	// Text holds the TXT records in key=value form.
	Text []string

	// Addresses are the IPv6 addresses advertised for HostName.
	Addresses []netip.Addr
}

// FullName returns the fully qualified instance name,
// e.g. "MyMesh._meshcop._udp.local.".
func (r *ServiceRecord) FullName() string {
	return fmt.Sprintf("%s.%s.%s.", r.Instance, r.Service, Domain)
}

// Publisher registers, replaces and withdraws service advertisements.
// Publishing a name that is already held replaces the existing
// registration in place.
type Publisher interface {
	Publish(ctx context.Context, rec *ServiceRecord) error
	Withdraw(fullName string)
	WithdrawAll()
}

// Announcement is a foreign service advertisement observed on the
// network. Announcements are read-only inputs; the observer never owns
// them.
type Announcement struct {
	ServiceType  string
	InstanceName string
	HostName     string
	Port         int
	Text         []string

	// Addresses are the IPv6 addresses the announcement carries.
	Addresses []netip.Addr

	// HasAddresses reports whether the announcement carried any
	// address record at all, IPv4 included. A record reachable over
	// IPv4 only is still reachable and must not be "repaired".
	HasAddresses bool
}

// Browser watches service types for add and update events. Removal
// events are intentionally not surfaced.
type Browser interface {
	Watch(ctx context.Context, serviceTypes []string, fn func(Announcement)) error
}

// trimDot strips leading and trailing dots from a DNS name fragment.
func trimDot(s string) string {
	return strings.Trim(s, ".")
}

// hostForRegistration converts a ".local."-qualified host name into
// the bare host label set the responder expects.
func hostForRegistration(hostName string) string {
	return trimDot(strings.TrimSuffix(trimDot(hostName), "local"))
}
