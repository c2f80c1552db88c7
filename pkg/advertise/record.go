// Package advertise derives the border router's _meshcop._udp service
// advertisement from sampled mesh state and keeps the published record
// in step with it.
package advertise

import (
	"bytes"
	"maps"
	"net/netip"
	"slices"

	"github.com/otbr-tools/otbr-manager/pkg/mdns"
	"github.com/otbr-tools/otbr-manager/pkg/otctl"
)

// ServiceType is the MeshCoP border-agent discovery service type.
const ServiceType = "_meshcop._udp"

// TXT record keys of the MeshCoP advertisement. Values are binary.
const (
	TXTKeyNetworkName     = "nn"
	TXTKeyExtendedPanID   = "xp"
	TXTKeyThreadVersion   = "tv"
	TXTKeyExtendedAddress = "xa"
	TXTKeyBorderAgentID   = "id"
	TXTKeyStateBitmap     = "sb"
	TXTKeyVendorName      = "vn"
	TXTKeyModelName       = "mn"
)

// Record is the desired service-advertisement state derived from one
// dataset snapshot. It is owned by the Reconciler: one live instance
// at a time, replaced atomically, never mutated after construction.
type Record struct {
	InstanceName string
	HostName     string
	Port         int
	Properties   map[string][]byte
	Addresses    []netip.Addr
}

// BuildRecord assembles the advertisement for a dataset snapshot. The
// instance name is the network name; addrs are the mesh interface's
// global addresses.
func BuildRecord(props *otctl.DatasetProperties, addrs []netip.Addr, hostName string, port int) *Record {
	txt := map[string][]byte{
		TXTKeyNetworkName:     []byte(props.NetworkName),
		TXTKeyExtendedPanID:   props.ExtendedPanID,
		TXTKeyThreadVersion:   []byte(props.ThreadVersion),
		TXTKeyExtendedAddress: props.ExtendedAddress,
		TXTKeyBorderAgentID:   props.BorderAgentID,
		TXTKeyStateBitmap:     props.StateBitmap,
	}
	if props.VendorName != "" {
		txt[TXTKeyVendorName] = []byte(props.VendorName)
	}
	if props.ModelName != "" {
		txt[TXTKeyModelName] = []byte(props.ModelName)
	}

	return &Record{
		InstanceName: props.NetworkName,
		HostName:     hostName,
		Port:         port,
		Properties:   txt,
		Addresses:    addrs,
	}
}

// Equal reports structural equality over instance name, property map
// and address set. Address comparison is order-independent.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.InstanceName != other.InstanceName {
		return false
	}
	if !maps.EqualFunc(r.Properties, other.Properties, bytes.Equal) {
		return false
	}
	return maps.Equal(addrSet(r.Addresses), addrSet(other.Addresses))
}

// FullName returns the fully qualified instance name.
func (r *Record) FullName() string {
	return r.serviceRecord().FullName()
}

// serviceRecord converts to the mdns publishing form, with TXT entries
// in deterministic key order.
func (r *Record) serviceRecord() *mdns.ServiceRecord {
	text := make([]string, 0, len(r.Properties))
	for _, key := range slices.Sorted(maps.Keys(r.Properties)) {
		text = append(text, key+"="+string(r.Properties[key]))
	}
	return &mdns.ServiceRecord{
		Instance:  r.InstanceName,
		Service:   ServiceType,
		HostName:  r.HostName,
		Port:      r.Port,
		Text:      text,
		Addresses: r.Addresses,
	}
}

func addrSet(addrs []netip.Addr) map[netip.Addr]struct{} {
	set := make(map[netip.Addr]struct{}, len(addrs))
	for _, a := range addrs {
		set[a] = struct{}{}
	}
	return set
}
