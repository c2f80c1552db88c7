// Package netif reads the live address table of the mesh network
// interface.
package netif

import (
	"fmt"
	"net"
	"net/netip"
	"slices"
)

// AddrSource enumerates global IPv6 addresses bound to a named
// interface. The production implementation reads the kernel's
// interface-address table; tests supply fixed sets.
type AddrSource interface {
	GlobalAddresses(ifaceName string) ([]netip.Addr, error)
}

// SystemAddrSource reads addresses through the net package.
type SystemAddrSource struct{}

// GlobalAddresses returns all IPv6 addresses currently bound to the
// interface, excluding link-local (fe80::/10) and IPv4 addresses.
func (SystemAddrSource) GlobalAddresses(ifaceName string) ([]netip.Addr, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("netif: interface %s: %w", ifaceName, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("netif: addresses of %s: %w", ifaceName, err)
	}
	return filterGlobal(addrs), nil
}

// filterGlobal keeps only global-scope IPv6 addresses, sorted for
// stable comparison across cycles.
func filterGlobal(addrs []net.Addr) []netip.Addr {
	var out []netip.Addr
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		addr, ok := netip.AddrFromSlice(ipNet.IP)
		if !ok {
			continue
		}
		addr = addr.Unmap()
		if !addr.Is6() || addr.Is4In6() || addr.IsLinkLocalUnicast() {
			continue
		}
		out = append(out, addr)
	}
	slices.SortFunc(out, netip.Addr.Compare)
	return out
}

var _ AddrSource = SystemAddrSource{}
