package netif

import (
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ipNet(cidr string) net.Addr {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	ipnet.IP = ip
	return ipnet
}

func TestFilterGlobal(t *testing.T) {
	addrs := []net.Addr{
		ipNet("fe80::a1/64"),                 // link-local, excluded
		ipNet("fd01:adb5:fb49:1:abcd::1/64"), // mesh-local, kept
		ipNet("192.168.1.10/24"),             // IPv4, excluded
		ipNet("2001:db8::5/64"),              // global, kept
		&net.TCPAddr{IP: net.ParseIP("::1")}, // wrong concrete type, excluded
	}

	got := filterGlobal(addrs)

	require.Len(t, got, 2)
	// Sorted output: 2001:db8::5 precedes fd01:...
	assert.Equal(t, netip.MustParseAddr("2001:db8::5"), got[0])
	assert.Equal(t, netip.MustParseAddr("fd01:adb5:fb49:1:abcd::1"), got[1])
}

func TestFilterGlobalEmpty(t *testing.T) {
	assert.Empty(t, filterGlobal(nil))
	assert.Empty(t, filterGlobal([]net.Addr{ipNet("fe80::1/64")}))
}
