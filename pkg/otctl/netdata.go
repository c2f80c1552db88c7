package otctl

import (
	"context"
	"net/netip"
	"slices"
	"strings"
)

// omrPrefixBits is the only prefix length the mesh publishes as
// off-mesh-routable. Requiring it also keeps the default route out of
// the result: ::/0 can never satisfy a /64 check.
const omrPrefixBits = 64

// SampleRoutablePrefixes parses the "netdata show" report and returns
// the mesh-originated routable prefixes, deduplicated and sorted.
//
// Only lines inside the Prefixes section count; the section ends at
// the following Routes or Services header. A line contributes a prefix
// when its first token is an IPv6 /64 CIDR literal.
func (c *Client) SampleRoutablePrefixes(ctx context.Context) ([]netip.Prefix, error) {
	lines, err := c.query(ctx, "netdata", "show")
	if err != nil {
		return nil, err
	}

	seen := make(map[netip.Prefix]struct{})
	var prefixes []netip.Prefix

	inPrefixes := false
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "Prefixes"):
			inPrefixes = true
			continue
		case strings.HasPrefix(line, "Routes"), strings.HasPrefix(line, "Services"):
			inPrefixes = false
			continue
		}
		if !inPrefixes {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		prefix, err := netip.ParsePrefix(fields[0])
		if err != nil || !prefix.Addr().Is6() || prefix.Bits() != omrPrefixBits {
			continue
		}
		prefix = prefix.Masked()
		if _, dup := seen[prefix]; dup {
			continue
		}
		seen[prefix] = struct{}{}
		prefixes = append(prefixes, prefix)
	}

	slices.SortFunc(prefixes, func(a, b netip.Prefix) int {
		return a.Addr().Compare(b.Addr())
	})
	return prefixes, nil
}
