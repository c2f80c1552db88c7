package otctl

import (
	"context"
	"net/netip"
	"slices"
	"strings"
)

// extendedMACHexLen is the length of an IEEE 802.15.4 extended MAC
// address in hex form (8 bytes).
const extendedMACHexLen = 16

// Minimum pipe-delimited column counts for the two topology tables.
// Rows with fewer columns are skipped, not errors.
const (
	childTableColumns    = 15
	neighborTableColumns = 11
)

// Column positions of the fields of interest within each table row.
const (
	tableRlocColumn        = 2
	childTableMACColumn    = 14
	neighborTableMACColumn = 10
)

// AssociationTable maps mesh link-layer identity to mesh global
// addresses: extended MAC to 16-bit routing locator, routing locator
// to the global IPv6 addresses known for that node. It is built fresh
// every cycle and consumed read-only; a new cycle replaces the whole
// table rather than mutating it.
type AssociationTable struct {
	MacToRloc   map[string]string
	RlocToAddrs map[string][]netip.Addr
}

// Lookup resolves an extended MAC (16 lowercase hex chars) to the
// global addresses of the node it identifies. Returns nil when either
// hop of the mapping is missing.
func (t *AssociationTable) Lookup(mac string) []netip.Addr {
	rloc, ok := t.MacToRloc[mac]
	if !ok {
		return nil
	}
	return t.RlocToAddrs[rloc]
}

// Size reports how many MAC associations and RLOC address groups the
// table holds.
func (t *AssociationTable) Size() (macs, rlocGroups int) {
	return len(t.MacToRloc), len(t.RlocToAddrs)
}

// SampleAssociations merges four topology queries into one
// AssociationTable: the end-device address cache and the child-IP
// table feed RLOC-to-address groups, the child and neighbor tables
// feed MAC-to-RLOC mappings. A query that returns no data contributes
// nothing; a row that does not parse is skipped.
func (c *Client) SampleAssociations(ctx context.Context) *AssociationTable {
	tbl := &AssociationTable{
		MacToRloc:   make(map[string]string),
		RlocToAddrs: make(map[string][]netip.Addr),
	}

	if lines, err := c.query(ctx, "eidcache"); err == nil {
		c.parseEIDCache(lines, tbl)
	}
	if lines, err := c.query(ctx, "childip"); err == nil {
		c.parseChildIP(lines, tbl)
	}
	if lines, err := c.query(ctx, "child", "table"); err == nil {
		parseMACTable(lines, childTableColumns, childTableMACColumn, tbl)
	}
	if lines, err := c.query(ctx, "neighbor", "table"); err == nil {
		parseMACTable(lines, neighborTableColumns, neighborTableMACColumn, tbl)
	}

	return tbl
}

// parseEIDCache handles rows of the form "<ip> <rloc> ...".
func (c *Client) parseEIDCache(lines []string, tbl *AssociationTable) {
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		addr, ok := parseGlobalAddr(fields[0])
		if !ok {
			continue
		}
		rloc := normalizeRloc(fields[1])
		tbl.addAddr(rloc, addr)
	}
}

// parseChildIP handles rows of the form "<rloc>: <ip>". Children that
// already appear in the address cache simply merge into the same
// group.
func (c *Client) parseChildIP(lines []string, tbl *AssociationTable) {
	for _, line := range lines {
		rlocPart, ipPart, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		addr, ok := parseGlobalAddr(strings.TrimSpace(ipPart))
		if !ok {
			continue
		}
		rloc := normalizeRloc(rlocPart)
		if rloc == "" {
			continue
		}
		tbl.addAddr(rloc, addr)
	}
}

// parseMACTable handles the pipe-delimited child and neighbor tables.
// Header and separator rows never reach the column checks: they either
// carry the RLOC16 heading or too few columns.
func parseMACTable(lines []string, minColumns, macColumn int, tbl *AssociationTable) {
	for _, line := range lines {
		if !strings.Contains(line, "|") || strings.Contains(line, "RLOC16") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < minColumns {
			continue
		}
		rloc := normalizeRloc(parts[tableRlocColumn])
		mac := strings.ToLower(strings.TrimSpace(parts[macColumn]))
		if rloc == "" || len(mac) != extendedMACHexLen || !isHexString(mac) {
			continue
		}
		tbl.MacToRloc[mac] = rloc
	}
}

func (t *AssociationTable) addAddr(rloc string, addr netip.Addr) {
	if rloc == "" || slices.Contains(t.RlocToAddrs[rloc], addr) {
		return
	}
	t.RlocToAddrs[rloc] = append(t.RlocToAddrs[rloc], addr)
}

// parseGlobalAddr accepts only global-scope IPv6 literals.
func parseGlobalAddr(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is6() || addr.Is4In6() || addr.IsLinkLocalUnicast() {
		return netip.Addr{}, false
	}
	return addr, true
}

func normalizeRloc(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
}

func isHexString(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
