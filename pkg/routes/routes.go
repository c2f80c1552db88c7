// Package routes reconciles mesh-originated routable prefixes against
// the kernel IPv6 route table for the mesh interface.
package routes

import (
	"context"
	"fmt"
	"net/netip"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultMetric favors mesh routes over routes installed by other
// daemons on the same interface.
const DefaultMetric = 1

// defaultCommandTimeout bounds a single ip(8) invocation.
const defaultCommandTimeout = 10 * time.Second

// defaultRoute must never be installed toward the mesh: it would pull
// all traffic into a routing loop through the border router.
var defaultRoute = netip.MustParsePrefix("::/0")

// Table is the kernel routing collaborator: list the IPv6 routes
// scoped to the mesh interface, and install one route idempotently.
type Table interface {
	List(ctx context.Context) ([]netip.Prefix, error)
	Replace(ctx context.Context, prefix netip.Prefix) error
}

// IPRouteTable manipulates routes through the ip(8) command.
type IPRouteTable struct {
	iface  string
	metric int
	run    func(ctx context.Context, args ...string) (string, error)
}

// NewIPRouteTable creates a route table scoped to the given interface.
// A metric of 0 selects DefaultMetric.
func NewIPRouteTable(iface string, metric int) *IPRouteTable {
	if metric == 0 {
		metric = DefaultMetric
	}
	return &IPRouteTable{
		iface:  iface,
		metric: metric,
		run:    runIPCommand,
	}
}

func runIPCommand(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultCommandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ip", args...).Output()
	if err != nil {
		return "", fmt.Errorf("routes: ip %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// List returns the prefixes currently routed over the interface.
// Route rows whose first token is not a CIDR literal (for example the
// bare "default" destination) are ignored; desired prefixes are always
// /64 literals, so nothing comparable is lost.
func (t *IPRouteTable) List(ctx context.Context) ([]netip.Prefix, error) {
	out, err := t.run(ctx, "-6", "route", "show", "dev", t.iface)
	if err != nil {
		return nil, err
	}

	var prefixes []netip.Prefix
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		prefix, err := netip.ParsePrefix(fields[0])
		if err != nil {
			continue
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

// Replace installs or updates a route for the prefix over the
// interface. "replace" makes the operation idempotent.
func (t *IPRouteTable) Replace(ctx context.Context, prefix netip.Prefix) error {
	_, err := t.run(ctx, "-6", "route", "replace", prefix.String(),
		"dev", t.iface, "metric", strconv.Itoa(t.metric))
	return err
}

var _ Table = (*IPRouteTable)(nil)
