package routes

import (
	"context"
	"net/netip"

	"github.com/rs/zerolog"
)

// Reconciler converges the kernel route table toward the desired set
// of mesh-routable prefixes. It only ever adds: prefixes present in
// the kernel but no longer desired are left alone, since they may be
// owned by other processes.
type Reconciler struct {
	table Table
	log   zerolog.Logger
}

// NewReconciler creates a route reconciler over the given table.
func NewReconciler(table Table, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		table: table,
		log:   log.With().Str("component", "routes").Logger(),
	}
}

// Sync installs a route for every desired prefix missing from the
// kernel table and returns the prefixes it added. The default route is
// rejected outright regardless of what the caller passes in. Failures
// are per-prefix: one failed install does not stop the rest.
func (r *Reconciler) Sync(ctx context.Context, desired []netip.Prefix) []netip.Prefix {
	current, err := r.table.List(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("cannot read kernel routes, skipping sync")
		return nil
	}

	have := make(map[netip.Prefix]struct{}, len(current))
	for _, p := range current {
		have[p] = struct{}{}
	}

	var added []netip.Prefix
	for _, prefix := range desired {
		if prefix == defaultRoute {
			r.log.Warn().Msg("refusing to install default route toward the mesh")
			continue
		}
		if _, ok := have[prefix.Masked()]; ok {
			continue
		}
		if err := r.table.Replace(ctx, prefix); err != nil {
			r.log.Warn().Err(err).Stringer("prefix", prefix).Msg("route install failed")
			continue
		}
		r.log.Info().Stringer("prefix", prefix).Msg("added missing mesh route")
		added = append(added, prefix)
	}
	return added
}
