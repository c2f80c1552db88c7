// Package otctl samples live OpenThread state through the ot-ctl
// command-line interface.
//
// All output ot-ctl produces is free-form text subject to truncation
// and error markers, so every parser here is tolerant: a query that
// returns nothing usable contributes nothing to the sample, and a row
// that does not parse is skipped without aborting the rest.
package otctl

import (
	"context"

	"github.com/rs/zerolog"
)

// Client queries the mesh-control interface and produces typed
// snapshots of the network state. Snapshots are rebuilt wholesale on
// every call; nothing is cached between cycles.
type Client struct {
	runner Runner
	log    zerolog.Logger

	vendor string
	model  string
}

// NewClient creates a sampler on top of the given runner. vendor and
// model are carried into every dataset snapshot as the advertised
// vendor/model text properties.
func NewClient(runner Runner, vendor, model string, log zerolog.Logger) *Client {
	return &Client{
		runner: runner,
		log:    log.With().Str("component", "otctl").Logger(),
		vendor: vendor,
		model:  model,
	}
}

// query runs one ot-ctl command and returns its cleaned data lines.
// Invocation failures are demoted to ErrNoData after a debug log.
func (c *Client) query(ctx context.Context, args ...string) ([]string, error) {
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		c.log.Debug().Err(err).Strs("args", args).Msg("mesh-control query failed")
		return nil, ErrNoData
	}
	return cleanOutput(out)
}

// queryFirstLine returns the first data line of a command's output.
func (c *Client) queryFirstLine(ctx context.Context, args ...string) (string, error) {
	lines, err := c.query(ctx, args...)
	if err != nil {
		return "", err
	}
	return lines[0], nil
}
