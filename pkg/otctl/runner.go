package otctl

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrNoData indicates a mesh-control query returned nothing usable:
// empty output, an error marker, or a failed invocation. Callers treat
// it as "this field is absent this cycle", never as a fatal condition.
var ErrNoData = errors.New("otctl: no data")

// Runner executes a single mesh-control command and returns its raw
// text output. Production use shells out to ot-ctl; tests supply
// canned output.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// DefaultCommandTimeout bounds a single ot-ctl invocation.
const DefaultCommandTimeout = 10 * time.Second

// ExecRunner runs commands through the ot-ctl binary.
type ExecRunner struct {
	// Path is the ot-ctl binary path. Empty means "ot-ctl" from PATH.
	Path string

	// Timeout bounds each invocation. Zero means DefaultCommandTimeout.
	Timeout time.Duration
}

// Run executes ot-ctl with the given arguments and returns stdout.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	path := r.Path
	if path == "" {
		path = "ot-ctl"
	}
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultCommandTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return "", fmt.Errorf("otctl: %s %s: %w", path, strings.Join(args, " "), err)
	}
	return string(out), nil
}

// cleanOutput normalizes raw ot-ctl output into data lines.
//
// Carriage returns are stripped, blank lines and the trailing "Done"
// acknowledgement are dropped, and an "Error ..." marker anywhere in
// the output turns the whole response into ErrNoData.
func cleanOutput(raw string) ([]string, error) {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r", ""), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "Done" {
			continue
		}
		if strings.HasPrefix(line, "Error") {
			return nil, ErrNoData
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, ErrNoData
	}
	return lines, nil
}

var _ Runner = (*ExecRunner)(nil)
