// Command otbr-manager keeps an OpenThread border router visible on the
// local network.
//
// Every poll interval it samples mesh state through ot-ctl and
// reconciles three things against it:
//   - the _meshcop._udp border-agent advertisement on mDNS
//   - kernel IPv6 routes toward the mesh's routable prefixes
//   - foreign Matter announcements missing their address records
//
// Usage:
//
//	otbr-manager [flags]
//
// Flags:
//
//	-config string      Configuration file path (YAML)
//	-interface string   Mesh network interface (default "wpan0")
//	-port int           Advertised border-agent port (default 49154)
//	-hostname string    Advertised mDNS host name
//	-event-log string   Append CBOR events to this file
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-oneshot            Run a single reconciliation cycle and exit
//
// Examples:
//
//	# Run with defaults against wpan0
//	otbr-manager
//
//	# Custom interface and verbose logging
//	otbr-manager -interface wpan1 -log-level debug
//
//	# One reconciliation pass, e.g. from a systemd timer
//	otbr-manager -oneshot
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/otbr-tools/otbr-manager/pkg/advertise"
	"github.com/otbr-tools/otbr-manager/pkg/config"
	"github.com/otbr-tools/otbr-manager/pkg/daemon"
	"github.com/otbr-tools/otbr-manager/pkg/eventlog"
	"github.com/otbr-tools/otbr-manager/pkg/fixer"
	"github.com/otbr-tools/otbr-manager/pkg/mdns"
	"github.com/otbr-tools/otbr-manager/pkg/netif"
	"github.com/otbr-tools/otbr-manager/pkg/otctl"
	"github.com/otbr-tools/otbr-manager/pkg/routes"
)

func main() {
	var (
		configFile string
		iface      string
		port       int
		hostName   string
		eventLog   string
		logLevel   string
		oneshot    bool
	)

	flag.StringVar(&configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&iface, "interface", "", "Mesh network interface")
	flag.IntVar(&port, "port", 0, "Advertised border-agent port")
	flag.StringVar(&hostName, "hostname", "", "Advertised mDNS host name")
	flag.StringVar(&eventLog, "event-log", "", "Append CBOR events to this file")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&oneshot, "oneshot", false, "Run a single reconciliation cycle and exit")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "otbr-manager: %v\n", err)
		os.Exit(1)
	}

	// Flags override file and environment.
	if iface != "" {
		cfg.Interface = iface
	}
	if port != 0 {
		cfg.Port = port
	}
	if hostName != "" {
		cfg.HostName = config.NormalizeHostName(hostName)
	}
	if eventLog != "" {
		cfg.EventLogPath = eventLog
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "otbr-manager: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "otbr-manager: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, oneshot, log); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, oneshot bool, log zerolog.Logger) error {
	events, closeEvents, err := newEventLogger(cfg, log)
	if err != nil {
		return err
	}
	defer closeEvents()

	client := otctl.NewClient(&otctl.ExecRunner{}, cfg.Vendor, cfg.Model, log)

	mdnsConfig := mdns.Config{TTL: mdns.DefaultTTL}

	// The advertiser and the fixer each get their own publisher so the
	// fixer's blanket withdrawal never touches the agent advertisement.
	advertiser := advertise.NewReconciler(
		client,
		&netif.SystemAddrSource{},
		mdns.NewZeroconfPublisher(mdnsConfig, log),
		cfg.Interface, cfg.HostName, cfg.Port,
		log,
	)

	router := routes.NewReconciler(
		routes.NewIPRouteTable(cfg.Interface, routes.DefaultMetric),
		log,
	)

	announcementFixer := fixer.New(
		client,
		mdns.NewZeroconfPublisher(mdnsConfig, log),
		mdns.NewZeroconfBrowser(mdnsConfig, log),
		events,
		log,
	)

	manager := daemon.New(advertiser, client, router, announcementFixer,
		cfg.PollInterval, events, log)

	log.Info().
		Str("interface", cfg.Interface).
		Str("hostname", cfg.HostName).
		Int("port", cfg.Port).
		Msg("otbr-manager starting")

	if oneshot {
		manager.RunCycle(ctx)
		advertiser.Shutdown()
		announcementFixer.Shutdown()
		return nil
	}
	return manager.Run(ctx)
}

// newEventLogger builds the event pipeline: every event is stamped with
// this run's ID, mirrored to the console at debug level, and appended
// to the CBOR log when one is configured.
func newEventLogger(cfg config.Config, log zerolog.Logger) (eventlog.Logger, func(), error) {
	sinks := []eventlog.Logger{eventlog.NewZerologAdapter(log)}
	closeEvents := func() {}

	if cfg.EventLogPath != "" {
		file, err := eventlog.NewFileLogger(cfg.EventLogPath)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, file)
		closeEvents = func() { _ = file.Close() }
	}

	stamped := eventlog.WithRunID(eventlog.NewMultiLogger(sinks...), uuid.NewString())
	return stamped, closeEvents, nil
}

func newLogger(level string) (zerolog.Logger, error) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger(), nil
}
