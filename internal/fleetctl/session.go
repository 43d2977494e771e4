package fleetctl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"puppetfleet/internal/fleet"
	"puppetfleet/internal/inventory"
	"puppetfleet/internal/metrics"
	"puppetfleet/internal/remote"
)

// session is one command's view of the fleet: the loaded inventory and an
// instrumented runner whose connections are released by finish.
type session struct {
	inv         *inventory.Inventory
	runner      fleet.Runner
	reg         *prometheus.Registry
	closeRunner func() error
	metricsFile string
}

func openSession(cfg *Config) (*session, error) {
	if cfg.Inventory == "" {
		return nil, errors.New("no inventory: pass --inventory or set FLEETCTL_INVENTORY")
	}
	inv, err := fnLoadInventory(cfg.Inventory)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	base, closeRunner := fnNewRunner(cfg, logger)
	reg := prometheus.NewRegistry()
	r, err := metrics.Instrument(base, reg)
	if err != nil {
		_ = closeRunner()
		return nil, err
	}
	logger.Debug().Str("inventory", cfg.Inventory).Int("hosts", len(inv.Hosts())).Msg("inventory loaded")
	return &session{inv: inv, runner: r, reg: reg, closeRunner: closeRunner, metricsFile: cfg.MetricsFile}, nil
}

// finish closes the transports and, when configured, writes the command
// metrics.
func (s *session) finish() error {
	err := s.closeRunner()
	if s.metricsFile != "" {
		if werr := fnWriteMetrics(s.metricsFile, s.reg); werr != nil {
			err = errors.Join(err, fmt.Errorf("write metrics: %w", werr))
		} else {
			logger.Debug().Str("path", s.metricsFile).Msg("metrics written")
		}
	}
	return err
}

// withSession resolves selector against a fresh session and runs fn on the
// selected hosts.
func withSession(ctx context.Context, cfg *Config, selector string, fn func(context.Context, *session, []fleet.Host) error) (err error) {
	s, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.finish()) }()
	hosts, err := s.inv.Resolve(selector)
	if err != nil {
		return err
	}
	return fn(ctx, s, hosts)
}

func newRunner(cfg *Config, log zerolog.Logger) (fleet.Runner, func() error) {
	sshRunner := remote.NewSSHRunner(log)
	if cfg.SSHTimeout > 0 {
		sshRunner.Timeout = time.Duration(cfg.SSHTimeout) * time.Second
	}
	return remote.Dispatch{Local: remote.NewLocalRunner(log), SSH: sshRunner}, sshRunner.Close
}
