// Package fleetctl implements the fleetctl command line: flag and env
// configuration, logger setup and the command tree over the fleet helpers.
package fleetctl

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

type Config struct {
	LogLvl      string
	Inventory   string
	MetricsFile string
	SSHTimeout  int
	NoColor     bool
}

// ConfigFromEnv returns the configuration defaults taken from FLEETCTL_*
// variables. Flags override them.
func ConfigFromEnv() *Config {
	return &Config{
		LogLvl:      envStr("FLEETCTL_LOG_LEVEL", "info"),
		Inventory:   envStr("FLEETCTL_INVENTORY", ""),
		MetricsFile: envStr("FLEETCTL_METRICS_FILE", ""),
		SSHTimeout:  envInt("FLEETCTL_SSH_TIMEOUT", 30),
		NoColor:     envBool("FLEETCTL_NO_COLOR", false),
	}
}

// MainWithArgs is a testable variant of Main that accepts args explicitly.
// It returns an exit code (0 for success, non-zero on error).
func MainWithArgs(args []string) int {
	if len(args) == 0 {
		root := buildRootCmd()
		root.SetOut(stdout)
		_ = root.Usage()
		return 2
	}
	root := buildRootCmdWith(ConfigFromEnv())
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

// Main returns an exit code (0 for success, non-zero on error) for use by cmd/fleetctl.
func Main() int { return MainWithArgs(os.Args[1:]) }
