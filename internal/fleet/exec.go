package fleet

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

type runConfig struct {
	acceptAll  bool
	acceptable []int
}

// RunOption adjusts which exit codes On accepts.
type RunOption func(*runConfig)

// AcceptAllExitCodes makes On return every result without judging its status.
func AcceptAllExitCodes() RunOption {
	return func(c *runConfig) { c.acceptAll = true }
}

// AcceptableExitCodes replaces the default acceptable set {0}.
func AcceptableExitCodes(codes ...int) RunOption {
	return func(c *runConfig) { c.acceptable = append([]int(nil), codes...) }
}

// On runs command on h and checks its exit status against the acceptable set.
// Transport failures are wrapped; an unacceptable status yields *CommandError.
func On(ctx context.Context, r Runner, h Host, command string, opts ...RunOption) (Result, error) {
	cfg := runConfig{acceptable: []int{0}}
	for _, o := range opts {
		o(&cfg)
	}
	res, err := r.Run(ctx, h, command)
	if err != nil {
		return res, fmt.Errorf("host %s: run %q: %w", h.Name(), command, err)
	}
	if cfg.acceptAll || slices.Contains(cfg.acceptable, res.ExitCode) {
		return res, nil
	}
	return res, &CommandError{
		Host:       h.Name(),
		Command:    command,
		ExitCode:   res.ExitCode,
		Acceptable: cfg.acceptable,
		Stderr:     res.Stderr,
	}
}

// Echo expands any shell indirection in value by echoing it on h.
func Echo(ctx context.Context, r Runner, h Host, value string) (string, error) {
	cmd := fmt.Sprintf("echo \"%s\"", value)
	if h.IsWindowsShell() {
		cmd = fmt.Sprintf("cmd.exe /c echo %s", value)
	}
	res, err := On(ctx, r, h, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(res.Stdout, "\r\n"), nil
}

func puppet(args ...string) string {
	return "puppet " + strings.Join(args, " ")
}

// serviceState renders the declarative "ensure service state" command.
func serviceState(service, ensure string) string {
	return puppet("resource", "service", service, "ensure="+ensure)
}
