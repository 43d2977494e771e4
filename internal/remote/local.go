package remote

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"puppetfleet/internal/fleet"
)

// LocalRunner runs commands with sh -c on the machine running the tool.
type LocalRunner struct {
	Shell string
	Env   map[string]string // additional env vars
	Dir   string            // working directory
	Log   zerolog.Logger
}

var _ fleet.Runner = (*LocalRunner)(nil)

// NewLocalRunner returns a runner using /bin/sh.
func NewLocalRunner(log zerolog.Logger) *LocalRunner {
	return &LocalRunner{Shell: "/bin/sh", Log: log}
}

func (l *LocalRunner) Run(ctx context.Context, h fleet.Host, command string) (fleet.Result, error) {
	full := withEnvironment(h, command)
	res := fleet.Result{Host: h.Name(), Command: command}

	shell := l.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", full)
	if l.Dir != "" {
		cmd.Dir = l.Dir
	}
	// inherit environment
	cmd.Env = os.Environ()
	for k, v := range l.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr strings.Builder
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	cmd.Stdout = &lineTee{buf: &stdout, w: outW}
	cmd.Stderr = &lineTee{buf: &stderr, w: errW}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); stream(l.Log, h.Name(), "OUT", outR) }()
	go func() { defer wg.Done(); stream(l.Log, h.Name(), "ERR", errR) }()

	l.Log.Debug().Str("host", h.Name()).Str("cmd", command).Msg("exec")
	err := cmd.Run()
	_ = outW.Close()
	_ = errW.Close()
	wg.Wait()

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}
