package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puppetfleet/internal/fleet"
)

type namedHost struct {
	fleet.Host
	name string
}

func (h namedHost) Name() string { return h.name }

func TestInstrumentCountsByExitCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollectors(reg)
	require.NoError(t, err)

	inner := fleet.RunnerFunc(func(_ context.Context, h fleet.Host, cmd string) (fleet.Result, error) {
		if strings.HasPrefix(cmd, "puppet agent") {
			return fleet.Result{Host: h.Name(), Command: cmd, ExitCode: 2}, nil
		}
		return fleet.Result{Host: h.Name(), Command: cmd}, nil
	})
	r := c.Instrument(inner)
	h := namedHost{name: "agent1"}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := r.Run(ctx, h, "puppet agent -t")
		require.NoError(t, err)
	}
	res, err := r.Run(ctx, h, "echo hi")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.commandsTotal.WithLabelValues("agent1", "puppet", "2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commandsTotal.WithLabelValues("agent1", "echo", "0")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.inflight.WithLabelValues("agent1")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.commandDuration))
}

func TestInstrumentTransportError(t *testing.T) {
	reg := prometheus.NewRegistry()
	boom := errors.New("dial failed")
	r, err := Instrument(fleet.RunnerFunc(func(context.Context, fleet.Host, string) (fleet.Result, error) {
		return fleet.Result{}, boom
	}), reg)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), namedHost{name: "db1"}, "true")
	assert.ErrorIs(t, err, boom)

	expected := `
# HELP puppetfleet_command_transport_errors_total Commands that could not be run because the transport failed
# TYPE puppetfleet_command_transport_errors_total counter
puppetfleet_command_transport_errors_total{host="db1"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "puppetfleet_command_transport_errors_total"))
}

func TestInstrumentRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollectors(reg)
	require.NoError(t, err)
	_, err = NewCollectors(reg)
	var already prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &already)
}

func TestProgram(t *testing.T) {
	cases := map[string]string{
		"puppet config set ca_server x": "puppet",
		"cmd.exe /c echo %PATH%":        "echo",
		"env PATH=x facter":             "env",
		"   ":                           "unknown",
	}
	for in, want := range cases {
		assert.Equal(t, want, program(in), in)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollectors(reg)
	require.NoError(t, err)
	_, err = c.Instrument(fleet.RunnerFunc(func(_ context.Context, h fleet.Host, cmd string) (fleet.Result, error) {
		return fleet.Result{Host: h.Name(), Command: cmd}, nil
	})).Run(context.Background(), namedHost{name: "master"}, "puppetserver --version")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fleet.prom")
	require.NoError(t, WriteTextfile(path, reg))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `puppetfleet_command_runs_total{exit_code="0",host="master",program="puppetserver"} 1`)
}
