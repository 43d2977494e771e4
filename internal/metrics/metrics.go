// Package metrics instruments remote command execution for Prometheus and
// exports the collected series in node-exporter textfile format.
package metrics

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"puppetfleet/internal/fleet"
)

const namespace = "puppetfleet"

// Collectors holds the command series. Create it with NewCollectors so it is
// registered exactly once per registry.
type Collectors struct {
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	inflight        *prometheus.GaugeVec
	transportErrors *prometheus.CounterVec
}

// NewCollectors builds the command series and registers them with reg.
func NewCollectors(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "command",
				Name:      "runs_total",
				Help:      "Total number of remote commands by program and exit code",
			},
			[]string{"host", "program", "exit_code"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "command",
				Name:      "duration_seconds",
				Help:      "Duration of remote commands in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"host", "program"},
		),
		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "command",
				Name:      "inflight",
				Help:      "Remote commands currently running",
			},
			[]string{"host"},
		),
		transportErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "command",
				Name:      "transport_errors_total",
				Help:      "Commands that could not be run because the transport failed",
			},
			[]string{"host"},
		),
	}
	for _, col := range []prometheus.Collector{c.commandsTotal, c.commandDuration, c.inflight, c.transportErrors} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Instrument wraps next so that every command is counted and timed.
func (c *Collectors) Instrument(next fleet.Runner) fleet.Runner {
	return fleet.RunnerFunc(func(ctx context.Context, h fleet.Host, command string) (fleet.Result, error) {
		host := h.Name()
		prog := program(command)
		c.inflight.WithLabelValues(host).Inc()
		defer c.inflight.WithLabelValues(host).Dec()

		start := time.Now()
		res, err := next.Run(ctx, h, command)
		c.commandDuration.WithLabelValues(host, prog).Observe(time.Since(start).Seconds())
		if err != nil {
			c.transportErrors.WithLabelValues(host).Inc()
			return res, err
		}
		c.commandsTotal.WithLabelValues(host, prog, strconv.Itoa(res.ExitCode)).Inc()
		return res, nil
	})
}

// Instrument registers a fresh set of collectors with reg and wraps r.
func Instrument(r fleet.Runner, reg prometheus.Registerer) (fleet.Runner, error) {
	c, err := NewCollectors(reg)
	if err != nil {
		return nil, err
	}
	return c.Instrument(r), nil
}

// program returns the executable of a shell command line so the label set
// stays small. Windows wrappers report the wrapped program.
func program(command string) string {
	fields := strings.Fields(command)
	for len(fields) > 2 && strings.EqualFold(fields[0], "cmd.exe") && strings.EqualFold(fields[1], "/c") {
		fields = fields[2:]
	}
	if len(fields) == 0 {
		return "unknown"
	}
	return fields[0]
}

// WriteTextfile writes every series gathered from g to path atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
