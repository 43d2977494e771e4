package remote

import (
	"bufio"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"puppetfleet/internal/fleet"
)

// envHost is implemented by hosts that carry environment contributions.
type envHost interface {
	EnvironmentString() string
}

// withEnvironment exports the host's environment ahead of command so every
// part of a compound command line, and any $VAR it expands, sees the PATH
// additions. Native Windows shells have no export.
func withEnvironment(h fleet.Host, command string) string {
	eh, ok := h.(envHost)
	if !ok || h.IsWindowsShell() {
		return command
	}
	env := eh.EnvironmentString()
	if env == "" {
		return command
	}
	return "export " + env + "; " + command
}

// stream logs each line read from r at debug level and drains whatever the
// scanner could not consume so writers never block.
func stream(log zerolog.Logger, host, prefix string, r io.Reader) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		log.Debug().Str("host", host).Str("stream", prefix).Msg(s.Text())
	}
	_, _ = io.Copy(io.Discard, r)
}

// lineTee copies everything written to it into buf and forwards it to a pipe
// for line logging.
type lineTee struct {
	buf *strings.Builder
	w   io.Writer
}

func (t *lineTee) Write(p []byte) (int, error) {
	t.buf.Write(p)
	if t.w != nil {
		_, _ = t.w.Write(p)
	}
	return len(p), nil
}
