package fleetctl

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// logger is the process-wide console logger handed to every package.
var logger zerolog.Logger

func init() {
	// default from env if present
	logger = newLogger(stderr, envBool("FLEETCTL_NO_COLOR", false))
	SetLogLevel(envStr("FLEETCTL_LOG_LEVEL", "info"))
}

func newLogger(w io.Writer, noColor bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: noColor}
	return zerolog.New(out).With().Timestamp().Logger()
}

func SetLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		logger = logger.Level(zerolog.DebugLevel)
	case "info":
		logger = logger.Level(zerolog.InfoLevel)
	case "warn", "warning":
		logger = logger.Level(zerolog.WarnLevel)
	case "error", "err":
		logger = logger.Level(zerolog.ErrorLevel)
	default:
		logger = logger.Level(zerolog.InfoLevel)
	}
}

// Env helpers
func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	s := strings.ToLower(v)
	return s == "1" || s == "true" || s == "yes"
}
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		_, err := fmt.Sscanf(v, "%d", &n)
		if err == nil {
			return n
		}
	}
	return def
}
