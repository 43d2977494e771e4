package fleet

import (
	"errors"
	"fmt"
	"strings"

	"puppetfleet/internal/collection"
)

// ErrServerNotInstalled is returned when the authority reports no server version.
var ErrServerNotInstalled = errors.New("puppetserver is not installed")

// CommandError reports a remote command that exited with a status outside the
// acceptable set for its step.
type CommandError struct {
	Host       string
	Command    string
	ExitCode   int
	Acceptable []int
	Stderr     string
}

func (e *CommandError) Error() string {
	codes := make([]string, len(e.Acceptable))
	for i, c := range e.Acceptable {
		codes[i] = fmt.Sprint(c)
	}
	msg := fmt.Sprintf("host %s: command %q exited %d (acceptable: %s)",
		e.Host, e.Command, e.ExitCode, strings.Join(codes, ","))
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// IsCommandFailure reports whether err carries a CommandError.
func IsCommandFailure(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

// MissingHandlerError signals that no defaults handler is registered for a
// type. It indicates a setup defect and aborts the whole batch.
type MissingHandlerError struct {
	Host   string
	Type   collection.HostType
	Remove bool
}

func (e *MissingHandlerError) Error() string {
	if e.Remove {
		return fmt.Sprintf("cannot remove defaults of type %q associated with host %s (no remove handler registered)", e.Type, e.Host)
	}
	return fmt.Sprintf("cannot add defaults of type %q for host %s (no add handler registered)", e.Type, e.Host)
}

// IsMissingHandler reports whether err carries a MissingHandlerError.
func IsMissingHandler(err error) bool {
	var me *MissingHandlerError
	return errors.As(err, &me)
}

// AuthorityCountError is returned when a rotation does not find exactly one
// authority host.
type AuthorityCountError struct{ Found int }

func (e *AuthorityCountError) Error() string {
	return fmt.Sprintf("unable to find a single %s node (found %d)", RoleAuthority, e.Found)
}
