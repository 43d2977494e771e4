package fleet

import "context"

// Well-known host attributes.
const (
	AttrPuppetBinDir  = "puppetbindir"
	AttrFacterBinDir  = "facterbindir"
	AttrHieraBinDir   = "hierabindir"
	AttrPrivateBinDir = "privatebindir"
	AttrPathSeparator = "pathseparator"
	AttrPlatform      = "platform"
	AttrType          = "type"
)

// RoleAuthority is the role carried by the certificate-signing host.
const RoleAuthority = "master"

// Host is a test machine owned by the caller. Implementations are not expected
// to be safe for concurrent use; each host is mutated by one call at a time.
type Host interface {
	Name() string
	// Get returns the attribute value or "" when it is unset.
	Get(attr string) string
	Set(attr, value string)
	Unset(attr string)
	// AddEnvVar appends value to the ordered contributions for name.
	AddEnvVar(name, value string)
	// DeleteEnvVar removes value from the contributions for name. Removing a
	// value that is not present is a no-op.
	DeleteEnvVar(name, value string)
	IsWindowsShell() bool
	UsesServiceManager() bool
	// IsAIO reports whether the host runs the all-in-one agent family.
	IsAIO() bool
	HasRole(role string) bool
}

// Result is the outcome of one remote command.
type Result struct {
	Host     string
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes a shell command on a host and blocks until it exits. A
// non-zero exit status is reported in Result.ExitCode; the error return is
// reserved for transport failures.
type Runner interface {
	Run(ctx context.Context, h Host, command string) (Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, h Host, command string) (Result, error)

func (f RunnerFunc) Run(ctx context.Context, h Host, command string) (Result, error) {
	return f(ctx, h, command)
}

// WithRole returns the hosts carrying role, preserving order.
func WithRole(hosts []Host, role string) []Host {
	var out []Host
	for _, h := range hosts {
		if h.HasRole(role) {
			out = append(out, h)
		}
	}
	return out
}
