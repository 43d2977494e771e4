package fleet

import (
	"context"
	"slices"
	"strings"
)

// testHost is an in-memory Host.
type testHost struct {
	name    string
	attrs   map[string]string
	env     map[string][]string
	roles   []string
	windows bool
	service bool
	aio     bool
}

func newTestHost(name string, roles ...string) *testHost {
	return &testHost{name: name, attrs: map[string]string{}, env: map[string][]string{}, roles: roles}
}

func (h *testHost) Name() string             { return h.name }
func (h *testHost) Get(attr string) string   { return h.attrs[attr] }
func (h *testHost) Set(attr, value string)   { h.attrs[attr] = value }
func (h *testHost) Unset(attr string)        { delete(h.attrs, attr) }
func (h *testHost) IsWindowsShell() bool     { return h.windows }
func (h *testHost) UsesServiceManager() bool { return h.service }
func (h *testHost) IsAIO() bool              { return h.aio }
func (h *testHost) HasRole(role string) bool { return slices.Contains(h.roles, role) }

func (h *testHost) AddEnvVar(name, value string) {
	if slices.Contains(h.env[name], value) {
		return
	}
	h.env[name] = append(h.env[name], value)
}

func (h *testHost) DeleteEnvVar(name, value string) {
	h.env[name] = slices.DeleteFunc(h.env[name], func(v string) bool { return v == value })
}

type call struct {
	host string
	cmd  string
}

// fakeRunner records every command. respond may answer a command; anything it
// does not handle exits 0, and echo commands print their argument.
type fakeRunner struct {
	calls   []call
	respond func(host, cmd string) (Result, bool)
}

func (f *fakeRunner) Run(_ context.Context, h Host, cmd string) (Result, error) {
	f.calls = append(f.calls, call{host: h.Name(), cmd: cmd})
	if f.respond != nil {
		if res, ok := f.respond(h.Name(), cmd); ok {
			res.Host, res.Command = h.Name(), cmd
			return res, nil
		}
	}
	res := Result{Host: h.Name(), Command: cmd}
	if strings.HasPrefix(cmd, `echo "`) {
		res.Stdout = strings.TrimSuffix(strings.TrimPrefix(cmd, `echo "`), `"`) + "\n"
	} else if strings.HasPrefix(cmd, "cmd.exe /c echo ") {
		res.Stdout = strings.TrimPrefix(cmd, "cmd.exe /c echo ") + "\r\n"
	}
	return res, nil
}

func (f *fakeRunner) count(substr string) int {
	n := 0
	for _, c := range f.calls {
		if strings.Contains(c.cmd, substr) {
			n++
		}
	}
	return n
}

func (f *fakeRunner) commands() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.cmd
	}
	return out
}
