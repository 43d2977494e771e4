package inventory

import (
	"fmt"
	"slices"
	"strings"

	"puppetfleet/internal/collection"
	"puppetfleet/internal/fleet"
)

// Transports a host may be reached over.
const (
	TransportSSH   = "ssh"
	TransportLocal = "local"
)

// Host is an inventory entry. It implements fleet.Host.
type Host struct {
	name      string
	address   string
	transport string
	ssh       SSH
	roles     []string
	attrs     map[string]string

	envOrder []string
	env      map[string][]string
}

var _ fleet.Host = (*Host)(nil)

func (h *Host) Name() string { return h.name }

func (h *Host) String() string { return h.name }

// Address is the dial target, falling back to the host name.
func (h *Host) Address() string {
	if h.address != "" {
		return h.address
	}
	return h.name
}

func (h *Host) Transport() string { return h.transport }

func (h *Host) SSH() SSH { return h.ssh }

func (h *Host) Roles() []string { return append([]string(nil), h.roles...) }

func (h *Host) HasRole(role string) bool { return slices.Contains(h.roles, role) }

func (h *Host) Get(attr string) string { return h.attrs[attr] }

func (h *Host) Set(attr, value string) { h.attrs[attr] = value }

func (h *Host) Unset(attr string) { delete(h.attrs, attr) }

// AddEnvVar appends value to name's contributions unless already present. The
// bare variable name (the placeholder for its current value) is always kept
// last so added directories take precedence.
func (h *Host) AddEnvVar(name, value string) {
	vals, ok := h.env[name]
	if !ok {
		h.envOrder = append(h.envOrder, name)
	}
	if value == name {
		vals = slices.DeleteFunc(vals, func(v string) bool { return v == name })
		h.env[name] = append(vals, value)
		return
	}
	if slices.Contains(vals, value) {
		return
	}
	if i := slices.Index(vals, name); i >= 0 {
		vals = slices.Insert(vals, i, value)
	} else {
		vals = append(vals, value)
	}
	h.env[name] = vals
}

func (h *Host) DeleteEnvVar(name, value string) {
	vals, ok := h.env[name]
	if !ok {
		return
	}
	h.env[name] = slices.DeleteFunc(vals, func(v string) bool { return v == value })
}

// EnvVar returns the ordered contributions for name.
func (h *Host) EnvVar(name string) []string { return append([]string(nil), h.env[name]...) }

// dquoteEscaper escapes the characters a POSIX shell still interprets inside
// double quotes.
var dquoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)

// EnvironmentString renders the contributions as NAME="a:b:$NAME" pairs for a
// command prefix. Empty variables are omitted.
func (h *Host) EnvironmentString() string {
	sep := ":"
	if h.IsWindowsShell() && h.Get(fleet.AttrPathSeparator) != "" {
		sep = h.Get(fleet.AttrPathSeparator)
	}
	var pairs []string
	for _, name := range h.envOrder {
		vals := h.env[name]
		if len(vals) == 0 {
			continue
		}
		parts := make([]string, len(vals))
		for i, v := range vals {
			if v == name {
				parts[i] = "$" + name
				continue
			}
			parts[i] = dquoteEscaper.Replace(v)
		}
		pairs = append(pairs, fmt.Sprintf("%s=\"%s\"", name, strings.Join(parts, sep)))
	}
	return strings.Join(pairs, " ")
}

// IsWindowsShell is true for Windows hosts not running under cygwin.
func (h *Host) IsWindowsShell() bool {
	return strings.HasPrefix(h.Get(fleet.AttrPlatform), "windows") && !truthy(h.Get("is_cygwin"))
}

func (h *Host) UsesServiceManager() bool { return truthy(h.Get("use-service")) }

// IsAIO reports whether the host runs the all-in-one agent: its type says so,
// it carries the aio role, or a pe_ver/version attribute is 4 or newer.
func (h *Host) IsAIO() bool {
	if collection.NormalizeHostType(h.Get(fleet.AttrType)) == collection.AIO || h.HasRole("aio") {
		return true
	}
	for _, key := range []string{"pe_ver", "version"} {
		v := h.Get(key)
		if v == "" {
			continue
		}
		if less, err := collection.IsLess("3.99", v); err == nil && less {
			return true
		}
	}
	return false
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
