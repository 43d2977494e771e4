// Package inventory loads the hosts a run operates on and resolves selectors
// (role names, host names, "all") to ordered host lists.
package inventory

import (
	"fmt"
	"maps"
	"strings"

	"puppetfleet/internal/fleet"
)

// SelectAll selects every host in the inventory.
const SelectAll = "all"

// Inventory is an ordered set of hosts.
type Inventory struct {
	hosts  []*Host
	byName map[string]*Host
}

// New builds an inventory from a parsed file. Host names must be unique.
// Local hosts without a platform get one detected from /etc/os-release.
func New(f File) (*Inventory, error) {
	inv := &Inventory{byName: make(map[string]*Host, len(f.Hosts))}
	for i, spec := range f.Hosts {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, fmt.Errorf("host #%d has no name", i+1)
		}
		if _, dup := inv.byName[name]; dup {
			return nil, fmt.Errorf("duplicate host %q", name)
		}
		h := &Host{
			name:      name,
			address:   spec.Address,
			transport: spec.Transport,
			ssh:       mergeSSH(f.SSH, spec.SSH),
			roles:     append([]string(nil), spec.Roles...),
			attrs:     make(map[string]string, len(f.Defaults)+len(spec.Attributes)+1),
			env:       make(map[string][]string),
		}
		if h.transport == "" {
			h.transport = TransportSSH
		}
		if h.transport != TransportSSH && h.transport != TransportLocal {
			return nil, fmt.Errorf("host %q: unknown transport %q", name, h.transport)
		}
		maps.Copy(h.attrs, f.Defaults)
		maps.Copy(h.attrs, spec.Attributes)
		if spec.Platform != "" {
			h.attrs[fleet.AttrPlatform] = spec.Platform
		}
		if h.attrs[fleet.AttrPlatform] == "" && h.transport == TransportLocal {
			if p, ok := fnLocalPlatform(); ok {
				h.attrs[fleet.AttrPlatform] = p
			}
		}
		if h.attrs[fleet.AttrPathSeparator] == "" {
			h.attrs[fleet.AttrPathSeparator] = ":"
			if strings.HasPrefix(h.attrs[fleet.AttrPlatform], "windows") {
				h.attrs[fleet.AttrPathSeparator] = ";"
			}
		}
		inv.hosts = append(inv.hosts, h)
		inv.byName[name] = h
	}
	return inv, nil
}

func mergeSSH(base, over SSH) SSH {
	out := base
	if over.User != "" {
		out.User = over.User
	}
	if over.Port != 0 {
		out.Port = over.Port
	}
	if over.KeyFile != "" {
		out.KeyFile = over.KeyFile
	}
	if over.KnownHosts != "" {
		out.KnownHosts = over.KnownHosts
	}
	return out
}

// Hosts returns every host in file order.
func (inv *Inventory) Hosts() []fleet.Host {
	out := make([]fleet.Host, len(inv.hosts))
	for i, h := range inv.hosts {
		out[i] = h
	}
	return out
}

// Host looks a host up by name.
func (inv *Inventory) Host(name string) (*Host, bool) {
	h, ok := inv.byName[name]
	return h, ok
}

// Resolve turns a selector into hosts. An empty selector or "all" selects
// every host; a role selects the hosts carrying it; otherwise the selector is a
// comma-separated list of host names.
func (inv *Inventory) Resolve(selector string) ([]fleet.Host, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" || selector == SelectAll {
		return inv.Hosts(), nil
	}
	if byRole := fleet.WithRole(inv.Hosts(), selector); len(byRole) > 0 {
		return byRole, nil
	}
	var out []fleet.Host
	for _, name := range strings.Split(selector, ",") {
		name = strings.TrimSpace(name)
		h, ok := inv.byName[name]
		if !ok {
			return nil, fmt.Errorf("selector %q matches no role or host (unknown %q)", selector, name)
		}
		out = append(out, h)
	}
	return out, nil
}
