package fleetctl

import (
	"context"
	"fmt"
	"io"

	"puppetfleet/internal/collection"
	"puppetfleet/internal/fleet"
)

func printCollection(w io.Writer, kind, version string) error {
	var (
		name string
		ok   bool
	)
	switch kind {
	case "agent":
		name, ok = collection.ForAgentVersion(version)
	case "server":
		name, ok = collection.ForServerVersion(version)
	case "legacy":
		name, ok = collection.Legacy(version), true
	default:
		return fmt.Errorf("unknown collection kind: %s", kind)
	}
	if !ok {
		return fmt.Errorf("no %s collection for version %q", kind, version)
	}
	fmt.Fprintln(w, name)
	return nil
}

func printHostType(w io.Writer, label string) {
	t := collection.NormalizeHostType(label)
	if !t.Defined() {
		fmt.Fprintln(w, "undefined")
		return
	}
	fmt.Fprintln(w, t)
}

func showPaths(ctx context.Context, cfg *Config, w io.Writer, selector string) error {
	return withSession(ctx, cfg, selector, func(ctx context.Context, s *session, hosts []fleet.Host) error {
		for _, h := range hosts {
			p, err := fleet.ComposePath(ctx, s.runner, h)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\n", h.Name(), p)
		}
		return nil
	})
}

func changePaths(ctx context.Context, cfg *Config, w io.Writer, selector string, add bool) error {
	return withSession(ctx, cfg, selector, func(ctx context.Context, s *session, hosts []fleet.Host) error {
		change := fleet.RemovePuppetPaths
		if add {
			change = fleet.AddPuppetPaths
		}
		if err := change(ctx, s.runner, hosts); err != nil {
			return err
		}
		printHosts(w, hosts)
		return nil
	})
}

// environmenter is implemented by inventory hosts.
type environmenter interface {
	EnvironmentString() string
}

// printHosts writes one line per host with its type and environment.
func printHosts(w io.Writer, hosts []fleet.Host) {
	for _, h := range hosts {
		env := ""
		if e, ok := h.(environmenter); ok {
			env = e.EnvironmentString()
		}
		typ := h.Get(fleet.AttrType)
		if typ == "" {
			typ = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", h.Name(), typ, env)
	}
}

func applyDefaults(ctx context.Context, cfg *Config, w io.Writer, selector, label string) error {
	typ := collection.NormalizeHostType(label)
	if !typ.Defined() {
		return fmt.Errorf("unknown host type %q: want foss, pe or aio", label)
	}
	return withSession(ctx, cfg, selector, func(ctx context.Context, s *session, hosts []fleet.Host) error {
		m := fleet.NewDefaultsManager(s.runner, fnHandlers(), logger)
		if err := m.ApplyTypeDefaults(ctx, hosts, typ); err != nil {
			return err
		}
		printHosts(w, hosts)
		return nil
	})
}

func applyDeclaredDefaults(ctx context.Context, cfg *Config, w io.Writer, selector string) error {
	return withSession(ctx, cfg, selector, func(ctx context.Context, s *session, hosts []fleet.Host) error {
		m := fleet.NewDefaultsManager(s.runner, fnHandlers(), logger)
		if err := m.ApplyDeclaredTypeDefaults(ctx, hosts); err != nil {
			return err
		}
		printHosts(w, hosts)
		return nil
	})
}

func removeDefaults(ctx context.Context, cfg *Config, w io.Writer, selector string) error {
	return withSession(ctx, cfg, selector, func(ctx context.Context, s *session, hosts []fleet.Host) error {
		m := fleet.NewDefaultsManager(s.runner, fnHandlers(), logger)
		if err := m.RemoveDefaults(ctx, hosts); err != nil {
			return err
		}
		printHosts(w, hosts)
		return nil
	})
}

func rotateCerts(ctx context.Context, cfg *Config, selector string) error {
	return withSession(ctx, cfg, selector, func(ctx context.Context, s *session, hosts []fleet.Host) error {
		if err := fleet.NewRotator(s.runner, logger).Rotate(ctx, hosts); err != nil {
			return err
		}
		logger.Info().Int("hosts", len(hosts)).Msg("certificates rotated")
		return nil
	})
}

func stopFirewalls(ctx context.Context, cfg *Config, selector string) error {
	return withSession(ctx, cfg, selector, func(ctx context.Context, s *session, hosts []fleet.Host) error {
		return fleet.SuppressFirewall(ctx, s.runner, logger, hosts)
	})
}

// showVersions prints the installed version and its collection per host; "-"
// marks an absent value.
func showVersions(ctx context.Context, cfg *Config, w io.Writer, kind, selector string) error {
	probe, resolve := fleet.AgentVersion, collection.ForAgentVersion
	if kind == "server" {
		probe, resolve = fleet.ServerVersion, collection.ForServerVersion
	}
	return withSession(ctx, cfg, selector, func(ctx context.Context, s *session, hosts []fleet.Host) error {
		for _, h := range hosts {
			v, ok, err := probe(ctx, s.runner, h)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(w, "%s\t-\t-\n", h.Name())
				continue
			}
			c, ok := resolve(v)
			if !ok {
				c = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", h.Name(), v, c)
		}
		return nil
	})
}
