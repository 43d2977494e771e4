package fleet

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"puppetfleet/internal/collection"
)

// Handler applies or withdraws the settings bundle of one host type.
type Handler interface {
	Add(ctx context.Context, h Host) error
	Remove(ctx context.Context, h Host) error
}

// Handlers maps a host type to its handler. A missing entry is a setup defect.
type Handlers map[collection.HostType]Handler

// DefaultsManager keeps a host's type defaults and its PATH contribution in
// step with each other.
type DefaultsManager struct {
	runner   Runner
	handlers Handlers
	log      zerolog.Logger
}

// NewDefaultsManager returns a manager dispatching to handlers.
func NewDefaultsManager(r Runner, handlers Handlers, log zerolog.Logger) *DefaultsManager {
	return &DefaultsManager{runner: r, handlers: handlers, log: log}
}

func (m *DefaultsManager) handler(h Host, t collection.HostType, remove bool) (Handler, error) {
	hd, ok := m.handlers[t]
	if !ok || hd == nil {
		return nil, &MissingHandlerError{Host: h.Name(), Type: t, Remove: remove}
	}
	return hd, nil
}

// ApplyTypeDefaults configures every host as typ. Any defaults a host already
// carries are removed first, and PATH is recomposed only after the handler has
// set the new binary directories.
func (m *DefaultsManager) ApplyTypeDefaults(ctx context.Context, hosts []Host, typ collection.HostType) error {
	for _, h := range hosts {
		if err := m.RemoveDefaults(ctx, []Host{h}); err != nil {
			return err
		}
		hd, err := m.handler(h, typ, false)
		if err != nil {
			return err
		}
		m.log.Debug().Str("host", h.Name()).Str("type", typ.String()).Msg("adding type defaults")
		if err := hd.Add(ctx, h); err != nil {
			return fmt.Errorf("add %s defaults on %s: %w", typ, h.Name(), err)
		}
		if err := AddPuppetPaths(ctx, m.runner, []Host{h}); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDeclaredTypeDefaults configures every host from its own type attribute.
// The aio flavor is driven by the host's AIO capability rather than the label.
func (m *DefaultsManager) ApplyDeclaredTypeDefaults(ctx context.Context, hosts []Host) error {
	for _, h := range hosts {
		applied := false
		if label := h.Get(AttrType); label != "" {
			t := collection.NormalizeHostType(label)
			if t.Defined() && t != collection.AIO {
				hd, err := m.handler(h, t, false)
				if err != nil {
					return err
				}
				if err := hd.Add(ctx, h); err != nil {
					return fmt.Errorf("add %s defaults on %s: %w", t, h.Name(), err)
				}
				applied = true
			}
		}
		if h.IsAIO() {
			hd, err := m.handler(h, collection.AIO, false)
			if err != nil {
				return err
			}
			if err := hd.Add(ctx, h); err != nil {
				return fmt.Errorf("add %s defaults on %s: %w", collection.AIO, h.Name(), err)
			}
			applied = true
		}
		if !applied {
			m.log.Debug().Str("host", h.Name()).Msg("no declared type, leaving defaults untouched")
			continue
		}
		if err := AddPuppetPaths(ctx, m.runner, []Host{h}); err != nil {
			return err
		}
	}
	return nil
}

// RemoveDefaults withdraws the defaults of each host's declared type. Hosts
// without a type attribute are left alone.
func (m *DefaultsManager) RemoveDefaults(ctx context.Context, hosts []Host) error {
	for _, h := range hosts {
		label := h.Get(AttrType)
		if label == "" {
			continue
		}
		t := collection.NormalizeHostType(label)
		if err := RemovePuppetPaths(ctx, m.runner, []Host{h}); err != nil {
			return err
		}
		hd, err := m.handler(h, t, true)
		if err != nil {
			return err
		}
		if err := hd.Remove(ctx, h); err != nil {
			return fmt.Errorf("remove %s defaults on %s: %w", t, h.Name(), err)
		}
		if t != collection.AIO && h.IsAIO() {
			aio, err := m.handler(h, collection.AIO, true)
			if err != nil {
				return err
			}
			if err := aio.Remove(ctx, h); err != nil {
				return fmt.Errorf("remove %s defaults on %s: %w", collection.AIO, h.Name(), err)
			}
		}
	}
	return nil
}
