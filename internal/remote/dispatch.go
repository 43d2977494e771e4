package remote

import (
	"context"

	"puppetfleet/internal/fleet"
	"puppetfleet/internal/inventory"
)

type transporter interface {
	Transport() string
}

// Dispatch routes hosts with the local transport to Local and every other
// host to SSH.
type Dispatch struct {
	Local fleet.Runner
	SSH   fleet.Runner
}

func (d Dispatch) Run(ctx context.Context, h fleet.Host, command string) (fleet.Result, error) {
	if t, ok := h.(transporter); ok && t.Transport() == inventory.TransportLocal {
		return d.Local.Run(ctx, h, command)
	}
	return d.SSH.Run(ctx, h, command)
}
