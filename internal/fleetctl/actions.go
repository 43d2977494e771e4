package fleetctl

import (
	"io"
	"os"

	"puppetfleet/internal/fleet"
	"puppetfleet/internal/inventory"
	"puppetfleet/internal/metrics"
)

// Indirection layer to allow stubbing in tests

var (
	fnLoadInventory = inventory.LoadInventory
	fnNewRunner     = newRunner
	fnWriteMetrics  = metrics.WriteTextfile
	fnHandlers      = fleet.PresetHandlers

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)
