package main

import (
	"os"

	"puppetfleet/internal/fleetctl"
)

func main() { os.Exit(fleetctl.Main()) }
