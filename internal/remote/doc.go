// Package remote supplies fleet.Runner implementations: SSH for inventory
// hosts reached over the network and a local shell for the machine running
// the tool. Dispatch picks between them per host.
package remote
