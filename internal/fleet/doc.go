// Package fleet sequences the remote steps that prepare a fleet of test hosts
// for a puppet agent/server run. It is structured into small files by concern:
//
//   - host.go: the Host and Runner contracts supplied by the caller.
//   - exec.go: On (exit-code acceptance), Echo and puppet command helpers.
//   - errors.go: error types and helpers.
//   - path.go: PATH composition and the add/remove steps.
//   - defaults.go: DefaultsManager and the per-type Handler table.
//   - presets.go: built-in foss/pe/aio handlers.
//   - certs.go: Rotator, the certificate rotation procedure.
//   - firewall.go: SuppressFirewall.
//   - probe.go: agent and server version probes.
//
// Nothing here runs in parallel. Every batch call walks its hosts in order and
// stops at the first error; hosts already touched are not rolled back.
package fleet
