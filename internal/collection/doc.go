// Package collection maps version strings to release collections and free-form
// host-type labels to canonical host types.
//
// Two resolvers exist because the agent package and the server/core software
// are versioned on different lineages: ForAgentVersion treats 1.x.y as the
// legacy "pc1" collection while ForServerVersion treats 4.x.y that way. Callers
// must pick the one matching the version they hold.
package collection
