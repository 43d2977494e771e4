package collection

import "strings"

// HostType is one of the canonical installation flavors. The zero value means
// the label did not name a known flavor.
type HostType string

const (
	FOSS HostType = "foss"
	PE   HostType = "pe"
	AIO  HostType = "aio"
)

// priority order when a label carries more than one token
var knownTypes = []HostType{FOSS, PE, AIO}

// Defined reports whether t is one of the canonical types.
func (t HostType) Defined() bool {
	for _, k := range knownTypes {
		if t == k {
			return true
		}
	}
	return false
}

func (t HostType) String() string { return string(t) }

// NormalizeHostType returns the canonical type named by label. A type matches
// only as a whole dash-delimited token, so "pe-aio" is pe and "foss-internal"
// is foss, while "perl" or "git" match nothing.
func NormalizeHostType(label string) HostType {
	tokens := make(map[string]bool)
	for _, tok := range strings.Split(label, "-") {
		tokens[tok] = true
	}
	for _, t := range knownTypes {
		if tokens[string(t)] {
			return t
		}
	}
	return ""
}
