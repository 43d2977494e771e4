package collection

import (
	"fmt"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

const latest = "latest"

// ForAgentVersion returns the collection for a puppet-agent package version
// (the aio_agent_version fact), or false when there is none.
func ForAgentVersion(version string) (string, bool) {
	return forVersion(version, 1)
}

// ForServerVersion returns the collection for a puppet (core software) version,
// or false when there is none.
func ForServerVersion(version string) (string, bool) {
	return forVersion(version, 4)
}

func forVersion(version string, legacyMajor int) (string, bool) {
	if strings.TrimSpace(version) == latest {
		return "puppet", true
	}
	x, y, _, ok := parseTriple(version)
	if !ok {
		return "", false
	}
	if x == legacyMajor {
		return "pc1", true
	}
	// a minor >= 99 is a pre-release of the next major
	if y >= 99 {
		x++
	}
	if x > 4 {
		return fmt.Sprintf("puppet%d", x), true
	}
	return "", false
}

// parseTriple reads major.minor.patch. Components past the third are ignored.
func parseTriple(version string) (x, y, z int, ok bool) {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) < 3 {
		return 0, 0, 0, false
	}
	var nums [3]int
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], true
}

// Legacy returns the collection under the old bucketing rules, where "latest"
// maps to "PC1".
//
// Deprecated: "PC1" is not the latest collection. Use ForAgentVersion or
// ForServerVersion.
func Legacy(version string) string {
	const fallback = "PC1"
	if version == latest {
		return fallback
	}
	belowFloor, err := IsLess(version, "5.5.4")
	if err != nil {
		return fallback
	}
	belowSix, err := IsLess(version, "5.99")
	if err != nil {
		return fallback
	}
	switch {
	case !belowFloor && belowSix:
		return "puppet5"
	case !belowSix:
		return "puppet6"
	}
	return fallback
}

// IsLess reports whether version a orders strictly before b. Missing trailing
// segments compare as zero, so "5.99" and "5.99.0" are equal.
func IsLess(a, b string) (bool, error) {
	va, err := goversion.NewVersion(strings.TrimSpace(a))
	if err != nil {
		return false, fmt.Errorf("parse version %q: %w", a, err)
	}
	vb, err := goversion.NewVersion(strings.TrimSpace(b))
	if err != nil {
		return false, fmt.Errorf("parse version %q: %w", b, err)
	}
	return va.LessThan(vb), nil
}
