package fleet

import (
	"context"
	"strings"
)

// pathAttrs are read in this order when composing PATH.
var pathAttrs = []string{AttrPuppetBinDir, AttrFacterBinDir, AttrHieraBinDir, AttrPrivateBinDir}

// envPath is the variable the composed path is contributed to. The bare token
// is re-added after every change so the environment layer keeps the existing
// PATH instead of replacing it.
const envPath = "PATH"

// ComposePath builds the search path from the host's binary-dir attributes.
// Each value is echoed on the host first so shell expressions are expanded.
// Empty and repeated directories are dropped; the first occurrence wins.
func ComposePath(ctx context.Context, r Runner, h Host) (string, error) {
	var dirs []string
	seen := make(map[string]bool)
	for _, attr := range pathAttrs {
		v := h.Get(attr)
		if v == "" {
			continue
		}
		resolved, err := Echo(ctx, r, h, v)
		if err != nil {
			return "", err
		}
		if resolved == "" || seen[resolved] {
			continue
		}
		seen[resolved] = true
		dirs = append(dirs, resolved)
	}
	sep := ":"
	if h.IsWindowsShell() {
		sep = h.Get(AttrPathSeparator)
	}
	return strings.Join(dirs, sep), nil
}

// AddPuppetPaths contributes the composed path to PATH on every host.
func AddPuppetPaths(ctx context.Context, r Runner, hosts []Host) error {
	for _, h := range hosts {
		p, err := ComposePath(ctx, r, h)
		if err != nil {
			return err
		}
		h.AddEnvVar(envPath, p)
		h.AddEnvVar(envPath, envPath)
	}
	return nil
}

// RemovePuppetPaths withdraws the composed path from PATH on every host.
func RemovePuppetPaths(ctx context.Context, r Runner, hosts []Host) error {
	for _, h := range hosts {
		p, err := ComposePath(ctx, r, h)
		if err != nil {
			return err
		}
		h.DeleteEnvVar(envPath, p)
		h.AddEnvVar(envPath, envPath)
	}
	return nil
}
