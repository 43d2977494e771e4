package fleet

import (
	"context"
	"strings"

	"puppetfleet/internal/collection"
)

// shell variants a preset carries attribute sets for
const (
	variantUnix      = "unix"
	variantWindows   = "windows"   // cygwin
	variantPSWindows = "pswindows" // native powershell/cmd
)

type preset struct {
	typ      collection.HostType
	variants map[string]map[string]string
}

var presets = []preset{
	{
		typ: collection.AIO,
		variants: map[string]map[string]string{
			variantUnix: {
				AttrPuppetBinDir:  "/opt/puppetlabs/bin",
				AttrPrivateBinDir: "/opt/puppetlabs/puppet/bin",
				"distmoduledir":   "/etc/puppetlabs/code/modules",
				"sitemoduledir":   "/opt/puppetlabs/puppet/modules",
			},
			variantWindows: {
				AttrPuppetBinDir:  "/cygdrive/c/Program Files/Puppet Labs/Puppet/bin",
				AttrPrivateBinDir: "/cygdrive/c/Program Files/Puppet Labs/Puppet/sys/ruby/bin",
				"distmoduledir":   "C:/ProgramData/PuppetLabs/code/modules",
			},
			variantPSWindows: {
				AttrPuppetBinDir:  `C:\Program Files\Puppet Labs\Puppet\bin`,
				AttrPrivateBinDir: `C:\Program Files\Puppet Labs\Puppet\puppet\bin`,
				"distmoduledir":   `C:\ProgramData\PuppetLabs\code\modules`,
			},
		},
	},
	{
		typ: collection.FOSS,
		variants: map[string]map[string]string{
			variantUnix: {
				AttrPuppetBinDir:  "/usr/bin",
				AttrHieraBinDir:   "/usr/bin",
				AttrPrivateBinDir: "/usr/bin",
				"puppetpath":      "/etc/puppet",
				"distmoduledir":   "/etc/puppet/modules",
				"sitemoduledir":   "/usr/share/puppet/modules",
			},
			variantWindows: {
				AttrPuppetBinDir:  "/cygdrive/c/Program Files (x86)/Puppet Labs/Puppet/bin",
				AttrFacterBinDir:  "/cygdrive/c/Program Files (x86)/Puppet Labs/Puppet/facter/bin",
				AttrHieraBinDir:   "/cygdrive/c/Program Files (x86)/Puppet Labs/Puppet/hiera/bin",
				AttrPrivateBinDir: "/cygdrive/c/Program Files (x86)/Puppet Labs/Puppet/sys/ruby/bin",
				"puppetpath":      "`cygpath -smF 35`/PuppetLabs/puppet/etc",
			},
			variantPSWindows: {
				AttrPuppetBinDir:  `C:\Program Files (x86)\Puppet Labs\Puppet\bin`,
				AttrFacterBinDir:  `C:\Program Files (x86)\Puppet Labs\Puppet\facter\bin`,
				AttrHieraBinDir:   `C:\Program Files (x86)\Puppet Labs\Puppet\hiera\bin`,
				AttrPrivateBinDir: `C:\Program Files (x86)\Puppet Labs\Puppet\sys\ruby\bin`,
			},
		},
	},
	{
		typ: collection.PE,
		variants: map[string]map[string]string{
			variantUnix: {
				AttrPuppetBinDir:  "/opt/puppet/bin",
				AttrPrivateBinDir: "/opt/puppet/bin",
				"puppetpath":      "/etc/puppetlabs/puppet",
				"distmoduledir":   "/etc/puppetlabs/puppet/modules",
				"sitemoduledir":   "/opt/puppet/share/puppet/modules",
			},
			variantWindows: {
				AttrPuppetBinDir:  "/cygdrive/c/Program Files (x86)/PuppetLabs/Puppet Enterprise/bin",
				AttrPrivateBinDir: "/cygdrive/c/Program Files (x86)/PuppetLabs/Puppet Enterprise/sys/ruby/bin",
				"puppetpath":      "`cygpath -smF 35`/PuppetLabs/puppet/etc",
			},
			variantPSWindows: {
				AttrPuppetBinDir:  `C:\Program Files (x86)\PuppetLabs\Puppet Enterprise\bin`,
				AttrPrivateBinDir: `C:\Program Files (x86)\PuppetLabs\Puppet Enterprise\sys\ruby\bin`,
			},
		},
	},
}

// presetHandler sets the attribute bundle for its type, plus the owning group
// and the type label so a later RemoveDefaults finds it again.
type presetHandler struct{ p preset }

func variantFor(h Host) string {
	switch {
	case h.IsWindowsShell():
		return variantPSWindows
	case strings.Contains(h.Get(AttrPlatform), "windows"):
		return variantWindows
	}
	return variantUnix
}

func (ph presetHandler) Add(_ context.Context, h Host) error {
	v := variantFor(h)
	for k, val := range ph.p.variants[v] {
		h.Set(k, val)
	}
	if v == variantPSWindows {
		h.Set(AttrPathSeparator, ";")
	}
	if v == variantUnix {
		h.Set("group", "puppet")
	} else {
		h.Set("group", "Administrators")
	}
	h.Set(AttrType, ph.p.typ.String())
	return nil
}

func (ph presetHandler) Remove(_ context.Context, h Host) error {
	for _, attrs := range ph.p.variants {
		for k := range attrs {
			h.Unset(k)
		}
	}
	h.Unset("group")
	h.Unset(AttrType)
	return nil
}

// PresetHandlers returns handlers carrying the stock install layout of each
// host type. The map is fresh on every call so callers may override entries.
func PresetHandlers() Handlers {
	out := make(Handlers, len(presets))
	for _, p := range presets {
		out[p.typ] = presetHandler{p: p}
	}
	return out
}
