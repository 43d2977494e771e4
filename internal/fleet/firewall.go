package fleet

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// SuppressFirewall turns off the active firewall on each host using puppet's
// service resource, except on Debian where iptables rules are flushed directly.
// Puppet must already be installed. Unknown platforms are logged and skipped.
func SuppressFirewall(ctx context.Context, r Runner, log zerolog.Logger, hosts []Host) error {
	for _, h := range hosts {
		platform := h.Get(AttrPlatform)
		var err error
		switch {
		case strings.Contains(platform, "debian"):
			var res Result
			res, err = On(ctx, r, h, "which iptables", AcceptAllExitCodes())
			if err != nil {
				break
			}
			if res.ExitCode != 0 {
				log.Info().Str("host", h.Name()).Str("platform", platform).
					Msg("unable to locate iptables; not attempting to clear firewall")
				continue
			}
			_, err = On(ctx, r, h, "iptables -F")
		case strings.Contains(platform, "fedora"), strings.Contains(platform, "el-7"):
			_, err = On(ctx, r, h, serviceState("firewalld", "stopped"))
		case strings.Contains(platform, "el-"), strings.Contains(platform, "centos"):
			_, err = On(ctx, r, h, serviceState("iptables", "stopped"))
		case strings.Contains(platform, "ubuntu"):
			_, err = On(ctx, r, h, serviceState("ufw", "stopped"))
		default:
			log.Info().Str("host", h.Name()).Str("platform", platform).
				Msg("not sure how to clear firewall")
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
