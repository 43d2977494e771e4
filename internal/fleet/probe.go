package fleet

import (
	"context"
	"regexp"
	"strings"
)

var semverPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// AgentVersion reports the puppet-agent version installed on h. The boolean is
// false when the agent is not installed.
func AgentVersion(ctx context.Context, r Runner, h Host) (string, bool, error) {
	res, err := On(ctx, r, h, "facter aio_agent_version", AcceptAllExitCodes())
	if err != nil {
		return "", false, err
	}
	if res.ExitCode != 0 {
		return "", false, nil
	}
	v := strings.TrimSpace(res.Stdout)
	return v, v != "", nil
}

// ServerVersion reports the puppetserver version installed on h, taken as the
// last x.y.z in its version banner. The boolean is false when it is not
// installed.
func ServerVersion(ctx context.Context, r Runner, h Host) (string, bool, error) {
	res, err := On(ctx, r, h, "puppetserver --version", AcceptAllExitCodes())
	if err != nil {
		return "", false, err
	}
	if res.ExitCode != 0 {
		return "", false, nil
	}
	matches := semverPattern.FindAllString(strings.TrimSpace(res.Stdout), -1)
	if len(matches) == 0 {
		return "", false, nil
	}
	return matches[len(matches)-1], true, nil
}
