package fleet

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agentTest = "puppet agent --test --server master"

// rotationFleet is one authority plus two agents answering the rotation queries.
type rotationFleet struct {
	hosts         []Host
	runner        *fakeRunner
	serverVersion string
	passCodes     map[string][]int // per host exit codes for successive agent runs
	signCode      int
}

func newRotationFleet() *rotationFleet {
	master := newTestHost("master", "master", "agent")
	master.service = true
	f := &rotationFleet{
		hosts:         []Host{master, newTestHost("agent1", "agent"), newTestHost("agent2", "agent")},
		serverVersion: "puppetserver version: 6.3.0",
		passCodes: map[string][]int{
			"agent1": {1, 2},
			"agent2": {1, 0},
		},
	}
	runs := map[string]int{}
	f.runner = &fakeRunner{respond: func(host, cmd string) (Result, bool) {
		switch {
		case cmd == "puppetserver --version":
			if f.serverVersion == "" {
				return Result{ExitCode: 127}, true
			}
			return Result{Stdout: f.serverVersion + "\n"}, true
		case cmd == "puppet agent --configprint ssldir":
			return Result{Stdout: "/etc/puppetlabs/puppet/ssl\n"}, true
		case cmd == "facter fqdn":
			return Result{Stdout: "master.example.com\n"}, true
		case cmd == "hostname":
			return Result{Stdout: "master\n"}, true
		case cmd == "puppet config print config":
			return Result{Stdout: "/etc/puppetlabs/puppet/puppet.conf\n"}, true
		case strings.Contains(cmd, "sign --all"):
			return Result{ExitCode: f.signCode}, true
		case cmd == agentTest:
			codes := f.passCodes[host]
			i := runs[host]
			runs[host]++
			if i < len(codes) {
				return Result{ExitCode: codes[i]}, true
			}
		}
		return Result{}, false
	}}
	return f
}

func (f *rotationFleet) rotate() error {
	return NewRotator(f.runner, zerolog.Nop()).Rotate(context.Background(), f.hosts)
}

func TestRotateIntermediateCA(t *testing.T) {
	f := newRotationFleet()
	require.NoError(t, f.rotate())

	assert.Equal(t, 4, f.runner.count(agentTest), "two agents, two passes")
	assert.Equal(t, 1, f.runner.count("puppetserver ca sign --all"))
	assert.Equal(t, 0, f.runner.count("puppet cert sign"))
	assert.Equal(t, 1, f.runner.count("puppetserver ca setup"))
	for _, c := range f.runner.calls {
		if c.cmd == agentTest {
			assert.NotEqual(t, "master", c.host, "the authority never requests a cert from itself")
		}
	}
	assert.Equal(t, 3, f.runner.count("rm -rf /etc/puppetlabs/puppet/ssl/*"))
	assert.Contains(t, f.runner.commands(), "puppet config set dns_alt_names 'puppet,master,master.example.com' --section main")
	assert.Contains(t, f.runner.commands(), "puppet config set server 'master.example.com' --section main")
}

func TestRotateOrdering(t *testing.T) {
	f := newRotationFleet()
	require.NoError(t, f.rotate())
	cmds := f.runner.commands()

	index := func(cmd string) int {
		for i, c := range cmds {
			if c == cmd {
				return i
			}
		}
		t.Fatalf("command %q not issued", cmd)
		return -1
	}
	stop := index("puppet resource service puppetserver ensure=stopped")
	wipe := index("rm -rf /etc/puppetlabs/puppet/ssl/*")
	setup := index("puppetserver ca setup")
	start := index("puppet resource service puppetserver ensure=running")
	sign := index("puppetserver ca sign --all")
	assert.Less(t, stop, wipe)
	assert.Less(t, wipe, setup)
	assert.Less(t, setup, start)
	assert.Less(t, start, sign)

	n := len(cmds)
	assert.Equal(t, "puppet resource service puppetserver ensure=stopped", cmds[n-2])
	assert.Equal(t, "mv -f /etc/puppetlabs/puppet/puppet.conf.bak /etc/puppetlabs/puppet/puppet.conf", cmds[n-1])
}

func TestRotateLegacyCA(t *testing.T) {
	f := newRotationFleet()
	f.serverVersion = "puppetserver version: 5.3.5"
	f.signCode = 24
	require.NoError(t, f.rotate())
	assert.Equal(t, 1, f.runner.count("puppet cert sign --all"))
	assert.Equal(t, 0, f.runner.count("puppetserver ca"))
}

func TestRotateAuthorityCardinality(t *testing.T) {
	for _, tc := range []struct {
		name  string
		hosts []Host
		found int
	}{
		{"none", []Host{newTestHost("a1", "agent"), newTestHost("a2", "agent")}, 0},
		{"two", []Host{newTestHost("m1", "master"), newTestHost("m2", "master"), newTestHost("a", "agent")}, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := &fakeRunner{}
			err := NewRotator(r, zerolog.Nop()).Rotate(context.Background(), tc.hosts)
			var ae *AuthorityCountError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tc.found, ae.Found)
			assert.Empty(t, r.calls, "no remote command before the authority check")
		})
	}
}

func TestRotateServerNotInstalled(t *testing.T) {
	f := newRotationFleet()
	f.serverVersion = ""
	err := f.rotate()
	require.ErrorIs(t, err, ErrServerNotInstalled)
	assert.Len(t, f.runner.calls, 1)
}

func TestRotateFirstPassRejectsCleanRun(t *testing.T) {
	f := newRotationFleet()
	f.passCodes["agent1"] = []int{0}
	err := f.rotate()
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "agent1", ce.Host)
	assert.Equal(t, 0, ce.ExitCode)
	assert.Equal(t, 0, f.runner.count("sign --all"))
	assert.Equal(t, 1, f.runner.count(agentTest), "agent2 is not attempted")

	cmds := f.runner.commands()
	assert.Equal(t, "puppet resource service puppetserver ensure=stopped", cmds[len(cmds)-2], "server torn down after failure")
}

func TestRotateSecondPassRejectsPendingCert(t *testing.T) {
	f := newRotationFleet()
	f.passCodes["agent2"] = []int{1, 1}
	err := f.rotate()
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "agent2", ce.Host)
	assert.Equal(t, 1, ce.ExitCode)
	assert.Equal(t, []int{0, 2}, ce.Acceptable)
}

func TestRotateSignFailure(t *testing.T) {
	f := newRotationFleet()
	f.signCode = 1
	err := f.rotate()
	require.True(t, IsCommandFailure(err))
	assert.Equal(t, 2, f.runner.count(agentTest), "second pass skipped")
}

func TestWithServerRunningJoinsTeardownError(t *testing.T) {
	h := newTestHost("master")
	blockErr := errors.New("block failed")
	r := &fakeRunner{respond: func(_, cmd string) (Result, bool) {
		switch cmd {
		case "puppet config print config":
			return Result{Stdout: "/etc/puppet/puppet.conf\n"}, true
		case "test -f /etc/puppet/puppet.conf":
			return Result{ExitCode: 1}, true
		case "puppetserver stop":
			return Result{ExitCode: 1}, true
		}
		return Result{}, false
	}}
	err := WithServerRunning(context.Background(), r, zerolog.Nop(), h, nil, func(context.Context) error {
		return blockErr
	})
	require.ErrorIs(t, err, blockErr)
	assert.True(t, IsCommandFailure(err))
	cmds := r.commands()
	assert.Equal(t, "puppetserver start", cmds[2])
	assert.Equal(t, "rm -f /etc/puppet/puppet.conf", cmds[len(cmds)-1], "no prior config means the generated file is removed")
	assert.Equal(t, 0, r.count("cp -p"))
}

func TestWithServerRunningFailedBackupKeepsConfig(t *testing.T) {
	h := newTestHost("master")
	r := &fakeRunner{respond: func(_, cmd string) (Result, bool) {
		switch cmd {
		case "puppet config print config":
			return Result{Stdout: "/etc/puppetlabs/puppet/puppet.conf\n"}, true
		case "cp -p /etc/puppetlabs/puppet/puppet.conf /etc/puppetlabs/puppet/puppet.conf.bak":
			return Result{ExitCode: 1, Stderr: "cp: error writing: No space left on device"}, true
		}
		return Result{}, false
	}}
	called := false
	err := WithServerRunning(context.Background(), r, zerolog.Nop(), h, []Setting{{Section: "main", Key: "server", Value: "master"}}, func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, IsCommandFailure(err))
	assert.ErrorContains(t, err, "No space left on device")
	assert.False(t, called)
	assert.Equal(t, 0, r.count("rm -f"), "existing puppet.conf is never deleted")
	assert.Equal(t, 0, r.count("puppet config set"))
	assert.Equal(t, 0, r.count("puppetserver start"))
	assert.Equal(t, []string{
		"puppet config print config",
		"test -f /etc/puppetlabs/puppet/puppet.conf",
		"cp -p /etc/puppetlabs/puppet/puppet.conf /etc/puppetlabs/puppet/puppet.conf.bak",
	}, r.commands())
}

func TestRotateWithoutServiceManager(t *testing.T) {
	f := newRotationFleet()
	f.hosts[0].(*testHost).service = false
	require.NoError(t, f.rotate())

	assert.Equal(t, 0, f.runner.count("puppet resource service puppetserver"), "no service resource without a service manager")
	cmds := f.runner.commands()
	start, firstPass, lastPass := -1, -1, -1
	for i, c := range cmds {
		switch {
		case c == "puppetserver start":
			start = i
		case c == agentTest && firstPass < 0:
			firstPass = i
			lastPass = i
		case c == agentTest:
			lastPass = i
		}
	}
	require.GreaterOrEqual(t, start, 0, "server started directly")
	assert.Less(t, start, firstPass)
	n := len(cmds)
	assert.Equal(t, "puppetserver stop", cmds[n-2])
	assert.Less(t, lastPass, n-2)
	assert.Equal(t, "mv -f /etc/puppetlabs/puppet/puppet.conf.bak /etc/puppetlabs/puppet/puppet.conf", cmds[n-1])
}
