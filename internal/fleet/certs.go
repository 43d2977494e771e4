package fleet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"puppetfleet/internal/collection"
)

// intermediateCAVersion is the first server version that manages its CA with
// "puppetserver ca" instead of "puppet cert".
const intermediateCAVersion = "5.99"

const serverService = "puppetserver"

// exit codes per rotation step
var (
	requestPassCodes = []int{1}    // no signed certificate yet
	signCodes        = []int{0, 24} // signed something / nothing pending
	confirmPassCodes = []int{0, 2}  // no changes / changes applied
)

// Setting is one puppet.conf override applied while the server runs.
type Setting struct {
	Section string
	Key     string
	Value   string
}

// Rotator wipes and re-issues the TLS material of a fleet against its single
// authority host.
type Rotator struct {
	runner Runner
	log    zerolog.Logger
}

// NewRotator returns a Rotator issuing commands through r.
func NewRotator(r Runner, log zerolog.Logger) *Rotator {
	return &Rotator{runner: r, log: log}
}

// session is the state of one Rotate call.
type session struct {
	authority      Host
	hosts          []Host
	version        string
	intermediateCA bool
}

// Rotate stops the authority's server, empties every host's ssldir, restarts
// the server with the authority's names as DNS alt names, and then has every
// other host request, receive and confirm a signed certificate. It fails
// before touching any host unless exactly one host carries the authority role.
func (ro *Rotator) Rotate(ctx context.Context, hosts []Host) error {
	authorities := WithRole(hosts, RoleAuthority)
	if len(authorities) != 1 {
		return &AuthorityCountError{Found: len(authorities)}
	}
	s := &session{authority: authorities[0], hosts: hosts}

	version, ok, err := ServerVersion(ctx, ro.runner, s.authority)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w on %s; it must be installed before agent certs can be signed", ErrServerNotInstalled, s.authority.Name())
	}
	less, err := collection.IsLess(version, intermediateCAVersion)
	if err != nil {
		return err
	}
	s.version = version
	s.intermediateCA = !less
	ro.log.Info().Str("authority", s.authority.Name()).Str("version", version).
		Bool("intermediate_ca", s.intermediateCA).Msg("rotating certificates")

	// A running server may ignore puppet.conf changes.
	ro.log.Info().Msg("stop puppetserver")
	if s.authority.UsesServiceManager() {
		res, err := On(ctx, ro.runner, s.authority, serviceState(serverService, "stopped"), AcceptAllExitCodes())
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			ro.log.Warn().Int("exit_code", res.ExitCode).Msg("stopping puppetserver failed, continuing")
		}
	}

	ro.log.Info().Msg("clear ssl on all hosts")
	for _, h := range s.hosts {
		if err := ro.clearSSL(ctx, h); err != nil {
			return err
		}
	}

	ro.log.Info().Msg("start puppetserver")
	fqdn, err := ro.output(ctx, s.authority, "facter fqdn")
	if err != nil {
		return err
	}
	hostname, err := ro.output(ctx, s.authority, "hostname")
	if err != nil {
		return err
	}
	if s.intermediateCA {
		if _, err := On(ctx, ro.runner, s.authority, "puppetserver ca setup"); err != nil {
			return err
		}
	}
	settings := []Setting{
		{Section: "main", Key: "dns_alt_names", Value: strings.Join([]string{"puppet", hostname, fqdn}, ",")},
		{Section: "main", Key: "server", Value: fqdn},
	}
	return WithServerRunning(ctx, ro.runner, ro.log, s.authority, settings, func(ctx context.Context) error {
		return ro.sign(ctx, s)
	})
}

func (ro *Rotator) sign(ctx context.Context, s *session) error {
	ro.log.Info().Msg("run agent --test on agents to generate CSRs")
	if err := ro.agentPass(ctx, s, requestPassCodes); err != nil {
		return err
	}

	ro.log.Info().Msg("sign all certs")
	cmd := puppet("cert", "sign", "--all")
	if s.intermediateCA {
		cmd = "puppetserver ca sign --all"
	}
	if _, err := On(ctx, ro.runner, s.authority, cmd, AcceptableExitCodes(signCodes...)); err != nil {
		return err
	}

	ro.log.Info().Msg("run agent --test on agents a second time to obtain signed certs")
	return ro.agentPass(ctx, s, confirmPassCodes)
}

func (ro *Rotator) agentPass(ctx context.Context, s *session, codes []int) error {
	cmd := puppet("agent", "--test", "--server", s.authority.Name())
	for _, h := range s.hosts {
		if h.Name() == s.authority.Name() {
			continue
		}
		if _, err := On(ctx, ro.runner, h, cmd, AcceptableExitCodes(codes...)); err != nil {
			return err
		}
	}
	return nil
}

// clearSSL empties the ssldir but keeps the directory itself so its ownership
// and mode survive. The path is asked of each host since it differs by layout.
func (ro *Rotator) clearSSL(ctx context.Context, h Host) error {
	ssldir, err := ro.output(ctx, h, puppet("agent", "--configprint", "ssldir"))
	if err != nil {
		return err
	}
	if ssldir == "" || ssldir == "/" {
		return fmt.Errorf("host %s: refusing to clear ssldir %q", h.Name(), ssldir)
	}
	_, err = On(ctx, ro.runner, h, fmt.Sprintf("rm -rf %s/*", ssldir))
	return err
}

func (ro *Rotator) output(ctx context.Context, h Host, cmd string) (string, error) {
	res, err := On(ctx, ro.runner, h, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// WithServerRunning applies settings to h's puppet.conf, starts puppetserver,
// and runs fn. However fn or the startup ends, the server is stopped again and
// the original puppet.conf restored, or removed when there was none before;
// teardown errors are joined to fn's error. A failed backup aborts before any
// change is made.
func WithServerRunning(ctx context.Context, r Runner, log zerolog.Logger, h Host, settings []Setting, fn func(context.Context) error) (err error) {
	res, err := On(ctx, r, h, puppet("config", "print", "config"))
	if err != nil {
		return err
	}
	conf := strings.TrimSpace(res.Stdout)
	if conf == "" {
		return fmt.Errorf("host %s: puppet reported no config file", h.Name())
	}
	backup := conf + ".bak"
	res, err = On(ctx, r, h, fmt.Sprintf("test -f %s", conf), AcceptableExitCodes(0, 1))
	if err != nil {
		return err
	}
	// an existing puppet.conf must be backed up before it is touched
	backedUp := res.ExitCode == 0
	if backedUp {
		if _, err := On(ctx, r, h, fmt.Sprintf("cp -p %s %s", conf, backup)); err != nil {
			return fmt.Errorf("back up %s: %w", conf, err)
		}
	}

	defer func() {
		tctx := context.WithoutCancel(ctx)
		log.Info().Str("host", h.Name()).Msg("stop puppetserver")
		_, stopErr := On(tctx, r, h, stopServerCommand(h))
		restore := fmt.Sprintf("rm -f %s", conf)
		if backedUp {
			restore = fmt.Sprintf("mv -f %s %s", backup, conf)
		}
		_, restoreErr := On(tctx, r, h, restore)
		err = errors.Join(err, stopErr, restoreErr)
	}()

	for _, s := range settings {
		cmd := puppet("config", "set", s.Key, fmt.Sprintf("'%s'", s.Value), "--section", s.Section)
		if _, err := On(ctx, r, h, cmd); err != nil {
			return err
		}
	}
	if _, err := On(ctx, r, h, startServerCommand(h)); err != nil {
		return err
	}
	return fn(ctx)
}

func startServerCommand(h Host) string {
	if h.UsesServiceManager() {
		return serviceState(serverService, "running")
	}
	return "puppetserver start"
}

func stopServerCommand(h Host) string {
	if h.UsesServiceManager() {
		return serviceState(serverService, "stopped")
	}
	return "puppetserver stop"
}
