package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"puppetfleet/internal/common/fsutil"
	"puppetfleet/internal/fleet"
	"puppetfleet/internal/inventory"
)

const (
	defaultSSHUser = "root"
	defaultSSHPort = 22
)

// Endpoint is a host that can be dialed over SSH.
type Endpoint interface {
	fleet.Host
	Address() string
	SSH() inventory.SSH
}

// SSHRunner runs commands over one pooled SSH connection per host.
type SSHRunner struct {
	Timeout time.Duration

	pool     *ConnPool
	log      zerolog.Logger
	warnOnce sync.Once
	dial     func(network, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error)
}

var _ fleet.Runner = (*SSHRunner)(nil)

// NewSSHRunner returns a runner with an empty connection pool.
func NewSSHRunner(log zerolog.Logger) *SSHRunner {
	return &SSHRunner{Timeout: 30 * time.Second, pool: NewConnPool(), log: log, dial: ssh.Dial}
}

// Close closes every pooled connection.
func (s *SSHRunner) Close() error { return s.pool.CloseAll() }

func (s *SSHRunner) clientConfig(ep Endpoint) (*ssh.ClientConfig, error) {
	cfg := ep.SSH()
	user := cfg.User
	if user == "" {
		user = defaultSSHUser
	}
	if cfg.KeyFile == "" {
		return nil, fmt.Errorf("host %s: no ssh key_file configured", ep.Name())
	}
	key, err := fsutil.ReadExpanded(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", ep.Name(), err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("host %s: parse ssh key: %w", ep.Name(), err)
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHosts != "" {
		p, err := fsutil.ExpandHome(cfg.KnownHosts)
		if err != nil {
			return nil, err
		}
		if !fsutil.PathExists(p) {
			return nil, fmt.Errorf("host %s: known_hosts file %s does not exist", ep.Name(), p)
		}
		cb, err := knownhosts.New(p)
		if err != nil {
			return nil, fmt.Errorf("host %s: load known_hosts: %w", ep.Name(), err)
		}
		hostKey = cb
	} else {
		s.warnOnce.Do(func() {
			s.log.Warn().Msg("no known_hosts configured; host keys are not verified")
		})
	}
	return &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKey,
		Timeout:         s.Timeout,
	}, nil
}

func (s *SSHRunner) Run(ctx context.Context, h fleet.Host, command string) (fleet.Result, error) {
	res := fleet.Result{Host: h.Name(), Command: command}
	ep, ok := h.(Endpoint)
	if !ok {
		return res, fmt.Errorf("host %s has no ssh endpoint", h.Name())
	}
	port := ep.SSH().Port
	if port == 0 {
		port = defaultSSHPort
	}
	addr := net.JoinHostPort(ep.Address(), strconv.Itoa(port))
	client, err := s.pool.Get(h.Name(), func() (*ssh.Client, error) {
		cfg, err := s.clientConfig(ep)
		if err != nil {
			return nil, err
		}
		s.log.Debug().Str("host", h.Name()).Str("addr", addr).Msg("ssh connect")
		return s.dial("tcp", addr, cfg)
	})
	if err != nil {
		return res, err
	}
	sess, err := client.NewSession()
	if err != nil {
		s.pool.Drop(h.Name())
		return res, fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	var stdout, stderr strings.Builder
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	s.log.Debug().Str("host", h.Name()).Str("cmd", command).Msg("exec")
	done := make(chan error, 1)
	go func() { done <- sess.Run(withEnvironment(h, command)) }()
	select {
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGKILL)
		return res, ctx.Err()
	case err = <-done:
	}

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitStatus()
		return res, nil
	}
	if err != nil {
		s.pool.Drop(h.Name())
		return res, err
	}
	return res, nil
}
