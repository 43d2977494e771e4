package remote

import (
	"errors"
	"sync"

	"golang.org/x/crypto/ssh"
)

// ConnPool keeps one SSH client per host and can close them all on cleanup.
type ConnPool struct {
	mu      sync.Mutex
	clients map[string]*ssh.Client
}

func NewConnPool() *ConnPool { return &ConnPool{clients: make(map[string]*ssh.Client)} }

// Get returns the pooled client for key, dialing it on first use.
func (p *ConnPool) Get(key string, dial func() (*ssh.Client, error)) (*ssh.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[key]; ok {
		return c, nil
	}
	c, err := dial()
	if err != nil {
		return nil, err
	}
	p.clients[key] = c
	return c, nil
}

// Drop closes and forgets the client for key, e.g. after a broken connection.
func (p *ConnPool) Drop(key string) {
	p.mu.Lock()
	c, ok := p.clients[key]
	delete(p.clients, key)
	p.mu.Unlock()
	if ok {
		_ = c.Close()
	}
}

// CloseAll closes every pooled client. It proceeds best-effort and reports
// the close errors joined.
func (p *ConnPool) CloseAll() error {
	p.mu.Lock()
	clients := p.clients
	p.clients = make(map[string]*ssh.Client)
	p.mu.Unlock()
	var errs []error
	for _, c := range clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports the number of open clients.
func (p *ConnPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}
