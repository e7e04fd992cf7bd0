// Package connectivity reports whether the upstream network is reachable. The gateway
// consults it only after a fetch has failed, to decide whether an offline snapshot may
// stand in for live data.
package connectivity

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Checker reports network reachability.
type Checker interface {
	Online(ctx context.Context) bool
}

// Static is a Checker with a fixed answer.
type Static bool

// Online implements Checker.
func (s Static) Online(context.Context) bool { return bool(s) }

// Probe dials a TCP address to decide reachability. The answer is memoized for ttl so a
// burst of failed fetches costs one dial.
type Probe struct {
	addr    string
	timeout time.Duration
	ttl     time.Duration
	logger  *zap.Logger
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
	now     func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	online    bool
}

// NewProbe creates a Probe for addr (host:port). Non-positive timeout and ttl default to
// three and fifteen seconds.
func NewProbe(addr string, timeout, ttl time.Duration, logger *zap.Logger) *Probe {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &net.Dialer{}
	return &Probe{
		addr:    addr,
		timeout: timeout,
		ttl:     ttl,
		logger:  logger,
		dial:    d.DialContext,
		now:     time.Now,
	}
}

// Online implements Checker.
func (p *Probe) Online(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.checkedAt.IsZero() && p.now().Sub(p.checkedAt) < p.ttl {
		return p.online
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	conn, err := p.dial(dialCtx, "tcp", p.addr)
	if err != nil {
		p.logger.Info("connectivity probe failed", zap.String("addr", p.addr), zap.Error(err))
		p.online = false
	} else {
		_ = conn.Close()
		p.online = true
	}
	p.checkedAt = p.now()
	return p.online
}
