package sendpath

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/yasserelgammal/rate-limiter/limiter"
	"github.com/yasserelgammal/rate-limiter/store"

	"github.com/nmxmxh/flowmesh/kernel/flowerr"
)

// Dialer opens a connection to a remote app; kernel/sendpath doesn't
// know the transport beyond the Conn surface below, only how to
// rate-limit and circuit-break calling it.
type Dialer interface {
	Dial(ctx context.Context, appURI string) (any, error)
}

// Conn is the minimal surface a cross-app send needs from whatever
// Dial returns; net.Conn satisfies it without adaptation.
type Conn interface {
	Write(p []byte) (int, error)
	Close() error
}

// TCPDialer is the stdlib-only Dialer used when no richer collaborator
// is configured: app-uri is dialed as a bare "host:port" TCP address
// (an optional "tcp://" scheme prefix is stripped). Swapping in a
// different transport only requires a different Dialer; kernel/sendpath
// itself never imports one directly.
type TCPDialer struct {
	dialer net.Dialer
}

func (d TCPDialer) Dial(ctx context.Context, appURI string) (any, error) {
	return d.dialer.DialContext(ctx, "tcp", strings.TrimPrefix(appURI, "tcp://"))
}

// CrossAppDialer rate-limits and circuit-breaks dials to remote apps,
// the same token-bucket shape kernel/core/mesh/routing/gossip.go uses
// to rate-limit gossip fan-out per peer, paired with a gobreaker
// instance so a consistently failing peer stops being dialed at all
// rather than just slowed down.
type CrossAppDialer struct {
	inner   Dialer
	limiter *limiter.TokenBucket
	breaker *gobreaker.CircuitBreaker
}

// NewCrossAppDialer wraps inner with a rate limiter and a circuit
// breaker, both sized for a moderate fan-out: maxDialsPerSecond dials
// per app-URI key, tripping the breaker after enough consecutive
// failures.
func NewCrossAppDialer(inner Dialer, maxDialsPerSecond int64) (*CrossAppDialer, error) {
	limiterStore := store.NewMemoryStore(time.Minute)
	tb, err := limiter.NewTokenBucket(
		limiter.Config{
			Rate:     maxDialsPerSecond,
			Duration: time.Second,
			Burst:    maxDialsPerSecond * 2,
		},
		limiterStore,
	)
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "cross-app-dial",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
	})

	return &CrossAppDialer{inner: inner, limiter: tb, breaker: breaker}, nil
}

// Dial rate-limits per appURI and runs the dial through the circuit
// breaker, translating both kinds of rejection into flowerr errors the
// rest of kernel/sendpath already understands.
func (d *CrossAppDialer) Dial(ctx context.Context, appURI string) (any, *flowerr.Error) {
	if !d.limiter.Allow(appURI) {
		return nil, flowerr.New(flowerr.CodeGeneric, "dial rate limit exceeded for app %q", appURI)
	}
	conn, err := d.breaker.Execute(func() (any, error) {
		return d.inner.Dial(ctx, appURI)
	})
	if err != nil {
		return nil, flowerr.New(flowerr.CodeGeneric, "dial to app %q failed: %v", appURI, err)
	}
	return conn, nil
}
