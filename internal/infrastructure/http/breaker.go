package http

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrCircuitOpen is wrapped by the error returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // requests flow
	BreakerOpen                         // requests fail fast until the cooldown ends
	BreakerHalfOpen                     // one probe is let through
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker stops sending requests after consecutive failures that mean the server is
// unreachable, so a batch of calls against a dead backend does not wait out every timeout.
// A nil *Breaker lets everything through.
type Breaker struct {
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu           sync.Mutex
	state        BreakerState
	failures     int
	openedAt     time.Time
	probeRunning bool
}

// NewBreaker opens after maxFailures consecutive unavailability errors and probes again
// after cooldown. maxFailures <= 0 returns nil, which disables the breaker.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		return nil
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{maxFailures: maxFailures, cooldown: cooldown, now: time.Now}
}

// Allow returns nil when a request may be sent.
func (b *Breaker) Allow() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		wait := b.cooldown - b.now().Sub(b.openedAt)
		if wait > 0 {
			return &APIError{
				Kind:    KindNetwork,
				Message: fmt.Sprintf("server unavailable, retry in %s", wait.Round(time.Second)),
				Err:     ErrCircuitOpen,
			}
		}
		b.state = BreakerHalfOpen
		b.probeRunning = true
		return nil
	case BreakerHalfOpen:
		if b.probeRunning {
			return &APIError{Kind: KindNetwork, Message: "server unavailable, probe in progress", Err: ErrCircuitOpen}
		}
		b.probeRunning = true
	}
	return nil
}

// Record feeds the outcome of a request sent after Allow.
func (b *Breaker) Record(err error) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.probeRunning = false
	}

	if IsCanceled(err) {
		// no verdict; a cut-short probe leaves the breaker open
		if b.state == BreakerHalfOpen {
			b.state = BreakerOpen
		}
		return
	}
	if !unavailable(err) {
		b.state = BreakerClosed
		b.failures = 0
		return
	}

	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.maxFailures {
		b.state = BreakerOpen
		b.openedAt = b.now()
	}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	if b == nil {
		return BreakerClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// unavailable reports failures that say nothing about the request itself.
func unavailable(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindNetwork, KindTimeout:
		return true
	case KindHTTP:
		switch StatusCode(err) {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}
