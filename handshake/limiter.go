package handshake

import (
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// attemptsPerSecond and burst bound how many handshake attempts a single
// source IP may start.
const (
	attemptsPerSecond = 5
	burst             = 10
	entryIdleTimeout  = 2 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter throttles handshake attempts per source IP, with idle entries
// garbage-collected the way ratelimiter.Ratelimiter sweeps its tables.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	stop    chan struct{}
}

// NewLimiter starts a Limiter and its background sweep goroutine.
func NewLimiter() *Limiter {
	l := &Limiter{
		entries: make(map[string]*limiterEntry),
		stop:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow reports whether a new handshake attempt from ip should proceed.
func (l *Limiter) Allow(ip net.IP) bool {
	key := ip.String()
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(attemptsPerSecond, burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	l.mu.Unlock()
	return entry.limiter.Allow()
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, entry := range l.entries {
				if now.Sub(entry.lastSeen) > entryIdleTimeout {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Close stops the sweep goroutine.
func (l *Limiter) Close() {
	close(l.stop)
}
