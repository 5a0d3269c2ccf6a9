package server

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// LimitReason describes why a WebSocket connection was rejected.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonPerIP  LimitReason = "per_ip_limit"
	LimitReasonRate   LimitReason = "rate_limit"
)

// ConnectionLimits guards the WebSocket endpoints with three independent
// limits: total concurrent sessions per instance, concurrent sessions per
// client IP, and a token-bucket rate on new connections per IP.
type ConnectionLimits struct {
	maxGlobal int64
	current   atomic.Int64

	perIPMu  sync.Mutex
	perIP    map[string]int
	maxPerIP int

	rateMu    sync.Mutex
	rates     map[string]*rateEntry
	rateLimit rate.Limit
	burst     int
	cleanupAt time.Time
}

type rateEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	rateCleanupInterval = 5 * time.Minute
	rateEntryMaxIdle    = 10 * time.Minute
)

func NewConnectionLimits(globalMax int64, perIPMax int, connectionsPerSecond float64, burst int) *ConnectionLimits {
	return &ConnectionLimits{
		maxGlobal: globalMax,
		perIP:     make(map[string]int),
		maxPerIP:  perIPMax,
		rates:     make(map[string]*rateEntry),
		rateLimit: rate.Limit(connectionsPerSecond),
		burst:     burst,
		cleanupAt: time.Now().Add(rateCleanupInterval),
	}
}

// Acquire claims a connection slot for the given IP. On rejection the reason
// names the first limit that tripped; nothing is held on rejection.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	if !l.allowRate(ip) {
		return false, LimitReasonRate
	}
	if !l.acquireGlobal() {
		return false, LimitReasonGlobal
	}
	if !l.acquirePerIP(ip) {
		l.current.Add(-1)
		return false, LimitReasonPerIP
	}
	return true, ""
}

// Release returns the slot claimed by a successful Acquire.
func (l *ConnectionLimits) Release(ip string) {
	l.perIPMu.Lock()
	if count := l.perIP[ip]; count > 0 {
		if count == 1 {
			delete(l.perIP, ip)
		} else {
			l.perIP[ip] = count - 1
		}
	}
	l.perIPMu.Unlock()

	l.current.Add(-1)
}

// Current returns the number of held connection slots.
func (l *ConnectionLimits) Current() int64 {
	return l.current.Load()
}

// CountForIP returns the held slots for one IP.
func (l *ConnectionLimits) CountForIP(ip string) int {
	l.perIPMu.Lock()
	defer l.perIPMu.Unlock()
	return l.perIP[ip]
}

func (l *ConnectionLimits) acquireGlobal() bool {
	for {
		current := l.current.Load()
		if current >= l.maxGlobal {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (l *ConnectionLimits) acquirePerIP(ip string) bool {
	l.perIPMu.Lock()
	defer l.perIPMu.Unlock()

	if l.perIP[ip] >= l.maxPerIP {
		return false
	}
	l.perIP[ip]++
	return true
}

func (l *ConnectionLimits) allowRate(ip string) bool {
	l.rateMu.Lock()
	defer l.rateMu.Unlock()

	now := time.Now()
	if now.After(l.cleanupAt) {
		cutoff := now.Add(-rateEntryMaxIdle)
		for addr, entry := range l.rates {
			if entry.lastSeen.Before(cutoff) {
				delete(l.rates, addr)
			}
		}
		l.cleanupAt = now.Add(rateCleanupInterval)
	}

	entry, ok := l.rates[ip]
	if !ok {
		entry = &rateEntry{limiter: rate.NewLimiter(l.rateLimit, l.burst)}
		l.rates[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}
