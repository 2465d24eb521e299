// Package limits bounds how many live sockets and events one client may use.
package limits

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
)

// ConnectionLimiter limits concurrent connections per client address.
type ConnectionLimiter struct {
	maxPerIP int
	mu       sync.Mutex
	counts   map[string]int

	blocked atomic.Int64
}

// NewConnectionLimiter creates a limiter allowing maxPerIP connections per
// address.
func NewConnectionLimiter(maxPerIP int) *ConnectionLimiter {
	return &ConnectionLimiter{
		maxPerIP: maxPerIP,
		counts:   make(map[string]int),
	}
}

// Acquire takes a slot for ip. It reports false when the address is at its
// limit.
func (cl *ConnectionLimiter) Acquire(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.counts[ip] >= cl.maxPerIP {
		cl.blocked.Add(1)
		return false
	}
	cl.counts[ip]++
	return true
}

// Release gives back a slot taken by Acquire.
func (cl *ConnectionLimiter) Release(ip string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if n := cl.counts[ip]; n > 1 {
		cl.counts[ip] = n - 1
	} else {
		delete(cl.counts, ip)
	}
}

// Count returns the open connections of ip.
func (cl *ConnectionLimiter) Count(ip string) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.counts[ip]
}

// Blocked returns how many connections were refused.
func (cl *ConnectionLimiter) Blocked() int64 {
	return cl.blocked.Load()
}

// ClientIP returns the host part of r.RemoteAddr. Proxy headers are
// expected to be resolved by middleware in front of the router.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
