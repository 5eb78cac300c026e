package api

import (
	"context"
	"sync"
	"time"

	"seotools/core"
)

// RateLimiter counts requests per client IP in fixed windows.
//
// It backs two policies: the global request limit on /api, where every
// request is a hit, and the admin login limit, where only failed attempts
// are hits and a success resets the client.
//
// Thread safety is provided via sync.RWMutex for concurrent access.
type RateLimiter struct {
	mu      sync.RWMutex
	records map[string]core.WindowRecord
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing max hits per window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		records: make(map[string]core.WindowRecord),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

// Limit returns the per-window maximum.
func (r *RateLimiter) Limit() int {
	return r.max
}

// Hit counts one request from ip and returns the updated record and
// whether the request is within the limit.
func (r *RateLimiter) Hit(ip string) (core.WindowRecord, bool) {
	now := r.now()

	r.mu.Lock()
	record, exists := r.records[ip]
	if exists {
		record = record.Hit(now, r.window)
	} else {
		record = core.NewWindowRecord(now, r.window)
	}
	r.records[ip] = record
	r.mu.Unlock()

	return record, !record.Exceeds(r.max)
}

// Blocked reports whether ip has used up its window, and for how long.
// It does not count as a hit.
func (r *RateLimiter) Blocked(ip string) (bool, time.Duration) {
	now := r.now()

	r.mu.RLock()
	record, exists := r.records[ip]
	r.mu.RUnlock()

	if !exists || record.Expired(now) || record.Count < r.max {
		return false, 0
	}
	return true, record.TimeUntilReset(now)
}

// Reset clears the record for ip.
func (r *RateLimiter) Reset(ip string) {
	r.mu.Lock()
	delete(r.records, ip)
	r.mu.Unlock()
}

// Cleanup removes expired records and returns how many were removed.
func (r *RateLimiter) Cleanup() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for ip, record := range r.records {
		if record.Expired(now) {
			delete(r.records, ip)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker runs Cleanup every interval until ctx is cancelled.
func (r *RateLimiter) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Cleanup()
			}
		}
	}()
}

// Count returns the number of tracked IP addresses.
func (r *RateLimiter) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
