// Package policy holds the process-wide session policy state: sliding-window
// rate limits, the failed-login lockout counter, and the token revocation
// set. All of it is deliberately memory-resident — counters reset on restart
// and revocation entries live for a bounded TTL, because token natural expiry
// bounds the exposure window.
package policy

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SessionPolicyStore is the injected seam between the auth service and the
// counter state. The in-memory implementation below is the default; a
// persistent one can be swapped in without touching callers.
type SessionPolicyStore interface {
	// CheckAndIncrement counts one attempt against key and reports whether
	// the attempt is within limit for the window. When over the limit it
	// returns the seconds until the window resets.
	CheckAndIncrement(key string, limit int, window time.Duration) (retryAfter int, ok bool)

	// RecordFailure increments the failed-attempt counter for key and locks
	// it for lockFor once max failures accumulate.
	RecordFailure(key string, max int, lockFor time.Duration)
	ClearFailures(key string)
	IsLocked(key string) bool

	// Revoke blacklists a presented token for ttl.
	Revoke(token string, ttl time.Duration)
	IsRevoked(token string) bool
}

type rateEntry struct {
	count int
	reset time.Time
}

type failEntry struct {
	attempts    int
	lockedUntil time.Time
}

// MemoryStore implements SessionPolicyStore on LRU caches so abandoned keys
// age out without a sweeper goroutine; expiry is checked on read.
type MemoryStore struct {
	rates   *lru.Cache[string, rateEntry]
	fails   *lru.Cache[string, failEntry]
	revoked *lru.Cache[string, time.Time]
}

const cacheSize = 4096

func NewMemoryStore() *MemoryStore {
	rates, _ := lru.New[string, rateEntry](cacheSize)
	fails, _ := lru.New[string, failEntry](cacheSize)
	revoked, _ := lru.New[string, time.Time](cacheSize)
	return &MemoryStore{rates: rates, fails: fails, revoked: revoked}
}

func (m *MemoryStore) CheckAndIncrement(key string, limit int, window time.Duration) (int, bool) {
	now := time.Now()
	entry, ok := m.rates.Get(key)
	if !ok || now.After(entry.reset) {
		entry = rateEntry{count: 0, reset: now.Add(window)}
	}
	entry.count++
	m.rates.Add(key, entry)
	if entry.count > limit {
		retry := int(time.Until(entry.reset).Seconds())
		if retry < 1 {
			retry = 1
		}
		return retry, false
	}
	return 0, true
}

func (m *MemoryStore) RecordFailure(key string, max int, lockFor time.Duration) {
	entry, _ := m.fails.Get(key)
	entry.attempts++
	if entry.attempts >= max {
		entry.lockedUntil = time.Now().Add(lockFor)
	}
	m.fails.Add(key, entry)
}

func (m *MemoryStore) ClearFailures(key string) {
	m.fails.Remove(key)
}

func (m *MemoryStore) IsLocked(key string) bool {
	entry, ok := m.fails.Get(key)
	if !ok || entry.lockedUntil.IsZero() {
		return false
	}
	if time.Now().After(entry.lockedUntil) {
		m.fails.Remove(key)
		return false
	}
	return true
}

func (m *MemoryStore) Revoke(token string, ttl time.Duration) {
	m.revoked.Add(token, time.Now().Add(ttl))
}

func (m *MemoryStore) IsRevoked(token string) bool {
	until, ok := m.revoked.Get(token)
	if !ok {
		return false
	}
	if time.Now().After(until) {
		m.revoked.Remove(token)
		return false
	}
	return true
}
