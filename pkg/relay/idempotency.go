package relay

import (
	"context"
	"sync"
	"time"

	"chatrelay/pkg/directory"
)

// sessionCache deduplicates thread creation per session for a short window.
// Two racing no-token relay calls for the same session would otherwise each
// create a thread; the first caller claims the session and the rest wait for
// its outcome.
type sessionCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]*sessionEntry
	now     func() time.Time
}

type sessionEntry struct {
	done    chan struct{}
	ref     directory.ThreadRef
	err     error
	expires time.Time
}

func newSessionCache(ttl time.Duration, maxSize int) *sessionCache {
	return &sessionCache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]*sessionEntry),
		now:     time.Now,
	}
}

// bind returns the thread ref for session, calling create at most once per
// TTL window across concurrent callers. A failed creation is forgotten so the
// next caller can try again.
func (c *sessionCache) bind(ctx context.Context, session string, create func() (directory.ThreadRef, error)) (directory.ThreadRef, error) {
	for {
		c.mu.Lock()
		e, ok := c.entries[session]
		if ok && c.now().After(e.expires) {
			delete(c.entries, session)
			ok = false
		}
		if ok {
			c.mu.Unlock()
			select {
			case <-e.done:
			case <-ctx.Done():
				return directory.ThreadRef{}, ctx.Err()
			}
			if e.err == nil {
				return e.ref, nil
			}
			// The claimant failed; drop its entry and race to claim.
			c.mu.Lock()
			if c.entries[session] == e {
				delete(c.entries, session)
			}
			c.mu.Unlock()
			continue
		}
		if len(c.entries) >= c.maxSize {
			c.evictLocked()
		}
		e = &sessionEntry{done: make(chan struct{}), expires: c.now().Add(c.ttl)}
		c.entries[session] = e
		c.mu.Unlock()

		e.ref, e.err = create()
		close(e.done)
		if e.err != nil {
			c.mu.Lock()
			if c.entries[session] == e {
				delete(c.entries, session)
			}
			c.mu.Unlock()
		}
		return e.ref, e.err
	}
}

// evictLocked drops expired entries; if none are expired it drops the entry
// closest to expiry. Callers hold c.mu.
func (c *sessionCache) evictLocked() {
	now := c.now()
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || e.expires.Before(oldest) {
			oldestKey, oldest = k, e.expires
		}
	}
	if len(c.entries) >= c.maxSize && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
