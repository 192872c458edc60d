package plugin

import (
	"sync"
	"time"
)

// CachedOracle wraps an Oracle with a TTL cache over compliance answers.
// Compliance checks may be expensive for out-of-process gateways, and
// validators hit the same plugin ids repeatedly, so answers are held for
// a bounded time. Existence and schema lookups pass through.
type CachedOracle struct {
	inner Oracle
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]complianceEntry
}

type complianceEntry struct {
	ok      bool
	reason  string
	expires time.Time
}

// NewCachedOracle creates a caching wrapper with the given entry lifetime.
func NewCachedOracle(inner Oracle, ttl time.Duration) *CachedOracle {
	return &CachedOracle{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]complianceEntry),
	}
}

// Exists implements Oracle.
func (c *CachedOracle) Exists(pluginID string) bool {
	return c.inner.Exists(pluginID)
}

// Compliance implements Oracle, serving cached answers until they expire.
func (c *CachedOracle) Compliance(pluginID string) (bool, string) {
	c.mu.RLock()
	entry, ok := c.entries[pluginID]
	c.mu.RUnlock()

	if ok && c.now().Before(entry.expires) {
		return entry.ok, entry.reason
	}

	compliant, reason := c.inner.Compliance(pluginID)

	c.mu.Lock()
	c.entries[pluginID] = complianceEntry{
		ok:      compliant,
		reason:  reason,
		expires: c.now().Add(c.ttl),
	}
	c.mu.Unlock()

	return compliant, reason
}

// InputSchema implements Oracle.
func (c *CachedOracle) InputSchema(pluginID string) (map[string]any, error) {
	return c.inner.InputSchema(pluginID)
}

// OutputSchema implements Oracle.
func (c *CachedOracle) OutputSchema(pluginID string) (map[string]any, error) {
	return c.inner.OutputSchema(pluginID)
}

// Invalidate removes the cached compliance answer for a plugin.
func (c *CachedOracle) Invalidate(pluginID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, pluginID)
}

// InvalidateAll removes every cached compliance answer.
func (c *CachedOracle) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]complianceEntry)
}
