package domain

import "sync"

// Backend names accepted for the record store and the per-user lock
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendLocal    = "local"
)

// RuntimeConfig tracks which backends were chosen at startup and whether the
// bot is currently receiving updates.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	StoreBackend string // "postgres" or "redis"
	LockBackend  string // "redis", "postgres" or "local"

	// Dynamic
	polling bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(storeBackend, lockBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		StoreBackend: storeBackend,
		LockBackend:  lockBackend,
	}
}

// Polling returns whether the update loop is running
func (c *RuntimeConfig) Polling() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.polling
}

// SetPolling updates the update loop flag
func (c *RuntimeConfig) SetPolling(polling bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polling = polling
}

// DistributedLocking returns true if per-user locks span processes
func (c *RuntimeConfig) DistributedLocking() bool {
	return c.LockBackend == BackendRedis || c.LockBackend == BackendPostgres
}
