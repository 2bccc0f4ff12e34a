package recurrence

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"sync"
	"time"
)

// CacheEntry represents a cached recurrence result
type CacheEntry struct {
	Result     any // bool for HasOccurrenceInRange, *Expansion for Expand
	ExpiresAt  time.Time
	AccessedAt time.Time
}

// RecurrenceCache provides caching for recurrence expansion and validation results
type RecurrenceCache struct {
	entries         map[string]*CacheEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once

	hits   int
	misses int
}

// CacheConfig holds configuration for the recurrence cache
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl"`              // How long entries stay valid
	MaxEntries      int           `yaml:"max_entries"`      // Maximum number of entries before cleanup
	CleanupInterval time.Duration `yaml:"cleanup_interval"` // How often to run cleanup
}

// DefaultCacheConfig provides sensible defaults for recurrence caching
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewRecurrenceCache creates a new recurrence cache with the given configuration
func NewRecurrenceCache(config CacheConfig) *RecurrenceCache {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCacheConfig.CleanupInterval
	}
	cache := &RecurrenceCache{
		entries:         make(map[string]*CacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go cache.cleanupLoop()

	return cache
}

// generateCacheKey hashes every input that can change a result.
func (c *RecurrenceCache) generateCacheKey(operation string, masterStart, masterEnd time.Time, recInfo RecurrenceInfo, rangeStart, rangeEnd time.Time) string {
	hasher := sha256.New()
	write := func(s string) {
		hasher.Write([]byte(s))
		hasher.Write([]byte{0})
	}
	writeTime := func(t time.Time) {
		write(t.Format(time.RFC3339Nano) + "@" + t.Location().String())
	}

	write(operation)
	writeTime(masterStart)
	writeTime(masterEnd)
	writeTime(rangeStart)
	writeTime(rangeEnd)
	write(strconv.FormatBool(recInfo.AllDay))

	write("RRULE")
	for _, r := range recInfo.RRULE {
		write(r)
	}
	write("EXRULE")
	for _, r := range recInfo.EXRULE {
		write(r)
	}
	write("RDATE")
	for _, rdate := range recInfo.RDATE {
		writeTime(rdate)
	}
	for _, p := range recInfo.RDATEPeriods {
		writeTime(p.Start)
		writeTime(p.End)
	}
	write("EXDATE")
	for _, exdate := range recInfo.EXDATE {
		writeTime(exdate)
	}
	if recInfo.RecurrenceID != nil {
		write("RECURRENCE-ID")
		writeTime(*recInfo.RecurrenceID)
	}

	return hex.EncodeToString(hasher.Sum(nil))
}

// Get retrieves a cached result if it exists and hasn't expired
func (c *RecurrenceCache) Get(operation string, masterStart, masterEnd time.Time, recInfo RecurrenceInfo, rangeStart, rangeEnd time.Time) (any, bool) {
	key := c.generateCacheKey(operation, masterStart, masterEnd, recInfo, rangeStart, rangeEnd)
	now := time.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}
	if now.After(entry.ExpiresAt) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	entry.AccessedAt = now
	c.hits++
	return entry.Result, true
}

// Set stores a result in the cache
func (c *RecurrenceCache) Set(operation string, masterStart, masterEnd time.Time, recInfo RecurrenceInfo, rangeStart, rangeEnd time.Time, result any) {
	key := c.generateCacheKey(operation, masterStart, masterEnd, recInfo, rangeStart, rangeEnd)
	now := time.Now()

	entry := &CacheEntry{
		Result:     result,
		ExpiresAt:  now.Add(c.ttl),
		AccessedAt: now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry
	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// cleanup removes expired entries, then the least recently accessed ones while the
// cache is over its limit. The caller holds the write lock.
func (c *RecurrenceCache) cleanup() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type keyAccess struct {
		key        string
		accessedAt time.Time
	}
	keys := make([]keyAccess, 0, len(c.entries))
	for key, entry := range c.entries {
		keys = append(keys, keyAccess{key: key, accessedAt: entry.AccessedAt})
	}
	slices.SortFunc(keys, func(a, b keyAccess) int {
		return a.accessedAt.Compare(b.accessedAt)
	})

	excess := len(c.entries) - c.maxEntries
	for _, k := range keys[:excess] {
		delete(c.entries, k.key)
	}
}

func (c *RecurrenceCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache. It is safe to call more
// than once.
func (c *RecurrenceCache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCleanup)
	})
	c.mutex.Lock()
	c.entries = make(map[string]*CacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics
func (c *RecurrenceCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	expired := 0
	now := time.Now()
	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			expired++
		}
	}

	return CacheStats{
		TotalEntries:   len(c.entries),
		ExpiredEntries: expired,
		ActiveEntries:  len(c.entries) - expired,
		Hits:           c.hits,
		Misses:         c.misses,
	}
}

// CacheStats provides information about cache performance
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
	Hits           int
	Misses         int
}
