package recurrence

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

var (
	cacheMasterStart = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	cacheMasterEnd   = time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)
	cacheRangeStart  = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	cacheRangeEnd    = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
)

func TestRecurrenceCache_BasicOperations(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	recInfo := RecurrenceInfo{RRULE: []string{"FREQ=DAILY;COUNT=5"}}

	// Cache miss first
	result, found := cache.Get("test", cacheMasterStart, cacheMasterEnd, recInfo, cacheRangeStart, cacheRangeEnd)
	if found {
		t.Error("Expected cache miss, got hit")
	}
	if result != nil {
		t.Error("Expected nil result on cache miss")
	}

	cache.Set("test", cacheMasterStart, cacheMasterEnd, recInfo, cacheRangeStart, cacheRangeEnd, true)

	result, found = cache.Get("test", cacheMasterStart, cacheMasterEnd, recInfo, cacheRangeStart, cacheRangeEnd)
	if !found {
		t.Error("Expected cache hit, got miss")
	}
	if result != true {
		t.Errorf("Expected true, got %v", result)
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d and %d", stats.Hits, stats.Misses)
	}
}

func TestRecurrenceCache_TTLExpiration(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             100 * time.Millisecond,
		MaxEntries:      100,
		CleanupInterval: 50 * time.Millisecond,
	})
	defer cache.Close()

	recInfo := RecurrenceInfo{RRULE: []string{"FREQ=DAILY;COUNT=5"}}
	cache.Set("test", cacheMasterStart, cacheMasterEnd, recInfo, cacheRangeStart, cacheRangeEnd, true)

	if result, found := cache.Get("test", cacheMasterStart, cacheMasterEnd, recInfo, cacheRangeStart, cacheRangeEnd); !found || result != true {
		t.Error("Expected cache hit immediately after set")
	}

	time.Sleep(150 * time.Millisecond)

	if _, found := cache.Get("test", cacheMasterStart, cacheMasterEnd, recInfo, cacheRangeStart, cacheRangeEnd); found {
		t.Error("Expected cache miss after TTL expiration")
	}
}

func TestRecurrenceCache_DifferentKeys(t *testing.T) {
	cache := NewRecurrenceCache(DefaultCacheConfig)
	defer cache.Close()

	exdate := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	infos := []RecurrenceInfo{
		{RRULE: []string{"FREQ=DAILY;COUNT=5"}},
		{RRULE: []string{"FREQ=WEEKLY;COUNT=5"}},
		{RRULE: []string{"FREQ=DAILY;COUNT=5"}, EXDATE: []time.Time{exdate}},
		{RRULE: []string{"FREQ=DAILY;COUNT=5"}, RDATE: []time.Time{exdate}},
		{RRULE: []string{"FREQ=DAILY;COUNT=5"}, EXRULE: []string{"FREQ=WEEKLY"}},
		{RRULE: []string{"FREQ=DAILY;COUNT=5"}, AllDay: true},
		{RRULE: []string{"FREQ=DAILY", "COUNT=5"}},
	}

	for i, info := range infos {
		cache.Set("test", cacheMasterStart, cacheMasterEnd, info, cacheRangeStart, cacheRangeEnd, i)
	}
	for i, info := range infos {
		result, found := cache.Get("test", cacheMasterStart, cacheMasterEnd, info, cacheRangeStart, cacheRangeEnd)
		if !found || result != i {
			t.Errorf("entry %d: expected %d, got %v (found=%v)", i, i, result, found)
		}
	}

	// The zone of an input is part of the key even when the instant is the same.
	shanghai := time.FixedZone("CST", 8*3600)
	if _, found := cache.Get("test", cacheMasterStart.In(shanghai), cacheMasterEnd, infos[0], cacheRangeStart, cacheRangeEnd); found {
		t.Error("Expected miss for a master start in another zone")
	}
	if _, found := cache.Get("other", cacheMasterStart, cacheMasterEnd, infos[0], cacheRangeStart, cacheRangeEnd); found {
		t.Error("Expected miss for another operation")
	}
}

// Test cache size limits and LRU eviction
func TestRecurrenceCache_MaxEntriesEviction(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      3,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	for i := 0; i < 3; i++ {
		recInfo := RecurrenceInfo{RRULE: []string{fmt.Sprintf("FREQ=DAILY;COUNT=%d", i+1)}}
		cache.Set("test", cacheMasterStart, cacheMasterEnd, recInfo, cacheRangeStart, cacheRangeEnd, true)
		time.Sleep(time.Millisecond)
	}

	if stats := cache.Stats(); stats.TotalEntries != 3 {
		t.Errorf("Expected 3 entries, got %d", stats.TotalEntries)
	}

	recInfo4 := RecurrenceInfo{RRULE: []string{"FREQ=WEEKLY;COUNT=1"}}
	cache.Set("test", cacheMasterStart, cacheMasterEnd, recInfo4, cacheRangeStart, cacheRangeEnd, false)

	if stats := cache.Stats(); stats.TotalEntries != 3 {
		t.Errorf("Expected 3 entries after eviction, got %d", stats.TotalEntries)
	}

	result, found := cache.Get("test", cacheMasterStart, cacheMasterEnd, recInfo4, cacheRangeStart, cacheRangeEnd)
	if !found || result != false {
		t.Error("Expected newest entry to be present after eviction")
	}

	recInfo1 := RecurrenceInfo{RRULE: []string{"FREQ=DAILY;COUNT=1"}}
	if _, found := cache.Get("test", cacheMasterStart, cacheMasterEnd, recInfo1, cacheRangeStart, cacheRangeEnd); found {
		t.Error("Expected oldest entry to be evicted")
	}
}

func TestRecurrenceCache_ConcurrentAccess(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	const numGoroutines = 10
	const operationsPerGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				recInfo := RecurrenceInfo{
					RRULE: []string{fmt.Sprintf("FREQ=DAILY;COUNT=%d", goroutineID*operationsPerGoroutine+j)},
				}
				if j%2 == 0 {
					cache.Set("test", cacheMasterStart, cacheMasterEnd, recInfo, cacheRangeStart, cacheRangeEnd, true)
				} else {
					cache.Get("test", cacheMasterStart, cacheMasterEnd, recInfo, cacheRangeStart, cacheRangeEnd)
				}
			}
		}(i)
	}
	wg.Wait()

	if stats := cache.Stats(); stats.TotalEntries > 100 {
		t.Errorf("Expected at most 100 entries, got %d", stats.TotalEntries)
	}

	testRecInfo := RecurrenceInfo{RRULE: []string{"FREQ=DAILY;COUNT=999"}}
	cache.Set("test", cacheMasterStart, cacheMasterEnd, testRecInfo, cacheRangeStart, cacheRangeEnd, true)
	if result, found := cache.Get("test", cacheMasterStart, cacheMasterEnd, testRecInfo, cacheRangeStart, cacheRangeEnd); !found || result != true {
		t.Error("Cache should still be functional after concurrent access")
	}
}

func TestRecurrenceCache_CloseTwice(t *testing.T) {
	cache := NewRecurrenceCache(DefaultCacheConfig)
	cache.Close()
	cache.Close()

	if stats := cache.Stats(); stats.TotalEntries != 0 {
		t.Errorf("Expected empty cache after close, got %d entries", stats.TotalEntries)
	}
}
