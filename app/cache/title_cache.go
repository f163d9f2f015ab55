package cache

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/anime-comb/app/anime"
	"github.com/lysyi3m/anime-comb/app/clock"
)

const DefaultTTL = 24 * time.Hour

type entry struct {
	records  []anime.SecondaryRecord
	storedAt time.Time
}

// TitleCache maps a normalized title to the secondary records previously
// fetched for it. Entries expire lazily: an expired entry is dropped by the
// Get that finds it. An empty record slice is a valid cached result.
type TitleCache struct {
	ttl     time.Duration
	clock   clock.Clock
	entries map[string]entry
	mu      sync.Mutex
}

func NewTitleCache(ttl time.Duration, c clock.Clock) *TitleCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if c == nil {
		c = clock.Real{}
	}

	return &TitleCache{
		ttl:     ttl,
		clock:   c,
		entries: make(map[string]entry),
	}
}

func NormalizeKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func (tc *TitleCache) Get(title string) ([]anime.SecondaryRecord, bool) {
	key := NormalizeKey(title)

	tc.mu.Lock()
	defer tc.mu.Unlock()

	e, ok := tc.entries[key]
	if !ok {
		return nil, false
	}

	if tc.expired(e, tc.clock.Now()) {
		delete(tc.entries, key)
		return nil, false
	}

	return cloneRecords(e.records), true
}

func (tc *TitleCache) Put(title string, records []anime.SecondaryRecord) {
	key := NormalizeKey(title)

	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.entries[key] = entry{
		records:  cloneRecords(records),
		storedAt: tc.clock.Now(),
	}
}

func (tc *TitleCache) Len() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.entries)
}

func (tc *TitleCache) TTL() time.Duration {
	return tc.ttl
}

func (tc *TitleCache) Purge() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	removed := len(tc.entries)
	tc.entries = make(map[string]entry)
	return removed
}

// Sweep removes every expired entry and returns how many were dropped.
func (tc *TitleCache) Sweep() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	now := tc.clock.Now()
	removed := 0
	for key, e := range tc.entries {
		if tc.expired(e, now) {
			delete(tc.entries, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done. It blocks, so run
// it in its own goroutine.
func (tc *TitleCache) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := tc.Sweep(); removed > 0 {
				slog.Debug("Expired cache entries swept", "removed", removed, "remaining", tc.Len())
			}
		}
	}
}

func (tc *TitleCache) expired(e entry, now time.Time) bool {
	return now.Sub(e.storedAt) >= tc.ttl
}

func cloneRecords(records []anime.SecondaryRecord) []anime.SecondaryRecord {
	if records == nil {
		return []anime.SecondaryRecord{}
	}
	return slices.Clone(records)
}
