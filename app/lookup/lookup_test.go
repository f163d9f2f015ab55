package lookup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/anime-comb/app/anime"
	"github.com/lysyi3m/anime-comb/app/cache"
	"github.com/lysyi3m/anime-comb/app/clock"
	"github.com/lysyi3m/anime-comb/app/ratelimit"
	"github.com/lysyi3m/anime-comb/app/shinden"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   map[string]int
	failing map[string]bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{calls: map[string]int{}, failing: map[string]bool{}}
}

func (f *fakeSource) Search(ctx context.Context, title string) (*shinden.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[title]++
	if f.failing[title] {
		return nil, errors.New("HTTP error: 503 Service Unavailable")
	}

	base, _ := url.Parse("https://shinden.pl")
	return &shinden.SearchResult{
		Query:   title,
		BaseURL: base,
		Matches: []shinden.RawMatch{
			{Title: title, Kind: "TV", Status: "Zakończone", Rating: "8,50", Href: "/series/1-" + title},
		},
	}, nil
}

func (f *fakeSource) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type lookupFixture struct {
	source *fakeSource
	clock  *clock.Fake
	cache  *cache.TitleCache
	lookup *Lookup
}

func newLookupFixture() *lookupFixture {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	source := newFakeSource()
	titleCache := cache.NewTitleCache(cache.DefaultTTL, fake)
	limiter := ratelimit.NewLimiter(10, time.Second, 0, fake)
	retry := NewRetryPolicy(3, 2*time.Second, limiter, fake)

	cfg := DefaultConfig()
	cfg.JitterMin = time.Second
	cfg.JitterMax = time.Second

	return &lookupFixture{
		source: source,
		clock:  fake,
		cache:  titleCache,
		lookup: New(source, titleCache, retry, fake, cfg),
	}
}

func countWaits(waits []time.Duration, d time.Duration) int {
	n := 0
	for _, w := range waits {
		if w == d {
			n++
		}
	}
	return n
}

func TestLookupFetchesAndCaches(t *testing.T) {
	f := newLookupFixture()

	records := f.lookup.Lookup(context.Background(), "Naruto")
	require.Len(t, records, 1)
	assert.Equal(t, "Naruto", records[0].Title)
	assert.Equal(t, "https://shinden.pl/series/1-Naruto", records[0].URL)
	require.NotNil(t, records[0].Rating)
	assert.Equal(t, 8.5, *records[0].Rating)
	assert.Equal(t, []time.Duration{time.Second}, f.clock.Waits(), "one pacing delay before the request")

	f.clock.ResetWaits()
	again := f.lookup.Lookup(context.Background(), "  NARUTO ")
	assert.Equal(t, records, again)
	assert.Equal(t, 1, f.source.total())
	assert.Empty(t, f.clock.Waits(), "cache hits are not delayed")
}

func TestLookupFailureCachesEmptyResult(t *testing.T) {
	f := newLookupFixture()
	f.source.failing["Bleach"] = true

	records := f.lookup.Lookup(context.Background(), "Bleach")
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Equal(t, 3, f.source.calls["Bleach"])
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, f.clock.Waits())

	cached, ok := f.cache.Get("Bleach")
	require.True(t, ok, "failed lookups are cached")
	assert.Empty(t, cached)

	f.lookup.Lookup(context.Background(), "Bleach")
	assert.Equal(t, 3, f.source.calls["Bleach"], "no new request while the empty result is fresh")
}

func TestLookupRetriesAfterCacheExpiry(t *testing.T) {
	f := newLookupFixture()
	f.source.failing["Bleach"] = true
	f.lookup.Lookup(context.Background(), "Bleach")

	f.clock.Advance(cache.DefaultTTL + time.Second)
	f.source.failing["Bleach"] = false

	records := f.lookup.Lookup(context.Background(), "Bleach")
	assert.Len(t, records, 1)
	assert.Equal(t, 4, f.source.calls["Bleach"])
}

func TestLookupEmptyTitle(t *testing.T) {
	f := newLookupFixture()

	records := f.lookup.Lookup(context.Background(), "   ")
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Zero(t, f.source.total())
	assert.Empty(t, f.clock.Waits())
}

func TestLookupIgnoresCallerCancellation(t *testing.T) {
	f := newLookupFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := f.lookup.Lookup(ctx, "Monster")
	assert.Len(t, records, 1)
	assert.Equal(t, 1, f.source.calls["Monster"])
}

func TestLookupManyKeepsOrder(t *testing.T) {
	f := newLookupFixture()
	titles := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		titles = append(titles, fmt.Sprintf("Title %02d", i))
	}

	results := f.lookup.LookupMany(context.Background(), titles)

	require.Len(t, results, len(titles))
	for i, records := range results {
		require.Len(t, records, 1)
		assert.Equal(t, titles[i], records[0].Title)
	}
}

func TestLookupManyPausesBetweenFetchingBatches(t *testing.T) {
	f := newLookupFixture()
	titles := []string{"A1", "A2", "A3", "A4", "A5", "B1", "B2"}

	f.lookup.LookupMany(context.Background(), titles)

	waits := f.clock.Waits()
	assert.Equal(t, 7, countWaits(waits, time.Second), "one pacing delay per title")
	assert.Equal(t, 1, countWaits(waits, 2*time.Second), "one pause between two batches")
	assert.Equal(t, 7, f.source.total())

	f.clock.ResetWaits()
	f.lookup.LookupMany(context.Background(), titles)
	assert.Empty(t, f.clock.Waits(), "fully cached batches need no pause")
	assert.Equal(t, 7, f.source.total())
}

func TestLookupManySharesDuplicateTitles(t *testing.T) {
	f := newLookupFixture()

	results := f.lookup.LookupMany(context.Background(), []string{"Naruto", "naruto ", "NARUTO"})

	require.Len(t, results, 3)
	for _, records := range results {
		assert.Len(t, records, 1)
	}
	assert.Equal(t, 1, f.source.total())
}

func TestLookupManyEmpty(t *testing.T) {
	f := newLookupFixture()

	results := f.lookup.LookupMany(context.Background(), nil)
	assert.Empty(t, results)
	assert.Zero(t, f.source.total())
}

type blockingSource struct {
	*fakeSource
	block   string
	started chan struct{}
	release chan struct{}
}

func (b *blockingSource) Search(ctx context.Context, title string) (*shinden.SearchResult, error) {
	if title == b.block {
		close(b.started)
		<-b.release
	}
	return b.fakeSource.Search(ctx, title)
}

func TestLookupManyPausesWhenFetchWasJoined(t *testing.T) {
	f := newLookupFixture()
	source := &blockingSource{
		fakeSource: f.source,
		block:      "Naruto",
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	cfg := DefaultConfig()
	cfg.JitterMin, cfg.JitterMax = time.Second, time.Second
	cfg.BatchSize = 1
	limiter := ratelimit.NewLimiter(10, time.Second, 0, f.clock)
	l := New(source, f.cache, NewRetryPolicy(3, 2*time.Second, limiter, f.clock), f.clock, cfg)

	done := make(chan [][]anime.SecondaryRecord)
	go func() {
		done <- l.LookupMany(context.Background(), []string{"Naruto", "Bleach"})
	}()

	<-source.started
	joined := make(chan []anime.SecondaryRecord)
	go func() {
		joined <- l.Lookup(context.Background(), "Naruto")
	}()
	time.Sleep(50 * time.Millisecond)
	close(source.release)

	results := <-done
	assert.Len(t, <-joined, 1)
	require.Len(t, results, 2)
	assert.Equal(t, 1, f.source.calls["Naruto"])
	assert.Equal(t, 1, countWaits(f.clock.Waits(), 2*time.Second), "the batch that fetched is followed by a pause")
}
