package lookup

import (
	"context"
	"log/slog"
	"math/rand"
	"slices"
	"time"

	"github.com/sourcegraph/conc/iter"
	"golang.org/x/sync/singleflight"

	"github.com/lysyi3m/anime-comb/app/anime"
	"github.com/lysyi3m/anime-comb/app/cache"
	"github.com/lysyi3m/anime-comb/app/clock"
	"github.com/lysyi3m/anime-comb/app/shinden"
)

var _ anime.SecondaryLookup = (*Lookup)(nil)

// SecondarySource is the raw, unprotected secondary site client.
type SecondarySource interface {
	Search(ctx context.Context, title string) (*shinden.SearchResult, error)
}

type Config struct {
	JitterMin  time.Duration
	JitterMax  time.Duration
	BatchSize  int
	BatchPause time.Duration
}

func DefaultConfig() Config {
	return Config{
		JitterMin:  time.Second,
		JitterMax:  2500 * time.Millisecond,
		BatchSize:  5,
		BatchPause: 2 * time.Second,
	}
}

// Lookup resolves titles on the secondary source through the title cache,
// a jittered pacing delay and the retry policy. It never returns an error:
// a failed lookup yields, and caches, an empty result.
type Lookup struct {
	source SecondarySource
	cache  *cache.TitleCache
	retry  *RetryPolicy
	clock  clock.Clock
	cfg    Config
	group  singleflight.Group
}

func New(source SecondarySource, titleCache *cache.TitleCache, retry *RetryPolicy, c clock.Clock, cfg Config) *Lookup {
	if c == nil {
		c = clock.Real{}
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.JitterMax < cfg.JitterMin {
		cfg.JitterMax = cfg.JitterMin
	}

	return &Lookup{
		source: source,
		cache:  titleCache,
		retry:  retry,
		clock:  c,
		cfg:    cfg,
	}
}

func (l *Lookup) Lookup(ctx context.Context, title string) []anime.SecondaryRecord {
	records, _ := l.lookup(ctx, title)
	return records
}

// LookupMany resolves titles in batches of BatchSize. Lookups inside a batch
// run concurrently; results keep the order of titles. A batch that had to go
// to the network is followed by BatchPause before the next batch starts.
func (l *Lookup) LookupMany(ctx context.Context, titles []string) [][]anime.SecondaryRecord {
	results := make([][]anime.SecondaryRecord, 0, len(titles))
	mapper := iter.Mapper[string, batchResult]{MaxGoroutines: l.cfg.BatchSize}

	fetchedPrevious := false
	for start := 0; start < len(titles); start += l.cfg.BatchSize {
		if fetchedPrevious && l.cfg.BatchPause > 0 {
			slog.Debug("Pausing between secondary lookup batches", "pause", l.cfg.BatchPause, "done", start, "total", len(titles))
			_ = clock.Sleep(context.WithoutCancel(ctx), l.clock, l.cfg.BatchPause)
		}

		batch := titles[start:min(start+l.cfg.BatchSize, len(titles))]
		batchResults := mapper.Map(batch, func(title *string) batchResult {
			records, fetched := l.lookup(ctx, *title)
			return batchResult{records: records, fetched: fetched}
		})

		fetchedPrevious = false
		for _, r := range batchResults {
			results = append(results, r.records)
			fetchedPrevious = fetchedPrevious || r.fetched
		}
	}

	return results
}

type batchResult struct {
	records []anime.SecondaryRecord
	fetched bool
}

// lookup reports whether this call contacted the secondary source itself.
func (l *Lookup) lookup(ctx context.Context, title string) ([]anime.SecondaryRecord, bool) {
	key := cache.NormalizeKey(title)
	if key == "" {
		return []anime.SecondaryRecord{}, false
	}

	if records, ok := l.cache.Get(title); ok {
		slog.Debug("Secondary cache hit", "title", title, "records", len(records))
		return records, false
	}

	// Once started, a lookup runs to completion even if the request that
	// triggered it goes away.
	detached := context.WithoutCancel(ctx)
	fetched := false
	v, _, _ := l.group.Do(key, func() (any, error) {
		records, remote := l.fetch(detached, title)
		fetched = remote
		return records, nil
	})

	records := slices.Clone(v.([]anime.SecondaryRecord))
	return records, fetched
}

// fetch reports whether the secondary source was contacted; a caller that
// joined another in-flight fetch never runs it.
func (l *Lookup) fetch(ctx context.Context, title string) ([]anime.SecondaryRecord, bool) {
	if records, ok := l.cache.Get(title); ok {
		return records, false
	}

	_ = clock.Sleep(ctx, l.clock, l.jitter())

	var result *shinden.SearchResult
	err := l.retry.Run(ctx, title, func(ctx context.Context) error {
		r, err := l.source.Search(ctx, title)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		slog.Error("Secondary lookup failed, caching empty result", "title", title, "error", err)
		l.cache.Put(title, nil)
		return []anime.SecondaryRecord{}, true
	}

	records := Normalize(result)
	l.cache.Put(title, records)

	slog.Debug("Secondary lookup completed", "title", title, "records", len(records))
	return records, true
}

func (l *Lookup) jitter() time.Duration {
	span := l.cfg.JitterMax - l.cfg.JitterMin
	if span <= 0 {
		return l.cfg.JitterMin
	}
	return l.cfg.JitterMin + time.Duration(rand.Int63n(int64(span)))
}
