package api

import (
	"context"
	"time"

	"github.com/lysyi3m/anime-comb/app/anime"
	"github.com/lysyi3m/anime-comb/app/cache"
	"github.com/lysyi3m/anime-comb/app/ratelimit"
)

type AnimeService interface {
	Search(ctx context.Context, query string) (*anime.Result, error)
	Random(ctx context.Context, count int) (*anime.Result, error)
	Top(ctx context.Context, limit, offset, rankSize int) (*anime.TopResult, error)
	Season(ctx context.Context, year int, season string) (*anime.SeasonResult, error)
}

var _ AnimeService = (*anime.Service)(nil)

type CacheStore interface {
	Len() int
	TTL() time.Duration
	Purge() int
}

var _ CacheStore = (*cache.TitleCache)(nil)

type TokenBucket interface {
	Tokens() float64
	Capacity() int
}

var _ TokenBucket = (*ratelimit.Limiter)(nil)

type Handler struct {
	service   AnimeService
	cache     CacheStore
	limiter   TokenBucket
	version   string
	startedAt time.Time
}

type ServerOptions struct {
	APIAccessKey string
	PublicDir    string
}
