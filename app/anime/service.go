package anime

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"
)

const RankingTypeAll = "all"

var validSeasons = map[string]bool{
	"winter": true,
	"spring": true,
	"summer": true,
	"fall":   true,
}

// PrimarySource is the ranked catalog API.
type PrimarySource interface {
	Search(ctx context.Context, query string, limit int) ([]PrimaryRecord, error)
	Ranking(ctx context.Context, rankingType string, limit, offset int) ([]PrimaryRecord, error)
	Season(ctx context.Context, year int, season string, limit int) ([]PrimaryRecord, error)
}

// SecondaryLookup resolves titles against the community-rating site. It never
// fails; result i belongs to titles[i].
type SecondaryLookup interface {
	LookupMany(ctx context.Context, titles []string) [][]SecondaryRecord
}

type ServiceConfig struct {
	SearchLimit    int
	RandomCount    int
	RandomMaxCount int
	RandomPoolSize int
	TopLimit       int
	TopMaxLimit    int
	TopRankSize    int
	SeasonLimit    int
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		SearchLimit:    12,
		RandomCount:    4,
		RandomMaxCount: 25,
		RandomPoolSize: 500,
		TopLimit:       50,
		TopMaxLimit:    500,
		TopRankSize:    10,
		SeasonLimit:    50,
	}
}

type Service struct {
	primary   PrimarySource
	secondary SecondaryLookup
	cfg       ServiceConfig
	intN      func(n int) int
	now       func() time.Time
}

func NewService(primary PrimarySource, secondary SecondaryLookup, cfg ServiceConfig) *Service {
	return &Service{
		primary:   primary,
		secondary: secondary,
		cfg:       cfg,
		intN:      rand.Intn,
		now:       time.Now,
	}
}

func (s *Service) Search(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newValidationError("query", "Parametr 'query' jest wymagany.")
	}

	records, err := s.primary.Search(ctx, query, s.cfg.SearchLimit)
	if err != nil {
		return nil, &UpstreamError{Operation: "search", Err: err}
	}

	result := s.merge(ctx, records)
	slog.Info("Search completed", "query", query, "primary", len(result.Data), "secondary", len(result.ShindenData))
	return &result, nil
}

// Random returns count titles taken from a random offset of the overall
// ranking. A count of 0 selects the configured default.
func (s *Service) Random(ctx context.Context, count int) (*Result, error) {
	if count == 0 {
		count = s.cfg.RandomCount
	}
	if count < 1 || count > s.cfg.RandomMaxCount {
		return nil, newValidationError("count", fmt.Sprintf("Parametr 'count' musi mieścić się w zakresie 1-%d.", s.cfg.RandomMaxCount))
	}

	offset := 0
	if span := s.cfg.RandomPoolSize - count; span > 0 {
		offset = s.intN(span + 1)
	}

	records, err := s.primary.Ranking(ctx, RankingTypeAll, count, offset)
	if err != nil {
		return nil, &UpstreamError{Operation: "random", Err: err}
	}

	result := s.merge(ctx, records)
	slog.Info("Random pick completed", "count", count, "offset", offset, "primary", len(result.Data))
	return &result, nil
}

// Top returns a page of the overall ranking plus the page re-ranked by
// combined rating. Zero values select the configured defaults.
func (s *Service) Top(ctx context.Context, limit, offset, rankSize int) (*TopResult, error) {
	if limit == 0 {
		limit = s.cfg.TopLimit
	}
	if rankSize == 0 {
		rankSize = s.cfg.TopRankSize
	}
	if limit < 1 || limit > s.cfg.TopMaxLimit {
		return nil, newValidationError("limit", fmt.Sprintf("Parametr 'limit' musi mieścić się w zakresie 1-%d.", s.cfg.TopMaxLimit))
	}
	if offset < 0 {
		return nil, newValidationError("offset", "Parametr 'offset' nie może być ujemny.")
	}
	if rankSize < 1 {
		return nil, newValidationError("rank", "Parametr 'rank' musi być dodatni.")
	}

	records, err := s.primary.Ranking(ctx, RankingTypeAll, limit, offset)
	if err != nil {
		return nil, &UpstreamError{Operation: "top", Err: err}
	}

	result := s.merge(ctx, records)
	top := &TopResult{
		Result:  result,
		Ranking: RankTop(result.Items, rankSize),
		Paging:  pagingFor(limit, offset),
	}

	slog.Info("Top list completed", "limit", limit, "offset", offset, "ranked", len(top.Ranking))
	return top, nil
}

func (s *Service) Season(ctx context.Context, year int, season string) (*SeasonResult, error) {
	season = strings.ToLower(strings.TrimSpace(season))
	if !validSeasons[season] {
		return nil, newValidationError("season", "Parametr 'season' musi mieć wartość winter, spring, summer lub fall.")
	}

	maxYear := s.now().Year() + 1
	if year < 1917 || year > maxYear {
		return nil, newValidationError("year", fmt.Sprintf("Parametr 'year' musi mieścić się w zakresie 1917-%d.", maxYear))
	}

	records, err := s.primary.Season(ctx, year, season, s.cfg.SeasonLimit)
	if err != nil {
		return nil, &UpstreamError{Operation: "season", Err: err}
	}

	result := &SeasonResult{
		Result: s.merge(ctx, records),
		Season: SeasonInfo{Year: year, Season: season},
	}

	slog.Info("Season list completed", "year", year, "season", season, "primary", len(result.Data))
	return result, nil
}

// merge looks up every distinct title on the secondary source and pairs each
// primary record with its best match. A record is matched against the results
// of its own lookup first and against the combined results second.
func (s *Service) merge(ctx context.Context, records []PrimaryRecord) Result {
	if records == nil {
		records = []PrimaryRecord{}
	}

	titles := make([]string, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		key := titleKey(r.Title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		titles = append(titles, r.Title)
	}

	lookups := s.secondary.LookupMany(ctx, titles)

	byTitle := make(map[string][]SecondaryRecord, len(titles))
	combined := make([]SecondaryRecord, 0)
	for i, title := range titles {
		if i >= len(lookups) {
			break
		}
		byTitle[titleKey(title)] = lookups[i]
		combined = append(combined, lookups[i]...)
	}

	items := make([]RankedItem, 0, len(records))
	for _, r := range records {
		match, ok := Match(r.Title, byTitle[titleKey(r.Title)])
		if !ok {
			match, ok = Match(r.Title, combined)
		}

		var matched *SecondaryRecord
		if ok {
			matched = &match
		}
		items = append(items, NewRankedItem(r, matched))
	}

	return Result{
		Data:        records,
		ShindenData: combined,
		Items:       items,
	}
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func pagingFor(limit, offset int) Paging {
	paging := Paging{
		Next: fmt.Sprintf("limit=%d&offset=%d", limit, offset+limit),
	}
	if offset > 0 {
		paging.Previous = fmt.Sprintf("limit=%d&offset=%d", limit, max(0, offset-limit))
	}
	return paging
}
