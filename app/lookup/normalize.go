package lookup

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/lysyi3m/anime-comb/app/anime"
	"github.com/lysyi3m/anime-comb/app/shinden"
)

// Normalize turns scraped rows into records: titles trimmed and NFC-normalized,
// ratings parsed or dropped, links made absolute. Rows without a title are
// skipped.
func Normalize(result *shinden.SearchResult) []anime.SecondaryRecord {
	if result == nil {
		return []anime.SecondaryRecord{}
	}

	records := make([]anime.SecondaryRecord, 0, len(result.Matches))
	for _, m := range result.Matches {
		title := norm.NFC.String(strings.TrimSpace(m.Title))
		if title == "" {
			continue
		}

		records = append(records, anime.SecondaryRecord{
			Title:     title,
			MediaType: strings.TrimSpace(m.Kind),
			Status:    strings.TrimSpace(m.Status),
			Rating:    ParseRating(m.Rating),
			URL:       ResolveURL(result.BaseURL, m.Href),
		})
	}

	return records
}

// ParseRating accepts both "8.45" and the Polish "8,45". Anything that is not
// a finite number yields nil.
func ParseRating(raw string) *float64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
