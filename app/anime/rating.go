package anime

import (
	"cmp"
	"math"
	"slices"
)

// AverageRating returns the mean of whichever ratings are usable, rounded to two
// decimals. Nil, NaN, infinite and zero ratings are treated as missing; both
// sources use zero for "not rated yet".
func AverageRating(primary, secondary *float64) (float64, bool) {
	ratings := make([]float64, 0, 2)
	for _, r := range []*float64{primary, secondary} {
		if usableRating(r) {
			ratings = append(ratings, *r)
		}
	}

	if len(ratings) == 0 {
		return 0, false
	}

	sum := 0.0
	for _, r := range ratings {
		sum += r
	}
	return math.Round(sum/float64(len(ratings))*100) / 100, true
}

func usableRating(r *float64) bool {
	if r == nil {
		return false
	}
	v := *r
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v != 0
}

// NewRankedItem pairs a primary record with its match and combined rating.
// Items without any rating get a combined rating of 0.
func NewRankedItem(primary PrimaryRecord, match *SecondaryRecord) RankedItem {
	var secondary *float64
	if match != nil {
		secondary = match.Rating
	}

	combined, _ := AverageRating(primary.Mean, secondary)
	return RankedItem{
		Primary:        primary,
		SecondaryMatch: match,
		CombinedRating: combined,
	}
}

// RankTop keeps items rated above zero, orders them by combined rating
// (highest first, stable) and returns at most n of them.
func RankTop(items []RankedItem, n int) []RankedItem {
	if n <= 0 {
		return []RankedItem{}
	}

	ranked := make([]RankedItem, 0, len(items))
	for _, item := range items {
		if item.CombinedRating > 0 {
			ranked = append(ranked, item)
		}
	}

	slices.SortStableFunc(ranked, func(a, b RankedItem) int {
		return cmp.Compare(b.CombinedRating, a.CombinedRating)
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
