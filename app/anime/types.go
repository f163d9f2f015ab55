package anime

// PrimaryRecord is a catalog entry from the primary (ranked) source.
type PrimaryRecord struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Synopsis    string   `json:"synopsis,omitempty"`
	Mean        *float64 `json:"mean,omitempty"`
	MediaType   string   `json:"mediaType,omitempty"`
	NumEpisodes int      `json:"numEpisodes,omitempty"`
	Rank        int      `json:"rank,omitempty"` // ranking endpoint only
}

// SecondaryRecord is a normalized search hit from the community-rating site.
type SecondaryRecord struct {
	Title     string   `json:"title"`
	MediaType string   `json:"type"`
	Status    string   `json:"status"`
	Rating    *float64 `json:"rating"`
	URL       string   `json:"url"`
}

type RankedItem struct {
	Primary        PrimaryRecord    `json:"primary"`
	SecondaryMatch *SecondaryRecord `json:"secondaryMatch"`
	CombinedRating float64          `json:"combinedRating"`
}

type Result struct {
	Data        []PrimaryRecord   `json:"data"`
	ShindenData []SecondaryRecord `json:"shindenData"`
	Items       []RankedItem      `json:"items"`
}

type Paging struct {
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next"`
}

type TopResult struct {
	Result
	Ranking []RankedItem `json:"ranking"`
	Paging  Paging       `json:"paging"`
}

type SeasonInfo struct {
	Year   int    `json:"year"`
	Season string `json:"season"`
}

type SeasonResult struct {
	Result
	Season SeasonInfo `json:"season"`
}
