package shinden

import "net/url"

// RawMatch is one row of the search results table, exactly as scraped.
type RawMatch struct {
	Title    string
	Kind     string
	Status   string
	Rating   string
	Episodes string
	Href     string
}

type SearchResult struct {
	Query   string
	BaseURL *url.URL
	Matches []RawMatch
}
