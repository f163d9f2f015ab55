package shinden

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const DefaultBaseURL = "https://shinden.pl"

// Client scrapes the series search page. The site has no API, so every call
// is an HTML page fetch and should be paced by the caller.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
}

func NewClient(baseURL string, httpClient *http.Client, userAgent string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %q", baseURL)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    parsed,
		httpClient: httpClient,
		userAgent:  userAgent,
	}, nil
}

func (c *Client) Search(ctx context.Context, title string) (*SearchResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("search title is empty")
	}

	searchURL := *c.baseURL
	searchURL.Path = strings.TrimRight(searchURL.Path, "/") + "/series"
	query := searchURL.Query()
	query.Set("search", title)
	searchURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "pl,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	matches, err := ParseSearchPage(resp.Body)
	if err != nil {
		return nil, err
	}

	slog.Debug("Secondary search page scraped", "title", title, "matches", len(matches))

	return &SearchResult{
		Query:   title,
		BaseURL: c.baseURL,
		Matches: matches,
	}, nil
}

// ParseSearchPage extracts result rows from a series search page. Rows
// without a title link (the table header) are skipped.
func ParseSearchPage(r io.Reader) ([]RawMatch, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	matches := make([]RawMatch, 0)
	doc.Find("ul.div-row").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("h3 a").First()
		if link.Length() == 0 {
			return
		}

		href, _ := link.Attr("href")
		matches = append(matches, RawMatch{
			Title:    link.Text(),
			Kind:     cellText(row, "li.title-kind-col"),
			Status:   cellText(row, "li.title-status-col"),
			Rating:   cellText(row, "li.rate-top"),
			Episodes: cellText(row, "li.episodes-col"),
			Href:     href,
		})
	})

	return matches, nil
}

func cellText(row *goquery.Selection, selector string) string {
	return strings.TrimSpace(row.Find(selector).First().Text())
}
