package mal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lysyi3m/anime-comb/app/anime"
)

const (
	DefaultBaseURL = "https://api.myanimelist.net/v2"
	Fields         = "id,title,main_picture,synopsis,mean,media_type,num_episodes"

	maxErrorBody = 512
)

var _ anime.PrimarySource = (*Client)(nil)

// UpstreamError is a non-2xx answer from the API.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("MAL API error: %d %s", e.Status, e.Body)
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	clientID   string
}

func NewClient(baseURL, clientID string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if clientID == "" {
		return nil, fmt.Errorf("client ID is required")
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
		clientID:   clientID,
	}, nil
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]anime.PrimaryRecord, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	return c.list(ctx, "/anime", params)
}

func (c *Client) Ranking(ctx context.Context, rankingType string, limit, offset int) ([]anime.PrimaryRecord, error) {
	params := url.Values{}
	params.Set("ranking_type", rankingType)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	return c.list(ctx, "/anime/ranking", params)
}

func (c *Client) Season(ctx context.Context, year int, season string, limit int) ([]anime.PrimaryRecord, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort", "anime_score")

	return c.list(ctx, fmt.Sprintf("/anime/season/%d/%s", year, url.PathEscape(season)), params)
}

func (c *Client) list(ctx context.Context, path string, params url.Values) ([]anime.PrimaryRecord, error) {
	params.Set("fields", Fields)

	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-MAL-CLIENT-ID", c.clientID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call MAL API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode MAL response: %w", err)
	}

	records := make([]anime.PrimaryRecord, 0, len(payload.Data))
	for _, entry := range payload.Data {
		records = append(records, entry.toRecord())
	}

	slog.Debug("MAL request completed", "path", path, "records", len(records))
	return records, nil
}
