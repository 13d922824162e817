package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	googleSearchAPIURL = "https://www.googleapis.com/customsearch/v1"
	searchUserAgent    = "Mozilla/5.0 (compatible; ImageSearchBot/1.0)"
)

type GoogleImageInfo struct {
	ContextLink   string `json:"contextLink"`
	Height        int    `json:"height"`
	Width         int    `json:"width"`
	ByteSize      int    `json:"byteSize"`
	ThumbnailLink string `json:"thumbnailLink"`
}

type GoogleSearchItem struct {
	Title string          `json:"title"`
	Link  string          `json:"link"`
	Mime  string          `json:"mime"`
	Image GoogleImageInfo `json:"image"`
}

type GoogleSearchInfo struct {
	SearchTime   float64 `json:"searchTime"`
	TotalResults string  `json:"totalResults"`
}

type GoogleSearchResponse struct {
	Items             []GoogleSearchItem `json:"items"`
	SearchInformation GoogleSearchInfo   `json:"searchInformation"`
}

// GoogleClient talks to the Google Custom Search JSON API in image mode.
type GoogleClient struct {
	apiKey  string
	cseID   string
	baseURL string
	client  *rateLimitedClient
	log     *logrus.Logger
}

func NewGoogleClient(apiKey string, cseID string, log *logrus.Logger) *GoogleClient {
	return &GoogleClient{
		apiKey:  apiKey,
		cseID:   cseID,
		baseURL: googleSearchAPIURL,
		client:  newRateLimitedClient(10, 30*time.Second),
		log:     log,
	}
}

// Search requests one page of image results. num is capped at 10 by the
// provider; start is the 1-based offset of the first result.
func (g *GoogleClient) Search(ctx context.Context, query string, num int, start int) (*GoogleSearchResponse, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.cseID)
	params.Set("q", query)
	params.Set("searchType", "image")
	params.Set("num", strconv.Itoa(num))
	params.Set("start", strconv.Itoa(start))
	params.Set("safe", "active")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", searchUserAgent)
	req.Header.Set("Accept", "application/json")

	g.log.WithFields(logrus.Fields{"start": start, "num": num}).Debug("google search request")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result GoogleSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}
