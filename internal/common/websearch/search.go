// Package websearch looks up text on the web and returns result snippets in
// relevance order.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	httpclient "ghostwriter-workers/internal/common/http"
	"ghostwriter-workers/internal/models"
)

const (
	DefaultBaseURL        = "https://www.googleapis.com/customsearch/v1"
	DefaultMaxQueryLength = 2048
	// Custom Search returns at most 10 items per page.
	maxResultsPerPage = 10
)

var ErrSearchTimeout = errors.New("WEB_SEARCH_TIMEOUT")

// Searcher returns snippets of pages similar to query, most relevant first.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.SearchSnippet, error)
}

type Config struct {
	BaseURL        string
	APIKey         string
	EngineID       string
	Timeout        time.Duration
	MaxRetries     int
	MaxResults     int
	MaxQueryLength int
}

// GoogleSearcher queries the Google Custom Search JSON API.
type GoogleSearcher struct {
	config Config
	client *httpclient.Client
}

func NewGoogleSearcher(cfg Config) *GoogleSearcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxQueryLength <= 0 {
		cfg.MaxQueryLength = DefaultMaxQueryLength
	}
	if cfg.MaxResults <= 0 || cfg.MaxResults > maxResultsPerPage {
		cfg.MaxResults = maxResultsPerPage
	}
	return &GoogleSearcher{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, httpclient.WithRetry(cfg.MaxRetries, 0)),
	}
}

func (s *GoogleSearcher) Search(ctx context.Context, query string) ([]models.SearchSnippet, error) {
	query = TruncateQuery(query, s.config.MaxQueryLength)
	if query == "" {
		return []models.SearchSnippet{}, nil
	}

	searchURL, err := s.buildSearchURL(query)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	})
	if err != nil {
		if httpclient.IsTimeout(err) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrSearchTimeout, err)
		}
		return nil, fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var apiResponse struct {
		Items []struct {
			Link    string `json:"link"`
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	snippets := make([]models.SearchSnippet, 0, len(apiResponse.Items))
	for _, item := range apiResponse.Items {
		snippets = append(snippets, models.SearchSnippet{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}
	return snippets, nil
}

func (s *GoogleSearcher) buildSearchURL(query string) (string, error) {
	baseURL, err := url.Parse(s.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid search base url: %w", err)
	}
	params := url.Values{}
	params.Add("key", s.config.APIKey)
	params.Add("cx", s.config.EngineID)
	params.Add("q", query)
	params.Add("num", strconv.Itoa(s.config.MaxResults))
	baseURL.RawQuery = params.Encode()
	return baseURL.String(), nil
}

// TruncateQuery collapses whitespace and cuts query to at most maxRunes runes,
// backing up to the last word boundary when one exists.
func TruncateQuery(query string, maxRunes int) string {
	query = strings.Join(strings.Fields(query), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(query) <= maxRunes {
		return query
	}

	runes := []rune(query)
	cut := runes[:maxRunes]
	if !unicode.IsSpace(runes[maxRunes]) {
		for i := len(cut) - 1; i > 0; i-- {
			if unicode.IsSpace(cut[i]) {
				cut = cut[:i]
				break
			}
		}
	}
	return strings.TrimSpace(string(cut))
}
