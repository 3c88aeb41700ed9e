package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://serpapi.com/search.json"

// noResults is how the provider reports an empty result set in the error field.
const noResults = "hasn't returned any results"

// Params are the engine-specific query parameters, "engine" included.
type Params map[string]string

// Client queries the search provider. A zero Timeout means no per-call
// deadline beyond the caller's context.
type Client struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *log.Logger
}

// NewClient creates a client. An empty key falls back to SERPAPI_API_KEY.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		apiKey = os.Getenv("SERPAPI_API_KEY")
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
		Logger:  log.New(os.Stdout, "[SERP] ", log.LstdFlags),
	}
}

// httpGet is a package-level var so tests can mock it.
var httpGet = defaultHTTPGet

func defaultHTTPGet(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return http.DefaultClient.Do(req)
}

// Search runs one engine query and decodes the sections the tools use.
func (c *Client) Search(ctx context.Context, params Params) (*Response, error) {
	if params["engine"] == "" {
		return nil, fmt.Errorf("search params must name an engine")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	q.Set("api_key", c.APIKey)

	if c.Logger != nil {
		c.Logger.Printf("query engine=%s q=%q", params["engine"], params["q"])
	}

	resp, err := httpGet(ctx, baseURL+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("error sending request to search provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result Response
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("error unmarshalling search response: %w", err)
	}
	if result.Error != "" {
		if strings.Contains(strings.ToLower(result.Error), noResults) {
			if c.Logger != nil {
				c.Logger.Printf("engine=%s returned no results", params["engine"])
			}
			return &Response{}, nil
		}
		return nil, fmt.Errorf("search provider error: %s", result.Error)
	}
	return &result, nil
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
