package serp

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func mockHTTPGet(body string, status int, seen *string) func(context.Context, string) (*http.Response, error) {
	return func(ctx context.Context, rawURL string) (*http.Response, error) {
		if seen != nil {
			*seen = rawURL
		}
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
		}, nil
	}
}

func TestSearchEncodesParams(t *testing.T) {
	orig := httpGet
	defer func() { httpGet = orig }()

	var seen string
	httpGet = mockHTTPGet(`{"organic_results":[{"title":"A","snippet":"B"}]}`, 200, &seen)

	c := &Client{APIKey: "k"}
	res, err := c.Search(context.Background(), Params{"engine": EngineWeb, "q": "penang food", "gl": ""})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.OrganicResults) != 1 || res.OrganicResults[0].Title != "A" {
		t.Errorf("unexpected results: %+v", res.OrganicResults)
	}

	u, err := url.Parse(seen)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("engine") != EngineWeb || q.Get("q") != "penang food" || q.Get("api_key") != "k" {
		t.Errorf("unexpected query: %s", u.RawQuery)
	}
	if q.Has("gl") {
		t.Error("empty params should be omitted")
	}
}

func TestSearchStatusError(t *testing.T) {
	orig := httpGet
	defer func() { httpGet = orig }()
	httpGet = mockHTTPGet(`oops`, 500, nil)

	c := &Client{APIKey: "k"}
	if _, err := c.Search(context.Background(), Params{"engine": EngineWeb}); err == nil {
		t.Fatal("expected error for non-200")
	}
}

func TestSearchProviderError(t *testing.T) {
	orig := httpGet
	defer func() { httpGet = orig }()
	httpGet = mockHTTPGet(`{"error":"Invalid API key"}`, 200, nil)

	c := &Client{APIKey: "bad"}
	_, err := c.Search(context.Background(), Params{"engine": EngineMaps})
	if err == nil || !strings.Contains(err.Error(), "Invalid API key") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestSearchNoResultsIsEmpty(t *testing.T) {
	orig := httpGet
	defer func() { httpGet = orig }()
	httpGet = mockHTTPGet(`{"error":"Google hasn't returned any results for this query."}`, 200, nil)

	c := &Client{APIKey: "k"}
	res, err := c.Search(context.Background(), Params{"engine": EngineFlights})
	if err != nil {
		t.Fatalf("an empty result set is not an error: %v", err)
	}
	if res == nil || len(res.BestFlights) != 0 || res.Error != "" {
		t.Fatalf("expected an empty response, got %+v", res)
	}
}

func TestSearchRequiresEngine(t *testing.T) {
	c := &Client{}
	if _, err := c.Search(context.Background(), Params{"q": "x"}); err == nil {
		t.Fatal("expected error without engine")
	}
}

func TestRatingText(t *testing.T) {
	r := 4.5
	if got := (LocalResult{Rating: &r}).RatingText(); got != "4.5" {
		t.Errorf("got %q", got)
	}
	if got := (LocalResult{}).RatingText(); got != "N/A" {
		t.Errorf("got %q", got)
	}
}
