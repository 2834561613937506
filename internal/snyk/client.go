package snyk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DetailAPIVersion is the only version the code issue detail endpoint accepts.
// It does not follow the listing version.
const DetailAPIVersion = "2024-10-14~experimental"

const maxResponseBytes = 32 << 20

var regionURLs = map[string]string{
	"SNYK-US-01": "https://api.snyk.io",
	"SNYK-US-02": "https://api.us.snyk.io",
	"SNYK-EU-01": "https://api.eu.snyk.io",
	"SNYK-AU-01": "https://api.au.snyk.io",
}

// BaseURL maps a region code to its API root. Unknown regions fall back to
// SNYK-US-01.
func BaseURL(region string) string {
	if u, ok := regionURLs[strings.ToUpper(strings.TrimSpace(region))]; ok {
		return u
	}
	return regionURLs["SNYK-US-01"]
}

// NewHTTPClient returns the long-lived session used for every request of a
// run. The oauth2 transport stamps "Authorization: token <token>" on each
// request and the underlying transport keeps connections alive.
func NewHTTPClient(ctx context.Context, token string, timeout time.Duration) *http.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "token"})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = timeout
	return hc
}

// Client talks to the Snyk REST API.
type Client struct {
	baseURL    string
	apiVersion string
	http       *http.Client
}

// New returns a Client rooted at baseURL. apiVersion is sent on listing and
// organization lookups; the detail endpoint always uses DetailAPIVersion.
func New(hc *http.Client, baseURL, apiVersion string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: apiVersion,
		http:       hc,
	}
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("snyk: %s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("snyk: %s %s returned %d", e.Method, e.URL, e.StatusCode)
}

// get issues a GET and returns the response body. Non-2xx responses are
// converted to *APIError.
func (c *Client) get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("snyk: build request: %w", err)
	}
	req.Header.Set("Accept", "*/*")

	res, err := c.http.Do(req) // #nosec G107 -- host comes from the fixed region table or a links.next from the same API
	if err != nil {
		return nil, fmt.Errorf("snyk: GET %s: %w", rawURL, err)
	}
	defer res.Body.Close() //nolint:errcheck

	b, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("snyk: reading response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: res.StatusCode,
			Method:     http.MethodGet,
			URL:        rawURL,
			Detail:     errorDetail(b),
		}
	}
	return b, nil
}

// errorDetail pulls a readable message out of a JSON:API error document,
// falling back to a truncated body.
func errorDetail(b []byte) string {
	var doc struct {
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &doc); err == nil {
		if len(doc.Errors) > 0 {
			if doc.Errors[0].Detail != "" {
				return doc.Errors[0].Detail
			}
			return doc.Errors[0].Title
		}
		if doc.Message != "" {
			return doc.Message
		}
	}
	s := strings.TrimSpace(string(b))
	if len(s) > 512 {
		s = s[:512]
	}
	return s
}
