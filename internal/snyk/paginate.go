package snyk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// page is the envelope shared by every Snyk REST listing.
type page struct {
	Data  []json.RawMessage `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

// paginate follows links.next from startURL until a page has none and
// returns every data item in page order. Only the first request carries
// query; the next reference already encodes the cursor. Any failed page
// aborts the whole listing.
func (c *Client) paginate(ctx context.Context, startURL string, query url.Values) ([]json.RawMessage, error) {
	var all []json.RawMessage
	next := startURL
	params := query

	for next != "" {
		b, err := c.get(ctx, next, params)
		if err != nil {
			return nil, err
		}

		var p page
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, fmt.Errorf("snyk: decode page %s: %w", next, err)
		}
		all = append(all, p.Data...)

		next = c.resolveNext(p.Links.Next)
		params = nil
	}
	return all, nil
}

// resolveNext turns a links.next value into an absolute URL. Absolute URLs are
// used verbatim, "/rest/..." paths are joined to the API root, and bare
// fragments are joined with a separating slash.
func (c *Client) resolveNext(next string) string {
	switch {
	case next == "":
		return ""
	case strings.HasPrefix(next, "http"):
		return next
	case strings.HasPrefix(next, "/"):
		return c.baseURL + next
	default:
		return c.baseURL + "/" + strings.TrimLeft(next, "/")
	}
}

// listAll paginates and decodes every item into T. Items that do not decode
// are logged and left out; the raw items are returned in full for callers
// that dump them.
func listAll[T any](ctx context.Context, c *Client, startURL string, query url.Values) ([]T, []json.RawMessage, error) {
	raw, err := c.paginate(ctx, startURL, query)
	if err != nil {
		return nil, nil, err
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			slog.Warn("Skipping malformed listing item", "url", startURL, "index", i, "error", err)
			continue
		}
		out = append(out, item)
	}
	return out, raw, nil
}
