package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cityride/internal/transit"
)

const userAgent = "cityride/1.0"

// Client talks to the route service over JSON/HTTP:
//
//	GET {base}/routes/search?q=...        -> [Route]
//	GET {base}/journey?from=...&to=...    -> [TripLeg] | null
type Client struct {
	base    *url.URL
	http    *http.Client
	backoff time.Duration
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("route service url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("route service url %q: scheme must be http or https", baseURL)
	}
	return &Client{
		base:    u,
		http:    &http.Client{Timeout: timeout},
		backoff: 200 * time.Millisecond,
	}, nil
}

// Budget is the longest one call can take when every attempt times out and
// every backoff is waited out.
func (c *Client) Budget() time.Duration {
	total := time.Duration(maxAttempts) * c.http.Timeout
	b := c.backoff
	for i := 1; i < maxAttempts; i++ {
		total += b
		b *= 2
	}
	return total
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := *c.base
	u.Path = u.Path + path
	u.RawQuery = params.Encode()
	return u.String()
}

func (c *Client) SearchRoutes(ctx context.Context, query string) ([]transit.Route, error) {
	body, err := c.get(ctx, c.endpoint("/routes/search", url.Values{"q": {query}}))
	if err != nil {
		return nil, fmt.Errorf("search routes %q: %w", query, err)
	}
	var routes []transit.Route
	if err := json.Unmarshal(body, &routes); err != nil {
		return nil, fmt.Errorf("search routes %q: decode: %w", query, err)
	}
	return routes, nil
}

// GetJourney returns an empty slice when the service answers 404 or with
// anything other than a JSON array; both mean that no journey exists.
func (c *Client) GetJourney(ctx context.Context, from, to string) ([]transit.TripLeg, error) {
	body, err := c.get(ctx, c.endpoint("/journey", url.Values{"from": {from}, "to": {to}}))
	if isNotFound(err) {
		return []transit.TripLeg{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get journey %q -> %q: %w", from, to, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return []transit.TripLeg{}, nil
	}
	var legs []transit.TripLeg
	if err := json.Unmarshal(body, &legs); err != nil {
		return nil, fmt.Errorf("get journey %q -> %q: decode: %w", from, to, err)
	}
	return legs, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	resp, err := c.getWithRetry(ctx, target)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

func isNotFound(err error) bool {
	var he *httpStatusError
	return errors.As(err, &he) && he.Code == http.StatusNotFound
}
