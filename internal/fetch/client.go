// Package fetch is the single door to the network: one shared client that
// applies per-host politeness, browser-shaped headers, a response size cap
// and the failure taxonomy the rest of the pipeline counts on.
package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Config struct {
	Timeout           time.Duration
	UserAgent         string
	MaxBodyBytes      int64
	RequestsPerSecond float64
	Burst             int
}

type Client struct {
	httpc   *http.Client
	limiter *HostLimiter
	ua      string
	maxBody int64
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10 << 20
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Client{
		httpc:   &http.Client{Timeout: cfg.Timeout},
		limiter: NewHostLimiter(cfg.RequestsPerSecond, cfg.Burst),
		ua:      cfg.UserAgent,
		maxBody: cfg.MaxBodyBytes,
	}
}

// Get fetches one URL. Non-2xx responses come back as a StatusError; bodies
// larger than the cap are truncated rather than failed, because a cut-off
// page still extracts better than no page.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, rawURL, nil, nil)
}

// Do issues one rate-limited request. Header entries in hdr override the
// client defaults; body may be nil.
func (c *Client) Do(ctx context.Context, method, rawURL string, body []byte, hdr http.Header) ([]byte, error) {
	if err := c.limiter.WaitURL(ctx, rawURL); err != nil {
		return nil, NetworkError(rawURL, err)
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rdr)
	if err != nil {
		return nil, NetworkError(rawURL, err)
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, vs := range hdr {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, NetworkError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, StatusError(rawURL, resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, NetworkError(rawURL, err)
	}
	return b, nil
}
