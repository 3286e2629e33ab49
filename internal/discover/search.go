package discover

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const searchEndpoint = "https://duckduckgo.com/html/?q="

// SitesFromSearch runs the configured queries against DuckDuckGo's HTML
// endpoint and collects every vendor-platform origin that shows up in the
// results. Queries that fail or return nothing are skipped; search is a
// supplement to the CT logs, not a required source.
func (d *Discoverer) SitesFromSearch(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var origins []string

	for _, q := range d.opts.SearchQueries {
		if ctx.Err() != nil {
			return origins, ctx.Err()
		}
		body, err := d.client.Get(ctx, searchEndpoint+url.QueryEscape(q))
		if err != nil {
			if ctx.Err() != nil {
				return origins, ctx.Err()
			}
			d.log.Debug("discover: search query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			continue
		}

		// DDG HTML results: <a class="result__a" href="...">
		doc.Find("a.result__a").Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || strings.TrimSpace(href) == "" {
				return
			}
			host := strings.ToLower(hostOf(decodeRedirect(href)))
			if host == "" || d.excluded(host) {
				return
			}
			origin := "https://" + host
			if seen[origin] {
				return
			}
			seen[origin] = true
			origins = append(origins, origin)
		})
	}
	d.log.Info("discover: search origins", zap.Int("count", len(origins)))
	return origins, nil
}

// decodeRedirect unwraps DDG's /l/?uddg=<urlencoded> indirection.
func decodeRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if dec, err := url.QueryUnescape(uddg); err == nil && dec != "" {
			return dec
		}
	}
	return href
}
