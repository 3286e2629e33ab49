// Package feed discovers and parses job syndication feeds under a career
// site's origin. Sites on the vendor platform expose RSS at a handful of
// conventional paths; the first one that fetches and parses wins.
package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"avature-harvest/internal/domain"
	"avature-harvest/internal/fetch"
)

// Paths is the probe order. rss variants come before feed variants because
// the platform's own sites serve /rss.
var Paths = []string{"/rss", "/careers/rss", "/jobs/rss", "/feed", "/careers/feed", "/jobs/feed"}

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Items []item `xml:"item"`
}

type item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

type Fetcher struct {
	client *fetch.Client
	log    *zap.Logger
}

func New(client *fetch.Client, log *zap.Logger) *Fetcher {
	return &Fetcher{client: client, log: log}
}

// Jobs probes the conventional feed paths under siteURL's origin and
// returns the raw candidates from the first path that both responds and
// parses. Failed paths are skipped, a site with no working feed yields
// nothing, and neither case is an error; only context cancellation is.
func (f *Fetcher) Jobs(ctx context.Context, siteURL string) ([]domain.JobRecord, error) {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return nil, nil
	}
	origin := u.Scheme + "://" + u.Host

	for _, p := range Paths {
		feedURL := origin + p
		body, err := f.client.Get(ctx, feedURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.log.Debug("feed: path skipped", zap.String("url", feedURL), zap.Error(err))
			continue
		}
		jobs, err := parse(body, feedURL, u.Host, u.Scheme)
		if err != nil {
			f.log.Debug("feed: unparseable", zap.String("url", feedURL), zap.Error(err))
			continue
		}
		f.log.Debug("feed: parsed", zap.String("url", feedURL), zap.Int("items", len(jobs)))
		return jobs, nil
	}
	return nil, nil
}

// parse decodes one RSS document into raw candidate records. An item with
// neither title nor link is dropped; an item whose <link> is empty may
// borrow its guid when the guid is itself a usable absolute or
// protocol-relative URL.
func parse(body []byte, feedURL, site, scheme string) ([]domain.JobRecord, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel

	var doc rss
	if err := dec.Decode(&doc); err != nil {
		return nil, fetch.ParseError(feedURL, err)
	}

	var jobs []domain.JobRecord
	for _, it := range doc.Channel.Items {
		title := strings.TrimSpace(it.Title)
		link := strings.TrimSpace(it.Link)
		guid := strings.TrimSpace(it.GUID)
		if title == "" && link == "" {
			continue
		}
		if link == "" && guid != "" {
			switch {
			case strings.HasPrefix(guid, "http"):
				link = guid
			case strings.HasPrefix(guid, "//"):
				link = scheme + ":" + guid
			}
		}
		if link == "" {
			continue
		}
		if title == "" {
			title = "Untitled"
		}
		jobs = append(jobs, domain.JobRecord{
			Title:          title,
			Description:    strings.TrimSpace(it.Description),
			ApplicationURL: link,
			Metadata: domain.Meta(
				"date_posted", strings.TrimSpace(it.PubDate),
				"job_id", guid,
				"source_feed", feedURL,
			),
			SourceSite: site,
			SourceURL:  feedURL,
		})
	}
	return jobs, nil
}
