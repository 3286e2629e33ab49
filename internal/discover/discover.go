// Package discover finds tenant career sites on the vendor platform and
// turns them into the links file the pipeline consumes. Certificate
// transparency logs surface every subdomain that ever got a certificate;
// web search fills in sites the logs miss. This stage only produces input
// for the pipeline — it admits nothing itself.
package discover

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"avature-harvest/internal/domain"
	"avature-harvest/internal/feed"
	"avature-harvest/internal/fetch"
)

type Options struct {
	VendorDomain     string
	SkipSubdomains   []string
	SearchQueries    []string
	Validate         bool
	CollectFeedLinks bool
}

type Discoverer struct {
	client *fetch.Client
	feeds  *feed.Fetcher
	log    *zap.Logger
	opts   Options
}

func New(client *fetch.Client, log *zap.Logger, opts Options) *Discoverer {
	return &Discoverer{
		client: client,
		feeds:  feed.New(client, log),
		log:    log,
		opts:   opts,
	}
}

// Run performs the full discovery pass: CT-log and search lookups merged by
// host, infrastructure subdomains dropped, each candidate expanded into its
// likely entry URLs, and (when enabled) liveness-checked. The second return
// value holds extra job links collected from the live sites' feeds.
func (d *Discoverer) Run(ctx context.Context) ([]domain.Site, []string, error) {
	ctDomains, err := d.DomainsFromCT(ctx)
	if err != nil {
		return nil, nil, err
	}
	searchOrigins, err := d.SitesFromSearch(ctx)
	if err != nil {
		return nil, nil, err
	}

	byHost := make(map[string]*domain.Site)
	addHost := func(host, source string) {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" || d.excluded(host) {
			return
		}
		if _, ok := byHost[host]; ok {
			return
		}
		base := "https://" + host
		byHost[host] = &domain.Site{
			Host:       host,
			CareerURLs: []string{base, base + "/careers", base + "/jobs"},
			Source:     source,
		}
	}
	for _, h := range ctDomains {
		addHost(h, "crtsh")
	}
	for _, o := range searchOrigins {
		addHost(hostOf(o), "duckduckgo")
	}

	hosts := make([]string, 0, len(byHost))
	for h := range byHost {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	d.log.Info("discover: candidate sites",
		zap.Int("hosts", len(hosts)),
		zap.Int("ct_domains", len(ctDomains)),
		zap.Int("search_origins", len(searchOrigins)))

	if d.opts.Validate {
		if err := d.validate(ctx, hosts, byHost); err != nil {
			return nil, nil, err
		}
	} else {
		for _, h := range hosts {
			byHost[h].Live = true
		}
	}

	sites := make([]domain.Site, 0, len(hosts))
	for _, h := range hosts {
		sites = append(sites, *byHost[h])
	}

	var feedLinks []string
	if d.opts.CollectFeedLinks {
		feedLinks, err = d.collectFeedLinks(ctx, sites)
		if err != nil {
			return sites, feedLinks, err
		}
	}
	return sites, feedLinks, nil
}

// validate keeps only the entry URLs that answer with a success status. A
// site whose every URL fails stays in the result marked not live, so the
// caller can still report it.
func (d *Discoverer) validate(ctx context.Context, hosts []string, byHost map[string]*domain.Site) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, h := range hosts {
		site := byHost[h]
		g.Go(func() error {
			var live []string
			for _, u := range site.CareerURLs {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if _, err := d.client.Get(gctx, u); err != nil {
					d.log.Debug("discover: dead url", zap.String("url", u), zap.Error(err))
					continue
				}
				live = append(live, u)
			}
			site.CareerURLs = live
			site.Live = len(live) > 0
			return nil
		})
	}
	return g.Wait()
}

// collectFeedLinks pulls each live site's feed and keeps item links that
// stay on the vendor platform, widening the pipeline's input beyond the
// entry pages.
func (d *Discoverer) collectFeedLinks(ctx context.Context, sites []domain.Site) ([]string, error) {
	seen := make(map[string]bool)
	var links []string
	for _, s := range sites {
		if !s.Live {
			continue
		}
		jobs, err := d.feeds.Jobs(ctx, "https://"+s.Host)
		if err != nil {
			return links, err
		}
		for _, j := range jobs {
			u := j.ApplicationURL
			if u == "" || seen[u] {
				continue
			}
			if !strings.Contains(strings.ToLower(u), d.opts.VendorDomain) {
				continue
			}
			seen[u] = true
			links = append(links, u)
		}
	}
	return links, nil
}

// excluded drops hosts the pipeline can never harvest: the vendor's own
// marketing and docs hosts, anything off the vendor domain, and the
// infrastructure subdomains certificates get issued for.
func (d *Discoverer) excluded(host string) bool {
	v := d.opts.VendorDomain
	if host == v || host == "www."+v || host == "kb."+v {
		return true
	}
	if !strings.HasSuffix(host, "."+v) {
		return true
	}
	for _, s := range d.opts.SkipSubdomains {
		if s != "" && strings.Contains(host, s) {
			return true
		}
	}
	return false
}

// Links flattens the live sites' entry URLs in host order.
func Links(sites []domain.Site) []string {
	var out []string
	for _, s := range sites {
		if !s.Live {
			continue
		}
		out = append(out, s.CareerURLs...)
	}
	return out
}

// WriteLinks writes one URL per line through a temp file, replacing any
// previous list in one rename.
func WriteLinks(path string, links []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	for _, u := range links {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
