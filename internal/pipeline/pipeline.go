// Package pipeline sequences a harvest run: partition the input URLs by
// role, pull syndication feeds from career hubs, extract job pages and
// listings, enrich feed stubs by fetching their detail pages, optionally
// probe the vendor search API, and hand back the deduplicated corpus.
//
// Sites are independent, so every stage fans out with a bounded errgroup;
// the corpus is the single synchronization point. Any per-URL failure
// degrades to "this URL contributed nothing" — only context cancellation
// stops a run.
package pipeline

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"avature-harvest/internal/avature"
	"avature-harvest/internal/classify"
	"avature-harvest/internal/corpus"
	"avature-harvest/internal/domain"
	"avature-harvest/internal/extract"
	"avature-harvest/internal/feed"
	"avature-harvest/internal/fetch"
)

// ErrNoLinks means the input files produced not a single usable URL. The
// caller reports it and exits without writing output.
var ErrNoLinks = errors.New("no input links")

type Options struct {
	FetchFeeds     bool
	FetchPages     bool
	ProbeSearchAPI bool

	// MaxPages bounds the direct page-candidate fetches and, separately, the
	// enrichment fetches. MaxPerListing bounds fan-out from one listing page.
	MaxPages      int
	MaxPerListing int
	Parallelism   int

	MinDescriptionChars int
	MaxDescriptionChars int
}

// Summary counts what one run did, for the end-of-run log line.
type Summary struct {
	Links            int
	Hubs             int
	PageCandidates   int
	ListingsExpanded int
	FeedJobs         int
	PageJobs         int
	APIJobs          int
	Enriched         int
	Merged           int
	Rejected         int
	FetchFailures    int
	EmptyPages       int
}

type Pipeline struct {
	opts   Options
	client *fetch.Client
	feeds  *feed.Fetcher
	pages  *extract.Extractor
	prober *avature.Prober
	log    *zap.Logger

	mu  sync.Mutex
	sum Summary
}

func New(client *fetch.Client, log *zap.Logger, opts Options) *Pipeline {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 500
	}
	if opts.MaxPerListing <= 0 {
		opts.MaxPerListing = 100
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	return &Pipeline{
		opts:   opts,
		client: client,
		feeds:  feed.New(client, log),
		pages: extract.New(client, log, extract.Config{
			MinDescriptionChars: opts.MinDescriptionChars,
			MaxDescriptionChars: opts.MaxDescriptionChars,
		}),
		prober: avature.New(client, log),
		log:    log,
	}
}

func (p *Pipeline) count(f func(*Summary)) {
	p.mu.Lock()
	f(&p.sum)
	p.mu.Unlock()
}

// Run executes the staged harvest over links and returns the corpus along
// with the run counters. The corpus is rebuilt from scratch; nothing
// persists between runs.
func (p *Pipeline) Run(ctx context.Context, links []string) (*corpus.Corpus, Summary, error) {
	p.mu.Lock()
	p.sum = Summary{Links: len(links)}
	p.mu.Unlock()

	if len(links) == 0 {
		return nil, p.summary(), ErrNoLinks
	}

	crps := corpus.New()

	// The two classifiers are not mutually exclusive: a hub URL is probed
	// for feeds and can separately qualify as a page candidate.
	var hubs, candidates []string
	for _, u := range links {
		if classify.IsHub(u) {
			hubs = append(hubs, u)
		}
		if classify.IsJobPage(u) {
			candidates = append(candidates, u)
		}
	}
	p.count(func(s *Summary) {
		s.Hubs = len(hubs)
		s.PageCandidates = len(candidates)
	})
	p.log.Info("pipeline: links partitioned",
		zap.Int("links", len(links)),
		zap.Int("hubs", len(hubs)),
		zap.Int("page_candidates", len(candidates)))

	if p.opts.FetchFeeds && len(hubs) > 0 {
		if err := p.runFeeds(ctx, hubs, crps); err != nil {
			return crps, p.summary(), err
		}
	}

	if p.opts.FetchPages && len(candidates) > 0 {
		todo := candidates
		if len(todo) > p.opts.MaxPages {
			todo = todo[:p.opts.MaxPages]
		}
		if err := p.runPages(ctx, todo, crps); err != nil {
			return crps, p.summary(), err
		}
	}

	if p.opts.FetchFeeds && p.opts.FetchPages {
		if err := p.runEnrichment(ctx, candidates, crps); err != nil {
			return crps, p.summary(), err
		}
	}

	if p.opts.ProbeSearchAPI && len(hubs) > 0 {
		if err := p.runProbe(ctx, hubs, crps); err != nil {
			return crps, p.summary(), err
		}
	}

	sum := p.summary()
	p.log.Info("pipeline: run complete",
		zap.Int("records", crps.Len()),
		zap.Int("feed_jobs", sum.FeedJobs),
		zap.Int("page_jobs", sum.PageJobs),
		zap.Int("api_jobs", sum.APIJobs),
		zap.Int("enriched", sum.Enriched),
		zap.Int("merged", sum.Merged),
		zap.Int("rejected", sum.Rejected),
		zap.Int("fetch_failures", sum.FetchFailures),
		zap.Int("empty_pages", sum.EmptyPages))
	return crps, sum, nil
}

func (p *Pipeline) summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sum
}

// runFeeds probes every hub for a feed and admits items that pass the strict
// posting filter. Feed-derived records are stubs; the enrichment stage
// upgrades them later.
func (p *Pipeline) runFeeds(ctx context.Context, hubs []string, crps *corpus.Corpus) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Parallelism)

	for _, hub := range hubs {
		hub := hub
		g.Go(func() error {
			jobs, err := p.feeds.Jobs(gctx, hub)
			if err != nil {
				return err
			}
			admitted := 0
			for _, j := range jobs {
				if !classify.IsJobPosting(j.ApplicationURL, j.Title, j.SourceURL) {
					p.count(func(s *Summary) { s.Rejected++ })
					continue
				}
				if crps.Admit(j) {
					p.count(func(s *Summary) { s.FeedJobs++ })
				} else {
					p.count(func(s *Summary) { s.Merged++ })
				}
				admitted++
			}
			if admitted > 0 {
				p.log.Info("feed: jobs admitted", zap.String("hub", hub), zap.Int("jobs", admitted))
			}
			return nil
		})
	}
	return g.Wait()
}

// runPages fetches each page candidate, expanding listings into their detail
// pages first.
func (p *Pipeline) runPages(ctx context.Context, todo []string, crps *corpus.Corpus) error {
	p.log.Info("pages: fetching candidates", zap.Int("urls", len(todo)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Parallelism)

	for _, u := range todo {
		u := u
		g.Go(func() error {
			if classify.IsListing(u) {
				return p.processListing(gctx, u, crps)
			}
			return p.processPage(gctx, u, "", crps)
		})
	}
	return g.Wait()
}

// processListing expands one listing page and extracts every discovered
// detail page in turn. A listing with no discoverable links (script-rendered
// markup, usually) is extracted as a single page instead of being dropped.
func (p *Pipeline) processListing(ctx context.Context, listURL string, crps *corpus.Corpus) error {
	body, err := p.client.Get(ctx, listURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.count(func(s *Summary) { s.FetchFailures++ })
		p.log.Debug("listing: fetch failed", zap.String("url", listURL), zap.Error(err))
		return nil
	}

	links, err := extract.ExpandListing(body, listURL, p.opts.MaxPerListing)
	if err != nil {
		p.count(func(s *Summary) { s.FetchFailures++ })
		p.log.Debug("listing: unparseable", zap.String("url", listURL), zap.Error(err))
		return nil
	}

	if len(links) == 0 {
		rec, err := p.pages.FromHTML(body, listURL)
		if err != nil {
			if errors.Is(err, extract.ErrNoContent) {
				p.count(func(s *Summary) { s.EmptyPages++ })
			} else {
				p.count(func(s *Summary) { s.FetchFailures++ })
			}
			return nil
		}
		p.admitExtracted(rec, crps)
		return nil
	}

	p.count(func(s *Summary) { s.ListingsExpanded++ })
	p.log.Info("listing: expanding", zap.String("url", listURL), zap.Int("links", len(links)))
	for _, l := range links {
		if err := p.processPage(ctx, l.URL, l.Title, crps); err != nil {
			return err
		}
	}
	return nil
}

// processPage extracts one page and admits the result. cardTitle, when
// present, stands in for a missing or placeholder title on the detail page.
func (p *Pipeline) processPage(ctx context.Context, pageURL, cardTitle string, crps *corpus.Corpus) error {
	rec, err := p.pages.Job(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, extract.ErrNoContent) {
			p.count(func(s *Summary) { s.EmptyPages++ })
		} else {
			p.count(func(s *Summary) { s.FetchFailures++ })
		}
		p.log.Debug("extract: page skipped", zap.String("url", pageURL), zap.Error(err))
		return nil
	}
	if cardTitle != "" && (rec.Title == "" || rec.Title == "Untitled") {
		rec.Title = cardTitle
	}
	p.admitExtracted(rec, crps)
	return nil
}

func (p *Pipeline) admitExtracted(rec domain.JobRecord, crps *corpus.Corpus) {
	if !classify.AllowExtracted(rec.ApplicationURL, rec.Title) {
		p.count(func(s *Summary) { s.Rejected++ })
		return
	}
	if crps.Admit(rec) {
		p.count(func(s *Summary) { s.PageJobs++ })
	} else {
		p.count(func(s *Summary) { s.Merged++ })
	}
}

// runEnrichment fetches the detail page behind every admitted application
// URL that was not already a page candidate, so feed stubs pick up full
// descriptions and metadata through the merge.
func (p *Pipeline) runEnrichment(ctx context.Context, candidates []string, crps *corpus.Corpus) error {
	already := make(map[string]bool, len(candidates))
	for _, u := range candidates {
		already[u] = true
	}

	var todo []string
	for _, rec := range crps.Snapshot() {
		u := rec.ApplicationURL
		if u == "" || already[u] {
			continue
		}
		already[u] = true
		todo = append(todo, u)
		if len(todo) >= p.opts.MaxPages {
			break
		}
	}
	if len(todo) == 0 {
		return nil
	}
	p.log.Info("enrich: fetching job pages", zap.Int("urls", len(todo)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Parallelism)

	for _, u := range todo {
		u := u
		g.Go(func() error {
			rec, err := p.pages.Job(gctx, u)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if errors.Is(err, extract.ErrNoContent) {
					p.count(func(s *Summary) { s.EmptyPages++ })
				} else {
					p.count(func(s *Summary) { s.FetchFailures++ })
				}
				return nil
			}
			// The common case: extraction kept the stub's application URL,
			// so this is a pure merge. A page pointing at a different apply
			// URL is a fresh candidate and passes through the usual gate.
			if crps.Has(rec.Identity()) {
				crps.Admit(rec)
				p.count(func(s *Summary) { s.Enriched++ })
				return nil
			}
			p.admitExtracted(rec, crps)
			return nil
		})
	}
	return g.Wait()
}

// runProbe walks the vendor search API under each hub origin. Responses are
// best-effort candidates and pass the lenient gate, because the API link
// fields are as unreliable as the rest of its schema.
func (p *Pipeline) runProbe(ctx context.Context, hubs []string, crps *corpus.Corpus) error {
	seen := make(map[string]bool, len(hubs))
	var origins []string
	for _, hub := range hubs {
		o := originOf(hub)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		return nil
	}
	p.log.Info("api: probing search endpoints", zap.Int("origins", len(origins)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Parallelism)

	for _, o := range origins {
		o := o
		g.Go(func() error {
			jobs, err := p.prober.Jobs(gctx, o)
			if err != nil {
				return err
			}
			for _, j := range jobs {
				if !classify.AllowExtracted(j.ApplicationURL, j.Title) {
					p.count(func(s *Summary) { s.Rejected++ })
					continue
				}
				if crps.Admit(j) {
					p.count(func(s *Summary) { s.APIJobs++ })
				} else {
					p.count(func(s *Summary) { s.Merged++ })
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
