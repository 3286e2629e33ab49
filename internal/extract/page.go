// Package extract turns career-site HTML into job records. Sites on the
// same vendor platform still differ wildly in markup, so every field is
// pulled through an ordered fallback chain that starts with the platform's
// usual selectors and degrades toward generic containers.
package extract

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"avature-harvest/internal/domain"
	"avature-harvest/internal/fetch"
)

// ErrNoContent marks a page that fetched fine but yielded neither a title
// nor a description. An empty shell cannot become a record.
var ErrNoContent = errors.New("no usable title or description")

// textStrategy is one step of a fallback chain: a selector and the
// acceptance test its extracted text must pass. A step whose element exists
// but fails acceptance leaves its text as the running candidate and lets
// the chain continue.
type textStrategy struct {
	selector string
	accept   func(text string) bool
}

// applySelectors locate an explicit apply link; the first one carrying an
// href wins. When none match, the page's own URL is the application URL.
var applySelectors = []string{
	`a[href*="apply"]`,
	`a[href*="Apply"]`,
	`button a[href^="http"]`,
	`.apply-button a`,
	`.apply-btn a`,
	`a.btn-apply[href]`,
	`[data-apply-url]`,
}

type Config struct {
	MinDescriptionChars int
	MaxDescriptionChars int
}

type Extractor struct {
	client     *fetch.Client
	log        *zap.Logger
	titleChain []textStrategy
	descChain  []textStrategy
	maxDesc    int
}

func New(client *fetch.Client, log *zap.Logger, cfg Config) *Extractor {
	minDesc := cfg.MinDescriptionChars
	if minDesc <= 0 {
		minDesc = 100
	}
	maxDesc := cfg.MaxDescriptionChars
	if maxDesc <= 0 {
		maxDesc = 15000
	}

	anyText := func(string) bool { return true }
	longEnough := func(s string) bool { return utf8.RuneCountInString(s) > minDesc }

	titleChain := make([]textStrategy, 0, 6)
	for _, sel := range []string{
		"h1", ".job-title", ".position-title", "[data-job-title]", ".job-header h1", ".page-title",
	} {
		titleChain = append(titleChain, textStrategy{sel, anyText})
	}

	descChain := make([]textStrategy, 0, 11)
	for _, sel := range []string{
		".job-description",
		".job-description .content",
		".description",
		".job-details",
		"article",
		".job-content",
		".position-description",
		"[data-job-description]",
		"main .content",
		"main",
		".content",
	} {
		descChain = append(descChain, textStrategy{sel, longEnough})
	}

	return &Extractor{
		client:     client,
		log:        log,
		titleChain: titleChain,
		descChain:  descChain,
		maxDesc:    maxDesc,
	}
}

// Job fetches one page and extracts a single job record from it. A non-2xx
// response or transport failure returns the fetch error as-is; a page with
// nothing usable returns ErrNoContent.
func (e *Extractor) Job(ctx context.Context, pageURL string) (domain.JobRecord, error) {
	body, err := e.client.Get(ctx, pageURL)
	if err != nil {
		return domain.JobRecord{}, err
	}
	return e.FromHTML(body, pageURL)
}

// FromHTML runs the extraction chains against already-fetched HTML.
func (e *Extractor) FromHTML(body []byte, pageURL string) (domain.JobRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.JobRecord{}, fetch.ParseError(pageURL, err)
	}

	title := runChain(doc, e.titleChain, flattenText)
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	desc := runChain(doc, e.descChain, blockText)
	if desc == "" {
		if b := doc.Find("body").First(); b.Length() > 0 {
			desc = truncateRunes(blockText(b), e.maxDesc)
		}
	}

	if title == "" && desc == "" {
		return domain.JobRecord{}, ErrNoContent
	}

	applicationURL := pageURL
	if href := firstApplyHref(doc); href != "" {
		if abs := resolveRef(pageURL, href); abs != "" {
			applicationURL = abs
		}
	}

	meta := map[string]string{"source_page": pageURL}
	collectMetadata(doc, meta)

	if title == "" {
		title = "Untitled"
	}
	return domain.JobRecord{
		Title:          title,
		Description:    desc,
		ApplicationURL: applicationURL,
		Metadata:       meta,
		SourceSite:     hostOf(pageURL),
		SourceURL:      pageURL,
	}, nil
}

// runChain walks a fallback chain and returns the first accepted text. The
// most recent candidate that existed but failed acceptance is returned when
// the chain runs out, so a short description still beats nothing.
func runChain(doc *goquery.Document, chain []textStrategy, text func(*goquery.Selection) string) string {
	last := ""
	for _, st := range chain {
		sel := doc.Find(st.selector).First()
		if sel.Length() == 0 {
			continue
		}
		t := text(sel)
		if st.accept(t) {
			return t
		}
		last = t
	}
	return last
}

func flattenText(sel *goquery.Selection) string { return flatten(sel.Text()) }

func blockText(sel *goquery.Selection) string { return CleanText(sel.Text()) }

func firstApplyHref(doc *goquery.Document) string {
	for _, sel := range applySelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if href, ok := el.Attr("href"); ok && strings.TrimSpace(href) != "" {
			return strings.TrimSpace(href)
		}
	}
	return ""
}

// collectMetadata sweeps the location and posted-date selectors. Every
// matching selector assigns, so a more specific later selector overrides a
// generic earlier one.
func collectMetadata(doc *goquery.Document, meta map[string]string) {
	for _, sel := range []string{".location", ".job-location", "[data-location]", ".location-value"} {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			if t := flatten(el.Text()); t != "" {
				meta["location"] = t
			}
		}
	}
	for _, sel := range []string{".posted-date", ".date-posted"} {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			if t := flatten(el.Text()); t != "" {
				meta["date_posted"] = t
			}
		}
	}
}

func resolveRef(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
