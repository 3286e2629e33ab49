package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"avature-harvest/internal/fetch"
)

// Link is one job-detail link discovered on a listing page. Title carries
// the card's anchor text as a fallback for detail pages that yield none.
type Link struct {
	URL   string
	Title string
}

// ExpandListing scans a listing page for same-host links that look like
// individual job postings: a JobDetail segment, a job-id parameter, a
// SearchJobs result path, or a numeric suffix one level under the listing's
// own path. Links back to the page itself and bare search forms are
// excluded. When the scan finds nothing, a second pass walks card-like
// containers instead. At most limit links are returned; limit <= 0 means
// unbounded.
func ExpandListing(body []byte, pageURL string, limit int) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fetch.ParseError(pageURL, err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fetch.ParseError(pageURL, err)
	}

	basePath := strings.TrimRight(strings.ToLower(base.Path), "/")
	// For SearchJobs listings the listing's own path would never prefix its
	// detail links, so the prefix check uses everything before the marker.
	prefix := basePath
	if i := strings.Index(basePath, "searchjobs"); i > 0 {
		prefix = basePath[:i]
	}

	seen := map[string]bool{}
	var links []Link

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if limit > 0 && len(links) >= limit {
			return false
		}
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		u := base.ResolveReference(ref)
		if !strings.EqualFold(u.Host, base.Host) {
			return true
		}
		full := u.String()
		if full == pageURL || strings.TrimRight(full, "/") == strings.TrimRight(pageURL, "/") {
			return true
		}
		path := strings.ToLower(u.Path)
		query := strings.ToLower(u.RawQuery)

		// A link to the search form itself enumerates nothing.
		if strings.Contains(path, "searchjobs") && !strings.Contains(path, "/jobdetail") &&
			!strings.Contains(query, "jobid") && strings.HasSuffix(strings.TrimRight(path, "/"), "searchjobs") {
			return true
		}

		isJobLink := strings.Contains(path, "jobdetail") ||
			strings.Contains(query, "jobid") ||
			(strings.Contains(path, "searchjobs") && strings.Count(path, "/") >= 3) ||
			(strings.Contains(path, "careers") && hasNumericSegment(path) && len(strings.Split(path, "/")) >= 4)

		if !isJobLink && path != basePath && strings.HasPrefix(path, prefix) {
			// Same-host link extending the listing's path by a numeric or
			// multi-segment suffix is close enough to a detail page.
			extra := ""
			if len(path) > len(basePath) {
				extra = strings.Trim(path[len(basePath):], "/")
			}
			if extra != "" && (isDigits(extra) || strings.Contains(extra, "/")) {
				isJobLink = true
			}
		}
		if !isJobLink || seen[full] {
			return true
		}
		seen[full] = true

		title := flatten(a.Text())
		if title == "" {
			title = "Job"
		}
		links = append(links, Link{URL: full, Title: truncate(title, 300)})
		return true
	})

	if len(links) > 0 {
		return links, nil
	}

	// Fallback for markup without qualifying anchors: look for job-card
	// containers by class shape and take their inner link.
	doc.Find("[class*='job'], [class*='result'], [class*='position'], [data-job-id]").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		if limit > 0 && len(links) >= limit {
			return false
		}
		a := block.Find("a[href*='JobDetail'], a[href*='SearchJobs']").First()
		if a.Length() == 0 {
			a = block.Find("a[href]").First()
		}
		if a.Length() == 0 {
			return true
		}
		href, _ := a.Attr("href")
		if strings.TrimSpace(href) == "" {
			return true
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		u := base.ResolveReference(ref)
		if !strings.EqualFold(u.Host, base.Host) {
			return true
		}
		full := u.String()
		if seen[full] {
			return true
		}
		path := strings.ToLower(u.Path)
		if strings.Contains(path, "jobdetail") || (strings.Contains(path, "searchjobs") && len(strings.Split(path, "/")) >= 4) {
			seen[full] = true
			title := flatten(block.Text())
			if title == "" {
				title = flatten(a.Text())
			}
			if title == "" {
				title = "Job"
			}
			links = append(links, Link{URL: full, Title: truncate(title, 400)})
		}
		return true
	})

	return links, nil
}

func hasNumericSegment(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if isDigits(seg) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
