package classify

import "strings"

// The vendor's own hosts serve marketing and blog content alongside nothing
// job-related; every tenant runs its careers site on its own subdomain.
const (
	vendorApex = "avature.net"
	vendorWWW  = "www.avature.net"
)

// nonJobPatterns mark blog and vendor-event content that shows up in career
// site feeds. Matched against the URL path and the item title, lowercased.
var nonJobPatterns = []string{
	"/blogs/",
	"/blog/",
	"avatureupfront",
	"hr-trends",
	"test-cookies",
}

func isMarketingHost(host string) bool {
	return host == vendorApex || host == vendorWWW
}

func isTenantHost(host string) bool {
	return strings.HasSuffix(host, "."+vendorApex) && !isMarketingHost(host)
}

// candidate carries the fields the admission rules inspect, pre-lowercased.
type candidate struct {
	url   string
	host  string
	path  string
	title string
}

type admitRule struct {
	name string
	eval func(candidate) verdict
}

// admitRules is the admission decision table, evaluated top to bottom with
// the first firing rule deciding. Host class is discriminated before path
// evidence: the marketing host needs explicit proof of being a job page,
// while a tenant subdomain gets the benefit of the doubt.
var admitRules = []admitRule{
	{"missing application url", func(c candidate) verdict {
		if c.url == "" {
			return no
		}
		return none
	}},
	{"marketing host blog content", func(c candidate) verdict {
		if !isMarketingHost(c.host) {
			return none
		}
		for _, p := range []string{"/blogs/", "/blog/", "avatureupfront", "hr-trends"} {
			if strings.Contains(c.path, p) {
				return no
			}
		}
		return none
	}},
	{"marketing host without job path", func(c candidate) verdict {
		if !isMarketingHost(c.host) {
			return none
		}
		if !strings.Contains(c.path, "/careers/") && !strings.Contains(c.path, "/jobs/") && !strings.Contains(c.path, "searchjobs") {
			return no
		}
		return none
	}},
	{"non-job pattern", func(c candidate) verdict {
		for _, p := range nonJobPatterns {
			if strings.Contains(c.path, p) || strings.Contains(c.title, p) {
				return no
			}
		}
		return none
	}},
	{"tenant subdomain with job path", func(c candidate) verdict {
		if isTenantHost(c.host) && (strings.Contains(c.path, "careers") || strings.Contains(c.path, "jobs")) {
			return yes
		}
		return none
	}},
	{"job path evidence", func(c candidate) verdict {
		if strings.Contains(c.path, "/careers") || strings.Contains(c.path, "/jobs") || strings.Contains(c.path, "searchjobs") {
			return yes
		}
		return none
	}},
}

// IsJobPosting decides whether a candidate record is a genuine job posting
// rather than marketing or blog noise. sourceFeed is part of the contract
// for feed-derived candidates; the current rules decide on URL and title
// alone. Unparseable URLs are rejected.
func IsJobPosting(applicationURL, title, sourceFeed string) bool {
	_ = sourceFeed
	if applicationURL == "" {
		return false
	}
	s, ok := parseShape(applicationURL)
	if !ok {
		return false
	}
	c := candidate{
		url:   applicationURL,
		host:  s.host,
		path:  s.path,
		title: strings.ToLower(title),
	}
	for _, r := range admitRules {
		switch r.eval(c) {
		case yes:
			return true
		case no:
			return false
		}
	}
	return false
}

// AllowExtracted is the looser gate for records built by fetching a page.
// A tenant page already proved it serves a careers site, so generic paths
// pass; only blog URLs and unproven vendor-marketing URLs are turned away.
// The blog check runs against the whole URL so query-string references to
// blog content are caught too.
func AllowExtracted(applicationURL, title string) bool {
	if applicationURL == "" {
		return false
	}
	lower := strings.ToLower(applicationURL)
	if strings.Contains(lower, "/blogs/") || strings.Contains(lower, "/blog/") {
		return false
	}
	if IsJobPosting(applicationURL, title, "") {
		return true
	}
	s, ok := parseShape(applicationURL)
	if !ok {
		return false
	}
	return !isMarketingHost(s.host)
}
