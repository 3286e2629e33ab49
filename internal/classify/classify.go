// Package classify decides what kind of page a URL points at and whether a
// candidate record is a real job posting. Every predicate is a pure function
// of the URL string, implemented as an ordered rule table so individual
// rules stay testable. Malformed URLs match nothing.
package classify

import (
	"net/url"
	"strings"
)

// shape is the pre-parsed view of a URL that rules inspect. path is
// lowercased with the trailing slash trimmed, matching how career sites
// interchangeably serve /careers and /careers/.
type shape struct {
	host     string
	path     string
	query    string
	segments []string
}

func parseShape(raw string) (shape, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return shape{}, false
	}
	path := strings.ToLower(strings.TrimRight(u.Path, "/"))
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return shape{
		host:     strings.ToLower(u.Hostname()),
		path:     path,
		query:    strings.ToLower(u.RawQuery),
		segments: segs,
	}, true
}

// verdict is a fired rule's outcome. Rules that do not apply return none and
// evaluation falls through to the next row.
type verdict int

const (
	none verdict = iota
	yes
	no
)

type rule struct {
	name string
	eval func(shape) verdict
}

func evalRules(rules []rule, s shape) bool {
	for _, r := range rules {
		switch r.eval(s) {
		case yes:
			return true
		case no:
			return false
		}
	}
	return false
}

var hubRules = []rule{
	{"root or top-level career path", func(s shape) verdict {
		if s.path == "" || s.path == "/careers" || s.path == "/jobs" {
			return yes
		}
		return none
	}},
	{"shallow careers or jobs subtree", func(s shape) verdict {
		if strings.Contains(s.path, "/careers/") || strings.Contains(s.path, "/jobs/") {
			if len(s.segments) <= 2 {
				return yes
			}
			return no
		}
		return none
	}},
}

var jobPageRules = []rule{
	{"root path", func(s shape) verdict {
		if s.path == "" {
			return no
		}
		return none
	}},
	{"blog-like path", func(s shape) verdict {
		if strings.Contains(s.path, "/blogs/") || strings.Contains(s.path, "/blog/") {
			return yes
		}
		return none
	}},
	{"deep path", func(s shape) verdict {
		if len(s.segments) >= 2 {
			return yes
		}
		return none
	}},
}

var listingRules = []rule{
	{"root path", func(s shape) verdict {
		if s.path == "" {
			return no
		}
		return none
	}},
	{"job-detail marker", func(s shape) verdict {
		if hasDetailMarker(s) {
			return no
		}
		return none
	}},
	{"search-jobs marker", func(s shape) verdict {
		if strings.Contains(s.path, "searchjobs") {
			return yes
		}
		return none
	}},
	{"shallow career path", func(s shape) verdict {
		if len(s.segments) <= 2 && (strings.Contains(s.path, "careers") || strings.Contains(s.path, "jobs")) {
			return yes
		}
		return none
	}},
	{"career path suffix", func(s shape) verdict {
		if strings.HasSuffix(s.path, "/careers") || strings.HasSuffix(s.path, "/jobs") {
			return yes
		}
		return none
	}},
}

// hasDetailMarker reports whether the URL names one specific job, either by
// a JobDetail path segment or an explicit job-id query parameter. A detail
// marker always overrides listing classification.
func hasDetailMarker(s shape) bool {
	return strings.Contains(s.path, "jobdetail") || strings.Contains(s.query, "jobid")
}

// IsHub reports whether the URL looks like a career hub worth probing for
// feeds: the site root, /careers, /jobs, or a shallow path under them.
func IsHub(raw string) bool {
	s, ok := parseShape(raw)
	return ok && evalRules(hubRules, s)
}

// IsJobPage reports whether the URL is worth fetching as a single job or
// content page. Two path segments of any kind qualify; the admission filter
// is the quality gate, not this classifier.
func IsJobPage(raw string) bool {
	s, ok := parseShape(raw)
	return ok && evalRules(jobPageRules, s)
}

// IsListing reports whether the URL enumerates many jobs on one page, as
// opposed to describing a single posting.
func IsListing(raw string) bool {
	s, ok := parseShape(raw)
	return ok && evalRules(listingRules, s)
}
