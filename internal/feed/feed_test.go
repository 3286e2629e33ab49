package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"go.uber.org/zap"

	"avature-harvest/internal/fetch"
)

func testClient() *fetch.Client {
	return fetch.New(fetch.Config{RequestsPerSecond: 1000, Burst: 10})
}

const twoItemFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Careers</title>
<item>
  <title>Platform Engineer</title>
  <link>https://acme.avature.net/careers/JobDetail/123</link>
  <description>Build the platform.</description>
  <pubDate>Mon, 04 Aug 2026 09:00:00 GMT</pubDate>
  <guid>job-123</guid>
</item>
<item>
  <title>Data Analyst</title>
  <link>https://acme.avature.net/careers/JobDetail/124</link>
</item>
</channel>
</rss>`

func TestJobsFirstPathWins(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/rss" {
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = w.Write([]byte(twoItemFeed))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(testClient(), zap.NewNop())
	jobs, err := f.Jobs(context.Background(), srv.URL+"/careers")
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	if len(paths) != 1 || paths[0] != "/rss" {
		t.Fatalf("probed %v, want just /rss", paths)
	}

	j := jobs[0]
	if j.Title != "Platform Engineer" {
		t.Errorf("title = %q", j.Title)
	}
	if j.ApplicationURL != "https://acme.avature.net/careers/JobDetail/123" {
		t.Errorf("application url = %q", j.ApplicationURL)
	}
	if j.Description != "Build the platform." {
		t.Errorf("description = %q", j.Description)
	}
	u, _ := url.Parse(srv.URL)
	if j.SourceSite != u.Host {
		t.Errorf("source site = %q, want %q", j.SourceSite, u.Host)
	}
	if j.SourceURL != srv.URL+"/rss" {
		t.Errorf("source url = %q", j.SourceURL)
	}
	if j.Metadata["source_feed"] != srv.URL+"/rss" {
		t.Errorf("source_feed = %q", j.Metadata["source_feed"])
	}
	if j.Metadata["job_id"] != "job-123" {
		t.Errorf("job_id = %q", j.Metadata["job_id"])
	}
	if j.Metadata["date_posted"] == "" {
		t.Error("date_posted missing")
	}
}

func TestJobsProbeOrderFallsThrough(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/careers/rss":
			_, _ = w.Write([]byte("<html>definitely not rss")) // 200 but unparseable
		case "/jobs/rss":
			_, _ = w.Write([]byte(`<?xml version="1.0"?><rss><channel><item><title>QA Lead</title><link>https://acme.avature.net/careers/JobDetail/7</link></item></channel></rss>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(testClient(), zap.NewNop())
	jobs, err := f.Jobs(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Title != "QA Lead" {
		t.Fatalf("jobs = %+v, want the /jobs/rss item", jobs)
	}
	want := []string{"/rss", "/careers/rss", "/jobs/rss"}
	if len(paths) != len(want) {
		t.Fatalf("probed %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("probed %v, want %v", paths, want)
		}
	}
}

func TestParseLinkAndTitleFallbacks(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<rss><channel>
<item><title>Absolute GUID</title><guid>https://acme.avature.net/careers/JobDetail/1</guid></item>
<item><title>Protocol Relative GUID</title><guid>//acme.avature.net/careers/JobDetail/2</guid></item>
<item><title>Opaque GUID</title><guid>abc-123</guid></item>
<item><link>https://acme.avature.net/careers/JobDetail/3</link></item>
<item><description>neither title nor link</description></item>
</channel></rss>`)

	jobs, err := parse(body, "https://acme.avature.net/rss", "acme.avature.net", "https")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}
	if jobs[0].ApplicationURL != "https://acme.avature.net/careers/JobDetail/1" {
		t.Errorf("absolute guid: %q", jobs[0].ApplicationURL)
	}
	if jobs[1].ApplicationURL != "https://acme.avature.net/careers/JobDetail/2" {
		t.Errorf("protocol-relative guid: %q", jobs[1].ApplicationURL)
	}
	if jobs[2].Title != "Untitled" {
		t.Errorf("missing title = %q, want Untitled", jobs[2].Title)
	}
}

// A well-formed feed with zero items still ends the probe: the site answered
// the question, there is just nothing posted.
func TestJobsEmptyFeedStopsProbing(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/rss" {
			_, _ = w.Write([]byte(`<?xml version="1.0"?><rss><channel></channel></rss>`))
			return
		}
		_, _ = w.Write([]byte(twoItemFeed))
	}))
	defer srv.Close()

	f := New(testClient(), zap.NewNop())
	jobs, err := f.Jobs(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("got %d jobs from an empty feed", len(jobs))
	}
	if len(paths) != 1 || paths[0] != "/rss" {
		t.Fatalf("probed %v, want just /rss", paths)
	}
}

func TestJobsBadSiteURL(t *testing.T) {
	f := New(testClient(), zap.NewNop())
	for _, u := range []string{"::bad", "", "/relative/only"} {
		jobs, err := f.Jobs(context.Background(), u)
		if err != nil || jobs != nil {
			t.Errorf("Jobs(%q) = %v, %v; want nil, nil", u, jobs, err)
		}
	}
}
