package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"avature-harvest/internal/fetch"
)

func testExtractor(cfg Config) *Extractor {
	client := fetch.New(fetch.Config{RequestsPerSecond: 1000, Burst: 10})
	return New(client, zap.NewNop(), cfg)
}

func TestFromHTMLFullPage(t *testing.T) {
	long := strings.Repeat("Design, build and operate the hiring platform. ", 10)
	body := []byte(`<html><head><title>Acme Careers</title></head><body>
<h1>Platform Engineer</h1>
<div class="location">Madrid, Spain</div>
<div class="posted-date">2026-08-01</div>
<div class="job-description">` + long + `</div>
<a href="/careers/Apply/123">Apply now</a>
</body></html>`)

	e := testExtractor(Config{})
	rec, err := e.FromHTML(body, "https://acme.avature.net/careers/JobDetail/123")
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if rec.Title != "Platform Engineer" {
		t.Errorf("title = %q", rec.Title)
	}
	if !strings.Contains(rec.Description, "hiring platform") {
		t.Errorf("description = %q", rec.Description)
	}
	if rec.ApplicationURL != "https://acme.avature.net/careers/Apply/123" {
		t.Errorf("application url = %q, want resolved apply link", rec.ApplicationURL)
	}
	if rec.SourceSite != "acme.avature.net" {
		t.Errorf("source site = %q", rec.SourceSite)
	}
	if rec.SourceURL != "https://acme.avature.net/careers/JobDetail/123" {
		t.Errorf("source url = %q", rec.SourceURL)
	}
	if rec.Metadata["location"] != "Madrid, Spain" {
		t.Errorf("location = %q", rec.Metadata["location"])
	}
	if rec.Metadata["date_posted"] != "2026-08-01" {
		t.Errorf("date_posted = %q", rec.Metadata["date_posted"])
	}
	if rec.Metadata["source_page"] != "https://acme.avature.net/careers/JobDetail/123" {
		t.Errorf("source_page = %q", rec.Metadata["source_page"])
	}
}

func TestFromHTMLTitlePrecedence(t *testing.T) {
	body := []byte(`<html><body><h1>From H1</h1><div class="job-title">From Class</div><p>` +
		strings.Repeat("text ", 50) + `</p></body></html>`)
	e := testExtractor(Config{})
	rec, err := e.FromHTML(body, "https://acme.avature.net/careers/JobDetail/1")
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if rec.Title != "From H1" {
		t.Errorf("title = %q, want the h1 to win", rec.Title)
	}
}

func TestFromHTMLTitleTagFallback(t *testing.T) {
	body := []byte(`<html><head><title>Senior Analyst - Acme</title></head><body><p>` +
		strings.Repeat("description text ", 30) + `</p></body></html>`)
	e := testExtractor(Config{})
	rec, err := e.FromHTML(body, "https://acme.avature.net/careers/JobDetail/2")
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if rec.Title != "Senior Analyst - Acme" {
		t.Errorf("title = %q, want the <title> fallback", rec.Title)
	}
}

// A description that exists but never satisfies the length test is still
// kept: the last failing candidate beats an empty field.
func TestFromHTMLShortDescriptionKept(t *testing.T) {
	body := []byte(`<html><body><div class="description">Too short.</div></body></html>`)
	e := testExtractor(Config{})
	rec, err := e.FromHTML(body, "https://acme.avature.net/careers/JobDetail/3")
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if rec.Description != "Too short." {
		t.Errorf("description = %q, want the short candidate", rec.Description)
	}
	if rec.Title != "Untitled" {
		t.Errorf("title = %q, want Untitled", rec.Title)
	}
}

func TestFromHTMLBodyFallbackTruncates(t *testing.T) {
	body := []byte(`<html><body>` + strings.Repeat("x", 400) + `</body></html>`)
	e := testExtractor(Config{MaxDescriptionChars: 120})
	rec, err := e.FromHTML(body, "https://acme.avature.net/careers/JobDetail/4")
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if got := len([]rune(rec.Description)); got > 120 {
		t.Errorf("description length = %d, want <= 120", got)
	}
	if rec.Description == "" {
		t.Error("description empty, want body fallback text")
	}
}

func TestFromHTMLNoContent(t *testing.T) {
	e := testExtractor(Config{})
	_, err := e.FromHTML([]byte(`<html><head></head><body></body></html>`), "https://acme.avature.net/x/y")
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("err = %v, want ErrNoContent", err)
	}
}

func TestFromHTMLNoApplyLinkKeepsPageURL(t *testing.T) {
	body := []byte(`<html><body><h1>Engineer</h1><p>` + strings.Repeat("work ", 60) + `</p></body></html>`)
	e := testExtractor(Config{})
	rec, err := e.FromHTML(body, "https://acme.avature.net/careers/JobDetail/5")
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if rec.ApplicationURL != "https://acme.avature.net/careers/JobDetail/5" {
		t.Errorf("application url = %q, want the page url", rec.ApplicationURL)
	}
}

func TestJobFetchesAndExtracts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/careers/JobDetail/77" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body><h1>SRE</h1><div class="job-description">` +
			strings.Repeat("Run the fleet. ", 20) + `</div></body></html>`))
	}))
	defer srv.Close()

	e := testExtractor(Config{})
	rec, err := e.Job(context.Background(), srv.URL+"/careers/JobDetail/77")
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	if rec.Title != "SRE" {
		t.Errorf("title = %q", rec.Title)
	}

	_, err = e.Job(context.Background(), srv.URL+"/careers/JobDetail/missing")
	if fetch.KindOf(err) != fetch.KindStatus {
		t.Fatalf("err = %v, want a status error", err)
	}
}
