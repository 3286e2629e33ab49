package discover

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"avature-harvest/internal/domain"
	"avature-harvest/internal/fetch"
)

func testDiscoverer() *Discoverer {
	return New(fetch.New(fetch.Config{RequestsPerSecond: 1000, Burst: 10}), zap.NewNop(), Options{
		VendorDomain: "avature.net",
		SkipSubdomains: []string{
			"analytics", "cdn", "clientcertificate", "smtp", "mail",
			"sandbox", "uat", "qa", "integrations", "jarvis", "mobiletrust",
		},
	})
}

func TestExcluded(t *testing.T) {
	d := testDiscoverer()
	tests := []struct {
		host string
		want bool
	}{
		{"acme.avature.net", false},
		{"globex.avature.net", false},
		{"avature.net", true},        // vendor apex is marketing
		{"www.avature.net", true},    // so is www
		{"kb.avature.net", true},     // and the docs host
		{"careers.example.com", true}, // off the vendor domain
		{"cdn.avature.net", true},
		{"smtp.avature.net", true},
		{"acme-uat.avature.net", true}, // skip terms match anywhere in the host
		{"sandbox.acme.avature.net", true},
	}
	for _, tt := range tests {
		if got := d.excluded(tt.host); got != tt.want {
			t.Errorf("excluded(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestParseCTNames(t *testing.T) {
	body := []byte(`[
{"name_value":"acme.avature.net\n*.acme.avature.net"},
{"name_value":"GLOBEX.avature.net"},
{"name_value":"acme.avature.net"},
{"name_value":"bad*name.avature.net"}
]`)
	names, err := parseCTNames(body)
	if err != nil {
		t.Fatalf("parseCTNames: %v", err)
	}
	want := []string{"acme.avature.net", "globex.avature.net"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}

	if _, err := parseCTNames([]byte(`<html>rate limited</html>`)); err == nil {
		t.Error("want error for non-JSON payload")
	}
}

func TestDecodeRedirect(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			"//duckduckgo.com/l/?uddg=https%3A%2F%2Facme.avature.net%2Fcareers&rut=abc",
			"https://acme.avature.net/careers",
		},
		{"https://acme.avature.net/careers", "https://acme.avature.net/careers"},
		{"/l/?other=1", "/l/?other=1"},
	}
	for _, tt := range tests {
		if got := decodeRedirect(tt.in); got != tt.want {
			t.Errorf("decodeRedirect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLinksSkipsDeadSites(t *testing.T) {
	sites := []domain.Site{
		{Host: "acme.avature.net", CareerURLs: []string{"https://acme.avature.net", "https://acme.avature.net/careers"}, Live: true},
		{Host: "dead.avature.net", CareerURLs: []string{"https://dead.avature.net"}, Live: false},
	}
	links := Links(sites)
	if len(links) != 2 {
		t.Fatalf("links = %v, want only the live site's urls", links)
	}
}

func TestWriteLinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "career_links.txt")
	links := []string{"https://acme.avature.net/careers", "https://globex.avature.net/jobs"}
	if err := WriteLinks(path, links); err != nil {
		t.Fatalf("WriteLinks: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "https://acme.avature.net/careers\nhttps://globex.avature.net/jobs\n"
	if string(b) != want {
		t.Errorf("file = %q, want %q", b, want)
	}
}
