package classify

import "testing"

func TestIsHub(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://acme.avature.net/", true},
		{"https://acme.avature.net", true},
		{"https://acme.avature.net/careers", true},
		{"https://acme.avature.net/careers/", true},
		{"https://acme.avature.net/jobs", true},
		{"https://acme.avature.net/Careers", true}, // path comparison is case-insensitive
		{"https://acme.avature.net/careers/engineering", true},
		{"https://acme.avature.net/careers/JobDetail/4821", false}, // too deep
		{"https://acme.avature.net/about", false},
		{"https://acme.avature.net/blogs/post", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsHub(tt.url); got != tt.want {
				t.Errorf("IsHub(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsJobPage(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://acme.avature.net/", false},
		{"https://acme.avature.net/careers", false}, // one segment, not a page
		{"https://acme.avature.net/careers/JobDetail/4821", true},
		{"https://acme.avature.net/careers/SearchJobs", true},
		{"https://acme.avature.net/blogs/post", true}, // fetchable; admission rejects later
		{"https://acme.avature.net/x/y", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsJobPage(tt.url); got != tt.want {
				t.Errorf("IsJobPage(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsListing(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://acme.avature.net/careers/SearchJobs", true},
		{"https://acme.avature.net/careers/SearchJobs/", true},
		{"https://acme.avature.net/careers", true},
		{"https://acme.avature.net/jobs", true},
		{"https://acme.avature.net/engineering/careers", true}, // career path suffix
		{"https://acme.avature.net/careers/JobDetail/4821", false},
		{"https://acme.avature.net/careers/SearchJobs?jobId=99", false}, // detail marker wins
		{"https://acme.avature.net/", false},
		{"https://acme.avature.net/about/team", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsListing(tt.url); got != tt.want {
				t.Errorf("IsListing(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

// A detail page must classify as a job page and never as a listing, or the
// pipeline would expand it instead of extracting it.
func TestDetailPageIsNotListing(t *testing.T) {
	u := "https://acme.avature.net/careers/JobDetail/4821"
	if !IsJobPage(u) {
		t.Errorf("IsJobPage(%q) = false", u)
	}
	if IsListing(u) {
		t.Errorf("IsListing(%q) = true", u)
	}
}

// Classification must be total: malformed input classifies as nothing
// instead of panicking, and repeated calls agree.
func TestClassifyTotalAndDeterministic(t *testing.T) {
	inputs := []string{
		"",
		"://bad",
		"http://%zz",
		"not a url at all",
		"https://acme.avature.net/careers",
		"ftp://acme.avature.net/careers",
	}
	for _, u := range inputs {
		for i := 0; i < 3; i++ {
			hub, page, listing := IsHub(u), IsJobPage(u), IsListing(u)
			if hub != IsHub(u) || page != IsJobPage(u) || listing != IsListing(u) {
				t.Errorf("classification of %q not stable", u)
			}
		}
	}
	for _, u := range []string{"", "://bad", "http://%zz", "not a url at all"} {
		if IsHub(u) || IsJobPage(u) || IsListing(u) {
			t.Errorf("malformed %q matched a role", u)
		}
	}
}
