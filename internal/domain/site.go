package domain

// Site is a career site surfaced by discovery. CareerURLs are the entry
// points fed back into the pipeline's link list.
type Site struct {
	Host       string
	CareerURLs []string
	Source     string // crtsh/duckduckgo
	Live       bool
}
