package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	HTTP struct {
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		UserAgent      string `yaml:"user_agent"`
		MaxBodyKB      int    `yaml:"max_body_kb"`
	} `yaml:"http"`

	Politeness struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"politeness"`

	Pipeline struct {
		FetchFeeds          bool `yaml:"fetch_feeds"`
		FetchPages          bool `yaml:"fetch_pages"`
		ProbeSearchAPI      bool `yaml:"probe_search_api"`
		MaxPages            int  `yaml:"max_pages"`
		MaxPerListing       int  `yaml:"max_per_listing"`
		Parallelism         int  `yaml:"parallelism"`
		MinDescriptionChars int  `yaml:"min_description_chars"`
		MaxDescriptionChars int  `yaml:"max_description_chars"`
	} `yaml:"pipeline"`

	Output struct {
		JSONPath   string `yaml:"json_path"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"output"`

	Discovery struct {
		VendorDomain     string   `yaml:"vendor_domain"`
		SkipSubdomains   []string `yaml:"skip_subdomains"`
		SearchQueries    []string `yaml:"search_queries"`
		Validate         bool     `yaml:"validate"`
		CollectFeedLinks bool     `yaml:"collect_feed_links"`
	} `yaml:"discovery"`
}

// Default returns the built-in configuration. Load unmarshals on top of it,
// so a sparse user file only overrides what it names.
func Default() Config {
	var c Config
	c.App.DataDir = "data"
	c.HTTP.TimeoutSeconds = 12
	c.HTTP.MaxBodyKB = 10240
	c.Politeness.RequestsPerSecond = 2
	c.Politeness.Burst = 1
	c.Pipeline.FetchFeeds = true
	c.Pipeline.FetchPages = true
	c.Pipeline.MaxPages = 500
	c.Pipeline.MaxPerListing = 100
	c.Pipeline.Parallelism = 4
	c.Pipeline.MinDescriptionChars = 100
	c.Pipeline.MaxDescriptionChars = 15000
	c.Output.JSONPath = "jobs.json"
	c.Discovery.VendorDomain = "avature.net"
	c.Discovery.SkipSubdomains = []string{
		"analytics", "cdn", "clientcertificate", "smtp", "mail",
		"sandbox", "uat", "qa", "integrations", "jarvis", "mobiletrust",
	}
	c.Discovery.SearchQueries = []string{
		"site:avature.net careers",
		`"powered by Avature" careers`,
		"inurl:avature.net/careers",
		"inurl:avature.net/jobs",
	}
	c.Discovery.Validate = true
	c.Discovery.CollectFeedLinks = true
	return c
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
