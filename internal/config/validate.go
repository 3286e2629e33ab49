package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string
	Warnings []string
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Discovery.SkipSubdomains = trimList(out.Discovery.SkipSubdomains)
	out.Discovery.SearchQueries = trimList(out.Discovery.SearchQueries)
	out.Discovery.VendorDomain = strings.ToLower(strings.TrimSpace(out.Discovery.VendorDomain))

	if strings.TrimSpace(out.App.DataDir) == "" {
		res.addErr("app.data_dir must not be empty")
	}
	if out.HTTP.TimeoutSeconds <= 0 {
		res.addErr("http.timeout_seconds must be > 0")
	}
	if out.HTTP.MaxBodyKB <= 0 {
		res.addErr("http.max_body_kb must be > 0")
	}

	if out.Politeness.RequestsPerSecond <= 0 {
		res.addErr("politeness.requests_per_second must be > 0")
	} else if out.Politeness.RequestsPerSecond > 10 {
		res.addWarn("politeness.requests_per_second is high (%.1f); career sites rate-limit aggressively.", out.Politeness.RequestsPerSecond)
	}
	if out.Politeness.Burst <= 0 {
		res.addErr("politeness.burst must be > 0")
	}

	if out.Pipeline.MaxPages <= 0 {
		res.addErr("pipeline.max_pages must be > 0")
	}
	if out.Pipeline.MaxPerListing <= 0 {
		res.addErr("pipeline.max_per_listing must be > 0")
	}
	if out.Pipeline.Parallelism <= 0 {
		res.addErr("pipeline.parallelism must be > 0")
	} else if out.Pipeline.Parallelism > 16 {
		res.addWarn("pipeline.parallelism is high (%d); consider whether the sites deserve it.", out.Pipeline.Parallelism)
	}
	if out.Pipeline.MinDescriptionChars < 0 {
		res.addErr("pipeline.min_description_chars must be >= 0")
	}
	if out.Pipeline.MaxDescriptionChars <= out.Pipeline.MinDescriptionChars {
		res.addErr("pipeline.max_description_chars must be > min_description_chars")
	}
	if !out.Pipeline.FetchFeeds && !out.Pipeline.FetchPages && !out.Pipeline.ProbeSearchAPI {
		res.addWarn("all pipeline stages are disabled; a run will produce nothing.")
	}

	if strings.TrimSpace(out.Output.JSONPath) == "" {
		res.addErr("output.json_path must not be empty")
	}

	if out.Discovery.VendorDomain == "" {
		res.addErr("discovery.vendor_domain must not be empty")
	}

	return out, res
}
