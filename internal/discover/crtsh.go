package discover

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const crtshEndpoint = "https://crt.sh/"

// crtEntry is the slice element crt.sh returns in JSON output mode. A single
// certificate can cover several names, newline-separated in name_value.
type crtEntry struct {
	NameValue string `json:"name_value"`
}

// DomainsFromCT queries the certificate transparency aggregator for every
// name ever certified under the vendor domain. The aggregator is slow and
// occasionally times out; a failed lookup logs a warning and returns an
// empty set rather than aborting the run, since search results can still
// carry discovery on their own.
func (d *Discoverer) DomainsFromCT(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("q", "%."+d.opts.VendorDomain)
	q.Set("output", "json")
	endpoint := crtshEndpoint + "?" + q.Encode()

	body, err := d.client.Get(ctx, endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.log.Warn("discover: ct lookup failed", zap.Error(err))
		return nil, nil
	}

	domains, err := parseCTNames(body)
	if err != nil {
		d.log.Warn("discover: ct payload unparseable", zap.Error(err))
		return nil, nil
	}
	d.log.Info("discover: ct names", zap.Int("count", len(domains)))
	return domains, nil
}

// parseCTNames flattens a crt.sh JSON payload into unique hostnames, in
// first-seen order. Leading wildcards are stripped; names still carrying a
// wildcard elsewhere are not resolvable hosts and are dropped.
func parseCTNames(body []byte) ([]string, error) {
	var entries []crtEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var domains []string
	for _, e := range entries {
		for _, name := range strings.Split(e.NameValue, "\n") {
			name = strings.ToLower(strings.TrimSpace(name))
			name = strings.TrimPrefix(name, "*.")
			if name == "" || strings.Contains(name, "*") {
				continue
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			domains = append(domains, name)
		}
	}
	return domains, nil
}
