// Package avature probes the vendor platform's private search endpoint.
// Career sites on the platform answer POST /careers/SearchJobs with paged
// JSON; the payload shape is undocumented and drifts between tenants, so
// every field is probed defensively and any surprise ends the site's probe
// quietly rather than the run.
package avature

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"avature-harvest/internal/domain"
	"avature-harvest/internal/fetch"
)

const (
	searchPath = "/careers/SearchJobs"
	batchSize  = 50
	// Per-site brake: some tenants page forever through stale requisitions.
	maxPerSite = 200
)

type searchRequest struct {
	JobOffset         int    `json:"jobOffset"`
	JobRecordsPerPage int    `json:"jobRecordsPerPage"`
	Filters           []any  `json:"filters"`
	Sort              string `json:"sort"`
}

// Records vary between tenants (records vs jobs, jobId vs id, title vs
// jobTitle), so they stay as raw maps and fields are fished out by name.
type searchResponse struct {
	Records []map[string]any `json:"records"`
	Jobs    []map[string]any `json:"jobs"`
}

type Prober struct {
	client *fetch.Client
	log    *zap.Logger
}

func New(client *fetch.Client, log *zap.Logger) *Prober {
	return &Prober{client: client, log: log}
}

// Jobs pages through the search endpoint under siteURL's origin. Probing
// stops at the first non-2xx response, unparseable payload, empty batch, or
// the per-site brake; whatever was collected by then is returned. Only
// context cancellation is an error.
func (p *Prober) Jobs(ctx context.Context, siteURL string) ([]domain.JobRecord, error) {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return nil, nil
	}
	origin := u.Scheme + "://" + u.Host
	endpoint := origin + searchPath

	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	hdr.Set("X-Requested-With", "XMLHttpRequest")
	hdr.Set("Origin", "https://avature.net")
	hdr.Set("Referer", "https://avature.net/")

	var jobs []domain.JobRecord
	offset := 0

	for {
		payload, err := json.Marshal(searchRequest{
			JobOffset:         offset,
			JobRecordsPerPage: batchSize,
			Filters:           []any{},
			Sort:              "dateUpdated DESC",
		})
		if err != nil {
			return jobs, nil
		}

		body, err := p.client.Do(ctx, http.MethodPost, endpoint, payload, hdr)
		if err != nil {
			if ctx.Err() != nil {
				return jobs, ctx.Err()
			}
			p.log.Debug("api: probe ended", zap.String("endpoint", endpoint), zap.Error(err))
			return jobs, nil
		}

		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			p.log.Debug("api: not a search payload", zap.String("endpoint", endpoint), zap.Error(err))
			return jobs, nil
		}
		records := resp.Records
		if len(records) == 0 {
			records = resp.Jobs
		}
		if len(records) == 0 {
			return jobs, nil
		}

		for _, item := range records {
			jobs = append(jobs, recordFromItem(item, origin, u.Host, endpoint))
		}
		p.log.Debug("api: batch", zap.String("endpoint", endpoint),
			zap.Int("offset", offset), zap.Int("total", len(jobs)))

		offset += len(records)
		if len(jobs) >= maxPerSite {
			p.log.Debug("api: per-site brake", zap.String("endpoint", endpoint), zap.Int("jobs", len(jobs)))
			return jobs, nil
		}
	}
}

func recordFromItem(item map[string]any, origin, site, endpoint string) domain.JobRecord {
	id := stringField(item, "jobId", "id")
	title := stringField(item, "title", "jobTitle")
	if title == "" {
		title = "Untitled"
	}
	link := stringField(item, "link")
	if link == "" && id != "" {
		link = origin + "/Job/" + id
	}
	return domain.JobRecord{
		Title:          title,
		Description:    stringField(item, "description"),
		ApplicationURL: link,
		Metadata: domain.Meta(
			"job_id", id,
			"location", stringField(item, "location"),
			"date_posted", stringField(item, "dateUpdated"),
			"source_api", endpoint,
		),
		SourceSite: site,
		SourceURL:  endpoint,
	}
}

// stringField returns the first present key rendered as a string. IDs come
// back as numbers on some tenants and strings on others.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64:
			if t == float64(int64(t)) {
				return strconv.FormatInt(int64(t), 10)
			}
			return strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(t)
		default:
			return fmt.Sprint(t)
		}
	}
	return ""
}
