package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobRecord is one harvested job posting. The JSON field names are the
// corpus wire format and must not change between runs.
type JobRecord struct {
	RecordID       string            `json:"record_id"`
	Title          string            `json:"job_title"`
	Description    string            `json:"job_description,omitempty"`
	ApplicationURL string            `json:"application_url"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	SourceSite     string            `json:"source_site"`
	SourceURL      string            `json:"source_url"`
	ExtractedAt    time.Time         `json:"extracted_at"`
}

// Identity is the dedup key: the same posting reached through a feed, a
// listing page and a direct link collapses to one record.
type Identity struct {
	SourceSite     string
	ApplicationURL string
}

func (j JobRecord) Identity() Identity {
	return Identity{SourceSite: j.SourceSite, ApplicationURL: j.ApplicationURL}
}

// NewRecordID derives a stable ID from the identity so re-runs and the
// sqlite catalog agree on which record is which.
func NewRecordID(id Identity) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(id.SourceSite+"\n"+id.ApplicationURL)).String()
}

// Meta builds a metadata map from alternating key/value pairs, skipping
// pairs with an empty value so records stay free of placeholder entries.
func Meta(kv ...string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			m[kv[i]] = kv[i+1]
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
