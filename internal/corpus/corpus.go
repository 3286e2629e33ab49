// Package corpus owns the set of admitted job records. It is the single
// synchronization point of the pipeline: fetch stages may run in parallel,
// but every admission serializes here so the read-modify-write merge stays
// atomic.
package corpus

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"avature-harvest/internal/domain"
)

type Corpus struct {
	mu    sync.Mutex
	byKey map[domain.Identity]*domain.JobRecord
	order []domain.Identity
	now   func() time.Time
}

func New() *Corpus {
	return &Corpus{
		byKey: make(map[domain.Identity]*domain.JobRecord),
		now:   time.Now,
	}
}

// Admit inserts rec or merges it into the record already holding its
// identity. The first admission stamps the record ID and extraction time; a
// repeat never replaces wholesale: the description is kept as the longer of
// the two and metadata is unioned with newer values winning collisions.
// Reports whether the identity was new.
func (c *Corpus) Admit(rec domain.JobRecord) bool {
	key := rec.Identity()

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.byKey[key]; ok {
		mergeInto(existing, rec)
		return false
	}

	stored := rec
	stored.RecordID = domain.NewRecordID(key)
	stored.ExtractedAt = c.now().UTC()
	stored.Metadata = copyMeta(rec.Metadata)
	c.byKey[key] = &stored
	c.order = append(c.order, key)
	return true
}

func mergeInto(dst *domain.JobRecord, src domain.JobRecord) {
	if utf8.RuneCountInString(src.Description) > utf8.RuneCountInString(dst.Description) {
		dst.Description = src.Description
	}
	if len(src.Metadata) > 0 {
		if dst.Metadata == nil {
			dst.Metadata = make(map[string]string, len(src.Metadata))
		}
		for k, v := range src.Metadata {
			dst.Metadata[k] = v
		}
	}
}

func copyMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (c *Corpus) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Has reports whether a record with this identity has been admitted.
func (c *Corpus) Has(id domain.Identity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.byKey[id]
	return ok
}

// Snapshot returns the records in admission order. The copies share nothing
// with the corpus, so callers may hold them across further admissions.
func (c *Corpus) Snapshot() []domain.JobRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.JobRecord, 0, len(c.order))
	for _, key := range c.order {
		rec := *c.byKey[key]
		rec.Metadata = copyMeta(rec.Metadata)
		out = append(out, rec)
	}
	return out
}

// WriteFile serializes the snapshot as an indented JSON array. The write
// goes through a temp file and keeps the previous output as .bak, so a
// crash mid-write never leaves a truncated corpus behind.
func (c *Corpus) WriteFile(path string) error {
	records := c.Snapshot()

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}
