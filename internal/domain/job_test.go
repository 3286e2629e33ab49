package domain

import "testing"

func TestNewRecordIDDeterministic(t *testing.T) {
	id := Identity{SourceSite: "acme.avature.net", ApplicationURL: "https://acme.avature.net/careers/JobDetail/1"}
	a := NewRecordID(id)
	b := NewRecordID(id)
	if a != b {
		t.Fatalf("ids differ: %q vs %q", a, b)
	}

	other := Identity{SourceSite: "globex.avature.net", ApplicationURL: id.ApplicationURL}
	if NewRecordID(other) == a {
		t.Error("different identities share an id")
	}
}

func TestMeta(t *testing.T) {
	m := Meta("location", "Madrid", "date_posted", "", "job_id", "42")
	if len(m) != 2 {
		t.Fatalf("meta = %v, want empty values skipped", m)
	}
	if m["location"] != "Madrid" || m["job_id"] != "42" {
		t.Errorf("meta = %v", m)
	}
	if Meta("a", "") != nil {
		t.Error("all-empty input should yield nil")
	}
}
