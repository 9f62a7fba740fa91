package attendance

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	at := time.Date(2024, time.May, 6, 9, 30, 15, 123456789, time.FixedZone("EST", -5*3600))
	got := FormatTimestamp(at)
	if got != "2024-05-06T14:30:15.123Z" {
		t.Fatalf("unexpected timestamp %q", got)
	}

	r := Record{SubmittedAt: got}
	if !r.SubmittedTime().Equal(at.Truncate(time.Millisecond)) {
		t.Fatalf("SubmittedTime mismatch: %v", r.SubmittedTime())
	}
	if !(Record{SubmittedAt: "yesterday"}).SubmittedTime().IsZero() {
		t.Fatal("expected zero time for malformed timestamp")
	}
}

func TestRecordJSONKeys(t *testing.T) {
	payload, err := json.Marshal(Record{ID: "1", Name: "Alice", Note: "present", InZone: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "name", "result", "latitude", "longitude", "accuracy", "submitted_at", "in_zone"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing key %q in %s", key, payload)
		}
	}
	if len(fields) != 8 {
		t.Errorf("expected 8 keys, got %d", len(fields))
	}
}
