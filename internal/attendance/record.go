// Package attendance keeps the append-only list of check-in records.
package attendance

import (
	"time"

	"github.com/example/geo-attendance/internal/geo"
)

// DefaultKey is the storage key holding the serialised record list.
const DefaultKey = "attendanceRecords"

// TimestampLayout formats SubmittedAt: RFC 3339 in UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Record is one attendance entry. Records are never mutated once stored.
type Record struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Note        string  `json:"result"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Accuracy    float64 `json:"accuracy"`
	SubmittedAt string  `json:"submitted_at"`
	InZone      bool    `json:"in_zone"`
}

// Point returns the recorded coordinates.
func (r Record) Point() geo.Point {
	return geo.Point{Latitude: r.Latitude, Longitude: r.Longitude}
}

// FormatTimestamp renders t in the layout used for SubmittedAt.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// SubmittedTime parses SubmittedAt. The zero time is returned for
// malformed values.
func (r Record) SubmittedTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.SubmittedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
