package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/geo-attendance/internal/attendance"
	"github.com/example/geo-attendance/internal/geo"
	"github.com/example/geo-attendance/internal/location"
)

var (
	recordCounter uint64
	sampleCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Zone returns the default attendance zone: a 1000 m circle around
// New York City Hall.
func Zone() geo.Zone {
	return geo.Zone{
		Center:       geo.Point{Latitude: 40.7128, Longitude: -74.0060},
		RadiusMeters: 1000,
	}
}

// InsidePoint lies about 111 m north of the zone center.
func InsidePoint() geo.Point {
	return geo.Point{Latitude: 40.7138, Longitude: -74.0060}
}

// OutsidePoint lies about 1112 m north of the zone center.
func OutsidePoint() geo.Point {
	return geo.Point{Latitude: 40.7228, Longitude: -74.0060}
}

// ----------------------------- Sample fixtures -----------------------------

// SampleOption configures a location sample fixture.
type SampleOption func(*location.Sample)

// NewSample returns a sample at the zone center with 5 m accuracy.
func NewSample(opts ...SampleOption) location.Sample {
	idx := atomic.AddUint64(&sampleCounter, 1)
	center := Zone().Center
	sample := location.Sample{
		Latitude:   center.Latitude,
		Longitude:  center.Longitude,
		Accuracy:   5,
		CapturedAt: referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&sample)
	}
	return sample
}

// WithSamplePoint moves the sample.
func WithSamplePoint(p geo.Point) SampleOption {
	return func(s *location.Sample) {
		s.Latitude = p.Latitude
		s.Longitude = p.Longitude
	}
}

// WithSampleAccuracy overrides the accuracy radius.
func WithSampleAccuracy(meters float64) SampleOption {
	return func(s *location.Sample) {
		s.Accuracy = meters
	}
}

// WithSampleCapturedAt overrides the capture instant.
func WithSampleCapturedAt(t time.Time) SampleOption {
	return func(s *location.Sample) {
		s.CapturedAt = t
	}
}

// ----------------------------- Record fixtures -----------------------------

// RecordOption configures an attendance record fixture.
type RecordOption func(*attendance.Record)

// NewRecord returns a deterministic in-zone record with a unique id.
func NewRecord(opts ...RecordOption) attendance.Record {
	idx := atomic.AddUint64(&recordCounter, 1)
	center := Zone().Center
	record := attendance.Record{
		ID:          fmt.Sprintf("record-%03d", idx),
		Name:        fmt.Sprintf("Attendee %03d", idx),
		Note:        "present",
		Latitude:    center.Latitude,
		Longitude:   center.Longitude,
		Accuracy:    5,
		SubmittedAt: attendance.FormatTimestamp(referenceTime.Add(time.Duration(idx) * time.Minute)),
		InZone:      true,
	}
	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithRecordID overrides the record id.
func WithRecordID(id string) RecordOption {
	return func(r *attendance.Record) {
		r.ID = id
	}
}

// WithRecordName overrides the attendee name.
func WithRecordName(name string) RecordOption {
	return func(r *attendance.Record) {
		r.Name = name
	}
}

// WithRecordNote overrides the free-text result.
func WithRecordNote(note string) RecordOption {
	return func(r *attendance.Record) {
		r.Note = note
	}
}

// WithRecordPoint overrides coordinates and recomputes InZone against Zone().
func WithRecordPoint(p geo.Point) RecordOption {
	return func(r *attendance.Record) {
		r.Latitude = p.Latitude
		r.Longitude = p.Longitude
		r.InZone = Zone().Contains(p)
	}
}

// WithRecordSubmittedAt overrides the submission timestamp.
func WithRecordSubmittedAt(t time.Time) RecordOption {
	return func(r *attendance.Record) {
		r.SubmittedAt = attendance.FormatTimestamp(t)
	}
}
