// Package location defines the contract for acquiring a device position and
// the providers that satisfy it.
package location

import (
	"errors"
	"time"

	"github.com/example/geo-attendance/internal/geo"
)

var (
	// ErrPermissionDenied is returned when the user or platform refuses access.
	ErrPermissionDenied = errors.New("location: permission denied")
	// ErrTimeout is returned when no position arrived before the request deadline.
	ErrTimeout = errors.New("location: timeout")
	// ErrPositionUnavailable is returned when the platform cannot determine a position.
	ErrPositionUnavailable = errors.New("location: position unavailable")
	// ErrUnsupported is returned when no location source is available at all.
	ErrUnsupported = errors.New("location: not supported")
)

// Sample is a single platform-reported position.
type Sample struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   float64   `json:"accuracy"`
	CapturedAt time.Time `json:"captured_at"`
}

// Point returns the sample position.
func (s Sample) Point() geo.Point {
	return geo.Point{Latitude: s.Latitude, Longitude: s.Longitude}
}

// Request carries the options passed to a provider.
type Request struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxCachedAge time.Duration
}

// DefaultRequest mirrors the options used by the check-in form.
func DefaultRequest() Request {
	return Request{
		HighAccuracy: true,
		Timeout:      10 * time.Second,
		MaxCachedAge: 60 * time.Second,
	}
}

// Reason maps a location failure to a stable label.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrPositionUnavailable):
		return "position_unavailable"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	}
	return "position_unavailable"
}

// ParseReason is the inverse of Reason. Unknown labels yield ErrPositionUnavailable.
func ParseReason(reason string) error {
	switch reason {
	case "permission_denied":
		return ErrPermissionDenied
	case "timeout":
		return ErrTimeout
	case "unsupported":
		return ErrUnsupported
	}
	return ErrPositionUnavailable
}
