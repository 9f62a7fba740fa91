package application

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrLocationRequired is returned when a check-in has no position at all.
	ErrLocationRequired = errors.New("application: location required")
	// ErrLocationUnavailable is returned when acquiring the position failed.
	ErrLocationUnavailable = errors.New("application: location unavailable")
	// ErrOutsideZone is matched by *OutsideZoneError.
	ErrOutsideZone = errors.New("application: outside attendance zone")
	// ErrSubmissionFailed is returned when a valid record could not be stored.
	ErrSubmissionFailed = errors.New("application: submission failed")
	// ErrFormBusy is returned when a submission is already in flight.
	ErrFormBusy = errors.New("application: submission already in progress")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// OutsideZoneError reports how far a rejected position was from the zone.
type OutsideZoneError struct {
	DistanceMeters float64
	RadiusMeters   float64
}

func (e *OutsideZoneError) Error() string {
	return fmt.Sprintf("application: outside attendance zone (%.0fm from center, radius %.0fm)", e.DistanceMeters, e.RadiusMeters)
}

// Is lets errors.Is match ErrOutsideZone.
func (e *OutsideZoneError) Is(target error) bool {
	return target == ErrOutsideZone
}

// RoundedDistance is the distance shown to users, in whole meters.
func (e *OutsideZoneError) RoundedDistance() int {
	return int(math.Round(e.DistanceMeters))
}

// LocationUnavailableError carries the acquisition failure behind a missing
// position. It matches ErrLocationUnavailable and unwraps to the cause.
type LocationUnavailableError struct {
	Cause error
}

func (e *LocationUnavailableError) Error() string {
	return fmt.Sprintf("application: location unavailable: %v", e.Cause)
}

func (e *LocationUnavailableError) Unwrap() []error {
	return []error{ErrLocationUnavailable, e.Cause}
}
