package application

import (
	"errors"
	"fmt"

	"github.com/example/geo-attendance/internal/attendance"
	"github.com/example/geo-attendance/internal/location"
)

// CheckInParams is the input to a check-in. Location is nil when no position
// has been obtained; LocationErr explains why when acquisition failed.
type CheckInParams struct {
	Name        string
	Note        string
	Location    *location.Sample
	LocationErr error
}

// Variant selects how a notice is rendered.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is transient user feedback.
type Notice struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

// IsZero reports whether n carries no message.
func (n Notice) IsZero() bool {
	return n.Title == "" && n.Description == ""
}

// FormState is the submission state of a Form.
type FormState string

const (
	StateIdle       FormState = "idle"
	StateValidating FormState = "validating"
	StateRejected   FormState = "rejected"
	StateSubmitting FormState = "submitting"
	StateStored     FormState = "stored"
	StateFailed     FormState = "failed"
)

// LocationStatus tracks the most recent location request of a Form.
type LocationStatus string

const (
	LocationLoading LocationStatus = "loading"
	LocationReady   LocationStatus = "ready"
	LocationError   LocationStatus = "error"
)

// Outcome is the result of one Submit call. State is the terminal state the
// submission reached (Rejected, Stored or Failed).
type Outcome struct {
	State  FormState
	Record attendance.Record
	Notice Notice
	Err    error
}

// Badge texts shown next to the location status.
const (
	BadgeLoading     = "Getting location..."
	BadgeUnavailable = "Location unavailable"
	BadgeInZone      = "In attendance zone"
	BadgeOutsideZone = "Outside zone"
)

// BadgeText returns the status text for a location status and zone result.
func BadgeText(status LocationStatus, inZone bool) string {
	switch status {
	case LocationLoading:
		return BadgeLoading
	case LocationError:
		return BadgeUnavailable
	}
	if inZone {
		return BadgeInZone
	}
	return BadgeOutsideZone
}

// NoticeFor returns the user-facing notice for a check-in error.
func NoticeFor(err error) Notice {
	var (
		vErr   *ValidationError
		locErr *LocationUnavailableError
	)
	switch {
	case err == nil:
		return Notice{Title: "Attendance submitted!", Description: "Your attendance has been recorded successfully.", Variant: VariantDefault}
	case errors.As(err, &vErr):
		return Notice{Title: "Missing information", Description: "Please fill in both name and result fields.", Variant: VariantDestructive}
	case errors.As(err, &locErr) && locErr.Cause != nil:
		return Notice{Title: "Location required", Description: LocationNotice(locErr.Cause, nil).Description, Variant: VariantDestructive}
	case errors.Is(err, ErrLocationRequired), errors.Is(err, ErrLocationUnavailable):
		return Notice{Title: "Location required", Description: "Location data is required for attendance submission.", Variant: VariantDestructive}
	case errors.Is(err, ErrOutsideZone):
		return Notice{Title: "Outside attendance zone", Description: "You must be within the designated area to submit attendance.", Variant: VariantDestructive}
	case errors.Is(err, ErrFormBusy):
		return Notice{Title: "Submitting", Description: "Your attendance is already being submitted.", Variant: VariantDefault}
	}
	return Notice{Title: "Submission failed", Description: "Failed to submit attendance. Please try again.", Variant: VariantDestructive}
}

// LocationNotice returns the notice shown after a location request: nil err
// with an outside evaluation yields the distance warning.
func LocationNotice(err error, outside *OutsideZoneError) Notice {
	switch {
	case err == nil && outside == nil:
		return Notice{}
	case err == nil:
		return Notice{
			Title:       "Outside allowed zone",
			Description: fmt.Sprintf("You are %dm from the attendance zone.", outside.RoundedDistance()),
			Variant:     VariantDestructive,
		}
	case errors.Is(err, location.ErrUnsupported):
		return Notice{Title: "Location not supported", Description: "This device doesn't support geolocation.", Variant: VariantDestructive}
	case errors.Is(err, location.ErrTimeout):
		return Notice{Title: "Location timed out", Description: "Your position could not be determined in time. Please try again.", Variant: VariantDestructive}
	}
	return Notice{Title: "Location access denied", Description: "Please enable location access to submit attendance.", Variant: VariantDestructive}
}
