package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/geo-attendance/internal/application"
	"github.com/example/geo-attendance/internal/location"
)

// Error codes carried in errorResponse.ErrorCode.
const (
	codeInvalidRequest      = "INVALID_REQUEST"
	codeValidationFailed    = "VALIDATION_FAILED"
	codeLocationRequired    = "LOCATION_REQUIRED"
	codeLocationUnavailable = "LOCATION_UNAVAILABLE"
	codeOutsideZone         = "OUTSIDE_ZONE"
	codeBusy                = "BUSY"
	codeSubmissionFailed    = "SUBMISSION_FAILED"
	codeInternal            = "INTERNAL"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Title: http.StatusText(status), Message: message})
}

func (r responder) writeBindingError(ctx context.Context, w http.ResponseWriter, err error) {
	var bErr *bindingError
	if !errors.As(err, &bErr) {
		r.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	r.loggerFor(ctx).WarnContext(ctx, "invalid request body", "error", bErr)
	if len(bErr.fields) > 0 {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: codeValidationFailed,
			Title:     "Invalid request",
			Message:   bErr.Error(),
			Errors:    bErr.fields,
		})
		return
	}

	status := http.StatusBadRequest
	var maxErr *http.MaxBytesError
	if errors.As(bErr, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}
	r.writeJSON(ctx, w, status, errorResponse{
		ErrorCode: codeInvalidRequest,
		Title:     "Invalid request",
		Message:   bErr.Error(),
	})
}

// handleServiceError maps check-in failures to status codes. notice is the
// user-facing text produced alongside err; a zero notice is derived from err.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error, notice application.Notice) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}
	if notice.IsZero() {
		notice = application.NoticeFor(err)
	}

	resp := errorResponse{Title: notice.Title, Message: notice.Description}
	status := http.StatusInternalServerError

	var (
		vErr       *application.ValidationError
		outsideErr *application.OutsideZoneError
	)
	switch {
	case errors.As(err, &vErr):
		status = http.StatusUnprocessableEntity
		resp.ErrorCode = codeValidationFailed
		resp.Errors = vErr.FieldErrors
	case errors.Is(err, application.ErrLocationUnavailable):
		status = http.StatusUnprocessableEntity
		resp.ErrorCode = codeLocationUnavailable
		resp.Reason = location.Reason(err)
	case errors.Is(err, application.ErrLocationRequired):
		status = http.StatusUnprocessableEntity
		resp.ErrorCode = codeLocationRequired
	case errors.As(err, &outsideErr):
		status = http.StatusForbidden
		resp.ErrorCode = codeOutsideZone
		distance := outsideErr.RoundedDistance()
		resp.DistanceMeters = &distance
	case errors.Is(err, application.ErrFormBusy):
		status = http.StatusConflict
		resp.ErrorCode = codeBusy
	case errors.Is(err, application.ErrSubmissionFailed):
		resp.ErrorCode = codeSubmissionFailed
	default:
		resp.ErrorCode = codeInternal
	}

	logger := r.loggerFor(ctx).With("status", status, "error", err, "error_kind", application.ErrorKind(err))
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed")
	} else {
		logger.InfoContext(ctx, "request rejected")
	}
	r.writeJSON(ctx, w, status, resp)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode      string            `json:"error_code,omitempty"`
	Title          string            `json:"title,omitempty"`
	Message        string            `json:"message"`
	Errors         map[string]string `json:"errors,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	DistanceMeters *int              `json:"distance_meters,omitempty"`
}
