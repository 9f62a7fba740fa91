package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/geo-attendance/internal/application"
	"github.com/example/geo-attendance/internal/attendance"
	"github.com/example/geo-attendance/internal/location"
	"github.com/example/geo-attendance/internal/report"
)

var errMissingCoordinate = errors.New("latitude and longitude must be sent together")

// AttendanceHandler runs the check-in form for client-reported positions and
// serves the listing.
type AttendanceHandler struct {
	service   *application.CheckInService
	request   location.Request
	now       func() time.Time
	logger    *slog.Logger
	responder responder
}

// NewAttendanceHandler wires attendance endpoints. req bounds how old a
// reported position may be; now defaults to time.Now.
func NewAttendanceHandler(service *application.CheckInService, req location.Request, now func() time.Time, logger *slog.Logger) *AttendanceHandler {
	if now == nil {
		now = time.Now
	}
	logger = defaultLogger(logger)
	return &AttendanceHandler{
		service:   service,
		request:   req,
		now:       now,
		logger:    logger,
		responder: newResponder(logger),
	}
}

// Register mounts the attendance routes on r.
func (h *AttendanceHandler) Register(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/export.xlsx", h.Export)
	})
}

// Create handles POST /attendance.
func (h *AttendanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.writeBindingError(ctx, w, err)
		return
	}
	if err := req.validatePair(); err != nil {
		h.responder.writeBindingError(ctx, w, err)
		return
	}

	logger := handlerLogger(ctx, h.logger, "AttendanceHandler", "Create", "has_location", req.hasLocation())

	provider := req.provider(h.now)
	form := application.NewForm(h.service, provider, h.request)
	form.SetName(req.Name)
	form.SetNote(req.Result)
	if provider != nil {
		if notice := form.RefreshLocation(ctx); !notice.IsZero() {
			logger.DebugContext(ctx, "location notice", "title", notice.Title)
		}
	}

	outcome := form.Submit(ctx)
	if outcome.State != application.StateStored {
		h.responder.handleServiceError(ctx, w, outcome.Err, outcome.Notice)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusCreated, outcome.Record)
}

// List handles GET /attendance.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.service.ListRecords(ctx)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err, application.Notice{})
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, listResponse{Records: records, Count: len(records)})
}

// Export handles GET /attendance/export.xlsx.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := handlerLogger(ctx, h.logger, "AttendanceHandler", "Export")

	records, err := h.service.ListRecords(ctx)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err, application.Notice{})
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, records); err != nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.ErrorContext(ctx, "failed to write export", "error", err)
		return
	}
	logger.InfoContext(ctx, "attendance exported", "count", len(records))
}

type checkInRequest struct {
	Name          string     `json:"name" validate:"max=200"`
	Result        string     `json:"result" validate:"max=1000"`
	Latitude      *float64   `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude     *float64   `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Accuracy      float64    `json:"accuracy" validate:"gte=0"`
	CapturedAt    *time.Time `json:"captured_at"`
	LocationError string     `json:"location_error" validate:"omitempty,oneof=permission_denied timeout position_unavailable unsupported"`
}

func (c checkInRequest) hasLocation() bool {
	return c.Latitude != nil && c.Longitude != nil
}

func (c checkInRequest) validatePair() error {
	if (c.Latitude == nil) == (c.Longitude == nil) {
		return nil
	}
	field := "latitude"
	if c.Latitude != nil {
		field = "longitude"
	}
	return &bindingError{
		err:    errMissingCoordinate,
		fields: map[string]string{field: "Field '" + field + "' is required when the other coordinate is set"},
	}
}

// provider returns nil when the client sent neither a position nor a
// location failure.
func (c checkInRequest) provider(now func() time.Time) location.Provider {
	if c.LocationError != "" {
		return location.NewReportedProvider(location.Sample{}, location.ParseReason(c.LocationError), now)
	}
	if !c.hasLocation() {
		return nil
	}
	sample := location.Sample{Latitude: *c.Latitude, Longitude: *c.Longitude, Accuracy: c.Accuracy}
	if c.CapturedAt != nil {
		sample.CapturedAt = *c.CapturedAt
	}
	return location.NewReportedProvider(sample, nil, now)
}

type listResponse struct {
	Records []attendance.Record `json:"records"`
	Count   int                 `json:"count"`
}
