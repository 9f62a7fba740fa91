package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/geo-attendance/internal/application"
	"github.com/example/geo-attendance/internal/geo"
	"github.com/example/geo-attendance/internal/location"
)

// ZoneHandler exposes the attendance zone and lets clients preview the badge
// for a position before submitting.
type ZoneHandler struct {
	service   *application.CheckInService
	logger    *slog.Logger
	responder responder
}

// NewZoneHandler wires zone endpoints to the check-in service.
func NewZoneHandler(service *application.CheckInService, logger *slog.Logger) *ZoneHandler {
	logger = defaultLogger(logger)
	return &ZoneHandler{service: service, logger: logger, responder: newResponder(logger)}
}

// Register mounts the zone routes on r.
func (h *ZoneHandler) Register(r chi.Router) {
	r.Get("/zone", h.Get)
	r.Post("/zone/evaluate", h.Evaluate)
}

// Get handles GET /zone.
func (h *ZoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toZoneDTO(h.service.Zone()))
}

// Evaluate handles POST /zone/evaluate.
func (h *ZoneHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := handlerLogger(ctx, h.logger, "ZoneHandler", "Evaluate")

	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.writeBindingError(ctx, w, err)
		return
	}

	eval := h.service.EvaluateLocation(location.Sample{Latitude: *req.Latitude, Longitude: *req.Longitude})
	logger.DebugContext(ctx, "position evaluated", "distance_meters", eval.DistanceMeters, "in_zone", eval.InZone)

	h.responder.writeJSON(ctx, w, http.StatusOK, evaluateResponse{
		DistanceMeters: eval.DistanceMeters,
		InZone:         eval.InZone,
		Badge:          application.BadgeText(application.LocationReady, eval.InZone),
	})
}

type pointDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type zoneDTO struct {
	Center       pointDTO `json:"center"`
	RadiusMeters float64  `json:"radius_meters"`
}

func toZoneDTO(z geo.Zone) zoneDTO {
	return zoneDTO{
		Center:       pointDTO{Latitude: z.Center.Latitude, Longitude: z.Center.Longitude},
		RadiusMeters: z.RadiusMeters,
	}
}

type evaluateRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

type evaluateResponse struct {
	DistanceMeters float64 `json:"distance_meters"`
	InZone         bool    `json:"in_zone"`
	Badge          string  `json:"badge"`
}
