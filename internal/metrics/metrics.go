// Package metrics exposes Prometheus instruments for check-ins and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for check-ins. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	CheckIns         *prometheus.CounterVec
	ZoneDistance     *prometheus.HistogramVec
	LocationFailures *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New registers all instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CheckIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_checkins_total",
			Help: "Check-in attempts by outcome (stored or the error kind)",
		}, []string{"outcome"}),
		ZoneDistance: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attendance_zone_distance_meters",
			Help:    "Distance between evaluated positions and the zone center",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 50000},
		}, []string{"in_zone"}),
		LocationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_location_failures_total",
			Help: "Failed location requests by reason",
		}, []string{"reason"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attendance_http_request_duration_seconds",
			Help:    "HTTP request duration by route pattern and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route", "status"}),
	}
}

// ObserveCheckIn counts one check-in attempt.
func (m *Metrics) ObserveCheckIn(outcome string) {
	if m == nil {
		return
	}
	m.CheckIns.WithLabelValues(outcome).Inc()
}

// ObserveDistance records the distance of an evaluated position.
func (m *Metrics) ObserveDistance(meters float64, inZone bool) {
	if m == nil {
		return
	}
	m.ZoneDistance.WithLabelValues(strconv.FormatBool(inZone)).Observe(meters)
}

// ObserveLocationFailure counts a failed location request.
func (m *Metrics) ObserveLocationFailure(reason string) {
	if m == nil {
		return
	}
	m.LocationFailures.WithLabelValues(reason).Inc()
}

// ObserveHTTP records one request. Call with time.Now() taken at the start.
func (m *Metrics) ObserveHTTP(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}
