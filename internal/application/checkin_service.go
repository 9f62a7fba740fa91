package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/geo-attendance/internal/attendance"
	"github.com/example/geo-attendance/internal/geo"
	"github.com/example/geo-attendance/internal/location"
)

// RecordStore captures the persistence operations needed by the service.
type RecordStore interface {
	Append(ctx context.Context, record attendance.Record) error
	ListAll(ctx context.Context) ([]attendance.Record, error)
}

// MetricsRecorder receives check-in outcomes. Implementations must be safe
// for concurrent use.
type MetricsRecorder interface {
	ObserveCheckIn(outcome string)
	ObserveDistance(meters float64, inZone bool)
	ObserveLocationFailure(reason string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveCheckIn(string)         {}
func (noopMetrics) ObserveDistance(float64, bool) {}
func (noopMetrics) ObserveLocationFailure(string) {}

// CheckInService validates check-ins against the zone and stores records.
type CheckInService struct {
	records     RecordStore
	zone        geo.Zone
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	metrics     MetricsRecorder
}

// NewCheckInService constructs a check-in service with the provided dependencies.
func NewCheckInService(records RecordStore, zone geo.Zone, idGenerator func() string, now func() time.Time) *CheckInService {
	return NewCheckInServiceWithLogger(records, zone, idGenerator, now, nil)
}

// NewCheckInServiceWithLogger constructs a check-in service with a specified logger.
func NewCheckInServiceWithLogger(records RecordStore, zone geo.Zone, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CheckInService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CheckInService{
		records:     records,
		zone:        zone,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		metrics:     noopMetrics{},
	}
}

// UseMetrics routes outcome observations to m.
func (s *CheckInService) UseMetrics(m MetricsRecorder) {
	if m == nil {
		m = noopMetrics{}
	}
	s.metrics = m
}

func (s *CheckInService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CheckInService", operation, attrs...)
}

// Zone returns the configured attendance zone.
func (s *CheckInService) Zone() geo.Zone {
	return s.zone
}

// EvaluateLocation measures sample against the zone.
func (s *CheckInService) EvaluateLocation(sample location.Sample) geo.Evaluation {
	eval := s.zone.Evaluate(sample.Point())
	s.metrics.ObserveDistance(eval.DistanceMeters, eval.InZone)
	return eval
}

// Validate checks params in order: required fields, presence of a position,
// zone membership.
func (s *CheckInService) Validate(params CheckInParams) error {
	vErr := validateCheckInInput(params)
	if vErr.HasErrors() {
		return vErr
	}

	if params.Location == nil {
		if params.LocationErr != nil {
			return &LocationUnavailableError{Cause: params.LocationErr}
		}
		return ErrLocationRequired
	}

	eval := s.zone.Evaluate(params.Location.Point())
	if !eval.InZone {
		return &OutsideZoneError{DistanceMeters: eval.DistanceMeters, RadiusMeters: s.zone.RadiusMeters}
	}
	return nil
}

// CheckIn validates params and appends a new record.
func (s *CheckInService) CheckIn(ctx context.Context, params CheckInParams) (record attendance.Record, err error) {
	if s == nil {
		err = fmt.Errorf("CheckInService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckIn", "name", strings.TrimSpace(params.Name))
	defer func() {
		if err != nil {
			s.metrics.ObserveCheckIn(ErrorKind(err))
			logger.ErrorContext(ctx, "failed to check in", "error", err, "error_kind", ErrorKind(err))
			return
		}
		s.metrics.ObserveCheckIn("stored")
		logger.With("record_id", record.ID, "in_zone", record.InZone).InfoContext(ctx, "attendance recorded")
	}()

	if err = s.Validate(params); err != nil {
		return
	}
	if s.records == nil {
		err = fmt.Errorf("%w: record store not configured", ErrSubmissionFailed)
		return
	}

	sample := *params.Location
	record = attendance.Record{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(params.Name),
		Note:        strings.TrimSpace(params.Note),
		Latitude:    sample.Latitude,
		Longitude:   sample.Longitude,
		Accuracy:    sample.Accuracy,
		SubmittedAt: attendance.FormatTimestamp(s.now()),
		InZone:      s.zone.Contains(sample.Point()),
	}

	if appendErr := s.records.Append(ctx, record); appendErr != nil {
		record = attendance.Record{}
		err = fmt.Errorf("%w: %w", ErrSubmissionFailed, appendErr)
		return
	}
	return
}

// ListRecords returns stored records, newest first.
func (s *CheckInService) ListRecords(ctx context.Context) (records []attendance.Record, err error) {
	logger := s.loggerWith(ctx, "ListRecords")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list records", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "records listed", "count", len(records))
	}()

	if s.records == nil {
		return []attendance.Record{}, nil
	}
	records, err = s.records.ListAll(ctx)
	return
}

// observeRejection logs and counts a check-in that failed validation before
// reaching CheckIn.
func (s *CheckInService) observeRejection(ctx context.Context, params CheckInParams, err error) {
	s.metrics.ObserveCheckIn(ErrorKind(err))
	attrs := []any{"error", err, "error_kind", ErrorKind(err)}
	if reason := location.Reason(params.LocationErr); reason != "" {
		attrs = append(attrs, "location_reason", reason)
	}
	s.loggerWith(ctx, "Validate", "name", strings.TrimSpace(params.Name)).WarnContext(ctx, "check-in rejected", attrs...)
}

func validateCheckInInput(params CheckInParams) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(params.Note) == "" {
		vErr.add("result", "result is required")
	}
	return vErr
}
