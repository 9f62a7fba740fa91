package application

import (
	"context"
	"slices"
	"sync"

	"github.com/example/geo-attendance/internal/attendance"
	"github.com/example/geo-attendance/internal/geo"
	"github.com/example/geo-attendance/internal/location"
)

// Form holds the state of one check-in form: the entered text, the latest
// position and the submission state machine
//
//	Idle -> Validating -> Rejected -> Idle
//	                   -> Submitting -> Stored -> Idle
//	                                 -> Failed -> Idle
//
// Location refreshes may overlap; only the result of the newest refresh is
// applied.
type Form struct {
	service  *CheckInService
	provider location.Provider
	request  location.Request

	mu         sync.Mutex
	name       string
	note       string
	status     LocationStatus
	sample     *location.Sample
	evaluation *geo.Evaluation
	locErr     error
	state      FormState
	generation uint64
	listeners  []func(attendance.Record)
}

// NewForm creates an idle form. The location status starts as loading until
// the first RefreshLocation completes.
func NewForm(service *CheckInService, provider location.Provider, req location.Request) *Form {
	return &Form{
		service:  service,
		provider: provider,
		request:  req,
		status:   LocationLoading,
		state:    StateIdle,
	}
}

// SetName updates the name field.
func (f *Form) SetName(name string) {
	f.mu.Lock()
	f.name = name
	f.mu.Unlock()
}

// SetNote updates the result field.
func (f *Form) SetNote(note string) {
	f.mu.Lock()
	f.note = note
	f.mu.Unlock()
}

// Name returns the current name field.
func (f *Form) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

// Note returns the current result field.
func (f *Form) Note() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.note
}

// State returns the current submission state.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// LocationStatus returns the status of the latest location request.
func (f *Form) LocationStatus() LocationStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Sample returns the last acquired position. A failed refresh clears it.
func (f *Form) Sample() (location.Sample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sample == nil {
		return location.Sample{}, false
	}
	return *f.sample, true
}

// Evaluation returns the zone evaluation of the last acquired position.
func (f *Form) Evaluation() (geo.Evaluation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.evaluation == nil {
		return geo.Evaluation{}, false
	}
	return *f.evaluation, true
}

// LocationErr returns the failure of the latest location request.
func (f *Form) LocationErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locErr
}

// Badge returns the location status text.
func (f *Form) Badge() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	inZone := f.evaluation != nil && f.evaluation.InZone
	return BadgeText(f.status, inZone)
}

// OnStored registers fn to run after every stored submission.
func (f *Form) OnStored(fn func(attendance.Record)) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

// RefreshLocation requests a new position and blocks until it arrives. A
// result that belongs to an older refresh than the newest one is discarded
// and a zero Notice is returned.
func (f *Form) RefreshLocation(ctx context.Context) Notice {
	f.mu.Lock()
	f.generation++
	gen := f.generation
	f.status = LocationLoading
	f.mu.Unlock()

	var res location.Result
	select {
	case res = <-location.Acquire(ctx, f.provider, f.request):
	case <-ctx.Done():
		res = location.Result{Err: ctx.Err()}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		return Notice{}
	}

	if res.Err != nil {
		f.status = LocationError
		f.locErr = res.Err
		f.sample = nil
		f.evaluation = nil
		f.service.metrics.ObserveLocationFailure(location.Reason(res.Err))
		f.service.loggerWith(ctx, "RefreshLocation").WarnContext(ctx, "location unavailable",
			"error", res.Err, "reason", location.Reason(res.Err))
		return LocationNotice(res.Err, nil)
	}

	sample := res.Sample
	eval := f.service.EvaluateLocation(sample)
	f.sample = &sample
	f.evaluation = &eval
	f.locErr = nil
	f.status = LocationReady

	if !eval.InZone {
		return LocationNotice(nil, &OutsideZoneError{DistanceMeters: eval.DistanceMeters, RadiusMeters: f.service.zone.RadiusMeters})
	}
	return Notice{}
}

// Submit runs one pass of the submission state machine.
func (f *Form) Submit(ctx context.Context) Outcome {
	f.mu.Lock()
	if f.state != StateIdle {
		f.mu.Unlock()
		return Outcome{State: StateRejected, Notice: NoticeFor(ErrFormBusy), Err: ErrFormBusy}
	}
	f.state = StateValidating
	params := CheckInParams{Name: f.name, Note: f.note}
	switch {
	case f.status == LocationError:
		params.LocationErr = f.locErr
	case f.sample != nil:
		sample := *f.sample
		params.Location = &sample
	}
	f.mu.Unlock()

	if err := f.service.Validate(params); err != nil {
		f.service.observeRejection(ctx, params, err)
		f.setState(StateIdle)
		return Outcome{State: StateRejected, Notice: NoticeFor(err), Err: err}
	}

	f.setState(StateSubmitting)
	record, err := f.service.CheckIn(ctx, params)
	if err != nil {
		f.setState(StateIdle)
		return Outcome{State: StateFailed, Notice: NoticeFor(err), Err: err}
	}

	f.mu.Lock()
	f.name = ""
	f.note = ""
	f.state = StateIdle
	listeners := slices.Clone(f.listeners)
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(record)
	}
	return Outcome{State: StateStored, Record: record, Notice: NoticeFor(nil)}
}

func (f *Form) setState(state FormState) {
	f.mu.Lock()
	f.state = state
	f.mu.Unlock()
}
