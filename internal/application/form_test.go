package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/example/geo-attendance/internal/application"
	"github.com/example/geo-attendance/internal/attendance"
	"github.com/example/geo-attendance/internal/location"
	"github.com/example/geo-attendance/internal/location/mocks"
	"github.com/example/geo-attendance/internal/persistence/memory"
	"github.com/example/geo-attendance/internal/testfixtures"
)

func TestFormAliceScenario(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newService(t, memory.Open())
	center := testfixtures.Zone().Center
	provider := location.NewStaticProvider(center.Latitude, center.Longitude, 5, clock.NowFunc())

	form := application.NewForm(svc, provider, location.DefaultRequest())
	assert.Equal(t, application.BadgeLoading, form.Badge())

	notice := form.RefreshLocation(ctx)
	assert.True(t, notice.IsZero())
	assert.Equal(t, application.LocationReady, form.LocationStatus())
	assert.Equal(t, application.BadgeInZone, form.Badge())

	var notified []attendance.Record
	form.OnStored(func(r attendance.Record) { notified = append(notified, r) })

	form.SetName("Alice")
	form.SetNote("present")
	outcome := form.Submit(ctx)

	require.NoError(t, outcome.Err)
	assert.Equal(t, application.StateStored, outcome.State)
	assert.Equal(t, "Attendance submitted!", outcome.Notice.Title)
	assert.Equal(t, application.VariantDefault, outcome.Notice.Variant)
	assert.Equal(t, application.StateIdle, form.State())
	assert.Empty(t, form.Name())
	assert.Empty(t, form.Note())
	require.Len(t, notified, 1)

	records, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	first := records[0]
	assert.Equal(t, "Alice", first.Name)
	assert.Equal(t, "present", first.Note)
	assert.Equal(t, 5.0, first.Accuracy)
	assert.True(t, first.InZone)
	assert.Equal(t, notified[0], first)
}

func TestFormRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("missing information", func(t *testing.T) {
		svc, store, clock := newService(t, memory.Open())
		center := testfixtures.Zone().Center
		form := application.NewForm(svc, location.NewStaticProvider(center.Latitude, center.Longitude, 5, clock.NowFunc()), location.DefaultRequest())
		form.RefreshLocation(ctx)
		form.SetName("Alice")

		outcome := form.Submit(ctx)
		assert.Equal(t, application.StateRejected, outcome.State)
		assert.Equal(t, "Missing information", outcome.Notice.Title)
		assert.Equal(t, application.VariantDestructive, outcome.Notice.Variant)
		assert.Equal(t, application.StateIdle, form.State())
		assert.Equal(t, "Alice", form.Name())

		records, _ := store.ListAll(ctx)
		assert.Empty(t, records)
	})

	t.Run("location required before any fix", func(t *testing.T) {
		svc, _, _ := newService(t, memory.Open())
		form := application.NewForm(svc, nil, location.DefaultRequest())
		form.SetName("Alice")
		form.SetNote("present")

		outcome := form.Submit(ctx)
		assert.ErrorIs(t, outcome.Err, application.ErrLocationRequired)
		assert.Equal(t, "Location required", outcome.Notice.Title)
	})

	t.Run("outside zone", func(t *testing.T) {
		svc, store, clock := newService(t, memory.Open())
		far := testfixtures.OutsidePoint()
		form := application.NewForm(svc, location.NewStaticProvider(far.Latitude, far.Longitude, 5, clock.NowFunc()), location.DefaultRequest())

		notice := form.RefreshLocation(ctx)
		assert.Equal(t, "Outside allowed zone", notice.Title)
		assert.Equal(t, "You are 1112m from the attendance zone.", notice.Description)
		assert.Equal(t, application.BadgeOutsideZone, form.Badge())

		form.SetName("Alice")
		form.SetNote("present")
		outcome := form.Submit(ctx)
		assert.Equal(t, application.StateRejected, outcome.State)
		assert.Equal(t, "Outside attendance zone", outcome.Notice.Title)

		records, _ := store.ListAll(ctx)
		assert.Empty(t, records)
	})
}

func TestFormLocationFailures(t *testing.T) {
	ctx := context.Background()
	metrics := &recordingMetrics{}
	svc, _, _ := newService(t, memory.Open())
	svc.UseMetrics(metrics)

	tests := []struct {
		name        string
		provider    location.Provider
		title       string
		reason      string
		description string
	}{
		{name: "denied", provider: location.FailingProvider{Err: location.ErrPermissionDenied}, title: "Location access denied", reason: "permission_denied", description: "Please enable location access to submit attendance."},
		{name: "unsupported", provider: nil, title: "Location not supported", reason: "unsupported", description: "This device doesn't support geolocation."},
		{name: "timeout", provider: location.FailingProvider{Err: location.ErrTimeout}, title: "Location timed out", reason: "timeout", description: "Your position could not be determined in time. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := application.NewForm(svc, tt.provider, location.DefaultRequest())
			notice := form.RefreshLocation(ctx)
			assert.Equal(t, tt.title, notice.Title)
			assert.Equal(t, application.LocationError, form.LocationStatus())
			assert.Equal(t, application.BadgeUnavailable, form.Badge())

			form.SetName("Alice")
			form.SetNote("present")
			outcome := form.Submit(ctx)
			assert.ErrorIs(t, outcome.Err, application.ErrLocationUnavailable)
			assert.Equal(t, tt.reason, location.Reason(outcome.Err))
			assert.Equal(t, "Location required", outcome.Notice.Title)
			assert.Equal(t, tt.description, outcome.Notice.Description)
		})
	}

	assert.Equal(t, []string{"permission_denied", "unsupported", "timeout"}, metrics.failures)
}

func TestFormFailedRefreshBlocksSubmit(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	ctx := context.Background()
	svc, store, _ := newService(t, memory.Open())

	gomock.InOrder(
		provider.EXPECT().Locate(gomock.Any(), gomock.Any()).Return(testfixtures.NewSample(), nil),
		provider.EXPECT().Locate(gomock.Any(), gomock.Any()).Return(location.Sample{}, location.ErrPermissionDenied),
	)

	form := application.NewForm(svc, provider, location.DefaultRequest())
	require.True(t, form.RefreshLocation(ctx).IsZero())
	require.Equal(t, application.BadgeInZone, form.Badge())

	notice := form.RefreshLocation(ctx)
	assert.Equal(t, "Location access denied", notice.Title)
	assert.Equal(t, application.BadgeUnavailable, form.Badge())
	_, ok := form.Sample()
	assert.False(t, ok)
	_, ok = form.Evaluation()
	assert.False(t, ok)

	form.SetName("Alice")
	form.SetNote("present")
	outcome := form.Submit(ctx)
	assert.Equal(t, application.StateRejected, outcome.State)
	assert.ErrorIs(t, outcome.Err, application.ErrLocationUnavailable)
	assert.ErrorIs(t, outcome.Err, location.ErrPermissionDenied)
	assert.Equal(t, "Alice", form.Name())

	records, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFormRecoversAfterSuccessfulRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	ctx := context.Background()
	svc, store, _ := newService(t, memory.Open())

	gomock.InOrder(
		provider.EXPECT().Locate(gomock.Any(), gomock.Any()).Return(location.Sample{}, location.ErrTimeout),
		provider.EXPECT().Locate(gomock.Any(), gomock.Any()).Return(testfixtures.NewSample(), nil),
	)

	form := application.NewForm(svc, provider, location.DefaultRequest())
	form.RefreshLocation(ctx)
	require.Equal(t, application.LocationError, form.LocationStatus())
	form.RefreshLocation(ctx)
	require.Equal(t, application.LocationReady, form.LocationStatus())
	assert.NoError(t, form.LocationErr())

	form.SetName("Alice")
	form.SetNote("present")
	outcome := form.Submit(ctx)
	require.NoError(t, outcome.Err)

	records, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFormReusesCachedSample(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	ctx := context.Background()
	svc, _, _ := newService(t, memory.Open())

	sample := testfixtures.NewSample()
	provider.EXPECT().
		Locate(gomock.Any(), gomock.Any()).
		Return(sample, nil).
		Times(1)

	now := func() time.Time { return sample.CapturedAt.Add(30 * time.Second) }
	form := application.NewForm(svc, location.NewCachingProvider(provider, now), location.DefaultRequest())
	form.RefreshLocation(ctx)
	form.RefreshLocation(ctx)

	got, ok := form.Sample()
	require.True(t, ok)
	assert.Equal(t, sample, got)
	assert.Equal(t, application.BadgeInZone, form.Badge())
}

func TestFormStorageFailureKeepsText(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newService(t, memory.Open(memory.WithQuota(8)))
	center := testfixtures.Zone().Center
	form := application.NewForm(svc, location.NewStaticProvider(center.Latitude, center.Longitude, 5, clock.NowFunc()), location.DefaultRequest())
	form.RefreshLocation(ctx)

	stored := 0
	form.OnStored(func(attendance.Record) { stored++ })
	form.SetName("Alice")
	form.SetNote("present")

	outcome := form.Submit(ctx)
	assert.Equal(t, application.StateFailed, outcome.State)
	assert.ErrorIs(t, outcome.Err, application.ErrSubmissionFailed)
	assert.Equal(t, "Submission failed", outcome.Notice.Title)
	assert.Equal(t, "Alice", form.Name())
	assert.Equal(t, "present", form.Note())
	assert.Equal(t, application.StateIdle, form.State())
	assert.Zero(t, stored)
}

// gatedProvider blocks its first call until release is closed.
type gatedProvider struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
	samples []location.Sample
}

func (p *gatedProvider) Locate(ctx context.Context, _ location.Request) (location.Sample, error) {
	p.mu.Lock()
	call := p.calls
	p.calls++
	p.mu.Unlock()

	if call == 0 {
		close(p.entered)
		select {
		case <-p.release:
		case <-ctx.Done():
			return location.Sample{}, ctx.Err()
		}
	}
	return p.samples[call], nil
}

func TestFormLatestRefreshWins(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, memory.Open())

	slowFar := testfixtures.NewSample(testfixtures.WithSamplePoint(testfixtures.OutsidePoint()))
	fastNear := testfixtures.NewSample()
	provider := &gatedProvider{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		samples: []location.Sample{slowFar, fastNear},
	}
	form := application.NewForm(svc, provider, location.DefaultRequest())

	firstDone := make(chan application.Notice, 1)
	go func() { firstDone <- form.RefreshLocation(ctx) }()
	<-provider.entered

	second := form.RefreshLocation(ctx)
	assert.True(t, second.IsZero())

	close(provider.release)
	select {
	case first := <-firstDone:
		assert.True(t, first.IsZero(), "stale refresh must not produce a notice")
	case <-time.After(5 * time.Second):
		t.Fatal("first refresh did not finish")
	}

	sample, ok := form.Sample()
	require.True(t, ok)
	assert.Equal(t, fastNear, sample)
	assert.Equal(t, application.BadgeInZone, form.Badge())
}

func TestFormWithMockProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	ctx := context.Background()
	svc, _, _ := newService(t, memory.Open())

	sample := testfixtures.NewSample(testfixtures.WithSampleAccuracy(12))
	provider.EXPECT().
		Locate(gomock.Any(), location.DefaultRequest()).
		Return(sample, nil).
		Times(1)

	form := application.NewForm(svc, provider, location.DefaultRequest())
	form.RefreshLocation(ctx)
	form.SetName("Bob")
	form.SetNote("late")

	outcome := form.Submit(ctx)
	require.NoError(t, outcome.Err)
	assert.Equal(t, 12.0, outcome.Record.Accuracy)
}
