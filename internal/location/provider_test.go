package location_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/example/geo-attendance/internal/location"
	"github.com/example/geo-attendance/internal/location/mocks"
	"github.com/example/geo-attendance/internal/testfixtures"
)

type blockingProvider struct{}

func (blockingProvider) Locate(context.Context, location.Request) (location.Sample, error) {
	select {}
}

func receive(t *testing.T, ch <-chan location.Result) location.Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("no location result delivered")
		return location.Result{}
	}
}

func TestAcquire(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})

	t.Run("delivers the provider sample", func(t *testing.T) {
		t.Parallel()
		p := location.NewStaticProvider(40.7128, -74.0060, 5, clock.NowFunc())
		res := receive(t, location.Acquire(context.Background(), p, location.DefaultRequest()))
		require.NoError(t, res.Err)
		assert.Equal(t, 40.7128, res.Sample.Latitude)
		assert.Equal(t, -74.0060, res.Sample.Longitude)
		assert.Equal(t, 5.0, res.Sample.Accuracy)
		assert.True(t, res.Sample.CapturedAt.Equal(clock.Now()))
	})

	t.Run("reports provider failures", func(t *testing.T) {
		t.Parallel()
		p := location.FailingProvider{Err: location.ErrPermissionDenied}
		res := receive(t, location.Acquire(context.Background(), p, location.DefaultRequest()))
		require.ErrorIs(t, res.Err, location.ErrPermissionDenied)
		assert.Equal(t, "permission_denied", location.Reason(res.Err))
	})

	t.Run("times out a provider that never answers", func(t *testing.T) {
		t.Parallel()
		req := location.Request{HighAccuracy: true, Timeout: 20 * time.Millisecond}
		res := receive(t, location.Acquire(context.Background(), blockingProvider{}, req))
		require.ErrorIs(t, res.Err, location.ErrTimeout)
		assert.Equal(t, "timeout", location.Reason(res.Err))
	})

	t.Run("nil provider is unsupported", func(t *testing.T) {
		t.Parallel()
		res := receive(t, location.Acquire(context.Background(), nil, location.DefaultRequest()))
		require.ErrorIs(t, res.Err, location.ErrUnsupported)
	})

	t.Run("passes the request through", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		p := mocks.NewMockProvider(ctrl)
		req := location.DefaultRequest()
		p.EXPECT().Locate(gomock.Any(), req).Return(location.Sample{Latitude: 1, Longitude: 2, Accuracy: 3}, nil)

		res := receive(t, location.Acquire(context.Background(), p, req))
		require.NoError(t, res.Err)
		assert.Equal(t, 2.0, res.Sample.Longitude)
	})
}

func TestReportedProvider(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	req := location.DefaultRequest()

	t.Run("stamps samples without capture time", func(t *testing.T) {
		p := location.NewReportedProvider(location.Sample{Latitude: 1, Longitude: 2}, nil, clock.NowFunc())
		sample, err := p.Locate(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, sample.CapturedAt.Equal(clock.Now()))
	})

	t.Run("accepts samples within the max age", func(t *testing.T) {
		captured := clock.Now().Add(-30 * time.Second)
		p := location.NewReportedProvider(location.Sample{Latitude: 1, CapturedAt: captured}, nil, clock.NowFunc())
		sample, err := p.Locate(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, sample.CapturedAt.Equal(captured))
	})

	t.Run("rejects stale samples", func(t *testing.T) {
		captured := clock.Now().Add(-2 * time.Minute)
		p := location.NewReportedProvider(location.Sample{Latitude: 1, CapturedAt: captured}, nil, clock.NowFunc())
		_, err := p.Locate(context.Background(), req)
		require.ErrorIs(t, err, location.ErrPositionUnavailable)
	})

	t.Run("replays client failures", func(t *testing.T) {
		p := location.NewReportedProvider(location.Sample{}, location.ErrTimeout, clock.NowFunc())
		_, err := p.Locate(context.Background(), req)
		require.ErrorIs(t, err, location.ErrTimeout)
	})
}

func TestCachingProvider(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := mocks.NewMockProvider(ctrl)
	clock := testfixtures.NewClock(time.Time{})
	req := location.DefaultRequest()

	first := location.Sample{Latitude: 1, Longitude: 1, Accuracy: 5, CapturedAt: clock.Now()}
	second := location.Sample{Latitude: 2, Longitude: 2, Accuracy: 5, CapturedAt: clock.Now().Add(2 * time.Minute)}

	gomock.InOrder(
		next.EXPECT().Locate(gomock.Any(), req).Return(first, nil),
		next.EXPECT().Locate(gomock.Any(), req).Return(second, nil),
		next.EXPECT().Locate(gomock.Any(), req).Return(location.Sample{}, location.ErrPermissionDenied),
	)

	p := location.NewCachingProvider(next, clock.NowFunc())

	got, err := p.Locate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	clock.Advance(30 * time.Second)
	got, err = p.Locate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, got, "sample younger than max age is reused")

	clock.Advance(2 * time.Minute)
	got, err = p.Locate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	p.Invalidate()
	_, err = p.Locate(context.Background(), req)
	require.ErrorIs(t, err, location.ErrPermissionDenied)
}

func TestReasonRoundTrip(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		location.ErrPermissionDenied,
		location.ErrTimeout,
		location.ErrPositionUnavailable,
		location.ErrUnsupported,
	} {
		assert.True(t, errors.Is(location.ParseReason(location.Reason(err)), err))
	}
	assert.Equal(t, "", location.Reason(nil))
	assert.ErrorIs(t, location.ParseReason("bogus"), location.ErrPositionUnavailable)
}
