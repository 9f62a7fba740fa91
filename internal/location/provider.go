package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

//go:generate mockgen -source=provider.go -destination=mocks/provider_mock.go -package=mocks

// Provider acquires the current position.
type Provider interface {
	Locate(ctx context.Context, req Request) (Sample, error)
}

// Result is delivered once per Acquire call.
type Result struct {
	Sample Sample
	Err    error
}

// Acquire runs one location request in the background and delivers exactly one
// result on the returned channel. The channel is buffered so the worker never
// blocks when the caller has stopped listening. When req.Timeout elapses before
// the provider answers, ErrTimeout is delivered even if the provider ignores
// its context.
func Acquire(ctx context.Context, p Provider, req Request) <-chan Result {
	out := make(chan Result, 1)
	if p == nil {
		out <- Result{Err: ErrUnsupported}
		return out
	}

	go func() {
		var (
			reqCtx context.Context
			cancel context.CancelFunc
		)
		if req.Timeout > 0 {
			reqCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		} else {
			reqCtx, cancel = context.WithCancel(ctx)
		}
		defer cancel()

		located := make(chan Result, 1)
		go func() {
			sample, err := p.Locate(reqCtx, req)
			located <- Result{Sample: sample, Err: err}
		}()

		var res Result
		select {
		case res = <-located:
		case <-reqCtx.Done():
			res = Result{Err: reqCtx.Err()}
		}
		if res.Err != nil && errors.Is(res.Err, context.DeadlineExceeded) {
			res = Result{Err: fmt.Errorf("%w: no position within %s", ErrTimeout, req.Timeout)}
		}
		out <- res
	}()

	return out
}

// StaticProvider always reports the same sample.
type StaticProvider struct {
	sample Sample
	now    func() time.Time
}

// NewStaticProvider creates a provider for a fixed position. The capture time
// is taken from now on every call.
func NewStaticProvider(lat, lng, accuracy float64, now func() time.Time) *StaticProvider {
	if now == nil {
		now = time.Now
	}
	return &StaticProvider{
		sample: Sample{Latitude: lat, Longitude: lng, Accuracy: accuracy},
		now:    now,
	}
}

// Locate returns the fixed sample stamped with the current time.
func (s *StaticProvider) Locate(ctx context.Context, _ Request) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	sample := s.sample
	sample.CapturedAt = s.now()
	return sample, nil
}

// FailingProvider always reports the configured failure.
type FailingProvider struct {
	Err error
}

// Locate returns the configured error, or ErrPositionUnavailable when unset.
func (f FailingProvider) Locate(context.Context, Request) (Sample, error) {
	if f.Err == nil {
		return Sample{}, ErrPositionUnavailable
	}
	return Sample{}, f.Err
}

// ReportedProvider replays a position reported by a remote client.
type ReportedProvider struct {
	sample Sample
	err    error
	now    func() time.Time
}

// NewReportedProvider wraps a client-reported sample. When reportErr is set the
// client could not obtain a position and every call fails with it.
func NewReportedProvider(sample Sample, reportErr error, now func() time.Time) *ReportedProvider {
	if now == nil {
		now = time.Now
	}
	return &ReportedProvider{sample: sample, err: reportErr, now: now}
}

// Locate returns the reported sample if it is fresh enough for req.
func (r *ReportedProvider) Locate(ctx context.Context, req Request) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	if r.err != nil {
		return Sample{}, r.err
	}
	sample := r.sample
	now := r.now()
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = now
	}
	if req.MaxCachedAge > 0 && now.Sub(sample.CapturedAt) > req.MaxCachedAge {
		return Sample{}, fmt.Errorf("%w: sample captured %s ago", ErrPositionUnavailable, now.Sub(sample.CapturedAt).Round(time.Second))
	}
	return sample, nil
}

// CachingProvider reuses the last successful sample while it is younger than
// the request's MaxCachedAge.
type CachingProvider struct {
	next  Provider
	cache *sampleCache
}

// NewCachingProvider wraps next with a single-entry sample cache.
func NewCachingProvider(next Provider, now func() time.Time) *CachingProvider {
	return &CachingProvider{next: next, cache: newSampleCache(now)}
}

// Locate serves from the cache when possible and refreshes it otherwise.
func (c *CachingProvider) Locate(ctx context.Context, req Request) (Sample, error) {
	if sample, ok := c.cache.Get(req.MaxCachedAge); ok {
		return sample, nil
	}
	if c.next == nil {
		return Sample{}, ErrUnsupported
	}
	sample, err := c.next.Locate(ctx, req)
	if err != nil {
		return Sample{}, err
	}
	c.cache.Store(sample)
	return sample, nil
}

// Invalidate drops the cached sample.
func (c *CachingProvider) Invalidate() {
	c.cache.Invalidate()
}

type sampleCache struct {
	mu     sync.RWMutex
	now    func() time.Time
	sample Sample
	ok     bool
}

func newSampleCache(now func() time.Time) *sampleCache {
	if now == nil {
		now = time.Now
	}
	return &sampleCache{now: now}
}

func (c *sampleCache) Get(maxAge time.Duration) (Sample, bool) {
	if maxAge <= 0 {
		return Sample{}, false
	}
	c.mu.RLock()
	sample, ok := c.sample, c.ok
	c.mu.RUnlock()
	if !ok {
		return Sample{}, false
	}
	if c.now().Sub(sample.CapturedAt) > maxAge {
		c.Invalidate()
		return Sample{}, false
	}
	return sample, true
}

func (c *sampleCache) Store(sample Sample) {
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = c.now()
	}
	c.mu.Lock()
	c.sample = sample
	c.ok = true
	c.mu.Unlock()
}

func (c *sampleCache) Invalidate() {
	c.mu.Lock()
	c.sample = Sample{}
	c.ok = false
	c.mu.Unlock()
}
