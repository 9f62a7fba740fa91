package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/example/geo-attendance/internal/persistence"
)

func TestStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing key reports not found", func(t *testing.T) {
		t.Parallel()
		s := Open()
		if _, err := s.Get(ctx, "absent"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("put replaces and copies values", func(t *testing.T) {
		t.Parallel()
		s := Open()
		value := []byte("first")
		if err := s.Put(ctx, "k", value); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		value[0] = 'X'

		got, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "first" {
			t.Fatalf("expected stored copy to be unaffected, got %q", got)
		}
		got[0] = 'Y'

		if err := s.Put(ctx, "k", []byte("second")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		again, _ := s.Get(ctx, "k")
		if string(again) != "second" {
			t.Fatalf("expected replacement value, got %q", again)
		}
		if keys := s.Keys(); len(keys) != 1 || keys[0] != "k" {
			t.Fatalf("unexpected keys: %v", keys)
		}
	})

	t.Run("quota rejects oversized values", func(t *testing.T) {
		t.Parallel()
		s := Open(WithQuota(4))
		if err := s.Put(ctx, "k", []byte("12345")); !errors.Is(err, persistence.ErrQuotaExceeded) {
			t.Fatalf("expected ErrQuotaExceeded, got %v", err)
		}
		if _, err := s.Get(ctx, "k"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected rejected value to be absent, got %v", err)
		}
	})

	t.Run("cancelled context is honoured", func(t *testing.T) {
		t.Parallel()
		s := Open()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if err := s.Put(cancelled, "k", []byte("v")); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
