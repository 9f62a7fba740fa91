package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/geo-attendance/internal/logging"
	"github.com/example/geo-attendance/internal/persistence"
)

// ErrStorage wraps every failure to persist the record list.
var ErrStorage = errors.New("attendance: storage failure")

// Store persists records as one JSON array under a single key.
type Store struct {
	mu     sync.Mutex
	repo   persistence.KeyValueRepository
	key    string
	logger *slog.Logger
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore builds a Store over repo.
func NewStore(repo persistence.KeyValueRepository, opts ...StoreOption) *Store {
	s := &Store{repo: repo, key: DefaultKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key in use.
func (s *Store) Key() string {
	return s.key
}

// Append adds record to the end of the stored list. A missing list starts
// empty; a list that cannot be read or decoded fails with ErrStorage and is
// left untouched.
func (s *Store) Append(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(ctx)
	if err != nil {
		return err
	}
	records = append(records, record)

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode records: %v", ErrStorage, err)
	}
	if err := s.repo.Put(ctx, s.key, payload); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// ListAll returns every record, most recently appended first. Unreadable or
// corrupt data lists as empty.
func (s *Store) ListAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	records, err := s.read(ctx)
	s.mu.Unlock()
	if err != nil {
		s.loggerWith(ctx).WarnContext(ctx, "record list unreadable, treating as empty", slog.Any("error", err))
		records = nil
	}

	out := make([]Record, len(records))
	for i, r := range records {
		out[len(records)-1-i] = r
	}
	return out, nil
}

// read returns the stored list in append order. Callers hold s.mu.
func (s *Store) read(ctx context.Context) ([]Record, error) {
	raw, err := s.repo.Get(ctx, s.key)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: decode records: %v", ErrStorage, err)
	}
	return records, nil
}

func (s *Store) loggerWith(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger).With(slog.String("component", "attendance_store"), slog.String("key", s.key))
}
