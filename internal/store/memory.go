package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/sunnyweather/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given location.
	ErrNotFound = errors.New("no weather data for location")
)

// MemoryStore is a concurrency-safe in-memory snapshot history.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: records ordered by FetchedAt
	data map[string][]weather.Record

	maxHistory int           // max number of records per location
	maxAge     time.Duration // optional max age for records
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory or maxAge is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string][]weather.Record),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot appends a record and enforces retention.
func (s *MemoryStore) SaveSnapshot(rec weather.Record) error {
	key := rec.Location.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.data[key], rec)

	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for i < len(history) && history[i].FetchedAt.Before(cutoff) {
			i++
		}
		history = history[i:]
	}

	s.data[key] = history
	return nil
}

// GetLatest returns the most recent record for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[loc.Key()]
	if len(history) == 0 {
		return weather.Record{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// GetRange returns all records for a location fetched between from and to (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.Record
	for _, rec := range s.data[loc.Key()] {
		if !rec.FetchedAt.Before(from) && !rec.FetchedAt.After(to) {
			result = append(result, rec)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
