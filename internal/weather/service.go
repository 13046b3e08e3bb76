package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNoProvider is returned by Fetch when the service has no providers.
var ErrNoProvider = errors.New("no weather providers configured")

// Service fetches snapshots from providers and records them in the store.
type Service struct {
	store     Store
	providers []Provider
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new Service. Providers are tried in order; the first
// successful snapshot wins.
func NewService(store Store, providers []Provider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		providers: providers,
		logger:    logger.Named("weather-service"),
		now:       time.Now,
	}
}

// Fetch returns a fresh snapshot for the coordinates. Empty coordinates are
// forwarded as-is. A failure to record the snapshot is logged but does not
// fail the fetch.
func (s *Service) Fetch(ctx context.Context, lng, lat string) (Snapshot, error) {
	loc := Location{Lng: lng, Lat: lat}

	if len(s.providers) == 0 {
		s.logger.Error("no providers available", zap.String("location", loc.Key()))
		return Snapshot{}, ErrNoProvider
	}

	var errs []error
	for _, p := range s.providers {
		snap, err := p.Fetch(ctx, loc)
		if err != nil {
			s.logger.Warn("provider fetch failed",
				zap.String("provider", p.Name()),
				zap.String("location", loc.Key()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		s.record(Record{
			Location:  loc,
			FetchedAt: s.now().UTC(),
			Provider:  p.Name(),
			Snapshot:  snap,
		})
		return snap, nil
	}

	return Snapshot{}, fmt.Errorf("fetch weather for %s: %w", loc.Key(), errors.Join(errs...))
}

func (s *Service) record(rec Record) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveSnapshot(rec); err != nil {
		s.logger.Warn("failed to record snapshot",
			zap.String("location", rec.Location.Key()),
			zap.Error(err))
	}
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (Record, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]Record, error) {
	return s.store.GetRange(loc, from, to)
}

// Providers returns the provider names in the order they are tried.
func (s *Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}
