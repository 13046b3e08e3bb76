package weather

import (
	"context"
	"time"
)

// Provider abstracts a weather data source (e.g. the Caiyun API).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Snapshot, error)
}

// Store is the contract the snapshot history stores must satisfy.
type Store interface {
	SaveSnapshot(rec Record) error
	GetLatest(loc Location) (Record, error)
	GetRange(loc Location, from, to time.Time) ([]Record, error)
}
