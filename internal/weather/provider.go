package weather

import (
	"context"
)

// Fetcher abstracts the external weather API (e.g. OpenWeatherMap).
// Implementations make one attempt per call and never retry.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, city string) (RawObservation, error)
}

// Sink is the write side of durable storage.
type Sink interface {
	// Provision idempotently creates the namespace and table.
	Provision(ctx context.Context) error
	// Append inserts rows as one all-or-nothing batch.
	Append(ctx context.Context, rows []WeatherRow) error
}

// Reader is the read side of durable storage consumed by the dashboard.
type Reader interface {
	Cities(ctx context.Context) ([]string, error)
	Range(ctx context.Context, q SeriesQuery) ([]WeatherRow, error)
}
