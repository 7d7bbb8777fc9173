package main

import (
	"fmt"
	"net/http"

	"github.com/i474232898/weather-pipeline/internal/config"
	"github.com/i474232898/weather-pipeline/internal/store"
	"github.com/i474232898/weather-pipeline/internal/weather"
	"github.com/i474232898/weather-pipeline/internal/weather/providers"
)

// app holds the components shared by the subcommands.
type app struct {
	cfg      *config.AppConfig
	db       *store.Postgres
	pipeline *weather.Pipeline
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := store.Open(cfg.Database.Store())
	if err != nil {
		return nil, err
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	fetcher := providers.NewOpenWeatherFetcher(
		providers.HTTPClientConfig{Client: httpClient},
		cfg.OpenWeatherBaseURL,
		cfg.OpenWeatherAPIKey,
	)

	pipeline := weather.NewPipeline(cfg.City, fetcher, weather.NewNormalizer(), db)

	return &app{cfg: cfg, db: db, pipeline: pipeline}, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
