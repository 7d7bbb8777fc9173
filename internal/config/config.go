package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-pipeline/internal/store"
)

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string `validate:"required,url"`

	// City is the single location this deployment tracks.
	City string `validate:"required"`

	// FetchInterval controls how often the pipeline runs.
	FetchInterval time.Duration `validate:"gt=0"`
	HTTPTimeout   time.Duration `validate:"gt=0"`

	Database DatabaseConfig

	// Read-side cache.
	RefreshInterval time.Duration // minimum time between identical storage reads (0 = no cache)
	CacheMaxEntries int           `validate:"gte=0"`

	Port string `validate:"required,numeric"`
}

// DatabaseConfig holds the storage endpoint. URL, when set, wins over the parts.
type DatabaseConfig struct {
	URL      string
	Host     string `validate:"required_without=URL"`
	Port     string `validate:"required_without=URL"`
	User     string `validate:"required_without=URL"`
	Password string
	Name     string `validate:"required_without=URL"`
	SSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	Schema   string `validate:"required"`
}

// DSN builds a libpq connection URL with the password escaped.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + d.Port,
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	q.Set("connect_timeout", "10")
	u.RawQuery = q.Encode()
	return u.String()
}

// Store converts the settings for store.Open.
func (d DatabaseConfig) Store() store.Config {
	return store.Config{DSN: d.DSN(), Schema: d.Schema}
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")
	cfg.City = getenvDefault("WEATHER_CITY", "Rio de Janeiro")

	var err error
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "2m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("DASHBOARD_REFRESH_INTERVAL", "2m"); err != nil {
		return nil, err
	}
	if cfg.CacheMaxEntries, err = getenvInt("CACHE_MAX_ENTRIES", 64); err != nil {
		return nil, err
	}
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.Database = DatabaseConfig{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     getenvDefault("DB_HOST", "localhost"),
		Port:     getenvDefault("DB_PORT", "5432"),
		User:     getenvDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     getenvDefault("DB_DBNAME", getenvDefault("DB_NAME", "postgres")),
		SSLMode:  getenvDefault("DB_SSLMODE", "require"),
		Schema:   getenvDefault("DB_SCHEMA", store.DefaultSchema),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
