package config

import (
	"net/url"
	"testing"
	"time"
)

var configEnv = []string{
	"OPENWEATHER_API_KEY", "OPENWEATHER_BASE_URL", "WEATHER_CITY",
	"FETCH_INTERVAL", "HTTP_TIMEOUT", "DASHBOARD_REFRESH_INTERVAL", "CACHE_MAX_ENTRIES", "PORT",
	"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_DBNAME", "DB_NAME", "DB_SSLMODE", "DB_SCHEMA",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.City != "Rio de Janeiro" {
		t.Errorf("unexpected city %q", cfg.City)
	}
	if cfg.FetchInterval != 2*time.Minute || cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("unexpected intervals %v / %v", cfg.FetchInterval, cfg.HTTPTimeout)
	}
	if cfg.RefreshInterval != 2*time.Minute || cfg.CacheMaxEntries != 64 {
		t.Errorf("unexpected cache settings %v / %d", cfg.RefreshInterval, cfg.CacheMaxEntries)
	}
	if cfg.Database.SSLMode != "require" || cfg.Database.Schema != "weather" || cfg.Database.Name != "postgres" {
		t.Errorf("unexpected database defaults %+v", cfg.Database)
	}
	if cfg.Port != "8080" {
		t.Errorf("unexpected port %q", cfg.Port)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_CITY", "Lisbon")
	t.Setenv("FETCH_INTERVAL", "5m")
	t.Setenv("DB_NAME", "legacy")
	t.Setenv("DB_SSLMODE", "disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.City != "Lisbon" || cfg.FetchInterval != 5*time.Minute {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Database.Name != "legacy" {
		t.Errorf("expected DB_NAME fallback, got %q", cfg.Database.Name)
	}

	t.Setenv("DB_DBNAME", "weatherdb")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Name != "weatherdb" {
		t.Errorf("expected DB_DBNAME to win, got %q", cfg.Database.Name)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"FETCH_INTERVAL", "often"},
		{"FETCH_INTERVAL", "0s"},
		{"HTTP_TIMEOUT", "-1s"},
		{"CACHE_MAX_ENTRIES", "many"},
		{"DB_SSLMODE", "sometimes"},
		{"PORT", "http"},
		{"OPENWEATHER_BASE_URL", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestDSNEscapesCredentials(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.example.com",
		Port:     "5432",
		User:     "weather",
		Password: "p@ss/w:rd?",
		Name:     "weather",
		SSLMode:  "require",
	}

	u, err := url.Parse(d.DSN())
	if err != nil {
		t.Fatalf("dsn does not parse: %v", err)
	}
	if pw, _ := u.User.Password(); pw != d.Password {
		t.Errorf("password did not round trip: %q", pw)
	}
	if u.Host != "db.example.com:5432" || u.Path != "/weather" {
		t.Errorf("unexpected host/path %q %q", u.Host, u.Path)
	}
	if u.Query().Get("sslmode") != "require" {
		t.Errorf("unexpected sslmode %q", u.Query().Get("sslmode"))
	}
}

func TestDSNPrefersURL(t *testing.T) {
	d := DatabaseConfig{URL: "postgres://u@h/db", Host: "ignored"}
	if d.DSN() != "postgres://u@h/db" {
		t.Errorf("expected DATABASE_URL to win, got %q", d.DSN())
	}
}
