package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-pipeline/internal/weather"
)

// DefaultOpenWeatherBaseURL is the provider base; "/weather" is appended.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// OpenWeatherFetcher implements the weather.Fetcher interface for OpenWeatherMap.
type OpenWeatherFetcher struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

var _ weather.Fetcher = (*OpenWeatherFetcher)(nil)

func NewOpenWeatherFetcher(cfg HTTPClientConfig, baseURL, apiKey string) *OpenWeatherFetcher {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	return &OpenWeatherFetcher{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  cfg.Client,
		circuit: newBreaker("openweather", cfg),
	}
}

func (p *OpenWeatherFetcher) Name() string {
	return p.name
}

// Fetch issues a single current-weather request for city.
func (p *OpenWeatherFetcher) Fetch(ctx context.Context, city string) (weather.RawObservation, error) {
	if p.apiKey == "" {
		return weather.RawObservation{}, fmt.Errorf("%w: openweather api key is not configured", weather.ErrAuth)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city)
		values.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s/weather?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.RawObservation{}, err
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return weather.RawObservation{}, fmt.Errorf("openweather %q: %w", city, err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return weather.RawObservation{}, fmt.Errorf("%w: reading body: %v", weather.ErrTransient, err)
	}

	var obs weather.RawObservation
	if err := json.Unmarshal(body, &obs); err != nil {
		return weather.RawObservation{}, fmt.Errorf("%w: %v", weather.ErrMalformedResponse, err)
	}
	return obs, nil
}
