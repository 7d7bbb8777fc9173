package weather

import (
	"context"
	"fmt"
	"log"
	"time"
)

// forecastHours limits the "upcoming hours" strip.
const forecastHours = 8

// NoDataMessage is shown when a query matches no stored rows.
const NoDataMessage = "No weather data found. Ensure the ETL has loaded data into the database."

// QueryService serves the dashboard's read path. It only issues read queries.
type QueryService struct {
	reader Reader
}

// NewQueryService creates a new QueryService.
func NewQueryService(reader Reader) *QueryService {
	return &QueryService{reader: reader}
}

// Cities lists the distinct cities present in storage.
func (s *QueryService) Cities(ctx context.Context) ([]string, error) {
	return s.reader.Cities(ctx)
}

// Series returns the ascending rows matching q. An empty result is not an error.
func (s *QueryService) Series(ctx context.Context, q SeriesQuery) (SeriesView, error) {
	if q.Start.After(q.End) {
		return SeriesView{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, q.Start.Format(time.RFC3339), q.End.Format(time.RFC3339))
	}
	rows, err := s.reader.Range(ctx, q)
	if err != nil {
		return SeriesView{}, err
	}
	log.Printf("DEBUG: query: %d row(s) for city=%q in [%s, %s]", len(rows), q.City, q.Start.Format(time.RFC3339), q.End.Format(time.RFC3339))
	return NewSeriesView(q, rows), nil
}

// Hero holds the headline metrics rendered from the latest row.
type Hero struct {
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Temperature string    `json:"temperature"`
	FeelsLike   string    `json:"feelsLike"`
	TempMin     string    `json:"tempMin"`
	TempMax     string    `json:"tempMax"`
	Humidity    float64   `json:"humidityPercent"`
	WindSpeed   *float64  `json:"windSpeed"`
	Pressure    *float64  `json:"pressureHpa"`
	WeatherMain string    `json:"weatherMain"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	ObservedAt  time.Time `json:"observedAt"`
}

// Dashboard is everything the display layer needs for one (city, range, unit).
type Dashboard struct {
	Query          SeriesQuery     `json:"query"`
	Unit           string          `json:"unit"`
	NoData         bool            `json:"noData"`
	Message        string          `json:"message,omitempty"`
	Hero           *Hero           `json:"hero,omitempty"`
	HourlyForecast []ForecastPoint `json:"hourlyForecast,omitempty"`

	Humidity  []HourlyPoint `json:"humidity,omitempty"`
	Pressure  []HourlyPoint `json:"pressure,omitempty"`
	WindSpeed []HourlyPoint `json:"windSpeed,omitempty"`
}

// Dashboard builds the rendered view. Empty storage yields NoData rather than an error.
func (s *QueryService) Dashboard(ctx context.Context, q SeriesQuery, useFahrenheit bool) (Dashboard, error) {
	view, err := s.Series(ctx, q)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(view, useFahrenheit), nil
}

// BuildDashboard derives the dashboard from a SeriesView.
func BuildDashboard(view SeriesView, useFahrenheit bool) Dashboard {
	d := Dashboard{Query: view.Query, Unit: UnitSymbol(useFahrenheit)}

	latest, ok := view.Latest()
	if !ok {
		d.NoData = true
		d.Message = NoDataMessage
		return d
	}

	d.Hero = &Hero{
		City:        latest.City,
		Country:     latest.SysCountry,
		Temperature: FormatTemperature(latest.TemperatureC, useFahrenheit),
		FeelsLike:   FormatTemperature(latest.ThermalSensationC, useFahrenheit),
		TempMin:     FormatTemperature(latest.TempMinC, useFahrenheit),
		TempMax:     FormatTemperature(latest.TempMaxC, useFahrenheit),
		Humidity:    latest.Humidity,
		WindSpeed:   latest.WindSpeed,
		Pressure:    latest.Pressure,
		WeatherMain: latest.WeatherMain,
		Description: latest.WeatherDescription,
		Icon:        latest.WeatherIcon,
		ObservedAt:  latest.CollectionTimestamp,
	}

	forecast := view.HourlyForecast(forecastHours)
	for i := range forecast {
		forecast[i].Temperature = ToDisplayUnit(forecast[i].Temperature, useFahrenheit)
	}
	d.HourlyForecast = forecast

	d.Humidity = view.HourlyMean(MetricHumidity)
	d.Pressure = view.HourlyMean(MetricPressure)
	d.WindSpeed = view.HourlyMean(MetricWindSpeed)
	return d
}

// ConvertPoints applies the display unit to temperature series in place.
func ConvertPoints(points []HourlyPoint, m Metric, useFahrenheit bool) []HourlyPoint {
	if !m.IsTemperature() {
		return points
	}
	for i := range points {
		points[i].Value = ToDisplayUnit(points[i].Value, useFahrenheit)
	}
	return points
}
