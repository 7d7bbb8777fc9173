package weather

import (
	"time"
)

const (
	// KelvinOffset converts Kelvin to Celsius: C = K - KelvinOffset.
	KelvinOffset = 273.15

	// IconBaseURL is the provider's condition icon path.
	IconBaseURL = "https://openweathermap.org/img/wn/"
	iconSuffix  = "@2x.png"
)

// Normalizer turns a provider document into a WeatherRow.
// It does no I/O; the clock is its only input besides the observation.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer returns a Normalizer stamping rows with the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerWithClock is used where the collection time must be fixed.
func NewNormalizerWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalization is the result of one Normalize call.
// ExtraConditions counts condition entries beyond the first one, which are ignored.
type Normalization struct {
	Row             WeatherRow
	ExtraConditions int
}

// Normalize validates raw and builds a complete row, or fails with
// ErrSchemaViolation. It never returns a partially filled row.
func (n *Normalizer) Normalize(raw RawObservation) (Normalization, error) {
	if len(raw.Weather) == 0 {
		return Normalization{}, schemaViolation("weather[0]")
	}
	cond := raw.Weather[0]

	required := []struct {
		field string
		ok    bool
	}{
		{"name", nonEmpty(raw.Name)},
		{"timezone", raw.Timezone != nil},
		{"coord.lat", raw.Coord.Lat != nil},
		{"coord.lon", raw.Coord.Lon != nil},
		{"main.temp", raw.Main.Temp != nil},
		{"main.feels_like", raw.Main.FeelsLike != nil},
		{"main.temp_min", raw.Main.TempMin != nil},
		{"main.temp_max", raw.Main.TempMax != nil},
		{"main.humidity", raw.Main.Humidity != nil},
		{"weather[0].id", cond.ID != nil},
		{"weather[0].main", nonEmpty(cond.Main)},
		{"weather[0].description", cond.Description != nil},
		{"weather[0].icon", nonEmpty(cond.Icon)},
		{"sys.id", raw.Sys.ID != nil},
		{"sys.country", nonEmpty(raw.Sys.Country)},
		{"sys.sunrise", raw.Sys.Sunrise != nil},
		{"sys.sunset", raw.Sys.Sunset != nil},
	}
	for _, r := range required {
		if !r.ok {
			return Normalization{}, schemaViolation(r.field)
		}
	}

	tz := *raw.Timezone
	row := WeatherRow{
		City:      *raw.Name,
		Latitude:  *raw.Coord.Lat,
		Longitude: *raw.Coord.Lon,

		TemperatureK:      *raw.Main.Temp,
		ThermalSensationK: *raw.Main.FeelsLike,
		TempMinK:          *raw.Main.TempMin,
		TempMaxK:          *raw.Main.TempMax,
		TemperatureC:      KelvinToCelsius(*raw.Main.Temp),
		ThermalSensationC: KelvinToCelsius(*raw.Main.FeelsLike),
		TempMinC:          KelvinToCelsius(*raw.Main.TempMin),
		TempMaxC:          KelvinToCelsius(*raw.Main.TempMax),

		Humidity:      *raw.Main.Humidity,
		Pressure:      copyFloat(raw.Main.Pressure),
		WindSpeed:     copyFloat(raw.Wind.Speed),
		WindDirection: copyFloat(raw.Wind.Deg),

		WeatherID:          *cond.ID,
		WeatherMain:        *cond.Main,
		WeatherDescription: *cond.Description,
		WeatherIcon:        IconURL(*cond.Icon),

		SysID:      *raw.Sys.ID,
		SysCountry: *raw.Sys.Country,
		// Offset-shifted local time stored as if it were UTC.
		SysSunrise: shiftedTimestamp(*raw.Sys.Sunrise, tz),
		SysSunset:  shiftedTimestamp(*raw.Sys.Sunset, tz),

		CollectionTimestamp: n.now().UTC(),
	}

	return Normalization{Row: row, ExtraConditions: len(raw.Weather) - 1}, nil
}

// KelvinToCelsius is applied once at normalization; results are stored unrounded.
func KelvinToCelsius(k float64) float64 {
	return k - KelvinOffset
}

// IconURL builds the condition icon reference from its identifier.
func IconURL(icon string) string {
	return IconBaseURL + icon + iconSuffix
}

func shiftedTimestamp(epoch, offset int64) time.Time {
	return time.Unix(epoch+offset, 0).UTC().Round(time.Millisecond)
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
