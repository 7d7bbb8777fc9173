package weather

import (
	"time"
)

// RawObservation mirrors the provider's current-weather document.
// Required fields are pointers so that absence can be told apart from zero.
type RawObservation struct {
	Name     *string        `json:"name"`
	Timezone *int64         `json:"timezone"`
	Coord    RawCoord       `json:"coord"`
	Main     RawMain        `json:"main"`
	Wind     RawWind        `json:"wind"`
	Weather  []RawCondition `json:"weather"`
	Sys      RawSys         `json:"sys"`
}

type RawCoord struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type RawMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	TempMin   *float64 `json:"temp_min"`
	TempMax   *float64 `json:"temp_max"`
	Humidity  *float64 `json:"humidity"`
	Pressure  *float64 `json:"pressure"`
}

type RawWind struct {
	Speed *float64 `json:"speed"`
	Deg   *float64 `json:"deg"`
}

// RawCondition is one entry of the provider's "weather" list.
type RawCondition struct {
	ID          *int64  `json:"id"`
	Main        *string `json:"main"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
}

type RawSys struct {
	ID      *int64  `json:"id"`
	Country *string `json:"country"`
	Sunrise *int64  `json:"sunrise"`
	Sunset  *int64  `json:"sunset"`
}

// WeatherRow is one normalized, persisted observation.
// Temperatures are stored in both Kelvin and Celsius at full precision.
type WeatherRow struct {
	ID int64 `json:"id"` // assigned by storage

	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	TemperatureK      float64 `json:"temperature_k"`
	ThermalSensationK float64 `json:"thermal_sensation_k"`
	TempMinK          float64 `json:"temp_min_k"`
	TempMaxK          float64 `json:"temp_max_k"`
	TemperatureC      float64 `json:"temperature_c"`
	ThermalSensationC float64 `json:"thermal_sensation_c"`
	TempMinC          float64 `json:"temp_min_c"`
	TempMaxC          float64 `json:"temp_max_c"`

	Humidity      float64  `json:"humidity"`
	Pressure      *float64 `json:"pressure"`
	WindSpeed     *float64 `json:"wind_speed"`
	WindDirection *float64 `json:"wind_direction"`

	WeatherID          int64  `json:"weather_id"`
	WeatherMain        string `json:"weather_main"`
	WeatherDescription string `json:"weather_description"`
	WeatherIcon        string `json:"weather_icon"`

	SysID      int64     `json:"sys_id"`
	SysCountry string    `json:"sys_country"`
	SysSunrise time.Time `json:"sys_sunrise"`
	SysSunset  time.Time `json:"sys_sunset"`

	CollectionTimestamp time.Time `json:"collection_timestamp"`
}

// SeriesQuery selects stored rows: an optional city and an inclusive range.
type SeriesQuery struct {
	City  string    `json:"city,omitempty"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Key returns a canonical string key for caching results of this query.
func (q SeriesQuery) Key() string {
	return q.City + "|" + q.Start.UTC().Format(time.RFC3339Nano) + "|" + q.End.UTC().Format(time.RFC3339Nano)
}

// HourlyPoint is one non-empty hourly bucket of a resampled metric.
type HourlyPoint struct {
	BucketStart time.Time `json:"bucketStart"`
	Value       float64   `json:"value"`
	Count       int       `json:"count"`
}
