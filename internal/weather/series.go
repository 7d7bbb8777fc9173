package weather

import (
	"fmt"
	"sort"
	"time"
)

// Metric names a numeric WeatherRow column that can be resampled.
type Metric string

const (
	MetricTemperature      Metric = "temperature_c"
	MetricThermalSensation Metric = "thermal_sensation_c"
	MetricTempMin          Metric = "temp_min_c"
	MetricTempMax          Metric = "temp_max_c"
	MetricHumidity         Metric = "humidity"
	MetricPressure         Metric = "pressure"
	MetricWindSpeed        Metric = "wind_speed"
	MetricWindDirection    Metric = "wind_direction"
)

// ParseMetric validates a metric name coming from a request.
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	switch m {
	case MetricTemperature, MetricThermalSensation, MetricTempMin, MetricTempMax,
		MetricHumidity, MetricPressure, MetricWindSpeed, MetricWindDirection:
		return m, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// IsTemperature reports whether values of m are Celsius temperatures.
func (m Metric) IsTemperature() bool {
	switch m {
	case MetricTemperature, MetricThermalSensation, MetricTempMin, MetricTempMax:
		return true
	}
	return false
}

// value extracts m from r; ok is false for NULL columns.
func (m Metric) value(r WeatherRow) (float64, bool) {
	switch m {
	case MetricTemperature:
		return r.TemperatureC, true
	case MetricThermalSensation:
		return r.ThermalSensationC, true
	case MetricTempMin:
		return r.TempMinC, true
	case MetricTempMax:
		return r.TempMaxC, true
	case MetricHumidity:
		return r.Humidity, true
	case MetricPressure:
		return deref(r.Pressure)
	case MetricWindSpeed:
		return deref(r.WindSpeed)
	case MetricWindDirection:
		return deref(r.WindDirection)
	}
	return 0, false
}

// SeriesView is the time-ordered result of one read query. It is built fresh
// for every query and owns no state beyond its rows.
type SeriesView struct {
	Query SeriesQuery  `json:"query"`
	Rows  []WeatherRow `json:"rows"`
}

// NewSeriesView orders rows ascending by collection timestamp. Rows with equal
// timestamps keep their storage order.
func NewSeriesView(q SeriesQuery, rows []WeatherRow) SeriesView {
	sorted := make([]WeatherRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CollectionTimestamp.Before(sorted[j].CollectionTimestamp)
	})
	return SeriesView{Query: q, Rows: sorted}
}

// Empty reports whether the query matched nothing.
func (v SeriesView) Empty() bool {
	return len(v.Rows) == 0
}

// Latest returns the row with the greatest collection timestamp. Among equal
// timestamps the one stored last wins. ok is false on an empty view.
func (v SeriesView) Latest() (WeatherRow, bool) {
	if len(v.Rows) == 0 {
		return WeatherRow{}, false
	}
	best := v.Rows[0]
	for _, r := range v.Rows[1:] {
		if !r.CollectionTimestamp.Before(best.CollectionTimestamp) {
			best = r
		}
	}
	return best, true
}

// HourlyMean averages m within one-hour wall-clock buckets. Buckets without
// a contributing value are omitted; nothing is interpolated.
func (v SeriesView) HourlyMean(m Metric) []HourlyPoint {
	type acc struct {
		sum   float64
		count int
	}
	var (
		order   []time.Time
		buckets = make(map[time.Time]*acc)
	)
	for _, r := range v.Rows {
		val, ok := m.value(r)
		if !ok {
			continue
		}
		start := BucketStart(r.CollectionTimestamp)
		a, exists := buckets[start]
		if !exists {
			a = &acc{}
			buckets[start] = a
			order = append(order, start)
		}
		a.sum += val
		a.count++
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	points := make([]HourlyPoint, 0, len(order))
	for _, start := range order {
		a := buckets[start]
		points = append(points, HourlyPoint{
			BucketStart: start,
			Value:       a.sum / float64(a.count),
			Count:       a.count,
		})
	}
	return points
}

// BucketStart truncates t to the start of its wall-clock hour in t's location.
func BucketStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// ForecastPoint is one hour of the dashboard's "upcoming hours" strip.
type ForecastPoint struct {
	BucketStart time.Time `json:"bucketStart"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	WeatherMain string    `json:"weatherMain"`
	WeatherIcon string    `json:"weatherIcon"`
}

// HourlyForecast merges hourly temperature and humidity means with the first
// condition seen in each bucket, keeping at most limit buckets (limit <= 0 means all).
func (v SeriesView) HourlyForecast(limit int) []ForecastPoint {
	temps := v.HourlyMean(MetricTemperature)
	humidity := make(map[time.Time]float64)
	for _, p := range v.HourlyMean(MetricHumidity) {
		humidity[p.BucketStart] = p.Value
	}

	type cond struct{ main, icon string }
	firstCond := make(map[time.Time]cond)
	for _, r := range v.Rows {
		start := BucketStart(r.CollectionTimestamp)
		if _, ok := firstCond[start]; !ok {
			firstCond[start] = cond{main: r.WeatherMain, icon: r.WeatherIcon}
		}
	}

	out := make([]ForecastPoint, 0, len(temps))
	for _, t := range temps {
		if limit > 0 && len(out) >= limit {
			break
		}
		c := firstCond[t.BucketStart]
		out = append(out, ForecastPoint{
			BucketStart: t.BucketStart,
			Temperature: t.Value,
			Humidity:    humidity[t.BucketStart],
			WeatherMain: c.main,
			WeatherIcon: c.icon,
		})
	}
	return out
}

// DefaultRange spans from the start of yesterday to the end of today in now's location.
func DefaultRange(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, -1), today.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func deref(f *float64) (float64, bool) {
	if f == nil {
		return 0, false
	}
	return *f, true
}
