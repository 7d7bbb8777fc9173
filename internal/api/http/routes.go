package httpapi

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-pipeline/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the read-path handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.QueryService) {
	v1 := app.Group("/api/v1")

	v1.Get("/cities", func(c *fiber.Ctx) error {
		cities, err := service.Cities(c.UserContext())
		if err != nil {
			return storageError(err, "failed to list cities")
		}
		if cities == nil {
			cities = []string{}
		}
		return c.JSON(fiber.Map{"cities": cities})
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req seriesRequest
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		view, err := service.Series(c.UserContext(), req.query())
		if err != nil {
			return queryError(err, "failed to fetch weather history")
		}

		rows := view.Rows
		if rows == nil {
			rows = []weather.WeatherRow{}
		}
		return c.JSON(fiber.Map{
			"query":  view.Query,
			"noData": view.Empty(),
			"rows":   rows,
		})
	})

	v1.Get("/weather/latest", func(c *fiber.Ctx) error {
		var req seriesRequest
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		view, err := service.Series(c.UserContext(), req.query())
		if err != nil {
			return queryError(err, "failed to fetch weather data")
		}

		latest, ok := view.Latest()
		if !ok {
			return c.JSON(fiber.Map{
				"query":   view.Query,
				"noData":  true,
				"message": weather.NoDataMessage,
			})
		}
		return c.JSON(fiber.Map{
			"query":       view.Query,
			"noData":      false,
			"row":         latest,
			"unit":        weather.UnitSymbol(req.Fahrenheit),
			"temperature": weather.ToDisplayUnit(latest.TemperatureC, req.Fahrenheit),
			"feelsLike":   weather.ToDisplayUnit(latest.ThermalSensationC, req.Fahrenheit),
		})
	})

	v1.Get("/weather/hourly", func(c *fiber.Ctx) error {
		var req seriesRequest
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		metric, err := weather.ParseMetric(c.Query("metric", string(weather.MetricTemperature)))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		view, err := service.Series(c.UserContext(), req.query())
		if err != nil {
			return queryError(err, "failed to fetch weather series")
		}

		points := weather.ConvertPoints(view.HourlyMean(metric), metric, req.Fahrenheit)
		resp := fiber.Map{
			"query":  view.Query,
			"metric": metric,
			"noData": len(points) == 0,
			"points": points,
		}
		if metric.IsTemperature() {
			resp["unit"] = weather.UnitSymbol(req.Fahrenheit)
		}
		return c.JSON(resp)
	})

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		var req seriesRequest
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		d, err := service.Dashboard(c.UserContext(), req.query(), req.Fahrenheit)
		if err != nil {
			return queryError(err, "failed to build dashboard")
		}
		return c.JSON(d)
	})
}

// seriesRequest holds query parameters shared by the read endpoints.
type seriesRequest struct {
	City       string    `validate:"max=100"`
	From       time.Time `validate:"required"`
	To         time.Time `validate:"required,gtefield=From"`
	Fahrenheit bool
}

// now is swapped in tests.
var now = time.Now

func (r *seriesRequest) bind(c *fiber.Ctx) error {
	r.City = strings.TrimSpace(c.Query("city"))

	r.From, r.To = weather.DefaultRange(now())
	if s := c.Query("from"); s != "" {
		from, err := parseTime(s)
		if err != nil {
			return err
		}
		r.From = from
	}
	if s := c.Query("to"); s != "" {
		to, err := parseTime(s)
		if err != nil {
			return err
		}
		r.To = to
	}

	switch strings.ToUpper(c.Query("unit", "C")) {
	case "C", "CELSIUS":
		r.Fahrenheit = false
	case "F", "FAHRENHEIT":
		r.Fahrenheit = true
	default:
		return errors.New("unit must be C or F")
	}

	return validate.Struct(r)
}

func (r seriesRequest) query() weather.SeriesQuery {
	return weather.SeriesQuery{City: r.City, Start: r.From, End: r.To}
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

func queryError(err error, msg string) error {
	if errors.Is(err, weather.ErrInvalidRange) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return storageError(err, msg)
}

func storageError(err error, msg string) error {
	if errors.Is(err, weather.ErrStorageUnavailable) {
		return fiber.NewError(fiber.StatusServiceUnavailable, "storage unavailable")
	}
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}
