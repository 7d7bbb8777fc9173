package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/i474232898/weather-pipeline/internal/weather"
)

const (
	// DefaultSchema is the namespace holding the weather table.
	DefaultSchema = "weather"
	tableName     = "weather_data"
)

// columns is the persisted column order, excluding the surrogate id.
var columns = []string{
	"city",
	"temperature_k",
	"humidity",
	"thermal_sensation_k",
	"temp_min_k",
	"temp_max_k",
	"pressure",
	"wind_speed",
	"wind_direction",
	"latitude",
	"longitude",
	"temperature_c",
	"thermal_sensation_c",
	"temp_min_c",
	"temp_max_c",
	"weather_id",
	"weather_main",
	"weather_description",
	"weather_icon",
	"sys_id",
	"sys_country",
	"sys_sunrise",
	"sys_sunset",
	"collection_timestamp",
}

const createTableSQL = `
    CREATE TABLE IF NOT EXISTS %s (
        id SERIAL PRIMARY KEY,
        city VARCHAR(100) NOT NULL,
        temperature_k FLOAT NOT NULL,
        humidity FLOAT NOT NULL,
        thermal_sensation_k FLOAT NOT NULL,
        temp_min_k FLOAT NOT NULL,
        temp_max_k FLOAT NOT NULL,
        pressure FLOAT,
        wind_speed FLOAT,
        wind_direction FLOAT,
        latitude FLOAT NOT NULL,
        longitude FLOAT NOT NULL,
        temperature_c FLOAT NOT NULL,
        thermal_sensation_c FLOAT NOT NULL,
        temp_min_c FLOAT NOT NULL,
        temp_max_c FLOAT NOT NULL,
        weather_id INT NOT NULL,
        weather_main VARCHAR(100) NOT NULL,
        weather_description VARCHAR(255) NOT NULL,
        weather_icon VARCHAR(100) NOT NULL,
        sys_id INT NOT NULL,
        sys_country VARCHAR(100) NOT NULL,
        sys_sunrise TIMESTAMP NOT NULL,
        sys_sunset TIMESTAMP NOT NULL,
        collection_timestamp TIMESTAMP NOT NULL
    )
`

// Config describes how to reach the database.
type Config struct {
	DSN          string
	Schema       string
	MaxOpenConns int
	MaxIdleConns int
}

// Postgres is the durable weather table. It provisions the schema, appends
// rows and answers the dashboard's read queries. Every operation holds its
// own connection from the pool and returns it before exiting.
type Postgres struct {
	db     *sql.DB
	schema string
}

var (
	_ weather.Sink   = (*Postgres)(nil)
	_ weather.Reader = (*Postgres)(nil)
)

// Open prepares a connection pool. No connection is made until first use.
func Open(cfg Config) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 2
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return NewPostgres(db, cfg.Schema), nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(db *sql.DB, schema string) *Postgres {
	if schema == "" {
		schema = DefaultSchema
	}
	return &Postgres{db: db, schema: schema}
}

// Close releases the pool.
func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Ping verifies that storage is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return classify("ping", p.withConn(ctx, func(conn *sql.Conn) error {
		return conn.PingContext(ctx)
	}))
}

// Schema returns the namespace in use.
func (p *Postgres) Schema() string {
	return p.schema
}

func (p *Postgres) table() string {
	return pq.QuoteIdentifier(p.schema) + "." + pq.QuoteIdentifier(tableName)
}

// withConn acquires a dedicated connection for fn and releases it on every path.
func (p *Postgres) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

// Provision creates the schema and table if they do not exist. Existing
// objects are never dropped or altered, so repeated and concurrent calls are safe.
func (p *Postgres) Provision(ctx context.Context) error {
	statements := []struct {
		what string
		sql  string
	}{
		{"schema", "CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(p.schema)},
		{"table", fmt.Sprintf(createTableSQL, p.table())},
	}

	err := p.withConn(ctx, func(conn *sql.Conn) error {
		for _, st := range statements {
			if _, err := conn.ExecContext(ctx, st.sql); err != nil {
				if isAlreadyExists(err) {
					continue
				}
				return fmt.Errorf("ensure %s: %w", st.what, err)
			}
		}
		return nil
	})
	if err != nil {
		return classify("provision", err)
	}

	log.Printf("DEBUG: store: table %s ensured to exist", p.table())
	return nil
}

// Append inserts rows in a single transaction; either all rows become
// visible or none do. No deduplication is attempted.
func (p *Postgres) Append(ctx context.Context, rows []weather.WeatherRow) error {
	if len(rows) == 0 {
		return nil
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		p.table(), strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	err := p.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer stmt.Close()

		for i, r := range rows {
			if _, err := stmt.ExecContext(ctx, rowArgs(r)...); err != nil {
				tx.Rollback()
				return fmt.Errorf("row %d: %w", i, err)
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return classify("append", err)
	}
	return nil
}

// Cities returns the distinct cities present in the table, sorted.
func (p *Postgres) Cities(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`
        SELECT DISTINCT city
        FROM %s
        WHERE city IS NOT NULL
        ORDER BY city
    `, p.table())

	var cities []string
	err := p.withConn(ctx, func(conn *sql.Conn) error {
		rs, err := conn.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rs.Close()

		for rs.Next() {
			var city string
			if err := rs.Scan(&city); err != nil {
				return err
			}
			cities = append(cities, city)
		}
		return rs.Err()
	})
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("list cities", err)
	}
	return cities, nil
}

// Range returns rows with collection_timestamp in [q.Start, q.End], optionally
// limited to q.City, ascending. A table that was never provisioned reads as empty.
func (p *Postgres) Range(ctx context.Context, q weather.SeriesQuery) ([]weather.WeatherRow, error) {
	args := []interface{}{q.Start.UTC(), q.End.UTC()}
	where := "collection_timestamp BETWEEN $1 AND $2"
	if q.City != "" {
		args = append(args, q.City)
		where += fmt.Sprintf(" AND city = $%d", len(args))
	}

	query := fmt.Sprintf(`
        SELECT id, %s
        FROM %s
        WHERE %s
        ORDER BY collection_timestamp ASC, id ASC
    `, strings.Join(columns, ", "), p.table(), where)

	var out []weather.WeatherRow
	err := p.withConn(ctx, func(conn *sql.Conn) error {
		rs, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rs.Close()

		for rs.Next() {
			r, err := scanRow(rs)
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return rs.Err()
	})
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("range query", err)
	}
	return out, nil
}

func rowArgs(r weather.WeatherRow) []interface{} {
	return []interface{}{
		r.City,
		r.TemperatureK,
		r.Humidity,
		r.ThermalSensationK,
		r.TempMinK,
		r.TempMaxK,
		nullFloat(r.Pressure),
		nullFloat(r.WindSpeed),
		nullFloat(r.WindDirection),
		r.Latitude,
		r.Longitude,
		r.TemperatureC,
		r.ThermalSensationC,
		r.TempMinC,
		r.TempMaxC,
		r.WeatherID,
		r.WeatherMain,
		r.WeatherDescription,
		r.WeatherIcon,
		r.SysID,
		r.SysCountry,
		r.SysSunrise.UTC(),
		r.SysSunset.UTC(),
		r.CollectionTimestamp.UTC(),
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(s scanner) (weather.WeatherRow, error) {
	var (
		r                            weather.WeatherRow
		pressure, windSpeed, windDir sql.NullFloat64
	)
	err := s.Scan(
		&r.ID,
		&r.City,
		&r.TemperatureK,
		&r.Humidity,
		&r.ThermalSensationK,
		&r.TempMinK,
		&r.TempMaxK,
		&pressure,
		&windSpeed,
		&windDir,
		&r.Latitude,
		&r.Longitude,
		&r.TemperatureC,
		&r.ThermalSensationC,
		&r.TempMinC,
		&r.TempMaxC,
		&r.WeatherID,
		&r.WeatherMain,
		&r.WeatherDescription,
		&r.WeatherIcon,
		&r.SysID,
		&r.SysCountry,
		&r.SysSunrise,
		&r.SysSunset,
		&r.CollectionTimestamp,
	)
	if err != nil {
		return weather.WeatherRow{}, err
	}

	r.Pressure = floatPtr(pressure)
	r.WindSpeed = floatPtr(windSpeed)
	r.WindDirection = floatPtr(windDir)
	r.SysSunrise = r.SysSunrise.UTC()
	r.SysSunset = r.SysSunset.UTC()
	r.CollectionTimestamp = r.CollectionTimestamp.UTC()
	return r, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
