package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartcity/weatherwidget/internal/domain"
)

const queryLimit = 100

const schema = `
	CREATE TABLE IF NOT EXISTS weather_lookups (
		id          UUID PRIMARY KEY,
		session_id  TEXT NOT NULL DEFAULT '',
		query       TEXT NOT NULL,
		trigger     TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		name        TEXT,
		region      TEXT,
		country     TEXT,
		local_time  TEXT,
		temp_c      DOUBLE PRECISION,
		feelslike_c DOUBLE PRECISION,
		condition   TEXT,
		icon        TEXT,
		wind_kph    DOUBLE PRECISION,
		humidity    INTEGER,
		timestamp   TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS weather_lookups_timestamp_idx ON weather_lookups (timestamp DESC);
`

// PostgresRepository implements domain.LookupRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the lookup table when missing
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to ensure schema: %w", err)
	}
	return nil
}

// SaveLookup persists one lookup to PostgreSQL
func (r *PostgresRepository) SaveLookup(ctx context.Context, l domain.Lookup) error {
	query := `
		INSERT INTO weather_lookups (
			id, session_id, query, trigger, outcome,
			name, region, country, local_time, temp_c, feelslike_c,
			condition, icon, wind_kph, humidity, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	// A failed lookup has no record; leave the weather columns NULL
	var (
		name, region, country, localTime, condition, icon *string
		tempC, feelsLikeC, windKPH                        *float64
		humidity                                          *int
	)
	if rec := l.Record; rec != nil {
		name, region, country, localTime = &rec.Name, &rec.Region, &rec.Country, &rec.LocalTime
		condition, icon = &rec.Condition, &rec.Icon
		tempC, feelsLikeC, windKPH = &rec.TempC, &rec.FeelsLikeC, &rec.WindKPH
		humidity = &rec.Humidity
	}

	_, err := r.pool.Exec(ctx, query,
		l.ID, l.SessionID, l.Query, string(l.Trigger), string(l.Outcome),
		name, region, country, localTime, tempC, feelsLikeC,
		condition, icon, windKPH, humidity, l.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save lookup: %w", err)
	}

	return nil
}

// GetLookups retrieves lookup history from PostgreSQL
func (r *PostgresRepository) GetLookups(ctx context.Context, from, to time.Time) ([]domain.Lookup, error) {
	query := `
		SELECT id::text, session_id, query, trigger, outcome,
			   name, region, country, local_time, temp_c, feelslike_c,
			   condition, icon, wind_kph, humidity, timestamp
		FROM weather_lookups
		WHERE timestamp BETWEEN $1 AND $2
		ORDER BY timestamp DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, from, to, queryLimit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query lookups: %w", err)
	}
	defer rows.Close()

	var results []domain.Lookup
	for rows.Next() {
		var (
			l                                                 domain.Lookup
			trigger, outcome                                  string
			name, region, country, localTime, condition, icon *string
			tempC, feelsLikeC, windKPH                        *float64
			humidity                                          *int
		)
		err := rows.Scan(
			&l.ID, &l.SessionID, &l.Query, &trigger, &outcome,
			&name, &region, &country, &localTime, &tempC, &feelsLikeC,
			&condition, &icon, &windKPH, &humidity, &l.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan lookup row: %w", err)
		}
		l.Trigger = domain.Trigger(trigger)
		l.Outcome = domain.Outcome(outcome)
		if name != nil {
			l.Record = &domain.WeatherRecord{
				Name:       *name,
				Region:     deref(region),
				Country:    deref(country),
				LocalTime:  deref(localTime),
				TempC:      derefFloat(tempC),
				FeelsLikeC: derefFloat(feelsLikeC),
				Condition:  deref(condition),
				Icon:       deref(icon),
				WindKPH:    derefFloat(windKPH),
			}
			if humidity != nil {
				l.Record.Humidity = *humidity
			}
		}
		results = append(results, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate lookups: %w", err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
