package postgres

import (
	"context"
	"time"

	"github.com/agrilens/agrilens/pkg/repository/rdb"
	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"

	_ "github.com/lib/pq"
)

// Content can exceed the btree entry limit, so uniqueness is enforced over
// md5(content) instead of the raw text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS research_findings (
		id             UUID PRIMARY KEY,
		topic          TEXT NOT NULL,
		source         TEXT NOT NULL,
		title          TEXT NOT NULL DEFAULT '',
		content        TEXT NOT NULL,
		date_collected TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_research_findings_unique ON research_findings(topic, source, md5(content))`,
	`CREATE INDEX IF NOT EXISTS idx_research_findings_topic ON research_findings(topic, date_collected)`,
	`CREATE TABLE IF NOT EXISTS farming_conditions (
		farm_id              BIGSERIAL PRIMARY KEY,
		soil_ph              DOUBLE PRECISION,
		soil_moisture        DOUBLE PRECISION,
		temperature          DOUBLE PRECISION,
		rainfall             DOUBLE PRECISION,
		crop_type            TEXT,
		fertilizer_usage     DOUBLE PRECISION,
		pesticide_usage      DOUBLE PRECISION,
		crop_yield           DOUBLE PRECISION,
		sustainability_score DOUBLE PRECISION,
		date_recorded        DATE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_farming_conditions_crop ON farming_conditions(crop_type, date_recorded)`,
	`CREATE TABLE IF NOT EXISTS market_conditions (
		market_id            BIGSERIAL PRIMARY KEY,
		product              TEXT,
		market_price         DOUBLE PRECISION,
		demand_index         DOUBLE PRECISION,
		supply_index         DOUBLE PRECISION,
		competitor_price     DOUBLE PRECISION,
		economic_indicator   DOUBLE PRECISION,
		weather_impact_score DOUBLE PRECISION,
		seasonal_factor      TEXT,
		consumer_trend_index DOUBLE PRECISION,
		date_recorded        DATE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_conditions_product ON market_conditions(product, date_recorded)`,
	`CREATE TABLE IF NOT EXISTS weather_forecast (
		id          BIGSERIAL PRIMARY KEY,
		location    TEXT NOT NULL,
		date        DATE NOT NULL,
		temperature DOUBLE PRECISION,
		humidity    DOUBLE PRECISION,
		rainfall    DOUBLE PRECISION,
		wind_speed  DOUBLE PRECISION,
		conditions  TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_weather_forecast_location ON weather_forecast(location, date)`,
}

// Dialect returns the PostgreSQL dialect
func Dialect() rdb.Dialect {
	return rdb.Dialect{
		Name:   "postgres",
		Schema: schema,
		TimeArg: func(t time.Time) any {
			return t.UTC()
		},
	}
}

// Open connects to PostgreSQL with dsn and applies the schema
func Open(ctx context.Context, dsn string) (*rdb.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open postgres")
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres")
	}

	repo := rdb.New(db, Dialect())
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}
