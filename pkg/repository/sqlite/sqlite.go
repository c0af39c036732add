package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/agrilens/agrilens/pkg/repository/rdb"
	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"

	_ "modernc.org/sqlite"
)

// Timestamps and dates are stored as TEXT so the driver returns them verbatim
// and comparisons stay lexical on a fixed width format.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS research_findings (
		id             TEXT PRIMARY KEY,
		topic          TEXT NOT NULL,
		source         TEXT NOT NULL,
		title          TEXT NOT NULL DEFAULT '',
		content        TEXT NOT NULL,
		date_collected TEXT NOT NULL,
		UNIQUE(topic, source, content)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_research_findings_topic ON research_findings(topic, date_collected)`,
	`CREATE TABLE IF NOT EXISTS farming_conditions (
		farm_id              INTEGER PRIMARY KEY AUTOINCREMENT,
		soil_ph              REAL,
		soil_moisture        REAL,
		temperature          REAL,
		rainfall             REAL,
		crop_type            TEXT,
		fertilizer_usage     REAL,
		pesticide_usage      REAL,
		crop_yield           REAL,
		sustainability_score REAL,
		date_recorded        TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_farming_conditions_crop ON farming_conditions(crop_type, date_recorded)`,
	`CREATE TABLE IF NOT EXISTS market_conditions (
		market_id            INTEGER PRIMARY KEY AUTOINCREMENT,
		product              TEXT,
		market_price         REAL,
		demand_index         REAL,
		supply_index         REAL,
		competitor_price     REAL,
		economic_indicator   REAL,
		weather_impact_score REAL,
		seasonal_factor      TEXT,
		consumer_trend_index REAL,
		date_recorded        TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_conditions_product ON market_conditions(product, date_recorded)`,
	`CREATE TABLE IF NOT EXISTS weather_forecast (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		location    TEXT NOT NULL,
		date        TEXT NOT NULL,
		temperature REAL,
		humidity    REAL,
		rainfall    REAL,
		wind_speed  REAL,
		conditions  TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_weather_forecast_location ON weather_forecast(location, date)`,
}

// Dialect returns the SQLite dialect
func Dialect() rdb.Dialect {
	return rdb.Dialect{
		Name:   "sqlite",
		Schema: schema,
		TimeArg: func(t time.Time) any {
			return rdb.FormatTimestamp(t)
		},
	}
}

// Open opens or creates the database file at path and applies the schema.
// The parent directory is created when missing.
func Open(ctx context.Context, path string) (*rdb.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("path", path))
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite", goerr.V("path", path))
	}
	db.SetMaxOpenConns(1)
	// bind as sqlite3 so sqlx uses '?' placeholders
	db = sqlx.NewDb(db.DB, "sqlite3")

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to ping sqlite", goerr.V("path", path))
	}

	repo := rdb.New(db, Dialect())
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}
