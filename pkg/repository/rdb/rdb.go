// Package rdb implements the repositories on top of a relational database
// through sqlx. Dialect differences between SQLite and PostgreSQL are kept in
// Dialect; the sqlite and postgres packages provide the concrete dialects.
package rdb

import (
	"context"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/interfaces"
	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"
)

// Dialect holds the SQL that differs between database engines
type Dialect struct {
	// Name is used in logs and errors
	Name string
	// Schema is executed statement by statement by Migrate
	Schema []string
	// TimeArg converts a timestamp into a query argument that compares
	// correctly against the date_collected column
	TimeArg func(time.Time) any
}

// DB is a relational repository. It owns the *sqlx.DB handle.
type DB struct {
	db      *sqlx.DB
	dialect Dialect
	finding *findingRepository
	record  *recordRepository
}

var _ interfaces.Repository = &DB{}

// New wraps an opened database handle
func New(db *sqlx.DB, dialect Dialect) *DB {
	return &DB{
		db:      db,
		dialect: dialect,
		finding: &findingRepository{db: db, dialect: dialect},
		record:  &recordRepository{db: db},
	}
}

func (x *DB) Finding() interfaces.FindingRepository {
	return x.finding
}

func (x *DB) Record() interfaces.RecordRepository {
	return x.record
}

// Migrate creates tables and indexes if they do not exist
func (x *DB) Migrate(ctx context.Context) error {
	for _, stmt := range x.dialect.Schema {
		if _, err := x.db.ExecContext(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to apply schema",
				goerr.V("dialect", x.dialect.Name),
				goerr.V("statement", stmt))
		}
	}
	return nil
}

// Schema returns the DDL statements Migrate executes
func (x *DB) Schema() []string {
	return x.dialect.Schema
}

func (x *DB) Close() error {
	if x.db != nil {
		return x.db.Close()
	}
	return nil
}
