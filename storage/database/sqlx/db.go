// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// wrap adapts a raw *sql.DB (as returned by database.Open) for sqlx.
func wrap(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

func isNoRows(err error) bool {
	return err == sql.ErrNoRows
}
