// Package adapters provides database abstraction adapters for the Postgres
// lending store engine.
//
// This internal package contains adapter implementations that allow the
// engine to work with different database libraries (pgx, database/sql, sqlx)
// through a common interface.
package adapters
