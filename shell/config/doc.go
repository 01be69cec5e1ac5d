// Package config provides connection configuration helpers for the
// library lending service.
//
// This package contains factory functions for creating database connections
// using different PostgreSQL drivers (pgx.Pool, sql.DB, sqlx.DB) and a Redis
// client for the read-through cache. Settings come from the environment, with
// optional .env file loading for local development.
//
// This package is part of the shell (infrastructure) layer.
package config
