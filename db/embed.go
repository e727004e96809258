// Package db embeds the database schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for every table the service uses. It is applied
// idempotently on boot; see postgres.RunMigrations.
//
//go:embed migrations/001_schema.sql
var Schema string
