// Package database provides PostgreSQL persistence for the monitoring domain.
// Uses pgx for connection pooling and tern for embedded schema migrations,
// with an advisory lock so concurrent instances never race on migration.
package database
