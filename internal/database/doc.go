// Package database provides the Postgres connection pool used by the
// message archive.
package database
