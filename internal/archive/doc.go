// Package archive records received chat messages in Postgres.
//
// Writer is a message sink: the live connection hands it each decoded
// message without blocking, and it inserts them in batches. Inserts are
// append-only and keyed by message id, so a message replayed after a
// reconnect is stored once.
package archive
