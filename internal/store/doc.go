// Package store persists debates and their message logs.
//
// Two implementations share one contract: a SQLite-backed store for the
// daemon and an in-memory store used by tests and API-key-less local runs.
// Message history is ordered by timestamp; rewind deletes everything
// strictly newer than a reference message.
package store
