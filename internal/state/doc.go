// Package state persists the run ledger: one row per fetch or extraction
// session, backed by SQLite.
package state
