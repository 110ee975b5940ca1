/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package sqlite implements the operation, transaction, unresolvable transaction and confirmation stores
// on SQLite.
package sqlite

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
)

const loggerModule = "sidetree-core-sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	suffix TEXT NOT NULL,
	txn_number INTEGER NOT NULL,
	op_index INTEGER NOT NULL,
	type TEXT NOT NULL,
	txn_time INTEGER NOT NULL,
	protocol_version INTEGER NOT NULL,
	request BLOB NOT NULL,
	UNIQUE(suffix, txn_number, op_index, type)
);

CREATE INDEX IF NOT EXISTS idx_operations_txn_number ON operations(txn_number);

CREATE TABLE IF NOT EXISTS transactions (
	txn_number INTEGER PRIMARY KEY,
	txn_time INTEGER NOT NULL,
	txn_time_hash TEXT NOT NULL,
	anchor_string TEXT NOT NULL,
	fee_paid INTEGER NOT NULL,
	normalized_fee INTEGER NOT NULL,
	writer TEXT NOT NULL,
	namespace TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_txn_time ON transactions(txn_time);

CREATE TABLE IF NOT EXISTS unresolvable_transactions (
	txn_number INTEGER PRIMARY KEY,
	txn_time INTEGER NOT NULL,
	txn_time_hash TEXT NOT NULL,
	anchor_string TEXT NOT NULL,
	fee_paid INTEGER NOT NULL,
	normalized_fee INTEGER NOT NULL,
	writer TEXT NOT NULL,
	namespace TEXT NOT NULL,
	first_fetch_time INTEGER NOT NULL,
	retry_attempts INTEGER NOT NULL,
	next_retry_time INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_unresolvable_next_retry ON unresolvable_transactions(next_retry_time);

CREATE TABLE IF NOT EXISTS confirmations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	anchor_string TEXT NOT NULL,
	submitted_at INTEGER NOT NULL,
	confirmed_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_confirmations_anchor ON confirmations(anchor_string);
`

// DB is a SQLite database holding the node stores.
type DB struct {
	db     *sql.DB
	logger *log.Log
}

// Open opens (creating if necessary) the database at the given path and migrates the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	// SQLite allows a single writer; one connection also keeps ":memory:" databases consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close() //nolint:errcheck

		return nil, errors.Wrap(err, "ping database")
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close() //nolint:errcheck

		return nil, errors.Wrap(err, "migrate database")
	}

	logger := log.New(loggerModule)
	logger.Debug("Opened database", log.WithAddress(path))

	return &DB{db: db, logger: logger}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// nullableNumber converts an optional number into a SQL parameter.
func nullableNumber(n *uint64) interface{} {
	if n == nil {
		return nil
	}

	return int64(*n)
}
