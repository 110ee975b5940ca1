/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
)

const transactionColumns = `txn_number, txn_time, txn_time_hash, anchor_string, fee_paid, normalized_fee, writer, namespace`

// TransactionStore stores processed transactions.
type TransactionStore struct {
	*DB
}

// NewTransactionStore returns a transaction store backed by the given database.
func NewTransactionStore(db *DB) *TransactionStore {
	return &TransactionStore{DB: db}
}

// AddTransaction adds the transaction. Adding a transaction twice is a no-op.
func (s *TransactionStore) AddTransaction(t txn.SidetreeTxn) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TransactionNumber, t.TransactionTime, t.TransactionTimeHash, t.AnchorString,
		t.TransactionFeePaid, t.NormalizedTransactionFee, t.Writer, t.Namespace)

	return errors.Wrapf(err, "add transaction[%d]", t.TransactionNumber)
}

// GetLastTransaction returns the transaction with the highest transaction number or nil.
func (s *TransactionStore) GetLastTransaction() (*txn.SidetreeTxn, error) {
	row := s.db.QueryRow(`SELECT ` + transactionColumns + ` FROM transactions ORDER BY txn_number DESC LIMIT 1`)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrap(err, "get last transaction")
	}

	return t, nil
}

// GetExponentiallySpacedTransactions returns stored transactions, latest first, where the distance between
// consecutive transactions doubles: the 1st, 2nd, 4th, 8th... latest transactions.
func (s *TransactionStore) GetExponentiallySpacedTransactions() ([]txn.SidetreeTxn, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return nil, errors.Wrap(err, "count transactions")
	}

	var result []txn.SidetreeTxn

	for offset, distance := 0, 1; offset < count; offset, distance = offset+distance, distance*2 {
		row := s.db.QueryRow(`SELECT `+transactionColumns+` FROM transactions
			ORDER BY txn_number DESC LIMIT 1 OFFSET ?`, offset)

		t, err := scanTransaction(row)
		if err != nil {
			return nil, errors.Wrapf(err, "get transaction at offset[%d]", offset)
		}

		result = append(result, *t)
	}

	return result, nil
}

// GetTransactionsLaterThan returns up to max transactions (all if max is not positive) after the given
// transaction number, or from the start if nil.
func (s *TransactionStore) GetTransactionsLaterThan(transactionNumber *uint64, max int) ([]txn.SidetreeTxn, error) {
	limit := -1
	if max > 0 {
		limit = max
	}

	return s.query(`SELECT `+transactionColumns+` FROM transactions
		WHERE ? IS NULL OR txn_number > ? ORDER BY txn_number LIMIT ?`,
		nullableNumber(transactionNumber), nullableNumber(transactionNumber), limit)
}

// GetTransactionsAtTime returns the transactions anchored at the given transaction time.
func (s *TransactionStore) GetTransactionsAtTime(transactionTime uint64) ([]txn.SidetreeTxn, error) {
	return s.query(`SELECT `+transactionColumns+` FROM transactions WHERE txn_time = ? ORDER BY txn_number`,
		transactionTime)
}

// RemoveTransactionsLaterThan removes transactions after the given transaction number, or all if nil.
func (s *TransactionStore) RemoveTransactionsLaterThan(transactionNumber *uint64) error {
	_, err := s.db.Exec(`DELETE FROM transactions WHERE ? IS NULL OR txn_number > ?`,
		nullableNumber(transactionNumber), nullableNumber(transactionNumber))

	return errors.Wrap(err, "remove transactions")
}

func (s *TransactionStore) query(query string, args ...interface{}) ([]txn.SidetreeTxn, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query transactions")
	}

	defer rows.Close() //nolint:errcheck

	var result []txn.SidetreeTxn

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan transaction")
		}

		result = append(result, *t)
	}

	return result, errors.Wrap(rows.Err(), "read transactions")
}

func scanTransaction(row scanner) (*txn.SidetreeTxn, error) {
	t := &txn.SidetreeTxn{}

	err := row.Scan(&t.TransactionNumber, &t.TransactionTime, &t.TransactionTimeHash, &t.AnchorString,
		&t.TransactionFeePaid, &t.NormalizedTransactionFee, &t.Writer, &t.Namespace)
	if err != nil {
		return nil, err
	}

	return t, nil
}
