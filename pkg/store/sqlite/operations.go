/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

// OperationStore stores anchored operations.
type OperationStore struct {
	*DB
}

// NewOperationStore returns an operation store backed by the given database.
func NewOperationStore(db *DB) *OperationStore {
	return &OperationStore{DB: db}
}

// Put inserts or replaces the given operations in one database transaction.
func (s *OperationStore) Put(ops []*operation.AnchoredOperation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO operations
		(suffix, txn_number, op_index, type, txn_time, protocol_version, request)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback() //nolint:errcheck

		return errors.Wrap(err, "prepare insert")
	}

	defer stmt.Close() //nolint:errcheck

	for _, op := range ops {
		_, err = stmt.Exec(op.UniqueSuffix, op.TransactionNumber, op.OperationIndex, string(op.Type),
			op.TransactionTime, op.ProtocolVersion, op.OperationRequest)
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck

			return errors.Wrapf(err, "insert operation for suffix[%s]", op.UniqueSuffix)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit operations")
	}

	s.logger.Debug("Stored operations", log.WithTotalOperations(len(ops)))

	return nil
}

// Get returns the operations of the given suffix in (transaction number, operation index) order.
func (s *OperationStore) Get(suffix string) ([]*operation.AnchoredOperation, error) {
	rows, err := s.db.Query(`SELECT suffix, txn_number, op_index, type, txn_time, protocol_version, request
		FROM operations WHERE suffix = ? ORDER BY txn_number, op_index`, suffix)
	if err != nil {
		return nil, errors.Wrapf(err, "query operations for suffix[%s]", suffix)
	}

	defer rows.Close() //nolint:errcheck

	var ops []*operation.AnchoredOperation

	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}

		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "read operations for suffix[%s]", suffix)
	}

	if len(ops) == 0 {
		return nil, sidetreeerr.Newf(sidetreeerr.NotFound, "uniqueSuffix[%s] not found in the store", suffix)
	}

	return ops, nil
}

// Delete removes operations anchored after the given transaction number, or all operations if nil.
func (s *OperationStore) Delete(afterTransactionNumber *uint64) error {
	var err error

	if afterTransactionNumber == nil {
		_, err = s.db.Exec(`DELETE FROM operations`)
	} else {
		_, err = s.db.Exec(`DELETE FROM operations WHERE txn_number > ?`, *afterTransactionNumber)
	}

	return errors.Wrap(err, "delete operations")
}

// DeleteUpdatesEarlierThan removes update operations of the suffix anchored before the given
// (transaction number, operation index).
func (s *OperationStore) DeleteUpdatesEarlierThan(suffix string, transactionNumber uint64, operationIndex uint) error {
	_, err := s.db.Exec(`DELETE FROM operations WHERE suffix = ? AND type = ?
		AND (txn_number < ? OR (txn_number = ? AND op_index < ?))`,
		suffix, string(operation.TypeUpdate), transactionNumber, transactionNumber, operationIndex)

	return errors.Wrapf(err, "delete updates for suffix[%s]", suffix)
}

func scanOperation(row scanner) (*operation.AnchoredOperation, error) {
	op := &operation.AnchoredOperation{}

	var opType string

	err := row.Scan(&op.UniqueSuffix, &op.TransactionNumber, &op.OperationIndex, &opType,
		&op.TransactionTime, &op.ProtocolVersion, &op.OperationRequest)
	if err != nil {
		return nil, errors.Wrap(err, "scan operation")
	}

	op.Type = operation.Type(opType)

	return op, nil
}
