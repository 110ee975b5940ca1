/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
)

// OperationStore persists anchored operations.
type OperationStore interface {
	// Put inserts or replaces operations. Writes are idempotent on
	// (suffix, transaction number, operation index, type).
	Put(ops []*operation.AnchoredOperation) error

	// Get returns all anchored operations for the given suffix.
	Get(suffix string) ([]*operation.AnchoredOperation, error)

	// Delete removes operations anchored after the given transaction number, or all operations if nil.
	Delete(afterTransactionNumber *uint64) error

	// DeleteUpdatesEarlierThan removes update operations of the suffix anchored before
	// the given (transaction number, operation index).
	DeleteUpdatesEarlierThan(suffix string, transactionNumber uint64, operationIndex uint) error
}

// TransactionStore persists processed transactions.
type TransactionStore interface {
	// AddTransaction appends a processed transaction. Transactions are added in transaction number order.
	AddTransaction(t txn.SidetreeTxn) error

	// GetLastTransaction returns the last processed transaction or nil if the store is empty.
	GetLastTransaction() (*txn.SidetreeTxn, error)

	// GetExponentiallySpacedTransactions returns a sample of stored transactions, latest first, where the
	// distance between consecutive samples doubles.
	GetExponentiallySpacedTransactions() ([]txn.SidetreeTxn, error)

	// GetTransactionsLaterThan returns up to max transactions after the given transaction number
	// (from the start if nil).
	GetTransactionsLaterThan(transactionNumber *uint64, max int) ([]txn.SidetreeTxn, error)

	// GetTransactionsAtTime returns the processed transactions anchored at the given transaction time.
	GetTransactionsAtTime(transactionTime uint64) ([]txn.SidetreeTxn, error)

	// RemoveTransactionsLaterThan removes transactions after the given transaction number, or all if nil.
	RemoveTransactionsLaterThan(transactionNumber *uint64) error
}

// UnresolvableTransactionStore tracks transactions whose files could not be fetched.
type UnresolvableTransactionStore interface {
	// RecordUnresolvableTransactionFetchAttempt records a failed fetch attempt and schedules the next retry.
	RecordUnresolvableTransactionFetchAttempt(t txn.SidetreeTxn) error

	// RemoveUnresolvableTransaction removes the transaction from the store.
	RemoveUnresolvableTransaction(t txn.SidetreeTxn) error

	// GetUnresolvableTransactionsDueForRetry returns transactions whose next retry time has passed.
	GetUnresolvableTransactionsDueForRetry(maxReturnCount int) ([]txn.SidetreeTxn, error)

	// RemoveUnresolvableTransactionsLaterThan removes transactions after the given transaction number,
	// or all if nil.
	RemoveUnresolvableTransactionsLaterThan(transactionNumber *uint64) error
}

// Confirmation records when an anchor string written by this node was submitted and observed.
type Confirmation struct {
	AnchorString string  `json:"anchorString"`
	SubmittedAt  uint64  `json:"submittedAt"`
	ConfirmedAt  *uint64 `json:"confirmedAt,omitempty"`
}

// ConfirmationStore tracks anchor strings written by this node.
type ConfirmationStore interface {
	// Submit records that the anchor string was written at the given ledger time.
	Submit(anchorString string, submittedAt uint64) error

	// Confirm marks the anchor string as observed on the ledger at the given time.
	Confirm(anchorString string, confirmedAt uint64) error

	// ResetAfter clears confirmations made after the given time (all confirmations if nil).
	ResetAfter(confirmedAt *uint64) error

	// GetLastSubmitted returns the most recently submitted anchor string or nil.
	GetLastSubmitted() (*Confirmation, error)
}
