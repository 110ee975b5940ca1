/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"context"

	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
)

// ReadResult holds a page of transactions read from the ledger.
type ReadResult struct {
	MoreTransactions bool
	Transactions     []txn.SidetreeTxn
}

// LatestTime is the latest logical time observed by the ledger.
type LatestTime struct {
	Time uint64
	Hash string
}

// ValueTimeLock is an amount locked on the ledger by a writer for a period of ledger time.
type ValueTimeLock struct {
	Identifier            string `json:"identifier"`
	AmountLocked          uint64 `json:"amountLocked"`
	LockTransactionTime   uint64 `json:"lockTransactionTime"`
	UnlockTransactionTime uint64 `json:"unlockTransactionTime"`
	NormalizedFee         uint64 `json:"normalizedFee"`
	Owner                 string `json:"owner"`
}

// Ledger is the adapter to the underlying anchoring system.
type Ledger interface {
	// Write writes the anchor string as a transaction paying at least minFee.
	Write(ctx context.Context, anchorString string, minFee uint64) error

	// Read returns transactions after the given cursor. A nil transaction number reads from the start.
	// A cursor that is no longer valid on the ledger fails with InvalidTransactionNumberOrTimeHash.
	Read(ctx context.Context, sinceTransactionNumber *uint64, transactionTimeHash string) (*ReadResult, error)

	// GetFirstValidTransaction returns the first transaction in the list that is still valid on the ledger
	// or nil if none are.
	GetFirstValidTransaction(ctx context.Context, txns []txn.SidetreeTxn) (*txn.SidetreeTxn, error)

	// GetLatestTime returns the latest ledger time.
	GetLatestTime(ctx context.Context) (*LatestTime, error)

	// GetFee returns the normalized fee at the given transaction time.
	GetFee(ctx context.Context, transactionTime uint64) (uint64, error)

	// GetValueTimeLock returns the lock with the given identifier or nil if not found.
	GetValueTimeLock(ctx context.Context, lockIdentifier string) (*ValueTimeLock, error)

	// GetWriterValueTimeLock returns the active lock of this node's writer or nil.
	GetWriterValueTimeLock(ctx context.Context) (*ValueTimeLock, error)
}
