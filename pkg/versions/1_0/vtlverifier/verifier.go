/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vtlverifier

import (
	"math"

	"github.com/trustbloc/sidetree-node-go/pkg/api/ledger"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

// Verifier verifies that a writer had enough value locked to anchor a batch.
type Verifier struct {
	maxOperationsWithoutLock uint
	feeMultiplier            float64
	lockAmountMultiplier     uint64
}

// New returns a new value time lock verifier.
func New(p protocol.Protocol) *Verifier {
	return &Verifier{
		maxOperationsWithoutLock: p.MaxNumberOfOperationsForNoValueTimeLock,
		feeMultiplier:            p.NormalizedFeeToPerOperationFeeMultiplier,
		lockAmountMultiplier:     p.ValueTimeLockAmountMultiplier,
	}
}

// Verify verifies the lock for a transaction of the given writer anchoring numberOfOperations at transactionTime.
// A transaction within the free operation allowance needs no lock.
func (v *Verifier) Verify(lock *ledger.ValueTimeLock, numberOfOperations uint, transactionTime uint64, writer string) error {
	if numberOfOperations <= v.maxOperationsWithoutLock {
		return nil
	}

	if lock == nil {
		return sidetreeerr.Newf(sidetreeerr.ValueTimeLockRequired,
			"value time lock required for %d operations: maximum without lock is %d",
			numberOfOperations, v.maxOperationsWithoutLock)
	}

	if lock.Owner != writer {
		return sidetreeerr.Newf(sidetreeerr.ValueTimeLockTargetWriterMismatch,
			"value time lock[%s] owner[%s] doesn't match writer[%s]", lock.Identifier, lock.Owner, writer)
	}

	if transactionTime < lock.LockTransactionTime || transactionTime >= lock.UnlockTransactionTime {
		return sidetreeerr.Newf(sidetreeerr.ValueTimeLockNotActive,
			"value time lock[%s] is not active at transaction time[%d]: lock period is [%d, %d)",
			lock.Identifier, transactionTime, lock.LockTransactionTime, lock.UnlockTransactionTime)
	}

	required := v.RequiredLockAmount(lock.NormalizedFee, numberOfOperations)

	if lock.AmountLocked < required {
		return sidetreeerr.Newf(sidetreeerr.ValueTimeLockAmountInsufficient,
			"value time lock[%s] amount[%d] is less than required amount[%d] for %d operations",
			lock.Identifier, lock.AmountLocked, required, numberOfOperations)
	}

	return nil
}

// RequiredLockAmount returns the amount that must be locked to anchor the given number of operations.
func (v *Verifier) RequiredLockAmount(normalizedFee uint64, numberOfOperations uint) uint64 {
	perOperation := float64(normalizedFee) * v.feeMultiplier * float64(v.lockAmountMultiplier)

	return uint64(math.Ceil(perOperation * float64(numberOfOperations)))
}
