/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package feemanager

import (
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

// FeeManager computes and verifies transaction fees.
type FeeManager struct {
	feeMultiplier float64
}

// New returns a new fee manager for the given protocol.
func New(p protocol.Protocol) *FeeManager {
	return &FeeManager{feeMultiplier: p.NormalizedFeeToPerOperationFeeMultiplier}
}

// ComputeMinimumTransactionFee returns the minimum fee a writer must pay to anchor the given number of
// operations. The fee is never lower than the normalized fee.
func (m *FeeManager) ComputeMinimumTransactionFee(normalizedFee uint64, numberOfOperations uint) uint64 {
	feeForAllOperations := uint64(float64(normalizedFee) * m.feeMultiplier * float64(numberOfOperations))

	if feeForAllOperations < normalizedFee {
		return normalizedFee
	}

	return feeForAllOperations
}

// VerifyTransactionFee verifies that the fee paid covers the normalized fee and the per operation fee.
func (m *FeeManager) VerifyTransactionFee(feePaid uint64, numberOfOperations uint, normalizedFee uint64) error {
	if feePaid < normalizedFee {
		return sidetreeerr.Newf(sidetreeerr.TransactionFeeLessThanNormalizedFee,
			"fee paid[%d] is less than the normalized fee[%d]", feePaid, normalizedFee)
	}

	if numberOfOperations == 0 {
		return sidetreeerr.New(sidetreeerr.TransactionFeePaidInvalid, "number of operations must be greater than zero")
	}

	actualFeePerOperation := float64(feePaid) / float64(numberOfOperations)
	expectedFeePerOperation := float64(normalizedFee) * m.feeMultiplier

	if actualFeePerOperation < expectedFeePerOperation {
		return sidetreeerr.Newf(sidetreeerr.TransactionFeePaidInvalid,
			"fee per operation[%f] is less than the expected fee per operation[%f]",
			actualFeePerOperation, expectedFeePerOperation)
	}

	return nil
}
