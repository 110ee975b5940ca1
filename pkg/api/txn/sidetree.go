/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

// SidetreeTxn defines info about sidetree transaction.
type SidetreeTxn struct {
	TransactionTime          uint64 `json:"transactionTime"`
	TransactionNumber        uint64 `json:"transactionNumber"`
	TransactionTimeHash      string `json:"transactionTimeHash"`
	AnchorString             string `json:"anchorString"`
	TransactionFeePaid       uint64 `json:"transactionFeePaid"`
	NormalizedTransactionFee uint64 `json:"normalizedTransactionFee"`
	Writer                   string `json:"writer"`
	Namespace                string `json:"namespace,omitempty"`
}
