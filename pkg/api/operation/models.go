/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operation

import "sort"

// Operation holds minimum information required for parsing/validating client request.
type Operation struct {

	// Type defines operation type.
	Type Type

	// UniqueSuffix defines document unique suffix.
	UniqueSuffix string

	// ID defines ID
	ID string

	// OperationRequest is the original operation request
	OperationRequest []byte
}

// Reference holds minimum information about did operation (suffix and type).
type Reference struct {

	// UniqueSuffix defines document unique suffix.
	UniqueSuffix string

	// Type defines operation type.
	Type Type
}

// AnchoredOperation defines an anchored operation (stored in document operation store).
type AnchoredOperation struct {

	// Type defines operation type.
	Type Type `json:"type"`

	// UniqueSuffix defines document unique suffix.
	UniqueSuffix string `json:"uniqueSuffix"`

	// OperationRequest is the canonical operation request assembled from the batch files.
	OperationRequest []byte `json:"operation"`

	// TransactionTime is the logical anchoring time (block number in case of blockchain) for this operation in the
	// anchoring system (blockchain).
	TransactionTime uint64 `json:"transactionTime"`

	// TransactionNumber is the transaction number of the transaction this operation was batched within.
	TransactionNumber uint64 `json:"transactionNumber"`

	// OperationIndex is the position of the operation within its transaction.
	OperationIndex uint `json:"operationIndex"`

	// ProtocolVersion is the genesis time (version) of the protocol that was used for this operation.
	ProtocolVersion uint64 `json:"protocolVersion"`
}

// Type defines valid values for operation type.
type Type string

const (

	// TypeCreate captures "create" operation type.
	TypeCreate Type = "create"

	// TypeUpdate captures "update" operation type.
	TypeUpdate Type = "update"

	// TypeDeactivate captures "deactivate" operation type.
	TypeDeactivate Type = "deactivate"

	// TypeRecover captures "recover" operation type.
	TypeRecover Type = "recover"
)

// QueuedOperation stores minimum required operation info for operations queue.
type QueuedOperation struct {
	Type             Type
	OperationRequest []byte
	UniqueSuffix     string
	Namespace        string
}

// QueuedOperationAtTime contains queued operation info with protocol genesis time.
type QueuedOperationAtTime struct {
	QueuedOperation
	ProtocolVersion uint64
}

// QueuedOperationsAtTime contains a collection of queued operations with protocol genesis time.
type QueuedOperationsAtTime []*QueuedOperationAtTime

// QueuedOperations returns a collection of QueuedOperation.
func (o QueuedOperationsAtTime) QueuedOperations() []*QueuedOperation {
	ops := make([]*QueuedOperation, len(o))

	for i, op := range o {
		ops[i] = &op.QueuedOperation
	}

	return ops
}

// Less reports whether op is anchored before other: by transaction number, then by operation index.
func (op *AnchoredOperation) Less(other *AnchoredOperation) bool {
	if op.TransactionNumber != other.TransactionNumber {
		return op.TransactionNumber < other.TransactionNumber
	}

	return op.OperationIndex < other.OperationIndex
}

// SortByTransactionOrder sorts operations in place by (transaction number, operation index).
func SortByTransactionOrder(ops []*AnchoredOperation) {
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Less(ops[j])
	})
}
