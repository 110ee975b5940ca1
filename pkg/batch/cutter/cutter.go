/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cutter

import (
	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
)

const loggerModule = "sidetree-core-cutter"

// OperationQueue defines the functions for adding and removing operations from a queue.
type OperationQueue interface {
	// Add adds the given operation to the tail of the queue and returns the new length of the queue.
	Add(op *operation.QueuedOperation, protocolVersion uint64) (uint, error)

	// Remove removes (up to) the given number of items from the head of the queue.
	// Returns the removed items and the new length of the queue.
	Remove(num uint) (operation.QueuedOperationsAtTime, uint, error)

	// Peek returns (up to) the given number of operations from the head of the queue but does not remove them.
	Peek(num uint) (operation.QueuedOperationsAtTime, error)

	// Len returns the number of operation in the queue.
	Len() uint
}

// Result is the result of a batch 'Cut'.
type Result struct {
	// Operations holds a batch of operations
	Operations []*operation.QueuedOperation

	// ProtocolVersion is the genesis time of the protocol version that was used to add the operations.
	ProtocolVersion uint64

	// Pending is the number of operations remaining in the queue
	Pending uint

	// Ack commits the remaining items after a successful cut and returns the number of pending operations.
	Ack func() (uint, error)

	// Nack leaves the cut operations in the queue.
	Nack func()
}

// BatchCutter implements batch cutting.
type BatchCutter struct {
	pendingBatch OperationQueue
	client       protocol.Client
	logger       *log.Log
}

// New creates a Cutter implementation.
func New(client protocol.Client, queue OperationQueue) *BatchCutter {
	return &BatchCutter{
		client:       client,
		pendingBatch: queue,
		logger:       log.New(loggerModule),
	}
}

// Add adds the given operation to pending batch queue and returns the total
// number of pending operations.
func (r *BatchCutter) Add(op *operation.QueuedOperation, protocolVersion uint64) (uint, error) {
	return r.pendingBatch.Add(op, protocolVersion)
}

// Cut returns the current batch along with number of items that should be remaining in the queue
// after the returned operations are committed. At most maxOperations operations are cut, further capped by
// the current protocol's maximum operation count. All operations in a batch share one protocol version.
// If force is false then the batch will be cut only if it has reached the max batch size
// or if the queue holds operations of more than one protocol version.
// If force is true then the batch will be cut if there is at least one operation in the batch.
func (r *BatchCutter) Cut(force bool, maxOperations uint) (Result, error) {
	pending := r.pendingBatch.Len()

	v, err := r.client.Current()
	if err != nil {
		return Result{}, errors.Wrap(err, "get current protocol version")
	}

	maxOperationsPerBatch := v.Protocol().MaxOperationCount
	if maxOperations > 0 && maxOperations < maxOperationsPerBatch {
		maxOperationsPerBatch = maxOperations
	}

	batchSize := min(pending, maxOperationsPerBatch)

	ops, err := r.pendingBatch.Peek(batchSize)
	if err != nil {
		return Result{}, errors.Wrap(err, "peek operations")
	}

	ops, versionBoundary := sameProtocolVersion(ops)

	if len(ops) == 0 || (!force && !versionBoundary && uint(len(ops)) < maxOperationsPerBatch) {
		return Result{Pending: pending}, nil
	}

	batchSize = uint(len(ops))
	pending -= batchSize

	r.logger.Debug("Cut batch", log.WithTotalPending(pending), log.WithTotal(int(batchSize)),
		log.WithVersionTime(ops[0].ProtocolVersion))

	return Result{
		Operations:      ops.QueuedOperations(),
		ProtocolVersion: ops[0].ProtocolVersion,
		Pending:         pending,
		Ack: func() (uint, error) {
			_, n, e := r.pendingBatch.Remove(batchSize)

			return n, e
		},
		Nack: func() {},
	}, nil
}

// sameProtocolVersion returns the leading operations that share the protocol version of the first operation,
// and true if more operations follow with a different version.
func sameProtocolVersion(ops operation.QueuedOperationsAtTime) (operation.QueuedOperationsAtTime, bool) {
	for i, op := range ops {
		if op.ProtocolVersion != ops[0].ProtocolVersion {
			return ops[:i], true
		}
	}

	return ops, false
}

func min(i, j uint) uint {
	if i < j {
		return i
	}

	return j
}
