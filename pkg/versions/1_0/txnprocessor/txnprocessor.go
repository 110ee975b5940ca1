/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txnprocessor

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/ledger"
	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/txnprovider"
)

const loggerModule = "sidetree-core-txnprocessor"

// OperationStore interface to access operation store.
type OperationStore interface {
	Put(ops []*operation.AnchoredOperation) error
}

type valueTimeLockProvider interface {
	GetValueTimeLock(ctx context.Context, lockIdentifier string) (*ledger.ValueTimeLock, error)
}

// Providers contains the providers required by the TxnProcessor.
type Providers struct {
	OpStore                   OperationStore
	OperationProtocolProvider protocol.OperationProvider
	ValueTimeLockProvider     valueTimeLockProvider
	FeeManager                protocol.FeeManager
	ValueTimeLockVerifier     protocol.ValueTimeLockVerifier
}

// TxnProcessor processes Sidetree transactions by persisting them to an operation store.
type TxnProcessor struct {
	*Providers

	protocol protocol.Protocol
	logger   *log.Log
}

// Option is an option for transaction processor.
type Option func(opts *TxnProcessor)

// WithLogger sets the logger used by the transaction processor.
func WithLogger(l *log.Log) Option {
	return func(opts *TxnProcessor) {
		if l != nil {
			opts.logger = l
		}
	}
}

// New returns a new transaction processor for the given protocol version.
func New(p protocol.Protocol, providers *Providers, opts ...Option) *TxnProcessor {
	tp := &TxnProcessor{
		Providers: providers,
		protocol:  p,
		logger:    log.New(loggerModule),
	}

	for _, opt := range opts {
		opt(tp)
	}

	return tp
}

// Process persists all of the operations for the given transaction. It returns true if the transaction
// doesn't need to be processed again: either its operations were stored or the transaction is invalid
// and was ignored. False is returned with an error if the transaction should be retried later.
func (p *TxnProcessor) Process(ctx context.Context, sidetreeTxn txn.SidetreeTxn) (bool, error) {
	p.logger.Debug("Processing sidetree transaction", log.WithSidetreeTxn(sidetreeTxn))

	err := p.process(ctx, sidetreeTxn)
	if err == nil {
		return true, nil
	}

	if isRetryable(err) {
		p.logger.Info("Failed to process transaction. It will be retried.",
			log.WithSidetreeTxn(sidetreeTxn), log.WithError(err))

		return false, err
	}

	p.logger.Info("Ignoring invalid transaction",
		log.WithAnchorString(sidetreeTxn.AnchorString), log.WithTransactionNumber(sidetreeTxn.TransactionNumber),
		log.WithError(err))

	return true, nil
}

func (p *TxnProcessor) process(ctx context.Context, sidetreeTxn txn.SidetreeTxn) error {
	ad, err := txnprovider.ParseAnchorData(sidetreeTxn.AnchorString, p.protocol.MaxOperationCount)
	if err != nil {
		return err
	}

	numOps := uint(ad.NumberOfOperations)

	// the fee can be verified before anything is downloaded
	err = p.FeeManager.VerifyTransactionFee(sidetreeTxn.TransactionFeePaid, numOps, sidetreeTxn.NormalizedTransactionFee)
	if err != nil {
		return err
	}

	txnOps, err := p.OperationProtocolProvider.GetTxnOperations(ctx, &sidetreeTxn)
	if err != nil {
		return errors.Wrapf(err, "failed to retrieve operations for anchor string[%s]", sidetreeTxn.AnchorString)
	}

	if err := p.verifyValueTimeLock(ctx, txnOps.WriterLockID, numOps, sidetreeTxn); err != nil {
		return err
	}

	ops := make([]*operation.AnchoredOperation, len(txnOps.Operations))

	for i, op := range txnOps.Operations {
		ops[i] = p.updateAnchoredOperation(op, uint(i), sidetreeTxn)
	}

	if err := p.OpStore.Put(ops); err != nil {
		return &storeError{errors.Wrapf(err, "failed to store operations from anchor string[%s]", sidetreeTxn.AnchorString)}
	}

	p.logger.Debug("Stored transaction operations", log.WithTotalOperations(len(ops)),
		log.WithTransactionNumber(sidetreeTxn.TransactionNumber))

	return nil
}

func (p *TxnProcessor) verifyValueTimeLock(ctx context.Context, lockID string, numOps uint, sidetreeTxn txn.SidetreeTxn) error {
	var lock *ledger.ValueTimeLock

	if lockID != "" {
		var err error

		lock, err = p.ValueTimeLockProvider.GetValueTimeLock(ctx, lockID)
		if err != nil {
			return &storeError{errors.Wrapf(err, "get value time lock[%s]", lockID)}
		}
	}

	return p.ValueTimeLockVerifier.Verify(lock, numOps, sidetreeTxn.TransactionTime, sidetreeTxn.Writer)
}

func (p *TxnProcessor) updateAnchoredOperation(op *operation.AnchoredOperation, index uint,
	sidetreeTxn txn.SidetreeTxn) *operation.AnchoredOperation {
	//  The logical anchoring time that this operation was anchored on
	op.TransactionTime = sidetreeTxn.TransactionTime
	// The transaction number of the transaction this operation was batched within
	op.TransactionNumber = sidetreeTxn.TransactionNumber
	// The position of the operation within the transaction
	op.OperationIndex = index
	// The genesis time of the protocol that was used for this operation
	op.ProtocolVersion = p.protocol.GenesisTime

	return op
}

// storeError marks failures of the node's own dependencies (storage, ledger) that must be retried.
type storeError struct {
	error
}

func (e *storeError) Cause() error {
	return e.error
}

// isRetryable returns true if the transaction failed for reasons that may go away: CAS was not reachable,
// the file has not propagated yet, or a dependency failed. Any other typed error means the transaction is invalid.
func isRetryable(err error) bool {
	var se *storeError
	if errors.As(err, &se) {
		return true
	}

	code, ok := sidetreeerr.CodeOf(err)
	if !ok {
		return true
	}

	switch code {
	case sidetreeerr.CasNotReachable, sidetreeerr.CasFileNotFound:
		return true
	default:
		return false
	}
}
