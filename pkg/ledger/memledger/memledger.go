/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package memledger implements an in-process ledger for standalone nodes. Every write is anchored in its
// own block; the ledger time is the block height and the time hash chains the block contents.
package memledger

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/ledger"
	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
	"github.com/trustbloc/sidetree-node-go/pkg/encoder"
	"github.com/trustbloc/sidetree-node-go/pkg/hashing"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

const (
	loggerModule = "sidetree-core-memledger"

	sha2_256 = 18

	defaultPageSize = 100
	defaultWriter   = "local"
)

// Ledger is an in-memory ledger.
type Ledger struct {
	mutex     sync.RWMutex
	namespace string
	writer    string
	fee       uint64
	pageSize  int
	blocks    []string
	txns      []txn.SidetreeTxn
	lock      *ledger.ValueTimeLock
	logger    *log.Log
}

// Option configures the ledger.
type Option func(l *Ledger)

// WithWriter sets the writer recorded on written transactions.
func WithWriter(writer string) Option {
	return func(l *Ledger) {
		l.writer = writer
	}
}

// WithNormalizedFee sets the normalized fee reported at every transaction time.
func WithNormalizedFee(fee uint64) Option {
	return func(l *Ledger) {
		l.fee = fee
	}
}

// WithPageSize sets the maximum number of transactions returned by a single read.
func WithPageSize(size int) Option {
	return func(l *Ledger) {
		if size > 0 {
			l.pageSize = size
		}
	}
}

// WithWriterValueTimeLock sets the value time lock held by the writer.
func WithWriterValueTimeLock(lock *ledger.ValueTimeLock) Option {
	return func(l *Ledger) {
		l.lock = lock
	}
}

// New returns a new in-memory ledger for the given namespace.
func New(namespace string, opts ...Option) *Ledger {
	l := &Ledger{
		namespace: namespace,
		writer:    defaultWriter,
		pageSize:  defaultPageSize,
		logger:    log.New(loggerModule),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Write anchors the anchor string in a new block, paying the minimum fee.
func (l *Ledger) Write(_ context.Context, anchorString string, minFee uint64) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	previous := ""
	if len(l.blocks) > 0 {
		previous = l.blocks[len(l.blocks)-1]
	}

	mh, err := hashing.ComputeMultihash(sha2_256, []byte(previous+anchorString))
	if err != nil {
		return errors.Wrap(err, "compute block hash")
	}

	timeHash := encoder.EncodeToString(mh)

	l.blocks = append(l.blocks, timeHash)

	t := txn.SidetreeTxn{
		TransactionTime:          uint64(len(l.blocks)),
		TransactionNumber:        uint64(len(l.txns)),
		TransactionTimeHash:      timeHash,
		AnchorString:             anchorString,
		TransactionFeePaid:       minFee,
		NormalizedTransactionFee: l.fee,
		Writer:                   l.writer,
		Namespace:                l.namespace,
	}

	l.txns = append(l.txns, t)

	l.logger.Debug("Anchored transaction", log.WithSidetreeTxn(t))

	return nil
}

// Read returns up to a page of transactions after the given transaction number.
func (l *Ledger) Read(_ context.Context, sinceTransactionNumber *uint64, transactionTimeHash string) (*ledger.ReadResult, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	start := 0

	if sinceTransactionNumber != nil {
		n := *sinceTransactionNumber

		if n >= uint64(len(l.txns)) || l.txns[n].TransactionTimeHash != transactionTimeHash {
			return nil, sidetreeerr.Newf(sidetreeerr.InvalidTransactionNumberOrTimeHash,
				"transaction number[%d] and time hash[%s] are not valid", n, transactionTimeHash)
		}

		start = int(n) + 1
	}

	end := len(l.txns)
	more := false

	if end-start > l.pageSize {
		end = start + l.pageSize
		more = true
	}

	return &ledger.ReadResult{
		MoreTransactions: more,
		Transactions:     append([]txn.SidetreeTxn(nil), l.txns[start:end]...),
	}, nil
}

// GetFirstValidTransaction returns the first of the given transactions that is on the ledger.
func (l *Ledger) GetFirstValidTransaction(_ context.Context, txns []txn.SidetreeTxn) (*txn.SidetreeTxn, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	for i := range txns {
		n := txns[i].TransactionNumber

		if n < uint64(len(l.txns)) && l.txns[n].TransactionTimeHash == txns[i].TransactionTimeHash {
			valid := txns[i]

			return &valid, nil
		}
	}

	return nil, nil
}

// GetLatestTime returns the current block height and hash.
func (l *Ledger) GetLatestTime(_ context.Context) (*ledger.LatestTime, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	latest := &ledger.LatestTime{Time: uint64(len(l.blocks))}

	if len(l.blocks) > 0 {
		latest.Hash = l.blocks[len(l.blocks)-1]
	}

	return latest, nil
}

// GetFee returns the configured normalized fee.
func (l *Ledger) GetFee(_ context.Context, transactionTime uint64) (uint64, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if transactionTime > uint64(len(l.blocks))+1 {
		return 0, errors.Errorf("transaction time[%d] is in the future", transactionTime)
	}

	return l.fee, nil
}

// GetValueTimeLock returns the writer's lock if it has the given identifier.
func (l *Ledger) GetValueTimeLock(_ context.Context, lockIdentifier string) (*ledger.ValueTimeLock, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if l.lock != nil && l.lock.Identifier == lockIdentifier {
		lock := *l.lock

		return &lock, nil
	}

	return nil, nil
}

// GetWriterValueTimeLock returns the writer's lock or nil.
func (l *Ledger) GetWriterValueTimeLock(_ context.Context) (*ledger.ValueTimeLock, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if l.lock == nil {
		return nil, nil
	}

	lock := *l.lock

	return &lock, nil
}
