/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/trustbloc/sidetree-node-go/pkg/api/ledger"
	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

// MockLedger mocks the underlying anchoring system. Every written anchor string becomes a transaction
// at the current ledger time.
type MockLedger struct {
	mutex         sync.RWMutex
	txns          []txn.SidetreeTxn
	time          uint64
	epoch         uint64
	pageSize      int
	locks         map[string]*ledger.ValueTimeLock
	writerLock    *ledger.ValueTimeLock
	Namespace     string
	Writer        string
	NormalizedFee uint64
	Err           error
	ReadErr       error
}

// NewMockLedger creates a mock ledger.
func NewMockLedger() *MockLedger {
	return &MockLedger{
		locks:     make(map[string]*ledger.ValueTimeLock),
		Namespace: DefaultNS,
		Writer:    "writer",
	}
}

// WithPageSize limits the number of transactions returned by a single read.
func (m *MockLedger) WithPageSize(size int) *MockLedger {
	m.pageSize = size

	return m
}

// Write anchors the anchor string paying exactly the minimum fee.
func (m *MockLedger) Write(_ context.Context, anchorString string, minFee uint64) error {
	if m.Err != nil {
		return m.Err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.appendTxn(anchorString, minFee, m.Writer)

	return nil
}

// AddTransaction adds a transaction with the given writer and fee at the current time.
func (m *MockLedger) AddTransaction(anchorString string, feePaid uint64, writer string) txn.SidetreeTxn {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.appendTxn(anchorString, feePaid, writer)
}

func (m *MockLedger) appendTxn(anchorString string, feePaid uint64, writer string) txn.SidetreeTxn {
	t := txn.SidetreeTxn{
		TransactionTime:          m.time,
		TransactionNumber:        uint64(len(m.txns)),
		TransactionTimeHash:      m.timeHash(),
		AnchorString:             anchorString,
		TransactionFeePaid:       feePaid,
		NormalizedTransactionFee: m.NormalizedFee,
		Writer:                   writer,
		Namespace:                m.Namespace,
	}

	m.txns = append(m.txns, t)

	return t
}

// Advance moves the ledger time forward.
func (m *MockLedger) Advance(n uint64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.time += n
}

// Fork drops every transaction after the given transaction number, simulating a reorganization.
// Transactions written after the fork get time hashes that differ from the dropped ones.
func (m *MockLedger) Fork(afterTransactionNumber uint64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if afterTransactionNumber+1 < uint64(len(m.txns)) {
		m.txns = m.txns[:afterTransactionNumber+1]
	}

	m.epoch++
}

// Read returns transactions after the given transaction number.
func (m *MockLedger) Read(_ context.Context, sinceTransactionNumber *uint64, transactionTimeHash string) (*ledger.ReadResult, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	start := 0

	if sinceTransactionNumber != nil {
		n := *sinceTransactionNumber
		if n >= uint64(len(m.txns)) || m.txns[n].TransactionTimeHash != transactionTimeHash {
			return nil, sidetreeerr.Newf(sidetreeerr.InvalidTransactionNumberOrTimeHash,
				"transaction number[%d] and time hash[%s] are not valid", n, transactionTimeHash)
		}

		start = int(n) + 1
	}

	end := len(m.txns)
	more := false

	if m.pageSize > 0 && end-start > m.pageSize {
		end = start + m.pageSize
		more = true
	}

	return &ledger.ReadResult{
		MoreTransactions: more,
		Transactions:     append([]txn.SidetreeTxn(nil), m.txns[start:end]...),
	}, nil
}

// GetFirstValidTransaction returns the first transaction that is still on the ledger.
func (m *MockLedger) GetFirstValidTransaction(_ context.Context, txns []txn.SidetreeTxn) (*txn.SidetreeTxn, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, t := range txns {
		if t.TransactionNumber < uint64(len(m.txns)) &&
			m.txns[t.TransactionNumber].TransactionTimeHash == t.TransactionTimeHash {
			valid := t

			return &valid, nil
		}
	}

	return nil, nil
}

// GetLatestTime returns the latest ledger time.
func (m *MockLedger) GetLatestTime(_ context.Context) (*ledger.LatestTime, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return &ledger.LatestTime{Time: m.time, Hash: m.timeHash()}, nil
}

// GetFee returns the normalized fee.
func (m *MockLedger) GetFee(_ context.Context, _ uint64) (uint64, error) {
	if m.Err != nil {
		return 0, m.Err
	}

	return m.NormalizedFee, nil
}

// AddValueTimeLock registers a lock.
func (m *MockLedger) AddValueTimeLock(lock *ledger.ValueTimeLock) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.locks[lock.Identifier] = lock
}

// SetWriterValueTimeLock sets the lock held by this node's writer.
func (m *MockLedger) SetWriterValueTimeLock(lock *ledger.ValueTimeLock) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.writerLock = lock
}

// GetValueTimeLock returns the lock with the given identifier or nil.
func (m *MockLedger) GetValueTimeLock(_ context.Context, lockIdentifier string) (*ledger.ValueTimeLock, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.locks[lockIdentifier], nil
}

// GetWriterValueTimeLock returns the writer's lock or nil.
func (m *MockLedger) GetWriterValueTimeLock(_ context.Context) (*ledger.ValueTimeLock, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.writerLock, nil
}

// Transactions returns a copy of the ledger transactions.
func (m *MockLedger) Transactions() []txn.SidetreeTxn {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return append([]txn.SidetreeTxn(nil), m.txns...)
}

func (m *MockLedger) timeHash() string {
	return fmt.Sprintf("hash-%d-%d", m.epoch, m.time)
}
