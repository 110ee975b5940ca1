/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/store"
	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

// MockOperationStore mocks store for testing purposes.
type MockOperationStore struct {
	sync.RWMutex
	operations map[string][]*operation.AnchoredOperation
	Err        error
	PutErr     error
	DeleteErr  error
}

// NewMockOperationStore creates mock operations store.
func NewMockOperationStore(err error) *MockOperationStore {
	return &MockOperationStore{operations: make(map[string][]*operation.AnchoredOperation), Err: err}
}

func opKey(op *operation.AnchoredOperation) string {
	return fmt.Sprintf("%d-%d-%s", op.TransactionNumber, op.OperationIndex, op.Type)
}

// Put mocks storing operations. An operation with the same (suffix, transaction number, index, type)
// replaces the stored one.
func (m *MockOperationStore) Put(ops []*operation.AnchoredOperation) error {
	if m.Err != nil {
		return m.Err
	}

	if m.PutErr != nil {
		return m.PutErr
	}

	m.Lock()
	defer m.Unlock()

	for _, op := range ops {
		existing := m.operations[op.UniqueSuffix]

		replaced := false

		for i, e := range existing {
			if opKey(e) == opKey(op) {
				existing[i] = op
				replaced = true

				break
			}
		}

		if !replaced {
			m.operations[op.UniqueSuffix] = append(existing, op)
		}
	}

	return nil
}

// Get mocks retrieving operations from the store.
func (m *MockOperationStore) Get(uniqueSuffix string) ([]*operation.AnchoredOperation, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.RLock()
	defer m.RUnlock()

	ops, ok := m.operations[uniqueSuffix]
	if !ok || len(ops) == 0 {
		return nil, sidetreeerr.Newf(sidetreeerr.NotFound, "uniqueSuffix[%s] not found in the store", uniqueSuffix)
	}

	result := append([]*operation.AnchoredOperation(nil), ops...)

	operation.SortByTransactionOrder(result)

	return result, nil
}

// Delete mocks deleting operations anchored after the given transaction number.
func (m *MockOperationStore) Delete(afterTransactionNumber *uint64) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.Lock()
	defer m.Unlock()

	for suffix, ops := range m.operations {
		var kept []*operation.AnchoredOperation

		for _, op := range ops {
			if afterTransactionNumber != nil && op.TransactionNumber <= *afterTransactionNumber {
				kept = append(kept, op)
			}
		}

		if len(kept) == 0 {
			delete(m.operations, suffix)
		} else {
			m.operations[suffix] = kept
		}
	}

	return nil
}

// DeleteUpdatesEarlierThan mocks deleting update operations earlier than the given position.
func (m *MockOperationStore) DeleteUpdatesEarlierThan(suffix string, transactionNumber uint64, operationIndex uint) error {
	m.Lock()
	defer m.Unlock()

	boundary := &operation.AnchoredOperation{TransactionNumber: transactionNumber, OperationIndex: operationIndex}

	var kept []*operation.AnchoredOperation

	for _, op := range m.operations[suffix] {
		if op.Type == operation.TypeUpdate && op.Less(boundary) {
			continue
		}

		kept = append(kept, op)
	}

	m.operations[suffix] = kept

	return nil
}

// Count returns the total number of stored operations.
func (m *MockOperationStore) Count() int {
	m.RLock()
	defer m.RUnlock()

	n := 0
	for _, ops := range m.operations {
		n += len(ops)
	}

	return n
}

// MockTransactionStore mocks the processed transaction store.
type MockTransactionStore struct {
	sync.RWMutex
	txns []txn.SidetreeTxn
	Err  error
}

// NewMockTransactionStore creates mock transaction store.
func NewMockTransactionStore() *MockTransactionStore {
	return &MockTransactionStore{}
}

// AddTransaction appends a transaction.
func (m *MockTransactionStore) AddTransaction(t txn.SidetreeTxn) error {
	if m.Err != nil {
		return m.Err
	}

	m.Lock()
	defer m.Unlock()

	m.txns = append(m.txns, t)

	return nil
}

// GetLastTransaction returns the last transaction or nil.
func (m *MockTransactionStore) GetLastTransaction() (*txn.SidetreeTxn, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.RLock()
	defer m.RUnlock()

	if len(m.txns) == 0 {
		return nil, nil
	}

	t := m.txns[len(m.txns)-1]

	return &t, nil
}

// GetExponentiallySpacedTransactions returns transactions latest first with doubling gaps.
func (m *MockTransactionStore) GetExponentiallySpacedTransactions() ([]txn.SidetreeTxn, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.RLock()
	defer m.RUnlock()

	var result []txn.SidetreeTxn

	gap := 1
	for i := len(m.txns) - 1; i >= 0; i -= gap {
		result = append(result, m.txns[i])
		gap *= 2
	}

	return result, nil
}

// GetTransactionsLaterThan returns up to max transactions after the given transaction number.
func (m *MockTransactionStore) GetTransactionsLaterThan(transactionNumber *uint64, max int) ([]txn.SidetreeTxn, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.RLock()
	defer m.RUnlock()

	var result []txn.SidetreeTxn

	for _, t := range m.txns {
		if transactionNumber != nil && t.TransactionNumber <= *transactionNumber {
			continue
		}

		if max > 0 && len(result) == max {
			break
		}

		result = append(result, t)
	}

	return result, nil
}

// GetTransactionsAtTime returns transactions anchored at the given time.
func (m *MockTransactionStore) GetTransactionsAtTime(transactionTime uint64) ([]txn.SidetreeTxn, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.RLock()
	defer m.RUnlock()

	var result []txn.SidetreeTxn

	for _, t := range m.txns {
		if t.TransactionTime == transactionTime {
			result = append(result, t)
		}
	}

	return result, nil
}

// RemoveTransactionsLaterThan removes transactions after the given transaction number.
func (m *MockTransactionStore) RemoveTransactionsLaterThan(transactionNumber *uint64) error {
	if m.Err != nil {
		return m.Err
	}

	m.Lock()
	defer m.Unlock()

	var kept []txn.SidetreeTxn

	for _, t := range m.txns {
		if transactionNumber != nil && t.TransactionNumber <= *transactionNumber {
			kept = append(kept, t)
		}
	}

	m.txns = kept

	return nil
}

// Transactions returns a copy of the stored transactions.
func (m *MockTransactionStore) Transactions() []txn.SidetreeTxn {
	m.RLock()
	defer m.RUnlock()

	return append([]txn.SidetreeTxn(nil), m.txns...)
}

type unresolvable struct {
	txn      txn.SidetreeTxn
	attempts int
}

// MockUnresolvableTransactionStore mocks the unresolvable transaction store. Every recorded
// transaction is immediately due for retry.
type MockUnresolvableTransactionStore struct {
	sync.RWMutex
	txns map[uint64]*unresolvable
	Err  error
}

// NewMockUnresolvableTransactionStore creates mock unresolvable transaction store.
func NewMockUnresolvableTransactionStore() *MockUnresolvableTransactionStore {
	return &MockUnresolvableTransactionStore{txns: make(map[uint64]*unresolvable)}
}

// RecordUnresolvableTransactionFetchAttempt records a fetch attempt.
func (m *MockUnresolvableTransactionStore) RecordUnresolvableTransactionFetchAttempt(t txn.SidetreeTxn) error {
	if m.Err != nil {
		return m.Err
	}

	m.Lock()
	defer m.Unlock()

	u, ok := m.txns[t.TransactionNumber]
	if !ok {
		u = &unresolvable{txn: t}
		m.txns[t.TransactionNumber] = u
	}

	u.attempts++

	return nil
}

// RemoveUnresolvableTransaction removes the transaction.
func (m *MockUnresolvableTransactionStore) RemoveUnresolvableTransaction(t txn.SidetreeTxn) error {
	if m.Err != nil {
		return m.Err
	}

	m.Lock()
	defer m.Unlock()

	delete(m.txns, t.TransactionNumber)

	return nil
}

// GetUnresolvableTransactionsDueForRetry returns recorded transactions in transaction number order.
func (m *MockUnresolvableTransactionStore) GetUnresolvableTransactionsDueForRetry(maxReturnCount int) ([]txn.SidetreeTxn, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.RLock()
	defer m.RUnlock()

	var result []txn.SidetreeTxn
	for _, u := range m.txns {
		result = append(result, u.txn)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TransactionNumber < result[j].TransactionNumber
	})

	if maxReturnCount > 0 && len(result) > maxReturnCount {
		result = result[:maxReturnCount]
	}

	return result, nil
}

// RemoveUnresolvableTransactionsLaterThan removes transactions after the given transaction number.
func (m *MockUnresolvableTransactionStore) RemoveUnresolvableTransactionsLaterThan(transactionNumber *uint64) error {
	if m.Err != nil {
		return m.Err
	}

	m.Lock()
	defer m.Unlock()

	for n := range m.txns {
		if transactionNumber == nil || n > *transactionNumber {
			delete(m.txns, n)
		}
	}

	return nil
}

// Attempts returns the number of recorded fetch attempts for the transaction number.
func (m *MockUnresolvableTransactionStore) Attempts(transactionNumber uint64) int {
	m.RLock()
	defer m.RUnlock()

	if u, ok := m.txns[transactionNumber]; ok {
		return u.attempts
	}

	return 0
}

// MockConfirmationStore mocks the confirmation store.
type MockConfirmationStore struct {
	sync.RWMutex
	confirmations []*store.Confirmation
	Err           error
}

// NewMockConfirmationStore creates mock confirmation store.
func NewMockConfirmationStore() *MockConfirmationStore {
	return &MockConfirmationStore{}
}

// Submit records a submitted anchor string.
func (m *MockConfirmationStore) Submit(anchorString string, submittedAt uint64) error {
	if m.Err != nil {
		return m.Err
	}

	m.Lock()
	defer m.Unlock()

	m.confirmations = append(m.confirmations, &store.Confirmation{AnchorString: anchorString, SubmittedAt: submittedAt})

	return nil
}

// Confirm marks the anchor string as confirmed.
func (m *MockConfirmationStore) Confirm(anchorString string, confirmedAt uint64) error {
	if m.Err != nil {
		return m.Err
	}

	m.Lock()
	defer m.Unlock()

	for _, c := range m.confirmations {
		if c.AnchorString == anchorString {
			t := confirmedAt
			c.ConfirmedAt = &t
		}
	}

	return nil
}

// ResetAfter clears confirmations after the given time.
func (m *MockConfirmationStore) ResetAfter(confirmedAt *uint64) error {
	if m.Err != nil {
		return m.Err
	}

	m.Lock()
	defer m.Unlock()

	for _, c := range m.confirmations {
		if c.ConfirmedAt != nil && (confirmedAt == nil || *c.ConfirmedAt > *confirmedAt) {
			c.ConfirmedAt = nil
		}
	}

	return nil
}

// GetLastSubmitted returns the last submitted confirmation or nil.
func (m *MockConfirmationStore) GetLastSubmitted() (*store.Confirmation, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.RLock()
	defer m.RUnlock()

	if len(m.confirmations) == 0 {
		return nil, nil
	}

	c := *m.confirmations[len(m.confirmations)-1]

	return &c, nil
}
