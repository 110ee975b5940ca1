/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txnselector

import (
	"container/heap"
	"sort"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/txnprovider"
)

type transactionStore interface {
	GetTransactionsAtTime(transactionTime uint64) ([]txn.SidetreeTxn, error)
}

// Selector limits the number of transactions and operations accepted per transaction time.
type Selector struct {
	maxOperationCount      uint
	maxOperationsPerTime   uint
	maxTransactionsPerTime uint
	store                  transactionStore
	logger                 *log.Log
}

// New returns a new transaction selector. The store provides the transactions already accepted for
// a transaction time in earlier pages.
func New(p protocol.Protocol, store transactionStore) *Selector {
	return &Selector{
		maxOperationCount:      p.MaxOperationCount,
		maxOperationsPerTime:   p.MaxNumberOfOperationsPerTransactionTime,
		maxTransactionsPerTime: p.MaxNumberOfTransactionsPerTransactionTime,
		store:                  store,
		logger:                 log.New("sidetree-core-txnselector"),
	}
}

// SelectQualifiedTransactions returns the transactions that qualify for processing, in transaction number order.
func (s *Selector) SelectQualifiedTransactions(txns []txn.SidetreeTxn) ([]txn.SidetreeTxn, error) {
	var qualified []txn.SidetreeTxn

	for _, group := range groupByTransactionTime(txns) {
		selected, err := s.selectFromGroup(group)
		if err != nil {
			return nil, err
		}

		qualified = append(qualified, selected...)
	}

	sort.Slice(qualified, func(i, j int) bool {
		return qualified[i].TransactionNumber < qualified[j].TransactionNumber
	})

	return qualified, nil
}

func (s *Selector) selectFromGroup(group []txn.SidetreeTxn) ([]txn.SidetreeTxn, error) {
	transactionTime := group[0].TransactionTime

	opsSoFar, txnsSoFar, err := s.alreadyAccepted(transactionTime)
	if err != nil {
		return nil, err
	}

	if opsSoFar >= s.maxOperationsPerTime || txnsSoFar >= s.maxTransactionsPerTime {
		s.logger.Debug("Transaction time budget exhausted by earlier pages", log.WithTransactionTime(transactionTime))

		return nil, nil
	}

	opsToQualify := s.maxOperationsPerTime - opsSoFar
	txnsToQualify := s.maxTransactionsPerTime - txnsSoFar

	pq := newPriorityQueue(firstPerWriter(group))

	var (
		selected []txn.SidetreeTxn
		opsCount uint
	)

	for pq.Len() > 0 && uint(len(selected)) < txnsToQualify && opsCount < opsToQualify {
		t := heap.Pop(pq).(txn.SidetreeTxn)

		ad, e := txnprovider.ParseAnchorData(t.AnchorString, s.maxOperationCount)
		if e != nil {
			s.logger.Debug("Skipping transaction with invalid anchor string", log.WithSidetreeTxn(t), log.WithError(e))

			continue
		}

		if opsCount+uint(ad.NumberOfOperations) > opsToQualify {
			continue
		}

		opsCount += uint(ad.NumberOfOperations)

		selected = append(selected, t)
	}

	return selected, nil
}

func (s *Selector) alreadyAccepted(transactionTime uint64) (uint, uint, error) {
	txns, err := s.store.GetTransactionsAtTime(transactionTime)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "get transactions at time %d", transactionTime)
	}

	var ops uint

	for _, t := range txns {
		ad, e := txnprovider.ParseAnchorData(t.AnchorString, s.maxOperationCount)
		if e != nil {
			continue
		}

		ops += uint(ad.NumberOfOperations)
	}

	return ops, uint(len(txns)), nil
}

// groupByTransactionTime groups transactions by time preserving the order of first appearance.
func groupByTransactionTime(txns []txn.SidetreeTxn) [][]txn.SidetreeTxn {
	var groups [][]txn.SidetreeTxn

	index := make(map[uint64]int)

	for _, t := range txns {
		i, ok := index[t.TransactionTime]
		if !ok {
			i = len(groups)
			index[t.TransactionTime] = i

			groups = append(groups, nil)
		}

		groups[i] = append(groups[i], t)
	}

	return groups
}

// firstPerWriter keeps only the first transaction of each writer.
func firstPerWriter(txns []txn.SidetreeTxn) []txn.SidetreeTxn {
	var result []txn.SidetreeTxn

	writers := make(map[string]bool)

	for _, t := range txns {
		if writers[t.Writer] {
			continue
		}

		writers[t.Writer] = true

		result = append(result, t)
	}

	return result
}

// priorityQueue is a max-heap by fee paid, then by transaction number descending.
type priorityQueue []txn.SidetreeTxn

func newPriorityQueue(txns []txn.SidetreeTxn) *priorityQueue {
	pq := priorityQueue(append([]txn.SidetreeTxn(nil), txns...))

	heap.Init(&pq)

	return &pq
}

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].TransactionFeePaid != pq[j].TransactionFeePaid {
		return pq[i].TransactionFeePaid > pq[j].TransactionFeePaid
	}

	return pq[i].TransactionNumber > pq[j].TransactionNumber
}

func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(txn.SidetreeTxn))
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]

	return item
}
