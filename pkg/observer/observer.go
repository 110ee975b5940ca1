/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package observer follows the ledger and turns Sidetree transactions into stored operations.
//
// Observer cycle:
//
// 1) read the next page of transactions since the last known transaction
// 2) select the transactions that qualify under the per transaction time throughput limits
// 3) download and process the qualified transactions concurrently
// 4) persist the contiguous prefix of processed transactions, in transaction number order
// 5) roll back when the ledger reports that the last known transaction is no longer valid
// 6) retry transactions that could not be resolved earlier
package observer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trustbloc/sidetree-node-go/pkg/api/ledger"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/api/store"
	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

const (
	loggerModule = "sidetree-core-observer"

	defaultInterval               = time.Second
	defaultMaxConcurrentDownloads = 20
	defaultMaxUnresolvableRetries = 100
)

type metricsProvider interface {
	ObserverCycleTime(value time.Duration)
	TransactionProcessed()
	TransactionUnresolvable()
	Reorg()
}

// Providers contains all of the providers required by the observer.
type Providers struct {
	Ledger            ledger.Ledger
	ProtocolClient    protocol.Client
	OpStore           store.OperationStore
	TxnStore          store.TransactionStore
	UnresolvableStore store.UnresolvableTransactionStore
	ConfirmationStore store.ConfirmationStore
	Metrics           metricsProvider
}

type status int

const (
	statusProcessing status = iota
	statusProcessed
	statusError
)

type inFlightTxn struct {
	txn    txn.SidetreeTxn
	status status
}

// Observer reads Sidetree transactions from the ledger and processes them into the operation store.
type Observer struct {
	*Providers

	interval               time.Duration
	maxConcurrentDownloads int
	maxUnresolvableRetries int
	logger                 *log.Log

	cycleMutex sync.Mutex
	cursor     *txn.SidetreeTxn
	cursorSet  bool
	inFlight   []*inFlightTxn

	stopped uint32
	stopCh  chan struct{}
}

// Option is an observer option.
type Option func(o *Observer)

// WithInterval sets the time between processing cycles.
func WithInterval(interval time.Duration) Option {
	return func(o *Observer) {
		if interval > 0 {
			o.interval = interval
		}
	}
}

// WithMaxConcurrentDownloads sets the number of transactions processed concurrently.
func WithMaxConcurrentDownloads(n int) Option {
	return func(o *Observer) {
		if n > 0 {
			o.maxConcurrentDownloads = n
		}
	}
}

// WithMaxUnresolvableRetries sets the number of unresolvable transactions retried per cycle.
func WithMaxUnresolvableRetries(n int) Option {
	return func(o *Observer) {
		if n > 0 {
			o.maxUnresolvableRetries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Log) Option {
	return func(o *Observer) {
		if l != nil {
			o.logger = l
		}
	}
}

// New returns a new observer.
func New(providers *Providers, opts ...Option) *Observer {
	o := &Observer{
		Providers:              providers,
		interval:               defaultInterval,
		maxConcurrentDownloads: defaultMaxConcurrentDownloads,
		maxUnresolvableRetries: defaultMaxUnresolvableRetries,
		logger:                 log.New(loggerModule),
		stopCh:                 make(chan struct{}),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Start starts the periodic processing of ledger transactions.
func (o *Observer) Start() {
	go o.run()
}

// Stop stops periodic processing. A cycle in progress is allowed to finish.
func (o *Observer) Stop() {
	if !atomic.CompareAndSwapUint32(&o.stopped, 0, 1) {
		return
	}

	close(o.stopCh)
}

// Stopped returns true if the observer has been stopped.
func (o *Observer) Stopped() bool {
	return atomic.LoadUint32(&o.stopped) == 1
}

func (o *Observer) run() {
	o.logger.Info("Starting observer", log.WithDuration(o.interval))

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if o.Stopped() {
				return
			}

			if err := o.ProcessTransactions(context.Background()); err != nil {
				o.logger.Warn("Observer cycle failed", log.WithError(err))
			}

		case <-o.stopCh:
			o.logger.Info("The observer has been stopped. Exiting.")

			return
		}
	}
}

// ProcessTransactions runs one processing cycle: it reads every available page of transactions from the
// ledger, processes the qualified ones and then retries unresolvable transactions that are due.
func (o *Observer) ProcessTransactions(ctx context.Context) error {
	o.cycleMutex.Lock()
	defer o.cycleMutex.Unlock()

	start := time.Now()
	defer func() {
		o.Metrics.ObserverCycleTime(time.Since(start))
	}()

	if err := o.initCursor(); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		more, err := o.processNextPage(ctx)
		if err != nil {
			return err
		}

		if !more {
			break
		}
	}

	return o.processUnresolvableTransactions(ctx)
}

func (o *Observer) initCursor() error {
	if o.cursorSet {
		return nil
	}

	last, err := o.TxnStore.GetLastTransaction()
	if err != nil {
		return errors.Wrap(err, "get last transaction")
	}

	o.cursor = last
	o.cursorSet = true

	return nil
}

func (o *Observer) processNextPage(ctx context.Context) (bool, error) {
	var sinceNumber *uint64

	var sinceHash string

	if o.cursor != nil {
		n := o.cursor.TransactionNumber
		sinceNumber = &n
		sinceHash = o.cursor.TransactionTimeHash
	}

	result, err := o.Ledger.Read(ctx, sinceNumber, sinceHash)
	if err != nil {
		if sidetreeerr.Is(err, sidetreeerr.InvalidTransactionNumberOrTimeHash) {
			o.logger.Info("Last known transaction is no longer valid on the ledger",
				log.WithSidetreeTxn(o.cursor), log.WithError(err))

			return false, o.handleInvalidCursor(ctx)
		}

		return false, errors.Wrap(err, "read ledger transactions")
	}

	if len(result.Transactions) == 0 {
		return false, nil
	}

	qualified, err := o.selectQualifiedTransactions(result.Transactions)
	if err != nil {
		return false, err
	}

	o.process(ctx, qualified)

	if err := o.flush(); err != nil {
		return false, err
	}

	if len(o.inFlight) > 0 {
		// a transaction failed unexpectedly: restart the next cycle from the last persisted transaction
		o.inFlight = nil
		o.cursorSet = false

		return false, errors.New("transaction processing failed, the cycle will restart from the last stored transaction")
	}

	last := result.Transactions[len(result.Transactions)-1]
	o.cursor = &last

	return result.MoreTransactions, nil
}

func (o *Observer) selectQualifiedTransactions(txns []txn.SidetreeTxn) ([]txn.SidetreeTxn, error) {
	var qualified []txn.SidetreeTxn

	for _, group := range groupByTransactionTime(txns) {
		v, err := o.ProtocolClient.Get(group[0].TransactionTime)
		if err != nil {
			return nil, errors.Wrapf(err, "get protocol version for transaction time[%d]", group[0].TransactionTime)
		}

		selected, err := v.TransactionSelector().SelectQualifiedTransactions(group)
		if err != nil {
			return nil, errors.Wrapf(err, "select qualified transactions at time[%d]", group[0].TransactionTime)
		}

		qualified = append(qualified, selected...)
	}

	o.logger.Debug("Selected qualified transactions", log.WithTotal(len(qualified)), log.WithSize(len(txns)))

	return qualified, nil
}

// process processes the transactions concurrently. Every transaction ends up either processed or in error.
func (o *Observer) process(ctx context.Context, txns []txn.SidetreeTxn) {
	g := &errgroup.Group{}
	g.SetLimit(o.maxConcurrentDownloads)

	for _, t := range txns {
		ift := &inFlightTxn{txn: t, status: statusProcessing}
		o.inFlight = append(o.inFlight, ift)

		g.Go(func() error {
			ift.status = o.processTransaction(ctx, ift.txn, false)

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck
}

func (o *Observer) processTransaction(ctx context.Context, t txn.SidetreeTxn, retry bool) status {
	v, err := o.ProtocolClient.Get(t.TransactionTime)
	if err != nil {
		o.logger.Warn("Failed to get protocol version for transaction", log.WithSidetreeTxn(t), log.WithError(err))

		return statusError
	}

	done, err := v.TransactionProcessor().Process(ctx, t)
	if !done {
		o.logger.Info("Transaction could not be resolved. It will be retried.",
			log.WithTransactionNumber(t.TransactionNumber), log.WithAnchorString(t.AnchorString), log.WithError(err))

		if e := o.UnresolvableStore.RecordUnresolvableTransactionFetchAttempt(t); e != nil {
			o.logger.Error("Failed to record unresolvable transaction",
				log.WithTransactionNumber(t.TransactionNumber), log.WithError(e))

			return statusError
		}

		o.Metrics.TransactionUnresolvable()

		return statusProcessed
	}

	if retry {
		if e := o.UnresolvableStore.RemoveUnresolvableTransaction(t); e != nil {
			o.logger.Warn("Failed to remove resolved transaction from the unresolvable store",
				log.WithTransactionNumber(t.TransactionNumber), log.WithError(e))
		}
	}

	if e := o.ConfirmationStore.Confirm(t.AnchorString, t.TransactionTime); e != nil {
		o.logger.Warn("Failed to confirm anchor string", log.WithAnchorString(t.AnchorString), log.WithError(e))
	}

	o.Metrics.TransactionProcessed()

	o.logger.Debug("Processed transaction", log.WithTransactionNumber(t.TransactionNumber),
		log.WithAnchorString(t.AnchorString))

	return statusProcessed
}

// flush persists the contiguous prefix of processed transactions and keeps the rest in flight.
func (o *Observer) flush() error {
	i := 0

	for ; i < len(o.inFlight) && o.inFlight[i].status == statusProcessed; i++ {
		if err := o.TxnStore.AddTransaction(o.inFlight[i].txn); err != nil {
			o.inFlight = o.inFlight[i:]

			return errors.Wrapf(err, "store transaction[%d]", o.inFlight[0].txn.TransactionNumber)
		}
	}

	o.inFlight = o.inFlight[i:]

	return nil
}

func (o *Observer) handleInvalidCursor(ctx context.Context) error {
	latest, err := o.Ledger.GetLatestTime(ctx)
	if err != nil {
		return errors.Wrap(err, "get latest ledger time")
	}

	if o.cursor != nil && latest.Time < o.cursor.TransactionTime {
		o.logger.Info("Ledger time is behind the last known transaction. Waiting for the ledger to catch up.",
			log.WithLedgerTime(latest.Time), log.WithTransactionTime(o.cursor.TransactionTime))

		return nil
	}

	return o.revertInvalidTransactions(ctx)
}

// revertInvalidTransactions rolls the stores back to the latest stored transaction that is still valid
// on the ledger and resumes reading after it.
func (o *Observer) revertInvalidTransactions(ctx context.Context) error {
	o.Metrics.Reorg()

	spaced, err := o.TxnStore.GetExponentiallySpacedTransactions()
	if err != nil {
		return errors.Wrap(err, "get exponentially spaced transactions")
	}

	lastValid, err := o.Ledger.GetFirstValidTransaction(ctx, spaced)
	if err != nil {
		return errors.Wrap(err, "get first valid transaction")
	}

	var lastValidNumber, lastValidTime *uint64

	if lastValid != nil {
		lastValidNumber = &lastValid.TransactionNumber
		lastValidTime = &lastValid.TransactionTime
	}

	o.logger.Warn("Reverting transactions after the last valid transaction", log.WithSidetreeTxn(lastValid))

	if err := o.OpStore.Delete(lastValidNumber); err != nil {
		return errors.Wrap(err, "delete operations")
	}

	if err := o.UnresolvableStore.RemoveUnresolvableTransactionsLaterThan(lastValidNumber); err != nil {
		return errors.Wrap(err, "remove unresolvable transactions")
	}

	if err := o.TxnStore.RemoveTransactionsLaterThan(lastValidNumber); err != nil {
		return errors.Wrap(err, "remove transactions")
	}

	if err := o.ConfirmationStore.ResetAfter(lastValidTime); err != nil {
		return errors.Wrap(err, "reset confirmations")
	}

	o.cursor = lastValid
	o.cursorSet = true

	return nil
}

func (o *Observer) processUnresolvableTransactions(ctx context.Context) error {
	txns, err := o.UnresolvableStore.GetUnresolvableTransactionsDueForRetry(o.maxUnresolvableRetries)
	if err != nil {
		return errors.Wrap(err, "get unresolvable transactions due for retry")
	}

	if len(txns) == 0 {
		return nil
	}

	o.logger.Debug("Retrying unresolvable transactions", log.WithTotal(len(txns)))

	g := &errgroup.Group{}
	g.SetLimit(o.maxConcurrentDownloads)

	for _, t := range txns {
		t := t

		g.Go(func() error {
			o.processTransaction(ctx, t, true)

			return nil
		})
	}

	return g.Wait()
}

func groupByTransactionTime(txns []txn.SidetreeTxn) [][]txn.SidetreeTxn {
	var groups [][]txn.SidetreeTxn

	for _, t := range txns {
		n := len(groups)
		if n > 0 && groups[n-1][0].TransactionTime == t.TransactionTime {
			groups[n-1] = append(groups[n-1], t)

			continue
		}

		groups = append(groups, []txn.SidetreeTxn{t})
	}

	return groups
}
