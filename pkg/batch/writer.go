/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package batch batches multiple operations into batch files and stores the batch files in a distributed
// content-addressable storage (DCAS or CAS). A reference to the main batch file (core index) is then
// anchored on the anchoring system as Sidetree transaction.
//
// Batch Writer basic flow:
//
// 1) accept operations being delivered via Add method
// 2) 'cut' configurable number of operations into batch files
// 3) store batch files into CAS (content addressable storage)
// 4) write the anchor string referencing core index file URI to the underlying anchoring system
package batch

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/ledger"
	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/api/store"
	"github.com/trustbloc/sidetree-node-go/pkg/batch/cutter"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
)

const (
	loggerModule = "sidetree-core-writer"

	defaultBatchTimeout    = 2 * time.Second
	defaultSendChannelSize = 100
)

// Option defines Writer options such as batch timeout.
type Option func(opts *Options) error

type batchCutter interface {
	Add(operation *operation.QueuedOperation, protocolVersion uint64) (uint, error)
	Cut(force bool, maxOperations uint) (cutter.Result, error)
}

type metricsProvider interface {
	BatchCutSize(size int)
	BatchWriteTime(value time.Duration)
}

type process struct {
	// force indicates that the operation is to be processed
	// immediately, i.e. don't wait for the batch timeout
	force bool
}

// Writer implements batch writer.
type Writer struct {
	namespace    string
	context      Context
	batchCutter  batchCutter
	sendChan     chan process
	exitChan     chan struct{}
	batchTimeout time.Duration
	stopped      uint32
	protocol     protocol.Client
	metrics      metricsProvider
	logger       *log.Log
}

// Context contains batch writer context.
// 1) protocol information client
// 2) ledger used to anchor batches and to read fees and value time locks
// 3) operation queue
// 4) confirmation store that tracks the anchor strings written by this node.
type Context interface {
	Protocol() protocol.Client
	Ledger() ledger.Ledger
	OperationQueue() cutter.OperationQueue
	ConfirmationStore() store.ConfirmationStore
}

// New creates a new Writer with the given namespace.
// Writer accepts operations being delivered via Add, orders them, and then uses the batch
// cutter to form the operations batch files. The URI of main batch file (core index)
// will be written as part of anchor string to the given ledger.
func New(namespace string, context Context, options ...Option) (*Writer, error) {
	rOpts, err := prepareOptsFromOptions(options...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read opts")
	}

	batchTimeout := defaultBatchTimeout
	if rOpts.BatchTimeout != 0 {
		batchTimeout = rOpts.BatchTimeout
	}

	var metrics metricsProvider = &noopMetrics{}
	if rOpts.Metrics != nil {
		metrics = rOpts.Metrics
	}

	logger := log.New(loggerModule, log.WithFields(log.WithNamespace(namespace)))
	if rOpts.Logger != nil {
		logger = rOpts.Logger
	}

	return &Writer{
		namespace:    namespace,
		batchCutter:  cutter.New(context.Protocol(), context.OperationQueue()),
		sendChan:     make(chan process, defaultSendChannelSize),
		exitChan:     make(chan struct{}),
		batchTimeout: batchTimeout,
		context:      context,
		protocol:     context.Protocol(),
		metrics:      metrics,
		logger:       logger,
	}, nil
}

// Start periodic anchoring of operation batches to anchoring system.
func (r *Writer) Start() {
	go r.main()
}

// Stop frees the resources which were allocated by start.
func (r *Writer) Stop() {
	if !atomic.CompareAndSwapUint32(&r.stopped, 0, 1) {
		// Already stopped
		return
	}

	close(r.exitChan)
}

// Stopped returns true if the writer has been stopped.
func (r *Writer) Stopped() bool {
	return atomic.LoadUint32(&r.stopped) == 1
}

// Add the given operation to a queue of operations to be batched and anchored on anchoring system.
func (r *Writer) Add(op *operation.QueuedOperation, protocolVersion uint64) error {
	if r.Stopped() {
		return errors.New("writer is stopped")
	}

	_, err := r.batchCutter.Add(op, protocolVersion)
	if err != nil {
		return err
	}

	select {
	case r.sendChan <- process{force: false}:
		// Send a notification that an operation was added to the queue
		r.logger.Debug("Operation added to the queue", log.WithSuffix(op.UniqueSuffix))

		return nil
	case <-r.exitChan:
		return errors.New("message from exit channel")
	}
}

func (r *Writer) main() {
	ticker := time.NewTicker(r.batchTimeout)
	defer ticker.Stop()

	// On startup, there may be operations in the queue. Process them right away.
	r.processAvailable(true)

	for {
		select {
		case p := <-r.sendChan:
			r.processAvailable(p.force)

		case <-ticker.C:
			r.processAvailable(true)

		case <-r.exitChan:
			r.logger.Info("Exiting batch writer")

			return
		}
	}
}

func (r *Writer) processAvailable(forceCut bool) uint {
	if r.Stopped() {
		return 0
	}

	// First drain the queue of all of the operations that are ready to form a batch
	pending, err := r.drain()
	if err != nil {
		r.logger.Warn("Error draining operations queue", log.WithError(err), log.WithTotalPending(pending))

		return pending
	}

	if pending == 0 || !forceCut {
		return pending
	}

	r.logger.Debug("Forcefully processing operations", log.WithTotalPending(pending))

	// Now process the remaining operations
	n, pending, err := r.cutAndProcess(true)
	if err != nil {
		r.logger.Warn("Error processing operations", log.WithError(err), log.WithTotalPending(pending))
	} else if n > 0 {
		r.logger.Info("Successfully processed operations", log.WithTotal(n), log.WithTotalPending(pending))
	}

	return pending
}

// drain cuts and processes all pending operations that are ready to form a batch.
func (r *Writer) drain() (uint, error) {
	for {
		n, pending, err := r.cutAndProcess(false)
		if err != nil {
			return pending, err
		}

		if n == 0 {
			return pending, nil
		}

		r.logger.Info("Drain processed operations into batch", log.WithTotal(n), log.WithTotalPending(pending))
	}
}

func (r *Writer) cutAndProcess(forceCut bool) (numProcessed int, pending uint, err error) {
	ctx := context.Background()

	waiting, err := r.waitingForConfirmation()
	if err != nil {
		return 0, 0, err
	}

	if waiting {
		return 0, 0, nil
	}

	lock, err := r.context.Ledger().GetWriterValueTimeLock(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(err, "get writer value time lock")
	}

	v, err := r.protocol.Current()
	if err != nil {
		return 0, 0, err
	}

	result, err := r.batchCutter.Cut(forceCut, maxOperationsAllowed(v.Protocol(), lock))
	if err != nil {
		return 0, 0, errors.Wrap(err, "cut batch")
	}

	if len(result.Operations) == 0 {
		return 0, result.Pending, nil
	}

	r.logger.Info("Processing batch operations", log.WithTotal(len(result.Operations)),
		log.WithVersionTime(result.ProtocolVersion))

	start := time.Now()

	additional, err := r.process(ctx, result.Operations, result.ProtocolVersion, lock)
	if err != nil {
		result.Nack()

		return 0, result.Pending + uint(len(result.Operations)), err
	}

	r.metrics.BatchCutSize(len(result.Operations))
	r.metrics.BatchWriteTime(time.Since(start))

	pending, err = result.Ack()
	if err != nil {
		return 0, 0, errors.Wrap(err, "acknowledge batch")
	}

	for _, op := range additional {
		if pending, err = r.batchCutter.Add(op, result.ProtocolVersion); err != nil {
			return 0, 0, errors.Wrapf(err, "re-queue operation for suffix[%s]", op.UniqueSuffix)
		}
	}

	r.logger.Info("Successfully committed batch", log.WithTotalPending(pending))

	return len(result.Operations), pending, nil
}

// waitingForConfirmation returns true if the last anchor string written by this node hasn't been observed yet.
func (r *Writer) waitingForConfirmation() (bool, error) {
	cs := r.context.ConfirmationStore()
	if cs == nil {
		return false, nil
	}

	last, err := cs.GetLastSubmitted()
	if err != nil {
		return false, errors.Wrap(err, "get last submitted anchor string")
	}

	if last != nil && last.ConfirmedAt == nil {
		r.logger.Debug("Waiting for confirmation of the last anchor string", log.WithAnchorString(last.AnchorString))

		return true, nil
	}

	return false, nil
}

// process writes the batch files and anchors them. Operations for a suffix that already has an operation
// in the batch are returned so that they can be added to the next batch.
func (r *Writer) process(ctx context.Context, ops []*operation.QueuedOperation, protocolVersion uint64,
	lock *ledger.ValueTimeLock) ([]*operation.QueuedOperation, error) {
	if len(ops) == 0 {
		return nil, errors.New("create batch called with no pending operations, should not happen")
	}

	v, err := r.protocol.Get(protocolVersion)
	if err != nil {
		return nil, err
	}

	lockID := ""
	if lock != nil {
		lockID = lock.Identifier
	}

	info, err := v.OperationHandler().PrepareTxnFiles(ops, lockID)
	if err != nil {
		return nil, err
	}

	latest, err := r.context.Ledger().GetLatestTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get latest ledger time")
	}

	normalizedFee, err := r.context.Ledger().GetFee(ctx, latest.Time)
	if err != nil {
		return nil, errors.Wrap(err, "get normalized fee")
	}

	minFee := v.FeeManager().ComputeMinimumTransactionFee(normalizedFee, uint(len(info.OperationReferences)))

	r.logger.Info("Writing anchor string", log.WithAnchorString(info.AnchorString), log.WithFee(minFee))

	// Create Sidetree transaction in anchoring system (write anchor string)
	if err := r.context.Ledger().Write(ctx, info.AnchorString, minFee); err != nil {
		return nil, errors.Wrap(err, "write anchor string")
	}

	if cs := r.context.ConfirmationStore(); cs != nil {
		if err := cs.Submit(info.AnchorString, latest.Time); err != nil {
			r.logger.Warn("Failed to record submitted anchor string", log.WithAnchorString(info.AnchorString),
				log.WithError(err))
		}
	}

	return info.AdditionalOperations, nil
}

// maxOperationsAllowed returns the number of operations the writer's value time lock allows in one batch.
func maxOperationsAllowed(p protocol.Protocol, lock *ledger.ValueTimeLock) uint {
	free := p.MaxNumberOfOperationsForNoValueTimeLock

	if lock == nil {
		return free
	}

	perOperation := float64(lock.NormalizedFee) * p.NormalizedFeeToPerOperationFeeMultiplier *
		float64(p.ValueTimeLockAmountMultiplier)

	if perOperation <= 0 {
		return p.MaxOperationCount
	}

	allowed := uint(math.Floor(float64(lock.AmountLocked) / perOperation))
	if allowed < free {
		allowed = free
	}

	if allowed > p.MaxOperationCount {
		allowed = p.MaxOperationCount
	}

	return allowed
}

// WithBatchTimeout allows for specifying batch timeout.
func WithBatchTimeout(batchTimeout time.Duration) Option {
	return func(o *Options) error {
		o.BatchTimeout = batchTimeout

		return nil
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(m metricsProvider) Option {
	return func(o *Options) error {
		o.Metrics = m

		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Log) Option {
	return func(o *Options) error {
		o.Logger = l

		return nil
	}
}

// Options allows the user to specify more advanced options.
type Options struct {
	BatchTimeout time.Duration
	Metrics      metricsProvider
	Logger       *log.Log
}

// prepareOptsFromOptions reads options.
func prepareOptsFromOptions(options ...Option) (Options, error) {
	rOpts := Options{}
	for _, option := range options {
		err := option(&rOpts)
		if err != nil {
			return rOpts, err
		}
	}

	return rOpts, nil
}

type noopMetrics struct{}

func (m *noopMetrics) BatchCutSize(int) {}

func (m *noopMetrics) BatchWriteTime(time.Duration) {}
