/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resolver

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/commitment"
	"github.com/trustbloc/sidetree-node-go/pkg/encoder"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

const loggerModule = "sidetree-core-resolver"

// OperationStore defines interface for retrieving all operations related to document.
type OperationStore interface {
	// Get retrieves all operations related to document
	Get(uniqueSuffix string) ([]*operation.AnchoredOperation, error)
}

type metricsProvider interface {
	ResolveTime(value time.Duration)
}

// Resolver computes the state of a DID by folding its anchored operations.
// The operation store is the only input; state is never persisted.
type Resolver struct {
	name    string
	store   OperationStore
	pc      protocol.Client
	metrics metricsProvider
	logger  *log.Log
}

// Option is a resolver option.
type Option func(r *Resolver)

// WithMetrics sets the metrics provider.
func WithMetrics(m metricsProvider) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Log) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns new resolver with the given name. (Note that name is only used for logging.)
func New(name string, store OperationStore, pc protocol.Client, opts ...Option) *Resolver {
	r := &Resolver{
		name:   name,
		store:  store,
		pc:     pc,
		logger: log.New(loggerModule),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

type resolveOptions struct {
	additionalOps []*operation.AnchoredOperation
}

// ResolutionOption is an option for a single resolution.
type ResolutionOption func(opts *resolveOptions)

// WithAdditionalOperations adds operations that are not (yet) in the operation store, for example
// an unpublished create.
func WithAdditionalOperations(ops ...*operation.AnchoredOperation) ResolutionOption {
	return func(opts *resolveOptions) {
		opts.additionalOps = append(opts.additionalOps, ops...)
	}
}

// Resolve computes the DID state of the given unique suffix. A NotFound error is returned
// if no create operation is valid.
func (r *Resolver) Resolve(ctx context.Context, uniqueSuffix string, opts ...ResolutionOption) (*protocol.DIDState, error) {
	start := time.Now()

	defer func() {
		if r.metrics != nil {
			r.metrics.ResolveTime(time.Since(start))
		}
	}()

	options := &resolveOptions{}
	for _, opt := range opts {
		opt(options)
	}

	ops, err := r.getOperations(uniqueSuffix, options.additionalOps)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Resolving operations", log.WithNamespace(r.name), log.WithSuffix(uniqueSuffix),
		log.WithTotalOperations(len(ops)))

	createOps, fullOps, updateOps := splitOperations(ops)

	state := r.applyCreateOperations(createOps)
	if state == nil {
		return nil, sidetreeerr.Newf(sidetreeerr.NotFound, "valid create operation not found for [%s]", uniqueSuffix)
	}

	state, err = r.applyChain(ctx, state, fullOps, recoveryCommitmentOf)
	if err != nil {
		return nil, err
	}

	if state.Deactivated() {
		r.logger.Debug("Document was deactivated", log.WithNamespace(r.name), log.WithSuffix(uniqueSuffix))

		return state, nil
	}

	return r.applyChain(ctx, state, updateOps, updateCommitmentOf)
}

func (r *Resolver) getOperations(uniqueSuffix string, additional []*operation.AnchoredOperation) ([]*operation.AnchoredOperation, error) {
	ops, err := r.store.Get(uniqueSuffix)
	if err != nil && !sidetreeerr.Is(err, sidetreeerr.NotFound) {
		return nil, errors.Wrapf(err, "get operations for [%s]", uniqueSuffix)
	}

	ops = append(ops, additional...)

	if len(ops) == 0 {
		return nil, sidetreeerr.Newf(sidetreeerr.NotFound, "uniqueSuffix [%s] not found in the store", uniqueSuffix)
	}

	operation.SortByTransactionOrder(ops)

	return ops, nil
}

func (r *Resolver) applyCreateOperations(ops []*operation.AnchoredOperation) *protocol.DIDState {
	for _, op := range ops {
		result := r.applyOperation(op, nil)
		if result != nil && result.IsApplied() {
			return result.State
		}
	}

	return nil
}

type commitmentOf func(state *protocol.DIDState) string

func recoveryCommitmentOf(state *protocol.DIDState) string {
	return state.RecoveryCommitment
}

func updateCommitmentOf(state *protocol.DIDState) string {
	return state.UpdateCommitment
}

// applyChain follows the commitment chain selected by next: at each step the candidates revealing the current
// commitment are tried in ledger order and the first one that applies without reusing a commitment wins.
func (r *Resolver) applyChain(ctx context.Context, state *protocol.DIDState, ops []*operation.AnchoredOperation,
	next commitmentOf) (*protocol.DIDState, error) {
	if len(ops) == 0 {
		return state, nil
	}

	commitValueToOps := r.getCommitValueToOperations(ops)
	usedCommitValues := make(map[string]bool)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		commitValue := next(state)
		if commitValue == "" {
			return state, nil
		}

		candidates, ok := commitValueToOps[commitValue]
		if !ok {
			return state, nil
		}

		usedCommitValues[commitValue] = true

		newState := r.applyFirstValidOperation(candidates, state, next, usedCommitValues)
		if newState == nil {
			return state, nil
		}

		state = newState

		if state.Deactivated() {
			return state, nil
		}
	}
}

func (r *Resolver) applyFirstValidOperation(ops []*operation.AnchoredOperation, state *protocol.DIDState,
	next commitmentOf, usedCommitValues map[string]bool) *protocol.DIDState {
	for _, op := range ops {
		result := r.applyOperation(op, state)
		if result == nil || !result.IsApplied() {
			continue
		}

		if nextCommitValue := next(result.State); nextCommitValue != "" && usedCommitValues[nextCommitValue] {
			r.logger.Info("Rejecting operation that reuses a commitment", log.WithNamespace(r.name),
				log.WithSuffix(op.UniqueSuffix), log.WithOperationType(string(op.Type)),
				log.WithTransactionNumber(op.TransactionNumber), log.WithCommitment(nextCommitValue))

			continue
		}

		return result.State
	}

	return nil
}

// getCommitValueToOperations groups operations by the commitment their reveal value opens.
// Each group keeps the ledger order of the sorted input.
func (r *Resolver) getCommitValueToOperations(ops []*operation.AnchoredOperation) map[string][]*operation.AnchoredOperation {
	m := make(map[string][]*operation.AnchoredOperation)

	for _, op := range ops {
		commitValue, err := r.getCommitValue(op)
		if err != nil {
			r.logger.Info("Skipping operation with invalid reveal value", log.WithNamespace(r.name),
				log.WithSuffix(op.UniqueSuffix), log.WithOperationType(string(op.Type)), log.WithError(err))

			continue
		}

		m[commitValue] = append(m[commitValue], op)
	}

	return m
}

func (r *Resolver) getCommitValue(op *operation.AnchoredOperation) (string, error) {
	v, err := r.pc.Get(op.TransactionTime)
	if err != nil {
		return "", err
	}

	rv, err := v.OperationApplier().GetMultihashRevealValue(op)
	if err != nil {
		return "", err
	}

	return commitment.GetCommitmentFromRevealValue(encoder.EncodeToString(rv))
}

func (r *Resolver) applyOperation(op *operation.AnchoredOperation, state *protocol.DIDState) *protocol.ApplyResult {
	v, err := r.pc.Get(op.TransactionTime)
	if err != nil {
		r.logger.Warn("Protocol version not found for operation", log.WithNamespace(r.name),
			log.WithSuffix(op.UniqueSuffix), log.WithTransactionTime(op.TransactionTime), log.WithError(err))

		return nil
	}

	result := v.OperationApplier().Apply(op, state)
	if !result.IsApplied() {
		r.logger.Debug("Operation ignored", log.WithNamespace(r.name), log.WithSuffix(op.UniqueSuffix),
			log.WithOperationType(string(op.Type)), log.WithTransactionNumber(op.TransactionNumber),
			log.WithReason(result.Reason))
	}

	return result
}

func splitOperations(ops []*operation.AnchoredOperation) (createOps, fullOps, updateOps []*operation.AnchoredOperation) {
	for _, op := range ops {
		switch op.Type {
		case operation.TypeCreate:
			createOps = append(createOps, op)
		case operation.TypeUpdate:
			updateOps = append(updateOps, op)
		case operation.TypeRecover, operation.TypeDeactivate:
			fullOps = append(fullOps, op)
		}
	}

	return createOps, fullOps, updateOps
}
