/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package dochandler performs document operation processing and document resolution.
//
// During operation processing the operation is parsed and validated by the current protocol version and then
// added to the batch writer.
//
// Document resolution is based on a short-form or long-form DID.
// 1) Short-form DID (namespace:suffix) - the latest document will be returned if found.
//
// 2) Long-form DID (namespace:suffix:encoded create request) - resolution is done against the suffix. If the
// document has not been anchored yet, the embedded create request is used to return an unpublished document.
// The embedded request is subject to the same validation as a create operation.
package dochandler

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/canonicalizer"
	"github.com/trustbloc/sidetree-node-go/pkg/document"
	"github.com/trustbloc/sidetree-node-go/pkg/encoder"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/resolver"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
)

const loggerModule = "sidetree-core-dochandler"

// BatchWriter adds an operation to the batch.
type BatchWriter interface {
	Add(op *operation.QueuedOperation, protocolVersion uint64) error
}

// Resolver computes the state of a DID from its anchored operations.
type Resolver interface {
	Resolve(ctx context.Context, uniqueSuffix string, opts ...resolver.ResolutionOption) (*protocol.DIDState, error)
}

// DocumentHandler implements document handler.
type DocumentHandler struct {
	protocol  protocol.Client
	writer    BatchWriter
	resolver  Resolver
	namespace string
	logger    *log.Log
}

// Option is a document handler option.
type Option func(h *DocumentHandler)

// WithLogger sets the logger.
func WithLogger(l *log.Log) Option {
	return func(h *DocumentHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a new document handler for the given namespace.
func New(namespace string, pc protocol.Client, writer BatchWriter, r Resolver, opts ...Option) *DocumentHandler {
	h := &DocumentHandler{
		protocol:  pc,
		writer:    writer,
		resolver:  r,
		namespace: namespace,
		logger:    log.New(loggerModule),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Namespace returns the namespace of the document handler.
func (r *DocumentHandler) Namespace() string {
	return r.namespace
}

// ProcessOperation validates the operation and adds it to the batch. A create operation also returns
// the (unpublished) document.
func (r *DocumentHandler) ProcessOperation(operationBuffer []byte) (*document.ResolutionResult, error) {
	pv, err := r.protocol.Current()
	if err != nil {
		return nil, errors.Wrap(err, "get current protocol version")
	}

	op, err := pv.OperationParser().Parse(r.namespace, operationBuffer)
	if err != nil {
		r.logger.Debug("Failed to parse operation", log.WithNamespace(r.namespace), log.WithError(err))

		return nil, err
	}

	err = r.writer.Add(&operation.QueuedOperation{
		Type:             op.Type,
		OperationRequest: operationBuffer,
		UniqueSuffix:     op.UniqueSuffix,
		Namespace:        r.namespace,
	}, pv.Protocol().GenesisTime)
	if err != nil {
		r.logger.Error("Failed to add operation to batch", log.WithSuffix(op.UniqueSuffix), log.WithError(err))

		return nil, errors.Wrap(err, "add operation to batch")
	}

	r.logger.Debug("Operation added to batch", log.WithOperationType(string(op.Type)), log.WithSuffix(op.UniqueSuffix))

	if op.Type != operation.TypeCreate {
		return nil, nil
	}

	return r.resolveUnpublished(pv, op.ID, &operation.AnchoredOperation{
		Type:             operation.TypeCreate,
		UniqueSuffix:     op.UniqueSuffix,
		OperationRequest: operationBuffer,
		ProtocolVersion:  pv.Protocol().GenesisTime,
	})
}

// ResolveDocument resolves a short-form or long-form DID.
func (r *DocumentHandler) ResolveDocument(ctx context.Context, did string) (*document.ResolutionResult, error) {
	prefix := r.namespace + document.NamespaceDelimiter

	if !strings.HasPrefix(did, prefix) {
		return nil, sidetreeerr.Newf(sidetreeerr.DIDInvalid, "did [%s] must start with configured namespace", did)
	}

	parts := strings.SplitN(did[len(prefix):], document.NamespaceDelimiter, 2)

	suffix := parts[0]
	if suffix == "" {
		return nil, sidetreeerr.Newf(sidetreeerr.DIDInvalid, "did [%s] has an empty unique suffix", did)
	}

	id := prefix + suffix

	state, err := r.resolver.Resolve(ctx, suffix)
	if err == nil {
		return r.transform(state, id, true)
	}

	if len(parts) == 1 || !sidetreeerr.Is(err, sidetreeerr.NotFound) {
		return nil, err
	}

	return r.resolveLongForm(suffix, id, parts[1])
}

func (r *DocumentHandler) resolveLongForm(suffix, id, encodedRequest string) (*document.ResolutionResult, error) {
	pv, err := r.protocol.Current()
	if err != nil {
		return nil, errors.Wrap(err, "get current protocol version")
	}

	request, err := createRequestFromLongForm(encodedRequest)
	if err != nil {
		return nil, err
	}

	op, err := pv.OperationParser().Parse(r.namespace, request)
	if err != nil {
		return nil, err
	}

	if op.UniqueSuffix != suffix {
		return nil, sidetreeerr.Newf(sidetreeerr.DIDInvalid,
			"provided did suffix [%s] doesn't match the suffix computed from the create request [%s]",
			suffix, op.UniqueSuffix)
	}

	return r.resolveUnpublished(pv, id, &operation.AnchoredOperation{
		Type:             operation.TypeCreate,
		UniqueSuffix:     suffix,
		OperationRequest: request,
		ProtocolVersion:  pv.Protocol().GenesisTime,
	})
}

func (r *DocumentHandler) resolveUnpublished(pv protocol.Version, id string,
	create *operation.AnchoredOperation) (*document.ResolutionResult, error) {
	result := pv.OperationApplier().Apply(create, nil)
	if !result.IsApplied() {
		return nil, sidetreeerr.Newf(sidetreeerr.SuffixDataInvalid, "create request rejected: %s", result.Reason)
	}

	return r.transformWith(pv, result.State, id, false)
}

func (r *DocumentHandler) transform(state *protocol.DIDState, id string, published bool) (*document.ResolutionResult, error) {
	pv, err := r.protocol.Get(state.LastOperationTransactionTime)
	if err != nil {
		return nil, errors.Wrapf(err, "get protocol version for transaction time[%d]", state.LastOperationTransactionTime)
	}

	return r.transformWith(pv, state, id, published)
}

func (r *DocumentHandler) transformWith(pv protocol.Version, state *protocol.DIDState, id string,
	published bool) (*document.ResolutionResult, error) {
	result, err := pv.DocumentTransformer().TransformDocument(state, protocol.TransformationInfo{
		protocol.IDKey:        id,
		protocol.PublishedKey: published,
	})
	if err != nil {
		return nil, errors.Wrap(err, "transform document")
	}

	return result, nil
}

// createRequestFromLongForm decodes the long-form suffix into a create request.
func createRequestFromLongForm(encoded string) ([]byte, error) {
	decoded, err := encoder.DecodeString(encoded)
	if err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.EncodedStringIncorrectEncoding, "long-form did: %s", err)
	}

	var obj map[string]interface{}

	if err := json.Unmarshal(decoded, &obj); err != nil {
		return nil, sidetreeerr.Newf(sidetreeerr.OperationNotJSON, "long-form did: %s", err)
	}

	obj["type"] = string(operation.TypeCreate)

	request, err := canonicalizer.MarshalCanonical(obj)
	if err != nil {
		return nil, errors.Wrap(err, "canonicalize long-form create request")
	}

	return request, nil
}
