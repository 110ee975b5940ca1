/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txnprovider

import (
	"errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/cas"
	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/txnprovider/models"
)

// OperationHandler creates batch files(core index, core proof, provisional index, provisional proof and chunk)
// from batch operations.
type OperationHandler struct {
	protocol protocol.Protocol
	cas      cas.Writer
	parser   OperationParser
	codec    *Codec
	logger   *log.Log
}

// NewOperationHandler returns new operations handler.
func NewOperationHandler(p protocol.Protocol, w cas.Writer, cp compressionProvider, parser OperationParser,
	metrics metricsProvider) *OperationHandler {
	return &OperationHandler{
		protocol: p,
		cas:      w,
		parser:   parser,
		codec:    NewCodec(p.CompressionAlgorithm, p.MaxMemoryDecompressionFactor, cp, nil, metrics),
		logger:   log.New("sidetree-core-txnhandler"),
	}
}

// PrepareTxnFiles will create batch files(core index, core proof, provisional index, provisional proof and chunk)
// from batch operations, store them in CAS and return the anchor string.
func (h *OperationHandler) PrepareTxnFiles(ops []*operation.QueuedOperation, writerLockID string) (*protocol.AnchoringInfo, error) {
	parsedOps, info, err := h.parseOperations(ops)
	if err != nil {
		return nil, err
	}

	// special case: if all ops are deactivate don't create chunk and provisional files
	provisionalIndexURI := ""
	if len(parsedOps.Deactivate) != parsedOps.Size() {
		chunkURI, innerErr := h.codec.Write(h.cas, models.CreateChunkFile(parsedOps), "chunk")
		if innerErr != nil {
			return nil, innerErr
		}

		provisionalProofURI, innerErr := h.codec.Write(h.cas,
			models.CreateProvisionalProofFile(parsedOps.Update), "provisional proof")
		if innerErr != nil {
			return nil, innerErr
		}

		provisionalIndexURI, innerErr = h.codec.Write(h.cas,
			models.CreateProvisionalIndexFile([]string{chunkURI}, provisionalProofURI, parsedOps.Update),
			"provisional index")
		if innerErr != nil {
			return nil, innerErr
		}
	}

	coreProofURI, err := h.codec.Write(h.cas,
		models.CreateCoreProofFile(parsedOps.Recover, parsedOps.Deactivate), "core proof")
	if err != nil {
		return nil, err
	}

	coreIndexURI, err := h.codec.Write(h.cas,
		models.CreateCoreIndexFile(writerLockID, coreProofURI, provisionalIndexURI, parsedOps), "core index")
	if err != nil {
		return nil, err
	}

	ad := AnchorData{
		NumberOfOperations: parsedOps.Size(),
		CoreIndexFileURI:   coreIndexURI,
	}

	h.logger.Debug("Prepared batch files", log.WithAnchorString(ad.GetAnchorString()),
		log.WithTotalOperations(parsedOps.Size()))

	return &protocol.AnchoringInfo{
		AnchorString:         ad.GetAnchorString(),
		OperationReferences:  info.OperationReferences,
		AdditionalOperations: info.AdditionalOperations,
	}, nil
}

func (h *OperationHandler) parseOperations(ops []*operation.QueuedOperation) (*models.SortedOperations, *additionalAnchoringInfo, error) {
	if len(ops) == 0 {
		return nil, nil, errors.New("prepare txn operations called without operations, should not happen")
	}

	batchSuffixes := make(map[string]bool)

	var opRefs []*operation.Reference

	var additionalOperations []*operation.QueuedOperation

	result := &models.SortedOperations{}

	for _, queuedOperation := range ops {
		// operations are already validated/parsed at REST so any error at this point
		// will result in rejecting whole batch
		op, e := h.parser.ParseOperation(queuedOperation.Namespace, queuedOperation.OperationRequest, false)
		if e != nil {
			return nil, nil, e
		}

		if batchSuffixes[op.UniqueSuffix] {
			h.logger.Debug("Additional operation for suffix found in batch operations. It will be processed in the next batch.",
				log.WithNamespace(queuedOperation.Namespace), log.WithSuffix(op.UniqueSuffix))

			additionalOperations = append(additionalOperations, queuedOperation)

			continue
		}

		switch op.Type {
		case operation.TypeCreate:
			result.Create = append(result.Create, op)
		case operation.TypeUpdate:
			result.Update = append(result.Update, op)
		case operation.TypeRecover:
			result.Recover = append(result.Recover, op)
		case operation.TypeDeactivate:
			result.Deactivate = append(result.Deactivate, op)
		}

		batchSuffixes[op.UniqueSuffix] = true

		opRefs = append(opRefs, &operation.Reference{
			UniqueSuffix: op.UniqueSuffix,
			Type:         op.Type,
		})
	}

	return result, &additionalAnchoringInfo{
		OperationReferences:  opRefs,
		AdditionalOperations: additionalOperations,
	}, nil
}

type additionalAnchoringInfo struct {
	OperationReferences  []*operation.Reference
	AdditionalOperations []*operation.QueuedOperation
}

// OperationParser defines the functions for parsing operations.
type OperationParser interface {
	ParseOperation(namespace string, operationRequest []byte, batch bool) (*model.Operation, error)
	ValidateSuffixData(suffixData *model.SuffixDataModel) error
	ParseSignedDataForUpdate(compactJWS string) (*model.UpdateSignedDataModel, error)
	ParseSignedDataForDeactivate(compactJWS string) (*model.DeactivateSignedDataModel, error)
	ParseSignedDataForRecover(compactJWS string) (*model.RecoverSignedDataModel, error)
}
