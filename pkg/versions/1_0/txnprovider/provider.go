/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txnprovider

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trustbloc/sidetree-node-go/pkg/api/cas"
	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
	"github.com/trustbloc/sidetree-node-go/pkg/hashing"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/txnprovider/models"
)

// OperationProvider assembles the anchored operations of a transaction from its batch files.
type OperationProvider struct {
	protocol.Protocol
	parser OperationParser
	codec  *Codec
	logger *log.Log
}

// NewOperationProvider returns a new operation provider. Batch files are read through the given CAS reader,
// normally the download manager.
func NewOperationProvider(p protocol.Protocol, parser OperationParser, reader cas.Reader,
	cp compressionProvider, metrics metricsProvider) *OperationProvider {
	return &OperationProvider{
		Protocol: p,
		parser:   parser,
		codec:    NewCodec(p.CompressionAlgorithm, p.MaxMemoryDecompressionFactor, cp, reader, metrics),
		logger:   log.New("sidetree-core-txnprovider"),
	}
}

// GetTxnOperations will read batch files(core/provisional index, proof files and chunk file)
// and assemble batch operations from those files.
func (h *OperationProvider) GetTxnOperations(ctx context.Context, sidetreeTxn *txn.SidetreeTxn) (*protocol.TxnOperations, error) {
	anchorData, err := ParseAnchorData(sidetreeTxn.AnchorString, h.MaxOperationCount)
	if err != nil {
		return nil, err
	}

	cif, err := h.getCoreIndexFile(ctx, anchorData.CoreIndexFileURI)
	if err != nil {
		return nil, err
	}

	files, err := h.getBatchFiles(ctx, cif)
	if err != nil {
		return nil, err
	}

	ops, err := h.assembleAnchoredOperations(files)
	if err != nil {
		return nil, err
	}

	if len(ops) != anchorData.NumberOfOperations {
		return nil, sidetreeerr.Newf(sidetreeerr.AnchorStringOperationCountInvalid,
			"number of txn ops[%d] doesn't match anchor string num of ops[%d]", len(ops), anchorData.NumberOfOperations)
	}

	return &protocol.TxnOperations{
		WriterLockID: cif.WriterLockID,
		Operations:   ops,
	}, nil
}

// batchFiles contains the content of all batch files that are referenced in core index file.
type batchFiles struct {
	CoreIndex        *models.CoreIndexFile
	CoreProof        *models.CoreProofFile
	ProvisionalIndex *models.ProvisionalIndexFile
	ProvisionalProof *models.ProvisionalProofFile
	Chunk            *models.ChunkFile
}

// getBatchFiles retrieves all batch files that are referenced in core index file. Files that do not
// depend on each other are downloaded concurrently.
func (h *OperationProvider) getBatchFiles(ctx context.Context, cif *models.CoreIndexFile) (*batchFiles, error) {
	files := &batchFiles{CoreIndex: cif}

	g, gctx := errgroup.WithContext(ctx)

	// core proof file will not exist if we have only create and update operations in the batch
	if cif.CoreProofFileURI != "" {
		g.Go(func() error {
			var e error
			files.CoreProof, e = h.getCoreProofFile(gctx, cif.CoreProofFileURI)

			return e
		})
	}

	if cif.ProvisionalIndexFileURI != "" {
		g.Go(func() error {
			return h.getProvisionalFiles(gctx, cif.ProvisionalIndexFileURI, files)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := validateBatchFileCounts(files); err != nil {
		return nil, err
	}

	h.logger.Debug("Successfully downloaded and validated all batch files",
		log.WithURIString(cif.ProvisionalIndexFileURI))

	return files, nil
}

func (h *OperationProvider) getProvisionalFiles(ctx context.Context, uri string, files *batchFiles) error {
	pif, err := h.getProvisionalIndexFile(ctx, uri)
	if err != nil {
		return err
	}

	files.ProvisionalIndex = pif

	g, gctx := errgroup.WithContext(ctx)

	// provisional proof file will not exist if we don't have any update operations in the batch
	if pif.ProvisionalProofFileURI != "" {
		g.Go(func() error {
			var e error
			files.ProvisionalProof, e = h.getProvisionalProofFile(gctx, pif.ProvisionalProofFileURI)

			return e
		})
	}

	g.Go(func() error {
		var e error
		files.Chunk, e = h.getChunkFile(gctx, pif.Chunks[0].ChunkFileURI)

		return e
	})

	return g.Wait()
}

// validateBatchFileCounts validates that operation numbers match in batch files.
func validateBatchFileCounts(files *batchFiles) error {
	cif := files.CoreIndex

	if files.CoreProof != nil {
		if cif.RecoverCount() != len(files.CoreProof.Operations.Recover) {
			return sidetreeerr.Newf(sidetreeerr.OperationCountMismatch,
				"number of recover ops[%d] in core index doesn't match number of recover ops[%d] in core proof",
				cif.RecoverCount(), len(files.CoreProof.Operations.Recover))
		}

		if cif.DeactivateCount() != len(files.CoreProof.Operations.Deactivate) {
			return sidetreeerr.Newf(sidetreeerr.OperationCountMismatch,
				"number of deactivate ops[%d] in core index doesn't match number of deactivate ops[%d] in core proof",
				cif.DeactivateCount(), len(files.CoreProof.Operations.Deactivate))
		}
	}

	if files.ProvisionalIndex == nil {
		return nil
	}

	updateNum := files.ProvisionalIndex.UpdateCount()

	if files.ProvisionalProof != nil && updateNum != len(files.ProvisionalProof.Operations.Update) {
		return sidetreeerr.Newf(sidetreeerr.OperationCountMismatch,
			"number of update ops[%d] in provisional index doesn't match number of update ops[%d] in provisional proof",
			updateNum, len(files.ProvisionalProof.Operations.Update))
	}

	expectedDeltaCount := cif.CreateCount() + cif.RecoverCount() + updateNum

	if expectedDeltaCount == 0 {
		return sidetreeerr.New(sidetreeerr.ProvisionalIndexFileInvalid,
			"provisional index file is referenced but there are no create, recover or update operations")
	}

	if expectedDeltaCount != len(files.Chunk.Deltas) {
		return sidetreeerr.Newf(sidetreeerr.OperationCountMismatch,
			"number of create+recover+update operations[%d] doesn't match number of deltas[%d]",
			expectedDeltaCount, len(files.Chunk.Deltas))
	}

	return nil
}

func (h *OperationProvider) assembleAnchoredOperations(files *batchFiles) ([]*operation.AnchoredOperation, error) {
	cifOps, err := h.parseCoreIndexOperations(files.CoreIndex)
	if err != nil {
		return nil, err
	}

	h.logger.Debugf("successfully parsed core index operations: create[%d], recover[%d], deactivate[%d]",
		len(cifOps.Create), len(cifOps.Recover), len(cifOps.Deactivate))

	for i := range cifOps.Deactivate {
		cifOps.Deactivate[i].SignedData = files.CoreProof.Operations.Deactivate[i]
	}

	// deactivate operations only
	if files.ProvisionalIndex == nil {
		return createAnchoredOperations(cifOps.Deactivate)
	}

	pifOps := parseProvisionalIndexOperations(files.ProvisionalIndex)

	// check for duplicate suffixes for this combination core/provisional index files
	txnSuffixes := append(cifOps.Suffixes, pifOps.Suffixes...) //nolint:gocritic
	if err := checkForDuplicates(txnSuffixes); err != nil {
		return nil, errors.Wrap(err, "check for duplicate suffixes in core/provisional index files")
	}

	var ops []*model.Operation

	ops = append(ops, cifOps.Create...)

	for i := range cifOps.Recover {
		cifOps.Recover[i].SignedData = files.CoreProof.Operations.Recover[i]
	}

	ops = append(ops, cifOps.Recover...)

	for i := range pifOps.Update {
		pifOps.Update[i].SignedData = files.ProvisionalProof.Operations.Update[i]
	}

	ops = append(ops, pifOps.Update...)

	for i, delta := range files.Chunk.Deltas {
		ops[i].Delta = delta
	}

	ops = append(ops, cifOps.Deactivate...)

	return createAnchoredOperations(ops)
}

func createAnchoredOperations(ops []*model.Operation) ([]*operation.AnchoredOperation, error) {
	var anchoredOps []*operation.AnchoredOperation

	for _, op := range ops {
		anchoredOp, err := model.GetAnchoredOperation(op)
		if err != nil {
			return nil, err
		}

		anchoredOps = append(anchoredOps, anchoredOp)
	}

	return anchoredOps, nil
}

func checkForDuplicates(values []string) error {
	var duplicates []string

	valuesMap := make(map[string]bool)

	for _, val := range values {
		if valuesMap[val] {
			duplicates = append(duplicates, val)
		}

		valuesMap[val] = true
	}

	if len(duplicates) > 0 {
		return sidetreeerr.Newf(sidetreeerr.CoreIndexFileDuplicateSuffix, "duplicate values found %v", duplicates)
	}

	return nil
}

// getCoreIndexFile will download core index file from cas and parse it into core index file model.
func (h *OperationProvider) getCoreIndexFile(ctx context.Context, uri string) (*models.CoreIndexFile, error) {
	if err := h.validateURI(uri); err != nil {
		return nil, errors.Wrap(err, "core index URI")
	}

	content, err := h.codec.Read(ctx, uri, h.MaxCoreIndexFileSize, "core index")
	if err != nil {
		return nil, errors.Wrap(err, "error reading core index file")
	}

	h.logger.Debug("Successfully downloaded core index file", log.WithURIString(uri), log.WithSize(len(content)))

	cif, err := models.ParseCoreIndexFile(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse content for core index file[%s]", uri)
	}

	if err := h.validateCoreIndexFile(cif); err != nil {
		return nil, errors.Wrapf(err, "core index file[%s]", uri)
	}

	return cif, nil
}

func (h *OperationProvider) validateCoreIndexFile(cif *models.CoreIndexFile) error {
	if err := cif.ValidateWriterLockID(h.MaxWriterLockIDSize); err != nil {
		return err
	}

	if err := h.validateURI(cif.CoreProofFileURI); err != nil {
		return errors.Wrap(err, "core proof URI")
	}

	if err := h.validateURI(cif.ProvisionalIndexFileURI); err != nil {
		return errors.Wrap(err, "provisional index URI")
	}

	if cif.Operations == nil {
		return nil
	}

	for i, op := range cif.Operations.Create {
		if err := h.parser.ValidateSuffixData(op.SuffixData); err != nil {
			return errors.Wrapf(err, "failed to validate suffix data for create[%d]", i)
		}
	}

	for i, op := range cif.Operations.Recover {
		if err := h.validateOperationReference(op); err != nil {
			return errors.Wrapf(err, "failed to validate operation reference for recover[%d]", i)
		}
	}

	for i, op := range cif.Operations.Deactivate {
		if err := h.validateOperationReference(op); err != nil {
			return errors.Wrapf(err, "failed to validate operation reference for deactivate[%d]", i)
		}
	}

	return nil
}

func (h *OperationProvider) validateOperationReference(op models.OperationReference) error {
	if err := h.validateRequiredMultihash(op.DidSuffix, "did suffix"); err != nil {
		return err
	}

	return h.validateRequiredMultihash(op.RevealValue, "reveal value")
}

func (h *OperationProvider) validateRequiredMultihash(mh, alias string) error {
	if mh == "" {
		return sidetreeerr.Newf(sidetreeerr.MultihashInvalid, "missing %s", alias)
	}

	if len(mh) > int(h.MaxOperationHashLength) {
		return sidetreeerr.Newf(sidetreeerr.MultihashInvalid,
			"%s length[%d] exceeds maximum hash length[%d]", alias, len(mh), h.MaxOperationHashLength)
	}

	if !hashing.IsComputedUsingMultihashAlgorithms(mh, h.MultihashAlgorithms) {
		return sidetreeerr.Newf(sidetreeerr.MultihashInvalid,
			"%s is not computed with the required hash algorithms: %d", alias, h.MultihashAlgorithms)
	}

	return nil
}

// getCoreProofFile will download core proof file from cas and parse it into core proof file model.
func (h *OperationProvider) getCoreProofFile(ctx context.Context, uri string) (*models.CoreProofFile, error) {
	content, err := h.codec.Read(ctx, uri, h.MaxProofFileSize, "core proof")
	if err != nil {
		return nil, errors.Wrap(err, "error reading core proof file")
	}

	cpf, err := models.ParseCoreProofFile(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse content for core proof file[%s]", uri)
	}

	for i, signedData := range cpf.Operations.Recover {
		if _, err := h.parser.ParseSignedDataForRecover(signedData); err != nil {
			return nil, errors.Wrapf(err, "failed to validate signed data for recover[%d]", i)
		}
	}

	for i, signedData := range cpf.Operations.Deactivate {
		if _, err := h.parser.ParseSignedDataForDeactivate(signedData); err != nil {
			return nil, errors.Wrapf(err, "failed to validate signed data for deactivate[%d]", i)
		}
	}

	return cpf, nil
}

// getProvisionalProofFile will download provisional proof file from cas and parse it into provisional proof file model.
func (h *OperationProvider) getProvisionalProofFile(ctx context.Context, uri string) (*models.ProvisionalProofFile, error) {
	content, err := h.codec.Read(ctx, uri, h.MaxProofFileSize, "provisional proof")
	if err != nil {
		return nil, errors.Wrap(err, "error reading provisional proof file")
	}

	ppf, err := models.ParseProvisionalProofFile(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse content for provisional proof file[%s]", uri)
	}

	for i, signedData := range ppf.Operations.Update {
		if _, err := h.parser.ParseSignedDataForUpdate(signedData); err != nil {
			return nil, errors.Wrapf(err, "failed to validate signed data for update[%d]", i)
		}
	}

	return ppf, nil
}

// getProvisionalIndexFile will download provisional index file from cas and parse it into provisional index file model.
func (h *OperationProvider) getProvisionalIndexFile(ctx context.Context, uri string) (*models.ProvisionalIndexFile, error) {
	content, err := h.codec.Read(ctx, uri, h.MaxProvisionalIndexFileSize, "provisional index")
	if err != nil {
		return nil, errors.Wrap(err, "error reading provisional index file")
	}

	pif, err := models.ParseProvisionalIndexFile(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse content for provisional index file[%s]", uri)
	}

	if err := h.validateURI(pif.ProvisionalProofFileURI); err != nil {
		return nil, errors.Wrap(err, "provisional proof URI")
	}

	if err := h.validateURI(pif.Chunks[0].ChunkFileURI); err != nil {
		return nil, errors.Wrap(err, "chunk URI")
	}

	if pif.Operations != nil {
		for i, op := range pif.Operations.Update {
			if err := h.validateOperationReference(op); err != nil {
				return nil, errors.Wrapf(err, "failed to validate operation reference for update[%d]", i)
			}
		}
	}

	return pif, nil
}

// getChunkFile will download chunk file from cas and parse it into chunk file model. Deltas are not validated
// here: an invalid delta only affects its own operation.
func (h *OperationProvider) getChunkFile(ctx context.Context, uri string) (*models.ChunkFile, error) {
	content, err := h.codec.Read(ctx, uri, h.MaxChunkFileSize, "chunk")
	if err != nil {
		return nil, errors.Wrap(err, "error reading chunk file")
	}

	cf, err := models.ParseChunkFile(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse content for chunk file[%s]", uri)
	}

	return cf, nil
}

// coreOperations contains operations in core index file.
type coreOperations struct {
	Create     []*model.Operation
	Recover    []*model.Operation
	Deactivate []*model.Operation
	Suffixes   []string
}

func (h *OperationProvider) parseCoreIndexOperations(cif *models.CoreIndexFile) (*coreOperations, error) {
	if cif.Operations == nil {
		return &coreOperations{}, nil
	}

	var suffixes []string

	var createOps []*model.Operation

	for _, op := range cif.Operations.Create {
		suffix, err := model.GetUniqueSuffix(op.SuffixData, h.MultihashAlgorithms)
		if err != nil {
			return nil, err
		}

		createOps = append(createOps, &model.Operation{
			Type:         operation.TypeCreate,
			UniqueSuffix: suffix,
			SuffixData:   op.SuffixData,
		})

		suffixes = append(suffixes, suffix)
	}

	recoverOps, recoverSuffixes := referencesToOperations(cif.Operations.Recover, operation.TypeRecover)
	deactivateOps, deactivateSuffixes := referencesToOperations(cif.Operations.Deactivate, operation.TypeDeactivate)

	suffixes = append(suffixes, recoverSuffixes...)
	suffixes = append(suffixes, deactivateSuffixes...)

	if err := checkForDuplicates(suffixes); err != nil {
		return nil, errors.Wrap(err, "check for duplicate suffixes in core index file")
	}

	return &coreOperations{
		Create:     createOps,
		Recover:    recoverOps,
		Deactivate: deactivateOps,
		Suffixes:   suffixes,
	}, nil
}

// provisionalOperations contains parsed operations from provisional index file.
type provisionalOperations struct {
	Update   []*model.Operation
	Suffixes []string
}

func parseProvisionalIndexOperations(pif *models.ProvisionalIndexFile) *provisionalOperations {
	if pif.Operations == nil {
		return &provisionalOperations{}
	}

	ops, suffixes := referencesToOperations(pif.Operations.Update, operation.TypeUpdate)

	return &provisionalOperations{Update: ops, Suffixes: suffixes}
}

func referencesToOperations(refs []models.OperationReference, opType operation.Type) ([]*model.Operation, []string) {
	var ops []*model.Operation

	var suffixes []string

	for _, ref := range refs {
		ops = append(ops, &model.Operation{
			Type:         opType,
			UniqueSuffix: ref.DidSuffix,
			RevealValue:  ref.RevealValue,
		})

		suffixes = append(suffixes, ref.DidSuffix)
	}

	return ops, suffixes
}

func (h *OperationProvider) validateURI(uri string) error {
	if len(uri) > int(h.MaxCasURILength) {
		return sidetreeerr.Newf(sidetreeerr.CasURIExceedsMaximumLength,
			"CAS URI length[%d] exceeds maximum CAS URI length[%d]", len(uri), h.MaxCasURILength)
	}

	return nil
}
