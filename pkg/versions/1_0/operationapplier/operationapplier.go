/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operationapplier

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
	"github.com/trustbloc/sidetree-node-go/pkg/commitment"
	"github.com/trustbloc/sidetree-node-go/pkg/document"
	"github.com/trustbloc/sidetree-node-go/pkg/encoder"
	"github.com/trustbloc/sidetree-node-go/pkg/hashing"
	internal "github.com/trustbloc/sidetree-node-go/pkg/internal/jws"
	"github.com/trustbloc/sidetree-node-go/pkg/internal/log"
	"github.com/trustbloc/sidetree-node-go/pkg/sidetreeerr"
	"github.com/trustbloc/sidetree-node-go/pkg/versions/1_0/model"
)

const loggerModule = "sidetree-core-applier"

// Applier is an operation applier.
type Applier struct {
	protocol.Protocol
	OperationParser
	protocol.DocumentComposer

	logger *log.Log
}

// OperationParser defines the functions for parsing operations.
type OperationParser interface {
	ParseCreateOperation(request []byte, batch bool) (*model.Operation, error)
	ParseUpdateOperation(request []byte, batch bool) (*model.Operation, error)
	ParseRecoverOperation(request []byte, batch bool) (*model.Operation, error)
	ParseDeactivateOperation(request []byte) (*model.Operation, error)
	ParseSignedDataForUpdate(compactJWS string) (*model.UpdateSignedDataModel, error)
	ParseSignedDataForDeactivate(compactJWS string) (*model.DeactivateSignedDataModel, error)
	ParseSignedDataForRecover(compactJWS string) (*model.RecoverSignedDataModel, error)
}

// Option is an applier option.
type Option func(a *Applier)

// WithLogger sets the logger.
func WithLogger(l *log.Log) Option {
	return func(a *Applier) {
		a.logger = l
	}
}

// New returns a new operation applier for the given protocol.
func New(p protocol.Protocol, parser OperationParser, dc protocol.DocumentComposer, opts ...Option) *Applier {
	a := &Applier{
		Protocol:         p,
		OperationParser:  parser,
		DocumentComposer: dc,
		logger:           log.New(loggerModule),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Apply applies the given anchored operation to the state. A rejected operation is reported as Ignored
// together with the unchanged input state.
func (s *Applier) Apply(op *operation.AnchoredOperation, state *protocol.DIDState) *protocol.ApplyResult {
	switch op.Type {
	case operation.TypeCreate:
		return s.applyCreateOperation(op, state)
	case operation.TypeUpdate:
		return s.applyUpdateOperation(op, state)
	case operation.TypeDeactivate:
		return s.applyDeactivateOperation(op, state)
	case operation.TypeRecover:
		return s.applyRecoverOperation(op, state)
	}

	return s.ignore(op, state, fmt.Sprintf("operation type '%s' not supported", op.Type))
}

// GetMultihashRevealValue returns the decoded reveal value of an update, recover or deactivate operation.
func (s *Applier) GetMultihashRevealValue(op *operation.AnchoredOperation) ([]byte, error) {
	var parsed *model.Operation

	var err error

	switch op.Type {
	case operation.TypeCreate:
		return nil, sidetreeerr.Newf(sidetreeerr.OperationTypeHasNoRevealValue,
			"operation type '%s' has no reveal value", op.Type)
	case operation.TypeUpdate:
		parsed, err = s.ParseUpdateOperation(op.OperationRequest, true)
	case operation.TypeRecover:
		parsed, err = s.ParseRecoverOperation(op.OperationRequest, true)
	case operation.TypeDeactivate:
		parsed, err = s.ParseDeactivateOperation(op.OperationRequest)
	default:
		return nil, sidetreeerr.Newf(sidetreeerr.OperationTypeUnknown, "operation type '%s' not supported", op.Type)
	}

	if err != nil {
		return nil, err
	}

	return encoder.DecodeString(parsed.RevealValue)
}

func (s *Applier) applyCreateOperation(anchoredOp *operation.AnchoredOperation, state *protocol.DIDState) *protocol.ApplyResult {
	s.logger.Debug("Applying create operation", log.WithOperation(anchoredOp))

	if state != nil {
		return s.ignore(anchoredOp, state, "create has to be the first operation")
	}

	op, err := s.ParseCreateOperation(anchoredOp.OperationRequest, true)
	if err != nil {
		return s.ignore(anchoredOp, state, fmt.Sprintf("failed to parse create operation in batch mode: %s", err.Error()))
	}

	if anchoredOp.UniqueSuffix != "" && op.UniqueSuffix != anchoredOp.UniqueSuffix {
		return s.ignore(anchoredOp, state, "create operation unique suffix doesn't match anchored suffix")
	}

	// from this point the DID exists, even if the delta turns out to be unusable
	result := &protocol.DIDState{
		Doc:                            make(document.Document),
		RecoveryCommitment:             op.SuffixData.RecoveryCommitment,
		LastOperationTransactionTime:   anchoredOp.TransactionTime,
		LastOperationTransactionNumber: anchoredOp.TransactionNumber,
		LastOperationType:              operation.TypeCreate,
	}

	if op.Delta == nil {
		s.logInfo("Create has no valid delta; document stays empty and updates are disabled", anchoredOp, nil)

		return applied(result)
	}

	if err := hashing.IsValidModelMultihash(op.Delta, op.SuffixData.DeltaHash); err != nil {
		s.logInfo("Delta doesn't match delta hash; document stays empty and updates are disabled", anchoredOp, err)

		return applied(result)
	}

	result.UpdateCommitment = op.Delta.UpdateCommitment

	doc, err := s.ApplyPatches(make(document.Document), op.Delta.Patches)
	if err != nil {
		s.logInfo("Apply patches failed; keep commitments", anchoredOp, err)

		return applied(result)
	}

	result.Doc = doc

	return applied(result)
}

func (s *Applier) applyUpdateOperation(anchoredOp *operation.AnchoredOperation, state *protocol.DIDState) *protocol.ApplyResult {
	s.logger.Debug("Applying update operation", log.WithOperation(anchoredOp))

	if state == nil {
		return s.ignore(anchoredOp, state, "update cannot be first operation")
	}

	if state.Deactivated() {
		return s.ignore(anchoredOp, state, "document has been deactivated")
	}

	if state.UpdateCommitment == "" {
		return s.ignore(anchoredOp, state, "document has no update commitment")
	}

	op, err := s.ParseUpdateOperation(anchoredOp.OperationRequest, true)
	if err != nil {
		return s.ignore(anchoredOp, state, fmt.Sprintf("failed to parse update operation in batch mode: %s", err.Error()))
	}

	if reason := checkSuffix(anchoredOp, op); reason != "" {
		return s.ignore(anchoredOp, state, reason)
	}

	if reason := checkRevealValue(op.RevealValue, state.UpdateCommitment); reason != "" {
		return s.ignore(anchoredOp, state, reason)
	}

	signedDataModel, err := s.ParseSignedDataForUpdate(op.SignedData)
	if err != nil {
		return s.ignore(anchoredOp, state, fmt.Sprintf("failed to parse signed data: %s", err.Error()))
	}

	if _, err := internal.VerifyJWS(op.SignedData, signedDataModel.UpdateKey); err != nil {
		return s.ignore(anchoredOp, state, fmt.Sprintf("failed to check signature: %s", err.Error()))
	}

	if op.Delta == nil {
		return s.ignore(anchoredOp, state, "update has no valid delta")
	}

	if err := hashing.IsValidModelMultihash(op.Delta, signedDataModel.DeltaHash); err != nil {
		return s.ignore(anchoredOp, state, fmt.Sprintf("update delta doesn't match delta hash: %s", err.Error()))
	}

	// delta is valid so advance update commitment
	result := state.Copy()
	result.UpdateCommitment = op.Delta.UpdateCommitment
	result.LastOperationTransactionTime = anchoredOp.TransactionTime
	result.LastOperationTransactionNumber = anchoredOp.TransactionNumber
	result.LastOperationType = operation.TypeUpdate

	doc, err := s.ApplyPatches(state.Doc, op.Delta.Patches)
	if err != nil {
		s.logInfo("Apply patches failed; advance update commitment", anchoredOp, err)

		return applied(result)
	}

	result.Doc = doc

	return applied(result)
}

func (s *Applier) applyDeactivateOperation(anchoredOp *operation.AnchoredOperation, state *protocol.DIDState) *protocol.ApplyResult {
	s.logger.Debug("Applying deactivate operation", log.WithOperation(anchoredOp))

	if state == nil {
		return s.ignore(anchoredOp, state, "deactivate can only be applied to an existing document")
	}

	if state.Deactivated() {
		return s.ignore(anchoredOp, state, "document has been deactivated")
	}

	op, err := s.ParseDeactivateOperation(anchoredOp.OperationRequest)
	if err != nil {
		return s.ignore(anchoredOp, state, fmt.Sprintf("failed to parse deactivate operation: %s", err.Error()))
	}

	if reason := checkSuffix(anchoredOp, op); reason != "" {
		return s.ignore(anchoredOp, state, reason)
	}

	if reason := checkRevealValue(op.RevealValue, state.RecoveryCommitment); reason != "" {
		return s.ignore(anchoredOp, state, reason)
	}

	signedDataModel, err := s.ParseSignedDataForDeactivate(op.SignedData)
	if err != nil {
		return s.ignore(anchoredOp, state, fmt.Sprintf("failed to parse signed data: %s", err.Error()))
	}

	if op.UniqueSuffix != signedDataModel.DidSuffix {
		return s.ignore(anchoredOp, state, "did suffix doesn't match signed value")
	}

	if _, err := internal.VerifyJWS(op.SignedData, signedDataModel.RecoveryKey); err != nil {
		return s.ignore(anchoredOp, state, fmt.Sprintf("failed to check signature: %s", err.Error()))
	}

	return applied(&protocol.DIDState{
		Doc:                            make(document.Document),
		LastOperationTransactionTime:   anchoredOp.TransactionTime,
		LastOperationTransactionNumber: anchoredOp.TransactionNumber,
		LastOperationType:              operation.TypeDeactivate,
	})
}

func (s *Applier) applyRecoverOperation(anchoredOp *operation.AnchoredOperation, state *protocol.DIDState) *protocol.ApplyResult {
	s.logger.Debug("Applying recover operation", log.WithOperation(anchoredOp))

	if state == nil {
		return s.ignore(anchoredOp, state, "recover can only be applied to an existing document")
	}

	if state.Deactivated() {
		return s.ignore(anchoredOp, state, "document has been deactivated")
	}

	op, err := s.ParseRecoverOperation(anchoredOp.OperationRequest, true)
	if err != nil {
		return s.ignore(anchoredOp, state, fmt.Sprintf("failed to parse recover operation in batch mode: %s", err.Error()))
	}

	if reason := checkSuffix(anchoredOp, op); reason != "" {
		return s.ignore(anchoredOp, state, reason)
	}

	if reason := checkRevealValue(op.RevealValue, state.RecoveryCommitment); reason != "" {
		return s.ignore(anchoredOp, state, reason)
	}

	signedDataModel, err := s.ParseSignedDataForRecover(op.SignedData)
	if err != nil {
		return s.ignore(anchoredOp, state, fmt.Sprintf("failed to parse signed data: %s", err.Error()))
	}

	if _, err := internal.VerifyJWS(op.SignedData, signedDataModel.RecoveryKey); err != nil {
		return s.ignore(anchoredOp, state, fmt.Sprintf("failed to check signature: %s", err.Error()))
	}

	// from this point the recovery commitment advances, even if the delta turns out to be unusable
	result := &protocol.DIDState{
		Doc:                            make(document.Document),
		RecoveryCommitment:             signedDataModel.RecoveryCommitment,
		LastOperationTransactionTime:   anchoredOp.TransactionTime,
		LastOperationTransactionNumber: anchoredOp.TransactionNumber,
		LastOperationType:              operation.TypeRecover,
	}

	if op.Delta == nil {
		s.logInfo("Recover has no valid delta; document is reset and updates are disabled", anchoredOp, nil)

		return applied(result)
	}

	if err := hashing.IsValidModelMultihash(op.Delta, signedDataModel.DeltaHash); err != nil {
		s.logInfo("Recover delta doesn't match delta hash; document is reset and updates are disabled", anchoredOp, err)

		return applied(result)
	}

	result.UpdateCommitment = op.Delta.UpdateCommitment

	doc, err := s.ApplyPatches(make(document.Document), op.Delta.Patches)
	if err != nil {
		s.logInfo("Apply patches failed; advance commitments", anchoredOp, err)

		return applied(result)
	}

	result.Doc = doc

	return applied(result)
}

func (s *Applier) ignore(op *operation.AnchoredOperation, state *protocol.DIDState, reason string) *protocol.ApplyResult {
	s.logger.Info("Operation ignored", log.WithSuffix(op.UniqueSuffix), log.WithOperationType(string(op.Type)),
		log.WithTransactionTime(op.TransactionTime), log.WithTransactionNumber(op.TransactionNumber),
		log.WithReason(reason))

	return &protocol.ApplyResult{
		Status: protocol.Ignored,
		State:  state,
		Reason: reason,
	}
}

func (s *Applier) logInfo(msg string, op *operation.AnchoredOperation, err error) {
	fields := []zap.Field{
		log.WithSuffix(op.UniqueSuffix), log.WithOperationType(string(op.Type)),
		log.WithTransactionTime(op.TransactionTime), log.WithTransactionNumber(op.TransactionNumber),
	}

	if err != nil {
		fields = append(fields, log.WithError(err))
	}

	s.logger.Info(msg, fields...)
}

func applied(state *protocol.DIDState) *protocol.ApplyResult {
	return &protocol.ApplyResult{
		Status: protocol.Applied,
		State:  state,
	}
}

func checkSuffix(anchoredOp *operation.AnchoredOperation, op *model.Operation) string {
	if anchoredOp.UniqueSuffix != "" && op.UniqueSuffix != anchoredOp.UniqueSuffix {
		return fmt.Sprintf("%s operation did suffix doesn't match anchored suffix", op.Type)
	}

	return ""
}

// checkRevealValue returns a reason if the reveal value does not open the expected commitment.
func checkRevealValue(revealValue, expectedCommitment string) string {
	c, err := commitment.GetCommitmentFromRevealValue(revealValue)
	if err != nil {
		return fmt.Sprintf("failed to calculate commitment from reveal value: %s", err.Error())
	}

	if c != expectedCommitment {
		return "reveal value doesn't match commitment"
	}

	return ""
}
