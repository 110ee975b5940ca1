/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package protocol

import (
	"context"

	"github.com/trustbloc/sidetree-node-go/pkg/api/ledger"
	"github.com/trustbloc/sidetree-node-go/pkg/api/operation"
	"github.com/trustbloc/sidetree-node-go/pkg/api/txn"
	"github.com/trustbloc/sidetree-node-go/pkg/document"
	"github.com/trustbloc/sidetree-node-go/pkg/patch"
)

// Protocol defines protocol parameters.
type Protocol struct {
	// GenesisTime is inclusive starting logical anchoring time that this protocol applies to.
	// (e.g. block number for a blockchain)
	GenesisTime uint64 `json:"genesisTime"`

	// MultihashAlgorithms are supported multihash algorithm codes.
	MultihashAlgorithms []uint `json:"multihashAlgorithms"`

	// MaxOperationCount defines maximum number of operations per batch.
	MaxOperationCount uint `json:"maxOperationCount"`

	// MaxOperationSize is maximum operation size in bytes (used to reject operations before parsing them).
	MaxOperationSize uint `json:"maxOperationSize"`

	// MaxOperationHashLength is maximum operation hash length.
	MaxOperationHashLength uint `json:"maxOperationHashLength"`

	// MaxDeltaSize is maximum size of operation's delta property.
	MaxDeltaSize uint `json:"maxDeltaSize"`

	// MaxCasURILength is maximum length of CAS URI in batch files.
	MaxCasURILength uint `json:"maxCasUriLength"`

	// CompressionAlgorithm is file compression algorithm.
	CompressionAlgorithm string `json:"compressionAlgorithm"`

	// MaxCoreIndexFileSize is maximum allowed size (in bytes) of core index file stored in CAS.
	MaxCoreIndexFileSize uint `json:"maxCoreIndexFileSize"`

	// MaxProofFileSize is maximum allowed size (in bytes) of proof files stored in CAS.
	MaxProofFileSize uint `json:"maxProofFileSize"`

	// MaxProvisionalIndexFileSize is maximum allowed size (in bytes) of provisional index file stored in CAS.
	MaxProvisionalIndexFileSize uint `json:"maxProvisionalIndexFileSize"`

	// MaxChunkFileSize is maximum allowed size (in bytes) of chunk file stored in CAS.
	MaxChunkFileSize uint `json:"maxChunkFileSize"`

	// MaxMemoryDecompressionFactor bounds decompressed size to MaxXxxFileSize times this factor.
	MaxMemoryDecompressionFactor uint `json:"maxMemoryDecompressionFactor"`

	// MaxWriterLockIDSize is maximum size of the writer lock id in the core index file.
	MaxWriterLockIDSize uint `json:"maxWriterLockIdSize"`

	// MaxNumberOfOperationsPerTransactionTime caps operations accepted per transaction time.
	MaxNumberOfOperationsPerTransactionTime uint `json:"maxNumberOfOperationsPerTransactionTime"`

	// MaxNumberOfTransactionsPerTransactionTime caps transactions accepted per transaction time.
	MaxNumberOfTransactionsPerTransactionTime uint `json:"maxNumberOfTransactionsPerTransactionTime"`

	// NormalizedFeeToPerOperationFeeMultiplier converts the normalized fee into a per operation fee.
	NormalizedFeeToPerOperationFeeMultiplier float64 `json:"normalizedFeeToPerOperationFeeMultiplier"`

	// ValueTimeLockAmountMultiplier converts the per operation fee into the required lock amount.
	ValueTimeLockAmountMultiplier uint64 `json:"valueTimeLockAmountMultiplier"`

	// MaxNumberOfOperationsForNoValueTimeLock is the number of operations a writer may anchor without a lock.
	MaxNumberOfOperationsForNoValueTimeLock uint `json:"maxNumberOfOperationsForNoValueTimeLock"`

	// Patches contains the list of allowed patches.
	Patches []string `json:"patches"`

	// SignatureAlgorithms contain supported signature algorithms for signed operations (e.g. EdDSA, ES256, ES384, ES512, ES256K).
	SignatureAlgorithms []string `json:"signatureAlgorithms"`

	// KeyAlgorithms contain supported key algorithms for signed operations (e.g. secp256k1, P-256, P-384, P-512, Ed25519).
	KeyAlgorithms []string `json:"keyAlgorithms"`
}

// DIDState is the state of a DID computed by folding its anchored operations. It is never persisted.
type DIDState struct {
	Doc document.Document

	// RecoveryCommitment is the commitment the next recover or deactivate must reveal.
	// Empty once the DID is deactivated.
	RecoveryCommitment string

	// UpdateCommitment is the commitment the next update must reveal. Empty if no update is possible.
	UpdateCommitment string

	LastOperationTransactionTime   uint64
	LastOperationTransactionNumber uint64
	LastOperationType              operation.Type
}

// Deactivated returns true once the DID has been deactivated. Deactivation is terminal.
func (s *DIDState) Deactivated() bool {
	return s.RecoveryCommitment == ""
}

// Copy returns a shallow copy of the state. The document is shared.
func (s *DIDState) Copy() *DIDState {
	c := *s

	return &c
}

// ApplyStatus describes whether an operation changed the state.
type ApplyStatus string

const (
	// Applied means the operation produced a new state.
	Applied ApplyStatus = "applied"

	// Ignored means the operation was rejected and the input state is returned unchanged.
	Ignored ApplyStatus = "ignored"
)

// ApplyResult is the outcome of applying an operation. An ignored operation is data, not an error.
type ApplyResult struct {
	Status ApplyStatus

	// State is the new state when applied, or the (possibly nil) input state when ignored.
	State *DIDState

	// Reason explains why the operation was ignored.
	Reason string
}

// IsApplied returns true if the operation produced a new state.
func (r *ApplyResult) IsApplied() bool {
	return r.Status == Applied
}

// AnchoringInfo contains the anchor string and the operation references written for a batch.
type AnchoringInfo struct {
	AnchorString        string
	OperationReferences []*operation.Reference

	// AdditionalOperations target a suffix that already has an operation in the batch.
	// They are left for the next batch.
	AdditionalOperations []*operation.QueuedOperation
}

// TxnOperations holds the operations read from the batch files of one transaction.
type TxnOperations struct {
	// WriterLockID is the value time lock declared in the core index file (may be empty).
	WriterLockID string

	// Operations are ordered create, recover, update, deactivate.
	Operations []*operation.AnchoredOperation
}

// TransformationInfo holds information required for document transformation.
type TransformationInfo map[string]interface{}

// Transformation info keys.
const (
	IDKey        = "id"
	PublishedKey = "published"
)

// OperationParser defines the functions for parsing operations.
type OperationParser interface {
	Parse(namespace string, operation []byte) (*operation.Operation, error)
	GetRevealValue(operation []byte) (string, error)
	GetCommitment(operation []byte) (string, error)
}

// OperationApplier applies the given operation to the document.
type OperationApplier interface {
	// Apply never returns an error: a rejected operation yields an Ignored result with the input state.
	Apply(op *operation.AnchoredOperation, state *DIDState) *ApplyResult

	// GetMultihashRevealValue returns the decoded reveal value multihash. A create has no reveal value.
	GetMultihashRevealValue(op *operation.AnchoredOperation) ([]byte, error)
}

// DocumentComposer applies patches to the document.
type DocumentComposer interface {
	ApplyPatches(doc document.Document, patches []patch.Patch) (document.Document, error)
}

// DocumentTransformer transforms internal resolution model into external document(resolution result).
type DocumentTransformer interface {
	TransformDocument(state *DIDState, info TransformationInfo) (*document.ResolutionResult, error)
}

// OperationHandler defines an interface for creating batch files.
type OperationHandler interface {
	// PrepareTxnFiles operations will create relevant batch files, store them in CAS and return anchor string.
	PrepareTxnFiles(ops []*operation.QueuedOperation, writerLockID string) (*AnchoringInfo, error)
}

// OperationProvider retrieves the anchored operations for a Sidetree transaction.
type OperationProvider interface {
	GetTxnOperations(ctx context.Context, sidetreeTxn *txn.SidetreeTxn) (*TxnOperations, error)
}

// TxnProcessor processes Sidetree transactions by persisting them to an operation store.
type TxnProcessor interface {
	// Process returns true if the transaction was handled and need not be retried, including
	// transactions that were ignored as invalid.
	Process(ctx context.Context, sidetreeTxn txn.SidetreeTxn) (bool, error)
}

// TxnSelector selects the transactions that qualify for processing under the throughput limits.
type TxnSelector interface {
	SelectQualifiedTransactions(txns []txn.SidetreeTxn) ([]txn.SidetreeTxn, error)
}

// ValueTimeLockVerifier verifies that a writer had enough value locked to anchor a batch.
type ValueTimeLockVerifier interface {
	Verify(lock *ledger.ValueTimeLock, numberOfOperations uint, transactionTime uint64, writer string) error
}

// FeeManager computes and verifies transaction fees.
type FeeManager interface {
	ComputeMinimumTransactionFee(normalizedFee uint64, numberOfOperations uint) uint64
	VerifyTransactionFee(feePaid uint64, numberOfOperations uint, normalizedFee uint64) error
}

// Version contains the protocol and corresponding implementations that are compatible with the protocol version.
type Version interface {
	Version() string
	Protocol() Protocol
	OperationParser() OperationParser
	OperationApplier() OperationApplier
	DocumentComposer() DocumentComposer
	DocumentTransformer() DocumentTransformer
	OperationHandler() OperationHandler
	OperationProvider() OperationProvider
	TransactionProcessor() TxnProcessor
	TransactionSelector() TxnSelector
	ValueTimeLockVerifier() ValueTimeLockVerifier
	FeeManager() FeeManager
}

// Client defines interface for accessing protocol version information.
type Client interface {
	// Current returns latest version of protocol.
	Current() (Version, error)

	// Get returns the version at the given transaction time.
	Get(transactionTime uint64) (Version, error)
}
