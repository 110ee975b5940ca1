/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trustbloc/sidetree-node-go/pkg/api/protocol"
)

// DefaultNS is default namespace used in mocks.
const DefaultNS = "did:sidetree"

//nolint:gomnd // protocol 1.0 defaults.
const (
	maxOperationCount         = 10000
	maxOperationSize          = 2500
	maxOperationHashLength    = 100
	maxDeltaSize              = 1000
	maxCasURILength           = 100
	maxCoreIndexFileSize      = 1000000
	maxProofFileSize          = 2500000
	maxProvisionalIndexSize   = 1000000
	maxChunkFileSize          = 10000000
	maxDecompressionFactor    = 3
	maxWriterLockIDSize       = 200
	maxOpsPerTransactionTime  = 600000
	maxTxnsPerTransactionTime = 300
	feeToPerOperationMult     = 0.01
	valueTimeLockAmountMult   = 600
	maxOpsForNoValueTimeLock  = 100
	compressionAlgorithm      = "GZIP"
	defaultVersion            = "1.0"
)

// GetDefaultProtocolParameters returns mock protocol parameters.
func GetDefaultProtocolParameters() protocol.Protocol {
	return protocol.Protocol{
		GenesisTime:                               0,
		MultihashAlgorithms:                       []uint{sha2_256},
		MaxOperationCount:                         maxOperationCount,
		MaxOperationSize:                          maxOperationSize,
		MaxOperationHashLength:                    maxOperationHashLength,
		MaxDeltaSize:                              maxDeltaSize,
		MaxCasURILength:                           maxCasURILength,
		CompressionAlgorithm:                      compressionAlgorithm,
		MaxCoreIndexFileSize:                      maxCoreIndexFileSize,
		MaxProofFileSize:                          maxProofFileSize,
		MaxProvisionalIndexFileSize:               maxProvisionalIndexSize,
		MaxChunkFileSize:                          maxChunkFileSize,
		MaxMemoryDecompressionFactor:              maxDecompressionFactor,
		MaxWriterLockIDSize:                       maxWriterLockIDSize,
		MaxNumberOfOperationsPerTransactionTime:   maxOpsPerTransactionTime,
		MaxNumberOfTransactionsPerTransactionTime: maxTxnsPerTransactionTime,
		NormalizedFeeToPerOperationFeeMultiplier:  feeToPerOperationMult,
		ValueTimeLockAmountMultiplier:             valueTimeLockAmountMult,
		MaxNumberOfOperationsForNoValueTimeLock:   maxOpsForNoValueTimeLock,
		Patches: []string{
			"replace", "add-public-keys", "remove-public-keys",
			"add-services", "remove-services", "ietf-json-patch",
		},
		SignatureAlgorithms: []string{"EdDSA", "ES256", "ES256K"},
		KeyAlgorithms:       []string{"Ed25519", "P-256", "secp256k1"},
	}
}

// ProtocolVersion implements a mock protocol version. Components are injected by the test.
type ProtocolVersion struct {
	VersionStr  string
	P           protocol.Protocol
	Parser      protocol.OperationParser
	Applier     protocol.OperationApplier
	Composer    protocol.DocumentComposer
	Transformer protocol.DocumentTransformer
	Handler     protocol.OperationHandler
	Provider    protocol.OperationProvider
	Processor   protocol.TxnProcessor
	Selector    protocol.TxnSelector
	Verifier    protocol.ValueTimeLockVerifier
	Fees        protocol.FeeManager
}

// NewProtocolVersion returns a mock version with the given protocol parameters.
func NewProtocolVersion(p protocol.Protocol) *ProtocolVersion {
	return &ProtocolVersion{VersionStr: defaultVersion, P: p}
}

// Version returns the version string.
func (m *ProtocolVersion) Version() string {
	return m.VersionStr
}

// Protocol returns the protocol parameters.
func (m *ProtocolVersion) Protocol() protocol.Protocol {
	return m.P
}

// OperationParser returns the operation parser.
func (m *ProtocolVersion) OperationParser() protocol.OperationParser {
	return m.Parser
}

// OperationApplier returns the operation applier.
func (m *ProtocolVersion) OperationApplier() protocol.OperationApplier {
	return m.Applier
}

// DocumentComposer returns the document composer.
func (m *ProtocolVersion) DocumentComposer() protocol.DocumentComposer {
	return m.Composer
}

// DocumentTransformer returns the document transformer.
func (m *ProtocolVersion) DocumentTransformer() protocol.DocumentTransformer {
	return m.Transformer
}

// OperationHandler returns the operation handler.
func (m *ProtocolVersion) OperationHandler() protocol.OperationHandler {
	return m.Handler
}

// OperationProvider returns the operation provider.
func (m *ProtocolVersion) OperationProvider() protocol.OperationProvider {
	return m.Provider
}

// TransactionProcessor returns the transaction processor.
func (m *ProtocolVersion) TransactionProcessor() protocol.TxnProcessor {
	return m.Processor
}

// TransactionSelector returns the transaction selector.
func (m *ProtocolVersion) TransactionSelector() protocol.TxnSelector {
	return m.Selector
}

// ValueTimeLockVerifier returns the value time lock verifier.
func (m *ProtocolVersion) ValueTimeLockVerifier() protocol.ValueTimeLockVerifier {
	return m.Verifier
}

// FeeManager returns the fee manager.
func (m *ProtocolVersion) FeeManager() protocol.FeeManager {
	return m.Fees
}

// MockProtocolClient mocks protocol for testing purposes.
type MockProtocolClient struct {
	mutex    sync.RWMutex
	versions []protocol.Version
	Err      error
}

// NewMockProtocolClient creates mocks protocol client with a single default version.
func NewMockProtocolClient() *MockProtocolClient {
	return NewMockProtocolClientWithVersions(NewProtocolVersion(GetDefaultProtocolParameters()))
}

// NewMockProtocolClientWithVersions creates mocks protocol client with the given versions.
func NewMockProtocolClientWithVersions(versions ...protocol.Version) *MockProtocolClient {
	v := append([]protocol.Version(nil), versions...)

	sort.SliceStable(v, func(i, j int) bool {
		return v[i].Protocol().GenesisTime < v[j].Protocol().GenesisTime
	})

	return &MockProtocolClient{versions: v}
}

// Current mocks getting last protocol version.
func (m *MockProtocolClient) Current() (protocol.Version, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	if len(m.versions) == 0 {
		return nil, errors.New("no protocol versions defined")
	}

	return m.versions[len(m.versions)-1], nil
}

// Get mocks getting the protocol version at the given transaction time.
func (m *MockProtocolClient) Get(transactionTime uint64) (protocol.Version, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	for i := len(m.versions) - 1; i >= 0; i-- {
		if transactionTime >= m.versions[i].Protocol().GenesisTime {
			return m.versions[i], nil
		}
	}

	return nil, errors.Errorf("protocol parameters are not defined for transaction time: %d", transactionTime)
}

// CurrentVersion returns the latest mock version for tests that inject components.
func (m *MockProtocolClient) CurrentVersion() *ProtocolVersion {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.versions[len(m.versions)-1].(*ProtocolVersion)
}
